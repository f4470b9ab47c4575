// Package dbtest opens throwaway sqlite databases with the production schema
// and seeds reference rows for tests.
package dbtest

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db"
)

func New(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "foodgram.db") + "?_foreign_keys=on&_busy_timeout=5000"
	conn, err := gorm.Open(sqlite.Open(dsn), db.NewGormConfig(zap.NewNop()))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))

	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}

func User(t *testing.T, conn *gorm.DB, username string) *db.User {
	t.Helper()

	u := &db.User{
		Email:     username + "@foodgram.test",
		Username:  username,
		FirstName: "First " + username,
		LastName:  "Last " + username,
		Password:  "-",
	}
	require.NoError(t, conn.Create(u).Error)
	return u
}

func Ingredient(t *testing.T, conn *gorm.DB, name, unit string) *db.Ingredient {
	t.Helper()

	i := &db.Ingredient{Name: name, MeasurementUnit: unit}
	require.NoError(t, conn.Create(i).Error)
	return i
}

func Tag(t *testing.T, conn *gorm.DB, name string) *db.Tag {
	t.Helper()

	tag := &db.Tag{Name: name, Slug: fmt.Sprintf("slug-%s", name)}
	require.NoError(t, conn.Create(tag).Error)
	return tag
}
