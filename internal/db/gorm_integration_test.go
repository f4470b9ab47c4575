//go:build integration

package db

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupPostgres(t *testing.T) (*gorm.DB, *pgxpool.Pool) {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("foodgram"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	conn, err := gorm.Open(gormpostgres.Open(dsn), NewGormConfig(zap.NewNop()))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return conn, pool
}

func TestMigratePostgres(t *testing.T) {
	conn, pool := setupPostgres(t)
	ctx := context.Background()

	require.NoError(t, Migrate(conn))
	require.NoError(t, Migrate(conn), "migrations are repeatable")

	indexes := map[string]bool{}
	rows, err := pool.Query(ctx, "SELECT indexname FROM pg_indexes WHERE schemaname = 'public'")
	require.NoError(t, err)
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		indexes[name] = true
	}
	require.NoError(t, rows.Err())

	for _, name := range []string{
		"uidx_ingredient_name_unit",
		"uidx_recipe_ingredient",
		"uidx_favorite_user_recipe",
		"uidx_cart_user_recipe",
		"uidx_subscription_user_author",
	} {
		assert.True(t, indexes[name], "index %s", name)
	}
}

func TestConstraintsPostgres(t *testing.T) {
	conn, _ := setupPostgres(t)
	require.NoError(t, Migrate(conn))

	author := User{Email: "chef@mail.test", Username: "chef", FirstName: "C", LastName: "C", Password: "-"}
	require.NoError(t, conn.Create(&author).Error)
	salt := Ingredient{Name: "salt", MeasurementUnit: "g"}
	require.NoError(t, conn.Create(&salt).Error)

	recipe := Recipe{AuthorID: author.ID, Name: "Soup", Image: "recipes/images/a.png", Text: "Boil", CookingTime: 5}
	require.NoError(t, conn.Omit("Tags", "IngredientAmounts", "Author").Create(&recipe).Error)
	require.NoError(t, conn.Create(&IngredientInRecipe{RecipeID: recipe.ID, IngredientID: salt.ID, Amount: 3}).Error)

	t.Run("ingredient in use can't be deleted", func(t *testing.T) {
		err := conn.Delete(&Ingredient{}, salt.ID).Error
		assert.ErrorIs(t, err, gorm.ErrForeignKeyViolated)
	})

	t.Run("duplicate ingredient unit pair", func(t *testing.T) {
		err := conn.Create(&Ingredient{Name: "salt", MeasurementUnit: "g"}).Error
		assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
		assert.NoError(t, conn.Create(&Ingredient{Name: "salt", MeasurementUnit: "kg"}).Error)
	})

	t.Run("favorite is unique per user and recipe", func(t *testing.T) {
		require.NoError(t, conn.Create(&Favorite{UserID: author.ID, RecipeID: recipe.ID}).Error)
		err := conn.Create(&Favorite{UserID: author.ID, RecipeID: recipe.ID}).Error
		assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
	})

	t.Run("deleting the author removes the recipe", func(t *testing.T) {
		require.NoError(t, conn.Delete(&User{}, author.ID).Error)

		var count int64
		require.NoError(t, conn.Model(&Recipe{}).Count(&count).Error)
		assert.Zero(t, count)
		require.NoError(t, conn.Model(&Favorite{}).Count(&count).Error)
		assert.Zero(t, count)
	})
}
