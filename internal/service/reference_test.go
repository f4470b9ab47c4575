package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db/dbtest"
)

func ingredientNames(views []IngredientView) []string {
	names := make([]string, len(views))
	for i, v := range views {
		names[i] = v.Name
	}
	return names
}

func TestIngredientSearch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, name := range []string{"sugar", "sea salt", "salted butter", "salt", "100%_juice"} {
		dbtest.Ingredient(t, f.db, name, "g")
	}

	all, err := f.reference.Ingredients(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"100%_juice", "salt", "salted butter", "sea salt", "sugar"}, ingredientNames(all))

	found, err := f.reference.Ingredients(ctx, "SALT")
	require.NoError(t, err)
	assert.Equal(t, []string{"salt", "salted butter", "sea salt"}, ingredientNames(found))

	found, err = f.reference.Ingredients(ctx, "%_")
	require.NoError(t, err)
	assert.Equal(t, []string{"100%_juice"}, ingredientNames(found), "wildcards are matched literally")

	found, err = f.reference.Ingredients(ctx, "nothing")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestIngredientAndTagByID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	salt := dbtest.Ingredient(t, f.db, "salt", "g")
	tag := dbtest.Tag(t, f.db, "dinner")

	i, err := f.reference.Ingredient(ctx, salt.ID)
	require.NoError(t, err)
	assert.Equal(t, IngredientView{ID: salt.ID, Name: "salt", MeasurementUnit: "g"}, *i)

	tv, err := f.reference.Tag(ctx, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, "slug-dinner", tv.Slug)

	_, err = f.reference.Ingredient(ctx, 999)
	requireKind(t, err, KindNotFound)
	_, err = f.reference.Tag(ctx, 999)
	requireKind(t, err, KindNotFound)
}

func TestTagsOrdered(t *testing.T) {
	f := newFixture(t)
	dbtest.Tag(t, f.db, "lunch")
	dbtest.Tag(t, f.db, "breakfast")

	tags, err := f.reference.Tags(context.Background())
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "breakfast", tags[0].Name)
}

func TestImportSkipsExisting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dbtest.Ingredient(t, f.db, "salt", "g")

	created, err := f.reference.ImportIngredients(ctx, []db.Ingredient{
		{Name: "salt", MeasurementUnit: "g"},
		{Name: "salt", MeasurementUnit: "kg"},
		{Name: "milk", MeasurementUnit: "ml"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), created)

	created, err = f.reference.ImportIngredients(ctx, []db.Ingredient{{Name: "milk", MeasurementUnit: "ml"}})
	require.NoError(t, err)
	assert.Zero(t, created)

	created, err = f.reference.ImportTags(ctx, []db.Tag{
		{Name: "Breakfast", Slug: "breakfast"},
		{Name: "Lunch", Slug: "lunch"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), created)

	created, err = f.reference.ImportTags(ctx, []db.Tag{{Name: "Breakfast", Slug: "breakfast"}})
	require.NoError(t, err)
	assert.Zero(t, created)

	created, err = f.reference.ImportTags(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, created)
}
