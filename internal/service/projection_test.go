package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db"
)

func testURL(ref string) string {
	if ref == "" {
		return ""
	}
	return "http://foodgram.test/media/" + ref
}

func TestProjectRecipe(t *testing.T) {
	recipe := &db.Recipe{
		GormForkedModel: db.GormForkedModel{ID: 7},
		Name:            "Pancakes",
		Image:           "recipes/images/a.png",
		Text:            "Fry",
		CookingTime:     20,
		Tags: []db.Tag{
			{ID: 2, Name: "lunch", Slug: "lunch"},
			{ID: 1, Name: "breakfast", Slug: "breakfast"},
		},
		IngredientAmounts: []db.IngredientInRecipe{
			{ID: 11, IngredientID: 5, Ingredient: db.Ingredient{ID: 5, Name: "milk", MeasurementUnit: "ml"}, Amount: 200},
			{ID: 10, IngredientID: 9, Ingredient: db.Ingredient{ID: 9, Name: "flour", MeasurementUnit: "g"}, Amount: 100},
		},
	}
	author := UserView{ID: 3, Username: "chef"}

	v := ProjectRecipe(recipe, author, RecipeFlags{Favorited: true}, testURL)

	assert.Equal(t, uint64(7), v.ID)
	assert.Equal(t, "http://foodgram.test/media/recipes/images/a.png", v.Image)
	assert.Equal(t, author, v.Author)
	assert.Equal(t, []TagView{
		{ID: 1, Name: "breakfast", Slug: "breakfast"},
		{ID: 2, Name: "lunch", Slug: "lunch"},
	}, v.Tags)
	assert.Equal(t, []RecipeIngredientView{
		{ID: 9, Name: "flour", MeasurementUnit: "g", Amount: 100},
		{ID: 5, Name: "milk", MeasurementUnit: "ml", Amount: 200},
	}, v.Ingredients)
	assert.True(t, v.IsFavorited)
	assert.False(t, v.IsInShoppingCart)
}

func TestProjectUser(t *testing.T) {
	u := &db.User{GormForkedModel: db.GormForkedModel{ID: 1}, Email: "a@b.c", Username: "a"}

	v := ProjectUser(u, true, testURL)
	assert.Nil(t, v.Avatar)
	assert.True(t, v.IsSubscribed)

	u.Avatar = "users/avatars/x.png"
	v = ProjectUser(u, false, testURL)
	if assert.NotNil(t, v.Avatar) {
		assert.Equal(t, "http://foodgram.test/media/users/avatars/x.png", *v.Avatar)
	}
}

func TestProjectRecipeMinified(t *testing.T) {
	r := &db.Recipe{GormForkedModel: db.GormForkedModel{ID: 4}, Name: "Tea", Image: "i.png", CookingTime: 3}
	assert.Equal(t, RecipeMinifiedView{ID: 4, Name: "Tea", Image: "http://foodgram.test/media/i.png", CookingTime: 3},
		ProjectRecipeMinified(r, testURL))
}

func TestPageRequest(t *testing.T) {
	p := PageRequest{}.Normalize(6)
	assert.Equal(t, PageRequest{Page: 1, Limit: 6}, p)
	assert.Equal(t, 0, p.Offset())

	p = PageRequest{Page: 3, Limit: 1000}.Normalize(6)
	assert.Equal(t, MaxPageLimit, p.Limit)
	assert.Equal(t, 200, p.Offset())

	assert.NoError(t, PageRequest{Page: 1, Limit: 6}.check(0))
	assert.NoError(t, PageRequest{Page: 2, Limit: 6}.check(7))
	requireKind(t, PageRequest{Page: 2, Limit: 6}.check(6), KindNotFound)

	page := &Page[int]{Count: 7, Page: 1, Limit: 6}
	assert.True(t, page.HasNext())
	assert.False(t, page.HasPrevious())
	page.Page = 2
	assert.False(t, page.HasNext())
	assert.True(t, page.HasPrevious())
}
