package transport

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db/dbtest"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/service"
)

func recipeBody(name string, ingredients []service.IngredientAmount, tags []uint64) map[string]interface{} {
	return map[string]interface{}{
		"name":         name,
		"text":         "Cook it",
		"cooking_time": 15,
		"image":        pixelPNG,
		"ingredients":  ingredients,
		"tags":         tags,
	}
}

func TestRecipeLifecycle(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signUp(t, "chef")
	other := ts.signUp(t, "guest")
	salt := dbtest.Ingredient(t, ts.db, "salt", "g")
	tag := dbtest.Tag(t, ts.db, "lunch")

	rec := ts.do(t, http.MethodPost, "/api/recipes/", "",
		recipeBody("Soup", []service.IngredientAmount{{ID: salt.ID, Amount: 5}}, []uint64{tag.ID}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/recipes/", token,
		recipeBody("Soup", []service.IngredientAmount{{ID: salt.ID, Amount: 5}}, []uint64{tag.ID}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[service.RecipeView](t, rec)
	assert.Equal(t, "Soup", created.Name)
	assert.Equal(t, "chef", created.Author.Username)
	require.Len(t, created.Ingredients, 1)
	assert.Equal(t, 5, created.Ingredients[0].Amount)
	id := itoa(created.ID)

	rec = ts.do(t, http.MethodGet, "/api/recipes/"+id+"/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.ID, decode[service.RecipeView](t, rec).ID)

	rec = ts.do(t, http.MethodPatch, "/api/recipes/"+id+"/", other, map[string]interface{}{"name": "Stolen"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "permission", decode[ErrorResp](t, rec).Category)

	rec = ts.do(t, http.MethodPatch, "/api/recipes/"+id+"/", token, map[string]interface{}{"name": "Broth"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Broth", decode[service.RecipeView](t, rec).Name)

	rec = ts.do(t, http.MethodDelete, "/api/recipes/"+id+"/", other, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/api/recipes/"+id+"/", token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/recipes/"+id+"/", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecipeCreateErrors(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signUp(t, "chef")
	salt := dbtest.Ingredient(t, ts.db, "salt", "g")
	tag := dbtest.Tag(t, ts.db, "lunch")

	tests := []struct {
		name     string
		body     map[string]interface{}
		status   int
		category string
		code     string
	}{
		{
			name:     "no ingredients",
			body:     recipeBody("A", []service.IngredientAmount{}, []uint64{tag.ID}),
			status:   http.StatusBadRequest,
			category: "validation",
			code:     string(service.CodeMissingIngredients),
		},
		{
			name:     "duplicate ingredient",
			body:     recipeBody("B", []service.IngredientAmount{{ID: salt.ID, Amount: 1}, {ID: salt.ID, Amount: 2}}, []uint64{tag.ID}),
			status:   http.StatusBadRequest,
			category: "validation",
			code:     string(service.CodeDuplicateIngredient),
		},
		{
			name:     "unknown ingredient",
			body:     recipeBody("C", []service.IngredientAmount{{ID: 999, Amount: 1}}, []uint64{tag.ID}),
			status:   http.StatusNotFound,
			category: "not_found",
		},
		{
			name:     "zero amount",
			body:     recipeBody("D", []service.IngredientAmount{{ID: salt.ID, Amount: 0}}, []uint64{tag.ID}),
			status:   http.StatusBadRequest,
			category: "validation",
			code:     string(service.CodeAmountOutOfRange),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/api/recipes/", token, tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			resp := decode[ErrorResp](t, rec)
			assert.Equal(t, tt.category, resp.Category)
			if tt.code != "" {
				assert.Equal(t, tt.code, resp.Code)
			}
		})
	}
}

func TestFavoritesAndShoppingCart(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signUp(t, "chef")
	salt := dbtest.Ingredient(t, ts.db, "salt", "g")
	milk := dbtest.Ingredient(t, ts.db, "milk", "ml")
	tag := dbtest.Tag(t, ts.db, "lunch")

	ids := make([]string, 0, 2)
	for i, amounts := range [][]service.IngredientAmount{
		{{ID: salt.ID, Amount: 10}, {ID: milk.ID, Amount: 200}},
		{{ID: salt.ID, Amount: 15}},
	} {
		rec := ts.do(t, http.MethodPost, "/api/recipes/", token, recipeBody("Dish "+itoa(uint64(i)), amounts, []uint64{tag.ID}))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		ids = append(ids, itoa(decode[service.RecipeView](t, rec).ID))
	}

	rec := ts.do(t, http.MethodPost, "/api/recipes/"+ids[0]+"/favorite/", token, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Dish 0", decode[service.RecipeMinifiedView](t, rec).Name)

	rec = ts.do(t, http.MethodPost, "/api/recipes/"+ids[0]+"/favorite/", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/recipes/?is_favorited=1", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[PageResp[service.RecipeView]](t, rec)
	require.Len(t, page.Results, 1)
	assert.True(t, page.Results[0].IsFavorited)

	rec = ts.do(t, http.MethodDelete, "/api/recipes/"+ids[0]+"/favorite/", token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = ts.do(t, http.MethodDelete, "/api/recipes/"+ids[0]+"/favorite/", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/recipes/999/favorite/", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	for _, id := range ids {
		rec = ts.do(t, http.MethodPost, "/api/recipes/"+id+"/shopping_cart/", token, nil)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec = ts.do(t, http.MethodGet, "/api/recipes/download_shopping_cart/", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="shopping_list.txt"`, rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.Equal(t, "milk (ml) — 200\nsalt (g) — 25", rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/api/recipes/download_shopping_cart/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRecipeListFilters(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signUp(t, "chef")
	salt := dbtest.Ingredient(t, ts.db, "salt", "g")
	lunch := dbtest.Tag(t, ts.db, "lunch")
	dinner := dbtest.Tag(t, ts.db, "dinner")

	for _, r := range []struct {
		name string
		tag  uint64
	}{{"One", lunch.ID}, {"Two", dinner.ID}, {"Three", dinner.ID}} {
		rec := ts.do(t, http.MethodPost, "/api/recipes/", token,
			recipeBody(r.name, []service.IngredientAmount{{ID: salt.ID, Amount: 1}}, []uint64{r.tag}))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := ts.do(t, http.MethodGet, "/api/recipes/?tags=slug-dinner", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[PageResp[service.RecipeView]](t, rec)
	require.Equal(t, int64(2), page.Count)
	assert.Equal(t, "Three", page.Results[0].Name, "newest first")

	rec = ts.do(t, http.MethodGet, "/api/recipes/?tags=slug-dinner&tags=slug-lunch&limit=2", "", nil)
	page = decode[PageResp[service.RecipeView]](t, rec)
	assert.Equal(t, int64(3), page.Count)
	assert.Len(t, page.Results, 2)
	assert.NotNil(t, page.Next)

	rec = ts.do(t, http.MethodGet, "/api/recipes/?author=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/recipes/?is_favorited=1", "", nil)
	assert.Equal(t, int64(3), decode[PageResp[service.RecipeView]](t, rec).Count)
}

func TestShortLink(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signUp(t, "chef")
	salt := dbtest.Ingredient(t, ts.db, "salt", "g")
	tag := dbtest.Tag(t, ts.db, "lunch")

	rec := ts.do(t, http.MethodPost, "/api/recipes/", token,
		recipeBody("Soup", []service.IngredientAmount{{ID: salt.ID, Amount: 1}}, []uint64{tag.ID}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := itoa(decode[service.RecipeView](t, rec).ID)

	rec = ts.do(t, http.MethodGet, "/api/recipes/"+id+"/get-link/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	link := decode[ShortLinkResp](t, rec)
	assert.Equal(t, "http://foodgram.test/s/"+id, link.ShortLink)

	rec = ts.do(t, http.MethodGet, "/s/"+id, "", nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/recipes/"+id+"/", rec.Header().Get("Location"))

	rec = ts.do(t, http.MethodGet, "/s/12345", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubscriptionRecipesLimit(t *testing.T) {
	ts := newTestServer(t)
	chef := ts.signUp(t, "chef")
	fan := ts.signUp(t, "fan")
	salt := dbtest.Ingredient(t, ts.db, "salt", "g")
	tag := dbtest.Tag(t, ts.db, "lunch")

	var authorID uint64
	for _, name := range []string{"Soup", "Stew"} {
		rec := ts.do(t, http.MethodPost, "/api/recipes/", chef,
			recipeBody(name, []service.IngredientAmount{{ID: salt.ID, Amount: 1}}, []uint64{tag.ID}))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		authorID = decode[service.RecipeView](t, rec).Author.ID
	}

	rec := ts.do(t, http.MethodPost, "/api/users/"+itoa(authorID)+"/subscribe/?recipes_limit=0", fan, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sub := decode[service.SubscriptionView](t, rec)
	assert.Empty(t, sub.Recipes)
	assert.Equal(t, int64(2), sub.RecipesCount)

	tests := []struct {
		query string
		want  int
	}{
		{"", 2},
		{"?recipes_limit=1", 1},
		{"?recipes_limit=0", 0},
		{"?recipes_limit=-3", 2},
		{"?recipes_limit=many", 2},
	}
	for _, tt := range tests {
		t.Run("limit "+tt.query, func(t *testing.T) {
			rec := ts.do(t, http.MethodGet, "/api/users/subscriptions/"+tt.query, fan, nil)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			page := decode[PageResp[service.SubscriptionView]](t, rec)
			require.Len(t, page.Results, 1)
			assert.Len(t, page.Results[0].Recipes, tt.want)
			assert.Equal(t, int64(2), page.Results[0].RecipesCount)
		})
	}
}
