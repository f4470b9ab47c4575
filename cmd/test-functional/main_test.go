//go:build functional

package test_functional

import (
	"context"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pixelPNG = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

type (
	LoginResp struct {
		AuthToken string `json:"auth_token"`
	}

	RecipeResp struct {
		ID   uint64 `json:"id"`
		Name string `json:"name"`
	}
)

func register(t *testing.T, ctx context.Context, username string) string {
	t.Helper()

	resp, err := resty.New().R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{
			"email":      username + "@mail.test",
			"username":   username,
			"first_name": "First",
			"last_name":  "Last",
			"password":   "secret-" + username,
		}).
		Post(apiURL("/api/users/"))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode(), resp.String())

	resp, err = resty.New().R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetResult(&LoginResp{}).
		SetBody(map[string]string{
			"email":    username + "@mail.test",
			"password": "secret-" + username,
		}).
		Post(apiURL("/api/auth/token/login/"))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode(), resp.String())

	got, ok := resp.Result().(*LoginResp)
	require.True(t, ok)
	return got.AuthToken
}

func TestRegister(t *testing.T) {
	t.Run("successful register", func(t *testing.T) {
		defer FlushDB()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()

		token := register(t, ctx, "tester")
		assert.NotEmpty(t, token)

		var username string
		err := DBConn.QueryRow(ctx, "SELECT username FROM users WHERE token=$1", token).Scan(&username)
		assert.NoError(t, err)
		assert.Equal(t, "tester", username)
	})

	t.Run("bad body", func(t *testing.T) {
		defer FlushDB()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()

		resp, err := resty.New().R().
			SetHeader("Content-Type", "application/json").
			SetContext(ctx).
			SetBody(`{"something": "???"}`).
			Post(apiURL("/api/users/"))
		assert.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode())
	})
}

func TestRecipeAndShoppingCart(t *testing.T) {
	defer FlushDB()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*20)
	defer cancel()

	var ingredientID, tagID uint64
	err := DBConn.QueryRow(ctx,
		`INSERT INTO ingredients (name, measurement_unit) VALUES ('functional salt', 'g')
		ON CONFLICT (name, measurement_unit) DO UPDATE SET name = EXCLUDED.name RETURNING id`).Scan(&ingredientID)
	require.NoError(t, err)
	err = DBConn.QueryRow(ctx,
		`INSERT INTO tags (name, slug) VALUES ('functional', 'functional')
		ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name RETURNING id`).Scan(&tagID)
	require.NoError(t, err)

	token := register(t, ctx, "cook")
	client := resty.New().SetHeader("Authorization", "Token "+token)

	resp, err := client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetResult(&RecipeResp{}).
		SetBody(map[string]interface{}{
			"name":         "Functional soup",
			"text":         "Boil",
			"cooking_time": 10,
			"image":        pixelPNG,
			"ingredients":  []map[string]uint64{{"id": ingredientID, "amount": 3}},
			"tags":         []uint64{tagID},
		}).
		Post(apiURL("/api/recipes/"))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode(), resp.String())
	recipe := resp.Result().(*RecipeResp)

	resp, err = client.R().SetContext(ctx).
		Post(apiURL("/api/recipes/" + strconv.FormatUint(recipe.ID, 10) + "/shopping_cart/"))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode(), resp.String())

	resp, err = client.R().SetContext(ctx).Get(apiURL("/api/recipes/download_shopping_cart/"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, "functional salt (g) — 3", resp.String())
}
