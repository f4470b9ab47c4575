package service

import (
	"sort"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db"
)

type (
	// URLFunc turns a stored-file reference into a public URL.
	URLFunc func(ref string) string

	UserView struct {
		ID           uint64  `json:"id"`
		Email        string  `json:"email"`
		Username     string  `json:"username"`
		FirstName    string  `json:"first_name"`
		LastName     string  `json:"last_name"`
		IsSubscribed bool    `json:"is_subscribed"`
		Avatar       *string `json:"avatar"`
	}

	SubscriptionView struct {
		UserView
		Recipes      []RecipeMinifiedView `json:"recipes"`
		RecipesCount int64                `json:"recipes_count"`
	}

	TagView struct {
		ID   uint64 `json:"id"`
		Name string `json:"name"`
		Slug string `json:"slug"`
	}

	IngredientView struct {
		ID              uint64 `json:"id"`
		Name            string `json:"name"`
		MeasurementUnit string `json:"measurement_unit"`
	}

	RecipeIngredientView struct {
		ID              uint64 `json:"id"`
		Name            string `json:"name"`
		MeasurementUnit string `json:"measurement_unit"`
		Amount          int    `json:"amount"`
	}

	RecipeView struct {
		ID               uint64                 `json:"id"`
		Name             string                 `json:"name"`
		Author           UserView               `json:"author"`
		Image            string                 `json:"image"`
		Text             string                 `json:"text"`
		Tags             []TagView              `json:"tags"`
		Ingredients      []RecipeIngredientView `json:"ingredients"`
		CookingTime      int                    `json:"cooking_time"`
		IsFavorited      bool                   `json:"is_favorited"`
		IsInShoppingCart bool                   `json:"is_in_shopping_cart"`
	}

	RecipeMinifiedView struct {
		ID          uint64 `json:"id"`
		Name        string `json:"name"`
		Image       string `json:"image"`
		CookingTime int    `json:"cooking_time"`
	}

	// RecipeFlags is what the viewer has done with a recipe.
	RecipeFlags struct {
		Favorited      bool
		InShoppingCart bool
	}
)

func ProjectUser(u *db.User, isSubscribed bool, url URLFunc) UserView {
	v := UserView{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: isSubscribed,
	}
	if u.Avatar != "" {
		avatar := url(u.Avatar)
		v.Avatar = &avatar
	}
	return v
}

func ProjectTag(t *db.Tag) TagView {
	return TagView{ID: t.ID, Name: t.Name, Slug: t.Slug}
}

func ProjectIngredient(i *db.Ingredient) IngredientView {
	return IngredientView{ID: i.ID, Name: i.Name, MeasurementUnit: i.MeasurementUnit}
}

// ProjectRecipe builds the read model of a recipe. Tags come out ordered by
// name and ingredients in the order they were written.
func ProjectRecipe(r *db.Recipe, author UserView, flags RecipeFlags, url URLFunc) RecipeView {
	tags := make([]TagView, len(r.Tags))
	for i := range r.Tags {
		tags[i] = ProjectTag(&r.Tags[i])
	}
	sort.SliceStable(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })

	amounts := make([]db.IngredientInRecipe, len(r.IngredientAmounts))
	copy(amounts, r.IngredientAmounts)
	sort.SliceStable(amounts, func(i, j int) bool { return amounts[i].ID < amounts[j].ID })

	ingredients := make([]RecipeIngredientView, len(amounts))
	for i, a := range amounts {
		ingredients[i] = RecipeIngredientView{
			ID:              a.Ingredient.ID,
			Name:            a.Ingredient.Name,
			MeasurementUnit: a.Ingredient.MeasurementUnit,
			Amount:          a.Amount,
		}
	}

	return RecipeView{
		ID:               r.ID,
		Name:             r.Name,
		Author:           author,
		Image:            url(r.Image),
		Text:             r.Text,
		Tags:             tags,
		Ingredients:      ingredients,
		CookingTime:      r.CookingTime,
		IsFavorited:      flags.Favorited,
		IsInShoppingCart: flags.InShoppingCart,
	}
}

func ProjectRecipeMinified(r *db.Recipe, url URLFunc) RecipeMinifiedView {
	return RecipeMinifiedView{
		ID:          r.ID,
		Name:        r.Name,
		Image:       url(r.Image),
		CookingTime: r.CookingTime,
	}
}
