package service

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db"
)

const maxRecipeNameLen = 256

type (
	IngredientAmount struct {
		ID     uint64 `json:"id"`
		Amount int    `json:"amount"`
	}

	// RecipeInput is a create or update payload. A nil field was not
	// supplied; on update it leaves the stored value alone.
	RecipeInput struct {
		Name        *string             `json:"name"`
		Text        *string             `json:"text"`
		CookingTime *int                `json:"cooking_time"`
		Image       *string             `json:"image"`
		Ingredients *[]IngredientAmount `json:"ingredients"`
		Tags        *[]uint64           `json:"tags"`
	}
)

// ValidateRecipe checks a recipe payload before anything touches the database.
// partial is set for updates, where absent fields are allowed.
func ValidateRecipe(in RecipeInput, partial bool) error {
	if in.Ingredients != nil || !partial {
		if err := validateIngredients(in.Ingredients); err != nil {
			return err
		}
	}

	if in.Tags != nil || !partial {
		if err := validateTags(in.Tags); err != nil {
			return err
		}
	}

	if in.Ingredients != nil {
		for _, item := range *in.Ingredients {
			if item.Amount < db.MinAmount || item.Amount > db.MaxAmount {
				return ValidationError(CodeAmountOutOfRange, "ingredients",
					fmt.Sprintf("amount of ingredient %d must be between %d and %d", item.ID, db.MinAmount, db.MaxAmount))
			}
		}
	}

	if in.CookingTime == nil && !partial {
		return ValidationError(CodeMissingField, "cooking_time", "this field is required")
	}
	if in.CookingTime != nil && (*in.CookingTime < db.MinCookingTime || *in.CookingTime > db.MaxCookingTime) {
		return ValidationError(CodeCookingTimeOutOfRange, "cooking_time",
			fmt.Sprintf("cooking time must be between %d and %d minutes", db.MinCookingTime, db.MaxCookingTime))
	}

	if err := requiredText("name", in.Name, partial); err != nil {
		return err
	}
	if in.Name != nil && utf8.RuneCountInString(strings.TrimSpace(*in.Name)) > maxRecipeNameLen {
		return ValidationError(CodeFieldTooLong, "name", fmt.Sprintf("name must be at most %d characters", maxRecipeNameLen))
	}
	if err := requiredText("text", in.Text, partial); err != nil {
		return err
	}
	return requiredText("image", in.Image, partial)
}

func validateIngredients(items *[]IngredientAmount) error {
	if items == nil || len(*items) == 0 {
		return ValidationError(CodeMissingIngredients, "ingredients", "at least one ingredient is required")
	}
	seen := make(map[uint64]struct{}, len(*items))
	for _, item := range *items {
		if _, ok := seen[item.ID]; ok {
			return ValidationError(CodeDuplicateIngredient, "ingredients",
				fmt.Sprintf("ingredient %d is listed more than once", item.ID))
		}
		seen[item.ID] = struct{}{}
	}
	return nil
}

func validateTags(tags *[]uint64) error {
	if tags == nil || len(*tags) == 0 {
		return ValidationError(CodeMissingTags, "tags", "at least one tag is required")
	}
	seen := make(map[uint64]struct{}, len(*tags))
	for _, id := range *tags {
		if _, ok := seen[id]; ok {
			return ValidationError(CodeDuplicateTag, "tags", fmt.Sprintf("tag %d is listed more than once", id))
		}
		seen[id] = struct{}{}
	}
	return nil
}

func requiredText(field string, value *string, partial bool) error {
	if value == nil {
		if partial {
			return nil
		}
		return ValidationError(CodeMissingField, field, "this field is required")
	}
	if strings.TrimSpace(*value) == "" {
		return ValidationError(CodeMissingField, field, "this field may not be blank")
	}
	return nil
}
