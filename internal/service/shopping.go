package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/metrics"
)

const ShoppingListFilename = "shopping_list.txt"

// ShoppingItem is one aggregated line of a shopping list.
type ShoppingItem struct {
	Name            string
	MeasurementUnit string
	Total           int64
}

// ShoppingItems sums ingredient amounts over every recipe in the viewer's cart.
func (s *Recipes) ShoppingItems(ctx context.Context, viewer *db.User) ([]ShoppingItem, error) {
	if viewer == nil {
		return nil, UnauthorizedError(CodeAuthenticationRequired, "authentication credentials were not provided")
	}

	query, args, err := squirrel.
		Select("i.name AS name", "i.measurement_unit AS measurement_unit", "SUM(ir.amount) AS total").
		From("shopping_carts sc").
		Join("ingredient_in_recipes ir ON ir.recipe_id = sc.recipe_id").
		Join("ingredients i ON i.id = ir.ingredient_id").
		Where(squirrel.Eq{"sc.user_id": viewer.ID}).
		GroupBy("i.name", "i.measurement_unit").
		OrderBy("i.name", "i.measurement_unit").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build shopping list sql")
	}

	items := make([]ShoppingItem, 0)
	if err := s.db.WithContext(ctx).Raw(query, args...).Scan(&items).Error; err != nil {
		return nil, errors.Wrap(err, "aggregate shopping list")
	}
	metrics.ShoppingListLines.Observe(float64(len(items)))
	return items, nil
}

// ShoppingList renders the viewer's shopping list as plain text.
func (s *Recipes) ShoppingList(ctx context.Context, viewer *db.User) (string, error) {
	items, err := s.ShoppingItems(ctx, viewer)
	if err != nil {
		return "", err
	}
	return RenderShoppingList(items), nil
}

// RenderShoppingList prints one line per item, in the order given.
func RenderShoppingList(items []ShoppingItem) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = fmt.Sprintf("%s (%s) — %d", item.Name, item.MeasurementUnit, item.Total)
	}
	return strings.Join(lines, "\n")
}
