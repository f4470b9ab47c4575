package service

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/metrics"
)

const (
	relationFavorite     = "favorite"
	relationShoppingCart = "shopping_cart"
	relationSubscription = "subscription"
)

// addPair inserts a join row unless the pair is already there.
func addPair(ctx context.Context, conn *gorm.DB, row interface{}, where map[string]interface{}, existsMsg string) error {
	return conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(row).Where(where).Count(&count).Error; err != nil {
			return errors.Wrap(err, "check pair")
		}
		if count > 0 {
			return ConflictError(CodeAlreadyExists, existsMsg)
		}
		if err := tx.Create(row).Error; err != nil {
			if isDuplicate(err) {
				return ConflictError(CodeAlreadyExists, existsMsg)
			}
			return errors.Wrap(err, "create pair")
		}
		return nil
	})
}

// removePair deletes a join row and fails when there was nothing to delete.
func removePair(ctx context.Context, conn *gorm.DB, model interface{}, where map[string]interface{}, missingMsg string) error {
	res := conn.WithContext(ctx).Where(where).Delete(model)
	if res.Error != nil {
		return errors.Wrap(res.Error, "delete pair")
	}
	if res.RowsAffected == 0 {
		return StateError(missingMsg)
	}
	return nil
}

func toggle(relation, action string, err error) error {
	metrics.RecordToggle(relation, action, err)
	return err
}

// pluckRecipeIDs returns which of ids have a row for userID in the given join model.
func pluckRecipeIDs(ctx context.Context, conn *gorm.DB, model interface{}, userID uint64, ids []uint64) (map[uint64]bool, error) {
	set := make(map[uint64]bool, len(ids))
	if len(ids) == 0 {
		return set, nil
	}
	found := make([]uint64, 0, len(ids))
	err := conn.WithContext(ctx).Model(model).
		Where("user_id = ? AND recipe_id IN ?", userID, ids).
		Pluck("recipe_id", &found).Error
	if err != nil {
		return nil, errors.Wrap(err, "pluck recipe ids")
	}
	for _, id := range found {
		set[id] = true
	}
	return set, nil
}

// recipeFlags computes is_favorited / is_in_shopping_cart for a batch of recipes.
func recipeFlags(ctx context.Context, conn *gorm.DB, viewer *db.User, ids []uint64) (map[uint64]RecipeFlags, error) {
	flags := make(map[uint64]RecipeFlags, len(ids))
	if viewer == nil {
		return flags, nil
	}

	favorites, err := pluckRecipeIDs(ctx, conn, &db.Favorite{}, viewer.ID, ids)
	if err != nil {
		return nil, errors.Wrap(err, "favorites")
	}
	cart, err := pluckRecipeIDs(ctx, conn, &db.ShoppingCart{}, viewer.ID, ids)
	if err != nil {
		return nil, errors.Wrap(err, "shopping cart")
	}

	for _, id := range ids {
		flags[id] = RecipeFlags{Favorited: favorites[id], InShoppingCart: cart[id]}
	}
	return flags, nil
}

// subscribedTo reports which of authorIDs the viewer follows. The viewer is
// never reported as subscribed to themselves.
func subscribedTo(ctx context.Context, conn *gorm.DB, viewer *db.User, authorIDs []uint64) (map[uint64]bool, error) {
	set := make(map[uint64]bool, len(authorIDs))
	if viewer == nil || len(authorIDs) == 0 {
		return set, nil
	}
	found := make([]uint64, 0, len(authorIDs))
	err := conn.WithContext(ctx).Model(&db.Subscription{}).
		Where("user_id = ? AND author_id IN ?", viewer.ID, authorIDs).
		Pluck("author_id", &found).Error
	if err != nil {
		return nil, errors.Wrap(err, "pluck subscriptions")
	}
	for _, id := range found {
		if id != viewer.ID {
			set[id] = true
		}
	}
	return set, nil
}
