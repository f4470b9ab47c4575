package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/authz"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/config"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/media"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/metrics"
)

type (
	Recipes struct {
		db        *gorm.DB
		media     media.Store
		authz     *authz.Enforcer
		logger    *zap.SugaredLogger
		publicURL string
	}

	RecipeFilter struct {
		TagSlugs         []string
		AuthorID         uint64
		IsFavorited      bool
		IsInShoppingCart bool
	}
)

func NewRecipes(conn *gorm.DB, store media.Store, enforcer *authz.Enforcer, cfg *config.Config, l *zap.SugaredLogger) *Recipes {
	return &Recipes{
		db:        conn,
		media:     store,
		authz:     enforcer,
		logger:    l,
		publicURL: cfg.PublicURL,
	}
}

// Create writes a whole recipe aggregate for author in one transaction.
func (s *Recipes) Create(ctx context.Context, author *db.User, in RecipeInput) (*RecipeView, error) {
	if author == nil {
		return nil, UnauthorizedError(CodeAuthenticationRequired, "authentication credentials were not provided")
	}
	if err := ValidateRecipe(in, false); err != nil {
		return nil, err
	}

	imageRef, err := s.saveImage(ctx, *in.Image)
	if err != nil {
		return nil, err
	}

	recipe := db.Recipe{
		AuthorID:    author.ID,
		Name:        strings.TrimSpace(*in.Name),
		Text:        *in.Text,
		CookingTime: *in.CookingTime,
		Image:       imageRef,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkReferences(tx, *in.Ingredients, *in.Tags); err != nil {
			return err
		}
		if err := checkNameFree(tx, recipe.Name, 0); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(&recipe).Error; err != nil {
			if isDuplicate(err) {
				return ConflictError(CodeDuplicateName, "a recipe with this name already exists")
			}
			return errors.Wrap(err, "create recipe")
		}
		if err := replaceIngredients(tx, recipe.ID, *in.Ingredients); err != nil {
			return err
		}
		return replaceTags(tx, recipe.ID, *in.Tags)
	})
	if err != nil {
		s.removeImage(ctx, imageRef)
		return nil, err
	}

	metrics.RecipeWrites.WithLabelValues("create").Inc()
	s.logger.Infow("recipe created", "recipe_id", recipe.ID, "author_id", author.ID)

	return s.Get(ctx, author, recipe.ID)
}

// Update replaces the supplied parts of a recipe. Ingredients and tags are
// always rewritten as a whole set.
func (s *Recipes) Update(ctx context.Context, actor *db.User, id uint64, in RecipeInput) (*RecipeView, error) {
	if actor == nil {
		return nil, UnauthorizedError(CodeAuthenticationRequired, "authentication credentials were not provided")
	}

	recipe, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.authz.CanWrite(actor, recipe.AuthorID) {
		return nil, PermissionError("only the author can change this recipe")
	}
	if err := ValidateRecipe(in, true); err != nil {
		return nil, err
	}

	var newImage string
	if in.Image != nil {
		if newImage, err = s.saveImage(ctx, *in.Image); err != nil {
			return nil, err
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ingredients []IngredientAmount
		var tags []uint64
		if in.Ingredients != nil {
			ingredients = *in.Ingredients
		}
		if in.Tags != nil {
			tags = *in.Tags
		}
		if err := checkReferences(tx, ingredients, tags); err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if err := checkNameFree(tx, name, recipe.ID); err != nil {
				return err
			}
			updates["name"] = name
		}
		if in.Text != nil {
			updates["text"] = *in.Text
		}
		if in.CookingTime != nil {
			updates["cooking_time"] = *in.CookingTime
		}
		if newImage != "" {
			updates["image"] = newImage
		}
		if len(updates) > 0 {
			if err := tx.Model(&db.Recipe{}).Where("id = ?", recipe.ID).Updates(updates).Error; err != nil {
				if isDuplicate(err) {
					return ConflictError(CodeDuplicateName, "a recipe with this name already exists")
				}
				return errors.Wrap(err, "update recipe")
			}
		}

		if in.Ingredients != nil {
			if err := replaceIngredients(tx, recipe.ID, ingredients); err != nil {
				return err
			}
		}
		if in.Tags != nil {
			if err := replaceTags(tx, recipe.ID, tags); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.removeImage(ctx, newImage)
		return nil, err
	}
	if newImage != "" {
		s.removeImage(ctx, recipe.Image)
	}

	metrics.RecipeWrites.WithLabelValues("update").Inc()
	s.logger.Infow("recipe updated", "recipe_id", recipe.ID, "actor_id", actor.ID)

	return s.Get(ctx, actor, recipe.ID)
}

func (s *Recipes) Delete(ctx context.Context, actor *db.User, id uint64) error {
	if actor == nil {
		return UnauthorizedError(CodeAuthenticationRequired, "authentication credentials were not provided")
	}

	recipe, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if !s.authz.CanWrite(actor, recipe.AuthorID) {
		return PermissionError("only the author can delete this recipe")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		children := []struct {
			name  string
			model interface{}
		}{
			{"ingredients", &db.IngredientInRecipe{}},
			{"tags", &db.RecipeTag{}},
			{"favorites", &db.Favorite{}},
			{"shopping carts", &db.ShoppingCart{}},
		}
		for _, child := range children {
			if err := tx.Where("recipe_id = ?", recipe.ID).Delete(child.model).Error; err != nil {
				return errors.Wrapf(err, "delete recipe %s", child.name)
			}
		}
		if err := tx.Delete(&db.Recipe{}, recipe.ID).Error; err != nil {
			return errors.Wrap(err, "delete recipe")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.removeImage(ctx, recipe.Image)
	metrics.RecipeWrites.WithLabelValues("delete").Inc()
	s.logger.Infow("recipe deleted", "recipe_id", recipe.ID, "actor_id", actor.ID)
	return nil
}

func (s *Recipes) Get(ctx context.Context, viewer *db.User, id uint64) (*RecipeView, error) {
	recipes, err := s.load(ctx, []uint64{id})
	if err != nil {
		return nil, err
	}
	if len(recipes) == 0 {
		return nil, NotFoundError("id", fmt.Sprintf("recipe %d not found", id))
	}

	views, err := s.project(ctx, viewer, recipes)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// List returns recipes newest first, narrowed by filter. The favorite and
// cart filters only apply to authenticated viewers.
func (s *Recipes) List(ctx context.Context, viewer *db.User, filter RecipeFilter, page PageRequest) (*Page[RecipeView], error) {
	base := squirrel.Select().From("recipes r")

	if len(filter.TagSlugs) > 0 {
		sub, args, err := squirrel.Select("rt.recipe_id").From("recipe_tags rt").
			Join("tags t ON t.id = rt.tag_id").
			Where(squirrel.Eq{"t.slug": filter.TagSlugs}).
			ToSql()
		if err != nil {
			return nil, errors.Wrap(err, "build tags filter")
		}
		base = base.Where("r.id IN ("+sub+")", args...)
	}
	if filter.AuthorID != 0 {
		base = base.Where(squirrel.Eq{"r.author_id": filter.AuthorID})
	}
	if viewer != nil && filter.IsFavorited {
		base = base.Where("r.id IN (SELECT f.recipe_id FROM favorites f WHERE f.user_id = ?)", viewer.ID)
	}
	if viewer != nil && filter.IsInShoppingCart {
		base = base.Where("r.id IN (SELECT sc.recipe_id FROM shopping_carts sc WHERE sc.user_id = ?)", viewer.ID)
	}

	countSQL, countArgs, err := base.Columns("COUNT(*)").ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build count sql")
	}
	var count int64
	if err := s.db.WithContext(ctx).Raw(countSQL, countArgs...).Scan(&count).Error; err != nil {
		return nil, errors.Wrap(err, "count recipes")
	}
	if err := page.check(count); err != nil {
		return nil, err
	}

	idsSQL, idsArgs, err := base.Columns("r.id").
		OrderBy("r.created_at DESC", "r.id DESC").
		Limit(uint64(page.Limit)).
		Offset(uint64(page.Offset())).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build list sql")
	}
	ids := make([]uint64, 0, page.Limit)
	if err := s.db.WithContext(ctx).Raw(idsSQL, idsArgs...).Scan(&ids).Error; err != nil {
		return nil, errors.Wrap(err, "list recipe ids")
	}

	recipes, err := s.load(ctx, ids)
	if err != nil {
		return nil, err
	}
	views, err := s.project(ctx, viewer, recipes)
	if err != nil {
		return nil, err
	}

	return &Page[RecipeView]{Count: count, Page: page.Page, Limit: page.Limit, Items: views}, nil
}

func (s *Recipes) Favorite(ctx context.Context, viewer *db.User, id uint64) (*RecipeMinifiedView, error) {
	return s.addTo(ctx, relationFavorite, viewer, id, &db.Favorite{}, "recipe is already in favorites")
}

func (s *Recipes) Unfavorite(ctx context.Context, viewer *db.User, id uint64) error {
	return s.removeFrom(ctx, relationFavorite, viewer, id, &db.Favorite{}, "recipe is not in favorites")
}

func (s *Recipes) AddToCart(ctx context.Context, viewer *db.User, id uint64) (*RecipeMinifiedView, error) {
	return s.addTo(ctx, relationShoppingCart, viewer, id, &db.ShoppingCart{}, "recipe is already in the shopping cart")
}

func (s *Recipes) RemoveFromCart(ctx context.Context, viewer *db.User, id uint64) error {
	return s.removeFrom(ctx, relationShoppingCart, viewer, id, &db.ShoppingCart{}, "recipe is not in the shopping cart")
}

func (s *Recipes) addTo(ctx context.Context, relation string, viewer *db.User, id uint64, row interface{}, existsMsg string) (*RecipeMinifiedView, error) {
	if viewer == nil {
		return nil, UnauthorizedError(CodeAuthenticationRequired, "authentication credentials were not provided")
	}
	recipe, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	switch r := row.(type) {
	case *db.Favorite:
		r.UserID, r.RecipeID = viewer.ID, recipe.ID
	case *db.ShoppingCart:
		r.UserID, r.RecipeID = viewer.ID, recipe.ID
	}
	where := map[string]interface{}{"user_id": viewer.ID, "recipe_id": recipe.ID}
	if err := toggle(relation, "add", addPair(ctx, s.db, row, where, existsMsg)); err != nil {
		return nil, err
	}

	v := ProjectRecipeMinified(recipe, s.media.URL)
	return &v, nil
}

func (s *Recipes) removeFrom(ctx context.Context, relation string, viewer *db.User, id uint64, model interface{}, missingMsg string) error {
	if viewer == nil {
		return UnauthorizedError(CodeAuthenticationRequired, "authentication credentials were not provided")
	}
	recipe, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	where := map[string]interface{}{"user_id": viewer.ID, "recipe_id": recipe.ID}
	return toggle(relation, "remove", removePair(ctx, s.db, model, where, missingMsg))
}

// ShortLink returns the public short URL of an existing recipe.
func (s *Recipes) ShortLink(ctx context.Context, id uint64) (string, error) {
	if _, err := s.find(ctx, id); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/s/%d", s.publicURL, id), nil
}

// ResolveShortLink returns the frontend path a short link points to.
func (s *Recipes) ResolveShortLink(ctx context.Context, id uint64) (string, error) {
	if _, err := s.find(ctx, id); err != nil {
		return "", err
	}
	return fmt.Sprintf("/recipes/%d/", id), nil
}

func (s *Recipes) find(ctx context.Context, id uint64) (*db.Recipe, error) {
	recipe := db.Recipe{}
	if err := s.db.WithContext(ctx).First(&recipe, id).Error; err != nil {
		if isRecordNotFound(err) {
			return nil, NotFoundError("id", fmt.Sprintf("recipe %d not found", id))
		}
		return nil, errors.Wrap(err, "find recipe")
	}
	return &recipe, nil
}

// load fetches recipes with everything the projection needs, in the order of ids.
func (s *Recipes) load(ctx context.Context, ids []uint64) ([]db.Recipe, error) {
	if len(ids) == 0 {
		return []db.Recipe{}, nil
	}

	recipes := make([]db.Recipe, 0, len(ids))
	err := s.db.WithContext(ctx).
		Preload("Author").
		Preload("Tags").
		Preload("IngredientAmounts", func(tx *gorm.DB) *gorm.DB { return tx.Order("id") }).
		Preload("IngredientAmounts.Ingredient").
		Where("id IN ?", ids).
		Find(&recipes).Error
	if err != nil {
		return nil, errors.Wrap(err, "load recipes")
	}

	byID := make(map[uint64]db.Recipe, len(recipes))
	for _, r := range recipes {
		byID[r.ID] = r
	}
	ordered := make([]db.Recipe, 0, len(recipes))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			ordered = append(ordered, r)
		}
	}
	return ordered, nil
}

func (s *Recipes) project(ctx context.Context, viewer *db.User, recipes []db.Recipe) ([]RecipeView, error) {
	ids := make([]uint64, len(recipes))
	authorIDs := make([]uint64, len(recipes))
	for i := range recipes {
		ids[i] = recipes[i].ID
		authorIDs[i] = recipes[i].AuthorID
	}

	flags, err := recipeFlags(ctx, s.db, viewer, ids)
	if err != nil {
		return nil, err
	}
	subscribed, err := subscribedTo(ctx, s.db, viewer, authorIDs)
	if err != nil {
		return nil, err
	}

	views := make([]RecipeView, len(recipes))
	for i := range recipes {
		author := ProjectUser(&recipes[i].Author, subscribed[recipes[i].AuthorID], s.media.URL)
		views[i] = ProjectRecipe(&recipes[i], author, flags[recipes[i].ID], s.media.URL)
	}
	return views, nil
}

func (s *Recipes) saveImage(ctx context.Context, dataURI string) (string, error) {
	img, err := media.Decode(dataURI)
	if err != nil {
		return "", ValidationError(CodeInvalidImage, "image", "image must be a base64 encoded data:image URI")
	}
	ref, err := s.media.Save(ctx, media.RecipeImagesDir, img)
	if err != nil {
		return "", errors.Wrap(err, "save recipe image")
	}
	return ref, nil
}

// removeImage is best effort; failures are only logged.
func (s *Recipes) removeImage(ctx context.Context, ref string) {
	if ref == "" {
		return
	}
	if err := s.media.Delete(ctx, ref); err != nil {
		s.logger.Warnw("failed to remove recipe image", "ref", ref, "error", err)
	}
}

func checkReferences(tx *gorm.DB, ingredients []IngredientAmount, tags []uint64) error {
	if len(ingredients) > 0 {
		ids := make([]uint64, len(ingredients))
		for i := range ingredients {
			ids[i] = ingredients[i].ID
		}
		if missing, err := missingIDs(tx, &db.Ingredient{}, ids); err != nil {
			return errors.Wrap(err, "check ingredients")
		} else if missing != 0 {
			return NotFoundError("ingredients", fmt.Sprintf("ingredient %d not found", missing))
		}
	}
	if len(tags) > 0 {
		if missing, err := missingIDs(tx, &db.Tag{}, tags); err != nil {
			return errors.Wrap(err, "check tags")
		} else if missing != 0 {
			return NotFoundError("tags", fmt.Sprintf("tag %d not found", missing))
		}
	}
	return nil
}

// missingIDs returns the first of ids with no row in model's table, or 0.
func missingIDs(tx *gorm.DB, model interface{}, ids []uint64) (uint64, error) {
	found := make([]uint64, 0, len(ids))
	if err := tx.Model(model).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return 0, err
	}
	present := make(map[uint64]struct{}, len(found))
	for _, id := range found {
		present[id] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := present[id]; !ok {
			return id, nil
		}
	}
	return 0, nil
}

func checkNameFree(tx *gorm.DB, name string, exceptID uint64) error {
	var count int64
	q := tx.Model(&db.Recipe{}).Where("name = ?", name)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return errors.Wrap(err, "check recipe name")
	}
	if count > 0 {
		return ConflictError(CodeDuplicateName, "a recipe with this name already exists")
	}
	return nil
}

// replaceIngredients drops every ingredient row of the recipe and writes items.
func replaceIngredients(tx *gorm.DB, recipeID uint64, items []IngredientAmount) error {
	if err := tx.Where("recipe_id = ?", recipeID).Delete(&db.IngredientInRecipe{}).Error; err != nil {
		return errors.Wrap(err, "delete recipe ingredients")
	}
	rows := make([]db.IngredientInRecipe, len(items))
	for i, item := range items {
		rows[i] = db.IngredientInRecipe{
			RecipeID:     recipeID,
			IngredientID: item.ID,
			Amount:       item.Amount,
		}
	}
	if err := tx.Omit(clause.Associations).CreateInBatches(&rows, 100).Error; err != nil {
		return errors.Wrap(err, "insert recipe ingredients")
	}
	return nil
}

// replaceTags drops every tag link of the recipe and writes tagIDs.
func replaceTags(tx *gorm.DB, recipeID uint64, tagIDs []uint64) error {
	if err := tx.Where("recipe_id = ?", recipeID).Delete(&db.RecipeTag{}).Error; err != nil {
		return errors.Wrap(err, "delete recipe tags")
	}
	rows := make([]db.RecipeTag, len(tagIDs))
	for i, id := range tagIDs {
		rows[i] = db.RecipeTag{RecipeID: recipeID, TagID: id}
	}
	if err := tx.CreateInBatches(&rows, 100).Error; err != nil {
		return errors.Wrap(err, "insert recipe tags")
	}
	return nil
}
