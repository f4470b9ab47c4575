package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db"
)

const importBatchSize = 500

// Reference serves the read-only ingredient and tag catalogs.
type Reference struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

func NewReference(conn *gorm.DB, l *zap.SugaredLogger) *Reference {
	return &Reference{
		db:     conn,
		logger: l,
	}
}

// Ingredients lists ingredients by name. A non-empty search keeps names that
// contain it, case-insensitively, with prefix matches first.
func (s *Reference) Ingredients(ctx context.Context, search string) ([]IngredientView, error) {
	q := s.db.WithContext(ctx).Model(&db.Ingredient{})

	search = strings.ToLower(strings.TrimSpace(search))
	if search != "" {
		escaped := escapeLike(search)
		q = q.Where(`LOWER(name) LIKE ? ESCAPE '\'`, "%"+escaped+"%").
			Order(clause.OrderBy{Expression: clause.Expr{
				SQL:                `CASE WHEN LOWER(name) LIKE ? ESCAPE '\' THEN 0 ELSE 1 END, name, id`,
				Vars:               []interface{}{escaped + "%"},
				WithoutParentheses: true,
			}})
	} else {
		q = q.Order("name").Order("id")
	}

	ingredients := make([]db.Ingredient, 0)
	if err := q.Find(&ingredients).Error; err != nil {
		return nil, errors.Wrap(err, "list ingredients")
	}

	views := make([]IngredientView, len(ingredients))
	for i := range ingredients {
		views[i] = ProjectIngredient(&ingredients[i])
	}
	return views, nil
}

func (s *Reference) Ingredient(ctx context.Context, id uint64) (*IngredientView, error) {
	ingredient := db.Ingredient{}
	if err := s.db.WithContext(ctx).First(&ingredient, id).Error; err != nil {
		if isRecordNotFound(err) {
			return nil, NotFoundError("id", fmt.Sprintf("ingredient %d not found", id))
		}
		return nil, errors.Wrap(err, "find ingredient")
	}
	v := ProjectIngredient(&ingredient)
	return &v, nil
}

func (s *Reference) Tags(ctx context.Context) ([]TagView, error) {
	tags := make([]db.Tag, 0)
	if err := s.db.WithContext(ctx).Order("name").Find(&tags).Error; err != nil {
		return nil, errors.Wrap(err, "list tags")
	}
	views := make([]TagView, len(tags))
	for i := range tags {
		views[i] = ProjectTag(&tags[i])
	}
	return views, nil
}

func (s *Reference) Tag(ctx context.Context, id uint64) (*TagView, error) {
	tag := db.Tag{}
	if err := s.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		if isRecordNotFound(err) {
			return nil, NotFoundError("id", fmt.Sprintf("tag %d not found", id))
		}
		return nil, errors.Wrap(err, "find tag")
	}
	v := ProjectTag(&tag)
	return &v, nil
}

// ImportIngredients inserts the rows that are not there yet and returns how
// many were created.
func (s *Reference) ImportIngredients(ctx context.Context, rows []db.Ingredient) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(&rows, importBatchSize)
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "import ingredients")
	}
	s.logger.Infow("ingredients imported", "rows", len(rows), "created", res.RowsAffected)
	return res.RowsAffected, nil
}

func (s *Reference) ImportTags(ctx context.Context, rows []db.Tag) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(&rows, importBatchSize)
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "import tags")
	}
	s.logger.Infow("tags imported", "rows", len(rows), "created", res.RowsAffected)
	return res.RowsAffected, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
