package db

import (
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/config"
)

const (
	MinAmount = 1
	MaxAmount = 600

	MinCookingTime = 1
	MaxCookingTime = 600
)

type (
	GormForkedModel struct {
		ID        uint64 `gorm:"primarykey"`
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	User struct {
		GormForkedModel
		Email       string `gorm:"size:254;unique;not null"`
		Username    string `gorm:"size:150;unique;not null"`
		FirstName   string `gorm:"size:150;not null"`
		LastName    string `gorm:"size:150;not null"`
		Password    string `gorm:"not null"`
		Token       string `gorm:"index"`
		Avatar      string
		IsSuperuser bool `gorm:"not null;default:false"`
	}

	// Ingredient is reference data. It can't be removed while a recipe uses it.
	Ingredient struct {
		ID              uint64 `gorm:"primarykey"`
		Name            string `gorm:"size:200;not null;uniqueIndex:uidx_ingredient_name_unit"`
		MeasurementUnit string `gorm:"size:50;not null;uniqueIndex:uidx_ingredient_name_unit"`
	}

	Tag struct {
		ID   uint64 `gorm:"primarykey"`
		Name string `gorm:"size:32;unique;not null"`
		Slug string `gorm:"size:32;unique;not null"`
	}

	Recipe struct {
		GormForkedModel
		AuthorID          uint64 `gorm:"not null;index"`
		Author            User   `gorm:"constraint:OnDelete:CASCADE"`
		Name              string `gorm:"size:256;unique;not null"`
		Image             string `gorm:"not null"`
		Text              string `gorm:"not null"`
		CookingTime       int    `gorm:"not null"`
		Tags              []Tag  `gorm:"many2many:recipe_tags;"`
		IngredientAmounts []IngredientInRecipe
	}

	IngredientInRecipe struct {
		ID           uint64     `gorm:"primarykey"`
		RecipeID     uint64     `gorm:"not null;uniqueIndex:uidx_recipe_ingredient"`
		Recipe       *Recipe    `gorm:"constraint:OnDelete:CASCADE"`
		IngredientID uint64     `gorm:"not null;uniqueIndex:uidx_recipe_ingredient"`
		Ingredient   Ingredient `gorm:"constraint:OnDelete:RESTRICT"`
		Amount       int        `gorm:"not null"`
	}

	// RecipeTag is the join table behind Recipe.Tags.
	RecipeTag struct {
		RecipeID uint64 `gorm:"primaryKey"`
		TagID    uint64 `gorm:"primaryKey"`
	}

	Favorite struct {
		ID        uint64  `gorm:"primarykey"`
		UserID    uint64  `gorm:"not null;uniqueIndex:uidx_favorite_user_recipe"`
		User      *User   `gorm:"constraint:OnDelete:CASCADE"`
		RecipeID  uint64  `gorm:"not null;uniqueIndex:uidx_favorite_user_recipe"`
		Recipe    *Recipe `gorm:"constraint:OnDelete:CASCADE"`
		CreatedAt time.Time
	}

	ShoppingCart struct {
		ID        uint64  `gorm:"primarykey"`
		UserID    uint64  `gorm:"not null;uniqueIndex:uidx_cart_user_recipe"`
		User      *User   `gorm:"constraint:OnDelete:CASCADE"`
		RecipeID  uint64  `gorm:"not null;uniqueIndex:uidx_cart_user_recipe"`
		Recipe    *Recipe `gorm:"constraint:OnDelete:CASCADE"`
		CreatedAt time.Time
	}

	// Subscription: UserID follows AuthorID.
	Subscription struct {
		ID        uint64 `gorm:"primarykey"`
		UserID    uint64 `gorm:"not null;uniqueIndex:uidx_subscription_user_author"`
		User      *User  `gorm:"constraint:OnDelete:CASCADE"`
		AuthorID  uint64 `gorm:"not null;uniqueIndex:uidx_subscription_user_author"`
		Author    *User  `gorm:"constraint:OnDelete:CASCADE"`
		CreatedAt time.Time
	}
)

func NewGormClient(cfg *config.Config, l *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), NewGormConfig(l))
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect database")
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

func NewGormConfig(l *zap.Logger) *gorm.Config {
	newLogger := logger.New(zap.NewStdLog(l.Named("gorm")), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
	return &gorm.Config{
		Logger:         newLogger,
		TranslateError: true,
	}
}

func Migrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&Recipe{}, "Tags", &RecipeTag{}); err != nil {
		return errors.Wrap(err, "setup recipe tags join table")
	}

	models := []struct {
		name  string
		model interface{}
	}{
		{"user", &User{}},
		{"ingredient", &Ingredient{}},
		{"tag", &Tag{}},
		{"recipe", &Recipe{}},
		{"recipe tag", &RecipeTag{}},
		{"ingredient in recipe", &IngredientInRecipe{}},
		{"favorite", &Favorite{}},
		{"shopping cart", &ShoppingCart{}},
		{"subscription", &Subscription{}},
	}
	for _, m := range models {
		if err := db.AutoMigrate(m.model); err != nil {
			return errors.Wrapf(err, "migrate %s", m.name)
		}
	}

	return nil
}
