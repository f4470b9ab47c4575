package media

import (
	"context"

	"github.com/pkg/errors"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/config"
)

const (
	RecipeImagesDir = "recipes/images"
	AvatarsDir      = "users/avatars"
)

// Store keeps uploaded images and hands back opaque references to them.
type Store interface {
	Save(ctx context.Context, dir string, img *Image) (string, error)
	Delete(ctx context.Context, ref string) error
	URL(ref string) string
}

func NewStore(cfg *config.Config) (Store, error) {
	switch cfg.MediaBackend {
	case config.MediaBackendLocal:
		return NewLocalStore(cfg.MediaRoot, cfg.PublicURL+cfg.MediaURL), nil
	case config.MediaBackendS3:
		return NewS3Store(context.Background(), cfg)
	}
	return nil, errors.Errorf("unknown media backend %q", cfg.MediaBackend)
}
