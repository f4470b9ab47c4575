package media

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

type LocalStore struct {
	root    string
	baseURL string
}

func NewLocalStore(root, baseURL string) *LocalStore {
	return &LocalStore{
		root:    root,
		baseURL: baseURL,
	}
}

func (s *LocalStore) Root() string {
	return s.root
}

func (s *LocalStore) Save(_ context.Context, dir string, img *Image) (string, error) {
	ref := img.NewName(dir)
	path := s.path(ref)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", errors.Wrap(err, "create media dir")
	}
	if err := os.WriteFile(path, img.Data, 0o644); err != nil {
		return "", errors.Wrap(err, "write media file")
	}
	return ref, nil
}

func (s *LocalStore) Delete(_ context.Context, ref string) error {
	if ref == "" {
		return nil
	}
	if err := os.Remove(s.path(ref)); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "remove media file")
	}
	return nil
}

func (s *LocalStore) URL(ref string) string {
	if ref == "" {
		return ""
	}
	return s.baseURL + ref
}

func (s *LocalStore) path(ref string) string {
	clean := filepath.Clean("/" + strings.TrimPrefix(ref, "/"))
	return filepath.Join(s.root, filepath.FromSlash(clean))
}
