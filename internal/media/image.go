package media

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var ErrInvalidImage = errors.New("invalid base64 image")

const dataURIPrefix = "data:image/"

type Image struct {
	Data        []byte
	Ext         string
	ContentType string
}

// Decode parses a "data:image/<ext>;base64,<payload>" string.
func Decode(dataURI string) (*Image, error) {
	if !strings.HasPrefix(dataURI, dataURIPrefix) {
		return nil, errors.Wrap(ErrInvalidImage, "missing data:image prefix")
	}
	header, payload, ok := strings.Cut(dataURI, ";base64,")
	if !ok {
		return nil, errors.Wrap(ErrInvalidImage, "missing base64 marker")
	}
	ext := strings.ToLower(strings.TrimPrefix(header, dataURIPrefix))
	if ext == "" || strings.ContainsAny(ext, "/;,. ") {
		return nil, errors.Wrap(ErrInvalidImage, "bad image type")
	}
	if ext == "jpg" {
		ext = "jpeg"
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidImage, err.Error())
	}
	if len(data) == 0 {
		return nil, errors.Wrap(ErrInvalidImage, "empty payload")
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		contentType = "image/" + ext
	}

	return &Image{Data: data, Ext: ext, ContentType: contentType}, nil
}

// NewName returns a fresh storage key under dir.
func (i *Image) NewName(dir string) string {
	return strings.TrimSuffix(dir, "/") + "/" + uuid.New().String() + "." + i.Ext
}
