// Package importer reads ingredient and tag reference data from files.
package importer

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db"
)

var ErrUnknownFormat = errors.New("unknown file format")

type (
	ingredientRecord struct {
		Name            string `json:"name"`
		MeasurementUnit string `json:"measurement_unit"`
	}

	tagRecord struct {
		Name string `json:"name"`
		Slug string `json:"slug"`
	}
)

// IngredientsFromFile picks the decoder by extension: .json or .csv.
func IngredientsFromFile(path string) ([]db.Ingredient, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open ingredients file")
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return IngredientsJSON(f)
	case ".csv":
		return IngredientsCSV(f)
	default:
		return nil, errors.Wrapf(ErrUnknownFormat, "ingredients file %s", path)
	}
}

func TagsFromFile(path string) ([]db.Tag, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open tags file")
	}
	defer f.Close()

	if strings.ToLower(filepath.Ext(path)) != ".json" {
		return nil, errors.Wrapf(ErrUnknownFormat, "tags file %s", path)
	}
	return TagsJSON(f)
}

// IngredientsJSON decodes an array of {name, measurement_unit} objects.
// Entries with an empty name or unit are skipped.
func IngredientsJSON(r io.Reader) ([]db.Ingredient, error) {
	records := make([]ingredientRecord, 0)
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, errors.Wrap(err, "decode ingredients")
	}

	rows := make([]db.Ingredient, 0, len(records))
	for _, rec := range records {
		name, unit := strings.TrimSpace(rec.Name), strings.TrimSpace(rec.MeasurementUnit)
		if name == "" || unit == "" {
			continue
		}
		rows = append(rows, db.Ingredient{Name: name, MeasurementUnit: unit})
	}
	return rows, nil
}

// IngredientsCSV reads headerless "name,unit" rows. Short rows are skipped.
func IngredientsCSV(r io.Reader) ([]db.Ingredient, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	rows := make([]db.Ingredient, 0)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read ingredients csv")
		}
		if len(record) < 2 {
			continue
		}
		name, unit := strings.TrimSpace(record[0]), strings.TrimSpace(record[1])
		if name == "" || unit == "" {
			continue
		}
		rows = append(rows, db.Ingredient{Name: name, MeasurementUnit: unit})
	}
	return rows, nil
}

func TagsJSON(r io.Reader) ([]db.Tag, error) {
	records := make([]tagRecord, 0)
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, errors.Wrap(err, "decode tags")
	}

	rows := make([]db.Tag, 0, len(records))
	for _, rec := range records {
		name, slug := strings.TrimSpace(rec.Name), strings.TrimSpace(rec.Slug)
		if name == "" || slug == "" {
			continue
		}
		rows = append(rows, db.Tag{Name: name, Slug: slug})
	}
	return rows, nil
}
