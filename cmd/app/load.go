package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/config"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/db"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/importer"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/logger"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/service"
)

var (
	loadFile string

	loadIngredientsCmd = &cobra.Command{
		Use:   "load-ingredients",
		Short: "import ingredients from a JSON or CSV file",
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := importer.IngredientsFromFile(loadFile)
			if err != nil {
				return err
			}
			return withReference(func(ref *service.Reference, l *zap.SugaredLogger) error {
				added, err := ref.ImportIngredients(cmd.Context(), rows)
				if err != nil {
					return err
				}
				l.Infow("ingredients loaded", "file", loadFile, "read", len(rows), "added", added)
				return nil
			})
		},
	}

	loadTagsCmd = &cobra.Command{
		Use:   "load-tags",
		Short: "import tags from a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := importer.TagsFromFile(loadFile)
			if err != nil {
				return err
			}
			return withReference(func(ref *service.Reference, l *zap.SugaredLogger) error {
				added, err := ref.ImportTags(cmd.Context(), rows)
				if err != nil {
					return err
				}
				l.Infow("tags loaded", "file", loadFile, "read", len(rows), "added", added)
				return nil
			})
		},
	}
)

// withReference opens the database without starting any servers.
func withReference(fn func(*service.Reference, *zap.SugaredLogger) error) error {
	cfg, err := config.NewConfig()
	if err != nil {
		return err
	}
	zl, err := logger.NewLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = zl.Sync() }()
	l := logger.NewSugared(zl)

	conn, err := db.NewGormClient(cfg, zl)
	if err != nil {
		return err
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return errors.Wrap(err, "get sql db")
	}
	defer sqlDB.Close()

	return fn(service.NewReference(conn, l), l)
}

func init() {
	for _, cmd := range []*cobra.Command{loadIngredientsCmd, loadTagsCmd} {
		cmd.Flags().StringVarP(&loadFile, "file", "f", "", "path to the data file")
		_ = cmd.MarkFlagRequired("file")
		rootCmd.AddCommand(cmd)
	}
}
