package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"metaed/internal/api"
	"metaed/internal/config"
	"metaed/internal/pg"

	"github.com/spf13/cobra"
)

// openCatalog открывает базу и при AutoMigrate создаёт таблицы каталога.
func openCatalog(ctx context.Context, cfg config.Config, log *slog.Logger) (*pg.DB, error) {
	db, err := pg.OpenURL(ctx, cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if cfg.Database.AutoMigrate {
		if err := pg.ApplyDDL(ctx, db.DB, pg.CatalogDDL(db.Dialect), log); err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Info("catalog schema applied", "dialect", db.Dialect)
	}
	return db, nil
}

func exportCmd(f *rootFlags) *cobra.Command {
	var (
		dbURL   string
		migrate bool
	)
	cmd := &cobra.Command{
		Use:   "export [patterns...]",
		Short: "Build the model and write it to the catalog tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(cmd, f, args)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("db") {
				cfg.Database.URL = dbURL
			}
			if migrate {
				cfg.Database.AutoMigrate = true
			}
			if cfg.Database.URL == "" {
				return errors.New("database url is required (--db or database.url)")
			}
			ctx := cmd.Context()

			res, err := buildModel(ctx, cfg, log, nil)
			if err != nil {
				return err
			}
			db, err := openCatalog(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer db.Close()

			snap := api.NewStorage(res).Current()
			stats, err := pg.Export(ctx, db, snap.ID, snap.BuiltAt, res)
			if err != nil {
				return err
			}
			log.Info("model exported", "buildId", snap.ID, "entities", stats.Entities,
				"properties", stats.Properties, "failures", stats.Failures)
			_, err = fmt.Fprintln(cmd.OutOrStdout(), snap.ID)
			return err
		},
	}
	cmd.Flags().StringVar(&dbURL, "db", "", "postgres://... or sqlite://path")
	cmd.Flags().BoolVar(&migrate, "migrate", false, "Create the catalog tables before exporting")
	return cmd
}
