package main

import (
	"context"
	"log/slog"
	"net"

	"metaed/internal/api"
	"metaed/internal/builder"
	"metaed/internal/config"
	"metaed/internal/pg"

	"github.com/spf13/cobra"
)

// modelServer связывает сборку, хранилище API и необязательный экспорт.
type modelServer struct {
	cfg     config.Config
	log     *slog.Logger
	storage *api.Storage
	db      *pg.DB
}

func (s *modelServer) reload(ctx context.Context, patterns []string) (*builder.Result, error) {
	return buildModel(ctx, s.cfg, s.log, patterns)
}

// publish подменяет модель и, если настроена база, экспортирует её.
func (s *modelServer) publish(ctx context.Context, res *builder.Result) {
	snap := s.storage.Swap(res)
	s.log.Info("model published", "buildId", snap.ID)
	if s.db == nil {
		return
	}
	stats, err := pg.Export(ctx, s.db, snap.ID, snap.BuiltAt, res)
	if err != nil {
		s.log.Error("export failed", "buildId", snap.ID, "error", err)
		return
	}
	s.log.Info("model exported", "buildId", snap.ID, "entities", stats.Entities, "properties", stats.Properties)
}

// rebuild вызывается наблюдателем после изменений в исходниках.
func (s *modelServer) rebuild(ctx context.Context, changed []string) {
	s.log.Info("sources changed", "files", changed)
	res, err := s.reload(ctx, nil)
	if err != nil {
		s.log.Error("rebuild failed, keeping previous model", "error", err)
		return
	}
	if res.Failures.HasErrors() && !s.cfg.Server.ForceReload {
		s.log.Warn("rebuild has errors, keeping previous model", "errors", len(res.Failures.Errors()))
		return
	}
	s.publish(ctx, res)
}

func serveCmd(f *rootFlags) *cobra.Command {
	var (
		port  string
		watch bool
		dbURL string
	)
	cmd := &cobra.Command{
		Use:   "serve [patterns...]",
		Short: "Serve the model over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(cmd, f, args)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if cmd.Flags().Changed("watch") {
				cfg.Watch.Enabled = watch
			}
			if cmd.Flags().Changed("db") {
				cfg.Database.URL = dbURL
			}
			ctx := cmd.Context()

			s := &modelServer{cfg: cfg, log: log, storage: api.NewStorage(nil)}
			if cfg.Database.URL != "" {
				db, err := openCatalog(ctx, cfg, log)
				if err != nil {
					return err
				}
				defer db.Close()
				s.db = db
			}

			res, err := s.reload(ctx, nil)
			if err != nil {
				return err
			}
			s.publish(ctx, res)

			if cfg.Watch.Enabled {
				w, err := newSourceWatcher(cfg.Source.Patterns, cfg.Watch.Debounce, s.rebuild, log)
				if err != nil {
					return err
				}
				defer w.Close()
				go w.Run(ctx)
				log.Info("watching sources", "patterns", cfg.Source.Patterns, "debounce", cfg.Watch.Debounce)
			}

			router := api.NewRouter(s.storage, s.reload, log)
			return api.RunServer(ctx, net.JoinHostPort("", cfg.Server.Port), router, log)
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "HTTP port")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Rebuild when sources change")
	cmd.Flags().StringVar(&dbURL, "db", "", "Export each published model to postgres://... or sqlite://path")
	return cmd
}
