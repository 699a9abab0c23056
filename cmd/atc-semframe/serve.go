package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/yegors/atc-semframe/internal/api"
	"github.com/yegors/atc-semframe/internal/metrics"
	"github.com/yegors/atc-semframe/internal/storage/sqlite"
	"github.com/yegors/atc-semframe/pkg/logger"
)

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP parsing service",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := initApp(*configPath)
			if err != nil {
				return err
			}
			return runServe(a)
		},
	}
}

func runServe(a *app) error {
	parser, err := a.buildParser()
	if err != nil {
		return err
	}

	var storage *sqlite.TransmissionStorage
	if a.cfg.Storage.Enabled {
		db, err := sqlite.Open(a.cfg.Storage.DatabasePath)
		if err != nil {
			return err
		}
		defer db.Close()
		storage, err = sqlite.NewTransmissionStorage(db, a.log)
		if err != nil {
			return err
		}
	}

	// Reload rebuilds the grammar from its files and swaps the lexicons.
	var reload func() error
	if len(parser.Grammar().Files()) > 0 {
		reload = func() error {
			g, err := a.loadGrammar()
			if err != nil {
				return err
			}
			return parser.SwapGrammar(g)
		}
	}

	m := metrics.New()
	if a.cfg.Grammar.WatchFiles && reload != nil {
		watcher, err := parser.Grammar().Watch(func() {
			if err := reload(); err != nil {
				a.log.WithError(err).Error("Grammar reload failed")
				return
			}
			m.GrammarReloads.Inc()
			a.log.Info("Grammar reloaded after file change")
		})
		if err != nil {
			return err
		}
		if watcher != nil {
			defer watcher.Close()
		}
	}

	router := api.NewRouter(parser, storage, a.cfg, m, reload, a.log)
	server := api.NewServer(a.cfg.Server, router.Routes(), a.log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		a.log.WithError(err).Warn("Shutdown did not complete cleanly")
	}
	a.log.Info("Server stopped", logger.String("addr", a.cfg.Server.Addr()))
	return nil
}
