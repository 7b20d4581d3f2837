package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"raspbot/internal/capture"
	"raspbot/internal/config"
	appLog "raspbot/internal/log"
	"raspbot/internal/schedule"
	"raspbot/internal/source"
	"raspbot/internal/store"
	"raspbot/internal/web"
)

func newServeCmd(configPath *string) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API with the background refresh loop",
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := loadConfig(*configPath)
			if err != nil {
				appLog.Error("failed to load config", err, "config_path", *configPath)
				return err
			}
			if listen != "" {
				conf.Listen = listen
			}
			return runServe(cmd.Context(), conf)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config if set)")
	return cmd
}

func runServe(ctx context.Context, conf *config.Config) error {
	appLog.Info("raspbot starting",
		"version", version,
		"listen", conf.Listen,
		"group", conf.Group,
		"source_url", conf.SourceURL,
		"refresh", conf.RefreshCron,
		"preview", conf.Preview.Enabled,
	)

	engine, baseline, err := buildEngine(conf)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:    conf.Listen,
		Handler: web.NewServer(conf, engine, baseline).Handler(),
	}

	// Warm the cache before the first cron tick; a failure here is the
	// normal offline case, resolution falls back until the site returns.
	if err := engine.Refresh(ctx); err != nil {
		appLog.Info("initial refresh failed; serving from fallbacks", "err", err)
	}

	c := cron.New()
	_, err = c.AddFunc(conf.RefreshCron, func() {
		refreshCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		if err := engine.Refresh(refreshCtx); err != nil {
			appLog.Info("scheduled refresh failed; cache unchanged", "err", err)
		}
		if conf.Preview.Enabled {
			capturePreview(refreshCtx, conf)
		}
	})
	if err != nil {
		appLog.Error("invalid refresh schedule", err, "refresh", conf.RefreshCron)
		return err
	}
	c.Start()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		appLog.Info("starting HTTP server", "listen", "http://"+conf.Listen)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		// Wait for any in-flight refresh job to finish.
		<-c.Stop().Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	appLog.Info("raspbot exiting")
	return err
}

func buildEngine(conf *config.Config) (*schedule.Engine, *store.BaselineStore, error) {
	baseline, err := store.LoadBaseline(conf.BaselinePath)
	if err != nil {
		appLog.Error("failed to load baseline timetable", err, "path", conf.BaselinePath)
		return nil, nil, err
	}

	loc, err := time.LoadLocation(conf.Timezone)
	if err != nil {
		appLog.Error("invalid timezone; using local", err, "timezone", conf.Timezone)
		loc = time.Local
	}

	engine := schedule.NewEngine(
		source.NewClient(conf.SourceURL),
		baseline,
		store.NewOverrideStore(conf.OverridesPath),
		conf.Group,
		loc,
	)
	return engine, baseline, nil
}

func capturePreview(ctx context.Context, conf *config.Config) {
	err := capture.TimetablePNG(ctx, capture.Options{
		URL:        conf.SourceURL,
		OutputPath: conf.Preview.Path,
	})
	if err != nil {
		appLog.Error("preview capture failed", err, "path", conf.Preview.Path)
	}
}
