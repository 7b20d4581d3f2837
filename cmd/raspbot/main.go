// Command raspbot serves the layered group timetable: baseline lessons,
// scraped substitutions and manual overrides, merged and exposed over HTTP.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"raspbot/internal/config"
	appLog "raspbot/internal/log"
)

const version = "0.1.0"

func main() {
	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	root := newRootCmd()
	root.SetContext(ctx)

	defer appLog.Sync()
	if err := root.Execute(); err != nil {
		appLog.Error("command failed", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "raspbot",
		Short:         "Group timetable resolver with substitutions and overrides",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "/etc/raspbot/config.yaml", "Path to config file")

	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newResolveCmd(&configPath))
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the raspbot version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	})

	return root
}

// loadConfig loads the config file and applies the configured log level.
func loadConfig(path string) (*config.Config, error) {
	conf, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	switch conf.LogLevel {
	case "debug":
		appLog.SetLevel(appLog.LevelDebug)
	case "error":
		appLog.SetLevel(appLog.LevelError)
	default:
		appLog.SetLevel(appLog.LevelInfo)
	}
	return conf, nil
}
