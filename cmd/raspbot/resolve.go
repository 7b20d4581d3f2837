package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	appLog "raspbot/internal/log"
	"raspbot/internal/schedule"
	"raspbot/internal/store"
)

// newResolveCmd prints today's or tomorrow's resolved schedule to stdout,
// useful for cron mails and quick checks without the HTTP server.
func newResolveCmd(configPath *string) *cobra.Command {
	var day string

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve and print the schedule once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := loadConfig(*configPath)
			if err != nil {
				appLog.Error("failed to load config", err, "config_path", *configPath)
				return err
			}

			engine, _, err := buildEngine(conf)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			var offset int
			switch day {
			case "today":
				offset = 0
			case "tomorrow":
				offset = 1
			default:
				return fmt.Errorf("unknown day %q (want today or tomorrow)", day)
			}

			res, err := engine.Resolve(ctx, offset)
			if err != nil {
				if errors.Is(err, store.ErrBaselineMissing) {
					fmt.Fprintln(cmd.OutOrStdout(), "Расписание не найдено")
					return nil
				}
				return err
			}

			for _, line := range schedule.FormatDay(res) {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&day, "day", "today", "Which day to resolve: today or tomorrow")
	return cmd
}
