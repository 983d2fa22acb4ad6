package command

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/jimyag/cloudconsole/internal/console/config"
	"github.com/jimyag/cloudconsole/internal/console/entity"
	"github.com/jimyag/cloudconsole/internal/console/events"
	"github.com/spf13/cobra"
)

func newEventsCommand(configPath *string) *cobra.Command {
	var natsURL string

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Follow command results published by console instances",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			if natsURL == "" {
				cfg, err := config.Load(*configPath)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				natsURL = cfg.NATSURL
			}

			ctx, stop := signal.NotifyContext(c.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out := c.OutOrStdout()
			return events.Subscribe(ctx, events.Config{URL: natsURL, Name: "cloudconsole-events"}, func(op entity.Operation) {
				fmt.Fprintf(out, "%s\t%s\t%s\t%s\t%s\n",
					op.FinishedAt.Format("15:04:05"), op.Kind, op.ResourceID, op.Outcome, op.Message)
			})
		},
	}
	cmd.Flags().StringVar(&natsURL, "nats-url", "", "NATS server URL, defaults to the configured nats_url")
	return cmd
}
