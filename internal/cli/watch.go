package cli

import (
	"github.com/spf13/cobra"

	"github.com/nholik/fleetctl/internal/healthcheck"
	"github.com/nholik/fleetctl/internal/metrics"
	"github.com/nholik/fleetctl/internal/notify"
	"github.com/nholik/fleetctl/internal/server"
	"github.com/nholik/fleetctl/internal/state"
	"github.com/nholik/fleetctl/internal/watch"
)

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Continuously monitor the fleet and alert on status transitions",
		Long: `Watch polls every service on the configured interval, compares each cycle
against the persisted snapshot and alerts on transitions through the Slack
webhook when one is configured. Optional /healthz, /readyz and /metrics
endpoints are served on the configured ports. Runs until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(); err != nil {
				return err
			}
			defer a.close()

			store := state.NewFileStore(a.cfg.StateFile, a.logger)
			notifier := notify.NewSlackNotifier(a.logger, a.cfg.Network, a.cfg.SlackWebhookURL)
			collector := metrics.New()
			tracker := healthcheck.NewTracker()

			server.Start(cmd.Context(), a.logger, a.cfg.PollInterval, tracker, collector, a.cfg.HealthPort, a.cfg.MetricsPort)

			watcher := watch.New(a.logger, a.cfg.PollInterval, a.checker, store,
				watch.WithNotifier(notifier),
				watch.WithMetrics(collector),
				watch.WithTracker(tracker),
			)

			a.logger.Info().
				Dur("poll_interval", a.cfg.PollInterval).
				Int("services", a.reg.Len()).
				Msg("watch starting")
			return watcher.Run(cmd.Context())
		},
	}
}
