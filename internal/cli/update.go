package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nholik/fleetctl/internal/registry"
)

func newUpdateModelsCmd(a *app) *cobra.Command {
	var noWait bool

	cmd := &cobra.Command{
		Use:   "update-models",
		Short: "Pull fresh images for the inference backends and redeploy them",
		Long: `update-models pulls the latest image for every inference service, then
recreates each one and waits for the group to report healthy again. Services
outside the inference group are untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(); err != nil {
				return err
			}
			defer a.close()

			if err := a.cfg.ValidateSecrets(); err != nil {
				return err
			}

			services := a.reg.Group(registry.GroupInference)
			if len(services) == 0 {
				return errors.New("no inference services registered")
			}

			for _, desc := range services {
				cmd.Printf("pulling %s...\n", desc.Name)
				if err := a.units.Pull(cmd.Context(), desc.Handle); err != nil {
					return fmt.Errorf("pull %s: %w", desc.Name, err)
				}
			}

			report, err := a.driver.Deploy(cmd.Context(), string(registry.GroupInference))
			if err != nil {
				return err
			}
			printReport(cmd, report)
			if !report.OK() {
				return &ExitError{Code: ExitFailure, Err: errors.New("update finished with failures")}
			}
			if noWait {
				return nil
			}

			status, gateErr := a.checker.WaitHealthy(cmd.Context(), services, a.cfg.GracePeriod)
			if err := printFleetStatus(cmd, status, false); err != nil {
				return err
			}
			if gateErr != nil {
				return &ExitError{Code: ExitFailure, Err: gateErr}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noWait, "no-wait", false, "skip the post-update health gate")
	return cmd
}
