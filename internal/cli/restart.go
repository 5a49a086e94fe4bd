package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

func newRestartCmd(a *app) *cobra.Command {
	var noWait bool

	cmd := &cobra.Command{
		Use:   "restart [scope]",
		Short: "Stop then redeploy services",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(); err != nil {
				return err
			}
			defer a.close()

			if err := a.cfg.ValidateSecrets(); err != nil {
				return err
			}

			scope := scopeArg(args)
			stopReport, deployReport, err := a.driver.Restart(cmd.Context(), scope)
			if err != nil {
				return err
			}
			cmd.Println("stop phase:")
			printReport(cmd, stopReport)
			cmd.Println("\ndeploy phase:")
			printReport(cmd, deployReport)

			if !deployReport.OK() {
				return &ExitError{Code: ExitFailure, Err: errors.New("restart finished with failures")}
			}
			if noWait {
				return nil
			}

			services, err := a.reg.Resolve(scope)
			if err != nil {
				return err
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

	cmd.Flags().BoolVar(&noWait, "no-wait", false, "skip the post-restart health gate")
	return cmd
}
