package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

func newDeployCmd(a *app) *cobra.Command {
	var noWait bool

	cmd := &cobra.Command{
		Use:   "deploy [scope]",
		Short: "Deploy services in dependency order and wait for fleet health",
		Long: `Deploy launches the scoped services batch by batch, dependencies first.
Scope is "all", a group name (proxy, inference, retrieval, monitoring) or a
single service name. After launching, deploy polls health until every scoped
service reports healthy or the grace period expires.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(); err != nil {
				return err
			}
			defer a.close()

			if err := a.cfg.ValidateSecrets(); err != nil {
				return err
			}

			scope := scopeArg(args)
			report, err := a.driver.Deploy(cmd.Context(), scope)
			if err != nil {
				return err
			}
			printReport(cmd, report)

			if !report.OK() {
				return &ExitError{Code: ExitFailure, Err: errors.New("deploy finished with failures")}
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

	cmd.Flags().BoolVar(&noWait, "no-wait", false, "skip the post-deploy health gate")
	return cmd
}
