package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/nholik/fleetctl/internal/registry"
)

func newStopCmd(a *app) *cobra.Command {
	var keepNetwork bool

	cmd := &cobra.Command{
		Use:   "stop [scope]",
		Short: "Stop services in reverse dependency order",
		Long: `Stop tears the scoped services down, dependents before dependencies. A
failed stop never blocks the rest of the teardown. After a clean full-fleet
stop the shared network is removed unless --keep-network is set.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(); err != nil {
				return err
			}
			defer a.close()

			scope := scopeArg(args)
			report, err := a.driver.Stop(cmd.Context(), scope)
			if err != nil {
				return err
			}
			printReport(cmd, report)

			if scope == registry.ScopeAll && report.OK() && !keepNetwork {
				if err := a.driver.RemoveNetwork(cmd.Context()); err != nil {
					return err
				}
				cmd.Printf("network %s removed\n", a.cfg.Network)
			}

			if !report.OK() {
				return &ExitError{Code: ExitFailure, Err: errors.New("stop finished with failures")}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&keepNetwork, "keep-network", false, "leave the shared network in place after a full stop")
	return cmd
}
