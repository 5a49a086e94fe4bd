package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the fleetctl command tree.
func NewRootCmd() *cobra.Command {
	a := newApp()

	root := &cobra.Command{
		Use:   "fleetctl",
		Short: "Deployment lifecycle orchestrator for the LLM/RAG container fleet",
		Long: `fleetctl drives the whole container fleet through its lifecycle:
dependency-ordered deploys and teardowns, health aggregation across every
service endpoint, replica scaling for inference backends, and backup and
restore of the stateful stores.`,
		// SilenceUsage prevents printing usage on errors we handle ourselves
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolVar(&a.jsonLogs, "json-logs", false, "emit JSON logs instead of console output")

	root.AddCommand(
		newDeployCmd(a),
		newStopCmd(a),
		newRestartCmd(a),
		newHealthCmd(a),
		newStatusCmd(a),
		newScaleCmd(a),
		newBackupCmd(a),
		newRestoreCmd(a),
		newUpdateModelsCmd(a),
		newWatchCmd(a),
	)

	return root
}

// Execute runs the command tree and maps errors to process exit codes.
// SIGINT and SIGTERM cancel the command context so in-flight compose
// invocations and watch loops shut down cleanly.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd()
	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Err != nil {
			root.PrintErrln("Error:", exitErr.Err)
		}
		return exitErr.Code
	}

	root.PrintErrln("Error:", err)
	return ExitFailure
}
