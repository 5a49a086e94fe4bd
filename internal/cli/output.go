package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/nholik/fleetctl/internal/health"
	"github.com/nholik/fleetctl/internal/lifecycle"
	"github.com/nholik/fleetctl/internal/runtime"
)

func printReport(cmd *cobra.Command, report lifecycle.Report) {
	writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(writer, "SERVICE\tOUTCOME\tERROR\n")
	for _, result := range report.Results {
		errText := ""
		if result.Err != nil {
			errText = result.Err.Error()
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\n", result.Name, result.Outcome, errText)
	}
	_ = writer.Flush()
}

func printFleetStatus(cmd *cobra.Command, status health.FleetStatus, asJSON bool) error {
	if asJSON {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(status)
	}

	writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(writer, "SERVICE\tSTATUS\tLATENCY\tERROR\n")
	for _, report := range status.Reports {
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\n",
			report.Service, report.Status, report.Latency.Round(time.Millisecond), report.LastError)
	}
	_ = writer.Flush()

	overall := "healthy"
	if !status.OverallHealthy {
		overall = "unhealthy"
		if status.DegradedOnly() {
			overall = "degraded"
		}
	}
	cmd.Printf("\nfleet: %s\n", overall)
	return nil
}

func printContainers(cmd *cobra.Command, project string, containers []runtime.ContainerInfo) {
	if len(containers) == 0 {
		cmd.Printf("project %s: no containers\n", project)
		return
	}
	writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(writer, "CONTAINER\tSERVICE\tSTATE\tSTATUS\n")
	for _, container := range containers {
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\n",
			container.Name, container.Service, container.State, container.Status)
	}
	_ = writer.Flush()
}

// healthExitCode maps a fleet snapshot to the health command's exit code
// contract: 0 healthy, 2 when only degradations remain, 1 otherwise.
func healthExitCode(status health.FleetStatus) int {
	if status.OverallHealthy {
		return ExitOK
	}
	if status.DegradedOnly() {
		return ExitDegraded
	}
	return ExitFailure
}
