package cli

import (
	"sort"

	"github.com/spf13/cobra"
)

func newHealthCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "health [scope]",
		Short: "Probe every scoped service endpoint once",
		Long: `Health probes all scoped services concurrently and prints a per-service
report. The exit code is 0 when every service is healthy, 2 when the only
problems are degradations, and 1 otherwise.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(); err != nil {
				return err
			}
			defer a.close()

			services, err := a.reg.Resolve(scopeArg(args))
			if err != nil {
				return err
			}
			status := a.checker.CheckFleet(cmd.Context(), services)
			if err := printFleetStatus(cmd, status, asJSON); err != nil {
				return err
			}

			if code := healthExitCode(status); code != ExitOK {
				return &ExitError{Code: code}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the fleet snapshot as JSON")
	return cmd
}

func newStatusCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show container state and health for the whole fleet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(); err != nil {
				return err
			}
			defer a.close()

			for _, project := range registryProjects(a) {
				containers, err := a.docker.ListProjectContainers(cmd.Context(), project)
				if err != nil {
					return err
				}
				cmd.Printf("project: %s\n", project)
				printContainers(cmd, project, containers)
				cmd.Println()
			}

			status := a.checker.CheckFleet(cmd.Context(), nil)
			if err := printFleetStatus(cmd, status, asJSON); err != nil {
				return err
			}

			if code := healthExitCode(status); code != ExitOK {
				return &ExitError{Code: code}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the fleet snapshot as JSON")
	return cmd
}

func registryProjects(a *app) []string {
	seen := make(map[string]bool)
	projects := make([]string, 0)
	for _, desc := range a.reg.All() {
		if !seen[desc.Handle.Project] {
			seen[desc.Handle.Project] = true
			projects = append(projects, desc.Handle.Project)
		}
	}
	sort.Strings(projects)
	return projects
}
