package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// errScaleTargetRequired rejects a scale invocation that names neither an
// absolute count nor a relative delta.
var errScaleTargetRequired = errors.New("provide a replica count or one of --up/--down")

func newScaleCmd(a *app) *cobra.Command {
	var up, down int

	cmd := &cobra.Command{
		Use:   "scale <service> [count]",
		Short: "Set the replica count for a replicable service",
		Long: `Scale adjusts the number of replicas for an inference backend, either to
an absolute count or relative to the compose definition with --up/--down.
Running containers are not recreated; only the replica total changes.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(); err != nil {
				return err
			}
			defer a.close()

			name := args[0]
			absolute := 0
			hasAbsolute := false
			if len(args) == 2 {
				parsed, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("invalid replica count %q: %w", args[1], err)
				}
				absolute = parsed
				hasAbsolute = true
			}

			target := absolute
			if !hasAbsolute {
				current, err := a.scaler.CurrentReplicas(cmd.Context(), name)
				if err != nil {
					return err
				}
				target, err = relativeTarget(current, up, down)
				if err != nil {
					return err
				}
			}

			accepted, err := a.scaler.Scale(cmd.Context(), name, target)
			if err != nil {
				return err
			}
			cmd.Printf("%s scaled to %d replica(s)\n", name, accepted)
			return nil
		},
	}

	cmd.Flags().IntVar(&up, "up", 0, "add replicas relative to the compose definition")
	cmd.Flags().IntVar(&down, "down", 0, "remove replicas relative to the compose definition")
	cmd.MarkFlagsMutuallyExclusive("up", "down")
	return cmd
}

// relativeTarget computes the replica target for --up/--down against the
// declared baseline. Scaling below one replica is clamped to an error rather
// than silently stopping the service.
func relativeTarget(current, up, down int) (int, error) {
	switch {
	case up > 0:
		return current + up, nil
	case down > 0:
		target := current - down
		if target < 1 {
			return 0, fmt.Errorf("cannot scale below 1 replica (current %d, down %d)", current, down)
		}
		return target, nil
	default:
		return 0, errScaleTargetRequired
	}
}
