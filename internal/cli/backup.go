package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nholik/fleetctl/internal/backup"
	"github.com/nholik/fleetctl/internal/registry"
)

func newBackupCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "backup [store]",
		Short: "Dump a stateful store to a timestamped artifact",
		Long: `Backup snapshots postgres, mysql or (default) every store in order.
Artifacts land under the backup directory as <store>_<timestamp>.sql; empty
or partial dumps are discarded, never registered.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(); err != nil {
				return err
			}
			defer a.close()

			if err := a.cfg.ValidateSecrets(); err != nil {
				return err
			}

			stores, err := resolveStores(scopeArg(args))
			if err != nil {
				return err
			}

			for _, store := range stores {
				record, err := a.coordinator.Backup(cmd.Context(), store)
				if err != nil {
					return err
				}
				cmd.Printf("%s: %s (%d bytes)\n", record.Store, record.Path, record.Size)
			}
			return nil
		},
	}
}

func newRestoreCmd(a *app) *cobra.Command {
	var confirmed bool

	cmd := &cobra.Command{
		Use:   "restore <store> <artifact>",
		Short: "Stream a backup artifact back into its store",
		Long: `Restore replays a previously written dump into the named store. The
target database is overwritten, so the --yes flag is required; without it the
command refuses before touching anything.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(); err != nil {
				return err
			}
			defer a.close()

			if err := a.cfg.ValidateSecrets(); err != nil {
				return err
			}

			store, err := parseStore(args[0])
			if err != nil {
				return err
			}
			if err := a.coordinator.Restore(cmd.Context(), store, args[1], confirmed); err != nil {
				return err
			}
			cmd.Printf("%s restored from %s\n", store, args[1])
			return nil
		},
	}

	cmd.Flags().BoolVar(&confirmed, "yes", false, "confirm overwriting the live store")
	return cmd
}

func resolveStores(scope string) ([]backup.Store, error) {
	if scope == registry.ScopeAll {
		return backup.Stores, nil
	}
	store, err := parseStore(scope)
	if err != nil {
		return nil, err
	}
	return []backup.Store{store}, nil
}

func parseStore(name string) (backup.Store, error) {
	for _, store := range backup.Stores {
		if string(store) == name {
			return store, nil
		}
	}
	return "", fmt.Errorf("unknown store %q (expected postgres or mysql)", name)
}
