package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// wipeCmd deletes every local store: identity, prekeys, bundle cache,
// account profiles, and ratchet conversations.
func wipeCmd() *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "wipe",
		Short: "Permanently delete all local key material and sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return fmt.Errorf("wipe: refusing to delete %s without --yes", homeDir)
			}
			if err := appCtx.WipeAll(); err != nil {
				return fmt.Errorf("wiping local state: %w", err)
			}
			fmt.Println("All local key material and sessions deleted.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&confirm, "yes", false, "confirm permanent deletion")

	return cmd
}
