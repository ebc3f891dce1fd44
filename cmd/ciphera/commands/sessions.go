package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"ciphera/internal/domain"
)

// sessionsCmd groups subcommands that inspect and destroy local sessions.
func sessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List or delete local sessions",
	}
	cmd.AddCommand(sessionsListCmd(), sessionsDeleteCmd())
	return cmd
}

// sessionsListCmd prints every peer a conversation is currently held with.
func sessionsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List peers with an active session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			peers, err := appCtx.SessionService.ListSessions(passphrase)
			if err != nil {
				return fmt.Errorf("listing sessions: %w", err)
			}
			for _, peer := range peers {
				fmt.Println(peer)
			}
			return nil
		},
	}
}

// sessionsDeleteCmd destroys the conversation held with a single peer.
func sessionsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <peer>",
		Short: "Destroy the session held with a peer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			peer := domain.Username(args[0])
			if err := appCtx.SessionService.DeleteSession(passphrase, peer); err != nil {
				return fmt.Errorf("deleting session with %q: %w", peer, err)
			}
			fmt.Printf("Session with %s deleted\n", peer)
			return nil
		},
	}
}
