package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewDetachUserCommand создает команду, которую провайдер идентификации
// вызывает при удалении пользователя
func NewDetachUserCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "detach-user <user-id>",
		Short: "Clear references to a deleted user",
		Long: `Clear references to a deleted user.

Sets the reporter of the user's incidents and the author of the user's
status changes to null. Incidents and history entries are kept.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUserID(args[0])
			if err != nil {
				return err
			}

			cfg, log, err := rootOpts.load()
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.service.DetachUser(cmd.Context(), userID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %d detached\n", userID)
			return nil
		},
	}
}

func parseUserID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid user id %q: must be a positive integer", raw)
	}
	return id, nil
}
