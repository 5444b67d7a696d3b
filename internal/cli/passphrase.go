package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"locamark/internal/middleware"
)

// hashPassphraseCommand prints the value for AUTH_PASSPHRASE_HASH.
func hashPassphraseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-passphrase [passphrase]",
		Short: "Print the bcrypt hash to use as AUTH_PASSPHRASE_HASH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := middleware.HashPassphrase(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
