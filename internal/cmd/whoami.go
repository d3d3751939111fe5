package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chasedut/anonchat/internal/identity"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Print the identity this client posts as",
	Long:  "Print the identity stored in the data directory, creating one if there is none yet.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		store, closeStore := openIdentityStore(ctx, cfg)
		defer closeStore()

		_, err = fmt.Fprintln(cmd.OutOrStdout(), identity.Resolve(ctx, store))
		return err
	},
}
