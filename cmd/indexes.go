package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"slotbook/config"
)

func newIndexesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "indexes",
		Short: "Create the reservation indexes (Mongo) or schema (Postgres)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.repo.EnsureIndexes(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "indexes ensured for %s store\n", config.AppConfig.StoreDriver)
			return nil
		},
	}
}
