package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"modeldeck/internal/catalog"
)

func newImportCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "import <seed-file>",
		Short: "Import a .toml or .yaml seed file into the catalog",
		Long: `Import models from a seed file into the catalog.

Entries are matched by id; existing rows are replaced.

Examples:
  modeldeck import ./models.toml
  modeldeck import --catalog /tmp/catalog.db ./models.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := catalog.Import(cmd.Context(), a.store, args[0])
			if err != nil {
				return err
			}
			stats, err := a.store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d models (catalog now has %d, %d featured)\n",
				n, stats.Models, stats.Featured)
			return nil
		},
	}
}
