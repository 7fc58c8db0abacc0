package commands

import (
	"fmt"
	"os"

	"github.com/marshallshelly/parcel-orm/cmd/parcel/output"
	"github.com/marshallshelly/parcel-orm/pkg/catalog"
	"github.com/spf13/cobra"
)

// checkCmd verifies the catalog against the live schema
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify catalog tables and relation keys exist in the database",
	Long: `Compare the catalog with information_schema: every table, primary key and
relation key column (join tables included) must exist.

Examples:
  parcel check --db postgres://localhost/catastro
  parcel check --config parcel.yaml --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		problems, err := catalog.NewIntrospector(s.db).Verify(ctx, s.tables)
		if err != nil {
			return err
		}

		if jsonOutput {
			if err := output.JSON(os.Stdout, problems); err != nil {
				return err
			}
		} else if len(problems) == 0 {
			output.Success(os.Stdout, "%d tables match the database", len(s.tables.Names()))
		} else {
			for _, p := range problems {
				output.Error(os.Stdout, "%s", p)
			}
		}

		if len(problems) > 0 {
			return fmt.Errorf("%d schema problems", len(problems))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
