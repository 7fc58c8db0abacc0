package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/marshallshelly/parcel-orm/cmd/parcel/output"
	"github.com/marshallshelly/parcel-orm/pkg/geo"
	"github.com/marshallshelly/parcel-orm/pkg/model"
	"github.com/marshallshelly/parcel-orm/pkg/runtime"
	"github.com/spf13/cobra"
)

var (
	// Shape filter flags
	shapeStatus         string
	shapeInstitution    string
	shapeMunicipalities string
)

var shapesCmd = &cobra.Command{
	Use:   "shapes",
	Short: "List and inspect shapes with their GeoJSON geometry",
}

var shapesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List shapes",
	Long: `List shapes filtered by status, owning institution and municipality code.

Examples:
  parcel shapes list --status active --municipalities 0101,0102
  parcel shapes list --institution <uuid> --where-relation forms.name=Censo
  parcel shapes list --municipalities ALL --include forms --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runShapesList(cmd.Context())
	},
}

var shapesGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one shape",
	Long: `Show one shape by id. Includes may nest one level with a dot:

  parcel shapes get <uuid> --include forms,forms.category,institution`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runShapesGet(cmd.Context(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(shapesCmd)
	shapesCmd.AddCommand(shapesListCmd, shapesGetCmd)

	addFilterFlags(shapesListCmd)
	shapesListCmd.Flags().StringVar(&shapeStatus, "status", "", "Only shapes with this status")
	shapesListCmd.Flags().StringVar(&shapeInstitution, "institution", "", "Only shapes owned by this institution id")
	shapesListCmd.Flags().StringVar(&shapeMunicipalities, "municipalities", geo.AllMunicipalities, "Comma-separated municipality codes, or ALL")

	shapesGetCmd.Flags().StringSliceVarP(&includeFlags, "include", "i", nil, "Relations to load (parent.child nests one level)")
}

func runShapesList(ctx context.Context) error {
	opts, err := queryOptions()
	if err != nil {
		return err
	}

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	rows, err := s.catalog.Shapes.FindAll(ctx, s.db, geo.Query{
		QueryOptions:   opts,
		InstitutionID:  shapeInstitution,
		Status:         shapeStatus,
		Municipalities: shapeMunicipalities,
	})
	if err != nil {
		return err
	}

	if jsonOutput {
		return output.JSON(os.Stdout, rows)
	}
	output.Section(os.Stdout, fmt.Sprintf("Shapes (%d)", len(rows)))
	for _, row := range rows {
		status, _ := row["status"].(string)
		fmt.Printf("%s %v  %v\n", output.StatusIcon(status), row["id"], row["name"])
	}
	return nil
}

func runShapesGet(ctx context.Context, id string) error {
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	var row model.Row
	includes := parseIncludes(includeFlags)
	if err := s.db.WithTx(ctx, func(tx *runtime.Tx) error {
		var ferr error
		row, ferr = s.catalog.Shapes.FindByPk(ctx, tx, id, includes...)
		return ferr
	}); err != nil {
		return err
	}
	if row == nil {
		output.Warning(os.Stderr, "shape %s not found", id)
		return nil
	}

	if jsonOutput {
		return output.JSON(os.Stdout, row)
	}
	output.Section(os.Stdout, fmt.Sprintf("Shape %s", id))
	return output.Rows(os.Stdout, []map[string]any{row})
}
