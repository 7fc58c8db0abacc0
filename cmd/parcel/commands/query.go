package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/marshallshelly/parcel-orm/cmd/parcel/output"
	"github.com/marshallshelly/parcel-orm/pkg/model"
	"github.com/spf13/cobra"
)

var (
	// Query flags
	whereFlags         []string
	whereRelationFlags []string
	includeFlags       []string
	orderFlags         []string
	limit              int
	offset             int
	countOnly          bool
)

// queryCmd reads rows of any catalog table
var queryCmd = &cobra.Command{
	Use:   "query <table>",
	Short: "Query a catalog table with filters and includes",
	Long: `Query rows of a catalog table through its mapper.

Examples:
  parcel query users --where active=true --include institution
  parcel query categories --where parent_id=null --include children
  parcel query forms --where-relation shapes.status=active --count
  parcel query filled_forms --include form,shape,user --order created_at:desc --limit 20`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(cmd.Context(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)
	addFilterFlags(queryCmd)
	queryCmd.Flags().BoolVar(&countOnly, "count", false, "Print the number of matching rows only")
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&whereFlags, "where", "w", nil, "Filter key=value (a,b for IN, null for IS NULL)")
	cmd.Flags().StringArrayVar(&whereRelationFlags, "where-relation", nil, "Filter by related rows: relation.key=value")
	cmd.Flags().StringSliceVarP(&includeFlags, "include", "i", nil, "Relations to load")
	cmd.Flags().StringSliceVar(&orderFlags, "order", nil, "Sort by field or field:desc")
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "Maximum rows")
	cmd.Flags().IntVar(&offset, "offset", 0, "Rows to skip")
}

func queryOptions() (model.QueryOptions, error) {
	where, err := parseWhere(whereFlags)
	if err != nil {
		return model.QueryOptions{}, err
	}
	whereRelation, err := parseWhereRelation(whereRelationFlags)
	if err != nil {
		return model.QueryOptions{}, err
	}
	return model.QueryOptions{
		Where:         where,
		WhereRelation: whereRelation,
		Order:         parseOrder(orderFlags),
		Limit:         limit,
		Offset:        offset,
		Include:       parseIncludes(includeFlags),
	}, nil
}

func runQuery(ctx context.Context, table string) error {
	opts, err := queryOptions()
	if err != nil {
		return err
	}

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	m, err := s.tables.Get(table)
	if err != nil {
		return err
	}

	if countOnly {
		n, err := m.Count(ctx, s.db, opts)
		if err != nil {
			return err
		}
		if jsonOutput {
			return output.JSON(os.Stdout, map[string]int64{"count": n})
		}
		fmt.Println(n)
		return nil
	}

	rows, err := m.FindAll(ctx, s.db, opts)
	if err != nil {
		return err
	}
	if jsonOutput {
		return output.JSON(os.Stdout, rows)
	}
	output.Section(os.Stdout, fmt.Sprintf("%s (%d rows)", table, len(rows)))
	return output.Rows(os.Stdout, rows)
}
