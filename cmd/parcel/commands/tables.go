package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/marshallshelly/parcel-orm/cmd/parcel/output"
	"github.com/marshallshelly/parcel-orm/pkg/model"
	"github.com/marshallshelly/parcel-orm/pkg/registry"
	"github.com/marshallshelly/parcel-orm/pkg/runtime"
	"github.com/spf13/cobra"
)

// tablesCmd prints the catalog without touching the database
var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List catalog tables and their relations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := runtime.DefaultConfig()
		log, err := newLogger(cfg)
		if err != nil {
			return err
		}
		_, r, err := newCatalog(log, cfg)
		if err != nil {
			return err
		}
		if jsonOutput {
			return output.JSON(os.Stdout, describe(r))
		}
		printTables(r)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tablesCmd)
}

// relationInfo describes one declared relation.
type relationInfo struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Target string `json:"target"`
	Keys   string `json:"keys"`
}

func describe(r *registry.Registry) map[string][]relationInfo {
	out := make(map[string][]relationInfo)
	for _, table := range r.Names() {
		m := r.MustGet(table)
		infos := make([]relationInfo, 0)
		for _, name := range m.Relations() {
			rel, _ := m.Relation(name)
			infos = append(infos, describeRelation(name, rel))
		}
		out[table] = infos
	}
	return out
}

func describeRelation(name string, rel model.Relation) relationInfo {
	info := relationInfo{Name: name, Target: model.TargetOf(rel).Table()}
	switch r := rel.(type) {
	case model.BelongsTo:
		info.Kind = "belongsTo"
		info.Keys = fmt.Sprintf("%s -> %s", r.ForeignKey, r.LocalKey)
	case model.HasMany:
		info.Kind = "hasMany"
		info.Keys = fmt.Sprintf("%s <- %s", r.LocalKey, r.ForeignKey)
	case model.BelongsToMany:
		info.Kind = "belongsToMany"
		info.Keys = fmt.Sprintf("%s.%s/%s", r.Through, r.ForeignKey, r.OtherKey)
	}
	return info
}

func printTables(r *registry.Registry) {
	described := describe(r)
	output.Section(os.Stdout, fmt.Sprintf("Catalog (%d tables)", len(described)))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TABLE\tRELATION\tKIND\tTARGET\tKEYS")
	for _, table := range r.Names() {
		for _, rel := range described[table] {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", table, rel.Name, rel.Kind, rel.Target, rel.Keys)
		}
	}
	_ = w.Flush()
}
