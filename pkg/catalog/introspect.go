package catalog

import (
	"context"
	"fmt"
	"slices"

	"github.com/marshallshelly/parcel-orm/pkg/model"
	"github.com/marshallshelly/parcel-orm/pkg/registry"
)

// Column is one column of a live table.
type Column struct {
	Name     string
	DataType string
	Nullable bool
}

// Problem is a declared table, key or relation column the database lacks.
type Problem struct {
	Table    string
	Relation string
	Column   string
}

func (p Problem) String() string {
	switch {
	case p.Column == "":
		return fmt.Sprintf("table %s does not exist", p.Table)
	case p.Relation == "":
		return fmt.Sprintf("%s.%s does not exist", p.Table, p.Column)
	default:
		return fmt.Sprintf("%s.%s used by relation %s does not exist", p.Table, p.Column, p.Relation)
	}
}

// Introspector reads table definitions from information_schema.
type Introspector struct {
	db     model.Querier
	schema string
	cache  map[string][]Column
}

// NewIntrospector creates an introspector for the public schema.
func NewIntrospector(db model.Querier) *Introspector {
	return &Introspector{db: db, schema: "public", cache: make(map[string][]Column)}
}

// Columns returns the columns of table in ordinal order; none when the table
// does not exist.
func (i *Introspector) Columns(ctx context.Context, table string) ([]Column, error) {
	if cols, ok := i.cache[table]; ok {
		return cols, nil
	}

	query := `
		SELECT column_name::text AS column_name, udt_name::text AS udt_name, is_nullable::text AS is_nullable
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position`

	rows, err := i.db.Query(ctx, query, i.schema, table)
	if err != nil {
		return nil, err
	}

	cols := make([]Column, 0, len(rows))
	for _, row := range rows {
		name, _ := row["column_name"].(string)
		dataType, _ := row["udt_name"].(string)
		nullable, _ := row["is_nullable"].(string)
		cols = append(cols, Column{Name: name, DataType: dataType, Nullable: nullable == "YES"})
	}
	i.cache[table] = cols
	return cols, nil
}

// Verify checks every registered model against the live schema: its table,
// its primary key and the key columns of each relation, join tables included.
func (i *Introspector) Verify(ctx context.Context, r *registry.Registry) ([]Problem, error) {
	var problems []Problem
	require := func(table, relation string, columns ...string) error {
		cols, err := i.Columns(ctx, table)
		if err != nil {
			return err
		}
		if len(cols) == 0 {
			p := Problem{Table: table}
			if !slices.Contains(problems, p) {
				problems = append(problems, p)
			}
			return nil
		}
		for _, col := range columns {
			if !slices.ContainsFunc(cols, func(c Column) bool { return c.Name == col }) {
				problems = append(problems, Problem{Table: table, Relation: relation, Column: col})
			}
		}
		return nil
	}

	for _, table := range r.Names() {
		m := r.MustGet(table)
		if err := require(table, "", m.PrimaryKey()); err != nil {
			return nil, err
		}

		for _, name := range m.Relations() {
			rel, _ := m.Relation(name)
			target := model.TargetOf(rel).Table()

			var err error
			switch rel := rel.(type) {
			case model.BelongsTo:
				if err = require(table, name, rel.ForeignKey); err == nil {
					err = require(target, name, rel.LocalKey)
				}
			case model.HasMany:
				if err = require(table, name, rel.LocalKey); err == nil {
					err = require(target, name, rel.ForeignKey)
				}
			case model.BelongsToMany:
				if err = require(rel.Through, name, rel.ForeignKey, rel.OtherKey); err == nil {
					err = require(target, name, rel.OtherLocalKey)
				}
			default:
				err = fmt.Errorf("%w: %s.%s", model.ErrUnsupportedRelation, table, name)
			}
			if err != nil {
				return nil, err
			}
		}
	}
	return problems, nil
}
