package model

import (
	"context"
	"fmt"
	"maps"

	"github.com/marshallshelly/parcel-orm/pkg/builder"
	"golang.org/x/sync/errgroup"
)

type resolvedInclude struct {
	opts Include
	rel  Relation
}

// LoadRelations returns copies of rows with each requested relation attached
// under its name: a Row or nil for BelongsTo, a []Row for HasMany and
// BelongsToMany. Unknown relation names are logged and skipped. Only one level
// is resolved; nested Include entries are left to the caller.
//
// Fetches for different rows and relations run concurrently on db.
func (m *Model) LoadRelations(ctx context.Context, db Querier, rows []Row, includes []Include) ([]Row, error) {
	if len(rows) == 0 || len(includes) == 0 {
		return rows, nil
	}

	resolved := make([]resolvedInclude, 0, len(includes))
	for _, inc := range includes {
		rel, ok := m.Relation(inc.Relation)
		if !ok {
			m.log.Warn().Str("table", m.table).Str("relation", inc.Relation).Msg("unknown relation in include, skipping")
			continue
		}
		if len(inc.Include) > 0 {
			m.log.Debug().Str("table", m.table).Str("relation", inc.Relation).Msg("nested include not loaded by generic loader")
		}
		resolved = append(resolved, resolvedInclude{opts: inc, rel: rel})
	}
	if len(resolved) == 0 {
		return rows, nil
	}

	values := make([][]any, len(rows))
	for i := range values {
		values[i] = make([]any, len(resolved))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)
	for i, row := range rows {
		for j, inc := range resolved {
			g.Go(func() error {
				v, err := m.loadOne(gctx, db, row, inc)
				if err != nil {
					return err
				}
				values[i][j] = v
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Row, len(rows))
	for i, row := range rows {
		merged := maps.Clone(row)
		if merged == nil {
			merged = make(Row, len(resolved))
		}
		for j, inc := range resolved {
			merged[inc.opts.Relation] = values[i][j]
		}
		out[i] = merged
	}
	return out, nil
}

func (m *Model) loadOne(ctx context.Context, db Querier, row Row, inc resolvedInclude) (any, error) {
	switch rel := inc.rel.(type) {
	case BelongsTo:
		key := row[rel.ForeignKey]
		if isNull(key) {
			return nil, nil
		}
		limit := inc.opts.Limit
		if limit <= 0 {
			limit = 1
		}
		related, err := rel.Target.selectBy(ctx, db, rel.LocalKey, key, inc.opts, limit)
		if err != nil {
			return nil, err
		}
		if len(related) == 0 {
			return nil, nil
		}
		return related[0], nil

	case HasMany:
		key := row[rel.LocalKey]
		if isNull(key) {
			return []Row{}, nil
		}
		return rel.Target.selectBy(ctx, db, rel.ForeignKey, key, inc.opts, inc.opts.Limit)

	case BelongsToMany:
		key := row[rel.LocalKey]
		if isNull(key) {
			return []Row{}, nil
		}
		sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1", rel.OtherKey, rel.Through, rel.ForeignKey)
		ids, err := m.pluck(ctx, db, rel.OtherKey, sql, []any{key})
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return []Row{}, nil
		}
		return rel.Target.selectBy(ctx, db, rel.OtherLocalKey, builder.In(ids), inc.opts, inc.opts.Limit)

	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedRelation, rel)
	}
}

// selectBy reads rows of m whose column matches key (a value or an In list),
// narrowed by the include's own where/order and limited when limit > 0.
func (m *Model) selectBy(ctx context.Context, db Querier, column string, key any, inc Include, limit int) ([]Row, error) {
	var keyClause builder.Clause
	if in, ok := key.(builder.In); ok {
		keyClause = builder.Any(column, in, 1, m.primaryKey)
	} else {
		keyClause = builder.Clause{SQL: column + " = $1", Args: []any{key}}
	}

	extra, err := builder.BuildWhere(inc.Where, keyClause.Next(1), m.primaryKey)
	if err != nil {
		return nil, err
	}
	order, err := builder.BuildOrder(inc.Order)
	if err != nil {
		return nil, err
	}

	where := builder.And(keyClause, extra)
	sql := fmt.Sprintf("SELECT %s FROM %s%s%s%s", m.projection, m.table, where.WhereSQL(), order, builder.BuildPage(limit, 0))
	return m.Fetch(ctx, db, sql, where.Args)
}

func isNull(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(*string); ok {
		return s == nil
	}
	return false
}
