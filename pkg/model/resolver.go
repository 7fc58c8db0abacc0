package model

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/marshallshelly/parcel-orm/pkg/builder"
)

// ResolveRelationKeys returns the primary keys of m whose related rows satisfy
// every entry of filters. constrained is false when no entry named a declared
// relation, in which case keys carries no meaning. An empty keys with
// constrained set means nothing matches.
func (m *Model) ResolveRelationKeys(ctx context.Context, db Querier, filters map[string]builder.Where) (keys []string, constrained bool, err error) {
	names := make([]string, 0, len(filters))
	for name := range filters {
		names = append(names, name)
	}
	slices.Sort(names)

	var sets [][]string
	for _, name := range names {
		rel, ok := m.Relation(name)
		if !ok {
			m.log.Warn().Str("table", m.table).Str("relation", name).Msg("unknown relation in whereRelation, skipping")
			continue
		}

		set, err := m.resolveRelation(ctx, db, rel, filters[name])
		if err != nil {
			return nil, true, err
		}
		if len(set) == 0 {
			return []string{}, true, nil
		}
		sets = append(sets, set)
	}

	if len(sets) == 0 {
		return nil, false, nil
	}
	return Intersect(sets...), true, nil
}

func (m *Model) resolveRelation(ctx context.Context, db Querier, rel Relation, constraints builder.Where) ([]string, error) {
	switch rel := rel.(type) {
	case BelongsToMany:
		related, err := rel.Target.keysWhere(ctx, db, rel.OtherLocalKey, constraints)
		if err != nil || len(related) == 0 {
			return nil, err
		}
		join := builder.Any(rel.OtherKey, builder.InValues(related), 1, "")
		sql := fmt.Sprintf("SELECT DISTINCT %s FROM %s%s", rel.ForeignKey, rel.Through, join.WhereSQL())
		local, err := m.pluck(ctx, db, rel.ForeignKey, sql, join.Args)
		if err != nil {
			return nil, err
		}
		return m.ownKeys(ctx, db, rel.LocalKey, normalizeKeys(local))

	case HasMany:
		notNull := builder.Clause{SQL: rel.ForeignKey + " IS NOT NULL"}
		where, err := builder.BuildWhere(constraints, 1, rel.Target.primaryKey)
		if err != nil {
			return nil, err
		}
		clause := builder.And(where, notNull)
		sql := fmt.Sprintf("SELECT DISTINCT %s FROM %s%s", rel.ForeignKey, rel.Target.table, clause.WhereSQL())
		local, err := m.pluck(ctx, db, rel.ForeignKey, sql, clause.Args)
		if err != nil {
			return nil, err
		}
		return m.ownKeys(ctx, db, rel.LocalKey, normalizeKeys(local))

	case BelongsTo:
		related, err := rel.Target.keysWhere(ctx, db, rel.LocalKey, constraints)
		if err != nil || len(related) == 0 {
			return nil, err
		}
		return m.ownKeys(ctx, db, rel.ForeignKey, related)

	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedRelation, rel)
	}
}

// keysWhere returns the distinct values of column in rows of m matching where.
func (m *Model) keysWhere(ctx context.Context, db Querier, column string, where builder.Where) ([]string, error) {
	clause, err := builder.BuildWhere(where, 1, m.primaryKey)
	if err != nil {
		return nil, err
	}
	sql := fmt.Sprintf("SELECT DISTINCT %s FROM %s%s", column, m.table, clause.WhereSQL())
	values, err := m.pluck(ctx, db, column, sql, clause.Args)
	if err != nil {
		return nil, err
	}
	return normalizeKeys(values), nil
}

// ownKeys maps values of column to m's primary keys. When column is the
// primary key the values are returned as they are.
func (m *Model) ownKeys(ctx context.Context, db Querier, column string, values []string) ([]string, error) {
	if len(values) == 0 {
		return nil, nil
	}
	if column == m.primaryKey {
		return values, nil
	}
	return m.keysWhere(ctx, db, m.primaryKey, builder.Where{column: builder.InValues(values)})
}

// FoldKeys narrows where to rows whose primary key is in keys, keeping any
// key constraint already present by intersecting with it.
func FoldKeys(where builder.Where, primaryKey string, keys []string) builder.Where {
	out := make(builder.Where, len(where)+1)
	for k, v := range where {
		out[k] = v
	}

	allowed := normalizeKeys(builder.InValues(keys))
	if existing, ok := where[primaryKey]; ok {
		var current []string
		switch v := existing.(type) {
		case builder.In:
			current = builder.CleanValues(v)
		case nil:
			current = nil
		default:
			current = builder.CleanValues(builder.In{v})
		}
		allowed = Intersect(current, allowed)
	}
	out[primaryKey] = builder.InValues(allowed)
	return out
}

// Intersect returns the values present in every set, in the order of the first.
func Intersect(sets ...[]string) []string {
	if len(sets) == 0 {
		return []string{}
	}
	result := make([]string, 0, len(sets[0]))
	seen := make(map[string]struct{}, len(sets[0]))
	for _, v := range sets[0] {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	for _, set := range sets[1:] {
		members := make(map[string]struct{}, len(set))
		for _, v := range set {
			members[v] = struct{}{}
		}
		result = slices.DeleteFunc(result, func(v string) bool {
			_, ok := members[v]
			return !ok
		})
	}
	return result
}

// normalizeKeys keeps trimmed, non-blank string keys.
func normalizeKeys(values []any) []string {
	keys := make([]string, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		keys = append(keys, s)
	}
	return keys
}
