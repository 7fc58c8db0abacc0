package model

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/marshallshelly/parcel-orm/pkg/builder"
)

// FindByPk returns the row with the given key, or nil.
func (m *Model) FindByPk(ctx context.Context, db Querier, id any, include ...Include) (Row, error) {
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1", m.projection, m.table, m.primaryKey)
	rows, err := m.Fetch(ctx, db, sql, []any{id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	if len(include) > 0 {
		if rows, err = m.LoadRelations(ctx, db, rows[:1], include); err != nil {
			return nil, err
		}
	}
	return rows[0], nil
}

// FindOne returns the first row matching opts, or nil.
func (m *Model) FindOne(ctx context.Context, db Querier, opts QueryOptions) (Row, error) {
	opts.Limit = 1
	rows, err := m.FindAll(ctx, db, opts)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

// FindAll returns every row matching opts, with requested relations attached.
func (m *Model) FindAll(ctx context.Context, db Querier, opts QueryOptions) ([]Row, error) {
	where, empty, err := m.relationScope(ctx, db, opts)
	if err != nil {
		return nil, err
	}
	if empty {
		return []Row{}, nil
	}

	clause, err := builder.BuildWhere(where, 1, m.primaryKey)
	if err != nil {
		return nil, err
	}
	order, err := builder.BuildOrder(opts.Order)
	if err != nil {
		return nil, err
	}

	sql := fmt.Sprintf("SELECT %s FROM %s%s%s%s", m.projection, m.table, clause.WhereSQL(), order, builder.BuildPage(opts.Limit, opts.Offset))
	rows, err := m.Fetch(ctx, db, sql, clause.Args)
	if err != nil {
		return nil, err
	}
	if len(opts.Include) > 0 && len(rows) > 0 {
		return m.LoadRelations(ctx, db, rows, opts.Include)
	}
	return rows, nil
}

// Count returns the number of rows matching opts.Where and opts.WhereRelation.
func (m *Model) Count(ctx context.Context, db Querier, opts QueryOptions) (int64, error) {
	where, empty, err := m.relationScope(ctx, db, opts)
	if err != nil || empty {
		return 0, err
	}
	clause, err := builder.BuildWhere(where, 1, m.primaryKey)
	if err != nil {
		return 0, err
	}
	sql := fmt.Sprintf("SELECT COUNT(*) AS count FROM %s%s", m.table, clause.WhereSQL())
	rows, err := m.run(ctx, db, sql, clause.Args)
	if err != nil || len(rows) == 0 {
		return 0, err
	}
	return toInt64(rows[0]["count"])
}

// relationScope folds opts.WhereRelation into opts.Where. empty reports that
// the relation constraints match nothing.
func (m *Model) relationScope(ctx context.Context, db Querier, opts QueryOptions) (where builder.Where, empty bool, err error) {
	if len(opts.WhereRelation) == 0 {
		return opts.Where, false, nil
	}
	keys, constrained, err := m.ResolveRelationKeys(ctx, db, opts.WhereRelation)
	if err != nil {
		return nil, false, err
	}
	if !constrained {
		return opts.Where, false, nil
	}
	if len(keys) == 0 {
		return nil, true, nil
	}
	return FoldKeys(opts.Where, m.primaryKey, keys), false, nil
}

// Create inserts data and returns the stored row, or nil if nothing came back.
// Every key of data becomes a column; leave out columns the database fills.
func (m *Model) Create(ctx context.Context, db Querier, data Row) (Row, error) {
	columns := sortedColumns(data)
	if err := checkIdentifiers(columns...); err != nil {
		return nil, err
	}

	var sql string
	args := make([]any, 0, len(columns))
	if len(columns) == 0 {
		sql = fmt.Sprintf("INSERT INTO %s DEFAULT VALUES RETURNING %s", m.table, m.projection)
	} else {
		placeholders := make([]string, len(columns))
		for i, col := range columns {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
			args = append(args, data[col])
		}
		sql = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
			m.table, strings.Join(columns, ", "), strings.Join(placeholders, ", "), m.projection)
	}

	return m.first(ctx, db, sql, args)
}

// Update sets data on the rows matching where and returns the first updated
// row, or nil when nothing matched. An empty where updates every row.
func (m *Model) Update(ctx context.Context, db Querier, data Row, where builder.Where) (Row, error) {
	columns := sortedColumns(data)
	if len(columns) == 0 {
		return nil, ErrEmptyUpdate
	}
	if err := checkIdentifiers(columns...); err != nil {
		return nil, err
	}

	sets := make([]string, len(columns))
	args := make([]any, 0, len(columns))
	for i, col := range columns {
		sets[i] = fmt.Sprintf("%s = $%d", col, i+1)
		args = append(args, data[col])
	}

	clause, err := builder.BuildWhere(where, len(args)+1, m.primaryKey)
	if err != nil {
		return nil, err
	}
	args = append(args, clause.Args...)

	sql := fmt.Sprintf("UPDATE %s SET %s%s RETURNING %s", m.table, strings.Join(sets, ", "), clause.WhereSQL(), m.projection)
	return m.first(ctx, db, sql, args)
}

// Delete removes the rows matching where and returns the first one, or nil.
// An empty where deletes every row.
func (m *Model) Delete(ctx context.Context, db Querier, where builder.Where) (Row, error) {
	clause, err := builder.BuildWhere(where, 1, m.primaryKey)
	if err != nil {
		return nil, err
	}
	sql := fmt.Sprintf("DELETE FROM %s%s RETURNING %s", m.table, clause.WhereSQL(), m.projection)
	return m.first(ctx, db, sql, clause.Args)
}

func (m *Model) first(ctx context.Context, db Querier, sql string, args []any) (Row, error) {
	rows, err := m.Fetch(ctx, db, sql, args)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func sortedColumns(data Row) []string {
	columns := make([]string, 0, len(data))
	for col := range data {
		columns = append(columns, col)
	}
	slices.Sort(columns)
	return columns
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("unexpected count type %T", v)
	}
}
