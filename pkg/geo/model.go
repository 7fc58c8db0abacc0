// Package geo specializes model.Model for tables with a PostGIS geometry
// column. Callers read and write the geometry as GeoJSON; the table stores it
// natively.
package geo

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/marshallshelly/parcel-orm/pkg/builder"
	"github.com/marshallshelly/parcel-orm/pkg/model"
)

// AllMunicipalities disables the municipality filter.
const AllMunicipalities = "ALL"

// DefaultGeometryColumn is used when Config.GeometryColumn is empty.
const DefaultGeometryColumn = "geom"

// DefaultSRID is the spatial reference stored geometries are tagged with.
const DefaultSRID = 4326

// Config describes a geometry-bearing table.
type Config struct {
	Table      string
	PrimaryKey string
	// Columns lists every non-geometry column to read back.
	Columns        []string
	GeometryColumn string
	SRID           int
	// UpdatedAtColumn is stamped with NOW() on every Update.
	UpdatedAtColumn string
	Filters         Filters
}

// Filters names the columns behind Query's domain filters. Empty names
// disable the matching filter.
type Filters struct {
	InstitutionColumn  string
	StatusColumn       string
	MunicipalityColumn string // JSON column holding the municipality code
	MunicipalityKey    string // key of the code inside MunicipalityColumn
}

// Query extends model.QueryOptions with the domain filters.
type Query struct {
	model.QueryOptions

	InstitutionID string
	Status        string
	// Municipalities is a comma-separated list of codes, or AllMunicipalities.
	Municipalities string
}

// Model reads and writes a geometry table through GeoJSON.
type Model struct {
	base         *model.Model
	geometry     string
	columns      []string
	srid         int
	updatedAt    string
	filters      Filters
	municipality string
}

// New builds the model and its underlying model.Model. It panics on invalid
// identifiers, like model.New.
func New(cfg Config, opts ...model.Option) *Model {
	if cfg.PrimaryKey == "" {
		cfg.PrimaryKey = model.DefaultPrimaryKey
	}
	if cfg.GeometryColumn == "" {
		cfg.GeometryColumn = DefaultGeometryColumn
	}
	if cfg.SRID == 0 {
		cfg.SRID = DefaultSRID
	}

	idents := append([]string{cfg.GeometryColumn}, cfg.Columns...)
	for _, name := range []string{cfg.UpdatedAtColumn, cfg.Filters.InstitutionColumn, cfg.Filters.StatusColumn} {
		if name != "" {
			idents = append(idents, name)
		}
	}
	for _, name := range idents {
		if err := builder.CheckIdentifier(name); err != nil {
			panic(fmt.Sprintf("geo: %s: %v", cfg.Table, err))
		}
	}

	m := &Model{
		geometry:  cfg.GeometryColumn,
		columns:   slices.DeleteFunc(slices.Clone(cfg.Columns), func(c string) bool { return c == cfg.GeometryColumn }),
		srid:      cfg.SRID,
		updatedAt: cfg.UpdatedAtColumn,
		filters:   cfg.Filters,
	}
	if cfg.Filters.MunicipalityColumn != "" {
		expr, err := builder.JSONText(cfg.Filters.MunicipalityColumn, cfg.Filters.MunicipalityKey)
		if err != nil {
			panic(fmt.Sprintf("geo: %s: %v", cfg.Table, err))
		}
		m.municipality = expr
	}

	opts = append(slices.Clone(opts),
		model.WithPrimaryKey(cfg.PrimaryKey),
		model.WithProjection(m.projection()),
		model.WithDecoder(m.decodeRow),
	)
	m.base = model.New(cfg.Table, opts...)
	return m
}

// Base returns the underlying model, used to declare relations and as a
// relation target. Reads through it already convert the geometry.
func (m *Model) Base() *model.Model {
	return m.base
}

// GeometryColumn returns the geometry column name.
func (m *Model) GeometryColumn() string {
	return m.geometry
}

func (m *Model) projection() string {
	cols := append(slices.Clone(m.columns), fmt.Sprintf("ST_AsGeoJSON(%s)::text AS %s", m.geometry, m.geometry))
	return strings.Join(cols, ", ")
}

func (m *Model) geometryValue(param int) string {
	return fmt.Sprintf("ST_SetSRID(ST_GeomFromGeoJSON($%d), %d)", param, m.srid)
}

func (m *Model) decodeRow(row model.Row) error {
	v, ok := row[m.geometry]
	if !ok {
		return nil
	}
	g, err := decodeGeometry(v)
	if err != nil {
		return fmt.Errorf("decode %s.%s: %w", m.base.Table(), m.geometry, err)
	}
	if g == nil {
		row[m.geometry] = nil
		return nil
	}
	row[m.geometry] = g
	return nil
}

// Create inserts data. The geometry entry, when present, may be a
// *geojson.Geometry, an orb.Geometry or GeoJSON text/object; it is stored via
// ST_GeomFromGeoJSON and returned as *geojson.Geometry.
func (m *Model) Create(ctx context.Context, db model.Querier, data model.Row) (model.Row, error) {
	columns := make([]string, 0, len(data))
	for col := range data {
		if col != m.geometry {
			columns = append(columns, col)
		}
	}
	slices.Sort(columns)
	for _, col := range columns {
		if err := builder.CheckIdentifier(col); err != nil {
			return nil, err
		}
	}

	values := make([]string, 0, len(columns)+1)
	args := make([]any, 0, len(columns)+1)
	for i, col := range columns {
		values = append(values, fmt.Sprintf("$%d", i+1))
		args = append(args, data[col])
	}

	if g, ok := data[m.geometry]; ok && g != nil {
		text, err := encodeGeometry(g)
		if err != nil {
			return nil, err
		}
		columns = append(columns, m.geometry)
		values = append(values, m.geometryValue(len(args)+1))
		args = append(args, text)
	}

	var sql string
	if len(columns) == 0 {
		sql = fmt.Sprintf("INSERT INTO %s DEFAULT VALUES RETURNING %s", m.base.Table(), m.base.Projection())
	} else {
		sql = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
			m.base.Table(), strings.Join(columns, ", "), strings.Join(values, ", "), m.base.Projection())
	}
	return m.first(ctx, db, sql, args)
}

// FindByPk returns the row with the given key, or nil. Unlike the generic
// loader it also resolves each include's nested Include list, one level
// further, on the related rows.
func (m *Model) FindByPk(ctx context.Context, db model.Querier, id any, include ...model.Include) (model.Row, error) {
	row, err := m.base.FindByPk(ctx, db, id, include...)
	if err != nil || row == nil {
		return row, err
	}

	for _, inc := range include {
		if len(inc.Include) == 0 {
			continue
		}
		rel, ok := m.base.Relation(inc.Relation)
		if !ok {
			continue
		}
		target := model.TargetOf(rel)

		switch related := row[inc.Relation].(type) {
		case model.Row:
			if related == nil {
				continue
			}
			loaded, err := target.LoadRelations(ctx, db, []model.Row{related}, inc.Include)
			if err != nil {
				return nil, err
			}
			row[inc.Relation] = loaded[0]
		case []model.Row:
			loaded, err := target.LoadRelations(ctx, db, related, inc.Include)
			if err != nil {
				return nil, err
			}
			row[inc.Relation] = loaded
		}
	}
	return row, nil
}

// FindOne returns the first row matching q, or nil.
func (m *Model) FindOne(ctx context.Context, db model.Querier, q Query) (model.Row, error) {
	q.Limit = 1
	rows, err := m.FindAll(ctx, db, q)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

// FindAll returns the rows matching q. WhereRelation is resolved first into a
// key allow-list; the domain filters are then applied to a query scoped to it.
func (m *Model) FindAll(ctx context.Context, db model.Querier, q Query) ([]model.Row, error) {
	clause, empty, err := m.filter(ctx, db, q)
	if err != nil {
		return nil, err
	}
	if empty {
		return []model.Row{}, nil
	}

	order, err := builder.BuildOrder(q.Order)
	if err != nil {
		return nil, err
	}

	sql := fmt.Sprintf("SELECT %s FROM %s%s%s%s", m.base.Projection(), m.base.Table(), clause.WhereSQL(), order, builder.BuildPage(q.Limit, q.Offset))
	rows, err := m.base.Fetch(ctx, db, sql, clause.Args)
	if err != nil {
		return nil, err
	}
	if len(q.Include) > 0 && len(rows) > 0 {
		return m.base.LoadRelations(ctx, db, rows, q.Include)
	}
	return rows, nil
}

// Count returns the number of rows FindAll would return without paging.
func (m *Model) Count(ctx context.Context, db model.Querier, q Query) (int64, error) {
	clause, empty, err := m.filter(ctx, db, q)
	if err != nil || empty {
		return 0, err
	}
	sql := fmt.Sprintf("SELECT COUNT(*) AS count FROM %s%s", m.base.Table(), clause.WhereSQL())
	rows, err := db.Query(ctx, sql, clause.Args...)
	if err != nil || len(rows) == 0 {
		return 0, err
	}
	switch n := rows[0]["count"].(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("unexpected count type %T", n)
	}
}

// filter builds the WHERE predicate for q. empty reports that the relation
// constraints already rule out every row.
func (m *Model) filter(ctx context.Context, db model.Querier, q Query) (builder.Clause, bool, error) {
	where := q.Where
	if len(q.WhereRelation) > 0 {
		keys, constrained, err := m.base.ResolveRelationKeys(ctx, db, q.WhereRelation)
		if err != nil {
			return builder.Clause{}, false, err
		}
		if constrained {
			if len(keys) == 0 {
				return builder.Clause{}, true, nil
			}
			where = model.FoldKeys(where, m.base.PrimaryKey(), keys)
		}
	}

	base, err := builder.BuildWhere(where, 1, m.base.PrimaryKey())
	if err != nil {
		return builder.Clause{}, false, err
	}

	clauses := []builder.Clause{base}
	next := base.Next(1)

	if q.InstitutionID != "" && m.filters.InstitutionColumn != "" {
		clauses = append(clauses, builder.Clause{
			SQL:  fmt.Sprintf("%s = $%d", m.filters.InstitutionColumn, next),
			Args: []any{q.InstitutionID},
		})
		next++
	}
	if q.Status != "" && m.filters.StatusColumn != "" {
		clauses = append(clauses, builder.Clause{
			SQL:  fmt.Sprintf("%s = $%d", m.filters.StatusColumn, next),
			Args: []any{q.Status},
		})
		next++
	}
	if codes, ok := ParseMunicipalities(q.Municipalities); ok && m.municipality != "" {
		clauses = append(clauses, builder.AnyText(m.municipality, codes, next))
	}

	return builder.And(clauses...), false, nil
}

// ParseMunicipalities splits a comma-separated code list. ok is false when the
// filter is disabled: an empty list or AllMunicipalities.
func ParseMunicipalities(s string) (codes []string, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == AllMunicipalities {
		return nil, false
	}
	for _, code := range strings.Split(s, ",") {
		if code = strings.TrimSpace(code); code != "" {
			codes = append(codes, code)
		}
	}
	return codes, true
}

// Update sets data on the rows matching where, replacing the geometry when data
// carries one, and always stamps the updated-at column. It returns the first
// updated row, or nil when nothing matched.
func (m *Model) Update(ctx context.Context, db model.Querier, data model.Row, where builder.Where) (model.Row, error) {
	columns := make([]string, 0, len(data))
	for col := range data {
		if col != m.geometry && col != m.updatedAt {
			columns = append(columns, col)
		}
	}
	slices.Sort(columns)

	sets := make([]string, 0, len(columns)+2)
	args := make([]any, 0, len(columns)+1)
	for _, col := range columns {
		if err := builder.CheckIdentifier(col); err != nil {
			return nil, err
		}
		args = append(args, data[col])
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if g, ok := data[m.geometry]; ok {
		if g == nil {
			sets = append(sets, m.geometry+" = NULL")
		} else {
			text, err := encodeGeometry(g)
			if err != nil {
				return nil, err
			}
			args = append(args, text)
			sets = append(sets, fmt.Sprintf("%s = %s", m.geometry, m.geometryValue(len(args))))
		}
	}
	if m.updatedAt != "" {
		sets = append(sets, m.updatedAt+" = NOW()")
	}
	if len(sets) == 0 {
		return nil, model.ErrEmptyUpdate
	}

	clause, err := builder.BuildWhere(where, len(args)+1, m.base.PrimaryKey())
	if err != nil {
		return nil, err
	}
	args = append(args, clause.Args...)

	sql := fmt.Sprintf("UPDATE %s SET %s%s RETURNING %s", m.base.Table(), strings.Join(sets, ", "), clause.WhereSQL(), m.base.Projection())
	return m.first(ctx, db, sql, args)
}

// Delete removes the rows matching where and returns the first one with its
// geometry as GeoJSON, or nil.
func (m *Model) Delete(ctx context.Context, db model.Querier, where builder.Where) (model.Row, error) {
	return m.base.Delete(ctx, db, where)
}

func (m *Model) first(ctx context.Context, db model.Querier, sql string, args []any) (model.Row, error) {
	rows, err := m.base.Fetch(ctx, db, sql, args)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}
