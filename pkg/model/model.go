// Package model maps named PostgreSQL tables to rows with declared relations.
//
// A Model is bound to one table. Relations are declared once at start-up and
// read concurrently afterwards. Every operation takes the Querier to run on, so
// the caller decides which connection or transaction a call belongs to.
package model

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/marshallshelly/parcel-orm/pkg/builder"
	"github.com/marshallshelly/parcel-orm/pkg/logger"
	"github.com/rs/zerolog"
)

var (
	// ErrRelationExists is returned when a relation name is declared twice on one model.
	ErrRelationExists = errors.New("relation already declared")

	// ErrUnsupportedRelation is returned for a relation value this package does not know.
	ErrUnsupportedRelation = errors.New("unsupported relation")

	// ErrEmptyUpdate is returned by Update when there is nothing to set.
	ErrEmptyUpdate = errors.New("update has no columns")
)

// DefaultPrimaryKey is the key column used when none is configured.
const DefaultPrimaryKey = "id"

// DefaultConcurrency bounds the relation fetches in flight for one load.
const DefaultConcurrency = 8

// Row is one result row keyed by column name. Loaded relations are added under
// the relation name.
type Row = map[string]any

// Querier runs one parameterized statement and returns every row it produced.
// runtime.DB and runtime.Tx implement it.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) ([]map[string]any, error)
}

// Include asks for a relation to be attached to each result row. Where, Order
// and Limit narrow the related rows. Include lists relations of the related
// model; the generic loader resolves one level only.
type Include struct {
	Relation string
	Where    builder.Where
	Order    builder.Order
	Limit    int
	Include  []Include
}

// Includes builds plain includes from relation names.
func Includes(names ...string) []Include {
	out := make([]Include, len(names))
	for i, name := range names {
		out[i] = Include{Relation: name}
	}
	return out
}

// QueryOptions describes a read.
type QueryOptions struct {
	Where  builder.Where
	Order  builder.Order
	Limit  int
	Offset int

	Include []Include

	// WhereRelation constrains the rows by fields of their related rows,
	// keyed by relation name. Every entry must hold.
	WhereRelation map[string]builder.Where
}

// Model binds an entity to a table.
type Model struct {
	table       string
	primaryKey  string
	projection  string
	decode      func(Row) error
	concurrency int
	log         zerolog.Logger

	mu        sync.RWMutex
	relations map[string]Relation
}

// Option configures a Model.
type Option func(*Model)

// WithPrimaryKey sets the key column.
func WithPrimaryKey(column string) Option {
	return func(m *Model) {
		m.primaryKey = column
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(log zerolog.Logger) Option {
	return func(m *Model) {
		m.log = log
	}
}

// WithConcurrency bounds the relation fetches in flight for one load.
func WithConcurrency(n int) Option {
	return func(m *Model) {
		if n > 0 {
			m.concurrency = n
		}
	}
}

// WithProjection replaces "*" in every SELECT and RETURNING list of the model.
// The expression is written verbatim and must come from trusted configuration.
func WithProjection(columns string) Option {
	return func(m *Model) {
		m.projection = columns
	}
}

// WithDecoder runs fn on each row read through the model's projection.
func WithDecoder(fn func(Row) error) Option {
	return func(m *Model) {
		m.decode = fn
	}
}

// New creates a model for table. It panics when the table or key is not a
// plain identifier, which is a wiring mistake.
func New(table string, opts ...Option) *Model {
	m := &Model{
		table:       table,
		primaryKey:  DefaultPrimaryKey,
		projection:  "*",
		concurrency: DefaultConcurrency,
		log:         logger.Default(),
		relations:   make(map[string]Relation),
	}
	for _, opt := range opts {
		opt(m)
	}
	if err := builder.CheckIdentifier(m.table); err != nil {
		panic(fmt.Sprintf("model: table: %v", err))
	}
	if err := builder.CheckIdentifier(m.primaryKey); err != nil {
		panic(fmt.Sprintf("model: primary key of %s: %v", m.table, err))
	}
	return m
}

// Table returns the table name.
func (m *Model) Table() string {
	return m.table
}

// PrimaryKey returns the key column.
func (m *Model) PrimaryKey() string {
	return m.primaryKey
}

// Projection returns the select list used for reads and RETURNING.
func (m *Model) Projection() string {
	return m.projection
}

// Logger returns the model's diagnostics logger.
func (m *Model) Logger() *zerolog.Logger {
	return &m.log
}

// Relation returns the relation declared under name.
func (m *Model) Relation(name string) (Relation, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rel, ok := m.relations[name]
	return rel, ok
}

// Relations returns the declared relation names, sorted.
func (m *Model) Relations() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.relations))
	for name := range m.relations {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Fetch runs a statement whose select list is the model's projection and
// decodes the rows. Errors from db are returned unchanged.
func (m *Model) Fetch(ctx context.Context, db Querier, sql string, args []any) ([]Row, error) {
	rows, err := m.run(ctx, db, sql, args)
	if err != nil {
		return nil, err
	}
	if m.decode != nil {
		for _, row := range rows {
			if err := m.decode(row); err != nil {
				return nil, err
			}
		}
	}
	return rows, nil
}

func (m *Model) run(ctx context.Context, db Querier, sql string, args []any) ([]Row, error) {
	m.log.Debug().Str("table", m.table).Str("sql", sql).Int("args", len(args)).Msg("query")
	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []Row{}
	}
	return rows, nil
}

// pluck runs sql and returns the values of column from every row.
func (m *Model) pluck(ctx context.Context, db Querier, column, sql string, args []any) ([]any, error) {
	rows, err := m.run(ctx, db, sql, args)
	if err != nil {
		return nil, err
	}
	values := make([]any, 0, len(rows))
	for _, row := range rows {
		values = append(values, row[column])
	}
	return values, nil
}
