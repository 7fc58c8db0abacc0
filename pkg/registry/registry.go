// Package registry provides a central, name-keyed registry of table mappers.
package registry

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/marshallshelly/parcel-orm/pkg/geo"
	"github.com/marshallshelly/parcel-orm/pkg/model"
)

var (
	// ErrDuplicate is returned when a table name is registered twice.
	ErrDuplicate = errors.New("table already registered")

	// ErrNotFound is returned when a table name is not registered.
	ErrNotFound = errors.New("table not registered")
)

// Registry is a thread-safe registry of models keyed by table name.
type Registry struct {
	mu     sync.RWMutex
	models map[string]*model.Model
	geo    map[string]*geo.Model
}

// NewRegistry creates a new Registry instance.
func NewRegistry() *Registry {
	return &Registry{
		models: make(map[string]*model.Model),
		geo:    make(map[string]*geo.Model),
	}
}

// Register adds m under its table name.
func (r *Registry) Register(m *model.Model) error {
	if m == nil {
		return fmt.Errorf("registry: nil model")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.models[m.Table()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, m.Table())
	}
	r.models[m.Table()] = m
	return nil
}

// RegisterGeo adds a geometry model. Its base model is registered too, so Get
// finds it like any other table.
func (r *Registry) RegisterGeo(g *geo.Model) error {
	if err := r.Register(g.Base()); err != nil {
		return err
	}

	r.mu.Lock()
	r.geo[g.Base().Table()] = g
	r.mu.Unlock()
	return nil
}

// Get retrieves a model by table name.
func (r *Registry) Get(table string) (*model.Model, error) {
	r.mu.RLock()
	m, ok := r.models[table]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, table)
	}
	return m, nil
}

// MustGet is Get that panics on an unknown table.
func (r *Registry) MustGet(table string) *model.Model {
	m, err := r.Get(table)
	if err != nil {
		panic(err)
	}
	return m
}

// Geo retrieves a geometry model by table name.
func (r *Registry) Geo(table string) (*geo.Model, error) {
	r.mu.RLock()
	g, ok := r.geo[table]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: geometry table %s", ErrNotFound, table)
	}
	return g, nil
}

// Has checks if a table name is registered.
func (r *Registry) Has(table string) bool {
	r.mu.RLock()
	_, ok := r.models[table]
	r.mu.RUnlock()

	return ok
}

// Names returns all registered table names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Clear removes all registered models.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.models = make(map[string]*model.Model)
	r.geo = make(map[string]*geo.Model)
}
