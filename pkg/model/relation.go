package model

import (
	"fmt"

	"github.com/marshallshelly/parcel-orm/pkg/builder"
)

// Relation is one of BelongsTo, HasMany or BelongsToMany. The set is closed:
// only this package can add variants.
type Relation interface {
	target() *Model
	normalize(owner *Model) (Relation, error)
}

// BelongsTo: the owner holds ForeignKey referencing Target's LocalKey.
// LocalKey defaults to Target's primary key.
type BelongsTo struct {
	Target     *Model
	ForeignKey string
	LocalKey   string
}

// HasMany: Target holds ForeignKey referencing the owner's LocalKey.
// LocalKey defaults to the owner's primary key.
type HasMany struct {
	Target     *Model
	ForeignKey string
	LocalKey   string
}

// BelongsToMany: the Through table pairs ForeignKey (owner's LocalKey) with
// OtherKey (Target's OtherLocalKey). Both local keys default to primary keys.
type BelongsToMany struct {
	Target        *Model
	Through       string
	ForeignKey    string
	OtherKey      string
	LocalKey      string
	OtherLocalKey string
}

func (r BelongsTo) target() *Model     { return r.Target }
func (r HasMany) target() *Model       { return r.Target }
func (r BelongsToMany) target() *Model { return r.Target }

func (r BelongsTo) normalize(_ *Model) (Relation, error) {
	if r.LocalKey == "" {
		r.LocalKey = r.Target.primaryKey
	}
	return r, checkIdentifiers(r.ForeignKey, r.LocalKey)
}

func (r HasMany) normalize(owner *Model) (Relation, error) {
	if r.LocalKey == "" {
		r.LocalKey = owner.primaryKey
	}
	return r, checkIdentifiers(r.ForeignKey, r.LocalKey)
}

func (r BelongsToMany) normalize(owner *Model) (Relation, error) {
	if r.LocalKey == "" {
		r.LocalKey = owner.primaryKey
	}
	if r.OtherLocalKey == "" {
		r.OtherLocalKey = r.Target.primaryKey
	}
	return r, checkIdentifiers(r.Through, r.ForeignKey, r.OtherKey, r.LocalKey, r.OtherLocalKey)
}

// TargetOf returns the related model of rel.
func TargetOf(rel Relation) *Model {
	return rel.target()
}

// Define declares rel under name. A target may be the owner itself.
func (m *Model) Define(name string, rel Relation) error {
	if rel == nil || rel.target() == nil {
		return fmt.Errorf("relation %s.%s: missing target", m.table, name)
	}
	normalized, err := rel.normalize(m)
	if err != nil {
		return fmt.Errorf("relation %s.%s: %w", m.table, name, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.relations[name]; exists {
		return fmt.Errorf("%w: %s.%s", ErrRelationExists, m.table, name)
	}
	m.relations[name] = normalized
	return nil
}

// MustDefine is Define for start-up wiring; it panics on error and returns m for chaining.
func (m *Model) MustDefine(name string, rel Relation) *Model {
	if err := m.Define(name, rel); err != nil {
		panic(err)
	}
	return m
}

// BelongsTo declares that m holds foreignKey referencing target's primary key.
func (m *Model) BelongsTo(name string, target *Model, foreignKey string) error {
	return m.Define(name, BelongsTo{Target: target, ForeignKey: foreignKey})
}

// HasMany declares that target holds foreignKey referencing m's primary key.
func (m *Model) HasMany(name string, target *Model, foreignKey string) error {
	return m.Define(name, HasMany{Target: target, ForeignKey: foreignKey})
}

// BelongsToMany declares a join through the given table.
func (m *Model) BelongsToMany(name string, target *Model, through, foreignKey, otherKey string) error {
	return m.Define(name, BelongsToMany{
		Target:     target,
		Through:    through,
		ForeignKey: foreignKey,
		OtherKey:   otherKey,
	})
}

func checkIdentifiers(names ...string) error {
	for _, name := range names {
		if err := builder.CheckIdentifier(name); err != nil {
			return err
		}
	}
	return nil
}
