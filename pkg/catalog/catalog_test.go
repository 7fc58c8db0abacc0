package catalog

import (
	"testing"

	"github.com/marshallshelly/parcel-orm/pkg/model"
	"github.com/marshallshelly/parcel-orm/pkg/registry"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Relations(t *testing.T) {
	c := New(model.WithLogger(zerolog.Nop()))

	tests := []struct {
		owner *model.Model
		names []string
	}{
		{c.Institutions, []string{"shapes", "users"}},
		{c.Municipalities, []string{"parishes"}},
		{c.Parishes, []string{"municipality"}},
		{c.Users, []string{"audit_logs", "filled_forms", "institution"}},
		{c.Categories, []string{"children", "forms", "parent"}},
		{c.Forms, []string{"category", "filled_forms", "shapes"}},
		{c.Shapes.Base(), []string{"category", "filled_forms", "forms", "institution"}},
		{c.FilledForms, []string{"form", "shape", "user"}},
		{c.AuditLogs, []string{"user"}},
	}
	for _, tt := range tests {
		t.Run(tt.owner.Table(), func(t *testing.T) {
			assert.Equal(t, tt.names, tt.owner.Relations())
		})
	}
}

func TestNew_SelfReferentialCategories(t *testing.T) {
	c := New(model.WithLogger(zerolog.Nop()))

	parent, ok := c.Categories.Relation("parent")
	require.True(t, ok)
	children, ok := c.Categories.Relation("children")
	require.True(t, ok)

	assert.Same(t, c.Categories, model.TargetOf(parent))
	assert.Same(t, c.Categories, model.TargetOf(children))
	assert.Equal(t, model.BelongsTo{Target: c.Categories, ForeignKey: "parent_id", LocalKey: "id"}, parent)
}

func TestNew_ShapeFormsIsSymmetric(t *testing.T) {
	c := New(model.WithLogger(zerolog.Nop()))

	fromShape, _ := c.Shapes.Base().Relation("forms")
	fromForm, _ := c.Forms.Relation("shapes")

	a := fromShape.(model.BelongsToMany)
	b := fromForm.(model.BelongsToMany)
	assert.Equal(t, ShapeFormsTable, a.Through)
	assert.Equal(t, a.Through, b.Through)
	assert.Equal(t, a.ForeignKey, b.OtherKey)
	assert.Equal(t, a.OtherKey, b.ForeignKey)
}

func TestRegister(t *testing.T) {
	r := registry.NewRegistry()
	require.NoError(t, New(model.WithLogger(zerolog.Nop())).Register(r))

	assert.Equal(t, []string{
		"audit_logs", "categories", "filled_forms", "forms", "institutions",
		"municipalities", "parishes", "shapes", "users",
	}, r.Names())

	_, err := r.Geo("shapes")
	assert.NoError(t, err)

	assert.ErrorIs(t, New(model.WithLogger(zerolog.Nop())).Register(r), registry.ErrDuplicate)
}
