package model

import (
	"testing"

	"github.com/marshallshelly/parcel-orm/pkg/builder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefine_FillsDefaultKeys(t *testing.T) {
	users := New("users", quiet())
	institutions := New("institutions", WithPrimaryKey("code"), quiet())
	roles := New("roles", quiet())

	require.NoError(t, users.BelongsTo("institution", institutions, "institution_code"))
	require.NoError(t, institutions.HasMany("users", users, "institution_code"))
	require.NoError(t, users.BelongsToMany("roles", roles, "user_roles", "user_id", "role_id"))

	rel, ok := users.Relation("institution")
	require.True(t, ok)
	assert.Equal(t, BelongsTo{Target: institutions, ForeignKey: "institution_code", LocalKey: "code"}, rel)

	rel, ok = institutions.Relation("users")
	require.True(t, ok)
	assert.Equal(t, "code", rel.(HasMany).LocalKey)

	rel, ok = users.Relation("roles")
	require.True(t, ok)
	m2m := rel.(BelongsToMany)
	assert.Equal(t, "id", m2m.LocalKey)
	assert.Equal(t, "id", m2m.OtherLocalKey)
	assert.Same(t, roles, TargetOf(rel))

	assert.Equal(t, []string{"institution", "roles"}, users.Relations())
}

func TestDefine_RejectsRedeclaration(t *testing.T) {
	categories := New("categories", quiet())
	require.NoError(t, categories.BelongsTo("parent", categories, "parent_id"))

	err := categories.HasMany("parent", categories, "parent_id")
	assert.ErrorIs(t, err, ErrRelationExists)

	rel, _ := categories.Relation("parent")
	assert.IsType(t, BelongsTo{}, rel)
}

func TestDefine_Validation(t *testing.T) {
	users := New("users", quiet())

	err := users.Define("broken", BelongsTo{ForeignKey: "x_id"})
	assert.Error(t, err)

	err = users.BelongsTo("evil", New("institutions", quiet()), "institution_id; --")
	assert.ErrorIs(t, err, builder.ErrInvalidIdentifier)

	assert.Panics(t, func() {
		users.MustDefine("evil", HasMany{Target: users, ForeignKey: "a b"})
	})
}

func TestDefine_PointerVariantIsStoredAsValue(t *testing.T) {
	users := New("users", quiet())
	forms := New("filled_forms", quiet())
	require.NoError(t, users.Define("filled_forms", &HasMany{Target: forms, ForeignKey: "user_id"}))

	rel, ok := users.Relation("filled_forms")
	require.True(t, ok)
	assert.IsType(t, HasMany{}, rel)
}
