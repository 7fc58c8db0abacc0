package commands

import (
	"testing"

	"github.com/marshallshelly/parcel-orm/pkg/builder"
	"github.com/marshallshelly/parcel-orm/pkg/model"
	"github.com/marshallshelly/parcel-orm/pkg/runtime"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWhere(t *testing.T) {
	where, err := parseWhere([]string{"status=active", "parent_id=null", "active=true", "id=a,b", "name=x=y"})
	require.NoError(t, err)
	assert.Equal(t, builder.Where{
		"status":    "active",
		"parent_id": nil,
		"active":    true,
		"id":        builder.In{"a", "b"},
		"name":      "x=y",
	}, where)

	_, err = parseWhere([]string{"novalue"})
	assert.Error(t, err)
	_, err = parseWhere([]string{"=x"})
	assert.Error(t, err)
}

func TestParseWhereRelation(t *testing.T) {
	got, err := parseWhereRelation([]string{"forms.name=Censo", "forms.category_id=c1", "filled_forms.user_id=u1"})
	require.NoError(t, err)
	assert.Equal(t, map[string]builder.Where{
		"forms":        {"name": "Censo", "category_id": "c1"},
		"filled_forms": {"user_id": "u1"},
	}, got)

	_, err = parseWhereRelation([]string{"name=x"})
	assert.Error(t, err)

	got, err = parseWhereRelation(nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestParseIncludes(t *testing.T) {
	got := parseIncludes([]string{"forms.category", "institution", "forms", " ", "forms.filled_forms"})
	assert.Equal(t, []model.Include{
		{Relation: "forms", Include: []model.Include{{Relation: "category"}, {Relation: "filled_forms"}}},
		{Relation: "institution"},
	}, got)
}

func TestParseOrder(t *testing.T) {
	got := parseOrder([]string{"created_at:desc", "name", ":asc"})
	assert.Equal(t, builder.Order{
		builder.Descending("created_at"),
		builder.Ascending("name"),
	}, got)
}

func TestDescribe(t *testing.T) {
	_, r, err := newCatalog(zerolog.Nop(), runtime.DefaultConfig())
	require.NoError(t, err)

	described := describe(r)
	assert.Len(t, described, 9)
	assert.Contains(t, described["categories"], relationInfo{
		Name: "parent", Kind: "belongsTo", Target: "categories", Keys: "parent_id -> id",
	})
	assert.Contains(t, described["shapes"], relationInfo{
		Name: "forms", Kind: "belongsToMany", Target: "forms", Keys: "shape_forms.shape_id/form_id",
	})
}

func TestTablesCommand_JSON(t *testing.T) {
	rootCmd.SetArgs([]string{"tables", "--json"})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		jsonOutput = false
	})

	require.NoError(t, rootCmd.Execute())
}
