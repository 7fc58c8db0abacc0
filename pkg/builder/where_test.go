package builder

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	uuidA = "6f1c1e3a-8a55-4c1c-9d1e-0b8a4d2b7c11"
	uuidB = "A2B3C4D5-E6F7-4890-ABCD-EF0123456789"
)

func TestBuildWhere(t *testing.T) {
	tests := []struct {
		name         string
		where        Where
		start        int
		expectedSQL  string
		expectedArgs []any
	}{
		{
			name:        "empty where",
			where:       Where{},
			start:       1,
			expectedSQL: "",
		},
		{
			name:         "single equality",
			where:        Where{"name": "Caracas"},
			start:        1,
			expectedSQL:  "name = $1",
			expectedArgs: []any{"Caracas"},
		},
		{
			name:         "fields are ordered and AND-joined",
			where:        Where{"status": "approved", "institution_id": uuidA},
			start:        1,
			expectedSQL:  "institution_id = $1 AND status = $2",
			expectedArgs: []any{uuidA, "approved"},
		},
		{
			name:         "boolean is cast",
			where:        Where{"active": true},
			start:        1,
			expectedSQL:  "active = $1::boolean",
			expectedArgs: []any{true},
		},
		{
			name:        "nil becomes IS NULL",
			where:       Where{"parent_id": nil},
			start:       1,
			expectedSQL: "parent_id IS NULL",
		},
		{
			name:        "empty IN is always false",
			where:       Where{"id": In{}},
			start:       1,
			expectedSQL: "1 = 0",
		},
		{
			name:        "IN with only blanks is always false",
			where:       Where{"tag": In{"", "  ", nil}},
			start:       1,
			expectedSQL: "1 = 0",
		},
		{
			name:         "IN on primary key is uuid typed",
			where:        Where{"id": In{"x1", " x2 "}},
			start:        1,
			expectedSQL:  "id = ANY($1::uuid[])",
			expectedArgs: []any{[]string{"x1", "x2"}},
		},
		{
			name:         "IN of uuids is uuid typed",
			where:        Where{"form_id": In{uuidA, uuidB}},
			start:        1,
			expectedSQL:  "form_id = ANY($1::uuid[])",
			expectedArgs: []any{[]string{uuidA, uuidB}},
		},
		{
			name:         "IN of plain strings is text typed",
			where:        Where{"tag": In{"abc", "def", ""}},
			start:        1,
			expectedSQL:  "tag = ANY($1::text[])",
			expectedArgs: []any{[]string{"abc", "def"}},
		},
		{
			name:         "mixed uuid and text falls back to text",
			where:        Where{"code": In{uuidA, "ZUL-01"}},
			start:        1,
			expectedSQL:  "code = ANY($1::text[])",
			expectedArgs: []any{[]string{uuidA, "ZUL-01"}},
		},
		{
			name:         "placeholders continue from start",
			where:        Where{"a": 1, "b": In{"x"}, "c": false},
			start:        4,
			expectedSQL:  "a = $4 AND b = ANY($5::text[]) AND c = $6::boolean",
			expectedArgs: []any{1, []string{"x"}, false},
		},
		{
			name:         "always-false IN does not consume a placeholder",
			where:        Where{"a": In{}, "b": "x"},
			start:        2,
			expectedSQL:  "1 = 0 AND b = $2",
			expectedArgs: []any{"x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clause, err := BuildWhere(tt.where, tt.start, "id")
			require.NoError(t, err)
			assert.Equal(t, tt.expectedSQL, clause.SQL)
			assert.Equal(t, tt.expectedArgs, clause.Args)
		})
	}
}

func TestBuildWhere_RejectsInjectedIdentifier(t *testing.T) {
	_, err := BuildWhere(Where{"name; DROP TABLE shapes": "x"}, 1, "id")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidIdentifier))
}

func TestClause_Composition(t *testing.T) {
	first, err := BuildWhere(Where{"shape_id": uuidA}, 1, "id")
	require.NoError(t, err)

	second, err := BuildWhere(Where{"status": "draft"}, first.Next(1), "id")
	require.NoError(t, err)

	joined := And(first, Clause{}, second)
	assert.Equal(t, "shape_id = $1 AND status = $2", joined.SQL)
	assert.Equal(t, []any{uuidA, "draft"}, joined.Args)
	assert.Equal(t, " WHERE shape_id = $1 AND status = $2", joined.WhereSQL())
	assert.Equal(t, "", Clause{}.WhereSQL())
}

func TestCleanValues(t *testing.T) {
	s := " padded "
	var nilString *string

	cleaned := CleanValues(In{" a ", "", nil, 42, &s, nilString, "\t"})
	assert.Equal(t, []string{"a", "42", "padded"}, cleaned)
}

func TestIsUUID(t *testing.T) {
	assert.True(t, IsUUID(uuidA))
	assert.True(t, IsUUID(uuidB))
	assert.False(t, IsUUID("{"+uuidA+"}"))
	assert.False(t, IsUUID("6f1c1e3a8a554c1c9d1e0b8a4d2b7c11"))
	assert.False(t, IsUUID("not-a-uuid"))
}

func TestAnyText(t *testing.T) {
	c := AnyText("(properties->>'municipality_code')", []string{"010101", " 010102 "}, 3)
	assert.Equal(t, "(properties->>'municipality_code') = ANY($3::text[])", c.SQL)
	assert.Equal(t, []any{[]string{"010101", "010102"}}, c.Args)

	c = AnyText("code", []string{" "}, 1)
	assert.Equal(t, AlwaysFalse, c.SQL)
	assert.Empty(t, c.Args)
}

func TestJSONText(t *testing.T) {
	expr, err := JSONText("properties", "municipality_code")
	require.NoError(t, err)
	assert.Equal(t, "(properties->>'municipality_code')", expr)

	_, err = JSONText("properties", "x' OR '1'='1")
	assert.ErrorIs(t, err, ErrInvalidIdentifier)
}
