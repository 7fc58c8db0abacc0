// Package builder turns structured filters into parameterized PostgreSQL fragments.
package builder

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// ErrInvalidIdentifier is returned when a table or column name is not a plain SQL identifier.
var ErrInvalidIdentifier = errors.New("invalid identifier")

// AlwaysFalse is the predicate emitted for an empty IN list.
const AlwaysFalse = "1 = 0"

var (
	identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)
	uuidPattern       = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
)

// Where maps column names to the value they must equal, or to an In list.
// Entries are combined with AND.
type Where map[string]any

// In matches a column against any of the listed values.
type In []any

// InValues converts a typed slice into an In list.
func InValues[T any](values []T) In {
	in := make(In, len(values))
	for i, v := range values {
		in[i] = v
	}
	return in
}

// Clause is a SQL fragment together with the positional values it binds.
type Clause struct {
	SQL  string
	Args []any
}

// Empty reports whether the clause carries no predicate.
func (c Clause) Empty() bool {
	return c.SQL == ""
}

// Next returns the placeholder number that follows the clause, given the one it started at.
func (c Clause) Next(paramStart int) int {
	return paramStart + len(c.Args)
}

// WhereSQL renders the clause as a WHERE suffix, or "" when empty.
func (c Clause) WhereSQL() string {
	if c.Empty() {
		return ""
	}
	return " WHERE " + c.SQL
}

// And joins non-empty clauses with AND. The clauses must already be numbered
// consecutively.
func And(clauses ...Clause) Clause {
	var parts []string
	var args []any
	for _, c := range clauses {
		if c.Empty() {
			continue
		}
		parts = append(parts, c.SQL)
		args = append(args, c.Args...)
	}
	return Clause{SQL: strings.Join(parts, " AND "), Args: args}
}

// CheckIdentifier validates a table or column name before it is written into SQL text.
func CheckIdentifier(name string) error {
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
	}
	return nil
}

// BuildWhere renders where as an AND-joined predicate whose placeholders start at
// paramStart. Fields are emitted in lexical order so the same filter always
// produces the same statement. primaryKey selects uuid[] typing for IN lists on
// the key column.
func BuildWhere(where Where, paramStart int, primaryKey string) (Clause, error) {
	if len(where) == 0 {
		return Clause{}, nil
	}

	fields := make([]string, 0, len(where))
	for field := range where {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	var args []any
	paramNum := paramStart

	for _, field := range fields {
		if err := CheckIdentifier(field); err != nil {
			return Clause{}, err
		}

		switch value := where[field].(type) {
		case In:
			c := Any(field, value, paramNum, primaryKey)
			parts = append(parts, c.SQL)
			args = append(args, c.Args...)
			paramNum = c.Next(paramNum)
		case nil:
			parts = append(parts, field+" IS NULL")
		case bool:
			parts = append(parts, fmt.Sprintf("%s = $%d::boolean", field, paramNum))
			args = append(args, value)
			paramNum++
		default:
			parts = append(parts, fmt.Sprintf("%s = $%d", field, paramNum))
			args = append(args, value)
			paramNum++
		}
	}

	return Clause{SQL: strings.Join(parts, " AND "), Args: args}, nil
}

// Any renders `expr = ANY($n::type[])` for the cleaned values, or the
// always-false predicate when nothing survives cleaning. expr is trusted.
func Any(expr string, values In, paramNum int, primaryKey string) Clause {
	cleaned := CleanValues(values)
	if len(cleaned) == 0 {
		return Clause{SQL: AlwaysFalse}
	}
	return Clause{
		SQL:  fmt.Sprintf("%s = ANY($%d::%s)", expr, paramNum, ArrayType(expr, primaryKey, cleaned)),
		Args: []any{cleaned},
	}
}

// AnyText is Any with the array always typed text[].
func AnyText(expr string, values []string, paramNum int) Clause {
	cleaned := CleanValues(InValues(values))
	if len(cleaned) == 0 {
		return Clause{SQL: AlwaysFalse}
	}
	return Clause{
		SQL:  fmt.Sprintf("%s = ANY($%d::text[])", expr, paramNum),
		Args: []any{cleaned},
	}
}

// CleanValues trims every value and drops nulls and blanks.
func CleanValues(values In) []string {
	cleaned := make([]string, 0, len(values))
	for _, v := range values {
		if v == nil {
			continue
		}
		var s string
		switch x := v.(type) {
		case string:
			s = x
		case *string:
			if x == nil {
				continue
			}
			s = *x
		default:
			s = fmt.Sprint(x)
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		cleaned = append(cleaned, s)
	}
	return cleaned
}

// ArrayType picks the element type PostgreSQL needs to resolve ANY() over a text-encoded array.
func ArrayType(field, primaryKey string, values []string) string {
	if field == primaryKey || allUUIDs(values) {
		return "uuid[]"
	}
	return "text[]"
}

// IsUUID reports whether s is a canonical textual UUID.
func IsUUID(s string) bool {
	return uuidPattern.MatchString(s)
}

func allUUIDs(values []string) bool {
	if len(values) == 0 {
		return false
	}
	for _, v := range values {
		if !IsUUID(v) {
			return false
		}
	}
	return true
}

// JSONText renders `column->>'key'` after validating both parts.
func JSONText(column, key string) (string, error) {
	if err := CheckIdentifier(column); err != nil {
		return "", err
	}
	if err := CheckIdentifier(key); err != nil {
		return "", err
	}
	return fmt.Sprintf("(%s->>'%s')", column, key), nil
}
