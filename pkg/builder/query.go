package builder

import (
	"fmt"
	"strings"
)

// OrderDirection represents the sort direction.
type OrderDirection string

const (
	// Asc represents ascending order.
	Asc OrderDirection = "ASC"
	// Desc represents descending order.
	Desc OrderDirection = "DESC"
)

// OrderBy sorts by one column. An empty Direction leaves the column out.
type OrderBy struct {
	Field     string
	Direction OrderDirection
}

// Order lists sort columns; earlier entries take precedence.
type Order []OrderBy

// Ascending creates an ascending sort entry.
func Ascending(field string) OrderBy {
	return OrderBy{Field: field, Direction: Asc}
}

// Descending creates a descending sort entry.
func Descending(field string) OrderBy {
	return OrderBy{Field: field, Direction: Desc}
}

// Normalize maps any spelling of "desc" to DESC and everything else to ASC.
func (d OrderDirection) Normalize() OrderDirection {
	if strings.EqualFold(strings.TrimSpace(string(d)), string(Desc)) {
		return Desc
	}
	return Asc
}

// BuildOrder renders an ORDER BY suffix, or "" when no entry has a direction.
func BuildOrder(order Order) (string, error) {
	parts := make([]string, 0, len(order))
	for _, o := range order {
		if o.Direction == "" {
			continue
		}
		if err := CheckIdentifier(o.Field); err != nil {
			return "", err
		}
		parts = append(parts, o.Field+" "+string(o.Direction.Normalize()))
	}
	if len(parts) == 0 {
		return "", nil
	}
	return " ORDER BY " + strings.Join(parts, ", "), nil
}

// BuildPage renders LIMIT/OFFSET suffixes for positive values.
func BuildPage(limit, offset int) string {
	var sb strings.Builder
	if limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", limit)
	}
	if offset > 0 {
		fmt.Fprintf(&sb, " OFFSET %d", offset)
	}
	return sb.String()
}
