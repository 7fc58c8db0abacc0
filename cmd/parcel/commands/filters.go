package commands

import (
	"fmt"
	"strings"

	"github.com/marshallshelly/parcel-orm/pkg/builder"
	"github.com/marshallshelly/parcel-orm/pkg/model"
)

// parseWhere turns key=value pairs into a filter. A value with commas is an
// IN list, "null" is IS NULL, and true/false compare as booleans.
func parseWhere(pairs []string) (builder.Where, error) {
	where := builder.Where{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid filter %q, expected key=value", pair)
		}
		where[key] = parseValue(value)
	}
	return where, nil
}

func parseValue(s string) any {
	switch s {
	case "null":
		return nil
	case "true":
		return true
	case "false":
		return false
	}
	if strings.Contains(s, ",") {
		return builder.InValues(strings.Split(s, ","))
	}
	return s
}

// parseWhereRelation groups relation.key=value pairs by relation name.
func parseWhereRelation(pairs []string) (map[string]builder.Where, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]builder.Where)
	for _, pair := range pairs {
		rel, rest, ok := strings.Cut(pair, ".")
		if !ok || rel == "" {
			return nil, fmt.Errorf("invalid relation filter %q, expected relation.key=value", pair)
		}
		where, err := parseWhere([]string{rest})
		if err != nil {
			return nil, err
		}
		if out[rel] == nil {
			out[rel] = builder.Where{}
		}
		for k, v := range where {
			out[rel][k] = v
		}
	}
	return out, nil
}

// parseIncludes accepts relation names and one level of nesting written as
// parent.child, e.g. "forms,forms.category".
func parseIncludes(names []string) []model.Include {
	var out []model.Include
	index := make(map[string]int)
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		parent, child, nested := strings.Cut(name, ".")
		i, ok := index[parent]
		if !ok {
			i = len(out)
			index[parent] = i
			out = append(out, model.Include{Relation: parent})
		}
		if nested && child != "" {
			out[i].Include = append(out[i].Include, model.Include{Relation: child})
		}
	}
	return out
}

// parseOrder reads field or field:desc entries.
func parseOrder(entries []string) builder.Order {
	var order builder.Order
	for _, entry := range entries {
		field, dir, _ := strings.Cut(entry, ":")
		if field = strings.TrimSpace(field); field == "" {
			continue
		}
		order = append(order, builder.OrderBy{Field: field, Direction: builder.OrderDirection(dir).Normalize()})
	}
	return order
}
