package docbuilder

import (
	"fmt"

	"github.com/rowdoc/core/docvalue"
	"github.com/rowdoc/core/rowmapping"
	"github.com/rowdoc/core/rowsource"
)

// BuildQueryDocument produces the match document from the subset of
// mappings flagged as match fields (spec.md §4.6). Returns
// ErrNoMatchFields if no mapping is a match field, or (nil, nil) if every
// match cell is null — the caller drops the row.
func BuildQueryDocument(mappings []rowmapping.FieldMapping, view rowsource.RowView, row rowsource.Row) (*docvalue.Node, error) {
	hasMatchField := false
	flat := map[string]*docvalue.Node{}
	var order []string

	for i := range mappings {
		m := &mappings[i]
		if !m.IsMatchField {
			continue
		}
		hasMatchField = true

		colIdx, ok := view.IndexOf(m.IncomingName)
		if !ok {
			return nil, fmt.Errorf("docbuilder: unknown incoming column %q", m.IncomingName)
		}
		if view.IsNull(colIdx, row) {
			continue
		}

		leaf, written, err := coerceFromView(view, colIdx, row, m.ValueIsJSONLiteral)
		if err != nil {
			return nil, err
		}
		if !written {
			continue
		}

		path, _ := resolvePath(m)
		key := flattenBrackets(path)
		if _, exists := flat[key]; !exists {
			order = append(order, key)
		}
		flat[key] = leaf
	}

	if !hasMatchField {
		return nil, ErrNoMatchFields
	}
	if len(order) == 0 {
		return nil, nil
	}

	doc := docvalue.NewObject()
	for _, key := range order {
		doc.Set(key, flat[key])
	}
	return doc, nil
}
