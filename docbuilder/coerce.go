package docbuilder

import (
	"encoding/json"
	"fmt"

	"github.com/rowdoc/core/docvalue"
	"github.com/rowdoc/core/rowsource"
)

// CoerceCell converts one raw cell value into a docvalue.Node leaf
// according to the cell's declared type (spec.md §4.5). The second return
// value reports whether anything was written: null cells are omitted, not
// written as an explicit null.
func CoerceCell(cellType rowsource.CellType, raw interface{}, valueIsJSONLiteral bool) (*docvalue.Node, bool, error) {
	if raw == nil {
		return nil, false, nil
	}

	switch cellType {
	case rowsource.CellString:
		s := raw.(string)
		if valueIsJSONLiteral {
			node, err := parseJSONLiteral(s)
			if err != nil {
				return nil, false, fmt.Errorf("docbuilder: parsing json literal: %w", err)
			}
			return node, true, nil
		}
		return docvalue.Leaf(docvalue.KindString, s), true, nil
	case rowsource.CellBool:
		return docvalue.Leaf(docvalue.KindBool, raw.(bool)), true, nil
	case rowsource.CellInt64:
		return docvalue.Leaf(docvalue.KindInt, raw.(int64)), true, nil
	case rowsource.CellFloat64:
		return docvalue.Leaf(docvalue.KindFloat, raw.(float64)), true, nil
	case rowsource.CellDate:
		return docvalue.Leaf(docvalue.KindDate, raw), true, nil
	case rowsource.CellBytes:
		return docvalue.Leaf(docvalue.KindBytes, raw.([]byte)), true, nil
	case rowsource.CellBigDecimal:
		// Caller must round-trip: stored as the value's String() form,
		// which for a *big.Rat is the fraction "a/b".
		return docvalue.Leaf(docvalue.KindBigDecimal, raw.(fmt.Stringer).String()), true, nil
	case rowsource.CellSerializable:
		return nil, false, ErrUnsupportedCellType
	default:
		return nil, false, fmt.Errorf("docbuilder: unrecognized cell type %d", cellType)
	}
}

// parseJSONLiteral parses a JSON document or array literal and converts it
// into a docvalue tree, used when a mapping's valueIsJsonLiteral flag is
// set.
func parseJSONLiteral(s string) (*docvalue.Node, error) {
	var raw interface{}
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil, err
	}
	return jsonToNode(raw), nil
}

func jsonToNode(v interface{}) *docvalue.Node {
	switch val := v.(type) {
	case map[string]interface{}:
		obj := docvalue.NewObject()
		for k, child := range val {
			obj.Set(k, jsonToNode(child))
		}
		return obj
	case []interface{}:
		list := docvalue.NewList()
		for _, child := range val {
			list.Append(jsonToNode(child))
		}
		return list
	case string:
		return docvalue.Leaf(docvalue.KindString, val)
	case bool:
		return docvalue.Leaf(docvalue.KindBool, val)
	case float64:
		return docvalue.Leaf(docvalue.KindFloat, val)
	case nil:
		return nil
	default:
		return docvalue.Leaf(docvalue.KindLiteral, val)
	}
}
