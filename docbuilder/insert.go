package docbuilder

import (
	"fmt"

	"github.com/rowdoc/core/docvalue"
	"github.com/rowdoc/core/pathcompiler"
	"github.com/rowdoc/core/rowmapping"
	"github.com/rowdoc/core/rowsource"
)

// BuildInsertDocument walks every non-match mapping through its compiled
// steps, materializing a nested document tree for one row (spec.md §4.4).
// Returns (nil, nil) for an EmptyRow: every relevant cell was null.
func BuildInsertDocument(mappings []rowmapping.FieldMapping, view rowsource.RowView, row rowsource.Row, top pathcompiler.TopLevel) (*docvalue.Node, error) {
	root := newRoot(top)
	wrote := false

	for i := range mappings {
		m := &mappings[i]
		if m.IsMatchField {
			continue // match fields contribute only to the query document
		}
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

		if err := materialize(root, m.Steps(), m.IncomingName, m.AppendIncomingName, leaf); err != nil {
			return nil, &TypeConflictError{Path: m.DocPath, IncomingName: m.IncomingName, Err: err}
		}
		wrote = true
	}

	if !wrote {
		return nil, nil
	}
	return root, nil
}

// newRoot creates the empty root node implied by the classified top level.
func newRoot(top pathcompiler.TopLevel) *docvalue.Node {
	if top == pathcompiler.TopLevelArray {
		return docvalue.NewList()
	}
	return docvalue.NewObject()
}

// materialize walks cur through steps, creating object/list nodes as
// needed, and writes leaf at the terminal position (spec.md §4.4).
//
// The terminal step is special: when appendIncomingName is false, docPath
// already identifies the leaf and the last step's target IS the leaf.
// When appendIncomingName is true, the last step's target is a container
// (materialized as an object if missing) and the leaf is written one
// level further in, keyed by incomingName. The first mapping to create a
// node at a given prefix fixes its kind for the rest of the row: a later
// mapping whose steps disagree with an already-created node's kind fails
// with a type-conflict error.
func materialize(root *docvalue.Node, steps []pathcompiler.Step, incomingName string, appendIncomingName bool, leaf *docvalue.Node) error {
	if len(steps) == 0 {
		// Empty docPath; the compiler guarantees appendIncomingName=true
		// here (spec.md §4.1).
		if !root.IsObject() {
			return ErrFieldExistsButIsntARecord
		}
		root.Set(incomingName, leaf)
		return nil
	}

	cur := root
	for i, step := range steps {
		last := i == len(steps)-1

		switch step.Kind {
		case pathcompiler.StepObject:
			if !cur.IsObject() {
				return ErrFieldExistsButIsntARecord
			}
			if last {
				return writeTerminal(cur, step, incomingName, appendIncomingName, leaf)
			}
			child := cur.Get(step.Name)
			if child == nil {
				child = newChildFor(steps, i+1)
				cur.Set(step.Name, child)
			}
			cur = child

		case pathcompiler.StepIndex, pathcompiler.StepArrayOfArray:
			if !cur.IsList() {
				return ErrFieldExistsButIsntAnArray
			}
			if last {
				return writeTerminal(cur, step, incomingName, appendIncomingName, leaf)
			}
			child := cur.Grow(step.Index, func() *docvalue.Node { return newChildFor(steps, i+1) })
			cur = child

		case pathcompiler.StepAppend:
			// Only meaningful to the modifier builder's $push handling;
			// an insert/upsert document never contains an append marker.
			return fmt.Errorf("unexpected append marker in insert path")
		}
	}
	return nil
}

// writeTerminal performs the terminal write described in spec.md §4.4
// step 4, for either an object or list parent.
func writeTerminal(cur *docvalue.Node, step pathcompiler.Step, incomingName string, appendIncomingName bool, leaf *docvalue.Node) error {
	if !appendIncomingName {
		switch step.Kind {
		case pathcompiler.StepObject:
			cur.Set(step.Name, leaf)
		default:
			cur.SetAt(step.Index, leaf)
		}
		return nil
	}

	var container *docvalue.Node
	switch step.Kind {
	case pathcompiler.StepObject:
		container = cur.Get(step.Name)
		if container == nil {
			container = docvalue.NewObject()
			cur.Set(step.Name, container)
		}
	default:
		container = cur.Grow(step.Index, docvalue.NewObject)
	}
	if !container.IsObject() {
		return ErrFieldExistsButIsntARecord
	}
	container.Set(incomingName, leaf)
	return nil
}

// newChildFor decides whether the node created at steps[idx] should be an
// object or a list, based on the next step's kind (spec.md §4.4 step 2/3).
func newChildFor(steps []pathcompiler.Step, idx int) *docvalue.Node {
	if idx >= len(steps) {
		return docvalue.NewObject()
	}
	switch steps[idx].Kind {
	case pathcompiler.StepIndex, pathcompiler.StepArrayOfArray:
		return docvalue.NewList()
	default:
		return docvalue.NewObject()
	}
}

// coerceFromView reads the typed cell at colIdx from row and coerces it.
func coerceFromView(view rowsource.RowView, colIdx int, row rowsource.Row, valueIsJSONLiteral bool) (*docvalue.Node, bool, error) {
	t := view.TypeOf(colIdx)
	var raw interface{}
	switch t {
	case rowsource.CellString:
		raw = view.StringAt(colIdx, row)
	case rowsource.CellBool:
		raw = view.BoolAt(colIdx, row)
	case rowsource.CellInt64:
		raw = view.Int64At(colIdx, row)
	case rowsource.CellFloat64:
		raw = view.Float64At(colIdx, row)
	case rowsource.CellDate:
		raw = view.DateAt(colIdx, row)
	case rowsource.CellBytes:
		raw = view.BytesAt(colIdx, row)
	case rowsource.CellBigDecimal:
		raw = view.BigDecimalAt(colIdx, row)
	case rowsource.CellSerializable:
		return nil, false, ErrUnsupportedCellType
	default:
		return nil, false, fmt.Errorf("docbuilder: unrecognized cell type %d", t)
	}
	return CoerceCell(t, raw, valueIsJSONLiteral)
}
