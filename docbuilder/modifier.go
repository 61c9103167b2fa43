package docbuilder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rowdoc/core/docvalue"
	"github.com/rowdoc/core/pathcompiler"
	"github.com/rowdoc/core/rowmapping"
	"github.com/rowdoc/core/rowsource"
)

// ExistenceProbe is the narrow collaborator contract the modifier
// builder's apply-policy preamble calls out to: a single bounded read
// used only to decide insert-vs-update (spec.md §4.3, §6).
type ExistenceProbe interface {
	FindOne(ctx context.Context, query *docvalue.Node) (bool, error)
}

// ModifierResult wraps the built update document together with any
// warnings the core wants surfaced rather than silently swallowed (the
// $push bracket-tail quirk, spec.md §9).
type ModifierResult struct {
	Document *docvalue.Node
	Warnings []string
}

// BuildModifierUpdate produces an update document keyed by modifier
// operators (spec.md §4.3), the hardest component of the core. Match
// fields never contribute to the result; they only ever feed
// BuildQueryDocument.
func BuildModifierUpdate(ctx context.Context, mappings []rowmapping.FieldMapping, view rowsource.RowView, row rowsource.Row, probe ExistenceProbe) (*ModifierResult, error) {
	isUpdate, err := resolveIsUpdate(ctx, mappings, view, row, probe)
	if err != nil {
		return nil, err
	}

	opDocs := map[rowmapping.ModifierOp]*docvalue.Node{}
	var opOrder []rowmapping.ModifierOp
	ensureOpDoc := func(op rowmapping.ModifierOp) *docvalue.Node {
		doc, ok := opDocs[op]
		if !ok {
			doc = docvalue.NewObject()
			opDocs[op] = doc
			opOrder = append(opOrder, op)
		}
		return doc
	}

	setLists := map[string]*docvalue.Node{} // arrayPath -> list, for the $set complex-array bucket
	pushObjects := map[string]*docvalue.Node{} // arrayPath -> object, for the $push complex-structure bucket

	var warnings []string
	survived := 0
	wrote := false

	for i := range mappings {
		m := &mappings[i]
		if m.IsMatchField {
			continue
		}
		if skipByPolicy(m.ModifierPolicy, isUpdate) {
			continue
		}
		survived++

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

		path, quirk := resolvePath(m)
		if quirk {
			warnings = append(warnings, fmt.Sprintf(
				"mapping %q: $push with appendIncomingName=true keeps a bracketed tail in %q instead of stripping it",
				m.IncomingName, path))
		}

		hasBracket := strings.Contains(path, "[")
		switch {
		case m.ModifierOp == rowmapping.OpSet && hasBracket:
			if err := applySetArrayBucket(ensureOpDoc(rowmapping.OpSet), setLists, path, m, leaf); err != nil {
				return nil, err
			}
		case m.ModifierOp == rowmapping.OpPush && hasBracket:
			if err := applyPushStructureBucket(ensureOpDoc(rowmapping.OpPush), pushObjects, path, m, leaf); err != nil {
				return nil, err
			}
		default:
			key := flattenBrackets(path)
			ensureOpDoc(m.ModifierOp).Set(key, leaf)
		}
		wrote = true
	}

	if survived == 0 {
		return nil, ErrNoFieldsToUpdateSpecified
	}
	if !wrote {
		return &ModifierResult{Warnings: warnings}, nil
	}

	result := docvalue.NewObject()
	for _, op := range opOrder {
		result.Set(string(op), opDocs[op])
	}
	return &ModifierResult{Document: result, Warnings: warnings}, nil
}

// resolveIsUpdate runs the apply-policy preamble (spec.md §4.3): only
// probes the store when at least one non-match mapping actually has an
// Insert- or Update-only policy.
func resolveIsUpdate(ctx context.Context, mappings []rowmapping.FieldMapping, view rowsource.RowView, row rowsource.Row, probe ExistenceProbe) (bool, error) {
	needsProbe := false
	for i := range mappings {
		m := &mappings[i]
		if m.IsMatchField {
			continue
		}
		if m.ModifierPolicy == rowmapping.PolicyInsertOnly || m.ModifierPolicy == rowmapping.PolicyUpdateOnly {
			needsProbe = true
			break
		}
	}
	if !needsProbe {
		return false, nil
	}

	query, err := BuildQueryDocument(mappings, view, row)
	if err != nil && !errors.Is(err, ErrNoMatchFields) {
		return false, err
	}
	if query == nil {
		return false, nil // no match criteria at all: treat as insert
	}
	if probe == nil {
		return false, fmt.Errorf("docbuilder: modifier policy requires an existence probe but none was provided")
	}
	found, err := probe.FindOne(ctx, query)
	if err != nil {
		return false, fmt.Errorf("docbuilder: existence probe: %w", err)
	}
	return found, nil
}

// skipByPolicy applies the per-mapping apply-policy skip rules.
func skipByPolicy(policy rowmapping.ModifierPolicy, isUpdate bool) bool {
	switch policy {
	case rowmapping.PolicyInsertOnly:
		return isUpdate
	case rowmapping.PolicyUpdateOnly:
		return !isUpdate
	default: // Insert&Update, or unset
		return false
	}
}

// applySetArrayBucket handles the complex-array $set bucket: many
// mappings sharing an array path are grouped and the list value is built
// once (spec.md §4.3 bucket table).
func applySetArrayBucket(setDoc *docvalue.Node, lists map[string]*docvalue.Node, path string, m *rowmapping.FieldMapping, leaf *docvalue.Node) error {
	arrayPath, index, hasIndex, residual, ok := splitBracketGroup(path)
	if !ok {
		return fmt.Errorf("docbuilder: malformed bracket path %q", path)
	}
	if !hasIndex {
		return fmt.Errorf("docbuilder: $set array path %q requires an explicit index", path)
	}

	list, exists := lists[arrayPath]
	if !exists {
		list = docvalue.NewList()
		lists[arrayPath] = list
		setDoc.Set(arrayPath, list)
	}

	if residual == "" {
		list.SetAt(index, leaf)
		return nil
	}

	elem := list.Grow(index, docvalue.NewObject)
	if !elem.IsObject() {
		return &TypeConflictError{Path: path, IncomingName: m.IncomingName, Err: ErrFieldExistsButIsntARecord}
	}
	steps, err := pathcompiler.Compile(residual, false)
	if err != nil {
		return fmt.Errorf("docbuilder: compiling residual path %q: %w", residual, err)
	}
	if err := materialize(elem, steps, "", false, leaf); err != nil {
		return &TypeConflictError{Path: path, IncomingName: m.IncomingName, Err: err}
	}
	return nil
}

// applyPushStructureBucket handles the complex-structure $push bucket:
// the object (or array) to append is built once per array path from the
// sub-path after the first "]" (spec.md §4.3 bucket table).
func applyPushStructureBucket(pushDoc *docvalue.Node, objects map[string]*docvalue.Node, path string, m *rowmapping.FieldMapping, leaf *docvalue.Node) error {
	arrayPath, _, _, residual, ok := splitBracketGroup(path)
	if !ok {
		return fmt.Errorf("docbuilder: malformed bracket path %q", path)
	}

	if residual == "" {
		pushDoc.Set(arrayPath, leaf)
		delete(objects, arrayPath)
		return nil
	}

	steps, err := pathcompiler.Compile(residual, false)
	if err != nil {
		return fmt.Errorf("docbuilder: compiling residual path %q: %w", residual, err)
	}
	obj, exists := objects[arrayPath]
	if !exists {
		// A residual that starts with an index builds an array payload.
		obj = newChildFor(steps, 0)
		objects[arrayPath] = obj
		pushDoc.Set(arrayPath, obj)
	}
	if err := materialize(obj, steps, "", false, leaf); err != nil {
		return &TypeConflictError{Path: path, IncomingName: m.IncomingName, Err: err}
	}
	return nil
}
