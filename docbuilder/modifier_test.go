package docbuilder

import (
	"context"
	"errors"
	"testing"

	"github.com/rowdoc/core/docvalue"
	"github.com/rowdoc/core/rowmapping"
	"github.com/rowdoc/core/rowsource"
)

type fakeProbe struct {
	found bool
	err   error
}

func (p *fakeProbe) FindOne(ctx context.Context, query *docvalue.Node) (bool, error) {
	return p.found, p.err
}

func TestBuildModifierUpdatePrimitiveLeaf(t *testing.T) {
	columns := []rowsource.ColumnSpec{{Name: "status", Type: rowsource.CellString}}
	view := newTestView(columns)
	mappings := mustCompile(t, []rowmapping.FieldMapping{
		{IncomingName: "status", DocPath: "status", ModifierOp: rowmapping.OpSet, ModifierPolicy: rowmapping.PolicyInsertAndUpdate},
	})

	result, err := BuildModifierUpdate(context.Background(), mappings, view, rowsource.Row{"shipped"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	set := result.Document.Get("$set")
	if set == nil || set.Get("status").Scalar != "shipped" {
		t.Fatalf("unexpected $set bucket: %+v", set)
	}
}

func TestBuildModifierUpdateComplexArraySet(t *testing.T) {
	columns := []rowsource.ColumnSpec{
		{Name: "field1", Type: rowsource.CellString},
		{Name: "field2", Type: rowsource.CellString},
	}
	view := newTestView(columns)
	mappings := mustCompile(t, []rowmapping.FieldMapping{
		{IncomingName: "field1", DocPath: "bob.fred[0].george", AppendIncomingName: true, ModifierOp: rowmapping.OpSet},
		{IncomingName: "field2", DocPath: "bob.fred[0].george", AppendIncomingName: true, ModifierOp: rowmapping.OpSet},
	})

	row := rowsource.Row{"v1", "v2"}
	result, err := BuildModifierUpdate(context.Background(), mappings, view, row, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	set := result.Document.Get("$set")
	list := set.Get("bob.fred")
	if list == nil || !list.IsList() || list.Len() != 1 {
		t.Fatalf("expected a one-element list at $set[\"bob.fred\"], got %+v", list)
	}
	george := list.At(0).Get("george")
	if george.Get("field1").Scalar != "v1" || george.Get("field2").Scalar != "v2" {
		t.Fatalf("unexpected george contents: %+v", george)
	}
}

func TestBuildModifierUpdateComplexStructurePush(t *testing.T) {
	columns := []rowsource.ColumnSpec{
		{Name: "field1", Type: rowsource.CellString},
		{Name: "field2", Type: rowsource.CellString},
	}
	view := newTestView(columns)
	mappings := mustCompile(t, []rowmapping.FieldMapping{
		{IncomingName: "field1", DocPath: "events[].name", ModifierOp: rowmapping.OpPush},
		{IncomingName: "field2", DocPath: "events[].level", ModifierOp: rowmapping.OpPush},
	})

	row := rowsource.Row{"login", "info"}
	result, err := BuildModifierUpdate(context.Background(), mappings, view, row, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	push := result.Document.Get("$push")
	events := push.Get("events")
	if events == nil || !events.IsObject() {
		t.Fatalf("expected an object to push onto events, got %+v", events)
	}
	if events.Get("name").Scalar != "login" || events.Get("level").Scalar != "info" {
		t.Fatalf("unexpected push payload: %+v", events)
	}
}

func TestBuildModifierUpdateNoFieldsToUpdate(t *testing.T) {
	columns := []rowsource.ColumnSpec{{Name: "status", Type: rowsource.CellString}}
	view := newTestView(columns)
	mappings := mustCompile(t, []rowmapping.FieldMapping{
		{IncomingName: "status", DocPath: "status", ModifierOp: rowmapping.OpSet, ModifierPolicy: rowmapping.PolicyUpdateOnly, IsMatchField: false},
	})

	probe := &fakeProbe{found: false} // not an update -> PolicyUpdateOnly mapping is skipped
	_, err := BuildModifierUpdate(context.Background(), mappings, view, rowsource.Row{"shipped"}, probe)
	if !errors.Is(err, ErrNoFieldsToUpdateSpecified) {
		t.Fatalf("expected ErrNoFieldsToUpdateSpecified, got %v", err)
	}
}

func TestBuildModifierUpdateAllNullIsDropped(t *testing.T) {
	columns := []rowsource.ColumnSpec{{Name: "status", Type: rowsource.CellString}}
	view := newTestView(columns)
	mappings := mustCompile(t, []rowmapping.FieldMapping{
		{IncomingName: "status", DocPath: "status", ModifierOp: rowmapping.OpSet},
	})

	result, err := BuildModifierUpdate(context.Background(), mappings, view, rowsource.Row{nil}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Document != nil {
		t.Fatalf("expected a nil document when every surviving cell is null, got %+v", result.Document)
	}
}

func TestBuildModifierUpdatePolicySkipsInsertOnlyOnUpdate(t *testing.T) {
	columns := []rowsource.ColumnSpec{
		{Name: "createdBy", Type: rowsource.CellString},
		{Name: "matchKey", Type: rowsource.CellInt64},
	}
	view := newTestView(columns)
	mappings := mustCompile(t, []rowmapping.FieldMapping{
		{IncomingName: "matchKey", DocPath: "key", IsMatchField: true},
		{IncomingName: "createdBy", DocPath: "createdBy", ModifierOp: rowmapping.OpSet, ModifierPolicy: rowmapping.PolicyInsertOnly},
	})

	probe := &fakeProbe{found: true} // the document already exists: this is an update
	_, err := BuildModifierUpdate(context.Background(), mappings, view, rowsource.Row{"alice", int64(1)}, probe)
	if !errors.Is(err, ErrNoFieldsToUpdateSpecified) {
		t.Fatalf("expected the insert-only mapping to be skipped on an update, got %v", err)
	}
}

func TestBuildModifierUpdatePushBracketQuirkWarns(t *testing.T) {
	columns := []rowsource.ColumnSpec{{Name: "field1", Type: rowsource.CellString}}
	view := newTestView(columns)
	mappings := mustCompile(t, []rowmapping.FieldMapping{
		{IncomingName: "field1", DocPath: "events[0]", AppendIncomingName: true, ModifierOp: rowmapping.OpPush},
	})

	result, err := BuildModifierUpdate(context.Background(), mappings, view, rowsource.Row{"login"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("expected one warning for the retained bracket, got %v", result.Warnings)
	}
}
