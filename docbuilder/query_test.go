package docbuilder

import (
	"errors"
	"testing"

	"github.com/rowdoc/core/rowmapping"
	"github.com/rowdoc/core/rowsource"
)

func TestBuildQueryDocumentFlattensMatchFields(t *testing.T) {
	columns := []rowsource.ColumnSpec{
		{Name: "orderId", Type: rowsource.CellInt64},
		{Name: "lineIdx", Type: rowsource.CellInt64},
	}
	view := newTestView(columns)
	mappings := mustCompile(t, []rowmapping.FieldMapping{
		{IncomingName: "orderId", DocPath: "order.id", IsMatchField: true},
		{IncomingName: "lineIdx", DocPath: "lines[0].idx", IsMatchField: true},
	})

	row := rowsource.Row{int64(7), int64(2)}
	doc, err := BuildQueryDocument(mappings, view, row)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Get("order.id").Scalar != int64(7) {
		t.Fatalf("expected order.id=7, got %+v", doc.Get("order.id"))
	}
	if doc.Get("lines.0.idx").Scalar != int64(2) {
		t.Fatalf("expected lines.0.idx=2, got %+v", doc.Get("lines.0.idx"))
	}
}

func TestBuildQueryDocumentNoMatchFields(t *testing.T) {
	columns := []rowsource.ColumnSpec{{Name: "a", Type: rowsource.CellString}}
	view := newTestView(columns)
	mappings := mustCompile(t, []rowmapping.FieldMapping{
		{IncomingName: "a", DocPath: "a"},
	})

	_, err := BuildQueryDocument(mappings, view, rowsource.Row{"x"})
	if !errors.Is(err, ErrNoMatchFields) {
		t.Fatalf("expected ErrNoMatchFields, got %v", err)
	}
}

func TestBuildQueryDocumentAllMatchCellsNull(t *testing.T) {
	columns := []rowsource.ColumnSpec{{Name: "a", Type: rowsource.CellString}}
	view := newTestView(columns)
	mappings := mustCompile(t, []rowmapping.FieldMapping{
		{IncomingName: "a", DocPath: "a", IsMatchField: true},
	})

	doc, err := BuildQueryDocument(mappings, view, rowsource.Row{nil})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc != nil {
		t.Fatalf("expected nil document when every match cell is null, got %+v", doc)
	}
}
