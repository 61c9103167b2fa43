package rowmapping

import (
	"errors"
	"testing"

	"github.com/rowdoc/core/pathcompiler"
)

func TestCompileAndSteps(t *testing.T) {
	m := FieldMapping{IncomingName: "field1", DocPath: "a.b"}
	if err := m.Compile(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	steps := m.Steps()
	if len(steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(steps))
	}
}

func TestStepsPanicsBeforeCompile(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic calling Steps before Compile")
		}
	}()
	m := FieldMapping{IncomingName: "field1", DocPath: "a.b"}
	m.Steps()
}

func TestCompileAllStopsAtFirstError(t *testing.T) {
	mappings := []FieldMapping{
		{IncomingName: "ok", DocPath: "a.b"},
		{IncomingName: "bad", DocPath: "a[x]"},
		{IncomingName: "never", DocPath: "c.d"},
	}
	err := CompileAll(mappings)
	var pathErr *pathcompiler.PathError
	if !errors.As(err, &pathErr) {
		t.Fatalf("expected a *pathcompiler.PathError, got %v", err)
	}
}

func TestAsCompiledMappingsClassifies(t *testing.T) {
	mappings := []FieldMapping{
		{IncomingName: "field1", DocPath: "a.b"},
		{IncomingName: "field2", DocPath: "", AppendIncomingName: true},
	}
	if err := CompileAll(mappings); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	top, err := pathcompiler.ClassifyTopLevel(AsCompiledMappings(mappings))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if top != pathcompiler.TopLevelRecord {
		t.Fatalf("expected TopLevelRecord, got %v", top)
	}
}

type upperInterpolator struct{}

func (upperInterpolator) Interpolate(s string) (string, error) { return s + "_X", nil }

func TestSchemaInterpolateAppliesToEveryMapping(t *testing.T) {
	s := &Schema{
		Collection: "widgets",
		Mappings: []FieldMapping{
			{IncomingName: "f1", DocPath: "a"},
		},
	}
	if err := s.Interpolate(upperInterpolator{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Mappings[0].IncomingName != "f1_X" || s.Mappings[0].DocPath != "a_X" {
		t.Fatalf("interpolation did not apply: %+v", s.Mappings[0])
	}
}

func TestLoadSchemaDefaultsModifierFields(t *testing.T) {
	data := []byte(`
collection: widgets
mappings:
  - incomingName: field1
    docPath: a.b
`)
	s, err := LoadSchema(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Mappings[0].ModifierOp != OpNone {
		t.Fatalf("expected default ModifierOp N/A, got %q", s.Mappings[0].ModifierOp)
	}
	if s.Mappings[0].ModifierPolicy != PolicyInsertAndUpdate {
		t.Fatalf("expected default policy Insert&Update, got %q", s.Mappings[0].ModifierPolicy)
	}
}

func TestLoadSchemaRejectsEmptyMappings(t *testing.T) {
	_, err := LoadSchema([]byte(`collection: widgets`))
	if err == nil {
		t.Fatal("expected an error for a schema with no mappings")
	}
}

func TestSchemaCompileSetsTopLevel(t *testing.T) {
	s := &Schema{
		Collection: "widgets",
		Mappings: []FieldMapping{
			{IncomingName: "field1", DocPath: "a.b"},
		},
	}
	if err := s.Compile(NoopInterpolator{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.TopLevel != pathcompiler.TopLevelRecord {
		t.Fatalf("expected TopLevelRecord, got %v", s.TopLevel)
	}
}
