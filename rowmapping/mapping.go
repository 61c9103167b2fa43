// Package rowmapping defines the field-mapping schema: the declarative
// binding between a source tuple column and a target document path,
// compiled once per stream before any row is processed.
package rowmapping

import (
	"fmt"

	"github.com/rowdoc/core/pathcompiler"
)

// ModifierOp names a MongoDB update operator, or OpNone when the mapping
// is only ever used by the insert/query builders.
type ModifierOp string

const (
	OpNone   ModifierOp = "N/A"
	OpSet    ModifierOp = "$set"
	OpPush   ModifierOp = "$push"
	OpInc    ModifierOp = "$inc"
	OpAddSet ModifierOp = "$addToSet"
	OpUnset  ModifierOp = "$unset"
	OpMax    ModifierOp = "$max"
	OpMin    ModifierOp = "$min"
)

// ModifierPolicy declares whether a mapping applies on insert, update, or
// both halves of an upsert.
type ModifierPolicy string

const (
	PolicyInsertAndUpdate ModifierPolicy = "Insert&Update"
	PolicyInsertOnly      ModifierPolicy = "Insert"
	PolicyUpdateOnly      ModifierPolicy = "Update"
)

// FieldMapping binds one source tuple column to a target document path.
// Compile must be called (directly, or via CompileAll) before the mapping
// is handed to a builder; Steps() panics if Compile has not run.
type FieldMapping struct {
	IncomingName       string         `yaml:"incomingName"`
	DocPath            string         `yaml:"docPath"`
	AppendIncomingName bool           `yaml:"appendIncomingName"`
	ValueIsJSONLiteral bool           `yaml:"valueIsJsonLiteral"`
	IsMatchField       bool           `yaml:"isMatchField"`
	ModifierOp         ModifierOp     `yaml:"modifierOp"`
	ModifierPolicy     ModifierPolicy `yaml:"modifierPolicy"`

	steps    []pathcompiler.Step
	compiled bool
}

// Compile parses DocPath into the mapping's navigation steps. Variable
// interpolation, if any, must already have been applied to DocPath before
// Compile runs — the compiler itself is pure and never sees the row or the
// interpolator.
func (m *FieldMapping) Compile() error {
	steps, err := pathcompiler.Compile(m.DocPath, m.AppendIncomingName)
	if err != nil {
		return fmt.Errorf("compiling mapping for incoming field %q: %w", m.IncomingName, err)
	}
	m.steps = steps
	m.compiled = true
	return nil
}

// Steps returns the mapping's compiled navigation steps. Panics if Compile
// has not been called — this is a programmer error, not a row-time one.
func (m *FieldMapping) Steps() []pathcompiler.Step {
	if !m.compiled {
		panic(fmt.Sprintf("rowmapping: mapping for %q used before Compile", m.IncomingName))
	}
	return m.steps
}

// CompileAll compiles every mapping in place, stopping at the first error.
func CompileAll(mappings []FieldMapping) error {
	for i := range mappings {
		if err := mappings[i].Compile(); err != nil {
			return err
		}
	}
	return nil
}

// AsCompiledMappings adapts a slice of FieldMapping to
// []pathcompiler.CompiledMapping for ClassifyTopLevel.
func AsCompiledMappings(mappings []FieldMapping) []pathcompiler.CompiledMapping {
	out := make([]pathcompiler.CompiledMapping, len(mappings))
	for i := range mappings {
		out[i] = &mappings[i]
	}
	return out
}

// Interpolator expands environment/session variables embedded in a string,
// e.g. an incomingName of "${env.COLUMN}". Passed explicitly to
// Schema.Interpolate and Schema.Compile rather than reached for as a
// package global; the document builders never see it.
type Interpolator interface {
	Interpolate(s string) (string, error)
}

// NoopInterpolator returns its input unchanged; useful for schemas that
// never reference variables and for tests.
type NoopInterpolator struct{}

func (NoopInterpolator) Interpolate(s string) (string, error) { return s, nil }
