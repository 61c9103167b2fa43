package rowmapping

import (
	"fmt"

	"github.com/goccy/go-yaml"

	"github.com/rowdoc/core/pathcompiler"
)

// Schema is the on-disk shape of a field-mapping file: a flat list of
// mappings describing one target collection.
type Schema struct {
	Collection string         `yaml:"collection"`
	Mappings   []FieldMapping `yaml:"mappings"`

	// TopLevel is populated by Compile; zero (TopLevelUnknown) until then.
	TopLevel pathcompiler.TopLevel
}

// LoadSchema parses a YAML-encoded field-mapping schema. Variable
// interpolation of IncomingName/DocPath (if the schema uses any) is the
// caller's responsibility, applied before CompileAll; LoadSchema only
// parses and does not compile.
func LoadSchema(data []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("rowmapping: parsing schema: %w", err)
	}
	if len(s.Mappings) == 0 {
		return nil, fmt.Errorf("rowmapping: schema for collection %q defines no mappings", s.Collection)
	}
	for i := range s.Mappings {
		if s.Mappings[i].ModifierOp == "" {
			s.Mappings[i].ModifierOp = OpNone
		}
		if s.Mappings[i].ModifierPolicy == "" {
			s.Mappings[i].ModifierPolicy = PolicyInsertAndUpdate
		}
	}
	return &s, nil
}

// Interpolate applies interp to every mapping's IncomingName and DocPath,
// in place, before the schema is compiled. Interpolation happens before
// parsing, per the path compiler's contract of never seeing raw variable
// syntax.
func (s *Schema) Interpolate(interp Interpolator) error {
	for i := range s.Mappings {
		m := &s.Mappings[i]
		name, err := interp.Interpolate(m.IncomingName)
		if err != nil {
			return fmt.Errorf("rowmapping: interpolating incomingName %q: %w", m.IncomingName, err)
		}
		m.IncomingName = name

		path, err := interp.Interpolate(m.DocPath)
		if err != nil {
			return fmt.Errorf("rowmapping: interpolating docPath %q: %w", m.DocPath, err)
		}
		m.DocPath = path
	}
	return nil
}

// Compile interpolates (if interp is non-nil) and compiles every mapping,
// then classifies the resulting top-level shape, storing it in TopLevel.
func (s *Schema) Compile(interp Interpolator) error {
	if interp != nil {
		if err := s.Interpolate(interp); err != nil {
			return err
		}
	}
	if err := CompileAll(s.Mappings); err != nil {
		return err
	}
	top, err := pathcompiler.ClassifyTopLevel(AsCompiledMappings(s.Mappings))
	if err != nil {
		return err
	}
	s.TopLevel = top
	return nil
}
