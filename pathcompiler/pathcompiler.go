// Package pathcompiler parses the dot-notation path dialect used by field
// mappings — object navigation mixed with array indexing — into an ordered
// list of navigation steps, and classifies the root shape implied by a
// mapping set.
package pathcompiler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Sentinel compile errors, matched with errors.Is.
var (
	ErrUnbalancedBrackets   = errors.New("pathcompiler: unbalanced brackets")
	ErrNonIntegerIndex      = errors.New("pathcompiler: non-integer array index")
	ErrEmptySegment         = errors.New("pathcompiler: empty path segment")
	ErrMissingLeafName      = errors.New("pathcompiler: path is empty and appendIncomingName is false")
	ErrInconsistentTopLevel = errors.New("pathcompiler: mappings disagree on root document shape")
)

// StepKind tags the kind of navigation a Step performs.
type StepKind int

const (
	// StepObject descends into a named field of an object node.
	StepObject StepKind = iota
	// StepIndex descends into a list node at a fixed position.
	StepIndex
	// StepArrayOfArray descends into a list node that is itself an
	// element of an enclosing list (adjacent bracket groups, a[0][2]).
	StepArrayOfArray
	// StepAppend marks "append to end of array" (a trailing bare "[]",
	// meaningful only to the $push modifier builder).
	StepAppend
)

// Step is one navigation instruction compiled from a dot-notation path.
type Step struct {
	Kind  StepKind
	Name  string // valid when Kind == StepObject
	Index int    // valid when Kind == StepIndex or StepArrayOfArray
}

// PathError wraps a compile failure with the offending path for context.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("pathcompiler: path %q: %v", e.Path, e.Err)
}

func (e *PathError) Unwrap() error { return e.Err }

// Compile parses docPath into an ordered list of Steps.
//
// Grammar: path := segment ('.' segment)* ; segment := name | name'['int']' | '['int']'
// Adjacent bracket groups (a[0][2]) express multi-dimensional arrays. A
// trailing bare "[]" denotes append-to-end and is only meaningful to the
// $push modifier builder; it compiles to a single StepAppend.
//
// An empty docPath with appendIncomingName=true compiles to an empty step
// list (leaf at root under the incoming name).
func Compile(docPath string, appendIncomingName bool) ([]Step, error) {
	if docPath == "" {
		if !appendIncomingName {
			return nil, &PathError{Path: docPath, Err: ErrMissingLeafName}
		}
		return nil, nil
	}

	var steps []Step
	for _, segment := range strings.Split(docPath, ".") {
		if segment == "" {
			return nil, &PathError{Path: docPath, Err: ErrEmptySegment}
		}
		segSteps, err := compileSegment(segment)
		if err != nil {
			return nil, &PathError{Path: docPath, Err: err}
		}
		steps = append(steps, segSteps...)
	}
	return steps, nil
}

// compileSegment parses one dot-separated segment, e.g. "name", "name[0]",
// "name[0][2]", "[0]", or a trailing "[]".
func compileSegment(segment string) ([]Step, error) {
	var steps []Step

	name, brackets, err := splitNameAndBrackets(segment)
	if err != nil {
		return nil, err
	}
	if name != "" {
		steps = append(steps, Step{Kind: StepObject, Name: name})
	}

	for i, b := range brackets {
		if b == "" {
			// A bare trailing "[]" denotes append-to-end.
			if i != len(brackets)-1 {
				return nil, ErrEmptySegment
			}
			steps = append(steps, Step{Kind: StepAppend})
			continue
		}
		idx, err := strconv.Atoi(b)
		if err != nil {
			return nil, ErrNonIntegerIndex
		}
		// A segment's first bracket group indexes straight into the
		// node created for its name; any further adjacent bracket
		// group expresses a nested array dimension (a[0][2]).
		kind := StepIndex
		if i > 0 {
			kind = StepArrayOfArray
		}
		steps = append(steps, Step{Kind: kind, Index: idx})
	}

	if name == "" && len(brackets) == 0 {
		return nil, ErrEmptySegment
	}

	return steps, nil
}

// splitNameAndBrackets splits a segment like "name[0][2]" into its leading
// name (possibly empty, for a bare "[0]" segment) and the ordered list of
// bracket contents (possibly empty strings, for a trailing "[]").
func splitNameAndBrackets(segment string) (name string, brackets []string, err error) {
	i := strings.IndexByte(segment, '[')
	if i == -1 {
		if strings.ContainsAny(segment, "]") {
			return "", nil, ErrUnbalancedBrackets
		}
		return segment, nil, nil
	}
	name = segment[:i]
	rest := segment[i:]

	for len(rest) > 0 {
		if rest[0] != '[' {
			return "", nil, ErrUnbalancedBrackets
		}
		closeIdx := strings.IndexByte(rest, ']')
		if closeIdx == -1 {
			return "", nil, ErrUnbalancedBrackets
		}
		brackets = append(brackets, rest[1:closeIdx])
		rest = rest[closeIdx+1:]
	}
	return name, brackets, nil
}
