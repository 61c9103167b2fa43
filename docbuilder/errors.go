package docbuilder

import "errors"

// Sentinel errors for the row-build phase (spec.md §7). Compile-time
// errors belong to pathcompiler; these are raised while walking a single
// row through an already-compiled schema.
var (
	// ErrFieldExistsButIsntARecord is raised when a path prefix
	// previously resolved to a list or scalar is revisited as an object.
	ErrFieldExistsButIsntARecord = errors.New("docbuilder: field exists but isn't a record")
	// ErrFieldExistsButIsntAnArray is the list-shaped counterpart.
	ErrFieldExistsButIsntAnArray = errors.New("docbuilder: field exists but isn't an array")
	// ErrNoMatchFields is raised when a query is requested but no
	// mapping is flagged as a match field.
	ErrNoMatchFields = errors.New("docbuilder: no mapping is flagged as a match field")
	// ErrNoFieldsToUpdateSpecified is raised when every non-match
	// mapping was skipped by apply-policy.
	ErrNoFieldsToUpdateSpecified = errors.New("docbuilder: no fields survived apply-policy for this update")
	// ErrUnsupportedCellType is raised for opaque/serializable cell
	// values, which the core refuses to store.
	ErrUnsupportedCellType = errors.New("docbuilder: cannot store serializable cell value")
)

// TypeConflictError wraps a type-conflict sentinel with the offending
// path and the mapping's incoming name, for callers that want context
// beyond errors.Is.
type TypeConflictError struct {
	Path         string
	IncomingName string
	Err          error
}

func (e *TypeConflictError) Error() string {
	return "docbuilder: " + e.IncomingName + " at path " + e.Path + ": " + e.Err.Error()
}

func (e *TypeConflictError) Unwrap() error { return e.Err }
