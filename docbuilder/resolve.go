package docbuilder

import (
	"strconv"
	"strings"

	"github.com/rowdoc/core/rowmapping"
)

// resolvePath computes the dot/bracket path P used by the query and
// modifier builders (spec.md §4.3):
//
//  1. start from docPath
//  2. if the op is $push and P ends with "]" and appendIncomingName is
//     false, strip the trailing "[...]" (because $push implicitly appends)
//  3. append "."+incomingName if appendIncomingName is true
//
// The $push bracket-stripping quirk (spec.md §9 Open Question) is
// preserved as-is: when appendIncomingName is true, a bracketed tail is
// never stripped, even for $push, and the bracket survives into the
// emitted key. hadBracketQuirk reports that case so callers can surface a
// warning.
func resolvePath(m *rowmapping.FieldMapping) (path string, hadBracketQuirk bool) {
	p := m.DocPath

	if m.ModifierOp == rowmapping.OpPush && strings.HasSuffix(p, "]") {
		if !m.AppendIncomingName {
			if idx := strings.LastIndexByte(p, '['); idx >= 0 {
				p = p[:idx]
			}
		} else {
			hadBracketQuirk = true
		}
	}

	if m.AppendIncomingName {
		if p == "" {
			p = m.IncomingName
		} else {
			p = p + "." + m.IncomingName
		}
	}

	return p, hadBracketQuirk
}

// flattenBrackets turns bracketed array markers into dot notation:
// a[0].b[1] -> a.0.b.1. Used by the query builder (always) and the
// primitive-leaf modifier bucket (for any bracket not already consumed by
// the bucketing logic).
func flattenBrackets(p string) string {
	var b strings.Builder
	b.Grow(len(p))
	for i := 0; i < len(p); i++ {
		switch p[i] {
		case '[':
			b.WriteByte('.')
		case ']':
			// dropped
		default:
			b.WriteByte(p[i])
		}
	}
	return b.String()
}

// splitBracketGroup splits a resolved path at its first bracket group:
// "bob.fred[0].george.field1" -> arrayPath="bob.fred", index=0,
// hasIndex=true, residual="george.field1". A bare "[]" group (no digits)
// yields hasIndex=false. ok is false if p contains no "[" or the brackets
// are malformed (which should not happen for a path built from an
// already-compiled mapping).
func splitBracketGroup(p string) (arrayPath string, index int, hasIndex bool, residual string, ok bool) {
	open := strings.IndexByte(p, '[')
	if open == -1 {
		return "", 0, false, "", false
	}
	closeRel := strings.IndexByte(p[open:], ']')
	if closeRel == -1 {
		return "", 0, false, "", false
	}
	closeIdx := open + closeRel

	arrayPath = p[:open]
	content := p[open+1 : closeIdx]
	residual = strings.TrimPrefix(p[closeIdx+1:], ".")

	if content == "" {
		return arrayPath, 0, false, residual, true
	}
	idx, err := strconv.Atoi(content)
	if err != nil {
		return "", 0, false, "", false
	}
	return arrayPath, idx, true, residual, true
}
