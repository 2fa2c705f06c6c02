// Package marker locates [SpecOption] and [SpecCapability] attribute
// markers in C# source, parses their named arguments and binds each marker
// to the class or method declaration it decorates.
//
// This is deliberately not a C# parser. Markers follow a constrained
// grammar (named string arguments, one decorated declaration per marker),
// and every failure is recovered per marker so one bad annotation never
// blocks the rest of a file.
package marker

import (
	"fmt"
	"strings"
)

// Target says which declaration kind a marker decorates.
type Target int

const (
	// ClassTarget is a [SpecOption] marker preceding a class declaration.
	ClassTarget Target = iota
	// MethodTarget is a [SpecCapability] marker preceding a method declaration.
	MethodTarget
)

func (t Target) String() string {
	if t == ClassTarget {
		return "SpecOption"
	}
	return "SpecCapability"
}

// Marker is one located, parsed and bound attribute marker.
type Marker struct {
	Target Target
	Args   map[string]string // named arguments, unknown keys preserved
	File   string
	Line   int // 1-based line of the opening bracket

	// Bound declaration. ClassName is the decorated class for ClassTarget
	// markers and the innermost enclosing class for MethodTarget markers
	// (empty when the marker sits outside every class body).
	ClassName  string
	MethodName string
	ReturnType string
	Parameters string
}

// Class is the failure class of a recoverable diagnostic.
type Class string

const (
	// MalformedMarker covers unbalanced delimiters, bad argument syntax
	// and unresolvable constant references.
	MalformedMarker Class = "malformed-marker"
	// OrphanedMarker means no matching declaration followed the marker
	// within the lookahead window.
	OrphanedMarker Class = "orphaned-marker"
	// MissingRequiredField means the marker lacks Category or Name.
	MissingRequiredField Class = "missing-required-field"
	// SlugCollision means two entities normalized to the same identifier.
	SlugCollision Class = "slug-collision"
)

// Diagnostic records one recovered per-item failure.
type Diagnostic struct {
	Class  Class
	File   string
	Line   int
	Detail string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d: %s: %s", d.File, d.Line, d.Class, d.Detail)
}

var attrNames = []struct {
	name   string
	target Target
}{
	{"SpecOption", ClassTarget},
	{"SpecCapability", MethodTarget},
}

// Scan finds every spec marker in src, parses its arguments (resolving
// constant references through consts) and binds it to the declaration it
// decorates. Recoverable failures are returned as diagnostics; the
// corresponding marker is dropped whole, never partially emitted.
func Scan(file, src string, consts *ConstTable) ([]Marker, []Diagnostic) {
	var markers []Marker
	var diags []Diagnostic

	classDecls := classDeclarations(src)

	for i := 0; i < len(src); i++ {
		if src[i] != '[' {
			continue
		}

		name, target, nameEnd, ok := matchAttrName(src, i+1)
		if !ok {
			continue
		}
		line := lineAt(src, i)

		open := skipSpaces(src, nameEnd)
		if open >= len(src) || src[open] != '(' {
			// Bare attribute form, e.g. [SpecOption] with no argument
			// list. Valid C#, but carries nothing to extract.
			continue
		}
		body, bodyEnd, ok := captureParens(src, open)
		if !ok {
			diags = append(diags, Diagnostic{MalformedMarker, file, line,
				fmt.Sprintf("unbalanced delimiters in [%s]", name)})
			continue
		}
		closeIdx := skipSpaces(src, bodyEnd)
		if closeIdx >= len(src) || src[closeIdx] != ']' {
			diags = append(diags, Diagnostic{MalformedMarker, file, line,
				fmt.Sprintf("missing closing bracket on [%s]", name)})
			i = bodyEnd - 1
			continue
		}

		args, err := parseArgs(body, consts)
		if err != nil {
			diags = append(diags, Diagnostic{MalformedMarker, file, line, err.Error()})
			i = closeIdx
			continue
		}

		decl, ok := bindDeclaration(src, closeIdx+1, target)
		if !ok {
			diags = append(diags, Diagnostic{OrphanedMarker, file, line,
				fmt.Sprintf("no %s declaration follows [%s]", declKind(target), name)})
			i = closeIdx
			continue
		}

		m := Marker{
			Target:     target,
			Args:       args,
			File:       file,
			Line:       line,
			ClassName:  decl.class,
			MethodName: decl.method,
			ReturnType: decl.returnType,
			Parameters: decl.params,
		}
		if target == MethodTarget {
			m.ClassName = enclosingClass(classDecls, i)
		}
		markers = append(markers, m)
		i = closeIdx
	}

	return markers, diags
}

func declKind(t Target) string {
	if t == ClassTarget {
		return "class"
	}
	return "method"
}

// matchAttrName checks whether a spec attribute name starts at src[from]
// (after the opening bracket) and returns the index of its first character
// past the name.
func matchAttrName(src string, from int) (string, Target, int, bool) {
	from = skipSpaces(src, from)
	for _, a := range attrNames {
		if !strings.HasPrefix(src[from:], a.name) {
			continue
		}
		end := from + len(a.name)
		if end < len(src) && isWordByte(src[end]) {
			continue // longer identifier, e.g. SpecOptionGroup
		}
		return a.name, a.target, end, true
	}
	return "", 0, 0, false
}

// parseArgs splits the marker body into top-level `Key = value` pairs.
// Values are double-quoted literals or constant references resolved
// through consts. Unknown keys are preserved; downstream ignores them.
func parseArgs(body string, consts *ConstTable) (map[string]string, error) {
	args := make(map[string]string)

	for _, part := range splitTopLevel(body) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		eq := topLevelIndex(part, '=')
		if eq < 0 {
			return nil, fmt.Errorf("argument %q is not a Key = value pair", part)
		}
		key := strings.TrimSpace(part[:eq])
		if !isIdentifier(key) {
			return nil, fmt.Errorf("argument name %q is not an identifier", key)
		}
		raw := strings.TrimSpace(part[eq+1:])

		switch {
		case strings.HasPrefix(raw, `"`):
			val, rest, ok := parseStringLiteral(raw)
			if !ok || strings.TrimSpace(rest) != "" {
				return nil, fmt.Errorf("malformed string literal for %s", key)
			}
			args[key] = val
		case isQualifiedIdentifier(raw):
			val, ok := consts.Resolve(raw)
			if !ok {
				return nil, fmt.Errorf("unresolved reference %s for %s", raw, key)
			}
			args[key] = val
		default:
			return nil, fmt.Errorf("unsupported value %q for %s (literal string or constant reference expected)", raw, key)
		}
	}

	return args, nil
}

// splitTopLevel splits on commas that sit outside nested parentheses and
// string literals.
func splitTopLevel(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		case '"':
			if j, ok := skipString(s, i); ok {
				i = j - 1
			} else {
				i = len(s)
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}

// topLevelIndex returns the index of the first occurrence of c outside
// string literals and nested parentheses, or -1.
func topLevelIndex(s string, c byte) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		case '"':
			if j, ok := skipString(s, i); ok {
				i = j - 1
			} else {
				return -1
			}
		case c:
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// captureParens captures the text between a balanced pair of parentheses.
// from points at or before the opening parenthesis; only whitespace may
// precede it. Parentheses inside string literals do not count toward the
// nesting depth.
func captureParens(src string, from int) (body string, end int, ok bool) {
	open := skipSpaces(src, from)
	if open >= len(src) || src[open] != '(' {
		return "", 0, false
	}
	depth := 0
	for i := open; i < len(src); i++ {
		switch src[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return src[open+1 : i], i + 1, true
			}
		case '"':
			j, ok := skipString(src, i)
			if !ok {
				return "", 0, false
			}
			i = j - 1
		}
	}
	return "", 0, false
}

// skipString advances past a double-quoted literal starting at src[i],
// honoring backslash escapes. Returns the index just past the closing
// quote.
func skipString(src string, i int) (int, bool) {
	for j := i + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			j++
		case '"':
			return j + 1, true
		}
	}
	return 0, false
}

// parseStringLiteral decodes a leading double-quoted literal and returns
// the decoded value plus the remainder of the input.
func parseStringLiteral(s string) (val, rest string, ok bool) {
	if len(s) == 0 || s[0] != '"' {
		return "", "", false
	}
	var b strings.Builder
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			if i+1 >= len(s) {
				return "", "", false
			}
			i++
			switch s[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			default: // \" and \\ land here
				b.WriteByte(s[i])
			}
		case '"':
			return b.String(), s[i+1:], true
		default:
			b.WriteByte(s[i])
		}
	}
	return "", "", false
}

func skipSpaces(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	return i
}

func lineAt(src string, off int) int {
	return 1 + strings.Count(src[:off], "\n")
}

func isWordByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isIdentifier(s string) bool {
	if s == "" || s[0] >= '0' && s[0] <= '9' {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isWordByte(s[i]) {
			return false
		}
	}
	return true
}

func isQualifiedIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, seg := range strings.Split(s, ".") {
		if !isIdentifier(seg) {
			return false
		}
	}
	return true
}
