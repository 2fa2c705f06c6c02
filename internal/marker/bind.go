package marker

import (
	"regexp"
	"strings"
)

// lookaheadLines bounds how far past a marker the binder scans for the
// decorated declaration before declaring the marker orphaned. Raw source
// lines, so blank, comment and attribute lines all count.
const lookaheadLines = 20

var (
	classDeclRe = regexp.MustCompile(`^public\s+(?:sealed\s+|abstract\s+|static\s+|partial\s+)*class\s+(\w+)`)

	// Return type is matched non-greedily so generics like Task<decimal>
	// or Dictionary<string, int> survive; the parameter list itself is
	// captured separately with depth-aware parentheses.
	methodDeclRe = regexp.MustCompile(`(?s)^public\s+(?:static\s+|virtual\s+|override\s+|sealed\s+|async\s+|new\s+)*([\w?\[\],<>\s]+?)\s+(\w+)\s*\(`)

	whitespaceRe = regexp.MustCompile(`\s+`)
)

type declaration struct {
	class      string
	method     string
	returnType string
	params     string
}

// bindDeclaration scans forward from `from` past blank lines, // and ///
// comments, #region/#endregion directives and other [...] attributes, then
// matches the declaration kind the marker targets. The first line of real
// content must be the declaration; anything else orphans the marker.
func bindDeclaration(src string, from int, target Target) (declaration, bool) {
	window := windowEnd(src, from, lookaheadLines)
	i := from

	for i < window {
		i = skipSpaces(src, i)
		if i >= window {
			break
		}

		switch {
		case strings.HasPrefix(src[i:], "//"): // covers /// doc comments
			i = endOfLine(src, i)
		case src[i] == '#': // #region, #endregion, #pragma
			i = endOfLine(src, i)
		case src[i] == '[':
			j, ok := skipBrackets(src, i)
			if !ok {
				return declaration{}, false
			}
			i = j
		default:
			return matchDeclaration(src[i:], target)
		}
	}

	return declaration{}, false
}

func matchDeclaration(rest string, target Target) (declaration, bool) {
	if target == ClassTarget {
		m := classDeclRe.FindStringSubmatch(rest)
		if m == nil {
			return declaration{}, false
		}
		return declaration{class: m[1]}, true
	}

	loc := methodDeclRe.FindStringSubmatchIndex(rest)
	if loc == nil {
		return declaration{}, false
	}
	returnType := collapseWhitespace(rest[loc[2]:loc[3]])
	name := rest[loc[4]:loc[5]]

	params, _, ok := captureParens(rest, loc[1]-1)
	if !ok {
		return declaration{}, false
	}

	return declaration{
		method:     name,
		returnType: returnType,
		params:     collapseWhitespace(params),
	}, true
}

// skipBrackets advances past a [...] attribute list, tolerating nested
// parentheses and string literals inside it.
func skipBrackets(src string, i int) (int, bool) {
	depth := 0
	for ; i < len(src); i++ {
		switch src[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i + 1, true
			}
		case '"':
			j, ok := skipString(src, i)
			if !ok {
				return 0, false
			}
			i = j - 1
		}
	}
	return 0, false
}

// windowEnd returns the offset just past the n-th newline after from, or
// the end of src.
func windowEnd(src string, from, n int) int {
	i := from
	for ; n > 0 && i < len(src); i++ {
		if src[i] == '\n' {
			n--
		}
	}
	if n > 0 {
		return len(src)
	}
	return i
}

func endOfLine(src string, i int) int {
	if j := strings.IndexByte(src[i:], '\n'); j >= 0 {
		return i + j + 1
	}
	return len(src)
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// classDecl is one class declaration and its brace-matched body span.
// end is the offset just past the closing brace, or len(src) when the
// body never closes.
type classDecl struct {
	name  string
	start int
	end   int
}

type openBody struct {
	decl  int // index into decls
	depth int // brace depth of its body
}

// classDeclarations scans src for class declarations and matches each
// one's body braces, so a closed nested class is never mistaken for the
// enclosing one. String literals, char literals and comments are skipped,
// keeping a `class` inside them from registering.
func classDeclarations(src string) []classDecl {
	var decls []classDecl
	var open []openBody
	pending := -1 // decl whose opening brace has not been reached yet
	depth := 0

	for i := 0; i < len(src); {
		switch c := src[i]; {
		case c == '"':
			j, ok := skipString(src, i)
			if !ok {
				j = len(src)
			}
			i = j
		case c == '\'':
			i = skipCharLiteral(src, i)
		case c == '/' && strings.HasPrefix(src[i:], "//"):
			i = endOfLine(src, i)
		case c == '/' && strings.HasPrefix(src[i:], "/*"):
			if j := strings.Index(src[i+2:], "*/"); j >= 0 {
				i += j + 4
			} else {
				i = len(src)
			}
		case c == '{':
			depth++
			if pending >= 0 {
				open = append(open, openBody{decl: pending, depth: depth})
				pending = -1
			}
			i++
		case c == '}':
			if n := len(open); n > 0 && open[n-1].depth == depth {
				decls[open[n-1].decl].end = i + 1
				open = open[:n-1]
			}
			depth--
			i++
		case isWordByte(c) && (i == 0 || !isWordByte(src[i-1])):
			j := i
			for j < len(src) && isWordByte(src[j]) {
				j++
			}
			if src[i:j] == "class" {
				if name, k := identifierAfter(src, j); name != "" {
					decls = append(decls, classDecl{name: name, start: i, end: len(src)})
					pending = len(decls) - 1
					i = k
					continue
				}
			}
			i = j
		default:
			i++
		}
	}

	return decls
}

// identifierAfter skips whitespace from i and reads the identifier there,
// if any.
func identifierAfter(src string, i int) (string, int) {
	i = skipSpaces(src, i)
	if i >= len(src) || !isWordByte(src[i]) || src[i] >= '0' && src[i] <= '9' {
		return "", i
	}
	j := i
	for j < len(src) && isWordByte(src[j]) {
		j++
	}
	return src[i:j], j
}

// skipCharLiteral advances past a single-quoted char literal, honoring
// backslash escapes.
func skipCharLiteral(src string, i int) int {
	for j := i + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			j++
		case '\'':
			return j + 1
		}
	}
	return len(src)
}

// enclosingClass returns the innermost class whose body span contains
// off, or "" when off sits outside every class body.
func enclosingClass(decls []classDecl, off int) string {
	name := ""
	start := -1
	for _, d := range decls {
		if d.start <= off && off < d.end && d.start > start {
			name = d.name
			start = d.start
		}
	}
	return name
}
