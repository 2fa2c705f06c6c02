package marker

import (
	"regexp"
	"strings"
)

var constDeclRe = regexp.MustCompile(`\bconst\s+string\s+(\w+)\s*=\s*"((?:[^"\\]|\\.)*)"`)

// ConstTable resolves constant references used as marker argument values
// (e.g. Description = SpecDocs.RevaluationWhy). It is populated by one
// pre-pass over the corpus before scanning; resolution is best-effort, not
// constant propagation.
type ConstTable struct {
	qualified map[string]string // Class.Name -> literal
	bare      map[string]string // Name -> literal (last declaration wins)
}

func NewConstTable() *ConstTable {
	return &ConstTable{
		qualified: make(map[string]string),
		bare:      make(map[string]string),
	}
}

// AddSource collects every `const string X = "..."` declaration in src,
// keyed bare and, when an enclosing class can be determined, qualified.
func (t *ConstTable) AddSource(src string) {
	decls := classDeclarations(src)

	for _, loc := range constDeclRe.FindAllStringSubmatchIndex(src, -1) {
		name := src[loc[2]:loc[3]]
		val, _, ok := parseStringLiteral(`"` + src[loc[4]:loc[5]] + `"`)
		if !ok {
			continue
		}
		t.bare[name] = val
		if class := enclosingClass(decls, loc[0]); class != "" {
			t.qualified[class+"."+name] = val
		}
	}
}

// Resolve looks a reference up qualified-first, then by its last segment.
func (t *ConstTable) Resolve(ref string) (string, bool) {
	if v, ok := t.qualified[ref]; ok {
		return v, true
	}
	seg := ref
	if i := strings.LastIndexByte(ref, '.'); i >= 0 {
		seg = ref[i+1:]
	}
	v, ok := t.bare[seg]
	return v, ok
}

// Len reports how many distinct constant names were collected.
func (t *ConstTable) Len() int {
	return len(t.bare)
}
