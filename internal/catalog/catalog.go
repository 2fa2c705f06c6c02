// Package catalog builds the two extraction catalogs (options and
// capabilities) from bound markers and groups them by category.
package catalog

import (
	"fmt"
	"sort"
	"strings"

	"specscan/internal/corpus"
	"specscan/internal/marker"
)

// ParentRef links a capability back to the option produced by its
// enclosing class. Derived co-location, recomputed every run.
type ParentRef struct {
	ID   string
	Name string
}

// Option is a selectable calculation strategy extracted from a
// class-level marker.
type Option struct {
	ID           string
	Name         string
	Description  string
	WhyItMatters string
	CodeClass    string
	Scheme       string
	LastModified string // date only
	Category     string // lowercase

	SourceFile string // diagnostics only, never serialized
}

// Capability is a sub-feature extracted from a method-level marker.
type Capability struct {
	ID           string
	Name         string
	Description  string
	WhyItMatters string
	MethodName   string
	ReturnType   string
	Parameters   string
	Parent       *ParentRef // nil when standalone
	CodeClass    string
	Scheme       string
	LastModified string
	Category     string

	SourceFile string
}

// Options and Capabilities map lowercase category to entries in corpus
// scan order. Serialization orders the categories alphabetically.
type Options map[string][]Option

// Capabilities groups capability entries by lowercase category.
type Capabilities map[string][]Capability

// Categories returns the category keys in alphabetical order.
func (o Options) Categories() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Categories returns the category keys in alphabetical order.
func (c Capabilities) Categories() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Total counts entries across all categories.
func (o Options) Total() int {
	n := 0
	for _, entries := range o {
		n += len(entries)
	}
	return n
}

// Total counts entries across all categories.
func (c Capabilities) Total() int {
	n := 0
	for _, entries := range c {
		n += len(entries)
	}
	return n
}

// Builder accumulates entities module by module. Identity within each
// catalog is the slug: a later entity with an already-used slug replaces
// the earlier one (expected last-wins, reported as a warning).
type Builder struct {
	opts     []Option
	optIndex map[string]int
	caps     []Capability
	capIndex map[string]int
	diags    []marker.Diagnostic
}

func NewBuilder() *Builder {
	return &Builder{
		optIndex: make(map[string]int),
		capIndex: make(map[string]int),
	}
}

// AddModule folds one scanned module into the catalogs. Class markers are
// processed before method markers so parent linkage is independent of
// marker order within the file.
func (b *Builder) AddModule(mod corpus.Module, marks []marker.Marker) {
	date := TruncateDate(mod.LastModified)
	parents := make(map[string]*ParentRef)

	for _, m := range marks {
		if m.Target != marker.ClassTarget {
			continue
		}
		if !b.requireFields(m) {
			continue
		}
		o := Option{
			ID:           Slug(m.Args["Name"]),
			Name:         m.Args["Name"],
			Description:  m.Args["Description"],
			WhyItMatters: m.Args["WhyItMatters"],
			CodeClass:    m.ClassName,
			Scheme:       mod.Scheme,
			LastModified: date,
			Category:     strings.ToLower(m.Args["Category"]),
			SourceFile:   m.File,
		}
		b.insertOption(o)
		parents[o.CodeClass] = &ParentRef{ID: o.ID, Name: o.Name}
	}

	for _, m := range marks {
		if m.Target != marker.MethodTarget {
			continue
		}
		if !b.requireFields(m) {
			continue
		}
		class := m.ClassName
		if class == "" {
			class = mod.Name
		}
		c := Capability{
			ID:           Slug(m.Args["Name"]),
			Name:         m.Args["Name"],
			Description:  m.Args["Description"],
			WhyItMatters: m.Args["WhyItMatters"],
			MethodName:   m.MethodName,
			ReturnType:   m.ReturnType,
			Parameters:   m.Parameters,
			Parent:       parents[class],
			CodeClass:    class,
			Scheme:       mod.Scheme,
			LastModified: date,
			Category:     strings.ToLower(m.Args["Category"]),
			SourceFile:   m.File,
		}
		b.insertCapability(c)
	}
}

// Finish groups the surviving entities by category and returns them with
// the warnings accumulated along the way.
func (b *Builder) Finish() (Options, Capabilities, []marker.Diagnostic) {
	opts := make(Options)
	for _, o := range b.opts {
		opts[o.Category] = append(opts[o.Category], o)
	}
	caps := make(Capabilities)
	for _, c := range b.caps {
		caps[c.Category] = append(caps[c.Category], c)
	}
	return opts, caps, b.diags
}

func (b *Builder) requireFields(m marker.Marker) bool {
	for _, field := range []string{"Category", "Name"} {
		if m.Args[field] == "" {
			b.diags = append(b.diags, marker.Diagnostic{
				Class:  marker.MissingRequiredField,
				File:   m.File,
				Line:   m.Line,
				Detail: fmt.Sprintf("[%s] is missing %s", m.Target, field),
			})
			return false
		}
	}
	return true
}

func (b *Builder) insertOption(o Option) {
	if j, ok := b.optIndex[o.ID]; ok {
		old := b.opts[j]
		b.collision("option", o.ID, old.SourceFile, o.SourceFile)
		b.opts = append(b.opts[:j], b.opts[j+1:]...)
		b.reindexOptions()
	}
	b.optIndex[o.ID] = len(b.opts)
	b.opts = append(b.opts, o)
}

func (b *Builder) insertCapability(c Capability) {
	if j, ok := b.capIndex[c.ID]; ok {
		old := b.caps[j]
		b.collision("capability", c.ID, old.SourceFile, c.SourceFile)
		b.caps = append(b.caps[:j], b.caps[j+1:]...)
		b.reindexCapabilities()
	}
	b.capIndex[c.ID] = len(b.caps)
	b.caps = append(b.caps, c)
}

func (b *Builder) collision(kind, id, oldFile, newFile string) {
	b.diags = append(b.diags, marker.Diagnostic{
		Class:  marker.SlugCollision,
		File:   newFile,
		Detail: fmt.Sprintf("%s id %q from %s overwrites the one from %s", kind, id, newFile, oldFile),
	})
}

func (b *Builder) reindexOptions() {
	clear(b.optIndex)
	for i, o := range b.opts {
		b.optIndex[o.ID] = i
	}
}

func (b *Builder) reindexCapabilities() {
	clear(b.capIndex)
	for i, c := range b.caps {
		b.capIndex[c.ID] = i
	}
}

// Slug normalizes a display name to its identifier: lowercase, runs of
// non-alphanumerics become single underscores, edges trimmed.
func Slug(name string) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(name) {
		alnum := r >= 'a' && r <= 'z' || r >= '0' && r <= '9'
		if !alnum {
			pending = b.Len() > 0
			continue
		}
		if pending {
			b.WriteByte('_')
			pending = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// TruncateDate strips the time part of an ISO-ish timestamp, leaving the
// calendar date. Values without a time part pass through unchanged.
func TruncateDate(ts string) string {
	if i := strings.IndexByte(ts, 'T'); i >= 0 {
		return ts[:i]
	}
	return ts
}
