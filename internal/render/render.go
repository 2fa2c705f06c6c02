// Package render formats the preview summary and the coverage table for
// the console.
package render

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"specscan/internal/catalog"
	"specscan/internal/coverage"
)

var bold = color.New(color.Bold)

// acronyms stay upper-cased when category keys are formatted for display.
var acronyms = map[string]struct{}{
	"gmp":  {},
	"dc":   {},
	"pcls": {},
	"erf":  {},
	"lrf":  {},
	"afr":  {},
	"cetv": {},
}

// Preview renders a compact human-readable summary of both catalogs,
// grouped by category, with capability parent linkage spelled out.
func Preview(opts catalog.Options, caps catalog.Capabilities) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", bold.Sprintf("Options (%d):", opts.Total()))
	if opts.Total() == 0 {
		b.WriteString("  (none)\n")
	}
	for _, cat := range opts.Categories() {
		var items []string
		for _, o := range opts[cat] {
			items = append(items, fmt.Sprintf("%s (%s)", o.Name, o.CodeClass))
		}
		fmt.Fprintf(&b, "  %-14s %s\n", FormatCategory(cat), strings.Join(items, ", "))
	}

	b.WriteString("\n")

	fmt.Fprintf(&b, "%s\n", bold.Sprintf("Capabilities (%d):", caps.Total()))
	if caps.Total() == 0 {
		b.WriteString("  (none)\n")
	}
	for _, cat := range caps.Categories() {
		fmt.Fprintf(&b, "  %-14s %s\n", FormatCategory(cat), capabilityLine(caps[cat]))
	}

	return b.String()
}

// capabilityLine groups a category's capabilities under their parent
// options, standalone ones last.
func capabilityLine(caps []catalog.Capability) string {
	var parentOrder []string
	parented := make(map[string][]string)
	var standalone []string

	for _, c := range caps {
		if c.Parent == nil {
			standalone = append(standalone, c.Name)
			continue
		}
		if _, seen := parented[c.Parent.Name]; !seen {
			parentOrder = append(parentOrder, c.Parent.Name)
		}
		parented[c.Parent.Name] = append(parented[c.Parent.Name], c.Name)
	}

	var parts []string
	for _, parent := range parentOrder {
		parts = append(parts, fmt.Sprintf("%s  -> parent: %s", strings.Join(parented[parent], ", "), parent))
	}
	if len(standalone) > 0 {
		parts = append(parts, fmt.Sprintf("%s  (standalone)", strings.Join(standalone, ", ")))
	}
	return strings.Join(parts, "; ")
}

// Coverage renders the per-class documentation table. Classes with no
// externally-visible methods report n/a rather than a division.
func Coverage(r *coverage.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", bold.Sprint("Coverage Report:"))

	if len(r.Classes) == 0 {
		b.WriteString("  No classes found.\n")
		return b.String()
	}

	for _, row := range r.Classes {
		fmt.Fprintf(&b, "  %s: %d/%d methods documented (%s)\n",
			row.Class, row.Marked, row.Visible, percent(row.Marked, row.Visible))
	}
	b.WriteString("  ---\n")
	fmt.Fprintf(&b, "  Overall: %d/%d methods documented (%s)\n",
		r.Marked, r.Visible, percent(r.Marked, r.Visible))

	return b.String()
}

func percent(marked, visible int) string {
	if visible == 0 {
		return "n/a"
	}
	return fmt.Sprintf("%.0f%%", float64(marked)/float64(visible)*100)
}

// FormatCategory turns a lowercase category key into a display label,
// title-casing words but keeping the domain acronyms upper-cased.
func FormatCategory(key string) string {
	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	for i, w := range words {
		if _, ok := acronyms[strings.ToLower(w)]; ok {
			words[i] = strings.ToUpper(w)
		} else if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
