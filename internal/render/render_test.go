package render

import (
	"strings"
	"testing"

	"github.com/fatih/color"

	"specscan/internal/catalog"
	"specscan/internal/coverage"
)

func init() {
	// Keep report text byte-stable in assertions.
	color.NoColor = true
}

func TestFormatCategory(t *testing.T) {
	t.Parallel()

	cases := []struct{ in, want string }{
		{"revaluation", "Revaluation"},
		{"gmp equalisation", "GMP Equalisation"},
		{"cetv", "CETV"},
		{"early_retirement", "Early Retirement"},
	}
	for _, c := range cases {
		if got := FormatCategory(c.in); got != c.want {
			t.Errorf("FormatCategory(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestPreview(t *testing.T) {
	t.Parallel()

	opts := catalog.Options{
		"revaluation": {
			{ID: "fixed_rate", Name: "Fixed Rate", CodeClass: "FixedRateRevaluation"},
		},
	}
	caps := catalog.Capabilities{
		"revaluation": {
			{Name: "Annual Rate", Parent: &catalog.ParentRef{ID: "fixed_rate", Name: "Fixed Rate"}},
			{Name: "Round Down"},
		},
	}

	out := Preview(opts, caps)

	if !strings.Contains(out, "Options (1):") {
		t.Errorf("missing options header:\n%s", out)
	}
	if !strings.Contains(out, "Fixed Rate (FixedRateRevaluation)") {
		t.Errorf("missing option line:\n%s", out)
	}
	if !strings.Contains(out, "Capabilities (2):") {
		t.Errorf("missing capabilities header:\n%s", out)
	}
	if !strings.Contains(out, "Annual Rate  -> parent: Fixed Rate") {
		t.Errorf("missing parent linkage:\n%s", out)
	}
	if !strings.Contains(out, "Round Down  (standalone)") {
		t.Errorf("missing standalone marker:\n%s", out)
	}
}

func TestPreviewEmpty(t *testing.T) {
	t.Parallel()

	out := Preview(catalog.Options{}, catalog.Capabilities{})
	if !strings.Contains(out, "Options (0):") || !strings.Contains(out, "(none)") {
		t.Errorf("unexpected empty preview:\n%s", out)
	}
}

func TestCoverageTable(t *testing.T) {
	t.Parallel()

	r := &coverage.Report{
		Classes: []coverage.ClassCoverage{
			{Module: "Calc", Class: "Calculator", Marked: 2, Visible: 3},
			{Module: "Consts", Class: "Constants", Marked: 0, Visible: 0},
		},
		Marked:  2,
		Visible: 3,
	}

	out := Coverage(r)

	if !strings.Contains(out, "Calculator: 2/3 methods documented (67%)") {
		t.Errorf("missing per-class row:\n%s", out)
	}
	if !strings.Contains(out, "Constants: 0/0 methods documented (n/a)") {
		t.Errorf("zero-method class must report n/a:\n%s", out)
	}
	if !strings.Contains(out, "Overall: 2/3 methods documented (67%)") {
		t.Errorf("missing overall row:\n%s", out)
	}
}

func TestCoverageEmpty(t *testing.T) {
	t.Parallel()

	out := Coverage(&coverage.Report{})
	if !strings.Contains(out, "No classes found.") {
		t.Errorf("unexpected:\n%s", out)
	}
}
