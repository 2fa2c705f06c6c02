package marker

import (
	"strings"
	"testing"
)

func scan(t *testing.T, src string) ([]Marker, []Diagnostic) {
	t.Helper()
	consts := NewConstTable()
	consts.AddSource(src)
	return Scan("Test.cs", src, consts)
}

func TestScanClassMarker(t *testing.T) {
	t.Parallel()

	src := `namespace Pensions.Core
{
    [SpecOption(Category = "Revaluation", Name = "Fixed Rate", Description = "Applies a fixed rate (see s.52(a))")]
    public sealed class FixedRateRevaluation
    {
    }
}
`
	markers, diags := scan(t, src)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if len(markers) != 1 {
		t.Fatalf("expected 1 marker, got %d", len(markers))
	}

	m := markers[0]
	if m.Target != ClassTarget {
		t.Errorf("target = %v, want ClassTarget", m.Target)
	}
	if m.ClassName != "FixedRateRevaluation" {
		t.Errorf("class = %q", m.ClassName)
	}
	if m.Args["Name"] != "Fixed Rate" {
		t.Errorf("Name = %q", m.Args["Name"])
	}
	if m.Args["Description"] != "Applies a fixed rate (see s.52(a))" {
		t.Errorf("Description = %q (parens inside the literal must not end the capture)", m.Args["Description"])
	}
	if m.Line != 3 {
		t.Errorf("line = %d, want 3", m.Line)
	}
}

func TestScanMethodMarker(t *testing.T) {
	t.Parallel()

	src := `public class GmpCalculator
{
    [SpecCapability(Category = "GMP", Name = "Annual Rate")]
    public decimal AnnualRate(int year, decimal fallback = Defaults.Rate(1, 2))
    {
        return 0m;
    }
}
`
	markers, diags := scan(t, src)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if len(markers) != 1 {
		t.Fatalf("expected 1 marker, got %d", len(markers))
	}

	m := markers[0]
	if m.Target != MethodTarget {
		t.Fatalf("target = %v, want MethodTarget", m.Target)
	}
	if m.MethodName != "AnnualRate" {
		t.Errorf("method = %q", m.MethodName)
	}
	if m.ReturnType != "decimal" {
		t.Errorf("returnType = %q", m.ReturnType)
	}
	if m.Parameters != "int year, decimal fallback = Defaults.Rate(1, 2)" {
		t.Errorf("parameters = %q (nested parens in defaults must not truncate)", m.Parameters)
	}
	if m.ClassName != "GmpCalculator" {
		t.Errorf("enclosing class = %q", m.ClassName)
	}
}

func TestScanMultilineMarker(t *testing.T) {
	t.Parallel()

	src := `[SpecOption(
    Category = "Revaluation",
    Name = "Capped RPI",
    WhyItMatters = "Caps increases, protecting scheme funding"
)]
public class CappedRpiRevaluation { }
`
	markers, diags := scan(t, src)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if len(markers) != 1 || markers[0].Args["Name"] != "Capped RPI" {
		t.Fatalf("markers = %+v", markers)
	}
}

func TestScanStringEscapes(t *testing.T) {
	t.Parallel()

	src := `[SpecOption(Category = "Core", Name = "Said \"hi\" \\ done")]
public class Greeter { }
`
	markers, _ := scan(t, src)
	if len(markers) != 1 {
		t.Fatalf("expected 1 marker, got %d", len(markers))
	}
	if got := markers[0].Args["Name"]; got != `Said "hi" \ done` {
		t.Errorf("Name = %q", got)
	}
}

func TestScanUnknownKeysPreserved(t *testing.T) {
	t.Parallel()

	src := `[SpecOption(Category = "Core", Name = "X", Tier = "Gold")]
public class Thing { }
`
	markers, diags := scan(t, src)
	if len(diags) != 0 {
		t.Fatalf("unknown keys must not produce diagnostics: %v", diags)
	}
	if markers[0].Args["Tier"] != "Gold" {
		t.Errorf("Tier = %q", markers[0].Args["Tier"])
	}
}

func TestScanConstantReference(t *testing.T) {
	t.Parallel()

	src := `public static class SpecDocs
{
    public const string RevalWhy = "Keeps deferred benefits in line with inflation.";
}

[SpecOption(Category = "Revaluation", Name = "Statutory", WhyItMatters = SpecDocs.RevalWhy)]
public class StatutoryRevaluation { }
`
	markers, diags := scan(t, src)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if got := markers[0].Args["WhyItMatters"]; got != "Keeps deferred benefits in line with inflation." {
		t.Errorf("WhyItMatters = %q", got)
	}
}

func TestScanUnresolvedReference(t *testing.T) {
	t.Parallel()

	src := `[SpecOption(Category = "Core", Name = Missing.Const)]
public class Broken { }
`
	markers, diags := scan(t, src)
	if len(markers) != 0 {
		t.Fatalf("marker with unresolved reference must be dropped whole, got %+v", markers)
	}
	if len(diags) != 1 || diags[0].Class != MalformedMarker {
		t.Fatalf("diags = %v", diags)
	}
	if !strings.Contains(diags[0].Detail, "Missing.Const") {
		t.Errorf("detail = %q", diags[0].Detail)
	}
}

func TestScanUnbalancedDelimiters(t *testing.T) {
	t.Parallel()

	src := `[SpecOption(Category = "Core", Name = "Broken"
public class Broken { }
`
	markers, diags := scan(t, src)
	if len(markers) != 0 {
		t.Fatalf("expected no markers, got %+v", markers)
	}
	if len(diags) != 1 || diags[0].Class != MalformedMarker {
		t.Fatalf("diags = %v", diags)
	}
}

func TestScanBareAttributeIgnored(t *testing.T) {
	t.Parallel()

	// An attribute with no argument list is valid C# but carries nothing
	// to extract; it is skipped without a diagnostic.
	src := `[SpecOption]
public class Unannotated { }

[SpecCapability]
public class AlsoUnannotated { }
`
	markers, diags := scan(t, src)
	if len(markers) != 0 || len(diags) != 0 {
		t.Fatalf("markers = %+v diags = %v", markers, diags)
	}
}

func TestScanOrphanedMarker(t *testing.T) {
	t.Parallel()

	src := `[SpecOption(Category = "Core", Name = "Orphan")]
public int notAClass;
`
	markers, diags := scan(t, src)
	if len(markers) != 0 {
		t.Fatalf("expected no markers, got %+v", markers)
	}
	if len(diags) != 1 || diags[0].Class != OrphanedMarker {
		t.Fatalf("diags = %v", diags)
	}
}

func TestScanOrphanBeyondLookahead(t *testing.T) {
	t.Parallel()

	src := "[SpecOption(Category = \"Core\", Name = \"Far\")]\n" +
		strings.Repeat("\n", lookaheadLines+5) +
		"public class TooFarAway { }\n"
	markers, diags := scan(t, src)
	if len(markers) != 0 {
		t.Fatalf("declaration beyond the lookahead window must orphan the marker, got %+v", markers)
	}
	if len(diags) != 1 || diags[0].Class != OrphanedMarker {
		t.Fatalf("diags = %v", diags)
	}
}

func TestScanRecoversPerMarker(t *testing.T) {
	t.Parallel()

	// One bad marker must not block the rest of the file.
	src := `[SpecOption(Category = "Core", Name = Broken.Ref)]
public class First { }

[SpecOption(Category = "Core", Name = "Second")]
public class Second { }
`
	markers, diags := scan(t, src)
	if len(markers) != 1 || markers[0].ClassName != "Second" {
		t.Fatalf("markers = %+v", markers)
	}
	if len(diags) != 1 {
		t.Fatalf("diags = %v", diags)
	}
}

func TestScanSimilarAttributeNameIgnored(t *testing.T) {
	t.Parallel()

	src := `[SpecOptionGroup(Category = "Core", Name = "Nope")]
public class Grouped { }
`
	markers, diags := scan(t, src)
	if len(markers) != 0 || len(diags) != 0 {
		t.Fatalf("markers = %+v diags = %v", markers, diags)
	}
}

func TestConstTableQualifiedFirst(t *testing.T) {
	t.Parallel()

	consts := NewConstTable()
	consts.AddSource(`public class A { public const string Why = "from A"; }`)
	consts.AddSource(`public class B { public const string Why = "from B"; }`)

	if v, ok := consts.Resolve("A.Why"); !ok || v != "from A" {
		t.Errorf("A.Why = %q, %v", v, ok)
	}
	if v, ok := consts.Resolve("B.Why"); !ok || v != "from B" {
		t.Errorf("B.Why = %q, %v", v, ok)
	}
	// Bare lookup falls back to the last declaration seen.
	if v, ok := consts.Resolve("Why"); !ok || v != "from B" {
		t.Errorf("Why = %q, %v", v, ok)
	}
	if _, ok := consts.Resolve("C.Other"); ok {
		t.Error("C.Other should not resolve")
	}
}
