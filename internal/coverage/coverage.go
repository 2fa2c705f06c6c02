// Package coverage reports how many externally-visible methods of each
// class carry a capability marker. Classes are found with a tree-sitter
// C# parse, so visibility follows the real grammar rather than the
// marker scanner's lookahead rules.
package coverage

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/csharp"

	"specscan/internal/corpus"
	"specscan/internal/marker"
)

// ClassCoverage is one row of the report: a class and its documented
// fraction. Visible counts public non-constructor methods.
type ClassCoverage struct {
	Module  string
	Class   string
	Marked  int
	Visible int
}

// Report aggregates per-class rows plus corpus-wide totals.
type Report struct {
	Classes []ClassCoverage
	Marked  int
	Visible int
}

// Analyze walks every module and counts public non-constructor methods
// per class against the capability markers bound to that class. markers
// is aligned index-for-index with modules.
func Analyze(modules []corpus.Module, markers [][]marker.Marker) (*Report, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(csharp.GetLanguage())

	report := &Report{}

	for i, mod := range modules {
		if mod.Code == "" {
			continue
		}

		marked := make(map[string]int)
		for _, m := range markers[i] {
			if m.Target == marker.MethodTarget {
				class := m.ClassName
				if class == "" {
					class = mod.Name
				}
				marked[class]++
			}
		}

		source := []byte(mod.Code)
		tree, err := parser.ParseCtx(context.Background(), nil, source)
		if err != nil {
			return nil, err
		}

		var rows []ClassCoverage
		collectClasses(tree.RootNode(), source, mod.Name, marked, &rows)
		tree.Close()

		for _, row := range rows {
			report.Marked += row.Marked
			report.Visible += row.Visible
		}
		report.Classes = append(report.Classes, rows...)
	}

	return report, nil
}

func collectClasses(node *sitter.Node, source []byte, module string, marked map[string]int, rows *[]ClassCoverage) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "class_declaration" {
			name := classNameOf(child, source)
			*rows = append(*rows, ClassCoverage{
				Module:  module,
				Class:   name,
				Marked:  marked[name],
				Visible: countPublicMethods(child, source),
			})
		}
		collectClasses(child, source, module, marked, rows)
	}
}

func classNameOf(classNode *sitter.Node, source []byte) string {
	for i := 0; i < int(classNode.ChildCount()); i++ {
		child := classNode.Child(i)
		if child.Type() == "identifier" {
			return nodeText(child, source)
		}
	}
	return ""
}

// countPublicMethods counts method_declaration children of the class body
// carrying a public modifier. Constructors are a distinct node kind and
// never counted; nested classes keep their own rows.
func countPublicMethods(classNode *sitter.Node, source []byte) int {
	body := classBody(classNode)
	if body == nil {
		return 0
	}

	count := 0
	for i := 0; i < int(body.ChildCount()); i++ {
		member := body.Child(i)
		if member.Type() != "method_declaration" {
			continue
		}
		if hasModifier(member, source, "public") {
			count++
		}
	}
	return count
}

func classBody(classNode *sitter.Node) *sitter.Node {
	for i := 0; i < int(classNode.ChildCount()); i++ {
		child := classNode.Child(i)
		if child.Type() == "declaration_list" {
			return child
		}
	}
	return nil
}

func hasModifier(node *sitter.Node, source []byte, want string) bool {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "modifier" && nodeText(child, source) == want {
			return true
		}
	}
	return false
}

func nodeText(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}
