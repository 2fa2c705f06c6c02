// Package jsgen serializes the catalogs as JS object literals. The two
// outputs are committed artifacts diffed in review, so the encoding is
// byte-deterministic: categories in alphabetical order, a fixed field
// order, every field always present.
package jsgen

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"specscan/internal/catalog"
)

var identKeyRe = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// Options encodes the options catalog as `const CODE_OPTIONS = {...};`.
func Options(opts catalog.Options) string {
	var b strings.Builder
	b.WriteString("const CODE_OPTIONS = {\n")

	cats := opts.Categories()
	for i, cat := range cats {
		entries := opts[cat]
		fmt.Fprintf(&b, "    %s: [\n", encodeKey(cat))
		for j, o := range entries {
			b.WriteString("        {\n")
			writeField(&b, "id", o.ID, false)
			writeField(&b, "name", o.Name, false)
			writeField(&b, "description", o.Description, false)
			writeField(&b, "whyItMatters", o.WhyItMatters, false)
			writeField(&b, "codeClass", o.CodeClass, false)
			writeField(&b, "scheme", o.Scheme, false)
			writeField(&b, "lastModified", o.LastModified, false)
			writeField(&b, "category", o.Category, true)
			b.WriteString("        }" + comma(j, len(entries)) + "\n")
		}
		b.WriteString("    ]" + comma(i, len(cats)) + "\n")
	}

	b.WriteString("};\n")
	return b.String()
}

// Capabilities encodes the capabilities catalog as
// `const CODE_CAPABILITIES = {...};`. parentOption is always present,
// null when the capability is standalone.
func Capabilities(caps catalog.Capabilities) string {
	var b strings.Builder
	b.WriteString("const CODE_CAPABILITIES = {\n")

	cats := caps.Categories()
	for i, cat := range cats {
		entries := caps[cat]
		fmt.Fprintf(&b, "    %s: [\n", encodeKey(cat))
		for j, c := range entries {
			b.WriteString("        {\n")
			writeField(&b, "id", c.ID, false)
			writeField(&b, "name", c.Name, false)
			writeField(&b, "description", c.Description, false)
			writeField(&b, "whyItMatters", c.WhyItMatters, false)
			writeField(&b, "methodName", c.MethodName, false)
			writeField(&b, "returnType", c.ReturnType, false)
			writeField(&b, "parameters", c.Parameters, false)
			writeParent(&b, c.Parent)
			writeField(&b, "codeClass", c.CodeClass, false)
			writeField(&b, "scheme", c.Scheme, false)
			writeField(&b, "lastModified", c.LastModified, false)
			writeField(&b, "category", c.Category, true)
			b.WriteString("        }" + comma(j, len(entries)) + "\n")
		}
		b.WriteString("    ]" + comma(i, len(cats)) + "\n")
	}

	b.WriteString("};\n")
	return b.String()
}

func writeField(b *strings.Builder, key, value string, last bool) {
	sep := ","
	if last {
		sep = ""
	}
	fmt.Fprintf(b, "            %s: %s%s\n", key, quote(value), sep)
}

func writeParent(b *strings.Builder, p *catalog.ParentRef) {
	if p == nil {
		b.WriteString("            parentOption: null,\n")
		return
	}
	fmt.Fprintf(b, "            parentOption: { id: %s, name: %s },\n", quote(p.ID), quote(p.Name))
}

func comma(i, n int) string {
	if i < n-1 {
		return ","
	}
	return ""
}

// encodeKey leaves identifier-safe category keys bare and quotes the rest
// (categories may contain spaces).
func encodeKey(key string) string {
	if identKeyRe.MatchString(key) {
		return key
	}
	return quote(key)
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}

// WriteFileAtomic writes content to a temporary file in the destination
// directory and renames it over path, so a crash mid-run leaves any prior
// output untouched and readers never observe a partial catalog.
func WriteFileAtomic(path, content string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp output: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
