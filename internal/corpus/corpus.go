// Package corpus loads C# source modules from a directory tree or a
// pre-serialized JSON record file.
package corpus

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	ignore "github.com/sabhiram/go-gitignore"
)

// Module is one source unit to be scanned. Code is the full source text.
// LastModified is "2006-01-02T15:04:05" in directory mode (file mtime) or
// whatever the JSON record carried; downstream truncates it to the date.
type Module struct {
	Name         string `json:"moduleName"`
	Path         string `json:"-"` // relative to the scan root; empty in JSON mode
	Scheme       string `json:"scheme"`
	Code         string `json:"code"`
	LastModified string `json:"lastModified"`
}

const sourceExt = ".cs"

var skipDirs = map[string]struct{}{
	"bin":          {},
	"obj":          {},
	"node_modules": {},
	".git":         {},
	".hg":          {},
	".svn":         {},
	"packages":     {},
	"build":        {},
	"dist":         {},
}

// LoadDir walks root recursively and returns one Module per .cs file, in
// lexical path order. The scheme is the first path segment under root;
// files directly at the root get an empty scheme. An unreadable root or
// file aborts the load.
func LoadDir(root string, logger *log.Logger) ([]Module, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("input path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: not a directory (use --json for record files)", root)
	}

	gi := loadGitignore(root)

	var modules []Module

	walkErr := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		name := d.Name()

		if d.IsDir() {
			if path == root {
				return nil
			}
			if _, skip := skipDirs[name]; skip || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") || d.Type()&os.ModeSymlink != 0 {
			return nil
		}
		if filepath.Ext(name) != sourceExt {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		if gi != nil && gi.MatchesPath(rel) {
			logger.Debug("IGNORE", "file", rel)
			return nil
		}

		code, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", rel, err)
		}

		fi, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", rel, err)
		}

		m := Module{
			Name:         strings.TrimSuffix(name, sourceExt),
			Path:         rel,
			Scheme:       schemeFor(rel),
			Code:         string(code),
			LastModified: fi.ModTime().Format("2006-01-02T15:04:05"),
		}
		modules = append(modules, m)

		logger.Debug("READ", "file", rel, "scheme", m.Scheme)
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	// WalkDir is already lexical per directory; sorting by relative path
	// pins the corpus-wide tie-break order regardless of nesting.
	sort.Slice(modules, func(i, j int) bool {
		return modules[i].Path < modules[j].Path
	})

	return modules, nil
}

// LoadJSON reads a JSON array of module records.
func LoadJSON(path string) ([]Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("input path: %w", err)
	}

	var modules []Module
	if err := json.Unmarshal(data, &modules); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return modules, nil
}

// schemeFor returns the first path segment of a root-relative path, or ""
// for files directly at the root.
func schemeFor(rel string) string {
	rel = filepath.ToSlash(rel)
	if i := strings.IndexByte(rel, '/'); i >= 0 {
		return rel[:i]
	}
	return ""
}

func loadGitignore(root string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return gi
}
