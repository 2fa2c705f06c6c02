package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"specscan/internal/catalog"
	"specscan/internal/corpus"
	"specscan/internal/coverage"
	"specscan/internal/jsgen"
	"specscan/internal/marker"
	"specscan/internal/render"
)

var extractCmd = &cobra.Command{
	Use:   "extract <input>",
	Short: "Scan a corpus and write the option and capability catalogs",
	Long: `Extract walks a directory of .cs files (or, with --json, reads a JSON
record file) and compiles every [SpecOption] and [SpecCapability] marker
into the two catalog files. A scan that finds nothing still succeeds;
only an unreadable input aborts the run.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := extractFlags
		cfg.Input = args[0]
		return runExtract(cfg, cmd.OutOrStdout(), os.Stderr)
	},
}

var extractFlags extractConfig

func init() {
	f := extractCmd.Flags()
	f.BoolVar(&extractFlags.JSON, "json", false, "treat input as a JSON record file instead of a directory")
	f.StringVarP(&extractFlags.OptionsOut, "output", "o", "./code-options.js", "output JS file for spec options")
	f.StringVarP(&extractFlags.CapabilitiesOut, "capabilities-output", "c", "./code-capabilities.js", "output JS file for spec capabilities")
	f.BoolVar(&extractFlags.Preview, "preview", false, "print a summary of extracted options and capabilities")
	f.BoolVar(&extractFlags.Coverage, "coverage", false, "print documented vs total public methods per class")
	f.BoolVarP(&extractFlags.Verbose, "verbose", "v", false, "print per-file scan diagnostics")
}

type extractConfig struct {
	Input           string
	OptionsOut      string
	CapabilitiesOut string
	JSON            bool
	Preview         bool
	Coverage        bool
	Verbose         bool
}

// runExtract is the whole pipeline: load modules, pre-pass constants, scan
// markers, build catalogs, serialize, report. Scan-level skips log at
// Debug (visible with -v); slug collisions warn; only unreadable input is
// fatal.
func runExtract(cfg extractConfig, stdout, stderr io.Writer) error {
	logger := log.NewWithOptions(stderr, log.Options{Prefix: "extract"})
	if cfg.Verbose {
		logger.SetLevel(log.DebugLevel)
	} else {
		logger.SetLevel(log.WarnLevel)
	}

	var modules []corpus.Module
	var err error
	if cfg.JSON {
		modules, err = corpus.LoadJSON(cfg.Input)
	} else {
		modules, err = corpus.LoadDir(cfg.Input, logger)
	}
	if err != nil {
		return err
	}
	logger.Debug("corpus loaded", "modules", len(modules), "json", cfg.JSON)

	consts := marker.NewConstTable()
	for _, mod := range modules {
		consts.AddSource(mod.Code)
	}
	logger.Debug("constant pre-pass", "constants", consts.Len())

	builder := catalog.NewBuilder()
	marks := make([][]marker.Marker, len(modules))
	for i, mod := range modules {
		found, diags := marker.Scan(moduleFile(mod), mod.Code, consts)
		marks[i] = found
		for _, d := range diags {
			logger.Debug("SKIP", "class", string(d.Class), "at", fmt.Sprintf("%s:%d", d.File, d.Line), "detail", d.Detail)
		}
		if len(found) > 0 {
			logger.Debug("FOUND", "file", moduleFile(mod), "markers", len(found))
		}
		builder.AddModule(mod, found)
	}

	opts, caps, warns := builder.Finish()
	for _, d := range warns {
		if d.Class == marker.SlugCollision {
			logger.Warn(d.Detail)
		} else {
			logger.Debug("SKIP", "class", string(d.Class), "at", fmt.Sprintf("%s:%d", d.File, d.Line), "detail", d.Detail)
		}
	}

	if err := jsgen.WriteFileAtomic(cfg.OptionsOut, jsgen.Options(opts)); err != nil {
		return err
	}
	if err := jsgen.WriteFileAtomic(cfg.CapabilitiesOut, jsgen.Capabilities(caps)); err != nil {
		return err
	}

	if cfg.Verbose {
		logger.Info("extracted options", "count", opts.Total(), "categories", len(opts), "file", cfg.OptionsOut)
		for _, cat := range opts.Categories() {
			logger.Debug("category", "name", cat, "options", len(opts[cat]))
		}
		logger.Info("extracted capabilities", "count", caps.Total(), "categories", len(caps), "file", cfg.CapabilitiesOut)
		for _, cat := range caps.Categories() {
			logger.Debug("category", "name", cat, "capabilities", len(caps[cat]))
		}
	}

	if cfg.Preview {
		fmt.Fprint(stdout, render.Preview(opts, caps))
	}
	if cfg.Coverage {
		report, err := coverage.Analyze(modules, marks)
		if err != nil {
			return fmt.Errorf("coverage analysis: %w", err)
		}
		fmt.Fprint(stdout, render.Coverage(report))
	}

	if !cfg.Preview && !cfg.Coverage && !cfg.Verbose {
		fmt.Fprintf(stdout, "Extracted %d spec options -> %s\n", opts.Total(), cfg.OptionsOut)
		fmt.Fprintf(stdout, "Extracted %d spec capabilities -> %s\n", caps.Total(), cfg.CapabilitiesOut)
	}

	return nil
}

// moduleFile names a module in diagnostics: the root-relative path in
// directory mode, the record's moduleName in JSON mode.
func moduleFile(m corpus.Module) string {
	if m.Path != "" {
		return m.Path
	}
	return m.Name
}
