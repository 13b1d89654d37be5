// Command blcc is the braceless-C++ translator CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/braceless-cpp/blcc/pkg/build"
	"github.com/braceless-cpp/blcc/pkg/config"
	"github.com/braceless-cpp/blcc/pkg/diagnostics"
	blccerrors "github.com/braceless-cpp/blcc/pkg/errors"
	"github.com/braceless-cpp/blcc/pkg/sourcemap"
	"github.com/braceless-cpp/blcc/pkg/translator"
	"github.com/braceless-cpp/blcc/pkg/ui"
)

var version = "0.1.0-alpha"

func main() {
	rootCmd := &cobra.Command{
		Use:          "blcc",
		Short:        "blcc - a braceless C++ source-to-source translator",
		Version:      version,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			ui.PrintHelp(version)
		},
	}

	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		ui.PrintHelp(version)
	})
	rootCmd.SetHelpCommand(&cobra.Command{
		Use:   "help [command]",
		Short: "Help about any command",
		Run: func(cmd *cobra.Command, args []string) {
			ui.PrintHelp(version)
		},
	})

	rootCmd.AddCommand(translateCmd())
	rootCmd.AddCommand(diagnoseCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func translateCmd() *cobra.Command {
	var (
		output      string
		watch       bool
		parallel    bool
		incremental bool
		jobs        int
		searchDirs  []string
	)

	cmd := &cobra.Command{
		Use:   "translate [file.blcpp...]",
		Short: "Translate braceless C++ source files to braced C++",
		Long: `Translate inlines local headers, groups indentation into logical
blocks, and emits standard braced C++ alongside a source map that tracks
every generated line back to the file and line it came from.

Example:
  blcc translate hello.blcpp          # Generates hello.cpp
  blcc translate -o out.cpp main.blcpp
  blcc translate --parallel --incremental src/*.blcpp`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(args, output, watch, parallel, incremental, jobs, searchDirs)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file path (single file only; default: replace source extension with .cpp)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Watch input files and retranslate whenever one changes")
	cmd.Flags().BoolVar(&parallel, "parallel", false, "Translate independent files concurrently")
	cmd.Flags().BoolVarP(&incremental, "incremental", "i", false, "Skip files whose content and includes are unchanged")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "Parallel worker count (default 4)")
	cmd.Flags().StringSliceVar(&searchDirs, "search-dir", nil, "Additional #include search directory (repeatable)")

	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of blcc",
		Run: func(cmd *cobra.Command, args []string) {
			ui.PrintVersionInfo(version)
		},
	}
}

func runTranslate(files []string, output string, watch, parallel, incremental bool, jobs int, searchDirs []string) error {
	cfg, err := config.Load(&config.Config{Dialect: config.DialectConfig{SearchDirs: searchDirs}})
	if err != nil {
		return err
	}

	out := ui.NewTranslateOutput()
	out.PrintHeader(version)
	out.PrintTranslateStart(len(files))

	if output != "" {
		if len(files) != 1 {
			return fmt.Errorf("--output only applies to a single input file")
		}
		if err := translateOne(files[0], output, out, cfg); err != nil {
			out.PrintSummary(false, err.Error())
			return err
		}
		out.PrintSummary(true, "")
	} else {
		if err := translateWorkspace(files, parallel, incremental, jobs, cfg, out); err != nil {
			return err
		}
	}

	if watch {
		return watchAndRetranslate(files, output, parallel, incremental, jobs, cfg, out)
	}
	return nil
}

// translateWorkspace runs the multi-file path used when -o/--output isn't
// given: every file is translated to its dialect-derived path, optionally
// in parallel and/or skipping unchanged files.
func translateWorkspace(files []string, parallel, incremental bool, jobs int, cfg *config.Config, out *ui.TranslateOutput) error {
	root, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to resolve working directory: %w", err)
	}

	sources := make([]build.SourceFile, 0, len(files))
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", f, err)
		}
		rel, err := filepath.Rel(root, abs)
		if err != nil {
			return fmt.Errorf("failed to relativize %s: %w", f, err)
		}
		sources = append(sources, build.SourceFile{Path: rel})
	}

	ws := build.NewWorkspace(root, build.Options{
		Parallel:    parallel,
		Incremental: incremental,
		Verbose:     false,
		Jobs:        jobs,
		TranslatorOpts: translator.Options{
			HeaderExt:  cfg.Dialect.HeaderExt,
			SearchDirs: cfg.Dialect.SearchDirs,
			TabWidth:   cfg.Dialect.TabWidth,
		},
	})

	results, err := ws.TranslateAll(sources)
	if err != nil {
		out.PrintSummary(false, err.Error())
		return err
	}

	var failed []build.Result
	for _, r := range results {
		status := ui.StepSuccess
		msg := ""
		if r.Stats.Skipped {
			status = ui.StepSkipped
			msg = "unchanged, using cached output"
		} else if !r.Success {
			status = ui.StepError
			msg = r.Error.Error()
			failed = append(failed, r)
		}
		out.PrintStep(ui.Step{Name: r.File.Path, Status: status, Message: msg})
	}

	if len(failed) > 0 {
		err := fmt.Errorf("%d of %d files failed to translate", len(failed), len(results))
		out.PrintSummary(false, err.Error())
		return err
	}

	out.PrintSummary(true, "")
	return nil
}

// watchAndRetranslate blocks, retranslating files whenever one of them
// changes on disk, until the watcher's event channel closes (the process
// is interrupted). Only write/create events on the watched files
// themselves trigger a retranslation; unrelated activity in the same
// directory is ignored.
func watchAndRetranslate(files []string, output string, parallel, incremental bool, jobs int, cfg *config.Config, out *ui.TranslateOutput) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}
	defer watcher.Close()

	targets := make(map[string]bool, len(files))
	watchedDirs := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", f, err)
		}
		targets[abs] = true

		dir := filepath.Dir(abs)
		if !watchedDirs[dir] {
			if err := watcher.Add(dir); err != nil {
				return fmt.Errorf("failed to watch %s: %w", dir, err)
			}
			watchedDirs[dir] = true
		}
	}

	out.PrintInfo("Watching for changes, press Ctrl+C to stop")
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || !targets[abs] {
				continue
			}

			out.PrintInfo(fmt.Sprintf("%s changed, retranslating", event.Name))
			if output != "" {
				if err := translateOne(files[0], output, out, cfg); err != nil {
					out.PrintWarning(err.Error())
				}
				continue
			}
			if err := translateWorkspace(files, parallel, incremental, jobs, cfg, out); err != nil {
				out.PrintWarning(err.Error())
			}
		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			out.PrintWarning(fmt.Sprintf("watch error: %v", werr))
		}
	}
}

// translateOne runs the single-file path used when -o/--output names an
// explicit destination, printing per-stage timing the way a workspace
// translation can't (a Workspace writes straight to the dialect-derived
// path for every file in the batch).
func translateOne(inputPath, outputPath string, out *ui.TranslateOutput, cfg *config.Config) error {
	out.PrintFileStart(inputPath, outputPath)

	translateStart := time.Now()
	text, mapper, err := translator.Translate(inputPath, translator.Options{
		HeaderExt:  cfg.Dialect.HeaderExt,
		SearchDirs: cfg.Dialect.SearchDirs,
		TabWidth:   cfg.Dialect.TabWidth,
	})
	translateDuration := time.Since(translateStart)

	if err != nil {
		out.PrintStep(ui.Step{Name: ui.StepTranslate, Status: ui.StepError, Duration: translateDuration})
		if _, statErr := os.Stat(inputPath); os.IsNotExist(statErr) {
			return blccerrors.NewSourceNotFound(inputPath, statErr)
		}
		return err
	}
	out.PrintStep(ui.Step{Name: ui.StepTranslate, Status: ui.StepSuccess, Duration: translateDuration})

	writeStart := time.Now()
	if err := os.WriteFile(outputPath, []byte(text), 0o644); err != nil {
		out.PrintStep(ui.Step{Name: "write", Status: ui.StepError, Duration: time.Since(writeStart)})
		return fmt.Errorf("failed to write %s: %w", outputPath, err)
	}

	if result := sourcemap.NewValidator(mapper.SourceMap()).Validate(); !result.Valid {
		out.PrintWarning(fmt.Sprintf("source map failed validation: %d error(s)", len(result.Errors)))
		for _, e := range result.Errors {
			out.PrintWarning(fmt.Sprintf("  %s: %s", e.Type, e.Message))
		}
	}

	if cfg.SourceMap.Enabled {
		if err := writeSourceMap(mapper, outputPath, cfg.SourceMap.Format); err != nil {
			out.PrintWarning(fmt.Sprintf("failed to write source map: %v", err))
		}
	}

	out.PrintStep(ui.Step{
		Name:     ui.StepMap,
		Status:   ui.StepSuccess,
		Duration: time.Since(writeStart),
		Message:  fmt.Sprintf("%d bytes written", len(text)),
	})
	return nil
}

// writeSourceMap emits a standard Source Map v3 document (the format
// editors and clangd-adjacent tooling already know how to read) via
// sourcemap.Generator, built from mapper's internal line table. It also
// writes mapper's own line-table JSON as a ".blcc.map" sidecar, which
// `blcc validate --map` reloads without needing to retranslate.
func writeSourceMap(mapper *sourcemap.Mapper, outputPath string, format config.SourceMapFormat) error {
	if format == config.FormatNone {
		return nil
	}

	internal, err := mapper.SourceMap().ToJSON()
	if err != nil {
		return err
	}
	if err := os.WriteFile(outputPath+".blcc.map", internal, 0o644); err != nil {
		return err
	}

	gen := sourcemap.NewGeneratorFromSourceMap(mapper.SourceMap())
	if format == config.FormatSeparate || format == config.FormatBoth {
		data, err := gen.Generate()
		if err != nil {
			return err
		}
		if err := os.WriteFile(outputPath+".map", data, 0o644); err != nil {
			return err
		}
	}
	if format == config.FormatInline || format == config.FormatBoth {
		comment, err := gen.GenerateInline()
		if err != nil {
			return err
		}
		f, err := os.OpenFile(outputPath, os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		defer f.Close()
		if _, err := f.WriteString("\n" + comment + "\n"); err != nil {
			return err
		}
	}
	return nil
}

func diagnoseCmd() *cobra.Command {
	var (
		source  string
		mapFile string
		genFile string
		color   bool
	)

	cmd := &cobra.Command{
		Use:   "diagnose [compiler-output-file]",
		Short: "Patch a captured compiler output file to point at original source",
		Long: `Diagnose reads a downstream C++ compiler's captured output (a file, or
stdin if no file is given) and rewrites each diagnostic's file:line back to
the braceless source that produced the corresponding generated line,
leaving column and message text untouched.

--source retranslates the original file to build the mapping. --map reads
a standard Source Map v3 file already written by "blcc translate" instead,
which is faster when the source hasn't changed since that map was built.

Example:
  g++ -c hello.cpp 2> errors.txt
  blcc diagnose --source hello.blcpp errors.txt
  blcc diagnose --map hello.cpp.map errors.txt`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if source == "" && mapFile == "" {
				return fmt.Errorf("--source or --map is required")
			}
			var r *os.File = os.Stdin
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", args[0], err)
				}
				defer f.Close()
				r = f
			}
			if mapFile != "" {
				return runDiagnoseFromMap(mapFile, genFile, r, color)
			}
			return runDiagnose(source, r, color)
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "Path to the original .blcpp/.blh source the diagnostics were generated from")
	cmd.Flags().StringVar(&mapFile, "map", "", "Path to a Source Map v3 file written by \"blcc translate\", instead of retranslating --source")
	cmd.Flags().StringVar(&genFile, "generated", "", "Generated file name diagnostics are reported against (default: --map with \".map\" trimmed)")
	cmd.Flags().BoolVar(&color, "color", true, "Colorize error/warning/note severity")

	return cmd
}

func runDiagnose(source string, r *os.File, color bool) error {
	cfg, err := config.Load(nil)
	if err != nil {
		return err
	}

	_, mapper, err := translator.Translate(source, translator.Options{
		HeaderExt:  cfg.Dialect.HeaderExt,
		SearchDirs: cfg.Dialect.SearchDirs,
		TabWidth:   cfg.Dialect.TabWidth,
	})
	if err != nil {
		return fmt.Errorf("failed to translate %s for diagnostic mapping: %w", source, err)
	}

	patcher := diagnostics.NewPatcher(mapper, mapper.SourceMap().GeneratedFile, color)
	return patcher.PatchStream(r, os.Stdout)
}

// runDiagnoseFromMap patches diagnostics using a previously-written Source
// Map v3 file, via sourcemap.Consumer, without retranslating the source.
func runDiagnoseFromMap(mapFile, genFile string, r *os.File, color bool) error {
	data, err := os.ReadFile(mapFile)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", mapFile, err)
	}
	consumer, err := sourcemap.NewConsumer(data)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", mapFile, err)
	}
	if genFile == "" {
		genFile = strings.TrimSuffix(mapFile, ".map")
	}

	patcher := diagnostics.NewPatcher(consumer, genFile, color)
	return patcher.PatchStream(r, os.Stdout)
}

func validateCmd() *cobra.Command {
	var (
		mapFile string
		strict  bool
	)

	cmd := &cobra.Command{
		Use:   "validate [file.blcpp]",
		Short: "Check a source map's internal consistency and round-trip accuracy",
		Long: `Validate checks that a source map's mappings are well-formed and that
every original position round-trips through its generated line back to
itself. Give it a braceless source file to retranslate and check fresh,
or --map to check a ".blcc.map" sidecar already written by "blcc translate".

Example:
  blcc validate hello.blcpp
  blcc validate --map hello.cpp.blcc.map`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if mapFile == "" && len(args) == 0 {
				return fmt.Errorf("a source file or --map is required")
			}
			return runValidate(args, mapFile, strict)
		},
	}

	cmd.Flags().StringVar(&mapFile, "map", "", "Path to a \".blcc.map\" file to validate, instead of retranslating a source file")
	cmd.Flags().BoolVar(&strict, "strict", false, "Treat warnings as errors")

	return cmd
}

func runValidate(args []string, mapFile string, strict bool) error {
	var v *sourcemap.Validator
	if mapFile != "" {
		loaded, err := sourcemap.NewValidatorFromFile(mapFile)
		if err != nil {
			return err
		}
		v = loaded
	} else {
		cfg, err := config.Load(nil)
		if err != nil {
			return err
		}
		_, mapper, err := translator.Translate(args[0], translator.Options{
			HeaderExt:  cfg.Dialect.HeaderExt,
			SearchDirs: cfg.Dialect.SearchDirs,
			TabWidth:   cfg.Dialect.TabWidth,
		})
		if err != nil {
			return fmt.Errorf("failed to translate %s for validation: %w", args[0], err)
		}
		v = sourcemap.NewValidator(mapper.SourceMap())
	}

	v.SetStrict(strict)
	result := v.Validate()
	fmt.Print(result.String())
	if !result.Valid {
		return fmt.Errorf("source map is invalid")
	}
	return nil
}
