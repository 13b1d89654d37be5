// Package build translates a directory tree of braceless C++ sources,
// tracking an incremental cache and running independent files in parallel.
package build

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/braceless-cpp/blcc/pkg/translator"
)

// Workspace translates every source file under Root. All methods are safe
// for concurrent use: each file's translation run is disjoint state (spec
// §5), so there is no build order to compute. Unlike a Go package graph,
// a header cycle or missing include never blocks another file's
// translation, it only affects that one file's own output.
type Workspace struct {
	Root    string
	Options Options
	mu      sync.Mutex // protects cache writes during parallel translation
}

// Options configures workspace translation behavior.
type Options struct {
	Parallel       bool // translate files concurrently
	Incremental    bool // skip files whose content and includes are unchanged
	Verbose        bool
	Jobs           int // parallel worker count (0 = default of 4)
	TranslatorOpts translator.Options
}

// SourceFile is one file to translate, relative to the workspace root.
type SourceFile struct {
	Path string
}

// Result is the outcome of translating one file.
type Result struct {
	File    SourceFile
	Success bool
	Error   error
	Stats   Stats
}

// Stats tracks per-file translation statistics.
type Stats struct {
	Skipped  bool
	Duration int64 // milliseconds
}

// NewWorkspace creates a workspace rooted at root.
func NewWorkspace(root string, opts Options) *Workspace {
	if opts.Jobs == 0 {
		opts.Jobs = 4
	}
	return &Workspace{Root: root, Options: opts}
}

// TranslateAll translates every file in files, returning one Result per
// file. An include cycle between workspace files does not fail the run or
// any file's Result; pkg/header already resolves it safely per file. The
// cycle warning is printed to stdout only when Options.Verbose is set.
func (w *Workspace) TranslateAll(files []SourceFile) ([]Result, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no files to translate")
	}

	graph, err := buildDependencyGraph(files, w.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to scan workspace includes: %w", err)
	}

	var cycleWarning string
	if cycles := detectCircularDependencies(graph); len(cycles) > 0 {
		cycleStrs := make([]string, len(cycles))
		for i, cycle := range cycles {
			cycleStrs[i] = strings.Join(cycle, " -> ")
		}
		cycleWarning = "circular #include detected (pkg/header drops the repeat): " + strings.Join(cycleStrs, "; ")
	}

	var results []Result
	if w.Options.Parallel {
		results, err = w.translateParallel(files)
	} else {
		results, err = w.translateSequential(files)
	}
	if err != nil {
		return results, err
	}

	if cycleWarning != "" && w.Options.Verbose {
		fmt.Println(cycleWarning)
	}

	return results, nil
}

func (w *Workspace) translateSequential(files []SourceFile) ([]Result, error) {
	results := make([]Result, 0, len(files))
	for _, f := range files {
		if w.Options.Verbose {
			fmt.Printf("Translating: %s\n", f.Path)
		}
		results = append(results, w.translateFile(f))
	}
	return results, nil
}

func (w *Workspace) translateParallel(files []SourceFile) ([]Result, error) {
	results := make([]Result, len(files))
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, w.Options.Jobs)

	for i, f := range files {
		wg.Add(1)
		go func(idx int, file SourceFile) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			if w.Options.Verbose {
				fmt.Printf("  Translating: %s\n", file.Path)
			}
			results[idx] = w.translateFile(file)
		}(i, f)
	}

	wg.Wait()
	return results, nil
}

// translateFile translates a single source file. Safe for concurrent use:
// each file writes to its own output path, and cache writes are mutex-guarded.
func (w *Workspace) translateFile(f SourceFile) Result {
	result := Result{File: f}
	fullPath := filepath.Join(w.Root, f.Path)

	cache, err := NewCache(w.Root)
	if err != nil {
		result.Error = fmt.Errorf("failed to initialize cache: %w", err)
		return result
	}

	if w.Options.Incremental {
		needsTranslate, err := cache.NeedsTranslate(fullPath)
		if err != nil {
			result.Error = fmt.Errorf("cache check failed for %s: %w", f.Path, err)
			return result
		}
		if !needsTranslate {
			result.Success = true
			result.Stats.Skipped = true
			if w.Options.Verbose {
				fmt.Printf("    Skipping (cached): %s\n", f.Path)
			}
			return result
		}
	}

	out, _, err := translator.Translate(fullPath, w.Options.TranslatorOpts)
	if err != nil {
		result.Error = fmt.Errorf("translate failed for %s: %w", f.Path, err)
		return result
	}

	outputPath := GetTranslatedPath(fullPath)
	if err := os.WriteFile(outputPath, []byte(out), 0o644); err != nil {
		result.Error = fmt.Errorf("failed to write %s: %w", outputPath, err)
		return result
	}

	if w.Options.Incremental {
		w.mu.Lock()
		err := cache.MarkTranslated(fullPath)
		w.mu.Unlock()
		if err != nil {
			result.Error = fmt.Errorf("cache update failed for %s: %w", f.Path, err)
			return result
		}
	}

	result.Success = true
	return result
}

// GetTranslatedPath returns the .cpp path for a dialect source path.
func GetTranslatedPath(sourcePath string) string {
	if !filepath.IsAbs(sourcePath) {
		sourcePath, _ = filepath.Abs(sourcePath)
	}
	return strings.TrimSuffix(sourcePath, filepath.Ext(sourcePath)) + ".cpp"
}
