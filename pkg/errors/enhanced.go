// Package errors provides rustc-style diagnostic formatting for blcc.
// Of the error taxonomy only SourceNotFound is fatal (spec §7); include
// cycles, unresolved includes, malformed lexemes, dedent underruns, and a
// dangling do/while are all absorbed in-band by pkg/header/pkg/token/pkg/block.
// This package exists to render that one fatal case, and any other error a
// caller wants to report, with a source snippet and caret underline.
package errors

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/braceless-cpp/blcc/pkg/sourcemap"
)

// EnhancedError provides rustc-style error messages with source snippets
type EnhancedError struct {
	// Basic error information
	Message  string
	Filename string
	Line     int // 1-indexed
	Column   int // 1-indexed
	Length   int // Length of error span (for underline)

	// Source context
	SourceLines   []string // Lines to display (with context)
	HighlightLine int      // Which line in SourceLines has error (0-indexed)

	// Rich diagnostics
	Annotation   string   // Text after ^^^^ ("expected a header search directory")
	Suggestion   string   // Multi-line suggestion block
	MissingItems []string // For exhaustiveness-style reports: missing items
}

// sourceCache caches file contents to avoid repeated reads
// Cache is bounded to prevent memory leaks in long-running processes (LSP server)
var (
	sourceCache      = make(map[string][]string)
	sourceCacheMu    sync.RWMutex
	sourceCacheLimit = 100 // Keep last 100 files (least recently added is evicted when exceeded)
	sourceCacheKeys  = make([]string, 0, sourceCacheLimit)
)

// NewEnhancedError creates an enhanced error anchored at loc.
func NewEnhancedError(loc sourcemap.SourceLocation, message string) *EnhancedError {
	if loc.File == "" || loc.Line <= 0 {
		return &EnhancedError{
			Message:  message,
			Filename: "unknown",
			Length:   1,
		}
	}

	sourceLines, highlightIdx, extractErr := extractSourceLines(loc.File, loc.Line, 2)

	err := &EnhancedError{
		Message:       message,
		Filename:      loc.File,
		Line:          loc.Line,
		Column:        loc.Column,
		Length:        1,
		SourceLines:   sourceLines,
		HighlightLine: highlightIdx,
	}

	if extractErr != nil {
		err.Annotation = fmt.Sprintf("(source unavailable: %v)", extractErr)
	}

	return err
}

// NewEnhancedErrorSpan creates an enhanced error spanning start to end.
// Only the column length is derived from end; end.Line is ignored when it
// differs from start.Line, since the caret underline is single-line.
func NewEnhancedErrorSpan(start, end sourcemap.SourceLocation, message string) *EnhancedError {
	err := NewEnhancedError(start, message)

	if start.Line == end.Line {
		length := end.Column - start.Column
		if length < 1 {
			length = 1
		}
		err.Length = length
	}

	return err
}

// NewSourceNotFound reports the one fatal error in the translation
// pipeline: the root source path named on the command line could not be
// opened (spec §7, SourceNotFound).
func NewSourceNotFound(path string, cause error) *EnhancedError {
	return &EnhancedError{
		Message:    fmt.Sprintf("cannot open source file %s", path),
		Filename:   path,
		Length:     1,
		Annotation: cause.Error(),
	}
}

// WithAnnotation adds an annotation (text after ^^^^)
func (e *EnhancedError) WithAnnotation(annotation string) *EnhancedError {
	e.Annotation = annotation
	return e
}

// WithSuggestion adds a suggestion block
func (e *EnhancedError) WithSuggestion(suggestion string) *EnhancedError {
	e.Suggestion = suggestion
	return e
}

// WithMissingItems adds missing items (for exhaustiveness-style reports)
func (e *EnhancedError) WithMissingItems(items []string) *EnhancedError {
	e.MissingItems = items
	return e
}

// Format produces rustc-style error message
func (e *EnhancedError) Format() string {
	var buf strings.Builder

	// Header: Error: <message> in <file>:<line>:<col>
	if e.Line > 0 {
		fmt.Fprintf(&buf, "Error: %s in %s:%d:%d\n\n",
			e.Message, filepath.Base(e.Filename), e.Line, e.Column)
	} else {
		fmt.Fprintf(&buf, "Error: %s\n\n", e.Message)
	}

	// Source snippet with line numbers
	if len(e.SourceLines) > 0 && e.Line > 0 {
		startLine := e.Line - e.HighlightLine

		for i, line := range e.SourceLines {
			lineNum := startLine + i

			if i == e.HighlightLine {
				// Error line - show with caret
				fmt.Fprintf(&buf, "  %4d | %s\n", lineNum, line)

				// Caret line:     |     ^^^^^^^ <annotation>
				caretIndent := utf8.RuneCountInString(line[:min(e.Column-1, len(line))])
				caretLen := e.Length
				if caretLen < 1 {
					caretLen = 1
				}

				fmt.Fprintf(&buf, "       | %s%s",
					strings.Repeat(" ", caretIndent),
					strings.Repeat("^", caretLen),
				)

				if e.Annotation != "" {
					fmt.Fprintf(&buf, " %s", e.Annotation)
				}
				fmt.Fprintf(&buf, "\n")
			} else {
				// Context line
				fmt.Fprintf(&buf, "  %4d | %s\n", lineNum, line)
			}
		}

		buf.WriteString("\n")
	}

	// Suggestion section
	if e.Suggestion != "" {
		fmt.Fprintf(&buf, "Suggestion: %s\n", e.Suggestion)
	}

	// Missing items
	if len(e.MissingItems) > 0 {
		fmt.Fprintf(&buf, "\nMissing: %s\n", strings.Join(e.MissingItems, ", "))
	}

	return buf.String()
}

// Error implements error interface
func (e *EnhancedError) Error() string {
	return e.Format()
}

// extractSourceLines reads source file and extracts lines with context
// Returns the lines, the index of the target line within the slice, and any error
func extractSourceLines(filename string, targetLine, contextLines int) ([]string, int, error) {
	// Try cache first
	sourceCacheMu.RLock()
	allLines, cached := sourceCache[filename]
	sourceCacheMu.RUnlock()

	if !cached {
		content, err := os.ReadFile(filename)
		if err != nil {
			return nil, 0, fmt.Errorf("cannot read file: %w", err)
		}

		if !utf8.Valid(content) {
			return nil, 0, fmt.Errorf("file is not valid UTF-8")
		}

		normalized := strings.ReplaceAll(string(content), "\r\n", "\n")
		allLines = strings.Split(normalized, "\n")

		if len(allLines) > 0 && allLines[len(allLines)-1] == "" {
			allLines = allLines[:len(allLines)-1]
		}

		sourceCacheMu.Lock()
		addToSourceCache(filename, allLines)
		sourceCacheMu.Unlock()
	}

	targetIdx := targetLine - 1
	if targetIdx < 0 || targetIdx >= len(allLines) {
		return nil, 0, fmt.Errorf("line %d out of range (1-%d)", targetLine, len(allLines))
	}

	start := max(0, targetIdx-contextLines)
	end := min(len(allLines), targetIdx+contextLines+1)

	highlightIdx := targetIdx - start
	return allLines[start:end], highlightIdx, nil
}

// addToSourceCache adds a file to the cache, evicting the least recently
// added file when full (cache hits in extractSourceLines do not refresh it).
// Must be called with sourceCacheMu.Lock() held
func addToSourceCache(filename string, lines []string) {
	for i, key := range sourceCacheKeys {
		if key == filename {
			sourceCacheKeys = append(sourceCacheKeys[:i], sourceCacheKeys[i+1:]...)
			sourceCacheKeys = append(sourceCacheKeys, filename)
			sourceCache[filename] = lines
			return
		}
	}

	if len(sourceCacheKeys) >= sourceCacheLimit {
		oldest := sourceCacheKeys[0]
		delete(sourceCache, oldest)
		sourceCacheKeys = sourceCacheKeys[1:]
	}

	sourceCacheKeys = append(sourceCacheKeys, filename)
	sourceCache[filename] = lines
}

// ClearSourceCache clears the source file cache
// Call this after a translation run completes or periodically in the LSP server
func ClearSourceCache() {
	sourceCacheMu.Lock()
	defer sourceCacheMu.Unlock()
	sourceCache = make(map[string][]string)
	sourceCacheKeys = make([]string, 0, sourceCacheLimit)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
