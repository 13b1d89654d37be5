// Package header implements the `#include "x.blh"` transclusion pass
// (spec §4.4): a recursive, pragma-once-by-default inliner that splices
// resolved headers in place and records, for every emitted expanded line,
// which original file and line it came from.
package header

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/golang/glog"
)

// Location identifies a single line in an original source file.
type Location struct {
	File string
	Line int
}

var includeRe = regexp.MustCompile(`^\s*#\s*include\s*"([^"]*)"`)

// Inliner expands `#include "*.<ext>"` directives, where ext is matched
// case-insensitively (spec §6, "Header file-name matching").
type Inliner struct {
	ext        string
	searchDirs []string
	included   map[string]bool
}

// New builds an Inliner for the given dialect header extension (e.g.
// ".blh") and ordered search directories.
func New(headerExt string, searchDirs []string) *Inliner {
	return &Inliner{
		ext:        headerExt,
		searchDirs: searchDirs,
		included:   make(map[string]bool),
	}
}

// Expand recursively inlines sourcePath's headers, returning the expanded
// line sequence plus the origin of every line in it. The included-set
// guard is shared across the whole call, preventing both re-inclusion
// (pragma-once semantics) and include cycles.
func (in *Inliner) Expand(sourcePath string) ([]string, []Location, error) {
	abs, err := filepath.Abs(sourcePath)
	if err != nil {
		return nil, nil, err
	}
	in.included[abs] = true
	return in.expandFile(abs)
}

func (in *Inliner) expandFile(path string) ([]string, []Location, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	dir := filepath.Dir(path)
	rawLines := strings.Split(string(data), "\n")
	if len(rawLines) > 0 && rawLines[len(rawLines)-1] == "" && strings.HasSuffix(string(data), "\n") {
		rawLines = rawLines[:len(rawLines)-1]
	}

	var lines []string
	var origins []Location

	for i, raw := range rawLines {
		lineNo := i + 1
		name, isInclude := in.matchInclude(raw)
		if !isInclude {
			lines = append(lines, raw)
			origins = append(origins, Location{File: path, Line: lineNo})
			continue
		}

		resolved, ok := in.resolve(name, dir)
		if !ok {
			glog.V(1).Infof("header: %q not found for %s:%d, leaving directive unresolved", name, path, lineNo)
			lines = append(lines, raw)
			origins = append(origins, Location{File: path, Line: lineNo})
			continue
		}
		if in.included[resolved] {
			glog.V(1).Infof("header: %q already included, dropping directive at %s:%d", resolved, path, lineNo)
			continue
		}
		in.included[resolved] = true
		glog.V(1).Infof("header: inlining %q at %s:%d", resolved, path, lineNo)

		subLines, subOrigins, err := in.expandFile(resolved)
		if err != nil {
			return nil, nil, err
		}
		lines = append(lines, subLines...)
		origins = append(origins, subOrigins...)
	}

	return lines, origins, nil
}

// matchInclude reports whether raw is a dialect-header include directive,
// and if so the quoted file name.
func (in *Inliner) matchInclude(raw string) (string, bool) {
	m := includeRe.FindStringSubmatch(raw)
	if m == nil {
		return "", false
	}
	name := m[1]
	if !strings.EqualFold(filepath.Ext(name), in.ext) {
		return "", false
	}
	return name, true
}

// resolve looks for name first beside the including file, then in each
// search directory in order; first match wins.
func (in *Inliner) resolve(name, includingDir string) (string, bool) {
	candidates := append([]string{includingDir}, in.searchDirs...)
	for _, dir := range candidates {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			abs, err := filepath.Abs(candidate)
			if err != nil {
				continue
			}
			return abs, true
		}
	}
	return "", false
}
