package build

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// DependencyGraph tracks which source files `#include` which headers,
// scoped to files that exist inside the workspace. It exists purely for
// diagnostics (detectCircularDependencies warns about a cycle the header
// inliner would otherwise resolve silently); translation itself needs no
// build order, since each file's pipeline run is independent (spec §5).
type DependencyGraph struct {
	Nodes map[string]*GraphNode // workspace-relative path -> node
}

// GraphNode is one source or header file in the graph.
type GraphNode struct {
	Path         string
	Dependencies []string // headers this file includes
	Dependents   []string // files that include this one
}

var workspaceIncludeRe = regexp.MustCompile(`^\s*#\s*include\s*"([^"]*)"`)

// buildDependencyGraph scans every file's #include lines and links them to
// whichever other workspace files they resolve to.
func buildDependencyGraph(files []SourceFile, workspaceRoot string) (*DependencyGraph, error) {
	graph := &DependencyGraph{Nodes: make(map[string]*GraphNode)}

	for _, f := range files {
		graph.Nodes[f.Path] = &GraphNode{Path: f.Path}
	}

	for _, f := range files {
		includes, err := extractIncludes(filepath.Join(workspaceRoot, f.Path))
		if err != nil {
			return nil, fmt.Errorf("failed to scan includes for %s: %w", f.Path, err)
		}

		node := graph.Nodes[f.Path]
		dir := filepath.Dir(f.Path)
		for _, inc := range includes {
			candidate := filepath.Join(dir, inc)
			depNode, exists := graph.Nodes[candidate]
			if !exists {
				continue // header outside the workspace (search-dir only); not our concern here
			}
			node.Dependencies = append(node.Dependencies, candidate)
			depNode.Dependents = append(depNode.Dependents, f.Path)
		}
	}

	return graph, nil
}

// extractIncludes returns the raw #include "..." targets named in path, in
// the order they appear. It does not resolve them (that's pkg/header's job
// at translation time); it only needs enough to spot workspace-local cycles.
func extractIncludes(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var includes []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if m := workspaceIncludeRe.FindStringSubmatch(scanner.Text()); m != nil {
			includes = append(includes, m[1])
		}
	}
	return includes, scanner.Err()
}

// detectCircularDependencies finds #include cycles among workspace files.
// pkg/header already breaks these silently during expansion (spec §7,
// IncludeCycleBreak); this is purely a heads-up for the user, surfaced as
// a warning rather than a translation failure.
func detectCircularDependencies(graph *DependencyGraph) [][]string {
	cycles := make([][]string, 0)

	visited := make(map[string]bool)
	recStack := make(map[string]bool)
	path := make([]string, 0)

	var detectCycle func(node string) bool
	detectCycle = func(node string) bool {
		visited[node] = true
		recStack[node] = true
		path = append(path, node)

		if graphNode, exists := graph.Nodes[node]; exists {
			for _, dep := range graphNode.Dependencies {
				if !visited[dep] {
					if detectCycle(dep) {
						return true
					}
				} else if recStack[dep] {
					cycleStart := 0
					for i, p := range path {
						if p == dep {
							cycleStart = i
							break
						}
					}
					cycle := make([]string, len(path)-cycleStart+1)
					copy(cycle, path[cycleStart:])
					cycle[len(cycle)-1] = dep
					cycles = append(cycles, cycle)
					return true
				}
			}
		}

		path = path[:len(path)-1]
		recStack[node] = false
		return false
	}

	for node := range graph.Nodes {
		if !visited[node] {
			detectCycle(node)
		}
	}

	return cycles
}
