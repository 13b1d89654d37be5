package build

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDependencyGraphLinksIncludes(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir+"/util.blh", "int helper()\n")
	writeTestFile(t, dir+"/main.blcpp", "#include \"util.blh\"\nint x\n")

	files := []SourceFile{{Path: "main.blcpp"}, {Path: "util.blh"}}
	graph, err := buildDependencyGraph(files, dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"util.blh"}, graph.Nodes["main.blcpp"].Dependencies)
	assert.Equal(t, []string{"main.blcpp"}, graph.Nodes["util.blh"].Dependents)
}

func TestBuildDependencyGraphIgnoresOutOfWorkspaceIncludes(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir+"/main.blcpp", "#include \"system.blh\"\nint x\n")

	files := []SourceFile{{Path: "main.blcpp"}}
	graph, err := buildDependencyGraph(files, dir)
	require.NoError(t, err)

	assert.Empty(t, graph.Nodes["main.blcpp"].Dependencies)
}

func TestDetectCircularDependenciesFindsCycle(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir+"/a.blh", "#include \"b.blh\"\n")
	writeTestFile(t, dir+"/b.blh", "#include \"a.blh\"\n")

	files := []SourceFile{{Path: "a.blh"}, {Path: "b.blh"}}
	graph, err := buildDependencyGraph(files, dir)
	require.NoError(t, err)

	cycles := detectCircularDependencies(graph)
	assert.NotEmpty(t, cycles)
}

func TestDetectCircularDependenciesNoFalsePositive(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir+"/a.blh", "int a()\n")
	writeTestFile(t, dir+"/main.blcpp", "#include \"a.blh\"\nint x\n")

	files := []SourceFile{{Path: "a.blh"}, {Path: "main.blcpp"}}
	graph, err := buildDependencyGraph(files, dir)
	require.NoError(t, err)

	assert.Empty(t, detectCircularDependencies(graph))
}
