package build

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateAllSequential(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "a.blcpp"), "if x > 0:\n    foo()\n")
	writeTestFile(t, filepath.Join(dir, "b.blcpp"), "int y\n")

	ws := NewWorkspace(dir, Options{})
	results, err := ws.TranslateAll([]SourceFile{{Path: "a.blcpp"}, {Path: "b.blcpp"}})
	require.NoError(t, err)
	require.Len(t, results, 2)

	for _, r := range results {
		assert.True(t, r.Success, "file %s should translate successfully: %v", r.File.Path, r.Error)
		out, err := os.ReadFile(GetTranslatedPath(filepath.Join(dir, r.File.Path)))
		require.NoError(t, err)
		assert.NotEmpty(t, out)
	}
}

func TestTranslateAllParallel(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 5; i++ {
		writeTestFile(t, filepath.Join(dir, "f"+string(rune('0'+i))+".blcpp"), "int x\n")
	}

	files := make([]SourceFile, 5)
	for i := range files {
		files[i] = SourceFile{Path: "f" + string(rune('0'+i)) + ".blcpp"}
	}

	ws := NewWorkspace(dir, Options{Parallel: true, Jobs: 3})
	results, err := ws.TranslateAll(files)
	require.NoError(t, err)
	require.Len(t, results, 5)

	for _, r := range results {
		assert.True(t, r.Success)
	}
}

func TestTranslateAllIncrementalSkipsUnchanged(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, "a.blcpp"), "int x\n")

	ws := NewWorkspace(dir, Options{Incremental: true})

	first, err := ws.TranslateAll([]SourceFile{{Path: "a.blcpp"}})
	require.NoError(t, err)
	assert.False(t, first[0].Stats.Skipped)

	second, err := ws.TranslateAll([]SourceFile{{Path: "a.blcpp"}})
	require.NoError(t, err)
	assert.True(t, second[0].Stats.Skipped)
}

func TestTranslateAllRejectsEmptyFileList(t *testing.T) {
	dir := t.TempDir()
	ws := NewWorkspace(dir, Options{})
	_, err := ws.TranslateAll(nil)
	assert.Error(t, err)
}

func TestTranslateAllReportsPerFileError(t *testing.T) {
	dir := t.TempDir()
	// Not writing the file: translator.Translate should fail for this one
	// entry while leaving well-formed siblings unaffected.
	writeTestFile(t, filepath.Join(dir, "ok.blcpp"), "int x\n")

	ws := NewWorkspace(dir, Options{})
	results, err := ws.TranslateAll([]SourceFile{{Path: "ok.blcpp"}, {Path: "missing.blcpp"}})
	require.NoError(t, err)
	require.Len(t, results, 2)

	byPath := map[string]Result{}
	for _, r := range results {
		byPath[r.File.Path] = r
	}
	assert.True(t, byPath["ok.blcpp"].Success)
	assert.False(t, byPath["missing.blcpp"].Success)
	assert.Error(t, byPath["missing.blcpp"].Error)
}
