package lsp

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"

	"github.com/braceless-cpp/blcc/pkg/translator"
)

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestIsSourceFile(t *testing.T) {
	assert.True(t, isSourceFile(uri.File("/src/main.blcpp"), ".blcpp", ".blh"))
	assert.True(t, isSourceFile(uri.File("/src/util.blh"), ".blcpp", ".blh"))
	assert.False(t, isSourceFile(uri.File("/src/main.cpp"), ".blcpp", ".blh"))
}

func TestGeneratedPath(t *testing.T) {
	assert.Equal(t, "/src/main.cpp", generatedPath("/src/main.blcpp"))
}

func TestMapperCacheTranslatesSourceToGenerated(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "main.blcpp", "if x > 0:\n    foo()\n")

	cache := NewMapperCache(translator.Options{})
	u := uri.File(src)

	genURI, genPos, err := cache.TranslatePosition(u, protocol.Position{Line: 1, Character: 4}, SourceToGenerated)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "main.cpp"), genURI.Filename())
	assert.Equal(t, uint32(1), genPos.Line)
}

func TestMapperCacheTranslatesGeneratedToSource(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "main.blcpp", "if x > 0:\n    foo()\n")

	cache := NewMapperCache(translator.Options{})
	_, err := cache.Get(src)
	require.NoError(t, err)

	genPath := generatedPath(src)
	srcURI, srcPos, err := cache.TranslatePosition(uri.File(genPath), protocol.Position{Line: 1, Character: 4}, GeneratedToSource)
	require.NoError(t, err)
	assert.Equal(t, src, srcURI.Filename())
	assert.Equal(t, uint32(1), srcPos.Line)
}

func TestMapperCacheRefreshInvalidatesStaleText(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "main.blcpp", "int x\n")

	cache := NewMapperCache(translator.Options{})
	_, err := cache.Get(src)
	require.NoError(t, err)

	writeSource(t, dir, "main.blcpp", "if x > 0:\n    foo()\n")
	text, _, err := cache.Refresh(src)
	require.NoError(t, err)
	assert.Contains(t, text, "if (x > 0)")
}

func TestMapperCacheInvalidateForcesRetranslate(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "main.blcpp", "int x\n")

	cache := NewMapperCache(translator.Options{})
	_, err := cache.Get(src)
	require.NoError(t, err)

	cache.Invalidate(src)
	cache.mu.RLock()
	_, ok := cache.mappers[src]
	cache.mu.RUnlock()
	assert.False(t, ok)
}
