package lsp

import (
	"fmt"
	"strings"
	"sync"

	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"

	"github.com/braceless-cpp/blcc/pkg/sourcemap"
	"github.com/braceless-cpp/blcc/pkg/translator"
)

// Direction names which way a position is being rewritten across the
// source/generated boundary.
type Direction int

const (
	// SourceToGenerated rewrites a .blcpp/.blh position into the
	// generated .cpp position clangd understands.
	SourceToGenerated Direction = iota
	// GeneratedToSource rewrites a .cpp position clangd reported back
	// into the .blcpp/.blh position the user actually wrote.
	GeneratedToSource
)

// isSourceFile reports whether uri names a file with sourceExt or
// headerExt, the two extensions the server treats as "ours" rather than
// forwarding straight through to clangd.
func isSourceFile(u protocol.DocumentURI, sourceExt, headerExt string) bool {
	path := u.Filename()
	return strings.HasSuffix(path, sourceExt) || strings.HasSuffix(path, headerExt)
}

// generatedPath returns the .cpp path translator.Translate writes for a
// given .blcpp/.blh source path.
func generatedPath(sourcePath string) string {
	if i := strings.LastIndexByte(sourcePath, '.'); i >= 0 {
		return sourcePath[:i] + ".cpp"
	}
	return sourcePath + ".cpp"
}

// MapperCache holds the most recent sourcemap.Mapper produced for each
// source file translated during this session, so hover/completion/
// definition/diagnostics requests don't need to retranslate on every
// query. Only Refresh (called on didOpen, and on didSave when
// AutoTranslate is set) rebuilds an entry.
type MapperCache struct {
	mu      sync.RWMutex
	mappers map[string]*sourcemap.Mapper // keyed by source path
	opts    translator.Options
}

// NewMapperCache creates an empty cache that translates with opts when a
// source file is seen for the first time or refreshed.
func NewMapperCache(opts translator.Options) *MapperCache {
	return &MapperCache{mappers: make(map[string]*sourcemap.Mapper), opts: opts}
}

// Refresh retranslates sourcePath and stores its mapper, returning the
// generated text so the caller can sync it into clangd.
func (c *MapperCache) Refresh(sourcePath string) (string, *sourcemap.Mapper, error) {
	text, mapper, err := translator.Translate(sourcePath, c.opts)
	if err != nil {
		return "", nil, fmt.Errorf("lsp: translate %s: %w", sourcePath, err)
	}
	c.mu.Lock()
	c.mappers[sourcePath] = mapper
	c.mu.Unlock()
	return text, mapper, nil
}

// Get returns the cached mapper for sourcePath, translating it first if
// this is the first time the file has been seen.
func (c *MapperCache) Get(sourcePath string) (*sourcemap.Mapper, error) {
	c.mu.RLock()
	m, ok := c.mappers[sourcePath]
	c.mu.RUnlock()
	if ok {
		return m, nil
	}
	_, m, err := c.Refresh(sourcePath)
	return m, err
}

// Invalidate drops a cached mapper, e.g. when a source file is closed.
func (c *MapperCache) Invalidate(sourcePath string) {
	c.mu.Lock()
	delete(c.mappers, sourcePath)
	c.mu.Unlock()
}

// TranslatePosition rewrites a position on uri in the given direction.
// Column is preserved as-is (spec §6 keeps columns verbatim across the
// patch boundary); only the file and line change.
func (c *MapperCache) TranslatePosition(u protocol.DocumentURI, pos protocol.Position, dir Direction) (protocol.DocumentURI, protocol.Position, error) {
	sourcePath := u.Filename()
	line := int(pos.Line) + 1 // LSP lines are 0-based; our mapper is 1-based

	if dir == SourceToGenerated {
		mapper, err := c.Get(sourcePath)
		if err != nil {
			return u, pos, err
		}
		genLine, _, ok := mapper.SourceMap().MapToGenerated(sourcePath, line, 0)
		if !ok {
			return u, pos, fmt.Errorf("lsp: no generated position for %s:%d", sourcePath, line)
		}
		return uri.File(mapper.SourceMap().GeneratedFile), protocol.Position{Line: uint32(genLine - 1), Character: pos.Character}, nil
	}

	// GeneratedToSource: uri names the generated .cpp file; find which
	// source file produced it by scanning cached mappers.
	mapper, srcPath, err := c.findByGenerated(sourcePath)
	if err != nil {
		return u, pos, err
	}
	originFile, originLine := mapper.Lookup(line)
	if originFile == "" {
		originFile = srcPath
	}
	return uri.File(originFile), protocol.Position{Line: uint32(max(originLine-1, 0)), Character: pos.Character}, nil
}

func (c *MapperCache) findByGenerated(generatedPath string) (*sourcemap.Mapper, string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for src, m := range c.mappers {
		if m.SourceMap().GeneratedFile == generatedPath {
			return m, src, nil
		}
	}
	return nil, "", fmt.Errorf("lsp: no mapper for generated file %s", generatedPath)
}

// TranslateRange rewrites both ends of a range in the given direction.
func (c *MapperCache) TranslateRange(u protocol.DocumentURI, r protocol.Range, dir Direction) (protocol.DocumentURI, protocol.Range, error) {
	newURI, start, err := c.TranslatePosition(u, r.Start, dir)
	if err != nil {
		return u, r, err
	}
	_, end, err := c.TranslatePosition(u, r.End, dir)
	if err != nil {
		return u, r, err
	}
	return newURI, protocol.Range{Start: start, End: end}, nil
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
