// Package translator wires the core pipeline stages (header inlining,
// logical-line grouping, and block translation) into the single
// `translate(source_path, search_dirs)` entry point spec §6 describes.
package translator

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/braceless-cpp/blcc/pkg/block"
	"github.com/braceless-cpp/blcc/pkg/header"
	"github.com/braceless-cpp/blcc/pkg/logicalline"
	"github.com/braceless-cpp/blcc/pkg/sourcemap"
)

// Options configures one translation run. HeaderExt and TabWidth have the
// dialect's documented defaults when left zero-valued by the caller; see
// pkg/config for where those defaults actually live.
type Options struct {
	HeaderExt  string
	SearchDirs []string
	TabWidth   int
}

func (o Options) withDefaults() Options {
	if o.HeaderExt == "" {
		o.HeaderExt = ".blh"
	}
	if o.TabWidth == 0 {
		o.TabWidth = 4
	}
	return o
}

// Translate runs sourcePath through the full pipeline (inline headers,
// group logical lines, translate blocks), returning the generated text
// and a mapper from generated line back to origin file/line.
func Translate(sourcePath string, opts Options) (string, *sourcemap.Mapper, error) {
	opts = opts.withDefaults()

	in := header.New(opts.HeaderExt, opts.SearchDirs)
	expandedLines, origins, err := in.Expand(sourcePath)
	if err != nil {
		return "", nil, fmt.Errorf("translator: %s: %w", sourcePath, err)
	}

	expandedSrc := strings.Join(expandedLines, "\n")
	if len(expandedLines) > 0 {
		expandedSrc += "\n"
	}

	lines := logicalline.Group([]byte(expandedSrc))
	result, err := block.Translate(lines, opts.TabWidth)
	if err != nil {
		return "", nil, fmt.Errorf("translator: %s: %w", sourcePath, err)
	}

	generatedFile := strings.TrimSuffix(sourcePath, filepath.Ext(sourcePath)) + ".cpp"
	mapper := sourcemap.Build(generatedFile, origins, result.GeneratedToExpanded())
	return result.Text(), mapper, nil
}
