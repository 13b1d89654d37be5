package lsp

import (
	"context"
	"encoding/json"

	"github.com/golang/glog"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
)

// handleCompletion rewrites a .blcpp position to its generated position,
// asks clangd, then leaves the result as-is: completion items carry no
// range of their own for the caller to rewrite (spec §6 only promises
// file/line rewriting for diagnostics and navigation, not in-progress
// edits).
func (s *Server) handleCompletion(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.CompletionParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return reply(ctx, nil, err)
	}

	if !s.isOurs(params.TextDocument.URI) {
		result, err := s.clangd.Completion(ctx, params)
		return reply(ctx, result, err)
	}

	genURI, genPos, err := s.mapper.TranslatePosition(params.TextDocument.URI, params.Position, SourceToGenerated)
	if err != nil {
		glog.V(1).Infof("lsp: completion position translation failed: %v", err)
		return reply(ctx, nil, nil)
	}
	params.TextDocument.URI = genURI
	params.Position = genPos

	result, err := s.clangd.Completion(ctx, params)
	return reply(ctx, result, err)
}

// handleDefinition rewrites the request position into generated space,
// asks clangd, then rewrites every returned location back into source
// space.
func (s *Server) handleDefinition(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DefinitionParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return reply(ctx, nil, err)
	}

	if !s.isOurs(params.TextDocument.URI) {
		result, err := s.clangd.Definition(ctx, params)
		return reply(ctx, result, err)
	}

	genURI, genPos, err := s.mapper.TranslatePosition(params.TextDocument.URI, params.Position, SourceToGenerated)
	if err != nil {
		glog.V(1).Infof("lsp: definition position translation failed: %v", err)
		return reply(ctx, nil, nil)
	}
	params.TextDocument.URI = genURI
	params.Position = genPos

	locations, err := s.clangd.Definition(ctx, params)
	if err != nil {
		return reply(ctx, nil, err)
	}

	translated := make([]protocol.Location, 0, len(locations))
	for _, loc := range locations {
		newURI, newRange, err := s.mapper.TranslateRange(loc.URI, loc.Range, GeneratedToSource)
		if err != nil {
			glog.V(1).Infof("lsp: definition result translation failed: %v", err)
			continue
		}
		translated = append(translated, protocol.Location{URI: newURI, Range: newRange})
	}
	return reply(ctx, translated, nil)
}

// handleHover mirrors handleDefinition for textDocument/hover.
func (s *Server) handleHover(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.HoverParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return reply(ctx, nil, err)
	}

	if !s.isOurs(params.TextDocument.URI) {
		result, err := s.clangd.Hover(ctx, params)
		return reply(ctx, result, err)
	}

	genURI, genPos, err := s.mapper.TranslatePosition(params.TextDocument.URI, params.Position, SourceToGenerated)
	if err != nil {
		glog.V(1).Infof("lsp: hover position translation failed: %v", err)
		return reply(ctx, nil, nil)
	}
	params.TextDocument.URI = genURI
	params.Position = genPos

	result, err := s.clangd.Hover(ctx, params)
	if err != nil || result == nil {
		return reply(ctx, result, err)
	}

	if result.Range != nil {
		_, newRange, err := s.mapper.TranslateRange(genURI, *result.Range, GeneratedToSource)
		if err == nil {
			result.Range = &newRange
		}
	}
	return reply(ctx, result, nil)
}

// handlePublishDiagnostics receives diagnostics clangd reported against a
// generated .cpp file, rewrites them to the source file/line that
// produced each line, and republishes to the IDE. This is the live
// counterpart to pkg/diagnostics' batch patching of captured compiler
// output.
func (s *Server) handlePublishDiagnostics(ctx context.Context, params protocol.PublishDiagnosticsParams) error {
	mapper, sourcePath, err := s.mapper.findByGenerated(params.URI.Filename())
	if err != nil {
		glog.V(2).Infof("lsp: diagnostics for untracked file %s, dropping", params.URI)
		return nil
	}

	translated := make([]protocol.Diagnostic, 0, len(params.Diagnostics))
	for _, d := range params.Diagnostics {
		_, newRange, err := s.mapper.TranslateRange(params.URI, d.Range, GeneratedToSource)
		if err != nil {
			glog.V(1).Infof("lsp: diagnostic translation failed: %v", err)
			continue
		}
		d.Range = newRange
		for i := range d.RelatedInformation {
			_, relRange, err := s.mapper.TranslateRange(d.RelatedInformation[i].Location.URI, d.RelatedInformation[i].Location.Range, GeneratedToSource)
			if err == nil {
				d.RelatedInformation[i].Location.Range = relRange
			}
		}
		translated = append(translated, d)
	}

	out := protocol.PublishDiagnosticsParams{
		URI:         sourceURI(sourcePath),
		Diagnostics: translated,
		Version:     params.Version,
	}

	conn, connCtx := s.getConn()
	if conn == nil {
		glog.V(1).Infof("lsp: no IDE connection, dropping %d diagnostics for %s", len(translated), mapper.SourceMap().GeneratedFile)
		return nil
	}
	if connCtx == nil {
		connCtx = ctx
	}
	return conn.Notify(connCtx, "textDocument/publishDiagnostics", out)
}

func sourceURI(path string) protocol.DocumentURI {
	return uri.File(path)
}
