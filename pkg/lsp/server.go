package lsp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/golang/glog"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"

	"github.com/braceless-cpp/blcc/pkg/sourcemap"
	"github.com/braceless-cpp/blcc/pkg/translator"
)

// ServerConfig holds the configuration a Server is built from.
type ServerConfig struct {
	ClangdPath     string
	SourceExt      string
	HeaderExt      string
	AutoTranslate  bool
	TranslatorOpts translator.Options
}

func (c ServerConfig) withDefaults() ServerConfig {
	if c.ClangdPath == "" {
		c.ClangdPath = "clangd"
	}
	if c.SourceExt == "" {
		c.SourceExt = ".blcpp"
	}
	if c.HeaderExt == "" {
		c.HeaderExt = ".blh"
	}
	return c
}

// Server is the editor-facing LSP proxy: it terminates the IDE's LSP
// connection, forwards document queries to clangd against the generated
// .cpp file, and rewrites every position that crosses the boundary.
type Server struct {
	config ServerConfig
	clangd *ClangdClient
	mapper *MapperCache

	workspacePath string
	initialized   bool

	connMu  sync.RWMutex
	ideConn jsonrpc2.Conn
	ideCtx  context.Context
}

// NewServer starts clangd and returns a Server ready to handle requests.
func NewServer(cfg ServerConfig) (*Server, error) {
	cfg = cfg.withDefaults()

	clangd, err := NewClangdClient(cfg.ClangdPath)
	if err != nil {
		return nil, fmt.Errorf("lsp: start clangd: %w", err)
	}

	s := &Server{
		config: cfg,
		clangd: clangd,
		mapper: NewMapperCache(cfg.TranslatorOpts),
	}
	clangd.SetDiagnosticsHandler(s.handlePublishDiagnostics)
	return s, nil
}

// SetConn stores the IDE-facing connection so diagnostics forwarded from
// clangd can be pushed back asynchronously.
func (s *Server) SetConn(conn jsonrpc2.Conn, ctx context.Context) {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	s.ideConn = conn
	s.ideCtx = ctx
}

func (s *Server) getConn() (jsonrpc2.Conn, context.Context) {
	s.connMu.RLock()
	defer s.connMu.RUnlock()
	return s.ideConn, s.ideCtx
}

// Handler returns the jsonrpc2.Handler to serve on the IDE connection.
func (s *Server) Handler() jsonrpc2.Handler {
	return jsonrpc2.ReplyHandler(s.handleRequest)
}

func (s *Server) handleRequest(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	glog.V(2).Infof("lsp: %s", req.Method())

	switch req.Method() {
	case "initialize":
		return s.handleInitialize(ctx, reply, req)
	case "initialized":
		return s.handleInitialized(ctx, reply, req)
	case "shutdown":
		return s.handleShutdown(ctx, reply, req)
	case "exit":
		return reply(ctx, nil, nil)
	case "textDocument/didOpen":
		return s.handleDidOpen(ctx, reply, req)
	case "textDocument/didChange":
		return s.handleDidChange(ctx, reply, req)
	case "textDocument/didSave":
		return s.handleDidSave(ctx, reply, req)
	case "textDocument/didClose":
		return s.handleDidClose(ctx, reply, req)
	case "textDocument/completion":
		return s.handleCompletion(ctx, reply, req)
	case "textDocument/definition":
		return s.handleDefinition(ctx, reply, req)
	case "textDocument/hover":
		return s.handleHover(ctx, reply, req)
	default:
		glog.V(1).Infof("lsp: method not implemented: %s", req.Method())
		return reply(ctx, nil, fmt.Errorf("method not implemented: %s", req.Method()))
	}
}

func (s *Server) handleInitialize(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.InitializeParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return reply(ctx, nil, fmt.Errorf("invalid initialize params: %w", err))
	}

	if params.RootURI != "" {
		s.workspacePath = params.RootURI.Filename()
		glog.V(1).Infof("lsp: workspace root %s", s.workspacePath)
	}

	clangdResult, err := s.clangd.Initialize(ctx, params)
	if err != nil {
		return reply(ctx, nil, fmt.Errorf("clangd initialize failed: %w", err))
	}

	result := protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.TextDocumentSyncKindFull,
				Save:      &protocol.SaveOptions{IncludeText: false},
			},
			CompletionProvider: &protocol.CompletionOptions{
				TriggerCharacters: []string{".", ":", ">"},
			},
			HoverProvider:      clangdResult.Capabilities.HoverProvider,
			DefinitionProvider: clangdResult.Capabilities.DefinitionProvider,
		},
		ServerInfo: &protocol.ServerInfo{Name: "blcc-lsp", Version: "0.1.0"},
	}

	s.initialized = true
	return reply(ctx, result, nil)
}

func (s *Server) handleInitialized(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.InitializedParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return reply(ctx, nil, fmt.Errorf("invalid initialized params: %w", err))
	}
	if err := s.clangd.Initialized(ctx, &params); err != nil {
		glog.V(1).Infof("lsp: clangd initialized notify failed: %v", err)
	}
	return reply(ctx, nil, nil)
}

func (s *Server) handleShutdown(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	if err := s.clangd.Shutdown(ctx); err != nil {
		glog.V(1).Infof("lsp: clangd shutdown failed: %v", err)
	}
	s.initialized = false
	return reply(ctx, nil, nil)
}

// isOurs reports whether uri names a source file this server translates,
// as opposed to a plain .cpp/.h file clangd already understands natively.
func (s *Server) isOurs(u protocol.DocumentURI) bool {
	return isSourceFile(u, s.config.SourceExt, s.config.HeaderExt)
}

func (s *Server) handleDidOpen(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidOpenTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return reply(ctx, nil, err)
	}

	if !s.isOurs(params.TextDocument.URI) {
		if err := s.clangd.DidOpen(ctx, params); err != nil {
			glog.V(1).Infof("lsp: clangd didOpen failed: %v", err)
		}
		return reply(ctx, nil, nil)
	}

	// clangd only ever sees the generated .cpp file, synced here rather
	// than forwarding the .blcpp text verbatim.
	sourcePath := params.TextDocument.URI.Filename()
	text, mapper, err := s.mapper.Refresh(sourcePath)
	if err != nil {
		glog.V(1).Infof("lsp: translate on open failed for %s: %v", sourcePath, err)
		return reply(ctx, nil, nil)
	}
	genParams := protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        genURI(mapper),
			LanguageID: "cpp",
			Version:    params.TextDocument.Version,
			Text:       text,
		},
	}
	if err := s.clangd.DidOpen(ctx, genParams); err != nil {
		glog.V(1).Infof("lsp: clangd didOpen (generated) failed: %v", err)
	}
	return reply(ctx, nil, nil)
}

func (s *Server) handleDidChange(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidChangeTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return reply(ctx, nil, err)
	}

	if !s.isOurs(params.TextDocument.URI) {
		if err := s.clangd.DidChange(ctx, params); err != nil {
			glog.V(1).Infof("lsp: clangd didChange failed: %v", err)
		}
	}
	// In-editor .blcpp edits are re-translated at the next didSave
	// (spec §6's translation unit runs once per save, not per keystroke);
	// intermediate keystrokes are intentionally not forwarded.
	return reply(ctx, nil, nil)
}

func (s *Server) handleDidSave(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidSaveTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return reply(ctx, nil, err)
	}

	if !s.isOurs(params.TextDocument.URI) {
		if err := s.clangd.DidSave(ctx, params); err != nil {
			glog.V(1).Infof("lsp: clangd didSave failed: %v", err)
		}
		return reply(ctx, nil, nil)
	}

	if s.config.AutoTranslate {
		sourcePath := params.TextDocument.URI.Filename()
		go s.retranslateAndSync(ctx, sourcePath)
	}
	return reply(ctx, nil, nil)
}

// retranslateAndSync re-runs the pipeline for sourcePath and pushes the
// fresh generated text into clangd via didChange, so live diagnostics and
// completions reflect the saved edit.
func (s *Server) retranslateAndSync(ctx context.Context, sourcePath string) {
	text, mapper, err := s.mapper.Refresh(sourcePath)
	if err != nil {
		glog.Warningf("lsp: auto-translate failed for %s: %v", sourcePath, err)
		return
	}
	params := protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: genURI(mapper)},
		},
		ContentChanges: []protocol.TextDocumentContentChangeEvent{{Text: text}},
	}
	if err := s.clangd.DidChange(ctx, params); err != nil {
		glog.Warningf("lsp: sync generated text for %s failed: %v", sourcePath, err)
	}
}

func (s *Server) handleDidClose(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidCloseTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return reply(ctx, nil, err)
	}

	if !s.isOurs(params.TextDocument.URI) {
		if err := s.clangd.DidClose(ctx, params); err != nil {
			glog.V(1).Infof("lsp: clangd didClose failed: %v", err)
		}
		return reply(ctx, nil, nil)
	}
	s.mapper.Invalidate(params.TextDocument.URI.Filename())
	return reply(ctx, nil, nil)
}

func genURI(m *sourcemap.Mapper) protocol.DocumentURI {
	return uri.File(m.SourceMap().GeneratedFile)
}
