// Package lsp implements an editor-facing proxy server that sits between
// an IDE and clangd: it speaks LSP to both sides, and rewrites every
// position that crosses the boundary between a .blcpp/.blh source file
// and its generated .cpp counterpart via pkg/sourcemap.Mapper (spec §6).
package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/golang/glog"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
)

// DiagnosticsHandler is called when clangd publishes diagnostics for a
// generated file.
type DiagnosticsHandler func(ctx context.Context, params protocol.PublishDiagnosticsParams) error

// ClangdClient manages a clangd subprocess and forwards LSP requests to it.
type ClangdClient struct {
	cmd         *exec.Cmd
	conn        jsonrpc2.Conn
	clangdPath  string
	restarts    int
	maxRestarts int

	mu      sync.Mutex
	closeMu sync.Mutex
	closing bool

	diagHandler DiagnosticsHandler
}

// NewClangdClient starts a clangd subprocess at clangdPath (e.g. "clangd"
// resolved via PATH, or a configured absolute path).
func NewClangdClient(clangdPath string) (*ClangdClient, error) {
	if _, err := exec.LookPath(clangdPath); err != nil {
		return nil, fmt.Errorf("clangd not found at %s: %w", clangdPath, err)
	}

	c := &ClangdClient{clangdPath: clangdPath, maxRestarts: 3}
	if err := c.start(); err != nil {
		return nil, err
	}
	return c, nil
}

// SetDiagnosticsHandler sets the callback invoked for each
// textDocument/publishDiagnostics notification clangd sends.
func (c *ClangdClient) SetDiagnosticsHandler(h DiagnosticsHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.diagHandler = h
}

func (c *ClangdClient) start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cmd = exec.Command(c.clangdPath, "--log=error")

	stdin, err := c.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("clangd stdin pipe: %w", err)
	}
	stdout, err := c.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("clangd stdout pipe: %w", err)
	}
	stderr, err := c.cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("clangd stderr pipe: %w", err)
	}

	if err := c.cmd.Start(); err != nil {
		return fmt.Errorf("clangd start: %w", err)
	}
	go c.logStderr(stderr)

	stream := jsonrpc2.NewStream(newRWC(stdin, stdout))
	c.conn = jsonrpc2.NewConn(stream)

	handler := jsonrpc2.ReplyHandler(func(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
		switch req.Method() {
		case "textDocument/publishDiagnostics":
			var params protocol.PublishDiagnosticsParams
			if err := json.Unmarshal(req.Params(), &params); err != nil {
				glog.V(1).Infof("lsp: malformed diagnostics from clangd: %v", err)
				return reply(ctx, nil, nil)
			}
			c.mu.Lock()
			h := c.diagHandler
			c.mu.Unlock()
			if h != nil {
				if err := h(ctx, params); err != nil {
					glog.V(1).Infof("lsp: diagnostics handler error: %v", err)
				}
			}
			return reply(ctx, nil, nil)
		case "client/registerCapability", "client/unregisterCapability":
			return reply(ctx, nil, nil)
		case "window/showMessage", "window/logMessage":
			return reply(ctx, nil, nil)
		default:
			return reply(ctx, nil, nil)
		}
	})
	c.conn.Go(context.Background(), handler)

	glog.V(1).Infof("lsp: clangd started (pid %d)", c.cmd.Process.Pid)

	go func() {
		err := c.cmd.Wait()
		c.closeMu.Lock()
		closing := c.closing
		c.closeMu.Unlock()
		if err != nil && !closing {
			glog.Warningf("lsp: clangd exited unexpectedly: %v", err)
			if rerr := c.handleCrash(); rerr != nil {
				glog.Errorf("lsp: clangd restart failed: %v", rerr)
			}
		}
	}()

	return nil
}

func (c *ClangdClient) logStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 4096), 1024*1024)
	for scanner.Scan() {
		glog.V(2).Infof("clangd: %s", scanner.Text())
	}
}

func (c *ClangdClient) handleCrash() error {
	c.mu.Lock()
	if c.restarts >= c.maxRestarts {
		restarts := c.restarts
		c.mu.Unlock()
		return fmt.Errorf("clangd crashed %d times, giving up", restarts)
	}
	c.restarts++
	attempt := c.restarts
	c.mu.Unlock()
	glog.Warningf("lsp: restarting clangd (attempt %d/%d)", attempt, c.maxRestarts)
	// start takes c.mu itself, so it runs with the lock released.
	return c.start()
}

// Initialize sends the initialize request to clangd.
func (c *ClangdClient) Initialize(ctx context.Context, params protocol.InitializeParams) (*protocol.InitializeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	var result protocol.InitializeResult
	if _, err := c.conn.Call(ctx, "initialize", params, &result); err != nil {
		return nil, fmt.Errorf("clangd initialize: %w", err)
	}
	return &result, nil
}

// Initialized sends the initialized notification to clangd.
func (c *ClangdClient) Initialized(ctx context.Context, params *protocol.InitializedParams) error {
	return c.conn.Notify(ctx, "initialized", params)
}

// Completion forwards a completion request to clangd.
func (c *ClangdClient) Completion(ctx context.Context, params protocol.CompletionParams) (*protocol.CompletionList, error) {
	var result protocol.CompletionList
	if _, err := c.conn.Call(ctx, "textDocument/completion", params, &result); err != nil {
		return nil, fmt.Errorf("clangd completion: %w", err)
	}
	return &result, nil
}

// Definition forwards a definition request to clangd.
func (c *ClangdClient) Definition(ctx context.Context, params protocol.DefinitionParams) ([]protocol.Location, error) {
	var result []protocol.Location
	if _, err := c.conn.Call(ctx, "textDocument/definition", params, &result); err != nil {
		return nil, fmt.Errorf("clangd definition: %w", err)
	}
	return result, nil
}

// Hover forwards a hover request to clangd.
func (c *ClangdClient) Hover(ctx context.Context, params protocol.HoverParams) (*protocol.Hover, error) {
	var result protocol.Hover
	if _, err := c.conn.Call(ctx, "textDocument/hover", params, &result); err != nil {
		return nil, fmt.Errorf("clangd hover: %w", err)
	}
	return &result, nil
}

// DidOpen, DidChange, DidSave and DidClose forward document sync
// notifications for generated .cpp files to clangd.
func (c *ClangdClient) DidOpen(ctx context.Context, params protocol.DidOpenTextDocumentParams) error {
	return c.conn.Notify(ctx, "textDocument/didOpen", params)
}

func (c *ClangdClient) DidChange(ctx context.Context, params protocol.DidChangeTextDocumentParams) error {
	return c.conn.Notify(ctx, "textDocument/didChange", params)
}

func (c *ClangdClient) DidSave(ctx context.Context, params protocol.DidSaveTextDocumentParams) error {
	return c.conn.Notify(ctx, "textDocument/didSave", params)
}

func (c *ClangdClient) DidClose(ctx context.Context, params protocol.DidCloseTextDocumentParams) error {
	return c.conn.Notify(ctx, "textDocument/didClose", params)
}

// Shutdown gracefully stops the clangd subprocess.
func (c *ClangdClient) Shutdown(ctx context.Context) error {
	c.closeMu.Lock()
	c.closing = true
	c.closeMu.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	if _, err := c.conn.Call(ctx, "shutdown", nil, nil); err != nil {
		glog.V(1).Infof("lsp: clangd shutdown call failed: %v", err)
	}
	if err := c.conn.Notify(ctx, "exit", nil); err != nil {
		glog.V(1).Infof("lsp: clangd exit notify failed: %v", err)
	}
	if err := c.conn.Close(); err != nil {
		glog.V(2).Infof("lsp: clangd connection close: %v", err)
	}
	if c.cmd != nil && c.cmd.Process != nil {
		_ = c.cmd.Wait()
	}
	return nil
}

// rwc combines clangd's stdin/stdout pipes into one buffered
// io.ReadWriteCloser, flushing after every write so jsonrpc2 frames are
// delivered immediately rather than sitting in a pipe buffer.
type rwc struct {
	stdin  io.WriteCloser
	stdout io.ReadCloser
	reader *bufio.Reader
	writer *bufio.Writer
}

func newRWC(stdin io.WriteCloser, stdout io.ReadCloser) *rwc {
	return &rwc{
		stdin:  stdin,
		stdout: stdout,
		reader: bufio.NewReaderSize(stdout, 32*1024),
		writer: bufio.NewWriterSize(stdin, 32*1024),
	}
}

func (r *rwc) Read(p []byte) (int, error) { return r.reader.Read(p) }

func (r *rwc) Write(p []byte) (int, error) {
	n, err := r.writer.Write(p)
	if err != nil {
		return n, err
	}
	return n, r.writer.Flush()
}

func (r *rwc) Close() error {
	_ = r.writer.Flush()
	err1 := r.stdin.Close()
	err2 := r.stdout.Close()
	if err1 != nil {
		return err1
	}
	return err2
}
