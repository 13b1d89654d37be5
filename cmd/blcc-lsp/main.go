// Command blcc-lsp is the editor-facing LSP entrypoint: it speaks LSP on
// stdio and proxies to a clangd subprocess via pkg/lsp.Server, rewriting
// positions across the .blcpp/.blh <-> generated .cpp boundary.
package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/exec"

	"github.com/golang/glog"
	"go.lsp.dev/jsonrpc2"

	"github.com/braceless-cpp/blcc/pkg/lsp"
)

func main() {
	flag.Parse()
	defer glog.Flush()

	clangdPath := findClangd()
	if clangdPath == "" {
		glog.Fatalf("clangd not found in $PATH. Install LLVM/clangd and retry.")
	}

	server, err := lsp.NewServer(lsp.ServerConfig{
		ClangdPath:    clangdPath,
		AutoTranslate: true,
	})
	if err != nil {
		glog.Fatalf("failed to create lsp server: %v", err)
	}

	rwc := &stdinoutCloser{stdin: os.Stdin, stdout: os.Stdout}
	stream := jsonrpc2.NewStream(rwc)
	conn := jsonrpc2.NewConn(stream)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server.SetConn(conn, ctx)

	conn.Go(ctx, server.Handler())
	<-conn.Done()
}

func findClangd() string {
	if env := os.Getenv("BLCC_CLANGD_PATH"); env != "" {
		if _, err := exec.LookPath(env); err == nil {
			return env
		}
	}
	path, err := exec.LookPath("clangd")
	if err != nil {
		return ""
	}
	return path
}

// stdinoutCloser wraps the process's stdin/stdout as one ReadWriteCloser
// for jsonrpc2's stream, matching the convention every LSP-over-stdio
// entrypoint needs (the IDE connects a pipe to each, not a single fd).
type stdinoutCloser struct {
	stdin  *os.File
	stdout *os.File
}

func (s *stdinoutCloser) Read(p []byte) (int, error)  { return s.stdin.Read(p) }
func (s *stdinoutCloser) Write(p []byte) (int, error) { return s.stdout.Write(p) }
func (s *stdinoutCloser) Close() error                { return nil }

var _ io.ReadWriteCloser = (*stdinoutCloser)(nil)
