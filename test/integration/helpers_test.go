//go:build integration
// +build integration

package integration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kitelang/kite-lsp/internal/lsp"
	"github.com/kitelang/kite-lsp/internal/server"
)

// setupTestServer creates a fresh server and registers it with the handlers.
func setupTestServer() *server.Server {
	srv := server.New()
	lsp.SetServer(srv)

	return srv
}

// writeWorkspace materializes files into a temp dir and points the server's
// workspace at it. Keys are relative file names, values their content.
func writeWorkspace(t *testing.T, srv *server.Server, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()

	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))

		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir for %s: %v", name, err)
		}

		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	srv.SetWorkspaceFolders([]string{dir})

	return dir
}

func stringPtr(s string) *string {
	return &s
}
