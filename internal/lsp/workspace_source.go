// Package lsp implements LSP protocol handlers.
package lsp

import (
	"github.com/kitelang/kite-lsp/internal/analysis"
	"github.com/kitelang/kite-lsp/internal/server"
)

// workspaceSource adapts the server's file and document state to the
// analysis.FileSource interface the import graph walks. Open documents win
// over on-disk content, so cycle detection sees unsaved edits.
type workspaceSource struct {
	srv *server.Server
}

func newWorkspaceSource(srv *server.Server) *workspaceSource {
	return &workspaceSource{srv: srv}
}

// KiteFiles lists every known Kite file: the workspace scan plus any open
// documents living outside the workspace folders.
func (ws *workspaceSource) KiteFiles() []string {
	files := ws.srv.WorkspaceFiles().KiteFiles()

	known := make(map[string]bool, len(files))
	for _, f := range files {
		known[analysis.NormalizePath(f)] = true
	}

	for _, uri := range ws.srv.Documents().List() {
		path := analysis.URIToPathOrSelf(uri)
		if !known[analysis.NormalizePath(path)] {
			files = append(files, path)
		}
	}

	return files
}

// FileContent returns a file's text, preferring the open editor buffer.
func (ws *workspaceSource) FileContent(path string) (string, bool) {
	for _, uri := range ws.srv.Documents().List() {
		if analysis.SamePath(analysis.URIToPathOrSelf(uri), path) {
			if doc, ok := ws.srv.Documents().Get(uri); ok {
				return doc.Text, true
			}
		}
	}

	return ws.srv.WorkspaceFiles().FileContent(path)
}
