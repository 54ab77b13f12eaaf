// Package lsp implements LSP protocol handlers.
package lsp

import (
	"log"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/kitelang/kite-lsp/internal/analysis"
	"github.com/kitelang/kite-lsp/internal/document"
	"github.com/kitelang/kite-lsp/internal/parser"
	"github.com/kitelang/kite-lsp/internal/server"
)

// DidOpen handles the textDocument/didOpen notification.
// This is sent when a document is opened in the editor.
func DidOpen(context *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	srv, ok := serverInstance.(*server.Server)
	if !ok || srv == nil {
		log.Println("Warning: server instance not available in DidOpen")
		return nil
	}

	uri := params.TextDocument.URI
	text := params.TextDocument.Text
	languageID := params.TextDocument.LanguageID
	version := int(params.TextDocument.Version)

	log.Printf("Document opened: %s (version %d, language %s, %d bytes)\n",
		uri, version, languageID, len(text))

	doc := &server.Document{
		URI:        uri,
		Text:       text,
		Version:    version,
		LanguageID: languageID,
		Parse:      parser.Parse(text),
	}

	srv.Documents().Set(uri, doc)

	refreshDocument(srv, doc)

	PublishDiagnostics(context, uri, ValidateDocument(srv, doc))

	return nil
}

// DidChange handles the textDocument/didChange notification.
// This is sent when a document's content changes in the editor.
// It supports both full and incremental sync modes.
func DidChange(context *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	srv, ok := serverInstance.(*server.Server)
	if !ok || srv == nil {
		log.Println("Warning: server instance not available in DidChange")
		return nil
	}

	uri := params.TextDocument.URI
	version := int(params.TextDocument.Version)

	doc, exists := srv.Documents().Get(uri)
	if !exists {
		log.Printf("Warning: Document not found for didChange: %s\n", uri)
		return nil
	}

	// Apply all content changes
	newText := doc.Text

	for i, changeInterface := range params.ContentChanges {
		change, ok := changeInterface.(protocol.TextDocumentContentChangeEvent)
		if !ok {
			log.Printf("Warning: Invalid content change type at index %d for %s\n", i, uri)
			continue
		}

		if change.Range == nil {
			// Full sync mode: replace entire document text
			newText = change.Text
		} else {
			// Incremental sync mode: apply diff
			updatedText, err := document.ApplyContentChange(newText, change)
			if err != nil {
				log.Printf("Error applying incremental change to %s: %v\n", uri, err)
				// Continue with unchanged text to avoid corruption
				continue
			}

			newText = updatedText
		}
	}

	updatedDoc := &server.Document{
		URI:        uri,
		Text:       newText,
		Version:    version,
		LanguageID: doc.LanguageID,
		Parse:      parser.Parse(newText),
	}
	srv.Documents().Set(uri, updatedDoc)

	refreshDocument(srv, updatedDoc)

	if srv.CompletionCache() != nil {
		srv.CompletionCache().InvalidateDocument(uri)
	}

	PublishDiagnostics(context, uri, ValidateDocument(srv, updatedDoc))

	return nil
}

// DidClose handles the textDocument/didClose notification.
// This is sent when a document is closed in the editor.
func DidClose(context *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	srv, ok := serverInstance.(*server.Server)
	if !ok || srv == nil {
		log.Println("Warning: server instance not available in DidClose")
		return nil
	}

	uri := params.TextDocument.URI

	srv.Documents().Delete(uri)

	if srv.Symbols() != nil {
		srv.Symbols().RemoveDocument(uri)
	}

	if srv.CompletionCache() != nil {
		srv.CompletionCache().InvalidateDocument(uri)
	}

	if srv.DiagnosticData() != nil {
		srv.DiagnosticData().RemoveDocument(uri)
	}

	log.Printf("Document closed: %s\n", uri)

	// Send empty diagnostics to clear error markers in the editor
	// Only send notification if context is properly initialized (not in tests)
	if context != nil && context.Notify != nil {
		diagnosticsParams := &protocol.PublishDiagnosticsParams{
			URI:         uri,
			Diagnostics: []protocol.Diagnostic{},
		}
		context.Notify(protocol.ServerTextDocumentPublishDiagnostics, diagnosticsParams)
	}

	return nil
}

// DidSave handles the textDocument/didSave notification.
// A save is the moment the on-disk file matches the editor buffer, so other
// files that import this one get revalidated against fresh content.
func DidSave(context *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	srv, ok := serverInstance.(*server.Server)
	if !ok || srv == nil {
		log.Println("Warning: server instance not available in DidSave")
		return nil
	}

	uri := params.TextDocument.URI

	log.Printf("Document saved: %s\n", uri)

	// Revalidate other open documents; their import resolution and symbol
	// visibility may depend on this file.
	for _, otherURI := range srv.Documents().List() {
		if otherURI == uri {
			continue
		}

		if other, ok := srv.Documents().Get(otherURI); ok {
			PublishDiagnostics(context, otherURI, ValidateDocument(srv, other))
		}
	}

	return nil
}

// refreshDocument updates the per-document occurrence index and the
// workspace symbol index after a document's text changed.
func refreshDocument(srv *server.Server, doc *server.Document) {
	if srv.Symbols() != nil {
		srv.Symbols().UpdateDocument(doc)
	}

	if srv.WorkspaceIndex() != nil {
		decls := analysis.ExtractDeclarations(doc.Text, doc.URI)
		srv.WorkspaceIndex().UpdateFile(doc.URI, decls)
		srv.WorkspaceIndex().UpdateFileVersion(doc.URI, int32(doc.Version))
	}
}
