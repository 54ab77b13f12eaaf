// Package lsp implements LSP protocol handlers.
package lsp

import (
	"fmt"
	"log"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/kitelang/kite-lsp/internal/analysis"
	"github.com/kitelang/kite-lsp/internal/server"
)

// CodeAction handles the textDocument/codeAction request.
// The supported quick fix adds a missing import for a symbol the validator
// found in another workspace file.
func CodeAction(context *glsp.Context, params *protocol.CodeActionParams) (any, error) {
	srv, ok := serverInstance.(*server.Server)
	if !ok || srv == nil {
		log.Println("Warning: server instance not available in CodeAction")
		return nil, nil
	}

	uri := params.TextDocument.URI
	diagnostics := params.Context.Diagnostics

	log.Printf("CodeAction request at %s with %d diagnostic(s)\n", uri, len(diagnostics))

	doc, exists := srv.Documents().Get(uri)
	if !exists {
		log.Printf("Document not found for code action: %s\n", uri)
		return nil, nil
	}

	var actions []protocol.CodeAction

	for _, diagnostic := range diagnostics {
		if action := addImportAction(srv, doc, diagnostic); action != nil {
			actions = append(actions, *action)
		}
	}

	log.Printf("Returning %d code actions\n", len(actions))

	return actions, nil
}

// addImportAction builds the "Add import" quick fix for a diagnostic whose
// Data key correlates with stored quick-fix data. Data round-trips through
// the client as an opaque JSON value, so only the key travels on the wire.
func addImportAction(srv *server.Server, doc *server.Document, diagnostic protocol.Diagnostic) *protocol.CodeAction {
	key, ok := diagnostic.Data.(string)
	if !ok || key == "" {
		return nil
	}

	store := srv.DiagnosticData()
	if store == nil {
		return nil
	}

	data, ok := store.Get(doc.URI, key)
	if !ok {
		log.Printf("No quick-fix data for diagnostic key %s\n", key)
		return nil
	}

	importStatement := fmt.Sprintf("import { %s } from \"%s\"\n", data.SymbolName, data.ImportPath)

	insertAt := importInsertionLine(doc.Text)

	edit := protocol.TextEdit{
		Range: protocol.Range{
			Start: protocol.Position{Line: insertAt, Character: 0},
			End:   protocol.Position{Line: insertAt, Character: 0},
		},
		NewText: importStatement,
	}

	title := fmt.Sprintf("Add import for '%s'", data.SymbolName)

	action := protocol.CodeAction{
		Title:       title,
		Kind:        stringPtr(string(protocol.CodeActionKindQuickFix)),
		Diagnostics: []protocol.Diagnostic{diagnostic},
		Edit: &protocol.WorkspaceEdit{
			Changes: map[protocol.DocumentUri][]protocol.TextEdit{
				doc.URI: {edit},
			},
		},
	}

	log.Printf("Created quick fix: %s\n", title)

	return &action
}

// importInsertionLine returns the line a new import statement should be
// inserted at: right after the last existing import, else the top of the
// file.
func importInsertionLine(text string) uint32 {
	imports := analysis.ExtractImportPaths(text)
	if len(imports) == 0 {
		return 0
	}

	last := imports[len(imports)-1]

	return uint32(last.Line + 1)
}
