// Package lsp implements LSP protocol handlers.
package lsp

import (
	"errors"
	"fmt"
	"log"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/kitelang/kite-lsp/internal/analysis"
	"github.com/kitelang/kite-lsp/internal/builtins"
	"github.com/kitelang/kite-lsp/internal/parser"
	"github.com/kitelang/kite-lsp/internal/server"
)

// Rename handles the textDocument/rename request.
// It renames a symbol across every reference in the workspace, including
// unopened files.
func Rename(context *glsp.Context, params *protocol.RenameParams) (*protocol.WorkspaceEdit, error) {
	srv, ok := serverInstance.(*server.Server)
	if !ok || srv == nil {
		log.Println("Warning: server instance not available in Rename")
		return nil, errors.New("server instance not available")
	}

	uri := params.TextDocument.URI
	position := params.Position
	newName := params.NewName

	log.Printf("Rename request at %s line %d, character %d (newName=%s)\n",
		uri, position.Line, position.Character, newName)

	doc, exists := srv.Documents().Get(uri)
	if !exists {
		log.Printf("Document not found for rename: %s\n", uri)
		return nil, fmt.Errorf("document not found: %s", uri)
	}

	offset := analysis.PositionToOffset(doc.Text, position)

	oldName := analysis.WordAt(doc.Text, offset)
	if oldName == "" {
		return nil, errors.New("no symbol found at cursor position")
	}

	if canRename, reason := canRenameSymbol(oldName); !canRename {
		log.Printf("Cannot rename symbol %s: %s\n", oldName, reason)
		return nil, fmt.Errorf("cannot rename '%s': %s", oldName, reason)
	}

	if !isIdentifier(newName) {
		return nil, fmt.Errorf("'%s' is not a valid identifier", newName)
	}

	if parser.IsKeyword(newName) {
		return nil, fmt.Errorf("'%s' is a reserved keyword", newName)
	}

	// All occurrences, declaration included
	refParams := &protocol.ReferenceParams{
		TextDocumentPositionParams: params.TextDocumentPositionParams,
		Context: protocol.ReferenceContext{
			IncludeDeclaration: true,
		},
	}

	locations, err := References(context, refParams)
	if err != nil {
		return nil, fmt.Errorf("failed to find references: %w", err)
	}

	if len(locations) == 0 {
		return nil, fmt.Errorf("no references found for symbol '%s'", oldName)
	}

	log.Printf("Renaming %d occurrence(s) of '%s' to '%s'\n", len(locations), oldName, newName)

	return buildWorkspaceEdit(locations, newName, srv.Documents()), nil
}

// PrepareRename handles the textDocument/prepareRename request.
// It validates whether a symbol can be renamed and returns the range and placeholder text.
func PrepareRename(context *glsp.Context, params *protocol.PrepareRenameParams) (any, error) {
	srv, ok := serverInstance.(*server.Server)
	if !ok || srv == nil {
		log.Println("Warning: server instance not available in PrepareRename")
		return nil, errors.New("server instance not available")
	}

	uri := params.TextDocument.URI
	position := params.Position

	doc, exists := srv.Documents().Get(uri)
	if !exists {
		return nil, fmt.Errorf("document not found: %s", uri)
	}

	offset := analysis.PositionToOffset(doc.Text, position)

	if analysis.IsInsideComment(doc.Text, offset) || analysis.IsInsideString(doc.Text, offset) {
		return nil, errors.New("cannot rename inside a comment or string")
	}

	symbolName := analysis.WordAt(doc.Text, offset)
	if symbolName == "" {
		return nil, errors.New("no symbol found at cursor position")
	}

	if canRename, reason := canRenameSymbol(symbolName); !canRename {
		return nil, fmt.Errorf("cannot rename '%s': %s", symbolName, reason)
	}

	// Range of the word under the cursor
	start := offset
	for start > 0 && isWordByte(doc.Text[start-1]) {
		start--
	}

	end := start
	for end < len(doc.Text) && isWordByte(doc.Text[end]) {
		end++
	}

	symbolRange := analysis.RangeBetween(doc.Text, start, end)

	log.Printf("PrepareRename accepted for symbol %s\n", symbolName)

	// According to the LSP spec this may be a Range or a range-with-placeholder
	return map[string]any{
		"range":       symbolRange,
		"placeholder": symbolName,
	}, nil
}

// canRenameSymbol checks whether a symbol can be renamed.
// It rejects Kite keywords, builtin types, functions, and decorators.
// Returns (true, "") if the symbol can be renamed, or (false, reason) if not.
func canRenameSymbol(symbolName string) (bool, string) {
	if parser.IsKeyword(symbolName) {
		return false, "cannot rename a keyword"
	}

	if builtins.IsBuiltinType(symbolName) {
		return false, "cannot rename a built-in type"
	}

	if builtins.IsBuiltinFunction(symbolName) {
		return false, "cannot rename a built-in function"
	}

	if builtins.LookupDecorator(symbolName) != nil {
		return false, "cannot rename a built-in decorator"
	}

	return true, ""
}

// buildWorkspaceEdit creates a WorkspaceEdit from a list of locations.
// It groups edits by document URI and creates TextDocumentEdit entries.
func buildWorkspaceEdit(locations []protocol.Location, newName string, docs *server.DocumentStore) *protocol.WorkspaceEdit {
	editsByURI := make(map[protocol.DocumentUri][]protocol.TextEdit)

	for _, loc := range locations {
		editsByURI[loc.URI] = append(editsByURI[loc.URI], protocol.TextEdit{
			Range:   loc.Range,
			NewText: newName,
		})
	}

	// DocumentChanges rather than Changes, so edits carry document versions
	var documentChanges []any

	for uri, edits := range editsByURI {
		var version *int32

		if doc, exists := docs.Get(uri); exists {
			v := int32(doc.Version)
			version = &v
		}

		documentChanges = append(documentChanges, protocol.TextDocumentEdit{
			TextDocument: protocol.OptionalVersionedTextDocumentIdentifier{
				TextDocumentIdentifier: protocol.TextDocumentIdentifier{
					URI: uri,
				},
				Version: version,
			},
			Edits: convertToEdits(edits),
		})
	}

	log.Printf("Built WorkspaceEdit with %d document(s) and %d total edit(s)\n",
		len(documentChanges), len(locations))

	return &protocol.WorkspaceEdit{
		DocumentChanges: documentChanges,
	}
}

// convertToEdits converts []protocol.TextEdit to []interface{} as required by the protocol.
func convertToEdits(textEdits []protocol.TextEdit) []any {
	edits := make([]any, len(textEdits))
	for i, edit := range textEdits {
		edits[i] = edit
	}

	return edits
}
