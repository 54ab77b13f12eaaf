// Package lsp implements LSP protocol handlers.
package lsp

import (
	"log"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/kitelang/kite-lsp/internal/analysis"
	"github.com/kitelang/kite-lsp/internal/server"
	"github.com/kitelang/kite-lsp/internal/workspace"
)

// Definition handles the textDocument/definition request.
// Resolution order: the import path under the cursor, then declarations in
// the current file, then the workspace index with imported files preferred.
func Definition(context *glsp.Context, params *protocol.DefinitionParams) (interface{}, error) {
	srv, ok := serverInstance.(*server.Server)
	if !ok || srv == nil {
		log.Println("Warning: server instance not available in Definition")
		return nil, nil
	}

	uri := params.TextDocument.URI
	position := params.Position

	doc, exists := srv.Documents().Get(uri)
	if !exists {
		log.Printf("Document not found for definition: %s\n", uri)
		return nil, nil
	}

	offset := analysis.PositionToOffset(doc.Text, position)

	// Cursor on an import path jumps to the imported file
	if loc := importTargetLocation(srv, doc, offset); loc != nil {
		return loc, nil
	}

	if analysis.IsInsideComment(doc.Text, offset) || analysis.IsInsideString(doc.Text, offset) {
		return nil, nil
	}

	word := analysis.WordAt(doc.Text, offset)
	if word == "" {
		return nil, nil
	}

	log.Printf("Definition request for '%s' at %s %d:%d\n", word, uri, position.Line, position.Character)

	// Local declarations first
	if decl := findVisibleDeclaration(doc, word, offset); decl != nil {
		return &protocol.Location{URI: uri, Range: decl.NameRange}, nil
	}

	// Then the workspace index, preferring files the document imports
	index := srv.WorkspaceIndex()
	if index == nil {
		return nil, nil
	}

	candidates := index.FindSymbol(word)
	if len(candidates) == 0 {
		log.Printf("No definition found for '%s'\n", word)
		return nil, nil
	}

	imports := analysis.ExtractImportPaths(doc.Text)
	currentPath := analysis.URIToPathOrSelf(uri)

	if loc := pickImported(candidates, imports, word, currentPath); loc != nil {
		return loc, nil
	}

	return &protocol.Location{
		URI:   candidates[0].Location.URI,
		Range: candidates[0].Location.Range,
	}, nil
}

// importTargetLocation resolves the import statement covering offset to the
// start of the imported file.
func importTargetLocation(srv *server.Server, doc *server.Document, offset int) *protocol.Location {
	if !analysis.IsInsideString(doc.Text, offset) {
		return nil
	}

	currentPath := analysis.URIToPathOrSelf(doc.URI)
	source := newWorkspaceSource(srv)

	for _, imp := range analysis.ExtractImportPaths(doc.Text) {
		if offset < imp.Start || offset > imp.End {
			continue
		}

		resolved := analysis.ResolveImportPath(imp.Path, currentPath, source.KiteFiles())
		if resolved == "" {
			return nil
		}

		return &protocol.Location{
			URI: analysis.PathToURI(resolved),
			Range: protocol.Range{
				Start: protocol.Position{Line: 0, Character: 0},
				End:   protocol.Position{Line: 0, Character: 0},
			},
		}
	}

	return nil
}

// pickImported returns the first candidate whose defining file the current
// document imports.
func pickImported(candidates []workspace.SymbolLocation, imports []analysis.ImportInfo, word, currentPath string) *protocol.Location {
	for _, candidate := range candidates {
		definingPath := analysis.URIToPathOrSelf(candidate.Location.URI)

		if analysis.IsSymbolImported(imports, word, definingPath, currentPath) {
			return &protocol.Location{
				URI:   candidate.Location.URI,
				Range: candidate.Location.Range,
			}
		}
	}

	return nil
}
