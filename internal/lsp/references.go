// Package lsp implements LSP protocol handlers.
package lsp

import (
	"log"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/kitelang/kite-lsp/internal/analysis"
	"github.com/kitelang/kite-lsp/internal/parser"
	"github.com/kitelang/kite-lsp/internal/server"
)

// References handles the textDocument/references request.
// Occurrences in open documents come from the occurrence index; unopened
// workspace files are scanned on demand, with comments and strings masked.
func References(context *glsp.Context, params *protocol.ReferenceParams) ([]protocol.Location, error) {
	srv, ok := serverInstance.(*server.Server)
	if !ok || srv == nil {
		log.Println("Warning: server instance not available in References")
		return nil, nil
	}

	uri := params.TextDocument.URI
	position := params.Position

	doc, exists := srv.Documents().Get(uri)
	if !exists {
		log.Printf("Document not found for references: %s\n", uri)
		return nil, nil
	}

	offset := analysis.PositionToOffset(doc.Text, position)

	if analysis.IsInsideComment(doc.Text, offset) || analysis.IsInsideString(doc.Text, offset) {
		return nil, nil
	}

	word := analysis.WordAt(doc.Text, offset)
	if word == "" || parser.IsKeyword(word) {
		return nil, nil
	}

	log.Printf("References request for '%s' at %s %d:%d\n", word, uri, position.Line, position.Character)

	var locations []protocol.Location

	openURIs := make(map[string]bool)

	if srv.Symbols() != nil {
		locations = srv.Symbols().FindReferences(word)
	}

	for _, openURI := range srv.Documents().List() {
		openURIs[openURI] = true
	}

	// Unopened workspace files
	files := srv.WorkspaceFiles()
	for _, path := range files.KiteFiles() {
		fileURI := analysis.PathToURI(path)
		if openURIs[fileURI] {
			continue
		}

		content, ok := files.FileContent(path)
		if !ok || !strings.Contains(content, word) {
			continue
		}

		for _, r := range FindWordOccurrences(content, word) {
			locations = append(locations, protocol.Location{URI: fileURI, Range: r})
		}
	}

	if !params.Context.IncludeDeclaration {
		locations = excludeDeclarations(srv, word, locations)
	}

	log.Printf("Found %d reference(s) for '%s'\n", len(locations), word)

	return locations, nil
}

// FindWordOccurrences returns the ranges of every whole-word occurrence of
// word in text, skipping comments and string literals.
func FindWordOccurrences(text, word string) []protocol.Range {
	if word == "" {
		return nil
	}

	classes := analysis.ScanText(text)

	var ranges []protocol.Range

	for from := 0; ; {
		idx := strings.Index(text[from:], word)
		if idx < 0 {
			break
		}

		start := from + idx
		end := start + len(word)
		from = start + 1

		if classes[start] != analysis.ClassCode {
			continue
		}

		// Whole-word boundaries only
		if start > 0 && isWordByte(text[start-1]) {
			continue
		}

		if end < len(text) && isWordByte(text[end]) {
			continue
		}

		ranges = append(ranges, analysis.RangeBetween(text, start, end))
	}

	return ranges
}

// excludeDeclarations drops locations that are the symbol's declaration
// name, for requests with includeDeclaration=false.
func excludeDeclarations(srv *server.Server, word string, locations []protocol.Location) []protocol.Location {
	declRanges := make(map[string][]protocol.Range)

	collect := func(uri, text string) {
		for _, decl := range analysis.ExtractDeclarations(text, uri) {
			if decl.Name == word {
				declRanges[uri] = append(declRanges[uri], decl.NameRange)
			}
		}
	}

	for _, uri := range srv.Documents().List() {
		if doc, ok := srv.Documents().Get(uri); ok {
			collect(uri, doc.Text)
		}
	}

	files := srv.WorkspaceFiles()
	for _, path := range files.KiteFiles() {
		uri := analysis.PathToURI(path)
		if _, open := srv.Documents().Get(uri); open {
			continue
		}

		if content, ok := files.FileContent(path); ok && strings.Contains(content, word) {
			collect(uri, content)
		}
	}

	var filtered []protocol.Location

	for _, loc := range locations {
		isDecl := false

		for _, r := range declRanges[loc.URI] {
			if r == loc.Range {
				isDecl = true
				break
			}
		}

		if !isDecl {
			filtered = append(filtered, loc)
		}
	}

	return filtered
}
