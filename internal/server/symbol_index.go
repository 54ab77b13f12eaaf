package server

import (
	"sync"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/kitelang/kite-lsp/internal/analysis"
	"github.com/kitelang/kite-lsp/internal/parser"
)

// SymbolIndex caches identifier occurrences per open document so reference
// search and rename do not rescan every document on each request.
type SymbolIndex struct {
	mu         sync.RWMutex
	references map[string]map[string][]protocol.Range
}

// NewSymbolIndex creates an empty occurrence index.
func NewSymbolIndex() *SymbolIndex {
	return &SymbolIndex{
		references: make(map[string]map[string][]protocol.Range),
	}
}

// UpdateDocument re-tokenizes a document and replaces its occurrence lists.
// Identifiers inside comments and strings never appear: the lexer already
// classifies those regions.
func (si *SymbolIndex) UpdateDocument(doc *Document) {
	if doc == nil {
		return
	}

	ranges := make(map[string][]protocol.Range)

	for _, token := range parser.Tokenize(doc.Text) {
		if token.Kind != parser.TokenWord || parser.IsKeyword(token.Text) {
			continue
		}

		ranges[token.Text] = append(ranges[token.Text], analysis.RangeBetween(doc.Text, token.Start, token.End))
	}

	si.mu.Lock()
	defer si.mu.Unlock()

	// Remove existing entries for the document
	for symbol, uris := range si.references {
		if _, ok := uris[doc.URI]; ok {
			delete(uris, doc.URI)
			if len(uris) == 0 {
				delete(si.references, symbol)
			}
		}
	}

	for symbol, list := range ranges {
		if len(list) == 0 {
			continue
		}

		if _, ok := si.references[symbol]; !ok {
			si.references[symbol] = make(map[string][]protocol.Range)
		}

		si.references[symbol][doc.URI] = list
	}
}

// RemoveDocument drops all occurrences recorded for a URI.
func (si *SymbolIndex) RemoveDocument(uri string) {
	if uri == "" {
		return
	}

	si.mu.Lock()
	defer si.mu.Unlock()

	for symbol, uris := range si.references {
		if _, ok := uris[uri]; ok {
			delete(uris, uri)
			if len(uris) == 0 {
				delete(si.references, symbol)
			}
		}
	}
}

// FindReferences returns every recorded occurrence of a symbol across open
// documents.
func (si *SymbolIndex) FindReferences(symbolName string) []protocol.Location {
	if symbolName == "" {
		return nil
	}

	si.mu.RLock()
	defer si.mu.RUnlock()

	uris, ok := si.references[symbolName]
	if !ok {
		return nil
	}

	var locations []protocol.Location

	for uri, ranges := range uris {
		for _, r := range ranges {
			locations = append(locations, protocol.Location{URI: uri, Range: r})
		}
	}

	return locations
}
