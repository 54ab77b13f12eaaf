package workspace

import (
	"log"
	"strings"
	"sync"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/kitelang/kite-lsp/internal/analysis"
)

// SymbolLocation represents a location where a symbol is defined.
type SymbolLocation struct {
	Name          string              // Symbol name
	Kind          protocol.SymbolKind // Symbol kind (Struct, Function, Variable, etc.)
	DeclKind      analysis.DeclKind   // The Kite declaration kind
	Location      protocol.Location   // Full location with URI and range
	ContainerName string              // Name of containing scope (e.g., component name)
	Detail        string              // Additional detail (e.g., schema type)
}

// FileInfo stores metadata about an indexed file.
type FileInfo struct {
	URI     string   // Document URI
	Version int32    // Document version
	Symbols []string // List of symbol names defined in this file
}

// SymbolIndex maintains a workspace-wide index of symbols.
// It provides thread-safe access to symbol information across all files.
type SymbolIndex struct {
	// symbols maps symbol names to their locations. Multiple locations
	// support the same name defined in different files.
	symbols map[string][]SymbolLocation

	// files maps document URIs to file metadata
	files map[string]*FileInfo

	// generation increments on every mutation so cached views keyed on
	// it go stale when the index changes
	generation uint64

	// mutex protects concurrent access to the index
	mutex sync.RWMutex
}

// NewSymbolIndex creates a new empty symbol index.
func NewSymbolIndex() *SymbolIndex {
	return &SymbolIndex{
		symbols: make(map[string][]SymbolLocation),
		files:   make(map[string]*FileInfo),
	}
}

// SymbolKindFor maps a Kite declaration kind to an LSP symbol kind.
func SymbolKindFor(kind analysis.DeclKind) protocol.SymbolKind {
	switch kind {
	case analysis.DeclSchema:
		return protocol.SymbolKindStruct
	case analysis.DeclComponent:
		return protocol.SymbolKindClass
	case analysis.DeclResource:
		return protocol.SymbolKindObject
	case analysis.DeclFunction:
		return protocol.SymbolKindFunction
	case analysis.DeclInput, analysis.DeclOutput:
		return protocol.SymbolKindProperty
	case analysis.DeclTypeAlias:
		return protocol.SymbolKindTypeParameter
	default:
		return protocol.SymbolKindVariable
	}
}

// AddDeclaration indexes one extracted declaration.
func (si *SymbolIndex) AddDeclaration(uri string, decl analysis.Declaration, containerName string) {
	si.mutex.Lock()
	defer si.mutex.Unlock()

	detail := decl.Kind.String()

	switch {
	case decl.SchemaName != "":
		detail = "resource " + decl.SchemaName
	case decl.ComponentType != "":
		detail = "component " + decl.ComponentType
	case decl.TypeName != "":
		detail = decl.Kind.String() + ": " + decl.TypeName
	}

	location := SymbolLocation{
		Name:     decl.Name,
		Kind:     SymbolKindFor(decl.Kind),
		DeclKind: decl.Kind,
		Location: protocol.Location{
			URI:   uri,
			Range: decl.NameRange,
		},
		ContainerName: containerName,
		Detail:        detail,
	}

	si.symbols[decl.Name] = append(si.symbols[decl.Name], location)
	si.generation++

	fileInfo, exists := si.files[uri]
	if !exists {
		fileInfo = &FileInfo{URI: uri}
		si.files[uri] = fileInfo
	}

	fileInfo.Symbols = append(fileInfo.Symbols, decl.Name)
}

// UpdateFile replaces a file's symbols with freshly extracted declarations.
// Only globally visible declarations are indexed; block-scoped bindings are
// never meaningful across files.
func (si *SymbolIndex) UpdateFile(uri string, decls []analysis.Declaration) {
	si.RemoveFile(uri)

	for _, decl := range decls {
		if !decl.IsGlobal() {
			continue
		}

		si.AddDeclaration(uri, decl, "")
	}
}

// FindSymbol searches for all locations where a symbol is defined.
// Returns nil if the symbol is not found.
func (si *SymbolIndex) FindSymbol(name string) []SymbolLocation {
	si.mutex.RLock()
	defer si.mutex.RUnlock()

	locations, exists := si.symbols[name]
	if !exists {
		return nil
	}

	// Return a copy to avoid external modification
	result := make([]SymbolLocation, len(locations))
	copy(result, locations)

	return result
}

// FindSymbolsInFile returns all symbols defined in a specific file.
func (si *SymbolIndex) FindSymbolsInFile(uri string) []SymbolLocation {
	si.mutex.RLock()
	defer si.mutex.RUnlock()

	fileInfo, exists := si.files[uri]
	if !exists {
		return nil
	}

	var result []SymbolLocation

	for _, symbolName := range fileInfo.Symbols {
		for _, loc := range si.symbols[symbolName] {
			if loc.Location.URI == uri {
				result = append(result, loc)
			}
		}
	}

	return result
}

// AllSymbolNames returns every distinct symbol name in the index.
func (si *SymbolIndex) AllSymbolNames() []string {
	si.mutex.RLock()
	defer si.mutex.RUnlock()

	names := make([]string, 0, len(si.symbols))
	for name := range si.symbols {
		names = append(names, name)
	}

	return names
}

// RemoveFile removes all symbols from a file.
// This should be called when a file is deleted or before re-indexing.
func (si *SymbolIndex) RemoveFile(uri string) {
	si.mutex.Lock()
	defer si.mutex.Unlock()

	fileInfo, exists := si.files[uri]
	if !exists {
		return
	}

	for _, symbolName := range fileInfo.Symbols {
		var remaining []SymbolLocation

		for _, loc := range si.symbols[symbolName] {
			if loc.Location.URI != uri {
				remaining = append(remaining, loc)
			}
		}

		if len(remaining) > 0 {
			si.symbols[symbolName] = remaining
		} else {
			delete(si.symbols, symbolName)
		}
	}

	delete(si.files, uri)
	si.generation++
}

// Generation returns a counter that advances whenever the index content
// changes. Callers caching derived views include it in their cache keys.
func (si *SymbolIndex) Generation() uint64 {
	si.mutex.RLock()
	defer si.mutex.RUnlock()

	return si.generation
}

// UpdateFileVersion updates the version number for a file.
func (si *SymbolIndex) UpdateFileVersion(uri string, version int32) {
	si.mutex.Lock()
	defer si.mutex.Unlock()

	if fileInfo, exists := si.files[uri]; exists {
		fileInfo.Version = version
	}
}

// GetFileCount returns the number of files in the index.
func (si *SymbolIndex) GetFileCount() int {
	si.mutex.RLock()
	defer si.mutex.RUnlock()

	return len(si.files)
}

// GetTotalLocationCount returns the total number of symbol locations across all symbols.
func (si *SymbolIndex) GetTotalLocationCount() int {
	si.mutex.RLock()
	defer si.mutex.RUnlock()

	count := 0
	for _, locations := range si.symbols {
		count += len(locations)
	}

	return count
}

// Clear removes all symbols and file information from the index.
func (si *SymbolIndex) Clear() {
	si.mutex.Lock()
	defer si.mutex.Unlock()

	si.symbols = make(map[string][]SymbolLocation)
	si.files = make(map[string]*FileInfo)
	si.generation++

	log.Println("Symbol index cleared")
}

// Search returns symbols whose names contain the query string
// (case-insensitive). An empty query returns all symbols up to maxResults.
func (si *SymbolIndex) Search(query string, maxResults int) []SymbolLocation {
	si.mutex.RLock()
	defer si.mutex.RUnlock()

	queryLower := strings.ToLower(query)

	var results []SymbolLocation

	for _, locations := range si.symbols {
		for _, loc := range locations {
			if query != "" && !strings.Contains(strings.ToLower(loc.Name), queryLower) {
				continue
			}

			results = append(results, loc)

			if maxResults > 0 && len(results) >= maxResults {
				return results
			}
		}
	}

	return results
}
