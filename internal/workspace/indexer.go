package workspace

import (
	"log"

	"github.com/kitelang/kite-lsp/internal/analysis"
)

// Indexer handles workspace file indexing.
type Indexer struct {
	index *SymbolIndex
	files *Files
}

// NewIndexer creates a new workspace indexer.
func NewIndexer(index *SymbolIndex, files *Files) *Indexer {
	return &Indexer{
		index: index,
		files: files,
	}
}

// BuildWorkspaceIndex scans the workspace folders and indexes every Kite
// file. Files that cannot be read are skipped; extraction is best-effort,
// so files with syntax errors still contribute whatever declarations the
// scanner recovers.
func (idx *Indexer) BuildWorkspaceIndex() {
	paths := idx.files.KiteFiles()

	log.Printf("Starting workspace indexing for %d files", len(paths))

	indexed := 0

	for _, path := range paths {
		content, ok := idx.files.FileContent(path)
		if !ok {
			log.Printf("Warning: could not read file %s", path)
			continue
		}

		idx.IndexFile(path, content)
		indexed++
	}

	log.Printf("Workspace indexing complete. Indexed %d files, %d symbols",
		indexed, idx.index.GetTotalLocationCount())
}

// IndexFile extracts declarations from one file and updates the index.
func (idx *Indexer) IndexFile(path, content string) {
	uri := analysis.PathToURI(path)
	decls := analysis.ExtractDeclarations(content, uri)
	idx.index.UpdateFile(uri, decls)
}
