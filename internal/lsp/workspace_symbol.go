// Package lsp implements LSP protocol handlers.
package lsp

import (
	"log"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/kitelang/kite-lsp/internal/server"
	"github.com/kitelang/kite-lsp/internal/workspace"
)

// WorkspaceSymbol handles the workspace/symbol request.
// It returns symbols across the entire workspace that match the query string.
func WorkspaceSymbol(context *glsp.Context, params *protocol.WorkspaceSymbolParams) ([]protocol.SymbolInformation, error) {
	srv, ok := serverInstance.(*server.Server)
	if !ok || srv == nil {
		log.Println("Warning: server instance not available in WorkspaceSymbol")
		return nil, nil
	}

	query := params.Query
	log.Printf("WorkspaceSymbol request with query: %q\n", query)

	index := srv.WorkspaceIndex()
	if index == nil {
		log.Println("Warning: workspace index not available")
		return nil, nil
	}

	// Limit to 500 results to avoid overwhelming the client
	const maxResults = 500

	// An empty index usually means initialization has not indexed yet;
	// build it synchronously so the first query still gets answers.
	if index.GetFileCount() == 0 {
		indexer := workspace.NewIndexer(index, srv.WorkspaceFiles())
		indexer.BuildWorkspaceIndex()
	}

	symbolLocations := index.Search(query, maxResults)

	log.Printf("Found %d workspace symbols matching query %q\n", len(symbolLocations), query)

	var symbols []protocol.SymbolInformation

	for _, symLoc := range symbolLocations {
		symbolInfo := protocol.SymbolInformation{
			Name:     symLoc.Name,
			Kind:     symLoc.Kind,
			Location: symLoc.Location,
		}

		if symLoc.ContainerName != "" {
			symbolInfo.ContainerName = &symLoc.ContainerName
		}

		symbols = append(symbols, symbolInfo)
	}

	return symbols, nil
}
