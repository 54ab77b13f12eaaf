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

var (
	// serverInstance holds the global server instance
	// This is set by SetServer and accessed by handlers
	serverInstance interface{}
)

// SetServer sets the global server instance for handlers to access.
func SetServer(srv interface{}) {
	serverInstance = srv
}

// Initialize handles the LSP initialize request.
// This is the first request sent by the client and establishes the server capabilities.
func Initialize(context *glsp.Context, params *protocol.InitializeParams) (interface{}, error) {
	srv, ok := serverInstance.(*server.Server)
	if !ok || srv == nil {
		log.Println("Warning: server instance not available in Initialize")
	}

	// Record workspace folders so indexing can find .kite files
	if srv != nil {
		var folders []string

		for _, folder := range params.WorkspaceFolders {
			if path, err := analysis.URIToPath(folder.URI); err == nil {
				folders = append(folders, path)
			} else {
				log.Printf("Ignoring workspace folder with unusable URI %s: %v\n", folder.URI, err)
			}
		}

		if len(folders) == 0 && params.RootURI != nil {
			if path, err := analysis.URIToPath(*params.RootURI); err == nil {
				folders = append(folders, path)
			}
		}

		srv.SetWorkspaceFolders(folders)
		srv.SetClientCapabilities(&params.Capabilities)

		log.Printf("Initialize: %d workspace folder(s)\n", len(folders))
	}

	// Build server capabilities
	changeKind := protocol.TextDocumentSyncKindIncremental
	trueVal := true
	falseVal := false

	capabilities := protocol.ServerCapabilities{
		// Text document synchronization
		TextDocumentSync: protocol.TextDocumentSyncOptions{
			OpenClose: &trueVal,
			Change:    &changeKind,
			WillSave:  &falseVal,
			Save: &protocol.SaveOptions{
				IncludeText: &falseVal,
			},
		},

		// Hover support
		HoverProvider: &[]bool{true}[0],

		// Go-to definition support
		DefinitionProvider: &[]bool{true}[0],

		// Find references support
		ReferencesProvider: &[]bool{true}[0],

		// Document symbols (outline view)
		DocumentSymbolProvider: &[]bool{true}[0],

		// Workspace symbols (global search)
		WorkspaceSymbolProvider: &[]bool{true}[0],

		// Code completion: dot triggers property access, @ triggers decorators
		CompletionProvider: &protocol.CompletionOptions{
			TriggerCharacters: []string{".", "@"},
			ResolveProvider:   &[]bool{false}[0],
		},

		// Rename support
		RenameProvider: &protocol.RenameOptions{
			PrepareProvider: &[]bool{true}[0],
		},

		// Code actions (quick fixes such as adding a missing import)
		CodeActionProvider: &protocol.CodeActionOptions{
			CodeActionKinds: []protocol.CodeActionKind{
				protocol.CodeActionKindQuickFix,
			},
			ResolveProvider: &[]bool{false}[0],
		},

		// Diagnostics are pushed via publishDiagnostics, not pulled
	}

	serverVersion := "0.1.0"

	result := protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    "kite-lsp",
			Version: &serverVersion,
		},
	}

	return result, nil
}

// Initialized handles the initialized notification from the client.
// This is sent after the initialize response, signaling that the client is ready.
func Initialized(context *glsp.Context, params *protocol.InitializedParams) error {
	srv, ok := serverInstance.(*server.Server)
	if !ok || srv == nil {
		log.Println("Warning: server instance not available in Initialized")
		return nil
	}

	// Build the workspace symbol index in the background so the first
	// workspace/symbol or cross-file definition request has data to work with.
	go func() {
		indexer := workspace.NewIndexer(srv.WorkspaceIndex(), srv.WorkspaceFiles())
		indexer.BuildWorkspaceIndex()

		log.Printf("Workspace indexing complete: %d file(s), %d symbol location(s)\n",
			srv.WorkspaceIndex().GetFileCount(), srv.WorkspaceIndex().GetTotalLocationCount())
	}()

	return nil
}

// Shutdown handles the shutdown request.
// The client sends this to ask the server to shut down gracefully.
func Shutdown(context *glsp.Context) error {
	srv, ok := serverInstance.(*server.Server)
	if !ok || srv == nil {
		return nil
	}

	srv.SetShuttingDown()
	srv.Documents().Clear()
	srv.WorkspaceIndex().Clear()

	log.Println("Shutdown requested")

	return nil
}
