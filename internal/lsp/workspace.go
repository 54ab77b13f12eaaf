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

// DidChangeConfiguration handles workspace configuration changes from the client.
// Settings arrive under the "kite-lsp" namespace:
//
//	{
//	  "kite-lsp": {
//	    "maxProblems": 100,
//	    "trace": "off"
//	  }
//	}
func DidChangeConfiguration(context *glsp.Context, params *protocol.DidChangeConfigurationParams) error {
	srv, ok := serverInstance.(*server.Server)
	if !ok || srv == nil {
		log.Println("Warning: server instance not available in DidChangeConfiguration")
		return nil
	}

	if params.Settings == nil {
		return nil
	}

	settingsMap, ok := params.Settings.(map[string]any)
	if !ok {
		return nil
	}

	kiteSettings, ok := settingsMap["kite-lsp"].(map[string]any)
	if !ok {
		return nil
	}

	if maxProblems, ok := kiteSettings["maxProblems"].(float64); ok {
		srv.UpdateConfig(func(cfg *server.Config) {
			cfg.MaxProblems = int(maxProblems)
		})
		log.Printf("Configuration updated: maxProblems = %d\n", int(maxProblems))
	}

	if trace, ok := kiteSettings["trace"].(string); ok {
		srv.UpdateConfig(func(cfg *server.Config) {
			cfg.Trace = trace
		})
		log.Printf("Configuration updated: trace = %s\n", trace)
	}

	return nil
}

// DidChangeWorkspaceFolders handles changes to workspace folders.
// The file scanner and the symbol index are rebuilt over the new folder set.
func DidChangeWorkspaceFolders(context *glsp.Context, params *protocol.DidChangeWorkspaceFoldersParams) error {
	srv, ok := serverInstance.(*server.Server)
	if !ok || srv == nil {
		log.Println("Warning: server instance not available in DidChangeWorkspaceFolders")
		return nil
	}

	folders := srv.WorkspaceFolders()

	for _, folder := range params.Event.Added {
		if path, err := analysis.URIToPath(folder.URI); err == nil {
			folders = append(folders, path)
			log.Printf("Workspace folder added: %s (%s)\n", folder.Name, path)
		}
	}

	for _, folder := range params.Event.Removed {
		path, err := analysis.URIToPath(folder.URI)
		if err != nil {
			continue
		}

		for i, existing := range folders {
			if analysis.SamePath(existing, path) {
				folders = append(folders[:i], folders[i+1:]...)
				log.Printf("Workspace folder removed: %s (%s)\n", folder.Name, path)
				break
			}
		}
	}

	srv.SetWorkspaceFolders(folders)

	// Folder membership changed, so rebuild rather than patch the index
	if index := srv.WorkspaceIndex(); index != nil {
		index.Clear()

		indexer := workspace.NewIndexer(index, srv.WorkspaceFiles())
		indexer.BuildWorkspaceIndex()
	}

	return nil
}

// DidChangeWatchedFiles handles file events the client watches on our
// behalf: external edits, creations, and deletions of .kite files.
func DidChangeWatchedFiles(context *glsp.Context, params *protocol.DidChangeWatchedFilesParams) error {
	srv, ok := serverInstance.(*server.Server)
	if !ok || srv == nil {
		log.Println("Warning: server instance not available in DidChangeWatchedFiles")
		return nil
	}

	index := srv.WorkspaceIndex()
	if index == nil {
		return nil
	}

	for _, event := range params.Changes {
		uri := event.URI

		switch event.Type {
		case protocol.FileChangeTypeDeleted:
			index.RemoveFile(uri)
			log.Printf("Watched file deleted, index entry removed: %s\n", uri)

		case protocol.FileChangeTypeCreated, protocol.FileChangeTypeChanged:
			// Open documents are already indexed from their buffer
			if _, open := srv.Documents().Get(uri); open {
				continue
			}

			path := analysis.URIToPathOrSelf(uri)

			if content, ok := srv.WorkspaceFiles().FileContent(path); ok {
				decls := analysis.ExtractDeclarations(content, uri)
				index.UpdateFile(uri, decls)
				log.Printf("Watched file reindexed: %s\n", uri)
			}
		}
	}

	return nil
}
