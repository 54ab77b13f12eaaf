// Package server provides the core LSP server state and management.
package server

import (
	"sync"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/kitelang/kite-lsp/internal/workspace"
)

// Server holds the state of the LSP server.
type Server struct {
	// documents stores all open documents
	documents *DocumentStore

	// symbolIndex caches identifier occurrences for open documents
	symbolIndex *SymbolIndex

	// workspaceIndex stores workspace-wide symbol definitions for global symbol search
	workspaceIndex *workspace.SymbolIndex

	// workspaceFiles enumerates and reads Kite files on disk
	workspaceFiles *workspace.Files

	// diagnosticData correlates published diagnostics with quick-fix data
	diagnosticData *DiagnosticDataStore

	// completionCache caches completion items for performance
	completionCache *CompletionCache

	// workspaceFolders stores the workspace folders from the client
	workspaceFolders []string

	// clientCapabilities stores the client's capabilities from the initialize request
	clientCapabilities *protocol.ClientCapabilities

	// config holds server configuration
	config *Config

	// mutex protects server state
	mu sync.RWMutex

	// shutting down flag
	shuttingDown bool
}

// Config holds server configuration options.
type Config struct {
	// MaxProblems limits the number of diagnostics reported
	MaxProblems int

	// Trace controls logging verbosity
	Trace string
}

// New creates a new LSP server instance.
func New() *Server {
	files := workspace.NewFiles(nil)

	return &Server{
		documents:       NewDocumentStore(),
		symbolIndex:     NewSymbolIndex(),
		workspaceIndex:  workspace.NewSymbolIndex(),
		workspaceFiles:  files,
		diagnosticData:  NewDiagnosticDataStore(),
		completionCache: NewCompletionCache(),
		config: &Config{
			MaxProblems: 100,
			Trace:       "off",
		},
	}
}

// IsShuttingDown returns true if the server is shutting down.
func (s *Server) IsShuttingDown() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.shuttingDown
}

// SetShuttingDown marks the server as shutting down.
func (s *Server) SetShuttingDown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.shuttingDown = true
}

// Documents returns the document store.
func (s *Server) Documents() *DocumentStore {
	return s.documents
}

// Symbols returns the per-document identifier occurrence index.
func (s *Server) Symbols() *SymbolIndex {
	return s.symbolIndex
}

// WorkspaceIndex returns the workspace-wide symbol index.
func (s *Server) WorkspaceIndex() *workspace.SymbolIndex {
	return s.workspaceIndex
}

// WorkspaceFiles returns the on-disk Kite file source.
func (s *Server) WorkspaceFiles() *workspace.Files {
	return s.workspaceFiles
}

// DiagnosticData returns the quick-fix correlation store.
func (s *Server) DiagnosticData() *DiagnosticDataStore {
	return s.diagnosticData
}

// CompletionCache returns the completion cache.
func (s *Server) CompletionCache() *CompletionCache {
	return s.completionCache
}

// Config returns the server configuration.
func (s *Server) Config() *Config {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.config
}

// UpdateConfig updates the server configuration atomically.
// The update function is called with the current config under a write lock.
func (s *Server) UpdateConfig(update func(*Config)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	update(s.config)
}

// SetWorkspaceFolders sets the workspace folders.
func (s *Server) SetWorkspaceFolders(folders []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.workspaceFolders = folders
	s.workspaceFiles.SetFolders(folders)
}

// WorkspaceFolders returns the workspace folders.
func (s *Server) WorkspaceFolders() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	folders := make([]string, len(s.workspaceFolders))
	copy(folders, s.workspaceFolders)

	return folders
}

// SetClientCapabilities stores the client capabilities.
func (s *Server) SetClientCapabilities(capabilities *protocol.ClientCapabilities) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clientCapabilities = capabilities
}

// ClientCapabilities returns the stored client capabilities.
func (s *Server) ClientCapabilities() *protocol.ClientCapabilities {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.clientCapabilities
}
