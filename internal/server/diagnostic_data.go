package server

import (
	"fmt"
	"sync"
)

// DiagnosticData carries the information a quick fix needs to repair one
// unresolved-symbol diagnostic: which symbol, where it is defined, and the
// import path that would make it visible.
type DiagnosticData struct {
	SymbolName   string
	DefiningFile string
	ImportPath   string
}

// DiagnosticKey builds the correlation key published in a diagnostic's Data
// field and used to look the entry up when a code action fires.
func DiagnosticKey(line, character uint32, name string) string {
	return fmt.Sprintf("%d:%d:%s", line, character, name)
}

// DiagnosticDataStore correlates published diagnostics with quick-fix data
// across the two request phases: publish diagnostics, then apply code
// action. Entries live per document URI and are wholesale replaced at the
// start of each validation pass, so a code action can never read data from
// a stale document version. The store is owned by the validation
// orchestrator and injected where needed; it is not an ambient singleton.
type DiagnosticDataStore struct {
	byURI map[string]map[string]DiagnosticData
	mu    sync.RWMutex
}

// NewDiagnosticDataStore creates an empty store.
func NewDiagnosticDataStore() *DiagnosticDataStore {
	return &DiagnosticDataStore{
		byURI: make(map[string]map[string]DiagnosticData),
	}
}

// ResetDocument clears all entries for a URI. Called at the start of every
// validation pass, before any new entries are recorded.
func (s *DiagnosticDataStore) ResetDocument(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byURI[uri] = make(map[string]DiagnosticData)
}

// Put records quick-fix data under a correlation key.
func (s *DiagnosticDataStore) Put(uri, key string, data DiagnosticData) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, ok := s.byURI[uri]
	if !ok {
		entries = make(map[string]DiagnosticData)
		s.byURI[uri] = entries
	}

	entries[key] = data
}

// Get looks up quick-fix data by correlation key.
func (s *DiagnosticDataStore) Get(uri, key string) (DiagnosticData, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, ok := s.byURI[uri]
	if !ok {
		return DiagnosticData{}, false
	}

	data, ok := entries[key]

	return data, ok
}

// RemoveDocument drops all entries for a closed document.
func (s *DiagnosticDataStore) RemoveDocument(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.byURI, uri)
}
