// Package lsp implements LSP protocol handlers.
package lsp

import (
	"log"
	"sort"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// diagnosticSource labels every diagnostic published by this server.
const diagnosticSource = "kite"

// PublishDiagnostics sends diagnostic information to the client for a specific document.
// This notifies the editor about syntax errors, semantic errors, warnings, and hints.
func PublishDiagnostics(context *glsp.Context, uri string, diagnostics []protocol.Diagnostic) {
	if context == nil || context.Notify == nil {
		log.Println("Warning: Cannot publish diagnostics - context or Notify is nil")
		return
	}

	// Sort diagnostics by position (line, then column) for consistent ordering
	sortDiagnostics(diagnostics)

	if diagnostics == nil {
		diagnostics = []protocol.Diagnostic{}
	}

	params := &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	}

	log.Printf("Publishing %d diagnostic(s) for %s", len(diagnostics), uri)

	context.Notify(protocol.ServerTextDocumentPublishDiagnostics, params)
}

// sortDiagnostics sorts diagnostics by position (line first, then column).
// This ensures diagnostics are presented in a predictable order in the editor.
func sortDiagnostics(diagnostics []protocol.Diagnostic) {
	sort.Slice(diagnostics, func(i, j int) bool {
		if diagnostics[i].Range.Start.Line != diagnostics[j].Range.Start.Line {
			return diagnostics[i].Range.Start.Line < diagnostics[j].Range.Start.Line
		}

		return diagnostics[i].Range.Start.Character < diagnostics[j].Range.Start.Character
	})
}

// severityPtr is a helper to take the address of a diagnostic severity.
func severityPtr(s protocol.DiagnosticSeverity) *protocol.DiagnosticSeverity {
	return &s
}

// stringPtr is a helper function to create a pointer to a string.
func stringPtr(s string) *string {
	return &s
}
