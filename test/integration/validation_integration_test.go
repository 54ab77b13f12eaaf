//go:build integration
// +build integration

package integration

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/kitelang/kite-lsp/internal/analysis"
	"github.com/kitelang/kite-lsp/internal/lsp"
	"github.com/kitelang/kite-lsp/internal/workspace"
)

// TestImportCycleDiagnostic runs the full pipeline over a two-file cycle:
// a.kite imports b.kite, which imports a.kite back.
func TestImportCycleDiagnostic(t *testing.T) {
	srv := setupTestServer()
	ctx := &glsp.Context{}

	dir := writeWorkspace(t, srv, map[string]string{
		"a.kite": "import * from \"./b.kite\"\n\nvar a = 1\n",
		"b.kite": "import * from \"./a.kite\"\n\nvar b = 2\n",
	})

	uri := analysis.PathToURI(filepath.Join(dir, "a.kite"))

	openParams := &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        uri,
			LanguageID: "kite",
			Version:    1,
			Text:       "import * from \"./b.kite\"\n\nvar a = 1\n",
		},
	}

	if err := lsp.DidOpen(ctx, openParams); err != nil {
		t.Fatalf("DidOpen failed: %v", err)
	}

	doc, _ := srv.Documents().Get(uri)

	diagnostics := lsp.ValidateDocument(srv, doc)

	var cycleDiag *protocol.Diagnostic

	for i := range diagnostics {
		if strings.Contains(diagnostics[i].Message, "Import cycle detected") {
			if cycleDiag != nil {
				t.Fatal("Expected exactly one cycle diagnostic")
			}

			cycleDiag = &diagnostics[i]
		}
	}

	if cycleDiag == nil {
		t.Fatalf("Expected an import cycle diagnostic, got: %v", diagnostics)
	}

	// The chain names both files, starting and ending at a.kite
	if !strings.Contains(cycleDiag.Message, "a.kite") || !strings.Contains(cycleDiag.Message, "b.kite") {
		t.Errorf("Cycle message should name both files: %s", cycleDiag.Message)
	}

	if !strings.HasSuffix(cycleDiag.Message, "a.kite") {
		t.Errorf("Cycle chain should close back at the starting file: %s", cycleDiag.Message)
	}

	if cycleDiag.Range.Start.Line != 0 {
		t.Errorf("Cycle diagnostic should sit on the import line, got line %d", cycleDiag.Range.Start.Line)
	}
}

// TestSelfImportDiagnostic verifies a file importing itself is flagged.
func TestSelfImportDiagnostic(t *testing.T) {
	srv := setupTestServer()
	ctx := &glsp.Context{}

	dir := writeWorkspace(t, srv, map[string]string{
		"solo.kite": "import * from \"./solo.kite\"\n",
	})

	uri := analysis.PathToURI(filepath.Join(dir, "solo.kite"))

	if err := lsp.DidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        uri,
			LanguageID: "kite",
			Version:    1,
			Text:       "import * from \"./solo.kite\"\n",
		},
	}); err != nil {
		t.Fatalf("DidOpen failed: %v", err)
	}

	doc, _ := srv.Documents().Get(uri)

	found := false

	for _, diag := range lsp.ValidateDocument(srv, doc) {
		if diag.Message == "File imports itself" {
			found = true
		}
	}

	if !found {
		t.Error("Expected a self-import diagnostic")
	}
}

// TestUnimportedSchemaDiagnosticAndQuickFix verifies the cross-file
// resolution flow: a schema defined in another file but not imported gets a
// correlated diagnostic, and the code action offers to add the import.
func TestUnimportedSchemaDiagnosticAndQuickFix(t *testing.T) {
	srv := setupTestServer()
	ctx := &glsp.Context{}

	mainText := "resource Config main {\n}\n"

	dir := writeWorkspace(t, srv, map[string]string{
		"lib.kite":  "schema Config {\n  name: string\n}\n",
		"main.kite": mainText,
	})

	// Index the workspace so the validator can find Config in lib.kite
	indexer := workspace.NewIndexer(srv.WorkspaceIndex(), srv.WorkspaceFiles())
	indexer.BuildWorkspaceIndex()

	uri := analysis.PathToURI(filepath.Join(dir, "main.kite"))

	if err := lsp.DidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        uri,
			LanguageID: "kite",
			Version:    1,
			Text:       mainText,
		},
	}); err != nil {
		t.Fatalf("DidOpen failed: %v", err)
	}

	doc, _ := srv.Documents().Get(uri)

	diagnostics := lsp.ValidateDocument(srv, doc)

	var notImported *protocol.Diagnostic

	for i := range diagnostics {
		if strings.Contains(diagnostics[i].Message, "is not imported") {
			notImported = &diagnostics[i]
			break
		}
	}

	if notImported == nil {
		t.Fatalf("Expected a not-imported diagnostic, got: %v", diagnostics)
	}

	want := "Schema 'Config' is not imported. Found in 'lib.kite'."
	if notImported.Message != want {
		t.Errorf("Message = %q, want %q", notImported.Message, want)
	}

	key, ok := notImported.Data.(string)
	if !ok || key == "" {
		t.Fatal("Diagnostic should carry a non-empty correlation key in Data")
	}

	// The code action consumes the correlation key
	result, err := lsp.CodeAction(ctx, &protocol.CodeActionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
		Range:        notImported.Range,
		Context: protocol.CodeActionContext{
			Diagnostics: []protocol.Diagnostic{*notImported},
		},
	})
	if err != nil {
		t.Fatalf("CodeAction failed: %v", err)
	}

	actions, ok := result.([]protocol.CodeAction)
	if !ok || len(actions) == 0 {
		t.Fatalf("Expected at least one code action, got: %v", result)
	}

	if actions[0].Title != "Add import for 'Config'" {
		t.Errorf("Action title = %q", actions[0].Title)
	}

	if actions[0].Edit == nil || len(actions[0].Edit.Changes[uri]) == 0 {
		t.Fatal("Action should carry a text edit for the document")
	}

	newText := actions[0].Edit.Changes[uri][0].NewText
	if !strings.Contains(newText, "import { Config }") || !strings.Contains(newText, "lib.kite") {
		t.Errorf("Edit should insert an import for Config from lib.kite, got %q", newText)
	}
}

// TestUnresolvedTypeSuggestion verifies the near-miss hint on a typo.
func TestUnresolvedTypeSuggestion(t *testing.T) {
	srv := setupTestServer()
	ctx := &glsp.Context{}

	text := "schema Bucket {\n  name: string\n}\n\nresource Buckt b {\n}\n"

	uri := "file:///test/typo.kite"

	if err := lsp.DidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        uri,
			LanguageID: "kite",
			Version:    1,
			Text:       text,
		},
	}); err != nil {
		t.Fatalf("DidOpen failed: %v", err)
	}

	doc, _ := srv.Documents().Get(uri)

	found := false

	for _, diag := range lsp.ValidateDocument(srv, doc) {
		if strings.Contains(diag.Message, "Cannot resolve Buckt") {
			found = true

			if !strings.Contains(diag.Message, "Did you mean 'Bucket'?") {
				t.Errorf("Expected a suggestion in %q", diag.Message)
			}
		}
	}

	if !found {
		t.Error("Expected a cannot-resolve diagnostic for 'Buckt'")
	}
}
