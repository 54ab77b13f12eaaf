package lsp

import (
	"testing"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/kitelang/kite-lsp/internal/server"
)

const testDocumentURI = "file:///test/document.kite"

func openViaDidOpen(t *testing.T, srv *server.Server, uri, text string) {
	t.Helper()

	err := DidOpen(&glsp.Context{}, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        uri,
			LanguageID: "kite",
			Version:    1,
			Text:       text,
		},
	})
	if err != nil {
		t.Fatalf("DidOpen returned error: %v", err)
	}
}

func TestDidOpen(t *testing.T) {
	srv := server.New()
	SetServer(srv)

	text := "schema Bucket {\n  name: string\n}\n"
	openViaDidOpen(t, srv, testDocumentURI, text)

	doc, exists := srv.Documents().Get(testDocumentURI)
	if !exists {
		t.Fatal("document was not stored in DocumentStore")
	}

	if doc.Text != text {
		t.Errorf("document Text = %q, want %q", doc.Text, text)
	}

	if doc.Version != 1 {
		t.Errorf("document Version = %d, want 1", doc.Version)
	}

	if doc.Parse == nil || doc.Tree() == nil {
		t.Error("document should carry a parse tree after DidOpen")
	}

	// Both indexes pick the document up immediately
	if refs := srv.Symbols().FindReferences("Bucket"); len(refs) != 1 {
		t.Errorf("occurrence index has %d reference(s) for Bucket, want 1", len(refs))
	}

	if locs := srv.WorkspaceIndex().FindSymbol("Bucket"); len(locs) != 1 {
		t.Errorf("workspace index has %d location(s) for Bucket, want 1", len(locs))
	}
}

func TestDidChange_FullSync(t *testing.T) {
	srv := server.New()
	SetServer(srv)

	openViaDidOpen(t, srv, testDocumentURI, "var total = 1\n")

	newText := "var count = 2\n"

	err := DidChange(&glsp.Context{}, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: testDocumentURI},
			Version:                2,
		},
		ContentChanges: []interface{}{
			protocol.TextDocumentContentChangeEvent{Text: newText},
		},
	})
	if err != nil {
		t.Fatalf("DidChange returned error: %v", err)
	}

	doc, exists := srv.Documents().Get(testDocumentURI)
	if !exists {
		t.Fatal("document missing after DidChange")
	}

	if doc.Text != newText {
		t.Errorf("document Text = %q, want %q", doc.Text, newText)
	}

	if doc.Version != 2 {
		t.Errorf("document Version = %d, want 2", doc.Version)
	}
}

func TestDidChange_IncrementalSync(t *testing.T) {
	srv := server.New()
	SetServer(srv)

	openViaDidOpen(t, srv, testDocumentURI, "var total = 1\n")

	err := DidChange(&glsp.Context{}, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: testDocumentURI},
			Version:                2,
		},
		ContentChanges: []interface{}{
			protocol.TextDocumentContentChangeEvent{
				Range: &protocol.Range{
					Start: protocol.Position{Line: 0, Character: 4},
					End:   protocol.Position{Line: 0, Character: 9},
				},
				Text: "count",
			},
		},
	})
	if err != nil {
		t.Fatalf("DidChange returned error: %v", err)
	}

	doc, _ := srv.Documents().Get(testDocumentURI)
	if doc.Text != "var count = 1\n" {
		t.Errorf("document Text = %q, want %q", doc.Text, "var count = 1\n")
	}
}

func TestDidChange_UnknownDocument(t *testing.T) {
	srv := server.New()
	SetServer(srv)

	err := DidChange(&glsp.Context{}, &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: "file:///test/missing.kite"},
			Version:                1,
		},
		ContentChanges: []interface{}{
			protocol.TextDocumentContentChangeEvent{Text: "var x = 1\n"},
		},
	})
	if err != nil {
		t.Fatalf("DidChange should ignore unknown documents, got error: %v", err)
	}
}

func TestDidClose(t *testing.T) {
	srv := server.New()
	SetServer(srv)

	openViaDidOpen(t, srv, testDocumentURI, "schema Bucket {\n}\n")

	err := DidClose(&glsp.Context{}, &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: testDocumentURI},
	})
	if err != nil {
		t.Fatalf("DidClose returned error: %v", err)
	}

	if _, exists := srv.Documents().Get(testDocumentURI); exists {
		t.Error("document should be removed from DocumentStore")
	}

	if refs := srv.Symbols().FindReferences("Bucket"); len(refs) != 0 {
		t.Errorf("occurrence index should be cleared, still has %d reference(s)", len(refs))
	}
}

func TestDidSave(t *testing.T) {
	srv := server.New()
	SetServer(srv)

	openViaDidOpen(t, srv, "file:///test/a.kite", "schema Bucket {\n}\n")
	openViaDidOpen(t, srv, "file:///test/b.kite", "resource Bucket b {\n}\n")

	err := DidSave(&glsp.Context{}, &protocol.DidSaveTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: "file:///test/a.kite"},
	})
	if err != nil {
		t.Fatalf("DidSave returned error: %v", err)
	}
}
