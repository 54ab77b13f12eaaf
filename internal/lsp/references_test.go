package lsp

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// referencesAt runs the references handler at a position.
func referencesAt(t *testing.T, uri string, line, character uint32, includeDeclaration bool) []protocol.Location {
	t.Helper()

	locations, err := References(nil, &protocol.ReferenceParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
			Position:     protocol.Position{Line: line, Character: character},
		},
		Context: protocol.ReferenceContext{IncludeDeclaration: includeDeclaration},
	})
	require.NoError(t, err)

	return locations
}

func TestReferences_OpenDocument(t *testing.T) {
	srv := setupTestServer(t)
	uri := "file:///ws/main.kite"
	openTestDocument(t, srv, uri,
		"schema Bucket {\n}\n\nresource Bucket b {\n}\n")

	locations := referencesAt(t, uri, 3, 11, true)

	require.Len(t, locations, 2)

	var lines []uint32
	for _, loc := range locations {
		assert.Equal(t, uri, loc.URI)
		lines = append(lines, loc.Range.Start.Line)
	}

	assert.ElementsMatch(t, []uint32{0, 3}, lines)
}

func TestReferences_ExcludesDeclaration(t *testing.T) {
	srv := setupTestServer(t)
	uri := "file:///ws/main.kite"
	openTestDocument(t, srv, uri,
		"schema Bucket {\n}\n\nresource Bucket b {\n}\n")

	locations := referencesAt(t, uri, 3, 11, false)

	require.Len(t, locations, 1)
	assert.Equal(t, uint32(3), locations[0].Range.Start.Line)
}

func TestReferences_KeywordHasNone(t *testing.T) {
	srv := setupTestServer(t)
	uri := "file:///ws/main.kite"
	openTestDocument(t, srv, uri, "resource Bucket b {\n}\n")

	assert.Empty(t, referencesAt(t, uri, 0, 2, true))
}

func TestReferences_UnopenedWorkspaceFile(t *testing.T) {
	srv := setupTestServer(t)

	dir := t.TempDir()
	otherPath := filepath.Join(dir, "other.kite")
	require.NoError(t, os.WriteFile(otherPath, []byte("resource Bucket x {\n}\n"), 0o644))

	srv.SetWorkspaceFolders([]string{dir})

	mainURI := "file:///ws/main.kite"
	openTestDocument(t, srv, mainURI, "schema Bucket {\n}\n")

	locations := referencesAt(t, mainURI, 0, 9, true)

	require.Len(t, locations, 2)

	byURI := make(map[string]int)
	for _, loc := range locations {
		byURI[loc.URI]++
	}

	assert.Equal(t, 1, byURI[mainURI])
	assert.Equal(t, 1, len(locations)-byURI[mainURI], "one occurrence should come from the on-disk file")
}

func TestFindWordOccurrences_WholeWordsOnly(t *testing.T) {
	text := "var bucket = 1\nvar buckets = 2\nvar x = bucket\n"

	ranges := FindWordOccurrences(text, "bucket")

	require.Len(t, ranges, 2)
	assert.Equal(t, uint32(0), ranges[0].Start.Line)
	assert.Equal(t, uint32(2), ranges[1].Start.Line)
}

func TestFindWordOccurrences_SkipsCommentsAndStrings(t *testing.T) {
	text := "// bucket in a comment\nvar s = \"bucket\"\nvar bucket = 1\n"

	ranges := FindWordOccurrences(text, "bucket")

	require.Len(t, ranges, 1)
	assert.Equal(t, uint32(2), ranges[0].Start.Line)
}

func TestFindWordOccurrences_EmptyWord(t *testing.T) {
	assert.Nil(t, FindWordOccurrences("var x = 1\n", ""))
}
