package workspace

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestFiles_KiteFiles(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, dir, "main.kite", "schema A {\n}\n")
	writeFile(t, dir, "nested/lib.kite", "schema B {\n}\n")
	writeFile(t, dir, "readme.md", "not kite")
	writeFile(t, dir, ".hidden/secret.kite", "schema H {\n}\n")
	writeFile(t, dir, "node_modules/dep.kite", "schema D {\n}\n")

	files := NewFiles([]string{dir}).KiteFiles()

	if len(files) != 2 {
		t.Fatalf("KiteFiles = %v, want main.kite and nested/lib.kite", files)
	}

	// Sorted for determinism
	if filepath.Base(files[0]) != "main.kite" || filepath.Base(files[1]) != "lib.kite" {
		t.Errorf("Unexpected order: %v", files)
	}
}

func TestFiles_ConcurrentSetFoldersAndEnumerate(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()

	writeFile(t, dirA, "a.kite", "schema A {\n}\n")
	writeFile(t, dirB, "b.kite", "schema B {\n}\n")

	files := NewFiles([]string{dirA})

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()

		for i := 0; i < 100; i++ {
			files.SetFolders([]string{dirB})
			files.SetFolders([]string{dirA})
		}
	}()

	go func() {
		defer wg.Done()

		for i := 0; i < 100; i++ {
			files.KiteFiles()
		}
	}()

	wg.Wait()

	if got := files.KiteFiles(); len(got) != 1 {
		t.Errorf("KiteFiles after concurrent updates = %v, want one file", got)
	}
}

func TestFiles_MissingFolder(t *testing.T) {
	files := NewFiles([]string{"/nonexistent/folder"}).KiteFiles()

	if len(files) != 0 {
		t.Errorf("Missing folder should yield no files, got %v", files)
	}
}

func TestFiles_FileContent(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.kite", "schema A {\n}\n")

	content, ok := NewFiles([]string{dir}).FileContent(path)
	if !ok || content != "schema A {\n}\n" {
		t.Errorf("FileContent = %q, %v", content, ok)
	}

	if _, ok := NewFiles(nil).FileContent("/missing.kite"); ok {
		t.Error("Missing file should report ok=false")
	}
}

func TestIndexer_BuildWorkspaceIndex(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, dir, "lib.kite", "schema Config {\n  name: string\n}\n")
	writeFile(t, dir, "main.kite", "resource Config main {\n}\n")

	index := NewSymbolIndex()
	files := NewFiles([]string{dir})

	NewIndexer(index, files).BuildWorkspaceIndex()

	if index.GetFileCount() != 2 {
		t.Errorf("FileCount = %d, want 2", index.GetFileCount())
	}

	if len(index.FindSymbol("Config")) != 1 {
		t.Error("Schema from lib.kite not indexed")
	}

	if len(index.FindSymbol("main")) != 1 {
		t.Error("Resource from main.kite not indexed")
	}
}

func TestIndexer_SyntaxErrorsStillContribute(t *testing.T) {
	dir := t.TempDir()

	// Unclosed brace: the text scanner still recovers the schema name
	writeFile(t, dir, "broken.kite", "schema Recovered {\n  name: string\n")

	index := NewSymbolIndex()

	NewIndexer(index, NewFiles([]string{dir})).BuildWorkspaceIndex()

	if len(index.FindSymbol("Recovered")) != 1 {
		t.Error("Declarations from files with syntax errors should still be indexed")
	}
}
