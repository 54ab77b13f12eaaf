package analysis

import (
	"strings"
	"testing"
)

func TestExtractImportPaths(t *testing.T) {
	text := "import * from \"./lib.kite\"\nimport { A, B } from \"shared.kite\"\n// import * from \"ignored.kite\"\n"

	imports := ExtractImportPaths(text)

	if len(imports) != 2 {
		t.Fatalf("Expected 2 imports, got %d", len(imports))
	}

	if !imports[0].Wildcard || imports[0].Path != "./lib.kite" {
		t.Errorf("First import = %+v", imports[0])
	}

	if imports[0].Line != 0 || imports[1].Line != 1 {
		t.Error("Import line numbers wrong")
	}

	if imports[1].Wildcard {
		t.Error("Named import flagged as wildcard")
	}

	if len(imports[1].Symbols) != 2 || imports[1].Symbols[0] != "A" || imports[1].Symbols[1] != "B" {
		t.Errorf("Symbols = %v, want [A B]", imports[1].Symbols)
	}
}

func TestExtractImportPaths_Offsets(t *testing.T) {
	text := "import * from \"a.kite\"\n"

	imports := ExtractImportPaths(text)

	if len(imports) != 1 {
		t.Fatalf("Expected 1 import, got %d", len(imports))
	}

	if imports[0].Start != 0 || imports[0].End != len(text)-1 {
		t.Errorf("Statement bounds = [%d, %d]", imports[0].Start, imports[0].End)
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"./lib.kite", "lib"},
		{"Lib.Kite", "lib"},
		{"nested/mod", "nested/mod"},
		{"./Nested/Util.kite", "nested/util"},
	}

	for _, tt := range tests {
		if got := NormalizePath(tt.in); got != tt.want {
			t.Errorf("NormalizePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSamePath(t *testing.T) {
	if !SamePath("./lib.kite", "LIB.kite") {
		t.Error("Case and ./ prefix differences should compare equal")
	}

	if !SamePath("/ws/lib.kite", "lib.kite") {
		t.Error("Basename match should compare equal")
	}

	if SamePath("a.kite", "b.kite") {
		t.Error("Different files must not compare equal")
	}
}

func TestResolveImportPath(t *testing.T) {
	files := []string{
		"/ws/main.kite",
		"/ws/lib.kite",
		"/ws/nested/util.kite",
	}

	tests := []struct {
		name       string
		importPath string
		baseFile   string
		want       string
	}{
		{"relative with extension", "./lib.kite", "/ws/main.kite", "/ws/lib.kite"},
		{"relative without extension", "./lib", "/ws/main.kite", "/ws/lib.kite"},
		{"subdirectory", "./nested/util.kite", "/ws/main.kite", "/ws/nested/util.kite"},
		{"already resolved", "/ws/lib.kite", "/ws/other.kite", "/ws/lib.kite"},
		{"dotted package form", "nested.util", "/ws/main.kite", "/ws/nested/util.kite"},
		{"bare filename fallback", "util.kite", "/ws/main.kite", "/ws/nested/util.kite"},
		{"unresolvable", "./missing.kite", "/ws/main.kite", ""},
		{"empty path", "", "/ws/main.kite", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveImportPath(tt.importPath, tt.baseFile, files)
			if got != tt.want {
				t.Errorf("ResolveImportPath(%q) = %q, want %q", tt.importPath, got, tt.want)
			}
		})
	}
}

func TestResolveImportPath_Idempotent(t *testing.T) {
	files := []string{"/ws/lib.kite"}

	first := ResolveImportPath("./lib.kite", "/ws/main.kite", files)
	second := ResolveImportPath(first, "/ws/main.kite", files)

	if first != second {
		t.Errorf("Resolution not idempotent: %q then %q", first, second)
	}
}

// mapSource is an in-memory FileSource for import graph tests.
type mapSource map[string]string

func (m mapSource) KiteFiles() []string {
	files := make([]string, 0, len(m))
	for f := range m {
		files = append(files, f)
	}

	return files
}

func (m mapSource) FileContent(path string) (string, bool) {
	content, ok := m[path]
	return content, ok
}

func TestFindImportCycle_Direct(t *testing.T) {
	source := mapSource{
		"/ws/a.kite": "import * from \"./b.kite\"\n",
		"/ws/b.kite": "import * from \"./a.kite\"\n",
	}

	chain := FindImportCycle(source, "/ws/a.kite", "/ws/b.kite", map[string]bool{}, nil)

	if chain == nil {
		t.Fatal("Expected a cycle")
	}

	// The chain walks b back to a and ends at the start file
	if !SamePath(chain[len(chain)-1], "/ws/a.kite") {
		t.Errorf("Chain should end at the start file, got %v", chain)
	}

	if !SamePath(chain[0], "/ws/b.kite") {
		t.Errorf("Chain should start at the imported file, got %v", chain)
	}
}

func TestFindImportCycle_Transitive(t *testing.T) {
	source := mapSource{
		"/ws/a.kite": "import * from \"./b.kite\"\n",
		"/ws/b.kite": "import * from \"./c.kite\"\n",
		"/ws/c.kite": "import * from \"./a.kite\"\n",
	}

	chain := FindImportCycle(source, "/ws/a.kite", "/ws/b.kite", map[string]bool{}, nil)

	if chain == nil {
		t.Fatal("Expected a transitive cycle")
	}

	if len(chain) != 3 {
		t.Fatalf("Expected chain of 3, got %v", chain)
	}

	joined := strings.Join(chain, " ")
	for _, want := range []string{"b.kite", "c.kite", "a.kite"} {
		if !strings.Contains(joined, want) {
			t.Errorf("Chain %v missing %s", chain, want)
		}
	}
}

func TestFindImportCycle_SelfImport(t *testing.T) {
	source := mapSource{}

	chain := FindImportCycle(source, "/ws/a.kite", "/ws/a.kite", map[string]bool{}, nil)

	if len(chain) != 1 {
		t.Fatalf("Self-import should produce a one-node chain, got %v", chain)
	}
}

func TestFindImportCycle_NoCycle(t *testing.T) {
	source := mapSource{
		"/ws/a.kite": "import * from \"./b.kite\"\n",
		"/ws/b.kite": "import * from \"./c.kite\"\n",
		"/ws/c.kite": "schema Leaf {\n}\n",
	}

	if chain := FindImportCycle(source, "/ws/a.kite", "/ws/b.kite", map[string]bool{}, nil); chain != nil {
		t.Errorf("Expected no cycle, got %v", chain)
	}
}

func TestFindImportCycle_Diamond(t *testing.T) {
	// Two files importing the same dependency is not a cycle
	source := mapSource{
		"/ws/main.kite": "import * from \"./a.kite\"\nimport * from \"./b.kite\"\n",
		"/ws/a.kite":    "import * from \"./shared.kite\"\n",
		"/ws/b.kite":    "import * from \"./shared.kite\"\n",
		"/ws/shared.kite": "schema S {\n}\n",
	}

	if chain := FindImportCycle(source, "/ws/main.kite", "/ws/a.kite", map[string]bool{}, nil); chain != nil {
		t.Errorf("Diamond imports reported as a cycle: %v", chain)
	}
}

func TestIsSymbolImported(t *testing.T) {
	imports := []ImportInfo{
		{Path: "./lib.kite", Symbols: []string{"Config"}},
		{Path: "./all.kite", Wildcard: true},
	}

	if !IsSymbolImported(imports, "Config", "/ws/lib.kite", "/ws/main.kite") {
		t.Error("Named import should admit the symbol")
	}

	if IsSymbolImported(imports, "Other", "/ws/lib.kite", "/ws/main.kite") {
		t.Error("A symbol absent from the named list must not be admitted")
	}

	if !IsSymbolImported(imports, "Anything", "/ws/all.kite", "/ws/main.kite") {
		t.Error("Wildcard import should admit every symbol")
	}

	if !IsSymbolImported(nil, "Local", "/ws/main.kite", "/ws/main.kite") {
		t.Error("Symbols from the current file are always visible")
	}

	if IsSymbolImported(imports, "Config", "/ws/unrelated.kite", "/ws/main.kite") {
		t.Error("No import references the defining file")
	}
}
