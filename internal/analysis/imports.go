package analysis

import (
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

// KiteExtension is the file extension appended to extension-less import
// paths during resolution.
const KiteExtension = ".kite"

// ImportInfo describes one import statement in a file.
type ImportInfo struct {
	// Path is the raw import path as written in the source.
	Path string

	// Wildcard is true for `import * from "..."`; otherwise Symbols holds
	// the named list.
	Wildcard bool
	Symbols  []string

	// Line is the 0-based line the statement starts on; Start and End are
	// byte offsets bounding the statement.
	Line  int
	Start int
	End   int
}

var importStatementRe = regexp.MustCompile(`import\s+(\*|\{[^}]*\})\s+from\s+"([^"]+)"`)

// ExtractImportPaths finds every import statement in text. Matches inside
// comments are skipped.
func ExtractImportPaths(text string) []ImportInfo {
	classes := ScanText(text)

	var imports []ImportInfo

	for _, m := range importStatementRe.FindAllStringSubmatchIndex(text, -1) {
		if classes[m[0]] != ClassCode {
			continue
		}

		info := ImportInfo{
			Path:  text[m[4]:m[5]],
			Line:  strings.Count(text[:m[0]], "\n"),
			Start: m[0],
			End:   m[1],
		}

		clause := text[m[2]:m[3]]
		if clause == "*" {
			info.Wildcard = true
		} else {
			for _, name := range strings.Split(strings.Trim(clause, "{}"), ",") {
				name = strings.TrimSpace(name)
				if name != "" {
					info.Symbols = append(info.Symbols, name)
				}
			}
		}

		imports = append(imports, info)
	}

	return imports
}

// NormalizePath is the one canonical path normalization used for every
// import and visibility comparison: forward slashes, lower case, no leading
// "./", no .kite extension. Both sides of any comparison must go through it.
func NormalizePath(p string) string {
	p = strings.ToLower(filepath.ToSlash(p))
	p = strings.TrimPrefix(p, "./")
	p = strings.TrimSuffix(p, KiteExtension)

	return p
}

// SamePath reports whether two path spellings identify the same file, by
// normalized path or by basename.
func SamePath(a, b string) bool {
	na, nb := NormalizePath(a), NormalizePath(b)
	if na == nb {
		return true
	}

	return path.Base(na) == path.Base(nb)
}

// ResolveImportPath resolves a raw import path against the workspace file
// list. It tries, in order: the already-resolved spelling, a path relative
// to the importing file, the dotted package form (a.B -> a/B.kite), and a
// bare-filename suffix match. Returns the workspace file's own spelling, or
// "" when nothing matches, so resolution is idempotent.
func ResolveImportPath(importPath, baseFile string, workspaceFiles []string) string {
	if importPath == "" {
		return ""
	}

	// Already-resolved paths resolve to themselves
	norm := NormalizePath(importPath)

	for _, file := range workspaceFiles {
		if NormalizePath(file) == norm {
			return file
		}
	}

	// Relative to the importing file's directory, with the default
	// extension appended when absent
	candidate := importPath
	if path.Ext(candidate) == "" && !strings.Contains(candidate, ".") {
		candidate += KiteExtension
	}

	relative := NormalizePath(path.Join(path.Dir(filepath.ToSlash(baseFile)), filepath.ToSlash(candidate)))

	for _, file := range workspaceFiles {
		if NormalizePath(file) == relative {
			return file
		}
	}

	// Dotted package form: a.B -> a/B.kite, matched by suffix
	if strings.Contains(importPath, ".") && !strings.Contains(importPath, "/") && !strings.HasSuffix(importPath, KiteExtension) {
		dotted := NormalizePath(strings.ReplaceAll(importPath, ".", "/"))

		for _, file := range workspaceFiles {
			nf := NormalizePath(file)
			if nf == dotted || strings.HasSuffix(nf, "/"+dotted) {
				return file
			}
		}
	}

	// Bare filename as a last resort
	base := path.Base(norm)

	for _, file := range workspaceFiles {
		if path.Base(NormalizePath(file)) == base {
			return file
		}
	}

	return ""
}

// FileSource supplies the workspace lookups the import graph needs. Lookups
// are synchronous and non-failing; a missing file reports ok=false.
type FileSource interface {
	KiteFiles() []string
	FileContent(path string) (string, bool)
}

// FindImportCycle checks whether importedFile eventually imports back
// startFile, walking the import graph depth-first. Each branch gets its own
// copy of the visited set so divergent chains cannot contaminate each other.
// The chain of file paths is returned for diagnostic reporting, ending with
// startFile when a cycle closes; nil means no cycle. A self-import is a
// trivial one-node cycle.
func FindImportCycle(source FileSource, startFile, importedFile string, visited map[string]bool, chain []string) []string {
	if SamePath(importedFile, startFile) {
		return append(chain, importedFile)
	}

	norm := NormalizePath(importedFile)
	if visited[norm] {
		// Already explored on this branch; bounded by workspace size
		return nil
	}

	content, ok := source.FileContent(importedFile)
	if !ok {
		return nil
	}

	files := source.KiteFiles()

	for _, imp := range ExtractImportPaths(content) {
		resolved := ResolveImportPath(imp.Path, importedFile, files)
		if resolved == "" {
			continue
		}

		branchVisited := make(map[string]bool, len(visited)+1)
		for k := range visited {
			branchVisited[k] = true
		}
		branchVisited[norm] = true

		branchChain := make([]string, len(chain), len(chain)+1)
		copy(branchChain, chain)

		if cycle := FindImportCycle(source, startFile, resolved, branchVisited, append(branchChain, importedFile)); cycle != nil {
			return cycle
		}
	}

	return nil
}
