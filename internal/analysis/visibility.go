package analysis

import (
	"path"
	"strings"
)

// IsSymbolImported decides whether a symbol defined in definingFile is
// legally visible from currentFile given currentFile's import statements.
// A symbol defined in the current file is always visible. Otherwise some
// import must reference the defining file (extension, "./" prefix, and
// case differences are tolerated via NormalizePath on both sides) and be
// either a wildcard or a named list containing the symbol.
func IsSymbolImported(imports []ImportInfo, symbolName, definingFile, currentFile string) bool {
	if SamePath(definingFile, currentFile) {
		return true
	}

	defining := NormalizePath(definingFile)

	for _, imp := range imports {
		if !importMatchesFile(imp.Path, defining) {
			continue
		}

		if imp.Wildcard {
			return true
		}

		for _, name := range imp.Symbols {
			if name == symbolName {
				return true
			}
		}
	}

	return false
}

// importMatchesFile reports whether an import path spelling refers to the
// already-normalized defining file path.
func importMatchesFile(importPath, defining string) bool {
	ref := NormalizePath(importPath)

	// Dotted package form refers to a path
	if strings.Contains(ref, ".") && !strings.Contains(ref, "/") {
		ref = strings.ReplaceAll(ref, ".", "/")
	}

	if ref == defining {
		return true
	}

	if strings.HasSuffix(defining, "/"+ref) {
		return true
	}

	return path.Base(ref) == path.Base(defining)
}
