// Package workspace provides workspace-wide symbol indexing and file access.
package workspace

import (
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
)

// kiteGlob matches Kite source files at any depth below a folder.
const kiteGlob = "**/*.kite"

// maxWorkspaceFiles bounds enumeration so a misconfigured workspace root
// cannot stall a request.
const maxWorkspaceFiles = 10000

// Files enumerates and reads Kite files under the workspace folders. It
// implements the file lookups the import graph needs: enumeration and
// content fetch are synchronous and non-failing. The folder list may be
// replaced while the background index build is reading it.
type Files struct {
	mu      sync.RWMutex
	folders []string
}

// NewFiles creates a file source over the given workspace folders.
func NewFiles(folders []string) *Files {
	return &Files{folders: folders}
}

// SetFolders replaces the workspace folder list.
func (f *Files) SetFolders(folders []string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.folders = folders
}

// Folders returns a snapshot of the workspace folder list.
func (f *Files) Folders() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]string, len(f.folders))
	copy(out, f.folders)

	return out
}

// KiteFiles returns every Kite file under the workspace folders. Unreadable
// folders are skipped silently; results are sorted for determinism.
func (f *Files) KiteFiles() []string {
	var files []string

	for _, folder := range f.Folders() {
		matches, err := doublestar.Glob(os.DirFS(folder), kiteGlob)
		if err != nil {
			log.Printf("Skipping workspace folder %s: %v", folder, err)
			continue
		}

		for _, match := range matches {
			if skipPath(match) {
				continue
			}

			files = append(files, filepath.Join(folder, filepath.FromSlash(match)))

			if len(files) >= maxWorkspaceFiles {
				log.Printf("Workspace file limit reached (%d), truncating enumeration", maxWorkspaceFiles)
				sort.Strings(files)
				return files
			}
		}
	}

	sort.Strings(files)

	return files
}

// FileContent reads one file. Missing or unreadable files report ok=false
// rather than an error.
func (f *Files) FileContent(path string) (string, bool) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}

	return string(content), true
}

// skipPath filters out hidden and dependency directories.
func skipPath(relPath string) bool {
	for _, part := range strings.Split(filepath.ToSlash(relPath), "/") {
		if strings.HasPrefix(part, ".") || part == "node_modules" || part == "vendor" {
			return true
		}
	}

	return false
}
