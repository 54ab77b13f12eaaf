package analysis

import (
	"fmt"
	"net/url"
	"path/filepath"
	"runtime"
	"strings"
)

// URIToPath converts a file:// URI into an OS-specific absolute path.
func URIToPath(u string) (string, error) {
	parsed, err := url.Parse(u)
	if err != nil {
		return "", err
	}

	if parsed.Scheme != "file" && parsed.Scheme != "" {
		return "", fmt.Errorf("unsupported URI scheme: %s", parsed.Scheme)
	}

	path := parsed.Path
	if path == "" {
		path = parsed.Opaque
	}

	decoded, err := url.PathUnescape(path)
	if err == nil {
		path = decoded
	}

	if runtime.GOOS == "windows" {
		if strings.HasPrefix(path, "/") && len(path) >= 3 && path[2] == ':' {
			path = path[1:]
		}
	}

	if path == "" {
		return "", fmt.Errorf("empty path extracted from URI: %s", u)
	}

	return filepath.FromSlash(path), nil
}

// PathToURI converts an OS path into a file:// URI.
func PathToURI(path string) string {
	slashed := filepath.ToSlash(path)

	if !strings.HasPrefix(slashed, "/") {
		slashed = "/" + slashed
	}

	return "file://" + slashed
}

// URIToPathOrSelf converts a URI to a path, falling back to the raw string
// for inputs that are already plain paths.
func URIToPathOrSelf(u string) string {
	if !strings.HasPrefix(u, "file:") {
		return u
	}

	path, err := URIToPath(u)
	if err != nil {
		return u
	}

	return path
}
