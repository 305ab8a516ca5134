// Package paths converts between workspace file paths and the file URIs
// used by editors.
package paths

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// FileURI converts an absolute path to a file:// URI
func FileURI(path string) string {
	p := filepath.ToSlash(path)
	if runtime.GOOS == "windows" && !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	u := url.URL{Scheme: "file", Path: p}
	return u.String()
}

// PathFromURI converts a file:// URI back to an OS path
func PathFromURI(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("invalid uri %q: %w", uri, err)
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("unsupported uri scheme %q", u.Scheme)
	}
	p := u.Path
	if runtime.GOOS == "windows" {
		p = strings.TrimPrefix(p, "/")
	}
	return filepath.FromSlash(p), nil
}

// CanonicalizePath converts an absolute path to a workspace-relative path
// with forward slashes. Symlinks are resolved when the path exists.
func CanonicalizePath(absolutePath string, root string) (string, error) {
	resolved, err := resolve(absolutePath)
	if err != nil {
		return "", err
	}
	rootResolved, err := resolve(root)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(rootResolved, resolved)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

func resolve(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", err
		}
		// resolve the closest existing ancestor
		parent := filepath.Dir(path)
		if parent == path {
			return path, nil
		}
		rp, err := resolve(parent)
		if err != nil {
			return "", err
		}
		return filepath.Join(rp, filepath.Base(path)), nil
	}
	return resolved, nil
}

// IsWithinRoot checks if a path is inside the workspace root
func IsWithinRoot(path string, root string) bool {
	canonical, err := CanonicalizePath(path, root)
	if err != nil {
		return false
	}
	return canonical != ".." && !strings.HasPrefix(canonical, "../")
}

// JoinRoot joins a workspace root with a slash-separated relative path
func JoinRoot(root string, rel string) string {
	parts := strings.Split(strings.ReplaceAll(rel, "\\", "/"), "/")
	return filepath.Join(append([]string{root}, parts...)...)
}

// URIForRelative builds the file URI of a workspace-relative path
func URIForRelative(root string, rel string) string {
	return FileURI(JoinRoot(root, rel))
}

// RelativeURI returns uri relative to root for display, or uri itself when
// it is not a file inside root
func RelativeURI(uri string, root string) string {
	p, err := PathFromURI(uri)
	if err != nil || !IsWithinRoot(p, root) {
		return uri
	}
	rel, err := CanonicalizePath(p, root)
	if err != nil {
		return uri
	}
	return rel
}

// LogsDir returns the .reqls/logs directory of a workspace
func LogsDir(root string) string {
	return filepath.Join(root, ".reqls", "logs")
}
