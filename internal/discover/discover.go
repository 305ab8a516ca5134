// Package discover finds requirement documents in a workspace.
package discover

import (
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// Options selects which files are returned.
type Options struct {
	// Extensions lists accepted file extensions including the dot.
	// Empty means ".req".
	Extensions []string
	// Exclude holds glob patterns matched against the slash-separated
	// relative path and against the base name.
	Exclude []string
}

var skipDirs = map[string]struct{}{
	"node_modules": {},
	"vendor":       {},
	"build":        {},
	"dist":         {},
	"target":       {},
	"venv":         {},
}

// Files returns the slash-separated paths, relative to root, of every
// document under root that passes opts. Results are sorted.
func Files(root string, opts Options) ([]string, error) {
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = []string{".req"}
	}
	gi := loadGitignore(root)

	var results []string
	err := filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			return nil // unreadable entries are skipped
		}

		name := d.Name()
		if d.IsDir() {
			if p == root {
				return nil
			}
			if _, skip := skipDirs[name]; skip || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			if rel, ok := relative(root, p); ok && gi != nil && gi.MatchesPath(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") || d.Type()&os.ModeSymlink != 0 {
			return nil
		}
		if !hasExtension(name, exts) {
			return nil
		}

		rel, ok := relative(root, p)
		if !ok {
			return nil
		}
		if gi != nil && gi.MatchesPath(rel) {
			return nil
		}
		if excluded(rel, opts.Exclude) {
			return nil
		}

		results = append(results, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(results)
	return results, nil
}

// Matches reports whether rel would be returned by Files with the same
// options, ignoring .gitignore. The watcher uses it to filter events.
func Matches(rel string, opts Options) bool {
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = []string{".req"}
	}
	rel = filepath.ToSlash(rel)
	for _, seg := range strings.Split(rel, "/") {
		if strings.HasPrefix(seg, ".") {
			return false
		}
		if _, skip := skipDirs[seg]; skip {
			return false
		}
	}
	return hasExtension(path.Base(rel), exts) && !excluded(rel, opts.Exclude)
}

func relative(root, p string) (string, bool) {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func hasExtension(name string, exts []string) bool {
	ext := filepath.Ext(name)
	for _, e := range exts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

func excluded(rel string, patterns []string) bool {
	base := path.Base(rel)
	for _, pattern := range patterns {
		if ok, _ := path.Match(pattern, rel); ok {
			return true
		}
		if ok, _ := path.Match(pattern, base); ok {
			return true
		}
	}
	return false
}

func loadGitignore(root string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return gi
}
