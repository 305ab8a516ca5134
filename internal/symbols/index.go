package symbols

import (
	"sort"

	"reqls/internal/ast"
)

// Index is the per-workspace symbol table.
//
// Index is not safe for concurrent use; the owning session serialises all
// calls. Symbols handed out by the index must be treated as read-only.
type Index struct {
	files    map[string][]*Symbol
	byPath   map[string][]*Symbol
	versions map[string]int64
	count    int

	// order caches the sorted file URIs; nil when stale.
	order []string
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{
		files:    make(map[string][]*Symbol),
		byPath:   make(map[string][]*Symbol),
		versions: make(map[string]int64),
	}
}

// AddFile replaces every symbol attributed to uri with the declarations in
// doc. It always applies and advances the file's version.
func (idx *Index) AddFile(uri string, doc *ast.Document) {
	idx.AddFileVersion(uri, idx.versions[uri]+1, doc)
}

// AddFileVersion applies doc only when version is newer than the last
// version applied (or removed) for uri, and reports whether it did. Stale
// completions leave the index untouched.
func (idx *Index) AddFileVersion(uri string, version int64, doc *ast.Document) bool {
	if version <= idx.versions[uri] {
		return false
	}
	idx.versions[uri] = version

	idx.drop(uri)
	syms := Extract(uri, doc)
	if _, known := idx.files[uri]; !known {
		idx.order = nil
	}
	idx.files[uri] = syms
	for _, s := range syms {
		idx.byPath[s.Path] = append(idx.byPath[s.Path], s)
	}
	idx.count += len(syms)
	return true
}

// RemoveFile deletes every symbol attributed to uri. Unknown URIs are a
// no-op apart from advancing the version.
func (idx *Index) RemoveFile(uri string) {
	idx.RemoveFileVersion(uri, idx.versions[uri]+1)
}

// RemoveFileVersion removes uri when version is newer than the last applied
// version. The version is kept as a tombstone so a stale parse finishing
// later cannot bring the file back.
func (idx *Index) RemoveFileVersion(uri string, version int64) bool {
	if version <= idx.versions[uri] {
		return false
	}
	idx.versions[uri] = version
	if _, known := idx.files[uri]; !known {
		return true
	}
	idx.drop(uri)
	delete(idx.files, uri)
	idx.order = nil
	return true
}

// drop unlinks the symbols of uri from the path table.
func (idx *Index) drop(uri string) {
	old, ok := idx.files[uri]
	if !ok {
		return
	}
	seen := make(map[string]struct{}, len(old))
	for _, s := range old {
		if _, done := seen[s.Path]; done {
			continue
		}
		seen[s.Path] = struct{}{}
		kept := idx.byPath[s.Path][:0:0]
		for _, other := range idx.byPath[s.Path] {
			if other.FileURI != uri {
				kept = append(kept, other)
			}
		}
		if len(kept) == 0 {
			delete(idx.byPath, s.Path)
		} else {
			idx.byPath[s.Path] = kept
		}
	}
	idx.count -= len(old)
	idx.files[uri] = nil
}

// FileVersion returns the last version applied or removed for uri.
func (idx *Index) FileVersion(uri string) int64 {
	return idx.versions[uri]
}

// HasFile reports whether uri is currently indexed.
func (idx *Index) HasFile(uri string) bool {
	_, ok := idx.files[uri]
	return ok
}

// GetSymbol returns every symbol declared at path, or nil. More than one
// entry means the path is declared in several files.
func (idx *Index) GetSymbol(path string) []*Symbol {
	syms := idx.byPath[path]
	if len(syms) == 0 {
		return nil
	}
	out := make([]*Symbol, len(syms))
	copy(out, syms)
	return out
}

// GetSymbolsByKind returns all symbols of kind across the workspace.
func (idx *Index) GetSymbolsByKind(kind Kind) []*Symbol {
	var out []*Symbol
	for _, uri := range idx.sortedFiles() {
		for _, s := range idx.files[uri] {
			if s.Kind == kind {
				out = append(out, s)
			}
		}
	}
	return out
}

// Symbols returns every symbol: files in URI order, declarations in
// document order.
func (idx *Index) Symbols() []*Symbol {
	out := make([]*Symbol, 0, idx.count)
	for _, uri := range idx.sortedFiles() {
		out = append(out, idx.files[uri]...)
	}
	return out
}

// SymbolsInFile returns the declarations of one file in document order.
func (idx *Index) SymbolsInFile(uri string) []*Symbol {
	syms := idx.files[uri]
	out := make([]*Symbol, len(syms))
	copy(out, syms)
	return out
}

// Files returns the indexed URIs in sorted order.
func (idx *Index) Files() []string {
	order := idx.sortedFiles()
	out := make([]string, len(order))
	copy(out, order)
	return out
}

// sortedFiles returns the cached enumeration order. Callers must not modify it.
func (idx *Index) sortedFiles() []string {
	if idx.order == nil {
		order := make([]string, 0, len(idx.files))
		for uri := range idx.files {
			order = append(order, uri)
		}
		sort.Strings(order)
		idx.order = order
	}
	return idx.order
}

// GetSymbolCount returns the number of indexed symbols.
func (idx *Index) GetSymbolCount() int {
	return idx.count
}

// GetFileCount returns the number of indexed files.
func (idx *Index) GetFileCount() int {
	return len(idx.files)
}

// Clear drops all state, including version tombstones.
func (idx *Index) Clear() {
	idx.files = make(map[string][]*Symbol)
	idx.byPath = make(map[string][]*Symbol)
	idx.versions = make(map[string]int64)
	idx.count = 0
	idx.order = nil
}
