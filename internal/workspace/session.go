// Package workspace hosts the symbol index, dependency graph and diagnostics
// pipeline for one workspace and applies editor and file system events to
// them.
package workspace

import (
	"context"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"reqls/internal/config"
	"reqls/internal/coverage"
	"reqls/internal/diagnostics"
	"reqls/internal/errors"
	"reqls/internal/parse"
	"reqls/internal/paths"
	"reqls/internal/resolve"
	"reqls/internal/slogutil"
	"reqls/internal/symbols"
)

// Publisher receives diagnostics publications. Publish is called with the
// session lock held, in the order publications were computed.
type Publisher interface {
	Publish(ctx context.Context, pub diagnostics.Publication) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, pub diagnostics.Publication) error

// Publish calls f.
func (f PublisherFunc) Publish(ctx context.Context, pub diagnostics.Publication) error {
	return f(ctx, pub)
}

// Options configures a Session.
type Options struct {
	Logger    *slog.Logger
	Publisher Publisher
	// Workers caps concurrent parses in LoadAll; 0 or less means 1.
	Workers int
	// ScopeMode selects how DependencyCandidates filters by scope.
	ScopeMode resolve.ScopeMode
	// ReadFile reads a document from disk. Defaults to os.ReadFile.
	ReadFile func(path string) ([]byte, error)
}

// Document is an editor buffer.
type Document struct {
	URI     string
	Version int32
	Text    string
}

// Session owns the index and everything derived from it. All methods are
// safe for concurrent use; mutations and recomputes are serialised.
type Session struct {
	id     string
	root   string
	logger *slog.Logger
	opts   Options
	cfg    *config.Config

	mu       sync.Mutex
	idx      *symbols.Index
	pipeline *diagnostics.Pipeline
	cov      diagnostics.Coverage
	tickets  *coverage.Map
	open     map[string]*Document
	local    map[string][]diagnostics.Diagnostic
	gen      map[string]int64
}

// New creates an empty session rooted at root.
func New(root string, opts Options) *Session {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.ReadFile == nil {
		opts.ReadFile = os.ReadFile
	}
	if opts.ScopeMode == "" {
		opts.ScopeMode = resolve.ScopePrefix
	}
	id := uuid.New().String()
	idx := symbols.NewIndex()
	return &Session{
		id:       id,
		root:     root,
		logger:   slogutil.OrDiscard(opts.Logger).With("session", id),
		opts:     opts,
		idx:      idx,
		pipeline: diagnostics.NewPipeline(idx, nil),
		open:     make(map[string]*Document),
		local:    make(map[string][]diagnostics.Diagnostic),
		gen:      make(map[string]int64),
	}
}

// ID returns the session identifier attached to every log line.
func (s *Session) ID() string {
	return s.id
}

// Root returns the workspace root directory.
func (s *Session) Root() string {
	return s.root
}

// SetPublisher replaces the publisher. Nil disables publishing.
func (s *Session) SetPublisher(p Publisher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opts.Publisher = p
}

// SetCoverage replaces the ticket coverage map and recomputes. A nil map
// disables coverage warnings.
func (s *Session) SetCoverage(ctx context.Context, m *coverage.Map) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets = m
	if m == nil {
		s.cov = nil
	} else {
		s.cov = m
	}
	s.pipeline.SetCoverage(s.cov)
	s.recompute(ctx)
}

// LoadCoverage reads the coverage map at path. An empty path or a missing
// file disables coverage warnings.
func (s *Session) LoadCoverage(ctx context.Context, path string) error {
	if path == "" {
		s.SetCoverage(ctx, nil)
		return nil
	}
	m, err := coverage.LoadOptional(path)
	if err != nil {
		return errors.New(errors.ConfigInvalid, "cannot load coverage map "+path, err)
	}
	if m == nil {
		s.logger.Info("No coverage map", "path", path)
	} else {
		s.logger.Info("Loaded coverage map", "path", path, "tickets", m.Len())
	}
	s.SetCoverage(ctx, m)
	return nil
}

// Open records an editor buffer and indexes its text.
func (s *Session) Open(ctx context.Context, uri string, version int32, text string) {
	s.mu.Lock()
	s.open[uri] = &Document{URI: uri, Version: version, Text: text}
	gen := s.nextGen(uri)
	s.mu.Unlock()

	s.apply(ctx, uri, gen, []byte(text))
}

// Change replaces the buffer text of an open document. Versions older than
// the buffer's current version are ignored.
func (s *Session) Change(ctx context.Context, uri string, version int32, text string) {
	s.mu.Lock()
	doc, ok := s.open[uri]
	if ok && version < doc.Version {
		s.mu.Unlock()
		s.logger.Debug("Ignoring stale change", "uri", uri, "version", version, "current", doc.Version)
		return
	}
	s.open[uri] = &Document{URI: uri, Version: version, Text: text}
	gen := s.nextGen(uri)
	s.mu.Unlock()

	s.apply(ctx, uri, gen, []byte(text))
}

// Save re-indexes a saved document. A nil text uses the open buffer.
func (s *Session) Save(ctx context.Context, uri string, text *string) {
	s.mu.Lock()
	content := ""
	switch {
	case text != nil:
		content = *text
		if doc, ok := s.open[uri]; ok {
			doc.Text = content
		}
	case s.open[uri] != nil:
		content = s.open[uri].Text
	default:
		s.mu.Unlock()
		s.reload(ctx, uri)
		return
	}
	gen := s.nextGen(uri)
	s.mu.Unlock()

	s.apply(ctx, uri, gen, []byte(content))
}

// Close forgets the editor buffer. The file is re-read from disk so the
// index reflects what is saved; a file that no longer exists is removed.
func (s *Session) Close(ctx context.Context, uri string) {
	s.mu.Lock()
	delete(s.open, uri)
	s.mu.Unlock()

	s.reload(ctx, uri)
}

// FileCreated indexes a file that appeared on disk.
func (s *Session) FileCreated(ctx context.Context, uri string) {
	if s.IsOpen(uri) {
		return
	}
	s.reload(ctx, uri)
}

// FileChanged re-indexes a file that changed on disk.
func (s *Session) FileChanged(ctx context.Context, uri string) {
	if s.IsOpen(uri) {
		return
	}
	s.reload(ctx, uri)
}

// FileDeleted removes a file from the index. When uri names a directory,
// every indexed file beneath it is removed.
func (s *Session) FileDeleted(ctx context.Context, uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, open := s.open[uri]; open {
		return
	}

	targets := []string{uri}
	if !s.idx.HasFile(uri) {
		prefix := strings.TrimSuffix(uri, "/") + "/"
		targets = targets[:0]
		for _, f := range s.idx.Files() {
			if strings.HasPrefix(f, prefix) {
				if _, open := s.open[f]; !open {
					targets = append(targets, f)
				}
			}
		}
		if len(targets) == 0 {
			targets = []string{uri}
		}
	}

	for _, t := range targets {
		s.removeLocked(t)
	}
	s.recompute(ctx, targets...)
}

// IsOpen reports whether uri has an editor buffer.
func (s *Session) IsOpen(uri string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.open[uri]
	return ok
}

// Shutdown empties the index and publishes an empty set for every file
// that still shows diagnostics. The session holds no documents afterwards.
func (s *Session) Shutdown(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.idx.Clear()
	pubs := s.pipeline.Reset()
	cleared := make(map[string]bool, len(pubs))
	for _, pub := range pubs {
		cleared[pub.URI] = true
	}
	for uri, local := range s.local {
		if len(local) > 0 && !cleared[uri] {
			pubs = append(pubs, diagnostics.Publication{URI: uri, Diagnostics: []diagnostics.Diagnostic{}})
		}
	}
	sort.Slice(pubs, func(i, j int) bool { return pubs[i].URI < pubs[j].URI })

	s.open = make(map[string]*Document)
	s.local = make(map[string][]diagnostics.Diagnostic)
	s.gen = make(map[string]int64)
	s.logger.Info("Workspace closed", "cleared", len(pubs))

	if s.opts.Publisher == nil {
		return
	}
	for _, pub := range pubs {
		if err := s.opts.Publisher.Publish(ctx, pub); err != nil {
			s.logger.Warn("Publish failed", "uri", pub.URI, "error", err.Error())
		}
	}
}

func (s *Session) nextGen(uri string) int64 {
	s.gen[uri]++
	return s.gen[uri]
}

// reload reads uri from disk and indexes it, or removes it when it can no
// longer be read.
func (s *Session) reload(ctx context.Context, uri string) {
	s.mu.Lock()
	gen := s.nextGen(uri)
	s.mu.Unlock()

	data, err := s.read(uri)
	if err != nil {
		s.logger.Debug("Removing unreadable file", "uri", uri, "error", err.Error())
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.idx.RemoveFileVersion(uri, gen) {
			delete(s.local, uri)
			s.recompute(ctx, uri)
		}
		return
	}
	s.apply(ctx, uri, gen, data)
}

// apply parses outside the lock and commits the result unless a newer
// submission for the same file was applied first.
func (s *Session) apply(ctx context.Context, uri string, gen int64, text []byte) {
	res := parse.Parse(uri, text)
	local := parse.Check(res)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.commitLocked(uri, gen, res, local) {
		return
	}
	s.recompute(ctx, uri)
}

func (s *Session) commitLocked(uri string, gen int64, res *parse.Result, local []diagnostics.Diagnostic) bool {
	if !s.idx.AddFileVersion(uri, gen, res.Document) {
		s.logger.Debug("Discarding stale parse", "uri", uri, "generation", gen)
		return false
	}
	if len(local) > 0 {
		s.local[uri] = local
	} else {
		delete(s.local, uri)
	}
	return true
}

func (s *Session) removeLocked(uri string) {
	s.idx.RemoveFileVersion(uri, s.nextGen(uri))
	delete(s.local, uri)
}

func (s *Session) recompute(ctx context.Context, touched ...string) {
	pubs := s.pipeline.Recompute(s.local, touched...)
	last := s.pipeline.Last()
	s.logger.Debug("Recomputed diagnostics",
		"files", s.idx.GetFileCount(),
		"symbols", s.idx.GetSymbolCount(),
		"cycles", len(last.Cycles),
		"unresolved", len(last.Unresolved),
		"publications", len(pubs),
	)
	if s.opts.Publisher == nil {
		return
	}
	for _, pub := range pubs {
		if err := s.opts.Publisher.Publish(ctx, pub); err != nil {
			s.logger.Warn("Publish failed", "uri", pub.URI, "error", err.Error())
		}
	}
}

func (s *Session) read(uri string) ([]byte, error) {
	path, err := paths.PathFromURI(uri)
	if err != nil {
		return nil, errors.New(errors.FileUnreadable, "not a file URI: "+uri, err)
	}
	data, err := s.opts.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.FileUnreadable, "cannot read "+path, err)
	}
	return data, nil
}
