package workspace

import (
	"context"
	"log/slog"

	"reqls/internal/config"
	"reqls/internal/discover"
	"reqls/internal/resolve"
)

// NewFromConfig creates a session for root using the workspace settings in
// cfg. Call Load to index the workspace.
func NewFromConfig(root string, cfg *config.Config, logger *slog.Logger, pub Publisher) *Session {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	s := New(root, Options{
		Logger:    logger,
		Publisher: pub,
		Workers:   cfg.Workers(),
		ScopeMode: resolve.ParseScopeMode(cfg.Completion.ScopeFilter),
	})
	s.cfg = cfg
	return s
}

// DiscoverOptions returns the discovery settings of cfg.
func DiscoverOptions(cfg *config.Config) discover.Options {
	if cfg == nil {
		return discover.Options{}
	}
	return discover.Options{Extensions: cfg.Extensions, Exclude: cfg.Exclude}
}

// Load reads the coverage map (when enabled) and indexes every document
// the configuration selects.
func (s *Session) Load(ctx context.Context) (LoadStats, error) {
	cfg := s.cfg
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := s.LoadCoverage(ctx, cfg.CoveragePath(s.root)); err != nil {
		return LoadStats{}, err
	}
	return s.LoadWorkspace(ctx, DiscoverOptions(cfg))
}

// Accepts reports whether a slash-separated path relative to the root is a
// document under the session's configuration.
func (s *Session) Accepts(rel string) bool {
	return discover.Matches(rel, DiscoverOptions(s.cfg))
}
