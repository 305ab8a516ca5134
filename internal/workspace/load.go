package workspace

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"reqls/internal/discover"
	"reqls/internal/errors"
	"reqls/internal/parse"
	"reqls/internal/paths"
)

// LoadStats summarises one LoadAll call.
type LoadStats struct {
	Requested  int           `json:"requested"`
	Indexed    int           `json:"indexed"`
	Skipped    int           `json:"skipped"`
	Unreadable int           `json:"unreadable"`
	Duration   time.Duration `json:"duration"`
}

// LoadAll parses uris concurrently and indexes each result as it completes,
// then recomputes and publishes once. Documents open in an editor are
// skipped. Unreadable files are logged and skipped. The only error is
// ctx's.
func (s *Session) LoadAll(ctx context.Context, uris []string) (LoadStats, error) {
	start := time.Now()
	stats := LoadStats{Requested: len(uris)}

	type job struct {
		uri string
		gen int64
	}
	jobs := make([]job, 0, len(uris))
	s.mu.Lock()
	for _, uri := range uris {
		if _, open := s.open[uri]; open {
			stats.Skipped++
			continue
		}
		jobs = append(jobs, job{uri: uri, gen: s.nextGen(uri)})
	}
	s.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	touched := make([]string, 0, len(jobs))

	for _, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := s.read(j.uri)
			if err != nil {
				s.logger.Warn("Skipping unreadable file", "uri", j.uri, "error", err.Error())
				s.mu.Lock()
				stats.Unreadable++
				s.mu.Unlock()
				return nil
			}
			res := parse.Parse(j.uri, data)
			local := parse.Check(res)

			s.mu.Lock()
			defer s.mu.Unlock()
			if s.commitLocked(j.uri, j.gen, res, local) {
				stats.Indexed++
				touched = append(touched, j.uri)
			} else {
				stats.Skipped++
			}
			return nil
		})
	}
	err := g.Wait()

	s.mu.Lock()
	s.recompute(ctx, touched...)
	s.mu.Unlock()

	stats.Duration = time.Since(start)
	s.logger.Info("Loaded workspace",
		"files", stats.Indexed,
		"skipped", stats.Skipped,
		"unreadable", stats.Unreadable,
		"duration", stats.Duration,
	)
	return stats, err
}

// LoadWorkspace discovers every document under the session root and loads
// it with LoadAll.
func (s *Session) LoadWorkspace(ctx context.Context, opts discover.Options) (LoadStats, error) {
	rels, err := discover.Files(s.root, opts)
	if err != nil {
		return LoadStats{}, errors.New(errors.WorkspaceNotFound, "cannot scan workspace "+s.root, err)
	}
	uris := make([]string, len(rels))
	for i, rel := range rels {
		uris[i] = paths.URIForRelative(s.root, rel)
	}
	return s.LoadAll(ctx, uris)
}
