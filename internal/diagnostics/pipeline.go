package diagnostics

import (
	"sort"

	"reqls/internal/symbols"
)

// Pipeline recomputes workspace diagnostics after each index mutation and
// remembers which files it published workspace diagnostics for, so that
// files which became clean are republished with their local set only.
//
// Pipeline is not safe for concurrent use.
type Pipeline struct {
	idx      *symbols.Index
	cov      Coverage
	previous map[string]struct{}
	last     Result
}

// NewPipeline creates a pipeline over idx. cov may be nil.
func NewPipeline(idx *symbols.Index, cov Coverage) *Pipeline {
	return &Pipeline{
		idx:      idx,
		cov:      cov,
		previous: make(map[string]struct{}),
		last:     Result{ByFile: map[string][]Diagnostic{}},
	}
}

// SetCoverage replaces the coverage source used by later passes.
func (p *Pipeline) SetCoverage(cov Coverage) {
	p.cov = cov
}

// Recompute runs a full pass and returns what has to be published: every
// file that had workspace diagnostics on the previous pass, every file that
// has them now, and every touched file. Each publication merges the file's
// local diagnostics from local with its workspace diagnostics. Publications
// are sorted by URI.
func (p *Pipeline) Recompute(local map[string][]Diagnostic, touched ...string) []Publication {
	res := Compute(p.idx, p.cov)

	uris := make(map[string]struct{}, len(p.previous)+len(res.ByFile)+len(touched))
	for uri := range p.previous {
		uris[uri] = struct{}{}
	}
	current := make(map[string]struct{}, len(res.ByFile))
	for _, uri := range res.Files() {
		uris[uri] = struct{}{}
		current[uri] = struct{}{}
	}
	for _, uri := range touched {
		if uri != "" {
			uris[uri] = struct{}{}
		}
	}

	pubs := make([]Publication, 0, len(uris))
	for uri := range uris {
		pubs = append(pubs, Publication{URI: uri, Diagnostics: merge(local[uri], res.ByFile[uri])})
	}
	sort.Slice(pubs, func(i, j int) bool { return pubs[i].URI < pubs[j].URI })

	p.previous = current
	p.last = res
	return pubs
}

// Last returns the result of the most recent pass.
func (p *Pipeline) Last() Result {
	return p.last
}

// Merged returns local plus the latest workspace diagnostics for uri.
func (p *Pipeline) Merged(uri string, local []Diagnostic) []Diagnostic {
	return merge(local, p.last.ByFile[uri])
}

// Previous returns the sorted URIs that carried workspace diagnostics on the
// last pass.
func (p *Pipeline) Previous() []string {
	out := make([]string, 0, len(p.previous))
	for uri := range p.previous {
		out = append(out, uri)
	}
	sort.Strings(out)
	return out
}

// Reset forgets all published state. The returned publications clear every
// file that still carried workspace diagnostics.
func (p *Pipeline) Reset() []Publication {
	prev := p.Previous()
	pubs := make([]Publication, 0, len(prev))
	for _, uri := range prev {
		pubs = append(pubs, Publication{URI: uri, Diagnostics: []Diagnostic{}})
	}
	p.previous = make(map[string]struct{})
	p.last = Result{ByFile: map[string][]Diagnostic{}}
	return pubs
}

func merge(local, workspace []Diagnostic) []Diagnostic {
	out := make([]Diagnostic, 0, len(local)+len(workspace))
	out = append(out, local...)
	out = append(out, workspace...)
	Sort(out)
	return out
}
