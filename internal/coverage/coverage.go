// Package coverage loads the ticket coverage map that links requirement
// paths to tracker tickets.
package coverage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	toml "github.com/pelletier/go-toml/v2"
)

// DefaultFile is the coverage map filename looked up at the workspace root.
const DefaultFile = "TICKETS.toml"

// Ticket is one tracker ticket and the requirements it covers.
type Ticket struct {
	// ID is the tracker identifier, e.g. AUTH-12
	ID string `toml:"id"`

	// Title is an optional human-readable summary
	Title string `toml:"title,omitempty"`

	// Requirements are the requirement paths this ticket covers
	Requirements []string `toml:"requirements"`
}

// File is the root structure of TICKETS.toml.
type File struct {
	Version int      `toml:"version"`
	Tickets []Ticket `toml:"ticket"`
}

// Map answers coverage queries.
type Map struct {
	byPath map[string][]string
}

// New builds a Map from ticket declarations. Tickets without an id are
// ignored.
func New(tickets []Ticket) *Map {
	m := &Map{byPath: make(map[string][]string)}
	for _, t := range tickets {
		if t.ID == "" {
			continue
		}
		for _, p := range t.Requirements {
			m.byPath[p] = append(m.byPath[p], t.ID)
		}
	}
	for p, ids := range m.byPath {
		sort.Strings(ids)
		m.byPath[p] = ids
	}
	return m
}

// Parse decodes TICKETS.toml content.
func Parse(data []byte) (*Map, error) {
	var f File
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse coverage map: %w", err)
	}
	if f.Version < 1 {
		f.Version = 1
	}
	if f.Version > 1 {
		return nil, fmt.Errorf("unsupported coverage map version %d", f.Version)
	}
	return New(f.Tickets), nil
}

// Load reads and parses the coverage map at path.
func Load(path string) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read coverage map: %w", err)
	}
	return Parse(data)
}

// LoadOptional is Load, except that a missing file yields (nil, nil).
func LoadOptional(path string) (*Map, error) {
	m, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return m, err
}

// Covered reports whether at least one ticket covers the requirement path.
func (m *Map) Covered(path string) bool {
	if m == nil {
		return false
	}
	return len(m.byPath[path]) > 0
}

// Tickets returns the sorted ticket ids covering path.
func (m *Map) Tickets(path string) []string {
	if m == nil {
		return nil
	}
	ids := m.byPath[path]
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

// Len returns the number of covered requirement paths.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.byPath)
}
