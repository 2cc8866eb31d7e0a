package catalogue

import (
	"sort"
	"sync"

	"github.com/gobwas/glob"

	"github.com/rob-gra/go-deviceaccess/deverr"
)

// Catalogue is RegisterCatalogue (spec.md §3): a mapping from RegisterPath
// to RegisterInfo. Owned by the backend that builds it and returned
// by-reference to callers, who must treat it as immutable — New returns a
// mutable builder; once handed out via a backend's GetRegisterCatalogue,
// callers only read it.
type Catalogue struct {
	mu      sync.RWMutex
	entries map[Path]Info
}

// New returns an empty catalogue.
func New() *Catalogue {
	return &Catalogue{entries: make(map[Path]Info)}
}

// Add inserts or overwrites the entry for info.Path.
func (c *Catalogue) Add(info Info) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[info.Path] = info
}

// Get returns the Info for path, or an error wrapping
// deverr.RegisterDoesNotExist.
func (c *Catalogue) Get(path Path) (Info, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	info, ok := c.entries[path]
	if !ok {
		return Info{}, deverr.New(deverr.RegisterDoesNotExist, "register %q not in catalogue", path)
	}
	return info, nil
}

// Has reports whether path is present.
func (c *Catalogue) Has(path Path) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[path]
	return ok
}

// Len returns the number of registers in the catalogue.
func (c *Catalogue) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Paths returns every register path, sorted, for deterministic iteration
// (diagnostics, tests).
func (c *Catalogue) Paths() []Path {
	c.mu.RLock()
	defer c.mu.RUnlock()
	paths := make([]Path, 0, len(c.entries))
	for p := range c.entries {
		paths = append(paths, p)
	}
	sort.Slice(paths, func(i, j int) bool { return paths[i] < paths[j] })
	return paths
}

// Find returns every register whose path matches the glob pattern (e.g.
// "/board/*/status"), sorted by path.
func (c *Catalogue) Find(pattern string) ([]Info, error) {
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, deverr.Wrap(deverr.WrongParameter, err, "invalid catalogue glob pattern %q", pattern)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	var matches []Info
	for p, info := range c.entries {
		if g.Match(string(p)) {
			matches = append(matches, info)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Path < matches[j].Path })
	return matches, nil
}

// Merge folds other's entries into c, overwriting on path collision.
func (c *Catalogue) Merge(other *Catalogue) {
	other.mu.RLock()
	entries := make([]Info, 0, len(other.entries))
	for _, info := range other.entries {
		entries = append(entries, info)
	}
	other.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, info := range entries {
		c.entries[info.Path] = info
	}
}
