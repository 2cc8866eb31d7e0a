package backend

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/rob-gra/go-deviceaccess/deverr"
)

// Constructor builds a Backend from a parsed URI. Registered once per
// backend type name at process startup (init-time additive registration
// only — the registry is never meant to be mutated after Open has been
// called for the first time, matching spec.md §4.7's "process-wide
// factory").
type Constructor func(u URI) (Backend, error)

var (
	registryMu sync.Mutex
	registry   = map[string]Constructor{}

	instancesMu sync.Mutex
	instances   = map[string]Backend{}

	openGroup singleflight.Group
)

// Register adds a backend constructor under name (the backendType segment
// of an sdm:// URI; this package registers "dummy", "shareddummy" and
// "rebot"). Registration is one-shot per name: registering a name that is
// already registered panics.
func Register(name string, ctor Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[name]; exists {
		panic("backend: Register called twice for backend type " + name)
	}
	registry[name] = ctor
}

func lookup(name string) (Constructor, bool) {
	registryMu.Lock()
	defer registryMu.Unlock()
	ctor, ok := registry[name]
	return ctor, ok
}

// Open resolves raw to a Backend, constructing it on first use and
// caching the instance by the raw URI string so two callers opening the
// same alias share one Backend (spec.md §4.7: "instance-keyed backends
// are cached so two Device handles to the same alias share state").
// Concurrent Open calls for the same URI are de-duplicated via
// singleflight so only one construction ever runs.
func Open(ctx context.Context, raw string) (Backend, error) {
	instancesMu.Lock()
	if b, ok := instances[raw]; ok {
		instancesMu.Unlock()
		return b, nil
	}
	instancesMu.Unlock()

	v, err, _ := openGroup.Do(raw, func() (interface{}, error) {
		instancesMu.Lock()
		if b, ok := instances[raw]; ok {
			instancesMu.Unlock()
			return b, nil
		}
		instancesMu.Unlock()

		u, err := ParseURI(raw)
		if err != nil {
			return nil, err
		}
		ctor, ok := lookup(u.BackendType)
		if !ok {
			return nil, deverr.New(deverr.WrongParameter, "no backend registered for type %q", u.BackendType)
		}
		b, err := ctor(u)
		if err != nil {
			return nil, err
		}
		if err := b.Open(ctx); err != nil {
			return nil, err
		}

		instancesMu.Lock()
		instances[raw] = b
		instancesMu.Unlock()
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Backend), nil
}

// Forget drops raw's cached instance without closing it, so a subsequent
// Open constructs a fresh Backend. Used by tests.
func Forget(raw string) {
	instancesMu.Lock()
	defer instancesMu.Unlock()
	delete(instances, raw)
}
