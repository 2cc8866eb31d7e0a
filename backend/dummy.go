package backend

import (
	"context"
	"sync"

	"github.com/rob-gra/go-deviceaccess/catalogue"
	"github.com/rob-gra/go-deviceaccess/deverr"
)

func init() {
	Register("dummy", func(u URI) (Backend, error) {
		mapFile := u.MapFile
		if mapFile == "" && len(u.Params) > 0 {
			mapFile = u.Params[0]
		}
		return NewDummyBackend(mapFile), nil
	})
}

// DummyBackend is an in-process, addressable int32 memory split into a
// fixed number of bars (spec.md §4.7): the reference Backend used by the
// majority of tests and the worked examples. Bars grow on first access to
// whatever address a caller reaches, so no bar-size configuration is
// required up front.
type DummyBackend struct {
	mu      sync.Mutex
	open    bool
	mapFile string
	bars    map[uint8][]byte
	cat     *catalogue.Catalogue
}

// NewDummyBackend returns a closed DummyBackend. mapFile, if non-empty, is
// recorded for ReadDeviceInfo and is expected to already have been loaded
// into a catalogue by the caller via SetCatalogue (spec.md keeps map-file
// parsing as "an external collaborator", not the backend itself).
func NewDummyBackend(mapFile string) *DummyBackend {
	return &DummyBackend{
		mapFile: mapFile,
		bars:    make(map[uint8][]byte),
		cat:     catalogue.New(),
	}
}

// SetCatalogue installs the RegisterCatalogue this backend reports,
// typically populated by mapfile.LoadNumericAddressMap against b.mapFile.
func (b *DummyBackend) SetCatalogue(c *catalogue.Catalogue) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cat = c
}

func (b *DummyBackend) Open(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.open = true
	return nil
}

func (b *DummyBackend) Close(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.open = false
	return nil
}

func (b *DummyBackend) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open
}

func (b *DummyBackend) bar(n uint8, through int) []byte {
	buf, ok := b.bars[n]
	if !ok || len(buf) < through {
		grown := make([]byte, through)
		copy(grown, buf)
		b.bars[n] = grown
		return grown
	}
	return buf
}

func (b *DummyBackend) Read(ctx context.Context, bar uint8, address uint32, dst []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.open {
		return deverr.New(deverr.NotOpened, "dummy backend is not open")
	}
	buf := b.bar(bar, int(address)+len(dst))
	copy(dst, buf[address:])
	return nil
}

func (b *DummyBackend) Write(ctx context.Context, bar uint8, address uint32, src []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.open {
		return deverr.New(deverr.NotOpened, "dummy backend is not open")
	}
	buf := b.bar(bar, int(address)+len(src))
	copy(buf[address:], src)
	return nil
}

func (b *DummyBackend) RegisterCatalogue() *catalogue.Catalogue {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cat
}

func (b *DummyBackend) ReadDeviceInfo(ctx context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.mapFile == "" {
		return "DummyBackend", nil
	}
	return "DummyBackend(" + b.mapFile + ")", nil
}
