package backend

import (
	"context"
	"sort"
	"strings"

	"github.com/rob-gra/go-deviceaccess/accessor"
	"github.com/rob-gra/go-deviceaccess/catalogue"
	"github.com/rob-gra/go-deviceaccess/dtype"
	"github.com/rob-gra/go-deviceaccess/fxpoint"
	"github.com/rob-gra/go-deviceaccess/transfer"
)

// NumericAddressBackend wraps any byte-addressed Backend and attaches a
// RegisterCatalogue populated from a numeric address map (spec.md §4.7):
// `(name, bar, address, nWords, width, fractionalBits, signed)` rows. The
// wrapped target remains responsible for Open/Close/IsOpen/Read/Write/
// ReadDeviceInfo; this type only adds the catalogue and the typed
// GetRegisterAccessor entry point.
type NumericAddressBackend struct {
	target Backend
	cat    *catalogue.Catalogue
}

// NewNumericAddressBackend wraps target with cat. cat is normally built by
// mapfile.LoadNumericAddressMap, kept as "an external collaborator" per
// spec.md §6 rather than a method on this type.
func NewNumericAddressBackend(target Backend, cat *catalogue.Catalogue) *NumericAddressBackend {
	if cat == nil {
		cat = catalogue.New()
	}
	return &NumericAddressBackend{target: target, cat: cat}
}

func (b *NumericAddressBackend) Open(ctx context.Context) error  { return b.target.Open(ctx) }
func (b *NumericAddressBackend) Close(ctx context.Context) error { return b.target.Close(ctx) }
func (b *NumericAddressBackend) IsOpen() bool                    { return b.target.IsOpen() }

func (b *NumericAddressBackend) Read(ctx context.Context, bar uint8, address uint32, dst []byte) error {
	return b.target.Read(ctx, bar, address, dst)
}

func (b *NumericAddressBackend) Write(ctx context.Context, bar uint8, address uint32, src []byte) error {
	return b.target.Write(ctx, bar, address, src)
}

func (b *NumericAddressBackend) RegisterCatalogue() *catalogue.Catalogue { return b.cat }

func (b *NumericAddressBackend) ReadDeviceInfo(ctx context.Context) (string, error) {
	return b.target.ReadDeviceInfo(ctx)
}

// Target returns the wrapped transport-capable Backend.
func (b *NumericAddressBackend) Target() Backend { return b.target }

// Modules enumerates the distinct top-level path segments present in the
// catalogue (spec.md §4.7: "module enumeration"), sorted.
func (b *NumericAddressBackend) Modules() []string {
	seen := map[string]struct{}{}
	for _, p := range b.cat.Paths() {
		s := strings.TrimPrefix(string(p), "/")
		if i := strings.IndexByte(s, '/'); i >= 0 {
			s = s[:i]
		}
		if s != "" {
			seen[s] = struct{}{}
		}
	}
	modules := make([]string, 0, len(seen))
	for m := range seen {
		modules = append(modules, m)
	}
	sort.Strings(modules)
	return modules
}

// GetRegisterAccessor builds a typed cooked accessor for path (spec.md
// §4.7's `getRegisterAccessor<T>`): nWords and wordOffset let a caller
// request a sub-range of a multi-word register; 0/0 requests the whole
// thing as described by the catalogue.
func GetRegisterAccessor[T dtype.UserType](
	b *NumericAddressBackend, path catalogue.Path, nWords, wordOffset int, mode transfer.AccessMode,
) (*accessor.Cooked[T], error) {
	info, err := b.cat.Get(path)
	if err != nil {
		return nil, err
	}
	if nWords <= 0 {
		nWords = info.NumberOfChannels * info.NumberOfSamples
	}

	raw, err := accessor.NewRawElement(b, info.Bar, info.Address+uint32(wordOffset)*4, uint32(nWords))
	if err != nil {
		return nil, err
	}
	width, fracBits, signed := info.Width, info.FractionalBits, info.Signed
	if mode.Has(transfer.ModeRaw) {
		// Raw mode: identity converter, the cooked buffer holds raw words.
		width, fracBits, signed = 32, 0, true
	}
	conv, err := fxpoint.New(width, fracBits, signed)
	if err != nil {
		return nil, err
	}

	numChannels, numSamples := info.NumberOfChannels, info.NumberOfSamples
	if nWords != numChannels*numSamples {
		numChannels, numSamples = 1, nWords
	}
	return accessor.NewCooked[T](raw, conv, 0, numChannels, numSamples, string(path), "", "", mode, info.Readable, info.Writeable)
}
