// Package backend implements the Backend capability set (spec.md §4.7)
// and the process-wide `sdm://` URI factory (spec.md §6): DummyBackend,
// SharedDummyBackend, RebotBackend, NumericAddressBackend, and
// LogicalNameBackend.
//
// Original composition over backend.Backend: no teacher package has a
// client-handle analogue (cs104 has only apci.go's frame types and
// config.go's Config/Valid, no Connect/Open/Close/IsConnected type
// anywhere in the pack). The `asdu` package's functions do take a
// `Connect` parameter, but its definition is outside this retrieval
// pack, so it grounds nothing concrete here. The one real grounding
// point is cs104/config.go's Config/Valid idiom, used for backend
// construction (see NumericAddressBackend).
package backend

import (
	"context"

	"github.com/rob-gra/go-deviceaccess/catalogue"
)

// Backend is the abstract capability set spec.md §4.7 names. Its
// Read/Write signature also satisfies accessor.Transport structurally,
// so any Backend can be handed directly to accessor.NewRawElement without
// an adapter.
type Backend interface {
	Open(ctx context.Context) error
	Close(ctx context.Context) error
	IsOpen() bool

	Read(ctx context.Context, bar uint8, address uint32, dst []byte) error
	Write(ctx context.Context, bar uint8, address uint32, src []byte) error

	RegisterCatalogue() *catalogue.Catalogue
	ReadDeviceInfo(ctx context.Context) (string, error)
}
