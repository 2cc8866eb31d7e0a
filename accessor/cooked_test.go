package accessor_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rob-gra/go-deviceaccess/accessor"
	"github.com/rob-gra/go-deviceaccess/fxpoint"
	"github.com/rob-gra/go-deviceaccess/transfer"
)

func TestCookedScalarRoundTripS1(t *testing.T) {
	tr := newMemTransport(64)
	tr.pokeWord(0, 0x10, 0xDEADBEEF)

	raw, err := accessor.NewRawElement(tr, 0, 0x10, 1)
	require.NoError(t, err)
	conv, err := fxpoint.New(32, 0, true)
	require.NoError(t, err)

	cooked, err := accessor.NewCooked[int32](raw, conv, 0, 1, 1, "/board/reg", "", "", 0, true, true)
	require.NoError(t, err)
	view := accessor.NewScalar[int32](cooked)

	require.NoError(t, cooked.Read(context.Background()))
	require.Equal(t, int32(-559038737), view.Get())
}

func TestCookedWritePropagatesToBackend(t *testing.T) {
	tr := newMemTransport(64)
	raw, err := accessor.NewRawElement(tr, 0, 0x20, 1)
	require.NoError(t, err)
	conv, err := fxpoint.New(16, 4, true)
	require.NoError(t, err)

	cooked, err := accessor.NewCooked[float64](raw, conv, 0, 1, 1, "/board/scaled", "", "", 0, true, true)
	require.NoError(t, err)
	view := accessor.NewScalar[float64](cooked)
	view.Set(12.5)

	_, err = cooked.Write(context.Background(), transfer.Version{})
	require.NoError(t, err)

	readback, err := accessor.NewCooked[float64](raw, conv, 0, 1, 1, "/board/scaled", "", "", 0, true, true)
	require.NoError(t, err)
	require.NoError(t, readback.Read(context.Background()))
	require.Equal(t, 12.5, accessor.NewScalar[float64](readback).Get())
}

func TestOneDAccessorRoundTrip(t *testing.T) {
	tr := newMemTransport(64)
	raw, err := accessor.NewRawElement(tr, 0, 0x0, 4)
	require.NoError(t, err)
	conv, err := fxpoint.New(32, 0, true)
	require.NoError(t, err)

	cooked, err := accessor.NewCooked[int32](raw, conv, 0, 1, 4, "/board/vec", "", "", 0, true, true)
	require.NoError(t, err)
	view := accessor.NewOneD[int32](cooked)
	view.Set([]int32{1, 2, 3, 4})

	_, err = cooked.Write(context.Background(), transfer.Version{})
	require.NoError(t, err)
	require.NoError(t, cooked.Read(context.Background()))
	require.Equal(t, []int32{1, 2, 3, 4}, view.Get())
}

func TestGetAsCookedSetAsCookedCrossType(t *testing.T) {
	tr := newMemTransport(64)
	raw, err := accessor.NewRawElement(tr, 0, 0x30, 1)
	require.NoError(t, err)
	conv, err := fxpoint.New(16, 8, true)
	require.NoError(t, err)

	// The accessor itself stores the string cooked type (exact), so that
	// cross-converting to float64 and back through GetAsCooked/SetAsCooked
	// loses no fractional precision; storing as int32 instead would
	// truncate 2.5 to 2 in the stored buffer before GetAsCooked ever ran.
	cooked, err := accessor.NewCooked[string](raw, conv, 0, 1, 1, "/board/mixed", "", "", 0, true, true)
	require.NoError(t, err)

	require.NoError(t, accessor.SetAsCooked[string, float64](cooked, 0, 0, 2.5))
	asFloat, err := accessor.GetAsCooked[string, float64](cooked, 0, 0)
	require.NoError(t, err)
	require.Equal(t, 2.5, asFloat)
}

func TestAdoptRawRejectsWrongWordCount(t *testing.T) {
	tr := newMemTransport(16)
	raw, err := accessor.NewRawElement(tr, 0, 0x0, 2)
	require.NoError(t, err)
	conv, err := fxpoint.New(32, 0, true)
	require.NoError(t, err)

	cooked, err := accessor.NewCooked[int32](raw, conv, 0, 1, 2, "/board/vec2", "", "", 0, true, true)
	require.NoError(t, err)

	_, err = cooked.AdoptRaw([]int32{1})
	require.Error(t, err)
}
