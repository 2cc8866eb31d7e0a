package fxpoint_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rob-gra/go-deviceaccess/deverr"
	"github.com/rob-gra/go-deviceaccess/fxpoint"
)

func TestNewRejectsOutOfRangeWidth(t *testing.T) {
	_, err := fxpoint.New(0, 0, false)
	require.True(t, deverr.Is(err, deverr.WrongParameter))

	_, err = fxpoint.New(33, 0, false)
	require.True(t, deverr.Is(err, deverr.WrongParameter))
}

func TestScalarRoundTripS1(t *testing.T) {
	// S1: open backend to a 32-bit unsigned register, write 0xDEADBEEF,
	// read back as int32 -> -559038737 (bit-exact reinterpretation).
	c, err := fxpoint.New(32, 0, false)
	require.NoError(t, err)

	raw, err := fxpoint.ToRaw[uint32](c, 0xDEADBEEF)
	require.NoError(t, err)

	signed, err := fxpoint.New(32, 0, true)
	require.NoError(t, err)
	cooked, err := fxpoint.ToCooked[int32](signed, raw)
	require.NoError(t, err)
	require.Equal(t, int32(-559038737), cooked)
}

func TestRoundTripDoubleForEverySignedRawWidth8(t *testing.T) {
	c, err := fxpoint.New(8, 3, true)
	require.NoError(t, err)

	for raw := -128; raw <= 127; raw++ {
		cooked, err := fxpoint.ToCooked[float64](c, int32(raw))
		require.NoError(t, err)
		back, err := fxpoint.ToRaw[float64](c, cooked)
		require.NoError(t, err)
		require.Equal(t, int32(raw), back, "raw=%d cooked=%v", raw, cooked)
	}
}

func TestRoundTripDoubleForEveryUnsignedRawWidth8(t *testing.T) {
	c, err := fxpoint.New(8, 2, false)
	require.NoError(t, err)

	for raw := 0; raw <= 255; raw++ {
		cooked, err := fxpoint.ToCooked[float64](c, int32(raw))
		require.NoError(t, err)
		back, err := fxpoint.ToRaw[float64](c, cooked)
		require.NoError(t, err)
		require.Equal(t, int32(raw), back)
	}
}

func TestRoundTripStringForEveryRawWidth6(t *testing.T) {
	c, err := fxpoint.New(6, 4, true)
	require.NoError(t, err)

	for raw := -32; raw <= 31; raw++ {
		s, err := fxpoint.ToCooked[string](c, int32(raw))
		require.NoError(t, err)
		back, err := fxpoint.ToRaw[string](c, s)
		require.NoError(t, err)
		require.Equal(t, int32(raw), back, "raw=%d s=%q", raw, s)
	}
}

func TestToCookedIntegerTruncatesTowardZero(t *testing.T) {
	c, err := fxpoint.New(16, 8, true)
	require.NoError(t, err)

	// raw=0x7FFF, fractionalBits=8 -> cooked value ~127.996, truncate to 127.
	cooked, err := fxpoint.ToCooked[int8](c, 0x7FFF)
	require.NoError(t, err)
	require.Equal(t, int8(127), cooked) // 127.996 truncates to 127, already in range

	cookedU8, err := fxpoint.ToCooked[uint8](c, 0x7FFF)
	require.NoError(t, err)
	require.Equal(t, uint8(127), cookedU8)
}

func TestToRawStringRejectsUnparseable(t *testing.T) {
	c, err := fxpoint.New(16, 4, true)
	require.NoError(t, err)

	_, err = fxpoint.ToRaw[string](c, "not-a-number")
	require.True(t, deverr.Is(err, deverr.WrongParameter))
}

func TestVectorisedConversionLengthMismatch(t *testing.T) {
	c, err := fxpoint.New(16, 0, true)
	require.NoError(t, err)

	err = fxpoint.ToCookedSlice[float64](c, []int32{1, 2}, make([]float64, 1))
	require.True(t, deverr.Is(err, deverr.WrongParameter))
}

func TestVectorisedRoundTrip(t *testing.T) {
	c, err := fxpoint.New(16, 4, true)
	require.NoError(t, err)

	raws := []int32{1, -1, 100, -100, 0}
	cooked := make([]float64, len(raws))
	require.NoError(t, fxpoint.ToCookedSlice[float64](c, raws, cooked))

	back := make([]int32, len(raws))
	require.NoError(t, fxpoint.ToRawSlice[float64](c, cooked, back))
	require.Equal(t, raws, back)
}

func TestNegativeFractionalBitsScalesUp(t *testing.T) {
	c, err := fxpoint.New(8, -2, false)
	require.NoError(t, err)
	cooked, err := fxpoint.ToCooked[int64](c, 3)
	require.NoError(t, err)
	require.Equal(t, int64(12), cooked)

	back, err := fxpoint.ToRaw[int64](c, 12)
	require.NoError(t, err)
	require.Equal(t, int32(3), back)
}
