package dtype_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rob-gra/go-deviceaccess/dtype"
)

func TestOfDispatchesOnTypeParameter(t *testing.T) {
	require.Equal(t, dtype.Int32, dtype.Of[int32]())
	require.Equal(t, dtype.Uint64, dtype.Of[uint64]())
	require.Equal(t, dtype.Float64, dtype.Of[float64]())
	require.Equal(t, dtype.String, dtype.Of[string]())
}

func TestIsIntegerIsFloat(t *testing.T) {
	require.True(t, dtype.Int32.IsInteger())
	require.False(t, dtype.Int32.IsFloat())
	require.True(t, dtype.Float32.IsFloat())
	require.False(t, dtype.String.IsInteger())
}

func TestStringRendersKnownAndUnknown(t *testing.T) {
	require.Equal(t, "int32", dtype.Int32.String())
	require.Contains(t, dtype.DataType(200).String(), "DataType(200)")
}
