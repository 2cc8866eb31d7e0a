package backend_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rob-gra/go-deviceaccess/backend"
)

func TestParseURIHandshakingParams(t *testing.T) {
	u, err := backend.ParseURI("sdm://./handshaking=PARENT,PAYLOAD,BUSY")
	require.NoError(t, err)
	require.Equal(t, "handshaking", u.BackendType)
	require.Equal(t, []string{"PARENT", "PAYLOAD", "BUSY"}, u.Params)
	require.Empty(t, u.MapFile)
}

func TestParseURIDummyWithMapFileParam(t *testing.T) {
	u, err := backend.ParseURI("sdm://./dummy=file.map")
	require.NoError(t, err)
	require.Equal(t, "dummy", u.BackendType)
	require.Equal(t, []string{"file.map"}, u.Params)
}

func TestParseURIWithSeparateMapFileSegment(t *testing.T) {
	u, err := backend.ParseURI("sdm://./numeric/maps/board.map")
	require.NoError(t, err)
	require.Equal(t, "numeric", u.BackendType)
	require.Empty(t, u.Params)
	require.Equal(t, "maps/board.map", u.MapFile)
}

func TestParseURIParsesQueryParams(t *testing.T) {
	u, err := backend.ParseURI("sdm://./dummy=file.map?persist=/var/lib/persist")
	require.NoError(t, err)
	require.Equal(t, "dummy", u.BackendType)
	require.Equal(t, []string{"file.map"}, u.Params)
	require.Equal(t, "/var/lib/persist", u.Query.Get("persist"))
}

func TestParseURIRejectsWrongScheme(t *testing.T) {
	_, err := backend.ParseURI("http://./dummy")
	require.Error(t, err)
}

func TestParseURIRejectsMissingBackendType(t *testing.T) {
	_, err := backend.ParseURI("sdm://.")
	require.Error(t, err)
}
