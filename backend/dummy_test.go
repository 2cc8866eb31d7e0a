package backend_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rob-gra/go-deviceaccess/backend"
	"github.com/rob-gra/go-deviceaccess/catalogue"
	"github.com/rob-gra/go-deviceaccess/dtype"
)

func TestDummyBackendReadWriteRoundTrip(t *testing.T) {
	b := backend.NewDummyBackend("")
	require.NoError(t, b.Open(context.Background()))
	defer b.Close(context.Background())

	payload := []byte{1, 2, 3, 4}
	require.NoError(t, b.Write(context.Background(), 0, 8, payload))

	got := make([]byte, 4)
	require.NoError(t, b.Read(context.Background(), 0, 8, got))
	require.Equal(t, payload, got)
}

func TestDummyBackendRejectsAccessWhenClosed(t *testing.T) {
	b := backend.NewDummyBackend("")
	err := b.Read(context.Background(), 0, 0, make([]byte, 4))
	require.Error(t, err)
}

func TestDummyBackendRegisterCatalogue(t *testing.T) {
	b := backend.NewDummyBackend("board.map")
	c := catalogue.New()
	c.Add(catalogue.Info{Path: catalogue.NewPath("/board/reg"), ValueType: dtype.Int32})
	b.SetCatalogue(c)

	require.Equal(t, 1, b.RegisterCatalogue().Len())
}
