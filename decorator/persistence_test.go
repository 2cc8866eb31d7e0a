package decorator_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rob-gra/go-deviceaccess/decorator"
	"github.com/rob-gra/go-deviceaccess/log"
)

func TestPersistenceDecoratorSnapshotsOnWriteAndRestores(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reg.snapshot.gz")

	v := decorator.NewIntVariable(0, "/persisted", "", "")
	d := decorator.NewPersistenceDecorator[int32](v, path, log.NewNop(), "/persisted", "", "")

	v.SetAccessData(0, 0, 123)
	_, err := v.Write(context.Background(), v.Version())
	require.NoError(t, err)
	require.NoError(t, d.PostWrite(context.Background()))

	_, err = os.Stat(path)
	require.NoError(t, err)

	restored := decorator.NewIntVariable(0, "/persisted", "", "")
	// NewPersistenceDecorator restores from path immediately on construction.
	_ = decorator.NewPersistenceDecorator[int32](restored, path, log.NewNop(), "/persisted", "", "")
	require.Equal(t, int32(123), restored.AccessData(0, 0))
}

func TestPersistenceDecoratorRestoreMissingFileIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.gz")
	v := decorator.NewIntVariable(7, "/p", "", "")
	_ = decorator.NewPersistenceDecorator[int32](v, path, log.NewNop(), "/p", "", "")
	require.Equal(t, int32(7), v.AccessData(0, 0))
}

func TestPersistenceDecoratorRestoreCorruptSnapshotIsNonFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.gz")
	require.NoError(t, os.WriteFile(path, []byte("not a gzip file"), 0o644))

	v := decorator.NewIntVariable(9, "/p", "", "")
	_ = decorator.NewPersistenceDecorator[int32](v, path, log.NewNop(), "/p", "", "")
	require.Equal(t, int32(9), v.AccessData(0, 0))
}
