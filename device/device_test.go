package device_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rob-gra/go-deviceaccess/catalogue"
	"github.com/rob-gra/go-deviceaccess/device"
	"github.com/rob-gra/go-deviceaccess/transfer"
)

// writeRelativeMapFile writes content to a filename relative to the test
// binary's working directory and returns that relative name, since the
// `sdm://` single-parameter map-file convention cannot carry a path
// containing "/" without being mistaken for a separate URI segment.
func writeRelativeMapFile(t *testing.T, name, content string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(name, []byte(content), 0o644))
	t.Cleanup(func() { os.Remove(name) })
	return name
}

func TestOpenWithMapFileParamBuildsNumericAddressBackend(t *testing.T) {
	mapFile := writeRelativeMapFile(t, "device_test_s1.map", "/board/reg 0 0x10 1 32 0 true\n")

	d, err := device.Open(context.Background(), "sdm://./dummy="+filepath.Base(mapFile))
	require.NoError(t, err)
	defer d.Close(context.Background())

	require.Equal(t, 1, d.RegisterCatalogue().Len())

	acc, err := device.GetRegisterAccessor[int32](d, catalogue.NewPath("/board/reg"), 0, 0, 0)
	require.NoError(t, err)
	acc.SetAccessData(0, 0, 42)
	_, err = acc.Write(context.Background(), transfer.Version{})
	require.NoError(t, err)

	readback, err := device.GetRegisterAccessor[int32](d, catalogue.NewPath("/board/reg"), 0, 0, 0)
	require.NoError(t, err)
	require.NoError(t, readback.Read(context.Background()))
	require.Equal(t, int32(42), readback.AccessData(0, 0))
}

func TestOpenWithoutMapFileReturnsRawBackend(t *testing.T) {
	d, err := device.Open(context.Background(), "sdm://./dummy")
	require.NoError(t, err)
	defer d.Close(context.Background())
	require.Equal(t, 0, d.RegisterCatalogue().Len())
}

func TestOpenLogicalNameMapResolvesConstantsAndRegisters(t *testing.T) {
	numericMap := writeRelativeMapFile(t, "device_test_s6_numeric.map", "/board/reg 0 0x20 1 32 0 true\n")
	logicalXML := filepath.Join(t.TempDir(), "logical.xml")
	require.NoError(t, os.WriteFile(logicalXML, []byte(`
<logicalNameMap>
  <register name="/alias" type="REGISTER">
    <targetPath>/board/reg</targetPath>
  </register>
  <register name="/version" type="INT_CONSTANT">
    <value>7</value>
  </register>
</logicalNameMap>
`), 0o644))

	d, err := device.OpenLogicalNameMap(context.Background(), "sdm://./dummy="+filepath.Base(numericMap), logicalXML)
	require.NoError(t, err)
	defer d.Close(context.Background())

	acc, err := device.GetRegisterAccessor[int32](d, catalogue.NewPath("/alias"), 0, 0, 0)
	require.NoError(t, err)
	acc.SetAccessData(0, 0, 99)
	_, err = acc.Write(context.Background(), transfer.Version{})
	require.NoError(t, err)

	readback, err := device.GetRegisterAccessor[int32](d, catalogue.NewPath("/alias"), 0, 0, 0)
	require.NoError(t, err)
	require.NoError(t, readback.Read(context.Background()))
	require.Equal(t, int32(99), readback.AccessData(0, 0))

	c, err := d.GetIntConstant(catalogue.NewPath("/version"))
	require.NoError(t, err)
	require.NoError(t, c.Read(context.Background()))
	require.Equal(t, int32(7), c.AccessData(0, 0))
}

func TestOpenLogicalNameMapPersistsIntVariableAcrossOpens(t *testing.T) {
	numericMap := writeRelativeMapFile(t, "device_test_persist_numeric.map", "/board/reg 0 0x40 1 32 0 true\n")
	logicalXML := filepath.Join(t.TempDir(), "logical_persist.xml")
	require.NoError(t, os.WriteFile(logicalXML, []byte(`
<logicalNameMap>
  <register name="/setpoint" type="INT_VARIABLE">
    <value>0</value>
  </register>
</logicalNameMap>
`), 0o644))
	persistDir := t.TempDir()
	targetURI := "sdm://./dummy=" + filepath.Base(numericMap) + "?persist=" + persistDir

	d1, err := device.OpenLogicalNameMap(context.Background(), targetURI, logicalXML)
	require.NoError(t, err)
	v1, err := d1.GetIntVariable(catalogue.NewPath("/setpoint"))
	require.NoError(t, err)
	v1.SetAccessData(0, 0, 55)
	_, err = v1.Write(context.Background(), v1.Version())
	require.NoError(t, err)
	require.NoError(t, d1.Close(context.Background()))

	d2, err := device.OpenLogicalNameMap(context.Background(), targetURI, logicalXML)
	require.NoError(t, err)
	defer d2.Close(context.Background())
	v2, err := d2.GetIntVariable(catalogue.NewPath("/setpoint"))
	require.NoError(t, err)
	require.Equal(t, int32(55), v2.AccessData(0, 0))
}

func TestOpenAliasResolvesDMapEntry(t *testing.T) {
	numericMap := writeRelativeMapFile(t, "device_test_alias.map", "/board/reg 0 0x00 1 16 0 true\n")
	dmapPath := filepath.Join(t.TempDir(), "devices.dmap")
	require.NoError(t, os.WriteFile(dmapPath, []byte("board1 sdm://./dummy "+numericMap+"\n"), 0o644))

	d, err := device.OpenAlias(context.Background(), dmapPath, "board1")
	require.NoError(t, err)
	defer d.Close(context.Background())
	require.Equal(t, 1, d.RegisterCatalogue().Len())
}
