package main

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yatagarasu25/msgpack-cli/mpcodec"
)

func TestDumpHexLayout(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, dumpHex([]byte("hi"), &out))
	assert.Contains(t, out.String(), "00000000")
	assert.Contains(t, out.String(), "68 69")
	assert.Contains(t, out.String(), "|hi|")
}

func TestRunRoundtripReportsByteIdentical(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/sample.msgpack"
	var buf bytes.Buffer
	p := mpcodec.NewPacker(&buf, 0)
	require.NoError(t, p.PackMapHeader(1))
	require.NoError(t, p.PackString("k"))
	require.NoError(t, p.PackArrayHeader(2))
	require.NoError(t, p.PackInt(1))
	require.NoError(t, p.PackInt(2))
	require.NoError(t, p.Flush())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	require.NoError(t, run([]string{"roundtrip", path}))
}

func TestRunInspectSmokesWithoutError(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/sample.msgpack"
	var buf bytes.Buffer
	p := mpcodec.NewPacker(&buf, 0)
	require.NoError(t, p.PackArrayHeader(2))
	require.NoError(t, p.PackInt(1))
	require.NoError(t, p.PackString("x"))
	require.NoError(t, p.Flush())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	require.NoError(t, run([]string{"inspect", path}))
	require.NoError(t, run([]string{"dump-hex", path}))
	require.NoError(t, run([]string{"roundtrip", path}))
}
