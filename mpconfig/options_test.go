package mpconfig_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	flag "github.com/spf13/pflag"

	"github.com/yatagarasu25/msgpack-cli/mpconfig"
	"github.com/yatagarasu25/msgpack-cli/mpserial"
)

func TestDefaultOptions(t *testing.T) {
	o := mpconfig.Default()
	assert.Equal(t, "info", o.LogLevel)
	assert.False(t, o.Classic)
}

func TestOptionsEnvOverridesDefaults(t *testing.T) {
	t.Setenv("MSGPACK_CLASSIC", "true")
	t.Setenv("MSGPACK_LOG_LEVEL", "debug")

	o := mpconfig.Default()
	o.ApplyEnv()
	assert.True(t, o.Classic)
	assert.Equal(t, "debug", o.LogLevel)
}

func TestOptionsFlagsOverrideEnv(t *testing.T) {
	t.Setenv("MSGPACK_CLASSIC", "true")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	o, err := mpconfig.Load(fs, []string{"--classic=false"})
	require.NoError(t, err)
	assert.False(t, o.Classic)
}

func TestOptionsFileOverlayApplied(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "msgpack.yaml")
	require.NoError(t, os.WriteFile(path, []byte("classic: true\nlog_level: warn\n"), 0o600))

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	o, err := mpconfig.Load(fs, []string{"--config", path})
	require.NoError(t, err)
	assert.True(t, o.Classic)
	assert.Equal(t, "warn", o.LogLevel)
}

func TestOptionsNewContextMapsFlagsOntoContext(t *testing.T) {
	o := mpconfig.Default()
	o.Classic = true
	o.ArrayShape = true
	o.EnumByValue = true

	ctx := o.NewContext()
	assert.True(t, ctx.Compat.Classic())
	assert.Equal(t, mpserial.MethodArray, ctx.DefaultMethod)
	assert.Equal(t, mpserial.ByUnderlyingValue, ctx.DefaultEnumMethod)
}
