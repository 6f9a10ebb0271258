// Package mpconfig loads the runtime options a SerializationContext is
// built from: wire-compatibility dialect, default shape and nil
// policies, and logging verbosity. Precedence, highest first: flags,
// environment variables, an optional msgpack.yaml file, built-in
// defaults.
package mpconfig

import (
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/yatagarasu25/msgpack-cli/mpcodec"
	"github.com/yatagarasu25/msgpack-cli/mpserial"
)

func parseLevel(name string) (logrus.Level, error) {
	return logrus.ParseLevel(name)
}

// Options holds the user-tunable knobs for a SerializationContext.
type Options struct {
	Classic        bool   `yaml:"classic"`
	BinaryAsRaw    bool   `yaml:"binary_as_raw"`
	ArrayShape     bool   `yaml:"array_shape"`
	EnumByValue    bool   `yaml:"enum_by_value"`
	LogLevel       string `yaml:"log_level"`
	ConfigFilePath string `yaml:"-"`
}

// Default returns the built-in option values: non-classic dialect, map
// shape, enum-by-name, info-level logging.
func Default() Options {
	return Options{LogLevel: "info"}
}

// BindFlags registers Options' fields on fs using the same flag names
// a caller would pass on the command line.
func (o *Options) BindFlags(fs *flag.FlagSet) {
	fs.BoolVar(&o.Classic, "classic", o.Classic, "use the pre-bin-family classic MessagePack dialect")
	fs.BoolVar(&o.BinaryAsRaw, "binary-as-raw", o.BinaryAsRaw, "pack binary payloads using string headers")
	fs.BoolVar(&o.ArrayShape, "array-shape", o.ArrayShape, "serialize objects as arrays instead of maps by default")
	fs.BoolVar(&o.EnumByValue, "enum-by-value", o.EnumByValue, "serialize enums by underlying value instead of name by default")
	fs.StringVar(&o.LogLevel, "log-level", o.LogLevel, "logrus level name")
	fs.StringVar(&o.ConfigFilePath, "config", o.ConfigFilePath, "path to an optional msgpack.yaml overlay")
}

// ApplyEnv overlays MSGPACK_* environment variables onto o.
func (o *Options) ApplyEnv() {
	if v, ok := os.LookupEnv("MSGPACK_CLASSIC"); ok {
		o.Classic = v == "1" || v == "true"
	}
	if v, ok := os.LookupEnv("MSGPACK_BINARY_AS_RAW"); ok {
		o.BinaryAsRaw = v == "1" || v == "true"
	}
	if v, ok := os.LookupEnv("MSGPACK_ARRAY_SHAPE"); ok {
		o.ArrayShape = v == "1" || v == "true"
	}
	if v, ok := os.LookupEnv("MSGPACK_ENUM_BY_VALUE"); ok {
		o.EnumByValue = v == "1" || v == "true"
	}
	if v, ok := os.LookupEnv("MSGPACK_LOG_LEVEL"); ok {
		o.LogLevel = v
	}
	if v, ok := os.LookupEnv("MSGPACK_CONFIG"); ok {
		o.ConfigFilePath = v
	}
}

// LoadFile overlays o.ConfigFilePath's YAML content onto o, if set and
// present. A missing file at the configured path is an error; an empty
// ConfigFilePath is a no-op.
func (o *Options) LoadFile() error {
	if o.ConfigFilePath == "" {
		return nil
	}
	data, err := os.ReadFile(o.ConfigFilePath)
	if err != nil {
		return errors.Wrapf(err, "reading %s", o.ConfigFilePath)
	}
	return yaml.Unmarshal(data, o)
}

// Load runs the full precedence chain: defaults, optional file, env,
// then flags already bound and parsed by the caller.
func Load(fs *flag.FlagSet, args []string) (Options, error) {
	o := Default()
	// A first pass lets --config be discovered before flag parsing
	// proper, so the file overlay sits beneath env/flags as documented.
	preScan := flag.NewFlagSet("mpconfig-prescan", flag.ContinueOnError)
	preScan.ParseErrorsWhitelist.UnknownFlags = true
	preScan.StringVar(&o.ConfigFilePath, "config", "", "")
	_ = preScan.Parse(args)

	if err := o.LoadFile(); err != nil {
		return o, err
	}
	o.ApplyEnv()

	o.BindFlags(fs)
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	return o, nil
}

// NewContext builds a SerializationContext from o.
func (o Options) NewContext() *mpserial.Context {
	ctx := mpserial.NewContext()
	var flags mpcodec.CompatibilityFlags
	if o.Classic {
		flags |= mpcodec.PackRawCompatible
	}
	if o.BinaryAsRaw {
		flags |= mpcodec.PackBinaryAsRaw
	}
	ctx.Compat = flags
	if o.ArrayShape {
		ctx.DefaultMethod = mpserial.MethodArray
	}
	if o.EnumByValue {
		ctx.DefaultEnumMethod = mpserial.ByUnderlyingValue
	}
	if level, err := parseLevel(o.LogLevel); err == nil {
		ctx.Logger.Logger.SetLevel(level)
	}
	return ctx
}
