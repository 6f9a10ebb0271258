// Command msgpackcli is a small operator tool around the msgpack
// package: it inspects a MessagePack stream's structure, dumps its raw
// bytes, or round-trips a stream through the dynamic Object serializer
// to sanity-check a payload without a registered Go type. It is the
// external-tooling seam mpgen.Backend leaves for a real code-generation
// CLI to grow into; this binary only exercises the core.
package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"github.com/yatagarasu25/msgpack-cli/mpcodec"
	"github.com/yatagarasu25/msgpack-cli/mpconfig"
	"github.com/yatagarasu25/msgpack-cli/mpobject"
	"github.com/yatagarasu25/msgpack-cli/mpserial"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "msgpackcli:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return usageError()
	}
	cmd, rest := args[0], args[1:]

	fs := flag.NewFlagSet("msgpackcli "+cmd, flag.ContinueOnError)
	opts, err := mpconfig.Load(fs, rest)
	if err != nil {
		return err
	}
	logger := logrus.NewEntry(logrus.StandardLogger())
	if lvl, lerr := logrus.ParseLevel(opts.LogLevel); lerr == nil {
		logger.Logger.SetLevel(lvl)
	}

	positional := fs.Args()
	if len(positional) == 0 {
		return errors.New("missing input file (use - for stdin)")
	}
	data, err := readInput(positional[0])
	if err != nil {
		return errors.Wrap(err, "reading input")
	}

	ctx := opts.NewContext()
	flags := ctx.Compat

	switch cmd {
	case "inspect":
		return inspect(data, flags)
	case "dump-hex":
		return dumpHex(data, os.Stdout)
	case "roundtrip":
		return roundtrip(data, ctx, logger)
	default:
		return usageError()
	}
}

func usageError() error {
	return errors.New("usage: msgpackcli <inspect|dump-hex|roundtrip> [flags] <file|->")
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// inspect prints a structural tree view of a MessagePack stream: one
// line per value, indented by container nesting depth.
func inspect(data []byte, flags mpcodec.CompatibilityFlags) error {
	u := mpcodec.NewUnpacker(bytes.NewReader(data), flags)
	for {
		sub, err := u.ReadSubtree()
		if err != nil {
			if errors.Is(err, mpcodec.ErrUnexpectedEndOfStream) {
				break
			}
			return err
		}
		if err := printTree(sub, 0); err != nil {
			return err
		}
		if err := sub.Close(); err != nil {
			return err
		}
	}
	return nil
}

func printTree(u *mpcodec.Unpacker, depth int) error {
	indent := ""
	for i := 0; i < depth; i++ {
		indent += "  "
	}
	switch {
	case u.IsArrayHeader():
		n := u.ItemsCount()
		fmt.Printf("%sarray(%d)\n", indent, n)
		for i := 0; i < n; i++ {
			item, err := u.ReadSubtree()
			if err != nil {
				return err
			}
			if err := printTree(item, depth+1); err != nil {
				return err
			}
			if err := item.Close(); err != nil {
				return err
			}
		}
	case u.IsMapHeader():
		n := u.ItemsCount()
		fmt.Printf("%smap(%d)\n", indent, n)
		for i := 0; i < n; i++ {
			key, err := u.ReadSubtree()
			if err != nil {
				return err
			}
			fmt.Printf("%s  key:\n", indent)
			if err := printTree(key, depth+2); err != nil {
				return err
			}
			if err := key.Close(); err != nil {
				return err
			}
			val, err := u.ReadSubtree()
			if err != nil {
				return err
			}
			fmt.Printf("%s  value:\n", indent)
			if err := printTree(val, depth+2); err != nil {
				return err
			}
			if err := val.Close(); err != nil {
				return err
			}
		}
	default:
		fmt.Printf("%s%s %s\n", indent, u.LastReadData().Kind, describeScalar(u.LastReadData()))
	}
	return nil
}

func describeScalar(obj mpobject.Object) string {
	switch obj.Kind {
	case mpobject.KindNil:
		return ""
	case mpobject.KindBool:
		return fmt.Sprintf("%v", obj.AsBool())
	case mpobject.KindUint:
		return fmt.Sprintf("%d", obj.AsUint())
	case mpobject.KindInt:
		return fmt.Sprintf("%d", obj.AsInt())
	case mpobject.KindFloat32:
		return fmt.Sprintf("%v", obj.AsFloat32())
	case mpobject.KindFloat64:
		return fmt.Sprintf("%v", obj.AsFloat64())
	case mpobject.KindString:
		if text, ok := obj.AsString().TryGetString(); ok {
			return fmt.Sprintf("%q", text)
		}
		return fmt.Sprintf("<blob %d bytes>", len(obj.AsString().Bytes()))
	case mpobject.KindBinary:
		return fmt.Sprintf("<%d bytes>", len(obj.AsBinary()))
	case mpobject.KindExtension:
		ext := obj.AsExtension()
		return fmt.Sprintf("type=%d <%d bytes>", ext.TypeByte, len(ext.Payload))
	default:
		return ""
	}
}

// dumpHex prints data as offset-prefixed hex rows, 16 bytes per line,
// the same layout hexdump -C uses.
func dumpHex(data []byte, w io.Writer) error {
	for off := 0; off < len(data); off += 16 {
		end := off + 16
		if end > len(data) {
			end = len(data)
		}
		row := data[off:end]
		if _, err := fmt.Fprintf(w, "%08x  ", off); err != nil {
			return err
		}
		for i := 0; i < 16; i++ {
			if i < len(row) {
				if _, err := fmt.Fprintf(w, "%02x ", row[i]); err != nil {
					return err
				}
			} else {
				if _, err := fmt.Fprint(w, "   "); err != nil {
					return err
				}
			}
			if i == 7 {
				if _, err := fmt.Fprint(w, " "); err != nil {
					return err
				}
			}
		}
		if _, err := fmt.Fprintf(w, " |%s|\n", printableASCII(row)); err != nil {
			return err
		}
	}
	return nil
}

func printableASCII(b []byte) string {
	out := make([]byte, len(b))
	for i, c := range b {
		if c >= 0x20 && c < 0x7f {
			out[i] = c
		} else {
			out[i] = '.'
		}
	}
	return string(out)
}

// roundtrip decodes data through the dynamic Object serializer (the
// built-in shape registered for mpobject.Object — see mpserial's
// buildBuiltin) and re-encodes it, reporting whether the result is
// byte-identical to the input. A mismatch is not necessarily a bug: a
// wider-than-necessary original encoding (e.g. a uint16 header for a
// value that fits uint8) will re-encode narrower, since the
// narrowest-encoding invariant only binds what this library itself
// produces.
func roundtrip(data []byte, ctx *mpserial.Context, logger *logrus.Entry) error {
	ser, err := mpserial.GetSerializerFrom[mpobject.Object](ctx)
	if err != nil {
		return errors.Wrap(err, "resolving dynamic serializer")
	}
	obj, err := ser.UnpackSingleObject(data)
	if err != nil {
		return errors.Wrap(err, "decoding input")
	}
	out, err := ser.PackSingleObject(obj)
	if err != nil {
		return errors.Wrap(err, "re-encoding")
	}

	if bytes.Equal(data, out) {
		fmt.Println("round-trip: byte-identical")
		return nil
	}
	logger.WithField("input_bytes", len(data)).WithField("output_bytes", len(out)).
		Warn("round-trip output differs from input")
	fmt.Printf("round-trip: %d input bytes -> %d output bytes (differs)\n", len(data), len(out))
	return nil
}
