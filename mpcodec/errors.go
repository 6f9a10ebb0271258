package mpcodec

import (
	"errors"
	"math"
)

// Error kinds raised by the codec layer are transport-independent;
// here they are sentinel errors so callers can
// match with errors.Is regardless of the wrapping added on the way up.
var (
	// ErrUnexpectedEndOfStream is returned when the source ends mid-token.
	ErrUnexpectedEndOfStream = errors.New("msgpack: unexpected end of stream")

	// ErrInvalidMessagePackStream is returned when a tag byte is undefined
	// or a declared length overruns the available bytes.
	ErrInvalidMessagePackStream = errors.New("msgpack: invalid messagepack stream")

	// ErrMessageTypeMismatch is returned when a caller requests a typed
	// read that disagrees with the token actually on the wire.
	ErrMessageTypeMismatch = errors.New("msgpack: message type mismatch")

	// ErrSubtreeOverrun is returned when a subtree reader's caller
	// consumes more than the one structurally-complete value the subtree
	// was scoped to.
	ErrSubtreeOverrun = errors.New("msgpack: subtree overrun")

	// ErrNoActiveContainer is returned by MoveToNextEntry when no
	// container is open on the unpacker.
	ErrNoActiveContainer = errors.New("msgpack: not positioned on a container header")

	// ErrTooLargeCollection is returned when a declared array/map length
	// exceeds the platform index width (32-bit declared lengths are
	// accepted on the wire regardless of host architecture, but a count
	// above math.MaxInt32 cannot be represented as a Go int on a 32-bit
	// platform).
	ErrTooLargeCollection = errors.New("msgpack: collection item count exceeds platform index width")
)

// maxCollectionItems bounds a declared array/map header count to the
// platform index width this library commits to supporting uniformly
// across 32-bit and 64-bit hosts.
const maxCollectionItems = math.MaxInt32
