// Package mpobject holds the dynamic, schema-less MessagePack value
// (Object) and the dual-representation String used wherever a raw
// MessagePack payload may or may not be valid UTF-8.
package mpobject

import (
	"errors"
	"unicode/utf8"
)

// Kind classifies which view of a String is currently authoritative.
type Kind int

const (
	// Unknown means neither EncodeIfNeeded nor DecodeIfNeeded has run
	// yet, or the value was constructed from raw bytes that have not
	// been decode-attempted.
	Unknown Kind = iota
	// IsString means the value decoded as strict UTF-8.
	IsString
	// IsBlob means a strict UTF-8 decode has failed at least once; the
	// value is treated as an opaque binary payload from here on.
	IsBlob
)

// ErrDecodeFailed is the error recorded on a String whose bytes are not
// valid UTF-8, surfaced only when the caller asks for decoded text via
// StringErr.
var ErrDecodeFailed = errors.New("mpobject: invalid utf-8 in messagepack raw payload")

// String is the dual-representation string/blob value: at least one of
// (bytes, text) exists; EncodeIfNeeded and
// DecodeIfNeeded lazily populate the other, and once both exist they
// agree under strict UTF-8. binaryKind == IsBlob iff a strict decode has
// failed at least once.
//
// The zero value is not valid; use NewStringFromText or
// NewStringFromBytes.
type String struct {
	bytes      []byte
	bytesSet   bool
	text       string
	textSet    bool
	binaryKind Kind
	decodeErr  error
}

// NewStringFromText constructs a String whose decoded text is already
// known.
func NewStringFromText(text string) *String {
	return &String{text: text, textSet: true, binaryKind: IsString}
}

// NewStringFromBytes constructs a String from an encoded (possibly
// non-UTF-8) byte payload. Its Kind is Unknown until DecodeIfNeeded (or
// TryGetString/StringErr) is called.
func NewStringFromBytes(b []byte) *String {
	cp := make([]byte, len(b))
	copy(cp, b)
	return &String{bytes: cp, bytesSet: true}
}

// Kind reports which representation is currently authoritative.
func (s *String) Kind() Kind { return s.binaryKind }

// EncodeIfNeeded writes the UTF-8 bytes on first request and memoizes
// them; it never fails because Go strings constructed from decoded text
// are already valid UTF-8 by construction in this type's invariants.
func (s *String) EncodeIfNeeded() []byte {
	if !s.bytesSet {
		s.bytes = []byte(s.text)
		s.bytesSet = true
	}
	return s.bytes
}

// DecodeIfNeeded attempts a strict UTF-8 decode on first request. On
// failure it records the error and flips Kind to IsBlob, leaving the
// decoded-text slot empty; subsequent calls are no-ops and repeat the
// same outcome.
func (s *String) DecodeIfNeeded() {
	if s.textSet || s.binaryKind == IsBlob {
		return
	}
	if !s.bytesSet {
		// Constructed from text; already decoded by definition.
		s.binaryKind = IsString
		return
	}
	if !utf8.Valid(s.bytes) {
		s.binaryKind = IsBlob
		s.decodeErr = ErrDecodeFailed
		return
	}
	s.text = string(s.bytes)
	s.textSet = true
	s.binaryKind = IsString
}

// TryGetString returns the decoded text and true if decoding has
// succeeded (now or previously); otherwise it returns ("", false)
// without raising the stored error.
func (s *String) TryGetString() (string, bool) {
	s.DecodeIfNeeded()
	if s.textSet {
		return s.text, true
	}
	return "", false
}

// StringErr returns the decoded text, or the stored decode error if
// strict UTF-8 decoding has failed.
func (s *String) StringErr() (string, error) {
	s.DecodeIfNeeded()
	if s.textSet {
		return s.text, nil
	}
	return "", s.decodeErr
}

// Bytes returns the raw byte representation; it never fails.
func (s *String) Bytes() []byte { return s.EncodeIfNeeded() }

// Equal compares decoded text when both sides have it, otherwise
// compares raw bytes.
func (s *String) Equal(o *String) bool {
	if o == nil {
		return false
	}
	st, sok := s.TryGetString()
	ot, ook := o.TryGetString()
	if sok && ook {
		return st == ot
	}
	return string(s.Bytes()) == string(o.Bytes())
}

// Hash returns the decoded-text hash when available, else an
// XOR-rolling hash over the raw bytes.
func (s *String) Hash() uint64 {
	if t, ok := s.TryGetString(); ok {
		return fnvHash([]byte(t))
	}
	return xorRollingHash(s.Bytes())
}

func fnvHash(b []byte) uint64 {
	const (
		offset64 = 14695981039346656037
		prime64  = 1099511628211
	)
	h := uint64(offset64)
	for _, c := range b {
		h ^= uint64(c)
		h *= prime64
	}
	return h
}

func xorRollingHash(b []byte) uint64 {
	var h uint64
	for i, c := range b {
		h ^= uint64(c) << (uint(i%8) * 8)
	}
	return h
}
