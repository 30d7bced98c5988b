package codec

import "errors"

var (
	// ErrSourceExhausted is returned when a source runs out of bytes before a
	// value is complete, including when a magic scan never finds the header.
	ErrSourceExhausted = errors.New("byte source exhausted")

	// ErrBufferTooSmall is returned when a request does not fit in the
	// remaining scratch buffer of a non-addressable source.
	ErrBufferTooSmall = errors.New("scratch buffer too small")

	// ErrInvalidDiscriminant is returned when a presence flag or enum byte
	// carries a value outside its defined range.
	ErrInvalidDiscriminant = errors.New("invalid discriminant")

	// ErrMalformedValue is returned when bytes decode structurally but the
	// value is impossible: varint overflow, invalid UTF-8, out-of-range sizes.
	ErrMalformedValue = errors.New("malformed value")

	// ErrNotResumable is returned when a deferred decode is requested on a
	// source that cannot produce a continuation.
	ErrNotResumable = errors.New("source is not resumable")
)
