package codec

import (
	"fmt"
	"math"
	"time"
	"unicode/utf8"
)

// Decode reads a record body from src. The source is consumed; when the
// record carries a user payload the payload takes the rest of the source.
func Decode(src ByteSource) (*Record, error) {
	r, _, err := decodeRecord(src, false)
	return r, err
}

// DecodeMagic scans src for the magic header, discards everything up to and
// including it, then decodes the record that follows.
func DecodeMagic(src ByteSource) (*Record, error) {
	return Decode(NewMagicSource(src))
}

// DecodeBytes decodes a record body from an in-memory slice. Strings in the
// result borrow from b.
func DecodeBytes(b []byte) (*Record, error) {
	return Decode(NewSliceSource(b))
}

// DecodeBytesMagic is DecodeMagic over an in-memory slice.
func DecodeBytesMagic(b []byte) (*Record, error) {
	return DecodeMagic(NewSliceSource(b))
}

// DecodeDeferred decodes the fixed-schema prefix of a record and leaves the
// user payload in the source. When the payload is present the returned
// ByteSource is a continuation positioned at the first payload byte; draining
// it yields exactly the bytes a plain Decode would have stored in the
// payload. The caller may instead feed the continuation to any second
// decoder. When the payload is absent the continuation is nil.
//
// The source must implement Splitter; otherwise the decode fails with
// ErrNotResumable rather than returning a wrong continuation.
func DecodeDeferred(src ByteSource) (*Record, ByteSource, error) {
	return decodeRecord(src, true)
}

// DecodeMagicDeferred is DecodeDeferred with magic-header framing.
func DecodeMagicDeferred(src ByteSource) (*Record, ByteSource, error) {
	return decodeRecord(NewMagicSource(src), true)
}

func decodeRecord(src ByteSource, deferred bool) (*Record, ByteSource, error) {
	var r Record
	var err error

	// Schema version is always first; keep it first in any future revision.
	if r.SchemaVersion, err = readSemVer(src); err != nil {
		return nil, nil, fmt.Errorf("schema version: %w", err)
	}

	if r.App.Name, err = readOptStr(src); err != nil {
		return nil, nil, fmt.Errorf("app name: %w", err)
	}
	if r.App.Version, err = readOptSemVer(src); err != nil {
		return nil, nil, fmt.Errorf("app version: %w", err)
	}
	if r.App.Git, err = readOptStr(src); err != nil {
		return nil, nil, fmt.Errorf("app git: %w", err)
	}
	if r.App.BuildDate, err = readOptTime(src); err != nil {
		return nil, nil, fmt.Errorf("app build date: %w", err)
	}

	if r.Toolchain.Version, err = readOptSemVer(src); err != nil {
		return nil, nil, fmt.Errorf("toolchain version: %w", err)
	}
	if r.Toolchain.BackendVersion, err = readOptSemVer(src); err != nil {
		return nil, nil, fmt.Errorf("toolchain backend version: %w", err)
	}
	if r.Toolchain.Channel, err = readOptChannel(src); err != nil {
		return nil, nil, fmt.Errorf("toolchain channel: %w", err)
	}
	if r.Toolchain.Git, err = readOptStr(src); err != nil {
		return nil, nil, fmt.Errorf("toolchain git: %w", err)
	}
	if r.Toolchain.Host, err = readOptStr(src); err != nil {
		return nil, nil, fmt.Errorf("toolchain host: %w", err)
	}

	present, err := readPresence(src)
	if err != nil {
		return nil, nil, fmt.Errorf("user payload: %w", err)
	}
	if !present {
		return &r, nil, nil
	}
	r.User.Present = true

	if deferred {
		sp, ok := src.(Splitter)
		if !ok {
			return nil, nil, fmt.Errorf("%w: %T", ErrNotResumable, src)
		}
		cont, err := sp.Split()
		if err != nil {
			return nil, nil, fmt.Errorf("user payload continuation: %w", err)
		}
		r.User.Deferred = true
		return &r, cont, nil
	}

	if r.User.Data, err = src.Rest(); err != nil {
		return nil, nil, fmt.Errorf("user payload: %w", err)
	}
	return &r, nil, nil
}

// readPresence reads an optional-field discriminant: 0 absent, 1 present.
func readPresence(src ByteSource) (bool, error) {
	b, err := src.Pop()
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return false, fmt.Errorf("%w: presence flag %#02x", ErrInvalidDiscriminant, b)
}

// readStr reads a varint byte count followed by that many UTF-8 bytes. The
// result borrows from whatever span TakeN returns.
func readStr(src ByteSource) (InfoStr, error) {
	n, err := readUvarint(src)
	if err != nil {
		return InfoStr{}, err
	}
	if n > math.MaxInt32 {
		return InfoStr{}, fmt.Errorf("%w: string length %d", ErrMalformedValue, n)
	}
	span, err := src.TakeN(int(n))
	if err != nil {
		return InfoStr{}, err
	}
	if !utf8.Valid(span) {
		return InfoStr{}, fmt.Errorf("%w: string is not valid UTF-8", ErrMalformedValue)
	}
	return Borrowed(span), nil
}

func readOptStr(src ByteSource) (*InfoStr, error) {
	present, err := readPresence(src)
	if err != nil || !present {
		return nil, err
	}
	s, err := readStr(src)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func readSemVer(src ByteSource) (SemVer, error) {
	var v SemVer
	var err error
	if v.Major, err = readUvarint(src); err != nil {
		return v, err
	}
	if v.Minor, err = readUvarint(src); err != nil {
		return v, err
	}
	if v.Patch, err = readUvarint(src); err != nil {
		return v, err
	}
	if v.Pre, err = readOptStr(src); err != nil {
		return v, err
	}
	if v.Build, err = readOptStr(src); err != nil {
		return v, err
	}
	return v, nil
}

func readOptSemVer(src ByteSource) (*SemVer, error) {
	present, err := readPresence(src)
	if err != nil || !present {
		return nil, err
	}
	v, err := readSemVer(src)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// readOptTime reads an optional varint of unix seconds.
func readOptTime(src ByteSource) (*time.Time, error) {
	present, err := readPresence(src)
	if err != nil || !present {
		return nil, err
	}
	sec, err := readUvarint(src)
	if err != nil {
		return nil, err
	}
	if sec > math.MaxInt64 {
		return nil, fmt.Errorf("%w: timestamp %d", ErrMalformedValue, sec)
	}
	t := time.Unix(int64(sec), 0).UTC()
	return &t, nil
}

func readOptChannel(src ByteSource) (*Channel, error) {
	present, err := readPresence(src)
	if err != nil || !present {
		return nil, err
	}
	b, err := src.Pop()
	if err != nil {
		return nil, err
	}
	c := Channel(b)
	if c > ChannelStable {
		return nil, fmt.Errorf("%w: channel %#02x", ErrInvalidDiscriminant, b)
	}
	return &c, nil
}
