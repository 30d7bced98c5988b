package codec

import (
	"fmt"
	"time"
)

// Encode serializes r into the record body format, with no magic header.
func Encode(r *Record) ([]byte, error) {
	return AppendEncode(nil, r)
}

// EncodeMagic serializes r with the 4-byte magic header prepended, the form
// meant for embedding into a larger image.
func EncodeMagic(r *Record) ([]byte, error) {
	return AppendEncode(append([]byte(nil), Magic[:]...), r)
}

// AppendEncode appends the encoded record body to dst and returns the
// extended slice. Fields are written in declared order; optional fields are a
// one-byte presence discriminant followed by the value when present.
func AppendEncode(dst []byte, r *Record) ([]byte, error) {
	dst = appendSemVer(dst, r.SchemaVersion)

	dst = appendOptStr(dst, r.App.Name)
	dst = appendOptSemVer(dst, r.App.Version)
	dst = appendOptStr(dst, r.App.Git)
	dst, err := appendOptTime(dst, r.App.BuildDate)
	if err != nil {
		return nil, fmt.Errorf("app build date: %w", err)
	}

	dst = appendOptSemVer(dst, r.Toolchain.Version)
	dst = appendOptSemVer(dst, r.Toolchain.BackendVersion)
	dst, err = appendOptChannel(dst, r.Toolchain.Channel)
	if err != nil {
		return nil, fmt.Errorf("toolchain channel: %w", err)
	}
	dst = appendOptStr(dst, r.Toolchain.Git)
	dst = appendOptStr(dst, r.Toolchain.Host)

	if !r.User.Present {
		return append(dst, 0), nil
	}
	if r.User.Deferred {
		return nil, fmt.Errorf("%w: deferred user payload cannot be re-encoded", ErrMalformedValue)
	}
	dst = append(dst, 1)
	return append(dst, r.User.Data...), nil
}

// Size returns the encoded body size of r in bytes, excluding the magic
// header.
func (r *Record) Size() int {
	n := semVerLen(r.SchemaVersion)
	n += optStrLen(r.App.Name) + optSemVerLen(r.App.Version) + optStrLen(r.App.Git)
	if r.App.BuildDate != nil {
		n += 1 + uvarintLen(uint64(r.App.BuildDate.Unix()))
	} else {
		n++
	}
	n += optSemVerLen(r.Toolchain.Version) + optSemVerLen(r.Toolchain.BackendVersion)
	if r.Toolchain.Channel != nil {
		n += 2
	} else {
		n++
	}
	n += optStrLen(r.Toolchain.Git) + optStrLen(r.Toolchain.Host)
	n++ // payload discriminant
	if r.User.Present {
		n += len(r.User.Data)
	}
	return n
}

func appendStr(dst []byte, s InfoStr) []byte {
	b := s.Bytes()
	dst = appendUvarint(dst, uint64(len(b)))
	return append(dst, b...)
}

func appendOptStr(dst []byte, s *InfoStr) []byte {
	if s == nil {
		return append(dst, 0)
	}
	return appendStr(append(dst, 1), *s)
}

func appendSemVer(dst []byte, v SemVer) []byte {
	dst = appendUvarint(dst, v.Major)
	dst = appendUvarint(dst, v.Minor)
	dst = appendUvarint(dst, v.Patch)
	dst = appendOptStr(dst, v.Pre)
	return appendOptStr(dst, v.Build)
}

func appendOptSemVer(dst []byte, v *SemVer) []byte {
	if v == nil {
		return append(dst, 0)
	}
	return appendSemVer(append(dst, 1), *v)
}

func appendOptTime(dst []byte, t *time.Time) ([]byte, error) {
	if t == nil {
		return append(dst, 0), nil
	}
	sec := t.Unix()
	if sec < 0 {
		return nil, fmt.Errorf("%w: timestamp before the unix epoch", ErrMalformedValue)
	}
	return appendUvarint(append(dst, 1), uint64(sec)), nil
}

func appendOptChannel(dst []byte, c *Channel) ([]byte, error) {
	if c == nil {
		return append(dst, 0), nil
	}
	if *c > ChannelStable {
		return nil, fmt.Errorf("%w: channel %d", ErrInvalidDiscriminant, uint8(*c))
	}
	return append(dst, 1, byte(*c)), nil
}

func strLen(s InfoStr) int {
	b := s.Bytes()
	return uvarintLen(uint64(len(b))) + len(b)
}

func optStrLen(s *InfoStr) int {
	if s == nil {
		return 1
	}
	return 1 + strLen(*s)
}

func semVerLen(v SemVer) int {
	return uvarintLen(v.Major) + uvarintLen(v.Minor) + uvarintLen(v.Patch) +
		optStrLen(v.Pre) + optStrLen(v.Build)
}

func optSemVerLen(v *SemVer) int {
	if v == nil {
		return 1
	}
	return 1 + semVerLen(*v)
}
