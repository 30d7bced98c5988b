package codec

import (
	"fmt"
	"time"
)

// Schema version encoded as the leading field of every record. The schema
// version must stay first across all revisions so that a decoder meeting an
// unknown future schema can still read it and make a compatibility decision.
const (
	SchemaMajor = 0
	SchemaMinor = 3
	SchemaPatch = 0
)

// Channel identifies the release channel of the toolchain that produced a
// build.
type Channel uint8

const (
	ChannelDev Channel = iota
	ChannelNightly
	ChannelBeta
	ChannelStable
)

func (c Channel) String() string {
	switch c {
	case ChannelDev:
		return "dev"
	case ChannelNightly:
		return "nightly"
	case ChannelBeta:
		return "beta"
	case ChannelStable:
		return "stable"
	}
	return fmt.Sprintf("channel(%d)", uint8(c))
}

// InfoStr holds a decoded string that either borrows from the buffer it was
// decoded out of or owns an independent copy. Records decoded from a
// SliceSource borrow from the input slice; records decoded through a scratch
// buffer borrow from the scratch buffer; records built by hand own their
// strings. A single accessor yields the text either way.
type InfoStr struct {
	raw   []byte
	str   string
	owned bool
}

// Borrowed wraps a view into an existing buffer. The InfoStr is valid only as
// long as the buffer is.
func Borrowed(b []byte) InfoStr {
	return InfoStr{raw: b}
}

// Owned wraps an independent string.
func Owned(s string) InfoStr {
	return InfoStr{str: s, owned: true}
}

// String returns the text regardless of variant.
func (s InfoStr) String() string {
	if s.owned {
		return s.str
	}
	return string(s.raw)
}

// Bytes returns the text as bytes. For the borrowed variant this is the
// original view with no copy.
func (s InfoStr) Bytes() []byte {
	if s.owned {
		return []byte(s.str)
	}
	return s.raw
}

// IsOwned reports whether the InfoStr carries its own copy of the text.
func (s InfoStr) IsOwned() bool {
	return s.owned
}

// Equal compares text content, ignoring the owned/borrowed distinction.
func (s InfoStr) Equal(o InfoStr) bool {
	return s.String() == o.String()
}

func optStrEqual(a, b *InfoStr) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || a.Equal(*b)
}

// SemVer is a compact semantic version: three integers plus optional
// pre-release and build tags.
type SemVer struct {
	Major uint64
	Minor uint64
	Patch uint64
	Pre   *InfoStr
	Build *InfoStr
}

// SchemaVersion returns the record schema version this package encodes.
func SchemaVersion() SemVer {
	return SemVer{Major: SchemaMajor, Minor: SchemaMinor, Patch: SchemaPatch}
}

func (v SemVer) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Pre != nil {
		s += "-" + v.Pre.String()
	}
	if v.Build != nil {
		s += "+" + v.Build.String()
	}
	return s
}

// Equal compares versions by value.
func (v SemVer) Equal(o SemVer) bool {
	return v.Major == o.Major && v.Minor == o.Minor && v.Patch == o.Patch &&
		optStrEqual(v.Pre, o.Pre) && optStrEqual(v.Build, o.Build)
}

func optSemVerEqual(a, b *SemVer) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || a.Equal(*b)
}

// AppInfo describes the application a record was built into. Every field is
// optional; an absent field costs one byte on the wire.
type AppInfo struct {
	Name      *InfoStr
	Version   *SemVer
	Git       *InfoStr
	BuildDate *time.Time
}

// Equal compares by value. Build dates compare at second precision, which is
// all the wire format carries.
func (a AppInfo) Equal(o AppInfo) bool {
	if (a.BuildDate == nil) != (o.BuildDate == nil) {
		return false
	}
	if a.BuildDate != nil && a.BuildDate.Unix() != o.BuildDate.Unix() {
		return false
	}
	return optStrEqual(a.Name, o.Name) && optSemVerEqual(a.Version, o.Version) &&
		optStrEqual(a.Git, o.Git)
}

// ToolchainInfo describes the compiler that produced a build.
type ToolchainInfo struct {
	Version        *SemVer
	BackendVersion *SemVer
	Channel        *Channel
	Git            *InfoStr
	Host           *InfoStr
}

// Equal compares by value.
func (t ToolchainInfo) Equal(o ToolchainInfo) bool {
	if (t.Channel == nil) != (o.Channel == nil) {
		return false
	}
	if t.Channel != nil && *t.Channel != *o.Channel {
		return false
	}
	return optSemVerEqual(t.Version, o.Version) &&
		optSemVerEqual(t.BackendVersion, o.BackendVersion) &&
		optStrEqual(t.Git, o.Git) && optStrEqual(t.Host, o.Host)
}

// UserPayload is an opaque trailing byte region of caller-defined meaning.
// It is always the last field on the wire and carries no length prefix: when
// present it consumes the rest of the source. A deferred decode leaves the
// payload bytes in the source and marks the field Deferred.
type UserPayload struct {
	Present  bool
	Deferred bool
	Data     []byte
}

// Equal compares presence and bytes. Deferred payloads compare equal only to
// other deferred payloads.
func (p UserPayload) Equal(o UserPayload) bool {
	if p.Present != o.Present || p.Deferred != o.Deferred {
		return false
	}
	return string(p.Data) == string(o.Data)
}

// Record is the top-level decoded build-metadata value. Field order is fixed
// and schema-defined; the wire format carries no field names or type tags, so
// decode order must exactly match encode order.
type Record struct {
	SchemaVersion SemVer
	App           AppInfo
	Toolchain     ToolchainInfo
	User          UserPayload
}

// NewRecord returns a record carrying the current schema version and no other
// fields.
func NewRecord() *Record {
	return &Record{SchemaVersion: SchemaVersion()}
}

// Equal compares records by value, ignoring whether strings are owned or
// borrowed.
func (r *Record) Equal(o *Record) bool {
	if r == nil || o == nil {
		return r == o
	}
	return r.SchemaVersion.Equal(o.SchemaVersion) && r.App.Equal(o.App) &&
		r.Toolchain.Equal(o.Toolchain) && r.User.Equal(o.User)
}
