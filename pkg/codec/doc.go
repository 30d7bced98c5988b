// Package codec implements the infomem build-metadata record format: a
// compact, non-self-describing binary encoding of version and toolchain
// information embedded into a binary or firmware image at build time and read
// back at run time.
//
// # Record Format
//
// A record is encoded field by field in fixed schema order with no field
// names or type tags, so decode order must exactly match encode order:
//
//	[SchemaVersion][AppInfo][ToolchainInfo][UserPayload]
//
// Field encodings:
//   - Integers: unsigned LEB128 varints (fewer bytes for smaller magnitudes)
//   - Strings: varint byte count followed by UTF-8 bytes
//   - Optional fields: one discriminant byte (0 absent, 1 present) followed
//     by the value when present
//   - Semantic versions: major/minor/patch varints plus optional pre-release
//     and build tag strings
//   - Timestamps: varint unix seconds
//   - User payload: presence flag followed by raw bytes with no length
//     prefix; the payload is always last and consumes the rest of the source
//
// An encoded record may be preceded by the 4-byte magic header "PIM\x80",
// letting a decoder locate the record at an arbitrary offset inside a larger
// image. See MagicSource.
//
// # Byte Sources
//
// Decoding reads bytes one at a time through the ByteSource interface and
// never assumes the record is available as one contiguous slice. Four
// implementations cover the supported memory topologies:
//
//   - SliceSource: record already in addressable memory; zero-copy
//   - FetchSource: one fallible fetch call per byte over an address range,
//     for serial EEPROMs and disjoint address spaces
//   - IterSource: a lazy, re-rangeable address sequence
//   - FuncSource: a bare next-byte function, for one-shot streams
//
// Sources that assemble spans byte by byte copy into a caller-supplied
// scratch buffer; a decode that would overflow the buffer fails with
// ErrBufferTooSmall instead of allocating.
//
// # Deferred Payload Decoding
//
// DecodeDeferred decodes the fixed-schema prefix and hands back a
// continuation over the undecoded user payload, so a second, caller-chosen
// decoder can be applied to it later. Sources that cannot split themselves
// report ErrNotResumable.
//
// # Errors
//
// All failures wrap one of the sentinel errors in errors.go; a malformed or
// truncated record is never partially accepted.
//
// # Thread Safety
//
// Decoding assumes exclusive ownership of its byte source for the duration of
// the call. Records are plain values and safe to share once decoded.
package codec
