package codec

import (
	"bytes"
	"errors"
	"testing"
)

func TestDeferred_EquivalentToDirectDecode(t *testing.T) {
	record := fullRecord()
	payload := append([]byte(nil), record.User.Data...)

	encoded, err := Encode(record)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	direct, err := DecodeBytes(encoded)
	if err != nil {
		t.Fatalf("direct decode failed: %v", err)
	}

	deferred, cont, err := DecodeDeferred(NewSliceSource(encoded))
	if err != nil {
		t.Fatalf("deferred decode failed: %v", err)
	}

	// Fixed fields agree with the direct decode.
	if !deferred.SchemaVersion.Equal(direct.SchemaVersion) ||
		!deferred.App.Equal(direct.App) ||
		!deferred.Toolchain.Equal(direct.Toolchain) {
		t.Error("deferred fixed fields differ from direct decode")
	}

	if !deferred.User.Present || !deferred.User.Deferred || deferred.User.Data != nil {
		t.Errorf("payload not marked present-but-opaque: %+v", deferred.User)
	}

	// Draining the continuation yields exactly the bytes the direct decode
	// stored in the payload.
	got, err := cont.Rest()
	if err != nil {
		t.Fatalf("continuation Rest failed: %v", err)
	}
	if !bytes.Equal(got, payload) || !bytes.Equal(got, direct.User.Data) {
		t.Errorf("continuation = % x, want % x", got, payload)
	}
}

func TestDeferred_SecondDecoderOverContinuation(t *testing.T) {
	// The payload is itself an encoded record; feed the continuation into a
	// second decode call.
	inner := NewRecord()
	name := Owned("inner")
	inner.App.Name = &name
	innerBytes, err := Encode(inner)
	if err != nil {
		t.Fatalf("inner Encode failed: %v", err)
	}

	outer := NewRecord()
	outer.User = UserPayload{Present: true, Data: innerBytes}
	encoded, err := EncodeMagic(outer)
	if err != nil {
		t.Fatalf("outer EncodeMagic failed: %v", err)
	}

	_, cont, err := DecodeMagicDeferred(NewSliceSource(encoded))
	if err != nil {
		t.Fatalf("DecodeMagicDeferred failed: %v", err)
	}

	decodedInner, err := Decode(cont)
	if err != nil {
		t.Fatalf("inner decode failed: %v", err)
	}
	if !decodedInner.Equal(inner) {
		t.Error("inner record differs after layered decode")
	}
}

func TestDeferred_AbsentPayload(t *testing.T) {
	encoded, err := Encode(NewRecord())
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	r, cont, err := DecodeDeferred(NewSliceSource(encoded))
	if err != nil {
		t.Fatalf("DecodeDeferred failed: %v", err)
	}
	if r.User.Present || r.User.Deferred {
		t.Errorf("payload wrongly marked present: %+v", r.User)
	}
	if cont != nil {
		t.Error("expected nil continuation for absent payload")
	}
}

func TestDeferred_SplittableSources(t *testing.T) {
	record := fullRecord()
	encoded, err := Encode(record)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	fetch := func(addr uint64) (byte, error) { return encoded[addr], nil }

	sources := []struct {
		name string
		src  ByteSource
	}{
		{"slice", NewSliceSource(encoded)},
		{"fetch", NewFetchSource(0, uint64(len(encoded)), fetch, make([]byte, 256))},
		{"iter", NewIterSource(AddrRange(0, uint64(len(encoded))), fetch, make([]byte, 256))},
	}

	for _, tc := range sources {
		t.Run(tc.name, func(t *testing.T) {
			_, cont, err := DecodeDeferred(tc.src)
			if err != nil {
				t.Fatalf("DecodeDeferred failed: %v", err)
			}
			got, err := cont.Rest()
			if err != nil {
				t.Fatalf("continuation Rest failed: %v", err)
			}
			if !bytes.Equal(got, record.User.Data) {
				t.Errorf("continuation = %q, want %q", got, record.User.Data)
			}
		})
	}
}

func TestDeferred_FuncSourceNotResumable(t *testing.T) {
	record := fullRecord()
	encoded, err := Encode(record)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	src := NewFuncSource(sliceReadFn(encoded), make([]byte, 256))
	_, _, err = DecodeDeferred(src)
	if !errors.Is(err, ErrNotResumable) {
		t.Errorf("expected ErrNotResumable, got %v", err)
	}
}

func TestDeferred_MagicWrapperDelegatesSplit(t *testing.T) {
	record := fullRecord()
	encoded, err := EncodeMagic(record)
	if err != nil {
		t.Fatalf("EncodeMagic failed: %v", err)
	}

	// Splittable underlying source: continuation works through the wrapper.
	_, cont, err := DecodeMagicDeferred(NewSliceSource(encoded))
	if err != nil {
		t.Fatalf("DecodeMagicDeferred failed: %v", err)
	}
	got, err := cont.Rest()
	if err != nil {
		t.Fatalf("continuation Rest failed: %v", err)
	}
	if !bytes.Equal(got, record.User.Data) {
		t.Errorf("continuation = %q, want %q", got, record.User.Data)
	}

	// Non-splittable underlying source: the wrapper reports ErrNotResumable.
	fn := NewFuncSource(sliceReadFn(encoded), make([]byte, 256))
	_, _, err = DecodeMagicDeferred(fn)
	if !errors.Is(err, ErrNotResumable) {
		t.Errorf("expected ErrNotResumable, got %v", err)
	}
}
