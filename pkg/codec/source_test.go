package codec

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
)

func TestSliceSource_ZeroCopy(t *testing.T) {
	data := []byte("0123456789")
	src := NewSliceSource(data)

	b, err := src.Pop()
	if err != nil || b != '0' {
		t.Fatalf("Pop = %c, %v", b, err)
	}

	span, err := src.TakeN(4)
	if err != nil {
		t.Fatalf("TakeN failed: %v", err)
	}
	if &span[0] != &data[1] {
		t.Error("TakeN span does not alias the backing slice")
	}

	rest, err := src.Rest()
	if err != nil {
		t.Fatalf("Rest failed: %v", err)
	}
	if string(rest) != "56789" {
		t.Errorf("Rest = %q", rest)
	}
	if src.Len() != 0 {
		t.Errorf("Len = %d after Rest", src.Len())
	}

	if _, err := src.Pop(); !errors.Is(err, ErrSourceExhausted) {
		t.Errorf("Pop on empty source: %v", err)
	}
}

func TestSliceSource_TakeNPastEnd(t *testing.T) {
	src := NewSliceSource([]byte{1, 2, 3})
	if _, err := src.TakeN(4); !errors.Is(err, ErrSourceExhausted) {
		t.Errorf("expected ErrSourceExhausted, got %v", err)
	}
}

func TestFetchSource_PerByteFetch(t *testing.T) {
	data := []byte("abcdef")
	fetches := 0
	fetch := func(addr uint64) (byte, error) {
		fetches++
		return data[addr], nil
	}

	src := NewFetchSource(0, uint64(len(data)), fetch, make([]byte, 16))
	span, err := src.TakeN(6)
	if err != nil {
		t.Fatalf("TakeN failed: %v", err)
	}
	if string(span) != "abcdef" {
		t.Errorf("TakeN = %q", span)
	}
	if fetches != 6 {
		t.Errorf("fetched %d times, want one fetch per byte", fetches)
	}
}

func TestFetchSource_ScratchConsumedBySplitting(t *testing.T) {
	data := []byte("aabbccdd")
	fetch := func(addr uint64) (byte, error) { return data[addr], nil }
	src := NewFetchSource(0, uint64(len(data)), fetch, make([]byte, 6))

	first, err := src.TakeN(2)
	if err != nil {
		t.Fatalf("first TakeN failed: %v", err)
	}
	second, err := src.TakeN(2)
	if err != nil {
		t.Fatalf("second TakeN failed: %v", err)
	}

	// Earlier spans must stay valid after later requests.
	if string(first) != "aa" || string(second) != "bb" {
		t.Errorf("spans corrupted: %q %q", first, second)
	}

	// 2 bytes of scratch remain; a 3-byte request cannot fit.
	if _, err := src.TakeN(3); !errors.Is(err, ErrBufferTooSmall) {
		t.Errorf("expected ErrBufferTooSmall, got %v", err)
	}
}

func TestFetchSource_FetchErrorPropagates(t *testing.T) {
	bad := errors.New("bus fault")
	fetch := func(addr uint64) (byte, error) {
		if addr == 2 {
			return 0, bad
		}
		return 0x11, nil
	}

	src := NewFetchSource(0, 8, fetch, make([]byte, 8))
	for i := 0; i < 2; i++ {
		if _, err := src.Pop(); err != nil {
			t.Fatalf("Pop %d failed: %v", i, err)
		}
	}
	if _, err := src.Pop(); !errors.Is(err, bad) {
		t.Errorf("expected fetch error to propagate, got %v", err)
	}
}

func TestDecode_BufferTooSmall(t *testing.T) {
	// A 9-byte payload cannot be assembled in a 5-byte scratch buffer; the
	// decode must fail rather than truncate.
	r := NewRecord()
	r.User = UserPayload{Present: true, Data: []byte("123456789")}

	encoded, err := Encode(r)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	fetch := func(addr uint64) (byte, error) { return encoded[addr], nil }

	src := NewFetchSource(0, uint64(len(encoded)), fetch, make([]byte, 5))
	if _, err := Decode(src); !errors.Is(err, ErrBufferTooSmall) {
		t.Errorf("fetch source: expected ErrBufferTooSmall, got %v", err)
	}

	iter := NewIterSource(AddrRange(0, uint64(len(encoded))), fetch, make([]byte, 5))
	if _, err := Decode(iter); !errors.Is(err, ErrBufferTooSmall) {
		t.Errorf("iter source: expected ErrBufferTooSmall, got %v", err)
	}
}

func TestSourceEquivalence(t *testing.T) {
	// The same bytes must decode identically through every source.
	record := fullRecord()
	encoded, err := EncodeMagic(record)
	if err != nil {
		t.Fatalf("EncodeMagic failed: %v", err)
	}

	fromSlice, err := DecodeBytesMagic(encoded)
	if err != nil {
		t.Fatalf("slice decode failed: %v", err)
	}

	eachSource(t, encoded, func(t *testing.T, src ByteSource) {
		decoded, err := DecodeMagic(src)
		if err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if !decoded.Equal(fromSlice) {
			t.Error("decode differs from slice-backed decode")
		}
	})
}

func TestIterSource_Restartable(t *testing.T) {
	data := []byte{10, 20, 30, 40}
	fetch := func(addr uint64) (byte, error) { return data[addr], nil }
	addrs := AddrRange(0, uint64(len(data)))

	// Two sources derived from the same sequence read independently.
	a := NewIterSource(addrs, fetch, make([]byte, 8))
	b := NewIterSource(addrs, fetch, make([]byte, 8))

	for i := 0; i < len(data); i++ {
		va, err := a.Pop()
		if err != nil {
			t.Fatalf("a.Pop: %v", err)
		}
		vb, err := b.Pop()
		if err != nil {
			t.Fatalf("b.Pop: %v", err)
		}
		if va != vb || va != data[i] {
			t.Errorf("byte %d: a=%d b=%d want %d", i, va, vb, data[i])
		}
	}
}

func TestIterSource_SplitTracksAbsoluteOffset(t *testing.T) {
	data := []byte("0123456789")
	fetch := func(addr uint64) (byte, error) { return data[addr], nil }
	src := NewIterSource(AddrRange(0, uint64(len(data))), fetch, make([]byte, 16))

	// Consume an awkward mix of pops and spans.
	if _, err := src.Pop(); err != nil {
		t.Fatal(err)
	}
	if _, err := src.TakeN(3); err != nil {
		t.Fatal(err)
	}
	if _, err := src.Pop(); err != nil {
		t.Fatal(err)
	}

	cont, err := src.Split()
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	rest, err := cont.Rest()
	if err != nil {
		t.Fatalf("Rest failed: %v", err)
	}
	if string(rest) != "56789" {
		t.Errorf("continuation = %q, want %q", rest, "56789")
	}
}

func TestFuncSource_Drain(t *testing.T) {
	data := []byte("stream")
	src := NewFuncSource(sliceReadFn(data), make([]byte, 16))

	span, err := src.TakeN(2)
	if err != nil || string(span) != "st" {
		t.Fatalf("TakeN = %q, %v", span, err)
	}
	rest, err := src.Rest()
	if err != nil || string(rest) != "ream" {
		t.Fatalf("Rest = %q, %v", rest, err)
	}
}

func TestFuncSource_RestOverflowsScratch(t *testing.T) {
	data := bytes.Repeat([]byte{0x42}, 10)
	src := NewFuncSource(sliceReadFn(data), make([]byte, 4))
	if _, err := src.Rest(); !errors.Is(err, ErrBufferTooSmall) {
		t.Errorf("expected ErrBufferTooSmall, got %v", err)
	}
}

func TestFuncSource_ReadErrorPropagates(t *testing.T) {
	bad := fmt.Errorf("uart framing error")
	src := NewFuncSource(func() (byte, error) { return 0, bad }, make([]byte, 4))
	if _, err := src.Pop(); !errors.Is(err, bad) {
		t.Errorf("expected read error, got %v", err)
	}
}
