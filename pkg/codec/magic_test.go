package codec

import (
	"bytes"
	"errors"
	"testing"
)

func TestMagic_Value(t *testing.T) {
	want := []byte{0x50, 0x49, 0x4d, 0x80}
	if !bytes.Equal(Magic[:], want) {
		t.Fatalf("magic is % x, want % x", Magic[:], want)
	}
}

func TestMagic_EncodeHeader(t *testing.T) {
	encoded, err := EncodeMagic(NewRecord())
	if err != nil {
		t.Fatalf("EncodeMagic failed: %v", err)
	}
	if !bytes.Equal(encoded[:4], Magic[:]) {
		t.Errorf("encoded record does not start with magic: % x", encoded[:4])
	}

	body, err := Encode(NewRecord())
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !bytes.Equal(encoded[4:], body) {
		t.Error("body after magic differs from headerless encoding")
	}
}

func TestMagic_DecodeWithPrefixJunk(t *testing.T) {
	record := fullRecord()
	encoded, err := EncodeMagic(record)
	if err != nil {
		t.Fatalf("EncodeMagic failed: %v", err)
	}

	prefixes := []struct {
		name string
		junk []byte
	}{
		{"no junk", nil},
		{"a few bytes", []byte{0x00, 0x01, 0x02, 0x03, 0x04}},
		{"many bytes", bytes.Repeat([]byte{0xA5, 0x00, 0xFF}, 300)},
		{"partial header then real one", []byte{'P', 'I'}},
		{"magic first byte repeated", []byte{'P', 'P', 'P'}},
	}

	for _, tc := range prefixes {
		t.Run(tc.name, func(t *testing.T) {
			data := append(append([]byte(nil), tc.junk...), encoded...)
			eachSource(t, data, func(t *testing.T, src ByteSource) {
				decoded, err := DecodeMagic(src)
				if err != nil {
					t.Fatalf("DecodeMagic failed: %v", err)
				}
				if !decoded.Equal(record) {
					t.Error("decoded record differs from original")
				}
			})
		})
	}
}

func TestMagic_SentinelSelfOverlap(t *testing.T) {
	// "PIPIM\x80": the matcher must not discard the second P when the I
	// that follows it breaks the first partial match.
	record := NewRecord()
	body, err := Encode(record)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	data := append([]byte{0x50, 0x49, 0x50, 0x49, 0x4d, 0x80}, body...)
	decoded, err := DecodeBytesMagic(data)
	if err != nil {
		t.Fatalf("DecodeMagic failed on self-overlapping prefix: %v", err)
	}
	if !decoded.Equal(record) {
		t.Error("decoded record differs from original")
	}
}

func TestMagic_SentinelNeverAppears(t *testing.T) {
	data := bytes.Repeat([]byte{'P', 'I', 'M'}, 100) // never the 0x80
	_, err := DecodeBytesMagic(data)
	if !errors.Is(err, ErrSourceExhausted) {
		t.Errorf("expected ErrSourceExhausted, got %v", err)
	}

	_, err = DecodeBytesMagic(nil)
	if !errors.Is(err, ErrSourceExhausted) {
		t.Errorf("expected ErrSourceExhausted on empty source, got %v", err)
	}
}

func TestMagic_HeaderThenTruncatedRecord(t *testing.T) {
	// Valid header, one byte of an incomplete record.
	data := []byte{0x50, 0x49, 0x4d, 0x80, 0x00}
	_, err := DecodeBytesMagic(data)
	if err == nil {
		t.Fatal("expected decode to fail")
	}
	if !errors.Is(err, ErrSourceExhausted) && !errors.Is(err, ErrMalformedValue) {
		t.Errorf("expected exhaustion or malformed value, got %v", err)
	}
}

func TestMagic_CorruptHeaderByte(t *testing.T) {
	// 0x00 in place of 0x80 means the header never completes; the scanner
	// keeps searching through the record bytes and runs out.
	record := NewRecord()
	encoded, err := EncodeMagic(record)
	if err != nil {
		t.Fatalf("EncodeMagic failed: %v", err)
	}
	encoded[3] = 0x00

	_, err = DecodeBytesMagic(encoded)
	if !errors.Is(err, ErrSourceExhausted) {
		t.Errorf("expected ErrSourceExhausted, got %v", err)
	}
}

func TestMagic_LazyScan(t *testing.T) {
	// Constructing the wrapper must not touch the source; the scan happens
	// on first access.
	reads := 0
	fetch := func(addr uint64) (byte, error) {
		reads++
		data := append(Magic[:], 0x00)
		return data[addr], nil
	}
	src := NewMagicSource(NewFetchSource(0, 5, fetch, make([]byte, 8)))
	if reads != 0 {
		t.Fatalf("construction performed %d reads", reads)
	}

	b, err := src.Pop()
	if err != nil {
		t.Fatalf("Pop failed: %v", err)
	}
	if b != 0x00 {
		t.Errorf("first byte after header = %#02x, want 0", b)
	}
	if reads != 5 {
		t.Errorf("scan+pop performed %d reads, want 5", reads)
	}
}

func TestMagic_ScanCostPaidOnce(t *testing.T) {
	record := fullRecord()
	encoded, err := EncodeMagic(record)
	if err != nil {
		t.Fatalf("EncodeMagic failed: %v", err)
	}

	src := NewMagicSource(NewSliceSource(encoded))
	if _, err := src.Pop(); err != nil {
		t.Fatalf("Pop failed: %v", err)
	}
	if src.state != matched {
		t.Fatalf("state = %d after first pop, want matched", src.state)
	}

	// Remaining reads pass straight through.
	rest, err := src.Rest()
	if err != nil {
		t.Fatalf("Rest failed: %v", err)
	}
	if len(rest) != len(encoded)-5 {
		t.Errorf("rest has %d bytes, want %d", len(rest), len(encoded)-5)
	}
}
