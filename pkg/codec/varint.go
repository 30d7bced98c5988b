package codec

import "fmt"

// maxVarintLen is the longest encoding of a uint64: ten 7-bit groups.
const maxVarintLen = 10

// appendUvarint appends v in unsigned LEB128 form: 7 bits per byte, least
// significant group first, high bit set on every byte but the last.
func appendUvarint(dst []byte, v uint64) []byte {
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}
	return append(dst, byte(v))
}

// uvarintLen reports the encoded size of v in bytes.
func uvarintLen(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}

// readUvarint reads one varint from src. The tenth byte may only carry the
// 64th bit; anything larger cannot fit a uint64.
func readUvarint(src ByteSource) (uint64, error) {
	var x uint64
	var shift uint
	for i := 0; i < maxVarintLen; i++ {
		b, err := src.Pop()
		if err != nil {
			return 0, err
		}
		if i == maxVarintLen-1 && b > 1 {
			return 0, fmt.Errorf("%w: varint overflows 64 bits", ErrMalformedValue)
		}
		x |= uint64(b&0x7f) << shift
		if b < 0x80 {
			return x, nil
		}
		shift += 7
	}
	return 0, fmt.Errorf("%w: varint longer than %d bytes", ErrMalformedValue, maxVarintLen)
}
