package codec

import "fmt"

// Magic is the 4-byte sentinel that marks a record embedded at an arbitrary
// offset inside a larger image.
var Magic = [4]byte{'P', 'I', 'M', 0x80}

// scanState counts how many sentinel bytes matched so far. The numeric value
// doubles as the index of the next sentinel byte to expect.
type scanState uint8

const (
	noMatch scanState = iota
	saw1
	saw2
	saw3
	matched
)

// MagicSource wraps a source and discards everything up to and including the
// first occurrence of the sentinel. The scan is lazy: it runs on the first
// read, not at construction, so building the wrapper never touches the
// underlying medium.
type MagicSource struct {
	src   ByteSource
	state scanState
}

// NewMagicSource wraps src. Reads fail with ErrSourceExhausted if the
// sentinel never appears.
func NewMagicSource(src ByteSource) *MagicSource {
	return &MagicSource{src: src}
}

// scan advances until the sentinel completes. A mismatching byte that equals
// the sentinel's first byte restarts the match at one, not zero; the sentinel
// contains no longer self-overlap, so one state covers every restart.
func (m *MagicSource) scan() error {
	for m.state != matched {
		b, err := m.src.Pop()
		if err != nil {
			return err
		}
		switch {
		case b == Magic[m.state]:
			m.state++
		case b == Magic[0]:
			m.state = saw1
		default:
			m.state = noMatch
		}
	}
	return nil
}

func (m *MagicSource) Pop() (byte, error) {
	if err := m.scan(); err != nil {
		return 0, err
	}
	return m.src.Pop()
}

func (m *MagicSource) TakeN(n int) ([]byte, error) {
	if err := m.scan(); err != nil {
		return nil, err
	}
	return m.src.TakeN(n)
}

func (m *MagicSource) Rest() ([]byte, error) {
	if err := m.scan(); err != nil {
		return nil, err
	}
	return m.src.Rest()
}

// Split delegates to the wrapped source. Wrapping never adds resumability:
// if the underlying source cannot split, neither can this one.
func (m *MagicSource) Split() (ByteSource, error) {
	if err := m.scan(); err != nil {
		return nil, err
	}
	sp, ok := m.src.(Splitter)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrNotResumable, m.src)
	}
	return sp.Split()
}
