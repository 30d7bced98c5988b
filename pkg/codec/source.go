package codec

import (
	"errors"
	"fmt"
	"io"
	"iter"
)

// ByteSource is the sequential read surface the decoder works against. The
// record format has no length prefix on its trailing payload, so the surface
// needs all three shapes: one byte, a counted span, and everything left.
type ByteSource interface {
	// Pop reads the next byte.
	Pop() (byte, error)
	// TakeN reads the next n bytes as one span. The span stays valid for the
	// life of the source.
	TakeN(n int) ([]byte, error)
	// Rest reads all remaining bytes.
	Rest() ([]byte, error)
}

// Splitter is implemented by sources that can hand off a continuation
// positioned exactly where reading stopped. Deferred payload decoding
// requires it.
type Splitter interface {
	Split() (ByteSource, error)
}

// Fetch reads one byte from an absolute address. It is the access primitive
// for memory that cannot be sliced: serial EEPROM, banked flash, peripheral
// windows.
type Fetch func(addr uint64) (byte, error)

// SliceSource reads from an in-memory slice. TakeN and Rest are zero-copy
// views into the backing slice.
type SliceSource struct {
	data []byte
	off  int
}

// NewSliceSource wraps data. The source borrows the slice; decoded strings
// alias it.
func NewSliceSource(data []byte) *SliceSource {
	return &SliceSource{data: data}
}

// Len reports the number of unread bytes.
func (s *SliceSource) Len() int {
	return len(s.data) - s.off
}

func (s *SliceSource) Pop() (byte, error) {
	if s.off >= len(s.data) {
		return 0, ErrSourceExhausted
	}
	b := s.data[s.off]
	s.off++
	return b, nil
}

func (s *SliceSource) TakeN(n int) ([]byte, error) {
	if n > s.Len() {
		return nil, fmt.Errorf("%w: want %d bytes, have %d", ErrSourceExhausted, n, s.Len())
	}
	span := s.data[s.off : s.off+n]
	s.off += n
	return span, nil
}

func (s *SliceSource) Rest() ([]byte, error) {
	span := s.data[s.off:]
	s.off = len(s.data)
	return span, nil
}

// Split returns a continuation over the unread remainder.
func (s *SliceSource) Split() (ByteSource, error) {
	return NewSliceSource(s.data[s.off:]), nil
}

// FetchSource reads an address range [start, end) one byte at a time through
// a fetch function. Spans are assembled in a caller-supplied scratch buffer;
// each TakeN consumes its bytes from the buffer permanently, so earlier spans
// stay valid for the life of the source.
type FetchSource struct {
	next    uint64
	end     uint64
	fetch   Fetch
	scratch []byte
}

// NewFetchSource reads [start, end) via fetch. scratch must be large enough
// for the sum of all span requests; decoded strings alias it.
func NewFetchSource(start, end uint64, fetch Fetch, scratch []byte) *FetchSource {
	return &FetchSource{next: start, end: end, fetch: fetch, scratch: scratch}
}

func (s *FetchSource) Pop() (byte, error) {
	if s.next >= s.end {
		return 0, ErrSourceExhausted
	}
	b, err := s.fetch(s.next)
	if err != nil {
		return 0, err
	}
	s.next++
	return b, nil
}

func (s *FetchSource) TakeN(n int) ([]byte, error) {
	if uint64(n) > s.end-s.next {
		return nil, fmt.Errorf("%w: want %d bytes, have %d", ErrSourceExhausted, n, s.end-s.next)
	}
	if n > len(s.scratch) {
		return nil, fmt.Errorf("%w: want %d bytes, %d scratch left", ErrBufferTooSmall, n, len(s.scratch))
	}
	for i := 0; i < n; i++ {
		b, err := s.fetch(s.next)
		if err != nil {
			return nil, err
		}
		s.scratch[i] = b
		s.next++
	}
	span := s.scratch[:n]
	s.scratch = s.scratch[n:]
	return span, nil
}

func (s *FetchSource) Rest() ([]byte, error) {
	return s.TakeN(int(s.end - s.next))
}

// Split returns a continuation starting at the current address. It shares the
// remaining scratch, so spans taken before the split stay valid.
func (s *FetchSource) Split() (ByteSource, error) {
	return NewFetchSource(s.next, s.end, s.fetch, s.scratch), nil
}

// AddrRange returns the address sequence [start, end).
func AddrRange(start, end uint64) iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		for a := start; a < end; a++ {
			if !yield(a) {
				return
			}
		}
	}
}

// IterSource reads the addresses produced by a restartable sequence through a
// fetch function. Because the sequence can be restarted, the source can split:
// the continuation re-walks the sequence and skips the bytes already consumed.
// Scratch semantics match FetchSource.
type IterSource struct {
	addrs    iter.Seq[uint64]
	fetch    Fetch
	scratch  []byte
	consumed int
	next     func() (uint64, bool)
	stop     func()
}

// NewIterSource reads the addresses of addrs via fetch. addrs must yield the
// same sequence every time it is ranged over.
func NewIterSource(addrs iter.Seq[uint64], fetch Fetch, scratch []byte) *IterSource {
	return &IterSource{addrs: addrs, fetch: fetch, scratch: scratch}
}

func (s *IterSource) Pop() (byte, error) {
	if s.next == nil {
		s.next, s.stop = iter.Pull(s.addrs)
	}
	addr, ok := s.next()
	if !ok {
		return 0, ErrSourceExhausted
	}
	b, err := s.fetch(addr)
	if err != nil {
		return 0, err
	}
	s.consumed++
	return b, nil
}

func (s *IterSource) TakeN(n int) ([]byte, error) {
	if n > len(s.scratch) {
		return nil, fmt.Errorf("%w: want %d bytes, %d scratch left", ErrBufferTooSmall, n, len(s.scratch))
	}
	for i := 0; i < n; i++ {
		b, err := s.Pop()
		if err != nil {
			return nil, err
		}
		s.scratch[i] = b
	}
	span := s.scratch[:n]
	s.scratch = s.scratch[n:]
	return span, nil
}

func (s *IterSource) Rest() ([]byte, error) {
	return drainInto(s, &s.scratch)
}

// Split returns a continuation positioned after the bytes consumed so far,
// counted absolutely from the start of the sequence rather than derived from
// decoded content.
func (s *IterSource) Split() (ByteSource, error) {
	if s.stop != nil {
		s.stop()
		s.next, s.stop = nil, nil
	}
	return NewIterSource(skipAddrs(s.addrs, s.consumed), s.fetch, s.scratch), nil
}

// skipAddrs drops the first n elements of addrs.
func skipAddrs(addrs iter.Seq[uint64], n int) iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		i := 0
		for a := range addrs {
			if i < n {
				i++
				continue
			}
			if !yield(a) {
				return
			}
		}
	}
}

// FuncSource reads from a one-shot function with no address state, the shape
// of a serial stream. It supports the whole decode surface but cannot split:
// there is no way to reposition a stream that exists only as a read call.
type FuncSource struct {
	read    func() (byte, error)
	scratch []byte
}

// NewFuncSource wraps read. io.EOF from read is reported as ErrSourceExhausted;
// any other error passes through.
func NewFuncSource(read func() (byte, error), scratch []byte) *FuncSource {
	return &FuncSource{read: read, scratch: scratch}
}

func (s *FuncSource) Pop() (byte, error) {
	b, err := s.read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, ErrSourceExhausted
		}
		return 0, err
	}
	return b, nil
}

func (s *FuncSource) TakeN(n int) ([]byte, error) {
	if n > len(s.scratch) {
		return nil, fmt.Errorf("%w: want %d bytes, %d scratch left", ErrBufferTooSmall, n, len(s.scratch))
	}
	for i := 0; i < n; i++ {
		b, err := s.Pop()
		if err != nil {
			return nil, err
		}
		s.scratch[i] = b
	}
	span := s.scratch[:n]
	s.scratch = s.scratch[n:]
	return span, nil
}

func (s *FuncSource) Rest() ([]byte, error) {
	return drainInto(s, &s.scratch)
}

// drainInto pops src until exhaustion, storing into *scratch and consuming
// the bytes used. Shared by sources whose remaining length is unknown.
func drainInto(src ByteSource, scratch *[]byte) ([]byte, error) {
	buf := *scratch
	n := 0
	for {
		b, err := src.Pop()
		if errors.Is(err, ErrSourceExhausted) {
			break
		}
		if err != nil {
			return nil, err
		}
		if n >= len(buf) {
			return nil, fmt.Errorf("%w: rest of source exceeds %d scratch bytes", ErrBufferTooSmall, len(buf))
		}
		buf[n] = b
		n++
	}
	span := buf[:n]
	*scratch = buf[n:]
	return span, nil
}
