package buildinfo

import (
	"fmt"
	"os"

	"github.com/ssargent/infomem/pkg/codec"
)

// WriteOptions controls how an encoded record is written out.
type WriteOptions struct {
	// Header prepends the 4-byte magic sentinel so the blob can be found at
	// an arbitrary offset inside a larger image.
	Header bool
}

// DefaultWriteOptions enables the magic header.
func DefaultWriteOptions() WriteOptions {
	return WriteOptions{Header: true}
}

// WriteFile encodes r and writes the blob to path. The blob is what a linker
// script or objcopy step embeds into the final image.
func WriteFile(r *codec.Record, path string, opts WriteOptions) error {
	var (
		buf []byte
		err error
	)
	if opts.Header {
		buf, err = codec.EncodeMagic(r)
	} else {
		buf, err = codec.Encode(r)
	}
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}

	if err := os.WriteFile(path, buf, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
