package codec

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseSemVer parses "major.minor.patch[-pre][+build]" into a SemVer with
// owned tag strings. Errors wrap ErrMalformedValue.
func ParseSemVer(s string) (SemVer, error) {
	var v SemVer

	rest := s
	if i := strings.IndexByte(rest, '+'); i >= 0 {
		if i == len(rest)-1 {
			return v, fmt.Errorf("%w: empty build tag in %q", ErrMalformedValue, s)
		}
		b := Owned(rest[i+1:])
		v.Build = &b
		rest = rest[:i]
	}
	if i := strings.IndexByte(rest, '-'); i >= 0 {
		if i == len(rest)-1 {
			return v, fmt.Errorf("%w: empty pre-release tag in %q", ErrMalformedValue, s)
		}
		p := Owned(rest[i+1:])
		v.Pre = &p
		rest = rest[:i]
	}

	parts := strings.Split(rest, ".")
	if len(parts) != 3 {
		return v, fmt.Errorf("%w: version %q does not have three components", ErrMalformedValue, s)
	}
	nums := make([]uint64, 3)
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return v, fmt.Errorf("%w: version component %q in %q", ErrMalformedValue, p, s)
		}
		nums[i] = n
	}
	v.Major, v.Minor, v.Patch = nums[0], nums[1], nums[2]
	return v, nil
}
