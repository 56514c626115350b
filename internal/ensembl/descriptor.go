package ensembl

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedDescriptor is returned for variant strings that are not "chr:pos:ref:alt".
var ErrMalformedDescriptor = errors.New("malformed variant descriptor")

// Descriptor is a parsed variant descriptor.
type Descriptor struct {
	Chrom string // without "chr" prefix
	Pos   int64
	Ref   string
	Alt   string
}

// ParseVariantDescriptor parses "chr17:41245466:G:A" or "17:41245466:G:A".
func ParseVariantDescriptor(s string) (Descriptor, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(strings.TrimPrefix(s, "chr"), ":")
	if len(parts) != 4 {
		return Descriptor{}, fmt.Errorf("%w %q: want chr:position:ref:alt, got %d fields",
			ErrMalformedDescriptor, s, len(parts))
	}
	for i, p := range parts {
		if p == "" {
			return Descriptor{}, fmt.Errorf("%w %q: field %d is empty", ErrMalformedDescriptor, s, i+1)
		}
	}

	pos, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || pos < 1 {
		return Descriptor{}, fmt.Errorf("%w %q: position %q is not a positive integer",
			ErrMalformedDescriptor, s, parts[1])
	}

	return Descriptor{Chrom: parts[0], Pos: pos, Ref: parts[2], Alt: parts[3]}, nil
}

// Region returns the "chrom:pos:pos" region string for a single position.
func (d Descriptor) Region() string {
	p := strconv.FormatInt(d.Pos, 10)
	return d.Chrom + ":" + p + ":" + p
}

// Allele returns the "ref/alt" allele string.
func (d Descriptor) Allele() string {
	return d.Ref + "/" + d.Alt
}

func (d Descriptor) String() string {
	return d.Chrom + ":" + strconv.FormatInt(d.Pos, 10) + ":" + d.Ref + ":" + d.Alt
}
