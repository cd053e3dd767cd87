package utils

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Range is an inclusive [min, max] interval of slots or epochs.
type Range struct {
	min uint64
	max uint64
}

func NewRange(min uint64, max uint64) (*Range, error) {
	if max < min {
		return nil, errors.Errorf("invalid range %d:%d, max lower than min", min, max)
	}
	return &Range{
		min: min,
		max: max,
	}, nil
}

// NewRangeFromString parses either "N" or "MIN:MAX".
func NewRangeFromString(strRange string) (*Range, error) {
	ranges := strings.Split(strings.TrimSpace(strRange), ":")
	if len(ranges) > 2 {
		return nil, errors.Errorf("unable to parse range, no MIN:MAX format - %s", strRange)
	}

	min, err := strconv.ParseUint(ranges[0], 10, 64)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to parse MIN value, non numerical - %s", ranges[0])
	}
	if len(ranges) == 1 {
		return NewRange(min, min)
	}
	max, err := strconv.ParseUint(ranges[1], 10, 64)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to parse MAX value, non numerical - %s", ranges[1])
	}
	return NewRange(min, max)
}

func (r *Range) Min() uint64 { return r.min }
func (r *Range) Max() uint64 { return r.max }

func (r *Range) Len() uint64 {
	return r.max - r.min + 1
}

// Each calls fn for every value in the range, stopping at the first error.
func (r *Range) Each(fn func(uint64) error) error {
	for i := r.min; ; i++ {
		if err := fn(i); err != nil {
			return err
		}
		if i == r.max {
			return nil
		}
	}
}
