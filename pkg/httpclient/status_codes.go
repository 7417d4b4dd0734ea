package httpclient

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// StatusCodeRange represents a range of HTTP status codes (inclusive).
type StatusCodeRange struct {
	Min int
	Max int
}

// Contains returns true if the code falls within this range.
func (r StatusCodeRange) Contains(code int) bool {
	return code >= r.Min && code <= r.Max
}

// StatusCodeSet is a set of HTTP status codes built from single codes and ranges.
//
// Example formats:
//   - "200" - single code
//   - "200,404" - multiple codes
//   - "200-299" - range (inclusive)
//   - "200-299,404,500-599" - mixed ranges and codes
type StatusCodeSet struct {
	codes  map[int]struct{}
	ranges []StatusCodeRange
}

// ParseStatusCodes parses a string like "200-299,404" into a StatusCodeSet.
// Returns nil if the input is empty.
func ParseStatusCodes(s string) (*StatusCodeSet, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	set := &StatusCodeSet{codes: make(map[int]struct{})}

	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		lo, hi, isRange := strings.Cut(part, "-")
		if !isRange {
			code, err := parseCode(lo)
			if err != nil {
				return nil, err
			}
			set.codes[code] = struct{}{}
			continue
		}

		minCode, err := parseCode(lo)
		if err != nil {
			return nil, fmt.Errorf("invalid range %q: %w", part, err)
		}
		maxCode, err := parseCode(hi)
		if err != nil {
			return nil, fmt.Errorf("invalid range %q: %w", part, err)
		}
		if minCode > maxCode {
			return nil, fmt.Errorf("invalid range %d-%d: min > max", minCode, maxCode)
		}
		set.ranges = append(set.ranges, StatusCodeRange{Min: minCode, Max: maxCode})
	}

	if set.IsEmpty() {
		return nil, nil
	}
	return set, nil
}

func parseCode(s string) (int, error) {
	code, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid status code %q: %w", s, err)
	}
	if code < 100 || code > 599 {
		return 0, fmt.Errorf("invalid HTTP status code %d: must be 100-599", code)
	}
	return code, nil
}

// MustParseStatusCodes is like ParseStatusCodes but panics on error.
// Use only for compile-time constants.
func MustParseStatusCodes(s string) *StatusCodeSet {
	set, err := ParseStatusCodes(s)
	if err != nil {
		panic(err)
	}
	return set
}

// Contains returns true if the status code is in the set.
func (s *StatusCodeSet) Contains(code int) bool {
	if s == nil {
		return false
	}
	if _, ok := s.codes[code]; ok {
		return true
	}
	for _, r := range s.ranges {
		if r.Contains(code) {
			return true
		}
	}
	return false
}

// IsEmpty returns true if the set has no codes or ranges.
func (s *StatusCodeSet) IsEmpty() bool {
	return s == nil || (len(s.codes) == 0 && len(s.ranges) == 0)
}

// String returns the set in parseable form, ranges first then sorted codes.
func (s *StatusCodeSet) String() string {
	if s.IsEmpty() {
		return ""
	}

	parts := make([]string, 0, len(s.ranges)+len(s.codes))
	for _, r := range s.ranges {
		if r.Min == r.Max {
			parts = append(parts, strconv.Itoa(r.Min))
		} else {
			parts = append(parts, fmt.Sprintf("%d-%d", r.Min, r.Max))
		}
	}

	codes := make([]int, 0, len(s.codes))
	for code := range s.codes {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	for _, code := range codes {
		parts = append(parts, strconv.Itoa(code))
	}

	return strings.Join(parts, ",")
}
