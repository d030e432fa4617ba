package hub

import (
	"strconv"
	"strings"
)

// ByteRange is an inclusive byte interval within a resource.
type ByteRange struct {
	Start int64
	End   int64
}

// Length returns the number of bytes covered by the range.
func (r ByteRange) Length() int64 {
	return r.End - r.Start + 1
}

// RangeResult classifies a Range header against a resource size.
type RangeResult int

const (
	// RangeMalformed means the header could not be understood. Per the
	// lenient policy it is treated exactly like an absent header: the
	// caller serves the full body with status 200.
	RangeMalformed RangeResult = iota
	// RangeUnsatisfiable means the header was understood but no byte of
	// the resource satisfies it; the caller answers 416.
	RangeUnsatisfiable
	// RangeValid carries a clamped inclusive interval for a 206.
	RangeValid
)

// ParseRange evaluates an HTTP Range header value against a total
// resource size. Only the bytes unit and the first comma-separated spec
// are honored; suffix (-N), open-ended (N-) and explicit (N-M) forms
// are supported.
func ParseRange(header string, total int64) (ByteRange, RangeResult) {
	unit, spec, ok := strings.Cut(strings.TrimSpace(header), "=")
	if !ok {
		return ByteRange{}, RangeMalformed
	}
	if !strings.EqualFold(unit, "bytes") {
		return ByteRange{}, RangeMalformed
	}

	// Only the first range-spec; later ones are silently ignored.
	first, _, _ := strings.Cut(spec, ",")
	first = strings.TrimSpace(first)

	startStr, endStr, ok := strings.Cut(first, "-")
	if !ok {
		return ByteRange{}, RangeMalformed
	}

	var start, end int64
	if startStr == "" {
		// Suffix form: bytes=-N means the final N bytes.
		n, err := strconv.ParseInt(endStr, 10, 64)
		if err != nil || n <= 0 {
			return ByteRange{}, RangeMalformed
		}
		start = total - n
		if start < 0 {
			start = 0
		}
		end = total - 1
		if total == 0 {
			end = 0
		}
	} else {
		var err error
		start, err = strconv.ParseInt(startStr, 10, 64)
		if err != nil {
			return ByteRange{}, RangeMalformed
		}
		if endStr == "" {
			end = total - 1
		} else {
			end, err = strconv.ParseInt(endStr, 10, 64)
			if err != nil {
				return ByteRange{}, RangeMalformed
			}
		}
	}

	if start < 0 {
		return ByteRange{}, RangeMalformed
	}
	if start >= total {
		return ByteRange{}, RangeUnsatisfiable
	}
	if end >= total {
		end = total - 1
	}
	if end < start {
		return ByteRange{}, RangeUnsatisfiable
	}
	return ByteRange{Start: start, End: end}, RangeValid
}
