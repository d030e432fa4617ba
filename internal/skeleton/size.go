package skeleton

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseSize converts strings like "16MiB", "64kb" or "1024" into a
// byte count. Decimal units (KB, MB, GB) are powers of 1000, binary
// units (KiB, MiB, GiB) powers of 1024, and a bare number is bytes.
// Fractions are not supported: parsing stops at the first '.' or ','.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty size string")
	}

	var num, unit strings.Builder
	for _, ch := range s {
		if ch >= '0' && ch <= '9' {
			num.WriteRune(ch)
			continue
		}
		if ch == '.' || ch == ',' {
			break
		}
		unit.WriteRune(ch)
	}
	if num.Len() == 0 {
		return 0, fmt.Errorf("invalid size: %q", s)
	}
	n, err := strconv.ParseInt(num.String(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size: %q", s)
	}

	switch strings.ToLower(strings.TrimSpace(unit.String())) {
	case "", "b":
		return n, nil
	case "kb":
		return n * 1000, nil
	case "mb":
		return n * 1000 * 1000, nil
	case "gb":
		return n * 1000 * 1000 * 1000, nil
	case "kib", "ki":
		return n * 1024, nil
	case "mib", "mi":
		return n * 1024 * 1024, nil
	case "gib", "gi":
		return n * 1024 * 1024 * 1024, nil
	}
	return 0, fmt.Errorf("unknown size unit in %q", s)
}
