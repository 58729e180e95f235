package logparse

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseFloat parses a float the way the log writer formats them,
// accepting a comma as the decimal separator.
func ParseFloat(s string) (float64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	return strconv.ParseFloat(s, 64)
}

// ParseBytes normalizes "<value> <unit>" byte sizes to bytes. Units are
// the log's binary-prefixed suffixes (KB/MB/GB/TB, or bare K/M/G/T).
// An empty unit means the value is already in bytes.
func ParseBytes(value, unit string) (int64, error) {
	v, err := ParseFloat(value)
	if err != nil {
		return 0, fmt.Errorf("byte size value %q: %w", value, err)
	}

	var multiplier float64
	switch strings.TrimSpace(unit) {
	case "":
		multiplier = 1
	case "KB", "K":
		multiplier = 1 << 10
	case "MB", "M":
		multiplier = 1 << 20
	case "GB", "G":
		multiplier = 1 << 30
	case "TB", "T":
		multiplier = 1 << 40
	default:
		return 0, fmt.Errorf("unknown byte size unit %q", unit)
	}

	return int64(v * multiplier), nil
}

// ParseSizeWithUnit splits and normalizes a combined token such as
// "4.5GB" or "224.7 MB".
func ParseSizeWithUnit(s string) (int64, error) {
	s = strings.TrimSpace(s)
	cut := len(s)
	for cut > 0 {
		c := s[cut-1]
		if c >= '0' && c <= '9' || c == '.' || c == ',' {
			break
		}
		cut--
	}
	return ParseBytes(s[:cut], strings.TrimSpace(s[cut:]))
}
