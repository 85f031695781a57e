package model

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/altsen/autoscorer-sub000/pkg/apierrors"
)

var memorySuffixPattern = regexp.MustCompile(`(?i)^(\d+(?:\.\d+)?)([gm])i?$`)

// ParseMemoryBytes parses a size string like "4Gi", "4096Mi", "4g" or "4G"
// into a byte count. Suffixes are case-insensitive; "Gi"/"Mi" (binary) and
// "g"/"m" (decimal, treated as binary here to match common container-runtime
// convention) both parse. Anything else, including a bare number or a unit
// like "GB", is rejected with CodeInvalidValue, spec.md §8 requires
// "4GB" to fail even though "4G" succeeds.
func ParseMemoryBytes(s string) (int64, *apierrors.Error) {
	m := memorySuffixPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, apierrors.Newf(apierrors.CodeInvalidValue, "memory %q does not match the accepted size grammar", s)
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, apierrors.Newf(apierrors.CodeInvalidValue, "memory %q has an unparseable numeric part: %v", s, err)
	}
	var multiplier int64
	switch strings.ToLower(m[2]) {
	case "g":
		multiplier = 1 << 30
	case "m":
		multiplier = 1 << 20
	default:
		return 0, apierrors.Newf(apierrors.CodeInvalidValue, "memory %q has an unrecognized unit", s)
	}
	return int64(value * float64(multiplier)), nil
}

// FormatBytes renders a byte count back to a human string for log lines and
// CLI output, grounded on the dustin/go-humanize dependency used across the
// pack (gravitational-gravity, ppiankov-chainwatch) for size formatting.
func FormatBytes(n int64) string {
	return humanize.IBytes(uint64(n))
}
