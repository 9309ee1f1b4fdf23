// Package version compares platform version strings such as "5.5", "2.4.0"
// or "6.0-beta".
package version

import "strings"

// Compare returns a negative number when a < b, zero when they are equal and
// a positive number when a > b.
//
// Everything before the first '-' is the numeric part, compared component by
// component with missing or malformed components treated as zero. Ties are
// broken by the pre-release tag, where an absent tag sorts first.
func Compare(a, b string) int {
	numericA, preA := split(a)
	numericB, preB := split(b)

	partsA := strings.Split(numericA, ".")
	partsB := strings.Split(numericB, ".")

	n := max(len(partsA), len(partsB))
	for i := 0; i < n; i++ {
		x := component(partsA, i)
		y := component(partsB, i)
		if x != y {
			if x < y {
				return -1
			}
			return 1
		}
	}

	return strings.Compare(preA, preB)
}

func IsGT(a, b string) bool  { return Compare(a, b) > 0 }
func IsGTE(a, b string) bool { return Compare(a, b) >= 0 }
func IsLT(a, b string) bool  { return Compare(a, b) < 0 }
func IsLTE(a, b string) bool { return Compare(a, b) <= 0 }
func IsEq(a, b string) bool  { return Compare(a, b) == 0 }

// UpTo keeps the first part+1 dot-separated components of v.
// UpTo("2.4.1", 1) == "2.4".
func UpTo(v string, part int) string {
	parts := strings.Split(v, ".")
	if part+1 < len(parts) {
		parts = parts[:part+1]
	}
	return strings.Join(parts, ".")
}

func split(v string) (string, string) {
	numeric, pre, _ := strings.Cut(strings.TrimSpace(v), "-")
	return numeric, pre
}

// component parses leading digits only, so "3rc" reads as 3 and "x" as 0.
func component(parts []string, i int) int {
	if i >= len(parts) {
		return 0
	}
	n := 0
	for _, r := range parts[i] {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
	}
	return n
}

// IsValid reports whether every numeric component of v is a plain
// non-negative integer. Compare accepts more than this; IsValid is for
// input that should be rejected early, such as configuration.
func IsValid(v string) bool {
	numeric, _ := split(v)
	if numeric == "" {
		return false
	}
	for _, part := range strings.Split(numeric, ".") {
		if part == "" {
			return false
		}
		for _, r := range part {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}
