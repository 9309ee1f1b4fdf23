package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompare(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"5.0", "5.0.0", 0},
		{"5.0", "4.9.9", 1},
		{"2.4", "2.4.0", 0},
		{"2.3", "2.4", -1},
		{"6.5", "6.10", -1},
		{"5.0-beta", "5.0", 1},
		{"5.0-alpha", "5.0-beta", -1},
		{"5.x", "5.0", 0},
		{"", "0", 0},
		{"3rc", "3", 0},
	}

	for _, tc := range cases {
		t.Run(tc.a+"_vs_"+tc.b, func(t *testing.T) {
			got := Compare(tc.a, tc.b)
			switch {
			case tc.want < 0:
				assert.Negative(t, got)
			case tc.want > 0:
				assert.Positive(t, got)
			default:
				assert.Zero(t, got)
			}
		})
	}
}

func TestLeadingComponentDecidesOrder(t *testing.T) {
	pairs := [][2]string{
		{"5", "4.99.99"},
		{"6.0-rc1", "5.9"},
		{"10", "9.0-beta"},
		{"3.0.0", "2.4.1"},
	}
	for _, p := range pairs {
		assert.True(t, IsGT(p[0], p[1]), "%s > %s", p[0], p[1])
		assert.False(t, IsGT(p[1], p[0]), "%s > %s", p[1], p[0])
		assert.True(t, IsLT(p[1], p[0]))
	}
}

func TestCompareIsReflexive(t *testing.T) {
	for _, v := range []string{"", "1", "2.4.0", "5.0-beta", "6.5.0-rc.2", "garbage"} {
		assert.Zero(t, Compare(v, v), v)
		assert.True(t, IsEq(v, v))
		assert.True(t, IsGTE(v, v))
		assert.True(t, IsLTE(v, v))
	}
}

func TestCompareIsAntisymmetric(t *testing.T) {
	versions := []string{"2.3", "2.4", "2.4.1", "4", "5.0-alpha", "5.0", "5.0-beta", "6.0"}
	for _, a := range versions {
		for _, b := range versions {
			assert.Equal(t, sign(Compare(a, b)), -sign(Compare(b, a)), "%s vs %s", a, b)
		}
	}
}

func TestUpTo(t *testing.T) {
	assert.Equal(t, "2.4", UpTo("2.4.0", 1))
	assert.Equal(t, "2.4", UpTo("2.4", 1))
	assert.Equal(t, "5", UpTo("5.0.1", 0))
	assert.Equal(t, "3", UpTo("3", 2))
}

func TestIsValid(t *testing.T) {
	for _, v := range []string{"5", "5.0", "2.4.0", "6.0-beta"} {
		assert.True(t, IsValid(v), v)
	}
	for _, v := range []string{"", "x", "5.", "5..1", "3rc", "-beta"} {
		assert.False(t, IsValid(v), v)
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}
