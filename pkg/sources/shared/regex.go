package shared

import (
	"regexp"
	"strconv"
)

// ParseFirstFloat returns the first capture group of re in s as a float,
// or 0 when there is no match or the group does not parse.
func ParseFirstFloat(re *regexp.Regexp, s string) float64 {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return 0
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return v
}
