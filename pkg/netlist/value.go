package netlist

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/DrCloy/web-spice-sub001/pkg/simerr"
)

// SPICE scale factors are case-insensitive, so "M" is milli and "meg" mega.
var unitMap = map[string]float64{
	"t":   1e12,  // tera
	"g":   1e9,   // giga
	"meg": 1e6,   // mega
	"k":   1e3,   // kilo
	"m":   1e-3,  // milli
	"u":   1e-6,  // micro
	"n":   1e-9,  // nano
	"p":   1e-12, // pico
	"f":   1e-15, // femto
}

var valueRe = regexp.MustCompile(`(?i)^([-+]?(?:\d+\.?\d*|\.\d+)(?:e[-+]?\d+)?)(meg|[tgkmunpf])?([a-z]*)$`)

// ParseValue parses a number with an optional scale factor and unit, e.g.
// "1k" -> 1000, "10meg" -> 1e7, "5mA" -> 0.005, "2.2e-6F" -> 2.2e-6. Trailing
// letters after the scale factor are ignored as a unit.
func ParseValue(val string) (float64, error) {
	s := strings.TrimSpace(val)
	matches := valueRe.FindStringSubmatch(s)
	if matches == nil {
		return 0, simerr.New(simerr.ParseError, "invalid value format: %q", val)
	}

	num, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, simerr.Wrap(simerr.ParseError, err, "invalid number %q", matches[1])
	}

	// factor
	if matches[2] != "" {
		num *= unitMap[strings.ToLower(matches[2])]
	}
	return num, nil
}
