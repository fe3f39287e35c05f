package providers

import (
	"strconv"
	"strings"
)

// ParsePrice turns a provider price field into a numeric amount. Accepts
// raw numbers and strings with currency symbols and thousands separators
// ("$1,250.00"). Anything unparseable is 0.
func ParsePrice(v any) float64 {
	switch p := v.(type) {
	case float64:
		return p
	case int:
		return float64(p)
	case string:
		var b strings.Builder
		for _, r := range p {
			if (r >= '0' && r <= '9') || r == '.' {
				b.WriteRune(r)
			}
		}
		f, err := strconv.ParseFloat(b.String(), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
