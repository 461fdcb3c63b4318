package normalize

import (
	"strconv"
	"strings"
)

// ParseSizeNumeric extracts a comparable numeric size from a provider size
// string: every character that is not a digit or decimal point is stripped,
// the remainder parsed as a float. "UK 9" and "US 9" both reduce to 9 —
// deliberately lossy, callers track the size system separately.
func ParseSizeNumeric(sizeKey string) *float64 {
	var b strings.Builder
	for _, r := range sizeKey {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return nil
	}
	f, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return nil
	}
	return &f
}

type sizeRange struct {
	min float64
	max float64
}

// US sneaker size ranges per gender. Cross-gender contamination (a "men's 2"
// or "women's 19") is the usual symptom of a provider mixing size systems.
var sneakerSizeRanges = map[string]sizeRange{
	"men":     {3.5, 18},
	"women":   {4, 16},
	"youth":   {3.5, 7.5},
	"toddler": {0.5, 13.5},
	"unisex":  {0.5, 18},
}

// SizeInRange reports whether a parsed size is plausible for the given
// category and gender. Unknown category or unparsed size fails open: when
// context is missing we keep the data rather than drop it. Rejections are
// counted by the builders so data-quality issues stay visible.
func SizeInRange(sizeNumeric *float64, category, gender string) bool {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" || sizeNumeric == nil {
		return true
	}
	switch category {
	case "sneakers", "shoes":
		r, ok := sneakerSizeRanges[strings.ToLower(strings.TrimSpace(gender))]
		if !ok {
			r = sneakerSizeRanges["unisex"]
		}
		return *sizeNumeric >= r.min && *sizeNumeric <= r.max
	default:
		return true
	}
}
