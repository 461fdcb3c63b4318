package normalize

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseMajorUnits converts a major-unit amount ("145.00", 145.0) into integer
// minor units. Used for StockX and eBay, whose APIs report dollars. Rounding
// of the cents value is half-away-from-zero (decimal.Round). A nil, empty or
// non-numeric input yields nil, never zero: nil means "no market data for
// this field".
func ParseMajorUnits(raw any) *int64 {
	d, ok := toDecimal(raw)
	if !ok {
		return nil
	}
	v := d.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	return &v
}

// ParseMinorUnits parses an amount that is already integer minor units,
// typically encoded as a string ("14500" meaning $145.00). Used for Alias,
// whose API reports cents. No scaling is applied: feeding an Alias value
// through ParseMajorUnits (or vice versa) corrupts every downstream number
// by a factor of 100.
func ParseMinorUnits(raw any) *int64 {
	d, ok := toDecimal(raw)
	if !ok {
		return nil
	}
	v := d.Round(0).IntPart()
	return &v
}

func toDecimal(raw any) (decimal.Decimal, bool) {
	switch v := raw.(type) {
	case nil:
		return decimal.Decimal{}, false
	case string:
		return decimalFromString(v)
	case json.Number:
		return decimalFromString(v.String())
	case float64:
		return decimal.NewFromFloat(v), true
	case float32:
		return decimal.NewFromFloat32(v), true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int64:
		return decimal.NewFromInt(v), true
	default:
		return decimal.Decimal{}, false
	}
}

func decimalFromString(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}
