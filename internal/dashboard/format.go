package dashboard

import "github.com/shopspring/decimal"

var (
	million  = decimal.NewFromInt(1_000_000)
	thousand = decimal.NewFromInt(1_000)
)

// FormatCompact renders values above one million in millions with one decimal
// (none when exact) and everything else as whole thousands.
func FormatCompact(v decimal.Decimal) string {
	if v.GreaterThan(million) {
		if v.Mod(million).IsZero() {
			return v.Div(million).Floor().String() + " M"
		}
		return v.Div(million).StringFixed(1) + " M"
	}
	return v.Div(thousand).Floor().String() + " K"
}

func compactKPI(v decimal.Decimal, unit string) KPI {
	return KPI{Value: v, Display: FormatCompact(v) + " " + unit}
}
