package dashboard

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatCompact(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "0", want: "0 K"},
		{in: "999", want: "0 K"},
		{in: "345678.9", want: "345 K"},
		{in: "1000000", want: "1000 K"},
		{in: "2000000", want: "2 M"},
		{in: "1234567.89", want: "1.2 M"},
		{in: "15980000", want: "16.0 M"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatCompact(decimal.RequireFromString(tc.in)))
		})
	}
}

func TestCompactKPIAppendsUnit(t *testing.T) {
	kpi := compactKPI(decimal.NewFromInt(12_500), "Users")
	assert.Equal(t, "12 K Users", kpi.Display)
	assert.True(t, kpi.Value.Equal(decimal.NewFromInt(12_500)))
}
