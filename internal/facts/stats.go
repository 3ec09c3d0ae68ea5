package facts

import "github.com/shopspring/decimal"

// Stats summarizes one numeric column of a group.
type Stats struct {
	Sum   decimal.Decimal `json:"sum"`
	Mean  decimal.Decimal `json:"mean"`
	Max   decimal.Decimal `json:"max"`
	Min   decimal.Decimal `json:"min"`
	Count int             `json:"count"`
}

type statsAcc struct {
	sum      decimal.Decimal
	max, min decimal.Decimal
	n        int
}

func (a *statsAcc) add(v decimal.Decimal) {
	if a.n == 0 {
		a.max, a.min = v, v
	} else {
		if v.GreaterThan(a.max) {
			a.max = v
		}
		if v.LessThan(a.min) {
			a.min = v
		}
	}
	a.sum = a.sum.Add(v)
	a.n++
}

func (a *statsAcc) stats() Stats {
	if a.n == 0 {
		return Stats{}
	}
	return Stats{
		Sum:   a.sum,
		Mean:  a.sum.Div(decimal.NewFromInt(int64(a.n))),
		Max:   a.max,
		Min:   a.min,
		Count: a.n,
	}
}
