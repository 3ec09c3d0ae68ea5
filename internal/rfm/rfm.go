package rfm

import (
	"sort"
	"time"

	"github.com/angelmondragon/olist-insights/internal/facts"
	"github.com/angelmondragon/olist-insights/internal/timeseries"
	"github.com/angelmondragon/olist-insights/pkg/enums"
	pkgerrors "github.com/angelmondragon/olist-insights/pkg/errors"
	"github.com/shopspring/decimal"
)

// Cluster is the priority label assigned to an order.
type Cluster string

const (
	ClusterFirst  Cluster = "1st Priority"
	ClusterSecond Cluster = "2nd Priority"
	ClusterThird  Cluster = "3rd Priority"
)

// Clusters lists every label in priority order.
var Clusters = []Cluster{ClusterFirst, ClusterSecond, ClusterThird}

// Record is the scored RFM row for one order.
type Record struct {
	OrderID     string          `json:"order_id"`
	RecencyDays int             `json:"recency_days"`
	Frequency   int             `json:"frequency"`
	Monetary    decimal.Decimal `json:"monetary"`
	ScoreRec    int             `json:"score_rec"`
	ScoreFreq   int             `json:"score_freq"`
	ScoreMonet  int             `json:"score_monet"`
	Cluster     Cluster         `json:"cluster"`
}

// Result is the clustered output for one window.
type Result struct {
	Window      enums.RFMWindow `json:"window"`
	Reference   time.Time       `json:"reference"`
	WindowStart time.Time       `json:"window_start"`
	Records     []Record        `json:"records"`

	recencies   []int
	frequencies map[string]int
	monetary    map[string]decimal.Decimal
}

const day = 24 * time.Hour

var (
	tier5 = decimal.RequireFromString("1.75")
	tier4 = decimal.RequireFromString("1.25")
	tier3 = decimal.NewFromInt(1)
	tier2 = decimal.RequireFromString("0.5")
	three = decimal.NewFromInt(3)
	month = decimal.NewFromInt(30)
)

// Engine scores orders over a trailing window.
type Engine struct {
	// FixMonetaryTier2 compares the order's monetary value against the tier-2
	// threshold instead of testing the threshold itself for non-zero.
	FixMonetaryTier2 bool
}

// Compute scores every order that has item activity in the window and a
// customer fact purchased in the same window. An empty window yields an empty
// result, never an error.
func (e Engine) Compute(window enums.RFMWindow, daily []timeseries.DailyTransaction, customers []facts.CustomerRow) (Result, error) {
	if !window.IsValid() {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "rfm window must be 30, 60, or 90 days").
			WithDetails(map[string]any{"window": window.Days()})
	}
	res := Result{
		Window:      window,
		Records:     []Record{},
		frequencies: map[string]int{},
		monetary:    map[string]decimal.Decimal{},
	}
	if len(daily) == 0 {
		return res, nil
	}

	reference := daily[0].Day
	for _, d := range daily {
		if d.Day.After(reference) {
			reference = d.Day
		}
	}
	start := reference.AddDate(0, 0, -window.Days())
	res.Reference, res.WindowStart = reference, start
	inWindow := func(ts time.Time) bool {
		return !ts.Before(start) && ts.Before(reference.Add(day))
	}

	latest := make(map[string]time.Time)
	var order []string
	for _, d := range daily {
		if !inWindow(d.Day) {
			continue
		}
		if _, seen := res.frequencies[d.OrderID]; !seen {
			order = append(order, d.OrderID)
		}
		res.frequencies[d.OrderID]++
		res.recencies = append(res.recencies, int(reference.Sub(d.Day)/day))
		if d.Day.After(latest[d.OrderID]) {
			latest[d.OrderID] = d.Day
		}
	}
	for _, c := range customers {
		if c.PurchasedAt.IsZero() || !inWindow(c.PurchasedAt) {
			continue
		}
		res.monetary[c.OrderID] = res.monetary[c.OrderID].Add(c.Payment.Sum)
	}

	for _, id := range order {
		m, ok := res.monetary[id]
		if !ok {
			continue
		}
		res.Records = append(res.Records, Record{
			OrderID:     id,
			RecencyDays: int(reference.Sub(latest[id]) / day),
			Frequency:   res.frequencies[id],
			Monetary:    m,
		})
	}
	if len(res.Records) == 0 {
		return res, nil
	}

	maxMonetary := res.Records[0].Monetary
	for _, r := range res.Records[1:] {
		if r.Monetary.GreaterThan(maxMonetary) {
			maxMonetary = r.Monetary
		}
	}
	scale := decimal.NewFromInt(int64(window.Days())).Div(month)
	m := maxMonetary.Div(three)
	for i := range res.Records {
		r := &res.Records[i]
		r.ScoreFreq = scoreFrequency(r.Frequency)
		r.ScoreRec = scoreRecency(r.RecencyDays, window.Days())
		r.ScoreMonet = e.scoreMonetary(r.Monetary, m, scale)
		r.Cluster = assignCluster(r.ScoreFreq, r.ScoreRec, r.ScoreMonet)
	}
	sort.SliceStable(res.Records, func(i, j int) bool {
		if res.Records[i].Cluster != res.Records[j].Cluster {
			return res.Records[i].Cluster < res.Records[j].Cluster
		}
		return res.Records[i].OrderID < res.Records[j].OrderID
	})
	return res, nil
}

func scoreFrequency(count int) int {
	switch {
	case count >= 3:
		return 3
	case count >= 2:
		return 2
	default:
		return 1
	}
}

// scoreRecency compares recency against 26 and 20 days per 30-day period,
// kept in integers: days >= 26*window/30  <=>  30*days >= 26*window.
func scoreRecency(days, windowDays int) int {
	switch {
	case 30*days >= 26*windowDays:
		return 1
	case 30*days >= 20*windowDays:
		return 2
	default:
		return 3
	}
}

func (e Engine) scoreMonetary(x, m, scale decimal.Decimal) int {
	if !m.IsPositive() {
		return 1
	}
	base := m.Mul(scale)
	switch {
	case x.GreaterThanOrEqual(tier5.Mul(base)):
		return 5
	case x.GreaterThanOrEqual(tier4.Mul(base)):
		return 4
	case x.GreaterThanOrEqual(tier3.Mul(base)):
		return 3
	}
	threshold := tier2.Mul(base)
	if e.FixMonetaryTier2 {
		if x.GreaterThanOrEqual(threshold) {
			return 2
		}
		return 1
	}
	// The threshold itself is tested, not the order's value.
	if !threshold.IsZero() {
		return 2
	}
	return 1
}

func assignCluster(scoreFreq, scoreRec, scoreMonet int) Cluster {
	high := 0
	if scoreFreq >= 2 {
		high++
	}
	if scoreRec >= 2 {
		high++
	}
	if scoreMonet > 2 {
		high++
	}
	switch {
	case high >= 2:
		return ClusterFirst
	case high == 1:
		return ClusterSecond
	default:
		return ClusterThird
	}
}
