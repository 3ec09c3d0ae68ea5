package timeseries

import (
	"sort"
	"strings"
	"time"

	"github.com/angelmondragon/olist-insights/internal/dataset"
	"github.com/angelmondragon/olist-insights/internal/facts"
	"github.com/angelmondragon/olist-insights/pkg/config"
	pkgerrors "github.com/angelmondragon/olist-insights/pkg/errors"
	"github.com/shopspring/decimal"
)

// Point is one calendar bucket of a summed measure.
type Point struct {
	Period string          `json:"period"`
	Value  decimal.Decimal `json:"value"`
}

// CountPoint is one calendar bucket of a row count.
type CountPoint struct {
	Period string `json:"period"`
	Count  int    `json:"count"`
}

// DailyTransaction is one countable order-item row bucketed by shipping-limit day.
type DailyTransaction struct {
	Day      time.Time       `json:"day"`
	OrderID  string          `json:"order_id"`
	ItemSeq  int             `json:"item_seq"`
	SellerID string          `json:"seller_id"`
	Price    decimal.Decimal `json:"price"`
}

// Locality restricts a trend to one state or one city.
type Locality struct {
	State string
	City  string
}

func (l Locality) validate() error {
	state, city := strings.TrimSpace(l.State), strings.TrimSpace(l.City)
	if (state == "") == (city == "") {
		return pkgerrors.New(pkgerrors.CodeValidation, "exactly one of state or city is required")
	}
	return nil
}

func (l Locality) matches(state, city string) bool {
	if l.State != "" {
		return strings.EqualFold(strings.TrimSpace(l.State), state)
	}
	return strings.EqualFold(strings.TrimSpace(l.City), city)
}

type set map[string]struct{}

func newSet(values []string) set {
	s := make(set, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			s[v] = struct{}{}
		}
	}
	return s
}

func (s set) has(v string) bool {
	_, ok := s[v]
	return ok
}

// Aggregator buckets fact rows by month or day, dropping configured artifact buckets.
type Aggregator struct {
	excludedMonths   set
	excludedTxMonths set
	excludedTxDays   set
}

func NewAggregator(cfg config.PipelineConfig) *Aggregator {
	return &Aggregator{
		excludedMonths:   newSet(cfg.ExcludedMonths),
		excludedTxMonths: newSet(cfg.ExcludedTransactionMonths),
		excludedTxDays:   newSet(cfg.ExcludedTransactionDays),
	}
}

func monthKey(ts time.Time) string {
	return ts.Format(config.MonthLayout)
}

type bucketer struct {
	sums map[string]decimal.Decimal
}

func newBucketer() *bucketer {
	return &bucketer{sums: make(map[string]decimal.Decimal)}
}

func (b *bucketer) add(period string, v decimal.Decimal) {
	b.sums[period] = b.sums[period].Add(v)
}

func (b *bucketer) points(excluded set) []Point {
	out := make([]Point, 0, len(b.sums))
	for period, v := range b.sums {
		if excluded.has(period) {
			continue
		}
		out = append(out, Point{Period: period, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out
}

// MonthlyRevenue sums payment totals of merged customer rows by purchase month.
func (a *Aggregator) MonthlyRevenue(rows []facts.CustomerRow) []Point {
	b := newBucketer()
	for _, r := range rows {
		if r.PurchasedAt.IsZero() {
			continue
		}
		b.add(monthKey(r.PurchasedAt), r.Payment.Sum)
	}
	return b.points(a.excludedMonths)
}

// DailyTransactions lists seller-countable item rows ordered by shipping-limit day.
func (a *Aggregator) DailyTransactions(items []dataset.OrderItem, sellerCountable facts.OrderSet) []DailyTransaction {
	out := make([]DailyTransaction, 0, len(items))
	for _, it := range items {
		if !sellerCountable.Contains(it.OrderID) || it.ShippingLimit.IsZero() {
			continue
		}
		day := it.ShippingLimit.Truncate(24 * time.Hour)
		if a.excludedTxDays.has(day.Format(time.DateOnly)) {
			continue
		}
		out = append(out, DailyTransaction{
			Day:      day,
			OrderID:  it.OrderID,
			ItemSeq:  it.ItemSeq,
			SellerID: it.SellerID,
			Price:    it.Price,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out
}

// MonthlyTransactions counts daily transaction rows per month.
func (a *Aggregator) MonthlyTransactions(daily []DailyTransaction) []CountPoint {
	counts := make(map[string]int)
	for _, d := range daily {
		counts[monthKey(d.Day)]++
	}
	out := make([]CountPoint, 0, len(counts))
	for period, n := range counts {
		if a.excludedTxMonths.has(period) {
			continue
		}
		out = append(out, CountPoint{Period: period, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out
}

// DailyCounts counts daily transaction rows per day, ascending.
func (a *Aggregator) DailyCounts(daily []DailyTransaction) []CountPoint {
	out := make([]CountPoint, 0)
	for _, d := range daily {
		period := d.Day.Format(time.DateOnly)
		if n := len(out); n > 0 && out[n-1].Period == period {
			out[n-1].Count++
			continue
		}
		out = append(out, CountPoint{Period: period, Count: 1})
	}
	return out
}

// SellerMonthly sums item prices of seller-countable orders for sellers in loc,
// bucketed by the order purchase month. Items whose seller or order is missing
// are kept by the left joins but skipped when no purchase time is known.
func (a *Aggregator) SellerMonthly(loc Locality, items []dataset.OrderItem, sellers []dataset.Seller, orders []dataset.Order, sellerCountable facts.OrderSet) ([]Point, error) {
	if err := loc.validate(); err != nil {
		return nil, err
	}
	sellerDim := make(map[string]dataset.Seller, len(sellers))
	for _, s := range sellers {
		if _, ok := sellerDim[s.ID]; !ok {
			sellerDim[s.ID] = s
		}
	}
	purchased := purchaseTimes(orders)

	b := newBucketer()
	for _, it := range items {
		if !sellerCountable.Contains(it.OrderID) {
			continue
		}
		s := sellerDim[it.SellerID]
		if !loc.matches(s.State, s.City) {
			continue
		}
		at, ok := purchased[it.OrderID]
		if !ok {
			continue
		}
		b.add(monthKey(at), it.Price)
	}
	return b.points(a.excludedMonths), nil
}

// CustomerMonthly sums payments of customer-countable orders placed by customers in loc.
func (a *Aggregator) CustomerMonthly(loc Locality, orders []dataset.Order, payments []dataset.Payment, customers []dataset.Customer, customerCountable facts.OrderSet) ([]Point, error) {
	if err := loc.validate(); err != nil {
		return nil, err
	}
	customerDim := make(map[string]dataset.Customer, len(customers))
	for _, c := range customers {
		if _, ok := customerDim[c.ID]; !ok {
			customerDim[c.ID] = c
		}
	}
	paid := make(map[string]decimal.Decimal)
	for _, p := range payments {
		paid[p.OrderID] = paid[p.OrderID].Add(p.Value)
	}

	b := newBucketer()
	for _, o := range orders {
		if !customerCountable.Contains(o.ID) || !o.HasPurchase() {
			continue
		}
		c := customerDim[o.CustomerID]
		if !loc.matches(c.State, c.City) {
			continue
		}
		b.add(monthKey(o.PurchasedAt), paid[o.ID])
	}
	return b.points(a.excludedMonths), nil
}

func purchaseTimes(orders []dataset.Order) map[string]time.Time {
	out := make(map[string]time.Time, len(orders))
	for _, o := range orders {
		if _, seen := out[o.ID]; seen || !o.HasPurchase() {
			continue
		}
		out[o.ID] = o.PurchasedAt
	}
	return out
}
