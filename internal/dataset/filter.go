package dataset

import (
	"time"

	pkgerrors "github.com/angelmondragon/olist-insights/pkg/errors"
)

// DateRange is an inclusive whole-day range; a zero bound is open.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange truncates both bounds to days and rejects end before start.
func NewDateRange(start, end time.Time) (DateRange, error) {
	r := DateRange{Start: truncateDay(start), End: truncateDay(end)}
	if !r.Start.IsZero() && !r.End.IsZero() && r.End.Before(r.Start) {
		return DateRange{}, pkgerrors.New(pkgerrors.CodeValidation, "end date must not be before start date").
			WithDetails(map[string]any{"start": r.Start.Format(time.DateOnly), "end": r.End.Format(time.DateOnly)})
	}
	return r, nil
}

// IsZero reports whether both bounds are open.
func (r DateRange) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// Contains reports whether ts falls on or between the start and end days.
func (r DateRange) Contains(ts time.Time) bool {
	if r.IsZero() {
		return true
	}
	if ts.IsZero() {
		return false
	}
	if !r.Start.IsZero() && ts.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && !ts.Before(r.End.AddDate(0, 0, 1)) {
		return false
	}
	return true
}

func (r DateRange) key() string {
	return r.Start.Format(time.DateOnly) + ".." + r.End.Format(time.DateOnly)
}

// Filter narrows orders by purchase time and order items by shipping-limit time.
// Dimension tables are shared with the parent snapshot.
func Filter(t *Tables, r DateRange) *Tables {
	if t == nil {
		return nil
	}
	if r.IsZero() {
		return t
	}
	out := *t
	out.Orders = make([]Order, 0, len(t.Orders))
	for _, o := range t.Orders {
		if r.Contains(o.PurchasedAt) {
			out.Orders = append(out.Orders, o)
		}
	}
	out.Items = make([]OrderItem, 0, len(t.Items))
	for _, it := range t.Items {
		if r.Contains(it.ShippingLimit) {
			out.Items = append(out.Items, it)
		}
	}
	out.Token = t.Token.Derive("range", r.key())
	return &out
}

// PurchaseBounds returns the earliest and latest purchase timestamps.
func PurchaseBounds(t *Tables) (time.Time, time.Time, bool) {
	var first, last time.Time
	found := false
	for _, o := range t.Orders {
		if !o.HasPurchase() {
			continue
		}
		if !found || o.PurchasedAt.Before(first) {
			first = o.PurchasedAt
		}
		if !found || o.PurchasedAt.After(last) {
			last = o.PurchasedAt
		}
		found = true
	}
	return first, last, found
}

func truncateDay(ts time.Time) time.Time {
	if ts.IsZero() {
		return ts
	}
	y, m, d := ts.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
