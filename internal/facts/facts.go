package facts

import (
	"context"
	"time"

	"github.com/angelmondragon/olist-insights/internal/dataset"
	"github.com/angelmondragon/olist-insights/pkg/logger"
	"github.com/angelmondragon/olist-insights/pkg/metrics"
	"go.uber.org/multierr"
)

// Facts is the full set of derived tables for one snapshot.
type Facts struct {
	Partition    Partition
	SellerPivot  SellerPivot
	OrderPivot   OrderPivot
	Sellers      []SellerRow
	Customers    []CustomerRow
	SellerJoin   JoinStats
	CustomerJoin JoinStats
}

// Builder runs partition, pivot, and merge over a snapshot.
type Builder struct {
	strict  bool
	logg    *logger.Logger
	metrics *metrics.PipelineMetrics
}

func NewBuilder(strictJoins bool, logg *logger.Logger, m *metrics.PipelineMetrics) *Builder {
	return &Builder{strict: strictJoins, logg: logg, metrics: m}
}

// Build derives the fact tables. The partition is supplied by the caller so
// tests and alternative status policies can inject their own sets.
func (b *Builder) Build(ctx context.Context, t *dataset.Tables, p Partition) (*Facts, error) {
	started := time.Now()
	sellerPivot := BuildSellerPivot(t.Items, t.Products, p.Seller)
	orderPivot := BuildOrderPivot(t.Items, t.Products, t.Payments, p.Customer)
	b.metrics.ObserveStage("pivot", time.Since(started))

	started = time.Now()
	sellers, sellerJoin := MergeSellers(sellerPivot, t.Sellers)
	customers, customerJoin := MergeCustomers(orderPivot, t.Orders, t.Customers)
	b.metrics.ObserveStage("merge", time.Since(started))

	if b.logg != nil {
		b.logg.Debug(b.logg.WithFields(ctx, map[string]any{
			"token":              t.Token.String(),
			"seller_countable":   p.Seller.Len(),
			"rows_in":            sellerJoin.Input + customerJoin.Input,
			"rows_out":           sellerJoin.Matched + customerJoin.Matched,
			"dropped":            sellerJoin.Dropped + customerJoin.Dropped,
			"customer_countable": p.Customer.Len(),
		}), "facts built")
	}

	if err := multierr.Combine(sellerJoin.Check(b.strict), customerJoin.Check(b.strict)); err != nil {
		return nil, err
	}
	return &Facts{
		Partition:    p,
		SellerPivot:  sellerPivot,
		OrderPivot:   orderPivot,
		Sellers:      sellers,
		Customers:    customers,
		SellerJoin:   sellerJoin,
		CustomerJoin: customerJoin,
	}, nil
}
