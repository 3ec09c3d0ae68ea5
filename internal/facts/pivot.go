package facts

import (
	"sort"
	"time"

	"github.com/angelmondragon/olist-insights/internal/dataset"
)

// Line is one item row behind an aggregate, kept in a side table instead of inside the fact.
type Line struct {
	OrderID       string
	ProductID     string
	Category      string
	ShippingLimit time.Time
}

// Lines maps a fact key (seller id or order id) to its item rows in source order.
type Lines map[string][]Line

// Categories returns the category sequence for key, duplicates included.
func (l Lines) Categories(key string) []string {
	rows := l[key]
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Category)
	}
	return out
}

// ProductIDs returns the product sequence for key, duplicates included.
func (l Lines) ProductIDs(key string) []string {
	rows := l[key]
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ProductID)
	}
	return out
}

type SellerFact struct {
	SellerID string
	Price    Stats
	Freight  Stats
}

type SellerPivot struct {
	Facts []SellerFact
	Lines Lines
}

type OrderFact struct {
	OrderID string
	Payment Stats
	Price   Stats
	Freight Stats
}

type OrderPivot struct {
	Facts []OrderFact
	Lines Lines
}

type itemAgg struct {
	key     string
	price   statsAcc
	freight statsAcc
}

func productCategories(products []dataset.Product) map[string]string {
	out := make(map[string]string, len(products))
	for _, p := range products {
		if _, ok := out[p.ID]; !ok {
			out[p.ID] = p.Category
		}
	}
	return out
}

// aggregateItems inner-joins items to products, keeps orders in set, and groups by keyFn.
func aggregateItems(items []dataset.OrderItem, products []dataset.Product, set OrderSet, keyFn func(dataset.OrderItem) string) ([]*itemAgg, Lines) {
	categories := productCategories(products)
	var (
		order []*itemAgg
		byKey = make(map[string]*itemAgg)
		lines = make(Lines)
	)
	for _, it := range items {
		category, ok := categories[it.ProductID]
		if !ok || !set.Contains(it.OrderID) {
			continue
		}
		key := keyFn(it)
		agg, ok := byKey[key]
		if !ok {
			agg = &itemAgg{key: key}
			byKey[key] = agg
			order = append(order, agg)
		}
		agg.price.add(it.Price)
		agg.freight.add(it.Freight)
		lines[key] = append(lines[key], Line{
			OrderID:       it.OrderID,
			ProductID:     it.ProductID,
			Category:      category,
			ShippingLimit: it.ShippingLimit,
		})
	}
	sort.SliceStable(order, func(i, j int) bool {
		return order[i].price.sum.GreaterThan(order[j].price.sum)
	})
	return order, lines
}

// BuildSellerPivot aggregates seller-countable items per seller, largest price sum first.
func BuildSellerPivot(items []dataset.OrderItem, products []dataset.Product, sellerCountable OrderSet) SellerPivot {
	aggs, lines := aggregateItems(items, products, sellerCountable, func(it dataset.OrderItem) string { return it.SellerID })
	facts := make([]SellerFact, 0, len(aggs))
	for _, a := range aggs {
		facts = append(facts, SellerFact{
			SellerID: a.key,
			Price:    a.price.stats(),
			Freight:  a.freight.stats(),
		})
	}
	return SellerPivot{Facts: facts, Lines: lines}
}

// BuildOrderPivot joins per-order payment and item aggregates. Orders missing
// either side are dropped; output follows the payment aggregate order.
func BuildOrderPivot(items []dataset.OrderItem, products []dataset.Product, payments []dataset.Payment, customerCountable OrderSet) OrderPivot {
	aggs, lines := aggregateItems(items, products, customerCountable, func(it dataset.OrderItem) string { return it.OrderID })
	itemsByOrder := make(map[string]*itemAgg, len(aggs))
	for _, a := range aggs {
		itemsByOrder[a.key] = a
	}

	type payAgg struct {
		orderID string
		value   statsAcc
	}
	var (
		payOrder []*payAgg
		byOrder  = make(map[string]*payAgg)
	)
	for _, p := range payments {
		if !customerCountable.Contains(p.OrderID) {
			continue
		}
		agg, ok := byOrder[p.OrderID]
		if !ok {
			agg = &payAgg{orderID: p.OrderID}
			byOrder[p.OrderID] = agg
			payOrder = append(payOrder, agg)
		}
		agg.value.add(p.Value)
	}
	sort.SliceStable(payOrder, func(i, j int) bool {
		return payOrder[i].value.sum.GreaterThan(payOrder[j].value.sum)
	})

	facts := make([]OrderFact, 0, len(payOrder))
	kept := make(Lines, len(payOrder))
	for _, p := range payOrder {
		it, ok := itemsByOrder[p.orderID]
		if !ok {
			continue
		}
		facts = append(facts, OrderFact{
			OrderID: p.orderID,
			Payment: p.value.stats(),
			Price:   it.price.stats(),
			Freight: it.freight.stats(),
		})
		kept[p.orderID] = lines[p.orderID]
	}
	return OrderPivot{Facts: facts, Lines: kept}
}
