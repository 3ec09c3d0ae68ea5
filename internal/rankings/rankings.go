package rankings

import (
	"fmt"
	"sort"

	"github.com/angelmondragon/olist-insights/internal/facts"
	"github.com/shopspring/decimal"
)

const DefaultLimit = 8

// Entry is one state or city in a leaderboard.
type Entry struct {
	Key     string          `json:"key"`
	Label   string          `json:"label"`
	Total   decimal.Decimal `json:"total"`
	Members int             `json:"members"`

	// ids are the fact keys grouped under this entry, in input order.
	ids []string
}

type group struct {
	key   string
	total decimal.Decimal
	ids   []string
}

func rank(keys []string, totals []decimal.Decimal, ids []string, limit int) []*group {
	var (
		order []*group
		byKey = make(map[string]*group)
	)
	for i, k := range keys {
		g, ok := byKey[k]
		if !ok {
			g = &group{key: k}
			byKey[k] = g
			order = append(order, g)
		}
		g.total = g.total.Add(totals[i])
		g.ids = append(g.ids, ids[i])
	}
	sort.SliceStable(order, func(i, j int) bool { return order[i].total.GreaterThan(order[j].total) })
	if limit > 0 && len(order) > limit {
		order = order[:limit]
	}
	return order
}

func entries(groups []*group, unit string) []Entry {
	out := make([]Entry, 0, len(groups))
	for _, g := range groups {
		label := g.key
		if unit != "" {
			label = fmt.Sprintf("%s (%d %s)", g.key, len(g.ids), unit)
		}
		out = append(out, Entry{Key: g.key, Label: label, Total: g.total, Members: len(g.ids), ids: g.ids})
	}
	return out
}

func sellerColumns(rows []facts.SellerRow, keyFn func(facts.SellerRow) string) ([]string, []decimal.Decimal, []string) {
	keys := make([]string, len(rows))
	totals := make([]decimal.Decimal, len(rows))
	ids := make([]string, len(rows))
	for i, r := range rows {
		keys[i], totals[i], ids[i] = keyFn(r), r.Price.Sum, r.SellerID
	}
	return keys, totals, ids
}

func customerColumns(rows []facts.CustomerRow, keyFn func(facts.CustomerRow) string) ([]string, []decimal.Decimal, []string) {
	keys := make([]string, len(rows))
	totals := make([]decimal.Decimal, len(rows))
	ids := make([]string, len(rows))
	for i, r := range rows {
		keys[i], totals[i], ids[i] = keyFn(r), r.Payment.Sum, r.OrderID
	}
	return keys, totals, ids
}

// SellerStates ranks seller states by summed price, labelled with seller counts.
func SellerStates(rows []facts.SellerRow, limit int) []Entry {
	keys, totals, ids := sellerColumns(rows, func(r facts.SellerRow) string { return r.State })
	return entries(rank(keys, totals, ids, limit), "Sellers")
}

// SellerCities ranks seller cities by summed price.
func SellerCities(rows []facts.SellerRow, limit int) []Entry {
	keys, totals, ids := sellerColumns(rows, func(r facts.SellerRow) string { return r.City })
	return entries(rank(keys, totals, ids, limit), "")
}

// CustomerStates ranks customer states by summed payments, labelled with customer counts.
func CustomerStates(rows []facts.CustomerRow, limit int) []Entry {
	keys, totals, ids := customerColumns(rows, func(r facts.CustomerRow) string { return r.State })
	return entries(rank(keys, totals, ids, limit), "Customers")
}

// CustomerCities ranks customer cities by summed payments.
func CustomerCities(rows []facts.CustomerRow, limit int) []Entry {
	keys, totals, ids := customerColumns(rows, func(r facts.CustomerRow) string { return r.City })
	return entries(rank(keys, totals, ids, limit), "")
}

// CategoryShare is a category and how often it occurs within a city.
type CategoryShare struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// CityMix is the category breakdown of one top city.
type CityMix struct {
	City       string          `json:"city"`
	Total      decimal.Decimal `json:"total"`
	Categories []CategoryShare `json:"categories"`
}

// CategoryMix takes the first cities entries and lists each one's top
// categories by occurrence across the concatenated category sequences.
func CategoryMix(cities []Entry, lines facts.Lines, cityLimit, categoryLimit int) []CityMix {
	if cityLimit > 0 && len(cities) > cityLimit {
		cities = cities[:cityLimit]
	}
	out := make([]CityMix, 0, len(cities))
	for _, c := range cities {
		var (
			order  []string
			counts = make(map[string]int)
		)
		for _, id := range c.ids {
			for _, category := range lines.Categories(id) {
				if _, ok := counts[category]; !ok {
					order = append(order, category)
				}
				counts[category]++
			}
		}
		sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
		if categoryLimit > 0 && len(order) > categoryLimit {
			order = order[:categoryLimit]
		}
		shares := make([]CategoryShare, 0, len(order))
		for _, category := range order {
			shares = append(shares, CategoryShare{Category: category, Count: counts[category]})
		}
		out = append(out, CityMix{City: c.Key, Total: c.Total, Categories: shares})
	}
	return out
}
