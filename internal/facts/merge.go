package facts

import (
	"time"

	"github.com/angelmondragon/olist-insights/internal/dataset"
	"github.com/angelmondragon/olist-insights/pkg/enums"
	pkgerrors "github.com/angelmondragon/olist-insights/pkg/errors"
)

// SellerRow is a seller fact enriched with the seller dimension.
type SellerRow struct {
	SellerFact
	ZipPrefix string
	City      string
	State     string
}

// CustomerRow is an order fact enriched with its order and customer.
type CustomerRow struct {
	OrderFact
	CustomerID       string
	CustomerUniqueID string
	Status           enums.OrderStatus
	PurchasedAt      time.Time
	ZipPrefix        string
	City             string
	State            string
}

// JoinStats counts fact rows kept and dropped by an inner join.
type JoinStats struct {
	Join    string `json:"join"`
	Input   int    `json:"input"`
	Matched int    `json:"matched"`
	Dropped int    `json:"dropped"`
}

// Check turns dropped rows into a JOIN_INTEGRITY_ERROR when strict is set.
func (s JoinStats) Check(strict bool) error {
	if !strict || s.Dropped == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeJoinIntegrity, "fact rows reference missing dimension keys").
		WithDetails(s)
}

// MergeSellers inner-joins seller facts to the seller dimension.
func MergeSellers(p SellerPivot, sellers []dataset.Seller) ([]SellerRow, JoinStats) {
	dim := make(map[string]dataset.Seller, len(sellers))
	for _, s := range sellers {
		if _, ok := dim[s.ID]; !ok {
			dim[s.ID] = s
		}
	}
	stats := JoinStats{Join: "seller_facts:sellers", Input: len(p.Facts)}
	rows := make([]SellerRow, 0, len(p.Facts))
	for _, f := range p.Facts {
		s, ok := dim[f.SellerID]
		if !ok {
			stats.Dropped++
			continue
		}
		rows = append(rows, SellerRow{
			SellerFact: f,
			ZipPrefix:  s.ZipPrefix,
			City:       s.City,
			State:      s.State,
		})
	}
	stats.Matched = len(rows)
	return rows, stats
}

// MergeCustomers inner-joins order facts to orders, then to customers.
func MergeCustomers(p OrderPivot, orders []dataset.Order, customers []dataset.Customer) ([]CustomerRow, JoinStats) {
	orderDim := make(map[string]dataset.Order, len(orders))
	for _, o := range orders {
		if _, ok := orderDim[o.ID]; !ok {
			orderDim[o.ID] = o
		}
	}
	customerDim := make(map[string]dataset.Customer, len(customers))
	for _, c := range customers {
		if _, ok := customerDim[c.ID]; !ok {
			customerDim[c.ID] = c
		}
	}
	stats := JoinStats{Join: "order_facts:orders:customers", Input: len(p.Facts)}
	rows := make([]CustomerRow, 0, len(p.Facts))
	for _, f := range p.Facts {
		o, ok := orderDim[f.OrderID]
		if !ok {
			stats.Dropped++
			continue
		}
		c, ok := customerDim[o.CustomerID]
		if !ok {
			stats.Dropped++
			continue
		}
		rows = append(rows, CustomerRow{
			OrderFact:        f,
			CustomerID:       c.ID,
			CustomerUniqueID: c.UniqueID,
			Status:           o.Status,
			PurchasedAt:      o.PurchasedAt,
			ZipPrefix:        c.ZipPrefix,
			City:             c.City,
			State:            c.State,
		})
	}
	stats.Matched = len(rows)
	return rows, stats
}
