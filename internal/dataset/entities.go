package dataset

import (
	"time"

	"github.com/angelmondragon/olist-insights/pkg/enums"
	"github.com/shopspring/decimal"
)

type Customer struct {
	ID        string
	UniqueID  string
	ZipPrefix string
	City      string
	State     string
}

type Order struct {
	ID          string
	CustomerID  string
	Status      enums.OrderStatus
	PurchasedAt time.Time
}

// HasPurchase reports whether the purchase timestamp was present in the source row.
func (o Order) HasPurchase() bool {
	return !o.PurchasedAt.IsZero()
}

type OrderItem struct {
	OrderID       string
	ItemSeq       int
	ProductID     string
	SellerID      string
	ShippingLimit time.Time
	Price         decimal.Decimal
	Freight       decimal.Decimal
}

type Payment struct {
	OrderID  string
	Sequence int
	Type     string
	Value    decimal.Decimal
}

type Product struct {
	ID       string
	Category string
}

type Seller struct {
	ID        string
	ZipPrefix string
	City      string
	State     string
}

type Geolocation struct {
	ZipPrefix string
	Lat       float64
	Lng       float64
	City      string
	State     string
}

// Tables is one immutable snapshot of the seven source tables.
type Tables struct {
	Customers    []Customer
	Orders       []Order
	Items        []OrderItem
	Payments     []Payment
	Products     []Product
	Sellers      []Seller
	Geolocations []Geolocation

	// Token identifies the snapshot content; derived snapshots get derived tokens.
	Token Token
}

// Counts returns row counts keyed by table name.
func (t *Tables) Counts() map[string]int {
	if t == nil {
		return map[string]int{}
	}
	return map[string]int{
		TableCustomers:    len(t.Customers),
		TableOrders:       len(t.Orders),
		TableItems:        len(t.Items),
		TablePayments:     len(t.Payments),
		TableProducts:     len(t.Products),
		TableSellers:      len(t.Sellers),
		TableGeolocations: len(t.Geolocations),
	}
}
