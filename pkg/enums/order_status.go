package enums

import (
	"fmt"
	"strings"
)

// OrderStatus is the marketplace lifecycle state recorded on an order.
type OrderStatus string

const (
	OrderStatusCreated     OrderStatus = "created"
	OrderStatusApproved    OrderStatus = "approved"
	OrderStatusInvoiced    OrderStatus = "invoiced"
	OrderStatusProcessing  OrderStatus = "processing"
	OrderStatusShipped     OrderStatus = "shipped"
	OrderStatusDelivered   OrderStatus = "delivered"
	OrderStatusUnavailable OrderStatus = "unavailable"
	OrderStatusCanceled    OrderStatus = "canceled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusCreated,
	OrderStatusApproved,
	OrderStatusInvoiced,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusUnavailable,
	OrderStatusCanceled,
}

// SellerCountableStatuses lists the statuses that count toward seller revenue.
var SellerCountableStatuses = []OrderStatus{
	OrderStatusDelivered,
	OrderStatusInvoiced,
	OrderStatusShipped,
	OrderStatusProcessing,
	OrderStatusCreated,
	OrderStatusApproved,
}

// CustomerCountableStatuses lists the statuses that count toward customer spend.
var CustomerCountableStatuses = []OrderStatus{
	OrderStatusDelivered,
	OrderStatusShipped,
	OrderStatusInvoiced,
	OrderStatusProcessing,
	OrderStatusCreated,
	OrderStatusApproved,
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// In reports whether the status appears in set.
func (s OrderStatus) In(set []OrderStatus) bool {
	for _, candidate := range set {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validOrderStatuses {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
