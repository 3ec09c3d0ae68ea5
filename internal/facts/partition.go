package facts

import (
	"github.com/angelmondragon/olist-insights/internal/dataset"
	"github.com/angelmondragon/olist-insights/pkg/enums"
)

// OrderSet is an ordered, de-duplicated set of order ids.
type OrderSet struct {
	ids   []string
	index map[string]struct{}
}

func NewOrderSet(ids []string) OrderSet {
	s := OrderSet{index: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		if _, ok := s.index[id]; ok {
			continue
		}
		s.index[id] = struct{}{}
		s.ids = append(s.ids, id)
	}
	return s
}

func (s OrderSet) Contains(id string) bool {
	_, ok := s.index[id]
	return ok
}

func (s OrderSet) Len() int {
	return len(s.ids)
}

// Partition holds the two countable-order sets. They currently share members
// but are kept apart so either status list can change on its own.
type Partition struct {
	Seller   OrderSet
	Customer OrderSet
}

// PartitionOrders groups order ids by status in the order each status list names them.
func PartitionOrders(orders []dataset.Order) Partition {
	return Partition{
		Seller:   collect(orders, enums.SellerCountableStatuses),
		Customer: collect(orders, enums.CustomerCountableStatuses),
	}
}

func collect(orders []dataset.Order, statuses []enums.OrderStatus) OrderSet {
	ids := make([]string, 0, len(orders))
	for _, status := range statuses {
		for _, o := range orders {
			if o.Status == status {
				ids = append(ids, o.ID)
			}
		}
	}
	return NewOrderSet(ids)
}
