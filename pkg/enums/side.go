package enums

import (
	"fmt"
	"strings"
)

// Side selects which half of the marketplace a view describes.
type Side string

const (
	SideSeller   Side = "seller"
	SideCustomer Side = "customer"
)

var validSides = []Side{
	SideSeller,
	SideCustomer,
}

// String implements fmt.Stringer.
func (s Side) String() string {
	return string(s)
}

// IsValid reports whether the value is a known Side.
func (s Side) IsValid() bool {
	for _, candidate := range validSides {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSide converts raw input into a Side.
func ParseSide(value string) (Side, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validSides {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid side %q", value)
}
