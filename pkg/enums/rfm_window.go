package enums

import (
	"fmt"
	"strconv"
	"strings"
)

// RFMWindow is the trailing window length, in days, used by the RFM engine.
type RFMWindow int

const (
	RFMWindow30 RFMWindow = 30
	RFMWindow60 RFMWindow = 60
	RFMWindow90 RFMWindow = 90
)

var validRFMWindows = []RFMWindow{
	RFMWindow30,
	RFMWindow60,
	RFMWindow90,
}

// Days returns the window length as a plain int.
func (w RFMWindow) Days() int {
	return int(w)
}

// String implements fmt.Stringer.
func (w RFMWindow) String() string {
	return strconv.Itoa(int(w))
}

// IsValid reports whether the value is one of the supported windows.
func (w RFMWindow) IsValid() bool {
	for _, candidate := range validRFMWindows {
		if candidate == w {
			return true
		}
	}
	return false
}

// ParseRFMWindow converts raw input such as "60" into an RFMWindow.
func ParseRFMWindow(value string) (RFMWindow, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid rfm window %q", value)
	}
	w := RFMWindow(n)
	if !w.IsValid() {
		return 0, fmt.Errorf("invalid rfm window %q", value)
	}
	return w, nil
}
