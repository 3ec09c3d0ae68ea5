package dashboard

import (
	"strings"
	"time"

	"github.com/angelmondragon/olist-insights/internal/dataset"
	"github.com/angelmondragon/olist-insights/internal/timeseries"
	"github.com/angelmondragon/olist-insights/pkg/enums"
)

const (
	defaultMixCities     = 5
	defaultMixCategories = 5
)

// RangeQuery is the optional inclusive day range shared by every section.
type RangeQuery struct {
	Start string `query:"start" validate:"omitempty,datetime=2006-01-02"`
	End   string `query:"end" validate:"omitempty,datetime=2006-01-02"`
}

func (q RangeQuery) dateRange() (dataset.DateRange, error) {
	var start, end time.Time
	if q.Start != "" {
		start, _ = time.Parse(time.DateOnly, q.Start)
	}
	if q.End != "" {
		end, _ = time.Parse(time.DateOnly, q.End)
	}
	return dataset.NewDateRange(start, end)
}

type TrendQuery struct {
	RangeQuery
	State string `query:"state" validate:"omitempty,len=2,alpha"`
	City  string `query:"city" validate:"omitempty,max=64"`
}

func (q TrendQuery) locality() timeseries.Locality {
	return timeseries.Locality{State: strings.ToUpper(q.State), City: strings.ToLower(q.City)}
}

type LeaderboardQuery struct {
	RangeQuery
	Limit int `query:"limit" validate:"omitempty,min=1,max=27"`
}

type CategoryMixQuery struct {
	RangeQuery
	Cities     int    `query:"cities" validate:"omitempty,min=2,max=8"`
	Categories int    `query:"categories" validate:"omitempty,min=2,max=10"`
	Side       string `query:"side" validate:"omitempty,oneof=seller customer"`
}

func (q CategoryMixQuery) withDefaults() CategoryMixQuery {
	if q.Cities == 0 {
		q.Cities = defaultMixCities
	}
	if q.Categories == 0 {
		q.Categories = defaultMixCategories
	}
	if q.Side == "" {
		q.Side = string(enums.SideSeller)
	}
	return q
}

type RFMQuery struct {
	RangeQuery
	Window int `query:"window" validate:"omitempty,oneof=30 60 90"`
}

func (q RFMQuery) window() enums.RFMWindow {
	if q.Window == 0 {
		return enums.RFMWindow30
	}
	return enums.RFMWindow(q.Window)
}

type GeoQuery struct {
	RangeQuery
	Category string `query:"category" validate:"omitempty,max=128"`
	State    string `query:"state" validate:"omitempty,len=2,alpha"`
}
