package dashboard

import (
	"time"

	"github.com/angelmondragon/olist-insights/internal/rankings"
	"github.com/angelmondragon/olist-insights/internal/rfm"
	"github.com/angelmondragon/olist-insights/internal/timeseries"
	"github.com/angelmondragon/olist-insights/pkg/enums"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/shopspring/decimal"
)

// Period is the inclusive day range a section was computed over.
type Period struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// KPI is a headline number with its compact display form.
type KPI struct {
	Value   decimal.Decimal `json:"value"`
	Display string          `json:"display"`
}

// Overview carries the headline metrics and the two overview trends.
type Overview struct {
	Period              Period                  `json:"period"`
	Revenue             KPI                     `json:"revenue"`
	Transactions        KPI                     `json:"transactions"`
	ActiveUsers         KPI                     `json:"active_users"`
	ActiveSellers       KPI                     `json:"active_sellers"`
	MonthlyRevenue      []timeseries.Point      `json:"monthly_revenue"`
	MonthlyTransactions []timeseries.CountPoint `json:"monthly_transactions"`
	DailyTransactions   []timeseries.CountPoint `json:"daily_transactions"`
}

// Trend is a monthly series restricted to one state or city.
type Trend struct {
	Side   enums.Side         `json:"side"`
	State  string             `json:"state,omitempty"`
	City   string             `json:"city,omitempty"`
	Points []timeseries.Point `json:"points"`
}

// Leaderboard ranks the states and cities of one side.
type Leaderboard struct {
	Side   enums.Side       `json:"side"`
	States []rankings.Entry `json:"states"`
	Cities []rankings.Entry `json:"cities"`
}

// CategoryMix lists the top categories of the top cities of one side.
type CategoryMix struct {
	Side   enums.Side         `json:"side"`
	Cities []rankings.CityMix `json:"cities"`
}

// RFMSection is the cluster table plus its summary. Summary is nil when the
// window holds no qualifying orders.
type RFMSection struct {
	Window      enums.RFMWindow `json:"window"`
	Reference   time.Time       `json:"reference"`
	WindowStart time.Time       `json:"window_start"`
	Summary     *rfm.Summary    `json:"summary,omitempty"`
	Records     []rfm.Record    `json:"records"`
}

// StateDetail is one state with its municipal boundaries.
type StateDetail struct {
	UF       string                     `json:"uf"`
	Name     string                     `json:"name"`
	Centroid orb.Point                  `json:"centroid"`
	Cities   *geojson.FeatureCollection `json:"cities"`
}

// DateBounds is the purchase-time extent of the loaded dataset.
type DateBounds struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}
