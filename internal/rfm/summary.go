package rfm

import (
	"math"
	"time"

	"github.com/angelmondragon/olist-insights/pkg/enums"
	pkgerrors "github.com/angelmondragon/olist-insights/pkg/errors"
	"github.com/shopspring/decimal"
)

// ClusterCount is one slice of the priority distribution.
type ClusterCount struct {
	Cluster Cluster `json:"cluster"`
	Orders  int     `json:"orders"`
}

// Summary holds the headline averages shown next to the cluster chart.
type Summary struct {
	Window           enums.RFMWindow `json:"window"`
	Reference        time.Time       `json:"reference"`
	AverageRecency   int             `json:"average_recency_days"`
	AverageFrequency int             `json:"average_frequency"`
	AverageMonetary  decimal.Decimal `json:"average_monetary"`
	Distribution     []ClusterCount  `json:"distribution"`
}

// Summarize averages the three axes over their own window populations.
// Recency is floored, frequency and monetary are ceiled.
func Summarize(res Result) (Summary, error) {
	if len(res.recencies) == 0 || len(res.frequencies) == 0 || len(res.monetary) == 0 {
		return Summary{}, pkgerrors.New(pkgerrors.CodeEmptyWindow, "rfm window contains no qualifying orders").
			WithDetails(map[string]any{"window": res.Window.Days()})
	}

	recencyTotal := 0
	for _, r := range res.recencies {
		recencyTotal += r
	}
	frequencyTotal := 0
	for _, n := range res.frequencies {
		frequencyTotal += n
	}
	monetaryTotal := decimal.Zero
	for _, v := range res.monetary {
		monetaryTotal = monetaryTotal.Add(v)
	}

	counts := make(map[Cluster]int, len(Clusters))
	for _, r := range res.Records {
		counts[r.Cluster]++
	}
	distribution := make([]ClusterCount, 0, len(Clusters))
	for _, c := range Clusters {
		distribution = append(distribution, ClusterCount{Cluster: c, Orders: counts[c]})
	}

	return Summary{
		Window:           res.Window,
		Reference:        res.Reference,
		AverageRecency:   recencyTotal / len(res.recencies),
		AverageFrequency: int(math.Ceil(float64(frequencyTotal) / float64(len(res.frequencies)))),
		AverageMonetary:  monetaryTotal.Div(decimal.NewFromInt(int64(len(res.monetary)))).Ceil(),
		Distribution:     distribution,
	}, nil
}
