package geo

import (
	"sort"
	"strconv"
	"strings"

	"github.com/angelmondragon/olist-insights/internal/dataset"
	"github.com/angelmondragon/olist-insights/internal/facts"
	"github.com/angelmondragon/olist-insights/pkg/boundaries"
	"github.com/angelmondragon/olist-insights/pkg/enums"
	"github.com/angelmondragon/olist-insights/pkg/textnorm"
	"github.com/paulmach/orb"
)

const rioDeJaneiro = "RJ"

// Point is one fact row placed at one geolocation match.
type Point struct {
	ID        string    `json:"id"`
	State     string    `json:"state"`
	City      string    `json:"city"`
	ZipPrefix string    `json:"zip_prefix"`
	Location  orb.Point `json:"location"`
}

// Layer is a set of points for one side with the category side table they reference.
type Layer struct {
	Side   enums.Side  `json:"side"`
	Points []Point     `json:"points"`
	Lines  facts.Lines `json:"-"`
}

type locator struct {
	byZip map[string][]orb.Point
}

func newLocator(geos []dataset.Geolocation) locator {
	l := locator{byZip: make(map[string][]orb.Point)}
	for _, g := range geos {
		l.byZip[g.ZipPrefix] = append(l.byZip[g.ZipPrefix], orb.Point{g.Lng, g.Lat})
	}
	return l
}

// place fans one row out to every geolocation sharing its zip prefix and drops
// Rio de Janeiro rows west of rjMinLng.
func (l locator) place(id, state, city, zip string, rjMinLng float64, out []Point) []Point {
	for _, loc := range l.byZip[zip] {
		if state == rioDeJaneiro && loc.Lon() <= rjMinLng {
			continue
		}
		out = append(out, Point{ID: id, State: state, City: city, ZipPrefix: zip, Location: loc})
	}
	return out
}

// CustomerPoints joins merged customer rows to geolocations by zip prefix.
func CustomerPoints(rows []facts.CustomerRow, lines facts.Lines, geos []dataset.Geolocation, rjMinLng float64) Layer {
	loc := newLocator(geos)
	points := make([]Point, 0, len(rows))
	for _, r := range rows {
		points = loc.place(r.OrderID, r.State, r.City, r.ZipPrefix, rjMinLng, points)
	}
	return Layer{Side: enums.SideCustomer, Points: points, Lines: lines}
}

// SellerPoints joins merged seller rows to geolocations by zip prefix.
func SellerPoints(rows []facts.SellerRow, lines facts.Lines, geos []dataset.Geolocation, rjMinLng float64) Layer {
	loc := newLocator(geos)
	points := make([]Point, 0, len(rows))
	for _, r := range rows {
		points = loc.place(r.SellerID, r.State, r.City, r.ZipPrefix, rjMinLng, points)
	}
	return Layer{Side: enums.SideSeller, Points: points, Lines: lines}
}

// NormalizeCategory maps labels like "Bed Bath Table (12 Items)" and raw names
// like "cama_mesa_banho" to one comparable form.
func NormalizeCategory(s string) string {
	if i := strings.Index(s, "("); i >= 0 {
		s = s[:i]
	}
	s = textnorm.PlaceKey(s)
	return strings.ReplaceAll(s, " ", "_")
}

// hasCategory reports whether any line of id carries category (already normalized).
func (l Layer) hasCategory(id, category string) bool {
	for _, c := range l.Lines.Categories(id) {
		if NormalizeCategory(c) == category {
			return true
		}
	}
	return false
}

// FilterCategory keeps points whose category sequence contains category.
func (l Layer) FilterCategory(category string) Layer {
	want := NormalizeCategory(category)
	if want == "" {
		return l
	}
	out := Layer{Side: l.Side, Lines: l.Lines, Points: make([]Point, 0)}
	cache := make(map[string]bool)
	for _, p := range l.Points {
		match, ok := cache[p.ID]
		if !ok {
			match = l.hasCategory(p.ID, want)
			cache[p.ID] = match
		}
		if match {
			out.Points = append(out.Points, p)
		}
	}
	return out
}

// WithinState keeps points that fall inside the state geometry.
func (l Layer) WithinState(g orb.Geometry) Layer {
	out := Layer{Side: l.Side, Lines: l.Lines, Points: make([]Point, 0)}
	bound := g.Bound()
	for _, p := range l.Points {
		if !bound.Contains(p.Location) {
			continue
		}
		if boundaries.Contains(g, p.Location) {
			out.Points = append(out.Points, p)
		}
	}
	return out
}

// CategoryCount is one entry of the demand or supply picker.
type CategoryCount struct {
	Category string `json:"category"`
	Label    string `json:"label"`
	Count    int    `json:"count"`
}

type tally struct {
	order  []string
	counts map[string]int
}

func (t *tally) add(category string) {
	if t.counts == nil {
		t.counts = make(map[string]int)
	}
	if _, ok := t.counts[category]; !ok {
		t.order = append(t.order, category)
	}
	t.counts[category]++
}

// ranked returns categories by descending count, ties in first-seen order.
func (t *tally) ranked() []string {
	out := append([]string(nil), t.order...)
	sort.SliceStable(out, func(i, j int) bool { return t.counts[out[i]] > t.counts[out[j]] })
	return out
}

func displayName(category string) string {
	return textnorm.Title(strings.ReplaceAll(category, "_", " "))
}

// DemandCounts counts category occurrences across customer points.
func DemandCounts(l Layer) []CategoryCount {
	var t tally
	for _, p := range l.Points {
		for _, c := range l.Lines.Categories(p.ID) {
			t.add(c)
		}
	}
	out := make([]CategoryCount, 0, len(t.order))
	for _, c := range t.ranked() {
		n := t.counts[c]
		out = append(out, CategoryCount{
			Category: c,
			Count:    n,
			Label:    displayName(c) + " (" + strconv.Itoa(n) + " Items)",
		})
	}
	return out
}

// SupplyCounts ranks categories by occurrence and reports how many seller points carry each.
func SupplyCounts(l Layer) []CategoryCount {
	var t tally
	carriers := make(map[string]int)
	for _, p := range l.Points {
		seen := make(map[string]struct{})
		for _, c := range l.Lines.Categories(p.ID) {
			t.add(c)
			if _, ok := seen[c]; !ok {
				seen[c] = struct{}{}
				carriers[c]++
			}
		}
	}
	out := make([]CategoryCount, 0, len(t.order))
	for _, c := range t.ranked() {
		n := carriers[c]
		out = append(out, CategoryCount{
			Category: c,
			Count:    n,
			Label:    displayName(c) + " (" + strconv.Itoa(n) + " Sellers)",
		})
	}
	return out
}
