package boundaries

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/olist-insights/pkg/errors"
	"github.com/angelmondragon/olist-insights/pkg/textnorm"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/project"
)

const (
	defaultBaseURL             = "https://raw.githubusercontent.com/luizpedone/municipal-brazilian-geodata/refs/heads/master/data"
	nationalFile               = "Brasil.json"
	errorBodyReadLimit   int64 = 1024
	responseBodyMaxBytes int64 = 64 << 20
)

// State is one federative unit from the national boundaries file.
type State struct {
	UF       string
	Name     string
	Geometry orb.Geometry
	Centroid orb.Point
}

// City is one municipality from a per-state boundaries file.
type City struct {
	Name     string
	Geometry orb.Geometry
}

// Client fetches Brazilian administrative boundaries published as GeoJSON.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured boundaries base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithTimeout sets the timeout on the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 && c.httpClient != nil {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient builds a boundaries client.
func NewClient(opts ...Option) *Client {
	client := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}
	return client
}

// States returns every state polygon with its centroid, ordered by UF.
func (c *Client) States(ctx context.Context) ([]State, error) {
	fc, err := c.fetch(ctx, nationalFile)
	if err != nil {
		return nil, err
	}
	states := make([]State, 0, len(fc.Features))
	for _, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			continue
		}
		uf := strings.ToUpper(strings.TrimSpace(f.Properties.MustString("UF", "")))
		if uf == "" {
			continue
		}
		states = append(states, State{
			UF:       uf,
			Name:     f.Properties.MustString("NOME", ""),
			Geometry: f.Geometry,
			Centroid: Centroid(f.Geometry),
		})
	}
	sort.SliceStable(states, func(i, j int) bool { return states[i].UF < states[j].UF })
	return states, nil
}

// Cities returns the municipalities of one state with accent-free lowercase names, ordered by name.
func (c *Client) Cities(ctx context.Context, uf string) ([]City, error) {
	code := strings.ToUpper(strings.TrimSpace(uf))
	if len(code) != 2 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "state code must be two letters")
	}
	fc, err := c.fetch(ctx, code+".json")
	if err != nil {
		return nil, err
	}
	cities := make([]City, 0, len(fc.Features))
	for _, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			continue
		}
		cities = append(cities, City{
			Name:     textnorm.PlaceKey(f.Properties.MustString("NOME", "")),
			Geometry: f.Geometry,
		})
	}
	sort.SliceStable(cities, func(i, j int) bool { return cities[i].Name < cities[j].Name })
	return cities, nil
}

// Centroid computes the area centroid in web-mercator space and maps it back to lon/lat.
func Centroid(g orb.Geometry) orb.Point {
	if g == nil {
		return orb.Point{}
	}
	projected := project.Geometry(orb.Clone(g), project.WGS84.ToMercator)
	center, _ := planar.CentroidArea(projected)
	return project.Mercator.ToWGS84(center)
}

// Contains reports whether p lies inside a polygon or multipolygon.
func Contains(g orb.Geometry, p orb.Point) bool {
	switch geom := g.(type) {
	case orb.Polygon:
		return planar.PolygonContains(geom, p)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(geom, p)
	case orb.Bound:
		return geom.Contains(p)
	default:
		return false
	}
}

func (c *Client) fetch(ctx context.Context, file string) (*geojson.FeatureCollection, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "boundaries client not configured")
	}
	endpoint := fmt.Sprintf("%s/%s", strings.TrimRight(c.baseURL, "/"), url.PathEscape(file))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeRemoteFetch, err, "build boundaries request")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeRemoteFetch, err, "execute boundaries request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeRemoteFetch, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "boundaries request failed").
			WithDetails(map[string]any{"file": file})
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyMaxBytes))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeRemoteFetch, err, "read boundaries response")
	}
	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeRemoteFetch, err, "decode boundaries geojson").
			WithDetails(map[string]any{"file": file})
	}
	return fc, nil
}
