package boundaries

import (
	"context"
	"io"
	"math"
	"net/http"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/olist-insights/pkg/errors"
	"github.com/paulmach/orb"
)

const nationalBody = `{"type":"FeatureCollection","features":[
{"type":"Feature","properties":{"UF":"SP","NOME":"São Paulo"},"geometry":{"type":"Polygon","coordinates":[[[-48,-24],[-46,-24],[-46,-22],[-48,-22],[-48,-24]]]}},
{"type":"Feature","properties":{"UF":"AC","NOME":"Acre"},"geometry":{"type":"MultiPolygon","coordinates":[[[[-70,-10],[-68,-10],[-68,-8],[-70,-8],[-70,-10]]]]}}
]}`

const stateBody = `{"type":"FeatureCollection","features":[
{"type":"Feature","properties":{"NOME":"São Paulo"},"geometry":{"type":"Polygon","coordinates":[[[-47,-24],[-46,-24],[-46,-23],[-47,-23],[-47,-24]]]}},
{"type":"Feature","properties":{"NOME":"Campinas"},"geometry":{"type":"Polygon","coordinates":[[[-48,-23],[-47,-23],[-47,-22],[-48,-22],[-48,-23]]]}}
]}`

func TestClientStates(t *testing.T) {
	var capturedURL string
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(nationalBody)),
			Header:     http.Header{},
		}, nil
	})
	client := NewClient(WithBaseURL("http://geo.test/data/"), WithHTTPClient(&http.Client{Transport: rt}))

	states, err := client.States(context.Background())
	if err != nil {
		t.Fatalf("states: %v", err)
	}
	if capturedURL != "http://geo.test/data/Brasil.json" {
		t.Fatalf("unexpected URL %q", capturedURL)
	}
	if len(states) != 2 || states[0].UF != "AC" || states[1].UF != "SP" {
		t.Fatalf("expected states ordered by UF, got %+v", states)
	}
	sp := states[1]
	if math.Abs(sp.Centroid.Lon()-(-47)) > 1e-6 {
		t.Fatalf("unexpected centroid longitude %v", sp.Centroid.Lon())
	}
	if sp.Centroid.Lat() > -22 || sp.Centroid.Lat() < -24 {
		t.Fatalf("centroid latitude out of polygon: %v", sp.Centroid.Lat())
	}
	if !Contains(sp.Geometry, orb.Point{-47, -23}) {
		t.Fatal("expected point inside SP polygon")
	}
	if Contains(sp.Geometry, orb.Point{-69, -9}) {
		t.Fatal("expected point outside SP polygon")
	}
	if !Contains(states[0].Geometry, orb.Point{-69, -9}) {
		t.Fatal("expected point inside AC multipolygon")
	}
}

func TestClientCitiesNormalizesNames(t *testing.T) {
	var capturedPath string
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		capturedPath = req.URL.Path
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(stateBody)),
			Header:     http.Header{},
		}, nil
	})
	client := NewClient(WithBaseURL("http://geo.test/data"), WithHTTPClient(&http.Client{Transport: rt}))

	cities, err := client.Cities(context.Background(), "sp")
	if err != nil {
		t.Fatalf("cities: %v", err)
	}
	if capturedPath != "/data/SP.json" {
		t.Fatalf("unexpected path %q", capturedPath)
	}
	if len(cities) != 2 || cities[0].Name != "campinas" || cities[1].Name != "sao paulo" {
		t.Fatalf("unexpected cities %+v", cities)
	}
}

func TestClientCitiesRejectsBadCode(t *testing.T) {
	client := NewClient()
	_, err := client.Cities(context.Background(), "SAO")
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestClientRemoteFailure(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusNotFound,
			Body:       io.NopCloser(strings.NewReader("missing")),
			Header:     http.Header{},
		}, nil
	})
	client := NewClient(WithHTTPClient(&http.Client{Transport: rt}))

	_, err := client.States(context.Background())
	if !pkgerrors.HasCode(err, pkgerrors.CodeRemoteFetch) {
		t.Fatalf("expected remote fetch error, got %v", err)
	}
}

func TestClientMalformedBody(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader("{not json")),
			Header:     http.Header{},
		}, nil
	})
	client := NewClient(WithHTTPClient(&http.Client{Transport: rt}))

	if _, err := client.States(context.Background()); !pkgerrors.HasCode(err, pkgerrors.CodeRemoteFetch) {
		t.Fatalf("expected remote fetch error, got %v", err)
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
