// Package osrm provides access to an OSRM routing server. The toll core
// never calls this itself; the service layer uses it to turn a start/end
// pair into the route geometry the core consumes.
package osrm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nstankic/tollcalc/server/internal/lib/geo"
)

// DefaultBaseURL is the public OSRM demo server
const DefaultBaseURL = "https://router.project-osrm.org"

// Client provides access to the OSRM route API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an OSRM client. An empty baseURL uses the public demo
// server.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// RouteResult is a driving route between two points
type RouteResult struct {
	DistanceMeters float64
	Coords         []geo.Point
}

// Route requests a driving route from start to end and returns its total
// distance and decoded geometry
func (c *Client) Route(ctx context.Context, start, end geo.Point) (*RouteResult, error) {
	if !start.Valid() || !end.Valid() {
		return nil, fmt.Errorf("invalid route endpoints")
	}

	// OSRM takes lon,lat pairs
	requestURL := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?overview=full&geometries=polyline",
		c.baseURL, start.Lon, start.Lat, end.Lon, end.Lat)

	req, err := http.NewRequestWithContext(ctx, "GET", requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("OSRM error %d: %s", resp.StatusCode, string(body))
	}

	var response osrmRouteResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if response.Code != "Ok" || len(response.Routes) == 0 {
		return nil, fmt.Errorf("no route found (code %q)", response.Code)
	}

	route := response.Routes[0]
	coords, err := geo.DecodePolyline(route.Geometry)
	if err != nil {
		return nil, fmt.Errorf("failed to decode route geometry: %w", err)
	}

	return &RouteResult{
		DistanceMeters: route.Distance,
		Coords:         coords,
	}, nil
}

// osrmRouteResponse is the subset of the OSRM route response we consume
type osrmRouteResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"`
		Geometry string  `json:"geometry"`
	} `json:"routes"`
}
