package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"routesmith/internal/vrp"
)

// OSRM queries an OSRM server's /table service.
type OSRM struct {
	BaseURL string
	HTTP    *http.Client
}

// NewOSRM builds an adapter against one OSRM base URL.
func NewOSRM(baseURL string) *OSRM {
	return &OSRM{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (o *OSRM) Name() string { return "osrm" }

type osrmTable struct {
	Code      string       `json:"code"`
	Message   string       `json:"message"`
	Durations [][]*float64 `json:"durations"`
	Distances [][]*float64 `json:"distances"`
}

// Table calls /table/v1/{profile}/{coords} with duration and distance
// annotations. Unroutable pairs come back null and turn into the infinite
// sentinel.
func (o *OSRM) Table(ctx context.Context, profile string, coords [][2]float64) (Matrices, error) {
	if len(coords) == 0 {
		return Matrices{}, &vrp.RoutingError{Msg: "osrm: empty coordinate list"}
	}
	var sb strings.Builder
	for i, c := range coords {
		if i > 0 {
			sb.WriteByte(';')
		}
		fmt.Fprintf(&sb, "%f,%f", c[0], c[1])
	}
	url := fmt.Sprintf("%s/table/v1/%s/%s?annotations=duration,distance",
		o.BaseURL, profile, sb.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Matrices{}, &vrp.RoutingError{Msg: "osrm: " + err.Error()}
	}
	resp, err := o.HTTP.Do(req)
	if err != nil {
		return Matrices{}, &vrp.RoutingError{Msg: "osrm: " + err.Error()}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Matrices{}, &vrp.RoutingError{Msg: fmt.Sprintf("osrm: unexpected status %d", resp.StatusCode)}
	}
	var body osrmTable
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Matrices{}, &vrp.RoutingError{Msg: "osrm: decode: " + err.Error()}
	}
	if body.Code != "Ok" {
		return Matrices{}, &vrp.RoutingError{Msg: "osrm: " + body.Code + " " + body.Message}
	}
	dur, err := floatTable(body.Durations, len(coords))
	if err != nil {
		return Matrices{}, &vrp.RoutingError{Msg: "osrm: durations: " + err.Error()}
	}
	out := Matrices{Durations: dur}
	if body.Distances != nil {
		dist, err := floatTable(body.Distances, len(coords))
		if err != nil {
			return Matrices{}, &vrp.RoutingError{Msg: "osrm: distances: " + err.Error()}
		}
		out.Distances = dist
	}
	return out, nil
}

// floatTable converts a float table with optional nulls into an integer
// matrix, rounding and mapping nulls to the infinite sentinel.
func floatTable(rows [][]*float64, n int) (*vrp.Matrix, error) {
	if len(rows) != n {
		return nil, fmt.Errorf("expected %d rows, got %d", n, len(rows))
	}
	m := vrp.NewMatrix(n, 0)
	for i, row := range rows {
		if len(row) != n {
			return nil, fmt.Errorf("row %d has %d entries, want %d", i, len(row), n)
		}
		for j, v := range row {
			if v == nil {
				m.Set(i, j, vrp.InfiniteUserCost)
				continue
			}
			m.Set(i, j, int64(*v+0.5))
		}
	}
	return m, nil
}
