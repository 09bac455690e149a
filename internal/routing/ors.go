package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"routesmith/internal/vrp"
)

// ORS queries an openrouteservice matrix endpoint.
type ORS struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

// NewORS builds an adapter against an openrouteservice deployment.
func NewORS(baseURL, apiKey string) *ORS {
	return &ORS{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (o *ORS) Name() string { return "ors" }

// orsProfiles maps solver profile names onto ORS profile identifiers.
var orsProfiles = map[string]string{
	"car":     "driving-car",
	"truck":   "driving-hgv",
	"bike":    "cycling-regular",
	"walking": "foot-walking",
}

type orsMatrixRequest struct {
	Locations [][2]float64 `json:"locations"`
	Metrics   []string     `json:"metrics"`
}

type orsMatrixResponse struct {
	Durations [][]*float64 `json:"durations"`
	Distances [][]*float64 `json:"distances"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Table calls POST /v2/matrix/{profile} asking for both metrics.
func (o *ORS) Table(ctx context.Context, profile string, coords [][2]float64) (Matrices, error) {
	if len(coords) == 0 {
		return Matrices{}, &vrp.RoutingError{Msg: "ors: empty coordinate list"}
	}
	orsProfile, ok := orsProfiles[profile]
	if !ok {
		orsProfile = profile
	}
	payload, err := json.Marshal(orsMatrixRequest{
		Locations: coords,
		Metrics:   []string{"duration", "distance"},
	})
	if err != nil {
		return Matrices{}, &vrp.RoutingError{Msg: "ors: " + err.Error()}
	}
	url := o.BaseURL + "/v2/matrix/" + orsProfile
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return Matrices{}, &vrp.RoutingError{Msg: "ors: " + err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	if o.APIKey != "" {
		req.Header.Set("Authorization", o.APIKey)
	}
	resp, err := o.HTTP.Do(req)
	if err != nil {
		return Matrices{}, &vrp.RoutingError{Msg: "ors: " + err.Error()}
	}
	defer resp.Body.Close()
	var body orsMatrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Matrices{}, &vrp.RoutingError{Msg: "ors: decode: " + err.Error()}
	}
	if resp.StatusCode != http.StatusOK {
		msg := fmt.Sprintf("ors: unexpected status %d", resp.StatusCode)
		if body.Error != nil && body.Error.Message != "" {
			msg += ": " + body.Error.Message
		}
		return Matrices{}, &vrp.RoutingError{Msg: msg}
	}
	dur, err := floatTable(body.Durations, len(coords))
	if err != nil {
		return Matrices{}, &vrp.RoutingError{Msg: "ors: durations: " + err.Error()}
	}
	out := Matrices{Durations: dur}
	if body.Distances != nil {
		dist, err := floatTable(body.Distances, len(coords))
		if err != nil {
			return Matrices{}, &vrp.RoutingError{Msg: "ors: distances: " + err.Error()}
		}
		out.Distances = dist
	}
	return out, nil
}
