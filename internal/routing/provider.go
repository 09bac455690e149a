// Package routing resolves coordinate-only problems into cost matrices by
// calling an external routing engine (or echoing embedded matrices).
package routing

import (
	"context"

	"routesmith/internal/vrp"
)

// Matrices is one provider response: durations in seconds, distances in
// meters. Distances may be nil when the engine does not report them.
type Matrices struct {
	Durations *vrp.Matrix
	Distances *vrp.Matrix
}

// MatrixProvider computes travel matrices for a list of [lon, lat]
// coordinates under a named profile.
type MatrixProvider interface {
	Name() string
	Table(ctx context.Context, profile string, coords [][2]float64) (Matrices, error)
}

// Resolve fills in the matrices of an input whose locations are
// coordinate-only. Inputs that already carry matrices pass through
// untouched.
func Resolve(ctx context.Context, in *vrp.Input, p MatrixProvider) error {
	if !in.HasUnresolvedLocations() {
		return nil
	}
	if p == nil {
		return &vrp.RoutingError{Msg: "coordinates given but no routing provider configured"}
	}
	coords := in.Locations()
	profiles := map[string]struct{}{}
	for i := range in.Vehicles {
		profiles[in.Vehicles[i].Profile] = struct{}{}
	}
	for profile := range profiles {
		m, err := p.Table(ctx, profile, coords)
		if err != nil {
			return err
		}
		in.SetDurationsMatrix(profile, m.Durations)
		if m.Distances != nil {
			in.SetDistancesMatrix(profile, m.Distances)
		}
	}
	return nil
}
