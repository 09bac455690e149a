package routing

import (
	"context"

	"routesmith/internal/vrp"
)

// Static serves fixed matrices regardless of profile, mainly for tests and
// for problems with synthetic geometry.
type Static struct {
	Matrices Matrices
}

func (s *Static) Name() string { return "static" }

func (s *Static) Table(_ context.Context, _ string, coords [][2]float64) (Matrices, error) {
	if s.Matrices.Durations == nil || s.Matrices.Durations.Size() < len(coords) {
		return Matrices{}, &vrp.RoutingError{Msg: "static: matrix smaller than coordinate list"}
	}
	return s.Matrices, nil
}
