package vrp

// VehicleEval looks up travel duration, distance and cost between location
// ranks for one vehicle, applying its speed factor and cost model. It never
// reaches outside the matrices; missing edges surface as InfiniteCost.
type VehicleEval struct {
	durations *Matrix
	distances *Matrix
	costs     *Matrix
	speed     float64
	perHour   int64
	perKM     int64
}

// Duration returns the speed-adjusted travel time in ticks.
func (e *VehicleEval) Duration(i, j int) int64 {
	d := e.durations.At(i, j)
	if d >= InfiniteUserCost {
		return InfiniteCost
	}
	t := ScaleDuration(d)
	if e.speed != 1 {
		t = int64(float64(t)/e.speed + 0.5)
	}
	return t
}

// Distance returns the travel distance in meters, 0 when no distance matrix
// was provided.
func (e *VehicleEval) Distance(i, j int) int64 {
	if e.distances == nil {
		return 0
	}
	d := e.distances.At(i, j)
	if d >= InfiniteUserCost {
		return InfiniteCost
	}
	return d
}

// Cost returns the scaled travel cost. An explicit cost matrix wins;
// otherwise cost derives from duration (per_hour) and distance (per_km).
func (e *VehicleEval) Cost(i, j int) int64 {
	if e.costs != nil {
		c := e.costs.At(i, j)
		if c >= InfiniteUserCost {
			return InfiniteCost
		}
		return ScaleCost(c)
	}
	d := e.Duration(i, j)
	if d >= InfiniteCost {
		return InfiniteCost
	}
	c := e.perHour * d
	if e.perKM != 0 && e.distances != nil {
		c += e.perKM * DistanceFactor * e.Distance(i, j)
	}
	return c
}
