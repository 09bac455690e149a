package vrp

// Location refers to a row/column of the cost matrices. Coordinates are
// advisory: the engine only ever consults Index; coords feed matrix
// providers and are echoed back in the output.
type Location struct {
	Index  int
	Coords *[2]float64 // lon, lat
}

// NewIndexLocation builds a location already resolved to a matrix rank.
func NewIndexLocation(index int) Location { return Location{Index: index} }

// NewCoordLocation builds a coordinate-only location; its Index is assigned
// when a matrix provider resolves the problem.
func NewCoordLocation(lon, lat float64) Location {
	return Location{Index: -1, Coords: &[2]float64{lon, lat}}
}

// HasIndex reports whether the location is resolved against the matrices.
func (l Location) HasIndex() bool { return l.Index >= 0 }
