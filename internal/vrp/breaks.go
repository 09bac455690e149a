package vrp

// Break is a vehicle-local rest step with its own windows and duration.
// It has no location: it happens wherever the vehicle currently is. MaxLoad,
// when non-nil, bounds the load carried while the break is taken.
type Break struct {
	ID          uint64
	TWs         []TimeWindow
	Service     int64
	Description string
	MaxLoad     Amount
}
