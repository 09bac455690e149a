package vrp

import "math"

// All engine arithmetic is exact integer arithmetic on scaled values.
// User durations are seconds, user distances are meters, user costs are
// derived from per-hour vehicle costs. Internally durations are hundredths
// of a second and costs are scaled so that a per-hour cost of 3600 makes
// cost equal to duration in user units.
const (
	DurationFactor int64 = 100
	DistanceFactor int64 = 360
	CostFactor     int64 = 3600

	DefaultCostPerHour int64 = 3600
	DefaultCostPerKM   int64 = 0

	MaxPriority    = 100
	MaxSpeedFactor = 5.0

	DefaultProfile = "car"

	MaxExplorationLevel     = 5
	DefaultExplorationLevel = 5
	DefaultThreads          = 4
)

// InfiniteUserCost marks a missing edge in a user matrix. Set to 3*max/4 so
// that adding two finite values to it cannot overflow the matrix domain.
const InfiniteUserCost int64 = 3 * (math.MaxUint32 / 4)

// InfiniteCost is the internal missing-edge sentinel, likewise kept at
// 3*max/4 to stay addition-safe.
const InfiniteCost int64 = 3 * (math.MaxInt64 / 4)

// ScaleDuration converts user seconds to internal ticks.
func ScaleDuration(d int64) int64 { return d * DurationFactor }

// UserDuration converts internal ticks back to user seconds.
func UserDuration(d int64) int64 { return d / DurationFactor }

// ScaleCost converts a user cost value to the internal cost scale.
func ScaleCost(c int64) int64 { return c * DurationFactor * CostFactor }

// UserCost converts an internal cost back to user units.
func UserCost(c int64) int64 { return c / (DurationFactor * CostFactor) }
