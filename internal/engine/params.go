package engine

import "routesmith/internal/vrp"

// HeuristicType selects the construction strategy of one search seed.
type HeuristicType int

const (
	HeuristicBasic HeuristicType = iota
	HeuristicDynamic
	HeuristicInitRoutes
)

// InitPolicy seeds the first job of each empty vehicle.
type InitPolicy int

const (
	InitNone InitPolicy = iota
	InitHigherAmount
	InitNearest
	InitFurthest
	InitEarliestDeadline
)

// SortPolicy orders vehicles during seeding.
type SortPolicy int

const (
	SortAvailability SortPolicy = iota // by time-window start, then id
	SortCost                           // by fixed cost, then id
)

// Parameters is one heuristic seed configuration.
type Parameters struct {
	Heuristic   HeuristicType
	Init        InitPolicy
	RegretCoeff float64
	Sort        SortPolicy
}

// canonicalParams is the fixed exploration list. The exploration level picks
// a deterministic prefix; the list interleaves greedy and regret seeds so
// low levels still cover both families.
var canonicalParams = []Parameters{
	{HeuristicBasic, InitHigherAmount, 0, SortAvailability},
	{HeuristicDynamic, InitNone, 0.3, SortCost},
	{HeuristicBasic, InitNearest, 0, SortAvailability},
	{HeuristicDynamic, InitHigherAmount, 0.5, SortCost},
	{HeuristicBasic, InitEarliestDeadline, 0, SortAvailability},
	{HeuristicDynamic, InitNearest, 1.0, SortCost},
	{HeuristicBasic, InitNone, 0, SortCost},
	{HeuristicDynamic, InitEarliestDeadline, 1.5, SortAvailability},
	{HeuristicBasic, InitFurthest, 0, SortAvailability},
	{HeuristicDynamic, InitNone, 0.9, SortCost},
	{HeuristicDynamic, InitHigherAmount, 0.1, SortAvailability},
	{HeuristicDynamic, InitNearest, 0.7, SortCost},
	{HeuristicBasic, InitHigherAmount, 0, SortCost},
	{HeuristicDynamic, InitEarliestDeadline, 0.4, SortCost},
	{HeuristicDynamic, InitFurthest, 1.2, SortAvailability},
	{HeuristicDynamic, InitNone, 2.0, SortCost},
	{HeuristicBasic, InitNearest, 0, SortCost},
	{HeuristicDynamic, InitHigherAmount, 1.8, SortCost},
	{HeuristicDynamic, InitNearest, 0.2, SortAvailability},
	{HeuristicDynamic, InitEarliestDeadline, 0.8, SortCost},
	{HeuristicBasic, InitEarliestDeadline, 0, SortCost},
	{HeuristicDynamic, InitFurthest, 0.6, SortCost},
	{HeuristicDynamic, InitNone, 1.4, SortAvailability},
	{HeuristicDynamic, InitHigherAmount, 2.4, SortCost},
	{HeuristicBasic, InitFurthest, 0, SortCost},
	{HeuristicDynamic, InitNearest, 1.6, SortCost},
	{HeuristicDynamic, InitEarliestDeadline, 2.0, SortAvailability},
	{HeuristicDynamic, InitNone, 0.5, SortAvailability},
	{HeuristicDynamic, InitHigherAmount, 1.0, SortAvailability},
	{HeuristicDynamic, InitFurthest, 2.4, SortCost},
	{HeuristicDynamic, InitEarliestDeadline, 1.2, SortCost},
	{HeuristicDynamic, InitNearest, 2.4, SortAvailability},
}

// levelCounts maps exploration level to the canonical prefix length.
var levelCounts = [vrp.MaxExplorationLevel + 1]int{2, 4, 8, 16, 24, 32}

// ParameterSets returns the heuristic seeds to run at a given exploration
// level. Problems with user-forced steps get an INIT_ROUTES seed first so
// forced routes are always honored by at least one worker.
func ParameterSets(m *vrp.Model, level int) []Parameters {
	if level < 0 {
		level = 0
	}
	if level > vrp.MaxExplorationLevel {
		level = vrp.MaxExplorationLevel
	}
	out := make([]Parameters, 0, levelCounts[level]+1)
	forced := false
	for vi := range m.Vehicles {
		if len(m.Vehicles[vi].Steps) > 0 {
			forced = true
			break
		}
	}
	if forced {
		out = append(out, Parameters{Heuristic: HeuristicInitRoutes})
	}
	out = append(out, canonicalParams[:levelCounts[level]]...)
	return out
}
