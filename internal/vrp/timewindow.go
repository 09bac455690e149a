package vrp

import "math"

// DefaultTWEnd is the scaled horizon used when no time window is provided.
const DefaultTWEnd = int64(math.MaxUint32) * DurationFactor

// TimeWindow is a half-open service window in internal ticks, Start <= End.
type TimeWindow struct {
	Start int64
	End   int64
}

// DefaultTimeWindow covers the whole planning horizon.
func DefaultTimeWindow() TimeWindow { return TimeWindow{Start: 0, End: DefaultTWEnd} }

// Contains reports whether t lies within the window.
func (tw TimeWindow) Contains(t int64) bool { return tw.Start <= t && t <= tw.End }

// Intersect returns the overlap of two windows and whether it is non-empty.
func (tw TimeWindow) Intersect(o TimeWindow) (TimeWindow, bool) {
	s, e := tw.Start, tw.End
	if o.Start > s {
		s = o.Start
	}
	if o.End < e {
		e = o.End
	}
	return TimeWindow{Start: s, End: e}, s <= e
}

// checkTWs validates a sorted time-window list: bounds ordered within each
// window, no overlap between consecutive windows.
func checkTWs(tws []TimeWindow, id uint64, kind string) error {
	if len(tws) == 0 {
		return inputErrorf("empty time_windows for %s %d", kind, id)
	}
	for i, tw := range tws {
		if tw.Start > tw.End {
			return inputErrorf("invalid time window for %s %d", kind, id)
		}
		if i > 0 && tw.Start <= tws[i-1].End {
			return inputErrorf("overlapping time windows for %s %d", kind, id)
		}
	}
	return nil
}
