package engine

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"routesmith/internal/vrp"
)

// mustModel parses and freezes a problem document for tests.
func mustModel(t *testing.T, doc string) *vrp.Model {
	t.Helper()
	in, err := vrp.ParseProblem([]byte(doc))
	require.NoError(t, err)
	m, err := in.Freeze()
	require.NoError(t, err)
	return m
}

// threeStopDoc is one vehicle at index 0 with two jobs at indices 1 and 2.
const threeStopDoc = `{
  "vehicles": [{"id": 1, "start_index": 0, "end_index": 0}],
  "jobs": [
    {"id": 1, "location_index": 1},
    {"id": 2, "location_index": 2}
  ],
  "matrices": {"car": {"durations": [[0, 10, 20], [10, 0, 15], [20, 15, 0]]}}
}`

// lineDoc builds vehicles at index 0 and n jobs spread over a line where
// travel between i and j costs |i-j| seconds.
func lineDoc(t *testing.T, vehicles, jobs int, extraVehicle string) *vrp.Model {
	t.Helper()
	n := jobs + 1
	doc := `{"vehicles": [`
	for v := 0; v < vehicles; v++ {
		if v > 0 {
			doc += ","
		}
		doc += `{"id": ` + itoa(v+1) + `, "start_index": 0, "end_index": 0` + extraVehicle + `}`
	}
	doc += `], "jobs": [`
	for j := 0; j < jobs; j++ {
		if j > 0 {
			doc += ","
		}
		doc += `{"id": ` + itoa(j+1) + `, "location_index": ` + itoa(j+1) + `}`
	}
	doc += `], "matrices": {"car": {"durations": [`
	for i := 0; i < n; i++ {
		if i > 0 {
			doc += ","
		}
		doc += `[`
		for j := 0; j < n; j++ {
			if j > 0 {
				doc += ","
			}
			d := i - j
			if d < 0 {
				d = -d
			}
			doc += itoa(d)
		}
		doc += `]`
	}
	doc += `]}}}`
	return mustModel(t, doc)
}

func itoa(n int) string { return strconv.Itoa(n) }

// assertConsistent checks the structural invariants of a solution: every
// job is either assigned exactly once or unassigned, cached metrics match a
// fresh walk, and every non-empty route is feasible.
func assertConsistent(t *testing.T, e *Evaluator, s *Solution) {
	t.Helper()
	seen := map[int]int{}
	for v, r := range s.Routes {
		mt := e.Steps(r.V, r.Steps)
		require.Equal(t, mt, r.Metrics, "cached metrics diverge on route %d", v)
		if !r.Empty() {
			require.True(t, mt.OK, "route %d is infeasible", v)
		}
		for _, st := range r.Steps {
			if st.Kind == StepJob {
				seen[st.Rank]++
				require.Equal(t, v, s.VehicleOf[st.Rank])
			}
		}
	}
	for rank := range s.M.Jobs {
		if _, un := s.Unassigned[rank]; un {
			require.Equal(t, -1, s.VehicleOf[rank])
			require.Zero(t, seen[rank], "job %d both assigned and unassigned", rank)
		} else {
			require.Equal(t, 1, seen[rank], "job %d assigned %d times", rank, seen[rank])
		}
	}
}
