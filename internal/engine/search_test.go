package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routesmith/internal/vrp"
)

func TestLocalSearchReachesLocalOptimum(t *testing.T) {
	m := lineDoc(t, 2, 6, "")
	e := NewEvaluator(m)
	s := NewSolution(m, e)

	// Deliberately bad seed: alternate jobs across the two routes.
	for rank := 0; rank < 6; rank++ {
		s.Assign(e, rank, rank%2, s.Routes[rank%2].JobCount(), 0)
	}
	before := s.Cost()

	NewLocalSearch(e, s, time.Time{}).Run()

	assert.LessOrEqual(t, s.Cost(), before)
	assertConsistent(t, e, s)

	// A second descent from the reached state must find nothing.
	ls := NewLocalSearch(e, s, time.Time{})
	mv, ok := ls.bestMove()
	if ok {
		assert.False(t, mv.Gain.Improving())
	}
}

func TestLocalSearchIsDeterministic(t *testing.T) {
	run := func() int64 {
		m := lineDoc(t, 2, 6, "")
		e := NewEvaluator(m)
		s := NewSolution(m, e)
		for rank := 0; rank < 6; rank++ {
			s.Assign(e, rank, rank%2, s.Routes[rank%2].JobCount(), 0)
		}
		NewLocalSearch(e, s, time.Time{}).Run()
		return s.Cost()
	}
	assert.Equal(t, run(), run())
}

func TestLocalSearchRespectsDeadline(t *testing.T) {
	m := lineDoc(t, 2, 6, "")
	e := NewEvaluator(m)
	s := NewSolution(m, e)
	for rank := 0; rank < 6; rank++ {
		s.Assign(e, rank, rank%2, s.Routes[rank%2].JobCount(), 0)
	}
	before := s.Cost()

	// An already expired deadline must return without touching anything.
	NewLocalSearch(e, s, time.Now().Add(-time.Second)).Run()
	assert.Equal(t, before, s.Cost())
}

func TestRecoverInsertsStrandedJobs(t *testing.T) {
	m := lineDoc(t, 1, 4, "")
	e := NewEvaluator(m)
	s := NewSolution(m, e)
	// Nothing assigned; recovery alone should place all four.
	NewLocalSearch(e, s, time.Time{}).Run()
	assert.Empty(t, s.Unassigned)
	assertConsistent(t, e, s)
}

func TestRecoverPrefersHighPriority(t *testing.T) {
	doc := `{
	  "vehicles": [{"id": 1, "start_index": 0, "end_index": 0, "max_tasks": 1}],
	  "jobs": [
	    {"id": 1, "location_index": 1, "priority": 2},
	    {"id": 2, "location_index": 2, "priority": 8}
	  ],
	  "matrices": {"car": {"durations": [[0, 10, 20], [10, 0, 15], [20, 15, 0]]}}
	}`
	m := mustModel(t, doc)
	e := NewEvaluator(m)
	s := NewSolution(m, e)
	NewLocalSearch(e, s, time.Time{}).Run()

	rank2, _ := m.JobRank(vrp.JobSingle, 2)
	assert.Equal(t, 0, s.VehicleOf[rank2])
	require.Len(t, s.Unassigned, 1)
}
