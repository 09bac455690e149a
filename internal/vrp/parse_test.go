package vrp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalDoc = `{
  "vehicles": [{"id": 1, "start_index": 0, "end_index": 0}],
  "jobs": [
    {"id": 1, "location_index": 1},
    {"id": 2, "location_index": 2}
  ],
  "matrices": {"car": {"durations": [[0, 10, 20], [10, 0, 15], [20, 15, 0]]}}
}`

func TestParseProblemDefaults(t *testing.T) {
	in, err := ParseProblem([]byte(minimalDoc))
	require.NoError(t, err)

	require.Len(t, in.Vehicles, 1)
	v := in.Vehicles[0]
	assert.Equal(t, DefaultProfile, v.Profile)
	assert.Equal(t, 1.0, v.SpeedFactor)
	assert.Equal(t, DefaultTimeWindow(), v.TW)
	assert.Equal(t, DefaultCostPerHour, v.Costs.PerHour)
	assert.Equal(t, UnlimitedTasks, v.MaxTasks)

	require.Len(t, in.Jobs, 2)
	j := in.Jobs[0]
	assert.Equal(t, JobSingle, j.Type)
	assert.Equal(t, 0, j.Priority)
	assert.Equal(t, []TimeWindow{DefaultTimeWindow()}, j.TWs)

	_, err = in.Freeze()
	require.NoError(t, err)
}

func TestParseExplicitZeroLimitsKept(t *testing.T) {
	// An explicit 0 is a real limit, not an omitted field.
	doc := `{
	  "vehicles": [{"id": 1, "start_index": 0, "max_tasks": 0, "max_travel_time": 0, "max_distance": 0}],
	  "jobs": [{"id": 1, "location_index": 1}],
	  "matrix": [[0, 5], [5, 0]]
	}`
	in, err := ParseProblem([]byte(doc))
	require.NoError(t, err)
	require.Len(t, in.Vehicles, 1)
	v := in.Vehicles[0]
	assert.Equal(t, 0, v.MaxTasks)
	assert.Equal(t, int64(0), v.MaxTravelTime)
	assert.Equal(t, int64(0), v.MaxDistance)
}

func TestParseDeprecatedMatrixKey(t *testing.T) {
	doc := `{
	  "vehicles": [{"id": 1, "start_index": 0}],
	  "jobs": [{"id": 1, "location_index": 1}],
	  "matrix": [[0, 5], [5, 0]]
	}`
	in, err := ParseProblem([]byte(doc))
	require.NoError(t, err)
	m, err := in.Freeze()
	require.NoError(t, err)
	assert.Equal(t, ScaleDuration(5), m.Eval(0).Duration(0, 1))
}

func TestParseLegacyAmountMeansDelivery(t *testing.T) {
	doc := `{
	  "vehicles": [{"id": 1, "start_index": 0, "capacity": [4]}],
	  "jobs": [{"id": 1, "location_index": 1, "amount": [2]}],
	  "matrix": [[0, 5], [5, 0]]
	}`
	in, err := ParseProblem([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, Amount{2}, in.Jobs[0].Delivery)
	assert.Equal(t, Amount{0}, in.Jobs[0].Pickup)
}

func TestParseExplicitDeliveryWinsOverAmount(t *testing.T) {
	doc := `{
	  "vehicles": [{"id": 1, "start_index": 0, "capacity": [4]}],
	  "jobs": [{"id": 1, "location_index": 1, "amount": [2], "delivery": [3]}],
	  "matrix": [[0, 5], [5, 0]]
	}`
	in, err := ParseProblem([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, Amount{3}, in.Jobs[0].Delivery)
}

func TestParseVehicleTimeWindowsExpansion(t *testing.T) {
	doc := `{
	  "vehicles": [{"id": 7, "start_index": 0, "time_windows": [[200, 300], [0, 100]]}],
	  "jobs": [{"id": 1, "location_index": 1}],
	  "matrix": [[0, 5], [5, 0]]
	}`
	in, err := ParseProblem([]byte(doc))
	require.NoError(t, err)
	require.Len(t, in.Vehicles, 2)
	assert.Equal(t, uint64(7), in.Vehicles[0].ID)
	assert.Equal(t, uint64(7), in.Vehicles[1].ID)
	// windows come out sorted by start
	assert.Equal(t, TimeWindow{Start: 0, End: ScaleDuration(100)}, in.Vehicles[0].TW)
	assert.Equal(t, TimeWindow{Start: ScaleDuration(200), End: ScaleDuration(300)}, in.Vehicles[1].TW)
}

func TestParseShipment(t *testing.T) {
	doc := `{
	  "vehicles": [{"id": 1, "start_index": 0, "capacity": [2]}],
	  "shipments": [{
	    "pickup": {"id": 3, "location_index": 1},
	    "delivery": {"id": 3, "location_index": 2},
	    "amount": [1],
	    "skills": [4],
	    "priority": 9
	  }],
	  "matrices": {"car": {"durations": [[0, 1, 2], [1, 0, 1], [2, 1, 0]]}}
	}`
	in, err := ParseProblem([]byte(doc))
	require.NoError(t, err)
	require.Len(t, in.Jobs, 2)

	p, d := in.Jobs[0], in.Jobs[1]
	assert.Equal(t, JobPickup, p.Type)
	assert.Equal(t, JobDelivery, d.Type)
	assert.Equal(t, Amount{1}, p.Pickup)
	assert.Equal(t, Amount{0}, p.Delivery)
	assert.Equal(t, Amount{1}, d.Delivery)
	assert.Equal(t, 9, p.Priority)
	assert.Equal(t, 9, d.Priority)
	assert.True(t, NewSkillSet([]uint32{4}).SubsetOf(p.Skills))

	m, err := in.Freeze()
	require.NoError(t, err)
	assert.Equal(t, 1, m.DeliveryOf[0])
	assert.Equal(t, 0, m.PickupOf[1])
	assert.Equal(t, -1, m.DeliveryOf[1])
}

func TestParseForcedStepsPinJobs(t *testing.T) {
	doc := `{
	  "vehicles": [
	    {"id": 1, "start_index": 0, "steps": [
	      {"type": "start"},
	      {"type": "job", "id": 2, "service_at": 30},
	      {"type": "end"}
	    ]},
	    {"id": 2, "start_index": 0}
	  ],
	  "jobs": [
	    {"id": 1, "location_index": 1},
	    {"id": 2, "location_index": 2}
	  ],
	  "matrices": {"car": {"durations": [[0, 10, 20], [10, 0, 15], [20, 15, 0]]}}
	}`
	in, err := ParseProblem([]byte(doc))
	require.NoError(t, err)
	m, err := in.Freeze()
	require.NoError(t, err)

	rank, ok := m.JobRank(JobSingle, 2)
	require.True(t, ok)
	pin, pinned := m.Pinned[rank]
	require.True(t, pinned)
	assert.Equal(t, 0, pin.Vehicle)
	require.True(t, pin.HasWindow)
	assert.Equal(t, TimeWindow{Start: ScaleDuration(30), End: ScaleDuration(30)}, pin.Window)

	// A pinned job is incompatible with every other vehicle.
	assert.True(t, m.Compatible(0, rank))
	assert.False(t, m.Compatible(1, rank))
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"no tasks":         `{"vehicles": [{"id": 1, "start_index": 0}]}`,
		"no vehicles":      `{"jobs": [{"id": 1, "location_index": 0}]}`,
		"missing job id":   `{"vehicles": [{"id": 1, "start_index": 0}], "jobs": [{"location_index": 0}], "matrix": [[0]]}`,
		"missing location": `{"vehicles": [{"id": 1, "start_index": 0}], "jobs": [{"id": 1}], "matrix": [[0]]}`,
		"bad priority":     `{"vehicles": [{"id": 1, "start_index": 0}], "jobs": [{"id": 1, "location_index": 0, "priority": 101}], "matrix": [[0]]}`,
		"bad time window":  `{"vehicles": [{"id": 1, "start_index": 0}], "jobs": [{"id": 1, "location_index": 0, "time_windows": [[10, 5]]}], "matrix": [[0]]}`,
		"ragged matrix":    `{"vehicles": [{"id": 1, "start_index": 0}], "jobs": [{"id": 1, "location_index": 1}], "matrix": [[0, 1], [1]]}`,
		"bad amount len":   `{"vehicles": [{"id": 1, "start_index": 0, "capacity": [1, 1]}], "jobs": [{"id": 1, "location_index": 0, "delivery": [1]}], "matrix": [[0]]}`,
		"bad speed factor": `{"vehicles": [{"id": 1, "start_index": 0, "speed_factor": -1}], "jobs": [{"id": 1, "location_index": 0}], "matrix": [[0]]}`,
		"bad step type":    `{"vehicles": [{"id": 1, "start_index": 0, "steps": [{"type": "detour", "id": 1}]}], "jobs": [{"id": 1, "location_index": 0}], "matrix": [[0]]}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseProblem([]byte(doc))
			require.Error(t, err)
			var inputErr *InputError
			assert.ErrorAs(t, err, &inputErr)
		})
	}
}

func TestFreezeErrors(t *testing.T) {
	t.Run("missing profile matrix", func(t *testing.T) {
		doc := `{
		  "vehicles": [{"id": 1, "start_index": 0, "profile": "truck"}],
		  "jobs": [{"id": 1, "location_index": 1}],
		  "matrices": {"car": {"durations": [[0, 1], [1, 0]]}}
		}`
		in, err := ParseProblem([]byte(doc))
		require.NoError(t, err)
		_, err = in.Freeze()
		require.ErrorContains(t, err, "truck")
	})

	t.Run("duplicate job id", func(t *testing.T) {
		doc := `{
		  "vehicles": [{"id": 1, "start_index": 0}],
		  "jobs": [{"id": 1, "location_index": 0}, {"id": 1, "location_index": 1}],
		  "matrix": [[0, 1], [1, 0]]
		}`
		in, err := ParseProblem([]byte(doc))
		require.NoError(t, err)
		_, err = in.Freeze()
		require.ErrorContains(t, err, "duplicate")
	})

	t.Run("index out of matrix range", func(t *testing.T) {
		doc := `{
		  "vehicles": [{"id": 1, "start_index": 0}],
		  "jobs": [{"id": 1, "location_index": 5}],
		  "matrix": [[0, 1], [1, 0]]
		}`
		in, err := ParseProblem([]byte(doc))
		require.NoError(t, err)
		_, err = in.Freeze()
		require.ErrorContains(t, err, "out of range")
	})

	t.Run("pin conflict across vehicles", func(t *testing.T) {
		doc := `{
		  "vehicles": [
		    {"id": 1, "start_index": 0, "steps": [{"type": "job", "id": 1}]},
		    {"id": 2, "start_index": 0, "steps": [{"type": "job", "id": 1}]}
		  ],
		  "jobs": [{"id": 1, "location_index": 1}],
		  "matrix": [[0, 1], [1, 0]]
		}`
		in, err := ParseProblem([]byte(doc))
		require.NoError(t, err)
		_, err = in.Freeze()
		require.ErrorContains(t, err, "several vehicles")
	})

	t.Run("coords without provider", func(t *testing.T) {
		doc := `{
		  "vehicles": [{"id": 1, "start": [2.35, 48.85]}],
		  "jobs": [{"id": 1, "location": [2.36, 48.86]}]
		}`
		in, err := ParseProblem([]byte(doc))
		require.NoError(t, err)
		require.True(t, in.HasUnresolvedLocations())
		_, err = in.Freeze()
		require.ErrorContains(t, err, "unresolved")
	})
}

func TestParseBreaksSortedByWindow(t *testing.T) {
	doc := `{
	  "vehicles": [{"id": 1, "start_index": 0, "breaks": [
	    {"id": 2, "time_windows": [[100, 200]], "service": 10},
	    {"id": 1, "time_windows": [[0, 50]], "service": 5}
	  ]}],
	  "jobs": [{"id": 1, "location_index": 1}],
	  "matrix": [[0, 1], [1, 0]]
	}`
	in, err := ParseProblem([]byte(doc))
	require.NoError(t, err)
	require.Len(t, in.Vehicles[0].Breaks, 2)
	assert.Equal(t, uint64(1), in.Vehicles[0].Breaks[0].ID)
	assert.Equal(t, uint64(2), in.Vehicles[0].Breaks[1].ID)
	assert.Equal(t, ScaleDuration(5), in.Vehicles[0].Breaks[0].Service)
}
