package solver

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routesmith/internal/vrp"
)

func TestSolveEndToEnd(t *testing.T) {
	doc := []byte(`{
	  "vehicles": [{"id": 1, "start_index": 0, "end_index": 0, "capacity": [4]}],
	  "jobs": [
	    {"id": 1, "location_index": 1, "delivery": [1]},
	    {"id": 2, "location_index": 2, "delivery": [1]}
	  ],
	  "matrices": {"car": {"durations": [[0, 10, 20], [10, 0, 15], [20, 15, 0]]}}
	}`)
	out, err := Solve(context.Background(), doc, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, vrp.CodeOK, out.Code)
	assert.Equal(t, 1, out.Summary.Routes)
	assert.Zero(t, out.Summary.Unassigned)
	assert.Equal(t, int64(45), out.Summary.Cost)
	assert.Equal(t, vrp.CodeOK, ExitCode(out, nil))
}

func TestSolveBadDocument(t *testing.T) {
	out, err := Solve(context.Background(), []byte(`{"jobs": []}`), DefaultOptions())
	require.Nil(t, out)
	var inputErr *vrp.InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, vrp.CodeInput, ExitCode(out, err))
}

func TestSolveBadJSON(t *testing.T) {
	_, err := Solve(context.Background(), []byte(`{not json`), DefaultOptions())
	var inputErr *vrp.InputError
	require.ErrorAs(t, err, &inputErr)
}

func TestSolveCoordinatesWithoutProvider(t *testing.T) {
	doc := []byte(`{
	  "vehicles": [{"id": 1, "start": [1.0, 1.0]}],
	  "jobs": [{"id": 1, "location": [2.0, 2.0]}]
	}`)
	out, err := Solve(context.Background(), doc, DefaultOptions())
	var rerr *vrp.RoutingError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, vrp.CodeRouting, ExitCode(out, err))
}

func TestExitCodeMapping(t *testing.T) {
	assert.Equal(t, vrp.CodeOK, ExitCode(&vrp.Output{}, nil))
	assert.Equal(t, vrp.CodeNoSolution, ExitCode(&vrp.Output{Code: vrp.CodeNoSolution}, nil))
	assert.Equal(t, vrp.CodeInput, ExitCode(nil, &vrp.InputError{Msg: "bad"}))
	assert.Equal(t, vrp.CodeRouting, ExitCode(nil, &vrp.RoutingError{Msg: "down"}))
	assert.Equal(t, vrp.CodeInternal, ExitCode(nil, errors.New("boom")))
}
