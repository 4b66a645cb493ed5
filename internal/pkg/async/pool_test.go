package async_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adima959/vl-marketing-tool-sub006/internal/pkg/async"
)

func TestExecuteRunsAllTasks(t *testing.T) {
	tasks := make([]async.Task, 0, 8)
	for i := 0; i < 8; i++ {
		name := fmt.Sprintf("query-%d", i)
		payload := i * 10
		tasks = append(tasks, async.Task{
			Name:    name,
			Execute: func() (interface{}, error) { return payload, nil },
		})
	}

	results := async.NewPool(3).Execute(context.Background(), tasks)

	require.Len(t, results, 8)
	for i := 0; i < 8; i++ {
		result, ok := results[fmt.Sprintf("query-%d", i)]
		require.True(t, ok)
		assert.NoError(t, result.Err)
		assert.Equal(t, i*10, result.Data)
	}
}

func TestExecuteReportsTaskErrors(t *testing.T) {
	boom := errors.New("connection reset")
	tasks := []async.Task{
		{Name: "visits", Execute: func() (interface{}, error) { return 42, nil }},
		{Name: "conversions", Execute: func() (interface{}, error) { return nil, boom }},
	}

	results := async.NewPool(2).Execute(context.Background(), tasks)

	require.Len(t, results, 2)
	assert.NoError(t, results["visits"].Err)
	assert.Equal(t, 42, results["visits"].Data)
	assert.ErrorIs(t, results["conversions"].Err, boom)
	assert.Nil(t, results["conversions"].Data)
}

func TestExecuteCancelledContextShortCircuits(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	executed := 0
	tasks := []async.Task{
		{Name: "a", Execute: func() (interface{}, error) { executed++; return nil, nil }},
		{Name: "b", Execute: func() (interface{}, error) { executed++; return nil, nil }},
		{Name: "c", Execute: func() (interface{}, error) { executed++; return nil, nil }},
	}

	results := async.NewPool(1).Execute(ctx, tasks)

	// Every task still yields a result so callers never block on a missing
	// name, but none of them ran.
	require.Len(t, results, 3)
	for name, result := range results {
		assert.ErrorIs(t, result.Err, context.Canceled, "task %s", name)
	}
	assert.Zero(t, executed)
}

func TestNewPoolFloorsWorkerCount(t *testing.T) {
	tasks := []async.Task{
		{Name: "only", Execute: func() (interface{}, error) { return "done", nil }},
	}

	results := async.NewPool(0).Execute(context.Background(), tasks)

	require.Len(t, results, 1)
	assert.Equal(t, "done", results["only"].Data)
}
