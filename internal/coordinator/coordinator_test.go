package coordinator

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowdag/flowdag/internal/domain"
	"github.com/flowdag/flowdag/internal/executor"
	"github.com/flowdag/flowdag/internal/worker"
)

func TestCoordinator_SubmitRun_DistributedExecutionViaWorker(t *testing.T) {
	log := zerolog.Nop()
	coord := New(Options{HeartbeatInterval: 50 * time.Millisecond, MissedHeartbeats: 3}, log, nil)
	srv := httptest.NewServer(NewServer(coord, log))
	defer srv.Close()

	reg := executor.NewRegistry(executor.Dependencies{})
	w := worker.New("worker-1", srv.URL, "http://worker-1.local", reg, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx, 50*time.Millisecond)

	wf := &domain.WorkflowDescriptor{
		Nodes: []domain.NodeDescriptor{
			{ID: "a", Kind: domain.NodeAssign, Params: map[string]any{"assignments": []any{
				map[string]any{"key": "x", "value": 1},
			}}},
			{ID: "b", Kind: domain.NodeDelay, Needs: []string{"a"}, Params: map[string]any{"milliseconds": 1}},
		},
	}

	runID, err := coord.SubmitRun(wf, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		run, ok := coord.GetRun(runID)
		return ok && run.Status == RunSucceeded
	}, 5*time.Second, 20*time.Millisecond)

	run, _ := coord.GetRun(runID)
	assert.Len(t, run.Outputs, 2)
}

func TestCoordinator_ClaimTask_FIFOOrder(t *testing.T) {
	log := zerolog.Nop()
	coord := New(Options{}, log, nil)
	coord.Register("w1", "addr")

	coord.reg.mu.Lock()
	coord.reg.tasks["t1"] = &Task{ID: "t1", Status: TaskQueued}
	coord.reg.tasks["t2"] = &Task{ID: "t2", Status: TaskQueued}
	coord.reg.queue = []string{"t1", "t2"}
	coord.reg.mu.Unlock()

	task, ok := coord.ClaimTask("w1")
	require.True(t, ok)
	assert.Equal(t, "t1", task.ID)

	task, ok = coord.ClaimTask("w1")
	require.True(t, ok)
	assert.Equal(t, "t2", task.ID)

	_, ok = coord.ClaimTask("w1")
	assert.False(t, ok)
}

func TestCoordinator_CompleteTask_FirstResultWins(t *testing.T) {
	log := zerolog.Nop()
	coord := New(Options{}, log, nil)
	ch := make(chan taskOutcome, 1)

	coord.waitersMu.Lock()
	coord.waiters["t1"] = ch
	coord.waitersMu.Unlock()

	coord.CompleteTask("t1", "w1", "first", "")
	coord.CompleteTask("t1", "w2", "second", "")

	outcome := <-ch
	assert.Equal(t, "first", outcome.output)

	select {
	case <-ch:
		t.Fatal("second completion must be ignored, not delivered")
	default:
	}
}

func TestCoordinator_MissingWorkerHeartbeatFails(t *testing.T) {
	log := zerolog.Nop()
	assert.False(t, New(Options{}, log, nil).Heartbeat("ghost"))
}
