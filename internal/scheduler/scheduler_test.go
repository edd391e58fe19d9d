package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGraph_DetectsCycle(t *testing.T) {
	_, err := NewGraph([]string{"a", "b"}, map[string][]string{
		"a": {"b"},
		"b": {"a"},
	})
	require.Error(t, err)
}

func TestNewGraph_RejectsUnknownDependency(t *testing.T) {
	_, err := NewGraph([]string{"a"}, map[string][]string{
		"a": {"ghost"},
	})
	require.Error(t, err)
}

func TestRun_DiamondDAG_RespectsOrder(t *testing.T) {
	// a -> b, a -> c, b and c -> d
	g, err := NewGraph([]string{"a", "b", "c", "d"}, map[string][]string{
		"b": {"a"},
		"c": {"a"},
		"d": {"b", "c"},
	})
	require.NoError(t, err)

	var mu sync.Mutex
	var order []string
	completed := map[string]bool{}

	dispatch := func(ctx context.Context, id string) error {
		mu.Lock()
		if id == "d" {
			require.True(t, completed["b"] && completed["c"], "d must not start before both b and c finish")
		}
		mu.Unlock()

		time.Sleep(time.Millisecond)

		mu.Lock()
		order = append(order, id)
		completed[id] = true
		mu.Unlock()
		return nil
	}

	res := Run(context.Background(), g, dispatch, Options{MaxConcurrency: 2})
	assert.Empty(t, res.Failed)
	assert.Empty(t, res.Skipped)
	assert.ElementsMatch(t, []string{"a", "b", "c", "d"}, res.Succeeded)
	assert.Equal(t, "a", order[0])
	assert.Equal(t, "d", order[3])
}

func TestRun_FailureSkipsNotYetStartedNodes(t *testing.T) {
	g, err := NewGraph([]string{"a", "b", "c"}, map[string][]string{
		"b": {"a"},
		"c": {"b"},
	})
	require.NoError(t, err)

	dispatch := func(ctx context.Context, id string) error {
		if id == "a" {
			return errors.New("boom")
		}
		return nil
	}

	res := Run(context.Background(), g, dispatch, Options{})
	require.Len(t, res.Failed, 1)
	assert.Contains(t, res.Failed, "a")
	assert.ElementsMatch(t, []string{"b", "c"}, res.Skipped)
	assert.Empty(t, res.Succeeded)
}

func TestRun_BoundsConcurrency(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e", "f"}
	g, err := NewGraph(ids, nil)
	require.NoError(t, err)

	var current, peak int32
	dispatch := func(ctx context.Context, id string) error {
		n := atomic.AddInt32(&current, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&current, -1)
		return nil
	}

	res := Run(context.Background(), g, dispatch, Options{MaxConcurrency: 2})
	assert.Len(t, res.Succeeded, len(ids))
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestRun_IndependentNodesAllSucceed(t *testing.T) {
	g, err := NewGraph([]string{"a", "b", "c"}, nil)
	require.NoError(t, err)

	dispatch := func(ctx context.Context, id string) error { return nil }

	res := Run(context.Background(), g, dispatch, Options{})
	assert.ElementsMatch(t, []string{"a", "b", "c"}, res.Succeeded)
	assert.Empty(t, res.Failed)
	assert.Empty(t, res.Skipped)
}
