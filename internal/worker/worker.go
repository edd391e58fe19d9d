// Package worker implements the distributed worker side of the run
// protocol (spec §4.7): a POST /execute endpoint hosting the same node
// handlers the local run orchestrator uses, periodic heartbeat emission
// to a coordinator, and cooperative cancellation via POST /cancel/{run_id}.
package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/flowdag/flowdag/internal/domain"
	"github.com/flowdag/flowdag/internal/executor"
)

// Worker executes nodes on behalf of a coordinator (pull mode, via Run)
// or directly over its own HTTP API (push mode, via the Server type's
// ServeHTTP).
type Worker struct {
	ID             string
	CoordinatorURL string
	Addr           string
	Registry       *executor.Registry
	Log            zerolog.Logger
	HTTPClient     *http.Client

	cancelMu sync.Mutex
	cancels  map[string]context.CancelFunc
}

// New creates a Worker. Registry must already be populated (see
// executor.NewRegistry).
func New(id, coordinatorURL, addr string, reg *executor.Registry, log zerolog.Logger) *Worker {
	return &Worker{
		ID:             id,
		CoordinatorURL: coordinatorURL,
		Addr:           addr,
		Registry:       reg,
		Log:            log,
		HTTPClient:     &http.Client{Timeout: 30 * time.Second},
		cancels:        make(map[string]context.CancelFunc),
	}
}

// Run registers with the coordinator, starts the heartbeat loop, and
// polls for tasks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context, heartbeatInterval time.Duration) error {
	if err := w.register(ctx); err != nil {
		return err
	}

	go w.heartbeatLoop(ctx, heartbeatInterval)

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.pollOnce(ctx)
		}
	}
}

type claimResponse struct {
	ID     string                `json:"id"`
	RunID  string                `json:"run_id"`
	Node   domain.NodeDescriptor `json:"node"`
	Params map[string]any        `json:"params"`
}

func (w *Worker) pollOnce(ctx context.Context) {
	var task claimResponse
	status, err := w.postJSON(ctx, "/claim", map[string]string{"worker_id": w.ID}, &task)
	if err != nil {
		w.Log.Warn().Err(err).Msg("failed to claim task")
		return
	}
	if status == http.StatusNoContent || task.ID == "" {
		return
	}

	taskCtx, cancel := context.WithCancel(ctx)
	w.cancelMu.Lock()
	w.cancels[task.RunID] = cancel
	w.cancelMu.Unlock()
	defer func() {
		cancel()
		w.cancelMu.Lock()
		delete(w.cancels, task.RunID)
		w.cancelMu.Unlock()
	}()

	output, execErr := w.execute(taskCtx, task.Node, task.Params)

	complete := map[string]any{
		"task_id":   task.ID,
		"worker_id": w.ID,
		"output":    output,
	}
	if execErr != nil {
		complete["error"] = execErr.Error()
	}
	if _, _, err := w.post(ctx, "/complete", complete); err != nil {
		w.Log.Warn().Err(err).Msg("failed to report task completion")
	}
}

// execute runs node's handler directly. A worker has no workflow-wide
// memory store of its own (distributed tasks arrive with params already
// resolved by the coordinator, per §4.6/§4.7) — handlers that need a
// store (assign, switch, loop) get an ephemeral, empty one scoped to this
// single dispatch.
func (w *Worker) execute(ctx context.Context, node domain.NodeDescriptor, params map[string]any) (any, error) {
	handler, ok := w.Registry.Get(node.Kind)
	if !ok {
		return nil, domain.NewNodeError(domain.ErrLoad, node.ID, fmt.Sprintf("no handler for kind %q", node.Kind), nil)
	}

	rt := &executor.Runtime{
		Store:    domain.NewStore(nil),
		Resolver: nil,
		Log:      w.Log,
		Registry: w.Registry,
	}

	return handler.Handle(ctx, node, params, rt)
}

// Cancel cooperatively cancels an in-flight task for runID, if this
// worker is currently executing one (§4.7, §7).
func (w *Worker) Cancel(runID string) bool {
	w.cancelMu.Lock()
	defer w.cancelMu.Unlock()
	cancel, ok := w.cancels[runID]
	if !ok {
		return false
	}
	cancel()
	return true
}

func (w *Worker) register(ctx context.Context) error {
	_, _, err := w.post(ctx, "/register", map[string]string{"worker_id": w.ID, "addr": w.Addr})
	return err
}

func (w *Worker) heartbeatLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, _, err := w.post(ctx, "/heartbeat", map[string]string{"worker_id": w.ID}); err != nil {
				w.Log.Warn().Err(err).Msg("heartbeat failed")
			}
		}
	}
}

func (w *Worker) post(ctx context.Context, path string, body any) ([]byte, int, error) {
	var respBody []byte
	status, err := w.postJSON(ctx, path, body, nil)
	return respBody, status, err
}

func (w *Worker) postJSON(ctx context.Context, path string, body any, out any) (int, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.CoordinatorURL+path, bytes.NewReader(raw))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.HTTPClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, err
		}
	}
	return resp.StatusCode, nil
}
