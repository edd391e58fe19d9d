package coordinator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/flowdag/flowdag/internal/domain"
	"github.com/flowdag/flowdag/internal/scheduler"
)

// Options configures a Coordinator's heartbeat and retry policy (§4.6).
type Options struct {
	HeartbeatInterval time.Duration
	MissedHeartbeats  int
	MaxRetries        int
	MaxConcurrency    int
}

func (o Options) withDefaults() Options {
	if o.HeartbeatInterval <= 0 {
		o.HeartbeatInterval = 5 * time.Second
	}
	if o.MissedHeartbeats <= 0 {
		o.MissedHeartbeats = 3
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = 2
	}
	if o.MaxConcurrency <= 0 {
		o.MaxConcurrency = 10
	}
	return o
}

// Coordinator assigns a submitted workflow's nodes to registered workers
// as a DAG scheduler marks them ready, tolerating worker loss via
// heartbeat timeout and at-least-once redelivery with first-result-wins
// duplicate handling.
type Coordinator struct {
	reg   *registry
	opts  Options
	log   zerolog.Logger
	store Store // optional bookkeeping persistence, nil disables it

	waitersMu sync.Mutex
	waiters   map[string]chan taskOutcome // task ID -> completion channel
}

type taskOutcome struct {
	output any
	err    string
}

// New creates a Coordinator. store may be nil, in which case run and
// worker status live only in memory for the coordinator's lifetime.
func New(opts Options, log zerolog.Logger, store Store) *Coordinator {
	c := &Coordinator{
		reg:     newRegistry(),
		opts:    opts.withDefaults(),
		log:     log,
		store:   store,
		waiters: make(map[string]chan taskOutcome),
	}
	go c.monitorHeartbeats()
	return c
}

// recordRun mirrors a run's current status into the bookkeeping store,
// if one is configured. Failures are logged, not propagated: losing the
// bookkeeping mirror must never fail or stall a run.
func (c *Coordinator) recordRun(run Run) {
	if c.store == nil {
		return
	}
	if err := c.store.RecordRun(context.Background(), run); err != nil {
		c.log.Warn().Err(err).Str("run_id", run.ID).Msg("failed to persist run bookkeeping")
	}
}

func (c *Coordinator) recordWorker(worker Worker) {
	if c.store == nil {
		return
	}
	if err := c.store.RecordWorker(context.Background(), worker); err != nil {
		c.log.Warn().Err(err).Str("worker_id", worker.ID).Msg("failed to persist worker bookkeeping")
	}
}

// SubmitRun queues wf for execution and returns immediately with a run
// id; the run proceeds asynchronously as workers claim and complete
// tasks. Use Run's GET /runs/{id} to poll status.
func (c *Coordinator) SubmitRun(wf *domain.WorkflowDescriptor, overrides map[string]any) (string, error) {
	if err := wf.Validate(); err != nil {
		return "", err
	}

	runID := uuid.NewString()
	global := make(map[string]any, len(wf.Global)+len(overrides))
	for k, v := range wf.Global {
		global[k] = v
	}
	for k, v := range overrides {
		global[k] = v
	}

	run := &Run{
		ID:        runID,
		Workflow:  wf,
		Status:    RunQueued,
		Outputs:   make(map[string]any),
		CreatedAt: time.Now(),
	}

	c.reg.mu.Lock()
	c.reg.runs[runID] = run
	c.reg.mu.Unlock()
	c.recordRun(*run)

	ids := make([]string, 0, len(wf.Nodes))
	needs := make(map[string][]string, len(wf.Nodes))
	byID := make(map[string]domain.NodeDescriptor, len(wf.Nodes))
	for _, n := range wf.Nodes {
		ids = append(ids, n.ID)
		needs[n.ID] = n.Needs
		byID[n.ID] = n
	}

	graph, err := scheduler.NewGraph(ids, needs)
	if err != nil {
		return "", domain.NewError(domain.ErrLoad, "invalid workflow graph", err)
	}

	store := domain.NewStore(global)

	go func() {
		run.Status = RunRunning
		c.recordRun(*run)

		dispatch := func(ctx context.Context, nodeID string) error {
			node := byID[nodeID]
			snap := store.Snapshot()
			params, err := resolveParams(node, snap)
			if err != nil {
				return err
			}

			outcome, err := c.runTask(ctx, runID, node, params)
			if err != nil {
				return err
			}

			store.PutOutput(nodeID, outcome)
			return nil
		}

		res := scheduler.Run(context.Background(), graph, dispatch, scheduler.Options{MaxConcurrency: c.opts.MaxConcurrency})

		c.reg.mu.Lock()
		if len(res.Failed) > 0 {
			run.Status = RunFailed
			for _, e := range res.Failed {
				run.Err = e.Error()
				break
			}
		} else {
			run.Status = RunSucceeded
		}
		run.Outputs = store.Snapshot().Outputs
		snapshot := *run
		c.reg.mu.Unlock()
		c.recordRun(snapshot)
	}()

	return runID, nil
}

// runTask enqueues a task for nodeID and blocks until a worker reports
// its result (or ctx is cancelled).
func (c *Coordinator) runTask(ctx context.Context, runID string, node domain.NodeDescriptor, params map[string]any) (any, error) {
	taskID := uuid.NewString()
	ch := make(chan taskOutcome, 1)

	c.waitersMu.Lock()
	c.waiters[taskID] = ch
	c.waitersMu.Unlock()
	defer func() {
		c.waitersMu.Lock()
		delete(c.waiters, taskID)
		c.waitersMu.Unlock()
	}()

	task := &Task{
		ID:     taskID,
		RunID:  runID,
		Node:   node,
		Params: params,
		Status: TaskQueued,
	}

	c.reg.mu.Lock()
	c.reg.tasks[taskID] = task
	c.reg.queue = append(c.reg.queue, taskID)
	c.reg.mu.Unlock()

	select {
	case outcome := <-ch:
		if outcome.err != "" {
			return nil, domain.NewNodeError(domain.ErrHandler, node.ID, outcome.err, nil)
		}
		return outcome.output, nil
	case <-ctx.Done():
		return nil, domain.NewNodeError(domain.ErrCancellation, node.ID, "run cancelled", ctx.Err())
	}
}

// ClaimTask pops the next queued task (FIFO order) for the calling worker
// and marks it assigned. There is no selection among idle workers: the
// task goes to whichever worker claims first. Returns nil, false if the
// queue is empty.
func (c *Coordinator) ClaimTask(workerID string) (*Task, bool) {
	c.reg.mu.Lock()
	defer c.reg.mu.Unlock()

	if len(c.reg.queue) == 0 {
		return nil, false
	}

	taskID := c.reg.queue[0]
	c.reg.queue = c.reg.queue[1:]

	task, ok := c.reg.tasks[taskID]
	if !ok {
		return nil, false
	}
	task.Status = TaskAssigned
	task.WorkerID = workerID
	task.Attempt++
	task.AssignedAt = time.Now()

	if w, ok := c.reg.workers[workerID]; ok {
		w.Status = WorkerBusy
		w.AssignedTask = taskID
	}

	return task, true
}

// CompleteTask records a worker's result for taskID. A second report for
// an already-completed task is ignored (first-result-wins, §4.6).
func (c *Coordinator) CompleteTask(taskID, workerID string, output any, taskErr string) {
	c.reg.mu.Lock()
	if _, already := c.reg.completed[taskID]; already {
		c.reg.mu.Unlock()
		return
	}
	c.reg.completed[taskID] = struct{}{}

	task, ok := c.reg.tasks[taskID]
	if ok {
		if taskErr != "" {
			task.Status = TaskFailed
		} else {
			task.Status = TaskSucceeded
		}
	}
	if w, ok := c.reg.workers[workerID]; ok {
		w.Status = WorkerIdle
		w.AssignedTask = ""
	}
	c.reg.mu.Unlock()

	c.waitersMu.Lock()
	ch, ok := c.waiters[taskID]
	c.waitersMu.Unlock()
	if ok {
		ch <- taskOutcome{output: output, err: taskErr}
	}
}

// Register adds or refreshes a worker's registration.
func (c *Coordinator) Register(workerID, addr string) {
	c.reg.mu.Lock()
	w := &Worker{
		ID:            workerID,
		Addr:          addr,
		Status:        WorkerIdle,
		LastHeartbeat: time.Now(),
	}
	c.reg.workers[workerID] = w
	c.reg.mu.Unlock()
	c.recordWorker(*w)
}

// Heartbeat refreshes a worker's last-seen timestamp.
func (c *Coordinator) Heartbeat(workerID string) bool {
	c.reg.mu.Lock()
	w, ok := c.reg.workers[workerID]
	if !ok {
		c.reg.mu.Unlock()
		return false
	}
	w.LastHeartbeat = time.Now()
	if w.Status == WorkerMissing {
		w.Status = WorkerIdle
	}
	snapshot := *w
	c.reg.mu.Unlock()
	c.recordWorker(snapshot)
	return true
}

// GetRun returns a snapshot of a run's current state.
func (c *Coordinator) GetRun(runID string) (*Run, bool) {
	c.reg.mu.Lock()
	defer c.reg.mu.Unlock()
	r, ok := c.reg.runs[runID]
	if !ok {
		return nil, false
	}
	cp := *r
	return &cp, true
}

// Workers returns a snapshot of all registered workers.
func (c *Coordinator) Workers() []Worker {
	c.reg.mu.Lock()
	defer c.reg.mu.Unlock()
	out := make([]Worker, 0, len(c.reg.workers))
	for _, w := range c.reg.workers {
		out = append(out, *w)
	}
	return out
}

// monitorHeartbeats periodically scans workers for missed heartbeats
// (§4.6): a worker silent for MissedHeartbeats * HeartbeatInterval is
// marked missing and its in-flight task, if any and under MaxRetries, is
// requeued for another worker.
func (c *Coordinator) monitorHeartbeats() {
	ticker := time.NewTicker(c.opts.HeartbeatInterval)
	defer ticker.Stop()

	for range ticker.C {
		deadline := time.Duration(c.opts.MissedHeartbeats) * c.opts.HeartbeatInterval

		c.reg.mu.Lock()
		now := time.Now()
		for _, w := range c.reg.workers {
			if w.Status == WorkerMissing {
				continue
			}
			if now.Sub(w.LastHeartbeat) <= deadline {
				continue
			}
			w.Status = WorkerMissing
			c.log.Warn().Str("worker_id", w.ID).Msg("worker missed heartbeat deadline")

			if w.AssignedTask == "" {
				continue
			}
			task, ok := c.reg.tasks[w.AssignedTask]
			if !ok {
				continue
			}
			if task.Attempt > c.opts.MaxRetries {
				c.failWaiter(task.ID, fmt.Sprintf("worker %s lost, task exceeded max retries", w.ID))
				continue
			}
			task.Status = TaskQueued
			task.WorkerID = ""
			c.reg.queue = append(c.reg.queue, task.ID)
			c.log.Info().Str("task_id", task.ID).Msg("requeued task after worker loss")
		}
		c.reg.mu.Unlock()
	}
}

func (c *Coordinator) failWaiter(taskID, msg string) {
	c.waitersMu.Lock()
	ch, ok := c.waiters[taskID]
	c.waitersMu.Unlock()
	if ok {
		ch <- taskOutcome{err: msg}
	}
}
