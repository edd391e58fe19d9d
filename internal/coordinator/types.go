// Package coordinator implements the distributed coordinator side of the
// run protocol (spec §4.6, §6): workflow submission, a FIFO task queue
// that workers pull from (the head task goes to whichever worker claims
// first; workers are not ranked by idle time), heartbeat-based worker
// loss detection, and first-result-wins duplicate handling for
// at-least-once task recovery.
//
// Grounded on the teacher's internal/infrastructure/api/rest server
// shape (net/http.ServeMux, method-pattern routes, one handler per
// route) generalized from a workflow-execution REST API to a
// coordinator/worker task-assignment API, since the spec's coordinator
// is a different protocol than mbflow's own REST surface.
package coordinator

import (
	"sync"
	"time"

	"github.com/flowdag/flowdag/internal/domain"
)

// RunStatus is the lifecycle state of a submitted run.
type RunStatus string

const (
	RunQueued    RunStatus = "queued"
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// Run tracks one submitted workflow's overall progress across however
// many tasks (nodes) it decomposes into. In this engine a "task" is one
// top-level node dispatch; the coordinator does not itself schedule
// within a workflow's DAG — it hands whole-node tasks to workers as the
// coordinator's own internal scheduler (reusing internal/scheduler) marks
// them ready.
type Run struct {
	ID        string
	Workflow  *domain.WorkflowDescriptor
	Status    RunStatus
	Outputs   map[string]any
	Err       string
	CreatedAt time.Time
}

// TaskStatus is the lifecycle state of one task (node dispatch) assigned
// to a worker.
type TaskStatus string

const (
	TaskQueued    TaskStatus = "queued"
	TaskAssigned  TaskStatus = "assigned"
	TaskSucceeded TaskStatus = "succeeded"
	TaskFailed    TaskStatus = "failed"
)

// Task is one node dispatch, queued for a worker to execute.
type Task struct {
	ID         string                `json:"id"`
	RunID      string                `json:"run_id"`
	Node       domain.NodeDescriptor `json:"node"`
	Params     map[string]any        `json:"params"`
	Status     TaskStatus            `json:"status"`
	WorkerID   string                `json:"worker_id"`
	Attempt    int                   `json:"attempt"`
	AssignedAt time.Time             `json:"assigned_at"`
}

// WorkerStatus is the coordinator's view of a registered worker.
type WorkerStatus string

const (
	WorkerIdle    WorkerStatus = "idle"
	WorkerBusy    WorkerStatus = "busy"
	WorkerMissing WorkerStatus = "missing"
)

// Worker is a registered execution worker.
type Worker struct {
	ID            string
	Addr          string
	Status        WorkerStatus
	LastHeartbeat time.Time
	AssignedTask  string
}

// registry is the coordinator's in-memory bookkeeping: runs, the task
// queue, and registered workers, all behind one mutex. An optional
// bun/pgx-backed store (store_bun.go) durably mirrors runs and workers
// for operators who want the registry to survive a coordinator restart —
// this is bookkeeping durability, not the node-output/workflow-state
// persistence the spec's non-goals exclude.
type registry struct {
	mu sync.Mutex

	runs    map[string]*Run
	tasks   map[string]*Task
	queue   []string // task IDs, FIFO
	workers map[string]*Worker

	// dedupe tracks task IDs that have already reported a result, so a
	// stray duplicate completion from a requeued-but-still-alive worker
	// doesn't double-apply (first-result-wins, §4.6).
	completed map[string]struct{}
}

func newRegistry() *registry {
	return &registry{
		runs:      make(map[string]*Run),
		tasks:     make(map[string]*Task),
		workers:   make(map[string]*Worker),
		completed: make(map[string]struct{}),
	}
}
