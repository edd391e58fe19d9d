package domain

import "sync"

// LoopFrame is the {item, index, total} triple visible as loop.* inside
// the dynamic extent of a Loop iteration (§3, §4.5). A nested Loop
// shadows its parent's frame.
type LoopFrame struct {
	Item  any
	Index int
	Total int
}

// Snapshot is a cheap, immutable view of a Store taken at the start of a
// single node's parameter resolution, so the node sees a consistent
// global map even while other nodes continue to mutate it (§4.1).
type Snapshot struct {
	Global  map[string]any
	Outputs map[string]any
	Loop    *LoopFrame
}

// sharedGlobal is the workflow-scope global map, shared by reference
// between a root store and every Loop sub-store spawned from it so that
// Assign inside a Loop is visible to the outer workflow (§4.5). A single
// mutex protects it regardless of how many Store values point to it.
type sharedGlobal struct {
	mu sync.Mutex
	m  map[string]any
}

// Store is the memory store (C1): the shared global map plus per-node
// outputs, one instance per run (or per loop sub-run, which shares the
// parent's global but gets isolated outputs and its own loop frame).
//
// The mutex is held only across individual accessor calls, never across
// a handler's execution — Snapshot copies the global map and releases the
// lock immediately, so a long-running handler never blocks unrelated
// mutations. Grounded on the teacher's domain.VariableSet, generalized
// with a write-once outputs map and an optional loop frame.
type Store struct {
	global *sharedGlobal

	outputsMu sync.Mutex
	outputs   map[string]any

	loop *LoopFrame
}

// NewStore creates a root store seeded with the workflow's declared
// globals (copied, so the caller's map is never aliased).
func NewStore(global map[string]any) *Store {
	m := make(map[string]any, len(global))
	for k, v := range global {
		m[k] = v
	}
	return &Store{
		global:  &sharedGlobal{m: m},
		outputs: make(map[string]any),
	}
}

// Scoped returns a child store for a Loop iteration: it shares this
// store's global map (so Assign inside a Loop mutates workflow globals,
// §4.5) but starts with empty, isolated outputs and the given loop frame.
func (s *Store) Scoped(frame LoopFrame) *Store {
	return &Store{
		global:  s.global,
		outputs: make(map[string]any),
		loop:    &frame,
	}
}

// GetGlobal returns the value stored under key and whether it was present.
func (s *Store) GetGlobal(key string) (any, bool) {
	s.global.mu.Lock()
	defer s.global.mu.Unlock()
	v, ok := s.global.m[key]
	return v, ok
}

// SetGlobal sets key to v.
func (s *Store) SetGlobal(key string, v any) {
	s.global.mu.Lock()
	defer s.global.mu.Unlock()
	s.global.m[key] = v
}

// AppendGlobal appends v to the array stored at key, and is a no-op if
// the existing value is not an array (§4.1, §4.3 assign handler, §8
// property 7). Two callers racing on the same key both serialize on the
// shared global's mutex; both appends are preserved, relative order
// unspecified (§9 resolved question 2).
func (s *Store) AppendGlobal(key string, v any) {
	s.global.mu.Lock()
	defer s.global.mu.Unlock()

	existing, ok := s.global.m[key]
	if !ok {
		return
	}
	arr, ok := existing.([]any)
	if !ok {
		return
	}
	next := make([]any, len(arr), len(arr)+1)
	copy(next, arr)
	s.global.m[key] = append(next, v)
}

// PutOutput records node_id's output. A second call for the same node id
// with a structurally different value is a programmer error and panics,
// matching the spec's "fatal" classification (§4.1) — the scheduler never
// dispatches a node twice in single-process mode, so this only fires if
// that invariant is violated.
func (s *Store) PutOutput(nodeID string, v any) {
	s.outputsMu.Lock()
	defer s.outputsMu.Unlock()

	if existing, ok := s.outputs[nodeID]; ok {
		if !deepEqual(existing, v) {
			panic("domain: put_output called twice for node " + nodeID + " with different values")
		}
		return
	}
	s.outputs[nodeID] = v
}

// GetOutput returns node_id's recorded output, if any.
func (s *Store) GetOutput(nodeID string) (any, bool) {
	s.outputsMu.Lock()
	defer s.outputsMu.Unlock()
	v, ok := s.outputs[nodeID]
	return v, ok
}

// Loop returns the store's current loop frame, or nil outside a Loop.
func (s *Store) Loop() *LoopFrame {
	return s.loop
}

// Snapshot takes a cheap, immutable view for template resolution. The
// global map and the outputs map are each shallow-copied under their own
// lock; loop is immutable after construction and is shared as-is.
func (s *Store) Snapshot() Snapshot {
	s.global.mu.Lock()
	global := make(map[string]any, len(s.global.m))
	for k, v := range s.global.m {
		global[k] = v
	}
	s.global.mu.Unlock()

	s.outputsMu.Lock()
	outputs := make(map[string]any, len(s.outputs))
	for k, v := range s.outputs {
		outputs[k] = v
	}
	s.outputsMu.Unlock()

	return Snapshot{Global: global, Outputs: outputs, Loop: s.loop}
}

func deepEqual(a, b any) bool {
	return equalValue(a, b)
}

func equalValue(a, b any) bool {
	switch av := a.(type) {
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			bvv, ok := bv[k]
			if !ok || !equalValue(v, bvv) {
				return false
			}
		}
		return true
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !equalValue(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}
