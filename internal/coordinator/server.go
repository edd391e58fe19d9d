package coordinator

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/flowdag/flowdag/internal/loader"
)

// Server exposes the coordinator's HTTP JSON API (§4.6): submit,
// run status, worker registration, heartbeats, worker listing, task
// claim/complete for workers. Grounded on the teacher's
// internal/infrastructure/api/rest.Server shape: a plain net/http.ServeMux
// with one method-pattern route per handler.
type Server struct {
	coord *Coordinator
	mux   *http.ServeMux
	log   zerolog.Logger
}

func NewServer(coord *Coordinator, log zerolog.Logger) *Server {
	s := &Server{coord: coord, mux: http.NewServeMux(), log: log}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /submit", s.handleSubmit)
	s.mux.HandleFunc("GET /runs/{run_id}", s.handleGetRun)
	s.mux.HandleFunc("POST /register", s.handleRegister)
	s.mux.HandleFunc("POST /heartbeat", s.handleHeartbeat)
	s.mux.HandleFunc("GET /workers", s.handleWorkers)
	s.mux.HandleFunc("POST /claim", s.handleClaim)
	s.mux.HandleFunc("POST /complete", s.handleComplete)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.log.Debug().Str("method", r.Method).Str("path", r.URL.Path).Msg("coordinator request")
	s.mux.ServeHTTP(w, r)
}

type submitRequest struct {
	Workflow  json.RawMessage `json:"workflow"`
	Overrides map[string]any  `json:"overrides"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	wf, err := loader.Parse(req.Workflow)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	runID, err := s.coord.SubmitRun(wf, req.Overrides)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"run_id": runID})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("run_id")
	run, ok := s.coord.GetRun(runID)
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

type registerRequest struct {
	WorkerID string `json:"worker_id"`
	Addr     string `json:"addr"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.coord.Register(req.WorkerID, req.Addr)
	writeJSON(w, http.StatusOK, map[string]string{"status": "registered"})
}

type heartbeatRequest struct {
	WorkerID string `json:"worker_id"`
}

func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	var req heartbeatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if !s.coord.Heartbeat(req.WorkerID) {
		http.Error(w, "unknown worker", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleWorkers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.coord.Workers())
}

type claimRequest struct {
	WorkerID string `json:"worker_id"`
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	var req claimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	task, ok := s.coord.ClaimTask(req.WorkerID)
	if !ok {
		writeJSON(w, http.StatusNoContent, nil)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

type completeRequest struct {
	TaskID   string `json:"task_id"`
	WorkerID string `json:"worker_id"`
	Output   any    `json:"output"`
	Error    string `json:"error"`
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.coord.CompleteTask(req.TaskID, req.WorkerID, req.Output, req.Error)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
