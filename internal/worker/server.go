package worker

import (
	"encoding/json"
	"net/http"

	"github.com/flowdag/flowdag/internal/domain"
)

// Server exposes the worker's direct HTTP API (§4.7): POST /execute runs
// one node synchronously and returns its output, POST /cancel/{run_id}
// cooperatively cancels an in-flight task for that run.
type Server struct {
	worker *Worker
	mux    *http.ServeMux
}

func NewServer(w *Worker) *Server {
	s := &Server{worker: w, mux: http.NewServeMux()}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /execute", s.handleExecute)
	s.mux.HandleFunc("POST /cancel/{run_id}", s.handleCancel)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

type executeRequest struct {
	RunID  string                `json:"run_id"`
	Node   domain.NodeDescriptor `json:"node"`
	Params map[string]any        `json:"params"`
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	output, err := s.worker.execute(r.Context(), req.Node, req.Params)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"output": output, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"output": output})
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("run_id")
	if !s.worker.Cancel(runID) {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelling"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
