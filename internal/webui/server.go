// Package webui serves a small read-only view of persisted simulation
// runs: a list of recent runs and, per run, the JSON report dump
// uploaded to storage by the service layer.
package webui

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/seojinpark/dtSim/internal/repository"
	"github.com/seojinpark/dtSim/internal/storage"
	"github.com/seojinpark/dtSim/pkg/compression"
	"github.com/seojinpark/dtSim/pkg/utils"
)

// reportObjectSuffix must match internal/service.ReportObjectSuffix: the
// key convention the service uses when uploading a run's compressed
// report dump.
const reportObjectSuffix = ".json.zst"

// Server is the simulation run viewer's HTTP server.
type Server struct {
	runs    repository.SimulationRunRepository
	store   storage.Storage
	port    int
	logger  utils.Logger
	server  *http.Server
}

// NewServer creates a web UI server backed by the run repository (for
// the run list) and object storage (for each run's report dump).
func NewServer(runs repository.SimulationRunRepository, store storage.Storage, port int, logger utils.Logger) *Server {
	return &Server{runs: runs, store: store, port: port, logger: logger}
}

// Start starts the web server; it blocks until the server stops.
func (s *Server) Start() error {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/runs", s.handleListRuns)
	mux.HandleFunc("/api/runs/", s.handleGetRun)
	mux.HandleFunc("/", s.handleIndex)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	s.logger.Info("Starting web server at http://localhost:%d", s.port)
	s.logger.Info("Press Ctrl+C to stop")

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><title>dtsim runs</title></head>
<body>
<h1>Recent simulation runs</h1>
<ul>
{{range .}}
<li><a href="/api/runs/{{.RunID}}">{{.RunID}}</a> — makespan {{.Makespan}}us, {{.TaskCount}} tasks</li>
{{end}}
</ul>
</body>
</html>
`))

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	runs, err := s.runs.ListRecentRuns(r.Context(), 50)
	if err != nil {
		http.Error(w, "failed to list runs", http.StatusInternalServerError)
		s.logger.Error("Failed to list runs: %v", err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, runs); err != nil {
		s.logger.Error("Failed to render index: %v", err)
	}
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}

	runs, err := s.runs.ListRecentRuns(r.Context(), limit)
	if err != nil {
		http.Error(w, "failed to list runs", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(runs)
}

// handleGetRun serves the summary row for /api/runs/<id>, and the
// full report dump for /api/runs/<id>/report if the run was uploaded
// to object storage.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Path[len("/api/runs/"):]
	if id == "" {
		http.Error(w, "run id required", http.StatusBadRequest)
		return
	}

	const reportSuffix = "/report"
	if len(id) > len(reportSuffix) && id[len(id)-len(reportSuffix):] == reportSuffix {
		s.handleGetReport(w, r, id[:len(id)-len(reportSuffix)])
		return
	}

	run, err := s.runs.GetRunByID(r.Context(), id)
	if err != nil {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(run)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request, runID string) {
	if s.store == nil {
		http.Error(w, "no object storage configured", http.StatusServiceUnavailable)
		return
	}

	key := runID + reportObjectSuffix
	reader, err := s.store.Download(r.Context(), key)
	if err != nil {
		http.Error(w, "report not found", http.StatusNotFound)
		return
	}
	defer reader.Close()

	compressed, err := io.ReadAll(reader)
	if err != nil {
		s.logger.Error("Failed to read report dump %s: %v", key, err)
		http.Error(w, "failed to read report", http.StatusInternalServerError)
		return
	}

	comp := compression.Default()
	defer compression.Close(comp)
	data, err := comp.Decompress(compressed)
	if err != nil {
		s.logger.Error("Failed to decompress report dump %s: %v", key, err)
		http.Error(w, "failed to decompress report", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}
