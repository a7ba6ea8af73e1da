package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// WebServer exposes the link-budget pipeline over HTTP
type WebServer struct {
	config      *Config
	coordinator *Coordinator
	upgrader    websocket.Upgrader
	started     time.Time
}

// NewWebServer creates a new web server
func NewWebServer(config *Config, coordinator *Coordinator) *WebServer {
	return &WebServer{
		config:      config,
		coordinator: coordinator,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		started: time.Now(),
	}
}

// routes builds the request mux
func (ws *WebServer) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/link", ws.handleLink)
	mux.HandleFunc("/api/jobs", ws.handleJobs)
	mux.HandleFunc("/api/jobs/", ws.handleJob)
	mux.HandleFunc("/api/status", ws.handleStatus)
	mux.HandleFunc("/ws/jobs/", ws.handleJobSocket)
	if ws.config.Prometheus.Enabled {
		mux.Handle("/metrics", promhttp.Handler())
	}
	return mux
}

// Start starts the web server
func (ws *WebServer) Start() error {
	addr := ws.config.Server.Listen
	log.Printf("Web interface starting on %s", addr)
	return http.ListenAndServe(addr, ws.routes())
}

// handleLink computes a single link synchronously
func (ws *WebServer) handleLink(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var pair LinkPair
	if err := json.NewDecoder(r.Body).Decode(&pair); err != nil {
		http.Error(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
		return
	}

	// Reject malformed pairs before spending a splat run on them
	if _, err := pair.Transmitter.Build(); err != nil {
		http.Error(w, fmt.Sprintf("Invalid transmitter: %v", err), http.StatusBadRequest)
		return
	}
	if _, err := pair.Receiver.Build(); err != nil {
		http.Error(w, fmt.Sprintf("Invalid receiver: %v", err), http.StatusBadRequest)
		return
	}

	outcome := ws.coordinator.RunPair(r.Context(), pair)

	w.Header().Set("Content-Type", "application/json")
	if outcome.Error != "" {
		w.WriteHeader(http.StatusBadGateway)
	}
	json.NewEncoder(w).Encode(outcome)
}

// handleJobs submits a batch job
func (ws *WebServer) handleJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Pairs []LinkPair `json:"pairs"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
		return
	}
	if len(req.Pairs) == 0 {
		http.Error(w, "No pairs submitted", http.StatusBadRequest)
		return
	}

	for i, pair := range req.Pairs {
		if _, err := pair.Transmitter.Build(); err != nil {
			http.Error(w, fmt.Sprintf("Pair %d: invalid transmitter: %v", i, err), http.StatusBadRequest)
			return
		}
		if _, err := pair.Receiver.Build(); err != nil {
			http.Error(w, fmt.Sprintf("Pair %d: invalid receiver: %v", i, err), http.StatusBadRequest)
			return
		}
	}

	job := ws.coordinator.Submit(req.Pairs)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"id": job.ID, "status": job.Status})
}

// handleJob returns a job snapshot
func (ws *WebServer) handleJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	job, ok := ws.coordinator.Job(id)
	if !ok {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job)
}

// handleStatus returns system status
func (ws *WebServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(getSystemStatus(ws.started, ws.coordinator.ActiveJobs()))
}

// handleJobSocket streams a job's outcomes over a websocket, closing
// when the job completes
func (ws *WebServer) handleJobSocket(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/ws/jobs/")
	ch, ok := ws.coordinator.Subscribe(id)
	if !ok {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}

	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	for outcome := range ch {
		if err := conn.WriteJSON(outcome); err != nil {
			log.Printf("WebSocket write failed: %v", err)
			return
		}
	}

	// Job finished; send the final snapshot with the summary
	if job, ok := ws.coordinator.Job(id); ok {
		if err := conn.WriteJSON(job); err != nil {
			log.Printf("WebSocket write failed: %v", err)
		}
	}

	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "job done"))
}
