// Package pipeline implements the build registry for the avouch example
// application. It models a small CI service: every recorded build carries
// an encoded disclosure statement, and the registry assesses the
// statement as the build is recorded.
//
// The registry keeps builds in memory and provides HTTP handlers for:
//   - Recording a build with its disclosure statement
//   - Looking up a build by ID
//   - Listing recent builds, newest first
//
// Assessments flow out through an optional publish callback, which the
// example server wires to the dashboard feed.
package pipeline

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/chosenoffset/avouch/pkg/avouch"
)

// Build is one recorded CI build and the assessment of its statement.
type Build struct {
	ID         string             `json:"id"`
	Branch     string             `json:"branch"`
	Commit     string             `json:"commit"`
	Statement  string             `json:"statement"`
	Recorded   time.Time          `json:"recorded"`
	Assessment *avouch.Assessment `json:"assessment"`
}

// Registry manages recorded builds and provides thread-safe handlers.
type Registry struct {
	mu      sync.RWMutex
	engine  *avouch.Engine
	builds  map[string]*Build
	order   []string
	publish func(*avouch.Assessment)
}

// NewRegistry returns an empty registry. publish may be nil; when set it
// receives every assessment produced by a recorded build.
func NewRegistry(engine *avouch.Engine, publish func(*avouch.Assessment)) *Registry {
	return &Registry{
		engine:  engine,
		builds:  make(map[string]*Build),
		publish: publish,
	}
}

// RecordRequest is the input for POST /build.
type RecordRequest struct {
	ID        string `json:"id"`
	Branch    string `json:"branch"`
	Commit    string `json:"commit"`
	Statement string `json:"statement"`
}

func (reg *Registry) HandleRecordBuild(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if req.ID == "" || req.Statement == "" {
		http.Error(w, "id and statement are required", http.StatusBadRequest)
		return
	}

	assessment, err := reg.engine.Assess(req.Statement)
	if err != nil {
		if errors.Is(err, avouch.ErrInvalidStatement) {
			http.Error(w, "could not parse statement", http.StatusUnprocessableEntity)
			return
		}
		http.Error(w, "assessment failed", http.StatusInternalServerError)
		return
	}

	build := &Build{
		ID:         req.ID,
		Branch:     req.Branch,
		Commit:     req.Commit,
		Statement:  req.Statement,
		Recorded:   time.Now().UTC(),
		Assessment: assessment,
	}

	reg.mu.Lock()
	if _, exists := reg.builds[req.ID]; exists {
		reg.mu.Unlock()
		http.Error(w, "build already recorded", http.StatusConflict)
		return
	}
	reg.builds[req.ID] = build
	reg.order = append(reg.order, req.ID)
	reg.mu.Unlock()

	if reg.publish != nil {
		reg.publish(assessment)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(build)
}

func (reg *Registry) HandleGetBuild(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}

	reg.mu.RLock()
	build, ok := reg.builds[id]
	reg.mu.RUnlock()
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(build)
}

func (reg *Registry) HandleListBuilds(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	reg.mu.RLock()
	builds := make([]*Build, 0, len(reg.order))
	for i := len(reg.order) - 1; i >= 0; i-- {
		builds = append(builds, reg.builds[reg.order[i]])
	}
	reg.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"builds": builds,
		"count":  len(builds),
	})
}
