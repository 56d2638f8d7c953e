package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/crewsync/crewsync/pkg/types"
)

// AdminAPI is the operational surface the gateway exposes over HTTP.
// The sync engine implements it.
type AdminAPI interface {
	OnEntityChange(entityID, changeKind string)
	ForceSynchronization() bool
	ValidateSyncStatus() types.SyncStatusReport
	ValidateConsistency(ctx context.Context) (types.ConsistencyReport, error)
}

// TriggerRequest is the body of POST /api/trigger
type TriggerRequest struct {
	EntityID   string `json:"entityId"`
	ChangeKind string `json:"changeKind"`
}

// ForceSyncResponse is the body of POST /api/forcesync
type ForceSyncResponse struct {
	Success bool `json:"success"`
}

func (g *Gateway) registerAdmin(mux *http.ServeMux) {
	if g.opts.Admin == nil {
		return
	}
	mux.HandleFunc("/api/status", g.handleStatus)
	mux.HandleFunc("/api/trigger", g.handleTrigger)
	mux.HandleFunc("/api/forcesync", g.handleForceSync)
	mux.HandleFunc("/api/consistency", g.handleConsistency)
}

func (g *Gateway) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, g.opts.Admin.ValidateSyncStatus())
}

// handleTrigger is the manual change notification path. Ingestion is
// fire-and-forget, so the response only acknowledges receipt.
func (g *Gateway) handleTrigger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req TriggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.EntityID == "" {
		http.Error(w, "entityId is required", http.StatusBadRequest)
		return
	}

	g.opts.Admin.OnEntityChange(req.EntityID, req.ChangeKind)
	w.WriteHeader(http.StatusAccepted)
}

func (g *Gateway) handleForceSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, ForceSyncResponse{Success: g.opts.Admin.ForceSynchronization()})
}

func (g *Gateway) handleConsistency(w http.ResponseWriter, r *http.Request) {
	report, err := g.opts.Admin.ValidateConsistency(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
