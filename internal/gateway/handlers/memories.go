package handlers

import (
	"net/http"
	"strconv"

	"castpilot/internal/storage"
)

const (
	defaultMemoryLimit = 50
	maxMemoryLimit     = 200
)

// MemoriesResponse wraps a memory record listing.
type MemoriesResponse struct {
	Memories []*storage.Memory `json:"memories"`
	Count    int               `json:"count"`
}

// ListMemoriesHandler returns a handler serving an agent's recent memory
// records, newest first. GET /api/v1/memories?agent=<id>&limit=<n>.
func ListMemoriesHandler(db *storage.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		agentID := r.URL.Query().Get("agent")
		if agentID == "" {
			SendError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "missing agent parameter")
			return
		}

		limit := defaultMemoryLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				SendError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid limit parameter")
				return
			}
			limit = n
		}
		if limit > maxMemoryLimit {
			limit = maxMemoryLimit
		}

		memories, err := db.ListRecentMemories(agentID, limit)
		if err != nil {
			SendError(w, http.StatusInternalServerError, ErrCodeInternalError, "failed to list memories")
			return
		}
		if memories == nil {
			memories = []*storage.Memory{}
		}

		SendJSON(w, http.StatusOK, MemoriesResponse{
			Memories: memories,
			Count:    len(memories),
		})
	}
}
