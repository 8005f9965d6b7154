package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"castpilot/internal/agent"
)

// AgentsResponse wraps the agent status list.
type AgentsResponse struct {
	Agents []agent.Status `json:"agents"`
	Count  int            `json:"count"`
}

// ListAgentsHandler returns a handler listing all registered agents.
func ListAgentsHandler(registry *agent.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		statuses := registry.Statuses()
		SendJSON(w, http.StatusOK, AgentsResponse{
			Agents: statuses,
			Count:  len(statuses),
		})
	}
}

// GetAgentHandler returns a handler serving one agent's status by name.
func GetAgentHandler(registry *agent.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["name"]
		status, ok := registry.Status(name)
		if !ok {
			SendError(w, http.StatusNotFound, ErrCodeNotFound, "agent not found: "+name)
			return
		}
		SendJSON(w, http.StatusOK, status)
	}
}
