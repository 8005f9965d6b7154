package agent

import (
	"sync"

	"castpilot/internal/config"
	"castpilot/pkg/logger"
)

// Agent pairs an agent's configuration with its running scheduler.
type Agent struct {
	Name      string
	Config    config.AgentConfig
	Scheduler *Scheduler
}

// Status is a read-only snapshot of one agent, served by the gateway.
type Status struct {
	Name      string `json:"name"`
	FID       uint64 `json:"fid"`
	AgentID   string `json:"agent_id"`
	DryRun    bool   `json:"dry_run"`
	Running   bool   `json:"running"`
	Executing bool   `json:"executing"`
}

// Registry holds the configured agents.
type Registry struct {
	agents map[string]*Agent
	mu     sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		agents: make(map[string]*Agent),
	}
}

// Register adds an agent.
func (r *Registry) Register(a *Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents[a.Name] = a
}

// ReplaceAll swaps the registered agent set. Callers must stop the old
// agents first; the registry does not manage scheduler lifecycles here.
func (r *Registry) ReplaceAll(agents []*Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents = make(map[string]*Agent, len(agents))
	for _, a := range agents {
		r.agents[a.Name] = a
	}
}

// Get returns an agent by name.
func (r *Registry) Get(name string) (*Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.agents[name]
	return a, ok
}

// Count returns the number of registered agents.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.agents)
}

// StartAll starts every agent's poll loop. Agents that fail to start
// are logged and skipped; one broken agent does not block the rest.
func (r *Registry) StartAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.agents {
		if err := a.Scheduler.Start(); err != nil {
			logger.Error().Err(err).Str("agent", a.Name).Msg("failed to start agent")
		}
	}
}

// StopAll stops every agent's poll loop, waiting for in-flight cycles.
func (r *Registry) StopAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.agents {
		a.Scheduler.Stop()
	}
}

// Status returns the snapshot of a single agent by name.
func (r *Registry) Status(name string) (Status, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.agents[name]
	if !ok {
		return Status{}, false
	}
	return statusOf(a), true
}

// Statuses returns snapshots of all agents.
func (r *Registry) Statuses() []Status {
	r.mu.RLock()
	defer r.mu.RUnlock()

	statuses := make([]Status, 0, len(r.agents))
	for _, a := range r.agents {
		statuses = append(statuses, statusOf(a))
	}
	return statuses
}

func statusOf(a *Agent) Status {
	return Status{
		Name:      a.Name,
		FID:       a.Config.FID,
		AgentID:   AgentID(a.Config.FID).String(),
		DryRun:    a.Config.DryRun,
		Running:   a.Scheduler.Running(),
		Executing: a.Scheduler.Executing(),
	}
}
