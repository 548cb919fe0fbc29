package registry

import "sync"

// Registry is the thread-safe, reloadable view of the Agent Registry
// component: list_agents() and get_model_tier(agent_id).
type Registry struct {
	mu      sync.RWMutex
	agents  map[string]Definition
	builtin map[string]Definition
	loader  *Loader
}

// New creates a Registry seeded with builtin definitions (lowest priority,
// always present even when no manifest directories exist) and loads the
// filesystem manifests once synchronously.
func New(builtin []Definition, loader *Loader) (*Registry, error) {
	r := &Registry{
		agents:  make(map[string]Definition),
		builtin: make(map[string]Definition),
		loader:  loader,
	}
	for _, d := range builtin {
		d.Source = SourceBuiltIn
		r.builtin[d.ID] = d
	}
	if err := r.reloadLocked(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) reloadLocked() error {
	loaded, err := r.loader.LoadAll()
	if err != nil {
		return err
	}

	merged := make(map[string]Definition, len(r.builtin)+len(loaded))
	for id, d := range r.builtin {
		merged[id] = d
	}
	for id, d := range loaded {
		merged[id] = d
	}

	r.mu.Lock()
	r.agents = merged
	r.mu.Unlock()
	return nil
}

// Reload re-scans the manifest directories. Running invocations are
// unaffected — only subsequent List/Get calls observe the new set.
func (r *Registry) Reload() error {
	return r.reloadLocked()
}

// List returns every known agent definition.
func (r *Registry) List() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Definition, 0, len(r.agents))
	for _, d := range r.agents {
		out = append(out, d)
	}
	return out
}

// Get returns a single agent definition by id.
func (r *Registry) Get(id string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.agents[id]
	return d, ok
}

// ModelTier returns the model tier for agentID, or TierUnknown if the id is
// not enumerated by the registry (a warning is the caller's responsibility,
// since this is consulted from hot hook paths that must not themselves emit
// noise on every miss).
func (r *Registry) ModelTier(agentID string) ModelTier {
	d, ok := r.Get(agentID)
	if !ok {
		return TierUnknown
	}
	return d.ModelTier
}
