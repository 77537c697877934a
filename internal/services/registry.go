package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/retro-admin/dashboard/internal/gateway"
)

const (
	defaultIdleTTL     = 12 * time.Hour
	minJanitorInterval = time.Second
	maxJanitorInterval = 5 * time.Minute
)

// Registry keeps the live workspaces keyed by id and evicts idle ones.
type Registry struct {
	backend gateway.Backend
	deps    Deps
	idleTTL time.Duration
	logger  *zap.Logger
	now     func() time.Time

	mu         sync.Mutex
	workspaces map[string]*Workspace
}

// NewRegistry creates workspaces on backend. Workspaces unused for idleTTL
// are evicted by Run.
func NewRegistry(backend gateway.Backend, deps Deps, idleTTL time.Duration) *Registry {
	deps = deps.withDefaults()
	if idleTTL <= 0 {
		idleTTL = defaultIdleTTL
	}
	return &Registry{
		backend:    backend,
		deps:       deps,
		idleTTL:    idleTTL,
		logger:     deps.Logger,
		now:        time.Now,
		workspaces: make(map[string]*Workspace),
	}
}

// Create opens a new workspace with its own backend client.
func (r *Registry) Create() *Workspace {
	return r.open(r.backend.NewClient())
}

// Resume opens a new workspace whose client holds credential, so that Boot
// can restore a backend session that outlived its workspace.
func (r *Registry) Resume(credential string) *Workspace {
	if credential == "" {
		return r.Create()
	}
	return r.open(r.backend.Resume(credential))
}

func (r *Registry) open(client gateway.Client) *Workspace {
	ws := NewWorkspace(uuid.NewString(), client, r.deps)
	ws.Touch(r.now())

	r.mu.Lock()
	r.workspaces[ws.ID()] = ws
	r.mu.Unlock()

	r.logger.Debug("workspace created", zap.String("workspace", ws.ID()))
	return ws
}

// Get returns the workspace and marks it as used.
func (r *Registry) Get(id string) (*Workspace, bool) {
	r.mu.Lock()
	ws, ok := r.workspaces[id]
	r.mu.Unlock()
	if !ok {
		return nil, false
	}
	ws.Touch(r.now())
	return ws, true
}

// Remove closes and forgets the workspace.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	ws, ok := r.workspaces[id]
	delete(r.workspaces, id)
	r.mu.Unlock()
	if ok {
		ws.Close()
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.workspaces)
}

// Sweep evicts the workspaces idle since before now-idleTTL and returns how many.
func (r *Registry) Sweep(now time.Time) int {
	cutoff := now.Add(-r.idleTTL)

	var evicted []*Workspace
	r.mu.Lock()
	for id, ws := range r.workspaces {
		if ws.LastSeen().Before(cutoff) {
			evicted = append(evicted, ws)
			delete(r.workspaces, id)
		}
	}
	r.mu.Unlock()

	for _, ws := range evicted {
		ws.Close()
	}
	if len(evicted) > 0 {
		r.logger.Info("evicted idle workspaces", zap.Int("count", len(evicted)))
	}
	return len(evicted)
}

// Run sweeps periodically until ctx is done.
func (r *Registry) Run(ctx context.Context) error {
	ticker := time.NewTicker(janitorInterval(r.idleTTL))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.Sweep(r.now())
		}
	}
}

// Close closes every workspace.
func (r *Registry) Close() {
	r.mu.Lock()
	workspaces := r.workspaces
	r.workspaces = make(map[string]*Workspace)
	r.mu.Unlock()

	for _, ws := range workspaces {
		ws.Close()
	}
}

func janitorInterval(idleTTL time.Duration) time.Duration {
	interval := idleTTL / 4
	if interval < minJanitorInterval {
		return minJanitorInterval
	}
	if interval > maxJanitorInterval {
		return maxJanitorInterval
	}
	return interval
}
