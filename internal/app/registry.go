package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/drawroom/server/internal/core"
	"github.com/drawroom/server/internal/domain"
)

type connEntry struct {
	Sender core.Sender
	Cancel context.CancelFunc
}

// Registry tracks live connections: conn-id to its transport sender.
// Membership state lives in core; the registry only answers "how do I
// reach this connection right now" for the gateway's fan-out.
type Registry struct {
	mu    sync.RWMutex
	conns map[domain.ConnID]*connEntry
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[domain.ConnID]*connEntry)}
}

func (r *Registry) Bind(conn domain.ConnID, s core.Sender, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[conn] = &connEntry{Sender: s, Cancel: cancel}
	log.Info().Str("module", "app.registry").Str("conn", string(conn)).Msg("bound connection")
}

func (r *Registry) Get(conn domain.ConnID) (core.Sender, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.conns[conn]; ok {
		return e.Sender, true
	}
	return nil, false
}

func (r *Registry) Unbind(conn domain.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, conn)
	log.Info().Str("module", "app.registry").Str("conn", string(conn)).Msg("unbound connection")
}

// Cancel tears down the connection's context, which unwinds both
// pumps and triggers disconnect cleanup.
func (r *Registry) Cancel(conn domain.ConnID) bool {
	r.mu.RLock()
	e, ok := r.conns[conn]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	return true
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
