package core

import (
	"sync"

	"github.com/drawroom/server/internal/domain"
)

// Directory is the authoritative in-memory store: room-id to room,
// plus the connection-id to room-id reverse index. One mutex guards
// both maps so a membership mutation is atomic with respect to every
// other membership read and write. Constructed once at process start
// and passed by handle; there is no package-level state.
type Directory struct {
	mu     sync.Mutex
	rooms  map[domain.RoomID]*domain.Room
	byConn map[domain.ConnID]domain.RoomID
}

func NewDirectory() *Directory {
	return &Directory{
		rooms:  make(map[domain.RoomID]*domain.Room),
		byConn: make(map[domain.ConnID]domain.RoomID),
	}
}

// RoomInfo is a read-only view for APIs (no member details).
type RoomInfo struct {
	ID          domain.RoomID     `json:"id"`
	MemberCount int               `json:"member_count"`
	Status      domain.GameStatus `json:"status"`
}

func (d *Directory) List() []RoomInfo {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]RoomInfo, 0, len(d.rooms))
	for id, r := range d.rooms {
		out = append(out, RoomInfo{ID: id, MemberCount: len(r.Users), Status: r.Game.Status})
	}
	return out
}

func (d *Directory) RoomCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.rooms)
}
