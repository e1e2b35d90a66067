package core

import (
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/drawroom/server/internal/domain"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrNameTaken    = errors.New("username already taken in room")
)

// Membership is the state-transition logic over the Directory:
// create, join, leave, disconnect cleanup and host promotion. Every
// operation runs under the Directory mutex end to end, so two
// concurrent joins cannot both pass the duplicate-name check, and a
// leave racing a disconnect for the same connection degrades to a
// no-op on the second call. Validation of raw input happens before
// the lock, at the gateway.
type Membership struct {
	dir *Directory
}

func NewMembership(dir *Directory) *Membership {
	return &Membership{dir: dir}
}

// CreateRoom registers a fresh room whose single member, the creator,
// is host. It cannot fail for a validated username: ids come from a
// collision-resistant generator and are never reused.
func (m *Membership) CreateRoom(username string, conn domain.ConnID) RoomView {
	host := domain.NewUser(username, conn, true)
	room := domain.NewRoom(host)

	m.dir.mu.Lock()
	m.dir.rooms[room.ID] = room
	m.dir.byConn[conn] = room.ID
	view := snapshotRoom(room)
	m.dir.mu.Unlock()

	log.Info().Str("module", "core.membership").
		Str("room", string(room.ID)).Str("host", username).Msg("room created")
	return view
}

// JoinRoom appends a non-host member. Both failure checks run before
// any mutation, so a rejected join leaves no trace.
func (m *Membership) JoinRoom(roomID domain.RoomID, username string, conn domain.ConnID) (RoomView, domain.User, error) {
	m.dir.mu.Lock()
	defer m.dir.mu.Unlock()

	room, ok := m.dir.rooms[roomID]
	if !ok {
		return RoomView{}, domain.User{}, ErrRoomNotFound
	}
	if room.HasUsername(username) {
		return RoomView{}, domain.User{}, ErrNameTaken
	}

	user := domain.NewUser(username, conn, false)
	room.Users = append(room.Users, user)
	room.UpdatedAt = time.Now()
	m.dir.byConn[conn] = roomID

	log.Info().Str("module", "core.membership").
		Str("room", string(roomID)).Str("user", username).Msg("user joined")
	return snapshotRoom(room), *user, nil
}

// Leave removes the member bound to conn from its room. It services
// both explicit leave requests and transport disconnects, so an
// unknown connection is a no-op (false), not an error. A stale
// reverse-index entry is dropped on sight.
//
// When the departing member held host status and others remain, the
// earliest remaining joiner (index 0 after the shift) inherits it.
// A room left empty is deleted within the same critical section;
// no empty room is ever observable.
func (m *Membership) Leave(conn domain.ConnID) (LeaveResult, bool) {
	m.dir.mu.Lock()
	defer m.dir.mu.Unlock()

	roomID, ok := m.dir.byConn[conn]
	if !ok {
		return LeaveResult{}, false
	}
	room, ok := m.dir.rooms[roomID]
	if !ok {
		delete(m.dir.byConn, conn)
		return LeaveResult{}, false
	}
	idx, removed := room.UserByConn(conn)
	if removed == nil {
		delete(m.dir.byConn, conn)
		return LeaveResult{}, false
	}

	room.Users = append(room.Users[:idx], room.Users[idx+1:]...)
	room.UpdatedAt = time.Now()
	delete(m.dir.byConn, conn)

	if len(room.Users) == 0 {
		delete(m.dir.rooms, roomID)
		log.Info().Str("module", "core.membership").
			Str("room", string(roomID)).Msg("empty room deleted")
		return LeaveResult{RoomID: roomID, UserID: removed.ID, Username: removed.Username}, true
	}

	if removed.IsHost {
		room.Users[0].IsHost = true
		log.Info().Str("module", "core.membership").
			Str("room", string(roomID)).Str("host", room.Users[0].Username).Msg("host reassigned")
	}

	log.Info().Str("module", "core.membership").
		Str("room", string(roomID)).Str("user", removed.Username).Msg("user left")
	return LeaveResult{
		RoomID:    roomID,
		UserID:    removed.ID,
		Username:  removed.Username,
		Remaining: snapshotUsers(room.Users),
	}, true
}

// RoomOf resolves the room a connection currently belongs to.
func (m *Membership) RoomOf(conn domain.ConnID) (RoomView, bool) {
	m.dir.mu.Lock()
	defer m.dir.mu.Unlock()
	roomID, ok := m.dir.byConn[conn]
	if !ok {
		return RoomView{}, false
	}
	room, ok := m.dir.rooms[roomID]
	if !ok {
		return RoomView{}, false
	}
	return snapshotRoom(room), true
}
