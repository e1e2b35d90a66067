package core

import "github.com/drawroom/server/internal/domain"

// RoomView is a copy of room state handed across the lock boundary.
// Callers read it freely after the mutation that produced it; it
// never aliases live Directory state.
type RoomView struct {
	ID    domain.RoomID
	Users []domain.User
	Game  domain.GameState
}

// LeaveResult describes the outcome of a leave or disconnect so the
// gateway can notify the former room. An empty Remaining list means
// the room was deleted and there is nobody left to notify.
type LeaveResult struct {
	RoomID    domain.RoomID
	UserID    domain.UserID
	Username  string
	Remaining []domain.User
}

func (lr LeaveResult) RoomDeleted() bool { return len(lr.Remaining) == 0 }

func snapshotUsers(users []*domain.User) []domain.User {
	out := make([]domain.User, len(users))
	for i, u := range users {
		out[i] = *u
	}
	return out
}

func snapshotRoom(r *domain.Room) RoomView {
	return RoomView{ID: r.ID, Users: snapshotUsers(r.Users), Game: r.Game}
}
