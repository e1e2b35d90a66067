package domain

import (
	"time"

	"github.com/google/uuid"
)

type RoomID string

type GameStatus string

const (
	StatusWaiting  GameStatus = "waiting"
	StatusActive   GameStatus = "active"
	StatusFinished GameStatus = "finished"
)

const DefaultTurnSeconds = 30

// GameState is opaque to the membership core; it is carried on the
// room and handed to the game phase untouched.
type GameState struct {
	Status    GameStatus `json:"status"`
	Word      *string    `json:"word"`
	StartedAt *time.Time `json:"startedAt"`
	TimeLeft  int        `json:"timeLeft"`
	Winner    *string    `json:"winner"`
}

// Room holds members in join order. Users[0] is the fallback next
// host when the current host leaves.
type Room struct {
	ID        RoomID    `json:"id"`
	Users     []*User   `json:"users"`
	Game      GameState `json:"gameState"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewRoom constructs a room around its creator, who is always host.
func NewRoom(creator *User) *Room {
	now := time.Now()
	return &Room{
		ID:    RoomID(uuid.NewString()),
		Users: []*User{creator},
		Game: GameState{
			Status:   StatusWaiting,
			TimeLeft: DefaultTurnSeconds,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// HasUsername reports whether any current member uses name. The
// comparison is case-sensitive.
func (r *Room) HasUsername(name string) bool {
	for _, u := range r.Users {
		if u.Username == name {
			return true
		}
	}
	return false
}

// UserByConn returns the member bound to the given connection.
func (r *Room) UserByConn(conn ConnID) (int, *User) {
	for i, u := range r.Users {
		if u.ConnID == conn {
			return i, u
		}
	}
	return -1, nil
}
