// Package domain contains entities without logic, just meta-data.
package domain

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	MinUsernameLen = 2
	MaxUsernameLen = 20
)

var (
	ErrUsernameEmpty    = errors.New("username empty")
	ErrUsernameTooShort = errors.New("username too short")
	ErrUsernameTooLong  = errors.New("username too long")
)

type (
	UserID string
	ConnID string
)

// Role is assigned once the game phase starts; nil while waiting.
type Role string

const (
	RoleMafia   Role = "mafia"
	RoleDrawer  Role = "drawer"
	RoleGuesser Role = "guesser"
)

// User is one member of one room. Identity never migrates between
// rooms; rejoining elsewhere produces a fresh User.
type User struct {
	ID       UserID    `json:"id"`
	Username string    `json:"username"`
	ConnID   ConnID    `json:"-"`
	Role     *Role     `json:"role"`
	IsHost   bool      `json:"isHost"`
	JoinedAt time.Time `json:"joinedAt"`
}

// NormalizeUsername trims and validates a display name.
// Length is counted in runes, 2 to 20 after trim.
func NormalizeUsername(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", ErrUsernameEmpty
	}
	n := utf8.RuneCountInString(name)
	if n < MinUsernameLen {
		return "", ErrUsernameTooShort
	}
	if n > MaxUsernameLen {
		return "", ErrUsernameTooLong
	}
	return name, nil
}

// NewUser avoids raw literals outside the domain and keeps construction obvious.
func NewUser(username string, conn ConnID, host bool) *User {
	return &User{
		ID:       UserID(uuid.NewString()),
		Username: username,
		ConnID:   conn,
		IsHost:   host,
		JoinedAt: time.Now(),
	}
}
