package signal

import "github.com/drawroom/server/internal/domain"

// Inbound event types.
const (
	evCreateRoom = "create_room"
	evJoinRoom   = "join_room"
	evLeaveRoom  = "leave_room"
	evPing       = "ping"
)

// Outbound event types. The set is closed: every frame the server
// emits is one of the structs below.
const (
	evRoomCreated = "room_created"
	evRoomJoined  = "room_joined"
	evUserJoined  = "user_joined"
	evUserLeft    = "user_left"
	evPong        = "pong"
	evError       = "error"
)

// Error codes surfaced to clients.
const (
	CodeInvalidUsername = "INVALID_USERNAME"
	CodeInvalidInput    = "INVALID_INPUT"
	CodeJoinFailed      = "JOIN_FAILED"
	CodeRateLimited     = "RATE_LIMITED"
	CodeServerError     = "SERVER_ERROR"
)

type roomCreatedMsg struct {
	Type  string        `json:"type"`
	Room  domain.RoomID `json:"room"`
	User  domain.User   `json:"user"`
	Users []domain.User `json:"users"`
}

type roomJoinedMsg struct {
	Type  string        `json:"type"`
	User  domain.User   `json:"user"`
	Users []domain.User `json:"users"`
}

type userJoinedMsg struct {
	Type  string        `json:"type"`
	User  domain.User   `json:"user"`
	Users []domain.User `json:"users"`
}

type userLeftMsg struct {
	Type   string        `json:"type"`
	UserID domain.UserID `json:"user_id"`
	Users  []domain.User `json:"users"`
}

type pongMsg struct {
	Type string `json:"type"`
}

type errorMsg struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func newError(code, message string) errorMsg {
	return errorMsg{Type: evError, Code: code, Message: message}
}
