package signal

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/drawroom/server/internal/core"
	"github.com/drawroom/server/internal/domain"
)

func (ctl *Controller) handleCreateRoom(connID domain.ConnID, c *WsConn, data []byte) {
	type createPayload struct {
		Type     string `json:"type"`
		Username string `json:"username" validate:"required"`
	}
	var p createPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad create payload")
		ctl.sendError(c, CodeInvalidUsername, "a username is required")
		return
	}
	if err := ctl.validate.Struct(p); err != nil {
		ctl.sendError(c, CodeInvalidUsername, "a username is required")
		return
	}
	username, err := domain.NormalizeUsername(p.Username)
	if err != nil {
		ctl.sendError(c, CodeInvalidUsername, "username must be 2-20 characters")
		return
	}
	if !ctl.Limiter.Allow(connID) {
		ctl.sendError(c, CodeRateLimited, "too many room requests, slow down")
		return
	}

	ctl.leaveCurrent(connID)
	view := ctl.Members.CreateRoom(username, connID)

	ctl.sendJSON(c, roomCreatedMsg{
		Type:  evRoomCreated,
		Room:  view.ID,
		User:  view.Users[0],
		Users: view.Users,
	})
	log.Info().Str("module", "signal").Str("conn", string(connID)).
		Str("room", string(view.ID)).Msg("room created")
}

func (ctl *Controller) handleJoin(connID domain.ConnID, c *WsConn, data []byte) {
	type joinPayload struct {
		Type     string `json:"type"`
		Room     string `json:"room" validate:"required"`
		Username string `json:"username" validate:"required"`
	}
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.sendError(c, CodeInvalidInput, "a room id and username are required")
		return
	}
	if err := ctl.validate.Struct(p); err != nil {
		ctl.sendError(c, CodeInvalidInput, "a room id and username are required")
		return
	}
	username, err := domain.NormalizeUsername(p.Username)
	if err != nil {
		ctl.sendError(c, CodeInvalidUsername, "username must be 2-20 characters")
		return
	}
	if !ctl.Limiter.Allow(connID) {
		ctl.sendError(c, CodeRateLimited, "too many room requests, slow down")
		return
	}

	ctl.leaveCurrent(connID)
	view, user, err := ctl.Members.JoinRoom(domain.RoomID(p.Room), username, connID)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrRoomNotFound):
			ctl.sendError(c, CodeJoinFailed, "room does not exist")
		case errors.Is(err, core.ErrNameTaken):
			ctl.sendError(c, CodeJoinFailed, "that name is already taken in this room")
		default:
			ctl.sendError(c, CodeServerError, "could not join room")
		}
		log.Warn().Err(err).Str("module", "signal").Str("conn", string(connID)).
			Str("room", p.Room).Msg("join rejected")
		return
	}

	ctl.sendJSON(c, roomJoinedMsg{Type: evRoomJoined, User: user, Users: view.Users})
	ctl.broadcast(view.Users, connID, userJoinedMsg{Type: evUserJoined, User: user, Users: view.Users})
	log.Info().Str("module", "signal").Str("conn", string(connID)).
		Str("room", string(view.ID)).Str("user", username).Msg("join")
}

// handleLeave removes the member but keeps the socket open, so the
// client can create or join another room on the same connection.
func (ctl *Controller) handleLeave(connID domain.ConnID, c *WsConn) {
	log.Info().Str("module", "signal").Str("conn", string(connID)).Msg("leave")
	ctl.leaveCurrent(connID)
}

// leaveCurrent detaches the connection from whatever room it is in
// and tells the remaining members. A connection in no room is a
// no-op; create and join call this first so one connection never
// occupies two rooms.
func (ctl *Controller) leaveCurrent(connID domain.ConnID) {
	res, ok := ctl.Members.Leave(connID)
	if !ok || res.RoomDeleted() {
		return
	}
	ctl.broadcast(res.Remaining, connID, userLeftMsg{
		Type:   evUserLeft,
		UserID: res.UserID,
		Users:  res.Remaining,
	})
}
