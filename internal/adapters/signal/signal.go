package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/drawroom/server/internal/app"
	"github.com/drawroom/server/internal/config"
	"github.com/drawroom/server/internal/core"
	"github.com/drawroom/server/internal/domain"
)

var ErrBackpressure = errors.New("backpressure")

// Controller is the event gateway: it binds inbound websocket events
// to the membership service and fans resulting broadcasts back out
// through the registry.
type Controller struct {
	Members  *core.Membership
	Registry *app.Registry
	Limiter  *RoomRateLimiter

	cfg      *config.Config
	validate *validator.Validate
}

func NewController(cfg *config.Config, members *core.Membership, reg *app.Registry) *Controller {
	return &Controller{
		Members:  members,
		Registry: reg,
		Limiter:  NewRoomRateLimiter(cfg.RoomOpsLimit, cfg.RoomOpsWindow),
		cfg:      cfg,
		validate: validator.New(),
	}
}

// WsConn wraps one websocket with a buffered outbound channel.
// TrySend never blocks; a full buffer means the frame is dropped.
type WsConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal upgrades the request and runs the connection until it
// drops. Every websocket gets its own fresh connection id; the
// browser's client token is only a logging aid.
func (ctl *Controller) HandleSignal(ctx context.Context, c *gin.Context) {
	connID := domain.ConnID(uuid.NewString())
	log.Info().Str("module", "signal").Str("conn", string(connID)).
		Str("client", c.GetString("client_token")).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("ws upgrade")
		return
	}
	ws.SetReadLimit(ctl.cfg.ReadLimit)

	conn := &WsConn{
		conn: ws,
		send: make(chan core.Frame, 32),
	}

	ctx, cancel := context.WithCancel(ctx)
	ctl.Registry.Bind(connID, conn, cancel)

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, connID, conn)
}

// handleDisconnect runs once per connection, after the read pump
// unwinds. Cleanup faults are logged and must never reach, or take
// down, any other connection.
func (ctl *Controller) handleDisconnect(connID domain.ConnID) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("module", "signal").Str("conn", string(connID)).
				Any("panic", r).Msg("disconnect cleanup panicked")
		}
	}()

	ctl.leaveCurrent(connID)
	ctl.Registry.Cancel(connID)
	ctl.Registry.Unbind(connID)
	ctl.Limiter.Forget(connID)
}

func (ctl *Controller) sendJSON(s core.Sender, v any) {
	b, err := jsonMarshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = s.TrySend(b)
}

// broadcast delivers v to every listed member except the one bound to
// skip. Members whose connection is already gone are skipped quietly.
func (ctl *Controller) broadcast(users []domain.User, skip domain.ConnID, v any) {
	b, err := jsonMarshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("broadcast marshal")
		return
	}
	sent := 0
	for _, u := range users {
		if u.ConnID == skip {
			continue
		}
		s, ok := ctl.Registry.Get(u.ConnID)
		if !ok {
			continue
		}
		if err := s.TrySend(b); err == nil {
			sent++
		}
	}
	log.Debug().Str("module", "signal").Int("sent_to", sent).Msg("broadcast result")
}

func (ctl *Controller) sendError(s core.Sender, code, message string) {
	ctl.sendJSON(s, newError(code, message))
}

var pumpWriteDeadline = 5 * time.Second
