package websocket

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"

	"taskmeet/internal/domain/entity"
	"taskmeet/internal/infrastructure/ratelimit"
	"taskmeet/pkg/errors"
	"taskmeet/pkg/logger"
)

// Gateway is the persistence-backed side of the realtime layer.
type Gateway interface {
	// SessionsForUser lists the rooms a user is auto-joined to on connect.
	SessionsForUser(ctx context.Context, userID string) ([]string, error)
	// AuthorizeRoom fails with a FORBIDDEN AppError when the user may not join roomID.
	AuthorizeRoom(ctx context.Context, identity entity.Identity, roomID string) error
	// PostMessage persists text and fans it out to the session room.
	PostMessage(ctx context.Context, identity entity.Identity, sessionID, text string) (*entity.Message, error)
}

// Dispatcher decodes client frames and routes them to the registry, the relay
// or the gateway. Every failure is reported to the sending connection only.
type Dispatcher struct {
	manager  *Manager
	gateway  Gateway
	limiter  *ratelimit.RateLimiter
	validate *validator.Validate
}

func NewDispatcher(manager *Manager, gateway Gateway, limiter *ratelimit.RateLimiter) *Dispatcher {
	return &Dispatcher{
		manager:  manager,
		gateway:  gateway,
		limiter:  limiter,
		validate: validator.New(),
	}
}

// Connect registers c and joins it to the rooms of its persisted sessions.
func (d *Dispatcher) Connect(ctx context.Context, c *Client) {
	d.manager.Register(c)
	d.autoJoin(ctx, c, EventJoin)
}

// HandleClientMessage processes one inbound frame.
func (d *Dispatcher) HandleClientMessage(ctx context.Context, c *Client, raw []byte) {
	env, err := parseEnvelope(raw)
	if err != nil {
		d.sendError(c, "", err)
		return
	}

	logger.Debug(logger.Conn(c.ID, c.UserID(), "received %s", env.Type))

	switch env.Type {
	case EventPing:
		d.manager.SendToClient(c, NewMessage(EventPong, map[string]string{"status": "alive"}))

	case EventJoin:
		d.handleJoin(ctx, c, env)

	case EventJoinRoom:
		d.handleJoinRoom(ctx, c, env)

	case EventLeaveRoom:
		d.handleLeaveRoom(c, env)

	case EventSendMessage, EventSendMessageLegacy:
		d.handleSendMessage(ctx, c, env)

	case EventOffer, EventAnswer, EventICECandidate, EventSignal:
		d.handleSignal(c, env)

	default:
		d.sendError(c, env.Type, errors.New(errors.CodeUnknownEvent, "Unknown message type", http.StatusBadRequest, nil))
	}
}

func (d *Dispatcher) handleJoin(ctx context.Context, c *Client, env envelope) {
	var req JoinData
	if err := decodeData(d.validate, env.Data, &req); err != nil {
		d.sendError(c, env.Type, err)
		return
	}
	if req.UserID != "" && req.UserID != c.UserID() {
		d.sendError(c, env.Type, errors.Forbidden("userId does not match the authenticated user", nil))
		return
	}

	d.autoJoin(ctx, c, env.Type)
	d.manager.SendToClient(c, NewMessage(EventActiveUsers, ActiveUsersData{Users: d.manager.Presence().ListOnline()}))
}

func (d *Dispatcher) autoJoin(ctx context.Context, c *Client, event string) {
	roomIDs, err := d.gateway.SessionsForUser(ctx, c.UserID())
	if err != nil {
		logger.Error(logger.Conn(c.ID, c.UserID(), "auto-join lookup failed: %v", err))
		d.sendError(c, event, err)
		return
	}
	for _, roomID := range roomIDs {
		d.manager.JoinRoom(c, roomID)
	}
}

func (d *Dispatcher) handleJoinRoom(ctx context.Context, c *Client, env envelope) {
	var req RoomData
	if err := decodeData(d.validate, env.Data, &req); err != nil {
		d.sendError(c, env.Type, err)
		return
	}
	if !d.allow(c, env.Type, ratelimit.ActionJoinRoom) {
		return
	}
	if err := d.gateway.AuthorizeRoom(ctx, c.Identity, req.RoomID); err != nil {
		d.sendError(c, env.Type, err)
		return
	}

	d.manager.JoinRoom(c, req.RoomID)
}

func (d *Dispatcher) handleLeaveRoom(c *Client, env envelope) {
	var req RoomData
	if err := decodeData(d.validate, env.Data, &req); err != nil {
		d.sendError(c, env.Type, err)
		return
	}
	d.manager.LeaveRoom(c, req.RoomID)
}

func (d *Dispatcher) handleSendMessage(ctx context.Context, c *Client, env envelope) {
	var req SendMessageData
	if err := decodeData(d.validate, env.Data, &req); err != nil {
		d.sendError(c, env.Type, err)
		return
	}

	if _, err := d.gateway.PostMessage(ctx, c.Identity, req.Target(), req.Text); err != nil {
		d.sendError(c, env.Type, err)
	}
}

func (d *Dispatcher) handleSignal(c *Client, env envelope) {
	req, err := decodeSignal(d.validate, env.Type, env.Data)
	if err != nil {
		d.sendError(c, env.Type, err)
		return
	}
	if !d.allow(c, env.Type, ratelimit.ActionSignal) {
		return
	}

	if _, err := d.manager.Relay(c, env.Type, req); err != nil {
		d.sendError(c, env.Type, err)
	}
}

func (d *Dispatcher) allow(c *Client, event, action string) bool {
	if d.limiter == nil {
		return true
	}
	if ok, _ := d.limiter.Allow(c.ID, action); !ok {
		d.sendError(c, event, errors.TooManyRequests("Rate limit exceeded, slow down"))
		return false
	}
	return true
}

func (d *Dispatcher) sendError(c *Client, event string, err error) {
	data := ErrorData{Code: errors.CodeInternal, Message: "An unexpected error occurred", Event: event}

	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		data.Code = appErr.Code
		data.Message = appErr.Message
	}
	if data.Code == errors.CodeInternal || data.Code == errors.CodeStorageFailure {
		logger.Error(logger.Conn(c.ID, c.UserID(), "%s failed: %v", event, err))
	}

	d.manager.SendToClient(c, NewMessage(EventError, data))
}
