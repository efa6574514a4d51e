package websocket

import (
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/tidwall/gjson"

	"taskmeet/internal/domain/entity"
	"taskmeet/pkg/errors"
	"taskmeet/pkg/response"
)

// Client to server events.
const (
	EventPing              = "ping"
	EventJoin              = "join"
	EventJoinRoom          = "join-room"
	EventLeaveRoom         = "leave-room"
	EventSendMessage       = "send-message"
	EventSendMessageLegacy = "sendMessage"
	EventOffer             = "offer"
	EventAnswer            = "answer"
	EventICECandidate      = "ice-candidate"
	EventSignal            = "signal"
)

// Server to client events.
const (
	EventPong               = "pong"
	EventParticipantJoined  = "participant-joined"
	EventParticipantLeft    = "participant-left"
	EventRoomMembers        = "room-members"
	EventReceiveMessage     = "receive-message"
	EventActiveUsers        = "activeUsers"
	EventCallSessionCreated = "call-session-created"
	EventError              = "error"
)

const maxTextLength = 2000

// WSMessage is the envelope for every frame in both directions.
type WSMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
}

func NewMessage(eventType string, data interface{}) WSMessage {
	return WSMessage{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
}

// Inbound payloads

type JoinData struct {
	UserID string `json:"userId" validate:"omitempty,max=128"`
}

type RoomData struct {
	RoomID string `json:"roomId" validate:"required,max=128"`
}

// SendMessageData names its session with sessionId. Legacy sendMessage clients
// send chatSessionId or roomId instead.
type SendMessageData struct {
	SessionID     string `json:"sessionId" validate:"required_without_all=ChatSessionID RoomID,max=128"`
	ChatSessionID string `json:"chatSessionId" validate:"omitempty,max=128"`
	RoomID        string `json:"roomId" validate:"omitempty,max=128"`
	Text          string `json:"text" validate:"required,max=2000"`
}

// Target returns the session the message is addressed to.
func (d SendMessageData) Target() string {
	switch {
	case d.SessionID != "":
		return d.SessionID
	case d.ChatSessionID != "":
		return d.ChatSessionID
	default:
		return d.RoomID
	}
}

// SignalData addresses a connection directly with To, or every connection of
// a user with UserID. Payload is never inspected.
type SignalData struct {
	To      string          `json:"to" validate:"required_without=UserID,max=128"`
	UserID  string          `json:"userId" validate:"required_without=To,max=128"`
	RoomID  string          `json:"roomId" validate:"omitempty,max=128"`
	Payload json.RawMessage `json:"payload" validate:"required"`
}

// Outbound payloads

type ParticipantJoinedData struct {
	RoomID      string      `json:"roomId"`
	Participant Participant `json:"participant"`
}

type ParticipantLeftData struct {
	RoomID       string `json:"roomId"`
	UserID       string `json:"userId"`
	ConnectionID string `json:"connectionId"`
}

type RoomMembersData struct {
	RoomID       string        `json:"roomId"`
	Participants []Participant `json:"participants"`
}

type ReceiveMessageData struct {
	Message *entity.Message `json:"message"`
}

type ActiveUsersData struct {
	Users []string `json:"users"`
}

type CallSessionCreatedData struct {
	Session *entity.CallSession `json:"session"`
}

type SignalForwardData struct {
	From       string          `json:"from"`
	FromUserID string          `json:"fromUserId"`
	FromName   string          `json:"fromName,omitempty"`
	FromAvatar string          `json:"fromAvatar,omitempty"`
	RoomID     string          `json:"roomId,omitempty"`
	Payload    json.RawMessage `json:"payload"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Event   string `json:"event,omitempty"`
}

// envelope is a routed but not yet decoded inbound frame.
type envelope struct {
	Type string
	Data []byte
}

// parseEnvelope routes on "type" without decoding the payload.
func parseEnvelope(raw []byte) (envelope, error) {
	if !gjson.ValidBytes(raw) {
		return envelope{}, errors.Validation("message is not valid JSON", nil)
	}

	t := gjson.GetBytes(raw, "type")
	if t.Type != gjson.String || t.Str == "" {
		return envelope{}, errors.Validation("type is required", nil)
	}

	data := gjson.GetBytes(raw, "data")
	if !data.Exists() || data.Type == gjson.Null {
		return envelope{Type: t.Str, Data: []byte("{}")}, nil
	}
	if !data.IsObject() {
		return envelope{}, errors.Validation("data must be an object", nil)
	}

	return envelope{Type: t.Str, Data: []byte(data.Raw)}, nil
}

// decodeData unmarshals an event payload into dst and applies its validate tags.
func decodeData(validate *validator.Validate, data []byte, dst interface{}) error {
	if err := json.Unmarshal(data, dst); err != nil {
		return errors.Validation("data does not match the event schema", err)
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return errors.Validation(response.DescribeValidation(verrs), err)
		}
		return errors.Validation("invalid event data", err)
	}
	return nil
}

// decodeSignal accepts the legacy {userId, signal} shape of the "signal" event.
func decodeSignal(validate *validator.Validate, eventType string, data []byte) (SignalData, error) {
	var req SignalData
	if eventType == EventSignal && !gjson.GetBytes(data, "payload").Exists() {
		if legacy := gjson.GetBytes(data, "signal"); legacy.Exists() {
			req.Payload = json.RawMessage(legacy.Raw)
		}
	}
	if err := decodeData(validate, data, &req); err != nil {
		return req, err
	}
	if string(req.Payload) == "null" {
		return req, errors.Validation("payload is required", nil)
	}
	return req, nil
}
