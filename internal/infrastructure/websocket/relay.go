package websocket

import (
	"taskmeet/pkg/errors"
	"taskmeet/pkg/logger"
)

// Relay forwards a signaling payload from one connection to its target and
// returns the number of connections reached. An unreachable target is logged
// and dropped; the sender is not told. When req.RoomID is set both ends must
// be members of that room.
func (m *Manager) Relay(from *Client, eventType string, req SignalData) (int, error) {
	if req.RoomID != "" && !m.rooms.IsMember(req.RoomID, from.ID) {
		return 0, errors.Forbidden("You are not a member of this room", nil)
	}

	frame, err := encode(NewMessage(eventType, SignalForwardData{
		From:       from.ID,
		FromUserID: from.UserID(),
		FromName:   from.Identity.Name,
		FromAvatar: from.Identity.AvatarURL,
		RoomID:     req.RoomID,
		Payload:    req.Payload,
	}))
	if err != nil {
		return 0, errors.Internal("Failed to encode signal", err)
	}

	delivered := 0
	for _, connID := range m.resolveTargets(from, req) {
		if req.RoomID != "" && !m.rooms.IsMember(req.RoomID, connID) {
			continue
		}
		if m.sendFrameToConn(connID, frame) {
			delivered++
		}
	}

	if delivered == 0 {
		target := req.To
		if target == "" {
			target = "user " + req.UserID
		}
		logger.Warn(logger.Conn(from.ID, from.UserID(), "%s dropped: %v", eventType, errors.TargetUnreachable(target)))
	}
	return delivered, nil
}

func (m *Manager) resolveTargets(from *Client, req SignalData) []string {
	if req.To != "" {
		if req.To == from.ID {
			return nil
		}
		return []string{req.To}
	}

	var targets []string
	for _, connID := range m.presence.Connections(req.UserID) {
		if connID != from.ID {
			targets = append(targets, connID)
		}
	}
	return targets
}
