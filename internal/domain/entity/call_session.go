package entity

import "time"

const (
	SessionTypeVideo = "video"
	SessionTypeChat  = "chat"
)

type CallSession struct {
	RoomID       string    `json:"roomId" firestore:"roomId"`
	CreatedBy    string    `json:"createdBy" firestore:"createdBy"`
	Participants []string  `json:"participants" firestore:"participants"`
	SessionType  string    `json:"sessionType" firestore:"sessionType"`
	IsActive     bool      `json:"isActive" firestore:"isActive"`
	CreatedAt    time.Time `json:"createdAt" firestore:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" firestore:"updatedAt"`
}

// CanJoin reports whether userID was invited to or created the call.
func (s *CallSession) CanJoin(userID string) bool {
	if s.CreatedBy == userID {
		return true
	}
	for _, p := range s.Participants {
		if p == userID {
			return true
		}
	}
	return false
}
