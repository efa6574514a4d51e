package entity

import "time"

// ChatSession groups a fixed set of users. The participant set does not change
// after creation.
type ChatSession struct {
	ID           string    `json:"id" firestore:"id"`
	Participants []string  `json:"participants" firestore:"participants"`
	CreatedAt    time.Time `json:"createdAt" firestore:"createdAt"`
}

func (s *ChatSession) HasParticipant(userID string) bool {
	for _, p := range s.Participants {
		if p == userID {
			return true
		}
	}
	return false
}
