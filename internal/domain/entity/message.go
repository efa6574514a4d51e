package entity

import "time"

// Message is append-only. SenderName and SenderAvatar are resolved at post time
// so history reads need no user lookups.
type Message struct {
	ID           string    `json:"id" firestore:"id"`
	SessionID    string    `json:"sessionId" firestore:"sessionId"`
	SenderID     string    `json:"senderId" firestore:"senderId"`
	SenderName   string    `json:"senderName,omitempty" firestore:"senderName,omitempty"`
	SenderAvatar string    `json:"senderAvatar,omitempty" firestore:"senderAvatar,omitempty"`
	Text         string    `json:"text" firestore:"text"`
	CreatedAt    time.Time `json:"createdAt" firestore:"createdAt"`
}
