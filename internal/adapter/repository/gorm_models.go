package repository

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"taskmeet/internal/domain/entity"
)

type userModel struct {
	ID              string `gorm:"primaryKey"`
	Email           string `gorm:"index"`
	Name            string
	ProfileImageURL string
	Role            string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (userModel) TableName() string { return "users" }

type chatSessionModel struct {
	ID string `gorm:"primaryKey"`
	// ParticipantKey is the sorted, comma-joined member list. Indexed, not unique.
	ParticipantKey string `gorm:"index"`
	CreatedAt      time.Time
	Members        []chatMemberModel `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
}

func (chatSessionModel) TableName() string { return "chat_sessions" }

type chatMemberModel struct {
	SessionID string `gorm:"primaryKey"`
	UserID    string `gorm:"primaryKey;index"`
}

func (chatMemberModel) TableName() string { return "chat_session_members" }

type messageModel struct {
	ID           string `gorm:"primaryKey"`
	SessionID    string `gorm:"index:idx_messages_session_created,priority:1"`
	SenderID     string
	SenderName   string
	SenderAvatar string
	Text         string
	CreatedAt    time.Time `gorm:"index:idx_messages_session_created,priority:2"`
}

func (messageModel) TableName() string { return "messages" }

type callSessionModel struct {
	RoomID       string `gorm:"primaryKey"`
	CreatedBy    string
	SessionType  string
	IsActive     bool `gorm:"index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Participants []callParticipantModel `gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE"`
}

func (callSessionModel) TableName() string { return "call_sessions" }

type callParticipantModel struct {
	RoomID string `gorm:"primaryKey"`
	UserID string `gorm:"primaryKey;index"`
}

func (callParticipantModel) TableName() string { return "call_session_participants" }

// MigrateSQL creates or updates the relational schema used by the GORM repositories.
func MigrateSQL(db *gorm.DB) error {
	return db.AutoMigrate(
		&userModel{},
		&chatSessionModel{},
		&chatMemberModel{},
		&messageModel{},
		&callSessionModel{},
		&callParticipantModel{},
	)
}

func participantKey(ids []string) string {
	return strings.Join(normalizeParticipants(ids), ",")
}

func toUserModel(u *entity.User) *userModel {
	return &userModel{
		ID:              u.ID,
		Email:           u.Email,
		Name:            u.Name,
		ProfileImageURL: u.ProfileImageURL,
		Role:            u.Role,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

func (m *userModel) toEntity() *entity.User {
	return &entity.User{
		ID:              m.ID,
		Email:           m.Email,
		Name:            m.Name,
		ProfileImageURL: m.ProfileImageURL,
		Role:            m.Role,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func (m *chatSessionModel) toEntity() *entity.ChatSession {
	participants := make([]string, 0, len(m.Members))
	for _, member := range m.Members {
		participants = append(participants, member.UserID)
	}
	return &entity.ChatSession{
		ID:           m.ID,
		Participants: normalizeParticipants(participants),
		CreatedAt:    m.CreatedAt,
	}
}

func toMessageModel(msg *entity.Message) *messageModel {
	return &messageModel{
		ID:           msg.ID,
		SessionID:    msg.SessionID,
		SenderID:     msg.SenderID,
		SenderName:   msg.SenderName,
		SenderAvatar: msg.SenderAvatar,
		Text:         msg.Text,
		CreatedAt:    msg.CreatedAt,
	}
}

func (m *messageModel) toEntity() *entity.Message {
	return &entity.Message{
		ID:           m.ID,
		SessionID:    m.SessionID,
		SenderID:     m.SenderID,
		SenderName:   m.SenderName,
		SenderAvatar: m.SenderAvatar,
		Text:         m.Text,
		CreatedAt:    m.CreatedAt,
	}
}

func (m *callSessionModel) toEntity() *entity.CallSession {
	participants := make([]string, 0, len(m.Participants))
	for _, p := range m.Participants {
		participants = append(participants, p.UserID)
	}
	return &entity.CallSession{
		RoomID:       m.RoomID,
		CreatedBy:    m.CreatedBy,
		Participants: normalizeParticipants(participants),
		SessionType:  m.SessionType,
		IsActive:     m.IsActive,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
