package entity

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID              string    `json:"id" firestore:"id"`
	Email           string    `json:"email" firestore:"email"`
	Name            string    `json:"name" firestore:"name"`
	ProfileImageURL string    `json:"profileImageUrl,omitempty" firestore:"profileImageUrl,omitempty"`
	Role            string    `json:"role" firestore:"role"`
	CreatedAt       time.Time `json:"createdAt" firestore:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt" firestore:"updatedAt"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
