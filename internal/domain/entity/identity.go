package entity

// Identity is the authenticated caller behind a request or a live connection.
// Name and AvatarURL come from token claims when present and are otherwise
// filled from the user profile.
type Identity struct {
	UserID    string `json:"userId"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatar,omitempty"`
	Role      string `json:"role,omitempty"`
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}
