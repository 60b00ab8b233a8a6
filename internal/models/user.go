package models

// User is the authenticated account as returned by the profile endpoint.
type User struct {
	ID             int    `json:"id"`
	Email          string `json:"email" validate:"required"`
	Username       string `json:"username"`
	Name           string `json:"name"`
	AuthProvider   string `json:"auth_provider,omitempty"`
	ProfilePicture string `json:"profile_picture,omitempty"`
	DateJoined     Time   `json:"date_joined"`
}

// DisplayName prefers the full name, then the username, then the email.
func (u User) DisplayName() string {
	return FirstNonEmpty(u.Name, u.Username, u.Email)
}

// Tokens is the access/refresh credential pair issued on login.
type Tokens struct {
	Access  string `json:"access" validate:"required"`
	Refresh string `json:"refresh"`
}
