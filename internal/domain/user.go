package domain

import (
	"github.com/google/uuid"
)

type UserRole string

const (
	UserRoleUser  UserRole = "USER"
	UserRoleAdmin UserRole = "ADMIN"
)

// PrincipalType is the kind of account behind an access token.
type PrincipalType string

const (
	PrincipalUser      PrincipalType = "USER"
	PrincipalOrganizer PrincipalType = "ORGANIZER"
	PrincipalAdmin     PrincipalType = "ADMIN"
)

func (p PrincipalType) Valid() bool {
	switch p {
	case PrincipalUser, PrincipalOrganizer, PrincipalAdmin:
		return true
	}
	return false
}

type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	Role      UserRole  `json:"role"`
}

type Organizer struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	LogoURL *string   `json:"logo_url,omitempty"`
}
