package models

import "time"

// Role gates curation of global catalog rows.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID             string
	Email          string
	CredentialHash string
	Role           string
	CreatedAt      time.Time
}
