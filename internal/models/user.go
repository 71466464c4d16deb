package models

import (
	"strings"
	"time"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

func ParseRole(value string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(value))) {
	case RoleUser:
		return RoleUser, true
	case RoleAdmin:
		return RoleAdmin, true
	}
	return "", false
}

// User represents the application user account.
type User struct {
	ID           string    `bson:"_id" db:"id" json:"id"`
	Name         string    `bson:"name" db:"name" json:"name"`
	Email        string    `bson:"email" db:"email" json:"email"`
	PasswordHash string    `bson:"passwordHash" db:"password_hash" json:"-"`
	Role         Role      `bson:"role" db:"role" json:"role"`
	CreatedAt    time.Time `bson:"createdAt" db:"created_at" json:"createdAt"`
}
