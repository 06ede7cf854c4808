package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

func NewUser(email, username, passwordHash string) *User {
	return &User{
		ID:           uuid.New().String(),
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
}

// HistoryEntry records one watch-history item for a user.
type HistoryEntry struct {
	VideoID   string    `json:"videoId"`
	WatchedAt time.Time `json:"watchedAt"`
	Progress  float64   `json:"progress"`
}
