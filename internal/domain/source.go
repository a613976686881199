package domain

import (
	"time"

	"github.com/google/uuid"
)

// Source is a canonical news outlet, keyed by its external mediastack id.
// Exactly one row exists per key; rows are created lazily on first reference.
type Source struct {
	ID           uuid.UUID `json:"id"`
	MediastackID string    `json:"mediastackId"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	Category     string    `json:"category,omitempty"`
	Country      string    `json:"country,omitempty"`
	Language     string    `json:"language,omitempty"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
