package domain

import (
	"time"

	"github.com/google/uuid"
)

// Article is the persisted form of a raw mediastack record. URL is the
// identity key: the first sighting of a URL creates the row, later
// sightings are skipped, never merged.
type Article struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Content      string    `json:"content,omitempty"`
	Author       string    `json:"author,omitempty"`
	URL          string    `json:"url"`
	SourceName   string    `json:"sourceName,omitempty"`
	ImageURL     string    `json:"imageUrl,omitempty"`
	CategoryName string    `json:"categoryName,omitempty"`
	Language     string    `json:"language,omitempty"`
	Country      string    `json:"country,omitempty"`
	PublishedAt  time.Time `json:"publishedAt"`
	IsActive     bool      `json:"isActive"`
	IsFeatured   bool      `json:"isFeatured"`
	ViewCount    int       `json:"viewCount"`
	Sentiment    *float64  `json:"sentimentScore,omitempty"`
	Tags         []string  `json:"tags,omitempty"`
	Keywords     []string  `json:"keywords,omitempty"`
	Slug         string    `json:"slug"`
	SourceID     uuid.UUID `json:"sourceId"`
	CategoryID   uuid.UUID `json:"categoryId"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
