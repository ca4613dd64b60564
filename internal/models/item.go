package models

import (
	"time"

	"github.com/lib/pq"
)

// Item is a marketplace listing that messages may reference.
type Item struct {
	ID          int            `db:"id" json:"id"`
	OwnerID     int            `db:"owner_id" json:"owner_id"`
	Title       string         `db:"title" json:"title"`
	Description string         `db:"description" json:"description,omitempty"`
	ImageURLs   pq.StringArray `db:"image_urls" json:"image_urls"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}

// ItemRef is the listing shape embedded in resolved message views.
type ItemRef struct {
	ID        int      `json:"id"`
	Title     string   `json:"title"`
	ImageURLs []string `json:"image_urls,omitempty"`
}

// Ref derives the boundary representation of the item.
func (i Item) Ref() ItemRef {
	return ItemRef{ID: i.ID, Title: i.Title, ImageURLs: []string(i.ImageURLs)}
}
