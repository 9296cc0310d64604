package model

import "time"

// Item is a single inventory record. Photo, when present, is a
// self-contained data URL; there are no external file references.
type Item struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Shop      string    `json:"shop,omitempty"`
	Price     float64   `json:"price"`
	Notes     string    `json:"notes,omitempty"`
	Photo     string    `json:"photo,omitempty"`
	DateAdded time.Time `json:"dateAdded"`
}
