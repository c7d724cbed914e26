package models

import "time"

// Article is the content item the resolution engine classifies. The pipeline
// owns the full record; only the fields below feed classification.
type Article struct {
	ID              int64     `db:"id" json:"id"`
	Title           string    `db:"title" json:"title"`
	ContentOriginal string    `db:"content_original" json:"content_original"`
	SourceURL       string    `db:"source_url" json:"source_url"`
	SourcePlatform  string    `db:"source_platform" json:"source_platform"` // "medium", "toutiao", ...
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}
