package models

import "time"

// PromptTemplate is a reusable prompt a processing rule can bind for the
// translation, optimization or title-generation stages.
type PromptTemplate struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	DisplayName string    `db:"display_name" json:"display_name"`
	PromptType  string    `db:"prompt_type" json:"prompt_type"` // translation, optimization, title_generation
	Content     string    `db:"content" json:"content"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
