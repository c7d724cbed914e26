package models

import (
	"time"

	"github.com/lib/pq"
)

// ClassificationRule scores an article against keyword/pattern lists and maps
// it to a target category when the weighted score passes the threshold.
type ClassificationRule struct {
	ID          int64  `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description"`

	TargetCategory ContentCategory `db:"target_category" json:"target_category"`

	TitleKeywords   pq.StringArray `db:"title_keywords" json:"title_keywords"`
	ContentKeywords pq.StringArray `db:"content_keywords" json:"content_keywords"`
	URLPatterns     pq.StringArray `db:"url_patterns" json:"url_patterns"`
	SourceDomains   pq.StringArray `db:"source_domains" json:"source_domains"`

	// Weights are independent; they are not required to sum to 1.
	TitleWeight   float64 `db:"title_weight" json:"title_weight"`
	ContentWeight float64 `db:"content_weight" json:"content_weight"`
	URLWeight     float64 `db:"url_weight" json:"url_weight"`
	DomainWeight  float64 `db:"domain_weight" json:"domain_weight"`

	ClassificationThreshold float64 `db:"classification_threshold" json:"classification_threshold"`

	IsActive bool `db:"is_active" json:"is_active"`
	Priority int  `db:"priority" json:"priority"` // lower = evaluated first, tie-break only

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
