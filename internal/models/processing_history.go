package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// JSONMap stores loosely structured JSON columns (prompt/provider bindings,
// step lists) the way the history table persists them.
type JSONMap map[string]interface{}

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *JSONMap) Scan(src interface{}) error {
	if src == nil {
		*m = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	}
	return fmt.Errorf("unsupported type for JSONMap: %T", src)
}

// ProcessingHistory is the write-once audit record of one resolution and the
// pipeline outcome it led to. Nothing in the resolution path reads it back.
type ProcessingHistory struct {
	ID               int64  `db:"id" json:"id"`
	ArticleID        int64  `db:"article_id" json:"article_id"`
	ProcessingRuleID *int64 `db:"processing_rule_id" json:"processing_rule_id,omitempty"`

	ContentCategory          ContentCategory `db:"content_category" json:"content_category"`
	ClassificationConfidence float64         `db:"classification_confidence" json:"classification_confidence"`

	UsedPrompts   JSONMap `db:"used_prompts" json:"used_prompts,omitempty"`
	UsedProviders JSONMap `db:"used_providers" json:"used_providers,omitempty"`

	ProcessingSteps    JSONMap `db:"processing_steps" json:"processing_steps,omitempty"`
	Success            bool    `db:"success" json:"success"`
	ErrorMessage       string  `db:"error_message" json:"error_message,omitempty"`
	ProcessingTime     float64 `db:"processing_time" json:"processing_time"` // seconds
	FinalAIProbability float64 `db:"final_ai_probability" json:"final_ai_probability"`
	OptimizationRounds int     `db:"optimization_rounds" json:"optimization_rounds"`
	QualityScore       float64 `db:"quality_score" json:"quality_score"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
