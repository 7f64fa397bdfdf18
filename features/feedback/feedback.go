package feedback

import (
	"time"
)

// Feedback is a user's verdict on one recommended assessment.
type Feedback struct {
	ID            string    `json:"id"`
	Query         string    `json:"query"`
	URL           string    `json:"url"`
	Score         int       `json:"score"`
	Comment       string    `json:"comment"`
	CorrelationID string    `json:"correlation_id"`
	CreatedAt     time.Time `json:"created_at"`
}
