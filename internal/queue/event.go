// Package queue carries maternal-health submission events over RabbitMQ.
package queue

// SubmissionEvent is published after a maternal-health record has been
// stored.  It carries enough for downstream consumers to log or notify
// without querying the primary database.
type SubmissionEvent struct {
    RecordID       uint64   `json:"record_id"`
    UserID         *uint64  `json:"user_id,omitempty"`
    ExternalID     string   `json:"external_id,omitempty"`
    Risk           *float64 `json:"risk,omitempty"`
    PredictionFile string   `json:"prediction_file,omitempty"`
    SubmittedAt    string   `json:"submitted_at"` // RFC3339, UTC
}
