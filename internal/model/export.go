package model

import "time"

// Export is the top-level JSON structure for a full data export.
type Export struct {
	ExportedAt time.Time     `json:"exported_at"`
	Topics     []TopicExport `json:"topics"`
}

// TopicExport holds one topic with its attempt history.
type TopicExport struct {
	Topic
	Attempts       []Attempt      `json:"attempts"`
	Classification Classification `json:"overall"`
}
