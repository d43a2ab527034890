// Package queue defines message payloads exchanged over the message
// broker, the publisher that emits them and the background consumer
// that records them.
package queue

// PracticeRecordedEvent is published after a practice result has been
// stored. It carries enough information for downstream consumers to
// log, notify, or feed analytics without querying the primary
// database.
type PracticeRecordedEvent struct {
	PracticeID   uint64 `json:"practice_id"`
	UserID       uint64 `json:"user_id"`
	DictationID  uint64 `json:"dictation_id"`
	Title        string `json:"title"`
	Language     string `json:"language"`
	Score        uint8  `json:"score"`
	TotalWords   uint32 `json:"total_words"`
	CorrectCount uint32 `json:"correct_count"`
	RecordedAt   string `json:"recorded_at"`
}
