package model

import "time"

// Dictation is a named collection of words a user practices against.
// The word list is always replaced wholesale on update; individual
// word identity does not survive an edit.
//
// Fields:
//  ID          – primary key identifier.
//  Title       – non-empty display title.
//  Language    – short language code of the word set (e.g. "en", "ru").
//  Description – optional free-form description.
//  IsPublic    – when true the dictation appears in the public listing
//                for every authenticated user; otherwise owner-only.
//  AuthorID    – user who owns the dictation.
//  CreatedAt   – creation timestamp.
type Dictation struct {
	ID          uint64    // dictations.id
	Title       string    // dictations.title
	Language    string    // dictations.language
	Description *string   // dictations.description (nullable)
	IsPublic    bool      // dictations.is_public
	AuthorID    uint64    // dictations.author_id
	CreatedAt   time.Time // dictations.created_at

	// Words holds the dictation's word rows when the caller asked for
	// them to be loaded. It is not populated by every query.
	Words []Word
}

// Word is a single practice item inside a dictation: the text to
// spell plus an optional hint and an optional pronunciation audio
// URL. A word exists only as a child of exactly one dictation and
// always carries the dictation author's id.
//
// Fields:
//  ID          – primary key identifier.
//  Text        – the word or phrase itself (non-empty, max 200 chars).
//  Hint        – optional hint shown to the learner.
//  AudioURL    – optional storage-relative pronunciation URL
//                (null when no audio could be resolved).
//  AuthorID    – equals the owning dictation's author_id.
//  DictationID – owning dictation.
//  CreatedAt   – creation timestamp.
type Word struct {
	ID          uint64    // words.id
	Text        string    // words.text
	Hint        *string   // words.hint (nullable)
	AudioURL    *string   // words.audio_url (nullable)
	AuthorID    uint64    // words.author_id
	DictationID uint64    // words.dictation_id
	CreatedAt   time.Time // words.created_at
}

// PracticeError records one mistaken word inside a practice attempt.
// The whole slice is serialized to JSON into the `errors` column of
// dictation_practices; an empty attempt stores SQL NULL instead.
type PracticeError struct {
	Word      string `json:"word"`       // the expected word text
	UserInput string `json:"user_input"` // what the learner typed
	Correct   bool   `json:"correct"`    // correctness flag for the entry
}

// DictationPractice is an immutable record of one practice attempt.
// Rows are append-only and removed only as part of a dictation's
// cascade delete.
//
// Fields:
//  ID           – primary key identifier.
//  UserID       – the user the attempt is attributed to.
//  DictationID  – the dictation that was practiced.
//  Score        – 0..100 result score.
//  TotalWords   – number of words in the attempt.
//  CorrectCount – number answered correctly (<= TotalWords).
//  Errors       – per-word error detail (nil when the attempt was clean).
//  CreatedAt    – creation timestamp.
type DictationPractice struct {
	ID           uint64          // dictation_practices.id
	UserID       uint64          // dictation_practices.user_id
	DictationID  uint64          // dictation_practices.dictation_id
	Score        uint8           // dictation_practices.score
	TotalWords   uint32          // dictation_practices.total_words
	CorrectCount uint32          // dictation_practices.correct_count
	Errors       []PracticeError // dictation_practices.errors (JSON, nullable)
	CreatedAt    time.Time       // dictation_practices.created_at
}
