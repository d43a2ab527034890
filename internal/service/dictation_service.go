// Package service implements the dictation authoring pipeline: it
// orchestrates content validation, audio resolution and transactional
// persistence, and enforces resource ownership. Identity is already
// verified upstream; the pipeline trusts the user id it is handed and
// only checks who owns what.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/rstolbov/dictation-backend/internal/model"
	"github.com/rstolbov/dictation-backend/internal/queue"
	"github.com/rstolbov/dictation-backend/internal/repository"
	"github.com/rstolbov/dictation-backend/internal/validation"
)

// ErrNotFound is returned when the referenced dictation or word does
// not exist.
var ErrNotFound = errors.New("not found")

// ErrAccessDenied is returned when the acting user does not own the
// resource they are trying to read or modify.
var ErrAccessDenied = errors.New("access denied")

// ErrInvalidPractice is returned when a practice payload violates the
// numeric range invariants (score 0..100, correct <= total).
var ErrInvalidPractice = errors.New("invalid practice result")

// ErrEmptyWordSet is returned when an authoring request carries no
// usable words after trimming.
var ErrEmptyWordSet = errors.New("word list cannot be empty")

// WordInput is one word as submitted by the client. AudioURL, when
// non-empty, is trusted and stored unchanged.
type WordInput struct {
	Text     string
	Hint     *string
	AudioURL string
}

// dictationStore is the slice of DictationRepo the pipeline needs.
type dictationStore interface {
	Create(ctx context.Context, authorID uint64, title, language string, description *string) (*model.Dictation, error)
	CreateWithWords(ctx context.Context, authorID uint64, title, language string, description *string, isPublic bool, words []repository.WordInsert) (*model.Dictation, error)
	Update(ctx context.Context, dictationID, authorID uint64, title string, description *string, language string, isPublic *bool, words []repository.WordInsert) error
	DeleteCascade(ctx context.Context, dictationID uint64) error
	GetByID(ctx context.Context, dictationID uint64, withWords bool) (*model.Dictation, error)
	ListByAuthor(ctx context.Context, authorID uint64) ([]model.Dictation, error)
	ListPublic(ctx context.Context) ([]model.Dictation, error)
}

// wordStore is the slice of WordRepo the pipeline needs.
type wordStore interface {
	Create(ctx context.Context, authorID, dictationID uint64, text string, hint, audioURL *string) (*model.Word, error)
	ListByAuthor(ctx context.Context, authorID uint64) ([]model.Word, error)
	DeleteOwned(ctx context.Context, wordID, authorID uint64) error
}

// practiceStore is the slice of PracticeRepo the pipeline needs.
type practiceStore interface {
	Create(ctx context.Context, p *model.DictationPractice) error
	ListByUser(ctx context.Context, userID uint64) ([]model.DictationPractice, error)
}

// audioResolver resolves a playable audio URL for a word, returning
// the empty string when no audio could be obtained. It never fails.
type audioResolver interface {
	Resolve(ctx context.Context, text, language, suppliedURL string) string
}

// eventPublisher emits domain events after state changes. Publishing
// is best-effort; the pipeline logs and ignores failures.
type eventPublisher interface {
	PublishPracticeRecorded(ctx context.Context, ev queue.PracticeRecordedEvent) error
}

// DictationService is the authoring pipeline entry point used by the
// HTTP handlers.
type DictationService struct {
	dictations dictationStore
	words      wordStore
	practices  practiceStore
	resolver   audioResolver
	events     eventPublisher // may be nil when eventing is disabled
}

// NewDictationService wires the pipeline's collaborators. events may
// be nil to disable practice eventing.
func NewDictationService(d dictationStore, w wordStore, p practiceStore, r audioResolver, ev eventPublisher) *DictationService {
	if d == nil || w == nil || p == nil || r == nil {
		panic("nil dependency passed to NewDictationService")
	}
	return &DictationService{dictations: d, words: w, practices: p, resolver: r, events: ev}
}

// Create makes an empty placeholder dictation with no words.
func (s *DictationService) Create(ctx context.Context, userID uint64, title, language string, description *string) (*model.Dictation, error) {
	return s.dictations.Create(ctx, userID, title, language, description)
}

// CreateWithWords runs the full authoring pipeline: validate every
// word, resolve audio for every word, then persist the dictation and
// its word set atomically. Validation fails fast before any write and
// before any audio is fetched; resolution failures degrade individual
// words to no audio and never abort the operation. Audio is resolved
// before the storage transaction opens so a slow provider cannot hold
// a transaction, and a later rollback cannot orphan rows (stray audio
// files are possible but harmless).
func (s *DictationService) CreateWithWords(ctx context.Context, userID uint64, title, language string, description *string, isPublic bool, words []WordInput) (*model.Dictation, error) {
	if len(words) == 0 {
		return nil, ErrEmptyWordSet
	}
	for _, w := range words {
		if err := validation.Validate(w.Text, language); err != nil {
			return nil, err
		}
	}
	inserts := s.resolveAll(ctx, language, words)
	d, err := s.dictations.CreateWithWords(ctx, userID, title, language, description, isPublic, inserts)
	if err != nil {
		return nil, fmt.Errorf("create dictation: %w", err)
	}
	return d, nil
}

// UpdateFull replaces a dictation wholesale: scalar metadata plus the
// entire word set. Word identity never survives the update. Audio is
// re-resolved for every submitted word regardless of what the previous
// rows carried.
func (s *DictationService) UpdateFull(ctx context.Context, dictationID, userID uint64, title string, description *string, language string, isPublic *bool, words []WordInput) (*model.Dictation, error) {
	if len(words) == 0 {
		return nil, ErrEmptyWordSet
	}
	if err := s.checkOwner(ctx, dictationID, userID); err != nil {
		return nil, err
	}
	for _, w := range words {
		if err := validation.Validate(w.Text, language); err != nil {
			return nil, err
		}
	}
	inserts := s.resolveAll(ctx, language, words)
	if err := s.dictations.Update(ctx, dictationID, userID, title, description, language, isPublic, inserts); err != nil {
		return nil, fmt.Errorf("update dictation: %w", err)
	}
	return s.dictations.GetByID(ctx, dictationID, true)
}

// Delete removes a dictation with all of its words and practice
// records, provided the acting user owns it.
func (s *DictationService) Delete(ctx context.Context, dictationID, userID uint64) error {
	if err := s.checkOwner(ctx, dictationID, userID); err != nil {
		return err
	}
	if err := s.dictations.DeleteCascade(ctx, dictationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("delete dictation: %w", err)
	}
	return nil
}

// SavePractice appends an immutable practice record after checking the
// numeric invariants, then publishes a practice.recorded event on a
// best-effort basis.
func (s *DictationService) SavePractice(ctx context.Context, userID, dictationID uint64, score uint8, totalWords, correctCount uint32, practiceErrors []model.PracticeError) (*model.DictationPractice, error) {
	if score > 100 || correctCount > totalWords {
		return nil, ErrInvalidPractice
	}
	d, err := s.dictations.GetByID(ctx, dictationID, false)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	p := &model.DictationPractice{
		UserID:       userID,
		DictationID:  dictationID,
		Score:        score,
		TotalWords:   totalWords,
		CorrectCount: correctCount,
		Errors:       practiceErrors,
	}
	if err := s.practices.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("save practice: %w", err)
	}

	if s.events != nil {
		ev := queue.PracticeRecordedEvent{
			PracticeID:   p.ID,
			UserID:       userID,
			DictationID:  dictationID,
			Title:        d.Title,
			Language:     d.Language,
			Score:        score,
			TotalWords:   totalWords,
			CorrectCount: correctCount,
			RecordedAt:   p.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := s.events.PublishPracticeRecorded(ctx, ev); err != nil {
			log.Printf("practice event publish failed: %v", err)
		}
	}
	return p, nil
}

// GetAll returns the user's own dictations, newest first, with words.
func (s *DictationService) GetAll(ctx context.Context, userID uint64) ([]model.Dictation, error) {
	return s.dictations.ListByAuthor(ctx, userID)
}

// GetOne loads a single dictation with its words. Private dictations
// are readable only by their author; public ones by anyone
// authenticated.
func (s *DictationService) GetOne(ctx context.Context, dictationID, userID uint64) (*model.Dictation, error) {
	d, err := s.dictations.GetByID(ctx, dictationID, true)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !d.IsPublic && d.AuthorID != userID {
		return nil, ErrAccessDenied
	}
	return d, nil
}

// GetPublic returns every public dictation, newest first.
func (s *DictationService) GetPublic(ctx context.Context) ([]model.Dictation, error) {
	return s.dictations.ListPublic(ctx)
}

// GetHistory returns the user's practice records, newest first.
func (s *DictationService) GetHistory(ctx context.Context, userID uint64) ([]model.DictationPractice, error) {
	return s.practices.ListByUser(ctx, userID)
}

// AddWord appends a single word to a dictation the user owns. The
// text is validated against the dictation's language and audio is
// resolved the same way the bulk pipeline does it.
func (s *DictationService) AddWord(ctx context.Context, userID, dictationID uint64, text string, hint *string, audioURL string) (*model.Word, error) {
	d, err := s.dictations.GetByID(ctx, dictationID, false)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if d.AuthorID != userID {
		return nil, ErrAccessDenied
	}
	if err := validation.Validate(text, d.Language); err != nil {
		return nil, err
	}
	var audio *string
	if url := s.resolver.Resolve(ctx, text, d.Language, audioURL); url != "" {
		audio = &url
	}
	w, err := s.words.Create(ctx, userID, dictationID, text, hint, audio)
	if err != nil {
		return nil, fmt.Errorf("create word: %w", err)
	}
	return w, nil
}

// ListWords returns every word authored by the user, newest first.
func (s *DictationService) ListWords(ctx context.Context, userID uint64) ([]model.Word, error) {
	return s.words.ListByAuthor(ctx, userID)
}

// DeleteWord removes one owned word. ErrConflict from the store (the
// dictation's last word) passes through for the handler to map.
func (s *DictationService) DeleteWord(ctx context.Context, wordID, userID uint64) error {
	err := s.words.DeleteOwned(ctx, wordID, userID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	case errors.Is(err, repository.ErrForbidden):
		return ErrAccessDenied
	default:
		return err
	}
}

// checkOwner loads the dictation and verifies the acting user is its
// author. Absence maps to ErrNotFound, mismatch to ErrAccessDenied.
func (s *DictationService) checkOwner(ctx context.Context, dictationID, userID uint64) error {
	d, err := s.dictations.GetByID(ctx, dictationID, false)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if d.AuthorID != userID {
		return ErrAccessDenied
	}
	return nil
}

// resolveAll resolves audio for a submitted word set, one word at a
// time. Each resolved URL attaches only to its own word; a failed
// resolution leaves that word's audio null.
func (s *DictationService) resolveAll(ctx context.Context, language string, words []WordInput) []repository.WordInsert {
	inserts := make([]repository.WordInsert, 0, len(words))
	for _, w := range words {
		ins := repository.WordInsert{Text: w.Text, Hint: w.Hint}
		if url := s.resolver.Resolve(ctx, w.Text, language, w.AudioURL); url != "" {
			ins.AudioURL = &url
		}
		inserts = append(inserts, ins)
	}
	return inserts
}
