package repository

import (
	"context"
	"database/sql"

	"github.com/rstolbov/dictation-backend/internal/model"
)

// WordRepo provides the few word operations that act on individual
// rows outside an authoring transaction: appending a word to an
// existing dictation, listing an author's words and deleting one.
// Whole-set writes live in DictationRepo.
type WordRepo struct {
	db *sql.DB
}

// NewWordRepo returns a WordRepo bound to the given database.
func NewWordRepo(db *sql.DB) *WordRepo { return &WordRepo{db: db} }

// Create appends a single word to a dictation and returns the
// persisted row. The caller has already verified that authorID owns
// the dictation, keeping the author_id invariant intact.
func (r *WordRepo) Create(ctx context.Context, authorID, dictationID uint64, text string, hint, audioURL *string) (*model.Word, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO words (text, hint, audio_url, author_id, dictation_id) VALUES (?,?,?,?,?)",
		text, hint, audioURL, authorID, dictationID)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByID loads one word. Returns sql.ErrNoRows when absent.
func (r *WordRepo) GetByID(ctx context.Context, id uint64) (*model.Word, error) {
	var (
		w     model.Word
		hint  sql.NullString
		audio sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT id, text, hint, audio_url, author_id, dictation_id, created_at FROM words WHERE id=? LIMIT 1",
		id).Scan(&w.ID, &w.Text, &hint, &audio, &w.AuthorID, &w.DictationID, &w.CreatedAt)
	if err != nil {
		return nil, err
	}
	if hint.Valid {
		h := hint.String
		w.Hint = &h
	}
	if audio.Valid {
		a := audio.String
		w.AudioURL = &a
	}
	return &w, nil
}

// ListByAuthor returns every word the author has written, newest first.
func (r *WordRepo) ListByAuthor(ctx context.Context, authorID uint64) ([]model.Word, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, text, hint, audio_url, author_id, dictation_id, created_at FROM words WHERE author_id=? ORDER BY created_at DESC, id DESC",
		authorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Word{}
	for rows.Next() {
		var (
			w     model.Word
			hint  sql.NullString
			audio sql.NullString
		)
		if err := rows.Scan(&w.ID, &w.Text, &hint, &audio, &w.AuthorID, &w.DictationID, &w.CreatedAt); err != nil {
			return nil, err
		}
		if hint.Valid {
			h := hint.String
			w.Hint = &h
		}
		if audio.Valid {
			a := audio.String
			w.AudioURL = &a
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteOwned removes a word after verifying ownership and that the
// owning dictation keeps at least one word. Returns sql.ErrNoRows
// when the word is absent, ErrForbidden when it belongs to another
// author and ErrConflict when it is the dictation's last word.
func (r *WordRepo) DeleteOwned(ctx context.Context, wordID, authorID uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var (
		ownerID     uint64
		dictationID uint64
	)
	err = tx.QueryRowContext(ctx,
		"SELECT author_id, dictation_id FROM words WHERE id=? LIMIT 1",
		wordID).Scan(&ownerID, &dictationID)
	if err != nil {
		return err
	}
	if ownerID != authorID {
		return ErrForbidden
	}

	var count int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM words WHERE dictation_id=?", dictationID).Scan(&count); err != nil {
		return err
	}
	if count <= 1 {
		return ErrConflict
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM words WHERE id=?", wordID); err != nil {
		return err
	}
	return tx.Commit()
}
