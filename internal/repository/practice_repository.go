package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/rstolbov/dictation-backend/internal/model"
)

// PracticeRepo stores immutable practice attempt records. Rows are
// append-only; they disappear only through the dictation cascade
// delete in DictationRepo.
type PracticeRepo struct {
	db *sql.DB
}

// NewPracticeRepo returns a PracticeRepo bound to the given database.
func NewPracticeRepo(db *sql.DB) *PracticeRepo { return &PracticeRepo{db: db} }

// Create appends one practice record. The per-word error detail is
// serialized to the JSON `errors` column; an empty slice is stored as
// SQL NULL so a clean run and "no detail recorded" look the same, as
// the reading side expects.
func (r *PracticeRepo) Create(ctx context.Context, p *model.DictationPractice) error {
	var errorsJSON interface{}
	if len(p.Errors) > 0 {
		b, err := json.Marshal(p.Errors)
		if err != nil {
			return err
		}
		errorsJSON = string(b)
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO dictation_practices (user_id, dictation_id, score, total_words, correct_count, errors) VALUES (?,?,?,?,?,?)",
		p.UserID, p.DictationID, p.Score, p.TotalWords, p.CorrectCount, errorsJSON)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return r.db.QueryRowContext(ctx,
		"SELECT created_at FROM dictation_practices WHERE id=?", p.ID).Scan(&p.CreatedAt)
}

// ListByUser returns the user's practice history, newest first.
func (r *PracticeRepo) ListByUser(ctx context.Context, userID uint64) ([]model.DictationPractice, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, user_id, dictation_id, score, total_words, correct_count, errors, created_at FROM dictation_practices WHERE user_id=? ORDER BY created_at DESC, id DESC",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.DictationPractice{}
	for rows.Next() {
		var (
			p       model.DictationPractice
			rawErrs sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.UserID, &p.DictationID, &p.Score, &p.TotalWords, &p.CorrectCount, &rawErrs, &p.CreatedAt); err != nil {
			return nil, err
		}
		if rawErrs.Valid && rawErrs.String != "" {
			if err := json.Unmarshal([]byte(rawErrs.String), &p.Errors); err != nil {
				return nil, err
			}
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
