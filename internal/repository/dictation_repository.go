package repository

import (
	"context"
	"database/sql"

	"github.com/rstolbov/dictation-backend/internal/model"
)

// DictationRepo provides persistence for dictations and their words.
// A dictation's words live only as children of that dictation: they
// are inserted together with it, replaced wholesale on update and
// removed by the cascade delete. All multi-row operations run inside
// a single transaction so no caller ever observes a half-written word
// set.
type DictationRepo struct {
	db *sql.DB
}

// NewDictationRepo returns a DictationRepo bound to the given database.
func NewDictationRepo(db *sql.DB) *DictationRepo { return &DictationRepo{db: db} }

// WordInsert carries one word row to be inserted. AudioURL and Hint
// may be nil; Text has already passed content validation by the time
// a WordInsert reaches the repository.
type WordInsert struct {
	Text     string
	Hint     *string
	AudioURL *string
}

// Create inserts a dictation without words and returns the persisted
// row. Used for placeholder creation only; the authoring pipeline
// goes through CreateWithWords.
func (r *DictationRepo) Create(ctx context.Context, authorID uint64, title, language string, description *string) (*model.Dictation, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO dictations (title, language, description, author_id) VALUES (?,?,?,?)",
		title, language, description, authorID)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, uint64(id), false)
}

// CreateWithWords atomically inserts a dictation row and all of its
// word rows. Either everything becomes visible or nothing does: any
// failure after the dictation insert rolls the whole transaction
// back. The created dictation is queried back inside the transaction
// to populate defaults and the creation timestamp.
func (r *DictationRepo) CreateWithWords(ctx context.Context, authorID uint64, title, language string, description *string, isPublic bool, words []WordInsert) (*model.Dictation, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO dictations (title, language, description, is_public, author_id) VALUES (?,?,?,?,?)",
		title, language, description, isPublic, authorID)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	dictationID := uint64(id)

	if err := r.insertWordsTx(ctx, tx, dictationID, authorID, words); err != nil {
		return nil, err
	}

	d, err := r.getByIDTx(ctx, tx, dictationID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return d, nil
}

// Update rewrites a dictation's scalar metadata and replaces its word
// set in one transaction. isPublic is optional: nil leaves the
// current visibility untouched. Word identity is not preserved; the
// previous rows are deleted and the new set inserted.
func (r *DictationRepo) Update(ctx context.Context, dictationID, authorID uint64, title string, description *string, language string, isPublic *bool, words []WordInsert) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if isPublic != nil {
		_, err = tx.ExecContext(ctx,
			"UPDATE dictations SET title=?, description=?, language=?, is_public=? WHERE id=?",
			title, description, language, *isPublic, dictationID)
	} else {
		_, err = tx.ExecContext(ctx,
			"UPDATE dictations SET title=?, description=?, language=? WHERE id=?",
			title, description, language, dictationID)
	}
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM words WHERE dictation_id=?", dictationID); err != nil {
		return err
	}
	if err := r.insertWordsTx(ctx, tx, dictationID, authorID, words); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteCascade removes a dictation together with its words and
// practice records. Children go first to satisfy referential
// constraints. sql.ErrNoRows is returned when the dictation does not
// exist.
func (r *DictationRepo) DeleteCascade(ctx context.Context, dictationID uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM words WHERE dictation_id=?", dictationID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM dictation_practices WHERE dictation_id=?", dictationID); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM dictations WHERE id=?", dictationID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return tx.Commit()
}

// GetByID loads a dictation, optionally with its word list. Returns
// sql.ErrNoRows when absent.
func (r *DictationRepo) GetByID(ctx context.Context, dictationID uint64, withWords bool) (*model.Dictation, error) {
	d, err := scanDictation(r.db.QueryRowContext(ctx,
		"SELECT id, title, language, description, is_public, author_id, created_at FROM dictations WHERE id=? LIMIT 1",
		dictationID))
	if err != nil {
		return nil, err
	}
	if withWords {
		words, err := r.wordsFor(ctx, dictationID)
		if err != nil {
			return nil, err
		}
		d.Words = words
	}
	return d, nil
}

// ListByAuthor returns all dictations owned by the author, newest
// first, each with its full word list.
func (r *DictationRepo) ListByAuthor(ctx context.Context, authorID uint64) ([]model.Dictation, error) {
	return r.list(ctx,
		"SELECT id, title, language, description, is_public, author_id, created_at FROM dictations WHERE author_id=? ORDER BY created_at DESC, id DESC",
		authorID)
}

// ListPublic returns every dictation flagged public, newest first,
// with word lists loaded. Readable by any authenticated user.
func (r *DictationRepo) ListPublic(ctx context.Context) ([]model.Dictation, error) {
	return r.list(ctx,
		"SELECT id, title, language, description, is_public, author_id, created_at FROM dictations WHERE is_public=1 ORDER BY created_at DESC, id DESC")
}

func (r *DictationRepo) list(ctx context.Context, query string, args ...interface{}) ([]model.Dictation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Dictation{}
	for rows.Next() {
		d, err := scanDictation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		words, err := r.wordsFor(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Words = words
	}
	return out, nil
}

// insertWordsTx bulk-inserts word rows for a dictation in a single
// statement. The author_id written always equals the dictation
// author's id. An empty slice has no effect and returns nil.
func (r *DictationRepo) insertWordsTx(ctx context.Context, tx *sql.Tx, dictationID, authorID uint64, words []WordInsert) error {
	if len(words) == 0 {
		return nil
	}
	query := "INSERT INTO words (text, hint, audio_url, author_id, dictation_id) VALUES "
	args := make([]interface{}, 0, len(words)*5)
	for i, w := range words {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?)"
		args = append(args, w.Text, w.Hint, w.AudioURL, authorID, dictationID)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

func (r *DictationRepo) getByIDTx(ctx context.Context, tx *sql.Tx, dictationID uint64) (*model.Dictation, error) {
	return scanDictation(tx.QueryRowContext(ctx,
		"SELECT id, title, language, description, is_public, author_id, created_at FROM dictations WHERE id=? LIMIT 1",
		dictationID))
}

// wordsFor loads a dictation's words ordered by creation.
func (r *DictationRepo) wordsFor(ctx context.Context, dictationID uint64) ([]model.Word, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, text, hint, audio_url, author_id, dictation_id, created_at FROM words WHERE dictation_id=? ORDER BY id ASC",
		dictationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	words := []model.Word{}
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
		words = append(words, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return words, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanDictation.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDictation(row rowScanner) (*model.Dictation, error) {
	var (
		d    model.Dictation
		desc sql.NullString
	)
	if err := row.Scan(&d.ID, &d.Title, &d.Language, &desc, &d.IsPublic, &d.AuthorID, &d.CreatedAt); err != nil {
		return nil, err
	}
	if desc.Valid {
		s := desc.String
		d.Description = &s
	}
	return &d, nil
}
