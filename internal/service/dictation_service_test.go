package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rstolbov/dictation-backend/internal/model"
	"github.com/rstolbov/dictation-backend/internal/queue"
	"github.com/rstolbov/dictation-backend/internal/repository"
	"github.com/rstolbov/dictation-backend/internal/validation"
)

// ----- fakes -----

// fakeStore is an in-memory stand-in for the dictation, word and
// practice repositories. It mimics their contract including the
// sql.ErrNoRows sentinel for absent rows.
type fakeStore struct {
	dictations map[uint64]*model.Dictation
	words      map[uint64]*model.Word
	practices  []model.DictationPractice
	nextID     uint64

	createCalls int
	updateCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		dictations: map[uint64]*model.Dictation{},
		words:      map[uint64]*model.Word{},
		nextID:     1,
	}
}

func (f *fakeStore) id() uint64 { v := f.nextID; f.nextID++; return v }

func (f *fakeStore) Create(ctx context.Context, authorID uint64, title, language string, description *string) (*model.Dictation, error) {
	d := &model.Dictation{ID: f.id(), Title: title, Language: language, Description: description, AuthorID: authorID, CreatedAt: time.Now()}
	f.dictations[d.ID] = d
	return d, nil
}

func (f *fakeStore) CreateWithWords(ctx context.Context, authorID uint64, title, language string, description *string, isPublic bool, words []repository.WordInsert) (*model.Dictation, error) {
	f.createCalls++
	d := &model.Dictation{ID: f.id(), Title: title, Language: language, Description: description, IsPublic: isPublic, AuthorID: authorID, CreatedAt: time.Now()}
	f.dictations[d.ID] = d
	for _, in := range words {
		w := &model.Word{ID: f.id(), Text: in.Text, Hint: in.Hint, AudioURL: in.AudioURL, AuthorID: authorID, DictationID: d.ID}
		f.words[w.ID] = w
	}
	return f.withWords(d), nil
}

func (f *fakeStore) Update(ctx context.Context, dictationID, authorID uint64, title string, description *string, language string, isPublic *bool, words []repository.WordInsert) error {
	f.updateCalls++
	d, ok := f.dictations[dictationID]
	if !ok {
		return sql.ErrNoRows
	}
	d.Title, d.Description, d.Language = title, description, language
	if isPublic != nil {
		d.IsPublic = *isPublic
	}
	for id, w := range f.words {
		if w.DictationID == dictationID {
			delete(f.words, id)
		}
	}
	for _, in := range words {
		w := &model.Word{ID: f.id(), Text: in.Text, Hint: in.Hint, AudioURL: in.AudioURL, AuthorID: authorID, DictationID: dictationID}
		f.words[w.ID] = w
	}
	return nil
}

func (f *fakeStore) DeleteCascade(ctx context.Context, dictationID uint64) error {
	if _, ok := f.dictations[dictationID]; !ok {
		return sql.ErrNoRows
	}
	for id, w := range f.words {
		if w.DictationID == dictationID {
			delete(f.words, id)
		}
	}
	kept := f.practices[:0]
	for _, p := range f.practices {
		if p.DictationID != dictationID {
			kept = append(kept, p)
		}
	}
	f.practices = kept
	delete(f.dictations, dictationID)
	return nil
}

func (f *fakeStore) GetByID(ctx context.Context, dictationID uint64, withWords bool) (*model.Dictation, error) {
	d, ok := f.dictations[dictationID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if withWords {
		return f.withWords(d), nil
	}
	cp := *d
	return &cp, nil
}

func (f *fakeStore) ListByAuthor(ctx context.Context, authorID uint64) ([]model.Dictation, error) {
	out := []model.Dictation{}
	for _, d := range f.dictations {
		if d.AuthorID == authorID {
			out = append(out, *f.withWords(d))
		}
	}
	return out, nil
}

func (f *fakeStore) ListPublic(ctx context.Context) ([]model.Dictation, error) {
	out := []model.Dictation{}
	for _, d := range f.dictations {
		if d.IsPublic {
			out = append(out, *f.withWords(d))
		}
	}
	return out, nil
}

func (f *fakeStore) withWords(d *model.Dictation) *model.Dictation {
	cp := *d
	cp.Words = f.wordsOf(d.ID)
	return &cp
}

func (f *fakeStore) wordsOf(dictationID uint64) []model.Word {
	words := []model.Word{}
	for _, w := range f.words {
		if w.DictationID == dictationID {
			words = append(words, *w)
		}
	}
	return words
}

// wordStore methods

func (f *fakeStore) CreateWord(ctx context.Context, authorID, dictationID uint64, text string, hint, audioURL *string) (*model.Word, error) {
	w := &model.Word{ID: f.id(), Text: text, Hint: hint, AudioURL: audioURL, AuthorID: authorID, DictationID: dictationID}
	f.words[w.ID] = w
	cp := *w
	return &cp, nil
}

func (f *fakeStore) ListWordsByAuthor(ctx context.Context, authorID uint64) ([]model.Word, error) {
	out := []model.Word{}
	for _, w := range f.words {
		if w.AuthorID == authorID {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (f *fakeStore) DeleteOwned(ctx context.Context, wordID, authorID uint64) error {
	w, ok := f.words[wordID]
	if !ok {
		return sql.ErrNoRows
	}
	if w.AuthorID != authorID {
		return repository.ErrForbidden
	}
	if len(f.wordsOf(w.DictationID)) <= 1 {
		return repository.ErrConflict
	}
	delete(f.words, wordID)
	return nil
}

// practiceStore methods

func (f *fakeStore) CreatePractice(ctx context.Context, p *model.DictationPractice) error {
	p.ID = f.id()
	p.CreatedAt = time.Now()
	f.practices = append(f.practices, *p)
	return nil
}

func (f *fakeStore) ListByUser(ctx context.Context, userID uint64) ([]model.DictationPractice, error) {
	out := []model.DictationPractice{}
	for _, p := range f.practices {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

// wordStoreAdapter and practiceStoreAdapter give the fake the exact
// method names the service interfaces expect.
type wordStoreAdapter struct{ *fakeStore }

func (a wordStoreAdapter) Create(ctx context.Context, authorID, dictationID uint64, text string, hint, audioURL *string) (*model.Word, error) {
	return a.CreateWord(ctx, authorID, dictationID, text, hint, audioURL)
}
func (a wordStoreAdapter) ListByAuthor(ctx context.Context, authorID uint64) ([]model.Word, error) {
	return a.ListWordsByAuthor(ctx, authorID)
}

type practiceStoreAdapter struct{ *fakeStore }

func (a practiceStoreAdapter) Create(ctx context.Context, p *model.DictationPractice) error {
	return a.CreatePractice(ctx, p)
}

// stubResolver returns canned URLs per text and keeps supplied URLs,
// mirroring the real resolver's contract.
type stubResolver struct {
	urls  map[string]string // text -> resolved URL; missing means ""
	calls []string
}

func (r *stubResolver) Resolve(ctx context.Context, text, language, suppliedURL string) string {
	r.calls = append(r.calls, text)
	if suppliedURL != "" {
		return suppliedURL
	}
	return r.urls[text]
}

type capturedPublisher struct {
	events []queue.PracticeRecordedEvent
	err    error
}

func (p *capturedPublisher) PublishPracticeRecorded(ctx context.Context, ev queue.PracticeRecordedEvent) error {
	p.events = append(p.events, ev)
	return p.err
}

func newService(store *fakeStore, resolver *stubResolver, pub eventPublisher) *DictationService {
	return NewDictationService(store, wordStoreAdapter{store}, practiceStoreAdapter{store}, resolver, pub)
}

// ----- tests -----

func TestCreateWithWordsValidationFailsFast(t *testing.T) {
	store := newFakeStore()
	resolver := &stubResolver{}
	svc := newService(store, resolver, nil)

	_, err := svc.CreateWithWords(context.Background(), 1, "Test", "en", nil, false, []WordInput{
		{Text: "Apple"},
		{Text: "привет"}, // Cyrillic in an English set
	})
	var ce *validation.ContentError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, validation.ScriptMismatch, ce.Reason)

	// Nothing persisted and no audio fetched.
	assert.Zero(t, store.createCalls)
	assert.Empty(t, store.dictations)
	assert.Empty(t, resolver.calls)
}

func TestCreateWithWordsEmptySet(t *testing.T) {
	svc := newService(newFakeStore(), &stubResolver{}, nil)
	_, err := svc.CreateWithWords(context.Background(), 1, "Test", "en", nil, false, nil)
	assert.ErrorIs(t, err, ErrEmptyWordSet)
}

func TestCreateWithWordsResolvesAudio(t *testing.T) {
	store := newFakeStore()
	resolver := &stubResolver{urls: map[string]string{"Apple": "/uploads/tts-apple.mp3"}}
	svc := newService(store, resolver, nil)

	d, err := svc.CreateWithWords(context.Background(), 1, "Test", "en", nil, false, []WordInput{
		{Text: "Apple"},
		{Text: "Banana", AudioURL: "/x.mp3"},
	})
	require.NoError(t, err)
	require.Len(t, d.Words, 2)

	byText := map[string]*string{}
	for _, w := range d.Words {
		byText[w.Text] = w.AudioURL
	}
	require.NotNil(t, byText["Apple"])
	assert.Equal(t, "/uploads/tts-apple.mp3", *byText["Apple"])
	require.NotNil(t, byText["Banana"])
	assert.Equal(t, "/x.mp3", *byText["Banana"], "caller-supplied URL must be kept unchanged")
}

// Even when no audio can be resolved at all, creation succeeds and
// every word simply has a null audio URL.
func TestCreateWithWordsAudioDegradeNotFail(t *testing.T) {
	store := newFakeStore()
	svc := newService(store, &stubResolver{}, nil) // resolver yields "" for everything

	d, err := svc.CreateWithWords(context.Background(), 1, "Test", "en", nil, false, []WordInput{
		{Text: "Apple"}, {Text: "Banana"},
	})
	require.NoError(t, err)
	require.Len(t, d.Words, 2)
	for _, w := range d.Words {
		assert.Nil(t, w.AudioURL)
	}
}

func TestUpdateFullReplacesWordSet(t *testing.T) {
	store := newFakeStore()
	resolver := &stubResolver{}
	svc := newService(store, resolver, nil)

	d, err := svc.CreateWithWords(context.Background(), 1, "Test", "en", nil, false, []WordInput{
		{Text: "Apple"}, {Text: "Banana"},
	})
	require.NoError(t, err)

	oldIDs := map[uint64]bool{}
	for _, w := range d.Words {
		oldIDs[w.ID] = true
	}

	updated, err := svc.UpdateFull(context.Background(), d.ID, 1, "Test2", nil, "en", nil, []WordInput{
		{Text: "Car"}, {Text: "Bus"}, {Text: "Plane"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Test2", updated.Title)
	require.Len(t, updated.Words, 3)
	for _, w := range updated.Words {
		assert.False(t, oldIDs[w.ID], "word identity must not survive a full replace")
	}
}

func TestUpdateFullOwnership(t *testing.T) {
	store := newFakeStore()
	svc := newService(store, &stubResolver{}, nil)

	d, err := svc.CreateWithWords(context.Background(), 1, "Test", "en", nil, false, []WordInput{{Text: "Apple"}})
	require.NoError(t, err)

	_, err = svc.UpdateFull(context.Background(), d.ID, 2, "Stolen", nil, "en", nil, []WordInput{{Text: "Car"}})
	assert.ErrorIs(t, err, ErrAccessDenied)

	// The dictation is unchanged.
	got, err := svc.GetOne(context.Background(), d.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "Test", got.Title)
	assert.Len(t, got.Words, 1)
}

func TestUpdateFullNotFound(t *testing.T) {
	svc := newService(newFakeStore(), &stubResolver{}, nil)
	_, err := svc.UpdateFull(context.Background(), 999, 1, "T", nil, "en", nil, []WordInput{{Text: "Car"}})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteCascades(t *testing.T) {
	store := newFakeStore()
	svc := newService(store, &stubResolver{}, nil)

	d, err := svc.CreateWithWords(context.Background(), 1, "Test", "en", nil, false, []WordInput{{Text: "Apple"}})
	require.NoError(t, err)
	_, err = svc.SavePractice(context.Background(), 1, d.ID, 80, 1, 0, nil)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), d.ID, 1))

	_, err = svc.GetOne(context.Background(), d.ID, 1)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, store.words)
	assert.Empty(t, store.practices)
}

func TestDeleteOwnership(t *testing.T) {
	store := newFakeStore()
	svc := newService(store, &stubResolver{}, nil)

	d, err := svc.CreateWithWords(context.Background(), 1, "Test", "en", nil, false, []WordInput{{Text: "Apple"}})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(context.Background(), d.ID, 2), ErrAccessDenied)
	assert.ErrorIs(t, svc.Delete(context.Background(), 999, 1), ErrNotFound)

	_, err = svc.GetOne(context.Background(), d.ID, 1)
	assert.NoError(t, err, "denied delete must leave the dictation in place")
}

func TestSavePracticeValidatesRanges(t *testing.T) {
	store := newFakeStore()
	svc := newService(store, &stubResolver{}, nil)

	d, err := svc.CreateWithWords(context.Background(), 1, "Test", "en", nil, false, []WordInput{{Text: "Apple"}})
	require.NoError(t, err)

	_, err = svc.SavePractice(context.Background(), 1, d.ID, 101, 10, 5, nil)
	assert.ErrorIs(t, err, ErrInvalidPractice)

	_, err = svc.SavePractice(context.Background(), 1, d.ID, 50, 3, 4, nil)
	assert.ErrorIs(t, err, ErrInvalidPractice)

	_, err = svc.SavePractice(context.Background(), 1, 999, 50, 3, 2, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSavePracticePublishesEvent(t *testing.T) {
	store := newFakeStore()
	pub := &capturedPublisher{}
	svc := newService(store, &stubResolver{}, pub)

	d, err := svc.CreateWithWords(context.Background(), 1, "Test", "en", nil, false, []WordInput{{Text: "Apple"}})
	require.NoError(t, err)

	p, err := svc.SavePractice(context.Background(), 1, d.ID, 90, 10, 9, []model.PracticeError{
		{Word: "Apple", UserInput: "Aple", Correct: false},
	})
	require.NoError(t, err)
	require.Len(t, pub.events, 1)
	ev := pub.events[0]
	assert.Equal(t, p.ID, ev.PracticeID)
	assert.Equal(t, d.ID, ev.DictationID)
	assert.Equal(t, "Test", ev.Title)
	assert.EqualValues(t, 90, ev.Score)
}

func TestSavePracticeIgnoresPublishFailure(t *testing.T) {
	store := newFakeStore()
	pub := &capturedPublisher{err: errors.New("broker down")}
	svc := newService(store, &stubResolver{}, pub)

	d, err := svc.CreateWithWords(context.Background(), 1, "Test", "en", nil, false, []WordInput{{Text: "Apple"}})
	require.NoError(t, err)

	_, err = svc.SavePractice(context.Background(), 1, d.ID, 90, 10, 9, nil)
	assert.NoError(t, err, "a failed event publish must not fail the request")
	assert.Len(t, store.practices, 1)
}

func TestGetOneVisibility(t *testing.T) {
	store := newFakeStore()
	svc := newService(store, &stubResolver{}, nil)

	private, err := svc.CreateWithWords(context.Background(), 1, "Private", "en", nil, false, []WordInput{{Text: "Apple"}})
	require.NoError(t, err)
	public, err := svc.CreateWithWords(context.Background(), 1, "Public", "en", nil, true, []WordInput{{Text: "Apple"}})
	require.NoError(t, err)

	_, err = svc.GetOne(context.Background(), private.ID, 2)
	assert.ErrorIs(t, err, ErrAccessDenied)

	got, err := svc.GetOne(context.Background(), public.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, "Public", got.Title)

	list, err := svc.GetPublic(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, public.ID, list[0].ID)
}

func TestAddWordValidatesAgainstDictationLanguage(t *testing.T) {
	store := newFakeStore()
	svc := newService(store, &stubResolver{}, nil)

	d, err := svc.CreateWithWords(context.Background(), 1, "Test", "en", nil, false, []WordInput{{Text: "Apple"}})
	require.NoError(t, err)

	_, err = svc.AddWord(context.Background(), 1, d.ID, "привет", nil, "")
	var ce *validation.ContentError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, validation.ScriptMismatch, ce.Reason)

	_, err = svc.AddWord(context.Background(), 2, d.ID, "Pear", nil, "")
	assert.ErrorIs(t, err, ErrAccessDenied)

	w, err := svc.AddWord(context.Background(), 1, d.ID, "Pear", nil, "")
	require.NoError(t, err)
	assert.Equal(t, "Pear", w.Text)
}

func TestDeleteWordMapsStoreErrors(t *testing.T) {
	store := newFakeStore()
	svc := newService(store, &stubResolver{}, nil)

	d, err := svc.CreateWithWords(context.Background(), 1, "Test", "en", nil, false, []WordInput{{Text: "Apple"}, {Text: "Pear"}})
	require.NoError(t, err)
	require.Len(t, d.Words, 2)

	assert.ErrorIs(t, svc.DeleteWord(context.Background(), 999, 1), ErrNotFound)
	assert.ErrorIs(t, svc.DeleteWord(context.Background(), d.Words[0].ID, 2), ErrAccessDenied)

	require.NoError(t, svc.DeleteWord(context.Background(), d.Words[0].ID, 1))
	// The remaining word is the dictation's last; removing it conflicts.
	assert.ErrorIs(t, svc.DeleteWord(context.Background(), d.Words[1].ID, 1), repository.ErrConflict)
}

// End-to-end authoring scenario: create, full update, delete.
func TestAuthoringLifecycle(t *testing.T) {
	store := newFakeStore()
	resolver := &stubResolver{urls: map[string]string{"Apple": "/uploads/tts-apple.mp3"}}
	svc := newService(store, resolver, nil)

	d, err := svc.CreateWithWords(context.Background(), 1, "Test", "en", nil, false, []WordInput{
		{Text: "Apple"},
		{Text: "Banana", AudioURL: "/x.mp3"},
	})
	require.NoError(t, err)
	require.Len(t, d.Words, 2)

	updated, err := svc.UpdateFull(context.Background(), d.ID, 1, "Test2", nil, "en", nil, []WordInput{
		{Text: "Car"}, {Text: "Bus"}, {Text: "Plane"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Test2", updated.Title)
	assert.Len(t, updated.Words, 3)

	require.NoError(t, svc.Delete(context.Background(), d.ID, 1))
	_, err = svc.GetOne(context.Background(), d.ID, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}
