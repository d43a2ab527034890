package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rstolbov/dictation-backend/internal/model"
	"github.com/rstolbov/dictation-backend/internal/service"
	"github.com/rstolbov/dictation-backend/internal/validation"
)

// DictationHandler exposes the authoring pipeline over HTTP.
type DictationHandler struct {
	Svc *service.DictationService
}

func NewDictationHandler(svc *service.DictationService) *DictationHandler {
	if svc == nil {
		panic("nil service passed to NewDictationHandler")
	}
	return &DictationHandler{Svc: svc}
}

// ----- DTOs -----

type wordReq struct {
	Text     string  `json:"text"`
	Hint     *string `json:"hint"`
	AudioURL string  `json:"audioUrl"`
}

type createDictationReq struct {
	Title       string    `json:"title"`
	Language    string    `json:"language"`
	Description *string   `json:"description"`
	IsPublic    bool      `json:"isPublic"`
	Words       []wordReq `json:"words"`
}

type updateDictationReq struct {
	Title       string    `json:"title"`
	Language    string    `json:"language"`
	Description *string   `json:"description"`
	IsPublic    *bool     `json:"isPublic"`
	Words       []wordReq `json:"words"`
}

type practiceErrorReq struct {
	Word      string `json:"word"`
	UserInput string `json:"user_input"`
	Correct   bool   `json:"correct"`
}

type completeReq struct {
	DictationID  uint64             `json:"dictationId"`
	Score        uint8              `json:"score"`
	TotalWords   uint32             `json:"totalWords"`
	CorrectCount uint32             `json:"correctCount"`
	Errors       []practiceErrorReq `json:"errors"`
}

type wordResp struct {
	ID          uint64    `json:"id"`
	Text        string    `json:"text"`
	Hint        *string   `json:"hint,omitempty"`
	AudioURL    *string   `json:"audioUrl"`
	DictationID uint64    `json:"dictationId"`
	CreatedAt   time.Time `json:"createdAt"`
}

type dictationResp struct {
	ID          uint64     `json:"id"`
	Title       string     `json:"title"`
	Language    string     `json:"language"`
	Description *string    `json:"description,omitempty"`
	IsPublic    bool       `json:"isPublic"`
	AuthorID    uint64     `json:"authorId"`
	CreatedAt   time.Time  `json:"createdAt"`
	Words       []wordResp `json:"words,omitempty"`
}

type practiceResp struct {
	ID           uint64             `json:"id"`
	DictationID  uint64             `json:"dictationId"`
	Score        uint8              `json:"score"`
	TotalWords   uint32             `json:"totalWords"`
	CorrectCount uint32             `json:"correctCount"`
	Errors       []practiceErrorReq `json:"errors,omitempty"`
	CreatedAt    time.Time          `json:"createdAt"`
}

func toWordResp(w model.Word) wordResp {
	return wordResp{ID: w.ID, Text: w.Text, Hint: w.Hint, AudioURL: w.AudioURL, DictationID: w.DictationID, CreatedAt: w.CreatedAt}
}

func toDictationResp(d *model.Dictation) dictationResp {
	resp := dictationResp{
		ID: d.ID, Title: d.Title, Language: d.Language, Description: d.Description,
		IsPublic: d.IsPublic, AuthorID: d.AuthorID, CreatedAt: d.CreatedAt,
	}
	for _, w := range d.Words {
		resp.Words = append(resp.Words, toWordResp(w))
	}
	return resp
}

func toPracticeResp(p *model.DictationPractice) practiceResp {
	resp := practiceResp{
		ID: p.ID, DictationID: p.DictationID, Score: p.Score,
		TotalWords: p.TotalWords, CorrectCount: p.CorrectCount, CreatedAt: p.CreatedAt,
	}
	for _, e := range p.Errors {
		resp.Errors = append(resp.Errors, practiceErrorReq(e))
	}
	return resp
}

// cleanWords drops entries with empty text and trims the rest, the
// same normalization every authoring payload goes through.
func cleanWords(in []wordReq) []service.WordInput {
	out := make([]service.WordInput, 0, len(in))
	for _, w := range in {
		text := strings.TrimSpace(w.Text)
		if text == "" {
			continue
		}
		out = append(out, service.WordInput{Text: text, Hint: w.Hint, AudioURL: strings.TrimSpace(w.AudioURL)})
	}
	return out
}

// pipelineError maps service and validation errors onto HTTP responses.
func pipelineError(c echo.Context, err error) error {
	var ce *validation.ContentError
	switch {
	case errors.As(err, &ce):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": ce.Error()})
	case errors.Is(err, service.ErrEmptyWordSet):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "word list cannot be empty"})
	case errors.Is(err, service.ErrInvalidPractice):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid practice result"})
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "dictation not found"})
	case errors.Is(err, service.ErrAccessDenied):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

// Create handles POST /v1/dictations: a placeholder dictation with no
// words yet.
func (h *DictationHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createDictationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title required"})
	}
	if req.Language == "" {
		req.Language = "ru"
	}
	d, err := h.Svc.Create(c.Request().Context(), uid, req.Title, req.Language, req.Description)
	if err != nil {
		return pipelineError(c, err)
	}
	return c.JSON(http.StatusCreated, toDictationResp(d))
}

// CreateWithWords handles POST /v1/dictations/full: the main
// authoring entry point, creating a dictation together with its words.
func (h *DictationHandler) CreateWithWords(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createDictationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title and words are required"})
	}
	if req.Language == "" {
		req.Language = "ru"
	}
	words := cleanWords(req.Words)
	if len(words) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "word list cannot be empty"})
	}

	d, err := h.Svc.CreateWithWords(c.Request().Context(), uid, req.Title, req.Language, req.Description, req.IsPublic, words)
	if err != nil {
		return pipelineError(c, err)
	}
	return c.JSON(http.StatusCreated, toDictationResp(d))
}

// GetAll handles GET /v1/dictations: the caller's own dictations.
func (h *DictationHandler) GetAll(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	list, err := h.Svc.GetAll(c.Request().Context(), uid)
	if err != nil {
		return pipelineError(c, err)
	}
	out := make([]dictationResp, 0, len(list))
	for i := range list {
		out = append(out, toDictationResp(&list[i]))
	}
	return c.JSON(http.StatusOK, out)
}

// GetPublic handles GET /v1/dictations/public: every public
// dictation, readable by any authenticated user. Responses are cached
// by the Redis middleware when it is enabled.
func (h *DictationHandler) GetPublic(c echo.Context) error {
	list, err := h.Svc.GetPublic(c.Request().Context())
	if err != nil {
		return pipelineError(c, err)
	}
	out := make([]dictationResp, 0, len(list))
	for i := range list {
		out = append(out, toDictationResp(&list[i]))
	}
	return c.JSON(http.StatusOK, out)
}

// GetHistory handles GET /v1/dictations/history: the caller's
// practice records, newest first.
func (h *DictationHandler) GetHistory(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	list, err := h.Svc.GetHistory(c.Request().Context(), uid)
	if err != nil {
		return pipelineError(c, err)
	}
	out := make([]practiceResp, 0, len(list))
	for i := range list {
		out = append(out, toPracticeResp(&list[i]))
	}
	return c.JSON(http.StatusOK, out)
}

// GetOne handles GET /v1/dictations/:id with words loaded.
func (h *DictationHandler) GetOne(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	d, err := h.Svc.GetOne(c.Request().Context(), id, uid)
	if err != nil {
		return pipelineError(c, err)
	}
	return c.JSON(http.StatusOK, toDictationResp(d))
}

// Update handles PATCH /v1/dictations/:id: a full replace of the
// dictation's metadata and word set.
func (h *DictationHandler) Update(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req updateDictationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title and words are required"})
	}
	if req.Language == "" {
		req.Language = "ru"
	}
	words := cleanWords(req.Words)
	if len(words) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "word list cannot be empty"})
	}

	d, err := h.Svc.UpdateFull(c.Request().Context(), id, uid, req.Title, req.Description, req.Language, req.IsPublic, words)
	if err != nil {
		return pipelineError(c, err)
	}
	return c.JSON(http.StatusOK, toDictationResp(d))
}

// Delete handles DELETE /v1/dictations/:id, removing the dictation
// with all of its words and practice records.
func (h *DictationHandler) Delete(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Svc.Delete(c.Request().Context(), id, uid); err != nil {
		return pipelineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "dictation and all related words deleted"})
}

// Complete handles POST /v1/dictations/complete, recording one
// practice attempt.
func (h *DictationHandler) Complete(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req completeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.DictationID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "dictationId required"})
	}
	var perr []model.PracticeError
	for _, e := range req.Errors {
		perr = append(perr, model.PracticeError(e))
	}
	p, err := h.Svc.SavePractice(c.Request().Context(), uid, req.DictationID, req.Score, req.TotalWords, req.CorrectCount, perr)
	if err != nil {
		return pipelineError(c, err)
	}
	return c.JSON(http.StatusCreated, toPracticeResp(p))
}
