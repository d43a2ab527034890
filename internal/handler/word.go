package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/rstolbov/dictation-backend/internal/repository"
	"github.com/rstolbov/dictation-backend/internal/service"
)

// WordHandler exposes the single-word operations: appending a word to
// an owned dictation, listing the caller's words and deleting one.
type WordHandler struct {
	Svc *service.DictationService
}

func NewWordHandler(svc *service.DictationService) *WordHandler {
	if svc == nil {
		panic("nil service passed to NewWordHandler")
	}
	return &WordHandler{Svc: svc}
}

type createWordReq struct {
	Text        string  `json:"text"`
	DictationID uint64  `json:"dictationId"`
	Hint        *string `json:"hint"`
	AudioURL    string  `json:"audioUrl"`
}

// Create handles POST /v1/words. The word is validated against the
// owning dictation's language and gets audio resolved like the bulk
// pipeline would.
func (h *WordHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createWordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" || req.DictationID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "text and dictationId required"})
	}

	w, err := h.Svc.AddWord(c.Request().Context(), uid, req.DictationID, req.Text, req.Hint, strings.TrimSpace(req.AudioURL))
	if err != nil {
		return pipelineError(c, err)
	}
	return c.JSON(http.StatusCreated, toWordResp(*w))
}

// List handles GET /v1/words: every word the caller has authored,
// newest first.
func (h *WordHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	words, err := h.Svc.ListWords(c.Request().Context(), uid)
	if err != nil {
		return pipelineError(c, err)
	}
	out := make([]wordResp, 0, len(words))
	for _, w := range words {
		out = append(out, toWordResp(w))
	}
	return c.JSON(http.StatusOK, out)
}

// Delete handles DELETE /v1/words/:id. Removing a dictation's last
// word is refused with 409 so no dictation ends up empty.
func (h *WordHandler) Delete(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Svc.DeleteWord(c.Request().Context(), id, uid); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "a dictation must keep at least one word"})
		}
		if errors.Is(err, service.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "word not found"})
		}
		return pipelineError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
