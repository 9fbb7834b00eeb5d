package api

import (
	"encoding/json"
	"errors"
	"html"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/UkralStul/interactor/internal/composer"
	"github.com/UkralStul/interactor/internal/domain"
	"github.com/UkralStul/interactor/internal/feed"
)

// Handler serves one session: a feed and its composer.
type Handler struct {
	feed     *feed.Controller
	composer *composer.Composer
	log      *zap.Logger
	policy   *bluemonday.Policy
}

// NewHandler returns a Handler. A nil log discards output.
func NewHandler(f *feed.Controller, c *composer.Composer, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		feed:     f,
		composer: c,
		log:      log,
		policy:   bluemonday.StrictPolicy(),
	}
}

type composerRequest struct {
	Content  *string `json:"content"`
	ImageURL *string `json:"imageUrl"`
}

type textRequest struct {
	Text string `json:"text"`
}

type validationResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetFeed returns the current feed snapshot.
func (h *Handler) GetFeed(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.feed.Snapshot())
}

func (h *Handler) GetComposer(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.composer.State())
}

// UpdateComposer sets whichever of content and imageUrl the body carries.
func (h *Handler) UpdateComposer(w http.ResponseWriter, r *http.Request) {
	var req composerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if req.Content != nil {
		h.composer.SetContent(h.clean(*req.Content))
	}
	if req.ImageURL != nil {
		h.composer.SetImageURL(strings.TrimSpace(*req.ImageURL))
	}
	respondJSON(w, http.StatusOK, h.composer.State())
}

// PreviewImage probes the composer's image URL. A failed probe shows up in
// the returned state's errors.
func (h *Handler) PreviewImage(w http.ResponseWriter, r *http.Request) {
	_ = h.composer.PreviewImage(r.Context())
	respondJSON(w, http.StatusOK, h.composer.State())
}

func (h *Handler) ReportComposerImageError(w http.ResponseWriter, r *http.Request) {
	h.composer.ReportImageFailure()
	respondJSON(w, http.StatusOK, h.composer.State())
}

// SubmitPost publishes the composer draft.
func (h *Handler) SubmitPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.composer.Submit()
	if err != nil {
		var ve *composer.ValidationError
		if errors.As(err, &ve) {
			respondJSON(w, http.StatusUnprocessableEntity, validationResponse{
				Error:  "validation failed",
				Fields: h.composer.State().Errors,
			})
			return
		}
		h.log.Error("submit post failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to submit post")
		return
	}
	respondJSON(w, http.StatusCreated, post)
}

// ToggleLike flips the like state of a post.
func (h *Handler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(w, r)
	if !ok {
		return
	}
	post, found := h.feed.ToggleLike(id)
	if !found {
		respondError(w, http.StatusNotFound, "post not found")
		return
	}
	respondJSON(w, http.StatusOK, post)
}

// ToggleComments opens or closes the comment panel, fetching comments the
// first time it opens.
func (h *Handler) ToggleComments(w http.ResponseWriter, r *http.Request) {
	view, ok := h.view(w, r)
	if !ok {
		return
	}
	view.ToggleComments(r.Context())
	respondJSON(w, http.StatusOK, view.State())
}

func (h *Handler) SetDraft(w http.ResponseWriter, r *http.Request) {
	view, ok := h.view(w, r)
	if !ok {
		return
	}
	var req textRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}
	view.SetDraft(h.clean(req.Text))
	respondJSON(w, http.StatusOK, view.State())
}

// SubmitComment appends a comment by the current user.
func (h *Handler) SubmitComment(w http.ResponseWriter, r *http.Request) {
	view, ok := h.view(w, r)
	if !ok {
		return
	}
	var req textRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}
	comment, ok := view.SubmitComment(r.Context(), h.clean(req.Text))
	if !ok {
		respondError(w, http.StatusBadRequest, "comment text required")
		return
	}
	respondJSON(w, http.StatusCreated, comment)
}

func (h *Handler) ReportPostImageError(w http.ResponseWriter, r *http.Request) {
	view, ok := h.view(w, r)
	if !ok {
		return
	}
	view.MarkImageFailed()
	respondJSON(w, http.StatusOK, view.State())
}

func (h *Handler) view(w http.ResponseWriter, r *http.Request) (*feed.PostView, bool) {
	id, ok := postID(w, r)
	if !ok {
		return nil, false
	}
	view, found := h.feed.View(id)
	if !found {
		respondError(w, http.StatusNotFound, "post not found")
		return nil, false
	}
	return view, true
}

// clean strips markup from user text. The strict policy escapes what it
// keeps, so entities are decoded back to plain text.
func (h *Handler) clean(s string) string {
	return html.UnescapeString(h.policy.Sanitize(s))
}

func postID(w http.ResponseWriter, r *http.Request) (domain.PostID, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid post id")
		return 0, false
	}
	return domain.PostID(id), true
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
