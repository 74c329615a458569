package message

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-guestbook-go/internal/account"
	"github.com/ovaphlow/pitchfork/service-guestbook-go/internal/domain"
)

// Handler exposes HTTP endpoints for guestbook messages.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) requester(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := account.UserIDFromContext(r.Context())
	if !ok {
		// only reachable when a route is mounted without the auth middleware
		h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return 0, false
	}
	return id, true
}

func (h *Handler) messageID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid message id"})
		return 0, false
	}
	return id, true
}

// MostUpvoted handles GET /messages/most_upvoted (no authentication).
func (h *Handler) MostUpvoted(w http.ResponseWriter, r *http.Request) {
	top, err := h.svc.MostUpvoted(r.Context())
	if err != nil {
		h.logger.Errorw("most_upvoted failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "query failed"})
		return
	}
	h.writeJSON(w, http.StatusOK, top)
}

// List handles GET /messages?num=… (default 3).
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requester(w, r)
	if !ok {
		return
	}
	num, _ := strconv.Atoi(r.URL.Query().Get("num"))

	msgs, err := h.svc.List(r.Context(), userID, num)
	if err != nil {
		h.logger.Errorw("list failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "query failed"})
		return
	}
	h.writeJSON(w, http.StatusOK, msgs)
}

// Search handles GET /messages/search?search_pattern=…&num=… (default 10).
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requester(w, r)
	if !ok {
		return
	}
	pattern := r.URL.Query().Get("search_pattern")
	num, _ := strconv.Atoi(r.URL.Query().Get("num"))

	msgs, err := h.svc.Search(r.Context(), userID, pattern, num)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "search_pattern is required"})
			return
		}
		h.logger.Errorw("search failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "query failed"})
		return
	}
	h.writeJSON(w, http.StatusOK, msgs)
}

// Get handles GET /messages/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requester(w, r)
	if !ok {
		return
	}
	id, ok := h.messageID(w, r)
	if !ok {
		return
	}

	m, err := h.svc.Get(r.Context(), userID, id)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "message was not found"})
		case errors.Is(err, domain.ErrForbidden):
			h.writeJSON(w, http.StatusForbidden, map[string]string{"error": "you are not allowed to view this message"})
		default:
			h.logger.Errorw("get message failed", "err", err)
			h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "query failed"})
		}
		return
	}
	h.writeJSON(w, http.StatusOK, m)
}

// Create handles POST /messages (form: message, private).
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requester(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid form"})
		return
	}
	body := r.FormValue("message")
	private, _ := strconv.ParseBool(r.FormValue("private"))

	id, err := h.svc.Create(r.Context(), userID, body, private)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "message is required"})
			return
		}
		h.logger.Errorw("create message failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "insert failed"})
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]any{"message_id": id})
}

// Update handles PATCH /messages/{id} (form: message, private).
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requester(w, r)
	if !ok {
		return
	}
	id, ok := h.messageID(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid form"})
		return
	}
	body := r.FormValue("message")
	private, _ := strconv.ParseBool(r.FormValue("private"))

	n, err := h.svc.Update(r.Context(), userID, id, body, private)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "message was not found"})
		case errors.Is(err, domain.ErrForbidden):
			h.writeJSON(w, http.StatusForbidden, map[string]string{"error": "you are not allowed to update this message"})
		default:
			h.logger.Errorw("update message failed", "err", err)
			h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "update failed"})
		}
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]int64{"updated": n})
}

// Delete handles DELETE /messages/{id}. A non-owner's attempt is reported as
// not found, without confirming the row exists.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requester(w, r)
	if !ok {
		return
	}
	id, ok := h.messageID(w, r)
	if !ok {
		return
	}

	n, err := h.svc.Delete(r.Context(), userID, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "message was not found or you do not have permission to delete it",
			})
			return
		}
		h.logger.Errorw("delete message failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "delete failed"})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

// Upvote handles POST /messages/{id}/upvote.
func (h *Handler) Upvote(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requester(w, r)
	if !ok {
		return
	}
	id, ok := h.messageID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Upvote(r.Context(), userID, id); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "a message by this id was not found"})
		case errors.Is(err, domain.ErrForbidden):
			h.writeJSON(w, http.StatusForbidden, map[string]string{"error": "you can not upvote your own or private messages"})
		case errors.Is(err, domain.ErrConflict):
			h.writeJSON(w, http.StatusForbidden, map[string]string{"error": "you can not upvote the same message more than once"})
		default:
			h.logger.Errorw("upvote failed", "err", err)
			h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "upvote failed"})
		}
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"result": "message upvoted", "message_id": id})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
