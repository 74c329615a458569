package account

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-guestbook-go/internal/domain"
)

// Handler exposes HTTP endpoints for registration and activation.
type Handler struct {
	svc     *Service
	logger  *zap.SugaredLogger
	baseURL string
}

func NewHandler(svc *Service, logger *zap.SugaredLogger, baseURL string) *Handler {
	return &Handler{svc: svc, logger: logger, baseURL: baseURL}
}

// Register handles POST /register?email=…&password=….
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	password := r.URL.Query().Get("password")

	_, err := h.svc.Register(r.Context(), email, password, h.baseURL)
	if err != nil {
		var delivery *domain.DeliveryError
		switch {
		case errors.Is(err, domain.ErrValidation):
			h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email is not valid"})
		case errors.Is(err, domain.ErrConflict):
			h.writeJSON(w, http.StatusNotAcceptable, map[string]string{"error": "a user by this email is already registered"})
		case errors.As(err, &delivery):
			// account exists but the mail did not go out: degrade by
			// handing the activation URL back to the caller
			h.writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error":          "unable to send email",
				"activation_url": delivery.ActivationURL,
			})
		default:
			h.logger.Errorw("register failed", "err", err)
			h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "registration failed"})
		}
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]string{
		"status": "You have successfully registered! Please activate your account by clicking on the link sent to your email.",
	})
}

// Activate handles GET /activate?token=….
func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")

	n, err := h.svc.Activate(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			h.writeJSON(w, http.StatusForbidden, map[string]string{"error": "invalid token"})
		case errors.Is(err, domain.ErrConflict):
			h.writeJSON(w, http.StatusForbidden, map[string]string{"error": "this user has been already activated"})
		default:
			h.logger.Errorw("activation failed", "err", err)
			h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "activation failed"})
		}
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]int64{"activated": n})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
