package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/questhub/questhub/internal/platform/httpx"
	"github.com/questhub/questhub/internal/shared"
)

// EventRecorder counts authentication outcomes.
type EventRecorder interface {
	AuthEvent(event, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) AuthEvent(string, string) {}

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	guard     *Guard
	events    EventRecorder
	validator *validator.Validate
}

// NewHandler constructs a Handler instance. events may be nil.
func NewHandler(logger *slog.Logger, service *Service, guard *Guard, events EventRecorder) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if events == nil {
		events = nopRecorder{}
	}
	return &Handler{
		logger:    logger,
		service:   service,
		guard:     guard,
		events:    events,
		validator: validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/registration", h.handleRegistration)
	r.Post("/login", h.handleLogin)
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require)
		r.Get("/session", h.showSession)
	})
}

// AccountAdded is the registration success body.
const AccountAdded = "Account added"

func (h *Handler) handleRegistration(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeCredentials(w, r)
	if !ok {
		h.events.AuthEvent("register", "invalid")
		return
	}
	account, err := h.service.Register(r.Context(), in)
	if err != nil {
		h.events.AuthEvent("register", "failure")
		if httpx.StatusFor(err) >= http.StatusInternalServerError {
			h.logger.Error("register account", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	h.events.AuthEvent("register", "success")
	h.logger.Info("account registered", slog.Int("account_id", int(account.ID)))
	httpx.Text(w, http.StatusOK, AccountAdded)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeCredentials(w, r)
	if !ok {
		h.events.AuthEvent("login", "invalid")
		return
	}
	token, err := h.service.Login(r.Context(), in)
	if err != nil {
		h.events.AuthEvent("login", "failure")
		if errors.Is(err, shared.ErrWrongPassword) {
			h.logger.Warn("login rejected", slog.String("remote", r.RemoteAddr))
		} else {
			h.logger.Error("login", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	h.events.AuthEvent("login", "success")
	httpx.JSON(w, http.StatusOK, token)
}

func (h *Handler) showSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessionFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrCannotDecryptToken)
		return
	}
	httpx.JSON(w, http.StatusOK, sess)
}

func (h *Handler) decodeCredentials(w http.ResponseWriter, r *http.Request) (NewAccount, bool) {
	var in NewAccount
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		httpx.RespondError(w, err)
		return NewAccount{}, false
	}
	if err := h.validator.Struct(in); err != nil {
		var fieldErrs validator.ValidationErrors
		detail := err.Error()
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			detail = fieldErrs[0].Field() + " is " + fieldErrs[0].Tag()
		}
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", detail)
		return NewAccount{}, false
	}
	return in, true
}
