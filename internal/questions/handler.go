package questions

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/questhub/questhub/internal/auth"
	"github.com/questhub/questhub/internal/platform/httpx"
	"github.com/questhub/questhub/internal/shared"
)

// Handler exposes question endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	guard     *auth.Guard
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, guard *auth.Guard) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, guard: guard, validator: validator.New()}
}

// MountRoutes registers question routes. Listing is public; writes need a
// valid token.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/questions", h.list)
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require)
		r.Post("/questions", h.create)
		r.Delete("/questions/{id}", h.delete)
	})
}

type listResponse struct {
	Pagination *shared.Pagination `json:"pagination"`
	Questions  []Question         `json:"questions"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var (
		page   shared.Pagination
		echoed *shared.Pagination
	)
	if shared.HasPaginationParams(query) {
		parsed, err := shared.ExtractPagination(query)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		page, echoed = parsed, &parsed
	}

	items, err := h.service.List(r.Context(), page)
	if err != nil {
		h.fail(w, "list questions", err)
		return
	}
	httpx.JSON(w, http.StatusOK, listResponse{Pagination: echoed, Questions: items})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrCannotDecryptToken)
		return
	}
	var in NewQuestion
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(in); err != nil {
		var fieldErrs validator.ValidationErrors
		detail := err.Error()
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			detail = fieldErrs[0].Field() + " is " + fieldErrs[0].Tag()
		}
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", detail)
		return
	}

	q, err := h.service.Create(r.Context(), sess.AccountID, in)
	if err != nil {
		h.fail(w, "create question", err)
		return
	}
	h.logger.Info("question created", slog.Int("question_id", int(q.ID)), slog.Int("account_id", int(q.AccountID)))
	httpx.JSON(w, http.StatusCreated, q)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrCannotDecryptToken)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: id: %v", shared.ErrParse, err))
		return
	}
	if err := h.service.Delete(r.Context(), sess.AccountID, QuestionID(id)); err != nil {
		h.fail(w, "delete question", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	if httpx.StatusFor(err) >= http.StatusInternalServerError {
		h.logger.Error(msg, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
