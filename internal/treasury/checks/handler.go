package checks

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/obra-erp/obra-erp/internal/platform/httpx"
	"github.com/obra-erp/obra-erp/internal/shared"
)

// Handler exposes check lifecycle operations over JSON.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers check routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/{checkID}/status", h.transition)
	r.Delete("/{checkID}", h.remove)
}

type transitionRequest struct {
	Status string `json:"status" validate:"required,oneof=ISSUED PENDING CLEARED REJECTED CANCELLED"`
}

type checkResponse struct {
	ID            int64  `json:"id"`
	CheckNumber   string `json:"check_number"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	DueDate       string `json:"due_date"`
	Status        string `json:"status"`
	IssuerName    string `json:"issuer_name,omitempty"`
	IssuerBank    string `json:"issuer_bank,omitempty"`
	CashBoxID     *int64 `json:"cash_box_id,omitempty"`
	BankAccountID *int64 `json:"bank_account_id,omitempty"`
	ProjectID     *int64 `json:"project_id,omitempty"`
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request) {
	orgID, checkID, err := checkFromRequest(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req transitionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("decode body: %w", shared.ErrValidation))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%v: %w", err, shared.ErrValidation))
		return
	}
	check, err := h.service.Transition(r.Context(), orgID, checkID, CheckStatus(req.Status))
	if err != nil {
		h.logger.Warn("check transition",
			slog.Int64("org", orgID), slog.Int64("check", checkID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toCheckResponse(check))
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	orgID, checkID, err := checkFromRequest(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), orgID, checkID); err != nil {
		h.logger.Warn("check delete",
			slog.Int64("org", orgID), slog.Int64("check", checkID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toCheckResponse(c Check) checkResponse {
	return checkResponse{
		ID:            c.ID,
		CheckNumber:   c.CheckNumber,
		Amount:        c.Amount.StringFixed(2),
		Currency:      string(c.Currency),
		DueDate:       c.DueDate.Format("2006-01-02"),
		Status:        string(c.Status),
		IssuerName:    c.IssuerName,
		IssuerBank:    c.IssuerBank,
		CashBoxID:     c.CashBoxID,
		BankAccountID: c.BankAccountID,
		ProjectID:     c.ProjectID,
	}
}

func checkFromRequest(r *http.Request) (int64, int64, error) {
	orgID, err := strconv.ParseInt(chi.URLParam(r, "orgID"), 10, 64)
	if err != nil || orgID <= 0 {
		return 0, 0, fmt.Errorf("invalid organization: %w", shared.ErrValidation)
	}
	if _, err := shared.RequireScope(r.Context(), orgID); err != nil {
		return 0, 0, err
	}
	checkID, err := strconv.ParseInt(chi.URLParam(r, "checkID"), 10, 64)
	if err != nil || checkID <= 0 {
		return 0, 0, fmt.Errorf("invalid check id: %w", shared.ErrValidation)
	}
	return orgID, checkID, nil
}
