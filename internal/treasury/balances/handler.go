package balances

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/obra-erp/obra-erp/internal/money"
	"github.com/obra-erp/obra-erp/internal/platform/httpx"
	"github.com/obra-erp/obra-erp/internal/shared"
)

// Handler exposes the balance cache over JSON.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers balance routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/adjust", h.adjust)
}

type adjustRequest struct {
	AccountID int64  `json:"account_id" validate:"required"`
	Kind      string `json:"kind" validate:"required,oneof=CASH_BOX BANK_ACCOUNT"`
	Currency  string `json:"currency" validate:"required"`
	Delta     string `json:"delta" validate:"required"`
}

type balanceResponse struct {
	AccountID int64  `json:"account_id"`
	Kind      string `json:"kind"`
	Currency  string `json:"currency"`
	Balance   string `json:"balance"`
	UpdatedAt string `json:"updated_at"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	orgID, err := orgFromRequest(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	all, err := h.service.ListForOrganization(r.Context(), orgID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]balanceResponse, 0, len(all))
	for _, b := range all {
		out = append(out, toBalanceResponse(b))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"balances": out})
}

func (h *Handler) adjust(w http.ResponseWriter, r *http.Request) {
	orgID, err := orgFromRequest(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req adjustRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("decode body: %w", shared.ErrValidation))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%v: %w", err, shared.ErrValidation))
		return
	}
	currency, err := money.ParseCurrency(req.Currency)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%v: %w", err, shared.ErrValidation))
		return
	}
	delta, err := money.FromString(req.Delta)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%v: %w", err, shared.ErrValidation))
		return
	}
	balance, err := h.service.Apply(r.Context(), Increment{
		AccountID:      req.AccountID,
		Kind:           Kind(req.Kind),
		Currency:       currency,
		OrganizationID: orgID,
		Delta:          delta,
	})
	if err != nil {
		h.logger.Warn("balance adjust", slog.Int64("org", orgID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toBalanceResponse(balance))
}

func toBalanceResponse(b Balance) balanceResponse {
	return balanceResponse{
		AccountID: b.AccountID,
		Kind:      string(b.Kind),
		Currency:  string(b.Currency),
		Balance:   b.Balance.StringFixed(2),
		UpdatedAt: b.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func orgFromRequest(r *http.Request) (int64, error) {
	orgID, err := strconv.ParseInt(chi.URLParam(r, "orgID"), 10, 64)
	if err != nil || orgID <= 0 {
		return 0, fmt.Errorf("invalid organization: %w", shared.ErrValidation)
	}
	if _, err := shared.RequireScope(r.Context(), orgID); err != nil {
		return 0, err
	}
	return orgID, nil
}
