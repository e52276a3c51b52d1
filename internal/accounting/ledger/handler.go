package ledger

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/obra-erp/obra-erp/internal/money"
	"github.com/obra-erp/obra-erp/internal/platform/httpx"
	"github.com/obra-erp/obra-erp/internal/shared"
)

// Handler wires the ledger JSON endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers ledger routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/entries", h.postEntry)
	r.Get("/sources/{sourceType}/{sourceID}", h.listBySource)
	r.Delete("/sources/{sourceType}/{sourceID}", h.reverseSource)
}

type legRequest struct {
	AccountID int64  `json:"account_id" validate:"required"`
	Side      string `json:"side" validate:"required,oneof=DEBIT CREDIT"`
	Amount    string `json:"amount" validate:"required"`
}

type postEntryRequest struct {
	Description  string       `json:"description"`
	Date         string       `json:"date" validate:"required,datetime=2006-01-02"`
	Currency     string       `json:"currency" validate:"required"`
	ExchangeRate *string      `json:"exchange_rate,omitempty"`
	SourceType   string       `json:"source_type,omitempty"`
	SourceID     string       `json:"source_id,omitempty"`
	IsAutomatic  bool         `json:"is_automatic"`
	Legs         []legRequest `json:"legs" validate:"required,min=2,dive"`
}

type entryResponse struct {
	ID              int64   `json:"id"`
	EntryNumber     string  `json:"entry_number"`
	Date            string  `json:"date"`
	Description     string  `json:"description"`
	DebitAccountID  *int64  `json:"debit_account_id,omitempty"`
	CreditAccountID *int64  `json:"credit_account_id,omitempty"`
	Debit           string  `json:"debit"`
	Credit          string  `json:"credit"`
	Currency        string  `json:"currency"`
	ExchangeRate    *string `json:"exchange_rate,omitempty"`
	SourceType      string  `json:"source_type,omitempty"`
	SourceID        string  `json:"source_id,omitempty"`
	IsAutomatic     bool    `json:"is_automatic"`
}

type postEntryResponse struct {
	EntryNumber string          `json:"entry_number"`
	Entries     []entryResponse `json:"entries"`
	Warnings    []string        `json:"warnings,omitempty"`
}

func (h *Handler) postEntry(w http.ResponseWriter, r *http.Request) {
	orgID, err := orgFromRequest(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req postEntryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("decode body: %w", shared.ErrValidation))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%v: %w", err, shared.ErrValidation))
		return
	}
	input, err := req.toInput(orgID, userFromRequest(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.PostEntry(r.Context(), input)
	if err != nil {
		h.logger.Warn("post entry", slog.Int64("org", orgID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toPostResponse(result))
}

func (h *Handler) listBySource(w http.ResponseWriter, r *http.Request) {
	orgID, sourceType, sourceID, err := sourceFromRequest(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	entries, err := h.service.ListBySource(r.Context(), orgID, sourceType, sourceID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryResponse(e))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"entries": out})
}

func (h *Handler) reverseSource(w http.ResponseWriter, r *http.Request) {
	orgID, sourceType, sourceID, err := sourceFromRequest(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.ReverseAutomaticEntries(r.Context(), orgID, sourceType, sourceID); err != nil {
		h.logger.Warn("reverse source", slog.Int64("org", orgID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (req postEntryRequest) toInput(orgID, userID int64) (PostingInput, error) {
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return PostingInput{}, fmt.Errorf("invalid date: %w", shared.ErrValidation)
	}
	currency, err := money.ParseCurrency(req.Currency)
	if err != nil {
		return PostingInput{}, fmt.Errorf("%v: %w", err, shared.ErrValidation)
	}
	input := PostingInput{
		OrganizationID: orgID,
		Description:    req.Description,
		Date:           date,
		Currency:       currency,
		SourceType:     req.SourceType,
		IsAutomatic:    req.IsAutomatic,
		CreatedBy:      userID,
	}
	if req.ExchangeRate != nil {
		rate, err := decimal.NewFromString(*req.ExchangeRate)
		if err != nil || rate.Sign() <= 0 {
			return PostingInput{}, fmt.Errorf("invalid exchange rate: %w", shared.ErrValidation)
		}
		input.ExchangeRate = &rate
	}
	if req.SourceID != "" {
		sourceID, err := uuid.Parse(req.SourceID)
		if err != nil {
			return PostingInput{}, fmt.Errorf("invalid source id: %w", shared.ErrValidation)
		}
		input.SourceID = sourceID
	}
	for _, leg := range req.Legs {
		amount, err := money.FromString(leg.Amount)
		if err != nil {
			return PostingInput{}, fmt.Errorf("%v: %w", err, shared.ErrValidation)
		}
		input.Legs = append(input.Legs, Leg{
			AccountID: leg.AccountID,
			Side:      Side(leg.Side),
			Amount:    amount,
		})
	}
	return input, nil
}

func toEntryResponse(e JournalEntry) entryResponse {
	resp := entryResponse{
		ID:              e.ID,
		EntryNumber:     e.EntryNumber,
		Date:            e.Date.Format("2006-01-02"),
		Description:     e.Description,
		DebitAccountID:  e.DebitAccountID,
		CreditAccountID: e.CreditAccountID,
		Debit:           e.Debit.StringFixed(2),
		Credit:          e.Credit.StringFixed(2),
		Currency:        string(e.Currency),
		SourceType:      e.SourceType,
		IsAutomatic:     e.IsAutomatic,
	}
	if e.ExchangeRate != nil {
		rate := e.ExchangeRate.String()
		resp.ExchangeRate = &rate
	}
	if e.SourceID != uuid.Nil {
		resp.SourceID = e.SourceID.String()
	}
	return resp
}

func toPostResponse(result PostResult) postEntryResponse {
	resp := postEntryResponse{EntryNumber: result.EntryNumber, Warnings: result.Warnings}
	for _, e := range result.Entries {
		resp.Entries = append(resp.Entries, toEntryResponse(e))
	}
	return resp
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

func userFromRequest(r *http.Request) int64 {
	scope, _ := shared.ScopeFromContext(r.Context())
	return scope.UserID
}

func sourceFromRequest(r *http.Request) (int64, string, uuid.UUID, error) {
	orgID, err := orgFromRequest(r)
	if err != nil {
		return 0, "", uuid.Nil, err
	}
	sourceType := chi.URLParam(r, "sourceType")
	sourceID, err := uuid.Parse(chi.URLParam(r, "sourceID"))
	if err != nil {
		return 0, "", uuid.Nil, fmt.Errorf("invalid source id: %w", shared.ErrValidation)
	}
	return orgID, sourceType, sourceID, nil
}
