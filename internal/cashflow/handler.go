package cashflow

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/obra-erp/obra-erp/internal/billing"
	"github.com/obra-erp/obra-erp/internal/money"
	"github.com/obra-erp/obra-erp/internal/platform/httpx"
	"github.com/obra-erp/obra-erp/internal/shared"
)

// Handler exposes the projection over JSON.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers cashflow routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.project)
}

type eventResponse struct {
	Date        string `json:"date"`
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Source      string `json:"source"`
	SourceID    int64  `json:"source_id"`
	EntityKind  string `json:"entity_kind,omitempty"`
	EntityName  string `json:"entity_name,omitempty"`
	Description string `json:"description,omitempty"`
	ProjectID   *int64 `json:"project_id,omitempty"`
	Reference   string `json:"reference,omitempty"`
}

type currencyTotalsResponse struct {
	Income  string `json:"income"`
	Expense string `json:"expense"`
	Net     string `json:"net"`
}

type monthlySummaryResponse struct {
	Month        string                            `json:"month"`
	TotalIncome  string                            `json:"total_income"`
	TotalExpense string                            `json:"total_expense"`
	ByCurrency   map[string]currencyTotalsResponse `json:"by_currency"`
}

type projectionResponse struct {
	Timeline         []eventResponse                   `json:"timeline"`
	MonthlySummaries []monthlySummaryResponse          `json:"monthly_summaries"`
	TotalsByCurrency map[string]currencyTotalsResponse `json:"totals_by_currency"`
	Skipped          []SkippedItem                     `json:"skipped,omitempty"`
}

func (h *Handler) project(w http.ResponseWriter, r *http.Request) {
	req, err := requestFromHTTP(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	projection, err := h.service.Project(r.Context(), req)
	if err != nil {
		h.logger.Warn("cashflow projection", slog.Int64("org", req.OrganizationID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toProjectionResponse(projection))
}

func requestFromHTTP(r *http.Request) (Request, error) {
	orgID, err := strconv.ParseInt(chi.URLParam(r, "orgID"), 10, 64)
	if err != nil || orgID <= 0 {
		return Request{}, fmt.Errorf("invalid organization: %w", shared.ErrValidation)
	}
	req := Request{OrganizationID: orgID}
	q := r.URL.Query()
	if raw := q.Get("months"); raw != "" {
		months, err := strconv.Atoi(raw)
		if err != nil || months <= 0 || months > 120 {
			return Request{}, fmt.Errorf("invalid months: %w", shared.ErrValidation)
		}
		req.HorizonMonths = months
	}
	if raw := q.Get("project_id"); raw != "" {
		projectID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || projectID <= 0 {
			return Request{}, fmt.Errorf("invalid project_id: %w", shared.ErrValidation)
		}
		req.Filters.ProjectID = &projectID
	}
	if raw := q.Get("type"); raw != "" {
		direction := billing.Direction(raw)
		if direction != billing.DirectionIncome && direction != billing.DirectionExpense {
			return Request{}, fmt.Errorf("invalid type: %w", shared.ErrValidation)
		}
		req.Filters.Direction = direction
	}
	if raw := q.Get("entity_kind"); raw != "" {
		kind := billing.EntityKind(raw)
		if kind != billing.EntityClient && kind != billing.EntityProvider {
			return Request{}, fmt.Errorf("invalid entity_kind: %w", shared.ErrValidation)
		}
		req.Filters.EntityKind = kind
	}
	if raw := q.Get("currency"); raw != "" {
		currency, err := money.ParseCurrency(raw)
		if err != nil {
			return Request{}, fmt.Errorf("%v: %w", err, shared.ErrValidation)
		}
		req.Filters.Currency = currency
	}
	req.Filters.Search = q.Get("search")
	return req, nil
}

func toProjectionResponse(p Projection) projectionResponse {
	resp := projectionResponse{
		Timeline:         make([]eventResponse, 0, len(p.Timeline)),
		MonthlySummaries: make([]monthlySummaryResponse, 0, len(p.MonthlySummaries)),
		TotalsByCurrency: toCurrencyTotals(p.TotalsByCurrency),
		Skipped:          p.Skipped,
	}
	for _, e := range p.Timeline {
		resp.Timeline = append(resp.Timeline, eventResponse{
			Date:        e.Date.Format("2006-01-02"),
			Type:        string(e.Type),
			Amount:      e.Amount.StringFixed(2),
			Currency:    string(e.Currency),
			Source:      e.Source.String(),
			SourceID:    e.SourceID,
			EntityKind:  string(e.EntityKind),
			EntityName:  e.EntityName,
			Description: e.Description,
			ProjectID:   e.ProjectID,
			Reference:   e.Reference,
		})
	}
	for _, m := range p.MonthlySummaries {
		resp.MonthlySummaries = append(resp.MonthlySummaries, monthlySummaryResponse{
			Month:        m.Month,
			TotalIncome:  m.TotalIncome.StringFixed(2),
			TotalExpense: m.TotalExpense.StringFixed(2),
			ByCurrency:   toCurrencyTotals(m.ByCurrency),
		})
	}
	return resp
}

func toCurrencyTotals(totals map[money.Currency]*DirectionTotals) map[string]currencyTotalsResponse {
	out := make(map[string]currencyTotalsResponse, len(totals))
	for currency, t := range totals {
		out[string(currency)] = currencyTotalsResponse{
			Income:  t.Income.StringFixed(2),
			Expense: t.Expense.StringFixed(2),
			Net:     t.Net().StringFixed(2),
		}
	}
	return out
}
