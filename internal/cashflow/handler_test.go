package cashflow

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obra-erp/obra-erp/internal/billing"
	"github.com/obra-erp/obra-erp/internal/money"
	"github.com/obra-erp/obra-erp/internal/shared"
)

func newTestRouter(t *testing.T) chi.Router {
	t.Helper()
	bills := &fakeBillingSource{
		terms: []billing.PaymentTerm{monthlyTerm(t, 7, "1000.00", today, 3)},
	}
	svc := NewService(bills, &fakeCheckSource{}, slog.Default(), 12).
		WithNow(func() time.Time { return today })
	handler := NewHandler(slog.Default(), svc)

	r := chi.NewRouter()
	r.Route("/api/orgs/{orgID}/cashflow", handler.MountRoutes)
	return r
}

func scopedRequest(method, target string, orgID int64) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	return req.WithContext(shared.ContextWithScope(req.Context(), shared.Scope{OrganizationID: orgID, UserID: 1}))
}

func TestProjectEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, scopedRequest(http.MethodGet, "/api/orgs/1/cashflow?months=12", 1))

	require.Equal(t, http.StatusOK, rr.Code)
	var body projectionResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Timeline, 3)
	assert.Equal(t, "2025-03-15", body.Timeline[0].Date)
	assert.Equal(t, "PAYMENT_TERM", body.Timeline[0].Source)
	assert.Equal(t, "1000.00", body.Timeline[0].Amount)
	require.Len(t, body.MonthlySummaries, 3)
	assert.Equal(t, "3000.00", body.TotalsByCurrency[string(money.ARS)].Income)
	assert.Equal(t, "3000.00", body.TotalsByCurrency[string(money.ARS)].Net)
}

func TestProjectEndpointAppliesFilters(t *testing.T) {
	router := newTestRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, scopedRequest(http.MethodGet, "/api/orgs/1/cashflow?type=EXPENSE", 1))

	require.Equal(t, http.StatusOK, rr.Code)
	var body projectionResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Empty(t, body.Timeline)
}

func TestProjectEndpointRejectsBadQuery(t *testing.T) {
	router := newTestRouter(t)
	for _, target := range []string{
		"/api/orgs/1/cashflow?months=0",
		"/api/orgs/1/cashflow?type=SIDEWAYS",
		"/api/orgs/1/cashflow?currency=GBP",
		"/api/orgs/1/cashflow?entity_kind=ROBOT",
		"/api/orgs/1/cashflow?project_id=abc",
	} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, scopedRequest(http.MethodGet, target, 1))
		assert.Equal(t, http.StatusBadRequest, rr.Code, target)
	}
}

func TestProjectEndpointRequiresMatchingScope(t *testing.T) {
	router := newTestRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, scopedRequest(http.MethodGet, "/api/orgs/1/cashflow", 2))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/orgs/1/cashflow", nil))
	assert.Equal(t, http.StatusForbidden, rr.Code)
}
