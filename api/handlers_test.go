package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unitedfund/pledge-engine/api"
	"github.com/unitedfund/pledge-engine/engine"
	"github.com/unitedfund/pledge-engine/engine/store"
	"github.com/unitedfund/pledge-engine/money"
)

// =============================================================================
// TEST HARNESS
// =============================================================================

type harness struct {
	store  *store.Memory
	server *httptest.Server
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	mem := store.NewMemory()
	svc := engine.NewService(mem, nil, nil)
	router := api.NewRouter(api.NewHandler(mem, svc, nil))

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &harness{store: mem, server: srv}
}

func (h *harness) seed(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, h.store.SaveOrganization(ctx, &engine.Organization{
		ID: "food-bank", Name: "Community Food Bank", Type: engine.OrgMemberAgency, Status: "active"}))
	require.NoError(t, h.store.SaveDonor(ctx, &engine.Donor{
		ID: "donor-1", FirstName: "Pat", LastName: "Davis", Status: "active"}))
	require.NoError(t, h.store.SaveCampaign(ctx, &engine.Campaign{
		ID: "c1", Name: "Annual Campaign", Goal: money.FromInt(100000),
		StartDate: time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC),
		Status:    engine.Submitted}))
}

func (h *harness) post(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(h.server.URL+path, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	return resp
}

func (h *harness) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(h.server.URL + path)
	require.NoError(t, err)
	return resp
}

func (h *harness) delete(t *testing.T, path string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodDelete, h.server.URL+path, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func (h *harness) submitPledge(t *testing.T, amount string) {
	t.Helper()
	resp := h.post(t, "/api/pledges", map[string]any{
		"id":          "p1",
		"campaign":    "c1",
		"donor":       "donor-1",
		"amount":      amount,
		"pledge_date": "2025-01-15",
		"frequency":   "monthly",
		"allocations": []map[string]any{
			{"agency": "food-bank", "percentage": "100"},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
}

// =============================================================================
// PLEDGE ENDPOINTS
// =============================================================================

func TestSubmitPledgeEndpoint(t *testing.T) {
	h := newHarness(t)
	h.seed(t)

	resp := h.post(t, "/api/pledges", map[string]any{
		"id":          "p1",
		"campaign":    "c1",
		"donor":       "donor-1",
		"amount":      "1200.00",
		"pledge_date": "2025-01-15",
		"frequency":   "monthly",
		"allocations": []map[string]any{
			{"agency": "food-bank", "percentage": "100"},
		},
	})

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decodeBody(t, resp)
	pledge := body["pledge"].(map[string]any)
	assert.Equal(t, "submitted", pledge["status"])
	assert.Equal(t, "1200.00", pledge["amount"])
	assert.Len(t, pledge["schedule"].([]any), 12)

	// The rollup cascade fired before the response was written.
	c, err := h.store.GetCampaign(context.Background(), "c1")
	require.NoError(t, err)
	assert.True(t, c.TotalPledged.Equal(money.FromInt(1200)))
}

func TestSubmitPledge_BadAllocations_Returns400(t *testing.T) {
	h := newHarness(t)
	h.seed(t)

	resp := h.post(t, "/api/pledges", map[string]any{
		"campaign":    "c1",
		"donor":       "donor-1",
		"amount":      "1000",
		"pledge_date": "2025-01-15",
		"allocations": []map[string]any{
			{"agency": "food-bank", "percentage": "80"},
		},
	})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCancelPledgeEndpoint(t *testing.T) {
	h := newHarness(t)
	h.seed(t)
	h.submitPledge(t, "1200.00")

	resp := h.delete(t, "/api/pledges/p1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// A second cancel is a conflict, not a repeatable success.
	resp = h.delete(t, "/api/pledges/p1")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func TestGetPledge_NotFound(t *testing.T) {
	h := newHarness(t)

	resp := h.get(t, "/api/pledges/missing")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// =============================================================================
// DONATION ENDPOINTS
// =============================================================================

func TestSubmitDonationEndpoint_OverpaymentWarning(t *testing.T) {
	h := newHarness(t)
	h.seed(t)
	h.submitPledge(t, "1000.00")

	resp := h.post(t, "/api/donations", map[string]any{
		"id": "d1", "donor": "donor-1", "campaign": "c1", "pledge": "p1",
		"amount": "1500.00", "date": "2025-03-01",
	})

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decodeBody(t, resp)
	result := body["result"].(map[string]any)
	warnings := result["warnings"].([]any)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].(string), "overpayment")
}

func TestSubmitDonationEndpoint_DraftPledge_Returns409(t *testing.T) {
	h := newHarness(t)
	h.seed(t)
	require.NoError(t, h.store.SavePledge(context.Background(), &engine.Pledge{
		ID: "p1", Campaign: "c1", Donor: "donor-1",
		Amount: money.FromInt(1000), Status: engine.Draft,
	}))

	resp := h.post(t, "/api/donations", map[string]any{
		"donor": "donor-1", "campaign": "c1", "pledge": "p1",
		"amount": "100.00", "date": "2025-03-01",
	})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

// =============================================================================
// DISTRIBUTION ENDPOINTS
// =============================================================================

func TestDistributionEndpoints(t *testing.T) {
	h := newHarness(t)
	h.seed(t)
	h.submitPledge(t, "3000.00")

	resp := h.post(t, "/api/donations", map[string]any{
		"id": "d1", "donor": "donor-1", "campaign": "c1", "pledge": "p1",
		"amount": "1200.00", "date": "2025-03-01",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// Preview shows the distributable amount without persisting anything.
	resp = h.get(t, "/api/campaigns/c1/distributions/preview")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var preview []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&preview))
	resp.Body.Close()
	require.Len(t, preview, 1)
	assert.Equal(t, "1200.00", preview[0]["distribution_amount"])

	// Submitting computes the waterfall server-side.
	resp = h.post(t, "/api/distributions", map[string]any{
		"id": "r1", "campaign": "c1",
		"period_start": "2025-01-01", "period_end": "2025-03-31",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decodeBody(t, resp)
	run := body["run"].(map[string]any)
	assert.Equal(t, "1200.00", run["total_distribution"])
}

// =============================================================================
// PAYROLL ENDPOINTS
// =============================================================================

func TestParsePayrollEndpoint(t *testing.T) {
	h := newHarness(t)

	resp := h.post(t, "/api/payroll/parse", map[string]any{
		"content": "employee_id,employee_name,amount\n100234,Wei Chen,\"$1,200.00\"\n100235,Jordan Smith,bogus\n",
		"format":  "csv",
	})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	rows := body["rows"].([]any)
	require.Len(t, rows, 1)
	assert.Equal(t, "100234", rows[0].(map[string]any)["employeeId"])
	assert.Len(t, body["errors"].([]any), 1)
}

func TestParsePayrollEndpoint_EmptyFile_Returns400(t *testing.T) {
	h := newHarness(t)

	resp := h.post(t, "/api/payroll/parse", map[string]any{"content": "  ", "format": "csv"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMatchPayrollEndpoint(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.store.SaveDonor(context.Background(), &engine.Donor{
		ID: "donor-chen", FirstName: "Wei", LastName: "Chen",
		Organization: "acme", EmployeeID: "100234", Status: "active",
	}))

	resp := h.post(t, "/api/payroll/match", map[string]any{
		"organization": "acme",
		"rows": []map[string]any{
			{"employeeId": "100234", "employeeName": "Chen, Wei", "amount": "100"},
		},
	})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var matched []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&matched))
	resp.Body.Close()
	require.Len(t, matched, 1)
	assert.Equal(t, "donor-chen", matched[0]["donor"])
	assert.Equal(t, "exact", matched[0]["matchStatus"])
}

// =============================================================================
// ORGANIZATION / CAMPAIGN CRUD
// =============================================================================

func TestOrganizationEndpoints(t *testing.T) {
	h := newHarness(t)

	resp := h.post(t, "/api/organizations", map[string]any{
		"id": "acme", "name": "Acme Corporation", "type": "corporate_donor",
		"corporate_match": true, "match_ratio": "100",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = h.get(t, "/api/organizations/acme")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "Acme Corporation", body["name"])
	assert.Equal(t, "active", body["status"], "status defaults to active")
}

func TestCampaignValidation_Returns400(t *testing.T) {
	h := newHarness(t)

	resp := h.post(t, "/api/campaigns", map[string]any{
		"id": "bad", "name": "Backwards", "goal": "1000",
		"start_date": "2025-06-01", "end_date": "2025-01-01",
	})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// SCENARIOS
// =============================================================================

func TestScenarioEndpoints(t *testing.T) {
	h := newHarness(t)

	resp := h.get(t, "/api/scenarios")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var scenarios []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&scenarios))
	resp.Body.Close()
	require.NotEmpty(t, scenarios)

	for _, sc := range scenarios {
		id := sc["id"].(string)
		resp = h.post(t, "/api/scenarios/load", map[string]any{"scenario_id": id})
		require.Equal(t, http.StatusOK, resp.StatusCode, fmt.Sprintf("scenario %s", id))
		resp.Body.Close()
	}

	campaigns, err := h.store.ListCampaigns(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, campaigns)
}
