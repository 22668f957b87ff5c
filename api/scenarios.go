/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the store with realistic
	data for testing and demos. Each scenario creates organizations,
	donors, a campaign, and pledges/donations that demonstrate specific
	engine features.

AVAILABLE SCENARIOS:

	annual-campaign:    Community campaign with split allocations, partial
	                    collection, and a distribution-ready state
	workplace-campaign: Payroll pledges at a matching employer, one
	                    remittance already settled

HOW SCENARIOS WORK:
 1. Create member agencies and corporate donors
 2. Create donors
 3. Create a campaign
 4. Submit pledges through the service (schedules, match, rollups)
 5. Submit donations so collection state is non-trivial

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "annual-campaign"}

NOTE:

	Scenarios write straight into the configured store. Only use in
	development/demo environments.

SEE ALSO:
  - handlers.go: Handler these loaders hang off
  - engine/service.go: Lifecycle operations the loaders drive
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/unitedfund/pledge-engine/engine"
	"github.com/unitedfund/pledge-engine/money"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

// ScenarioDTO describes a loadable demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects a scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

var scenarios = []ScenarioDTO{
	{
		ID:          "annual-campaign",
		Name:        "Annual Campaign",
		Description: "Community campaign with split allocations and partial collection",
	},
	{
		ID:          "workplace-campaign",
		Name:        "Workplace Campaign",
		Description: "Payroll pledges at a matching employer",
	},
}

// ListScenarios returns the available demo scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// LoadScenario populates the store with the requested scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var err error
	switch req.ScenarioID {
	case "annual-campaign":
		err = h.loadAnnualCampaignScenario(r.Context())
	case "workplace-campaign":
		err = h.loadWorkplaceCampaignScenario(r.Context())
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown scenario: %s", req.ScenarioID), nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"loaded": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadAnnualCampaignScenario(ctx context.Context) error {
	agencies := []engine.Organization{
		{ID: "BBBS", Name: "Big Brothers Big Sisters", Type: engine.OrgMemberAgency, Status: "active", AgencyCode: "BBBS"},
		{ID: "MOW", Name: "Meals on Wheels", Type: engine.OrgMemberAgency, Status: "active", AgencyCode: "MOW"},
		{ID: "CFB", Name: "Community Food Bank", Type: engine.OrgMemberAgency, Status: "active", AgencyCode: "CFB"},
	}
	for i := range agencies {
		if err := h.Store.SaveOrganization(ctx, &agencies[i]); err != nil {
			return err
		}
	}

	donors := []engine.Donor{
		{ID: "donor-davis", FirstName: "Karen", LastName: "Davis", Status: "active"},
		{ID: "donor-miller", FirstName: "John", LastName: "Miller", Status: "active"},
	}
	for i := range donors {
		if err := h.Store.SaveDonor(ctx, &donors[i]); err != nil {
			return err
		}
	}

	year := time.Now().Year()
	campaign := &engine.Campaign{
		ID:        "annual",
		Name:      fmt.Sprintf("%d Annual Campaign", year),
		Goal:      money.FromInt(100000),
		StartDate: time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC),
		Status:    engine.Submitted,
	}
	if err := h.Store.SaveCampaign(ctx, campaign); err != nil {
		return err
	}

	pledge := &engine.Pledge{
		ID:         "pledge-davis",
		Campaign:   campaign.ID,
		Donor:      "donor-davis",
		Amount:     money.FromInt(3000),
		PledgeDate: campaign.StartDate,
		Frequency:  engine.FrequencyOneTime,
		Allocations: []engine.Allocation{
			{Agency: "BBBS", Percentage: money.PercentFromFloat(40)},
			{Agency: "MOW", Percentage: money.PercentFromFloat(35)},
			{Agency: "CFB", Percentage: money.PercentFromFloat(25)},
		},
	}
	if _, err := h.Service.SubmitPledge(ctx, pledge); err != nil {
		return err
	}

	donation := &engine.Donation{
		ID:            "donation-davis-1",
		Donor:         "donor-davis",
		Campaign:      campaign.ID,
		Pledge:        pledge.ID,
		Amount:        money.FromInt(1200),
		Date:          campaign.StartDate.AddDate(0, 1, 0),
		PaymentMethod: "Check",
		TaxDeductible: true,
	}
	if _, err := h.Service.SubmitDonation(ctx, donation); err != nil {
		return err
	}

	unpledged := &engine.Donation{
		ID:            "donation-miller-1",
		Donor:         "donor-miller",
		Campaign:      campaign.ID,
		Amount:        money.FromInt(250),
		Date:          campaign.StartDate.AddDate(0, 2, 0),
		PaymentMethod: "Credit Card",
		TaxDeductible: true,
	}
	_, err := h.Service.SubmitDonation(ctx, unpledged)
	return err
}

func (h *Handler) loadWorkplaceCampaignScenario(ctx context.Context) error {
	capAmount := money.FromInt(50000)
	employer := &engine.Organization{
		ID:             "acme",
		Name:           "Acme Corporation",
		Type:           engine.OrgCorporateDonor,
		Status:         "active",
		CorporateMatch: true,
		MatchRatio:     money.PercentFromFloat(100),
		MatchCap:       &capAmount,
	}
	if err := h.Store.SaveOrganization(ctx, employer); err != nil {
		return err
	}

	agency := &engine.Organization{
		ID: "HFH", Name: "Habitat for Humanity", Type: engine.OrgMemberAgency,
		Status: "active", AgencyCode: "HFH",
	}
	if err := h.Store.SaveOrganization(ctx, agency); err != nil {
		return err
	}

	donor := &engine.Donor{
		ID:           "donor-chen",
		FirstName:    "Wei",
		LastName:     "Chen",
		Organization: employer.ID,
		EmployeeID:   "100234",
		Status:       "active",
	}
	if err := h.Store.SaveDonor(ctx, donor); err != nil {
		return err
	}

	year := time.Now().Year()
	campaign := &engine.Campaign{
		ID:        "acme-workplace",
		Name:      fmt.Sprintf("%d Acme Workplace Campaign", year),
		Goal:      money.FromInt(25000),
		StartDate: time.Date(year, 9, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(year, 11, 30, 0, 0, 0, 0, time.UTC),
		Status:    engine.Submitted,
	}
	if err := h.Store.SaveCampaign(ctx, campaign); err != nil {
		return err
	}

	start := time.Date(year+1, 1, 1, 0, 0, 0, 0, time.UTC)
	pledge := &engine.Pledge{
		ID:                "pledge-chen",
		Campaign:          campaign.ID,
		Donor:             donor.ID,
		DonorOrganization: employer.ID,
		Amount:            money.FromInt(1200),
		PledgeDate:        campaign.StartDate,
		Frequency:         engine.FrequencyMonthly,
		PayrollStartDate:  &start,
		EligibleForMatch:  true,
		Allocations: []engine.Allocation{
			{Agency: agency.ID, Percentage: money.PercentFromFloat(100)},
		},
	}
	if _, err := h.Service.SubmitPledge(ctx, pledge); err != nil {
		return err
	}

	remittance := &engine.Remittance{
		ID:            "remit-acme-jan",
		Campaign:      campaign.ID,
		Date:          start.AddDate(0, 0, 14),
		DeclaredTotal: money.FromInt(100),
		Items: []engine.RemittanceItem{
			{Donor: donor.ID, Amount: money.FromInt(100), Pledge: pledge.ID, PaymentMethod: "ACH/Bank Transfer"},
		},
	}
	_, err := h.Service.SubmitRemittance(ctx, remittance)
	return err
}
