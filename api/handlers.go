/*
handlers.go - HTTP API handlers for the pledge engine

PURPOSE:

	Exposes the pledge lifecycle engine via REST API. Handles HTTP
	request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:

	Organizations:
	  GET    /api/organizations          List organizations
	  POST   /api/organizations          Create/update organization
	  GET    /api/organizations/{id}     Get organization

	Donors:
	  GET    /api/donors                 List donors
	  POST   /api/donors                 Create/update donor
	  GET    /api/donors/{id}            Get donor with derived stats
	  GET    /api/donors/{id}/pledges    Donor's pledges
	  GET    /api/donors/{id}/donations  Donor's donations

	Campaigns:
	  GET    /api/campaigns              List campaigns with rollups
	  POST   /api/campaigns              Create/update campaign
	  GET    /api/campaigns/{id}         Get campaign
	  GET    /api/campaigns/{id}/pledges Campaign pledges
	  GET    /api/campaigns/{id}/distributions          Past distribution runs
	  GET    /api/campaigns/{id}/distributions/preview  Waterfall preview

	Pledges:
	  POST   /api/pledges                Submit pledge
	  GET    /api/pledges/{id}           Get pledge with collection state
	  DELETE /api/pledges/{id}           Cancel pledge
	  GET    /api/pledges/{id}/donations Pledge's donations

	Donations:
	  POST   /api/donations              Submit donation
	  GET    /api/donations/{id}         Get donation
	  DELETE /api/donations/{id}         Cancel donation

	Write-offs:
	  POST   /api/writeoffs              Submit write-off
	  DELETE /api/writeoffs/{id}         Cancel write-off

	Distributions:
	  POST   /api/distributions          Submit distribution run
	  GET    /api/distributions/{id}     Get run
	  DELETE /api/distributions/{id}     Cancel run

	Remittances:
	  GET    /api/remittances            List remittances
	  POST   /api/remittances            Submit remittance (fan-out)
	  GET    /api/remittances/{id}       Get remittance
	  DELETE /api/remittances/{id}       Cancel remittance

	Payroll:
	  POST   /api/payroll/parse          Parse a payroll deduction file
	  POST   /api/payroll/match          Match parsed rows to donors
	  POST   /api/payroll/remittance     Build+submit remittance from rows

ERROR HANDLING:

	Errors are returned as JSON with appropriate HTTP status:
	- 400: Validation and consistency errors, invalid input
	- 404: Document not found
	- 409: Lifecycle conflicts (already submitted/cancelled)
	- 500: Internal errors
	Soft warnings and side-effect failures never fail the request; they
	travel in the response body's "result" field.

SECURITY NOTE:

	Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - engine/service.go: The lifecycle operations invoked here
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/unitedfund/pledge-engine/engine"
	"github.com/unitedfund/pledge-engine/payroll"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   engine.Store
	Service *engine.Service
	Log     *zap.Logger
}

// NewHandler creates a handler over the given store and service.
func NewHandler(store engine.Store, service *engine.Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{Store: store, Service: service, Log: log}
}

// =============================================================================
// ORGANIZATION HANDLERS
// =============================================================================

func (h *Handler) ListOrganizations(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.Store.ListOrganizations(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list organizations", err)
		return
	}

	dtos := make([]OrganizationDTO, len(orgs))
	for i := range orgs {
		dtos[i] = toOrganizationDTO(&orgs[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetOrganization(w http.ResponseWriter, r *http.Request) {
	id := engine.OrgID(chi.URLParam(r, "id"))

	org, err := h.Store.GetOrganization(r.Context(), id)
	if err != nil {
		writeEngineError(w, "Failed to get organization", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrganizationDTO(org))
}

func (h *Handler) SaveOrganization(w http.ResponseWriter, r *http.Request) {
	var req SaveOrganizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	org := &engine.Organization{
		ID:             engine.OrgID(req.ID),
		Name:           req.Name,
		Type:           engine.OrgType(req.Type),
		Status:         req.Status,
		AgencyCode:     req.AgencyCode,
		CorporateMatch: req.CorporateMatch,
	}
	if org.ID == "" {
		org.ID = engine.OrgID(uuid.New().String())
	}
	if org.Status == "" {
		org.Status = "active"
	}
	if req.MatchRatio != "" {
		ratio, err := parsePercentField(req.MatchRatio)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid match_ratio", err)
			return
		}
		org.MatchRatio = ratio
	}
	if req.MatchCap != nil {
		capAmount, err := parseAmountField(*req.MatchCap)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid match_cap", err)
			return
		}
		org.MatchCap = &capAmount
	}

	if err := engine.ValidateOrganization(org); err != nil {
		writeEngineError(w, "Invalid organization", err)
		return
	}
	if err := h.Store.SaveOrganization(r.Context(), org); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save organization", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrganizationDTO(org))
}

// =============================================================================
// DONOR HANDLERS
// =============================================================================

func (h *Handler) ListDonors(w http.ResponseWriter, r *http.Request) {
	donors, err := h.Store.ListDonors(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list donors", err)
		return
	}

	dtos := make([]DonorDTO, len(donors))
	for i := range donors {
		dtos[i] = toDonorDTO(&donors[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetDonor(w http.ResponseWriter, r *http.Request) {
	id := engine.DonorID(chi.URLParam(r, "id"))

	donor, err := h.Store.GetDonor(r.Context(), id)
	if err != nil {
		writeEngineError(w, "Failed to get donor", err)
		return
	}
	writeJSON(w, http.StatusOK, toDonorDTO(donor))
}

func (h *Handler) SaveDonor(w http.ResponseWriter, r *http.Request) {
	var req SaveDonorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	donor := &engine.Donor{
		ID:           engine.DonorID(req.ID),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Organization: engine.OrgID(req.Organization),
		EmployeeID:   req.EmployeeID,
		Status:       req.Status,
	}
	if donor.ID == "" {
		donor.ID = engine.DonorID(uuid.New().String())
	}
	if donor.Status == "" {
		donor.Status = "active"
	}

	if err := h.Store.SaveDonor(r.Context(), donor); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save donor", err)
		return
	}
	writeJSON(w, http.StatusOK, toDonorDTO(donor))
}

func (h *Handler) GetDonorPledges(w http.ResponseWriter, r *http.Request) {
	id := engine.DonorID(chi.URLParam(r, "id"))

	pledges, err := h.Store.PledgesByDonor(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list pledges", err)
		return
	}

	dtos := make([]PledgeDTO, len(pledges))
	for i := range pledges {
		dtos[i] = toPledgeDTO(&pledges[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetDonorDonations(w http.ResponseWriter, r *http.Request) {
	id := engine.DonorID(chi.URLParam(r, "id"))

	donations, err := h.Store.DonationsByDonor(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list donations", err)
		return
	}

	dtos := make([]DonationDTO, len(donations))
	for i := range donations {
		dtos[i] = toDonationDTO(&donations[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// CAMPAIGN HANDLERS
// =============================================================================

func (h *Handler) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.Store.ListCampaigns(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list campaigns", err)
		return
	}

	dtos := make([]CampaignDTO, len(campaigns))
	for i := range campaigns {
		dtos[i] = toCampaignDTO(&campaigns[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetCampaign(w http.ResponseWriter, r *http.Request) {
	id := engine.CampaignID(chi.URLParam(r, "id"))

	campaign, err := h.Store.GetCampaign(r.Context(), id)
	if err != nil {
		writeEngineError(w, "Failed to get campaign", err)
		return
	}
	writeJSON(w, http.StatusOK, toCampaignDTO(campaign))
}

func (h *Handler) SaveCampaign(w http.ResponseWriter, r *http.Request) {
	var req SaveCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	campaign := &engine.Campaign{
		ID:     engine.CampaignID(req.ID),
		Name:   req.Name,
		Status: engine.Submitted,
	}
	if campaign.ID == "" {
		campaign.ID = engine.CampaignID(uuid.New().String())
	}

	goal, err := parseAmountField(req.Goal)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid goal", err)
		return
	}
	campaign.Goal = goal

	if req.StartDate != "" {
		if campaign.StartDate, err = parseDate(req.StartDate); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid start_date", err)
			return
		}
	}
	if req.EndDate != "" {
		if campaign.EndDate, err = parseDate(req.EndDate); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid end_date", err)
			return
		}
	}

	if err := engine.ValidateCampaign(campaign); err != nil {
		writeEngineError(w, "Invalid campaign", err)
		return
	}
	if err := h.Store.SaveCampaign(r.Context(), campaign); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save campaign", err)
		return
	}
	writeJSON(w, http.StatusOK, toCampaignDTO(campaign))
}

func (h *Handler) GetCampaignPledges(w http.ResponseWriter, r *http.Request) {
	id := engine.CampaignID(chi.URLParam(r, "id"))

	pledges, err := h.Store.PledgesByCampaign(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list pledges", err)
		return
	}

	dtos := make([]PledgeDTO, len(pledges))
	for i := range pledges {
		dtos[i] = toPledgeDTO(&pledges[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetCampaignDistributions(w http.ResponseWriter, r *http.Request) {
	id := engine.CampaignID(chi.URLParam(r, "id"))

	runs, err := h.Store.DistributionRunsByCampaign(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list distribution runs", err)
		return
	}

	dtos := make([]DistributionRunDTO, len(runs))
	for i := range runs {
		dtos[i] = toDistributionRunDTO(&runs[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// PreviewDistribution computes the per-agency waterfall without
// persisting anything.
func (h *Handler) PreviewDistribution(w http.ResponseWriter, r *http.Request) {
	id := engine.CampaignID(chi.URLParam(r, "id"))

	items, err := h.Service.PreviewDistribution(r.Context(), id)
	if err != nil {
		writeEngineError(w, "Failed to preview distribution", err)
		return
	}

	dtos := make([]DistributionItemDTO, len(items))
	for i, item := range items {
		dtos[i] = toDistributionItemDTO(item)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// PLEDGE HANDLERS
// =============================================================================

func (h *Handler) SubmitPledge(w http.ResponseWriter, r *http.Request) {
	var req SubmitPledgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	pledge, err := pledgeFromRequest(&req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid pledge", err)
		return
	}

	result, err := h.Service.SubmitPledge(r.Context(), pledge)
	if err != nil {
		writeEngineError(w, "Failed to submit pledge", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"pledge": toPledgeDTO(pledge),
		"result": toResultDTO(result),
	})
}

func (h *Handler) GetPledge(w http.ResponseWriter, r *http.Request) {
	id := engine.PledgeID(chi.URLParam(r, "id"))

	pledge, err := h.Store.GetPledge(r.Context(), id)
	if err != nil {
		writeEngineError(w, "Failed to get pledge", err)
		return
	}
	writeJSON(w, http.StatusOK, toPledgeDTO(pledge))
}

func (h *Handler) CancelPledge(w http.ResponseWriter, r *http.Request) {
	id := engine.PledgeID(chi.URLParam(r, "id"))

	result, err := h.Service.CancelPledge(r.Context(), id)
	if err != nil {
		writeEngineError(w, "Failed to cancel pledge", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": toResultDTO(result)})
}

func (h *Handler) GetPledgeDonations(w http.ResponseWriter, r *http.Request) {
	id := engine.PledgeID(chi.URLParam(r, "id"))

	donations, err := h.Store.DonationsByPledge(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list donations", err)
		return
	}

	dtos := make([]DonationDTO, len(donations))
	for i := range donations {
		dtos[i] = toDonationDTO(&donations[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

func pledgeFromRequest(req *SubmitPledgeRequest) (*engine.Pledge, error) {
	amount, err := parseAmountField(req.Amount)
	if err != nil {
		return nil, err
	}

	pledge := &engine.Pledge{
		ID:                engine.PledgeID(req.ID),
		Campaign:          engine.CampaignID(req.Campaign),
		Donor:             engine.DonorID(req.Donor),
		DonorOrganization: engine.OrgID(req.DonorOrganization),
		Amount:            amount,
		Frequency:         engine.PaymentFrequency(req.Frequency),
		EligibleForMatch:  req.EligibleForMatch,
		Status:            engine.Draft,
	}
	if pledge.Frequency == "" {
		pledge.Frequency = engine.FrequencyOneTime
	}

	if req.PledgeDate != "" {
		if pledge.PledgeDate, err = parseDate(req.PledgeDate); err != nil {
			return nil, err
		}
	}
	if req.PayrollStartDate != "" {
		start, err := parseDate(req.PayrollStartDate)
		if err != nil {
			return nil, err
		}
		pledge.PayrollStartDate = &start
	}

	for _, a := range req.Allocations {
		pct, err := parsePercentField(a.Percentage)
		if err != nil {
			return nil, err
		}
		pledge.Allocations = append(pledge.Allocations, engine.Allocation{
			Agency:          engine.OrgID(a.Agency),
			DesignationType: a.DesignationType,
			Percentage:      pct,
		})
	}

	return pledge, nil
}

// =============================================================================
// DONATION HANDLERS
// =============================================================================

func (h *Handler) SubmitDonation(w http.ResponseWriter, r *http.Request) {
	var req SubmitDonationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	amount, err := parseAmountField(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}

	donation := &engine.Donation{
		ID:              engine.DonationID(req.ID),
		Donor:           engine.DonorID(req.Donor),
		Campaign:        engine.CampaignID(req.Campaign),
		Pledge:          engine.PledgeID(req.Pledge),
		Amount:          amount,
		PaymentMethod:   req.PaymentMethod,
		ReferenceNumber: req.ReferenceNumber,
		Status:          engine.Draft,
	}
	if req.TaxDeductible != nil {
		donation.TaxDeductible = *req.TaxDeductible
	} else {
		donation.TaxDeductible = true
	}
	if req.Date != "" {
		if donation.Date, err = parseDate(req.Date); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date", err)
			return
		}
	}

	result, err := h.Service.SubmitDonation(r.Context(), donation)
	if err != nil {
		writeEngineError(w, "Failed to submit donation", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"donation": toDonationDTO(donation),
		"result":   toResultDTO(result),
	})
}

func (h *Handler) GetDonation(w http.ResponseWriter, r *http.Request) {
	id := engine.DonationID(chi.URLParam(r, "id"))

	donation, err := h.Store.GetDonation(r.Context(), id)
	if err != nil {
		writeEngineError(w, "Failed to get donation", err)
		return
	}
	writeJSON(w, http.StatusOK, toDonationDTO(donation))
}

func (h *Handler) CancelDonation(w http.ResponseWriter, r *http.Request) {
	id := engine.DonationID(chi.URLParam(r, "id"))

	result, err := h.Service.CancelDonation(r.Context(), id)
	if err != nil {
		writeEngineError(w, "Failed to cancel donation", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": toResultDTO(result)})
}

// =============================================================================
// WRITE-OFF HANDLERS
// =============================================================================

func (h *Handler) SubmitWriteoff(w http.ResponseWriter, r *http.Request) {
	var req SubmitWriteoffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	amount, err := parseAmountField(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}

	writeoff := &engine.Writeoff{
		ID:     engine.WriteoffID(req.ID),
		Pledge: engine.PledgeID(req.Pledge),
		Amount: amount,
		Reason: req.Reason,
		Status: engine.Draft,
	}
	if writeoff.ID == "" {
		writeoff.ID = engine.WriteoffID(uuid.New().String())
	}
	if req.Date != "" {
		if writeoff.Date, err = parseDate(req.Date); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date", err)
			return
		}
	}

	result, err := h.Service.SubmitWriteoff(r.Context(), writeoff, req.ApprovedBy)
	if err != nil {
		writeEngineError(w, "Failed to submit write-off", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"writeoff": toWriteoffDTO(writeoff),
		"result":   toResultDTO(result),
	})
}

func (h *Handler) CancelWriteoff(w http.ResponseWriter, r *http.Request) {
	id := engine.WriteoffID(chi.URLParam(r, "id"))

	if err := h.Service.CancelWriteoff(r.Context(), id); err != nil {
		writeEngineError(w, "Failed to cancel write-off", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "cancelled"})
}

// =============================================================================
// DISTRIBUTION HANDLERS
// =============================================================================

func (h *Handler) SubmitDistribution(w http.ResponseWriter, r *http.Request) {
	var req SubmitDistributionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	run := &engine.DistributionRun{
		ID:       engine.RunID(req.ID),
		Campaign: engine.CampaignID(req.Campaign),
		Status:   engine.Draft,
	}
	if run.ID == "" {
		run.ID = engine.RunID(uuid.New().String())
	}

	var err error
	if req.PeriodStart != "" {
		if run.PeriodStart, err = parseDate(req.PeriodStart); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid period_start", err)
			return
		}
	}
	if req.PeriodEnd != "" {
		if run.PeriodEnd, err = parseDate(req.PeriodEnd); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid period_end", err)
			return
		}
	}

	// The waterfall is computed at submit time from the current collected
	// state, not from anything the client sends.
	run.Items, err = h.Service.PreviewDistribution(r.Context(), run.Campaign)
	if err != nil {
		writeEngineError(w, "Failed to compute distribution", err)
		return
	}

	result, err := h.Service.SubmitDistributionRun(r.Context(), run)
	if err != nil {
		writeEngineError(w, "Failed to submit distribution run", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"run":    toDistributionRunDTO(run),
		"result": toResultDTO(result),
	})
}

func (h *Handler) GetDistribution(w http.ResponseWriter, r *http.Request) {
	id := engine.RunID(chi.URLParam(r, "id"))

	run, err := h.Store.GetDistributionRun(r.Context(), id)
	if err != nil {
		writeEngineError(w, "Failed to get distribution run", err)
		return
	}
	writeJSON(w, http.StatusOK, toDistributionRunDTO(run))
}

func (h *Handler) CancelDistribution(w http.ResponseWriter, r *http.Request) {
	id := engine.RunID(chi.URLParam(r, "id"))

	if err := h.Service.CancelDistributionRun(r.Context(), id); err != nil {
		writeEngineError(w, "Failed to cancel distribution run", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "cancelled"})
}

// =============================================================================
// REMITTANCE HANDLERS
// =============================================================================

func (h *Handler) ListRemittances(w http.ResponseWriter, r *http.Request) {
	remittances, err := h.Store.ListRemittances(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list remittances", err)
		return
	}

	dtos := make([]RemittanceDTO, len(remittances))
	for i := range remittances {
		dtos[i] = toRemittanceDTO(&remittances[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) SubmitRemittance(w http.ResponseWriter, r *http.Request) {
	var req SubmitRemittanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	remittance, err := remittanceFromRequest(&req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid remittance", err)
		return
	}

	result, err := h.Service.SubmitRemittance(r.Context(), remittance)
	if err != nil {
		writeEngineError(w, "Failed to submit remittance", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"remittance": toRemittanceDTO(remittance),
		"result":     toResultDTO(result),
	})
}

func (h *Handler) GetRemittance(w http.ResponseWriter, r *http.Request) {
	id := engine.RemittanceID(chi.URLParam(r, "id"))

	remittance, err := h.Store.GetRemittance(r.Context(), id)
	if err != nil {
		writeEngineError(w, "Failed to get remittance", err)
		return
	}
	writeJSON(w, http.StatusOK, toRemittanceDTO(remittance))
}

func (h *Handler) CancelRemittance(w http.ResponseWriter, r *http.Request) {
	id := engine.RemittanceID(chi.URLParam(r, "id"))

	result, err := h.Service.CancelRemittance(r.Context(), id)
	if err != nil {
		writeEngineError(w, "Failed to cancel remittance", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": toResultDTO(result)})
}

func remittanceFromRequest(req *SubmitRemittanceRequest) (*engine.Remittance, error) {
	declared, err := parseAmountField(req.DeclaredTotal)
	if err != nil {
		return nil, err
	}

	remittance := &engine.Remittance{
		ID:              engine.RemittanceID(req.ID),
		Campaign:        engine.CampaignID(req.Campaign),
		ReferenceNumber: req.ReferenceNumber,
		DeclaredTotal:   declared,
		Status:          engine.Draft,
	}
	if remittance.ID == "" {
		remittance.ID = engine.RemittanceID(uuid.New().String())
	}
	if req.Date != "" {
		if remittance.Date, err = parseDate(req.Date); err != nil {
			return nil, err
		}
	}

	for _, item := range req.Items {
		amount, err := parseAmountField(item.Amount)
		if err != nil {
			return nil, err
		}
		remittance.Items = append(remittance.Items, engine.RemittanceItem{
			Donor:         engine.DonorID(item.Donor),
			Amount:        amount,
			Pledge:        engine.PledgeID(item.Pledge),
			Campaign:      engine.CampaignID(item.Campaign),
			PaymentMethod: item.PaymentMethod,
			CheckNumber:   item.CheckNumber,
		})
	}

	return remittance, nil
}

// =============================================================================
// PAYROLL HANDLERS
// =============================================================================

func (h *Handler) ParsePayroll(w http.ResponseWriter, r *http.Request) {
	var req ParsePayrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result, err := payroll.Parse([]byte(req.Content), payroll.Format(req.Format))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to parse payroll file", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) MatchPayroll(w http.ResponseWriter, r *http.Request) {
	var req MatchPayrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	donors, err := h.Store.DonorsByOrganization(r.Context(), engine.OrgID(req.Organization))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load donors", err)
		return
	}

	writeJSON(w, http.StatusOK, payroll.MatchDonors(req.Rows, donors))
}

// PayrollRemittance builds a remittance from matched payroll rows and
// submits it, fanning each row out into a donation.
func (h *Handler) PayrollRemittance(w http.ResponseWriter, r *http.Request) {
	var req PayrollRemittanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	declared, err := parseAmountField(req.DeclaredTotal)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid declared_total", err)
		return
	}

	var date time.Time
	if req.Date != "" {
		if date, err = parseDate(req.Date); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date", err)
			return
		}
	}

	campaign := engine.CampaignID(req.Campaign)
	lookup := func(donor engine.DonorID, campaign engine.CampaignID) engine.PledgeID {
		pledges, err := h.Store.PledgesByDonor(r.Context(), donor)
		if err != nil {
			return ""
		}
		for _, p := range pledges {
			if p.Campaign == campaign && p.Status == engine.Submitted && p.Frequency != engine.FrequencyOneTime {
				return p.ID
			}
		}
		return ""
	}

	remittance, err := payroll.BuildRemittance(req.Rows, campaign, date, declared, req.ReferenceNumber, lookup)
	if err != nil {
		writeEngineError(w, "Failed to build remittance", err)
		return
	}

	result, err := h.Service.SubmitRemittance(r.Context(), remittance)
	if err != nil {
		writeEngineError(w, "Failed to submit remittance", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"remittance": toRemittanceDTO(remittance),
		"result":     toResultDTO(result),
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeEngineError maps the engine's error taxonomy to HTTP status codes.
func writeEngineError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, engine.ErrAlreadySubmitted),
		errors.Is(err, engine.ErrAlreadyCancelled),
		errors.Is(err, engine.ErrNotSubmitted):
		writeError(w, http.StatusConflict, message, err)
	case engine.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
