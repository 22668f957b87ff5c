/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:

	Defines the JSON structures for API communication. These types decouple
	the internal domain model from the external API contract, allowing:
	- Field renaming without breaking clients
	- API-specific validation
	- Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

MONEY:

	Amounts cross the wire as fixed two-decimal strings ("1234.50").
	Floats are never used for money in the API contract.

VALIDATION:

	Validation is done in the engine, not in DTOs. DTOs are pure data
	carriers; handlers translate them and surface engine errors.

SEE ALSO:
  - handlers.go: Uses these types
  - engine/types.go: Domain model these map to
*/
package api

import (
	"time"

	"github.com/unitedfund/pledge-engine/engine"
	"github.com/unitedfund/pledge-engine/money"
	"github.com/unitedfund/pledge-engine/payroll"
)

// =============================================================================
// SHARED
// =============================================================================

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ResultDTO reports the non-blocking outcomes of a lifecycle operation.
type ResultDTO struct {
	Warnings    []string `json:"warnings,omitempty"`
	SideEffects []string `json:"side_effects,omitempty"`
}

// =============================================================================
// ORGANIZATION
// =============================================================================

type OrganizationDTO struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Type           string  `json:"type"`
	Status         string  `json:"status"`
	AgencyCode     string  `json:"agency_code,omitempty"`
	CorporateMatch bool    `json:"corporate_match"`
	MatchRatio     string  `json:"match_ratio"`
	MatchCap       *string `json:"match_cap,omitempty"`
}

type SaveOrganizationRequest struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Type           string  `json:"type"`
	Status         string  `json:"status"`
	AgencyCode     string  `json:"agency_code"`
	CorporateMatch bool    `json:"corporate_match"`
	MatchRatio     string  `json:"match_ratio"`
	MatchCap       *string `json:"match_cap"`
}

// =============================================================================
// DONOR
// =============================================================================

type DonorDTO struct {
	ID                     string  `json:"id"`
	FirstName              string  `json:"first_name"`
	LastName               string  `json:"last_name"`
	Organization           string  `json:"organization,omitempty"`
	EmployeeID             string  `json:"employee_id,omitempty"`
	Status                 string  `json:"status"`
	LifetimeGiving         string  `json:"lifetime_giving"`
	LastDonationDate       *string `json:"last_donation_date,omitempty"`
	LastDonationAmount     string  `json:"last_donation_amount"`
	ConsecutiveYearsGiving int     `json:"consecutive_years_giving"`
	Level                  string  `json:"level,omitempty"`
}

type SaveDonorRequest struct {
	ID           string `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Organization string `json:"organization"`
	EmployeeID   string `json:"employee_id"`
	Status       string `json:"status"`
}

// =============================================================================
// CAMPAIGN
// =============================================================================

type CampaignDTO struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Goal           string `json:"goal"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	Status         string `json:"status"`
	TotalPledged   string `json:"total_pledged"`
	TotalCollected string `json:"total_collected"`
	PledgeCount    int    `json:"pledge_count"`
	DonorCount     int    `json:"donor_count"`
	PercentOfGoal  string `json:"percent_of_goal"`
	CollectionRate string `json:"collection_rate"`
}

type SaveCampaignRequest struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Goal      string `json:"goal"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// =============================================================================
// PLEDGE
// =============================================================================

type AllocationDTO struct {
	Agency          string `json:"agency"`
	DesignationType string `json:"designation_type,omitempty"`
	Percentage      string `json:"percentage"`
	AllocatedAmount string `json:"allocated_amount"`
}

type ScheduleEntryDTO struct {
	DueDate        string `json:"due_date"`
	ExpectedAmount string `json:"expected_amount"`
	Status         string `json:"status"`
}

type PledgeDTO struct {
	ID                   string             `json:"id"`
	Campaign             string             `json:"campaign"`
	Donor                string             `json:"donor"`
	DonorOrganization    string             `json:"donor_organization,omitempty"`
	Amount               string             `json:"amount"`
	PledgeDate           string             `json:"pledge_date"`
	Frequency            string             `json:"frequency"`
	PayrollStartDate     *string            `json:"payroll_start_date,omitempty"`
	EligibleForMatch     bool               `json:"eligible_for_match"`
	Status               string             `json:"status"`
	Allocations          []AllocationDTO    `json:"allocations"`
	Schedule             []ScheduleEntryDTO `json:"schedule,omitempty"`
	MatchAmount          string             `json:"match_amount"`
	TotalCollected       string             `json:"total_collected"`
	OutstandingBalance   string             `json:"outstanding_balance"`
	CollectionPercentage string             `json:"collection_percentage"`
	CollectionStatus     string             `json:"collection_status"`
	LastPaymentDate      *string            `json:"last_payment_date,omitempty"`
}

type AllocationRequest struct {
	Agency          string `json:"agency"`
	DesignationType string `json:"designation_type"`
	Percentage      string `json:"percentage"`
}

type SubmitPledgeRequest struct {
	ID                string              `json:"id"`
	Campaign          string              `json:"campaign"`
	Donor             string              `json:"donor"`
	DonorOrganization string              `json:"donor_organization"`
	Amount            string              `json:"amount"`
	PledgeDate        string              `json:"pledge_date"`
	Frequency         string              `json:"frequency"`
	PayrollStartDate  string              `json:"payroll_start_date"`
	EligibleForMatch  bool                `json:"eligible_for_match"`
	Allocations       []AllocationRequest `json:"allocations"`
}

// =============================================================================
// DONATION
// =============================================================================

type DonationDTO struct {
	ID                  string `json:"id"`
	Donor               string `json:"donor"`
	Campaign            string `json:"campaign"`
	Pledge              string `json:"pledge,omitempty"`
	Amount              string `json:"amount"`
	Date                string `json:"date"`
	PaymentMethod       string `json:"payment_method,omitempty"`
	ReferenceNumber     string `json:"reference_number,omitempty"`
	BatchNumber         string `json:"batch_number,omitempty"`
	TaxDeductible       bool   `json:"tax_deductible"`
	TaxDeductibleAmount string `json:"tax_deductible_amount"`
	Status              string `json:"status"`
}

type SubmitDonationRequest struct {
	ID              string `json:"id"`
	Donor           string `json:"donor"`
	Campaign        string `json:"campaign"`
	Pledge          string `json:"pledge"`
	Amount          string `json:"amount"`
	Date            string `json:"date"`
	PaymentMethod   string `json:"payment_method"`
	ReferenceNumber string `json:"reference_number"`
	TaxDeductible   *bool  `json:"tax_deductible"`
}

// =============================================================================
// WRITE-OFF
// =============================================================================

type WriteoffDTO struct {
	ID         string  `json:"id"`
	Pledge     string  `json:"pledge"`
	Amount     string  `json:"amount"`
	Date       string  `json:"date"`
	Reason     string  `json:"reason,omitempty"`
	ApprovedBy string  `json:"approved_by,omitempty"`
	ApprovedAt *string `json:"approved_at,omitempty"`
	Status     string  `json:"status"`
}

type SubmitWriteoffRequest struct {
	ID         string `json:"id"`
	Pledge     string `json:"pledge"`
	Amount     string `json:"amount"`
	Date       string `json:"date"`
	Reason     string `json:"reason"`
	ApprovedBy string `json:"approved_by"`
}

// =============================================================================
// DISTRIBUTION
// =============================================================================

type DistributionItemDTO struct {
	Agency                string `json:"agency"`
	TotalAllocated        string `json:"total_allocated"`
	TotalCollected        string `json:"total_collected"`
	PreviouslyDistributed string `json:"previously_distributed"`
	DistributionAmount    string `json:"distribution_amount"`
}

type DistributionRunDTO struct {
	ID                string                `json:"id"`
	Campaign          string                `json:"campaign"`
	PeriodStart       string                `json:"period_start"`
	PeriodEnd         string                `json:"period_end"`
	RunDate           string                `json:"run_date"`
	Items             []DistributionItemDTO `json:"items"`
	TotalDistribution string                `json:"total_distribution"`
	AgencyCount       int                   `json:"agency_count"`
	Status            string                `json:"status"`
}

type SubmitDistributionRequest struct {
	ID          string `json:"id"`
	Campaign    string `json:"campaign"`
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
}

// =============================================================================
// REMITTANCE
// =============================================================================

type RemittanceItemDTO struct {
	Donor         string `json:"donor"`
	Amount        string `json:"amount"`
	Pledge        string `json:"pledge,omitempty"`
	Campaign      string `json:"campaign,omitempty"`
	PaymentMethod string `json:"payment_method,omitempty"`
	CheckNumber   string `json:"check_number,omitempty"`
	Donation      string `json:"donation,omitempty"`
}

type RemittanceDTO struct {
	ID               string              `json:"id"`
	Campaign         string              `json:"campaign,omitempty"`
	Date             string              `json:"date"`
	ReferenceNumber  string              `json:"reference_number,omitempty"`
	DeclaredTotal    string              `json:"declared_total"`
	Items            []RemittanceItemDTO `json:"items"`
	ItemsTotal       string              `json:"items_total"`
	Variance         string              `json:"variance"`
	DonationsCreated int                 `json:"donations_created"`
	Status           string              `json:"status"`
}

type RemittanceItemRequest struct {
	Donor         string `json:"donor"`
	Amount        string `json:"amount"`
	Pledge        string `json:"pledge"`
	Campaign      string `json:"campaign"`
	PaymentMethod string `json:"payment_method"`
	CheckNumber   string `json:"check_number"`
}

type SubmitRemittanceRequest struct {
	ID              string                  `json:"id"`
	Campaign        string                  `json:"campaign"`
	Date            string                  `json:"date"`
	ReferenceNumber string                  `json:"reference_number"`
	DeclaredTotal   string                  `json:"declared_total"`
	Items           []RemittanceItemRequest `json:"items"`
}

// =============================================================================
// PAYROLL
// =============================================================================

type ParsePayrollRequest struct {
	Content string `json:"content"`
	Format  string `json:"format"`
}

type MatchPayrollRequest struct {
	Organization string        `json:"organization"`
	Rows         []payroll.Row `json:"rows"`
}

type PayrollRemittanceRequest struct {
	Organization    string               `json:"organization"`
	Campaign        string               `json:"campaign"`
	Date            string               `json:"date"`
	DeclaredTotal   string               `json:"declared_total"`
	ReferenceNumber string               `json:"reference_number"`
	Rows            []payroll.MatchedRow `json:"rows"`
}

// =============================================================================
// DOMAIN -> DTO CONVERSIONS
// =============================================================================

const dateFormat = "2006-01-02"

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateFormat)
}

func formatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateFormat)
	return &s
}

func toResultDTO(res *engine.Result) ResultDTO {
	dto := ResultDTO{}
	if res == nil {
		return dto
	}
	for _, w := range res.Warnings {
		dto.Warnings = append(dto.Warnings, w.String())
	}
	for _, se := range res.SideEffects {
		dto.SideEffects = append(dto.SideEffects, se.Reaction+": "+se.Err.Error())
	}
	return dto
}

func toOrganizationDTO(o *engine.Organization) OrganizationDTO {
	dto := OrganizationDTO{
		ID:             string(o.ID),
		Name:           o.Name,
		Type:           string(o.Type),
		Status:         o.Status,
		AgencyCode:     o.AgencyCode,
		CorporateMatch: o.CorporateMatch,
		MatchRatio:     o.MatchRatio.Value.StringFixed(2),
	}
	if o.MatchCap != nil {
		s := o.MatchCap.String()
		dto.MatchCap = &s
	}
	return dto
}

func toDonorDTO(d *engine.Donor) DonorDTO {
	return DonorDTO{
		ID:                     string(d.ID),
		FirstName:              d.FirstName,
		LastName:               d.LastName,
		Organization:           string(d.Organization),
		EmployeeID:             d.EmployeeID,
		Status:                 d.Status,
		LifetimeGiving:         d.LifetimeGiving.String(),
		LastDonationDate:       formatDatePtr(d.LastDonationDate),
		LastDonationAmount:     d.LastDonationAmount.String(),
		ConsecutiveYearsGiving: d.ConsecutiveYearsGiving,
		Level:                  string(d.Level),
	}
}

func toCampaignDTO(c *engine.Campaign) CampaignDTO {
	return CampaignDTO{
		ID:             string(c.ID),
		Name:           c.Name,
		Goal:           c.Goal.String(),
		StartDate:      formatDate(c.StartDate),
		EndDate:        formatDate(c.EndDate),
		Status:         c.Status.String(),
		TotalPledged:   c.TotalPledged.String(),
		TotalCollected: c.TotalCollected.String(),
		PledgeCount:    c.PledgeCount,
		DonorCount:     c.DonorCount,
		PercentOfGoal:  c.PercentOfGoal.Value.StringFixed(2),
		CollectionRate: c.CollectionRate.Value.StringFixed(2),
	}
}

func toPledgeDTO(p *engine.Pledge) PledgeDTO {
	dto := PledgeDTO{
		ID:                   string(p.ID),
		Campaign:             string(p.Campaign),
		Donor:                string(p.Donor),
		DonorOrganization:    string(p.DonorOrganization),
		Amount:               p.Amount.String(),
		PledgeDate:           formatDate(p.PledgeDate),
		Frequency:            string(p.Frequency),
		PayrollStartDate:     formatDatePtr(p.PayrollStartDate),
		EligibleForMatch:     p.EligibleForMatch,
		Status:               p.Status.String(),
		MatchAmount:          p.MatchAmount.String(),
		TotalCollected:       p.TotalCollected.String(),
		OutstandingBalance:   p.OutstandingBalance.String(),
		CollectionPercentage: p.CollectionPercentage.Value.StringFixed(2),
		CollectionStatus:     string(p.CollectionStatus),
		LastPaymentDate:      formatDatePtr(p.LastPaymentDate),
	}
	dto.Allocations = make([]AllocationDTO, len(p.Allocations))
	for i, a := range p.Allocations {
		dto.Allocations[i] = AllocationDTO{
			Agency:          string(a.Agency),
			DesignationType: a.DesignationType,
			Percentage:      a.Percentage.Value.StringFixed(2),
			AllocatedAmount: a.AllocatedAmount.String(),
		}
	}
	for _, e := range p.Schedule {
		dto.Schedule = append(dto.Schedule, ScheduleEntryDTO{
			DueDate:        formatDate(e.DueDate),
			ExpectedAmount: e.ExpectedAmount.String(),
			Status:         string(e.Status),
		})
	}
	return dto
}

func toDonationDTO(d *engine.Donation) DonationDTO {
	return DonationDTO{
		ID:                  string(d.ID),
		Donor:               string(d.Donor),
		Campaign:            string(d.Campaign),
		Pledge:              string(d.Pledge),
		Amount:              d.Amount.String(),
		Date:                formatDate(d.Date),
		PaymentMethod:       d.PaymentMethod,
		ReferenceNumber:     d.ReferenceNumber,
		BatchNumber:         d.BatchNumber,
		TaxDeductible:       d.TaxDeductible,
		TaxDeductibleAmount: d.TaxDeductibleAmount.String(),
		Status:              d.Status.String(),
	}
}

func toWriteoffDTO(w *engine.Writeoff) WriteoffDTO {
	dto := WriteoffDTO{
		ID:         string(w.ID),
		Pledge:     string(w.Pledge),
		Amount:     w.Amount.String(),
		Date:       formatDate(w.Date),
		Reason:     w.Reason,
		ApprovedBy: w.ApprovedBy,
		Status:     w.Status.String(),
	}
	if w.ApprovedAt != nil {
		s := w.ApprovedAt.Format(time.RFC3339)
		dto.ApprovedAt = &s
	}
	return dto
}

func toDistributionItemDTO(item engine.DistributionItem) DistributionItemDTO {
	return DistributionItemDTO{
		Agency:                string(item.Agency),
		TotalAllocated:        item.TotalAllocated.String(),
		TotalCollected:        item.TotalCollected.String(),
		PreviouslyDistributed: item.PreviouslyDistributed.String(),
		DistributionAmount:    item.DistributionAmount.String(),
	}
}

func toDistributionRunDTO(run *engine.DistributionRun) DistributionRunDTO {
	dto := DistributionRunDTO{
		ID:                string(run.ID),
		Campaign:          string(run.Campaign),
		PeriodStart:       formatDate(run.PeriodStart),
		PeriodEnd:         formatDate(run.PeriodEnd),
		RunDate:           formatDate(run.RunDate),
		TotalDistribution: run.TotalDistribution.String(),
		AgencyCount:       run.AgencyCount,
		Status:            run.Status.String(),
	}
	dto.Items = make([]DistributionItemDTO, len(run.Items))
	for i, item := range run.Items {
		dto.Items[i] = toDistributionItemDTO(item)
	}
	return dto
}

func toRemittanceDTO(r *engine.Remittance) RemittanceDTO {
	dto := RemittanceDTO{
		ID:               string(r.ID),
		Campaign:         string(r.Campaign),
		Date:             formatDate(r.Date),
		ReferenceNumber:  r.ReferenceNumber,
		DeclaredTotal:    r.DeclaredTotal.String(),
		ItemsTotal:       r.ItemsTotal.String(),
		Variance:         r.Variance.String(),
		DonationsCreated: r.DonationsCreated,
		Status:           r.Status.String(),
	}
	dto.Items = make([]RemittanceItemDTO, len(r.Items))
	for i, item := range r.Items {
		dto.Items[i] = RemittanceItemDTO{
			Donor:         string(item.Donor),
			Amount:        item.Amount.String(),
			Pledge:        string(item.Pledge),
			Campaign:      string(item.Campaign),
			PaymentMethod: item.PaymentMethod,
			CheckNumber:   item.CheckNumber,
			Donation:      string(item.Donation),
		}
	}
	return dto
}

// =============================================================================
// REQUEST -> DOMAIN CONVERSIONS
// =============================================================================

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateFormat, s)
}

func parseAmountField(s string) (money.Amount, error) {
	if s == "" {
		return money.Zero(), nil
	}
	return money.TryFromString(s)
}

func parsePercentField(s string) (money.Percent, error) {
	a, err := parseAmountField(s)
	if err != nil {
		return money.ZeroPercent(), err
	}
	return money.PercentFromDecimal(a.Value), nil
}
