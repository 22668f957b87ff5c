/*
Package engine implements the pledge lifecycle and rollup-consistency core.

PURPOSE:

	This package contains the entities and rules that keep Pledge, Donation,
	Campaign, Organization, Distribution Run, and Remittance records mutually
	consistent as documents are submitted and cancelled: allocation validation,
	corporate-match computation, collection-status derivation, campaign rollups,
	the agency-distribution waterfall, batch fan-out, and write-offs.

KEY CONCEPTS IN THIS FILE (types.go):
  - DocStatus: Draft → Submitted → Cancelled lifecycle shared by documents
  - Pledge/Allocation: a committed gift split by percentage across agencies
  - Donation: an actual payment, optionally reducing a pledge's balance
  - DistributionRun: a periodic payout of collected-but-undistributed funds
  - Remittance: a settlement batch that fans out into Donations

DESIGN PRINCIPLES:
 1. Re-derivation: Every rollup field is recomputed from the full submitted
    document set, never maintained as an incremental counter. Recompute
    functions are idempotent and order-independent.
 2. Precision: money.Amount (decimal) for every dollar figure
 3. Type Safety: Strong typing for IDs prevents mixing document references
 4. Symmetric triggers: submit and cancel fire the same recompute cascade

SEE ALSO:
  - pledge.go: Allocation validation, match, collection recompute
  - campaign.go: Campaign-level rollups
  - distribution.go: Agency distribution waterfall
  - service.go: Lifecycle orchestration and post-commit reactions
*/
package engine

import (
	"time"

	"github.com/unitedfund/pledge-engine/money"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type (
	OrgID        string
	DonorID      string
	CampaignID   string
	PledgeID     string
	DonationID   string
	WriteoffID   string
	RunID        string
	RemittanceID string
)

// =============================================================================
// DOCUMENT LIFECYCLE
// =============================================================================

// DocStatus is the lifecycle state shared by all submittable documents.
// Draft documents are mutable; Submitted documents contribute to rollups
// and lock their core fields; Cancelled documents are excluded from every
// rollup exactly as if they were never submitted.
type DocStatus int

const (
	Draft DocStatus = iota
	Submitted
	Cancelled
)

func (s DocStatus) String() string {
	switch s {
	case Draft:
		return "draft"
	case Submitted:
		return "submitted"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// =============================================================================
// ORGANIZATION - Member agencies and corporate donors
// =============================================================================

type OrgType string

const (
	OrgMemberAgency   OrgType = "member_agency"
	OrgCorporateDonor OrgType = "corporate_donor"
)

type Organization struct {
	ID     OrgID
	Name   string
	Type   OrgType
	Status string // "active" / "inactive"

	// Member agency fields
	AgencyCode string

	// Corporate donor match program
	CorporateMatch bool
	MatchRatio     money.Percent // 100 = dollar-for-dollar
	MatchCap       *money.Amount // nil = uncapped
}

// =============================================================================
// DONOR (CONTACT)
// =============================================================================

// DonorLevel is derived from lifetime giving. Thresholds follow the
// recognition-society tiers used by the fundraising office.
type DonorLevel string

const (
	LevelNone             DonorLevel = ""
	LevelSupporter        DonorLevel = "supporter"         // under $100
	LevelPartner          DonorLevel = "partner"           // $100+
	LevelCommunityBuilder DonorLevel = "community_builder" // $500+
	LevelLeadership       DonorLevel = "leadership_circle" // $1,000+
	LevelTocqueville      DonorLevel = "tocqueville"       // $10,000+
)

type Donor struct {
	ID           DonorID
	FirstName    string
	LastName     string
	Organization OrgID // employer, empty if none
	EmployeeID   string
	Status       string // "active" / "inactive"

	// Derived stats (see donor.go). Always recomputed, never incremented.
	LifetimeGiving         money.Amount
	LastDonationDate       *time.Time
	LastDonationAmount     money.Amount
	ConsecutiveYearsGiving int
	Level                  DonorLevel
}

// FullName returns "First Last" with surrounding whitespace trimmed.
func (d Donor) FullName() string {
	switch {
	case d.FirstName == "":
		return d.LastName
	case d.LastName == "":
		return d.FirstName
	default:
		return d.FirstName + " " + d.LastName
	}
}

// =============================================================================
// CAMPAIGN
// =============================================================================

type Campaign struct {
	ID        CampaignID
	Name      string
	Goal      money.Amount
	StartDate time.Time
	EndDate   time.Time
	Status    DocStatus

	// Rollups (see campaign.go). Derived from submitted pledges/donations.
	TotalPledged   money.Amount
	TotalCollected money.Amount
	PledgeCount    int
	DonorCount     int
	PercentOfGoal  money.Percent
	CollectionRate money.Percent
}

// =============================================================================
// PLEDGE AND ALLOCATIONS
// =============================================================================

// CollectionStatus tracks how much of a pledge has actually been paid.
type CollectionStatus string

const (
	CollectionNotStarted         CollectionStatus = "not_started"
	CollectionInProgress         CollectionStatus = "in_progress"
	CollectionFullyCollected     CollectionStatus = "fully_collected"
	CollectionPartiallyCollected CollectionStatus = "partially_collected"
	CollectionWrittenOff         CollectionStatus = "written_off"
)

// PaymentFrequency determines how a pledge's payment schedule is laid out.
type PaymentFrequency string

const (
	FrequencyOneTime   PaymentFrequency = "one_time"
	FrequencyWeekly    PaymentFrequency = "weekly"
	FrequencyBiWeekly  PaymentFrequency = "biweekly"
	FrequencyMonthly   PaymentFrequency = "monthly"
	FrequencyQuarterly PaymentFrequency = "quarterly"
	FrequencyAnnually  PaymentFrequency = "annually"
)

// Allocation is one agency's percentage share of a pledge. A pledge
// exclusively owns its allocation lines.
type Allocation struct {
	Agency          OrgID
	DesignationType string // "direct", "donor_choice", ...
	Percentage      money.Percent
	AllocatedAmount money.Amount // derived: pledge amount × percentage
}

// ScheduleStatus is the state of one payment schedule entry.
type ScheduleStatus string

const (
	SchedulePending    ScheduleStatus = "pending"
	SchedulePaid       ScheduleStatus = "paid"
	ScheduleOverdue    ScheduleStatus = "overdue"
	ScheduleWrittenOff ScheduleStatus = "written_off"
)

// ScheduleEntry is one expected payment in a pledge's schedule.
type ScheduleEntry struct {
	DueDate        time.Time
	ExpectedAmount money.Amount
	Status         ScheduleStatus
}

// Pledge is a donor's committed gift, split by percentage across one or
// more agencies.
type Pledge struct {
	ID       PledgeID
	Campaign CampaignID
	Donor    DonorID

	// Employer of the donor, used for corporate match lookups.
	DonorOrganization OrgID

	Amount           money.Amount
	PledgeDate       time.Time
	Frequency        PaymentFrequency
	PayrollStartDate *time.Time
	EligibleForMatch bool

	Allocations []Allocation
	Schedule    []ScheduleEntry
	Status      DocStatus

	// Derived fields (see pledge.go). Recomputed from the full donation set.
	MatchAmount          money.Amount
	TotalCollected       money.Amount
	OutstandingBalance   money.Amount
	CollectionPercentage money.Percent
	CollectionStatus     CollectionStatus
	LastPaymentDate      *time.Time
}

// =============================================================================
// DONATION
// =============================================================================

// Donation is an actual payment, optionally linked to a pledge. It is an
// independently lifecycled document: a remittance that spawned it holds
// only a weak reference by id.
type Donation struct {
	ID       DonationID
	Donor    DonorID
	Campaign CampaignID
	Pledge   PledgeID // optional

	Amount          money.Amount
	Date            time.Time
	PaymentMethod   string
	ReferenceNumber string
	BatchNumber     string // provenance: remittance / batch deposit id

	TaxDeductible       bool
	TaxDeductibleAmount money.Amount

	Status DocStatus
}

// =============================================================================
// PLEDGE WRITE-OFF
// =============================================================================

type Writeoff struct {
	ID     WriteoffID
	Pledge PledgeID
	Amount money.Amount
	Date   time.Time
	Reason string

	ApprovedBy string
	ApprovedAt *time.Time

	Status DocStatus
}

// =============================================================================
// DISTRIBUTION RUN
// =============================================================================

// DistributionItem is one agency's line in a distribution run. The run
// exclusively owns its items.
type DistributionItem struct {
	Agency                OrgID
	TotalAllocated        money.Amount
	TotalCollected        money.Amount
	PreviouslyDistributed money.Amount
	DistributionAmount    money.Amount
}

// DistributionRun is a periodic payout decision moving collected-but-
// undistributed funds to agencies.
type DistributionRun struct {
	ID          RunID
	Campaign    CampaignID
	PeriodStart time.Time
	PeriodEnd   time.Time
	RunDate     time.Time

	Items []DistributionItem

	// Derived totals
	TotalDistribution money.Amount
	AgencyCount       int

	Status DocStatus
}

// =============================================================================
// REMITTANCE / BATCH DEPOSIT
// =============================================================================

// RemittanceItem is one settlement line. Donation holds the id of the
// Donation spawned on submit; it is cleared again on cancel.
type RemittanceItem struct {
	Donor         DonorID
	Amount        money.Amount
	Pledge        PledgeID   // optional
	Campaign      CampaignID // optional per-item override of the batch default
	PaymentMethod string
	CheckNumber   string

	Donation DonationID // back-link, set on submit
}

// Remittance is a settlement batch (payroll remittance or check batch
// deposit) that fans out into individual Donation records on submit.
type Remittance struct {
	ID              RemittanceID
	Campaign        CampaignID // default campaign for items
	Date            time.Time
	ReferenceNumber string
	DeclaredTotal   money.Amount

	Items []RemittanceItem

	// Derived
	ItemsTotal       money.Amount
	Variance         money.Amount // declared - items total; diagnostic only
	DonationsCreated int

	Status DocStatus
}
