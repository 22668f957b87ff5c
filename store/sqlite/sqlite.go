/*
Package sqlite provides a SQLite-backed implementation of engine.Store.

PURPOSE:

	Production persistence for the pledge engine. The same patterns apply
	to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:

	organizations       Member agencies and corporate donors
	donors              Contacts with derived lifetime stats
	campaigns           Campaigns with rollup columns
	pledges             Pledges with derived collection columns
	pledge_allocations  Child rows owned by a pledge
	pledge_schedule     Payment schedule entries owned by a pledge
	donations           Independently lifecycled payments
	distribution_runs   Payout decisions
	distribution_items  Child rows owned by a run
	writeoffs           Pledge write-offs
	remittances         Settlement batches
	remittance_items    Child rows owned by a remittance

AMOUNT STORAGE:

	Money columns are TEXT holding decimal strings, never REAL. Allocation
	splits and rollups must round-trip without float drift.

CHILD ROWS:

	Saving a parent replaces its child rows wholesale inside one SQL
	transaction. The engine treats allocations/items as owned values, so
	there is nothing to diff.

WAL MODE:

	SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
	- Multiple readers don't block
	- Single writer at a time
	- Better crash recovery

USAGE:

	store, err := sqlite.New("./data/pledges.db")  // ":memory:" for tests
	if err != nil {
	    log.Fatal(err)
	}
	defer store.Close()

	svc := engine.NewService(store, nil, logger)

MIGRATION:

	Schema is auto-migrated on New(). For production, use a proper
	migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - engine/store.go: Interface definitions
  - engine/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/unitedfund/pledge-engine/engine"
	"github.com/unitedfund/pledge-engine/money"
)

// Store implements engine.Store using SQLite.
type Store struct {
	db *sql.DB
}

var _ engine.Store = (*Store)(nil)

// New opens (creating if needed) a SQLite store at the given path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS organizations (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		org_type TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		agency_code TEXT,
		corporate_match INTEGER NOT NULL DEFAULT 0,
		match_ratio TEXT NOT NULL DEFAULT '0',
		match_cap TEXT
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_organizations_agency_code
		ON organizations(agency_code) WHERE agency_code IS NOT NULL AND agency_code != '';

	CREATE TABLE IF NOT EXISTS donors (
		id TEXT PRIMARY KEY,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		organization TEXT,
		employee_id TEXT,
		status TEXT NOT NULL DEFAULT 'active',
		lifetime_giving TEXT NOT NULL DEFAULT '0',
		last_donation_date TEXT,
		last_donation_amount TEXT NOT NULL DEFAULT '0',
		consecutive_years INTEGER NOT NULL DEFAULT 0,
		donor_level TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_donors_organization ON donors(organization);
	CREATE INDEX IF NOT EXISTS idx_donors_employee ON donors(organization, employee_id);

	CREATE TABLE IF NOT EXISTS campaigns (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		goal TEXT NOT NULL DEFAULT '0',
		start_date TEXT,
		end_date TEXT,
		status INTEGER NOT NULL DEFAULT 0,
		total_pledged TEXT NOT NULL DEFAULT '0',
		total_collected TEXT NOT NULL DEFAULT '0',
		pledge_count INTEGER NOT NULL DEFAULT 0,
		donor_count INTEGER NOT NULL DEFAULT 0,
		percent_of_goal TEXT NOT NULL DEFAULT '0',
		collection_rate TEXT NOT NULL DEFAULT '0'
	);

	CREATE TABLE IF NOT EXISTS pledges (
		id TEXT PRIMARY KEY,
		campaign TEXT NOT NULL,
		donor TEXT NOT NULL,
		donor_organization TEXT,
		amount TEXT NOT NULL,
		pledge_date TEXT NOT NULL,
		frequency TEXT NOT NULL DEFAULT 'one_time',
		payroll_start_date TEXT,
		eligible_for_match INTEGER NOT NULL DEFAULT 0,
		status INTEGER NOT NULL DEFAULT 0,
		match_amount TEXT NOT NULL DEFAULT '0',
		total_collected TEXT NOT NULL DEFAULT '0',
		outstanding_balance TEXT NOT NULL DEFAULT '0',
		collection_percentage TEXT NOT NULL DEFAULT '0',
		collection_status TEXT NOT NULL DEFAULT 'not_started',
		last_payment_date TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_pledges_campaign ON pledges(campaign, status);
	CREATE INDEX IF NOT EXISTS idx_pledges_donor ON pledges(donor);

	CREATE TABLE IF NOT EXISTS pledge_allocations (
		pledge TEXT NOT NULL,
		position INTEGER NOT NULL,
		agency TEXT NOT NULL,
		designation_type TEXT,
		percentage TEXT NOT NULL,
		allocated_amount TEXT NOT NULL DEFAULT '0',
		PRIMARY KEY (pledge, position)
	);

	CREATE INDEX IF NOT EXISTS idx_allocations_agency ON pledge_allocations(agency);

	CREATE TABLE IF NOT EXISTS pledge_schedule (
		pledge TEXT NOT NULL,
		position INTEGER NOT NULL,
		due_date TEXT NOT NULL,
		expected_amount TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		PRIMARY KEY (pledge, position)
	);

	CREATE TABLE IF NOT EXISTS donations (
		id TEXT PRIMARY KEY,
		donor TEXT NOT NULL,
		campaign TEXT NOT NULL,
		pledge TEXT,
		amount TEXT NOT NULL,
		donation_date TEXT NOT NULL,
		payment_method TEXT,
		reference_number TEXT,
		batch_number TEXT,
		tax_deductible INTEGER NOT NULL DEFAULT 0,
		tax_deductible_amount TEXT NOT NULL DEFAULT '0',
		status INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_donations_pledge ON donations(pledge, status);
	CREATE INDEX IF NOT EXISTS idx_donations_campaign ON donations(campaign, status);
	CREATE INDEX IF NOT EXISTS idx_donations_donor ON donations(donor, status);
	CREATE INDEX IF NOT EXISTS idx_donations_batch ON donations(batch_number);

	CREATE TABLE IF NOT EXISTS distribution_runs (
		id TEXT PRIMARY KEY,
		campaign TEXT NOT NULL,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		run_date TEXT,
		total_distribution TEXT NOT NULL DEFAULT '0',
		agency_count INTEGER NOT NULL DEFAULT 0,
		status INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_runs_campaign ON distribution_runs(campaign, status);

	CREATE TABLE IF NOT EXISTS distribution_items (
		run_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		agency TEXT NOT NULL,
		total_allocated TEXT NOT NULL DEFAULT '0',
		total_collected TEXT NOT NULL DEFAULT '0',
		previously_distributed TEXT NOT NULL DEFAULT '0',
		distribution_amount TEXT NOT NULL,
		PRIMARY KEY (run_id, position)
	);

	CREATE INDEX IF NOT EXISTS idx_distribution_items_agency ON distribution_items(agency);

	CREATE TABLE IF NOT EXISTS writeoffs (
		id TEXT PRIMARY KEY,
		pledge TEXT NOT NULL,
		amount TEXT NOT NULL,
		writeoff_date TEXT NOT NULL,
		reason TEXT,
		approved_by TEXT,
		approved_at TEXT,
		status INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_writeoffs_pledge ON writeoffs(pledge);

	CREATE TABLE IF NOT EXISTS remittances (
		id TEXT PRIMARY KEY,
		campaign TEXT,
		remittance_date TEXT NOT NULL,
		reference_number TEXT,
		declared_total TEXT NOT NULL DEFAULT '0',
		items_total TEXT NOT NULL DEFAULT '0',
		variance TEXT NOT NULL DEFAULT '0',
		donations_created INTEGER NOT NULL DEFAULT 0,
		status INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS remittance_items (
		remittance TEXT NOT NULL,
		position INTEGER NOT NULL,
		donor TEXT NOT NULL,
		amount TEXT NOT NULL,
		pledge TEXT,
		campaign TEXT,
		payment_method TEXT,
		check_number TEXT,
		donation TEXT,
		PRIMARY KEY (remittance, position)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// DATE / AMOUNT HELPERS
// =============================================================================

const dateLayout = time.RFC3339

func formatDate(t time.Time) string { return t.UTC().Format(dateLayout) }

func formatDatePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatDate(*t)
}

func parseDate(s string) time.Time {
	t, _ := time.Parse(dateLayout, s)
	return t
}

func parseDatePtr(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t := parseDate(s.String)
	return &t
}

func amountPtr(a *money.Amount) any {
	if a == nil {
		return nil
	}
	return a.Value.String()
}

func parseAmountPtr(s sql.NullString) *money.Amount {
	if !s.Valid || s.String == "" {
		return nil
	}
	a := money.FromString(s.String)
	return &a
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// =============================================================================
// ORGANIZATIONS
// =============================================================================

const orgColumns = `id, name, org_type, status, agency_code, corporate_match, match_ratio, match_cap`

func (s *Store) GetOrganization(ctx context.Context, id engine.OrgID) (*engine.Organization, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+orgColumns+` FROM organizations WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orgs, err := collectOrganizations(rows)
	if err != nil {
		return nil, err
	}
	if len(orgs) == 0 {
		return nil, engine.ErrNotFound
	}
	return &orgs[0], nil
}

func (s *Store) SaveOrganization(ctx context.Context, o *engine.Organization) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO organizations (`+orgColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			org_type = excluded.org_type,
			status = excluded.status,
			agency_code = excluded.agency_code,
			corporate_match = excluded.corporate_match,
			match_ratio = excluded.match_ratio,
			match_cap = excluded.match_cap`,
		o.ID, o.Name, string(o.Type), o.Status, o.AgencyCode, boolToInt(o.CorporateMatch),
		o.MatchRatio.Value.String(), amountPtr(o.MatchCap))
	return err
}

func (s *Store) ListOrganizations(ctx context.Context) ([]engine.Organization, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+orgColumns+` FROM organizations ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrganizations(rows)
}

func collectOrganizations(rows *sql.Rows) ([]engine.Organization, error) {
	var result []engine.Organization
	for rows.Next() {
		var o engine.Organization
		var orgType string
		var agencyCode, matchCap sql.NullString
		var corporateMatch int
		var matchRatio string
		if err := rows.Scan(&o.ID, &o.Name, &orgType, &o.Status, &agencyCode,
			&corporateMatch, &matchRatio, &matchCap); err != nil {
			return nil, err
		}
		o.Type = engine.OrgType(orgType)
		o.AgencyCode = agencyCode.String
		o.CorporateMatch = corporateMatch != 0
		o.MatchRatio = money.PercentFromDecimal(money.FromString(matchRatio).Value)
		o.MatchCap = parseAmountPtr(matchCap)
		result = append(result, o)
	}
	return result, rows.Err()
}

// =============================================================================
// DONORS
// =============================================================================

const donorColumns = `id, first_name, last_name, organization, employee_id, status,
	lifetime_giving, last_donation_date, last_donation_amount, consecutive_years, donor_level`

func (s *Store) GetDonor(ctx context.Context, id engine.DonorID) (*engine.Donor, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+donorColumns+` FROM donors WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	donors, err := collectDonors(rows)
	if err != nil {
		return nil, err
	}
	if len(donors) == 0 {
		return nil, engine.ErrNotFound
	}
	return &donors[0], nil
}

func (s *Store) SaveDonor(ctx context.Context, d *engine.Donor) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO donors (id, first_name, last_name, organization, employee_id, status,
			lifetime_giving, last_donation_date, last_donation_amount, consecutive_years, donor_level)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			organization = excluded.organization,
			employee_id = excluded.employee_id,
			status = excluded.status,
			lifetime_giving = excluded.lifetime_giving,
			last_donation_date = excluded.last_donation_date,
			last_donation_amount = excluded.last_donation_amount,
			consecutive_years = excluded.consecutive_years,
			donor_level = excluded.donor_level`,
		d.ID, d.FirstName, d.LastName, string(d.Organization), d.EmployeeID, d.Status,
		d.LifetimeGiving.Value.String(), formatDatePtr(d.LastDonationDate),
		d.LastDonationAmount.Value.String(), d.ConsecutiveYearsGiving, string(d.Level))
	return err
}

func (s *Store) DonorsByOrganization(ctx context.Context, org engine.OrgID) ([]engine.Donor, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+donorColumns+` FROM donors WHERE organization = ? ORDER BY id`, org)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDonors(rows)
}

func (s *Store) ListDonors(ctx context.Context) ([]engine.Donor, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+donorColumns+` FROM donors ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDonors(rows)
}

func collectDonors(rows *sql.Rows) ([]engine.Donor, error) {
	var result []engine.Donor
	for rows.Next() {
		var d engine.Donor
		var org, employeeID, lastDate sql.NullString
		var lifetime, lastAmount, level string
		if err := rows.Scan(&d.ID, &d.FirstName, &d.LastName, &org, &employeeID, &d.Status,
			&lifetime, &lastDate, &lastAmount, &d.ConsecutiveYearsGiving, &level); err != nil {
			return nil, err
		}
		d.Organization = engine.OrgID(org.String)
		d.EmployeeID = employeeID.String
		d.LifetimeGiving = money.FromString(lifetime)
		d.LastDonationDate = parseDatePtr(lastDate)
		d.LastDonationAmount = money.FromString(lastAmount)
		d.Level = engine.DonorLevel(level)
		result = append(result, d)
	}
	return result, rows.Err()
}

// =============================================================================
// CAMPAIGNS
// =============================================================================

const campaignColumns = `id, name, goal, start_date, end_date, status,
	total_pledged, total_collected, pledge_count, donor_count, percent_of_goal, collection_rate`

func (s *Store) GetCampaign(ctx context.Context, id engine.CampaignID) (*engine.Campaign, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	campaigns, err := collectCampaigns(rows)
	if err != nil {
		return nil, err
	}
	if len(campaigns) == 0 {
		return nil, engine.ErrNotFound
	}
	return &campaigns[0], nil
}

func (s *Store) SaveCampaign(ctx context.Context, c *engine.Campaign) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO campaigns (id, name, goal, start_date, end_date, status,
			total_pledged, total_collected, pledge_count, donor_count, percent_of_goal, collection_rate)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			goal = excluded.goal,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			status = excluded.status,
			total_pledged = excluded.total_pledged,
			total_collected = excluded.total_collected,
			pledge_count = excluded.pledge_count,
			donor_count = excluded.donor_count,
			percent_of_goal = excluded.percent_of_goal,
			collection_rate = excluded.collection_rate`,
		c.ID, c.Name, c.Goal.Value.String(), formatDate(c.StartDate), formatDate(c.EndDate),
		int(c.Status), c.TotalPledged.Value.String(), c.TotalCollected.Value.String(),
		c.PledgeCount, c.DonorCount, c.PercentOfGoal.Value.String(), c.CollectionRate.Value.String())
	return err
}

func (s *Store) ListCampaigns(ctx context.Context) ([]engine.Campaign, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+campaignColumns+` FROM campaigns ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCampaigns(rows)
}

func collectCampaigns(rows *sql.Rows) ([]engine.Campaign, error) {
	var result []engine.Campaign
	for rows.Next() {
		var c engine.Campaign
		var goal, pledged, collected, pctGoal, collRate string
		var start, end sql.NullString
		var status int
		if err := rows.Scan(&c.ID, &c.Name, &goal, &start, &end, &status,
			&pledged, &collected, &c.PledgeCount, &c.DonorCount, &pctGoal, &collRate); err != nil {
			return nil, err
		}
		c.Goal = money.FromString(goal)
		if start.Valid && start.String != "" {
			c.StartDate = parseDate(start.String)
		}
		if end.Valid && end.String != "" {
			c.EndDate = parseDate(end.String)
		}
		c.Status = engine.DocStatus(status)
		c.TotalPledged = money.FromString(pledged)
		c.TotalCollected = money.FromString(collected)
		c.PercentOfGoal = money.PercentFromDecimal(money.FromString(pctGoal).Value)
		c.CollectionRate = money.PercentFromDecimal(money.FromString(collRate).Value)
		result = append(result, c)
	}
	return result, rows.Err()
}

// =============================================================================
// PLEDGES
// =============================================================================

const pledgeColumns = `id, campaign, donor, donor_organization, amount, pledge_date, frequency,
	payroll_start_date, eligible_for_match, status, match_amount, total_collected,
	outstanding_balance, collection_percentage, collection_status, last_payment_date`

func (s *Store) GetPledge(ctx context.Context, id engine.PledgeID) (*engine.Pledge, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+pledgeColumns+` FROM pledges WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	pledges, err := collectPledges(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}
	if len(pledges) == 0 {
		return nil, engine.ErrNotFound
	}

	p := &pledges[0]
	if err := s.loadPledgeChildren(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Store) SavePledge(ctx context.Context, p *engine.Pledge) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO pledges (id, campaign, donor, donor_organization, amount, pledge_date, frequency,
			payroll_start_date, eligible_for_match, status, match_amount, total_collected,
			outstanding_balance, collection_percentage, collection_status, last_payment_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			campaign = excluded.campaign,
			donor = excluded.donor,
			donor_organization = excluded.donor_organization,
			amount = excluded.amount,
			pledge_date = excluded.pledge_date,
			frequency = excluded.frequency,
			payroll_start_date = excluded.payroll_start_date,
			eligible_for_match = excluded.eligible_for_match,
			status = excluded.status,
			match_amount = excluded.match_amount,
			total_collected = excluded.total_collected,
			outstanding_balance = excluded.outstanding_balance,
			collection_percentage = excluded.collection_percentage,
			collection_status = excluded.collection_status,
			last_payment_date = excluded.last_payment_date`,
		p.ID, p.Campaign, p.Donor, string(p.DonorOrganization), p.Amount.Value.String(),
		formatDate(p.PledgeDate), string(p.Frequency), formatDatePtr(p.PayrollStartDate),
		boolToInt(p.EligibleForMatch), int(p.Status), p.MatchAmount.Value.String(),
		p.TotalCollected.Value.String(), p.OutstandingBalance.Value.String(),
		p.CollectionPercentage.Value.String(), string(p.CollectionStatus),
		formatDatePtr(p.LastPaymentDate))
	if err != nil {
		return err
	}

	// Child rows are owned values: replace wholesale.
	if _, err := tx.ExecContext(ctx, `DELETE FROM pledge_allocations WHERE pledge = ?`, p.ID); err != nil {
		return err
	}
	for i, a := range p.Allocations {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO pledge_allocations (pledge, position, agency, designation_type, percentage, allocated_amount)
			VALUES (?, ?, ?, ?, ?, ?)`,
			p.ID, i, a.Agency, a.DesignationType, a.Percentage.Value.String(), a.AllocatedAmount.Value.String())
		if err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM pledge_schedule WHERE pledge = ?`, p.ID); err != nil {
		return err
	}
	for i, e := range p.Schedule {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO pledge_schedule (pledge, position, due_date, expected_amount, status)
			VALUES (?, ?, ?, ?, ?)`,
			p.ID, i, formatDate(e.DueDate), e.ExpectedAmount.Value.String(), string(e.Status))
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *Store) PledgesByCampaign(ctx context.Context, campaign engine.CampaignID) ([]engine.Pledge, error) {
	return s.queryPledges(ctx, `campaign = ?`, campaign)
}

func (s *Store) PledgesByDonor(ctx context.Context, donor engine.DonorID) ([]engine.Pledge, error) {
	return s.queryPledges(ctx, `donor = ?`, donor)
}

func (s *Store) queryPledges(ctx context.Context, where string, arg any) ([]engine.Pledge, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+pledgeColumns+` FROM pledges WHERE `+where+` ORDER BY id`, arg)
	if err != nil {
		return nil, err
	}
	pledges, err := collectPledges(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}
	for i := range pledges {
		if err := s.loadPledgeChildren(ctx, &pledges[i]); err != nil {
			return nil, err
		}
	}
	return pledges, nil
}

func collectPledges(rows *sql.Rows) ([]engine.Pledge, error) {
	var result []engine.Pledge
	for rows.Next() {
		var p engine.Pledge
		var donorOrg, payrollStart, lastPayment sql.NullString
		var amount, matchAmount, collected, outstanding, collectionPct string
		var frequency, collectionStatus, pledgeDate string
		var eligible, status int
		if err := rows.Scan(&p.ID, &p.Campaign, &p.Donor, &donorOrg, &amount, &pledgeDate, &frequency,
			&payrollStart, &eligible, &status, &matchAmount, &collected,
			&outstanding, &collectionPct, &collectionStatus, &lastPayment); err != nil {
			return nil, err
		}
		p.DonorOrganization = engine.OrgID(donorOrg.String)
		p.Amount = money.FromString(amount)
		p.PledgeDate = parseDate(pledgeDate)
		p.Frequency = engine.PaymentFrequency(frequency)
		p.PayrollStartDate = parseDatePtr(payrollStart)
		p.EligibleForMatch = eligible != 0
		p.Status = engine.DocStatus(status)
		p.MatchAmount = money.FromString(matchAmount)
		p.TotalCollected = money.FromString(collected)
		p.OutstandingBalance = money.FromString(outstanding)
		p.CollectionPercentage = money.PercentFromDecimal(money.FromString(collectionPct).Value)
		p.CollectionStatus = engine.CollectionStatus(collectionStatus)
		p.LastPaymentDate = parseDatePtr(lastPayment)
		result = append(result, p)
	}
	return result, rows.Err()
}

func (s *Store) loadPledgeChildren(ctx context.Context, p *engine.Pledge) error {
	allocRows, err := s.db.QueryContext(ctx, `
		SELECT agency, designation_type, percentage, allocated_amount
		FROM pledge_allocations WHERE pledge = ? ORDER BY position`, p.ID)
	if err != nil {
		return err
	}
	defer allocRows.Close()

	p.Allocations = nil
	for allocRows.Next() {
		var a engine.Allocation
		var designation sql.NullString
		var pct, amount string
		if err := allocRows.Scan(&a.Agency, &designation, &pct, &amount); err != nil {
			return err
		}
		a.DesignationType = designation.String
		a.Percentage = money.PercentFromDecimal(money.FromString(pct).Value)
		a.AllocatedAmount = money.FromString(amount)
		p.Allocations = append(p.Allocations, a)
	}
	if err := allocRows.Err(); err != nil {
		return err
	}

	scheduleRows, err := s.db.QueryContext(ctx, `
		SELECT due_date, expected_amount, status
		FROM pledge_schedule WHERE pledge = ? ORDER BY position`, p.ID)
	if err != nil {
		return err
	}
	defer scheduleRows.Close()

	p.Schedule = nil
	for scheduleRows.Next() {
		var e engine.ScheduleEntry
		var due, amount, status string
		if err := scheduleRows.Scan(&due, &amount, &status); err != nil {
			return err
		}
		e.DueDate = parseDate(due)
		e.ExpectedAmount = money.FromString(amount)
		e.Status = engine.ScheduleStatus(status)
		p.Schedule = append(p.Schedule, e)
	}
	return scheduleRows.Err()
}

// =============================================================================
// DONATIONS
// =============================================================================

const donationColumns = `id, donor, campaign, pledge, amount, donation_date, payment_method,
	reference_number, batch_number, tax_deductible, tax_deductible_amount, status`

func (s *Store) GetDonation(ctx context.Context, id engine.DonationID) (*engine.Donation, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+donationColumns+` FROM donations WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	donations, err := collectDonations(rows)
	if err != nil {
		return nil, err
	}
	if len(donations) == 0 {
		return nil, engine.ErrNotFound
	}
	return &donations[0], nil
}

func (s *Store) SaveDonation(ctx context.Context, d *engine.Donation) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO donations (id, donor, campaign, pledge, amount, donation_date, payment_method,
			reference_number, batch_number, tax_deductible, tax_deductible_amount, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			donor = excluded.donor,
			campaign = excluded.campaign,
			pledge = excluded.pledge,
			amount = excluded.amount,
			donation_date = excluded.donation_date,
			payment_method = excluded.payment_method,
			reference_number = excluded.reference_number,
			batch_number = excluded.batch_number,
			tax_deductible = excluded.tax_deductible,
			tax_deductible_amount = excluded.tax_deductible_amount,
			status = excluded.status`,
		d.ID, d.Donor, d.Campaign, string(d.Pledge), d.Amount.Value.String(), formatDate(d.Date),
		d.PaymentMethod, d.ReferenceNumber, d.BatchNumber, boolToInt(d.TaxDeductible),
		d.TaxDeductibleAmount.Value.String(), int(d.Status))
	return err
}

func (s *Store) DonationsByPledge(ctx context.Context, pledge engine.PledgeID) ([]engine.Donation, error) {
	return s.queryDonations(ctx, `pledge = ?`, pledge)
}

func (s *Store) DonationsByCampaign(ctx context.Context, campaign engine.CampaignID) ([]engine.Donation, error) {
	return s.queryDonations(ctx, `campaign = ?`, campaign)
}

func (s *Store) DonationsByDonor(ctx context.Context, donor engine.DonorID) ([]engine.Donation, error) {
	return s.queryDonations(ctx, `donor = ?`, donor)
}

func (s *Store) queryDonations(ctx context.Context, where string, arg any) ([]engine.Donation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+donationColumns+` FROM donations WHERE `+where+` ORDER BY donation_date, id`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDonations(rows)
}

func collectDonations(rows *sql.Rows) ([]engine.Donation, error) {
	var result []engine.Donation
	for rows.Next() {
		var d engine.Donation
		var pledge, method, ref, batch sql.NullString
		var amount, date, taxAmount string
		var taxDeductible, status int
		if err := rows.Scan(&d.ID, &d.Donor, &d.Campaign, &pledge, &amount, &date, &method,
			&ref, &batch, &taxDeductible, &taxAmount, &status); err != nil {
			return nil, err
		}
		d.Pledge = engine.PledgeID(pledge.String)
		d.Amount = money.FromString(amount)
		d.Date = parseDate(date)
		d.PaymentMethod = method.String
		d.ReferenceNumber = ref.String
		d.BatchNumber = batch.String
		d.TaxDeductible = taxDeductible != 0
		d.TaxDeductibleAmount = money.FromString(taxAmount)
		d.Status = engine.DocStatus(status)
		result = append(result, d)
	}
	return result, rows.Err()
}

// =============================================================================
// DISTRIBUTION RUNS
// =============================================================================

const runColumns = `id, campaign, period_start, period_end, run_date, total_distribution, agency_count, status`

func (s *Store) GetDistributionRun(ctx context.Context, id engine.RunID) (*engine.DistributionRun, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM distribution_runs WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	runs, err := collectRuns(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, engine.ErrNotFound
	}

	run := &runs[0]
	if err := s.loadRunItems(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

func (s *Store) SaveDistributionRun(ctx context.Context, run *engine.DistributionRun) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO distribution_runs (id, campaign, period_start, period_end, run_date,
			total_distribution, agency_count, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			campaign = excluded.campaign,
			period_start = excluded.period_start,
			period_end = excluded.period_end,
			run_date = excluded.run_date,
			total_distribution = excluded.total_distribution,
			agency_count = excluded.agency_count,
			status = excluded.status`,
		run.ID, run.Campaign, formatDate(run.PeriodStart), formatDate(run.PeriodEnd),
		formatDate(run.RunDate), run.TotalDistribution.Value.String(), run.AgencyCount, int(run.Status))
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM distribution_items WHERE run_id = ?`, run.ID); err != nil {
		return err
	}
	for i, item := range run.Items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO distribution_items (run_id, position, agency, total_allocated,
				total_collected, previously_distributed, distribution_amount)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			run.ID, i, item.Agency, item.TotalAllocated.Value.String(),
			item.TotalCollected.Value.String(), item.PreviouslyDistributed.Value.String(),
			item.DistributionAmount.Value.String())
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *Store) DistributionRunsByCampaign(ctx context.Context, campaign engine.CampaignID) ([]engine.DistributionRun, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM distribution_runs WHERE campaign = ? ORDER BY id`, campaign)
	if err != nil {
		return nil, err
	}
	runs, err := collectRuns(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}
	for i := range runs {
		if err := s.loadRunItems(ctx, &runs[i]); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

func collectRuns(rows *sql.Rows) ([]engine.DistributionRun, error) {
	var result []engine.DistributionRun
	for rows.Next() {
		var run engine.DistributionRun
		var start, end, total string
		var runDate sql.NullString
		var status int
		if err := rows.Scan(&run.ID, &run.Campaign, &start, &end, &runDate, &total,
			&run.AgencyCount, &status); err != nil {
			return nil, err
		}
		run.PeriodStart = parseDate(start)
		run.PeriodEnd = parseDate(end)
		if runDate.Valid && runDate.String != "" {
			run.RunDate = parseDate(runDate.String)
		}
		run.TotalDistribution = money.FromString(total)
		run.Status = engine.DocStatus(status)
		result = append(result, run)
	}
	return result, rows.Err()
}

func (s *Store) loadRunItems(ctx context.Context, run *engine.DistributionRun) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT agency, total_allocated, total_collected, previously_distributed, distribution_amount
		FROM distribution_items WHERE run_id = ? ORDER BY position`, run.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	run.Items = nil
	for rows.Next() {
		var item engine.DistributionItem
		var allocated, collected, previously, amount string
		if err := rows.Scan(&item.Agency, &allocated, &collected, &previously, &amount); err != nil {
			return err
		}
		item.TotalAllocated = money.FromString(allocated)
		item.TotalCollected = money.FromString(collected)
		item.PreviouslyDistributed = money.FromString(previously)
		item.DistributionAmount = money.FromString(amount)
		run.Items = append(run.Items, item)
	}
	return rows.Err()
}

// =============================================================================
// WRITE-OFFS
// =============================================================================

const writeoffColumns = `id, pledge, amount, writeoff_date, reason, approved_by, approved_at, status`

func (s *Store) GetWriteoff(ctx context.Context, id engine.WriteoffID) (*engine.Writeoff, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+writeoffColumns+` FROM writeoffs WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	writeoffs, err := collectWriteoffs(rows)
	if err != nil {
		return nil, err
	}
	if len(writeoffs) == 0 {
		return nil, engine.ErrNotFound
	}
	return &writeoffs[0], nil
}

func (s *Store) SaveWriteoff(ctx context.Context, w *engine.Writeoff) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO writeoffs (`+writeoffColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			pledge = excluded.pledge,
			amount = excluded.amount,
			writeoff_date = excluded.writeoff_date,
			reason = excluded.reason,
			approved_by = excluded.approved_by,
			approved_at = excluded.approved_at,
			status = excluded.status`,
		w.ID, w.Pledge, w.Amount.Value.String(), formatDate(w.Date), w.Reason,
		w.ApprovedBy, formatDatePtr(w.ApprovedAt), int(w.Status))
	return err
}

func (s *Store) WriteoffsByPledge(ctx context.Context, pledge engine.PledgeID) ([]engine.Writeoff, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+writeoffColumns+` FROM writeoffs WHERE pledge = ? ORDER BY id`, pledge)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectWriteoffs(rows)
}

func collectWriteoffs(rows *sql.Rows) ([]engine.Writeoff, error) {
	var result []engine.Writeoff
	for rows.Next() {
		var w engine.Writeoff
		var amount, date string
		var reason, approvedBy, approvedAt sql.NullString
		var status int
		if err := rows.Scan(&w.ID, &w.Pledge, &amount, &date, &reason, &approvedBy, &approvedAt, &status); err != nil {
			return nil, err
		}
		w.Amount = money.FromString(amount)
		w.Date = parseDate(date)
		w.Reason = reason.String
		w.ApprovedBy = approvedBy.String
		w.ApprovedAt = parseDatePtr(approvedAt)
		w.Status = engine.DocStatus(status)
		result = append(result, w)
	}
	return result, rows.Err()
}

// =============================================================================
// REMITTANCES
// =============================================================================

const remittanceColumns = `id, campaign, remittance_date, reference_number, declared_total,
	items_total, variance, donations_created, status`

func (s *Store) GetRemittance(ctx context.Context, id engine.RemittanceID) (*engine.Remittance, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+remittanceColumns+` FROM remittances WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	remittances, err := collectRemittances(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}
	if len(remittances) == 0 {
		return nil, engine.ErrNotFound
	}

	r := &remittances[0]
	if err := s.loadRemittanceItems(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Store) SaveRemittance(ctx context.Context, r *engine.Remittance) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO remittances (id, campaign, remittance_date, reference_number, declared_total,
			items_total, variance, donations_created, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			campaign = excluded.campaign,
			remittance_date = excluded.remittance_date,
			reference_number = excluded.reference_number,
			declared_total = excluded.declared_total,
			items_total = excluded.items_total,
			variance = excluded.variance,
			donations_created = excluded.donations_created,
			status = excluded.status`,
		r.ID, string(r.Campaign), formatDate(r.Date), r.ReferenceNumber, r.DeclaredTotal.Value.String(),
		r.ItemsTotal.Value.String(), r.Variance.Value.String(), r.DonationsCreated, int(r.Status))
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM remittance_items WHERE remittance = ?`, r.ID); err != nil {
		return err
	}
	for i, item := range r.Items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO remittance_items (remittance, position, donor, amount, pledge, campaign,
				payment_method, check_number, donation)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, i, item.Donor, item.Amount.Value.String(), string(item.Pledge), string(item.Campaign),
			item.PaymentMethod, item.CheckNumber, string(item.Donation))
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *Store) ListRemittances(ctx context.Context) ([]engine.Remittance, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+remittanceColumns+` FROM remittances ORDER BY id`)
	if err != nil {
		return nil, err
	}
	remittances, err := collectRemittances(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}
	for i := range remittances {
		if err := s.loadRemittanceItems(ctx, &remittances[i]); err != nil {
			return nil, err
		}
	}
	return remittances, nil
}

func collectRemittances(rows *sql.Rows) ([]engine.Remittance, error) {
	var result []engine.Remittance
	for rows.Next() {
		var r engine.Remittance
		var campaign, ref sql.NullString
		var date, declared, itemsTotal, variance string
		var status int
		if err := rows.Scan(&r.ID, &campaign, &date, &ref, &declared,
			&itemsTotal, &variance, &r.DonationsCreated, &status); err != nil {
			return nil, err
		}
		r.Campaign = engine.CampaignID(campaign.String)
		r.Date = parseDate(date)
		r.ReferenceNumber = ref.String
		r.DeclaredTotal = money.FromString(declared)
		r.ItemsTotal = money.FromString(itemsTotal)
		r.Variance = money.FromString(variance)
		r.Status = engine.DocStatus(status)
		result = append(result, r)
	}
	return result, rows.Err()
}

func (s *Store) loadRemittanceItems(ctx context.Context, r *engine.Remittance) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT donor, amount, pledge, campaign, payment_method, check_number, donation
		FROM remittance_items WHERE remittance = ? ORDER BY position`, r.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	r.Items = nil
	for rows.Next() {
		var item engine.RemittanceItem
		var amount string
		var pledge, campaign, method, check, donation sql.NullString
		if err := rows.Scan(&item.Donor, &amount, &pledge, &campaign, &method, &check, &donation); err != nil {
			return err
		}
		item.Amount = money.FromString(amount)
		item.Pledge = engine.PledgeID(pledge.String)
		item.Campaign = engine.CampaignID(campaign.String)
		item.PaymentMethod = method.String
		item.CheckNumber = check.String
		item.Donation = engine.DonationID(donation.String)
		r.Items = append(r.Items, item)
	}
	return rows.Err()
}
