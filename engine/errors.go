/*
errors.go - Centralized error types for the pledge engine

PURPOSE:

	All error types in one place for consistency and discoverability.

ERROR TAXONOMY:
 1. Validation errors  - user-fixable input problems; block the save/submit
 2. Consistency errors - cross-entity mismatches; block the save/submit
 3. Soft warnings      - surfaced to the caller, never block (overpayment,
    batch variance)
 4. Best-effort failures - donor stats, journal entries, per-item cancels;
    caught and logged by the reaction dispatcher so the
    primary operation completes (see service.go)

USAGE:

	Callers distinguish categories with errors.Is:

	  if errors.Is(err, engine.ErrValidation) { ... 400 ... }
	  if errors.Is(err, engine.ErrConsistency) { ... 409 ... }

SEE ALSO:
  - service.go: Result carries soft warnings and side-effect failures
*/
package engine

import (
	"errors"
	"fmt"

	"github.com/unitedfund/pledge-engine/money"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is the category sentinel for user-fixable input problems.
	ErrValidation = errors.New("validation failed")

	// ErrConsistency is the category sentinel for cross-entity mismatches.
	ErrConsistency = errors.New("consistency check failed")

	// ErrNotFound is returned when a referenced document doesn't exist.
	ErrNotFound = errors.New("document not found")

	// ErrNotSubmitted is returned when an operation requires a submitted
	// document (e.g. writing off a draft pledge).
	ErrNotSubmitted = errors.New("document not submitted")

	// ErrAlreadySubmitted is returned when submitting a non-draft document.
	ErrAlreadySubmitted = errors.New("document already submitted")

	// ErrAlreadyCancelled is returned when cancelling a cancelled document.
	ErrAlreadyCancelled = errors.New("document already cancelled")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError is a user-fixable input problem on a named field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// AllocationError reports a pledge whose allocation lines fail the
// sum-to-100 or agency-uniqueness invariant.
type AllocationError struct {
	Total      money.Percent // sum of percentages, when the sum is wrong
	Duplicates []OrgID       // repeated agencies, when uniqueness is violated
	Empty      bool          // no allocation lines at all
}

func (e *AllocationError) Error() string {
	switch {
	case e.Empty:
		return "at least one allocation is required"
	case len(e.Duplicates) > 0:
		return fmt.Sprintf("duplicate agency allocations: %v", e.Duplicates)
	default:
		return fmt.Sprintf("allocation percentages must total 100%%, got %s", e.Total)
	}
}

func (e *AllocationError) Unwrap() error { return ErrValidation }

// ConsistencyError reports a cross-entity mismatch between a donation
// and the pledge it is linked to.
type ConsistencyError struct {
	Field    string // "campaign" or "donor"
	Donation DonationID
	Pledge   PledgeID
	Got      string
	Want     string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("%s mismatch: donation has %q but pledge %s has %q",
		e.Field, e.Got, e.Pledge, e.Want)
}

func (e *ConsistencyError) Unwrap() error { return ErrConsistency }

// WriteoffBoundsError reports a write-off amount outside (0, outstanding].
type WriteoffBoundsError struct {
	Amount      money.Amount
	Outstanding money.Amount
}

func (e *WriteoffBoundsError) Error() string {
	if !e.Amount.IsPositive() {
		return "write-off amount must be greater than zero"
	}
	return fmt.Sprintf("write-off amount %s exceeds outstanding balance %s",
		e.Amount, e.Outstanding)
}

func (e *WriteoffBoundsError) Unwrap() error { return ErrValidation }

// =============================================================================
// SOFT WARNINGS - Surfaced but never blocking
// =============================================================================

// Warning is a non-blocking condition surfaced alongside a successful
// operation.
type Warning struct {
	Code    string
	Message string
}

func (w Warning) String() string { return w.Code + ": " + w.Message }

// OverpaymentWarning is produced when total donations against a pledge
// would exceed the pledge amount. Overpayment is allowed.
func OverpaymentWarning(pledge PledgeID, total, pledgeAmount money.Amount) Warning {
	return Warning{
		Code: "overpayment",
		Message: fmt.Sprintf("total donations %s against pledge %s exceed pledge amount %s",
			total, pledge, pledgeAmount),
	}
}

// VarianceWarning is produced when a remittance's declared total differs
// from the sum of its items.
func VarianceWarning(declared, itemsTotal money.Amount) Warning {
	return Warning{
		Code: "variance",
		Message: fmt.Sprintf("declared total %s differs from items total %s by %s",
			declared, itemsTotal, declared.Sub(itemsTotal)),
	}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input
// and the operation should be reported as a 4xx, not retried.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrConsistency) ||
		errors.Is(err, ErrNotSubmitted) ||
		errors.Is(err, ErrAlreadySubmitted) ||
		errors.Is(err, ErrAlreadyCancelled)
}
