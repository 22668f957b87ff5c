/*
matcher.go - Employee-to-donor matching

PURPOSE:

	Resolves parsed payroll rows to donor records. Matching is scoped to
	one employer's contacts so a "Smith, John" at Acme never matches the
	John Smith employed elsewhere.

STRATEGY (in order):
 1. Exact match on employee ID
 2. Name match: "Last, First" (ADP convention) or "First Last"
 3. Full-name string match as a fallback
    Rows that fail all three are flagged unmatched for manual review.

SEE ALSO:
  - parser.go: Produces the rows matched here
  - engine/store.go: DonorsByOrganization supplies the candidate set
*/
package payroll

import (
	"strings"

	"github.com/unitedfund/pledge-engine/engine"
)

// MatchStatus records how a row was resolved to a donor.
type MatchStatus string

const (
	MatchExact     MatchStatus = "exact"
	MatchName      MatchStatus = "name_match"
	MatchUnmatched MatchStatus = "unmatched"
)

// MatchedRow is a parsed row annotated with its donor resolution.
type MatchedRow struct {
	Row
	Donor  engine.DonorID `json:"donor,omitempty"`
	Status MatchStatus    `json:"matchStatus"`
}

type nameKey struct {
	last  string
	first string
}

// MatchDonors resolves each row against the given donor set. Inactive
// donors are ignored. The caller scopes the donor set to the employer.
func MatchDonors(rows []Row, donors []engine.Donor) []MatchedRow {
	byEmployeeID := make(map[string]engine.DonorID)
	byName := make(map[nameKey]engine.DonorID)
	byFullName := make(map[string]engine.DonorID)

	for _, d := range donors {
		if d.Status != "active" {
			continue
		}
		if id := strings.TrimSpace(d.EmployeeID); id != "" {
			byEmployeeID[id] = d.ID
		}
		first := strings.ToLower(strings.TrimSpace(d.FirstName))
		last := strings.ToLower(strings.TrimSpace(d.LastName))
		if first != "" && last != "" {
			byName[nameKey{last: last, first: first}] = d.ID
		}
		if full := strings.ToLower(strings.TrimSpace(d.FullName())); full != "" {
			byFullName[full] = d.ID
		}
	}

	matched := make([]MatchedRow, 0, len(rows))
	for _, row := range rows {
		result := MatchedRow{Row: row, Status: MatchUnmatched}

		if id := strings.TrimSpace(row.EmployeeID); id != "" {
			if donor, ok := byEmployeeID[id]; ok {
				result.Donor = donor
				result.Status = MatchExact
				matched = append(matched, result)
				continue
			}
		}

		if name := strings.TrimSpace(row.EmployeeName); name != "" {
			last, first := splitName(name)
			if last != "" && first != "" {
				if donor, ok := byName[nameKey{last: last, first: first}]; ok {
					result.Donor = donor
					result.Status = MatchName
				}
			}

			if result.Donor == "" {
				if donor, ok := byFullName[strings.ToLower(name)]; ok {
					result.Donor = donor
					result.Status = MatchName
				}
			}

			// "Last, First" rows may be stored as "First Last".
			if result.Donor == "" && strings.Contains(name, ",") {
				if donor, ok := byFullName[first+" "+last]; ok {
					result.Donor = donor
					result.Status = MatchName
				}
			}
		}

		matched = append(matched, result)
	}

	return matched
}

// splitName lowers and splits an employee name into (last, first),
// accepting both "Last, First" and "First Last".
func splitName(name string) (last, first string) {
	if idx := strings.Index(name, ","); idx >= 0 {
		last = strings.ToLower(strings.TrimSpace(name[:idx]))
		first = strings.ToLower(strings.TrimSpace(name[idx+1:]))
		return last, first
	}

	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return strings.ToLower(parts[0]), ""
	default:
		first = strings.ToLower(parts[0])
		last = strings.ToLower(strings.Join(parts[1:], " "))
		return last, first
	}
}
