package engine

// ValidateOrganization enforces organization invariants: member agencies
// need an agency code, and a match program needs a ratio.
func ValidateOrganization(o *Organization) error {
	if o.Name == "" {
		return &ValidationError{Field: "name", Message: "organization name is required"}
	}
	if o.Type == OrgMemberAgency && o.AgencyCode == "" {
		return &ValidationError{Field: "agency_code", Message: "agency code is required for member agencies"}
	}
	if o.CorporateMatch && o.MatchRatio.IsZero() {
		return &ValidationError{Field: "match_ratio", Message: "match ratio is required when corporate match is enabled"}
	}
	return nil
}
