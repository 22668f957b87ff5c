package payroll_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unitedfund/pledge-engine/engine"
	"github.com/unitedfund/pledge-engine/money"
	"github.com/unitedfund/pledge-engine/payroll"
)

func acmeDonors() []engine.Donor {
	return []engine.Donor{
		{ID: "donor-chen", FirstName: "Wei", LastName: "Chen", EmployeeID: "100234", Status: "active"},
		{ID: "donor-smith", FirstName: "Jordan", LastName: "Smith", Status: "active"},
		{ID: "donor-gone", FirstName: "Alex", LastName: "Rivera", EmployeeID: "100299", Status: "inactive"},
	}
}

func payrollRow(id, name string) payroll.Row {
	return payroll.Row{EmployeeID: id, EmployeeName: name, Amount: money.FromInt(100)}
}

func TestMatchDonors_ExactEmployeeID(t *testing.T) {
	rows := []payroll.Row{payrollRow("100234", "Someone Else Entirely")}

	matched := payroll.MatchDonors(rows, acmeDonors())

	require.Len(t, matched, 1)
	assert.Equal(t, engine.DonorID("donor-chen"), matched[0].Donor)
	assert.Equal(t, payroll.MatchExact, matched[0].Status)
}

func TestMatchDonors_LastFirstName(t *testing.T) {
	rows := []payroll.Row{payrollRow("", "Smith, Jordan")}

	matched := payroll.MatchDonors(rows, acmeDonors())

	require.Len(t, matched, 1)
	assert.Equal(t, engine.DonorID("donor-smith"), matched[0].Donor)
	assert.Equal(t, payroll.MatchName, matched[0].Status)
}

func TestMatchDonors_FirstLastName(t *testing.T) {
	rows := []payroll.Row{payrollRow("", "jordan SMITH")}

	matched := payroll.MatchDonors(rows, acmeDonors())

	require.Len(t, matched, 1)
	assert.Equal(t, engine.DonorID("donor-smith"), matched[0].Donor)
	assert.Equal(t, payroll.MatchName, matched[0].Status)
}

func TestMatchDonors_ReversedFullNameFallback(t *testing.T) {
	// Donor stored with the whole name in the last-name field; "Last,
	// First" input has to fall back to the reconstructed "First Last"
	// string.
	donors := []engine.Donor{
		{ID: "donor-vdb", LastName: "Maria van der Berg", Status: "active"},
	}
	rows := []payroll.Row{payrollRow("", "van der Berg, Maria")}

	matched := payroll.MatchDonors(rows, donors)

	require.Len(t, matched, 1)
	assert.Equal(t, engine.DonorID("donor-vdb"), matched[0].Donor)
	assert.Equal(t, payroll.MatchName, matched[0].Status)
}

func TestMatchDonors_InactiveDonorIgnored(t *testing.T) {
	rows := []payroll.Row{payrollRow("100299", "Rivera, Alex")}

	matched := payroll.MatchDonors(rows, acmeDonors())

	require.Len(t, matched, 1)
	assert.Empty(t, matched[0].Donor)
	assert.Equal(t, payroll.MatchUnmatched, matched[0].Status)
}

func TestMatchDonors_UnknownEmployeeFallsThroughToName(t *testing.T) {
	// A wrong employee ID does not block the name strategies.
	rows := []payroll.Row{payrollRow("999999", "Chen, Wei")}

	matched := payroll.MatchDonors(rows, acmeDonors())

	require.Len(t, matched, 1)
	assert.Equal(t, engine.DonorID("donor-chen"), matched[0].Donor)
	assert.Equal(t, payroll.MatchName, matched[0].Status)
}

func TestMatchDonors_Unmatched(t *testing.T) {
	rows := []payroll.Row{payrollRow("", "Nobody Known")}

	matched := payroll.MatchDonors(rows, acmeDonors())

	require.Len(t, matched, 1)
	assert.Equal(t, payroll.MatchUnmatched, matched[0].Status)
}
