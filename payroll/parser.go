/*
Package payroll parses employer payroll deduction files and matches the
employee rows they contain to donor records.

PURPOSE:

	Workplace campaigns collect pledges through payroll deduction. Each
	pay period the employer sends a deduction file; this package turns
	that file into structured rows, reports the rows it could not parse,
	and resolves each row to a donor so a remittance can be built from it.

SUPPORTED FORMATS:

	csv            employee_id, employee_name, amount, [deduction_code], [department]
	tab_delimited  same columns, tab-separated
	adp_fixed      fixed-width export: id cols 1-9, name 10-39 ("Last, First"),
	               amount 40-49, deduction code 50-59, department 60-69

PARSE PHILOSOPHY:

	Bad rows never abort the file. Every unparseable row becomes an entry
	in Result.Errors with its line number, and parsing continues. The
	caller decides whether a partially parsed file is usable.

ENCODING:

	Files are treated as UTF-8. Legacy payroll systems still emit Latin-1;
	when the content is not valid UTF-8 it is re-decoded as ISO 8859-1.

SEE ALSO:
  - matcher.go: Employee-to-donor matching
  - remittance.go: Building a Remittance from matched rows
*/
package payroll

import (
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/unitedfund/pledge-engine/money"
)

// Format identifies a payroll file layout.
type Format string

const (
	FormatCSV          Format = "csv"
	FormatADPFixed     Format = "adp_fixed"
	FormatTabDelimited Format = "tab_delimited"
)

// ErrEmptyFile is returned when the file content is empty or whitespace.
var ErrEmptyFile = errors.New("file content is empty")

// Row is one parsed payroll deduction line.
type Row struct {
	EmployeeID    string       `json:"employeeId"`
	EmployeeName  string       `json:"employeeName"`
	Amount        money.Amount `json:"amount"`
	DeductionCode string       `json:"deductionCode"`
	Department    string       `json:"department"`
	SourceLine    int          `json:"sourceLine"`
}

// Summary aggregates a parse result.
type Summary struct {
	TotalRows       int          `json:"totalRows"`
	TotalAmount     money.Amount `json:"totalAmount"`
	UniqueEmployees int          `json:"uniqueEmployees"`
}

// Result holds the parsed rows plus per-row errors for the lines that
// could not be parsed.
type Result struct {
	Rows    []Row    `json:"rows"`
	Errors  []string `json:"errors"`
	Summary Summary  `json:"summary"`
}

// Parse parses payroll file content in the given format.
func Parse(content []byte, format Format) (*Result, error) {
	text := decode(content)
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyFile
	}

	var rows []Row
	var parseErrors []string

	switch format {
	case FormatCSV:
		rows, parseErrors = parseDelimited(text, ',')
	case FormatTabDelimited:
		rows, parseErrors = parseDelimited(text, '\t')
	case FormatADPFixed:
		rows, parseErrors = parseFixedWidth(text)
	default:
		return nil, fmt.Errorf("unsupported file format %q (supported: csv, adp_fixed, tab_delimited)", format)
	}

	return &Result{
		Rows:    rows,
		Errors:  parseErrors,
		Summary: summarize(rows),
	}, nil
}

// decode returns the content as a string, re-decoding from Latin-1 when
// it is not valid UTF-8.
func decode(content []byte) string {
	if utf8.Valid(content) {
		return string(content)
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(content)
	if err != nil {
		return string(content)
	}
	return string(decoded)
}

func summarize(rows []Row) Summary {
	total := money.Zero()
	employees := make(map[string]struct{})
	for _, r := range rows {
		total = total.Add(r.Amount)
		if r.EmployeeID != "" {
			employees[r.EmployeeID] = struct{}{}
		}
	}
	return Summary{
		TotalRows:       len(rows),
		TotalAmount:     total,
		UniqueEmployees: len(employees),
	}
}

// headerCells are first-column values that mark a header row.
var headerCells = map[string]bool{
	"employee_id": true,
	"emp_id":      true,
	"id":          true,
	"employee id": true,
	"ssn":         true,
	"employee":    true,
}

func parseDelimited(text string, comma rune) ([]Row, []string) {
	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = comma
	reader.FieldsPerRecord = -1 // ragged rows are handled per-row below
	reader.LazyQuotes = true

	var rows []Row
	var parseErrors []string

	headerChecked := false
	for lineNum := 1; ; lineNum++ {
		record, err := reader.Read()
		if err != nil {
			break
		}

		if isBlank(record) {
			continue
		}

		// Only the first non-blank row is a header candidate.
		if !headerChecked {
			headerChecked = true
			if headerCells[strings.ToLower(strings.TrimSpace(record[0]))] {
				continue
			}
		}

		if len(record) < 3 {
			parseErrors = append(parseErrors, fmt.Sprintf("row %d: expected at least 3 columns, got %d", lineNum, len(record)))
			continue
		}

		amount, ok := parseAmount(record[2])
		if !ok {
			parseErrors = append(parseErrors, fmt.Sprintf("row %d: invalid or zero amount %q", lineNum, strings.TrimSpace(record[2])))
			continue
		}

		row := Row{
			EmployeeID:   strings.TrimSpace(record[0]),
			EmployeeName: strings.TrimSpace(record[1]),
			Amount:       amount,
			SourceLine:   lineNum,
		}
		if len(record) > 3 {
			row.DeductionCode = strings.TrimSpace(record[3])
		}
		if len(record) > 4 {
			row.Department = strings.TrimSpace(record[4])
		}
		rows = append(rows, row)
	}

	return rows, parseErrors
}

// Fixed-width column boundaries of the ADP deduction export.
const (
	adpIDEnd      = 9
	adpNameEnd    = 39
	adpAmountEnd  = 49
	adpCodeEnd    = 59
	adpDeptEnd    = 69
	adpMinLineLen = 49 // a line must at least reach the end of the amount
)

func parseFixedWidth(text string) ([]Row, []string) {
	var rows []Row
	var parseErrors []string

	for i, line := range strings.Split(text, "\n") {
		lineNum := i + 1
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		if len(line) < adpMinLineLen {
			parseErrors = append(parseErrors, fmt.Sprintf("row %d: line too short (%d chars), expected at least %d", lineNum, len(line), adpMinLineLen))
			continue
		}

		employeeID := strings.TrimSpace(line[0:adpIDEnd])
		employeeName := strings.TrimSpace(line[adpIDEnd:adpNameEnd])
		if employeeID == "" && employeeName == "" {
			parseErrors = append(parseErrors, fmt.Sprintf("row %d: missing both employee ID and name", lineNum))
			continue
		}

		rawAmount := line[adpNameEnd:adpAmountEnd]
		amount, ok := parseAmount(rawAmount)
		if !ok {
			parseErrors = append(parseErrors, fmt.Sprintf("row %d: invalid or zero amount %q", lineNum, strings.TrimSpace(rawAmount)))
			continue
		}

		row := Row{
			EmployeeID:   employeeID,
			EmployeeName: employeeName,
			Amount:       amount,
			SourceLine:   lineNum,
		}
		if len(line) > adpAmountEnd {
			row.DeductionCode = strings.TrimSpace(slice(line, adpAmountEnd, adpCodeEnd))
		}
		if len(line) > adpCodeEnd {
			row.Department = strings.TrimSpace(slice(line, adpCodeEnd, adpDeptEnd))
		}
		rows = append(rows, row)
	}

	return rows, parseErrors
}

// slice returns line[from:to] clamped to the line length.
func slice(line string, from, to int) string {
	if to > len(line) {
		to = len(line)
	}
	return line[from:to]
}

// parseAmount strips currency formatting and parses a positive amount.
// Zero, negative, and unparseable values all report false.
func parseAmount(raw string) (money.Amount, bool) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.ReplaceAll(cleaned, "$", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	if cleaned == "" {
		return money.Zero(), false
	}
	amount, err := money.TryFromString(cleaned)
	if err != nil {
		return money.Zero(), false
	}
	if !amount.IsPositive() {
		return money.Zero(), false
	}
	return amount, true
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
