/*
parser.go - Line and batch parsers for both input formats

FORMATS:
  Delimited (one record per line, exactly seven '|' separators):
    DD.MM.YYYY|PersonalNr|HH:MM|HH:MM|Project|Activity|TYPE|SurchargePercent
    Blank lines and lines starting with '#' are ignored.

  CSV (comma separated, no quoting):
    first non-empty line is a header and is always discarded
    date,personnelNo,start,end,project,activity,type,surcharge[,remark]

BATCH SEMANTICS:
  ParseLines and ParseCSV never fail. Malformed lines are dropped and the
  remaining records are returned in input order. Callers that need to know
  what was dropped use ParseLinesReport / ParseCSVReport instead, which run
  the same logic and additionally list every skipped line with its error.
*/
package disposition

import (
	"fmt"
	"strings"
	"time"
)

// CSVFieldSeparator separates fields in the CSV format.
const CSVFieldSeparator = ','

// MinCSVFields is the number of fields a CSV data line must carry.
const MinCSVFields = 8

// SkippedLine records a line dropped by a batch parser.
type SkippedLine struct {
	Line int // 1-based line number in the raw input
	Text string
	Err  error
}

// ParseReport is the outcome of a batch parse.
type ParseReport struct {
	Assignments []Assignment
	Skipped     []SkippedLine
}

type numberedLine struct {
	no   int
	text string
}

// splitLines breaks input on line terminators and drops blank lines.
func splitLines(input string) []numberedLine {
	raw := strings.Split(strings.ReplaceAll(input, "\r\n", "\n"), "\n")
	lines := make([]numberedLine, 0, len(raw))
	for i, l := range raw {
		l = strings.TrimRight(l, "\r")
		if strings.TrimSpace(l) == "" {
			continue
		}
		lines = append(lines, numberedLine{no: i + 1, text: l})
	}
	return lines
}

// =============================================================================
// DELIMITED FORMAT
// =============================================================================

// ParseLine applies the delimited grammar to exactly one line.
// On failure the error is a *ParseError.
func ParseLine(line string) (Assignment, error) {
	s := newScanner(line)
	var a Assignment
	var err error

	if a.Date, err = s.date(); err != nil {
		return Assignment{}, err
	}
	if err = s.expect(FieldSeparator); err != nil {
		return Assignment{}, err
	}
	if a.PersonnelNo, err = s.text(); err != nil {
		return Assignment{}, err
	}
	if err = s.expect(FieldSeparator); err != nil {
		return Assignment{}, err
	}
	if a.Start, err = s.clock(); err != nil {
		return Assignment{}, err
	}
	if err = s.expect(FieldSeparator); err != nil {
		return Assignment{}, err
	}
	if a.End, err = s.clock(); err != nil {
		return Assignment{}, err
	}
	if err = s.expect(FieldSeparator); err != nil {
		return Assignment{}, err
	}
	if a.Project, err = s.text(); err != nil {
		return Assignment{}, err
	}
	if err = s.expect(FieldSeparator); err != nil {
		return Assignment{}, err
	}
	if a.Activity, err = s.text(); err != nil {
		return Assignment{}, err
	}
	if err = s.expect(FieldSeparator); err != nil {
		return Assignment{}, err
	}
	typeToken, err := s.text()
	if err != nil {
		return Assignment{}, err
	}
	a.Type = ParseAssignmentType(typeToken)
	if err = s.expect(FieldSeparator); err != nil {
		return Assignment{}, err
	}
	if a.SurchargePercent, err = s.decimal(); err != nil {
		return Assignment{}, err
	}
	if err = s.end(); err != nil {
		return Assignment{}, err
	}
	return a, nil
}

func isComment(line string) bool { return strings.HasPrefix(line, "#") }

// ParseLinesReport parses delimited input and reports every dropped line.
// Comment lines are ignored, not reported.
func ParseLinesReport(input string) ParseReport {
	report := ParseReport{Assignments: []Assignment{}}
	for _, l := range splitLines(input) {
		if isComment(l.text) {
			continue
		}
		a, err := ParseLine(l.text)
		if err != nil {
			report.Skipped = append(report.Skipped, SkippedLine{Line: l.no, Text: l.text, Err: err})
			continue
		}
		report.Assignments = append(report.Assignments, a)
	}
	return report
}

// ParseLines parses delimited input, silently dropping malformed lines.
func ParseLines(input string) []Assignment {
	return ParseLinesReport(input).Assignments
}

// =============================================================================
// CSV FORMAT
// =============================================================================

type csvField struct {
	name  string
	value string
	col   int
}

// ParseCSVLine parses one CSV data line (never the header).
func ParseCSVLine(line string) (Assignment, error) {
	parts := strings.Split(line, string(CSVFieldSeparator))
	if len(parts) < MinCSVFields {
		return Assignment{}, &ParseError{
			Input:    line,
			Column:   len(line) + 1,
			Expected: fmt.Sprintf("%d fields", MinCSVFields),
			Message:  fmt.Sprintf("found %d", len(parts)),
		}
	}

	names := []string{"date", "personnel number", "start", "end", "project", "activity", "type", "surcharge"}
	fields := make([]csvField, len(parts))
	col := 1
	for i, p := range parts {
		name := "remark"
		if i < len(names) {
			name = names[i]
		}
		fields[i] = csvField{name: name, value: p, col: col}
		col += len(p) + 1
	}

	var a Assignment
	var err error
	if a.Date, err = parseCSVDate(fields[0].value); err != nil {
		return Assignment{}, fieldError(line, fields[0], err)
	}
	a.PersonnelNo = strings.TrimSpace(fields[1].value)
	if a.Start, err = ParseClockTime(fields[2].value); err != nil {
		return Assignment{}, fieldError(line, fields[2], err)
	}
	if a.End, err = ParseClockTime(fields[3].value); err != nil {
		return Assignment{}, fieldError(line, fields[3], err)
	}
	a.Project = strings.TrimSpace(fields[4].value)
	a.Activity = strings.TrimSpace(fields[5].value)
	a.Type = ParseAssignmentType(fields[6].value)
	if a.SurchargePercent, err = ParseDecimal(fields[7].value); err != nil {
		return Assignment{}, fieldError(line, fields[7], err)
	}
	if len(fields) > MinCSVFields {
		a.Remark = strings.TrimSpace(fields[MinCSVFields].value)
	}
	return a, nil
}

// parseCSVDate accepts the day-first format and ISO dates.
func parseCSVDate(value string) (time.Time, error) {
	d, err := ParseDate(value)
	if err == nil {
		return d, nil
	}
	if iso, isoErr := time.Parse("2006-01-02", strings.TrimSpace(value)); isoErr == nil {
		return iso, nil
	}
	return time.Time{}, err
}

func fieldError(line string, f csvField, err error) *ParseError {
	return &ParseError{
		Input:    line,
		Column:   f.col,
		Expected: f.name,
		Message:  fmt.Sprintf("invalid value %q", strings.TrimSpace(f.value)),
		Err:      err,
	}
}

// ParseCSVReport parses CSV input and reports every dropped data line.
func ParseCSVReport(input string) ParseReport {
	report := ParseReport{Assignments: []Assignment{}}
	lines := splitLines(input)
	if len(lines) == 0 {
		return report
	}
	for _, l := range lines[1:] {
		a, err := ParseCSVLine(l.text)
		if err != nil {
			report.Skipped = append(report.Skipped, SkippedLine{Line: l.no, Text: l.text, Err: err})
			continue
		}
		report.Assignments = append(report.Assignments, a)
	}
	return report
}

// ParseCSV parses CSV input, skipping the header and any malformed line.
func ParseCSV(input string) []Assignment {
	return ParseCSVReport(input).Assignments
}

// =============================================================================
// FORMAT DISPATCH
// =============================================================================

type Format string

const (
	FormatDelimited Format = "delimited"
	FormatCSV       Format = "csv"
)

// ParseFormat resolves a format name. Empty means delimited.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(name))) {
	case "", FormatDelimited, "pipe":
		return FormatDelimited, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unknown input format %q", name)
	}
}

// Parse runs the batch parser for the given format.
func Parse(format Format, input string) ParseReport {
	if format == FormatCSV {
		return ParseCSVReport(input)
	}
	return ParseLinesReport(input)
}
