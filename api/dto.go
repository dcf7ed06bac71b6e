package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/disposition-engine/disposition"
	"github.com/warp/disposition-engine/factory"
	"github.com/warp/disposition-engine/settlement"
)

// Amounts are rendered as fixed two-place strings, hours and percentages as
// plain decimal strings. Nothing goes through float64.

// =============================================================================
// PARSE
// =============================================================================

// AssignmentDTO represents a parsed disposition record.
type AssignmentDTO struct {
	PersonnelNo      string `json:"personnel_no"`
	Date             string `json:"date"`
	Start            string `json:"start"`
	End              string `json:"end"`
	Project          string `json:"project"`
	Activity         string `json:"activity"`
	Type             string `json:"type"`
	SurchargePercent string `json:"surcharge_percent"`
	Remark           string `json:"remark,omitempty"`
	Hours            string `json:"hours"`
	CrossesMidnight  bool   `json:"crosses_midnight,omitempty"`
	Line             string `json:"line"`
}

// SkippedLineDTO reports an input line that did not parse.
type SkippedLineDTO struct {
	Line   int    `json:"line"`
	Text   string `json:"text"`
	Reason string `json:"reason"`
}

// ParseResponse is returned by POST /api/parse.
type ParseResponse struct {
	Format      string           `json:"format"`
	Assignments []AssignmentDTO  `json:"assignments"`
	Skipped     []SkippedLineDTO `json:"skipped"`
}

// =============================================================================
// SETTLEMENTS
// =============================================================================

// SettlementDTO represents one priced assignment.
type SettlementDTO struct {
	Assignment       AssignmentDTO `json:"assignment"`
	EmployeeName     string        `json:"employee_name"`
	HourlyRate       string        `json:"hourly_rate"`
	Hours            string        `json:"hours"`
	RulePercent      string        `json:"rule_percent"`
	TypeSurcharge    string        `json:"type_surcharge"`
	SurchargePercent string        `json:"surcharge_percent"`
	AppliedRules     []string      `json:"applied_rules"`
	BaseAmount       string        `json:"base_amount"`
	SurchargeAmount  string        `json:"surcharge_amount"`
	TotalAmount      string        `json:"total_amount"`
	Currency         string        `json:"currency"`
	Basis            string        `json:"basis"`
	ComputedAt       string        `json:"computed_at"`
}

// RejectionDTO reports an assignment the engine did not price.
type RejectionDTO struct {
	Index      int           `json:"index"`
	Assignment AssignmentDTO `json:"assignment"`
	Reason     string        `json:"reason"`
}

// SettlementsResponse is returned by POST /api/settlements.
type SettlementsResponse struct {
	Settlements []SettlementDTO  `json:"settlements"`
	Rejected    []RejectionDTO   `json:"rejected"`
	Skipped     []SkippedLineDTO `json:"skipped"`
	TotalAmount string           `json:"total_amount"`
}

// =============================================================================
// REPORT
// =============================================================================

type EmployeeSummaryDTO struct {
	PersonnelNo string `json:"personnel_no"`
	Name        string `json:"name"`
	Department  string `json:"department,omitempty"`
	Count       int    `json:"count"`
	Hours       string `json:"hours"`
	Amount      string `json:"amount"`
}

type ProjectSummaryDTO struct {
	Project string `json:"project"`
	Count   int    `json:"count"`
	Hours   string `json:"hours"`
	Amount  string `json:"amount"`
}

// ReportDTO is returned by POST /api/report.
type ReportDTO struct {
	CreatedAt      string               `json:"created_at"`
	Count          int                  `json:"count"`
	TotalHours     string               `json:"total_hours"`
	TotalSurcharge string               `json:"total_surcharge"`
	TotalAmount    string               `json:"total_amount"`
	Currency       string               `json:"currency"`
	ByEmployee     []EmployeeSummaryDTO `json:"by_employee"`
	ByProject      []ProjectSummaryDTO  `json:"by_project"`
	Rejected       []RejectionDTO       `json:"rejected"`
	Skipped        []SkippedLineDTO     `json:"skipped"`
}

// =============================================================================
// DIRECTORY AND RULES
// =============================================================================

// EmployeeDTO represents a directory entry.
type EmployeeDTO struct {
	ID            int    `json:"id"`
	PersonnelNo   string `json:"personnel_no"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Department    string `json:"department"`
	HourlyRate    string `json:"hourly_rate"`
	Qualification string `json:"qualification"`
}

// CreateEmployeeRequest registers or replaces a directory entry.
type CreateEmployeeRequest struct {
	PersonnelNo   string          `json:"personnel_no"`
	FirstName     string          `json:"first_name"`
	LastName      string          `json:"last_name"`
	Department    string          `json:"department"`
	HourlyRate    decimal.Decimal `json:"hourly_rate"`
	Qualification string          `json:"qualification"`
}

// RuleDTO represents a registered surcharge rule.
type RuleDTO struct {
	Position    int    `json:"position"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Bonus       string `json:"bonus"`
}

// CreateRuleRequest is a rule definition in the factory schema.
type CreateRuleRequest = factory.RuleJSON

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// RESPONSE BUILDERS
// =============================================================================

// NewParseResponse renders a parse report. The CLI prints the same shapes.
func NewParseResponse(format disposition.Format, report disposition.ParseReport) ParseResponse {
	resp := ParseResponse{
		Format:      string(format),
		Assignments: make([]AssignmentDTO, len(report.Assignments)),
		Skipped:     toSkippedDTOs(report.Skipped),
	}
	for i, a := range report.Assignments {
		resp.Assignments[i] = toAssignmentDTO(a)
	}
	return resp
}

func NewSettlementsResponse(report disposition.ParseReport, batch settlement.BatchResult) SettlementsResponse {
	resp := SettlementsResponse{
		Settlements: make([]SettlementDTO, len(batch.Settlements)),
		Rejected:    toRejectionDTOs(batch.Rejected),
		Skipped:     toSkippedDTOs(report.Skipped),
	}
	total := decimal.Zero
	for i, s := range batch.Settlements {
		resp.Settlements[i] = toSettlementDTO(s)
		total = total.Add(s.TotalAmount)
	}
	resp.TotalAmount = money(total)
	return resp
}

func NewReportResponse(report disposition.ParseReport, batch settlement.BatchResult, at time.Time) ReportDTO {
	dto := toReportDTO(settlement.BuildReport(batch.Settlements, at))
	dto.Rejected = toRejectionDTOs(batch.Rejected)
	dto.Skipped = toSkippedDTOs(report.Skipped)
	return dto
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func money(d decimal.Decimal) string { return d.StringFixed(settlement.CurrencyPlaces) }

func toAssignmentDTO(a disposition.Assignment) AssignmentDTO {
	return AssignmentDTO{
		PersonnelNo:      a.PersonnelNo,
		Date:             a.Date.Format(disposition.DateLayout),
		Start:            a.Start.String(),
		End:              a.End.String(),
		Project:          a.Project,
		Activity:         a.Activity,
		Type:             string(a.Type),
		SurchargePercent: a.SurchargePercent.String(),
		Remark:           a.Remark,
		Hours:            a.WorkedHours().String(),
		CrossesMidnight:  a.CrossesMidnight(),
		Line:             a.DelimitedLine(),
	}
}

func toSkippedDTOs(skipped []disposition.SkippedLine) []SkippedLineDTO {
	out := make([]SkippedLineDTO, len(skipped))
	for i, s := range skipped {
		out[i] = SkippedLineDTO{Line: s.Line, Text: s.Text, Reason: s.Err.Error()}
	}
	return out
}

func toSettlementDTO(s settlement.Settlement) SettlementDTO {
	applied := s.AppliedRules
	if applied == nil {
		applied = []string{}
	}
	return SettlementDTO{
		Assignment:       toAssignmentDTO(s.Assignment),
		EmployeeName:     s.Employee.FullName(),
		HourlyRate:       money(s.HourlyRate),
		Hours:            s.Hours.String(),
		RulePercent:      s.RulePercent.String(),
		TypeSurcharge:    s.TypeSurcharge.String(),
		SurchargePercent: s.SurchargePercent.String(),
		AppliedRules:     applied,
		BaseAmount:       money(s.BaseAmount),
		SurchargeAmount:  money(s.SurchargeAmount),
		TotalAmount:      money(s.TotalAmount),
		Currency:         settlement.Currency,
		Basis:            s.Basis,
		ComputedAt:       s.ComputedAt.Format(time.RFC3339),
	}
}

func toRejectionDTOs(rs []settlement.Rejection) []RejectionDTO {
	out := make([]RejectionDTO, len(rs))
	for i, r := range rs {
		out[i] = RejectionDTO{Index: r.Index, Assignment: toAssignmentDTO(r.Assignment), Reason: r.Err.Error()}
	}
	return out
}

func toReportDTO(r settlement.Report) ReportDTO {
	dto := ReportDTO{
		CreatedAt:      r.CreatedAt.Format(time.RFC3339),
		Count:          r.Count,
		TotalHours:     r.TotalHours.String(),
		TotalSurcharge: money(r.TotalSurcharge),
		TotalAmount:    money(r.TotalAmount),
		Currency:       settlement.Currency,
		ByEmployee:     []EmployeeSummaryDTO{},
		ByProject:      []ProjectSummaryDTO{},
	}
	for _, es := range r.EmployeeSummaries() {
		dto.ByEmployee = append(dto.ByEmployee, EmployeeSummaryDTO{
			PersonnelNo: es.Employee.PersonnelNo,
			Name:        es.Employee.FullName(),
			Department:  es.Employee.Department,
			Count:       es.Count,
			Hours:       es.Hours.String(),
			Amount:      money(es.Amount),
		})
	}
	for _, ps := range r.ProjectSummaries() {
		dto.ByProject = append(dto.ByProject, ProjectSummaryDTO{
			Project: ps.Project,
			Count:   ps.Count,
			Hours:   ps.Hours.String(),
			Amount:  money(ps.Amount),
		})
	}
	return dto
}

func toEmployeeDTO(e disposition.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:            e.ID,
		PersonnelNo:   e.PersonnelNo,
		FirstName:     e.FirstName,
		LastName:      e.LastName,
		Department:    e.Department,
		HourlyRate:    money(e.HourlyRate),
		Qualification: e.Qualification,
	}
}

func toRuleDTO(pos int, r settlement.Rule) RuleDTO {
	return RuleDTO{
		Position:    pos,
		Name:        r.Name,
		Description: r.Description,
		Bonus:       r.Bonus.String(),
	}
}
