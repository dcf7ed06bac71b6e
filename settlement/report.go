package settlement

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/disposition-engine/disposition"
)

// =============================================================================
// REPORT - Aggregated view over a settlement collection
// =============================================================================

type EmployeeSummary struct {
	Employee    disposition.Employee // first occurrence in the input
	Count       int
	Hours       decimal.Decimal
	Amount      decimal.Decimal
	Settlements []Settlement
}

type ProjectSummary struct {
	Project string
	Count   int
	Hours   decimal.Decimal
	Amount  decimal.Decimal
}

// Report is recomputed from scratch by BuildReport; it has no update path.
// Map iteration order is unspecified, use the sorted accessors for display.
type Report struct {
	CreatedAt      time.Time
	Count          int
	TotalHours     decimal.Decimal
	TotalSurcharge decimal.Decimal
	TotalAmount    decimal.Decimal
	ByEmployee     map[string]*EmployeeSummary // keyed by personnel number
	ByProject      map[string]*ProjectSummary  // keyed by exact project name
}

// BuildReport folds settlements into grand totals and both grouped views.
func BuildReport(settlements []Settlement, at time.Time) Report {
	r := Report{
		CreatedAt:      at,
		TotalHours:     decimal.Zero,
		TotalSurcharge: decimal.Zero,
		TotalAmount:    decimal.Zero,
		ByEmployee:     make(map[string]*EmployeeSummary),
		ByProject:      make(map[string]*ProjectSummary),
	}

	for _, s := range settlements {
		r.Count++
		r.TotalHours = r.TotalHours.Add(s.Hours)
		r.TotalSurcharge = r.TotalSurcharge.Add(s.SurchargeAmount)
		r.TotalAmount = r.TotalAmount.Add(s.TotalAmount)

		key := s.Employee.PersonnelNo
		es, ok := r.ByEmployee[key]
		if !ok {
			es = &EmployeeSummary{Employee: s.Employee, Hours: decimal.Zero, Amount: decimal.Zero}
			r.ByEmployee[key] = es
		}
		es.Count++
		es.Hours = es.Hours.Add(s.Hours)
		es.Amount = es.Amount.Add(s.TotalAmount)
		es.Settlements = append(es.Settlements, s)

		project := s.Assignment.Project
		ps, ok := r.ByProject[project]
		if !ok {
			ps = &ProjectSummary{Project: project, Hours: decimal.Zero, Amount: decimal.Zero}
			r.ByProject[project] = ps
		}
		ps.Count++
		ps.Hours = ps.Hours.Add(s.Hours)
		ps.Amount = ps.Amount.Add(s.TotalAmount)
	}
	return r
}

// EmployeeSummaries returns the employee buckets sorted by personnel number.
func (r Report) EmployeeSummaries() []*EmployeeSummary {
	out := make([]*EmployeeSummary, 0, len(r.ByEmployee))
	for _, es := range r.ByEmployee {
		out = append(out, es)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Employee.PersonnelNo < out[j].Employee.PersonnelNo })
	return out
}

// ProjectSummaries returns the project buckets sorted by name.
func (r Report) ProjectSummaries() []*ProjectSummary {
	out := make([]*ProjectSummary, 0, len(r.ByProject))
	for _, ps := range r.ByProject {
		out = append(out, ps)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Project < out[j].Project })
	return out
}
