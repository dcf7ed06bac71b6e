package settlement

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/disposition-engine/disposition"
)

// =============================================================================
// TYPE SURCHARGE - Fixed premium per assignment type
// =============================================================================

var typeSurcharges = map[disposition.AssignmentType]decimal.Decimal{
	disposition.TypeOvertime:    decimal.NewFromInt(25),
	disposition.TypeNightWork:   decimal.NewFromInt(50),
	disposition.TypeWeekend:     decimal.NewFromInt(50),
	disposition.TypeHoliday:     decimal.NewFromInt(100),
	disposition.TypeStandbyDuty: decimal.NewFromInt(15),
}

// TypeSurcharge returns the automatic percentage for an assignment type.
// Normal, Training and unknown types carry none.
func TypeSurcharge(t disposition.AssignmentType) decimal.Decimal {
	if p, ok := typeSurcharges[t]; ok {
		return p
	}
	return decimal.Zero
}

// =============================================================================
// SETTLEMENT
// =============================================================================

// Currency is printed in the calculation basis.
const Currency = "EUR"

// CurrencyPlaces is the precision money amounts are rounded to.
const CurrencyPlaces = 2

var (
	hundred = decimal.NewFromInt(100)
	sixty   = decimal.NewFromInt(60)
)

// Settlement is the computed outcome of one assignment.
type Settlement struct {
	Assignment disposition.Assignment
	Employee   disposition.Employee

	HourlyRate decimal.Decimal
	Hours      decimal.Decimal

	RulePercent      decimal.Decimal // declared + rule bonuses
	TypeSurcharge    decimal.Decimal
	SurchargePercent decimal.Decimal // RulePercent + TypeSurcharge
	AppliedRules     []string

	BaseAmount      decimal.Decimal
	SurchargeAmount decimal.Decimal
	TotalAmount     decimal.Decimal

	ComputedAt time.Time
	Basis      string
}

// Compute prices an assignment for an employee.
//
// rulePercent is the declared surcharge plus all rule bonuses, as returned by
// Engine.EffectiveSurcharge. The type surcharge is added here. Base and
// surcharge amounts are rounded to cents before they are summed, so totals of
// many settlements add up exactly.
func Compute(a disposition.Assignment, e disposition.Employee, rulePercent decimal.Decimal, at time.Time) Settlement {
	rate := e.HourlyRate
	hours := a.WorkedHours()
	typePercent := TypeSurcharge(a.Type)
	percent := rulePercent.Add(typePercent)

	// rate * minutes is exact; dividing once keeps rounding to the final step.
	base := rate.Mul(decimal.NewFromInt(int64(a.WorkedMinutes()))).Div(sixty).Round(CurrencyPlaces)
	surcharge := base.Mul(percent).Div(hundred).Round(CurrencyPlaces)
	total := base.Add(surcharge)

	return Settlement{
		Assignment:       a,
		Employee:         e,
		HourlyRate:       rate,
		Hours:            hours,
		RulePercent:      rulePercent,
		TypeSurcharge:    typePercent,
		SurchargePercent: percent,
		BaseAmount:       base,
		SurchargeAmount:  surcharge,
		TotalAmount:      total,
		ComputedAt:       at,
		Basis:            FormatBasis(base, percent, surcharge),
	}
}

// FormatBasis renders the human-readable calculation basis.
func FormatBasis(base, percent, surcharge decimal.Decimal) string {
	return fmt.Sprintf("Basis: %s %s + Zuschlag %s%%: %s %s",
		base.StringFixed(CurrencyPlaces), Currency, percent.String(), surcharge.StringFixed(CurrencyPlaces), Currency)
}

func (s Settlement) String() string {
	return fmt.Sprintf("%s | %sh @ %s %s | Zuschlag: %s%% | Gesamt: %s %s",
		s.Employee.FullName(), s.Hours.StringFixed(2), s.HourlyRate.StringFixed(CurrencyPlaces), Currency,
		s.SurchargePercent.String(), s.TotalAmount.StringFixed(CurrencyPlaces), Currency)
}
