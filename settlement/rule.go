/*
Package settlement turns parsed dispositions into money.

PURPOSE:
  The Engine looks up the employee for each assignment, sums the declared
  surcharge with every applicable Rule, and hands the effective percentage to
  Compute, which adds the assignment-type surcharge and produces an immutable
  Settlement. BuildReport folds settlements into per-employee and per-project
  summaries.

KEY CONCEPTS:
  - Rule: Named predicate over (assignment, employee) with a flat bonus
  - Directory: Personnel number -> Employee lookup, owned by the caller
  - Engine: Ordered rules + directory, evaluates assignments
  - Settlement: One computed outcome, never mutated after creation
  - Report: Grand totals plus grouped views

SURCHARGE SOURCES:
  Two independent sources add up, neither can subtract:
    1. Rules (dynamic predicates, registered in order)
    2. Assignment type (fixed table, see TypeSurcharge)
  The declared percentage on the record is the starting point.

SEE ALSO:
  - disposition/parser.go: Produces the assignments evaluated here
  - factory/rule.go: Builds rules from JSON definitions
*/
package settlement

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/disposition-engine/disposition"
)

// =============================================================================
// RULE
// =============================================================================

// Predicate decides whether a rule applies to an assignment.
type Predicate func(a disposition.Assignment, e disposition.Employee) bool

// Rule adds Bonus percentage points whenever Applies holds.
// Rules are evaluated independently; one rule never suppresses another.
type Rule struct {
	Name        string
	Description string
	Applies     Predicate
	Bonus       decimal.Decimal
}

// Matches is nil-safe: a rule without a predicate never applies.
func (r Rule) Matches(a disposition.Assignment, e disposition.Employee) bool {
	return r.Applies != nil && r.Applies(a, e)
}

// =============================================================================
// BUILT-IN RULES
// =============================================================================

const (
	NightShiftRuleName    = "Nachtarbeit-Automatik"
	QualificationRuleName = "Qualifikationszuschlag"
)

var (
	NightStart = disposition.MustClockTime(22, 0)
	NightEnd   = disposition.MustClockTime(6, 0)
)

// NightShiftRule marks shifts starting at or after 22:00 or ending at or
// before 06:00. It adds nothing: night pay comes from TypeNightWork.
func NightShiftRule() Rule {
	return Rule{
		Name:        NightShiftRuleName,
		Description: "Automatic night marker for work between 22:00 and 06:00",
		Applies: func(a disposition.Assignment, _ disposition.Employee) bool {
			return a.Start.AfterOrEqual(NightStart) || a.End.BeforeOrEqual(NightEnd)
		},
		Bonus: decimal.Zero,
	}
}

// SeniorQualifications are matched case-sensitively against Employee.Qualification.
var SeniorQualifications = []string{"Senior", "Experte"}

// QualificationRule adds 10 points for senior and expert staff.
func QualificationRule() Rule {
	return Rule{
		Name:        QualificationRuleName,
		Description: "Additional surcharge for highly qualified employees",
		Applies: func(_ disposition.Assignment, e disposition.Employee) bool {
			for _, q := range SeniorQualifications {
				if strings.Contains(e.Qualification, q) {
					return true
				}
			}
			return false
		},
		Bonus: decimal.NewFromInt(10),
	}
}

// BuiltinRules returns the rules every engine starts with, in order.
func BuiltinRules() []Rule {
	return []Rule{NightShiftRule(), QualificationRule()}
}
