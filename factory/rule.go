/*
Package factory provides JSON to Go surcharge rule conversion.

PURPOSE:
  Converts declarative rule definitions into settlement.Rule values so that
  surcharge rules can be configured without code changes. Definitions come
  from the config file, the HTTP API or a rules file on disk. Rules are still
  registered programmatically on the engine; the factory only builds them.

JSON SCHEMA:
  {
    "name": "Projekt-Premium-Zuschlag",
    "description": "10% surcharge for premium projects",
    "bonus": 10,
    "when": {"kind": "project_contains", "value": "Premium"}
  }

CONDITION KINDS:
  project_contains        value: substring of the project name
  activity_contains       value: substring of the activity
  qualification_contains  value: substring of the employee qualification
  department_equals       value: exact department
  personnel_no_in         values: personnel numbers
  type_is                 values: type keywords (NACHT, UE) or names (overtime)
  starts_at_or_after      value: HH:MM
  ends_at_or_before       value: HH:MM
  weekday_in              values: Monday..Sunday (or Mon..Sun)
  min_hours               value: decimal hours, inclusive
  all / any               conditions: nested list
  not                     conditions: exactly one nested condition

Substring and equality matches are case-sensitive, like the built-in
qualification rule. Bonuses must not be negative.

USAGE:
  f := factory.NewRuleFactory()
  rules, err := f.ParseRules([]byte(`[{"name": "...", ...}]`))
  for _, r := range rules {
      if err := engine.AddRule(r); err != nil {
          return err
      }
  }

SEE ALSO:
  - settlement/rule.go: Rule type and built-in rules
  - config/config.go: [[rules]] section uses the same schema
*/
package factory

import (
	"errors"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/warp/disposition-engine/disposition"
	"github.com/warp/disposition-engine/settlement"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// RuleJSON is the declarative form of a surcharge rule.
type RuleJSON struct {
	Name        string          `json:"name" toml:"name"`
	Description string          `json:"description,omitempty" toml:"description"`
	Bonus       decimal.Decimal `json:"bonus" toml:"bonus"`
	When        ConditionJSON   `json:"when" toml:"when"`
}

// ConditionJSON is one node of a rule's condition tree.
type ConditionJSON struct {
	Kind       string          `json:"kind" toml:"kind"`
	Value      string          `json:"value,omitempty" toml:"value"`
	Values     []string        `json:"values,omitempty" toml:"values"`
	Conditions []ConditionJSON `json:"conditions,omitempty" toml:"conditions"`
}

const (
	KindProjectContains       = "project_contains"
	KindActivityContains      = "activity_contains"
	KindQualificationContains = "qualification_contains"
	KindDepartmentEquals      = "department_equals"
	KindPersonnelNoIn         = "personnel_no_in"
	KindTypeIs                = "type_is"
	KindStartsAtOrAfter       = "starts_at_or_after"
	KindEndsAtOrBefore        = "ends_at_or_before"
	KindWeekdayIn             = "weekday_in"
	KindMinHours              = "min_hours"
	KindAll                   = "all"
	KindAny                   = "any"
	KindNot                   = "not"
)

var ErrInvalidRule = errors.New("invalid rule definition")

// =============================================================================
// RULE FACTORY
// =============================================================================

// RuleFactory converts rule definitions to settlement rules.
type RuleFactory struct{}

func NewRuleFactory() *RuleFactory {
	return &RuleFactory{}
}

// ParseRule parses a single JSON rule definition.
func (f *RuleFactory) ParseRule(data []byte) (settlement.Rule, error) {
	var rj RuleJSON
	if err := json.Unmarshal(data, &rj); err != nil {
		return settlement.Rule{}, fmt.Errorf("failed to parse rule JSON: %w", err)
	}
	return f.FromJSON(rj)
}

// ParseRules parses a JSON array of rule definitions. The first invalid
// definition aborts the whole list.
func (f *RuleFactory) ParseRules(data []byte) ([]settlement.Rule, error) {
	var defs []RuleJSON
	if err := json.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("failed to parse rules JSON: %w", err)
	}
	return f.FromJSONList(defs)
}

func (f *RuleFactory) FromJSONList(defs []RuleJSON) ([]settlement.Rule, error) {
	rules := make([]settlement.Rule, 0, len(defs))
	for i, rj := range defs {
		r, err := f.FromJSON(rj)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i+1, err)
		}
		rules = append(rules, r)
	}
	return rules, nil
}

// FromJSON converts a RuleJSON into a settlement.Rule.
func (f *RuleFactory) FromJSON(rj RuleJSON) (settlement.Rule, error) {
	name := strings.TrimSpace(rj.Name)
	if name == "" {
		return settlement.Rule{}, fmt.Errorf("%w: name is required", ErrInvalidRule)
	}
	if rj.Bonus.IsNegative() {
		return settlement.Rule{}, fmt.Errorf("%w: %s: bonus %s is negative", ErrInvalidRule, name, rj.Bonus)
	}
	pred, err := buildPredicate(rj.When)
	if err != nil {
		return settlement.Rule{}, fmt.Errorf("%w: %s: %v", ErrInvalidRule, name, err)
	}
	return settlement.Rule{
		Name:        name,
		Description: rj.Description,
		Applies:     pred,
		Bonus:       rj.Bonus,
	}, nil
}

// =============================================================================
// CONDITIONS
// =============================================================================

func buildPredicate(c ConditionJSON) (settlement.Predicate, error) {
	switch c.Kind {
	case KindProjectContains:
		v, err := requireValue(c)
		if err != nil {
			return nil, err
		}
		return func(a disposition.Assignment, _ disposition.Employee) bool {
			return strings.Contains(a.Project, v)
		}, nil

	case KindActivityContains:
		v, err := requireValue(c)
		if err != nil {
			return nil, err
		}
		return func(a disposition.Assignment, _ disposition.Employee) bool {
			return strings.Contains(a.Activity, v)
		}, nil

	case KindQualificationContains:
		v, err := requireValue(c)
		if err != nil {
			return nil, err
		}
		return func(_ disposition.Assignment, e disposition.Employee) bool {
			return strings.Contains(e.Qualification, v)
		}, nil

	case KindDepartmentEquals:
		v, err := requireValue(c)
		if err != nil {
			return nil, err
		}
		return func(_ disposition.Assignment, e disposition.Employee) bool {
			return e.Department == v
		}, nil

	case KindPersonnelNoIn:
		set, err := requireValues(c)
		if err != nil {
			return nil, err
		}
		return func(a disposition.Assignment, _ disposition.Employee) bool {
			return set[a.PersonnelNo]
		}, nil

	case KindTypeIs:
		names, err := requireValues(c)
		if err != nil {
			return nil, err
		}
		types := make(map[disposition.AssignmentType]bool, len(names))
		for n := range names {
			t, ok := disposition.LookupAssignmentType(n)
			if !ok {
				return nil, fmt.Errorf("unknown assignment type %q", n)
			}
			types[t] = true
		}
		return func(a disposition.Assignment, _ disposition.Employee) bool {
			return types[a.Type]
		}, nil

	case KindStartsAtOrAfter, KindEndsAtOrBefore:
		v, err := requireValue(c)
		if err != nil {
			return nil, err
		}
		at, err := disposition.ParseClockTime(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.Kind, err)
		}
		if c.Kind == KindStartsAtOrAfter {
			return func(a disposition.Assignment, _ disposition.Employee) bool {
				return a.Start.AfterOrEqual(at)
			}, nil
		}
		return func(a disposition.Assignment, _ disposition.Employee) bool {
			return a.End.BeforeOrEqual(at)
		}, nil

	case KindWeekdayIn:
		names, err := requireValues(c)
		if err != nil {
			return nil, err
		}
		days := make(map[time.Weekday]bool, len(names))
		for n := range names {
			d, ok := parseWeekday(n)
			if !ok {
				return nil, fmt.Errorf("unknown weekday %q", n)
			}
			days[d] = true
		}
		return func(a disposition.Assignment, _ disposition.Employee) bool {
			return days[a.Date.Weekday()]
		}, nil

	case KindMinHours:
		v, err := requireValue(c)
		if err != nil {
			return nil, err
		}
		minHours, err := decimal.NewFromString(v)
		if err != nil {
			return nil, fmt.Errorf("min_hours: %w", err)
		}
		return func(a disposition.Assignment, _ disposition.Employee) bool {
			return a.WorkedHours().GreaterThanOrEqual(minHours)
		}, nil

	case KindAll, KindAny:
		if len(c.Conditions) == 0 {
			return nil, fmt.Errorf("%s needs at least one condition", c.Kind)
		}
		preds := make([]settlement.Predicate, len(c.Conditions))
		for i, sub := range c.Conditions {
			p, err := buildPredicate(sub)
			if err != nil {
				return nil, err
			}
			preds[i] = p
		}
		if c.Kind == KindAll {
			return func(a disposition.Assignment, e disposition.Employee) bool {
				for _, p := range preds {
					if !p(a, e) {
						return false
					}
				}
				return true
			}, nil
		}
		return func(a disposition.Assignment, e disposition.Employee) bool {
			for _, p := range preds {
				if p(a, e) {
					return true
				}
			}
			return false
		}, nil

	case KindNot:
		if len(c.Conditions) != 1 {
			return nil, fmt.Errorf("not needs exactly one condition, got %d", len(c.Conditions))
		}
		inner, err := buildPredicate(c.Conditions[0])
		if err != nil {
			return nil, err
		}
		return func(a disposition.Assignment, e disposition.Employee) bool {
			return !inner(a, e)
		}, nil

	case "":
		return nil, errors.New("condition kind is required")
	default:
		return nil, fmt.Errorf("unknown condition kind %q", c.Kind)
	}
}

func requireValue(c ConditionJSON) (string, error) {
	if c.Value == "" {
		return "", fmt.Errorf("%s needs a value", c.Kind)
	}
	return c.Value, nil
}

// requireValues merges value and values into a set.
func requireValues(c ConditionJSON) (map[string]bool, error) {
	set := make(map[string]bool, len(c.Values)+1)
	if c.Value != "" {
		set[c.Value] = true
	}
	for _, v := range c.Values {
		if v != "" {
			set[v] = true
		}
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("%s needs at least one value", c.Kind)
	}
	return set, nil
}

func parseWeekday(s string) (time.Weekday, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) < 3 {
		return 0, false
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || s == name[:3] {
			return d, true
		}
	}
	return 0, false
}

// =============================================================================
// PRESETS
// =============================================================================

// PremiumProjectJSON returns the premium project rule: +10 points on every
// project whose name contains "Premium".
func PremiumProjectJSON() string {
	return `{
  "name": "Projekt-Premium-Zuschlag",
  "description": "10% surcharge for premium projects",
  "bonus": 10,
  "when": {"kind": "project_contains", "value": "Premium"}
}`
}

// SundayHolidayJSON returns a rule adding 25 points to holiday work that
// also falls on a Sunday.
func SundayHolidayJSON() string {
	return `{
  "name": "Sonntag-Feiertag",
  "description": "Extra surcharge for holiday work on Sundays",
  "bonus": 25,
  "when": {"kind": "all", "conditions": [
    {"kind": "type_is", "values": ["FEIERTAG"]},
    {"kind": "weekday_in", "values": ["Sunday"]}
  ]}
}`
}
