/*
Package disposition provides the input side of the settlement pipeline.

PURPOSE:
  Personnel dispositions arrive as plain text, one work assignment per line.
  This package owns the data model for those assignments and the employees
  they reference, the record grammar for both input formats, and the batch
  parsers that turn raw text into validated Assignment values.

KEY CONCEPTS IN THIS FILE (types.go):
  - Employee: Master data for one person (rate, qualification)
  - Assignment: One planned shift for one employee on one date
  - AssignmentType: Normal, overtime, night work, ... (drives auto surcharge)
  - ClockTime: Wall-clock time of day, not bound to a timezone

DESIGN PRINCIPLES:
  1. Precision: Rates, hours and percentages are decimal.Decimal, never float
  2. Leniency: Unknown type tokens become Normal instead of failing
  3. Explicit validity: Assignment.Validate() is the single invariant check

SEE ALSO:
  - grammar.go: Token-level parsers
  - parser.go: Line and batch parsers
  - settlement/engine.go: Consumes Assignments
*/
package disposition

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the day-first date format used by the delimited records.
const DateLayout = "02.01.2006"

// =============================================================================
// EMPLOYEE - Master data, immutable for a run
// =============================================================================

type Employee struct {
	ID            int
	PersonnelNo   string
	FirstName     string
	LastName      string
	Department    string
	HourlyRate    decimal.Decimal
	Qualification string
}

func (e Employee) FullName() string { return strings.TrimSpace(e.FirstName + " " + e.LastName) }

func (e Employee) String() string {
	return fmt.Sprintf("%s: %s (%s)", e.PersonnelNo, e.FullName(), e.Department)
}

// =============================================================================
// ASSIGNMENT TYPE
// =============================================================================

type AssignmentType string

const (
	TypeNormal      AssignmentType = "normal"
	TypeOvertime    AssignmentType = "overtime"
	TypeNightWork   AssignmentType = "night_work"
	TypeWeekend     AssignmentType = "weekend"
	TypeHoliday     AssignmentType = "holiday"
	TypeStandbyDuty AssignmentType = "standby_duty"
	TypeTraining    AssignmentType = "training"
)

// AssignmentTypes lists every type in declaration order.
var AssignmentTypes = []AssignmentType{
	TypeNormal, TypeOvertime, TypeNightWork, TypeWeekend, TypeHoliday, TypeStandbyDuty, TypeTraining,
}

var typeTokens = map[string]AssignmentType{
	"NORMAL":       TypeNormal,
	"UEBERSTUNDEN": TypeOvertime,
	"UE":           TypeOvertime,
	"NACHT":        TypeNightWork,
	"WOCHENENDE":   TypeWeekend,
	"WE":           TypeWeekend,
	"FEIERTAG":     TypeHoliday,
	"FT":           TypeHoliday,
	"BEREITSCHAFT": TypeStandbyDuty,
	"SCHULUNG":     TypeTraining,
}

// ParseAssignmentType maps a type keyword to its AssignmentType.
// Matching is case-insensitive; anything unrecognized is TypeNormal.
func ParseAssignmentType(token string) AssignmentType {
	if t, ok := typeTokens[strings.ToUpper(strings.TrimSpace(token))]; ok {
		return t
	}
	return TypeNormal
}

// LookupAssignmentType is the strict variant of ParseAssignmentType. It
// accepts input keywords and type names ("night_work") and reports misses.
func LookupAssignmentType(name string) (AssignmentType, bool) {
	name = strings.TrimSpace(name)
	if t, ok := typeTokens[strings.ToUpper(name)]; ok {
		return t, true
	}
	for _, t := range AssignmentTypes {
		if strings.EqualFold(string(t), name) {
			return t, true
		}
	}
	return "", false
}

// Token returns the canonical long keyword for the type.
func (t AssignmentType) Token() string {
	switch t {
	case TypeOvertime:
		return "UEBERSTUNDEN"
	case TypeNightWork:
		return "NACHT"
	case TypeWeekend:
		return "WOCHENENDE"
	case TypeHoliday:
		return "FEIERTAG"
	case TypeStandbyDuty:
		return "BEREITSCHAFT"
	case TypeTraining:
		return "SCHULUNG"
	default:
		return "NORMAL"
	}
}

// =============================================================================
// CLOCK TIME - Time of day without date or zone
// =============================================================================

type ClockTime struct {
	Hour   int
	Minute int
}

func NewClockTime(hour, minute int) (ClockTime, error) {
	if hour < 0 || hour > 23 {
		return ClockTime{}, fmt.Errorf("hour %d out of range 0-23", hour)
	}
	if minute < 0 || minute > 59 {
		return ClockTime{}, fmt.Errorf("minute %d out of range 0-59", minute)
	}
	return ClockTime{Hour: hour, Minute: minute}, nil
}

// MustClockTime panics on an out-of-range value. Intended for literals.
func MustClockTime(hour, minute int) ClockTime {
	c, err := NewClockTime(hour, minute)
	if err != nil {
		panic(err)
	}
	return c
}

func (c ClockTime) Minutes() int                   { return c.Hour*60 + c.Minute }
func (c ClockTime) Before(o ClockTime) bool        { return c.Minutes() < o.Minutes() }
func (c ClockTime) After(o ClockTime) bool         { return c.Minutes() > o.Minutes() }
func (c ClockTime) Equal(o ClockTime) bool         { return c.Minutes() == o.Minutes() }
func (c ClockTime) AfterOrEqual(o ClockTime) bool  { return !c.Before(o) }
func (c ClockTime) BeforeOrEqual(o ClockTime) bool { return !c.After(o) }
func (c ClockTime) String() string                 { return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute) }

// =============================================================================
// ASSIGNMENT - One disposition record
// =============================================================================

type Assignment struct {
	PersonnelNo      string
	Date             time.Time
	Start            ClockTime
	End              ClockTime
	Project          string
	Activity         string
	Type             AssignmentType
	SurchargePercent decimal.Decimal // declared on the record, before rules
	Remark           string
}

const minutesPerDay = 24 * 60

var sixty = decimal.NewFromInt(60)

// CrossesMidnight reports whether the shift ends on the following day.
func (a Assignment) CrossesMidnight() bool { return a.End.Before(a.Start) }

// WorkedMinutes is end - start, with an end earlier than the start read as
// next-day. Equal start and end yield zero.
func (a Assignment) WorkedMinutes() int {
	d := a.End.Minutes() - a.Start.Minutes()
	if d < 0 {
		d += minutesPerDay
	}
	return d
}

// WorkedHours returns the duration as fractional hours.
func (a Assignment) WorkedHours() decimal.Decimal {
	return decimal.NewFromInt(int64(a.WorkedMinutes())).Div(sixty)
}

// Validate checks the invariants required before evaluation.
func (a Assignment) Validate() error {
	if strings.TrimSpace(a.PersonnelNo) == "" {
		return &InvalidAssignmentError{Assignment: a, Err: ErrMissingPersonnelNo}
	}
	if a.WorkedMinutes() == 0 {
		return &InvalidAssignmentError{Assignment: a, Err: ErrEmptyShift}
	}
	return nil
}

func (a Assignment) IsValid() bool { return a.Validate() == nil }

// DelimitedLine renders the assignment in the pipe-delimited input format.
// The remark is not part of that format and is dropped.
func (a Assignment) DelimitedLine() string {
	return strings.Join([]string{
		a.Date.Format(DateLayout),
		a.PersonnelNo,
		a.Start.String(),
		a.End.String(),
		a.Project,
		a.Activity,
		a.Type.Token(),
		a.SurchargePercent.String(),
	}, string(FieldSeparator))
}

func (a Assignment) String() string {
	return fmt.Sprintf("%s | %s | %s-%s | %s | %sh",
		a.Date.Format(DateLayout), a.PersonnelNo, a.Start, a.End, a.Project, a.WorkedHours().StringFixed(2))
}
