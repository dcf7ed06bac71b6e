package settlement_test

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/disposition-engine/disposition"
	"github.com/warp/disposition-engine/settlement"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var fixedNow = time.Date(2025, time.November, 3, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func roster() []disposition.Employee {
	return []disposition.Employee{
		{ID: 1, PersonnelNo: "MA001", FirstName: "Max", LastName: "Mustermann", Department: "IT-Entwicklung", HourlyRate: dec("85.00"), Qualification: "Senior Developer"},
		{ID: 2, PersonnelNo: "MA002", FirstName: "Anna", LastName: "Schmidt", Department: "Consulting", HourlyRate: dec("95.00"), Qualification: "Experte Consultant"},
		{ID: 3, PersonnelNo: "MA003", FirstName: "Thomas", LastName: "Weber", Department: "Support", HourlyRate: dec("65.00"), Qualification: "Support Specialist"},
		{ID: 4, PersonnelNo: "MA004", FirstName: "Lena", LastName: "Koch", Department: "IT-Entwicklung", HourlyRate: dec("85.00"), Qualification: "Developer"},
	}
}

func newTestEngine(t *testing.T, opts ...settlement.Option) *settlement.Engine {
	t.Helper()
	base := []settlement.Option{
		settlement.WithClock(func() time.Time { return fixedNow }),
		settlement.WithLogger(log.New(io.Discard, "", 0)),
	}
	return settlement.NewEngine(settlement.NewMemoryDirectory(roster()...), append(base, opts...)...)
}

func mustParse(t *testing.T, line string) disposition.Assignment {
	t.Helper()
	a, err := disposition.ParseLine(line)
	require.NoError(t, err)
	return a
}

func premiumRule() settlement.Rule {
	return settlement.Rule{
		Name:        "Projekt-Premium-Zuschlag",
		Description: "10% surcharge for premium projects",
		Applies: func(a disposition.Assignment, _ disposition.Employee) bool {
			return strings.Contains(a.Project, "Premium")
		},
		Bonus: decimal.NewFromInt(10),
	}
}

// =============================================================================
// SCENARIOS
// =============================================================================

func TestEvaluate_OvertimeScenario(t *testing.T) {
	// GIVEN: Rate 85.00, overtime, no declared surcharge, 4 hours, no senior title
	engine := newTestEngine(t)
	a := mustParse(t, "01.11.2025|MA004|10:00|14:00|Projekt Alpha|Release|UE|0")

	// WHEN: Evaluating
	s, err := engine.Evaluate(a)
	require.NoError(t, err)

	// THEN: 25% type surcharge on 340.00
	assert.True(t, s.SurchargePercent.Equal(dec("25")))
	assert.True(t, s.BaseAmount.Equal(dec("340.00")))
	assert.True(t, s.SurchargeAmount.Equal(dec("85.00")))
	assert.True(t, s.TotalAmount.Equal(dec("425.00")))
	assert.Empty(t, s.AppliedRules)
	assert.Equal(t, fixedNow, s.ComputedAt)
	assert.Equal(t, "Basis: 340.00 EUR + Zuschlag 25%: 85.00 EUR", s.Basis)
}

func TestEvaluate_NightScenario(t *testing.T) {
	engine := newTestEngine(t)
	a := mustParse(t, "31.10.2025|MA003|22:00|06:00|Projekt Gamma|Support|NACHT|0")

	s, err := engine.Evaluate(a)
	require.NoError(t, err)

	assert.True(t, s.SurchargePercent.GreaterThanOrEqual(dec("50")))
	assert.True(t, s.TypeSurcharge.Equal(dec("50")))
	assert.Equal(t, []string{settlement.NightShiftRuleName}, s.AppliedRules, "night marker applies but adds nothing")
	assert.True(t, s.Hours.Equal(dec("8")))
	// 65 * 8 = 520, +50% = 260
	assert.True(t, s.TotalAmount.Equal(dec("780.00")))
}

func TestEvaluate_QualificationAndCustomRule(t *testing.T) {
	// GIVEN: An expert on a premium project with a declared 5%
	engine := newTestEngine(t)
	require.NoError(t, engine.AddRule(premiumRule()))
	a := mustParse(t, "31.10.2025|MA002|09:00|18:00|Premium Projekt Beta|Beratung|NORMAL|5")

	s, err := engine.Evaluate(a)
	require.NoError(t, err)

	// THEN: 5 declared + 10 qualification + 10 premium, rules listed in order
	assert.True(t, s.RulePercent.Equal(dec("25")))
	assert.True(t, s.SurchargePercent.Equal(dec("25")))
	assert.Equal(t, []string{settlement.QualificationRuleName, "Projekt-Premium-Zuschlag"}, s.AppliedRules)
	// 95 * 9 = 855, 25% = 213.75
	assert.True(t, s.SurchargeAmount.Equal(dec("213.75")))
	assert.True(t, s.TotalAmount.Equal(dec("1068.75")))
}

func TestEvaluate_DoesNotMutateAssignment(t *testing.T) {
	engine := newTestEngine(t)
	as := []disposition.Assignment{mustParse(t, "31.10.2025|MA001|08:00|17:00|Alpha|Dev|NORMAL|3")}

	s := engine.EvaluateBatch(as)

	require.Len(t, s, 1)
	assert.True(t, as[0].SurchargePercent.Equal(dec("3")), "declared surcharge stays as parsed")
	assert.True(t, s[0].Assignment.SurchargePercent.Equal(dec("3")))
	assert.True(t, s[0].RulePercent.Equal(dec("13")))
}

// =============================================================================
// REJECTIONS
// =============================================================================

func TestEvaluate_RejectsInvalidAssignment(t *testing.T) {
	engine := newTestEngine(t)
	a := mustParse(t, "31.10.2025|MA001|09:00|09:00|Alpha|Dev|NORMAL|0")

	s, err := engine.Evaluate(a)

	assert.Nil(t, s)
	assert.ErrorIs(t, err, settlement.ErrInvalidAssignment)
	assert.ErrorIs(t, err, disposition.ErrEmptyShift)
	assert.True(t, settlement.IsRejected(err))
	assert.False(t, settlement.IsNotFound(err))
}

func TestEvaluate_RejectsUnknownEmployee(t *testing.T) {
	engine := newTestEngine(t)
	a := mustParse(t, "31.10.2025|MA999|08:00|12:00|Alpha|Dev|NORMAL|0")

	s, err := engine.Evaluate(a)

	assert.Nil(t, s)
	assert.True(t, settlement.IsNotFound(err))
	var lerr *settlement.LookupError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, "MA999", lerr.PersonnelNo)
}

func TestEvaluate_LogsRejection(t *testing.T) {
	var buf bytes.Buffer
	engine := newTestEngine(t, settlement.WithLogger(log.New(&buf, "", 0)))

	_, err := engine.Evaluate(mustParse(t, "31.10.2025|MA999|08:00|12:00|Alpha|Dev|NORMAL|0"))

	require.Error(t, err)
	assert.Contains(t, buf.String(), "rejecting assignment")
	assert.Contains(t, buf.String(), "MA999")
}

func TestAddRule_RefusesNegativeBonus(t *testing.T) {
	// GIVEN: An engine without built-ins and a rule that always applies with -20
	engine := newTestEngine(t, settlement.WithoutBuiltinRules())
	lowering := settlement.Rule{
		Name:    "Abzug",
		Applies: func(disposition.Assignment, disposition.Employee) bool { return true },
		Bonus:   dec("-20"),
	}

	// WHEN: It is registered
	err := engine.AddRule(lowering)

	// THEN: It is refused and a declared 5% stays 5%
	assert.ErrorIs(t, err, settlement.ErrNegativeBonus)
	assert.Empty(t, engine.Rules())
	s, err := engine.Evaluate(mustParse(t, "03.11.2025|MA004|08:00|12:00|Alpha|Dev|NORMAL|5"))
	require.NoError(t, err)
	assert.True(t, s.SurchargePercent.Equal(dec("5")), "got %s", s.SurchargePercent)

	assert.NoError(t, engine.AddRule(settlement.Rule{Name: "Null", Bonus: decimal.Zero}))
}

func TestEvaluateBatch_KeepsOrderAndReportsRejects(t *testing.T) {
	// GIVEN: Five assignments, two of which cannot be settled
	var buf bytes.Buffer
	var notified []settlement.Rejection
	engine := newTestEngine(t,
		settlement.WithLogger(log.New(&buf, "", 0)),
		settlement.WithNotify(func(r settlement.Rejection) { notified = append(notified, r) }),
	)
	as := disposition.ParseLines(`
31.10.2025|MA001|08:00|17:00|Alpha|Dev|NORMAL|0
31.10.2025|MA999|08:00|17:00|Alpha|Dev|NORMAL|0
31.10.2025|MA002|09:00|18:00|Beta|Consulting|NORMAL|0
31.10.2025|MA003|10:00|10:00|Gamma|Support|NORMAL|0
01.11.2025|MA003|08:00|12:00|Gamma|Support|WE|0
`)
	require.Len(t, as, 5)

	// WHEN: Evaluating the batch
	result := engine.EvaluateBatchReport(as)

	// THEN: Survivors keep input order, rejects carry their index
	require.Len(t, result.Settlements, 3)
	assert.Equal(t, "MA001", result.Settlements[0].Employee.PersonnelNo)
	assert.Equal(t, "MA002", result.Settlements[1].Employee.PersonnelNo)
	assert.Equal(t, "MA003", result.Settlements[2].Employee.PersonnelNo)

	require.Len(t, result.Rejected, 2)
	assert.Equal(t, 1, result.Rejected[0].Index)
	assert.True(t, settlement.IsNotFound(result.Rejected[0].Err))
	assert.Equal(t, 3, result.Rejected[1].Index)
	assert.ErrorIs(t, result.Rejected[1].Err, settlement.ErrInvalidAssignment)

	assert.Len(t, notified, 2)
	assert.Contains(t, buf.String(), "MA999")
	assert.Equal(t, 2, strings.Count(buf.String(), "skipping assignment"))

	assert.Len(t, engine.EvaluateBatch(as), 3)
}

// =============================================================================
// RULES
// =============================================================================

func TestEngine_BuiltinRulesInOrder(t *testing.T) {
	engine := newTestEngine(t)
	require.NoError(t, engine.AddRule(premiumRule()))

	rules := engine.Rules()
	require.Len(t, rules, 3)
	assert.Equal(t, settlement.NightShiftRuleName, rules[0].Name)
	assert.Equal(t, settlement.QualificationRuleName, rules[1].Name)
	assert.Equal(t, "Projekt-Premium-Zuschlag", rules[2].Name)

	bare := newTestEngine(t, settlement.WithoutBuiltinRules())
	assert.Empty(t, bare.Rules())
}

func TestNightShiftRule_Boundaries(t *testing.T) {
	rule := settlement.NightShiftRule()
	emp := roster()[2]
	tests := []struct {
		start, end disposition.ClockTime
		want       bool
	}{
		{disposition.MustClockTime(22, 0), disposition.MustClockTime(23, 30), true},
		{disposition.MustClockTime(21, 59), disposition.MustClockTime(23, 30), false},
		{disposition.MustClockTime(2, 0), disposition.MustClockTime(6, 0), true},
		{disposition.MustClockTime(2, 0), disposition.MustClockTime(6, 1), false},
		{disposition.MustClockTime(8, 0), disposition.MustClockTime(17, 0), false},
	}
	for _, tt := range tests {
		a := disposition.Assignment{PersonnelNo: "MA003", Start: tt.start, End: tt.end}
		assert.Equal(t, tt.want, rule.Matches(a, emp), "%s-%s", tt.start, tt.end)
	}
	assert.True(t, rule.Bonus.IsZero())
}

func TestQualificationRule_CaseSensitive(t *testing.T) {
	rule := settlement.QualificationRule()
	a := disposition.Assignment{}
	for qual, want := range map[string]bool{
		"Senior Developer":   true,
		"Experte Consultant": true,
		"senior developer":   false,
		"Support Specialist": false,
		"":                   false,
	} {
		assert.Equal(t, want, rule.Matches(a, disposition.Employee{Qualification: qual}), qual)
	}
	assert.True(t, rule.Bonus.Equal(dec("10")))
}

func TestRule_NilPredicateNeverMatches(t *testing.T) {
	assert.False(t, settlement.Rule{Name: "empty"}.Matches(disposition.Assignment{}, disposition.Employee{}))
}

func TestEffectiveSurcharge_Monotonic(t *testing.T) {
	// Final percentage is never below the declared one, for every type,
	// declared value and qualification combination.
	engine := newTestEngine(t)
	require.NoError(t, engine.AddRule(premiumRule()))

	for _, typ := range disposition.AssignmentTypes {
		for _, declared := range []string{"0", "5", "12.5", "-3"} {
			for _, emp := range roster() {
				a := disposition.Assignment{
					PersonnelNo:      emp.PersonnelNo,
					Start:            disposition.MustClockTime(22, 0),
					End:              disposition.MustClockTime(4, 0),
					Project:          "Premium Omega",
					Type:             typ,
					SurchargePercent: dec(declared),
				}
				s, err := engine.Evaluate(a)
				require.NoError(t, err)
				assert.True(t, s.SurchargePercent.GreaterThanOrEqual(a.SurchargePercent),
					"%s/%s/%s", typ, declared, emp.PersonnelNo)
				assert.True(t, s.SurchargePercent.GreaterThanOrEqual(s.RulePercent))
			}
		}
	}
}

// =============================================================================
// DIRECTORY
// =============================================================================

func TestMemoryDirectory_LastWriteWins(t *testing.T) {
	dir := settlement.NewMemoryDirectory(roster()...)
	require.Equal(t, 4, dir.Len())

	updated := roster()[0]
	updated.HourlyRate = dec("90")
	dir.Add(updated)

	e, ok := dir.Lookup("MA001")
	require.True(t, ok)
	assert.True(t, e.HourlyRate.Equal(dec("90")))
	assert.Equal(t, 4, dir.Len())

	_, ok = dir.Lookup("MA404")
	assert.False(t, ok)

	list := dir.Employees()
	require.Len(t, list, 4)
	assert.Equal(t, "MA001", list[0].PersonnelNo)
	assert.Equal(t, "MA004", list[3].PersonnelNo)
}

func TestMemoryDirectory_UpsertAssignsIDs(t *testing.T) {
	dir := settlement.NewMemoryDirectory(roster()...)

	created, isNew := dir.Upsert(disposition.Employee{PersonnelNo: "MA005"})
	assert.True(t, isNew)
	assert.Equal(t, 5, created.ID)

	replaced, isNew := dir.Upsert(disposition.Employee{PersonnelNo: "MA002", HourlyRate: dec("99")})
	assert.False(t, isNew)
	assert.Equal(t, 2, replaced.ID)
	e, _ := dir.Lookup("MA002")
	assert.True(t, e.HourlyRate.Equal(dec("99")))
}

func TestMemoryDirectory_ConcurrentUpsertsGetDistinctIDs(t *testing.T) {
	dir := settlement.NewMemoryDirectory()
	const n = 50

	var wg sync.WaitGroup
	ids := make([]int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e, _ := dir.Upsert(disposition.Employee{PersonnelNo: fmt.Sprintf("MA%03d", i)})
			ids[i] = e.ID
		}(i)
	}
	wg.Wait()

	seen := make(map[int]bool, n)
	for _, id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Equal(t, n, dir.Len())
}
