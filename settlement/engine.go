/*
engine.go - Rule evaluation over assignments

FLOW (per assignment):
  1. Validate()               -> reject with ErrInvalidAssignment
  2. Directory.Lookup()       -> reject with *LookupError
  3. EffectiveSurcharge()     -> declared % + bonus of every applicable rule
  4. Compute()                -> adds type surcharge, prices the shift

Rejections are never fatal. Evaluate returns them as errors; the batch
variants log a diagnostic line and continue with the next assignment.

The engine never writes to the assignment. The effective percentage is a
return value and is passed to Compute explicitly.

Rules are applied in registration order. The order cannot change a total
(bonuses are added) but it fixes the order of AppliedRules and of log output.
*/
package settlement

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/disposition-engine/disposition"
)

type Engine struct {
	dir    Directory
	logger *log.Logger
	now    func() time.Time
	notify func(Rejection)

	mu    sync.RWMutex
	rules []Rule
}

// Option configures an Engine.
type Option func(*engineConfig)

type engineConfig struct {
	logger   *log.Logger
	now      func() time.Time
	notify   func(Rejection)
	builtins bool
}

// WithLogger sets where rejection diagnostics are written.
func WithLogger(l *log.Logger) Option { return func(c *engineConfig) { c.logger = l } }

// WithClock overrides the timestamp source for ComputedAt.
func WithClock(now func() time.Time) Option { return func(c *engineConfig) { c.now = now } }

// WithNotify registers a callback invoked for every rejected assignment.
func WithNotify(fn func(Rejection)) Option { return func(c *engineConfig) { c.notify = fn } }

// WithoutBuiltinRules starts the engine with an empty rule list.
func WithoutBuiltinRules() Option { return func(c *engineConfig) { c.builtins = false } }

// NewEngine creates an engine over dir, seeded with BuiltinRules.
func NewEngine(dir Directory, opts ...Option) *Engine {
	cfg := engineConfig{logger: log.Default(), now: time.Now, builtins: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	if dir == nil {
		dir = NewMemoryDirectory()
	}

	e := &Engine{dir: dir, logger: cfg.logger, now: cfg.now, notify: cfg.notify}
	if cfg.builtins {
		e.rules = BuiltinRules()
	}
	return e
}

func (e *Engine) Directory() Directory { return e.dir }

// Now reads the engine clock.
func (e *Engine) Now() time.Time { return e.now() }

// AddRule appends a rule after all previously registered ones. Rules only
// ever add to the surcharge, so a negative bonus is refused.
func (e *Engine) AddRule(r Rule) error {
	if r.Bonus.IsNegative() {
		return fmt.Errorf("%w: %s (%s)", ErrNegativeBonus, r.Name, r.Bonus)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules = append(e.rules, r)
	return nil
}

// Rules returns a copy of the registered rules in evaluation order.
func (e *Engine) Rules() []Rule {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// EffectiveSurcharge sums the declared percentage and the bonus of every
// applicable rule. It also returns the names of the rules that applied.
func (e *Engine) EffectiveSurcharge(a disposition.Assignment, emp disposition.Employee) (decimal.Decimal, []string) {
	percent := a.SurchargePercent
	var applied []string
	for _, r := range e.Rules() {
		if !r.Matches(a, emp) {
			continue
		}
		percent = percent.Add(r.Bonus)
		applied = append(applied, r.Name)
	}
	return percent, applied
}

// Evaluate prices a single assignment. A nil settlement is always paired
// with an error that satisfies IsRejected; the rejection is also logged.
func (e *Engine) Evaluate(a disposition.Assignment) (*Settlement, error) {
	s, err := e.evaluate(a)
	if err != nil && e.logger != nil {
		e.logger.Printf("settlement: rejecting assignment (%s): %v", a, err)
	}
	return s, err
}

func (e *Engine) evaluate(a disposition.Assignment) (*Settlement, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	emp, ok := e.dir.Lookup(a.PersonnelNo)
	if !ok {
		return nil, &LookupError{PersonnelNo: a.PersonnelNo}
	}

	percent, applied := e.EffectiveSurcharge(a, emp)
	s := Compute(a, emp, percent, e.now())
	s.AppliedRules = applied
	return &s, nil
}

// =============================================================================
// BATCH EVALUATION
// =============================================================================

// Rejection records an assignment left out of a batch.
type Rejection struct {
	Index      int // position in the input slice
	Assignment disposition.Assignment
	Err        error
}

type BatchResult struct {
	Settlements []Settlement
	Rejected    []Rejection
}

// EvaluateBatchReport evaluates assignments in order and keeps the rejects.
func (e *Engine) EvaluateBatchReport(as []disposition.Assignment) BatchResult {
	result := BatchResult{Settlements: make([]Settlement, 0, len(as))}
	for i, a := range as {
		s, err := e.evaluate(a)
		if err != nil {
			rej := Rejection{Index: i, Assignment: a, Err: err}
			e.reject(rej)
			result.Rejected = append(result.Rejected, rej)
			continue
		}
		result.Settlements = append(result.Settlements, *s)
	}
	return result
}

// EvaluateBatch evaluates assignments in order, dropping rejects.
func (e *Engine) EvaluateBatch(as []disposition.Assignment) []Settlement {
	return e.EvaluateBatchReport(as).Settlements
}

func (e *Engine) reject(r Rejection) {
	if e.logger != nil {
		e.logger.Printf("settlement: skipping assignment #%d (%s): %v", r.Index+1, r.Assignment, r.Err)
	}
	if e.notify != nil {
		e.notify(r)
	}
}
