/*
grammar.go - Token-level parsers for disposition records

PURPOSE:
  Each token parser consumes a prefix of the input and either returns a value
  or a *ParseError pointing at the offending column. Line parsers are built by
  sequencing token parsers and separators on a single scanner.

TOKENS:
  date      day '.' month '.' year        31.10.2025
  time      hour ':' minute               08:00
  text      run without '|', '\r', '\n'   Projekt Alpha   (trimmed)
  decimal   ['+'|'-'] digits ['.' digits] 12.5
  type      keyword, case-insensitive     NACHT / ue / xyz -> Normal

Time values are range-checked here (00:00 - 23:59). A date that does not
exist in the calendar (31.02.2025) is a grammar failure, never a panic.
*/
package disposition

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FieldSeparator separates fields in the delimited format.
const FieldSeparator = '|'

type scanner struct {
	input string
	pos   int
}

func newScanner(input string) *scanner { return &scanner{input: input} }

func (s *scanner) atEnd() bool { return s.pos >= len(s.input) }

func (s *scanner) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.input[s.pos]
}

func (s *scanner) failAt(pos int, expected, msg string, err error) *ParseError {
	return &ParseError{Input: s.input, Column: pos + 1, Expected: expected, Message: msg, Err: err}
}

func (s *scanner) fail(expected, msg string) *ParseError {
	return s.failAt(s.pos, expected, msg, nil)
}

func (s *scanner) found() string {
	if s.atEnd() {
		return "end of input"
	}
	return fmt.Sprintf("%q", s.input[s.pos])
}

func (s *scanner) expect(ch byte) error {
	if s.atEnd() || s.peek() != ch {
		return s.fail(fmt.Sprintf("%q", ch), "found "+s.found())
	}
	s.pos++
	return nil
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func (s *scanner) digits() (string, error) {
	start := s.pos
	for !s.atEnd() && isDigit(s.peek()) {
		s.pos++
	}
	if s.pos == start {
		return "", s.fail("digit", "found "+s.found())
	}
	return s.input[start:s.pos], nil
}

func (s *scanner) integer() (int, error) {
	start := s.pos
	run, err := s.digits()
	if err != nil {
		return 0, err
	}
	if len(run) > 9 {
		return 0, s.failAt(start, "integer", "too many digits", nil)
	}
	n := 0
	for i := 0; i < len(run); i++ {
		n = n*10 + int(run[i]-'0')
	}
	return n, nil
}

// date parses day '.' month '.' year.
func (s *scanner) date() (time.Time, error) {
	start := s.pos
	day, err := s.integer()
	if err != nil {
		return time.Time{}, err
	}
	if err := s.expect('.'); err != nil {
		return time.Time{}, err
	}
	month, err := s.integer()
	if err != nil {
		return time.Time{}, err
	}
	if err := s.expect('.'); err != nil {
		return time.Time{}, err
	}
	year, err := s.integer()
	if err != nil {
		return time.Time{}, err
	}
	d, err := calendarDate(year, month, day)
	if err != nil {
		return time.Time{}, s.failAt(start, "date", "", err)
	}
	return d, nil
}

// calendarDate refuses values that time.Date would silently normalize.
func calendarDate(year, month, day int) (time.Time, error) {
	if year < 1 || year > 9999 {
		return time.Time{}, fmt.Errorf("year %d out of range", year)
	}
	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("month %d out of range", month)
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if day < 1 || d.Day() != day || int(d.Month()) != month {
		return time.Time{}, fmt.Errorf("day %d out of range for %04d-%02d", day, year, month)
	}
	return d, nil
}

// clock parses hour ':' minute.
func (s *scanner) clock() (ClockTime, error) {
	start := s.pos
	hour, err := s.integer()
	if err != nil {
		return ClockTime{}, err
	}
	if err := s.expect(':'); err != nil {
		return ClockTime{}, err
	}
	minute, err := s.integer()
	if err != nil {
		return ClockTime{}, err
	}
	c, err := NewClockTime(hour, minute)
	if err != nil {
		return ClockTime{}, s.failAt(start, "time", "", err)
	}
	return c, nil
}

// text consumes at least one character up to the next separator or line end.
func (s *scanner) text() (string, error) {
	start := s.pos
	for !s.atEnd() {
		c := s.peek()
		if c == FieldSeparator || c == '\r' || c == '\n' {
			break
		}
		s.pos++
	}
	if s.pos == start {
		return "", s.fail("text", "found "+s.found())
	}
	return strings.TrimSpace(s.input[start:s.pos]), nil
}

func (s *scanner) decimal() (decimal.Decimal, error) {
	start := s.pos
	if c := s.peek(); c == '+' || c == '-' {
		s.pos++
	}
	if _, err := s.digits(); err != nil {
		return decimal.Zero, err
	}
	if s.peek() == '.' {
		s.pos++
		if _, err := s.digits(); err != nil {
			return decimal.Zero, err
		}
	}
	d, err := decimal.NewFromString(s.input[start:s.pos])
	if err != nil {
		return decimal.Zero, s.failAt(start, "decimal", "", err)
	}
	return d, nil
}

// end accepts trailing blanks (including a stray '\r') and nothing else.
func (s *scanner) end() error {
	for !s.atEnd() {
		switch s.peek() {
		case ' ', '\t', '\r':
			s.pos++
		default:
			return s.fail("end of line", "found "+s.found())
		}
	}
	return nil
}

// =============================================================================
// STANDALONE TOKEN PARSERS - Whole-string variants used by the CSV reader
// =============================================================================

func parseWhole[T any](input string, token func(*scanner) (T, error)) (T, error) {
	s := newScanner(strings.TrimSpace(input))
	v, err := token(s)
	if err != nil {
		var zero T
		return zero, err
	}
	if err := s.end(); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

// ParseDate parses a DD.MM.YYYY date.
func ParseDate(input string) (time.Time, error) {
	return parseWhole(input, (*scanner).date)
}

// ParseClockTime parses an HH:MM time of day.
func ParseClockTime(input string) (ClockTime, error) {
	return parseWhole(input, (*scanner).clock)
}

// ParseDecimal parses a plain decimal literal.
func ParseDecimal(input string) (decimal.Decimal, error) {
	return parseWhole(input, (*scanner).decimal)
}
