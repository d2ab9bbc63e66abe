// Package datemath resolves relative date expressions used in filter values.
//
// An expression is an optional anchor followed by any number of signed
// durations:
//
//	now()
//	day() -1d
//	week() +2d12h
//	2015-02-03T01:22:33.056Z + 2y
//
// Anchors are absolute ISO-8601 instants or one of the zero argument
// functions now(), second(), minute(), hour(), day(), week(), month() and
// year(). Each function truncates the caller supplied "now" to its unit;
// week() truncates to the most recent Monday. Durations use the units
// y (years), M (months), w (weeks), d (days), h (hours), m (minutes) and
// s (seconds). A duration written directly after another duration, such as
// the "3d" in "+2y3d", shares the sign of the one before it.
package datemath

import (
	"fmt"
	"strings"
	"time"
)

// FormatError reports a malformed date expression. Message texts are stable
// and may be shown to users as is.
type FormatError struct {
	Expr string
	Msg  string
}

func (e *FormatError) Error() string {
	return e.Msg
}

func formatErr(expr, format string, args ...interface{}) error {
	return &FormatError{Expr: expr, Msg: fmt.Sprintf(format, args...)}
}

// Parse resolves expr against now, truncating in UTC.
func Parse(expr string, now time.Time) (time.Time, error) {
	return ParseInZone(expr, time.UTC, now)
}

// ParseInZone resolves expr against now. Truncating anchors and calendar
// durations are applied in loc; the result is always returned in UTC.
func ParseInZone(expr string, loc *time.Location, now time.Time) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}

	tokens, err := tokenize(expr)
	if err != nil {
		return time.Time{}, err
	}
	if len(tokens) == 0 {
		return time.Time{}, formatErr(expr, "Empty date expression.")
	}

	var (
		current  time.Time
		anchored bool
		sign     byte
		lastSign byte
	)
	for i, tok := range tokens {
		switch tok.kind {
		case tokenInstant, tokenFunction:
			if anchored {
				return time.Time{}, formatErr(expr, "Attempt to set the date and time twice with '%s'. You cannot have more than one declaration of date and time.", tok.text)
			}
			if sign != 0 {
				return time.Time{}, formatErr(expr, "Unexpected '%c' before '%s'.", sign, tok.text)
			}
			if tok.kind == tokenInstant {
				current = tok.instant
			} else {
				current = truncate(tok.text, now.In(loc))
			}
			anchored = true
			lastSign = 0

		case tokenSign:
			if sign != 0 {
				return time.Time{}, formatErr(expr, "Unexpected '%c' after '%c'.", tok.text[0], sign)
			}
			sign = tok.text[0]

		case tokenDuration:
			if !anchored {
				return time.Time{}, formatErr(expr, "You must specify a time or time constant before adding or subtracting duration '%s'.", tok.text)
			}
			op := sign
			if op == 0 && i > 0 && tokens[i-1].kind == tokenDuration && tokens[i-1].end == tok.start {
				op = lastSign
			}
			if op == 0 {
				return time.Time{}, formatErr(expr, "You must specify a plus or minus operation before duration '%s'.", tok.text)
			}
			amount := tok.amount
			if op == '-' {
				amount = -amount
			}
			current = addDuration(current.In(loc), amount, tok.unit)
			lastSign = op
			sign = 0
		}
	}

	if sign != 0 {
		return time.Time{}, formatErr(expr, "You must specify a duration after the '%c' operation.", sign)
	}

	return current.UTC(), nil
}

// IsExpression reports whether s is a valid date expression.
func IsExpression(s string) bool {
	_, err := Parse(s, time.Now())
	return err == nil
}

// truncate applies an anchor function to now.
func truncate(fn string, now time.Time) time.Time {
	loc := now.Location()
	switch fn {
	case "second()":
		return now.Truncate(time.Second)
	case "minute()":
		return time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), now.Minute(), 0, 0, loc)
	case "hour()":
		return time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 0, 0, 0, loc)
	case "day()":
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	case "week()":
		// Monday is the first day of the week.
		offset := (int(now.Weekday()) + 6) % 7
		day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
		return day.AddDate(0, 0, -offset)
	case "month()":
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	case "year()":
		return time.Date(now.Year(), 1, 1, 0, 0, 0, 0, loc)
	default:
		return now
	}
}

func addDuration(t time.Time, amount int, unit byte) time.Time {
	switch unit {
	case 'y':
		return t.AddDate(amount, 0, 0)
	case 'M':
		return t.AddDate(0, amount, 0)
	case 'w':
		return t.AddDate(0, 0, 7*amount)
	case 'd':
		return t.AddDate(0, 0, amount)
	case 'h':
		return t.Add(time.Duration(amount) * time.Hour)
	case 'm':
		return t.Add(time.Duration(amount) * time.Minute)
	case 's':
		return t.Add(time.Duration(amount) * time.Second)
	default:
		return t
	}
}

// functionNames lists the anchor functions without their parentheses.
var functionNames = []string{"now", "second", "minute", "hour", "day", "week", "month", "year"}

func isFunction(name string) bool {
	for _, fn := range functionNames {
		if strings.EqualFold(fn, name) {
			return true
		}
	}
	return false
}
