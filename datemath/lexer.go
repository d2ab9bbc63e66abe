package datemath

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

type tokenKind int

const (
	tokenInstant tokenKind = iota
	tokenFunction
	tokenSign
	tokenDuration
)

type token struct {
	kind    tokenKind
	text    string
	start   int
	end     int
	instant time.Time
	amount  int
	unit    byte
}

var instantPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}(T\d{2}:\d{2}(:\d{2}(\.\d+)?)?(Z|[+-]\d{2}:?\d{2})?)?`)

var instantLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02",
}

const durationUnits = "yMwdhms"

// lexer splits a date expression into tokens.
type lexer struct {
	input string
	pos   int
}

func tokenize(input string) ([]token, error) {
	l := &lexer{input: input}
	var tokens []token
	for {
		l.skipWhitespace()
		if l.pos >= len(l.input) {
			return tokens, nil
		}
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
	}
}

func (l *lexer) skipWhitespace() {
	for l.pos < len(l.input) && unicode.IsSpace(rune(l.input[l.pos])) {
		l.pos++
	}
}

func (l *lexer) next() (token, error) {
	start := l.pos
	ch := l.input[l.pos]

	switch {
	case ch == '+' || ch == '-':
		l.pos++
		return token{kind: tokenSign, text: string(ch), start: start, end: l.pos}, nil

	case isDigit(ch):
		if m := instantPattern.FindString(l.input[l.pos:]); m != "" {
			t, ok := parseInstant(m)
			if !ok {
				return token{}, formatErr(l.input, "Unable to parse date and time '%s'.", m)
			}
			l.pos += len(m)
			return token{kind: tokenInstant, text: m, start: start, end: l.pos, instant: t}, nil
		}
		return l.readDuration()

	case isLetter(ch):
		return l.readFunction()

	default:
		return token{}, formatErr(l.input, "Unexpected text '%s'.", strings.TrimSpace(l.input[l.pos:]))
	}
}

func (l *lexer) readDuration() (token, error) {
	start := l.pos
	for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
		l.pos++
	}
	digits := l.input[start:l.pos]
	if l.pos >= len(l.input) || !strings.ContainsRune(durationUnits, rune(l.input[l.pos])) {
		return token{}, formatErr(l.input, "Unexpected text '%s'. Durations must end with one of the units 'y', 'M', 'w', 'd', 'h', 'm' or 's'.", strings.TrimSpace(l.input[start:]))
	}
	unit := l.input[l.pos]
	l.pos++

	amount, err := strconv.Atoi(digits)
	if err != nil {
		return token{}, formatErr(l.input, "Duration '%s' is too large.", l.input[start:l.pos])
	}
	return token{
		kind:   tokenDuration,
		text:   l.input[start:l.pos],
		start:  start,
		end:    l.pos,
		amount: amount,
		unit:   unit,
	}, nil
}

func (l *lexer) readFunction() (token, error) {
	start := l.pos
	for l.pos < len(l.input) && isLetter(l.input[l.pos]) {
		l.pos++
	}
	name := l.input[start:l.pos]
	if !isFunction(name) {
		return token{}, formatErr(l.input, "Unknown time constant '%s'.", name)
	}

	l.skipWhitespace()
	if l.pos >= len(l.input) || l.input[l.pos] != '(' {
		return token{}, formatErr(l.input, "Expected '(' after '%s'.", name)
	}
	l.pos++
	l.skipWhitespace()
	if l.pos >= len(l.input) || l.input[l.pos] != ')' {
		return token{}, formatErr(l.input, "Expected ')' after '%s('.", name)
	}
	l.pos++

	return token{
		kind:  tokenFunction,
		text:  strings.ToLower(name) + "()",
		start: start,
		end:   l.pos,
	}, nil
}

func parseInstant(s string) (time.Time, bool) {
	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}
