package query

import (
	"strings"
	"unicode"
)

// TokenType represents the type of a token
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenError

	TokenFieldRef // ${name}
	TokenString
	TokenNumber
	TokenIdent

	TokenPlus       // +
	TokenMinus      // -
	TokenStar       // *
	TokenSlash      // /
	TokenComma      // ,
	TokenLeftParen  // (
	TokenRightParen // )
)

// Token represents a lexical token
type Token struct {
	Type  TokenType
	Value string
	Pos   int
}

// Lexer tokenizes field expressions
type Lexer struct {
	input string
	pos   int
	start int
	ch    rune
}

// NewLexer creates a new lexer
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

// readChar reads the next character
func (l *Lexer) readChar() {
	if l.pos >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = rune(l.input[l.pos])
	}
	l.pos++
}

// skipWhitespace skips whitespace characters
func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

// readString reads a quoted string
func (l *Lexer) readString(quote rune) (string, bool) {
	var result strings.Builder
	l.readChar() // skip opening quote

	for l.ch != quote && l.ch != 0 {
		if l.ch == '\\' {
			l.readChar()
			switch l.ch {
			case 'n':
				result.WriteRune('\n')
			case 't':
				result.WriteRune('\t')
			case 0:
				return result.String(), false
			default:
				result.WriteRune(l.ch)
			}
		} else {
			result.WriteRune(l.ch)
		}
		l.readChar()
	}

	if l.ch != quote {
		return result.String(), false
	}
	l.readChar() // skip closing quote
	return result.String(), true
}

// readFieldRef reads "${name}", the cursor being on '$'
func (l *Lexer) readFieldRef() (string, bool) {
	l.readChar() // $
	if l.ch != '{' {
		return "", false
	}
	l.readChar()

	var result strings.Builder
	for l.ch != '}' && l.ch != 0 {
		result.WriteRune(l.ch)
		l.readChar()
	}
	if l.ch != '}' {
		return result.String(), false
	}
	l.readChar()
	return result.String(), true
}

// readNumber reads an unsigned number, signs are operators
func (l *Lexer) readNumber() string {
	var result strings.Builder
	for unicode.IsDigit(l.ch) || l.ch == '.' {
		result.WriteRune(l.ch)
		l.readChar()
	}
	if l.ch == 'e' || l.ch == 'E' {
		result.WriteRune(l.ch)
		l.readChar()
		if l.ch == '+' || l.ch == '-' {
			result.WriteRune(l.ch)
			l.readChar()
		}
		for unicode.IsDigit(l.ch) {
			result.WriteRune(l.ch)
			l.readChar()
		}
	}
	return result.String()
}

// readIdentifier reads a function name or bare field name
func (l *Lexer) readIdentifier() string {
	var result strings.Builder
	for unicode.IsLetter(l.ch) || unicode.IsDigit(l.ch) || l.ch == '_' || l.ch == '.' || l.ch == ':' {
		result.WriteRune(l.ch)
		l.readChar()
	}
	return result.String()
}

// NextToken returns the next token
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()
	l.start = l.pos - 1

	var tok Token

	switch l.ch {
	case 0:
		tok = Token{Type: TokenEOF, Value: ""}
	case '+':
		tok = Token{Type: TokenPlus, Value: "+"}
		l.readChar()
	case '-':
		tok = Token{Type: TokenMinus, Value: "-"}
		l.readChar()
	case '*':
		tok = Token{Type: TokenStar, Value: "*"}
		l.readChar()
	case '/':
		tok = Token{Type: TokenSlash, Value: "/"}
		l.readChar()
	case ',':
		tok = Token{Type: TokenComma, Value: ","}
		l.readChar()
	case '(':
		tok = Token{Type: TokenLeftParen, Value: "("}
		l.readChar()
	case ')':
		tok = Token{Type: TokenRightParen, Value: ")"}
		l.readChar()
	case '$':
		name, ok := l.readFieldRef()
		if ok {
			tok = Token{Type: TokenFieldRef, Value: name}
		} else {
			tok = Token{Type: TokenError, Value: "unterminated field reference"}
		}
	case '\'', '"':
		quote := l.ch
		value, ok := l.readString(quote)
		if ok {
			tok = Token{Type: TokenString, Value: value}
		} else {
			tok = Token{Type: TokenError, Value: "unterminated string"}
		}
	default:
		if unicode.IsDigit(l.ch) || l.ch == '.' {
			tok = Token{Type: TokenNumber, Value: l.readNumber()}
		} else if unicode.IsLetter(l.ch) || l.ch == '_' || l.ch == ':' {
			tok = Token{Type: TokenIdent, Value: l.readIdentifier()}
		} else {
			tok = Token{Type: TokenError, Value: "unexpected character " + string(l.ch)}
			l.readChar()
		}
	}

	tok.Pos = l.start
	return tok
}
