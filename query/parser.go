package query

import (
	"fmt"
	"strconv"
	"strings"
)

// Parser builds an Expr from a field expression such as
// "round(sum(${bytes}) / count(), 2)".
//
// Grammar:
//
//	expr    = term { ("+" | "-") term }
//	term    = unary { ("*" | "/") unary }
//	unary   = "-" unary | primary
//	primary = number | string | "${" name "}" | name "(" [args] ")" |
//	          "true" | "false" | "null" | name | "(" expr ")"
type Parser struct {
	lexer   *Lexer
	current Token
	input   string

	resolve func(name string) int
}

// NewParser creates a parser. resolve maps a referenced column name to
// its positional index in input rows.
func NewParser(input string, resolve func(name string) int) *Parser {
	p := &Parser{
		lexer:   NewLexer(input),
		input:   input,
		resolve: resolve,
	}
	p.advance()
	return p
}

// ParseExpression parses a whole field expression. An empty expression
// always evaluates to null.
func ParseExpression(input string, resolve func(name string) int) (Expr, error) {
	if strings.TrimSpace(input) == "" {
		return &literal{}, nil
	}
	p := NewParser(input, resolve)
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.current.Type != TokenEOF {
		return nil, p.errorf("unexpected %q", p.current.Value)
	}
	return expr, nil
}

func (p *Parser) advance() {
	p.current = p.lexer.NextToken()
}

func (p *Parser) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("expression %q at position %d: %s", p.input, p.current.Pos, fmt.Sprintf(format, args...))
}

func (p *Parser) parseExpr() (Expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.current.Type == TokenPlus || p.current.Type == TokenMinus {
		name := "ADD"
		if p.current.Type == TokenMinus {
			name = "SUBTRACT"
		}
		p.advance()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = p.newCall(name, left, right)
	}
	return left, nil
}

func (p *Parser) parseTerm() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.current.Type == TokenStar || p.current.Type == TokenSlash {
		name := "MULTIPLY"
		if p.current.Type == TokenSlash {
			name = "DIVIDE"
		}
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = p.newCall(name, left, right)
	}
	return left, nil
}

func (p *Parser) parseUnary() (Expr, error) {
	if p.current.Type == TokenMinus {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if lit, ok := operand.(*literal); ok {
			if n, ok := lit.value.(float64); ok {
				return &literal{value: -n}, nil
			}
		}
		return p.newCall("NEGATE", operand), nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (Expr, error) {
	tok := p.current

	switch tok.Type {
	case TokenNumber:
		p.advance()
		n, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("expression %q at position %d: invalid number %q", p.input, tok.Pos, tok.Value)
		}
		return &literal{value: n}, nil

	case TokenString:
		p.advance()
		return &literal{value: tok.Value}, nil

	case TokenFieldRef:
		p.advance()
		return p.newFieldRef(tok.Value), nil

	case TokenLeftParen:
		p.advance()
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.current.Type != TokenRightParen {
			return nil, p.errorf("expected ')'")
		}
		p.advance()
		return expr, nil

	case TokenIdent:
		p.advance()
		if p.current.Type == TokenLeftParen {
			return p.parseFunction(tok)
		}
		switch strings.ToLower(tok.Value) {
		case "true":
			return &literal{value: true}, nil
		case "false":
			return &literal{value: false}, nil
		case "null":
			return &literal{}, nil
		}
		return p.newFieldRef(tok.Value), nil

	case TokenError:
		return nil, p.errorf("%s", tok.Value)

	case TokenEOF:
		return nil, p.errorf("unexpected end of expression")

	default:
		return nil, p.errorf("unexpected %q", tok.Value)
	}
}

// parseFunction parses the argument list of a call, the cursor being on '('
func (p *Parser) parseFunction(name Token) (Expr, error) {
	p.advance() // (

	var args []Expr
	if p.current.Type != TokenRightParen {
		for {
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.current.Type != TokenComma {
				break
			}
			p.advance()
		}
	}
	if p.current.Type != TokenRightParen {
		return nil, p.errorf("expected ')' after arguments of %s", name.Value)
	}
	p.advance()

	if agg, ok := GetAggregate(name.Value); ok {
		if len(args) < agg.MinArity || len(args) > agg.MaxArity {
			return nil, fmt.Errorf("expression %q: %s expects %s, got %d", p.input, agg.Name, arity(agg.MinArity, agg.MaxArity), len(args))
		}
		var arg Expr
		if len(args) == 1 {
			arg = args[0]
			if arg.HasAggregate() {
				return nil, fmt.Errorf("expression %q: aggregate functions cannot be nested inside %s", p.input, agg.Name)
			}
		}
		return &aggregateCall{fn: agg, arg: arg}, nil
	}

	fn, ok := globalRegistry.Get(name.Value)
	if !ok {
		return nil, fmt.Errorf("expression %q: unknown function %s", p.input, name.Value)
	}
	if len(args) < fn.MinArity() || (fn.MaxArity() >= 0 && len(args) > fn.MaxArity()) {
		return nil, fmt.Errorf("expression %q: %s expects %s, got %d", p.input, strings.ToLower(fn.Name()), arity(fn.MinArity(), fn.MaxArity()), len(args))
	}
	return p.newCall(fn.Name(), args...), nil
}

func (p *Parser) newCall(name string, args ...Expr) Expr {
	fn, _ := globalRegistry.Get(name)
	aggregate := false
	for _, arg := range args {
		aggregate = aggregate || arg.HasAggregate()
	}
	return &call{fn: fn, args: args, aggregate: aggregate}
}

func (p *Parser) newFieldRef(name string) Expr {
	index := -1
	if p.resolve != nil {
		index = p.resolve(name)
	}
	return &fieldRef{name: name, index: index}
}

func arity(minArgs, maxArgs int) string {
	switch {
	case maxArgs < 0:
		return fmt.Sprintf("at least %d arguments", minArgs)
	case minArgs == maxArgs:
		return fmt.Sprintf("%d arguments", minArgs)
	default:
		return fmt.Sprintf("%d to %d arguments", minArgs, maxArgs)
	}
}
