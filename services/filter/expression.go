package filter

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/novonordisk-research/vcf-parser/models/constants/operator"
)

/*
	Inline grammar:

		expr       := term ( (AND | OR) term )*
		term       := "(" expr ")" | comparison | membership
		comparison := path op literal
		membership := path ("in" | "∈") "(" literal ("," literal)* ")"

	AND and OR bind equally and group left to right:
	"a AND b OR c" is ((a AND b) OR c).
*/

type parser struct {
	src  string
	toks []token
	pos  int
}

// CompileExpression compiles the inline filter syntax.
func CompileExpression(text string) (*Spec, error) {
	text = norm.NFC.String(text)
	if strings.TrimSpace(text) == "" {
		return nil, &FilterSyntaxError{Reason: "empty expression"}
	}

	toks, err := lex(text)
	if err != nil {
		return nil, err
	}

	p := &parser{src: text, toks: toks}
	root, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	switch tok := p.peek(); tok.kind {
	case tokEOF:
	case tokRParen:
		return nil, p.errorAt(tok, "unmatched ')'")
	default:
		return nil, p.errorAt(tok, "expected AND or OR")
	}

	return &Spec{Root: root, Source: text}, nil
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	tok := p.toks[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) errorAt(tok token, reason string) error {
	fragment := p.src[tok.offset:]
	if len(fragment) > 24 {
		cut := 24
		for cut > 0 && !utf8.RuneStart(fragment[cut]) {
			cut--
		}
		fragment = fragment[:cut]
	}
	return &FilterSyntaxError{Fragment: fragment, Offset: tok.offset, Reason: reason}
}

func connective(tok token) string {
	if tok.kind != tokWord {
		return ""
	}
	switch strings.ToUpper(tok.text) {
	case "AND":
		return "AND"
	case "OR":
		return "OR"
	}
	return ""
}

func (p *parser) parseExpr() (Node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}

	for {
		conn := connective(p.peek())
		if conn == "" {
			return left, nil
		}
		p.next()

		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		if conn == "AND" {
			left = &And{Left: left, Right: right}
		} else {
			left = &Or{Left: left, Right: right}
		}
	}
}

func (p *parser) parseTerm() (Node, error) {
	tok := p.next()

	switch tok.kind {
	case tokLParen:
		if p.peek().kind == tokRParen {
			return nil, p.errorAt(tok, "empty parentheses")
		}
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if closing := p.peek(); closing.kind != tokRParen {
			if closing.kind == tokEOF {
				return nil, p.errorAt(tok, "unmatched '('")
			}
			return nil, p.errorAt(closing, "expected AND, OR or ')'")
		}
		p.next()
		return inner, nil

	case tokRParen:
		return nil, p.errorAt(tok, "unmatched ')'")

	case tokEOF:
		return nil, p.errorAt(tok, "expected a condition")

	case tokWord:
		if connective(tok) != "" {
			return nil, p.errorAt(tok, "expected a condition")
		}
		return p.parseCondition(NewPath(tok.text))
	}

	return nil, p.errorAt(tok, "expected a field path")
}

func (p *parser) parseCondition(path Path) (Node, error) {
	tok := p.next()
	if tok.kind != tokOperator && tok.kind != tokWord {
		return nil, p.errorAt(tok, "expected an operator")
	}

	op := operator.CastToOperator(tok.text)
	if op == operator.Unknown {
		return nil, p.errorAt(tok, fmt.Sprintf("unknown operator %q", tok.text))
	}

	if op == operator.In {
		return p.parseSet(path)
	}

	lit, err := p.parseLiteral()
	if err != nil {
		return nil, err
	}
	return &Compare{Path: path, Op: op, Literal: lit}, nil
}

func (p *parser) parseSet(path Path) (Node, error) {
	open := p.next()
	if open.kind != tokLParen {
		return nil, p.errorAt(open, "expected '(' after in")
	}

	var set []Literal
	for {
		lit, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		set = append(set, lit)

		tok := p.next()
		switch tok.kind {
		case tokComma:
			continue
		case tokRParen:
			return &Membership{Path: path, Set: set}, nil
		case tokEOF:
			return nil, p.errorAt(open, "unmatched '('")
		default:
			return nil, p.errorAt(tok, "expected ',' or ')'")
		}
	}
}

func (p *parser) parseLiteral() (Literal, error) {
	tok := p.next()
	switch tok.kind {
	case tokString:
		return TextOf(tok.text), nil
	case tokWord:
		return wordLiteral(tok.text), nil
	}
	return Literal{}, p.errorAt(tok, "expected a value")
}

// wordLiteral types an unquoted value.
func wordLiteral(word string) Literal {
	switch strings.ToLower(word) {
	case "true":
		return BoolOf(true)
	case "false":
		return BoolOf(false)
	case "null", "none":
		return Null()
	}

	if looksNumeric(word) {
		if i, err := strconv.ParseInt(word, 10, 64); err == nil {
			return IntegerOf(i)
		}
		if f, err := strconv.ParseFloat(word, 64); err == nil {
			return NumberOf(f)
		}
	}
	return TextOf(word)
}

func looksNumeric(word string) bool {
	c := word[0]
	return (c >= '0' && c <= '9') || c == '-' || c == '+' || c == '.'
}
