package filter

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokWord
	tokString
	tokOperator
	tokLParen
	tokRParen
	tokComma
)

type token struct {
	kind   tokenKind
	text   string
	offset int
}

const operatorRunes = "=!<>≠≤≥∈"

func isWordRune(r rune) bool {
	return !unicode.IsSpace(r) && !strings.ContainsRune(`(),"'`+operatorRunes, r)
}

func lex(src string) ([]token, error) {
	var toks []token

	for i := 0; i < len(src); {
		r, size := utf8.DecodeRuneInString(src[i:])

		switch {
		case unicode.IsSpace(r):
			i += size

		case r == '(':
			toks = append(toks, token{tokLParen, "(", i})
			i += size
		case r == ')':
			toks = append(toks, token{tokRParen, ")", i})
			i += size
		case r == ',':
			toks = append(toks, token{tokComma, ",", i})
			i += size

		case r == '"' || r == '\'':
			text, next, ok := scanQuoted(src, i)
			if !ok {
				return nil, &FilterSyntaxError{Fragment: src[i:], Offset: i, Reason: "unterminated string"}
			}
			toks = append(toks, token{tokString, text, i})
			i = next

		case r == '≠' || r == '≤' || r == '≥' || r == '∈':
			toks = append(toks, token{tokOperator, string(r), i})
			i += size

		case strings.ContainsRune("=!<>", r):
			j := i
			for j < len(src) && strings.IndexByte("=!<>", src[j]) >= 0 {
				j++
			}
			toks = append(toks, token{tokOperator, src[i:j], i})
			i = j

		default:
			j := i
			for j < len(src) {
				r, size := utf8.DecodeRuneInString(src[j:])
				if !isWordRune(r) {
					break
				}
				j += size
			}
			toks = append(toks, token{tokWord, src[i:j], i})
			i = j
		}
	}

	return append(toks, token{tokEOF, "", len(src)}), nil
}

// scanQuoted reads a string opened at src[start]; a backslash escapes
// the next byte.
func scanQuoted(src string, start int) (string, int, bool) {
	quote := src[start]
	var b strings.Builder

	for i := start + 1; i < len(src); i++ {
		c := src[i]
		switch {
		case c == '\\' && i+1 < len(src):
			i++
			b.WriteByte(src[i])
		case c == quote:
			return b.String(), i + 1, true
		default:
			b.WriteByte(c)
		}
	}
	return "", len(src), false
}
