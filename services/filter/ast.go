package filter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/novonordisk-research/vcf-parser/models/constants"
)

// Node is a compiled predicate. Both the inline grammar and the rule
// document compile to the same node types.
type Node interface {
	isNode()
	String() string
}

type (
	Path struct {
		Raw      string
		Segments []string
	}

	Compare struct {
		Path    Path
		Op      constants.Operator
		Literal Literal
	}

	Membership struct {
		Path Path
		Set  []Literal
	}

	And struct {
		Left, Right Node
	}

	Or struct {
		Left, Right Node
	}
)

func (*Compare) isNode()    {}
func (*Membership) isNode() {}
func (*And) isNode()        {}
func (*Or) isNode()         {}

func NewPath(raw string) Path {
	return Path{Raw: raw, Segments: strings.Split(raw, ".")}
}

func (c *Compare) String() string {
	return fmt.Sprintf("%s %s %s", c.Path.Raw, c.Op, c.Literal)
}

func (m *Membership) String() string {
	items := make([]string, len(m.Set))
	for i, lit := range m.Set {
		items[i] = lit.String()
	}
	return fmt.Sprintf("%s in (%s)", m.Path.Raw, strings.Join(items, ", "))
}

func (a *And) String() string { return fmt.Sprintf("(%s AND %s)", a.Left, a.Right) }

func (o *Or) String() string { return fmt.Sprintf("(%s OR %s)", o.Left, o.Right) }

type LiteralKind uint8

const (
	NumberLiteral LiteralKind = iota
	TextLiteral
	BoolLiteral
	NullLiteral
)

// Literal is a comparison constant. Numbers keep a canonical text
// spelling for string comparisons.
type Literal struct {
	Kind   LiteralKind
	Number float64
	Text   string
	Bool   bool

	// whole numbers also keep their exact value in Int
	Integral bool
	Int      int64
}

func NumberOf(f float64) Literal {
	return Literal{Kind: NumberLiteral, Number: f, Text: strconv.FormatFloat(f, 'g', -1, 64)}
}

func IntegerOf(i int64) Literal {
	return Literal{Kind: NumberLiteral, Number: float64(i), Text: strconv.FormatInt(i, 10), Integral: true, Int: i}
}

func TextOf(s string) Literal { return Literal{Kind: TextLiteral, Text: s} }

func BoolOf(b bool) Literal { return Literal{Kind: BoolLiteral, Bool: b} }

func Null() Literal { return Literal{Kind: NullLiteral} }

// number reports the numeric reading of the literal; text literals
// are parsed.
func (l Literal) number() (float64, bool) {
	switch l.Kind {
	case NumberLiteral:
		return l.Number, true
	case TextLiteral:
		f, err := strconv.ParseFloat(strings.TrimSpace(l.Text), 64)
		return f, err == nil
	}
	return 0, false
}

func (l Literal) String() string {
	switch l.Kind {
	case NumberLiteral:
		return l.Text
	case TextLiteral:
		return strconv.Quote(l.Text)
	case BoolLiteral:
		return strconv.FormatBool(l.Bool)
	default:
		return "null"
	}
}

// Spec is a compiled filter; a nil Root matches everything.
type Spec struct {
	Root   Node
	Source string
}

func (s *Spec) MatchesAll() bool {
	return s == nil || s.Root == nil
}

func (s *Spec) String() string {
	if s.MatchesAll() {
		return "<match all>"
	}
	return s.Root.String()
}

// FilterSyntaxError is fatal at startup.
type FilterSyntaxError struct {
	Fragment string
	Offset   int
	Reason   string
}

func (e *FilterSyntaxError) Error() string {
	if e.Fragment == "" {
		return fmt.Sprintf("filter: %s", e.Reason)
	}
	return fmt.Sprintf("filter: %s at offset %d near %q", e.Reason, e.Offset, e.Fragment)
}
