package filter

import (
	"strconv"
	"strings"

	"github.com/novonordisk-research/vcf-parser/models"
	"github.com/novonordisk-research/vcf-parser/models/constants"
	"github.com/novonordisk-research/vcf-parser/models/constants/operator"
)

// Resolver binds filter paths to record columns; *schema.Registry
// implements it.
type Resolver interface {
	ResolvePath(raw string) models.FieldRef
	KnownRef(ref models.FieldRef) bool
}

// Evaluator is immutable once built and safe for concurrent use.
type Evaluator struct {
	spec *Spec
	refs map[string]models.FieldRef
}

// NewEvaluator binds every path of spec once. Paths the header does not
// declare are returned so callers can warn; they evaluate to Missing.
func NewEvaluator(spec *Spec, resolver Resolver) (*Evaluator, []string) {
	e := &Evaluator{spec: spec, refs: map[string]models.FieldRef{}}
	if spec.MatchesAll() {
		return e, nil
	}

	var unknown []string
	walk(spec.Root, func(p Path) {
		if _, done := e.refs[p.Raw]; done {
			return
		}
		ref := resolver.ResolvePath(p.Raw)
		if !resolver.KnownRef(ref) {
			unknown = append(unknown, p.Raw)
		}
		e.refs[p.Raw] = ref
	})
	return e, unknown
}

func walk(n Node, visit func(Path)) {
	switch t := n.(type) {
	case *Compare:
		visit(t.Path)
	case *Membership:
		visit(t.Path)
	case *And:
		walk(t.Left, visit)
		walk(t.Right, visit)
	case *Or:
		walk(t.Left, visit)
		walk(t.Right, visit)
	}
}

func (e *Evaluator) MatchesAll() bool {
	return e.spec.MatchesAll()
}

func (e *Evaluator) Matches(jr *models.JoinedRecord) bool {
	if e.spec.MatchesAll() {
		return true
	}
	return e.eval(e.spec.Root, jr)
}

// Select returns the joined records satisfying the filter.
func (e *Evaluator) Select(joined []*models.JoinedRecord) []*models.JoinedRecord {
	if e.spec.MatchesAll() {
		return joined
	}
	var out []*models.JoinedRecord
	for _, jr := range joined {
		if e.eval(e.spec.Root, jr) {
			out = append(out, jr)
		}
	}
	return out
}

func (e *Evaluator) eval(n Node, jr *models.JoinedRecord) bool {
	switch t := n.(type) {
	case *And:
		return e.eval(t.Left, jr) && e.eval(t.Right, jr)
	case *Or:
		return e.eval(t.Left, jr) || e.eval(t.Right, jr)
	case *Compare:
		return Test(e.refs[t.Path.Raw].Lookup(jr), t.Op, t.Literal)
	case *Membership:
		v := e.refs[t.Path.Raw].Lookup(jr)
		for _, lit := range t.Set {
			if Test(v, operator.Eq, lit) {
				return true
			}
		}
	}
	return false
}

// Test applies one comparison. Missing never satisfies any operator,
// including ne. Lists match when any present element does.
func Test(v models.Value, op constants.Operator, lit Literal) bool {
	switch v.Kind {
	case models.MissingKind:
		return false
	case models.ListKind:
		for _, item := range v.Items {
			if Test(item, op, lit) {
				return true
			}
		}
		return false
	}

	switch lit.Kind {
	case NullLiteral:
		return op == operator.Ne

	case BoolLiteral:
		b, ok := truthiness(v)
		switch op {
		case operator.Eq:
			return ok && b == lit.Bool
		case operator.Ne:
			return !ok || b != lit.Bool
		}
		return false
	}

	if lit.Integral {
		if vi, ok := integer(v); ok {
			return compareIntegers(vi, op, lit.Int)
		}
	}

	if operator.IsOrdering(op) {
		vn, ok := v.Number()
		ln, lok := lit.number()
		if !ok || !lok {
			return false
		}
		switch op {
		case operator.Lt:
			return vn < ln
		case operator.Le:
			return vn <= ln
		case operator.Gt:
			return vn > ln
		default:
			return vn >= ln
		}
	}

	equal := false
	if vn, ok := v.Number(); ok {
		if ln, lok := lit.number(); lok {
			equal = vn == ln
		} else {
			equal = text(v) == lit.Text
		}
	} else {
		equal = text(v) == lit.Text
	}

	switch op {
	case operator.Eq, operator.In:
		return equal
	case operator.Ne:
		return !equal
	}
	return false
}

// integer reads whole-number values exactly; float64 cannot tell
// neighbouring integers apart beyond 2^53.
func integer(v models.Value) (int64, bool) {
	switch v.Kind {
	case models.IntegerKind:
		return v.Int, true
	case models.TextKind:
		i, err := strconv.ParseInt(strings.TrimSpace(v.Text), 10, 64)
		return i, err == nil
	}
	return 0, false
}

func compareIntegers(v int64, op constants.Operator, lit int64) bool {
	switch op {
	case operator.Eq, operator.In:
		return v == lit
	case operator.Ne:
		return v != lit
	case operator.Lt:
		return v < lit
	case operator.Le:
		return v <= lit
	case operator.Gt:
		return v > lit
	case operator.Ge:
		return v >= lit
	}
	return false
}

func text(v models.Value) string {
	if v.Kind == models.TextKind {
		return v.Text
	}
	return v.String()
}

// truthiness reads flags, numbers and YAML 1.1 style words as booleans.
func truthiness(v models.Value) (bool, bool) {
	switch v.Kind {
	case models.FlagKind:
		return true, true
	case models.IntegerKind:
		return v.Int != 0, true
	case models.FloatKind:
		return v.Float != 0, true
	case models.TextKind:
		switch strings.ToLower(v.Text) {
		case "true", "yes", "y", "on", "1":
			return true, true
		case "false", "no", "n", "off", "0":
			return false, true
		}
	}
	return false, false
}
