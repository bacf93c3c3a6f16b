package models

import (
	"math"
	"strconv"
	"strings"

	"github.com/novonordisk-research/vcf-parser/models/constants"
	scalarType "github.com/novonordisk-research/vcf-parser/models/constants/scalar-type"
)

type ValueKind uint8

// The zero Value is Missing.
const (
	MissingKind ValueKind = iota
	IntegerKind
	FloatKind
	TextKind
	ListKind
	FlagKind
)

type Value struct {
	Kind  ValueKind
	Int   int64
	Float float64
	Text  string
	Items []Value

	// source text of a decoded scalar, reproduced verbatim in tabular output
	Raw string
}

func Missing() Value { return Value{} }

func Integer(i int64) Value { return Value{Kind: IntegerKind, Int: i} }

func Float(f float64) Value { return Value{Kind: FloatKind, Float: f} }

func Text(s string) Value { return Value{Kind: TextKind, Text: s, Raw: s} }

func List(items []Value) Value { return Value{Kind: ListKind, Items: items} }

func FlagSet() Value { return Value{Kind: FlagKind} }

func (v Value) WithRaw(raw string) Value {
	v.Raw = raw
	return v
}

func (v Value) IsMissing() bool { return v.Kind == MissingKind }

// Number reports the numeric reading of the value, parsing text when needed.
func (v Value) Number() (float64, bool) {
	switch v.Kind {
	case IntegerKind:
		return float64(v.Int), true
	case FloatKind:
		return v.Float, true
	case FlagKind:
		return 1, true
	case TextKind:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Text), 64)
		return f, err == nil
	}
	return 0, false
}

// String renders the value as a tabular cell; Missing renders empty.
func (v Value) String() string {
	switch v.Kind {
	case MissingKind:
		return ""
	case ListKind:
		parts := make([]string, len(v.Items))
		for i, item := range v.Items {
			if item.IsMissing() {
				parts[i] = "."
				continue
			}
			parts[i] = item.String()
		}
		return strings.Join(parts, ",")
	case FlagKind:
		return "true"
	}

	if v.Raw != "" {
		return v.Raw
	}
	switch v.Kind {
	case IntegerKind:
		return strconv.FormatInt(v.Int, 10)
	case FloatKind:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	default:
		return v.Text
	}
}

// Interface converts the value into its JSON representation.
func (v Value) Interface() interface{} {
	switch v.Kind {
	case IntegerKind:
		return v.Int
	case FloatKind:
		// JSON has no spelling for NaN or the infinities
		if math.IsNaN(v.Float) || math.IsInf(v.Float, 0) {
			return v.String()
		}
		return v.Float
	case TextKind:
		return v.Text
	case FlagKind:
		return true
	case ListKind:
		items := make([]interface{}, len(v.Items))
		for i, item := range v.Items {
			items[i] = item.Interface()
		}
		return items
	default:
		return nil
	}
}

// ParseLoose types an annotation sub-value without a declared type:
// empty is Missing, text holding '.', 'e' or 'E' is tried as a float,
// anything else as an integer, falling back to text.
func ParseLoose(raw string) Value {
	if raw == "" {
		return Missing()
	}
	if strings.ContainsAny(raw, ".eE") {
		if f, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return Float(f).WithRaw(raw)
		}
		return Text(raw)
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return Integer(i).WithRaw(raw)
	}
	return Text(raw)
}

// Coerce converts raw text to the declared scalar type.
// "." is the VCF missing marker and yields Missing without error.
func Coerce(raw string, t constants.ScalarType) (Value, bool) {
	if raw == "." || raw == "" {
		return Missing(), true
	}

	switch t {
	case scalarType.Integer:
		i, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Missing(), false
		}
		return Integer(i).WithRaw(raw), true
	case scalarType.Float:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Missing(), false
		}
		return Float(f).WithRaw(raw), true
	case scalarType.Flag:
		return FlagSet(), true
	default:
		return Text(raw), true
	}
}
