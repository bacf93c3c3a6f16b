package filter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/novonordisk-research/vcf-parser/fixtures"
	"github.com/novonordisk-research/vcf-parser/models/constants/operator"
)

func mustCompile(t *testing.T, text string) *Spec {
	spec, err := CompileExpression(text)
	assert.Nil(t, err, text)
	return spec
}

func TestCompileExpression(t *testing.T) {
	t.Run("should bind AND and OR equally from the left", func(t *testing.T) {
		spec := mustCompile(t, "a eq 1 AND b eq 2 OR c eq 3")
		or, ok := spec.Root.(*Or)
		assert.True(t, ok)
		_, ok = or.Left.(*And)
		assert.True(t, ok)
		assert.Equal(t, "((a eq 1 AND b eq 2) OR c eq 3)", spec.String())

		spec = mustCompile(t, "a eq 1 OR b eq 2 AND c eq 3")
		and, ok := spec.Root.(*And)
		assert.True(t, ok)
		_, ok = and.Left.(*Or)
		assert.True(t, ok)
		assert.Equal(t, "((a eq 1 OR b eq 2) AND c eq 3)", spec.String())
	})

	t.Run("should honour parentheses", func(t *testing.T) {
		spec := mustCompile(t, "a eq 1 and (b eq 2 or c eq 3)")
		assert.Equal(t, "(a eq 1 AND (b eq 2 OR c eq 3))", spec.String())
	})

	t.Run("should accept every operator spelling", func(t *testing.T) {
		cases := map[string]string{
			"x = 1": "eq", "x == 1": "eq", "x != 1": "ne", "x ≠ 1": "ne",
			"x < 1": "lt", "x<=1": "le", "x ≤ 1": "le", "x > 1": "gt",
			"x >= 1": "ge", "x ≥ 1": "ge", "x GE 1": "ge",
		}
		for text, expected := range cases {
			compare, ok := mustCompile(t, text).Root.(*Compare)
			assert.True(t, ok, text)
			assert.Equal(t, expected, string(compare.Op), text)
		}
	})

	t.Run("should build membership tests", func(t *testing.T) {
		for _, text := range []string{"CSQ.IMPACT in (HIGH, 'MODERATE')", "CSQ.IMPACT ∈ (HIGH,MODERATE)"} {
			m, ok := mustCompile(t, text).Root.(*Membership)
			assert.True(t, ok, text)
			assert.Equal(t, []Literal{TextOf("HIGH"), TextOf("MODERATE")}, m.Set)
			assert.Equal(t, []string{"CSQ", "IMPACT"}, m.Path.Segments)
		}
	})

	t.Run("should type unquoted literals", func(t *testing.T) {
		lit := func(text string) Literal { return mustCompile(t, "x eq "+text).Root.(*Compare).Literal }

		assert.Equal(t, NumberOf(0.01), lit("0.01"))
		assert.Equal(t, IntegerOf(-2), lit("-2"))
		assert.Equal(t, IntegerOf(9007199254740993), lit("9007199254740993"))
		assert.Equal(t, NumberOf(1e-5), lit("1e-5"))
		assert.Equal(t, BoolOf(true), lit("TRUE"))
		assert.Equal(t, Null(), lit("null"))
		assert.Equal(t, TextOf("ENST0001.5"), lit("ENST0001.5"))
		assert.Equal(t, TextOf("12"), lit(`"12"`))
		assert.Equal(t, TextOf(`say "hi"`), lit(`"say \"hi\""`))
	})

	t.Run("should keep dots inside paths", func(t *testing.T) {
		compare := mustCompile(t, "info.gnomAD_exome_V4.0_AF < 0.001").Root.(*Compare)
		assert.Equal(t, "info.gnomAD_exome_V4.0_AF", compare.Path.Raw)
		assert.Equal(t, operator.Lt, compare.Op)
	})

	t.Run("should normalize unicode before parsing", func(t *testing.T) {
		compare := mustCompile(t, "SYMBOL eq \"Cafe\u0301\"").Root.(*Compare)
		assert.Equal(t, "Caf\u00e9", compare.Literal.Text)
	})
}

func TestCompileExpressionErrors(t *testing.T) {
	cases := map[string]string{
		"":                     "empty expression",
		"   ":                  "empty expression",
		"a eq 1)":              "unmatched ')'",
		"(a eq 1":              "unmatched '('",
		"()":                   "empty parentheses",
		"a eq 1 AND":           "expected a condition",
		"AND a eq 1":           "expected a condition",
		"a":                    "expected an operator",
		", a eq 1":             "expected a field path",
		"a like 1":             `unknown operator "like"`,
		"a =< 1":               `unknown operator "=<"`,
		"a eq":                 "expected a value",
		"a eq 1 b eq 2":        "expected AND or OR",
		"a in HIGH":            "expected '(' after in",
		"a in (HIGH":           "unmatched '('",
		`a eq "unterminated`:   "unterminated string",
		"a eq 1 AND (b eq 2 c": "expected AND, OR or ')'",
	}

	for text, reason := range cases {
		_, err := CompileExpression(text)

		var syntaxErr *FilterSyntaxError
		if assert.ErrorAs(t, err, &syntaxErr, text) {
			assert.Contains(t, syntaxErr.Reason, reason, text)
		}
	}

	t.Run("should point at the offending token", func(t *testing.T) {
		_, err := CompileExpression("a eq 1 AND b ?? 2")
		var syntaxErr *FilterSyntaxError
		assert.ErrorAs(t, err, &syntaxErr)
		assert.Equal(t, 13, syntaxErr.Offset)
		assert.Equal(t, "?? 2", syntaxErr.Fragment)
	})

	t.Run("should cut long fragments on a rune boundary", func(t *testing.T) {
		_, err := CompileExpression("a eq 1 AND b ?? " + strings.Repeat("x", 20) + "≠ 1")
		var syntaxErr *FilterSyntaxError
		assert.ErrorAs(t, err, &syntaxErr)
		assert.True(t, utf8.ValidString(syntaxErr.Fragment))
		assert.Equal(t, "?? "+strings.Repeat("x", 20), syntaxErr.Fragment)
	})
}

func TestCompileDocument(t *testing.T) {
	t.Run("should compile to the same tree as the inline spelling", func(t *testing.T) {
		fromDocument, err := CompileDocument([]byte(fixtures.DemoRules))
		assert.Nil(t, err)
		fromExpression := mustCompile(t, fixtures.DemoExpression)

		assert.Equal(t, fromExpression.String(), fromDocument.String())
		assert.Equal(t, fromExpression.Root, fromDocument.Root)
	})

	t.Run("should read JSON documents", func(t *testing.T) {
		spec, err := CompileDocument([]byte(`{"or": [{"path": "DP", "op": "gt", "value": 10}, {"path": "DB", "op": "eq", "value": true}]}`))
		assert.Nil(t, err)
		assert.Equal(t, "(DP gt 10 OR DB eq true)", spec.String())
	})

	t.Run("should accept a values list and a single membership value", func(t *testing.T) {
		spec, err := CompileDocument([]byte("path: CSQ.IMPACT\nvalues: [HIGH]\n"))
		assert.Nil(t, err)
		assert.Equal(t, `CSQ.IMPACT in ("HIGH")`, spec.String())

		spec, err = CompileDocument([]byte("path: CSQ.IMPACT\nop: in\nvalue: HIGH\n"))
		assert.Nil(t, err)
		assert.Equal(t, `CSQ.IMPACT in ("HIGH")`, spec.String())
	})

	t.Run("should type yes-no words like the inline grammar", func(t *testing.T) {
		for _, word := range []string{"Y", "yes", "on", "N", "no", "off"} {
			fromDocument, err := CompileDocument([]byte("{name: chromosome, op: eq, value: " + word + "}"))
			assert.Nil(t, err, word)
			fromExpression := mustCompile(t, "chromosome == "+word)

			assert.Equal(t, TextOf(word), fromDocument.Root.(*Compare).Literal, word)
			assert.Equal(t, fromExpression.Root, fromDocument.Root, word)
		}
	})

	t.Run("should keep quoted scalars as text", func(t *testing.T) {
		spec, err := CompileDocument([]byte("path: DB\nop: eq\nvalue: \"true\"\n"))
		assert.Nil(t, err)
		assert.Equal(t, TextOf("true"), spec.Root.(*Compare).Literal)

		spec, err = CompileDocument([]byte("path: POS\nop: eq\nvalue: 9007199254740993\n"))
		assert.Nil(t, err)
		assert.Equal(t, IntegerOf(9007199254740993), spec.Root.(*Compare).Literal)
	})

	t.Run("should read a null value as a null literal", func(t *testing.T) {
		spec, err := CompileDocument([]byte("path: CSQ.LoF\nop: ne\nvalue: null\n"))
		assert.Nil(t, err)
		assert.Equal(t, Null(), spec.Root.(*Compare).Literal)
	})

	t.Run("should reject malformed documents", func(t *testing.T) {
		cases := map[string]string{
			"AND: []":                                     "empty connective list",
			"AND: [{path: a, op: eq, value: 1}]\npath: b": "only key",
			"op: eq\nvalue: 1":                            "condition without path",
			"path: a\nop: like\nvalue: 1":                 `unknown operator "like"`,
			"path: a\nop: eq":                             "condition without value",
			"path: a\nop: in\nvalue: []":                  "membership test without values",
			"path: a\nop: eq\nvalue: 1\ncolor: red":       "color",
			"- a":                                         "expected a mapping",
			"path: a\nop: eq\nvalue: {x: 1}":              "unsupported value",
		}
		for doc, reason := range cases {
			_, err := CompileDocument([]byte(doc))
			var syntaxErr *FilterSyntaxError
			if assert.ErrorAs(t, err, &syntaxErr, doc) {
				assert.Contains(t, syntaxErr.Reason, reason, doc)
			}
		}
	})
}

func TestCompile(t *testing.T) {
	t.Run("should match everything without a filter", func(t *testing.T) {
		for _, arg := range []string{"", "-"} {
			spec, err := Compile(arg)
			assert.Nil(t, err)
			assert.True(t, spec.MatchesAll())
		}
	})

	t.Run("should read rule documents from files", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.yml")
		assert.Nil(t, os.WriteFile(path, []byte(fixtures.DemoRules), 0o644))

		spec, err := Compile(path)
		assert.Nil(t, err)
		assert.Equal(t, path, spec.Source)
		assert.Equal(t, mustCompile(t, fixtures.DemoExpression).String(), spec.String())
	})

	t.Run("should otherwise compile an inline expression", func(t *testing.T) {
		spec, err := Compile("DP gt 10")
		assert.Nil(t, err)
		assert.Equal(t, "DP gt 10", spec.String())
	})
}
