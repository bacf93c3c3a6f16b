package filter

import (
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/novonordisk-research/vcf-parser/models/constants/operator"
)

/*
	Rule documents are YAML (or JSON) trees:

		AND:
		  - {name: info.AF, op: le, value: 0.01}
		  - OR:
		      - {path: CSQ.IMPACT, op: in, value: [HIGH, MODERATE]}
		      - {path: info.CADD_PHRED, operator: ">=", value: 20}

	Connective keys are case-insensitive. An n-ary list folds to the left,
	so AND: [a, b, c] compiles like "a AND b AND c".

	Unquoted scalars are typed the way the inline grammar types bare
	words, so "value: Y" is the text Y and "value: 10" the integer 10.
*/

type ruleNode struct {
	And      []interface{} `mapstructure:"and"`
	Or       []interface{} `mapstructure:"or"`
	Path     string        `mapstructure:"path"`
	Name     string        `mapstructure:"name"`
	Op       string        `mapstructure:"op"`
	Operator string        `mapstructure:"operator"`
	Value    interface{}   `mapstructure:"value"`
	Values   []interface{} `mapstructure:"values"`
}

func CompileFile(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading filter %s: %w", path, err)
	}
	spec, err := CompileDocument(data)
	if err != nil {
		return nil, err
	}
	spec.Source = path
	return spec, nil
}

func CompileDocument(data []byte) (*Spec, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, &FilterSyntaxError{Reason: fmt.Sprintf("invalid rule document: %v", err)}
	}
	doc := documentTree(&node)
	if doc == nil {
		return nil, &FilterSyntaxError{Reason: "empty rule document"}
	}

	root, err := compileRule(doc, "$")
	if err != nil {
		return nil, err
	}
	return &Spec{Root: root, Source: string(data)}, nil
}

func compileRule(raw interface{}, where string) (Node, error) {
	m, ok := raw.(map[string]interface{})
	if !ok {
		return nil, &FilterSyntaxError{Fragment: where, Reason: fmt.Sprintf("expected a mapping, got %T", raw)}
	}

	var rule ruleNode
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      &rule,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(m); err != nil {
		return nil, &FilterSyntaxError{Fragment: where, Reason: err.Error()}
	}

	_, hasAnd := lookupFold(m, "and")
	_, hasOr := lookupFold(m, "or")

	switch {
	case hasAnd && hasOr, (hasAnd || hasOr) && len(m) > 1:
		return nil, &FilterSyntaxError{Fragment: where, Reason: "a connective must be the only key of its mapping"}
	case hasAnd:
		return foldRules(rule.And, where+".AND", func(l, r Node) Node { return &And{Left: l, Right: r} })
	case hasOr:
		return foldRules(rule.Or, where+".OR", func(l, r Node) Node { return &Or{Left: l, Right: r} })
	}

	return compileCondition(rule, m, where)
}

func foldRules(children []interface{}, where string, join func(l, r Node) Node) (Node, error) {
	if len(children) == 0 {
		return nil, &FilterSyntaxError{Fragment: where, Reason: "empty connective list"}
	}

	var acc Node
	for i, child := range children {
		node, err := compileRule(child, fmt.Sprintf("%s[%d]", where, i))
		if err != nil {
			return nil, err
		}
		if acc == nil {
			acc = node
		} else {
			acc = join(acc, node)
		}
	}
	return acc, nil
}

func compileCondition(rule ruleNode, m map[string]interface{}, where string) (Node, error) {
	path := firstNonEmpty(rule.Path, rule.Name)
	if path == "" {
		return nil, &FilterSyntaxError{Fragment: where, Reason: "condition without path"}
	}

	opText := firstNonEmpty(rule.Operator, rule.Op)
	op := operator.CastToOperator(opText)
	if rule.Values != nil && (opText == "" || op == operator.In) {
		op = operator.In
	}
	if op == operator.Unknown {
		return nil, &FilterSyntaxError{Fragment: where, Reason: fmt.Sprintf("unknown operator %q", opText)}
	}

	if op == operator.In {
		items := rule.Values
		if items == nil {
			if list, ok := rule.Value.([]interface{}); ok {
				items = list
			} else if _, present := lookupFold(m, "value"); present {
				items = []interface{}{rule.Value}
			}
		}
		if len(items) == 0 {
			return nil, &FilterSyntaxError{Fragment: where, Reason: "membership test without values"}
		}

		set := make([]Literal, len(items))
		for i, item := range items {
			lit, err := documentLiteral(item, where)
			if err != nil {
				return nil, err
			}
			set[i] = lit
		}
		return &Membership{Path: NewPath(path), Set: set}, nil
	}

	if _, present := lookupFold(m, "value"); !present {
		return nil, &FilterSyntaxError{Fragment: where, Reason: "condition without value"}
	}
	lit, err := documentLiteral(rule.Value, where)
	if err != nil {
		return nil, err
	}
	return &Compare{Path: NewPath(path), Op: op, Literal: lit}, nil
}

func documentLiteral(v interface{}, where string) (Literal, error) {
	switch t := v.(type) {
	case nil:
		return Null(), nil
	case bool:
		return BoolOf(t), nil
	case int64:
		return IntegerOf(t), nil
	case float64:
		return NumberOf(t), nil
	case string:
		return TextOf(t), nil
	}
	return Literal{}, &FilterSyntaxError{Fragment: where, Reason: fmt.Sprintf("unsupported value %v", v)}
}

// documentTree lowers a YAML node into maps, slices and scalars.
// Quoted or !!str-tagged scalars stay text; plain ones go through
// wordLiteral.
func documentTree(n *yaml.Node) interface{} {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil
		}
		return documentTree(n.Content[0])

	case yaml.AliasNode:
		return documentTree(n.Alias)

	case yaml.MappingNode:
		out := make(map[string]interface{}, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			out[n.Content[i].Value] = documentTree(n.Content[i+1])
		}
		return out

	case yaml.SequenceNode:
		out := make([]interface{}, len(n.Content))
		for i, child := range n.Content {
			out[i] = documentTree(child)
		}
		return out

	case yaml.ScalarNode:
		quoted := n.Style&(yaml.SingleQuotedStyle|yaml.DoubleQuotedStyle|yaml.LiteralStyle|yaml.FoldedStyle) != 0
		if quoted || (n.Style&yaml.TaggedStyle != 0 && n.ShortTag() == "!!str") {
			return n.Value
		}
		if n.Value == "" || n.Value == "~" {
			return nil
		}
		return literalValue(wordLiteral(n.Value))
	}
	return nil
}

func literalValue(lit Literal) interface{} {
	switch lit.Kind {
	case NumberLiteral:
		if lit.Integral {
			return lit.Int
		}
		return lit.Number
	case BoolLiteral:
		return lit.Bool
	case NullLiteral:
		return nil
	default:
		return lit.Text
	}
}

func lookupFold(m map[string]interface{}, key string) (interface{}, bool) {
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
