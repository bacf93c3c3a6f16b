package operator

import (
	"strings"

	"github.com/novonordisk-research/vcf-parser/models/constants"
)

const (
	Unknown constants.Operator = ""
	Eq      constants.Operator = "eq"
	Ne      constants.Operator = "ne"
	Lt      constants.Operator = "lt"
	Le      constants.Operator = "le"
	Gt      constants.Operator = "gt"
	Ge      constants.Operator = "ge"
	In      constants.Operator = "in"
)

// CastToOperator maps every accepted spelling of a comparison
// operator onto its canonical form.
func CastToOperator(text string) constants.Operator {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "eq", "=", "==":
		return Eq
	case "ne", "!=", "≠":
		return Ne
	case "lt", "<":
		return Lt
	case "le", "<=", "≤":
		return Le
	case "gt", ">":
		return Gt
	case "ge", ">=", "≥":
		return Ge
	case "in", "∈":
		return In
	default:
		return Unknown
	}
}

func IsOrdering(op constants.Operator) bool {
	return op == Lt || op == Le || op == Gt || op == Ge
}
