package scalarType

import (
	"strings"

	"github.com/novonordisk-research/vcf-parser/models/constants"
)

const (
	Unknown constants.ScalarType = ""
	Integer constants.ScalarType = "Integer"
	Float   constants.ScalarType = "Float"
	String  constants.ScalarType = "String"
	Flag    constants.ScalarType = "Flag"
)

func CastToScalarType(text string) constants.ScalarType {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "integer":
		return Integer
	case "float":
		return Float
	case "string", "character":
		return String
	case "flag":
		return Flag
	default:
		return Unknown
	}
}
