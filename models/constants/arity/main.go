package arity

import (
	"strconv"
	"strings"

	"github.com/novonordisk-research/vcf-parser/models/constants"
)

const (
	Unknown   constants.Arity = ""
	Fixed     constants.Arity = "fixed"
	PerAllele constants.Arity = "per-allele"
	Variable  constants.Arity = "variable"
	Flag      constants.Arity = "flag"
)

// CastToArity interprets the `Number=` token of an INFO declaration.
// The returned count is only meaningful for Fixed.
func CastToArity(text string) (constants.Arity, int) {
	switch strings.ToUpper(strings.TrimSpace(text)) {
	case "A":
		return PerAllele, 0
	case ".", "R", "G":
		return Variable, 0
	case "0":
		return Flag, 0
	}

	n, err := strconv.Atoi(text)
	if err != nil || n < 0 {
		return Unknown, 0
	}
	return Fixed, n
}
