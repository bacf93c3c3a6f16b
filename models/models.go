package models

import (
	"strings"

	"github.com/novonordisk-research/vcf-parser/models/constants"
)

type (
	FieldArity struct {
		Class constants.Arity
		Count int
	}

	InfoFieldSpec struct {
		Id          string
		Arity       FieldArity
		Type        constants.ScalarType
		Description string

		// non-nil only for fields configured for explosion
		SubColumns []string
	}

	Header struct {
		FileFormat string
		Infos      []InfoFieldSpec
		Columns    []string

		// lines consumed, #CHROM included
		Lines int64
	}

	VariantRecord struct {
		Line   int64
		Chrom  string
		Pos    int64
		Id     string
		Ref    string
		Alt    string
		Qual   Value
		Filter string

		// scalar (non-explodable) INFO entries only
		Info map[string]Value
	}

	ExplodedEntry map[string]Value

	JoinedRecord struct {
		Key    string
		Fields map[string]ExplodedEntry
		Record *VariantRecord
	}

	OutputChunk struct {
		Seq  int64
		Data []byte
	}
)

func (s InfoFieldSpec) IsExplodable() bool {
	return s.SubColumns != nil
}

// Core column names as they appear in tabular output.
const (
	ColumnChromosome  = "chromosome"
	ColumnPosition    = "position"
	ColumnId          = "id"
	ColumnReference   = "reference"
	ColumnAlternative = "alternative"
	ColumnQual        = "qual"
	ColumnFilter      = "filter"
)

var CoreColumns = []string{
	ColumnChromosome, ColumnPosition, ColumnId,
	ColumnReference, ColumnAlternative, ColumnQual, ColumnFilter,
}

func CanonicalCoreColumn(name string) (string, bool) {
	switch strings.ToLower(name) {
	case "chromosome", "chrom":
		return ColumnChromosome, true
	case "position", "pos":
		return ColumnPosition, true
	case "id":
		return ColumnId, true
	case "reference", "ref":
		return ColumnReference, true
	case "alternative", "alt":
		return ColumnAlternative, true
	case "qual":
		return ColumnQual, true
	case "filter":
		return ColumnFilter, true
	}
	return "", false
}

func (r *VariantRecord) Core(column string) Value {
	switch column {
	case ColumnChromosome:
		return Text(r.Chrom)
	case ColumnPosition:
		return Integer(r.Pos)
	case ColumnId:
		return dotAsMissing(r.Id)
	case ColumnReference:
		return Text(r.Ref)
	case ColumnAlternative:
		return Text(r.Alt)
	case ColumnQual:
		return r.Qual
	case ColumnFilter:
		return dotAsMissing(r.Filter)
	}
	return Missing()
}

func dotAsMissing(s string) Value {
	if s == "" || s == "." {
		return Missing()
	}
	return Text(s)
}

type RefScope uint8

const (
	UnresolvedRef RefScope = iota
	CoreRef
	InfoRef
	JoinedRef
)

// FieldRef addresses one value reachable from a JoinedRecord.
type FieldRef struct {
	Scope  RefScope
	Name   string
	Field  string
	Column string
}

func (r FieldRef) String() string {
	switch r.Scope {
	case CoreRef:
		return r.Name
	case InfoRef:
		return "info." + r.Name
	case JoinedRef:
		return "info." + r.Field + "." + r.Column
	}
	return r.Name
}

func (r FieldRef) Lookup(jr *JoinedRecord) Value {
	switch r.Scope {
	case CoreRef:
		if jr.Record == nil {
			return Missing()
		}
		return jr.Record.Core(r.Name)
	case InfoRef:
		if jr.Record == nil {
			return Missing()
		}
		return jr.Record.Info[r.Name]
	case JoinedRef:
		return jr.Fields[r.Field][r.Column]
	}
	return Missing()
}
