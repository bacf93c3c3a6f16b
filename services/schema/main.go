package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/novonordisk-research/vcf-parser/models"
	"github.com/novonordisk-research/vcf-parser/utils"
)

type (
	// JoinField pairs an explodable INFO field with the sub-column
	// holding its join key.
	JoinField struct {
		Field     string
		KeyColumn string
	}

	// Registry is built once from the header and shared read-only
	// by every worker.
	Registry struct {
		specs      map[string]models.InfoFieldSpec
		order      []string
		joinFields []JoinField

		// explodable field names, longest first, for prefix resolution
		byLength []string
	}
)

// NewRegistry marks `fields` explodable and validates their join columns,
// which pair up with fields by position.
func NewRegistry(header *models.Header, fields []string, fieldsJoin []string) (*Registry, error) {
	if len(fields) > 1 && len(fields) != len(fieldsJoin) {
		return nil, &models.SchemaError{Reason: fmt.Sprintf("%d fields configured but %d join columns, they must pair up", len(fields), len(fieldsJoin))}
	}

	reg := &Registry{
		specs: make(map[string]models.InfoFieldSpec, len(header.Infos)),
	}
	for _, spec := range header.Infos {
		reg.specs[spec.Id] = spec
		reg.order = append(reg.order, spec.Id)
	}

	for i, field := range fields {
		spec, ok := reg.specs[field]
		if !ok {
			return nil, &models.SchemaError{Field: field, Reason: "not declared in the header"}
		}
		if _, dup := reg.explodable(field); dup {
			return nil, &models.SchemaError{Field: field, Reason: "configured more than once"}
		}

		subColumns := SubColumnsFromDescription(spec.Description)
		if len(subColumns) == 0 {
			return nil, &models.SchemaError{Field: field, Reason: "description does not declare a '|' separated format"}
		}
		spec.SubColumns = subColumns
		reg.specs[field] = spec

		jf := JoinField{Field: field}
		if i < len(fieldsJoin) {
			jf.KeyColumn = fieldsJoin[i]
		}
		if jf.KeyColumn == "" || !utils.StringInSlice(jf.KeyColumn, subColumns) {
			return nil, &models.SchemaError{Field: field, Reason: fmt.Sprintf("join column %q is not one of its sub-columns %v", jf.KeyColumn, subColumns)}
		}
		reg.joinFields = append(reg.joinFields, jf)
		reg.byLength = append(reg.byLength, field)
	}

	sort.SliceStable(reg.byLength, func(i, j int) bool {
		return len(reg.byLength[i]) > len(reg.byLength[j])
	})

	return reg, nil
}

// SubColumnsFromDescription extracts `A|B|C` from a description such as
// "Consequence annotations from Ensembl VEP. Format: A|B|C".
func SubColumnsFromDescription(description string) []string {
	format := description
	if i := strings.Index(format, "Format:"); i >= 0 {
		format = format[i+len("Format:"):]
	} else if i := strings.Index(format, ": "); i >= 0 {
		format = format[i+2:]
	} else {
		return nil
	}

	format = strings.Trim(strings.TrimSpace(format), `"'`)
	if !strings.Contains(format, "|") {
		return nil
	}

	parts := strings.Split(format, "|")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

func (r *Registry) Lookup(id string) (models.InfoFieldSpec, bool) {
	spec, ok := r.specs[id]
	return spec, ok
}

func (r *Registry) IsExplodable(id string) bool {
	_, ok := r.explodable(id)
	return ok
}

func (r *Registry) explodable(id string) (models.InfoFieldSpec, bool) {
	spec, ok := r.specs[id]
	return spec, ok && spec.IsExplodable()
}

func (r *Registry) SubColumns(id string) ([]string, bool) {
	spec, ok := r.explodable(id)
	return spec.SubColumns, ok
}

// InfoIds lists declared INFO ids in header order.
func (r *Registry) InfoIds() []string {
	return r.order
}

func (r *Registry) JoinFields() []JoinField {
	return r.joinFields
}

// ResolvePath maps a dotted path or column name onto a FieldRef.
// Resolution never fails: unknown INFO ids resolve to an InfoRef whose
// lookups yield Missing; use KnownRef to tell them apart.
func (r *Registry) ResolvePath(raw string) models.FieldRef {
	rest, prefixed := strings.CutPrefix(raw, "info.")

	if !prefixed {
		if core, ok := models.CanonicalCoreColumn(rest); ok {
			return models.FieldRef{Scope: models.CoreRef, Name: core}
		}
	}

	for _, field := range r.byLength {
		if column, ok := strings.CutPrefix(rest, field+"."); ok {
			return models.FieldRef{Scope: models.JoinedRef, Field: field, Column: column}
		}
	}

	return models.FieldRef{Scope: models.InfoRef, Name: rest}
}

// KnownRef reports whether ref addresses a column declared by the header.
func (r *Registry) KnownRef(ref models.FieldRef) bool {
	switch ref.Scope {
	case models.CoreRef:
		return true
	case models.InfoRef:
		_, ok := r.specs[ref.Name]
		return ok && !r.IsExplodable(ref.Name)
	case models.JoinedRef:
		cols, ok := r.SubColumns(ref.Field)
		return ok && utils.StringInSlice(ref.Column, cols)
	}
	return false
}
