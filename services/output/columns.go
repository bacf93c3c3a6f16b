package output

import (
	linq "github.com/ahmetb/go-linq"

	"github.com/novonordisk-research/vcf-parser/models"
	"github.com/novonordisk-research/vcf-parser/services/schema"
)

type Column struct {
	Name string
	Ref  models.FieldRef
}

// ListColumns returns every column a filter or --columns can name: the
// core columns, then the INFO columns sorted bytewise with explodable
// fields expanded to one column per sub-column.
func ListColumns(reg *schema.Registry) []string {
	var infoColumns []string

	linq.From(reg.InfoIds()).
		SelectManyT(func(id string) linq.Query {
			if subColumns, ok := reg.SubColumns(id); ok {
				return linq.From(subColumns).SelectT(func(sub string) string {
					return "info." + id + "." + sub
				})
			}
			return linq.From([]string{"info." + id})
		}).
		Distinct().
		OrderByT(func(column string) string { return column }).
		ToSlice(&infoColumns)

	return append(append([]string{}, models.CoreColumns...), infoColumns...)
}

func DefaultColumns(reg *schema.Registry) []Column {
	names := ListColumns(reg)
	columns := make([]Column, len(names))
	for i, name := range names {
		columns[i] = Column{Name: name, Ref: reg.ResolvePath(name)}
	}
	return columns
}

// SelectColumns resolves an explicit, ordered column selection.
func SelectColumns(reg *schema.Registry, requested []string) ([]Column, error) {
	columns := make([]Column, 0, len(requested))
	for _, name := range requested {
		ref := reg.ResolvePath(name)
		if !reg.KnownRef(ref) {
			return nil, &models.SchemaError{Field: name, Reason: "unknown column, see --list-columns"}
		}
		columns = append(columns, Column{Name: name, Ref: ref})
	}
	return columns, nil
}
