package output

import (
	"fmt"

	"github.com/novonordisk-research/vcf-parser/models"
	"github.com/novonordisk-research/vcf-parser/models/constants"
	outputFormat "github.com/novonordisk-research/vcf-parser/models/constants/output-format"
)

// Formatter renders the matching joined records of one variant.
// Implementations hold no mutable state.
type Formatter interface {
	// Header is written once before any record; nil when the format has none.
	Header() []byte
	Format(record *models.VariantRecord, matches []*models.JoinedRecord) ([]byte, error)
}

// NewFormatter builds a formatter for the given columns. `restricted`
// marks an explicit --columns selection, which JSON output honours too.
func NewFormatter(format constants.OutputFormat, columns []Column, restricted bool) (Formatter, error) {
	switch format {
	case outputFormat.Tsv:
		return &TsvFormatter{columns: columns}, nil
	case outputFormat.Json:
		f := &JsonFormatter{}
		if restricted {
			f.include = map[string]bool{}
			for _, c := range columns {
				f.include[c.Ref.String()] = true
			}
		}
		return f, nil
	}
	return nil, fmt.Errorf("unsupported output format %q", format)
}
