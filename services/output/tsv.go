package output

import (
	"bytes"
	"strings"

	"github.com/novonordisk-research/vcf-parser/models"
)

type TsvFormatter struct {
	columns []Column
}

var cellEscaper = strings.NewReplacer("\t", " ", "\n", " ", "\r", " ")

func (f *TsvFormatter) Header() []byte {
	names := make([]string, len(f.columns))
	for i, c := range f.columns {
		names[i] = c.Name
	}
	return []byte(strings.Join(names, "\t") + "\n")
}

// Format writes one row per match; Missing is an empty cell.
func (f *TsvFormatter) Format(record *models.VariantRecord, matches []*models.JoinedRecord) ([]byte, error) {
	var buf bytes.Buffer

	for _, jr := range matches {
		for i, c := range f.columns {
			if i > 0 {
				buf.WriteByte('\t')
			}
			buf.WriteString(cellEscaper.Replace(c.Ref.Lookup(jr).String()))
		}
		buf.WriteByte('\n')
	}

	return buf.Bytes(), nil
}
