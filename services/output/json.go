package output

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Jeffail/gabs"

	"github.com/novonordisk-research/vcf-parser/models"
)

// JsonFormatter writes one object per variant:
//
//	{"chromosome":"1","position":1000,...,"info":{...},"joined":[{"CSQ.Feature":"ENST0001.5",...}]}
//
// Missing values are omitted.
type JsonFormatter struct {
	// nil means every column
	include map[string]bool
}

func (f *JsonFormatter) Header() []byte { return nil }

func (f *JsonFormatter) wants(ref models.FieldRef) bool {
	return f.include == nil || f.include[ref.String()]
}

func (f *JsonFormatter) Format(record *models.VariantRecord, matches []*models.JoinedRecord) ([]byte, error) {
	obj := gabs.New()

	core := map[string]interface{}{
		models.ColumnChromosome:  record.Chrom,
		models.ColumnPosition:    record.Pos,
		models.ColumnId:          splitList(record.Id),
		models.ColumnReference:   record.Ref,
		models.ColumnAlternative: record.Alt,
		models.ColumnFilter:      splitList(record.Filter),
	}
	if !record.Qual.IsMissing() {
		core[models.ColumnQual] = record.Qual.Interface()
	}
	for _, name := range models.CoreColumns {
		v, ok := core[name]
		if !ok || !f.wants(models.FieldRef{Scope: models.CoreRef, Name: name}) {
			continue
		}
		if _, err := obj.Set(v, name); err != nil {
			return nil, err
		}
	}

	for key, v := range record.Info {
		if v.IsMissing() || !f.wants(models.FieldRef{Scope: models.InfoRef, Name: key}) {
			continue
		}
		if _, err := obj.Set(v.Interface(), "info", key); err != nil {
			return nil, err
		}
	}

	if _, err := obj.Array("joined"); err != nil {
		return nil, err
	}
	for _, jr := range matches {
		// an unannotated variant matches through a bare record
		if len(jr.Fields) == 0 {
			continue
		}
		item := map[string]interface{}{}
		for field, entry := range jr.Fields {
			for column, v := range entry {
				ref := models.FieldRef{Scope: models.JoinedRef, Field: field, Column: column}
				if v.IsMissing() || !f.wants(ref) {
					continue
				}
				item[field+"."+column] = v.Interface()
			}
		}
		if err := obj.ArrayAppend(item, "joined"); err != nil {
			return nil, err
		}
	}

	// Bytes() would hide an encoding failure behind "{}"
	data, err := json.Marshal(obj.Data())
	if err != nil {
		return nil, fmt.Errorf("encoding %s:%d: %w", record.Chrom, record.Pos, err)
	}
	return append(data, '\n'), nil
}

// splitList reads ID and FILTER columns; "." is the empty list.
func splitList(s string) []string {
	if s == "" || s == "." {
		return []string{}
	}
	return strings.Split(s, ";")
}
