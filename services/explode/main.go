package explode

import (
	"strings"

	"github.com/novonordisk-research/vcf-parser/models"
)

const (
	EntrySeparator    = ","
	SubValueSeparator = "|"
)

// Explode splits a CSQ-like value into one entry per comma separated chunk,
// zipping the pipe separated groups with the declared sub-columns.
// Short chunks are padded with Missing; long chunks keep the declared
// columns and report an ExplodeArityMismatch.
func Explode(raw string, spec models.InfoFieldSpec) ([]models.ExplodedEntry, []error) {
	if raw == "" || raw == "." {
		return nil, nil
	}

	var diagnostics []error
	chunks := strings.Split(raw, EntrySeparator)
	entries := make([]models.ExplodedEntry, 0, len(chunks))

	for i, chunk := range chunks {
		groups := strings.Split(chunk, SubValueSeparator)
		if len(groups) > len(spec.SubColumns) {
			diagnostics = append(diagnostics, &models.ExplodeArityMismatch{
				Field:    spec.Id,
				Entry:    i,
				Expected: len(spec.SubColumns),
				Got:      len(groups),
			})
		}

		entry := make(models.ExplodedEntry, len(spec.SubColumns))
		for j, column := range spec.SubColumns {
			if j < len(groups) {
				entry[column] = models.ParseLoose(groups[j])
			} else {
				entry[column] = models.Missing()
			}
		}
		entries = append(entries, entry)
	}

	return entries, diagnostics
}
