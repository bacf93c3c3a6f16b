package join

import (
	"github.com/novonordisk-research/vcf-parser/models"
	"github.com/novonordisk-research/vcf-parser/models/constants"
	duplicateKeys "github.com/novonordisk-research/vcf-parser/models/constants/duplicate-keys"
	"github.com/novonordisk-research/vcf-parser/services/schema"
)

type Joiner struct {
	fields []schema.JoinField
	policy constants.DuplicateKeyPolicy
}

func NewJoiner(fields []schema.JoinField, policy constants.DuplicateKeyPolicy) *Joiner {
	if policy == duplicateKeys.Unknown {
		policy = duplicateKeys.LastWins
	}
	return &Joiner{fields: fields, policy: policy}
}

// NormalizeKey strips trailing ".<digits>" version suffixes, so
// ENST0001.5 and ENST0001.4 meet on ENST0001. Stripping repeats until
// no suffix is left, which keeps the function idempotent.
func NormalizeKey(key string) string {
	for {
		dot := -1
		for i := len(key) - 1; i >= 0; i-- {
			if key[i] == '.' {
				dot = i
				break
			}
			if key[i] < '0' || key[i] > '9' {
				return key
			}
		}
		// need a non-empty base and at least one digit after the dot
		if dot <= 0 || dot == len(key)-1 {
			return key
		}
		key = key[:dot]
	}
}

// Join performs a full outer join of every field's entries on the
// normalized key. Records come out in order of first appearance.
func (j *Joiner) Join(record *models.VariantRecord, exploded map[string][]models.ExplodedEntry) ([]*models.JoinedRecord, error) {
	var (
		joined []*models.JoinedRecord
		index  = map[string]*models.JoinedRecord{}
	)

	for _, jf := range j.fields {
		seen := map[string]bool{}

		for _, entry := range exploded[jf.Field] {
			key := NormalizeKey(entry[jf.KeyColumn].String())

			jr, ok := index[key]
			if !ok {
				jr = &models.JoinedRecord{
					Key:    key,
					Fields: map[string]models.ExplodedEntry{},
					Record: record,
				}
				index[key] = jr
				joined = append(joined, jr)
			}

			if seen[key] {
				switch j.policy {
				case duplicateKeys.FirstWins:
					continue
				case duplicateKeys.Reject:
					return nil, &models.DuplicateJoinKeyError{Field: jf.Field, Key: key}
				}
			}
			seen[key] = true
			jr.Fields[jf.Field] = entry
		}
	}

	return joined, nil
}
