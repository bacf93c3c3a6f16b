package info

import (
	"strings"

	"github.com/novonordisk-research/vcf-parser/models"
	arity "github.com/novonordisk-research/vcf-parser/models/constants/arity"
	"github.com/novonordisk-research/vcf-parser/services/schema"
)

type (
	Decoder struct {
		registry *schema.Registry
	}

	Decoded struct {
		Scalars map[string]models.Value

		// explodable fields, undecoded
		Explodable map[string]string

		Diagnostics []error
	}
)

func NewDecoder(reg *schema.Registry) *Decoder {
	return &Decoder{registry: reg}
}

// Decode reads an INFO column. Coercion failures become Missing plus a
// diagnostic; a per-allele field with several values fails the line.
func (d *Decoder) Decode(raw string) (Decoded, error) {
	out := Decoded{
		Scalars:    map[string]models.Value{},
		Explodable: map[string]string{},
	}
	if raw == "" || raw == "." {
		return out, nil
	}

	for _, token := range strings.Split(raw, ";") {
		if token == "" {
			continue
		}
		key, value, hasValue := strings.Cut(token, "=")

		spec, declared := d.registry.Lookup(key)
		if !declared {
			if hasValue {
				out.Scalars[key] = models.Text(value)
			} else {
				out.Scalars[key] = models.FlagSet()
			}
			continue
		}

		if spec.IsExplodable() {
			out.Explodable[key] = value
			continue
		}

		switch spec.Arity.Class {
		case arity.Flag:
			out.Scalars[key] = models.FlagSet()

		case arity.PerAllele:
			if n := strings.Count(value, ",") + 1; n > 1 {
				return Decoded{}, &models.MultiAllelicInputError{Field: key, Count: n}
			}
			out.Scalars[key] = d.coerce(&out, spec, value)

		case arity.Fixed:
			if spec.Arity.Count == 1 {
				out.Scalars[key] = d.coerce(&out, spec, value)
				continue
			}
			items := d.coerceList(&out, spec, value)
			if len(items) != spec.Arity.Count {
				out.Diagnostics = append(out.Diagnostics, &models.CountMismatchError{Field: key, Expected: spec.Arity.Count, Got: len(items)})
			}
			out.Scalars[key] = models.List(items)

		default:
			out.Scalars[key] = models.List(d.coerceList(&out, spec, value))
		}
	}

	return out, nil
}

func (d *Decoder) coerce(out *Decoded, spec models.InfoFieldSpec, raw string) models.Value {
	v, ok := models.Coerce(raw, spec.Type)
	if !ok {
		out.Diagnostics = append(out.Diagnostics, &models.CoercionError{Field: spec.Id, Raw: raw, Type: spec.Type})
	}
	return v
}

func (d *Decoder) coerceList(out *Decoded, spec models.InfoFieldSpec, raw string) []models.Value {
	pieces := strings.Split(raw, ",")
	items := make([]models.Value, len(pieces))
	for i, piece := range pieces {
		items[i] = d.coerce(out, spec, piece)
	}
	return items
}
