package vcf

import (
	"fmt"
	"strings"

	"github.com/novonordisk-research/vcf-parser/models"
	arity "github.com/novonordisk-research/vcf-parser/models/constants/arity"
	scalarType "github.com/novonordisk-research/vcf-parser/models/constants/scalar-type"
)

// LineSource is satisfied by *bufio.Scanner.
type LineSource interface {
	Scan() bool
	Text() string
	Err() error
}

// ReadHeader consumes meta lines up to and including the #CHROM line,
// leaving the source positioned on the first data line.
func ReadHeader(src LineSource) (*models.Header, error) {
	header := &models.Header{}
	seen := map[string]bool{}

	for src.Scan() {
		header.Lines++
		line := strings.TrimRight(src.Text(), "\r")

		switch {
		case strings.HasPrefix(line, "##fileformat="):
			header.FileFormat = strings.TrimPrefix(line, "##fileformat=")

		case strings.HasPrefix(line, "##INFO=<"):
			spec, err := ParseInfoMeta(line)
			if err != nil {
				return nil, err
			}
			if seen[spec.Id] {
				return nil, &models.SchemaError{Field: spec.Id, Reason: "declared more than once"}
			}
			seen[spec.Id] = true
			header.Infos = append(header.Infos, spec)

		case strings.HasPrefix(line, "##"), line == "":
			continue

		case strings.HasPrefix(line, "#CHROM"):
			header.Columns = strings.Split(strings.TrimPrefix(line, "#"), "\t")
			if len(header.Columns) < len(models.CoreColumns)+1 {
				return nil, &models.SchemaError{Reason: fmt.Sprintf("#CHROM line has %d columns, need at least 8", len(header.Columns))}
			}
			return header, nil

		default:
			return nil, &models.SchemaError{Reason: "data line found before the #CHROM header line"}
		}
	}

	if err := src.Err(); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	return nil, &models.SchemaError{Reason: "missing #CHROM header line"}
}

// ParseInfoMeta reads one `##INFO=<ID=..,Number=..,Type=..,Description="..">` line.
func ParseInfoMeta(line string) (models.InfoFieldSpec, error) {
	body := strings.TrimPrefix(line, "##INFO=<")
	end := strings.LastIndexByte(body, '>')
	if end < 0 {
		return models.InfoFieldSpec{}, &models.SchemaError{Reason: fmt.Sprintf("unterminated INFO declaration %q", line)}
	}

	attrs, err := splitMetaAttributes(body[:end])
	if err != nil {
		return models.InfoFieldSpec{}, &models.SchemaError{Reason: fmt.Sprintf("%v in %q", err, line)}
	}

	id := attrs["ID"]
	if id == "" {
		return models.InfoFieldSpec{}, &models.SchemaError{Reason: fmt.Sprintf("INFO declaration without ID: %q", line)}
	}

	class, count := arity.CastToArity(attrs["Number"])
	if class == arity.Unknown {
		return models.InfoFieldSpec{}, &models.SchemaError{Field: id, Reason: fmt.Sprintf("unsupported Number=%q", attrs["Number"])}
	}
	typ := scalarType.CastToScalarType(attrs["Type"])
	if typ == scalarType.Unknown {
		return models.InfoFieldSpec{}, &models.SchemaError{Field: id, Reason: fmt.Sprintf("unsupported Type=%q", attrs["Type"])}
	}
	if typ == scalarType.Flag {
		class, count = arity.Flag, 0
	}

	return models.InfoFieldSpec{
		Id:          id,
		Arity:       models.FieldArity{Class: class, Count: count},
		Type:        typ,
		Description: attrs["Description"],
	}, nil
}

// splitMetaAttributes splits `k=v,k="v, with = and \"quotes\""` pairs.
func splitMetaAttributes(s string) (map[string]string, error) {
	attrs := map[string]string{}

	for i := 0; i < len(s); {
		eq := strings.IndexByte(s[i:], '=')
		if eq < 0 {
			return nil, fmt.Errorf("attribute without value at offset %d", i)
		}
		key := strings.TrimSpace(s[i : i+eq])
		i += eq + 1

		var value strings.Builder
		if i < len(s) && s[i] == '"' {
			i++
			closed := false
			for i < len(s) {
				c := s[i]
				if c == '\\' && i+1 < len(s) {
					value.WriteByte(s[i+1])
					i += 2
					continue
				}
				i++
				if c == '"' {
					closed = true
					break
				}
				value.WriteByte(c)
			}
			if !closed {
				return nil, fmt.Errorf("unterminated quote for %s", key)
			}
		} else {
			comma := strings.IndexByte(s[i:], ',')
			if comma < 0 {
				comma = len(s) - i
			}
			value.WriteString(s[i : i+comma])
			i += comma
		}
		attrs[key] = value.String()

		// skip the separator
		if i < len(s) && s[i] == ',' {
			i++
		}
	}

	return attrs, nil
}
