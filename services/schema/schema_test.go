package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/novonordisk-research/vcf-parser/fixtures"
	"github.com/novonordisk-research/vcf-parser/models"
	"github.com/novonordisk-research/vcf-parser/services/vcf"
)

func demoHeader(t *testing.T) *models.Header {
	header, err := vcf.ReadHeader(fixtures.DemoScanner())
	assert.Nil(t, err)
	return header
}

func demoRegistry(t *testing.T) *Registry {
	reg, err := NewRegistry(demoHeader(t), []string{"CSQ", "Pangolin"}, []string{"Feature", "pangolin_transcript"})
	assert.Nil(t, err)
	return reg
}

func TestNewRegistry(t *testing.T) {
	t.Run("should derive sub-columns from descriptions", func(t *testing.T) {
		reg := demoRegistry(t)

		cols, ok := reg.SubColumns("CSQ")
		assert.True(t, ok)
		assert.Equal(t, []string{"Allele", "Consequence", "IMPACT", "SYMBOL", "Gene", "Feature", "CANONICAL", "LoF"}, cols)
		assert.True(t, reg.IsExplodable("Pangolin"))
		assert.False(t, reg.IsExplodable("AF"))
		assert.Equal(t, []JoinField{{"CSQ", "Feature"}, {"Pangolin", "pangolin_transcript"}}, reg.JoinFields())
	})

	t.Run("should keep header order for info ids", func(t *testing.T) {
		reg := demoRegistry(t)
		assert.Equal(t, "AC", reg.InfoIds()[0])
		assert.Len(t, reg.InfoIds(), 9)
	})

	t.Run("should reject unpaired join columns", func(t *testing.T) {
		_, err := NewRegistry(demoHeader(t), []string{"CSQ", "Pangolin"}, []string{"Feature"})
		var schemaErr *models.SchemaError
		assert.ErrorAs(t, err, &schemaErr)
	})

	t.Run("should reject undeclared fields", func(t *testing.T) {
		_, err := NewRegistry(demoHeader(t), []string{"ANN"}, []string{"Feature"})
		assert.ErrorContains(t, err, "not declared")
	})

	t.Run("should reject fields without a pipe format", func(t *testing.T) {
		_, err := NewRegistry(demoHeader(t), []string{"tag"}, []string{"x"})
		assert.ErrorContains(t, err, "'|'")
	})

	t.Run("should reject an unknown join column", func(t *testing.T) {
		_, err := NewRegistry(demoHeader(t), []string{"CSQ"}, []string{"Transcript"})
		assert.ErrorContains(t, err, "Transcript")
	})

	t.Run("should reject a field configured twice", func(t *testing.T) {
		_, err := NewRegistry(demoHeader(t), []string{"CSQ", "CSQ"}, []string{"Feature", "Feature"})
		assert.ErrorContains(t, err, "more than once")
	})
}

func TestSubColumnsFromDescription(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, SubColumnsFromDescription("Scores. Format: a|b"))
	assert.Equal(t, []string{"a", "b"}, SubColumnsFromDescription(`Predictions: 'a | b'`))
	assert.Nil(t, SubColumnsFromDescription("Plain text"))
	assert.Nil(t, SubColumnsFromDescription("Format: single"))
}

func TestResolvePath(t *testing.T) {
	reg := demoRegistry(t)

	t.Run("should resolve core columns and their aliases", func(t *testing.T) {
		assert.Equal(t, models.FieldRef{Scope: models.CoreRef, Name: models.ColumnChromosome}, reg.ResolvePath("chrom"))
		assert.Equal(t, models.FieldRef{Scope: models.CoreRef, Name: models.ColumnPosition}, reg.ResolvePath("position"))
	})

	t.Run("should resolve info scalars with or without prefix", func(t *testing.T) {
		assert.Equal(t, models.FieldRef{Scope: models.InfoRef, Name: "AF"}, reg.ResolvePath("info.AF"))
		assert.Equal(t, models.FieldRef{Scope: models.InfoRef, Name: "AF"}, reg.ResolvePath("AF"))
	})

	t.Run("should keep dots inside info ids", func(t *testing.T) {
		ref := reg.ResolvePath("info.gnomAD_exome_V4.0_AF")
		assert.Equal(t, models.FieldRef{Scope: models.InfoRef, Name: "gnomAD_exome_V4.0_AF"}, ref)
		assert.True(t, reg.KnownRef(ref))
	})

	t.Run("should resolve exploded columns", func(t *testing.T) {
		ref := reg.ResolvePath("CSQ.IMPACT")
		assert.Equal(t, models.FieldRef{Scope: models.JoinedRef, Field: "CSQ", Column: "IMPACT"}, ref)
		assert.True(t, reg.KnownRef(ref))
		assert.Equal(t, ref, reg.ResolvePath("info.CSQ.IMPACT"))
	})

	t.Run("should prefer info scope when prefixed", func(t *testing.T) {
		assert.Equal(t, models.FieldRef{Scope: models.InfoRef, Name: "filter"}, reg.ResolvePath("info.filter"))
	})

	t.Run("should flag unknown references", func(t *testing.T) {
		assert.False(t, reg.KnownRef(reg.ResolvePath("info.NOPE")))
		assert.False(t, reg.KnownRef(reg.ResolvePath("CSQ.NOPE")))
		assert.False(t, reg.KnownRef(reg.ResolvePath("CSQ")))
	})
}
