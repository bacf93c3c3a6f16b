package services

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/novonordisk-research/vcf-parser/fixtures"
	"github.com/novonordisk-research/vcf-parser/models"
	duplicateKeys "github.com/novonordisk-research/vcf-parser/models/constants/duplicate-keys"
	outputFormat "github.com/novonordisk-research/vcf-parser/models/constants/output-format"
	"github.com/novonordisk-research/vcf-parser/services/filter"
	"github.com/novonordisk-research/vcf-parser/services/sinks"
	"github.com/novonordisk-research/vcf-parser/services/vcf"
)

func demoOptions() RunOptions {
	return RunOptions{
		Fields:        []string{"CSQ", "Pangolin"},
		FieldsJoin:    []string{"Feature", "pangolin_transcript"},
		Format:        outputFormat.Tsv,
		DuplicateKeys: duplicateKeys.LastWins,
		Threads:       4,
		QueueSize:     2,
		Ordered:       true,
	}
}

type collectedDiagnostics struct {
	mu    sync.Mutex
	items []models.Diagnostic
}

func (c *collectedDiagnostics) report(d models.Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, d)
}

// runDemo pushes the demo VCF through a fresh service and returns its output.
func runDemo(t *testing.T, opts RunOptions, spec *filter.Spec) (string, *ProcessingService, *collectedDiagnostics) {
	sc := fixtures.DemoScanner()
	header, err := vcf.ReadHeader(sc)
	assert.Nil(t, err)

	svc, err := NewProcessingService(header, opts, spec)
	assert.Nil(t, err)

	diagnostics := &collectedDiagnostics{}
	svc.OnDiagnostic = diagnostics.report

	var out bytes.Buffer
	sink := sinks.NewWriter(&out)
	assert.Nil(t, svc.Run(context.Background(), sc, sink))
	assert.Nil(t, sink.Close())

	return out.String(), svc, diagnostics
}

func rowsOf(output string) []string {
	return strings.Split(strings.TrimSuffix(output, "\n"), "\n")
}

func TestProcessingServiceRun(t *testing.T) {
	t.Run("should explode, join and render every variant without a filter", func(t *testing.T) {
		output, svc, diagnostics := runDemo(t, demoOptions(), nil)
		rows := rowsOf(output)

		assert.True(t, strings.HasPrefix(rows[0], "chromosome\tposition\tid\treference\talternative\tqual\tfilter\tinfo.AC\t"))
		// 3 joined rows, 1, 1, 1 bare; the multi-allelic line is skipped
		assert.Len(t, rows, 1+6)

		assert.Equal(t, int64(5), svc.Stats.Lines.Load())
		assert.Equal(t, int64(4), svc.Stats.Records.Load())
		assert.Equal(t, int64(6), svc.Stats.Rows.Load())
		assert.Equal(t, int64(1), svc.Stats.Skipped.Load())
		assert.Equal(t, int64(1), svc.Stats.Diagnostics.Load())

		assert.Len(t, diagnostics.items, 2)
		for _, d := range diagnostics.items {
			if d.Fatal {
				assert.Equal(t, int64(16), d.Line)
				var multi *models.MultiAllelicInputError
				assert.ErrorAs(t, d.Err, &multi)
			} else {
				assert.Equal(t, int64(15), d.Line)
				var coercion *models.CoercionError
				assert.ErrorAs(t, d.Err, &coercion)
			}
		}
	})

	t.Run("should keep input order when ordered", func(t *testing.T) {
		output, _, _ := runDemo(t, demoOptions(), nil)
		rows := rowsOf(output)[1:]

		positions := make([]string, len(rows))
		for i, row := range rows {
			positions[i] = strings.Split(row, "\t")[1]
		}
		assert.Equal(t, []string{"1000", "1000", "1000", "2000", "3000", "5000"}, positions)
	})

	t.Run("should produce identical output for any thread count", func(t *testing.T) {
		opts := demoOptions()
		opts.Threads = 1
		expected, _, _ := runDemo(t, opts, nil)

		for _, threads := range []int{2, 3, 8} {
			opts.Threads = threads
			actual, _, _ := runDemo(t, opts, nil)
			assert.Equal(t, expected, actual, threads)
		}
	})

	t.Run("should emit the same rows unordered", func(t *testing.T) {
		opts := demoOptions()
		ordered, _, _ := runDemo(t, opts, nil)

		opts.Ordered = false
		unordered, _, _ := runDemo(t, opts, nil)
		assert.ElementsMatch(t, rowsOf(ordered), rowsOf(unordered))
	})

	t.Run("should keep only matching joined records", func(t *testing.T) {
		spec, err := filter.CompileExpression(fixtures.DemoExpression)
		assert.Nil(t, err)

		opts := demoOptions()
		opts.Columns = []string{"chrom", "pos", "CSQ.Feature", "CSQ.IMPACT", "Pangolin.pangolin_max_score"}
		output, svc, _ := runDemo(t, opts, spec)

		assert.Equal(t,
			"chrom\tpos\tCSQ.Feature\tCSQ.IMPACT\tPangolin.pangolin_max_score\n"+
				"1\t1000\tENST0001.5\tMODERATE\t0.83\n"+
				"2\t3000\tENST0020.3\tHIGH\t\n",
			output)
		assert.Equal(t, int64(2), svc.Stats.Rows.Load())
	})

	t.Run("should evaluate scalar predicates on unannotated variants", func(t *testing.T) {
		spec, err := filter.CompileExpression("info.AF ge 0.5")
		assert.Nil(t, err)

		opts := demoOptions()
		opts.Columns = []string{"pos", "CSQ.Feature"}
		output, _, _ := runDemo(t, opts, spec)
		assert.Equal(t, "pos\tCSQ.Feature\n5000\t\n", output)
	})

	t.Run("should render json", func(t *testing.T) {
		opts := demoOptions()
		opts.Format = outputFormat.Json
		output, _, _ := runDemo(t, opts, nil)

		rows := rowsOf(output)
		assert.Len(t, rows, 4)
		assert.True(t, strings.HasPrefix(rows[0], "{"))
		assert.Contains(t, rows[3], `"joined":[]`)
	})

	t.Run("should stop on the first bad line when strict", func(t *testing.T) {
		sc := fixtures.DemoScanner()
		header, err := vcf.ReadHeader(sc)
		assert.Nil(t, err)

		opts := demoOptions()
		opts.Strict = true
		svc, err := NewProcessingService(header, opts, nil)
		assert.Nil(t, err)

		var out bytes.Buffer
		err = svc.Run(context.Background(), sc, sinks.NewWriter(&out))
		var multi *models.MultiAllelicInputError
		assert.ErrorAs(t, err, &multi)
		assert.ErrorContains(t, err, "line 16")
	})

	t.Run("should stop when cancelled", func(t *testing.T) {
		sc := fixtures.DemoScanner()
		header, err := vcf.ReadHeader(sc)
		assert.Nil(t, err)
		svc, err := NewProcessingService(header, demoOptions(), nil)
		assert.Nil(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		var out bytes.Buffer
		err = svc.Run(ctx, sc, sinks.NewWriter(&out))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestNewProcessingService(t *testing.T) {
	header, err := vcf.ReadHeader(fixtures.DemoScanner())
	assert.Nil(t, err)

	t.Run("should reject unknown columns", func(t *testing.T) {
		opts := demoOptions()
		opts.Columns = []string{"CSQ.Nope"}
		_, err := NewProcessingService(header, opts, nil)
		var schemaErr *models.SchemaError
		assert.ErrorAs(t, err, &schemaErr)
	})

	t.Run("should reject misconfigured fields", func(t *testing.T) {
		opts := demoOptions()
		opts.FieldsJoin = []string{"Feature"}
		_, err := NewProcessingService(header, opts, nil)
		assert.Error(t, err)
	})
}

func TestProcessLine(t *testing.T) {
	header, err := vcf.ReadHeader(fixtures.DemoScanner())
	assert.Nil(t, err)
	svc, err := NewProcessingService(header, demoOptions(), nil)
	assert.Nil(t, err)

	t.Run("should join annotations on version-stripped keys", func(t *testing.T) {
		res := svc.ProcessLine(13, fixtures.DemoLines[0])
		assert.Nil(t, res.Err)
		assert.Equal(t, 3, res.Matches)
		assert.Empty(t, res.Diagnostics)
	})

	t.Run("should report a malformed line", func(t *testing.T) {
		res := svc.ProcessLine(99, "1\tnot-a-position\t.\tA\tT\t.\tPASS\t.")
		var lineErr *models.LineFormatError
		assert.ErrorAs(t, res.Err, &lineErr)
		assert.Empty(t, res.Data)
	})

	t.Run("should keep non-finite floats in json output", func(t *testing.T) {
		opts := demoOptions()
		opts.Format = outputFormat.Json
		jsonSvc, err := NewProcessingService(header, opts, nil)
		assert.Nil(t, err)

		line := "1\t1000\trs1\tA\tT\t50\tPASS\tAF=nan;DP=40;CSQ=T|missense_variant|MODERATE|GENE1|ENSG01|ENST0001.5|YES|HC"
		res := jsonSvc.ProcessLine(13, line)
		assert.Nil(t, res.Err)
		assert.Equal(t, 1, res.Matches)
		assert.Contains(t, string(res.Data), `"AF":"nan"`)
		assert.Contains(t, string(res.Data), `"CSQ.Feature":"ENST0001.5"`)
	})

	t.Run("should match rule documents and expressions alike on yes-no words", func(t *testing.T) {
		for _, word := range []string{"Y", "yes", "on", "N", "off"} {
			doc, err := filter.CompileDocument([]byte("{name: chromosome, op: eq, value: " + word + "}"))
			assert.Nil(t, err)
			expr, err := filter.CompileExpression("chromosome == " + word)
			assert.Nil(t, err)

			docSvc, err := NewProcessingService(header, demoOptions(), doc)
			assert.Nil(t, err)
			exprSvc, err := NewProcessingService(header, demoOptions(), expr)
			assert.Nil(t, err)

			assert.Equal(t, 0, docSvc.ProcessLine(13, fixtures.DemoLines[0]).Matches, word)
			assert.Equal(t, 0, exprSvc.ProcessLine(13, fixtures.DemoLines[0]).Matches, word)
		}
	})
}

func TestDiagnosticLogger(t *testing.T) {
	var out bytes.Buffer
	l := NewDiagnosticLogger(&out, 2)

	for i := int64(1); i <= 5; i++ {
		l.Report(models.Diagnostic{Line: i, Err: &models.LineFormatError{Reason: "x"}})
	}

	assert.Equal(t, 2, strings.Count(out.String(), "WARNING: line"))
	assert.Equal(t, "3 further diagnostics suppressed", l.Summary())
	assert.Empty(t, NewDiagnosticLogger(&out, 0).Summary())
}
