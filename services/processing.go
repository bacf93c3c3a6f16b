package services

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/novonordisk-research/vcf-parser/models"
	"github.com/novonordisk-research/vcf-parser/models/constants"
	"github.com/novonordisk-research/vcf-parser/services/explode"
	"github.com/novonordisk-research/vcf-parser/services/filter"
	"github.com/novonordisk-research/vcf-parser/services/info"
	"github.com/novonordisk-research/vcf-parser/services/join"
	"github.com/novonordisk-research/vcf-parser/services/output"
	"github.com/novonordisk-research/vcf-parser/services/schema"
	"github.com/novonordisk-research/vcf-parser/services/sinks"
	"github.com/novonordisk-research/vcf-parser/services/vcf"
)

type (
	RunOptions struct {
		Fields        []string
		FieldsJoin    []string
		Columns       []string
		Format        constants.OutputFormat
		DuplicateKeys constants.DuplicateKeyPolicy
		Threads       int
		QueueSize     int
		Ordered       bool
		Strict        bool
	}

	Stats struct {
		Lines       atomic.Int64
		Records     atomic.Int64
		Rows        atomic.Int64
		Skipped     atomic.Int64
		Diagnostics atomic.Int64
	}

	LineResult struct {
		Data        []byte
		Matches     int
		Diagnostics []models.Diagnostic

		// set when the line was skipped
		Err error
	}

	// ProcessingService owns everything built at startup. Its fields are
	// read-only once constructed and shared by every worker.
	ProcessingService struct {
		Header    *models.Header
		Registry  *schema.Registry
		Decoder   *info.Decoder
		Joiner    *join.Joiner
		Evaluator *filter.Evaluator
		Formatter output.Formatter
		Columns   []output.Column
		Options   RunOptions

		Stats        Stats
		OnDiagnostic func(models.Diagnostic)
	}

	lineJob struct {
		seq    int64
		lineNo int64
		text   string
	}
)

// NewProcessingService performs every startup step: schema, filter
// binding and column selection. Any error here is fatal.
func NewProcessingService(header *models.Header, opts RunOptions, spec *filter.Spec) (*ProcessingService, error) {
	reg, err := schema.NewRegistry(header, opts.Fields, opts.FieldsJoin)
	if err != nil {
		return nil, err
	}

	columns := output.DefaultColumns(reg)
	if len(opts.Columns) > 0 {
		if columns, err = output.SelectColumns(reg, opts.Columns); err != nil {
			return nil, err
		}
	}

	formatter, err := output.NewFormatter(opts.Format, columns, len(opts.Columns) > 0)
	if err != nil {
		return nil, err
	}

	if spec == nil {
		spec = &filter.Spec{}
	}
	evaluator, unknown := filter.NewEvaluator(spec, reg)
	for _, path := range unknown {
		log.Printf("[%s] - WARNING : filter path %q is not declared in the header and will never match\n", time.Now().Format(time.RFC3339), path)
	}

	return &ProcessingService{
		Header:       header,
		Registry:     reg,
		Decoder:      info.NewDecoder(reg),
		Joiner:       join.NewJoiner(reg.JoinFields(), opts.DuplicateKeys),
		Evaluator:    evaluator,
		Formatter:    formatter,
		Columns:      columns,
		Options:      opts,
		OnDiagnostic: func(models.Diagnostic) {},
	}, nil
}

// ProcessLine runs one data line through decode, explode, join, filter
// and render. It touches no shared mutable state.
func (p *ProcessingService) ProcessLine(lineNo int64, line string) LineResult {
	var res LineResult

	record, rawInfo, err := vcf.ParseDataLine(line, lineNo)
	if err != nil {
		res.Err = err
		return res
	}

	decoded, err := p.Decoder.Decode(rawInfo)
	if err != nil {
		res.Err = err
		return res
	}
	record.Info = decoded.Scalars
	res.addDiagnostics(lineNo, decoded.Diagnostics)

	exploded := make(map[string][]models.ExplodedEntry, len(decoded.Explodable))
	for _, jf := range p.Registry.JoinFields() {
		raw, ok := decoded.Explodable[jf.Field]
		if !ok {
			continue
		}
		spec, _ := p.Registry.Lookup(jf.Field)
		entries, diagnostics := explode.Explode(raw, spec)
		exploded[jf.Field] = entries
		res.addDiagnostics(lineNo, diagnostics)
	}

	joined, err := p.Joiner.Join(record, exploded)
	if err != nil {
		res.Err = err
		return res
	}
	if len(joined) == 0 {
		// no annotations: scalar-only predicates still apply
		joined = []*models.JoinedRecord{{Fields: map[string]models.ExplodedEntry{}, Record: record}}
	}

	matches := p.Evaluator.Select(joined)
	res.Matches = len(matches)
	if len(matches) == 0 {
		return res
	}

	if res.Data, err = p.Formatter.Format(record, matches); err != nil {
		res.Err = fmt.Errorf("rendering: %w", err)
		res.Data = nil
	}
	return res
}

func (r *LineResult) addDiagnostics(lineNo int64, errs []error) {
	for _, err := range errs {
		r.Diagnostics = append(r.Diagnostics, models.Diagnostic{Line: lineNo, Err: err})
	}
}

// Run streams data lines from src through a pool of workers into sink.
// The sink is not closed. Per-line failures are reported and skipped
// unless Options.Strict is set; sink and read failures end the run.
func (p *ProcessingService) Run(ctx context.Context, src vcf.LineSource, sink sinks.Sink) error {
	threads := p.Options.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	queueSize := p.Options.QueueSize
	if queueSize <= 0 {
		queueSize = threads * 4
	}

	if header := p.Formatter.Header(); len(header) > 0 {
		if err := sink.Write(models.OutputChunk{Data: header}); err != nil {
			return err
		}
	}

	out := sink
	var ordered *sinks.Ordered
	if p.Options.Ordered {
		ordered = sinks.NewOrdered(sink, 1, queueSize+threads)
		out = ordered
	}

	g, gctx := errgroup.WithContext(ctx)

	// "line processing queue"
	// - bounds the number of lines read ahead of the workers
	jobs := make(chan lineJob, queueSize)

	g.Go(func() error {
		defer close(jobs)

		var seq int64
		lineNo := p.Header.Lines
		for src.Scan() {
			if err := gctx.Err(); err != nil {
				return err
			}
			lineNo++
			text := src.Text()
			if text == "" || text[0] == '#' {
				continue
			}
			seq++
			select {
			case jobs <- lineJob{seq: seq, lineNo: lineNo, text: text}:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		if err := src.Err(); err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
		return nil
	})

	for i := 0; i < threads; i++ {
		g.Go(func() error {
			for job := range jobs {
				// after a failure, drain without work so ordered output can advance
				if gctx.Err() != nil {
					if err := out.Write(models.OutputChunk{Seq: job.seq}); err != nil {
						return err
					}
					continue
				}

				res := p.ProcessLine(job.lineNo, job.text)
				p.record(job.lineNo, res)

				if err := out.Write(models.OutputChunk{Seq: job.seq, Data: res.Data}); err != nil {
					return err
				}
				if res.Err != nil && p.Options.Strict {
					return fmt.Errorf("line %d: %w", job.lineNo, res.Err)
				}
			}
			return nil
		})
	}

	err := g.Wait()
	if ordered != nil {
		if closeErr := ordered.Close(); err == nil {
			err = closeErr
		}
	}
	return err
}

func (p *ProcessingService) record(lineNo int64, res LineResult) {
	p.Stats.Lines.Add(1)

	for _, d := range res.Diagnostics {
		p.Stats.Diagnostics.Add(1)
		p.OnDiagnostic(d)
	}
	if res.Err != nil {
		p.Stats.Skipped.Add(1)
		p.OnDiagnostic(models.Diagnostic{Line: lineNo, Fatal: true, Err: res.Err})
		return
	}
	if res.Matches > 0 {
		p.Stats.Records.Add(1)
		p.Stats.Rows.Add(int64(res.Matches))
	}
}

func (s *Stats) String() string {
	return fmt.Sprintf("lines=%d emitted=%d rows=%d skipped=%d diagnostics=%d",
		s.Lines.Load(), s.Records.Load(), s.Rows.Load(), s.Skipped.Load(), s.Diagnostics.Load())
}
