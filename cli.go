package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"syscall"
	"time"

	"github.com/novonordisk-research/vcf-parser/models"
	"github.com/novonordisk-research/vcf-parser/models/constants"
	duplicateKeys "github.com/novonordisk-research/vcf-parser/models/constants/duplicate-keys"
	outputFormat "github.com/novonordisk-research/vcf-parser/models/constants/output-format"
	sinkKind "github.com/novonordisk-research/vcf-parser/models/constants/sink"
	esRepo "github.com/novonordisk-research/vcf-parser/repositories/elasticsearch"
	"github.com/novonordisk-research/vcf-parser/services"
	"github.com/novonordisk-research/vcf-parser/services/filter"
	"github.com/novonordisk-research/vcf-parser/services/output"
	"github.com/novonordisk-research/vcf-parser/services/progress"
	"github.com/novonordisk-research/vcf-parser/services/schema"
	"github.com/novonordisk-research/vcf-parser/services/sinks"
	"github.com/novonordisk-research/vcf-parser/services/vcf"
	"github.com/novonordisk-research/vcf-parser/utils"
)

const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

type cliOptions struct {
	input       string
	filter      string
	listColumns bool
	columns     string
	verbose     bool
	progress    time.Duration
	sink        constants.SinkKind
	run         services.RunOptions
}

// parseFlags layers command-line flags over the environment configuration.
func parseFlags(cfg *models.Config, args []string, stderr io.Writer) (*cliOptions, error) {
	fs := flag.NewFlagSet("vcf-parser", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		opts          cliOptions
		format        string
		fields        string
		fieldsJoin    string
		duplicatePol  string
		sinkName      string
		threads       int
		queueSize     int
		ordered       bool
		strict        bool
		maxDiagnostic int
	)

	fs.StringVar(&opts.input, "input", "-", "input .vcf[.gz|.zst] file, - for stdin")
	fs.StringVar(&opts.input, "i", "-", "shorthand for --input")
	fs.StringVar(&opts.filter, "filter", "-", "filter: a rule document (.yml/.json) path or an inline expression")
	fs.StringVar(&opts.filter, "f", "-", "shorthand for --filter")
	fs.IntVar(&threads, "threads", cfg.Run.Threads, "worker threads, 0 uses every CPU")
	fs.IntVar(&threads, "t", cfg.Run.Threads, "shorthand for --threads")
	fs.BoolVar(&opts.listColumns, "list-columns", false, "list the columns available to --filter and --columns, then exit")
	fs.BoolVar(&opts.listColumns, "l", false, "shorthand for --list-columns")
	fs.StringVar(&opts.columns, "columns", "", "comma separated output columns")
	fs.StringVar(&opts.columns, "c", "", "shorthand for --columns")
	fs.StringVar(&format, "output-format", cfg.Run.OutputFormat, "output format: json or tsv")
	fs.StringVar(&fields, "fields", cfg.Run.Fields, "comma separated '|' annotated INFO fields to explode")
	fs.StringVar(&fieldsJoin, "fields-join", cfg.Run.FieldsJoin, "comma separated join column per field")
	fs.StringVar(&duplicatePol, "duplicate-keys", cfg.Run.DuplicateKeys, "duplicate join keys within a field: last, first or reject")
	fs.IntVar(&queueSize, "queue-size", cfg.Run.QueueSize, "lines read ahead of the workers")
	fs.BoolVar(&ordered, "ordered", cfg.Run.Ordered, "emit output in input order")
	fs.BoolVar(&strict, "strict", cfg.Run.Strict, "abort on the first unprocessable line")
	fs.IntVar(&maxDiagnostic, "max-diagnostics", cfg.Run.MaxDiagnostics, "diagnostics printed before suppression, 0 for all")
	fs.StringVar(&sinkName, "sink", cfg.Run.Sink, "output destination: stdout or elasticsearch")
	fs.DurationVar(&opts.progress, "progress", cfg.Run.ProgressInterval, "log progress at this interval, 0 disables")
	fs.BoolVar(&opts.verbose, "verbose", cfg.Debug, "print the effective configuration and a summary")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments %v", fs.Args())
	}

	opts.run = services.RunOptions{
		Fields:        utils.SplitCommaList(fields),
		FieldsJoin:    utils.SplitCommaList(fieldsJoin),
		Columns:       utils.SplitCommaList(opts.columns),
		Format:        outputFormat.CastToOutputFormat(format),
		DuplicateKeys: duplicateKeys.CastToDuplicateKeyPolicy(duplicatePol),
		Threads:       threads,
		QueueSize:     queueSize,
		Ordered:       ordered,
		Strict:        strict,
	}
	cfg.Run.MaxDiagnostics = maxDiagnostic
	opts.sink = sinkKind.CastToSinkKind(sinkName)

	switch {
	case opts.run.Format == outputFormat.Unknown:
		return nil, fmt.Errorf("unknown output format %q, use json or tsv", format)
	case opts.run.DuplicateKeys == duplicateKeys.Unknown:
		return nil, fmt.Errorf("unknown duplicate key policy %q, use last, first or reject", duplicatePol)
	case opts.sink == sinkKind.Unknown:
		return nil, fmt.Errorf("unknown sink %q, use stdout or elasticsearch", sinkName)
	case opts.sink == sinkKind.Elasticsearch && opts.run.Format != outputFormat.Json:
		return nil, errors.New("the elasticsearch sink needs --output-format json")
	case len(opts.run.Fields) == 0:
		return nil, errors.New("--fields must name at least one field")
	case threads < 0:
		return nil, errors.New("--threads must not be negative")
	}

	return &opts, nil
}

// run executes one CLI invocation and returns the process exit code.
func run(ctx context.Context, cfg *models.Config, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	logger := log.New(stderr, "", 0)

	opts, err := parseFlags(cfg, args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		logger.Println(err)
		return exitUsage
	}

	if opts.verbose {
		logger.Printf("Using : \n"+
			"\tInput : %s\n"+
			"\tFilter : %s\n"+
			"\tFields : %v\n"+
			"\tFields Join : %v\n"+
			"\tOutput Format : %s\n"+
			"\tDuplicate Keys : %s\n"+
			"\tLine Processing Concurrency Level : %d\n"+
			"\tOrdered : %t\n"+
			"\tStrict : %t\n"+
			"\tSink : %s\n",
			opts.input, opts.filter, opts.run.Fields, opts.run.FieldsJoin,
			opts.run.Format, opts.run.DuplicateKeys, opts.run.Threads,
			opts.run.Ordered, opts.run.Strict, opts.sink)
	}

	spec, err := filter.Compile(opts.filter)
	if err != nil {
		logger.Println(err)
		return exitFailed
	}
	if opts.verbose {
		logger.Printf("Filter : %s\n", spec)
	}

	var in io.ReadCloser
	if opts.input == "" || opts.input == "-" {
		in, err = utils.Decompress(io.NopCloser(stdin))
	} else {
		in, err = utils.OpenInput(opts.input)
	}
	if err != nil {
		logger.Println(err)
		return exitFailed
	}
	defer in.Close()

	sc := utils.NewLineScanner(in)
	header, err := vcf.ReadHeader(sc)
	if err != nil {
		logger.Println(err)
		return exitFailed
	}

	if opts.listColumns {
		reg, err := schema.NewRegistry(header, opts.run.Fields, opts.run.FieldsJoin)
		if err != nil {
			logger.Println(err)
			return exitFailed
		}
		sink := sinks.NewWriter(stdout)
		for _, column := range output.ListColumns(reg) {
			if err := sink.Write(models.OutputChunk{Data: []byte(column + "\n")}); err != nil {
				return writeFailure(logger, err)
			}
		}
		if err := sink.Close(); err != nil {
			return writeFailure(logger, err)
		}
		return exitOK
	}

	svc, err := services.NewProcessingService(header, opts.run, spec)
	if err != nil {
		logger.Println(err)
		return exitFailed
	}

	diagnostics := services.NewDiagnosticLogger(stderr, cfg.Run.MaxDiagnostics)
	svc.OnDiagnostic = diagnostics.Report

	sink, err := openSink(cfg, opts, stdout)
	if err != nil {
		logger.Println(err)
		return exitFailed
	}

	if opts.progress > 0 {
		reporter, err := progress.Start(opts.progress, logger.Printf, svc.Stats.String)
		if err != nil {
			logger.Println(err)
			return exitFailed
		}
		defer reporter.Stop()
	}

	runErr := svc.Run(ctx, sc, sink)
	if err := sink.Close(); runErr == nil {
		runErr = err
	}

	if summary := diagnostics.Summary(); summary != "" {
		logger.Println(summary)
	}
	if opts.verbose {
		logger.Printf("Done : %s\n", svc.Stats.String())
	}

	if runErr != nil {
		return writeFailure(logger, runErr)
	}
	return exitOK
}

func openSink(cfg *models.Config, opts *cliOptions, stdout io.Writer) (sinks.Sink, error) {
	if opts.sink != sinkKind.Elasticsearch {
		return sinks.NewWriter(stdout), nil
	}

	es, err := utils.CreateEsConnection(cfg)
	if err != nil {
		return nil, err
	}
	return esRepo.NewBulkSink(es, cfg)
}

// writeFailure treats a closed downstream pipe (e.g. `| head`) as success.
func writeFailure(logger *log.Logger, err error) int {
	if errors.Is(err, syscall.EPIPE) {
		return exitOK
	}
	logger.Println(err)
	return exitFailed
}
