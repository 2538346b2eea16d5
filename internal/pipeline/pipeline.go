package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/crimson-sun/cardport/internal/formatter"
	"github.com/crimson-sun/cardport/internal/importer"
	"github.com/crimson-sun/cardport/internal/output/queryfile"
	"github.com/crimson-sun/cardport/internal/parser"
)

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithReport sets where aggregate counts are printed. Default: os.Stdout.
func WithReport(w io.Writer) Option {
	return func(p *Pipeline) { p.report = w }
}

// Pipeline runs the two stages: export -> formatted file, formatted file -> cards.
type Pipeline struct {
	logger *slog.Logger
	report io.Writer
}

// New creates a Pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		logger: slog.Default(),
		report: os.Stdout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Format parses the export at inPath and writes the formatted queries to
// outPath. Dropped blocks are logged at debug level only.
func (p *Pipeline) Format(inPath, outPath string) (formatter.Stats, error) {
	text, err := parser.ReadFile(inPath)
	if err != nil {
		return formatter.Stats{}, fmt.Errorf("pipeline format: %w", err)
	}

	blocks := parser.Parse(text)
	for _, b := range parser.Skipped(blocks) {
		p.logger.Debug("block skipped", "line", b.Raw.Line+1, "name", b.Raw.Name, "reason", b.Skip)
	}

	records := parser.Records(blocks)
	queries := formatter.Format(records)
	stats := formatter.Stats{
		Parsed:  len(records),
		Skipped: len(blocks) - len(records),
		Kept:    len(queries),
	}

	if err := queryfile.Write(outPath, queries); err != nil {
		return stats, fmt.Errorf("pipeline format: %w", err)
	}

	p.logger.Info("queries formatted",
		"input", inPath, "output", outPath,
		"parsed", stats.Parsed, "skipped", stats.Skipped, "kept", stats.Kept,
	)
	fmt.Fprintf(p.report, "Parsed %d items, kept %d with native.query in %s\n", stats.Parsed, stats.Kept, outPath)
	return stats, nil
}

// Import reads the formatted queries at inPath and hands them to im.
// Only an unreadable input file is returned as an error; per-card failures
// are counted in the summary.
func (p *Pipeline) Import(ctx context.Context, inPath string, im *importer.Importer) (importer.Summary, error) {
	queries, err := queryfile.Read(inPath)
	if err != nil {
		return importer.Summary{}, fmt.Errorf("pipeline import: %w", err)
	}

	sum, err := im.Run(ctx, queries)
	fmt.Fprintf(p.report, "Imported %d of %d cards (%d failed)\n", sum.Created, len(queries), sum.Failed)
	if err != nil {
		return sum, fmt.Errorf("pipeline import: %w", err)
	}
	return sum, nil
}
