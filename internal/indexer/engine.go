// Package indexer runs one commonwords pass: it validates the input files,
// folds them into a WordIndex in argument order, ranks the result and hands
// the finished report to the configured sinks.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/gofrs/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/commonwords/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/commonwords/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/commonwords/internal/report"
	"github.com/Adithya-Monish-Kumar-K/commonwords/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/commonwords/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/commonwords/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/commonwords/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/commonwords/pkg/resilience"
)

// cancelCheckInterval is how many tokens are scanned between context checks.
const cancelCheckInterval = 4096

// Cache is the subset of the report cache the engine uses.
type Cache interface {
	Get(ctx context.Context, fingerprint string) (*report.Report, bool)
	Set(ctx context.Context, fingerprint string, r *report.Report) error
}

type Engine struct {
	cfg     *config.Config
	opts    tokenizer.Options
	metrics *metrics.Metrics
	cache   Cache
	sinks   []report.Sink
	clock   clockwork.Clock
	retry   resilience.RetryConfig
	logger  *slog.Logger
}

type Option func(*Engine)

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func WithCache(c Cache) Option {
	return func(e *Engine) { e.cache = c }
}

func WithSinks(sinks ...report.Sink) Option {
	return func(e *Engine) { e.sinks = append(e.sinks, sinks...) }
}

func WithClock(c clockwork.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

func NewEngine(cfg *config.Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrInvalidInput, err)
	}
	e := &Engine{
		cfg: cfg,
		opts: tokenizer.Options{
			MinLength: cfg.Tokenizer.MinLength,
			MaxLength: cfg.Tokenizer.MaxLength,
		},
		clock:  clockwork.NewRealClock(),
		retry:  resilience.FromConfig(cfg.Retry),
		logger: logger.WithComponent("engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics == nil {
		e.metrics = metrics.New()
	}
	return e, nil
}

func (e *Engine) Metrics() *metrics.Metrics {
	return e.metrics
}

func (e *Engine) params() report.Params {
	return report.Params{
		TopN:      e.cfg.Report.TopN,
		MinLength: e.opts.MinLength,
		MaxLength: e.opts.MaxLength,
	}
}

// Run produces the report for paths, scanned in the given order. It fails
// with a usage error when paths is empty and with a file-open error naming
// the first unopenable path; in both cases nothing is scanned.
func (e *Engine) Run(ctx context.Context, paths []string) (*report.Report, error) {
	if len(paths) == 0 {
		return nil, apperrors.New(apperrors.ErrUsage, apperrors.ExitUsage,
			"Please specify at least one file name.")
	}
	start := e.clock.Now()

	sources, err := e.Validate(ctx, paths)
	if err != nil {
		return nil, err
	}

	params := e.params()
	fingerprint := report.Fingerprint(sources, params)
	if e.cache != nil {
		if cached, ok := e.cache.Get(ctx, fingerprint); ok {
			e.metrics.CacheRequestsTotal.WithLabelValues("hit").Inc()
			e.logger.Info("serving cached report", "run_id", cached.RunID, "files", len(sources))
			cached.Cached = true
			return cached, nil
		}
		e.metrics.CacheRequestsTotal.WithLabelValues("miss").Inc()
	}

	runID := uuid.Must(uuid.NewV4()).String()
	ctx = logger.WithRunID(ctx, runID)
	log := logger.FromContext(ctx).With("component", "engine")
	log.Info("run started", "files", len(sources), "top_n", params.TopN)

	idx := index.NewWordIndex()
	for _, src := range sources {
		if err := e.scanFile(ctx, idx, src); err != nil {
			return nil, err
		}
	}

	entries := idx.TopN(len(sources), params.TopN)
	words := make([]report.RankedWord, len(entries))
	for i, entry := range entries {
		words[i] = report.RankedWord{Rank: i + 1, Word: entry.Word, Count: entry.Count}
	}

	r := &report.Report{
		RunID:       runID,
		GeneratedAt: e.clock.Now().UTC(),
		Params:      params,
		Sources:     sources,
		Tracked:     idx.Len(),
		Eligible:    idx.Eligible(len(sources)),
		Words:       words,
		Duration:    e.clock.Since(start),
	}

	e.metrics.WordsTracked.Set(float64(r.Tracked))
	e.metrics.WordsEligible.Set(float64(r.Eligible))
	e.metrics.ReportWords.Set(float64(len(r.Words)))
	e.metrics.RunDuration.Observe(r.Duration.Seconds())

	log.Info("run completed",
		"tracked", r.Tracked,
		"eligible", r.Eligible,
		"credited", idx.Credited(),
		"dropped", idx.Dropped(),
		"reported", len(r.Words),
		"duration", r.Duration,
	)
	return r, nil
}

// Validate opens every path concurrently and returns their sources in
// argument order. When several paths fail, the error names the one that
// comes first.
func (e *Engine) Validate(ctx context.Context, paths []string) ([]report.Source, error) {
	sources := make([]report.Source, len(paths))
	errs := make([]error, len(paths))

	var g errgroup.Group
	g.SetLimit(e.cfg.Input.ProbeConcurrency)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			sources[i], errs[i] = probe(i+1, path)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("validating inputs: %w", err)
	}
	for i, err := range errs {
		if err != nil {
			e.logger.Debug("input rejected", "path", paths[i], "error", err)
			return nil, fileOpenError(paths[i], err)
		}
	}
	return sources, nil
}

func probe(i int, path string) (report.Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return report.Source{}, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return report.Source{}, err
	}
	if info.IsDir() {
		return report.Source{}, fmt.Errorf("%s is a directory", path)
	}
	return report.Source{
		Index:   i,
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

func fileOpenError(path string, cause error) error {
	return &apperrors.AppError{
		Err:      fmt.Errorf("%w: %w", apperrors.ErrFileOpen, cause),
		Message:  fmt.Sprintf("Cannot open the following file: %s", path),
		ExitCode: apperrors.ExitFailure,
	}
}

func (e *Engine) scanFile(ctx context.Context, idx *index.WordIndex, src report.Source) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("scanning %s: %w", src.Path, err)
	}
	f, err := os.Open(src.Path)
	if err != nil {
		return fileOpenError(src.Path, err)
	}
	defer f.Close()

	sc := tokenizer.NewScanner(f, e.opts)
	var n, credited int
	for sc.Scan() {
		if idx.Insert(sc.Term(), src.Index) {
			credited++
		}
		n++
		if n%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("scanning %s: %w", src.Path, err)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading %s: %w", src.Path, err)
	}

	stats := sc.Stats()
	e.metrics.TokensTotal.WithLabelValues("accepted").Add(float64(stats.Accepted))
	e.metrics.TokensTotal.WithLabelValues("too_short").Add(float64(stats.TooShort))
	e.metrics.TokensTotal.WithLabelValues("too_long").Add(float64(stats.TooLong))
	e.metrics.FilesScannedTotal.Inc()

	logger.FromContext(ctx).Debug("file scanned",
		"component", "engine",
		"file", src.Index,
		"path", src.Path,
		"tokens", stats.Accepted,
		"credited", credited,
		"tracked", idx.Len(),
	)
	return nil
}

// Deliver stores r in the cache and hands it to every sink, retrying each
// independently. Failures are logged and joined into the returned error;
// they never invalidate the report. Cached reports are not redelivered.
func (e *Engine) Deliver(ctx context.Context, r *report.Report) error {
	if r == nil || r.Cached {
		return nil
	}
	log := logger.FromContext(logger.WithRunID(ctx, r.RunID)).With("component", "engine")

	var cacheErr error
	if e.cache != nil {
		if err := e.cache.Set(ctx, report.Fingerprint(r.Sources, r.Params), r); err != nil {
			log.Warn("caching report failed", "error", err)
			cacheErr = err
		}
	}

	errs := make([]error, len(e.sinks))
	var g errgroup.Group
	for i, sink := range e.sinks {
		i, sink := i, sink
		g.Go(func() error {
			err := resilience.Retry(ctx, "deliver "+sink.Name(), e.retry, func(ctx context.Context) error {
				return sink.Deliver(ctx, r)
			})
			status := "ok"
			if err != nil {
				status = "failed"
				log.Error("report delivery failed", "sink", sink.Name(), "error", err)
				errs[i] = fmt.Errorf("sink %s: %w", sink.Name(), err)
			}
			e.metrics.SinkDeliveriesTotal.WithLabelValues(sink.Name(), status).Inc()
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(append([]error{cacheErr}, errs...)...)
}
