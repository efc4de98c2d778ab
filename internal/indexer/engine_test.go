package indexer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Adithya-Monish-Kumar-K/commonwords/internal/report"
	"github.com/Adithya-Monish-Kumar-K/commonwords/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/commonwords/pkg/errors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func writeFiles(t *testing.T, contents ...string) []string {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, len(contents))
	for i, c := range contents {
		paths[i] = filepath.Join(dir, "file"+string(rune('a'+i))+".txt")
		require.NoError(t, os.WriteFile(paths[i], []byte(c), 0o644))
	}
	return paths
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Retry.MaxAttempts = 2
	cfg.Retry.InitialDelay = time.Millisecond
	cfg.Retry.MaxDelay = time.Millisecond
	return cfg
}

func newEngine(t *testing.T, cfg *config.Config, opts ...Option) *Engine {
	t.Helper()
	e, err := NewEngine(cfg, opts...)
	require.NoError(t, err)
	return e
}

func reportWords(r *report.Report) []string {
	out := make([]string, len(r.Words))
	for i, w := range r.Words {
		out[i] = w.Word
	}
	return out
}

type memCache struct {
	mu      sync.Mutex
	entries map[string]*report.Report
	setErr  error
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string]*report.Report)}
}

func (c *memCache) Get(_ context.Context, fp string) (*report.Report, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.entries[fp]
	if !ok {
		return nil, false
	}
	cp := *r
	return &cp, true
}

func (c *memCache) Set(_ context.Context, fp string, r *report.Report) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	c.entries[fp] = r
	return nil
}

type fakeSink struct {
	name string
	mu   sync.Mutex
	got  []*report.Report
	err  error
	hits int
}

func (s *fakeSink) Name() string { return s.name }

func (s *fakeSink) Deliver(_ context.Context, r *report.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits++
	if s.err != nil {
		return s.err
	}
	s.got = append(s.got, r)
	return nil
}

func TestRunTwoFiles(t *testing.T) {
	paths := writeFiles(t, "banana banana apple", "banana orange")
	e := newEngine(t, testConfig())

	r, err := e.Run(context.Background(), paths)
	require.NoError(t, err)
	assert.Equal(t, []report.RankedWord{{Rank: 1, Word: "banana", Count: 3}}, r.Words)
	assert.Equal(t, 1, r.Tracked)
	assert.Equal(t, 1, r.Eligible)
	require.Len(t, r.Sources, 2)
	assert.Equal(t, 2, r.Sources[1].Index)
	assert.NotEmpty(t, r.RunID)
}

func TestRunWordMissingFromMiddleFile(t *testing.T) {
	paths := writeFiles(t,
		"common common common rarely rarely",
		"common",
		"common rarely rarely rarely",
	)
	e := newEngine(t, testConfig())

	r, err := e.Run(context.Background(), paths)
	require.NoError(t, err)
	assert.Equal(t, []string{"common"}, reportWords(r))
	assert.Equal(t, 5, r.Words[0].Count)
}

func TestRunCaseInsensitive(t *testing.T) {
	paths := writeFiles(t, "Banana", "BANANA banana")
	e := newEngine(t, testConfig())

	r, err := e.Run(context.Background(), paths)
	require.NoError(t, err)
	assert.Equal(t, []report.RankedWord{{Rank: 1, Word: "banana", Count: 3}}, r.Words)
}

func TestRunKeepsBoundaryTies(t *testing.T) {
	paths := writeFiles(t, "zebras zebras zebras zebras zebras alphas alphas alphas alphas alphas middle middle middle")
	cfg := testConfig()
	cfg.Report.TopN = 1
	e := newEngine(t, cfg)

	r, err := e.Run(context.Background(), paths)
	require.NoError(t, err)
	assert.Equal(t, []string{"zebras", "alphas"}, reportWords(r))
	assert.Equal(t, 2, r.Words[1].Rank)
}

func TestRunNoEligibleWords(t *testing.T) {
	paths := writeFiles(t, "short words only", "another different file")
	e := newEngine(t, testConfig())

	r, err := e.Run(context.Background(), paths)
	require.NoError(t, err)
	assert.Empty(t, r.Words)
	assert.NotNil(t, r.Words)
}

func TestRunNoFiles(t *testing.T) {
	e := newEngine(t, testConfig())
	_, err := e.Run(context.Background(), nil)
	require.ErrorIs(t, err, apperrors.ErrUsage)
	assert.Equal(t, apperrors.ExitUsage, apperrors.ExitCode(err))
	assert.Equal(t, "Please specify at least one file name.", apperrors.UserMessage(err))
}

func TestRunReportsFirstUnopenableFile(t *testing.T) {
	paths := writeFiles(t, "banana", "banana")
	dir := t.TempDir()
	missing1 := filepath.Join(dir, "missing-one.txt")
	missing2 := filepath.Join(dir, "missing-two.txt")
	args := []string{paths[0], missing1, paths[1], missing2}

	e := newEngine(t, testConfig())
	for i := 0; i < 20; i++ {
		_, err := e.Run(context.Background(), args)
		require.ErrorIs(t, err, apperrors.ErrFileOpen)
		require.ErrorIs(t, err, os.ErrNotExist)
		assert.Equal(t, "Cannot open the following file: "+missing1, apperrors.UserMessage(err))
		assert.Equal(t, apperrors.ExitFailure, apperrors.ExitCode(err))
	}
	assert.Equal(t, 0.0, testutil.ToFloat64(e.Metrics().FilesScannedTotal))
}

func TestRunRejectsDirectory(t *testing.T) {
	dir := t.TempDir()
	e := newEngine(t, testConfig())
	_, err := e.Run(context.Background(), []string{dir})
	require.ErrorIs(t, err, apperrors.ErrFileOpen)
	assert.Equal(t, "Cannot open the following file: "+dir, apperrors.UserMessage(err))
}

func TestRunCancelled(t *testing.T) {
	paths := writeFiles(t, "banana")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := newEngine(t, testConfig())
	_, err := e.Run(ctx, paths)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunRecordsMetricsAndDuration(t *testing.T) {
	paths := writeFiles(t, "banana banana cherry short", "banana cherry toolongwordtoolongwordtoolongwordtoolongwordtoolongwordx")
	clock := clockwork.NewFakeClock()
	e := newEngine(t, testConfig(), WithClock(clock))

	r, err := e.Run(context.Background(), paths)
	require.NoError(t, err)
	assert.Equal(t, clock.Now().UTC(), r.GeneratedAt)
	assert.Zero(t, r.Duration)

	m := e.Metrics()
	assert.Equal(t, 2.0, testutil.ToFloat64(m.FilesScannedTotal))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.TokensTotal.WithLabelValues("accepted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TokensTotal.WithLabelValues("too_short")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TokensTotal.WithLabelValues("too_long")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.WordsEligible))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ReportWords))
}

func TestCacheHitSkipsScan(t *testing.T) {
	paths := writeFiles(t, "banana banana", "banana")
	cache := newMemCache()
	sink := &fakeSink{name: "memory"}
	e := newEngine(t, testConfig(), WithCache(cache), WithSinks(sink))
	ctx := context.Background()

	first, err := e.Run(ctx, paths)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	require.NoError(t, e.Deliver(ctx, first))
	require.Len(t, cache.entries, 1)

	second, err := e.Run(ctx, paths)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.RunID, second.RunID)
	assert.Equal(t, first.Words, second.Words)
	require.NoError(t, e.Deliver(ctx, second))

	m := e.Metrics()
	assert.Equal(t, 2.0, testutil.ToFloat64(m.FilesScannedTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheRequestsTotal.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheRequestsTotal.WithLabelValues("miss")))
	assert.Len(t, sink.got, 1)
}

func TestCacheMissAfterFileChange(t *testing.T) {
	paths := writeFiles(t, "banana banana")
	cache := newMemCache()
	e := newEngine(t, testConfig(), WithCache(cache))
	ctx := context.Background()

	first, err := e.Run(ctx, paths)
	require.NoError(t, err)
	require.NoError(t, e.Deliver(ctx, first))

	require.NoError(t, os.WriteFile(paths[0], []byte("cherry cherry cherry"), 0o644))
	second, err := e.Run(ctx, paths)
	require.NoError(t, err)
	assert.False(t, second.Cached)
	assert.Equal(t, []string{"cherry"}, reportWords(second))
}

func TestDeliverSinkFailureIsolated(t *testing.T) {
	paths := writeFiles(t, "banana")
	good := &fakeSink{name: "good"}
	bad := &fakeSink{name: "bad", err: errors.New("unreachable")}
	cache := newMemCache()
	cache.setErr = errors.New("cache down")
	e := newEngine(t, testConfig(), WithSinks(good, bad), WithCache(cache))
	ctx := context.Background()

	r, err := e.Run(ctx, paths)
	require.NoError(t, err)

	err = e.Deliver(ctx, r)
	require.Error(t, err)
	assert.ErrorIs(t, err, bad.err)
	assert.ErrorIs(t, err, cache.setErr)
	assert.Len(t, good.got, 1)
	assert.Equal(t, 2, bad.hits)

	m := e.Metrics()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SinkDeliveriesTotal.WithLabelValues("good", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SinkDeliveriesTotal.WithLabelValues("bad", "failed")))
}

func TestNewEngineRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Tokenizer.MaxLength = 2
	_, err := NewEngine(cfg)
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestRunWithHugeMaxLength(t *testing.T) {
	paths := writeFiles(t, "banana banana", "banana")
	cfg := testConfig()
	cfg.Tokenizer.MaxLength = 1 << 50
	require.NoError(t, cfg.Validate())
	e := newEngine(t, cfg)

	r, err := e.Run(context.Background(), paths)
	require.NoError(t, err)
	assert.Equal(t, []string{"banana"}, reportWords(r))
}

func TestRunLogsInsertOutcomes(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	paths := writeFiles(t, "banana banana cherry", "banana orange")
	e := newEngine(t, testConfig())
	_, err := e.Run(context.Background(), paths)
	require.NoError(t, err)

	var completed map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var rec map[string]any
		require.NoError(t, json.Unmarshal(line, &rec))
		if rec["msg"] == "run completed" {
			completed = rec
		}
	}
	require.NotNil(t, completed)
	assert.EqualValues(t, 4, completed["credited"])
	assert.EqualValues(t, 1, completed["dropped"])
	assert.EqualValues(t, 1, completed["eligible"])
}
