package deploy

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/siteship/internal/config"
	ferrors "git.home.luguber.info/inful/siteship/internal/foundation/errors"
	"git.home.luguber.info/inful/siteship/internal/fsops"
	"git.home.luguber.info/inful/siteship/internal/history"
	"git.home.luguber.info/inful/siteship/internal/metrics"
	"git.home.luguber.info/inful/siteship/internal/notify"
	"git.home.luguber.info/inful/siteship/internal/verify"
)

func testConfig(files ...string) *config.Config {
	cfg := config.Default()
	cfg.Manifest.Files = files
	cfg.SiteURL = "https://example.test/"
	return cfg
}

func builtSite() fstest.MapFS {
	return fstest.MapFS{
		"index.html":                       {Data: []byte("<html>")},
		"_next/static/chunks/main-1.js":    {Data: []byte("x")},
		"_next/static/chunks/webpack-2.js": {Data: []byte("x")},
	}
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.RunEvent
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, e notify.RunEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
	return n.err
}

func (n *recordingNotifier) Close() error { return nil }

type memoryReports struct{ reports []*Report }

func (m *memoryReports) Write(r *Report) error {
	m.reports = append(m.reports, r)
	return nil
}

func newTestRunner(t *testing.T, cfg *config.Config, site fstest.MapFS, fake *fsops.Fake, opts ...Option) *Runner {
	t.Helper()
	base := []Option{
		WithFS(fake),
		WithSiteFS(site),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		withIDs(func() string { return "run-1" }),
	}
	return NewRunner(cfg, append(base, opts...)...)
}

func TestRunScenarioAPublishes(t *testing.T) {
	fake := fsops.NewFake("out")
	notifier := &recordingNotifier{}
	store, err := history.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	r := newTestRunner(t, testConfig("index.html"), builtSite(), fake, WithNotifier(notifier), WithHistory(store))

	report, err := r.Run(context.Background(), TriggerCLI)
	require.NoError(t, err)
	require.Equal(t, OutcomePublished, report.Outcome)
	require.True(t, report.Succeeded())
	require.Equal(t, []string{"main-1.js", "webpack-2.js"}, report.Artifacts)
	require.Equal(t, 3, report.ChecksPassed())
	require.Zero(t, report.ChecksFailed())
	require.Equal(t, []fsops.Op{fsops.OpExists, fsops.OpCreate, fsops.OpCopy, fsops.OpRun}, fake.Ops())
	require.Equal(t, []string{"npx", "gh-pages", "-d", "out_temp"}, fake.Calls()[3].Argv)

	require.Len(t, notifier.events, 1)
	require.Equal(t, "published", notifier.events[0].Outcome)
	require.Equal(t, "https://example.test/", notifier.events[0].SiteURL)

	stored, err := store.Get(context.Background(), "run-1")
	require.NoError(t, err)
	require.Equal(t, "published", stored.Outcome)
	require.Equal(t, 2, stored.Artifacts)
}

func TestRunScenarioBMissingManifestEntry(t *testing.T) {
	fake := fsops.NewFake("out")
	r := newTestRunner(t, testConfig("index.html", "logo.png"), builtSite(), fake)

	report, err := r.Run(context.Background(), TriggerCLI)
	require.NoError(t, err)
	require.Equal(t, OutcomeChecksFailed, report.Outcome)

	failed := report.FailedChecks()
	require.Len(t, failed, 1)
	require.Equal(t, "logo.png", failed[0].Name)
	require.Equal(t, verify.FailureMissingFile, failed[0].Failure)
	require.Empty(t, fake.Calls(), "publisher must not run when checks fail")
}

func TestRunScenarioCMissingArtifactDirectory(t *testing.T) {
	site := fstest.MapFS{"index.html": {Data: []byte("<html>")}}

	t.Run("default exits cleanly", func(t *testing.T) {
		fake := fsops.NewFake("out")
		r := newTestRunner(t, testConfig("index.html"), site, fake)

		report, err := r.Run(context.Background(), TriggerCLI)
		require.NoError(t, err)
		require.Equal(t, OutcomeChecksFailed, report.Outcome)
		require.Equal(t, verify.FailureMissingArtifactDirectory, report.ArtifactFailure)
		require.Empty(t, fake.Calls())
		require.Zero(t, ferrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
	})

	t.Run("strict returns validation error", func(t *testing.T) {
		fake := fsops.NewFake("out")
		cfg := testConfig("index.html")
		cfg.Strict = true
		r := newTestRunner(t, cfg, site, fake)

		report, err := r.Run(context.Background(), TriggerCLI)
		require.Error(t, err)
		require.Equal(t, OutcomeChecksFailed, report.Outcome)
		require.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
		require.Equal(t, 2, ferrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
		require.Empty(t, fake.Calls())
	})
}

func TestRunNoArtifactsBlocksPublish(t *testing.T) {
	fake := fsops.NewFake("out")
	site := fstest.MapFS{
		"index.html":                {Data: []byte("<html>")},
		"_next/static/chunks/a.css": {Data: []byte("x")},
	}
	r := newTestRunner(t, testConfig("index.html"), site, fake)

	report, err := r.Run(context.Background(), TriggerCLI)
	require.NoError(t, err)
	require.Equal(t, verify.FailureNoArtifactsFound, report.ArtifactFailure)
	require.Empty(t, fake.Calls())
}

func TestRunScenarioDPublishFailure(t *testing.T) {
	fake := fsops.NewFake("out")
	fake.Failures[fsops.OpRun] = errors.New("gh-pages exited 1")
	notifier := &recordingNotifier{err: errors.New("nats down")}
	reports := &memoryReports{}
	r := newTestRunner(t, testConfig("index.html"), builtSite(), fake, WithNotifier(notifier), WithReportWriter(reports))

	report, err := r.Run(context.Background(), TriggerCLI)
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryPublish))
	require.NotZero(t, ferrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
	require.Equal(t, OutcomePublishFailed, report.Outcome)
	require.Equal(t, "invoke", report.FailedStep)
	require.Equal(t, "gh-pages exited 1", report.Error)

	// Notification failures never change the outcome.
	require.Len(t, notifier.events, 1)
	require.Equal(t, "invoke", notifier.events[0].FailedStep)
	require.Len(t, reports.reports, 1)
}

func TestRunRecordsMetrics(t *testing.T) {
	fake := fsops.NewFake("out")
	rec := metrics.NewPrometheusRecorder(prom.NewRegistry())
	r := newTestRunner(t, testConfig("index.html", "logo.png"), builtSite(), fake, WithRecorder(rec))

	_, err := r.Run(context.Background(), TriggerCLI)
	require.NoError(t, err)

	out, err := testutil.GatherAndCount(rec.Registry(), "siteship_checks_total", "siteship_runs_total")
	require.NoError(t, err)
	require.Equal(t, 4, out)
}

func TestRunIsIdempotentForChecks(t *testing.T) {
	fake := fsops.NewFake("out")
	r := newTestRunner(t, testConfig("index.html", "logo.png"), builtSite(), fake)

	first, err := r.Run(context.Background(), TriggerCLI)
	require.NoError(t, err)
	second, err := r.Run(context.Background(), TriggerCLI)
	require.NoError(t, err)
	require.Equal(t, first.Checks, second.Checks)
}

func TestCheckNeverPublishes(t *testing.T) {
	fake := fsops.NewFake("out")
	r := newTestRunner(t, testConfig("index.html"), builtSite(), fake)

	report, err := r.Check(context.Background())
	require.NoError(t, err)
	require.Equal(t, OutcomeVerified, report.Outcome)
	require.Empty(t, fake.Calls())

	r = newTestRunner(t, testConfig("missing.html"), builtSite(), fake)
	report, err = r.Check(context.Background())
	require.Error(t, err)
	require.Equal(t, OutcomeChecksFailed, report.Outcome)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
}

// slowTool tracks how many publishes run at once.
type slowTool struct {
	active  atomic.Int32
	maxSeen atomic.Int32
}

func (s *slowTool) Name() string { return "slow" }

func (s *slowTool) Publish(context.Context, string) error {
	n := s.active.Add(1)
	defer s.active.Add(-1)
	for {
		seen := s.maxSeen.Load()
		if n <= seen || s.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	time.Sleep(10 * time.Millisecond)
	return nil
}

func TestRunSerialisesConcurrentTriggers(t *testing.T) {
	fake := fsops.NewFake("out")
	tool := &slowTool{}
	r := newTestRunner(t, testConfig("index.html"), builtSite(), fake, WithTool(tool))

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Run(context.Background(), TriggerWatch)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), tool.maxSeen.Load())
}

func TestRunUsesInjectedClock(t *testing.T) {
	fake := fsops.NewFake("out")
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ticks := 0
	clock := func() time.Time {
		ticks++
		return start.Add(time.Duration(ticks) * time.Second)
	}
	r := newTestRunner(t, testConfig("index.html"), builtSite(), fake, withClock(clock))

	report, err := r.Run(context.Background(), TriggerSchedule)
	require.NoError(t, err)
	require.Equal(t, time.Second, report.Duration())
	require.Equal(t, TriggerSchedule, report.Trigger)
}
