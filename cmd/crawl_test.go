package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/depth-scraper/internal/crawler"
)

type fakeApp struct {
	workers  int
	stats    crawler.Stats
	err      error
	crawled  []crawler.Config
	closed   int
	closeErr error
}

func (f *fakeApp) Close() error {
	f.closed++
	return f.closeErr
}

func (f *fakeApp) GetLogger() *zap.Logger {
	return zap.NewNop()
}

func (f *fakeApp) RunID() string {
	return "run-1"
}

func (f *fakeApp) Workers() int {
	return f.workers
}

func (f *fakeApp) Crawl(_ context.Context, cfg crawler.Config) (crawler.Stats, error) {
	f.crawled = append(f.crawled, cfg)
	return f.stats, f.err
}

// withFakeApp swaps the application factory; callers must not run in parallel.
func withFakeApp(t *testing.T, fake *fakeApp) {
	t.Helper()
	original := newApp
	newApp = func(string) (App, error) { return fake, nil }
	t.Cleanup(func() { newApp = original })
}

func execute(args ...string) (string, error) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestParseCrawlArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		want    crawler.Config
		wantErr string
	}{
		{
			name: "unique true",
			args: []string{"https://a.test/", "3", "2", "true"},
			want: crawler.Config{SeedURL: "https://a.test/", MaxLinksPerPage: 3, MaxDepth: 2, EnforceUniqueness: true, NumWorkers: 4},
		},
		{
			name: "unique T",
			args: []string{"https://a.test/", "1", "1", "T"},
			want: crawler.Config{SeedURL: "https://a.test/", MaxLinksPerPage: 1, MaxDepth: 1, EnforceUniqueness: true, NumWorkers: 4},
		},
		{
			name: "unique anything else",
			args: []string{"https://a.test/", "1", "1", "yes"},
			want: crawler.Config{SeedURL: "https://a.test/", MaxLinksPerPage: 1, MaxDepth: 1, NumWorkers: 4},
		},
		{name: "non integer amount", args: []string{"https://a.test/", "many", "1", "t"}, wantErr: "extractAmount"},
		{name: "zero amount", args: []string{"https://a.test/", "0", "1", "t"}, wantErr: "extractAmount"},
		{name: "negative depth", args: []string{"https://a.test/", "1", "-2", "t"}, wantErr: "maxDepth"},
		{name: "empty seed", args: []string{"", "1", "1", "t"}, wantErr: "seed url"},
		{name: "wrong arity", args: []string{"https://a.test/"}, wantErr: "expected 4 arguments"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := parseCrawlArgs(tt.args, 4)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, errors.Is(err, crawler.ErrInvalidConfig))
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseBool(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"true", "True", "t", "T"} {
		assert.True(t, parseBool(raw), raw)
	}
	for _, raw := range []string{"TRUE", "1", "yes", "false", ""} {
		assert.False(t, parseBool(raw), raw)
	}
}

func TestCrawlCommandRunsCrawl(t *testing.T) {
	fake := &fakeApp{workers: 10, stats: crawler.Stats{Pages: 7, LinksEnqueued: 6}}
	withFakeApp(t, fake)

	out, err := execute("crawl", "https://a.test/", "5", "2", "t")
	require.NoError(t, err)
	require.Len(t, fake.crawled, 1)
	assert.Equal(t, crawler.Config{
		SeedURL:           "https://a.test/",
		MaxLinksPerPage:   5,
		MaxDepth:          2,
		EnforceUniqueness: true,
		NumWorkers:        10,
	}, fake.crawled[0])
	assert.Contains(t, out, "run run-1: crawled 7 pages")
	assert.Equal(t, 1, fake.closed)
}

func TestCrawlCommandWorkersFlag(t *testing.T) {
	fake := &fakeApp{workers: 10}
	withFakeApp(t, fake)

	_, err := execute("crawl", "--workers", "3", "https://a.test/", "1", "1", "false")
	require.NoError(t, err)
	require.Len(t, fake.crawled, 1)
	assert.Equal(t, 3, fake.crawled[0].NumWorkers)
	assert.False(t, fake.crawled[0].EnforceUniqueness)
}

func TestCrawlCommandRejectsBadWorkersFlag(t *testing.T) {
	fake := &fakeApp{workers: 10}
	withFakeApp(t, fake)

	_, err := execute("crawl", "--workers", "0", "https://a.test/", "1", "1", "t")
	require.Error(t, err)
	assert.True(t, errors.Is(err, crawler.ErrInvalidConfig))
	assert.Empty(t, fake.crawled)
}

func TestCrawlCommandConfigErrorSkipsCrawl(t *testing.T) {
	fake := &fakeApp{workers: 10}
	withFakeApp(t, fake)

	_, err := execute("crawl", "https://a.test/", "abc", "1", "t")
	require.Error(t, err)
	assert.True(t, errors.Is(err, crawler.ErrInvalidConfig))
	assert.Empty(t, fake.crawled)
	assert.Equal(t, 1, fake.closed)
}

func TestCrawlCommandRequiresFourArgs(t *testing.T) {
	fake := &fakeApp{workers: 10}
	withFakeApp(t, fake)

	_, err := execute("crawl", "https://a.test/", "1")
	require.Error(t, err)
	assert.Empty(t, fake.crawled)
}

func TestCrawlCommandCanceledIsClean(t *testing.T) {
	fake := &fakeApp{workers: 2, err: fmt.Errorf("crawl interrupted: %w", context.Canceled)}
	withFakeApp(t, fake)

	_, err := execute("crawl", "https://a.test/", "1", "1", "t")
	require.NoError(t, err)
}

func TestCrawlCommandPropagatesErrors(t *testing.T) {
	fake := &fakeApp{workers: 2, err: fmt.Errorf("%w: crawler.output_dir: read-only", crawler.ErrInvalidConfig)}
	withFakeApp(t, fake)

	_, err := execute("crawl", "https://a.test/", "1", "1", "t")
	require.Error(t, err)
	assert.True(t, errors.Is(err, crawler.ErrInvalidConfig))
}

func TestRootCommandReportsAppInitFailure(t *testing.T) {
	original := newApp
	newApp = func(string) (App, error) { return nil, errors.New("bad config") }
	t.Cleanup(func() { newApp = original })

	_, err := execute("crawl", "https://a.test/", "1", "1", "t")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to initialize application services")
}
