package crawler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	valid := Config{
		SeedURL:         "https://a.test",
		MaxLinksPerPage: 2,
		MaxDepth:        1,
		NumWorkers:      4,
	}
	require.NoError(t, valid.Validate())

	zeroDepth := valid
	zeroDepth.MaxDepth = 0
	require.NoError(t, zeroDepth.Validate())

	testCases := map[string]func(c *Config){
		"missing seed":   func(c *Config) { c.SeedURL = "" },
		"zero links":     func(c *Config) { c.MaxLinksPerPage = 0 },
		"negative depth": func(c *Config) { c.MaxDepth = -1 },
		"no workers":     func(c *Config) { c.NumWorkers = 0 },
		"negative links": func(c *Config) { c.MaxLinksPerPage = -3 },
	}
	for name, mutate := range testCases {
		t.Run(name, func(t *testing.T) {
			cfg := valid
			mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			require.True(t, errors.Is(err, ErrInvalidConfig))
		})
	}
}

func TestStatsAdd(t *testing.T) {
	t.Parallel()

	total := Stats{Pages: 1, LinksEnqueued: 2}
	total.Add(Stats{Pages: 3, FetchFailures: 1, PersistFailures: 1, Panics: 1, LinksEnqueued: 1, DuplicateLinks: 4})
	require.Equal(t, Stats{
		Pages:           4,
		FetchFailures:   1,
		PersistFailures: 1,
		Panics:          1,
		LinksEnqueued:   3,
		DuplicateLinks:  4,
	}, total)
}
