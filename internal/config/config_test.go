package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("QUERY_DEFAULT_PAGE_SIZE", "")
	t.Setenv("QUERY_MAX_PAGE_SIZE", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, StoreDriverPostgres, cfg.Store.Driver)
	require.Equal(t, 10, cfg.Query.DefaultPageSize)
	require.Equal(t, 100, cfg.Query.MaxPageSize)
	require.Equal(t, time.Minute, cfg.Worker.QuoteExpiryInterval)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("QUERY_DEFAULT_PAGE_SIZE", "25")
	t.Setenv("QUERY_MAX_PAGE_SIZE", "50")
	t.Setenv("REDIS_REFERENCE_CACHE_TTL_SECONDS", "5")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, StoreDriverMemory, cfg.Store.Driver)
	require.Equal(t, 25, cfg.Query.DefaultPageSize)
	require.Equal(t, 50, cfg.Query.MaxPageSize)
	require.Equal(t, 5*time.Second, cfg.Redis.ReferenceCacheTTL)
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_RejectsInvertedPageBounds(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("QUERY_DEFAULT_PAGE_SIZE", "50")
	t.Setenv("QUERY_MAX_PAGE_SIZE", "20")

	_, err := Load()
	require.Error(t, err)
}
