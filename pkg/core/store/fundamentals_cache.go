package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/niyaszukta-cmd/nyztrade-DCF/pkg/core/fundamentals"
)

// DefaultCacheTTL bounds how stale a cached fundamentals snapshot may be
// before a refetch is forced.
const DefaultCacheTTL = 3 * time.Hour

// FundamentalsCache caches fetched company fundamentals keyed by ticker.
// Hybrid: DB (primary) + file system (fallback/local).
type FundamentalsCache struct {
	pool    *pgxpool.Pool
	fileDir string
	ttl     time.Duration
}

// NewFundamentalsCache creates a cache instance. If pool is nil it falls
// back to a file-based cache in dir; an empty dir defaults to
// .cache/fundamentals.
func NewFundamentalsCache(pool *pgxpool.Pool, dir string, ttl time.Duration) *FundamentalsCache {
	if pool == nil && dir == "" {
		dir = filepath.Join(".cache", "fundamentals")
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			fmt.Printf("[WARNING] Check FundamentalsCache dir: %v\n", err)
		}
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &FundamentalsCache{pool: pool, fileDir: dir, ttl: ttl}
}

type cacheEnvelope struct {
	Ticker   string               `json:"ticker"`
	Bundle   *fundamentals.Bundle `json:"bundle"`
	CachedAt time.Time            `json:"cached_at"`
}

// Get returns the cached bundle for a ticker, or nil on a miss or an
// expired entry. Expiry uses the cache's TTL against the stored timestamp.
func (c *FundamentalsCache) Get(ctx context.Context, ticker string) (*fundamentals.Bundle, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	if c.pool != nil {
		query := `
			SELECT data, fetched_at
			FROM fundamentals_cache
			WHERE ticker = $1
			LIMIT 1
		`
		var dataJSON []byte
		var fetchedAt time.Time
		err := c.pool.QueryRow(ctx, query, ticker).Scan(&dataJSON, &fetchedAt)
		if err != nil {
			return nil, nil // cache miss
		}
		if time.Since(fetchedAt) > c.ttl {
			return nil, nil
		}
		var b fundamentals.Bundle
		if err := json.Unmarshal(dataJSON, &b); err != nil {
			return nil, fmt.Errorf("failed to unmarshal db cached fundamentals: %w", err)
		}
		return &b, nil
	}

	if c.fileDir != "" {
		return c.loadFromFile(c.tickerPath(ticker))
	}

	return nil, nil
}

// Save stores a fetched bundle, overwriting any prior entry for the ticker.
func (c *FundamentalsCache) Save(ctx context.Context, bundle *fundamentals.Bundle) error {
	ticker := strings.ToUpper(strings.TrimSpace(bundle.Ticker))
	now := time.Now().UTC()

	if c.pool != nil {
		dataJSON, err := json.Marshal(bundle)
		if err != nil {
			return fmt.Errorf("failed to marshal fundamentals: %w", err)
		}
		query := `
			INSERT INTO fundamentals_cache (ticker, data, fetched_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (ticker)
			DO UPDATE SET
				data = EXCLUDED.data,
				fetched_at = EXCLUDED.fetched_at
		`
		if _, err := c.pool.Exec(ctx, query, ticker, dataJSON, now); err != nil {
			return fmt.Errorf("failed to save to db cache: %w", err)
		}
	}

	if c.fileDir != "" {
		env := cacheEnvelope{Ticker: ticker, Bundle: bundle, CachedAt: now}
		data, err := json.MarshalIndent(env, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal cache envelope: %w", err)
		}
		if err := os.WriteFile(c.tickerPath(ticker), data, 0644); err != nil {
			return fmt.Errorf("failed to write cache file: %w", err)
		}
	}

	return nil
}

func (c *FundamentalsCache) tickerPath(ticker string) string {
	safe := strings.ReplaceAll(ticker, string(os.PathSeparator), "_")
	return filepath.Join(c.fileDir, safe+".json")
}

func (c *FundamentalsCache) loadFromFile(path string) (*fundamentals.Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil // miss
	}
	var env cacheEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache file %s: %w", path, err)
	}
	if time.Since(env.CachedAt) > c.ttl {
		return nil, nil
	}
	return env.Bundle, nil
}
