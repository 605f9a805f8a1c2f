package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/niyaszukta-cmd/nyztrade-DCF/pkg/core/valuation"
)

// ValuationRun is one completed valuation, persisted for history queries.
type ValuationRun struct {
	ID          string                     `json:"id"`
	Ticker      string                     `json:"ticker"`
	FairValue   float64                    `json:"fair_value"`
	Price       float64                    `json:"price"`
	Result      *valuation.DCFResult       `json:"result"`
	Sensitivity *valuation.SensitivityGrid `json:"sensitivity,omitempty"`
	CreatedAt   time.Time                  `json:"created_at"`
}

// RunStore persists valuation runs. Hybrid like the fundamentals cache:
// DB when a pool is configured, pretty-printed JSON files otherwise. With
// neither, Save still assigns IDs and Recent returns nothing.
type RunStore struct {
	pool    *pgxpool.Pool
	fileDir string
}

// NewRunStore creates a store. If pool is nil, runs land in fileDir
// (default .cache/runs).
func NewRunStore(pool *pgxpool.Pool) *RunStore {
	fileDir := ""
	if pool == nil {
		fileDir = filepath.Join(".cache", "runs")
		if err := os.MkdirAll(fileDir, 0755); err != nil {
			fmt.Printf("[WARNING] Check RunStore dir: %v\n", err)
			fileDir = ""
		}
	}
	return &RunStore{pool: pool, fileDir: fileDir}
}

// NewFileRunStore creates a file-only store rooted at dir.
func NewFileRunStore(dir string) *RunStore {
	if err := os.MkdirAll(dir, 0755); err != nil {
		fmt.Printf("[WARNING] Check RunStore dir: %v\n", err)
	}
	return &RunStore{fileDir: dir}
}

// Save assigns the run an ID and writes it. Returns the run ID.
func (s *RunStore) Save(ctx context.Context, run *ValuationRun) (string, error) {
	run.ID = uuid.New().String()
	run.CreatedAt = time.Now().UTC()

	if s.pool != nil {
		resultJSON, err := json.Marshal(run.Result)
		if err != nil {
			return "", fmt.Errorf("failed to marshal result: %w", err)
		}
		sensJSON, err := json.Marshal(run.Sensitivity)
		if err != nil {
			return "", fmt.Errorf("failed to marshal sensitivity: %w", err)
		}

		query := `
			INSERT INTO valuation_runs (id, ticker, fair_value, price, result, sensitivity, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO NOTHING
		`
		_, err = s.pool.Exec(ctx, query,
			run.ID, run.Ticker, run.FairValue, run.Price, resultJSON, sensJSON, run.CreatedAt,
		)
		if err != nil {
			return "", fmt.Errorf("failed to save valuation run: %w", err)
		}
		return run.ID, nil
	}

	if s.fileDir != "" {
		data, err := json.MarshalIndent(run, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal run: %w", err)
		}
		if err := os.WriteFile(s.runPath(run.Ticker, run.ID), data, 0644); err != nil {
			return "", fmt.Errorf("failed to write run file: %w", err)
		}
	}

	return run.ID, nil
}

// Recent returns the latest runs for a ticker, newest first.
func (s *RunStore) Recent(ctx context.Context, ticker string, limit int) ([]ValuationRun, error) {
	if limit <= 0 {
		limit = 10
	}

	if s.pool != nil {
		return s.recentFromDB(ctx, ticker, limit)
	}
	if s.fileDir != "" {
		return s.recentFromFiles(ticker, limit)
	}
	return nil, nil
}

func (s *RunStore) recentFromDB(ctx context.Context, ticker string, limit int) ([]ValuationRun, error) {
	query := `
		SELECT id, ticker, fair_value, price, result, sensitivity, created_at
		FROM valuation_runs
		WHERE ticker = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := s.pool.Query(ctx, query, ticker, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query valuation runs: %w", err)
	}
	defer rows.Close()

	var runs []ValuationRun
	for rows.Next() {
		var run ValuationRun
		var resultJSON, sensJSON []byte
		if err := rows.Scan(&run.ID, &run.Ticker, &run.FairValue, &run.Price, &resultJSON, &sensJSON, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan valuation run: %w", err)
		}
		if len(resultJSON) > 0 {
			if err := json.Unmarshal(resultJSON, &run.Result); err != nil {
				return nil, fmt.Errorf("failed to unmarshal result: %w", err)
			}
		}
		if len(sensJSON) > 0 {
			if err := json.Unmarshal(sensJSON, &run.Sensitivity); err != nil {
				return nil, fmt.Errorf("failed to unmarshal sensitivity: %w", err)
			}
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *RunStore) recentFromFiles(ticker string, limit int) ([]ValuationRun, error) {
	pattern := filepath.Join(s.fileDir, safeTicker(ticker)+"_*.json")
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to list run files: %w", err)
	}

	var runs []ValuationRun
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var run ValuationRun
		if err := json.Unmarshal(data, &run); err != nil {
			fmt.Printf("[WARNING] Skipping unreadable run file %s: %v\n", path, err)
			continue
		}
		runs = append(runs, run)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].CreatedAt.After(runs[j].CreatedAt) })
	if len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (s *RunStore) runPath(ticker, id string) string {
	return filepath.Join(s.fileDir, fmt.Sprintf("%s_%s.json", safeTicker(ticker), id))
}

func safeTicker(ticker string) string {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	return strings.ReplaceAll(ticker, string(os.PathSeparator), "-")
}
