package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/niyaszukta-cmd/nyztrade-DCF/pkg/api/session"
	"github.com/niyaszukta-cmd/nyztrade-DCF/pkg/api/valuation"
	"github.com/niyaszukta-cmd/nyztrade-DCF/pkg/core/appconfig"
	"github.com/niyaszukta-cmd/nyztrade-DCF/pkg/core/fundamentals"
	"github.com/niyaszukta-cmd/nyztrade-DCF/pkg/core/sector"
	"github.com/niyaszukta-cmd/nyztrade-DCF/pkg/core/store"
)

func main() {
	// Load environment variables
	godotenv.Load()

	cfg, err := appconfig.Load("config/app.yaml")
	if err != nil {
		fmt.Printf("[FATAL] %v\n", err)
		os.Exit(1)
	}

	// Sector parameter table: file override, else built-in defaults.
	sectorTable := sector.DefaultTable()
	sectorPath := cfg.SectorFile
	if sectorPath == "" {
		sectorPath = "config/sectors.hjson"
	}
	if loaded, err := sector.LoadTable(sectorPath); err == nil {
		sectorTable = loaded
		fmt.Printf("[CONFIG] Loaded %d sector rows from %s\n", len(loaded), sectorPath)
	} else {
		fmt.Printf("[CONFIG] Using built-in sector table (%v)\n", err)
	}

	// Stock universe: same pattern.
	universe := sector.DefaultUniverse()
	universePath := cfg.UniverseFile
	if universePath == "" {
		universePath = "config/stocks.hjson"
	}
	if loaded, err := sector.LoadUniverse(universePath); err == nil {
		universe = loaded
		fmt.Printf("[CONFIG] Loaded %d stock categories from %s\n", len(loaded), universePath)
	} else {
		fmt.Printf("[CONFIG] Using built-in stock universe (%v)\n", err)
	}

	// Optional Postgres persistence. A failed init degrades to file cache
	// plus no run history rather than refusing to start.
	if cfg.Database.Enabled {
		if err := store.InitDB(context.Background()); err != nil {
			fmt.Printf("[WARNING] Database disabled: %v\n", err)
		} else {
			fmt.Println("[DB] Connected")
			defer store.Close()
		}
	}

	// Fetch pipeline: Yahoo Finance behind the retry decorator.
	src := &fundamentals.Retrying{
		Source: fundamentals.NewYahooFetcher(),
		Policy: fundamentals.RetryPolicy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			BaseDelay:   cfg.RetryBaseDelay(),
		},
	}
	cache := store.NewFundamentalsCache(store.GetPool(), cfg.Cache.Dir, cfg.CacheTTL())
	runs := store.NewRunStore(store.GetPool())

	valuation.InitHandler(src, cache, runs, sectorTable, universe,
		cfg.Defaults.RiskFreeRate, cfg.Defaults.MarketPremium, cfg.Defaults.Horizon)

	// Session endpoints
	http.HandleFunc("/api/session/login", session.HandleLogin)
	http.HandleFunc("/api/session/logout", session.HandleLogout)

	// Valuation endpoints
	http.HandleFunc("/api/valuation/run", valuation.HandleRun)
	http.HandleFunc("/api/valuation/history", valuation.HandleHistory)
	http.HandleFunc("/api/stocks", valuation.HandleStocks)
	http.HandleFunc("/api/sectors", valuation.HandleSectors)

	fmt.Printf("API server starting on %s...\n", cfg.ListenAddr)
	fmt.Println("  - POST /api/session/login")
	fmt.Println("  - POST /api/session/logout")
	fmt.Println("  - POST /api/valuation/run")
	fmt.Println("  - GET  /api/valuation/history")
	fmt.Println("  - GET  /api/stocks")
	fmt.Println("  - GET  /api/sectors")

	if err := http.ListenAndServe(cfg.ListenAddr, nil); err != nil {
		fmt.Printf("[FATAL] Server failed to start: %v\n", err)
		os.Exit(1)
	}
}
