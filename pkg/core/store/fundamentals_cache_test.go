package store

import (
	"context"
	"testing"
	"time"

	"github.com/niyaszukta-cmd/nyztrade-DCF/pkg/core/fundamentals"
)

func testBundle(ticker string) *fundamentals.Bundle {
	cf := fundamentals.NewStatement("2023", "2022")
	cf.SetCell("Free Cash Flow", 0, 120)
	cf.SetCell("Free Cash Flow", 1, 100)
	return &fundamentals.Bundle{
		Ticker:   ticker,
		Info:     &fundamentals.CompanyInfo{LongName: "Test Co", MarketCap: 1e9},
		CashFlow: cf,
	}
}

func TestFileCacheRoundTrip(t *testing.T) {
	cache := NewFundamentalsCache(nil, t.TempDir(), time.Hour)
	ctx := context.Background()

	if err := cache.Save(ctx, testBundle("ABC")); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := cache.Get(ctx, "abc") // lookup is case-insensitive
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("expected cache hit")
	}
	if got.Info.LongName != "Test Co" {
		t.Errorf("long name: got %q", got.Info.LongName)
	}
	row := got.CashFlow.Row("Free Cash Flow")
	if len(row) != 2 || row[0] == nil || *row[0] != 120 {
		t.Errorf("cash flow row not preserved: %v", row)
	}
}

func TestFileCacheMiss(t *testing.T) {
	cache := NewFundamentalsCache(nil, t.TempDir(), time.Hour)

	got, err := cache.Get(context.Background(), "NOPE")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Errorf("expected miss, got %+v", got)
	}
}

func TestFileCacheTTLExpiry(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	writer := NewFundamentalsCache(nil, dir, time.Hour)
	if err := writer.Save(ctx, testBundle("XYZ")); err != nil {
		t.Fatalf("save: %v", err)
	}

	reader := NewFundamentalsCache(nil, dir, time.Nanosecond)
	time.Sleep(time.Millisecond)

	got, err := reader.Get(ctx, "XYZ")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Error("expired entry must read as a miss")
	}
}

func TestFileCacheOverwrite(t *testing.T) {
	cache := NewFundamentalsCache(nil, t.TempDir(), time.Hour)
	ctx := context.Background()

	if err := cache.Save(ctx, testBundle("ABC")); err != nil {
		t.Fatalf("first save: %v", err)
	}
	updated := testBundle("ABC")
	updated.Info.MarketCap = 2e9
	if err := cache.Save(ctx, updated); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, err := cache.Get(ctx, "ABC")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.Info.MarketCap != 2e9 {
		t.Errorf("latest save must win: %+v", got)
	}
}
