package finance

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestRateCacheServesFromRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := newFakeStore()
	store.rates = []ExchangeRates{{ID: "r-1", Base: "USD", Date: "2025-06-01", Rates: map[string]float64{"EUR": 0.9}}}
	svc := newTestService(store)
	svc.Rates = NewRateCache(store, client, time.Minute)
	ctx := context.Background()

	first := svc.Rates.Table(ctx)
	second := svc.Rates.Table(ctx)
	if first.Rates["EUR"] != 0.9 || second.Rates["EUR"] != 0.9 {
		t.Fatalf("unexpected tables %#v %#v", first, second)
	}
	if store.ratesLoaded != 1 {
		t.Fatalf("expected one store read, got %d", store.ratesLoaded)
	}
	if !mr.Exists(ratesCacheKey) {
		t.Fatalf("expected cached rates")
	}

	if _, err := svc.SaveRates(ctx, ExchangeRates{Rates: map[string]float64{"eur": 0.8}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if mr.Exists(ratesCacheKey) {
		t.Fatalf("save should drop the cache")
	}
	if got := svc.Rates.Table(ctx); got.Rates["EUR"] != 0.8 || got.Rates["USD"] != 1 {
		t.Fatalf("expected fresh rates, got %#v", got)
	}
	if store.ratesLoaded != 2 {
		t.Fatalf("expected second store read, got %d", store.ratesLoaded)
	}

	mr.FastForward(2 * time.Minute)
	if mr.Exists(ratesCacheKey) {
		t.Fatalf("cache entry should expire")
	}
}

func TestRateCacheWithoutRates(t *testing.T) {
	cache := NewRateCache(newFakeStore(), nil, 0)
	table := cache.Table(context.Background())
	if table.Base != "USD" || len(table.Rates) != 0 {
		t.Fatalf("unexpected empty table %#v", table)
	}
	if got := table.Convert(12, "EUR", "USD"); got != 12 {
		t.Fatalf("expected pass through, got %v", got)
	}
}

func TestSaveRatesValidation(t *testing.T) {
	svc := newTestService(newFakeStore())
	ctx := context.Background()
	if _, err := svc.SaveRates(ctx, ExchangeRates{}); !errors.Is(err, ErrInvalidRates) {
		t.Fatalf("expected invalid rates for empty map, got %v", err)
	}
	if _, err := svc.SaveRates(ctx, ExchangeRates{Rates: map[string]float64{"EUR": -1}}); !errors.Is(err, ErrInvalidRates) {
		t.Fatalf("expected invalid rates for negative value, got %v", err)
	}
	saved, err := svc.SaveRates(ctx, ExchangeRates{Rates: map[string]float64{"TRY": 38.5}})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.Base != "USD" || saved.Date != "2025-06-01" {
		t.Fatalf("unexpected defaults %#v", saved)
	}
}

func TestRateCacheFallsBackWhenRedisFails(t *testing.T) {
	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	mr := miniredis.RunT(t)
	mr.SetError("cache down")
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	store := newFakeStore()
	store.rates = []ExchangeRates{{ID: "r-1", Base: "USD", Date: "2025-06-01", Rates: map[string]float64{"EUR": 0.9}}}
	table := NewRateCache(store, client, time.Minute).Table(context.Background())
	if table.Rates["EUR"] != 0.9 {
		t.Fatalf("expected rates from the store, got %#v", table)
	}

	var found bool
	for _, line := range strings.Split(strings.TrimSpace(logs.String()), "\n") {
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("decode log line %q: %v", line, err)
		}
		if entry["msg"] != "read rates cache" {
			continue
		}
		found = true
		if _, ok := entry["err"]; !ok {
			t.Fatalf("expected err attribute, got %v", entry)
		}
		if _, ok := entry["error"]; ok {
			t.Fatalf("unexpected error attribute in %v", entry)
		}
	}
	if !found {
		t.Fatalf("expected a cache read warning, logs: %s", logs.String())
	}
}
