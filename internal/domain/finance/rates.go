package finance

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const ratesCacheKey = "rates:latest"

// RateTable holds units of each currency per one unit of Base.
type RateTable struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

func (t RateTable) rate(currency string) (float64, bool) {
	if currency == t.Base {
		return 1, true
	}
	r, ok := t.Rates[currency]
	return r, ok && r > 0
}

// Convert goes through the base currency. A currency without a rate is
// logged and the amount passes through unchanged.
func (t RateTable) Convert(amount float64, from, to string) float64 {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	if from == to || from == "" || to == "" {
		return amount
	}
	fromRate, ok := t.rate(from)
	if !ok {
		slog.Warn("no exchange rate, amount not converted", "currency", from)
		return amount
	}
	toRate, ok := t.rate(to)
	if !ok {
		slog.Warn("no exchange rate, amount not converted", "currency", to)
		return amount
	}
	return amount / fromRate * toRate
}

type ratesRepo interface {
	LatestRates(ctx context.Context) (ExchangeRates, error)
	SaveRates(ctx context.Context, r ExchangeRates) error
}

// RateCache serves the latest stored rates, keeping a copy in Redis. A nil
// client disables caching.
type RateCache struct {
	store  ratesRepo
	client *redis.Client
	ttl    time.Duration
}

func NewRateCache(store ratesRepo, client *redis.Client, ttl time.Duration) *RateCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RateCache{store: store, client: client, ttl: ttl}
}

// Table never fails; without stored rates every conversion passes through.
func (c *RateCache) Table(ctx context.Context) RateTable {
	if c.client != nil {
		raw, err := c.client.Get(ctx, ratesCacheKey).Bytes()
		switch {
		case err == nil:
			var table RateTable
			if err := json.Unmarshal(raw, &table); err == nil {
				return table
			}
		case !errors.Is(err, redis.Nil):
			slog.Warn("read rates cache", "err", err)
		}
	}

	latest, err := c.store.LatestRates(ctx)
	if err != nil {
		if !errors.Is(err, ErrRatesNotFound) {
			slog.Error("load exchange rates", "err", err)
		}
		return RateTable{Base: "USD"}
	}
	table := RateTable{Base: latest.Base, Rates: latest.Rates}
	if c.client != nil {
		if raw, err := json.Marshal(table); err == nil {
			if err := c.client.Set(ctx, ratesCacheKey, raw, c.ttl).Err(); err != nil {
				slog.Warn("write rates cache", "err", err)
			}
		}
	}
	return table
}

func (c *RateCache) invalidate(ctx context.Context) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, ratesCacheKey).Err(); err != nil {
		slog.Warn("invalidate rates cache", "err", err)
	}
}

func (s *Service) LatestRates(ctx context.Context) (ExchangeRates, error) {
	return s.Store.LatestRates(ctx)
}

// SaveRates stores a new rates row against base USD unless another base is
// given, then drops the cached table.
func (s *Service) SaveRates(ctx context.Context, in ExchangeRates) (ExchangeRates, error) {
	base := strings.ToUpper(strings.TrimSpace(in.Base))
	if base == "" {
		base = "USD"
	}
	if len(in.Rates) == 0 {
		return ExchangeRates{}, ErrInvalidRates
	}
	rates := make(map[string]float64, len(in.Rates))
	for code, value := range in.Rates {
		code = strings.ToUpper(strings.TrimSpace(code))
		if len(code) != 3 || value <= 0 {
			return ExchangeRates{}, ErrInvalidRates
		}
		rates[code] = value
	}
	rates[base] = 1
	date := in.Date
	if date == "" {
		date = s.today()
	} else if _, err := parseDate(date); err != nil {
		return ExchangeRates{}, err
	}
	out := ExchangeRates{ID: s.newID(), Base: base, Date: date, Rates: rates, FetchedAt: s.now()}
	if err := s.Store.SaveRates(ctx, out); err != nil {
		return ExchangeRates{}, err
	}
	if s.Rates != nil {
		s.Rates.invalidate(ctx)
	}
	return out, nil
}
