package market

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "candles:"

// RedisStore keeps each symbol's bounded history as a JSON-encoded
// list under candles:<symbol>, so the history survives process
// restarts and can be shared with chart consumers.
type RedisStore struct {
	client  *redis.Client
	timeout time.Duration
}

func NewRedisStore(addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connect %s: %w", addr, err)
	}

	return &RedisStore{client: client, timeout: 5 * time.Second}, nil
}

func (s *RedisStore) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

func (s *RedisStore) Append(symbol string, c Candle) error {
	if symbol == "" {
		return ErrUnknownSymbol
	}

	ctx, cancel := s.ctx()
	defer cancel()

	key := keyPrefix + symbol
	hist, err := s.load(ctx, key)
	if err != nil {
		return err
	}

	hist = append(hist, c)
	if len(hist) > MaxCandles {
		hist = hist[len(hist)-MaxCandles:]
	}

	data, err := json.Marshal(hist)
	if err != nil {
		return fmt.Errorf("marshal candles %q: %w", symbol, err)
	}
	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("append %q: %w", symbol, err)
	}
	return nil
}

func (s *RedisStore) Latest(symbol string) (Candle, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	hist, err := s.load(ctx, keyPrefix+symbol)
	if err != nil {
		return Candle{}, err
	}
	if len(hist) == 0 {
		return Candle{}, fmt.Errorf("latest %q: %w", symbol, ErrNoPriceData)
	}
	return hist[len(hist)-1], nil
}

func (s *RedisStore) Candles(symbol string) ([]Candle, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	hist, err := s.load(ctx, keyPrefix+symbol)
	if err != nil {
		return nil, err
	}
	if len(hist) == 0 {
		return nil, fmt.Errorf("candles %q: %w", symbol, ErrNoPriceData)
	}
	return hist, nil
}

func (s *RedisStore) Symbols() ([]string, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	var (
		out    []string
		cursor uint64
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("scan symbols: %w", err)
		}
		for _, k := range keys {
			out = append(out, strings.TrimPrefix(k, keyPrefix))
		}
		cursor = next
		if cursor == 0 {
			return out, nil
		}
	}
}

func (s *RedisStore) Reset() error {
	syms, err := s.Symbols()
	if err != nil {
		return err
	}

	ctx, cancel := s.ctx()
	defer cancel()
	for _, sym := range syms {
		if err := s.client.Del(ctx, keyPrefix+sym).Err(); err != nil {
			return fmt.Errorf("reset %q: %w", sym, err)
		}
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) load(ctx context.Context, key string) ([]Candle, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}

	var hist []Candle
	if err := json.Unmarshal(data, &hist); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return hist, nil
}
