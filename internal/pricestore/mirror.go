package pricestore

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"pump-alerts/internal/model"
)

// Entry is one recorded sample destined for a mirror.
type Entry struct {
	Pair   string
	Sample model.Sample
}

// Mirror receives copies of recorded samples. The core never reads from it.
type Mirror interface {
	Append(ctx context.Context, entries []Entry) error
}

// RedisMirror copies samples into per-pair sorted sets scored by unix milliseconds.
type RedisMirror struct {
	rdb      *redis.Client
	prefix   string
	capacity int
}

// NewRedisMirror wraps a redis client. capacity bounds each sorted set.
func NewRedisMirror(rdb *redis.Client, prefix string, capacity int) *RedisMirror {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	prefix = strings.TrimSuffix(prefix, ":")
	if prefix == "" {
		prefix = "pumpalerts"
	}
	return &RedisMirror{rdb: rdb, prefix: prefix, capacity: capacity}
}

// Append writes all entries in one pipeline and trims each touched set.
func (m *RedisMirror) Append(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	pipe := m.rdb.Pipeline()
	touched := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		key := m.key(e.Pair)
		pipe.ZAdd(ctx, key, redis.Z{
			Score:  float64(e.Sample.Time.UnixMilli()),
			Member: member(e.Sample),
		})
		touched[key] = struct{}{}
	}
	for key := range touched {
		pipe.ZRemRangeByRank(ctx, key, 0, int64(-m.capacity-1))
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("mirror samples to redis: %w", err)
	}
	return nil
}

// Close releases the redis client.
func (m *RedisMirror) Close() error {
	return m.rdb.Close()
}

func (m *RedisMirror) key(pair string) string {
	return fmt.Sprintf("%s:prices:%s", m.prefix, pair)
}

// member embeds the timestamp so equal prices at different times stay distinct.
func member(s model.Sample) string {
	return fmt.Sprintf("%d:%s", s.Time.UnixMilli(), s.Price.String())
}

var _ Mirror = (*RedisMirror)(nil)
