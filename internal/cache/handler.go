// Package cache memoizes per-execution-edge record sets under a composite
// key, guarded by a distributed lock and streamed through an LZ4 pipeline
// (spec.md §4.5).
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	qerrors "github.com/biograph/trapi-engine/internal/errors"
	"github.com/biograph/trapi-engine/internal/recordstore"
)

// DefaultTTL is the per-key expiry set after every successful write when the
// operator has not overridden REDIS_KEY_EXPIRE_TIME.
const DefaultTTL = 600 * time.Second

// Handler is the cache boundary the batch edge query handler consults
// before fetching from downstream APIs. A Handler with a nil client is the
// disabled path: Lookup always misses, Store is a no-op, and neither
// acquires a lock (spec §4.5).
type Handler struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// New wraps an already-connected Redis client. ttl <= 0 falls back to
// DefaultTTL.
func New(client *redis.Client, ttl time.Duration) *Handler {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Handler{
		client: client,
		ttl:    ttl,
		logger: slog.Default().With("component", "cache"),
	}
}

// Disabled returns a Handler on the disable path: no backing store is
// configured, or the operator opted out via RESULT_CACHING.
func Disabled() *Handler {
	return &Handler{logger: slog.Default().With("component", "cache")}
}

func (h *Handler) enabled() bool { return h.client != nil }

// Lookup returns the cached record set for key, restoring qEdgeID onto each
// record (the back-reference is dropped on encode to keep payloads
// edge-agnostic, per spec §3). The second return value is false on a miss,
// on a disabled cache, or when the entire cached payload was unreadable.
func (h *Handler) Lookup(ctx context.Context, qEdgeID, key string) ([]*recordstore.Record, bool, error) {
	if !h.enabled() {
		return nil, false, nil
	}

	l, err := acquireLock(ctx, h.client, key, lockTTL)
	if err != nil {
		return nil, false, fmt.Errorf("cache lookup lock for %s: %w", key, err)
	}
	defer l.release(ctx)

	raw, err := h.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, false, qerrors.CacheErrorf(err, "hgetall for key %s", key)
	}
	if len(raw) == 0 {
		h.logger.Debug("cache miss", "key", key, "qEdgeID", qEdgeID)
		return nil, false, nil
	}

	records, warnings := DecodeChunks(orderedChunks(raw))
	for _, w := range warnings {
		h.logger.Warn("dropping malformed cached record", "key", key, "error", w)
	}
	if len(records) == 0 {
		h.logger.Debug("cache entry unreadable, degrading to miss", "key", key)
		return nil, false, nil
	}

	for _, r := range records {
		r.TrapiQEdgeID = qEdgeID
	}
	h.logger.Debug("cache hit", "key", key, "qEdgeID", qEdgeID, "records", len(records))
	return records, true, nil
}

// Store replaces key's cached record set and resets its TTL. A no-op on the
// disabled path.
func (h *Handler) Store(ctx context.Context, key string, records []*recordstore.Record) error {
	if !h.enabled() {
		return nil
	}

	l, err := acquireLock(ctx, h.client, key, lockTTL)
	if err != nil {
		return fmt.Errorf("cache store lock for %s: %w", key, err)
	}
	defer l.release(ctx)

	chunks, err := EncodeChunks(records)
	if err != nil {
		return qerrors.CacheErrorf(err, "encode records for key %s", key)
	}

	if err := h.client.Del(ctx, key).Err(); err != nil {
		return qerrors.CacheErrorf(err, "clear stale entry for key %s", key)
	}
	if len(chunks) > 0 {
		fields := make(map[string]interface{}, len(chunks))
		for i, c := range chunks {
			fields[chunkFieldName(i)] = c
		}
		if err := h.client.HSet(ctx, key, fields).Err(); err != nil {
			return qerrors.CacheErrorf(err, "hset for key %s", key)
		}
	}
	if err := h.client.Expire(ctx, key, h.ttl).Err(); err != nil {
		return qerrors.CacheErrorf(err, "expire key %s", key)
	}

	h.logger.Debug("cache store", "key", key, "chunks", len(chunks), "ttl", h.ttl)
	return nil
}

func chunkFieldName(i int) string { return fmt.Sprintf("chunk:%04d", i) }

// orderedChunks restores chunk write order from a hash field map, since
// HGETALL does not guarantee field ordering.
func orderedChunks(raw map[string]string) []string {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = raw[k]
	}
	return out
}
