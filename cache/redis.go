package cache

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yaseralshikh/taskguard"
)

var _ taskguard.Cache = (*Redis)(nil)

// Redis shares permission lookups between engine replicas.
//
// Invalidation bumps a version counter instead of scanning keys: entry
// keys embed the tenant and user versions read by Stamp, so a bump
// orphans old entries and lets their TTL reclaim them. A result computed
// across a bump is written under the old versions and never read.
type Redis struct {
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
	logger *slog.Logger
}

// RedisOption configures the Redis cache.
type RedisOption func(*Redis)

// WithRedisTTL sets the entry time-to-live.
func WithRedisTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) { r.ttl = ttl }
}

// WithKeyPrefix namespaces every key. Defaults to "taskguard".
func WithKeyPrefix(prefix string) RedisOption {
	return func(r *Redis) { r.prefix = prefix }
}

// WithRedisLogger sets the logger used for transport errors.
func WithRedisLogger(l *slog.Logger) RedisOption {
	return func(r *Redis) { r.logger = l }
}

// NewRedis wraps client. Transport errors are logged and treated as
// misses so a Redis outage degrades to uncached lookups.
func NewRedis(client redis.UniversalClient, opts ...RedisOption) *Redis {
	r := &Redis{
		client: client,
		ttl:    5 * time.Minute,
		prefix: "taskguard",
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Redis) Get(ctx context.Context, tenantID string, key taskguard.PermissionKey) (bool, bool) {
	versions, err := r.versions(ctx, tenantID, key.UserID)
	if err != nil {
		r.logError("get", err)
		return false, false
	}
	v, err := r.client.Get(ctx, r.entryKey(tenantID, versions, key)).Result()
	if errors.Is(err, redis.Nil) {
		return false, false
	}
	if err != nil {
		r.logError("get", err)
		return false, false
	}
	return v == "1", true
}

// Stamp returns "tenantVersion:userVersion", or "" when Redis is
// unreachable.
func (r *Redis) Stamp(ctx context.Context, tenantID string, key taskguard.PermissionKey) string {
	versions, err := r.versions(ctx, tenantID, key.UserID)
	if err != nil {
		r.logError("stamp", err)
		return ""
	}
	return versions
}

func (r *Redis) Set(ctx context.Context, tenantID string, key taskguard.PermissionKey, stamp string, allowed bool) {
	if stamp == "" {
		return
	}
	v := "0"
	if allowed {
		v = "1"
	}
	if err := r.client.Set(ctx, r.entryKey(tenantID, stamp, key), v, r.ttl).Err(); err != nil {
		r.logError("set", err)
	}
}

func (r *Redis) InvalidateTenant(ctx context.Context, tenantID string) {
	if err := r.client.Incr(ctx, r.tenantVersionKey(tenantID)).Err(); err != nil {
		r.logError("invalidate tenant", err)
	}
}

func (r *Redis) InvalidateUser(ctx context.Context, tenantID, userID string) {
	if err := r.client.Incr(ctx, r.userVersionKey(tenantID, userID)).Err(); err != nil {
		r.logError("invalidate user", err)
	}
}

func (r *Redis) tenantVersionKey(tenantID string) string {
	return r.prefix + ":ver:" + tenantID
}

func (r *Redis) userVersionKey(tenantID, userID string) string {
	return r.prefix + ":ver:" + tenantID + ":" + userID
}

// versions reads both counters in one round trip as "tenant:user".
func (r *Redis) versions(ctx context.Context, tenantID, userID string) (string, error) {
	vals, err := r.client.MGet(ctx, r.tenantVersionKey(tenantID), r.userVersionKey(tenantID, userID)).Result()
	if err != nil {
		return "", err
	}
	return version(vals[0]) + ":" + version(vals[1]), nil
}

// entryKey is prefix:tenant:tv:user:uv:permission:scope.
func (r *Redis) entryKey(tenantID, versions string, key taskguard.PermissionKey) string {
	tv, uv, _ := strings.Cut(versions, ":")
	return strings.Join([]string{
		r.prefix,
		tenantID, tv,
		key.UserID, uv,
		key.Permission,
		key.Scope.String(),
	}, ":")
}

func version(v any) string {
	s, ok := v.(string)
	if !ok {
		return "0"
	}
	if _, err := strconv.ParseInt(s, 10, 64); err != nil {
		return "0"
	}
	return s
}

func (r *Redis) logError(op string, err error) {
	r.logger.Warn("redis cache error",
		slog.String("op", op),
		slog.String("error", err.Error()),
	)
}
