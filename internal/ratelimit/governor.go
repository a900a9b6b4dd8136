// package ratelimit implements per-user sliding-window admission control in
// front of the transfer engine.
//
// The primary counter store is Redis, shared by every process serving
// transfers. Check-and-record runs as a single Lua script so two concurrent
// checks at the window boundary cannot both pass. When Redis is unreachable
// the governor degrades to a single-process in-memory window, and when no
// store at all can be consulted it fails open: the request is admitted and
// the verdict says so.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Config contains the window parameters.
type Config struct {
	MaxRequests int
	Window      time.Duration
}

// Verdict is the outcome of one admission check. FailOpen marks requests
// admitted because no enforcement path was available; operationally that is
// a different animal from a normal allow.
type Verdict struct {
	Allowed    bool          `json:"allowed"`
	FailOpen   bool          `json:"fail_open"`
	Reason     string        `json:"reason"`
	Remaining  int           `json:"remaining"`
	RetryAfter time.Duration `json:"retry_after,omitempty"`
}

// Info describes a user's current window, for introspection endpoints.
type Info struct {
	Current   int       `json:"current_requests"`
	Max       int       `json:"max_requests"`
	Remaining int       `json:"remaining"`
	Window    string    `json:"window"`
	ResetAt   time.Time `json:"reset_at"`
}

// admitScript atomically prunes aged timestamps, counts the window, and
// records the new request only when the count is under the limit. Returns
// {allowed, count-after}.
var admitScript = redis.NewScript(`
local cutoff = tonumber(ARGV[1]) - tonumber(ARGV[2])
redis.call('ZREMRANGEBYSCORE', KEYS[1], 0, cutoff)
local count = redis.call('ZCARD', KEYS[1])
if count >= tonumber(ARGV[3]) then
  return {0, count}
end
redis.call('ZADD', KEYS[1], tonumber(ARGV[1]), ARGV[4])
redis.call('PEXPIRE', KEYS[1], tonumber(ARGV[2]))
return {1, count + 1}
`)

// Governor gates transfer requests per user.
type Governor struct {
	rdb    *redis.Client // nil when Redis was unreachable at startup
	mem    *memoryWindow
	cfg    Config
	logger *log.Logger
	now    func() time.Time
}

// NewGovernor creates a Governor backed by the Redis instance at redisURL.
// An empty URL or an unreachable instance is logged and the governor starts
// in degraded in-memory mode.
func NewGovernor(redisURL string, cfg Config, logger *log.Logger) *Governor {
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = 3
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Hour
	}

	g := &Governor{
		mem:    newMemoryWindow(),
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}

	if redisURL == "" {
		logger.Warn("no redis URL configured, rate limiting is per-process only")
		return g
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Warn("invalid redis URL, rate limiting is per-process only", "err", err)
		return g
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable, rate limiting is per-process only", "err", err)
		client.Close()
		return g
	}

	logger.Info("connected to redis for rate limiting")
	g.rdb = client
	return g
}

// Admit checks whether userID may start a transfer now and, if so, records
// the request. The check and the record are one atomic unit per user.
func (g *Governor) Admit(ctx context.Context, userID string) Verdict {
	if g.rdb != nil {
		v, err := g.admitRedis(ctx, userID)
		if err == nil {
			return v
		}
		g.logger.Warn("redis admission check failed, degrading to in-memory window", "user", userID, "err", err)
	}

	if g.mem != nil {
		return g.mem.admit(userID, g.cfg, g.now())
	}

	g.logger.Warn("rate limiting unavailable, admitting request without enforcement", "user", userID)
	return Verdict{
		Allowed:  true,
		FailOpen: true,
		Reason:   "rate limiting unavailable; request allowed without enforcement",
	}
}

func (g *Governor) admitRedis(ctx context.Context, userID string) (Verdict, error) {
	key := windowKey(userID)
	now := g.now().UnixMilli()
	windowMs := g.cfg.Window.Milliseconds()
	member := fmt.Sprintf("%d-%s", now, uuid.New().String())

	res, err := admitScript.Run(ctx, g.rdb, []string{key}, now, windowMs, g.cfg.MaxRequests, member).Slice()
	if err != nil {
		return Verdict{}, fmt.Errorf("admission script failed: %w", err)
	}
	if len(res) != 2 {
		return Verdict{}, fmt.Errorf("unexpected script reply: %v", res)
	}

	allowed, _ := res[0].(int64)
	count, _ := res[1].(int64)

	if allowed == 1 {
		return Verdict{
			Allowed:   true,
			Reason:    "OK",
			Remaining: g.cfg.MaxRequests - int(count),
		}, nil
	}

	return Verdict{
		Reason:     g.deniedReason(),
		RetryAfter: g.redisRetryAfter(ctx, key),
	}, nil
}

// redisRetryAfter estimates when the oldest recorded request ages out of the
// window. Best effort: on any error the full window is reported.
func (g *Governor) redisRetryAfter(ctx context.Context, key string) time.Duration {
	entries, err := g.rdb.ZRangeWithScores(ctx, key, 0, 0).Result()
	if err != nil || len(entries) == 0 {
		return g.cfg.Window
	}

	oldest := time.UnixMilli(int64(entries[0].Score))
	retry := oldest.Add(g.cfg.Window).Sub(g.now())
	if retry < 0 {
		retry = 0
	}
	return retry
}

func (g *Governor) deniedReason() string {
	return fmt.Sprintf("rate limit exceeded: max %d requests per %s", g.cfg.MaxRequests, g.cfg.Window)
}

// Info returns the current window state for userID without recording a
// request.
func (g *Governor) Info(ctx context.Context, userID string) Info {
	info := Info{
		Max:    g.cfg.MaxRequests,
		Window: g.cfg.Window.String(),
	}

	now := g.now()
	if g.rdb != nil {
		cutoff := now.Add(-g.cfg.Window).UnixMilli()
		count, err := g.rdb.ZCount(ctx, windowKey(userID), fmt.Sprintf("%d", cutoff), "+inf").Result()
		if err == nil {
			info.Current = int(count)
			info.Remaining = max(0, g.cfg.MaxRequests-int(count))
			info.ResetAt = now.Add(g.cfg.Window)
			return info
		}
		g.logger.Warn("redis window lookup failed", "user", userID, "err", err)
	}

	info.Current = g.mem.count(userID, g.cfg, now)
	info.Remaining = max(0, g.cfg.MaxRequests-info.Current)
	info.ResetAt = now.Add(g.cfg.Window)
	return info
}

// PingStore reports whether the durable counter store is reachable.
func (g *Governor) PingStore(ctx context.Context) error {
	if g.rdb == nil {
		return fmt.Errorf("redis not configured")
	}
	return g.rdb.Ping(ctx).Err()
}

// Close releases the Redis connection, if any.
func (g *Governor) Close() error {
	if g.rdb == nil {
		return nil
	}
	return g.rdb.Close()
}

func windowKey(userID string) string {
	return "rate_limit:" + userID
}
