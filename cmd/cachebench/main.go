// cachebench compares profile view latency with and without the redis
// read cache while a share of requests follow/unfollow and invalidate it.
package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/d60-Lab/yblog/config"
	"github.com/d60-Lab/yblog/internal/cache"
	"github.com/d60-Lab/yblog/internal/service"
	"github.com/d60-Lab/yblog/pkg/blob"
	"github.com/d60-Lab/yblog/pkg/database"
	"github.com/d60-Lab/yblog/pkg/logger"
)

func main() {
	ctx := context.Background()
	cfg := must(config.Load())
	_ = logger.Init("warn", cfg.Log.Format)
	db := must(database.InitDB(cfg))
	defer database.Close(db)

	redisAddr := cfg.Redis.Addr
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: redisAddr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	defer client.Close()
	if err := client.Ping(ctx).Err(); err != nil {
		panic(fmt.Sprintf("redis %s: %v", redisAddr, err))
	}

	const ttl = 10 * time.Minute
	rc := cache.New(client, ttl)
	store := blob.NewOsStore(os.TempDir(), cfg.Media.MaxBytes)
	cached := service.New(db, store, rc)
	direct := service.New(db, store, nil)

	users := envInt("USERS", 2000)
	requests := envInt("REQ", 6000)
	writePct := envInt("WRITE_PCT", 5)

	fmt.Println("Setting up test data...")
	run := uuid.NewString()[:6]
	ids := make([]int64, users)
	for i := range ids {
		nick := fmt.Sprintf("c%s%d", run, i)
		ids[i] = must(direct.Users.Create(ctx, nick, nick, nick+"@bench.local", "cache-"+run+"-"+strconv.Itoa(i)))
	}
	// 三个热门用户，粉丝两两重叠一半
	hot := ids[:3]
	for i := 3; i < users; i++ {
		switch {
		case i < users/2:
			mustOutcome(direct.Relations.Follow(ctx, hot[0], ids[i]))
		case i < users*3/4:
			mustOutcome(direct.Relations.Follow(ctx, hot[0], ids[i]))
			mustOutcome(direct.Relations.Follow(ctx, hot[1], ids[i]))
		default:
			mustOutcome(direct.Relations.Follow(ctx, hot[1], ids[i]))
			mustOutcome(direct.Relations.Follow(ctx, hot[2], ids[i]))
		}
	}
	fmt.Printf("Test data ready: %d users, 3 hot profiles\n", users)

	reqs := makeRequests(requests, hot, ids, writePct)

	noCache := runScenario(ctx, direct, reqs, nil, client)
	withCache := runScenario(ctx, cached, reqs, rc, client)

	fmt.Printf("\nProfile view latency (%d req, %d%% writes, %d users)\n", requests, writePct, users)
	for _, r := range []struct {
		name string
		res  scenarioResult
	}{{"No cache", noCache}, {"Redis cache", withCache}} {
		fmt.Printf("%-12s avg=%v p95=%v p99=%v hits=%d misses=%d cache_keys=%d mem=%s\n",
			r.name, avg(r.res.durations), pct(r.res.durations, 0.95), pct(r.res.durations, 0.99),
			r.res.hits, r.res.misses, r.res.cacheKeys, formatBytes(r.res.memoryBytes))
	}
}

type request struct {
	profile  int64
	follower int64 // 非 0 表示写请求：切换关注状态
}

type scenarioResult struct {
	durations    []time.Duration
	hits, misses int64
	cacheKeys    int
	memoryBytes  int64
}

func runScenario(ctx context.Context, svc *service.Services, reqs []request, rc *cache.Cache, client *redis.Client) scenarioResult {
	client.FlushDB(ctx)
	rc.ResetStats()

	out := make([]time.Duration, 0, len(reqs))
	for _, r := range reqs {
		if r.follower != 0 {
			o := mustOutcome(svc.Relations.Follow(ctx, r.profile, r.follower))
			if o == service.AlreadyFollowing {
				mustOutcome(svc.Relations.Unfollow(ctx, r.profile, r.follower))
			}
			continue
		}
		start := time.Now()
		must(svc.Relations.ProfileView(ctx, r.profile))
		out = append(out, time.Since(start))
	}

	res := scenarioResult{durations: out}
	res.hits, res.misses = rc.Stats()
	if keys, err := client.Keys(ctx, "profile:*").Result(); err == nil {
		res.cacheKeys = len(keys)
	}
	if info, err := client.Info(ctx, "memory").Result(); err == nil {
		res.memoryBytes = parseRedisMemory(info)
	}
	return res
}

// parseRedisMemory 从 INFO memory 中取 used_memory
func parseRedisMemory(info string) int64 {
	for _, line := range strings.Split(info, "\n") {
		if v, ok := strings.CutPrefix(strings.TrimSpace(line), "used_memory:"); ok {
			n, _ := strconv.ParseInt(v, 10, 64)
			return n
		}
	}
	return 0
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func makeRequests(n int, hot, all []int64, writePct int) []request {
	rnd := rand.New(rand.NewSource(42))
	out := make([]request, n)
	for i := range out {
		profile := hot[rnd.Intn(len(hot))]
		if rnd.Float64() > 0.8 {
			profile = all[rnd.Intn(len(all))]
		}
		out[i] = request{profile: profile}
		if rnd.Intn(100) < writePct {
			follower := all[3+rnd.Intn(len(all)-3)]
			if follower != profile {
				out[i].follower = follower
			}
		}
	}
	return out
}

func envInt(name string, def int) int {
	if s := os.Getenv(name); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func avg(vs []time.Duration) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	var sum time.Duration
	for _, v := range vs {
		sum += v
	}
	return sum / time.Duration(len(vs))
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), vs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	idx := int(math.Ceil(p*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func mustOutcome(o service.Outcome, err error) service.Outcome {
	if err != nil {
		panic(err)
	}
	return o
}
