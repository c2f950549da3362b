// relbench hammers follow and like with duplicate concurrent requests and
// then checks that the graph and the likes counters are still consistent.
package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/d60-Lab/yblog/config"
	"github.com/d60-Lab/yblog/internal/model"
	"github.com/d60-Lab/yblog/internal/service"
	"github.com/d60-Lab/yblog/pkg/blob"
	"github.com/d60-Lab/yblog/pkg/database"
	"github.com/d60-Lab/yblog/pkg/logger"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func mustDo(err error) {
	if err != nil {
		panic(err)
	}
}

func envInt(name string, def int) int {
	if s := os.Getenv(name); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	xs := append([]time.Duration(nil), vs...)
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
	k := int(math.Ceil(p*float64(len(xs)))) - 1
	if k < 0 {
		k = 0
	}
	if k >= len(xs) {
		k = len(xs) - 1
	}
	return xs[k]
}

func main() {
	cfg := must(config.Load())
	_ = logger.Init("warn", cfg.Log.Format)
	db := must(database.InitDB(cfg))
	defer database.Close(db)

	svc := service.New(db, blob.NewOsStore(os.TempDir(), cfg.Media.MaxBytes), nil)
	ctx := context.Background()

	N := envInt("N", 2000)
	CONC := envInt("CONC", 16)
	DUP := envInt("DUP", 2) // 每个用户对同一目标并发请求的次数

	// u0 是大 V，所有人关注 u0 并给 u0 的推文点赞
	run := uuid.NewString()[:6]
	newUser := func(i int) int64 {
		nick := fmt.Sprintf("b%s%d", run, i)
		return must(svc.Users.Create(ctx, nick, nick, nick+"@bench.local", "bench-"+run+"-"+strconv.Itoa(i)))
	}
	celeb := newUser(0)
	tweet := must(svc.Tweets.Create(ctx, celeb, "hot take"))
	users := make([]int64, N)
	for i := range users {
		users[i] = newUser(i + 1)
	}

	var (
		mu       sync.Mutex
		follows  []time.Duration
		likes    []time.Duration
		outcomes = map[service.Outcome]*atomic.Int64{}
		failures atomic.Int64
	)
	for _, o := range []service.Outcome{service.Done, service.AlreadyFollowing, service.AlreadyLiked} {
		outcomes[o] = &atomic.Int64{}
	}
	record := func(dst *[]time.Duration, d time.Duration, o service.Outcome, err error) {
		if err != nil {
			failures.Add(1)
			return
		}
		if c, ok := outcomes[o]; ok {
			c.Add(1)
		}
		mu.Lock()
		*dst = append(*dst, d)
		mu.Unlock()
	}

	feed := make(chan int64, N*DUP)
	for _, u := range users {
		for d := 0; d < DUP; d++ {
			feed <- u
		}
	}
	close(feed)

	t0 := time.Now()
	var wg sync.WaitGroup
	for w := 0; w < CONC; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for u := range feed {
				st := time.Now()
				o, err := svc.Relations.Follow(ctx, celeb, u)
				record(&follows, time.Since(st), o, err)

				st = time.Now()
				o, err = svc.Engagement.Like(ctx, u, tweet)
				record(&likes, time.Since(st), o, err)
			}
		}()
	}
	wg.Wait()
	total := time.Since(t0)

	var edges int64
	mustDo(db.Model(&model.FollowEdge{}).Where("following_id = ?", celeb).Count(&edges).Error)
	var tw model.Tweet
	mustDo(db.First(&tw, tweet).Error)
	drift := must(svc.Engagement.AuditCounters(ctx))

	fmt.Printf("N=%d, CONC=%d, DUP=%d, total=%v\n", N, CONC, DUP, total)
	fmt.Printf("follow p50: %v, p95: %v, p99: %v\n", pct(follows, 0.50), pct(follows, 0.95), pct(follows, 0.99))
	fmt.Printf("like   p50: %v, p95: %v, p99: %v\n", pct(likes, 0.50), pct(likes, 0.95), pct(likes, 0.99))
	fmt.Printf("outcomes: done=%d already_following=%d already_liked=%d errors=%d\n",
		outcomes[service.Done].Load(), outcomes[service.AlreadyFollowing].Load(),
		outcomes[service.AlreadyLiked].Load(), failures.Load())
	fmt.Printf("follow edges=%d (want %d), likes_count=%d (want %d), drifted tweets=%d\n",
		edges, N, tw.LikesCount, N, len(drift))

	if edges != int64(N) || tw.LikesCount != int64(N) || len(drift) > 0 || failures.Load() > 0 {
		fmt.Println("INCONSISTENT")
		os.Exit(1)
	}
	fmt.Println("OK")
}
