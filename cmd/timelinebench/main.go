// timelinebench measures feed assembly for a viewer following many authors
// while likes keep reshuffling the order.
package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/d60-Lab/yblog/config"
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

func envInt(name string, def int) int {
	if s := os.Getenv(name); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			return v
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

	// POSTS 为每个作者的推文数；LIKES 次点赞之间均匀穿插 REPEAT 次读
	AUTHORS := envInt("AUTHORS", 50)
	POSTS := envInt("POSTS", 20)
	FANS := envInt("FANS", 30)
	LIKES := envInt("LIKES", 2000)
	REPEAT := envInt("REPEAT", 50)

	run := uuid.NewString()[:6]
	newUser := func(kind string, i int) int64 {
		nick := fmt.Sprintf("%s%s%d", kind, run, i)
		return must(svc.Users.Create(ctx, nick, nick, nick+"@bench.local", kind+"-"+run+"-"+strconv.Itoa(i)))
	}

	viewer := newUser("v", 0)
	var tweets []int64
	for a := 0; a < AUTHORS; a++ {
		author := newUser("a", a)
		if _, err := svc.Relations.Follow(ctx, author, viewer); err != nil {
			panic(err)
		}
		for p := 0; p < POSTS; p++ {
			tweets = append(tweets, must(svc.Tweets.Create(ctx, author, fmt.Sprintf("post %d of %d", p, a))))
		}
	}
	fans := make([]int64, FANS)
	for i := range fans {
		fans[i] = newUser("f", i)
	}

	rnd := rand.New(rand.NewSource(7))
	likeDur := make([]time.Duration, 0, LIKES)
	readDur := make([]time.Duration, 0, REPEAT)
	every := LIKES / REPEAT
	if every == 0 {
		every = 1
	}
	unordered := 0
	size := 0
	for i := 0; i < LIKES; i++ {
		st := time.Now()
		if _, err := svc.Engagement.Like(ctx, fans[rnd.Intn(FANS)], tweets[rnd.Intn(len(tweets))]); err != nil {
			panic(err)
		}
		likeDur = append(likeDur, time.Since(st))

		if i%every == 0 && len(readDur) < REPEAT {
			st = time.Now()
			feed := must(svc.Feed.AssembleFeed(ctx, viewer))
			readDur = append(readDur, time.Since(st))
			size = len(feed)
			for j := 1; j < len(feed); j++ {
				if feed[j-1].LikesCount < feed[j].LikesCount {
					unordered++
				}
			}
		}
	}

	drift := must(svc.Engagement.AuditCounters(ctx))
	fmt.Printf("AUTHORS=%d POSTS=%d FANS=%d LIKES=%d REPEAT=%d\n", AUTHORS, POSTS, FANS, LIKES, REPEAT)
	fmt.Printf("Like tx latency: p50=%v p95=%v p99=%v\n", pct(likeDur, 0.50), pct(likeDur, 0.95), pct(likeDur, 0.99))
	fmt.Printf("Feed read (%d tweets): p50=%v p95=%v p99=%v\n", size, pct(readDur, 0.50), pct(readDur, 0.95), pct(readDur, 0.99))
	fmt.Printf("Out-of-order pairs: %d, drifted counters: %d\n", unordered, len(drift))
}
