package service

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/yblog/internal/cache"
	"github.com/d60-Lab/yblog/pkg/blob"
	"github.com/d60-Lab/yblog/pkg/database"
)

type env struct {
	db    *gorm.DB
	store *recordingStore
	fs    afero.Fs
	svc   *Services
	cache *cache.Cache
	mr    *miniredis.Miniredis
}

// recordingStore 记录每次写入与删除，便于断言补偿清理
type recordingStore struct {
	blob.Store
	puts    []string
	removes []string
}

func (s *recordingStore) Put(ctx context.Context, namespace, name string, r io.Reader) (string, int64, error) {
	key, n, err := s.Store.Put(ctx, namespace, name, r)
	if err == nil {
		s.puts = append(s.puts, key)
	}
	return key, n, err
}

func (s *recordingStore) Remove(key string) error {
	s.removes = append(s.removes, key)
	return s.Store.Remove(key)
}

func setup(t *testing.T) *env {
	t.Helper()
	db, err := database.OpenSQLite("file::memory:?_foreign_keys=on", nil)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })

	fs := afero.NewMemMapFs()
	store := &recordingStore{Store: blob.NewFSStore(fs, "media", 1<<20)}

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	c := cache.New(client, time.Minute)

	return &env{db: db, store: store, fs: fs, svc: New(db, store, c), cache: c, mr: mr}
}

func (e *env) user(t *testing.T, nick string) int64 {
	t.Helper()
	id, err := e.svc.Users.Create(context.Background(), nick+" name", nick, nick+"@example.com", "tok-"+nick)
	require.NoError(t, err)
	return id
}

func (e *env) tweet(t *testing.T, authorID int64, content string) int64 {
	t.Helper()
	id, err := e.svc.Tweets.Create(context.Background(), authorID, content)
	require.NoError(t, err)
	return id
}

func (e *env) likesCount(t *testing.T, tweetID int64) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Table("tweets").Select("likes_count").Where("id = ?", tweetID).Scan(&n).Error)
	return n
}

func (e *env) count(t *testing.T, table, where string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Table(table).Where(where, args...).Count(&n).Error)
	return n
}
