package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/yblog/internal/repository"
	"github.com/d60-Lab/yblog/pkg/blob"
)

// hookStore 在写入文件前执行 onPut
type hookStore struct {
	blob.Store
	onPut func()
}

func (s *hookStore) Put(ctx context.Context, namespace, name string, r io.Reader) (string, int64, error) {
	s.onPut()
	return s.Store.Put(ctx, namespace, name, r)
}

func (e *env) mediaWithHook(onPut func()) MediaService {
	return NewMediaService(e.db, repository.NewTweetRepository(e.db), repository.NewMediaRepository(e.db),
		&hookStore{Store: e.store, onPut: onPut})
}

func TestAttach(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	a := e.user(t, "alice")
	tw := e.tweet(t, a, "with picture")

	id, err := e.svc.Media.Attach(ctx, tw, a, "tok-alice", `C:\photos\Cat.PNG`, strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.NotZero(t, id)

	require.Len(t, e.store.puts, 1)
	key := e.store.puts[0]
	assert.True(t, strings.HasPrefix(key, blob.Namespace("tok-alice")+"/"))
	assert.True(t, strings.HasSuffix(key, "-Cat.PNG"))

	ok, err := e.store.Exists(key)
	require.NoError(t, err)
	assert.True(t, ok)

	var path string
	require.NoError(t, e.db.Table("media_attachments").Select("path").Where("id = ?", id).Scan(&path).Error)
	assert.Equal(t, key, path)
}

func TestAttach_Rejected(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	a, b := e.user(t, "alice"), e.user(t, "bob")
	tw := e.tweet(t, a, "mine")

	tests := []struct {
		name     string
		tweetID  int64
		authorID int64
		filename string
		body     []byte
		want     error
	}{
		{"other author", tw, b, "x.png", []byte("x"), ErrNotFound},
		{"missing tweet", 999, a, "x.png", []byte("x"), ErrNotFound},
		{"bad extension", tw, a, "notes.txt", []byte("x"), ErrUnsupportedMediaType},
		{"no extension", tw, a, "png", []byte("x"), ErrUnsupportedMediaType},
		{"too large", tw, a, "big.jpg", bytes.Repeat([]byte("x"), 1<<20+1), ErrMediaTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.svc.Media.Attach(ctx, tt.tweetID, tt.authorID, "tok-alice", tt.filename, bytes.NewReader(tt.body))
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Empty(t, e.store.puts)
	assert.Zero(t, e.count(t, "media_attachments", "1 = 1"))
}

func TestAttach_RemovesBlobWhenInsertFails(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	a := e.user(t, "alice")
	tw := e.tweet(t, a, "mine")

	require.NoError(t, e.db.Callback().Create().Before("gorm:create").Register("test:refuse_media", func(tx *gorm.DB) {
		if tx.Statement.Schema != nil && tx.Statement.Schema.Table == "media_attachments" {
			_ = tx.AddError(errors.New("insert refused"))
		}
	}))

	_, err := e.svc.Media.Attach(ctx, tw, a, "tok-alice", "cat.gif", strings.NewReader("gif"))
	require.Error(t, err)

	require.Len(t, e.store.puts, 1)
	assert.Equal(t, e.store.puts, e.store.removes)
	ok, err := e.store.Exists(e.store.puts[0])
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, e.count(t, "media_attachments", "1 = 1"))
}

func TestExtension(t *testing.T) {
	tests := map[string]string{
		"a.png":      "png",
		"a.tar.JPEG": "jpeg",
		"a.":         "",
		"noext":      "",
		".gif":       "gif",
	}
	for in, want := range tests {
		assert.Equal(t, want, extension(in), in)
	}
	assert.Equal(t, "c.png", baseName("a/b/c.png"))
	assert.Equal(t, "c.png", baseName(`a\b\c.png`))
}

func TestAttach_UploadRunsOutsideTransaction(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	a := e.user(t, "alice")
	tw := e.tweet(t, a, "pic")

	// 连接池只有一个连接，若写文件时仍持有事务，这里会等到超时
	var queryErr error
	media := e.mediaWithHook(func() {
		qctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		var n int64
		queryErr = e.db.WithContext(qctx).Table("tweets").Count(&n).Error
	})

	id, err := media.Attach(ctx, tw, a, "tok-alice", "a.png", strings.NewReader("a"))
	require.NoError(t, err)
	assert.NotZero(t, id)
	assert.NoError(t, queryErr)
}

func TestAttach_TweetDeletedDuringUpload(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	a := e.user(t, "alice")
	tw := e.tweet(t, a, "short lived")

	media := e.mediaWithHook(func() {
		require.NoError(t, e.svc.Tweets.Delete(ctx, tw, a))
	})

	_, err := media.Attach(ctx, tw, a, "tok-alice", "a.png", strings.NewReader("a"))
	assert.ErrorIs(t, err, ErrNotFound)
	require.Len(t, e.store.puts, 1)
	assert.Equal(t, e.store.puts, e.store.removes)
	ok, err := e.store.Exists(e.store.puts[0])
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, e.count(t, "media_attachments", "1 = 1"))
}
