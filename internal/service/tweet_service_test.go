package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTweetService_Create(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	a := e.user(t, "alice")

	id := e.tweet(t, a, "first")
	assert.Zero(t, e.likesCount(t, id))

	_, err := e.svc.Tweets.Create(ctx, a, "   ")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = e.svc.Tweets.Create(ctx, 999, "ghost")
	assert.ErrorIs(t, err, ErrReferentialIntegrity)
}

func TestTweetService_DeleteCascades(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	a, b, c := e.user(t, "alice"), e.user(t, "bob"), e.user(t, "carol")
	_, err := e.svc.Relations.Follow(ctx, a, b)
	require.NoError(t, err)

	tw := e.tweet(t, a, "two pictures")
	keep := e.tweet(t, a, "stays")
	for _, name := range []string{"one.png", "two.jpg"} {
		_, err := e.svc.Media.Attach(ctx, tw, a, "tok-alice", name, strings.NewReader(name))
		require.NoError(t, err)
	}
	for _, u := range []int64{b, c} {
		_, err := e.svc.Engagement.Like(ctx, u, tw)
		require.NoError(t, err)
	}
	require.Len(t, e.store.puts, 2)

	require.NoError(t, e.svc.Tweets.Delete(ctx, tw, a))

	assert.Zero(t, e.count(t, "tweets", "id = ?", tw))
	assert.Zero(t, e.count(t, "media_attachments", "tweet_id = ?", tw))
	assert.Zero(t, e.count(t, "like_edges", "tweet_id = ?", tw))
	for _, key := range e.store.puts {
		ok, err := e.store.Exists(key)
		require.NoError(t, err)
		assert.False(t, ok, key)
	}

	feed, err := e.svc.Feed.AssembleFeed(ctx, b)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, keep, feed[0].ID)
}

func TestTweetService_DeleteNotOwned(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	a, b := e.user(t, "alice"), e.user(t, "bob")
	tw := e.tweet(t, a, "mine")
	_, err := e.svc.Engagement.Like(ctx, b, tw)
	require.NoError(t, err)

	assert.ErrorIs(t, e.svc.Tweets.Delete(ctx, tw, b), ErrNotFound)
	assert.ErrorIs(t, e.svc.Tweets.Delete(ctx, 999, a), ErrNotFound)
	assert.EqualValues(t, 1, e.count(t, "tweets", "id = ?", tw))
	assert.EqualValues(t, 1, e.likesCount(t, tw))
}

func TestTweetService_DeleteBare(t *testing.T) {
	e := setup(t)
	a := e.user(t, "alice")
	tw := e.tweet(t, a, "nothing attached")

	require.NoError(t, e.svc.Tweets.Delete(context.Background(), tw, a))
	assert.Zero(t, e.count(t, "tweets", "1 = 1"))
}

func TestTweetService_DeleteToleratesMissingBlob(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	a := e.user(t, "alice")
	tw := e.tweet(t, a, "pic")
	_, err := e.svc.Media.Attach(ctx, tw, a, "tok-alice", "a.png", strings.NewReader("a"))
	require.NoError(t, err)
	require.NoError(t, e.store.Remove(e.store.puts[0]))

	require.NoError(t, e.svc.Tweets.Delete(ctx, tw, a))
	assert.Zero(t, e.count(t, "media_attachments", "1 = 1"))
}
