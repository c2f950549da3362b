package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/yblog/config"
	"github.com/d60-Lab/yblog/internal/service"
	"github.com/d60-Lab/yblog/pkg/blob"
	"github.com/d60-Lab/yblog/pkg/database"
	"github.com/d60-Lab/yblog/pkg/response"
)

type testServer struct {
	t  *testing.T
	h  http.Handler
	db *gorm.DB
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := database.OpenSQLite("file::memory:?_foreign_keys=on", nil)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })

	cfg := &config.Config{
		Server:  config.ServerConfig{Mode: "test"},
		Media:   config.MediaConfig{Root: "media", URLPrefix: "/media", MaxBytes: 1 << 10},
		Tracing: config.TracingConfig{ServiceName: "yblog-test"},
	}
	store := blob.NewFSStore(afero.NewMemMapFs(), cfg.Media.Root, cfg.Media.MaxBytes)
	svc := service.New(db, store, nil)
	return &testServer{t: t, h: NewRouter(cfg, svc, store), db: db}
}

type envelope struct {
	response.Response
	Data json.RawMessage `json:"data"`
}

func (s *testServer) do(method, url, token string, body io.Reader, contentType string) (int, envelope) {
	s.t.Helper()
	req := httptest.NewRequest(method, url, body)
	if token != "" {
		req.Header.Set("api-key", token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	s.h.ServeHTTP(w, req)
	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func (s *testServer) json(method, url, token string, v any) (int, envelope) {
	s.t.Helper()
	var body io.Reader
	if v != nil {
		b, err := json.Marshal(v)
		require.NoError(s.t, err)
		body = bytes.NewReader(b)
	}
	return s.do(method, url, token, body, "application/json")
}

func (s *testServer) createUser(nick string) int64 {
	s.t.Helper()
	code, env := s.json(http.MethodPost, "/api/users", "tok-"+nick,
		map[string]string{"name": nick + " name", "nickname": nick, "email": nick + "@example.com"})
	require.Equal(s.t, http.StatusCreated, code)
	var out struct{ ID int64 }
	require.NoError(s.t, json.Unmarshal(env.Data, &out))
	return out.ID
}

func (s *testServer) createTweet(token, content string) int64 {
	s.t.Helper()
	code, env := s.json(http.MethodPost, "/api/tweets", token, map[string]string{"content": content})
	require.Equal(s.t, http.StatusCreated, code)
	var out struct {
		TweetID int64 `json:"tweet_id"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &out))
	return out.TweetID
}

func (s *testServer) upload(token string, tweetID int64, filename string, content []byte) (int, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(s.t, mw.WriteField("tweet_id", fmt.Sprint(tweetID)))
	fw, err := mw.CreateFormFile("image_file", filename)
	require.NoError(s.t, err)
	_, err = fw.Write(content)
	require.NoError(s.t, err)
	require.NoError(s.t, mw.Close())
	return s.do(http.MethodPost, "/api/medias", token, &buf, mw.FormDataContentType())
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	code, _ := s.do(http.MethodGet, "/healthz", "", nil, "")
	assert.Equal(t, http.StatusOK, code)
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)
	code, _ := s.do(http.MethodGet, "/api/tweets", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = s.do(http.MethodGet, "/api/tweets", "unknown", nil, "")
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestCreateUser_Errors(t *testing.T) {
	s := newTestServer(t)
	s.createUser("alice")

	code, _ := s.json(http.MethodPost, "/api/users", "tok-other",
		map[string]string{"name": "Alice", "nickname": "alice", "email": "x@example.com"})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = s.json(http.MethodPost, "/api/users", "",
		map[string]string{"name": "Bob", "nickname": "bob", "email": "bob@example.com"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.json(http.MethodPost, "/api/users", "tok-carol", map[string]string{"name": "Carol"})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestFollowFlow(t *testing.T) {
	s := newTestServer(t)
	alice := s.createUser("alice")
	bob := s.createUser("bob")

	code, env := s.do(http.MethodPost, fmt.Sprintf("/api/users/%d/follow", bob), "tok-alice", nil, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, response.CodeOK, env.Code)

	code, env = s.do(http.MethodPost, fmt.Sprintf("/api/users/%d/follow", bob), "tok-alice", nil, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, response.CodeNoop, env.Code)
	assert.Equal(t, service.AlreadyFollowing.Message(), env.Message)

	code, _ = s.do(http.MethodPost, fmt.Sprintf("/api/users/%d/follow", alice), "tok-alice", nil, "")
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(http.MethodPost, "/api/users/999/follow", "tok-alice", nil, "")
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, _ = s.do(http.MethodPost, "/api/users/abc/follow", "tok-alice", nil, "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = s.do(http.MethodGet, "/api/users/me", "tok-alice", nil, "")
	require.Equal(t, http.StatusOK, code)
	var me service.ProfileView
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, alice, me.ID)
	assert.Equal(t, []service.UserRef{{ID: bob, Name: "bob"}}, me.Following)

	code, env = s.do(http.MethodGet, fmt.Sprintf("/api/users/%d", bob), "tok-alice", nil, "")
	require.Equal(t, http.StatusOK, code)
	var profile service.ProfileView
	require.NoError(t, json.Unmarshal(env.Data, &profile))
	assert.Equal(t, []service.UserRef{{ID: alice, Name: "alice"}}, profile.Followers)

	code, _ = s.do(http.MethodGet, "/api/users/999", "tok-alice", nil, "")
	assert.Equal(t, http.StatusNotFound, code)

	code, env = s.do(http.MethodDelete, fmt.Sprintf("/api/users/%d/follow", bob), "tok-alice", nil, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, response.CodeOK, env.Code)
	code, env = s.do(http.MethodDelete, fmt.Sprintf("/api/users/%d/follow", bob), "tok-alice", nil, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, service.NotFollowing.Message(), env.Message)
}

func TestTweetLikeMediaFlow(t *testing.T) {
	s := newTestServer(t)
	s.createUser("alice")
	bob := s.createUser("bob")
	code, _ := s.do(http.MethodPost, fmt.Sprintf("/api/users/%d/follow", bob), "tok-alice", nil, "")
	require.Equal(t, http.StatusOK, code)

	tw := s.createTweet("tok-bob", "Foo")

	code, env := s.upload("tok-bob", tw, "cat.png", []byte("png-bytes"))
	require.Equal(t, http.StatusCreated, code, env.Message)
	code, _ = s.upload("tok-alice", tw, "cat.png", []byte("x"))
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = s.upload("tok-bob", tw, "cat.bmp", []byte("x"))
	assert.Equal(t, http.StatusUnsupportedMediaType, code)
	code, _ = s.upload("tok-bob", tw, "big.png", bytes.Repeat([]byte("x"), 2<<10))
	assert.Equal(t, http.StatusRequestEntityTooLarge, code)

	likes := fmt.Sprintf("/api/tweets/%d/likes", tw)
	code, env = s.do(http.MethodPost, likes, "tok-alice", nil, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, response.CodeOK, env.Code)
	code, env = s.do(http.MethodPost, likes, "tok-alice", nil, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, service.AlreadyLiked.Message(), env.Message)
	code, env = s.do(http.MethodDelete, likes, "tok-bob", nil, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, service.NoLikeToRemove.Message(), env.Message)

	code, env = s.do(http.MethodGet, "/api/tweets", "tok-alice", nil, "")
	require.Equal(t, http.StatusOK, code)
	var feed []service.TweetView
	require.NoError(t, json.Unmarshal(env.Data, &feed))
	require.Len(t, feed, 1)
	assert.Equal(t, "Foo", feed[0].Content)
	assert.EqualValues(t, 1, feed[0].LikesCount)
	require.Len(t, feed[0].Attachments, 1)
	mediaURL := feed[0].Attachments[0]
	assert.True(t, strings.HasPrefix(mediaURL, "/media/"), mediaURL)

	req := httptest.NewRequest(http.MethodGet, mediaURL, nil)
	w := httptest.NewRecorder()
	s.h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "png-bytes", w.Body.String())
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

	code, _ = s.do(http.MethodDelete, fmt.Sprintf("/api/tweets/%d", tw), "tok-alice", nil, "")
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = s.do(http.MethodDelete, fmt.Sprintf("/api/tweets/%d", tw), "tok-bob", nil, "")
	require.Equal(t, http.StatusOK, code)

	w = httptest.NewRecorder()
	s.h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, mediaURL, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	code, env = s.do(http.MethodGet, "/api/tweets", "tok-alice", nil, "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestCreateTweet_Blank(t *testing.T) {
	s := newTestServer(t)
	s.createUser("alice")
	code, _ := s.json(http.MethodPost, "/api/tweets", "tok-alice", map[string]string{"content": "  "})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestServeMedia_InvalidKey(t *testing.T) {
	s := newTestServer(t)
	for _, url := range []string{"/media/x", "/media/a/b/c", "/media/ns/missing.png"} {
		w := httptest.NewRecorder()
		s.h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, url, nil))
		assert.Equal(t, http.StatusNotFound, w.Code, url)
	}
}
