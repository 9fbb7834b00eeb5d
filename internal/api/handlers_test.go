package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UkralStul/interactor/internal/composer"
	"github.com/UkralStul/interactor/internal/domain"
	"github.com/UkralStul/interactor/internal/feed"
	"github.com/UkralStul/interactor/internal/source"
	"github.com/UkralStul/interactor/internal/source/inmemory"
)

type okProber struct{}

func (okProber) Probe(ctx context.Context, rawURL string) error { return nil }

type testServer struct {
	router http.Handler
	feed   *feed.Controller
	postID domain.PostID
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()

	store := inmemory.New()
	rec, err := store.CreatePost(ctx, source.PostRecord{UserID: 7, Body: "Remote post", Likes: domain.Likes(3)})
	require.NoError(t, err)
	_, err = store.CreateComment(ctx, domain.Comment{PostID: rec.ID, Author: domain.RemoteUser(2), AuthorName: "kminchelle", Body: "First!"})
	require.NoError(t, err)

	f := feed.New(store)
	require.NoError(t, f.Load(ctx))
	c := composer.New(f, composer.WithProber(okProber{}), composer.WithAckDelay(time.Hour))

	return &testServer{
		router: NewRouter(NewHandler(f, c, nil), []string{"*"}),
		feed:   f,
		postID: rec.ID,
	}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, r)
	return w
}

func (s *testServer) postPath(suffix string) string {
	return "/api/posts/" + strconv.FormatInt(int64(s.postID), 10) + suffix
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestGetFeed(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/api/feed", "")
	require.Equal(t, http.StatusOK, w.Code)

	snap := decode[feed.Snapshot](t, w)
	assert.False(t, snap.IsLoading)
	require.Len(t, snap.Posts, 1)
	assert.Equal(t, "Remote post", snap.Posts[0].Body)
	assert.Equal(t, 3, snap.Posts[0].LikeCount)
	assert.Equal(t, 1, snap.Posts[0].CommentCount)
}

func TestToggleLike(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, s.postPath("/like"), "")
	require.Equal(t, http.StatusOK, w.Code)
	post := decode[domain.Post](t, w)
	assert.True(t, post.IsLiked)
	assert.Equal(t, 4, post.LikeCount)

	w = s.do(t, http.MethodPost, s.postPath("/like"), "")
	post = decode[domain.Post](t, w)
	assert.False(t, post.IsLiked)
	assert.Equal(t, 3, post.LikeCount)
}

func TestToggleLike_BadAndUnknownID(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/posts/abc/like", "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/api/posts/999/like", "").Code)
}

func TestComments_ToggleDraftSubmit(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, s.postPath("/comments/toggle"), "")
	require.Equal(t, http.StatusOK, w.Code)
	st := decode[feed.PostState](t, w)
	assert.True(t, st.CommentsPanelOpen)
	assert.True(t, st.CommentsLoaded)
	require.Len(t, st.Comments, 1)
	assert.Equal(t, "kminchelle", st.Comments[0].AuthorName)

	w = s.do(t, http.MethodPut, s.postPath("/comments/draft"), `{"text":"half a thought"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "half a thought", decode[feed.PostState](t, w).DraftComment)

	w = s.do(t, http.MethodPost, s.postPath("/comments"), `{"text":"<b>Great</b> post &amp; pics"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	c := decode[domain.Comment](t, w)
	assert.Equal(t, "Great post & pics", c.Body)
	assert.True(t, c.Author.IsLocal())
	assert.Equal(t, domain.CurrentUserName, c.AuthorName)

	s.feed.Wait()
	snap := s.feed.Snapshot()
	assert.Equal(t, 2, snap.Posts[0].DisplayedCommentCount)
	assert.Empty(t, snap.Posts[0].DraftComment)
}

func TestSubmitComment_Blank(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodPost, s.postPath("/comments"), `{"text":"   "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, s.postPath("/comments"), `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportPostImageError(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodPost, s.postPath("/image-error"), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[feed.PostState](t, w).ImageLoadFailed)
}

func TestComposer_SubmitFlow(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPut, "/api/composer", `{"content":"hey"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hey", decode[composer.State](t, w).Content)

	w = s.do(t, http.MethodPost, "/api/composer/submit", "")
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	vr := decode[validationResponse](t, w)
	assert.Equal(t, "content too short", vr.Fields[composer.FieldContent])

	w = s.do(t, http.MethodPut, "/api/composer", `{"content":"Hello from the API","imageUrl":"https://example.com/a.png"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/api/composer/submit", "")
	require.Equal(t, http.StatusCreated, w.Code)
	post := decode[domain.Post](t, w)
	assert.Equal(t, "Hello from the API", post.Body)
	assert.Equal(t, "https://example.com/a.png", post.ImageURL)

	snap := s.feed.Snapshot()
	require.Len(t, snap.Posts, 2)
	assert.Equal(t, post.ID, snap.Posts[0].ID)

	st := decode[composer.State](t, s.do(t, http.MethodGet, "/api/composer", ""))
	assert.Empty(t, st.Content)
	assert.True(t, st.Acknowledged)
}

func TestComposer_ImageError(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPut, "/api/composer", `{"content":"Look at this","imageUrl":"https://example.com/x.png"}`)

	w := s.do(t, http.MethodPost, "/api/composer/image-error", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image failed to load", decode[composer.State](t, w).Errors[composer.FieldImageURL])

	w = s.do(t, http.MethodPost, "/api/composer/submit", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestComposer_Preview(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPut, "/api/composer", `{"imageUrl":"https://example.com/ok.png"}`)
	w := s.do(t, http.MethodPost, "/api/composer/preview", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[composer.State](t, w).Errors)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "interactor_")
}

func TestStreamFeed(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/feed/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var first feed.Snapshot
	require.NoError(t, conn.ReadJSON(&first))
	require.Len(t, first.Posts, 1)
	assert.False(t, first.Posts[0].IsLiked)

	resp, err := http.Post(srv.URL+s.postPath("/like"), "application/json", bytes.NewReader(nil))
	require.NoError(t, err)
	resp.Body.Close()

	var next feed.Snapshot
	require.NoError(t, conn.ReadJSON(&next))
	assert.True(t, next.Posts[0].IsLiked)
}
