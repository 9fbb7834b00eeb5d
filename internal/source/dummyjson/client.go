package dummyjson

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/UkralStul/interactor/internal/domain"
	"github.com/UkralStul/interactor/internal/metrics"
	"github.com/UkralStul/interactor/internal/source"
)

// DefaultBaseURL is the public DummyJSON API.
const DefaultBaseURL = "https://dummyjson.com"

// Client talks to a DummyJSON compatible REST API.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type postsResponse struct {
	Posts []struct {
		ID        int64    `json:"id"`
		UserID    int64    `json:"userId"`
		Body      string   `json:"body"`
		Tags      []string `json:"tags"`
		Reactions *struct {
			Likes *int `json:"likes"`
		} `json:"reactions"`
	} `json:"posts"`
}

type commentsResponse struct {
	Comments []struct {
		ID    int64  `json:"id"`
		Body  string `json:"body"`
		Likes *int   `json:"likes"`
		User  *struct {
			ID       int64  `json:"id"`
			Username string `json:"username"`
			FullName string `json:"fullName"`
		} `json:"user"`
	} `json:"comments"`
}

// ListPosts fetches the first limit posts.
func (c *Client) ListPosts(ctx context.Context, limit int) ([]source.PostRecord, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))

	var resp postsResponse
	if err := c.do(ctx, "posts", http.MethodGet, "/posts?"+q.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	records := make([]source.PostRecord, 0, len(resp.Posts))
	for _, p := range resp.Posts {
		rec := source.PostRecord{
			ID:     domain.PostID(p.ID),
			UserID: p.UserID,
			Body:   p.Body,
			Tags:   p.Tags,
		}
		if p.Reactions != nil {
			rec.Likes = p.Reactions.Likes
		}
		records = append(records, rec)
	}
	return records, nil
}

// ListComments fetches the comments of one post.
func (c *Client) ListComments(ctx context.Context, postID domain.PostID) ([]domain.Comment, error) {
	var resp commentsResponse
	path := fmt.Sprintf("/posts/%d/comments", postID)
	if err := c.do(ctx, "comments", http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to list comments of post %d: %w", postID, err)
	}

	comments := make([]domain.Comment, 0, len(resp.Comments))
	for _, rc := range resp.Comments {
		cm := domain.Comment{
			ID:        domain.CommentID(rc.ID),
			PostID:    postID,
			Body:      rc.Body,
			LikeCount: rc.Likes,
		}
		if rc.User != nil {
			cm.Author = domain.RemoteUser(rc.User.ID)
			cm.AuthorName = rc.User.Username
			if cm.AuthorName == "" {
				cm.AuthorName = rc.User.FullName
			}
		}
		comments = append(comments, cm)
	}
	return comments, nil
}

// AddComment posts a new comment. DummyJSON only simulates the write.
func (c *Client) AddComment(ctx context.Context, nc source.NewComment) error {
	body, err := json.Marshal(nc)
	if err != nil {
		return fmt.Errorf("failed to encode comment: %w", err)
	}
	path := fmt.Sprintf("/posts/%d/comments/add", nc.PostID)
	if err := c.do(ctx, "add_comment", http.MethodPost, path, body, nil); err != nil {
		return fmt.Errorf("failed to add comment to post %d: %w", nc.PostID, err)
	}
	return nil
}

// do sends one request and decodes a JSON answer into out when out is non-nil.
func (c *Client) do(ctx context.Context, endpoint, method, path string, body []byte, out any) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveRemote(endpoint, start, err) }()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("remote request failed", zap.String("request_id", reqID), zap.String("path", path), zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	c.log.Debug("remote request",
		zap.String("request_id", reqID),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &source.StatusError{Method: method, URL: req.URL.Redacted(), Code: resp.StatusCode}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("malformed response body: %w", err)
	}
	return nil
}
