package cached

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/UkralStul/interactor/internal/domain"
	"github.com/UkralStul/interactor/internal/metrics"
	"github.com/UkralStul/interactor/internal/source"
)

const (
	keyPrefix = "interactor:"

	defaultTTL   = 5 * time.Minute
	redisTimeout = 2 * time.Second
)

// Source is a read-through Redis cache in front of another Source.
// Cache failures never fail a call; the wrapped source answers instead.
type Source struct {
	next source.Source
	rdb  *redis.Client
	ttl  time.Duration
	log  *zap.Logger
}

// New wraps next. A non-positive ttl selects the default of five minutes.
func New(next source.Source, rdb *redis.Client, ttl time.Duration, log *zap.Logger) *Source {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Source{next: next, rdb: rdb, ttl: ttl, log: log}
}

// PostsKey is the cache key of a posts page.
func PostsKey(limit int) string {
	return fmt.Sprintf("%sposts:%d", keyPrefix, limit)
}

// CommentsKey is the cache key of a post's comment list.
func CommentsKey(postID domain.PostID) string {
	return fmt.Sprintf("%scomments:%d", keyPrefix, postID)
}

func (s *Source) ListPosts(ctx context.Context, limit int) ([]source.PostRecord, error) {
	key := PostsKey(limit)
	var posts []source.PostRecord
	if s.get(ctx, "posts", key, &posts) {
		return posts, nil
	}

	posts, err := s.next.ListPosts(ctx, limit)
	if err != nil {
		return nil, err
	}
	s.set(ctx, key, posts)
	return posts, nil
}

func (s *Source) ListComments(ctx context.Context, postID domain.PostID) ([]domain.Comment, error) {
	key := CommentsKey(postID)
	var comments []domain.Comment
	if s.get(ctx, "comments", key, &comments) {
		return comments, nil
	}

	comments, err := s.next.ListComments(ctx, postID)
	if err != nil {
		return nil, err
	}
	s.set(ctx, key, comments)
	return comments, nil
}

// AddComment passes through and drops the post's cached comment list.
func (s *Source) AddComment(ctx context.Context, c source.NewComment) error {
	if err := s.next.AddComment(ctx, c); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), redisTimeout)
	defer cancel()
	if err := s.rdb.Del(ctx, CommentsKey(c.PostID)).Err(); err != nil {
		s.log.Warn("cache invalidate failed", zap.Int64("post_id", int64(c.PostID)), zap.Error(err))
	}
	return nil
}

// CountComments forwards to the wrapped source when it can count in one
// call. Otherwise each post's comment list is read through the cache
// concurrently; a post whose lookup fails is left out of the result.
func (s *Source) CountComments(ctx context.Context, ids []domain.PostID) (map[domain.PostID]int, error) {
	if counter, ok := s.next.(source.CommentCounter); ok {
		return counter.CountComments(ctx, ids)
	}

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		counts = make(map[domain.PostID]int, len(ids))
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id domain.PostID) {
			defer wg.Done()
			comments, err := s.ListComments(ctx, id)
			if err != nil {
				s.log.Warn("comment count lookup failed", zap.Int64("post_id", int64(id)), zap.Error(err))
				return
			}
			mu.Lock()
			counts[id] = len(comments)
			mu.Unlock()
		}(id)
	}
	wg.Wait()
	return counts, nil
}

func (s *Source) get(ctx context.Context, kind, key string, out any) bool {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	b, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.log.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
		metrics.CacheLookups.WithLabelValues(kind, "miss").Inc()
		return false
	}
	if err := json.Unmarshal(b, out); err != nil {
		s.log.Warn("cache entry corrupt", zap.String("key", key), zap.Error(err))
		metrics.CacheLookups.WithLabelValues(kind, "miss").Inc()
		return false
	}
	metrics.CacheLookups.WithLabelValues(kind, "hit").Inc()
	return true
}

func (s *Source) set(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), redisTimeout)
	defer cancel()
	if err := s.rdb.Set(ctx, key, b, s.ttl).Err(); err != nil {
		s.log.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

var (
	_ source.Source         = (*Source)(nil)
	_ source.CommentCounter = (*Source)(nil)
)
