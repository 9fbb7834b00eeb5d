package feed

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/UkralStul/interactor/internal/dataloader"
	"github.com/UkralStul/interactor/internal/domain"
	"github.com/UkralStul/interactor/internal/metrics"
	"github.com/UkralStul/interactor/internal/source"
)

// DefaultPageSize is the number of posts requested by the initial load.
const DefaultPageSize = 10

const (
	// Remote records carry no timestamp; they get one inside this window.
	maxSyntheticAge = 7 * 24 * time.Hour
	// Upper bound (exclusive) of the like count invented for records without reactions.
	maxSyntheticLikes = 100
)

// ErrAlreadyLoaded is returned by a second call to Load.
var ErrAlreadyLoaded = errors.New("feed already loaded")

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller's logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithRand sets the random source used for synthetic timestamps and like counts.
func WithRand(r *rand.Rand) Option {
	return func(c *Controller) { c.rnd = r }
}

// WithPageSize sets how many posts the initial load requests.
func WithPageSize(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// Controller owns the ordered post list of one session.
type Controller struct {
	src      source.Source
	log      *zap.Logger
	now      func() time.Time
	pageSize int
	ids      *idSource

	mu      sync.RWMutex
	rnd     *rand.Rand
	posts   []*domain.Post
	views   map[domain.PostID]*PostView
	loading bool
	loadErr string
	started bool

	subsMu sync.Mutex
	subs   map[string]chan Snapshot

	echoes sync.WaitGroup
}

// New creates an empty feed backed by src.
func New(src source.Source, opts ...Option) *Controller {
	c := &Controller{
		src:      src,
		log:      zap.NewNop(),
		now:      time.Now,
		pageSize: DefaultPageSize,
		views:    make(map[domain.PostID]*PostView),
		subs:     make(map[string]chan Snapshot),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rnd == nil {
		seed := uint64(c.now().UnixNano())
		c.rnd = rand.New(rand.NewPCG(seed, seed>>32))
	}
	c.ids = &idSource{now: c.now}
	return c
}

// Load performs the initial feed load. It runs once per controller; later
// calls return ErrAlreadyLoaded. A failed comment-count lookup only zeroes
// that post's count. A failed page request is recorded as the load error
// and returned.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return ErrAlreadyLoaded
	}
	c.started = true
	c.loading = true
	c.loadErr = ""
	c.mu.Unlock()
	c.publish()

	records, err := c.src.ListPosts(ctx, c.pageSize)
	if err != nil {
		c.mu.Lock()
		c.loading = false
		c.loadErr = err.Error()
		c.mu.Unlock()

		c.log.Error("feed load failed", zap.Error(err))
		c.publish()
		return fmt.Errorf("failed to load feed: %w", err)
	}

	ids := make([]domain.PostID, len(records))
	for i, rec := range records {
		ids[i] = rec.ID
	}
	counts := dataloader.NewCommentCounts(c.src).Load(ctx, ids)
	for _, id := range ids {
		if err := counts[id].Err; err != nil {
			c.log.Warn("comment count lookup failed", zap.Int64("post_id", int64(id)), zap.Error(err))
		}
	}

	c.mu.Lock()
	now := c.now()
	for _, rec := range records {
		if _, dup := c.views[rec.ID]; dup {
			c.log.Warn("skipping duplicate post", zap.Int64("post_id", int64(rec.ID)))
			continue
		}
		post := c.mapRecord(rec, counts[rec.ID].Count, now)
		c.posts = append(c.posts, post)
		c.views[post.ID] = newPostView(c, post.ID)
	}
	c.loading = false
	n := len(c.posts)
	c.mu.Unlock()

	c.log.Info("feed loaded", zap.Int("posts", n))
	metrics.FeedMutations.WithLabelValues("load").Inc()
	c.publish()
	return nil
}

// mapRecord turns a remote record into a feed post. Callers hold c.mu.
func (c *Controller) mapRecord(rec source.PostRecord, comments int, now time.Time) *domain.Post {
	likes := 0
	if rec.Likes != nil {
		likes = *rec.Likes
	}
	if likes <= 0 {
		likes = c.rnd.IntN(maxSyntheticLikes)
	}

	return &domain.Post{
		ID:           rec.ID,
		Author:       domain.RemoteUser(rec.UserID),
		AuthorName:   fmt.Sprintf("User %d", rec.UserID),
		Body:         rec.Body,
		CreatedAt:    now.Add(-time.Duration(c.rnd.Int64N(int64(maxSyntheticAge)))),
		LikeCount:    likes,
		CommentCount: comments,
		Tags:         append([]string(nil), rec.Tags...),
	}
}

// SubmitPost prepends a post composed by the current user. Nothing is sent
// to the source.
func (c *Controller) SubmitPost(d domain.Draft) domain.Post {
	c.mu.Lock()
	id := domain.PostID(c.ids.next())
	for c.views[id] != nil {
		id = domain.PostID(c.ids.next())
	}
	post := &domain.Post{
		ID:         id,
		Author:     domain.LocalUser,
		AuthorName: domain.CurrentUserName,
		Body:       d.Content,
		ImageURL:   d.ImageURL,
		CreatedAt:  c.now(),
	}
	c.posts = append([]*domain.Post{post}, c.posts...)
	c.views[id] = newPostView(c, id)
	out := post.Clone()
	c.mu.Unlock()

	c.mutated("submit_post", zap.Int64("post_id", int64(id)))
	return out
}

// ToggleLike flips the like state of a post. ok is false for an unknown id.
func (c *Controller) ToggleLike(id domain.PostID) (post domain.Post, ok bool) {
	c.mu.Lock()
	p := c.find(id)
	if p == nil {
		c.mu.Unlock()
		return domain.Post{}, false
	}
	if p.IsLiked {
		p.IsLiked = false
		if p.LikeCount > 0 {
			p.LikeCount--
		}
	} else {
		p.IsLiked = true
		p.LikeCount++
	}
	out := p.Clone()
	c.mu.Unlock()

	c.mutated("toggle_like", zap.Int64("post_id", int64(id)), zap.Bool("liked", out.IsLiked))
	return out, true
}

// find returns the post with id or nil. Callers hold c.mu.
func (c *Controller) find(id domain.PostID) *domain.Post {
	for _, p := range c.posts {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Post returns a copy of one post.
func (c *Controller) Post(id domain.PostID) (domain.Post, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p := c.find(id)
	if p == nil {
		return domain.Post{}, false
	}
	return p.Clone(), true
}

// View returns the per-post view state of a post.
func (c *Controller) View(id domain.PostID) (*PostView, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.views[id]
	return v, ok
}

// Wait blocks until every fire-and-forget comment echo has finished.
func (c *Controller) Wait() {
	c.echoes.Wait()
}

// echo sends a locally added comment to the source and only logs the outcome.
func (c *Controller) echo(ctx context.Context, nc source.NewComment) {
	ctx = context.WithoutCancel(ctx)
	c.echoes.Add(1)
	go func() {
		defer c.echoes.Done()
		if err := c.src.AddComment(ctx, nc); err != nil {
			c.log.Warn("comment echo failed", zap.Int64("post_id", int64(nc.PostID)), zap.Error(err))
			return
		}
		c.log.Debug("comment echoed", zap.Int64("post_id", int64(nc.PostID)))
	}()
}

func (c *Controller) mutated(op string, fields ...zap.Field) {
	metrics.FeedMutations.WithLabelValues(op).Inc()
	c.log.Debug("feed mutation", append([]zap.Field{zap.String("op", op)}, fields...)...)
	c.publish()
}

// idSource mints millisecond-time ids that strictly increase.
type idSource struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func (s *idSource) next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.now().UnixMilli()
	if id <= s.last {
		id = s.last + 1
	}
	s.last = id
	return id
}
