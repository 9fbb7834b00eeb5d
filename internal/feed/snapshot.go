package feed

import (
	"github.com/google/uuid"

	"github.com/UkralStul/interactor/internal/domain"
	"github.com/UkralStul/interactor/internal/metrics"
)

// Snapshot is a read-only copy of the whole feed for presentation.
type Snapshot struct {
	IsLoading bool        `json:"isLoading"`
	LoadError string      `json:"loadError,omitempty"`
	Posts     []PostState `json:"posts"`
}

// PostState is one post plus the state of its view.
type PostState struct {
	domain.Post
	DisplayedCommentCount int              `json:"displayedCommentCount"`
	ImageLoadFailed       bool             `json:"imageLoadFailed"`
	CommentsPanelOpen     bool             `json:"commentsPanelOpen"`
	CommentsLoading       bool             `json:"commentsLoading"`
	CommentsLoaded        bool             `json:"commentsLoaded"`
	Comments              []domain.Comment `json:"comments"`
	DraftComment          string           `json:"draftComment"`
}

// Snapshot copies the current feed state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := Snapshot{
		IsLoading: c.loading,
		LoadError: c.loadErr,
		Posts:     make([]PostState, 0, len(c.posts)),
	}
	for _, p := range c.posts {
		snap.Posts = append(snap.Posts, c.views[p.ID].state(*p))
	}
	return snap
}

// Subscribe returns a channel that receives a snapshot after every mutation,
// and a func that ends the subscription and closes the channel. A subscriber
// that falls behind only ever finds the latest snapshot waiting.
func (c *Controller) Subscribe() (<-chan Snapshot, func()) {
	id := uuid.NewString()
	ch := make(chan Snapshot, 1)

	c.subsMu.Lock()
	c.subs[id] = ch
	c.subsMu.Unlock()
	metrics.SnapshotSubscribers.Inc()

	cancel := func() {
		c.subsMu.Lock()
		defer c.subsMu.Unlock()
		if _, ok := c.subs[id]; !ok {
			return
		}
		delete(c.subs, id)
		close(ch)
		metrics.SnapshotSubscribers.Dec()
	}
	return ch, cancel
}

// publish hands a fresh snapshot to every subscriber. It must not be called
// with c.mu or a view lock held.
func (c *Controller) publish() {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	if len(c.subs) == 0 {
		return
	}

	snap := c.Snapshot()
	for _, ch := range c.subs {
		select {
		case ch <- snap:
		default:
			// drop the stale snapshot the subscriber has not read yet
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}
