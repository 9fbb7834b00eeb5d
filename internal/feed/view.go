package feed

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/UkralStul/interactor/internal/domain"
	"github.com/UkralStul/interactor/internal/source"
)

const (
	placeholderBody = "This is a sample comment. Unable to load real comments."
	// User id sent with every comment echo.
	echoUserID = 1
)

// PostView is the interaction state of one rendered post: the comment panel,
// its lazily fetched comments, the comment draft and the image failure flag.
//
// Lock order is Controller.mu before PostView.mu; a view never calls back into
// the controller while holding its own lock.
type PostView struct {
	feed *Controller
	id   domain.PostID

	mu              sync.Mutex
	imageLoadFailed bool
	panelOpen       bool
	loading         bool
	loaded          bool
	comments        []domain.Comment
	draft           string
}

func newPostView(c *Controller, id domain.PostID) *PostView {
	return &PostView{feed: c, id: id}
}

// ID returns the id of the post this view renders.
func (v *PostView) ID() domain.PostID { return v.id }

// ToggleComments opens or closes the comment panel. The first open fetches
// the post's comments; once they are loaded later toggles only flip
// visibility. A failed fetch opens the panel with a single placeholder
// comment and is retried on the next toggle. Toggling while a fetch is in
// flight does nothing.
func (v *PostView) ToggleComments(ctx context.Context) {
	v.mu.Lock()
	switch {
	case v.loading:
		v.mu.Unlock()
		return
	case v.loaded:
		v.panelOpen = !v.panelOpen
		open := v.panelOpen
		v.mu.Unlock()
		v.feed.mutated("toggle_comments", zap.Int64("post_id", int64(v.id)), zap.Bool("open", open))
		return
	}
	v.loading = true
	v.mu.Unlock()
	v.feed.publish()

	fetched, err := v.feed.src.ListComments(ctx, v.id)
	now := v.feed.now()

	v.mu.Lock()
	v.loading = false
	local := v.localComments()
	if err != nil {
		v.comments = append([]domain.Comment{placeholder(v.id, now)}, local...)
	} else {
		comments := make([]domain.Comment, 0, len(fetched)+len(local))
		for _, cm := range fetched {
			cm.PostID = v.id
			comments = append(comments, cm.Normalize(now))
		}
		v.comments = append(comments, local...)
		v.loaded = true
	}
	v.panelOpen = true
	v.mu.Unlock()

	if err != nil {
		v.feed.log.Warn("comment fetch failed", zap.Int64("post_id", int64(v.id)), zap.Error(err))
	}
	v.feed.mutated("load_comments", zap.Int64("post_id", int64(v.id)), zap.Int("comments", len(fetched)))
}

// localComments returns the comments composed in this session. Callers hold v.mu.
func (v *PostView) localComments() []domain.Comment {
	var out []domain.Comment
	for _, cm := range v.comments {
		if cm.Author.IsLocal() {
			out = append(out, cm)
		}
	}
	return out
}

func placeholder(postID domain.PostID, now time.Time) domain.Comment {
	return domain.Comment{
		ID:         1,
		PostID:     postID,
		Author:     domain.RemoteUser(0),
		AuthorName: domain.SystemName,
		Body:       placeholderBody,
		CreatedAt:  now,
	}
}

// SetDraft replaces the comment draft text.
func (v *PostView) SetDraft(text string) {
	v.mu.Lock()
	v.draft = text
	v.mu.Unlock()
	v.feed.publish()
}

// SubmitComment appends a comment by the current user right away and echoes
// it to the source in the background; the echo's outcome never changes the
// local list. Text that is blank after trimming is ignored (ok is false).
func (v *PostView) SubmitComment(ctx context.Context, text string) (comment domain.Comment, ok bool) {
	body := strings.TrimSpace(text)
	if body == "" {
		return domain.Comment{}, false
	}

	comment = domain.Comment{
		ID:         domain.CommentID(v.feed.ids.next()),
		PostID:     v.id,
		Author:     domain.LocalUser,
		AuthorName: domain.CurrentUserName,
		Body:       body,
		CreatedAt:  v.feed.now(),
		LikeCount:  domain.Likes(0),
	}

	v.mu.Lock()
	v.comments = append(v.comments, comment)
	v.draft = ""
	v.mu.Unlock()

	v.feed.mutated("submit_comment", zap.Int64("post_id", int64(v.id)))
	v.feed.echo(ctx, source.NewComment{PostID: v.id, Body: body, UserID: echoUserID})
	return comment, true
}

// MarkImageFailed hides the post image for the rest of the session.
func (v *PostView) MarkImageFailed() {
	v.mu.Lock()
	changed := !v.imageLoadFailed
	v.imageLoadFailed = true
	v.mu.Unlock()
	if changed {
		v.feed.mutated("image_failed", zap.Int64("post_id", int64(v.id)))
	}
}

// ToggleLike delegates to the feed.
func (v *PostView) ToggleLike() (domain.Post, bool) {
	return v.feed.ToggleLike(v.id)
}

// DisplayedCommentCount prefers the loaded comment list over the seeded count.
func (v *PostView) DisplayedCommentCount() int {
	return v.State().DisplayedCommentCount
}

// State returns a snapshot of the post together with this view's state.
func (v *PostView) State() PostState {
	v.feed.mu.RLock()
	defer v.feed.mu.RUnlock()
	p := v.feed.find(v.id)
	if p == nil {
		return PostState{}
	}
	return v.state(*p)
}

// state builds the PostState for post. Callers hold feed.mu.
func (v *PostView) state(post domain.Post) PostState {
	v.mu.Lock()
	defer v.mu.Unlock()

	st := PostState{
		Post:                  post.Clone(),
		DisplayedCommentCount: post.CommentCount,
		ImageLoadFailed:       v.imageLoadFailed,
		CommentsPanelOpen:     v.panelOpen,
		CommentsLoading:       v.loading,
		CommentsLoaded:        v.loaded,
		DraftComment:          v.draft,
		Comments:              make([]domain.Comment, len(v.comments)),
	}
	if len(v.comments) > 0 {
		st.DisplayedCommentCount = len(v.comments)
	}
	for i, cm := range v.comments {
		if cm.LikeCount != nil {
			cm.LikeCount = domain.Likes(*cm.LikeCount)
		}
		st.Comments[i] = cm
	}
	return st
}
