package feed

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UkralStul/interactor/internal/domain"
	"github.com/UkralStul/interactor/internal/source"
)

func viewFor(t *testing.T, c *Controller, id domain.PostID) *PostView {
	v, ok := c.View(id)
	require.True(t, ok)
	return v
}

func TestToggleComments_FetchesOnce(t *testing.T) {
	c, src := loadedController(t, 3)
	v := viewFor(t, c, 3)
	ctx := context.Background()
	lookups := src.calls(3)

	v.ToggleComments(ctx)
	st := v.State()
	assert.True(t, st.CommentsPanelOpen)
	assert.True(t, st.CommentsLoaded)
	assert.Len(t, st.Comments, 3)
	assert.Equal(t, lookups+1, src.calls(3))

	v.ToggleComments(ctx)
	assert.False(t, v.State().CommentsPanelOpen)
	assert.Equal(t, lookups+1, src.calls(3))

	v.ToggleComments(ctx)
	assert.True(t, v.State().CommentsPanelOpen)
	assert.Equal(t, lookups+1, src.calls(3))
}

func TestToggleComments_FailureShowsPlaceholder(t *testing.T) {
	c, src := loadedController(t, 3)
	src.commentErr[2] = errors.New("network error")
	v := viewFor(t, c, 2)

	v.ToggleComments(context.Background())

	st := v.State()
	assert.True(t, st.CommentsPanelOpen)
	assert.False(t, st.CommentsLoading)
	assert.False(t, st.CommentsLoaded)
	require.Len(t, st.Comments, 1)
	assert.Equal(t, domain.SystemName, st.Comments[0].AuthorName)
	assert.Equal(t, placeholderBody, st.Comments[0].Body)
}

func TestToggleComments_RetriesAfterFailure(t *testing.T) {
	c, src := loadedController(t, 3)
	src.commentErr[2] = errors.New("network error")
	v := viewFor(t, c, 2)
	ctx := context.Background()
	lookups := src.calls(2)

	v.ToggleComments(ctx)
	delete(src.commentErr, 2)
	v.ToggleComments(ctx)

	st := v.State()
	assert.Equal(t, lookups+2, src.calls(2))
	assert.True(t, st.CommentsLoaded)
	assert.True(t, st.CommentsPanelOpen)
	require.Len(t, st.Comments, 2)
	assert.Equal(t, "commenter", st.Comments[0].AuthorName)
}

func TestToggleComments_NormalizesComments(t *testing.T) {
	c, src := loadedController(t, 1)
	src.comments[1] = []domain.Comment{{ID: 9, Body: "who wrote this"}}
	v := viewFor(t, c, 1)

	v.ToggleComments(context.Background())

	st := v.State()
	require.Len(t, st.Comments, 1)
	assert.Equal(t, domain.AnonymousName, st.Comments[0].AuthorName)
	assert.Equal(t, testNow, st.Comments[0].CreatedAt)
	assert.Nil(t, st.Comments[0].LikeCount)
}

func TestSubmitComment_SurvivesEchoFailure(t *testing.T) {
	c, src := loadedController(t, 2)
	src.addErr = errors.New("remote unavailable")
	v := viewFor(t, c, 2)
	ctx := context.Background()

	v.ToggleComments(ctx)
	before := len(v.State().Comments)
	v.SetDraft("  Nice post!  ")

	comment, ok := v.SubmitComment(ctx, "  Nice post!  ")
	require.True(t, ok)
	c.Wait()

	st := v.State()
	require.Len(t, st.Comments, before+1)
	last := st.Comments[len(st.Comments)-1]
	assert.Equal(t, comment.ID, last.ID)
	assert.Equal(t, "Nice post!", last.Body)
	assert.True(t, last.Author.IsLocal())
	assert.Equal(t, domain.CurrentUserName, last.AuthorName)
	require.NotNil(t, last.LikeCount)
	assert.Zero(t, *last.LikeCount)
	assert.Equal(t, testNow, last.CreatedAt)
	assert.Empty(t, st.DraftComment)

	require.Len(t, src.added, 1)
	assert.Equal(t, source.NewComment{PostID: 2, Body: "Nice post!", UserID: 1}, src.added[0])
}

func TestSubmitComment_BlankIsNoop(t *testing.T) {
	c, src := loadedController(t, 1)
	v := viewFor(t, c, 1)

	_, ok := v.SubmitComment(context.Background(), " \t\n")
	assert.False(t, ok)
	c.Wait()
	assert.Empty(t, v.State().Comments)
	assert.Empty(t, src.added)
}

func TestSubmitComment_KeptWhenCommentsLoadLater(t *testing.T) {
	c, _ := loadedController(t, 3)
	v := viewFor(t, c, 3)
	ctx := context.Background()

	_, ok := v.SubmitComment(ctx, "first!")
	require.True(t, ok)
	v.ToggleComments(ctx)
	c.Wait()

	st := v.State()
	require.Len(t, st.Comments, 4)
	assert.Equal(t, "first!", st.Comments[3].Body)
}

func TestDisplayedCommentCount(t *testing.T) {
	c, _ := loadedController(t, 3)
	v := viewFor(t, c, 3)
	ctx := context.Background()

	assert.Equal(t, 3, v.DisplayedCommentCount())

	v.ToggleComments(ctx)
	_, ok := v.SubmitComment(ctx, "one more")
	require.True(t, ok)
	c.Wait()

	assert.Equal(t, 4, v.DisplayedCommentCount())
	post, _ := c.Post(3)
	assert.Equal(t, 3, post.CommentCount)
}

func TestMarkImageFailed_IsPermanent(t *testing.T) {
	c := newTestController(newFakeSource(0))
	post := c.SubmitPost(domain.Draft{Content: "with picture", ImageURL: "https://example.com/x.png"})
	v := viewFor(t, c, post.ID)

	v.MarkImageFailed()
	v.MarkImageFailed()
	assert.True(t, v.State().ImageLoadFailed)
}

func TestPostView_ToggleLikeDelegates(t *testing.T) {
	c, _ := loadedController(t, 1)
	v := viewFor(t, c, 1)

	post, ok := v.ToggleLike()
	require.True(t, ok)
	assert.True(t, post.IsLiked)
	assert.True(t, v.State().IsLiked)
}
