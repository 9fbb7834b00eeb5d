package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/UkralStul/interactor/internal/domain"
)

// ErrNotFound is returned when the source has no post with the requested id.
var ErrNotFound = errors.New("post not found")

// PostRecord is a post as the remote source reports it, before the feed maps it.
type PostRecord struct {
	ID     domain.PostID `json:"id"`
	UserID int64         `json:"userId"`
	Body   string        `json:"body"`
	// Likes is nil when the record carries no reactions.
	Likes *int     `json:"likes,omitempty"`
	Tags  []string `json:"tags,omitempty"`
}

// NewComment is the payload of an add-comment request.
type NewComment struct {
	PostID domain.PostID `json:"postId"`
	Body   string        `json:"body"`
	UserID int64         `json:"userId"`
}

// StatusError reports a non-2xx answer from an HTTP-backed source.
type StatusError struct {
	Method string
	URL    string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.Code)
}

// Source is the contract for anything that can supply posts and comments.
type Source interface {
	ListPosts(ctx context.Context, limit int) ([]PostRecord, error)
	ListComments(ctx context.Context, postID domain.PostID) ([]domain.Comment, error)
	AddComment(ctx context.Context, c NewComment) error
}

// CommentCounter is implemented by sources that can count the comments of
// many posts in one round trip.
type CommentCounter interface {
	CountComments(ctx context.Context, ids []domain.PostID) (map[domain.PostID]int, error)
}
