package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	// CurrentUserName is the display name of the local session user.
	CurrentUserName = "Current User"
	// AnonymousName is shown for comments whose author is unknown.
	AnonymousName = "Anonymous User"
	// SystemName authors placeholder comments.
	SystemName = "System"
)

// PostID identifies a post within the feed.
type PostID int64

// CommentID identifies a comment within its post's comment list.
type CommentID int64

// Author is either a user of the remote source or the local session user.
type Author struct {
	local bool
	id    int64
}

// LocalUser is the synthetic identity used for everything composed in-session.
var LocalUser = Author{local: true}

// RemoteUser returns the author identity of a remote source user.
func RemoteUser(id int64) Author {
	return Author{id: id}
}

// IsLocal reports whether a is the local session user.
func (a Author) IsLocal() bool { return a.local }

// ID returns the remote user id. ok is false for the local user.
func (a Author) ID() (id int64, ok bool) {
	if a.local {
		return 0, false
	}
	return a.id, true
}

func (a Author) String() string {
	if a.local {
		return "current"
	}
	return fmt.Sprintf("%d", a.id)
}

// MarshalJSON encodes remote users as their numeric id and the local user as "current".
func (a Author) MarshalJSON() ([]byte, error) {
	if a.local {
		return []byte(`"current"`), nil
	}
	return json.Marshal(a.id)
}

func (a *Author) UnmarshalJSON(data []byte) error {
	if string(data) == `"current"` {
		*a = LocalUser
		return nil
	}
	var id int64
	if err := json.Unmarshal(data, &id); err != nil {
		return fmt.Errorf("author id must be a number or \"current\": %w", err)
	}
	*a = RemoteUser(id)
	return nil
}

// Post is a single entry in the feed.
type Post struct {
	ID           PostID    `json:"id"`
	Author       Author    `json:"authorId"`
	AuthorName   string    `json:"authorName"`
	Body         string    `json:"body"`
	ImageURL     string    `json:"imageUrl,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	LikeCount    int       `json:"likeCount"`
	CommentCount int       `json:"commentCount"`
	IsLiked      bool      `json:"isLiked"`
	Tags         []string  `json:"tags,omitempty"`
}

// Clone returns a copy of p that shares no memory with it.
func (p Post) Clone() Post {
	if p.Tags != nil {
		p.Tags = append([]string(nil), p.Tags...)
	}
	return p
}

// Comment is a reply attached to a post.
type Comment struct {
	ID         CommentID `json:"id"`
	PostID     PostID    `json:"postId"`
	Author     Author    `json:"authorId"`
	AuthorName string    `json:"authorName"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"createdAt"`
	// LikeCount is nil when the source did not report likes.
	LikeCount *int `json:"likeCount,omitempty"`
}

// Normalize fills in the display defaults for fields the source left empty.
func (c Comment) Normalize(now time.Time) Comment {
	if strings.TrimSpace(c.AuthorName) == "" {
		c.AuthorName = AnonymousName
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.LikeCount != nil {
		n := *c.LikeCount
		c.LikeCount = &n
	}
	return c
}

// Draft is what the composer hands to the feed on a successful submit.
type Draft struct {
	Content  string `json:"content"`
	ImageURL string `json:"imageUrl"`
}

// Likes returns a pointer to n, for building comments with a like count.
func Likes(n int) *int { return &n }
