// Package render draws feed snapshots as coloured terminal text.
package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/UkralStul/interactor/internal/domain"
	"github.com/UkralStul/interactor/internal/feed"
	"github.com/UkralStul/interactor/internal/format"
)

const (
	emptyFeed     = "No posts yet. Be the first to post!"
	emptyComments = "No comments yet. Be the first to comment!"
	loadingFeed   = "Loading posts..."
	loadingThread = "Loading comments..."
)

var (
	bold   = color.New(color.Bold)
	faint  = color.New(color.Faint)
	red    = color.New(color.FgRed)
	yellow = color.New(color.FgYellow)
	badge  = color.New(color.FgBlack, color.BgCyan)
	liked  = color.New(color.FgRed, color.Bold)
)

// Renderer writes snapshots to w. Times are shown relative to now().
type Renderer struct {
	w   io.Writer
	now func() time.Time
}

// New returns a renderer on w. A nil now uses time.Now.
func New(w io.Writer, now func() time.Time) *Renderer {
	if now == nil {
		now = time.Now
	}
	return &Renderer{w: w, now: now}
}

// Feed renders a whole snapshot.
func (r *Renderer) Feed(s feed.Snapshot) {
	if s.LoadError != "" {
		red.Fprintf(r.w, "Failed to load posts: %s\n", s.LoadError)
	}
	if len(s.Posts) == 0 {
		if s.IsLoading {
			faint.Fprintln(r.w, loadingFeed)
		} else if s.LoadError == "" {
			faint.Fprintln(r.w, emptyFeed)
		}
		return
	}
	for i, p := range s.Posts {
		if i > 0 {
			fmt.Fprintln(r.w)
		}
		r.Post(p)
	}
	if s.IsLoading {
		faint.Fprintln(r.w, loadingFeed)
	}
}

// Post renders one post card, with its comment panel when open.
func (r *Renderer) Post(p feed.PostState) {
	now := r.now()

	r.header(p.Author, p.AuthorName, p.CreatedAt, now)
	fmt.Fprintln(r.w, p.Body)

	if p.ImageURL != "" {
		if p.ImageLoadFailed {
			yellow.Fprintln(r.w, "[image unavailable]")
		} else {
			faint.Fprintf(r.w, "[image] %s\n", p.ImageURL)
		}
	}
	if len(p.Tags) > 0 {
		tags := make([]string, len(p.Tags))
		for i, t := range p.Tags {
			tags[i] = "#" + t
		}
		faint.Fprintln(r.w, strings.Join(tags, " "))
	}

	likes := format.Count(p.LikeCount, "like", "likes")
	if p.IsLiked {
		liked.Fprint(r.w, "♥ "+likes)
	} else {
		fmt.Fprint(r.w, "♡ "+likes)
	}
	fmt.Fprintf(r.w, "  %s\n", format.Count(p.DisplayedCommentCount, "comment", "comments"))

	if p.CommentsPanelOpen {
		r.thread(p)
	}
}

func (r *Renderer) thread(p feed.PostState) {
	if p.CommentsLoading {
		faint.Fprintln(r.w, "  "+loadingThread)
		return
	}
	if len(p.Comments) == 0 {
		faint.Fprintln(r.w, "  "+emptyComments)
	}
	for _, c := range p.Comments {
		r.Comment(c)
	}
	if p.DraftComment != "" {
		faint.Fprintf(r.w, "  > %s\n", p.DraftComment)
	}
}

// Comment renders one indented comment.
func (r *Renderer) Comment(c domain.Comment) {
	now := r.now()
	fmt.Fprint(r.w, "  ")
	r.header(c.Author, c.AuthorName, c.CreatedAt, now)
	fmt.Fprintf(r.w, "  %s\n", c.Body)
	if c.LikeCount != nil {
		faint.Fprintf(r.w, "  ♥ %d\n", *c.LikeCount)
	}
}

func (r *Renderer) header(a domain.Author, name string, at, now time.Time) {
	avatar := avatarColor(format.AvatarColor(a))
	avatar.Fprintf(r.w, "(%s)", format.Initials(name))
	fmt.Fprint(r.w, " ")
	bold.Fprint(r.w, name)
	if a.IsLocal() {
		fmt.Fprint(r.w, " ")
		badge.Fprint(r.w, " You ")
	}
	faint.Fprintf(r.w, " · %s\n", format.RelativeTime(at, now))
}

// avatarColor turns a "#rrggbb" palette entry into a foreground colour.
func avatarColor(hex string) *color.Color {
	v, err := strconv.ParseUint(strings.TrimPrefix(hex, "#"), 16, 32)
	if err != nil {
		return color.New(color.FgWhite)
	}
	return color.RGB(int(v>>16&0xff), int(v>>8&0xff), int(v&0xff)).Add(color.Bold)
}
