package composer

import (
	"context"
	"errors"
	"maps"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/UkralStul/interactor/internal/domain"
)

// Field names used in validation errors.
const (
	FieldContent  = "content"
	FieldImageURL = "imageUrl"
)

// MinContentLength is the shortest accepted post, counted after trimming.
const MinContentLength = 5

// DefaultAckDelay is how long the "posted" acknowledgment stays up.
const DefaultAckDelay = 2 * time.Second

var (
	ErrContentRequired = errors.New("content required")
	ErrContentTooShort = errors.New("content too short")
	ErrInvalidURL      = errors.New("invalid URL")
	ErrImageLoadFailed = errors.New("image failed to load")
)

// ValidationError carries one error per offending field.
type ValidationError struct {
	Fields map[string]error
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + ": " + e.Fields[name].Error()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Is lets errors.Is match any of the field errors.
func (e *ValidationError) Is(target error) bool {
	for _, err := range e.Fields {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Validate checks a draft before submission. It returns nil or a *ValidationError.
func Validate(content, imageURL string) error {
	fields := make(map[string]error)

	trimmed := strings.TrimSpace(content)
	switch {
	case trimmed == "":
		fields[FieldContent] = ErrContentRequired
	case utf8.RuneCountInString(trimmed) < MinContentLength:
		fields[FieldContent] = ErrContentTooShort
	}

	if u := strings.TrimSpace(imageURL); u != "" && !validURL(u) {
		fields[FieldImageURL] = ErrInvalidURL
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// validURL accepts absolute URLs: a scheme plus either a host or an opaque part.
func validURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" {
		return false
	}
	return u.Host != "" || u.Opaque != ""
}

// PostSink receives drafts that passed validation.
type PostSink interface {
	SubmitPost(d domain.Draft) domain.Post
}

// ImageProber checks that an image URL actually serves an image.
type ImageProber interface {
	Probe(ctx context.Context, rawURL string) error
}

// State is a read-only copy of the composer's input state.
type State struct {
	Content      string            `json:"content"`
	ImageURL     string            `json:"imageUrl"`
	Errors       map[string]string `json:"errors,omitempty"`
	Acknowledged bool              `json:"acknowledged"`
}

// Option configures a Composer.
type Option func(*Composer)

// WithAckDelay changes how long the acknowledgment lasts.
func WithAckDelay(d time.Duration) Option {
	return func(c *Composer) { c.ackDelay = d }
}

// WithProber sets the prober used by PreviewImage.
func WithProber(p ImageProber) Option {
	return func(c *Composer) { c.prober = p }
}

// WithLogger sets the composer's logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Composer) { c.log = l }
}

// Composer holds the new-post form of one session.
type Composer struct {
	sink     PostSink
	prober   ImageProber
	ackDelay time.Duration
	log      *zap.Logger

	mu           sync.Mutex
	content      string
	imageURL     string
	errors       map[string]error
	acknowledged bool
	ackTimer     *time.Timer
}

// New creates a composer that submits into sink.
func New(sink PostSink, opts ...Option) *Composer {
	c := &Composer{
		sink:     sink,
		ackDelay: DefaultAckDelay,
		log:      zap.NewNop(),
		errors:   make(map[string]error),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.prober == nil {
		c.prober = NewHTTPProber(nil)
	}
	return c
}

// SetContent replaces the post text.
func (c *Composer) SetContent(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.content = s
}

// SetImageURL replaces the image URL. A new URL clears an earlier load failure.
func (c *Composer) SetImageURL(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s != c.imageURL && errors.Is(c.errors[FieldImageURL], ErrImageLoadFailed) {
		delete(c.errors, FieldImageURL)
	}
	c.imageURL = s
}

// ReportImageFailure records that the preview image could not be loaded.
func (c *Composer) ReportImageFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if strings.TrimSpace(c.imageURL) == "" {
		return
	}
	c.errors[FieldImageURL] = ErrImageLoadFailed
}

// PreviewImage probes the current image URL and flags a load failure on the
// image field. It returns the probe error, if any.
func (c *Composer) PreviewImage(ctx context.Context) error {
	c.mu.Lock()
	raw := strings.TrimSpace(c.imageURL)
	c.mu.Unlock()
	if raw == "" || !validURL(raw) {
		return nil
	}

	err := c.prober.Probe(ctx, raw)
	if err == nil {
		return nil
	}
	c.log.Info("image preview failed", zap.String("url", raw), zap.Error(err))

	c.mu.Lock()
	defer c.mu.Unlock()
	// the URL may have changed while probing
	if strings.TrimSpace(c.imageURL) == raw {
		c.errors[FieldImageURL] = ErrImageLoadFailed
	}
	return err
}

// Submit validates the input and hands the draft to the sink. On success the
// input is cleared and the acknowledgment shown for the ack delay.
func (c *Composer) Submit() (domain.Post, error) {
	c.mu.Lock()
	err := Validate(c.content, c.imageURL)
	imageErr := c.errors[FieldImageURL]
	if err == nil && errors.Is(imageErr, ErrImageLoadFailed) {
		err = &ValidationError{Fields: map[string]error{FieldImageURL: imageErr}}
	}
	if err != nil {
		var ve *ValidationError
		errors.As(err, &ve)
		c.errors = maps.Clone(ve.Fields)
		if _, ok := c.errors[FieldImageURL]; !ok && errors.Is(imageErr, ErrImageLoadFailed) {
			c.errors[FieldImageURL] = imageErr
		}
		c.mu.Unlock()
		return domain.Post{}, err
	}

	draft := domain.Draft{
		Content:  strings.TrimSpace(c.content),
		ImageURL: strings.TrimSpace(c.imageURL),
	}
	c.content = ""
	c.imageURL = ""
	c.errors = make(map[string]error)
	c.acknowledge()
	c.mu.Unlock()

	return c.sink.SubmitPost(draft), nil
}

// acknowledge raises the acknowledgment and schedules its reset. Callers hold c.mu.
func (c *Composer) acknowledge() {
	c.acknowledged = true
	if c.ackTimer != nil {
		c.ackTimer.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(c.ackDelay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.ackTimer == t {
			c.acknowledged = false
			c.ackTimer = nil
		}
	})
	c.ackTimer = t
}

// State returns a copy of the form state.
func (c *Composer) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := State{
		Content:      c.content,
		ImageURL:     c.imageURL,
		Acknowledged: c.acknowledged,
	}
	if len(c.errors) > 0 {
		st.Errors = make(map[string]string, len(c.errors))
		for field, err := range c.errors {
			st.Errors[field] = err.Error()
		}
	}
	return st
}
