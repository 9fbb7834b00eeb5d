package inmemory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/UkralStul/interactor/internal/domain"
	"github.com/UkralStul/interactor/internal/source"
)

const maxCommentLength = 2000

// Store реализует интерфейс Source в памяти. Используется офлайн и в тестах.
type Store struct {
	mu             sync.RWMutex
	posts          map[domain.PostID]*source.PostRecord
	comments       map[domain.CommentID]*domain.Comment
	commentsByPost map[domain.PostID][]domain.CommentID
	nextPostID     domain.PostID
	nextCommentID  domain.CommentID
}

// New создает новый пустой экземпляр in-memory хранилища.
func New() *Store {
	return &Store{
		posts:          make(map[domain.PostID]*source.PostRecord),
		comments:       make(map[domain.CommentID]*domain.Comment),
		commentsByPost: make(map[domain.PostID][]domain.CommentID),
	}
}

// === Post Methods ===

// CreatePost сохраняет пост под следующим свободным ID.
func (s *Store) CreatePost(ctx context.Context, rec source.PostRecord) (source.PostRecord, error) {
	if strings.TrimSpace(rec.Body) == "" {
		return source.PostRecord{}, errors.New("post body cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextPostID++
	rec.ID = s.nextPostID
	rec.Tags = append([]string(nil), rec.Tags...)
	s.posts[rec.ID] = &rec
	return rec, nil
}

// ListPosts возвращает не более limit постов, отсортированных по ID.
func (s *Store) ListPosts(ctx context.Context, limit int) ([]source.PostRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]source.PostRecord, 0, len(s.posts))
	for _, p := range s.posts {
		all = append(all, copyRecord(*p))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	if limit >= 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func copyRecord(p source.PostRecord) source.PostRecord {
	if p.Likes != nil {
		p.Likes = domain.Likes(*p.Likes)
	}
	p.Tags = append([]string(nil), p.Tags...)
	return p
}

// === Comment Methods ===

// CreateComment добавляет комментарий в список комментариев поста.
func (s *Store) CreateComment(ctx context.Context, c domain.Comment) (domain.Comment, error) {
	if len(c.Body) > maxCommentLength {
		return domain.Comment{}, errors.New("comment content is too long")
	}
	if strings.TrimSpace(c.Body) == "" {
		return domain.Comment{}, errors.New("comment content cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[c.PostID]; !ok {
		return domain.Comment{}, fmt.Errorf("post with id %d: %w", c.PostID, source.ErrNotFound)
	}

	s.nextCommentID++
	c.ID = s.nextCommentID
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	s.comments[c.ID] = &c
	s.commentsByPost[c.PostID] = append(s.commentsByPost[c.PostID], c.ID)
	return c, nil
}

// ListComments возвращает комментарии поста в порядке создания.
func (s *Store) ListComments(ctx context.Context, postID domain.PostID) ([]domain.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.posts[postID]; !ok {
		return nil, fmt.Errorf("post with id %d: %w", postID, source.ErrNotFound)
	}

	ids := s.commentsByPost[postID]
	out := make([]domain.Comment, 0, len(ids))
	for _, id := range ids {
		if c, ok := s.comments[id]; ok {
			cp := *c
			if cp.LikeCount != nil {
				cp.LikeCount = domain.Likes(*cp.LikeCount)
			}
			out = append(out, cp)
		}
	}
	return out, nil
}

// AddComment сохраняет комментарий, присланный удаленным пользователем.
func (s *Store) AddComment(ctx context.Context, nc source.NewComment) error {
	_, err := s.CreateComment(ctx, domain.Comment{
		PostID:     nc.PostID,
		Author:     domain.RemoteUser(nc.UserID),
		AuthorName: fmt.Sprintf("User %d", nc.UserID),
		Body:       nc.Body,
		LikeCount:  domain.Likes(0),
	})
	return err
}

var _ source.Source = (*Store)(nil)

// === Dataloader Method ===

// CountComments считает комментарии для каждого поста из ids. У неизвестных постов - ноль.
func (s *Store) CountComments(ctx context.Context, ids []domain.PostID) (map[domain.PostID]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[domain.PostID]int, len(ids))
	for _, id := range ids {
		result[id] = len(s.commentsByPost[id])
	}
	return result, nil
}

var _ source.CommentCounter = (*Store)(nil)
