package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/UkralStul/interactor/internal/domain"
	"github.com/UkralStul/interactor/internal/source"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type postRow struct {
	ID        int64     `gorm:"primaryKey"`
	UserID    int64     `gorm:"not null;index"`
	Body      string    `gorm:"type:text;not null"`
	Likes     *int
	Tags      []string  `gorm:"serializer:json"`
	CreatedAt time.Time `gorm:"not null;default:now()"`
}

func (postRow) TableName() string { return "posts" }

type commentRow struct {
	ID        int64     `gorm:"primaryKey"`
	PostID    int64     `gorm:"not null;index"`
	UserID    int64     `gorm:"not null"`
	Username  string    `gorm:"type:varchar(255)"`
	Body      string    `gorm:"type:varchar(2000);not null"`
	Likes     *int
	CreatedAt time.Time `gorm:"not null;default:now()"`
}

func (commentRow) TableName() string { return "comments" }

// Store реализует интерфейс Source поверх PostgreSQL.
type Store struct {
	db *gorm.DB
}

// New подключается к базе по dsn и мигрирует таблицы posts и comments.
func New(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&postRow{}, &commentRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close закрывает пул соединений.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// === Post Methods ===

func (s *Store) ListPosts(ctx context.Context, limit int) ([]source.PostRecord, error) {
	var rows []postRow
	if err := s.db.WithContext(ctx).Order("id ASC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]source.PostRecord, len(rows))
	for i, r := range rows {
		out[i] = source.PostRecord{
			ID:     domain.PostID(r.ID),
			UserID: r.UserID,
			Body:   r.Body,
			Likes:  r.Likes,
			Tags:   r.Tags,
		}
	}
	return out, nil
}

// === Comment Methods ===

func (s *Store) ListComments(ctx context.Context, postID domain.PostID) ([]domain.Comment, error) {
	var comments []domain.Comment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&postRow{}).Where("id = ?", int64(postID)).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("post with id %d: %w", postID, source.ErrNotFound)
		}

		var rows []commentRow
		if err := tx.Where("post_id = ?", int64(postID)).Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
			return err
		}
		comments = make([]domain.Comment, len(rows))
		for i, r := range rows {
			comments[i] = domain.Comment{
				ID:         domain.CommentID(r.ID),
				PostID:     postID,
				Author:     domain.RemoteUser(r.UserID),
				AuthorName: r.Username,
				Body:       r.Body,
				CreatedAt:  r.CreatedAt,
				LikeCount:  r.Likes,
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return comments, nil
}

func (s *Store) AddComment(ctx context.Context, nc source.NewComment) error {
	if len(nc.Body) > 2000 {
		return errors.New("comment content is too long")
	}
	if strings.TrimSpace(nc.Body) == "" {
		return errors.New("comment content cannot be empty")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post postRow
		if err := tx.Select("id").First(&post, "id = ?", int64(nc.PostID)).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("post with id %d: %w", nc.PostID, source.ErrNotFound)
			}
			return err
		}
		zero := 0
		return tx.Create(&commentRow{
			PostID:   int64(nc.PostID),
			UserID:   nc.UserID,
			Username: fmt.Sprintf("User %d", nc.UserID),
			Body:     nc.Body,
			Likes:    &zero,
		}).Error
	})
}

// === Dataloader Method ===

// CountComments считает комментарии всех постов из ids одним запросом.
func (s *Store) CountComments(ctx context.Context, ids []domain.PostID) (map[domain.PostID]int, error) {
	raw := make([]int64, len(ids))
	for i, id := range ids {
		raw[i] = int64(id)
	}

	var rows []struct {
		PostID int64
		N      int
	}
	err := s.db.WithContext(ctx).
		Model(&commentRow{}).
		Select("post_id, count(*) AS n").
		Where("post_id IN ?", raw).
		Group("post_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make(map[domain.PostID]int, len(ids))
	for _, id := range ids {
		result[id] = 0
	}
	for _, r := range rows {
		result[domain.PostID(r.PostID)] = r.N
	}
	return result, nil
}

var (
	_ source.Source         = (*Store)(nil)
	_ source.CommentCounter = (*Store)(nil)
)
