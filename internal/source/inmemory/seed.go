package inmemory

import (
	"context"
	"fmt"

	"github.com/UkralStul/interactor/internal/domain"
	"github.com/UkralStul/interactor/internal/source"
)

type seedComment struct {
	userID   int64
	username string
	body     string
	likes    int
}

type seedPost struct {
	userID   int64
	body     string
	likes    int
	tags     []string
	comments []seedComment
}

var seedPosts = []seedPost{
	{
		userID: 121,
		body:   "Spent the weekend rebuilding the garden fence. Turns out measuring twice really does matter.",
		likes:  42,
		tags:   []string{"diy", "weekend"},
		comments: []seedComment{
			{userID: 7, username: "maria_k", body: "Looks great, what wood did you use?", likes: 3},
			{userID: 19, username: "tomh", body: "Measure three times, cut once.", likes: 8},
		},
	},
	{
		userID: 91,
		body:   "Finally finished the book club pick for this month. No spoilers, but that ending!",
		likes:  17,
		tags:   []string{"books"},
		comments: []seedComment{
			{userID: 33, username: "reader42", body: "I need to talk about chapter twelve with someone.", likes: 1},
		},
	},
	{
		userID: 16,
		body:   "Morning run along the river, 10k in under an hour for the first time.",
		likes:  88,
		tags:   []string{"running", "fitness"},
	},
	{
		userID: 47,
		body:   "Tried the new ramen place downtown. The broth alone is worth the queue.",
		likes:  23,
		tags:   []string{"food"},
		comments: []seedComment{
			{userID: 2, username: "noodlefan", body: "Was it the one next to the cinema?", likes: 0},
			{userID: 47, username: "chef_lee", body: "Yes! Go before noon to skip the line.", likes: 2},
			{userID: 81, username: "ana.p", body: "Adding it to my list.", likes: 1},
		},
	},
	{
		userID: 5,
		body:   "Does anyone have a recommendation for a beginner friendly telescope?",
		likes:  9,
		tags:   []string{"astronomy", "question"},
		comments: []seedComment{
			{userID: 64, username: "stargazer", body: "A small dobsonian is hard to beat for the price.", likes: 5},
		},
	},
	{
		userID: 72,
		body:   "Power went out for three hours and we played board games by candlelight. Ten out of ten.",
		likes:  54,
		tags:   []string{"family"},
	},
	{
		userID: 38,
		body:   "Day 30 of learning the guitar. My fingertips have stopped complaining.",
		likes:  31,
		tags:   []string{"music", "learning"},
		comments: []seedComment{
			{userID: 11, username: "riffraff", body: "The calluses are a rite of passage.", likes: 4},
		},
	},
	{
		userID: 29,
		body:   "Reminder that the community cleanup is this Saturday at 9am by the old pier.",
		likes:  12,
		tags:   []string{"community"},
	},
	{
		userID: 103,
		body:   "Sourdough attempt number four. It rose! It actually rose!",
		likes:  76,
		tags:   []string{"baking"},
		comments: []seedComment{
			{userID: 90, username: "crumb", body: "What hydration are you using?", likes: 2},
			{userID: 103, username: "baker_b", body: "About 75 percent.", likes: 0},
		},
	},
	{
		userID: 58,
		body:   "Packing list for the hiking trip is getting out of hand. What can I leave behind?",
		likes:  14,
		tags:   []string{"hiking", "travel"},
	},
}

// Seed заполняет хранилище фиксированным набором демо-постов и комментариев.
func Seed(ctx context.Context, s *Store) error {
	for _, sp := range seedPosts {
		rec, err := s.CreatePost(ctx, source.PostRecord{
			UserID: sp.userID,
			Body:   sp.body,
			Likes:  domain.Likes(sp.likes),
			Tags:   sp.tags,
		})
		if err != nil {
			return fmt.Errorf("seed: failed to create post: %w", err)
		}
		for _, sc := range sp.comments {
			_, err := s.CreateComment(ctx, domain.Comment{
				PostID:     rec.ID,
				Author:     domain.RemoteUser(sc.userID),
				AuthorName: sc.username,
				Body:       sc.body,
				LikeCount:  domain.Likes(sc.likes),
			})
			if err != nil {
				return fmt.Errorf("seed: failed to create comment on post %d: %w", rec.ID, err)
			}
		}
	}
	return nil
}

// NewSeeded возвращает хранилище, уже заполненное через Seed.
func NewSeeded(ctx context.Context) (*Store, error) {
	s := New()
	if err := Seed(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}
