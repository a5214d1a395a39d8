package comments

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"tastemap/models"
	"tastemap/utils"
)

const (
	MaxCommentLength = 500
	DefaultPageLimit = 20
)

type Service struct {
	Store Store
	Now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{Store: store, Now: time.Now}
}

type CreateInput struct {
	RestaurantID string `json:"restaurantId"`
	Username     string `json:"username"`
	Comment      string `json:"comment"`
	Rating       *int   `json:"rating"`
}

// UpdateInput changes the text and/or rating. SetRating distinguishes an absent rating
// from an explicit null that clears it.
type UpdateInput struct {
	Username  string
	Comment   *string
	SetRating bool
	Rating    *int
}

// Page is one window of a comment listing.
type Page struct {
	Comments []models.Comment
	Total    int64
	HasMore  bool
}

func validateText(text string) (string, error) {
	if utf8.RuneCountInString(text) > MaxCommentLength {
		return "", utils.Validation("Comment must be 500 characters or less")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", utils.Validation("Comment cannot be empty")
	}
	return text, nil
}

func validateRating(r *int) error {
	if r != nil && (*r < 1 || *r > 5) {
		return utils.Validation("Rating must be between 1 and 5")
	}
	return nil
}

func (s *Service) Create(ctx context.Context, in CreateInput) (models.Comment, error) {
	rid := strings.TrimSpace(in.RestaurantID)
	username := strings.TrimSpace(in.Username)
	if rid == "" || username == "" || in.Comment == "" {
		return models.Comment{}, utils.Validation("Restaurant ID, username, and comment are required")
	}
	text, err := validateText(in.Comment)
	if err != nil {
		return models.Comment{}, err
	}
	if err := validateRating(in.Rating); err != nil {
		return models.Comment{}, err
	}

	now := s.Now().UTC()
	c := models.Comment{
		ID:           utils.GetUUID(),
		RestaurantID: rid,
		Username:     username,
		Comment:      text,
		Rating:       in.Rating,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Store.Insert(ctx, c); err != nil {
		return models.Comment{}, err
	}
	return c, nil
}

// authored loads id and checks that username wrote it.
func (s *Service) authored(ctx context.Context, id, username string) (models.Comment, error) {
	if strings.TrimSpace(username) == "" {
		return models.Comment{}, utils.Validation("Username is required")
	}
	c, err := s.Store.Get(ctx, id)
	if errors.Is(err, utils.ErrNotFound) {
		return models.Comment{}, utils.NotFound("Comment not found")
	}
	if err != nil {
		return models.Comment{}, err
	}
	if c.Username != strings.TrimSpace(username) {
		return models.Comment{}, utils.Forbidden("You can only modify your own comments")
	}
	return c, nil
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (models.Comment, error) {
	c, err := s.authored(ctx, id, in.Username)
	if err != nil {
		return models.Comment{}, err
	}
	if in.Comment != nil {
		text, err := validateText(*in.Comment)
		if err != nil {
			return models.Comment{}, err
		}
		c.Comment = text
	}
	if in.SetRating {
		if err := validateRating(in.Rating); err != nil {
			return models.Comment{}, err
		}
		c.Rating = in.Rating
	}
	c.UpdatedAt = s.Now().UTC()

	if err := s.Store.Update(ctx, c); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return models.Comment{}, utils.NotFound("Comment not found")
		}
		return models.Comment{}, err
	}
	return c, nil
}

func (s *Service) Delete(ctx context.Context, id, username string) error {
	if _, err := s.authored(ctx, id, username); err != nil {
		return err
	}
	err := s.Store.Delete(ctx, id)
	if errors.Is(err, utils.ErrNotFound) {
		return utils.NotFound("Comment not found")
	}
	return err
}

func (s *Service) Get(ctx context.Context, id string) (models.Comment, error) {
	c, err := s.Store.Get(ctx, id)
	if errors.Is(err, utils.ErrNotFound) {
		return models.Comment{}, utils.NotFound("Comment not found")
	}
	return c, err
}

func (s *Service) ListForRestaurant(ctx context.Context, rid string, page utils.Page) (Page, error) {
	return s.list(ctx, Filter{RestaurantID: rid}, page)
}

func (s *Service) ListForUser(ctx context.Context, username string, page utils.Page) (Page, error) {
	return s.list(ctx, Filter{Username: username}, page)
}

func (s *Service) list(ctx context.Context, f Filter, page utils.Page) (Page, error) {
	comments, total, err := s.Store.List(ctx, f, page.Limit, page.Offset)
	if err != nil {
		return Page{}, err
	}
	return Page{
		Comments: comments,
		Total:    total,
		HasMore:  int64(page.Offset+len(comments)) < total,
	}, nil
}

// Stats summarizes a restaurant's comments; the average is rounded to one decimal.
func (s *Service) Stats(ctx context.Context, rid string) (models.CommentStats, error) {
	sum, err := s.Store.Summarize(ctx, rid)
	if err != nil {
		return models.CommentStats{}, err
	}
	stats := models.CommentStats{TotalComments: sum.Total, RatingsCount: sum.RatingsCount}
	if sum.Average != nil && sum.RatingsCount > 0 {
		avg := math.Round(*sum.Average*10) / 10
		stats.AverageRating = &avg
	}
	return stats, nil
}
