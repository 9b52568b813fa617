package service

import (
	"context"
	"database/sql"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/mornview/reviewd/internal/model"
	appErr "github.com/mornview/reviewd/internal/pkg/errors"
	"github.com/mornview/reviewd/internal/pkg/timeutil"
	"github.com/mornview/reviewd/internal/repo"
)

// ReviewService coordinates every write that spans the review and user
// aggregates. The user's review_count and review_ids are denormalized, so a
// review create or delete must land in the same transaction as the user-side
// bookkeeping or the two drift apart.
type ReviewService struct {
	db      *sql.DB
	users   *repo.UserRepo
	reviews *repo.ReviewRepo
	cache   *UserCache
}

func NewReviewService(db *sql.DB, users *repo.UserRepo, reviews *repo.ReviewRepo, cache *UserCache) *ReviewService {
	return &ReviewService{db: db, users: users, reviews: reviews, cache: cache}
}

// UserSummary is the sanitized owner projection returned alongside a created
// review. It never carries the password hash.
type UserSummary struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Role        model.Role `json:"role"`
	ReviewCount int        `json:"review_count"`
}

type CreateReviewResult struct {
	Review *model.Review `json:"review"`
	User   UserSummary   `json:"user"`
}

// Create inserts the review and updates the owner's denormalized stats as one
// atomic unit. The owner row is locked first, so concurrent creates for the
// same user serialize their counter increments.
func (s *ReviewService) Create(ctx context.Context, ownerID, body string, rating int) (*CreateReviewResult, error) {
	var result *CreateReviewResult
	err := repo.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		users := s.users.WithTx(tx)
		reviews := s.reviews.WithTx(tx)

		user, err := users.GetByIDForUpdate(ctx, ownerID)
		if err != nil {
			if appErr.IsNotFound(err) {
				return appErr.WithMessage(appErr.ErrNotFound, "could not find user")
			}
			return err
		}
		review := &model.Review{
			ID:     newID(),
			UserID: ownerID,
			Rating: rating,
			Body:   body,
			Ctime:  timeutil.NowUnix(),
		}
		if err := reviews.Create(ctx, review); err != nil {
			return err
		}
		user.ReviewIDs = append(user.ReviewIDs, review.ID)
		user.ReviewCount++
		if err := users.UpdateReviewStats(ctx, user.ID, user.ReviewIDs, user.ReviewCount, timeutil.NowUnix()); err != nil {
			return err
		}
		result = &CreateReviewResult{
			Review: review,
			User: UserSummary{
				ID:          user.ID,
				Name:        user.Name,
				Role:        user.Role,
				ReviewCount: user.ReviewCount,
			},
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ownerID)
	logutil.GetLogger(ctx).Info("review created",
		zap.String("review_id", result.Review.ID),
		zap.String("user_id", ownerID),
		zap.Int("review_count", result.User.ReviewCount))
	return result, nil
}

func (s *ReviewService) Get(ctx context.Context, reviewID string) (*model.Review, error) {
	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		if appErr.IsNotFound(err) {
			return nil, appErr.WithMessage(appErr.ErrNotFound, "could not find review")
		}
		return nil, err
	}
	return review, nil
}

func (s *ReviewService) Update(ctx context.Context, reviewID, body string, rating int) (*model.Review, error) {
	review, err := s.Get(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	review.Body = body
	review.Rating = rating
	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

// Delete removes the review and rolls the owner's stats back in the same
// transaction, keeping review_count equal to len(review_ids).
func (s *ReviewService) Delete(ctx context.Context, reviewID string) (*model.Review, error) {
	var deleted *model.Review
	err := repo.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		users := s.users.WithTx(tx)
		reviews := s.reviews.WithTx(tx)

		review, err := reviews.GetByID(ctx, reviewID)
		if err != nil {
			if appErr.IsNotFound(err) {
				return appErr.WithMessage(appErr.ErrNotFound, "could not find review")
			}
			return err
		}
		user, err := users.GetByIDForUpdate(ctx, review.UserID)
		if err != nil {
			return err
		}
		if err := reviews.Delete(ctx, reviewID); err != nil {
			return err
		}
		user.ReviewIDs = removeID(user.ReviewIDs, reviewID)
		user.ReviewCount = len(user.ReviewIDs)
		if err := users.UpdateReviewStats(ctx, user.ID, user.ReviewIDs, user.ReviewCount, timeutil.NowUnix()); err != nil {
			return err
		}
		deleted = review
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(deleted.UserID)
	return deleted, nil
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
