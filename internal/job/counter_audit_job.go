package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/mornview/reviewd/internal/repo"
)

// CounterAuditJob cross-checks every user's denormalized review_count against
// both the stored review_ids list and the actual rows in the reviews table.
// All writes that touch the counter are transactional, so a divergence here
// means a bug or out-of-band data surgery; the job only reports, it never
// repairs.
type CounterAuditJob struct {
	users   *repo.UserRepo
	reviews *repo.ReviewRepo
}

func NewCounterAuditJob(users *repo.UserRepo, reviews *repo.ReviewRepo) *CounterAuditJob {
	return &CounterAuditJob{users: users, reviews: reviews}
}

func (j *CounterAuditJob) Name() string {
	return "review_counter_audit"
}

func (j *CounterAuditJob) Run(ctx context.Context) error {
	users, err := j.users.List(ctx)
	if err != nil {
		return err
	}
	logger := logutil.GetLogger(ctx)
	divergent := 0
	for _, user := range users {
		stored, err := j.reviews.CountByUser(ctx, user.ID)
		if err != nil {
			return err
		}
		if user.ReviewCount == len(user.ReviewIDs) && user.ReviewCount == stored {
			continue
		}
		divergent++
		logger.Warn("review counter divergence",
			zap.String("user_id", user.ID),
			zap.Int("review_count", user.ReviewCount),
			zap.Int("review_ids_len", len(user.ReviewIDs)),
			zap.Int("stored_reviews", stored))
	}
	if divergent == 0 {
		logger.Info("review counters consistent", zap.Int("users", len(users)))
	}
	return nil
}
