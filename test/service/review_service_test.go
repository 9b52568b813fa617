package service_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mornview/reviewd/internal/model"
	appErr "github.com/mornview/reviewd/internal/pkg/errors"
	"github.com/mornview/reviewd/internal/pkg/timeutil"
	"github.com/mornview/reviewd/internal/repo"
	"github.com/mornview/reviewd/internal/service"
	"github.com/mornview/reviewd/test/testutil"
)

func setupServices(t *testing.T) (*sql.DB, *repo.UserRepo, *repo.ReviewRepo, *service.ReviewService, func()) {
	t.Helper()
	db, cleanup := testutil.OpenTestDB(t)
	userRepo := repo.NewUserRepo(db)
	reviewRepo := repo.NewReviewRepo(db)
	cache := service.NewUserCache(128, time.Minute)
	reviews := service.NewReviewService(db, userRepo, reviewRepo, cache)
	return db, userRepo, reviewRepo, reviews, cleanup
}

func seedUser(t *testing.T, users *repo.UserRepo, id string) *model.User {
	t.Helper()
	now := timeutil.NowUnix()
	user := &model.User{
		ID:           id,
		Email:        id + "@example.com",
		PasswordHash: "x",
		Name:         "User " + id,
		Role:         model.RoleStandard,
		ReviewIDs:    []string{},
		Ctime:        now,
		Mtime:        now,
	}
	require.NoError(t, users.Create(context.Background(), user))
	return user
}

func TestCreateReviewKeepsCounterConsistent(t *testing.T) {
	_, users, _, reviews, cleanup := setupServices(t)
	defer cleanup()

	ctx := context.Background()
	user := seedUser(t, users, "alice")

	const n = 5
	for i := 0; i < n; i++ {
		result, err := reviews.Create(ctx, user.ID, fmt.Sprintf("review body number %d", i), 5)
		require.NoError(t, err)
		require.Equal(t, 5, result.Review.Rating)
		require.Equal(t, i+1, result.User.ReviewCount)
	}

	stored, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, n, stored.ReviewCount)
	require.Len(t, stored.ReviewIDs, n)
}

func TestCreateReviewMissingUser(t *testing.T) {
	_, _, reviewRepo, reviews, cleanup := setupServices(t)
	defer cleanup()

	ctx := context.Background()
	_, err := reviews.Create(ctx, "no-such-user", "a perfectly fine body", 3)
	require.ErrorIs(t, err, appErr.ErrNotFound)
	require.Equal(t, "could not find user", err.Error())

	count, err := reviewRepo.CountByUser(ctx, "no-such-user")
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestCreateReviewReturnsSanitizedOwner(t *testing.T) {
	_, users, _, reviews, cleanup := setupServices(t)
	defer cleanup()

	ctx := context.Background()
	user := seedUser(t, users, "alice")

	result, err := reviews.Create(ctx, user.ID, "Great product!", 5)
	require.NoError(t, err)
	require.Equal(t, user.ID, result.User.ID)
	require.Equal(t, user.Name, result.User.Name)
	require.Equal(t, model.RoleStandard, result.User.Role)
	require.Equal(t, 1, result.User.ReviewCount)
}

func TestDeleteReviewRollsStatsBack(t *testing.T) {
	_, users, _, reviews, cleanup := setupServices(t)
	defer cleanup()

	ctx := context.Background()
	user := seedUser(t, users, "alice")

	first, err := reviews.Create(ctx, user.ID, "first review body", 4)
	require.NoError(t, err)
	_, err = reviews.Create(ctx, user.ID, "second review body", 5)
	require.NoError(t, err)

	_, err = reviews.Delete(ctx, first.Review.ID)
	require.NoError(t, err)

	stored, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, 1, stored.ReviewCount)
	require.Len(t, stored.ReviewIDs, 1)
	require.NotContains(t, stored.ReviewIDs, first.Review.ID)

	_, err = reviews.Get(ctx, first.Review.ID)
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestConcurrentCreatesSerializeCounter(t *testing.T) {
	_, users, _, reviews, cleanup := setupServices(t)
	defer cleanup()

	ctx := context.Background()
	user := seedUser(t, users, "alice")

	const n = 8
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func(i int) {
			_, err := reviews.Create(ctx, user.ID, fmt.Sprintf("concurrent review %d", i), 3)
			errs <- err
		}(i)
	}
	for i := 0; i < n; i++ {
		require.NoError(t, <-errs)
	}

	stored, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, n, stored.ReviewCount)
	require.Len(t, stored.ReviewIDs, n)
}
