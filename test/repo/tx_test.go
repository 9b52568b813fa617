package repo_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mornview/reviewd/internal/model"
	appErr "github.com/mornview/reviewd/internal/pkg/errors"
	"github.com/mornview/reviewd/internal/pkg/timeutil"
	"github.com/mornview/reviewd/internal/repo"
	"github.com/mornview/reviewd/test/testutil"
)

// A failure after the review insert must leave no review row behind.
func TestWithTxRollsBackReviewWrite(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	ctx := context.Background()
	users := repo.NewUserRepo(db)
	reviews := repo.NewReviewRepo(db)

	now := timeutil.NowUnix()
	user := &model.User{
		ID:           "alice",
		Email:        "alice@example.com",
		PasswordHash: "x",
		Name:         "Alice",
		Role:         model.RoleStandard,
		ReviewIDs:    []string{},
		Ctime:        now,
		Mtime:        now,
	}
	require.NoError(t, users.Create(ctx, user))

	boom := errors.New("forced failure after review write")
	err := repo.WithTx(ctx, db, func(tx *sql.Tx) error {
		txReviews := reviews.WithTx(tx)
		if err := txReviews.Create(ctx, &model.Review{
			ID:     "review-1",
			UserID: user.ID,
			Rating: 5,
			Body:   "written then rolled back",
			Ctime:  now,
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = reviews.GetByID(ctx, "review-1")
	require.ErrorIs(t, err, appErr.ErrNotFound)

	count, err := reviews.CountByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestWithTxCommits(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	ctx := context.Background()
	users := repo.NewUserRepo(db)

	now := timeutil.NowUnix()
	err := repo.WithTx(ctx, db, func(tx *sql.Tx) error {
		return users.WithTx(tx).Create(ctx, &model.User{
			ID:           "bob",
			Email:        "bob@example.com",
			PasswordHash: "x",
			Name:         "Bob",
			Role:         model.RoleStandard,
			ReviewIDs:    []string{},
			Ctime:        now,
			Mtime:        now,
		})
	})
	require.NoError(t, err)

	stored, err := users.GetByID(ctx, "bob")
	require.NoError(t, err)
	require.Equal(t, "bob@example.com", stored.Email)
}
