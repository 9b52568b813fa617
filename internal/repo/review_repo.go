package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/mornview/reviewd/internal/model"
	"github.com/mornview/reviewd/internal/pkg/dbutil"
	appErr "github.com/mornview/reviewd/internal/pkg/errors"
)

var reviewColumns = []string{"id", "user_id", "rating", "body", "ctime"}

type ReviewRepo struct {
	db dbutil.Executor
}

func NewReviewRepo(db *sql.DB) *ReviewRepo {
	return &ReviewRepo{db: db}
}

func (r *ReviewRepo) WithTx(tx *sql.Tx) *ReviewRepo {
	return &ReviewRepo{db: tx}
}

func (r *ReviewRepo) Create(ctx context.Context, review *model.Review) error {
	data := map[string]interface{}{
		"id":      review.ID,
		"user_id": review.UserID,
		"rating":  review.Rating,
		"body":    review.Body,
		"ctime":   review.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("reviews", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *ReviewRepo) GetByID(ctx context.Context, reviewID string) (*model.Review, error) {
	where := map[string]interface{}{"id": reviewID}
	sqlStr, args, err := builder.BuildSelect("reviews", where, reviewColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	var review model.Review
	if err := rows.Scan(&review.ID, &review.UserID, &review.Rating, &review.Body, &review.Ctime); err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *ReviewRepo) Update(ctx context.Context, review *model.Review) error {
	where := map[string]interface{}{"id": review.ID}
	update := map[string]interface{}{
		"rating": review.Rating,
		"body":   review.Body,
	}
	sqlStr, args, err := builder.BuildUpdate("reviews", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *ReviewRepo) Delete(ctx context.Context, reviewID string) error {
	sqlStr, args, err := builder.BuildDelete("reviews", map[string]interface{}{"id": reviewID})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *ReviewRepo) DeleteByUser(ctx context.Context, userID string) error {
	sqlStr, args, err := builder.BuildDelete("reviews", map[string]interface{}{"user_id": userID})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *ReviewRepo) CountByUser(ctx context.Context, userID string) (int, error) {
	where := map[string]interface{}{"user_id": userID}
	sqlStr, args, err := builder.BuildSelect("reviews", where, []string{"count(*)"})
	if err != nil {
		return 0, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return 0, rows.Err()
	}
	var count int
	if err := rows.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
