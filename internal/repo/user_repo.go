package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/didi/gendry/builder"

	"github.com/mornview/reviewd/internal/model"
	"github.com/mornview/reviewd/internal/pkg/dbutil"
	appErr "github.com/mornview/reviewd/internal/pkg/errors"
)

var userColumns = []string{"id", "email", "password_hash", "name", "role", "review_count", "review_ids", "ctime", "mtime"}

type UserRepo struct {
	db dbutil.Executor
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

// WithTx returns a repo bound to tx so its queries join an open transaction.
func (r *UserRepo) WithTx(tx *sql.Tx) *UserRepo {
	return &UserRepo{db: tx}
}

func (r *UserRepo) Create(ctx context.Context, user *model.User) error {
	reviewIDs, err := encodeReviewIDs(user.ReviewIDs)
	if err != nil {
		return err
	}
	data := map[string]interface{}{
		"id":            user.ID,
		"email":         user.Email,
		"password_hash": user.PasswordHash,
		"name":          user.Name,
		"role":          string(user.Role),
		"review_count":  user.ReviewCount,
		"review_ids":    reviewIDs,
		"ctime":         user.Ctime,
		"mtime":         user.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("users", []map[string]interface{}{data})
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

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, map[string]interface{}{"email": email}, false)
}

func (r *UserRepo) GetByID(ctx context.Context, userID string) (*model.User, error) {
	return r.getOne(ctx, map[string]interface{}{"id": userID}, false)
}

// GetByIDForUpdate locks the user row for the remainder of the surrounding
// transaction, serializing concurrent counter updates for the same user.
func (r *UserRepo) GetByIDForUpdate(ctx context.Context, userID string) (*model.User, error) {
	return r.getOne(ctx, map[string]interface{}{"id": userID}, true)
}

func (r *UserRepo) getOne(ctx context.Context, where map[string]interface{}, forUpdate bool) (*model.User, error) {
	sqlStr, args, err := builder.BuildSelect("users", where, userColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	if forUpdate {
		sqlStr += " FOR UPDATE"
	}
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	return scanUser(rows)
}

func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	sqlStr, args, err := builder.BuildSelect("users", map[string]interface{}{"_orderby": "ctime asc"}, userColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var users []model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

// UpdateProfile overwrites the mutable profile fields. Review stats are not
// touched here; those only move through UpdateReviewStats.
func (r *UserRepo) UpdateProfile(ctx context.Context, user *model.User) error {
	where := map[string]interface{}{"id": user.ID}
	update := map[string]interface{}{
		"email":         user.Email,
		"password_hash": user.PasswordHash,
		"name":          user.Name,
		"role":          string(user.Role),
		"mtime":         user.Mtime,
	}
	return r.update(ctx, where, update)
}

func (r *UserRepo) UpdateReviewStats(ctx context.Context, userID string, reviewIDs []string, reviewCount int, mtime int64) error {
	encoded, err := encodeReviewIDs(reviewIDs)
	if err != nil {
		return err
	}
	where := map[string]interface{}{"id": userID}
	update := map[string]interface{}{
		"review_ids":   encoded,
		"review_count": reviewCount,
		"mtime":        mtime,
	}
	return r.update(ctx, where, update)
}

func (r *UserRepo) update(ctx context.Context, where, update map[string]interface{}) error {
	sqlStr, args, err := builder.BuildUpdate("users", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
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

func (r *UserRepo) Delete(ctx context.Context, userID string) error {
	sqlStr, args, err := builder.BuildDelete("users", map[string]interface{}{"id": userID})
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

func scanUser(rows *sql.Rows) (*model.User, error) {
	var user model.User
	var role string
	var reviewIDs string
	if err := rows.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Name, &role, &user.ReviewCount, &reviewIDs, &user.Ctime, &user.Mtime); err != nil {
		return nil, err
	}
	user.Role = model.ParseRole(role)
	if err := json.Unmarshal([]byte(reviewIDs), &user.ReviewIDs); err != nil {
		return nil, err
	}
	return &user, nil
}

func encodeReviewIDs(ids []string) (string, error) {
	if ids == nil {
		ids = []string{}
	}
	encoded, err := json.Marshal(ids)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}
