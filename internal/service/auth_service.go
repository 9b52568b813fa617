package service

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/mornview/reviewd/internal/model"
	appErr "github.com/mornview/reviewd/internal/pkg/errors"
	"github.com/mornview/reviewd/internal/pkg/jwt"
	"github.com/mornview/reviewd/internal/pkg/password"
	"github.com/mornview/reviewd/internal/pkg/timeutil"
	"github.com/mornview/reviewd/internal/repo"
)

type AuthService struct {
	db        *sql.DB
	users     *repo.UserRepo
	reviews   *repo.ReviewRepo
	cache     *UserCache
	jwtSecret []byte
	jwtTTL    time.Duration
}

func NewAuthService(db *sql.DB, users *repo.UserRepo, reviews *repo.ReviewRepo, cache *UserCache, secret []byte, ttl time.Duration) *AuthService {
	return &AuthService{db: db, users: users, reviews: reviews, cache: cache, jwtSecret: secret, jwtTTL: ttl}
}

type SignupInput struct {
	Email    string
	Name     string
	Password string
	IsAdmin  bool
}

func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*model.User, error) {
	now := timeutil.NowUnix()
	hash, err := password.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	role := model.RoleStandard
	if in.IsAdmin {
		role = model.RoleAdmin
	}
	user := &model.User{
		ID:           newID(),
		Email:        normalizeEmail(in.Email),
		PasswordHash: hash,
		Name:         in.Name,
		Role:         role,
		ReviewIDs:    []string{},
		Ctime:        now,
		Mtime:        now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if appErr.IsConflict(err) {
			return nil, appErr.WithMessage(appErr.ErrConflict, "e-mail address already exists")
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, plainPassword string) (*model.User, string, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if appErr.IsNotFound(err) {
			return nil, "", appErr.WithMessage(appErr.ErrUnauthorized, "user not found")
		}
		return nil, "", err
	}
	if err := password.Compare(user.PasswordHash, plainPassword); err != nil {
		return nil, "", appErr.WithMessage(appErr.ErrUnauthorized, "wrong password")
	}
	token, err := jwt.GenerateToken(user, s.jwtSecret, s.jwtTTL)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// ResolveUser satisfies middleware.SubjectResolver. Lookups go through the
// cache; misses fall back to the store and refill it.
func (s *AuthService) ResolveUser(ctx context.Context, userID string) (*model.User, error) {
	if user, ok := s.cache.Get(userID); ok {
		return user, nil
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.cache.Put(user)
	return user, nil
}

func (s *AuthService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	return s.ResolveUser(ctx, userID)
}

type UserUpdateInput struct {
	Email    string
	Name     string
	Password string
	IsAdmin  bool
}

func (s *AuthService) UpdateUser(ctx context.Context, userID string, in UserUpdateInput) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	hash, err := password.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	user.Email = normalizeEmail(in.Email)
	user.Name = in.Name
	user.PasswordHash = hash
	user.Role = model.RoleStandard
	if in.IsAdmin {
		user.Role = model.RoleAdmin
	}
	user.Mtime = timeutil.NowUnix()
	if err := s.users.UpdateProfile(ctx, user); err != nil {
		if appErr.IsConflict(err) {
			return nil, appErr.WithMessage(appErr.ErrConflict, "e-mail address already exists")
		}
		return nil, err
	}
	s.cache.Invalidate(userID)
	return user, nil
}

// DeleteUser removes the user together with all their reviews in one
// transaction, so no review row can outlive its owner.
func (s *AuthService) DeleteUser(ctx context.Context, userID string) error {
	err := repo.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		users := s.users.WithTx(tx)
		reviews := s.reviews.WithTx(tx)
		if _, err := users.GetByIDForUpdate(ctx, userID); err != nil {
			if appErr.IsNotFound(err) {
				return appErr.WithMessage(appErr.ErrNotFound, "user not found")
			}
			return err
		}
		if err := reviews.DeleteByUser(ctx, userID); err != nil {
			return err
		}
		return users.Delete(ctx, userID)
	})
	if err != nil {
		return err
	}
	s.cache.Invalidate(userID)
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
