package service

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/mornview/reviewd/internal/model"
)

// UserCache is a small read-through cache in front of user lookups, mainly to
// keep the per-request subject re-confirmation in the auth middleware off the
// database. Every user mutation invalidates the entry; the TTL only bounds
// staleness if an invalidation is missed.
type UserCache struct {
	lru *expirable.LRU[string, model.User]
}

func NewUserCache(size int, ttl time.Duration) *UserCache {
	if size <= 0 || ttl <= 0 {
		return nil
	}
	return &UserCache{lru: expirable.NewLRU[string, model.User](size, nil, ttl)}
}

func (c *UserCache) Get(userID string) (*model.User, bool) {
	if c == nil {
		return nil, false
	}
	user, ok := c.lru.Get(userID)
	if !ok {
		return nil, false
	}
	clone := user
	clone.ReviewIDs = append([]string(nil), user.ReviewIDs...)
	return &clone, true
}

func (c *UserCache) Put(user *model.User) {
	if c == nil || user == nil {
		return
	}
	clone := *user
	clone.ReviewIDs = append([]string(nil), user.ReviewIDs...)
	c.lru.Add(user.ID, clone)
}

func (c *UserCache) Invalidate(userID string) {
	if c == nil {
		return
	}
	c.lru.Remove(userID)
}
