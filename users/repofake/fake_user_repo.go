package fakeuserrepo

import (
	"context"
	"sync"
	"time"

	"github.com/authcore/auth-service/users"
)

var _ users.Repo = (*FakeUserRepo)(nil)

// FakeUserRepo is an in-memory users.Repo with the same conditional-insert
// and partial-update semantics as the real store.
type FakeUserRepo struct {
	users   map[string]*users.User
	lock    sync.RWMutex
	NowTime func() time.Time // injectable for lockout tests
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		users:   make(map[string]*users.User),
		NowTime: time.Now,
	}
}

func (ur *FakeUserRepo) Get(_ context.Context, email string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	user, ok := ur.users[email]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (ur *FakeUserRepo) Create(_ context.Context, user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if _, exists := ur.users[user.Email]; exists {
		return users.ErrUserExists
	}
	copied := *user
	ur.users[user.Email] = &copied
	return nil
}

func (ur *FakeUserRepo) UpdateLoginMeta(_ context.Context, email string, meta users.LoginMeta) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	user, ok := ur.users[email]
	if !ok {
		return nil
	}
	if meta.LastLoginAt != nil {
		user.LastLoginAt = meta.LastLoginAt
	}
	if meta.FailedLoginCount != nil {
		user.FailedLoginCount = *meta.FailedLoginCount
	}
	if meta.LockUntil != nil {
		user.LockUntil = meta.LockUntil
	} else if meta.ClearLock {
		user.LockUntil = nil
	}
	user.UpdatedAt = ur.NowTime()
	return nil
}

func (ur *FakeUserRepo) RecordFailedAttempt(_ context.Context, email string, currentCount int) (int, error) {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	next, lockUntil := users.NextLockout(currentCount, ur.NowTime())
	if user, ok := ur.users[email]; ok {
		user.FailedLoginCount = next
		user.LockUntil = lockUntil
		user.UpdatedAt = ur.NowTime()
	}
	return next, nil
}
