package fakechecker

import (
	"context"
	"sync"

	"github.com/authcore/auth-service/policy"
)

var _ policy.Checker = (*FakeChecker)(nil)

// FakeChecker returns a configured verdict and records the passwords it saw.
type FakeChecker struct {
	Result policy.Result
	Err    error

	mu        sync.Mutex
	passwords []string
}

func NewFakeChecker() *FakeChecker {
	return &FakeChecker{Result: policy.Result{OK: true}}
}

func (fc *FakeChecker) Check(_ context.Context, password string) (*policy.Result, error) {
	fc.mu.Lock()
	fc.passwords = append(fc.passwords, password)
	fc.mu.Unlock()

	if fc.Err != nil {
		return nil, fc.Err
	}
	result := fc.Result
	return &result, nil
}

func (fc *FakeChecker) Passwords() []string {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return append([]string(nil), fc.passwords...)
}
