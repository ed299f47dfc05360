package users

import "time"

const (
	lockoutThreshold = 5  // failures before a lock is applied
	lockoutMaxShift  = 6  // 2^6 = 64 minutes before capping
	lockoutCapMins   = 60 // hard ceiling on lock duration
)

// NextLockout computes the failed-login counter and lock expiry after one
// more failed attempt. The lock duration doubles with every failure,
// min(2^min(newCount, 6), 60) minutes, and only applies once the new count
// reaches the threshold; below it the returned expiry is nil.
func NextLockout(failedBefore int, now time.Time) (int, *time.Time) {
	next := failedBefore + 1

	shift := next
	if shift > lockoutMaxShift {
		shift = lockoutMaxShift
	}
	minutes := 1 << shift
	if minutes > lockoutCapMins {
		minutes = lockoutCapMins
	}

	if next < lockoutThreshold {
		return next, nil
	}
	lockUntil := now.Add(time.Duration(minutes) * time.Minute)
	return next, &lockUntil
}
