package authcore

import "time"

// lockoutPolicy is the pure failed-credential policy. It never touches the
// directory itself; the engine reads counters off an [Account], runs them
// through the policy, and writes the result back with SaveLockout.
type lockoutPolicy struct {
	maxFailed int
	duration  time.Duration
}

// isLockedOut reports whether the account is locked at the given instant.
func (p lockoutPolicy) isLockedOut(acct *Account, now time.Time) bool {
	return acct.LockoutEnd != nil && acct.LockoutEnd.After(now)
}

// recordFailure advances the failure counter and returns the state the
// directory should persist. Crossing the threshold resets the counter to
// zero and sets a lockout window, so a lockout that lapses starts the next
// round of attempts from a clean count.
func (p lockoutPolicy) recordFailure(acct *Account, now time.Time) (failedCount int, lockoutEnd *time.Time, tripped bool) {
	failedCount = acct.FailedAccessCount + 1
	if failedCount >= p.maxFailed {
		end := now.Add(p.duration)
		return 0, &end, true
	}
	return failedCount, acct.LockoutEnd, false
}

// recordSuccess returns the cleared state persisted after a successful
// credential check.
func (p lockoutPolicy) recordSuccess() (failedCount int, lockoutEnd *time.Time) {
	return 0, nil
}
