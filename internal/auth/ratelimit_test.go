package auth

import (
	"testing"
	"time"

	"github.com/mrlokans/librarian/internal/config"
)

func newTestRateLimiter(t *testing.T, now *time.Time) *RateLimiter {
	t.Helper()
	rl := NewRateLimiter(config.Auth{
		MaxLoginAttempts: 2,
		RateLimitWindow:  time.Minute,
		LockoutDuration:  5 * time.Minute,
	})
	rl.now = func() time.Time { return *now }
	t.Cleanup(rl.Stop)
	return rl
}

func TestRateLimiter_LocksAfterMaxAttempts(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	rl := newTestRateLimiter(t, &now)

	if allowed, _ := rl.Allow("1.2.3.4", "admin"); !allowed {
		t.Fatal("first attempt should be allowed")
	}
	if locked, _ := rl.RecordFailure("1.2.3.4", "admin"); locked {
		t.Fatal("one failure should not lock")
	}
	if locked, retry := rl.RecordFailure("1.2.3.4", "admin"); !locked || retry != 5*time.Minute {
		t.Fatalf("second failure: locked=%v retry=%v", locked, retry)
	}

	if allowed, _ := rl.Allow("1.2.3.4", "admin"); allowed {
		t.Error("locked key should not be allowed")
	}
	if allowed, _ := rl.Allow("1.2.3.4", "other"); !allowed {
		t.Error("a different username should not be affected")
	}

	now = now.Add(6 * time.Minute)
	if allowed, _ := rl.Allow("1.2.3.4", "admin"); !allowed {
		t.Error("attempts should be allowed once the lockout expires")
	}
}

func TestRateLimiter_SuccessClearsFailures(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	rl := newTestRateLimiter(t, &now)

	rl.RecordFailure("1.2.3.4", "admin")
	rl.RecordSuccess("1.2.3.4", "admin")

	if locked, _ := rl.RecordFailure("1.2.3.4", "admin"); locked {
		t.Error("failure count should restart after a successful login")
	}
}

func TestRateLimiter_Cleanup(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	rl := newTestRateLimiter(t, &now)

	rl.RecordFailure("1.2.3.4", "admin")
	now = now.Add(time.Hour)
	rl.cleanup()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if len(rl.attempts) != 0 {
		t.Errorf("expected expired records to be removed, %d left", len(rl.attempts))
	}
}
