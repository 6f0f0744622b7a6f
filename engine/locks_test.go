package engine

import (
	"sync"
	"testing"
	"time"
)

func TestUserLocksSerializesPerUser(t *testing.T) {
	locks := NewUserLocks()

	var mu sync.Mutex
	counts := map[string]int{}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		for _, user := range []string{"U1", "U2"} {
			wg.Add(1)
			go func(user string) {
				defer wg.Done()
				unlock := locks.Lock(user)
				defer unlock()

				mu.Lock()
				counts[user]++
				mu.Unlock()
			}(user)
		}
	}
	wg.Wait()

	if counts["U1"] != 50 || counts["U2"] != 50 {
		t.Errorf("counts = %v, want 50 per user", counts)
	}
}

func TestUserLocksIndependentUsers(t *testing.T) {
	locks := NewUserLocks()

	unlockA := locks.Lock("UA")
	defer unlockA()

	// A held lock on one user must not block another user.
	done := make(chan struct{})
	go func() {
		unlockB := locks.Lock("UB")
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on UB blocked while UA was held")
	}
}

func TestGlobalLocksSingleton(t *testing.T) {
	if GlobalLocks() != GlobalLocks() {
		t.Error("GlobalLocks() returned different instances")
	}
}
