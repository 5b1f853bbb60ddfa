package orchestrators

import (
	"sync"
	"testing"
)

func TestTenantLocksSerializeSameTenant(t *testing.T) {
	locks := NewTenantLocks()
	counter := 0
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			locks.Lock("ten-1")
			counter++
			locks.Unlock("ten-1")
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Errorf("counter = %d, want 50", counter)
	}
}

func TestTenantLocksIndependentTenants(t *testing.T) {
	locks := NewTenantLocks()

	locks.Lock("ten-1")
	done := make(chan struct{})
	go func() {
		// Must not block on a different tenant's lock
		locks.Lock("ten-2")
		locks.Unlock("ten-2")
		close(done)
	}()
	<-done
	locks.Unlock("ten-1")
}
