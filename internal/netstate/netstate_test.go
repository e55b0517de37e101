package netstate

import (
	"sync"
	"testing"
)

func TestSetEnabled(t *testing.T) {
	SetEnabled(false)
	if Enabled() {
		t.Error("Enabled() = true after SetEnabled(false)")
	}

	SetEnabled(true)
	if !Enabled() {
		t.Error("Enabled() = false after SetEnabled(true)")
	}

	SetEnabled(false)
	if Enabled() {
		t.Error("Enabled() = true after SetEnabled(false)")
	}
}

func TestConcurrentAccess(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(v bool) {
			defer wg.Done()
			SetEnabled(v)
		}(i%2 == 0)
		go func() {
			defer wg.Done()
			_ = Enabled()
		}()
	}
	wg.Wait()
}
