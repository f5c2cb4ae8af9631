package resilience

import (
	"sync"
	"testing"
)

func TestKeyedLock_TryAcquire(t *testing.T) {
	l := NewKeyedLock()

	if !l.TryAcquire("caller1:proj1") {
		t.Fatal("first acquire should succeed")
	}
	if l.TryAcquire("caller1:proj1") {
		t.Error("second acquire for held key should fail")
	}
	if !l.TryAcquire("caller2:proj1") {
		t.Error("unrelated key should not contend")
	}

	l.Release("caller1:proj1")
	if !l.TryAcquire("caller1:proj1") {
		t.Error("acquire after release should succeed")
	}
}

func TestKeyedLock_ReleaseUnheld(t *testing.T) {
	l := NewKeyedLock()
	l.Release("never-held") // must not panic
	if l.Held("never-held") {
		t.Error("key should not be held")
	}
}

func TestKeyedLock_ConcurrentSingleWinner(t *testing.T) {
	l := NewKeyedLock()

	const goroutines = 50
	var wg sync.WaitGroup
	wins := make(chan struct{}, goroutines)

	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.TryAcquire("contended") {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	n := 0
	for range wins {
		n++
	}
	if n != 1 {
		t.Errorf("expected exactly one winner, got %d", n)
	}
}
