package service

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
)

// TripLocks serializes every mutation of a trip: chat turns, reconciles,
// item edits and deletes. One TripLocks must be shared by all services that
// write the same mirror.
//
// An entry lives while anyone holds or waits for it, so a trip deleted and
// recreated under the same name while a turn is still queued keeps one lock.
type TripLocks struct {
	mu    sync.Mutex
	locks map[string]*tripLock
}

type tripLock struct {
	sem  *semaphore.Weighted
	refs int // holders plus waiters
}

// NewTripLocks returns an empty TripLocks.
func NewTripLocks() *TripLocks {
	return &TripLocks{locks: make(map[string]*tripLock)}
}

// Acquire waits until the caller owns tripName. The returned func releases
// it and is safe to call more than once.
func (l *TripLocks) Acquire(ctx context.Context, tripName string) (func(), error) {
	l.mu.Lock()
	tl, ok := l.locks[tripName]
	if !ok {
		tl = &tripLock{sem: semaphore.NewWeighted(1)}
		l.locks[tripName] = tl
	}
	tl.refs++
	l.mu.Unlock()

	if err := tl.sem.Acquire(ctx, 1); err != nil {
		l.unref(tripName, tl)
		return nil, fmt.Errorf("waiting for trip %q: %w", tripName, err)
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			tl.sem.Release(1)
			l.unref(tripName, tl)
		})
	}, nil
}

// Pending reports how many callers hold or wait for tripName.
func (l *TripLocks) Pending(tripName string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if tl, ok := l.locks[tripName]; ok {
		return tl.refs
	}
	return 0
}

func (l *TripLocks) unref(tripName string, tl *tripLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	tl.refs--
	if tl.refs == 0 && l.locks[tripName] == tl {
		delete(l.locks, tripName)
	}
}

func orNewLocks(l *TripLocks) *TripLocks {
	if l == nil {
		return NewTripLocks()
	}
	return l
}
