// Package sync provides synchronization primitives suitable for use before
// (and after) the Go scheduler exists: a busy-wait spinlock used to guard
// the heap, the PIC command registers and the console.
package sync

import "sync/atomic"

// Spinlock implements a lock where the caller busy-waits until the lock
// becomes available. Unlike sync.Mutex, acquiring a Spinlock never
// blocks on anything the scheduler understands, which makes it the only
// lock that is safe to use before goroutine scheduling (or, in this
// kernel, any scheduling at all) is available.
//
// Re-acquiring a lock already held by the current caller deadlocks.
type Spinlock struct {
	state uint32
}

// Acquire blocks until the lock can be acquired.
func (l *Spinlock) Acquire() {
	for !l.TryAcquire() {
	}
}

// TryAcquire attempts to acquire the lock and returns true if it
// succeeded or false if the lock was already held.
func (l *Spinlock) TryAcquire() bool {
	return atomic.SwapUint32(&l.state, 1) == 0
}

// Release relinquishes a held lock. Calling Release while the lock is
// free has no effect.
func (l *Spinlock) Release() {
	atomic.StoreUint32(&l.state, 0)
}
