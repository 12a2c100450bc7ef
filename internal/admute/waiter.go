package admute

import (
	"sync"
	"time"
)

// Waiter blocks a goroutine for a bounded time or until another goroutine calls Notify.
//
// A notification is sticky: Notify sets a flag that the next wake consumes, so a
// notification sent before Wait starts still makes that Wait return immediately.
// The embedded mutex also guards the poller's session fields; never hold it while waiting.
type Waiter struct {
	sync.Mutex
	notified bool
	wake     chan struct{}
}

// NewWaiter creates a Waiter with no pending notification.
func NewWaiter() *Waiter {
	return &Waiter{wake: make(chan struct{}, 1)}
}

// Wait blocks for up to d. It reports true when it was woken by Notify and false on timeout.
// A non-positive d only checks for a pending notification.
func (w *Waiter) Wait(d time.Duration) bool {
	if w.consume() {
		return true
	}
	if d <= 0 {
		return false
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-w.wake:
	case <-timer.C:
	}
	return w.consume()
}

// AwaitReply blocks until a value arrives on reply or Notify is called, without a timeout.
// interrupted is true when Notify won; answer is then false.
func (w *Waiter) AwaitReply(reply <-chan bool) (answer bool, interrupted bool) {
	if w.consume() {
		return false, true
	}

	select {
	case answer = <-reply:
		return answer, false
	case <-w.wake:
		w.consume()
		return false, true
	}
}

// Notify wakes the current or next Wait/AwaitReply call.
func (w *Waiter) Notify() {
	w.Lock()
	defer w.Unlock()

	w.notified = true
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Reset drops a pending notification nobody consumed.
func (w *Waiter) Reset() {
	w.consume()
}

// consume clears and returns the notified flag, draining the wake token with it.
func (w *Waiter) consume() bool {
	w.Lock()
	defer w.Unlock()

	notified := w.notified
	w.notified = false
	select {
	case <-w.wake:
	default:
	}
	return notified
}
