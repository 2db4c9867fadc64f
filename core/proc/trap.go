package proc

import (
	"os"
	"os/signal"
	"syscall"
)

// SignalQueue records signals delivered to the shell until the dispatcher
// gets around to running their traps. The runtime's handler only enqueues,
// trap actions run from ordinary shell code.
type SignalQueue struct {
	ch chan os.Signal
}

// NewSignalQueue creates a queue that buffers up to size signals. Signals
// arriving while the buffer is full are dropped, like a flag that is
// already set.
func NewSignalQueue(size int) *SignalQueue {
	if size < 1 {
		size = 1
	}
	return &SignalQueue{ch: make(chan os.Signal, size)}
}

// Catch starts queueing sig instead of applying its default action.
func (q *SignalQueue) Catch(sig syscall.Signal) {
	signal.Notify(q.ch, sig)
}

// Ignore discards sig entirely.
func (q *SignalQueue) Ignore(sig syscall.Signal) {
	signal.Ignore(sig)
}

// Default restores the default action of sig.
func (q *SignalQueue) Default(sig syscall.Signal) {
	signal.Reset(sig)
}

// Raise queues sig as if it had been delivered, reporting false if the queue
// was full.
func (q *SignalQueue) Raise(sig syscall.Signal) bool {
	select {
	case q.ch <- sig:
		return true
	default:
		return false
	}
}

// C exposes the queue for callers that need to block on delivery.
func (q *SignalQueue) C() <-chan os.Signal {
	return q.ch
}

// Pending drains the queue without blocking, returning signals in arrival
// order.
func (q *SignalQueue) Pending() []syscall.Signal {
	var out []syscall.Signal
	for {
		select {
		case sig := <-q.ch:
			if s, ok := sig.(syscall.Signal); ok {
				out = append(out, s)
			}
		default:
			return out
		}
	}
}

// Stop stops delivery of every caught signal to the queue.
func (q *SignalQueue) Stop() {
	signal.Stop(q.ch)
}
