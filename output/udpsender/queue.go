package udpsender

import (
	"errors"
	"time"

	"github.com/relex/gotils/channels"
	"github.com/relex/udpsender/base"
)

// ErrOutputStopped is returned when a write is interrupted or rejected because the output has been stopped
var ErrOutputStopped = errors.New("output stopped")

// datagramQueue is the bounded FIFO between producers and the sender
//
// Offer blocks while the queue is full. Both sides are released by the stop request.
type datagramQueue struct {
	items       chan base.Datagram
	stopRequest channels.Awaitable
	onOffered   func(datagram base.Datagram)
	onPolled    func(datagram base.Datagram)
}

func newDatagramQueue(capacity int, stopRequest channels.Awaitable, metrics *outputMetrics) *datagramQueue {
	return &datagramQueue{
		items:       make(chan base.Datagram, capacity),
		stopRequest: stopRequest,
		onOffered:   metrics.OnQueued,
		onPolled:    metrics.OnDequeued,
	}
}

// Offer appends the datagram, waiting for free space if needed
//
// Returns ErrOutputStopped if stop is requested before or during the wait
func (queue *datagramQueue) Offer(datagram base.Datagram) error {
	if queue.stopRequest.Peek() {
		return ErrOutputStopped
	}
	select {
	case queue.items <- datagram:
		queue.onOffered(datagram)
		return nil
	case <-queue.stopRequest.Channel():
		return ErrOutputStopped
	}
}

// Poll takes the oldest datagram, waiting up to the given timeout
//
// Returns false if nothing arrives in time or stop is requested
func (queue *datagramQueue) Poll(timeout time.Duration) (base.Datagram, bool) {
	select {
	case datagram := <-queue.items:
		queue.onPolled(datagram)
		return datagram, true
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case datagram := <-queue.items:
		queue.onPolled(datagram)
		return datagram, true
	case <-timer.C:
		return base.Datagram{}, false
	case <-queue.stopRequest.Channel():
		return base.Datagram{}, false
	}
}

// Len returns the current numbers of queued datagrams
func (queue *datagramQueue) Len() int {
	return len(queue.items)
}

// Cap returns the capacity of the queue
func (queue *datagramQueue) Cap() int {
	return cap(queue.items)
}

// Discard removes all remaining datagrams without waiting and returns how many were removed
func (queue *datagramQueue) Discard() int {
	count := 0
	for {
		select {
		case datagram := <-queue.items:
			queue.onPolled(datagram)
			count++
		default:
			return count
		}
	}
}
