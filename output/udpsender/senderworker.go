package udpsender

import (
	"sync"
	"sync/atomic"

	"github.com/relex/gotils/channels"
	"github.com/relex/gotils/logger"
	"github.com/relex/udpsender/base"
	"github.com/relex/udpsender/defs"
)

// senderWorker is the single consumer of the datagram queue
//
// It waits until an active channel is attached, then keeps polling the queue and writing datagrams to the channel.
// When the channel turns inactive, it goes back to waiting. A datagram taken from the queue while the channel was
// going down is kept and sent first on the next channel.
type senderWorker struct {
	logger      logger.Logger
	queue       *datagramQueue
	metrics     *outputMetrics
	lock        sync.Mutex
	connected   *sync.Cond // signaled on channel attachment and stop, guarded by lock
	channel     transportChannel
	keepRunning atomic.Bool
	launchOnce  sync.Once
	stopped     *channels.SignalAwaitable
}

func newSenderWorker(parentLogger logger.Logger, queue *datagramQueue, metrics *outputMetrics) *senderWorker {
	worker := &senderWorker{
		logger:  parentLogger.WithField(defs.LabelPart, "sender"),
		queue:   queue,
		metrics: metrics,
		channel: nil,
		stopped: channels.NewSignalAwaitable(),
	}
	worker.connected = sync.NewCond(&worker.lock)
	worker.keepRunning.Store(true)
	return worker
}

// Attach hands a newly-active channel to the worker, launching the worker on first call
func (worker *senderWorker) Attach(channel transportChannel) {
	worker.lock.Lock()
	worker.channel = channel
	worker.connected.Broadcast()
	worker.lock.Unlock()

	worker.launchOnce.Do(func() {
		go worker.run()
	})
}

// Stop requests the worker to exit. The returned Awaitable is signaled when it's done.
func (worker *senderWorker) Stop() channels.Awaitable {
	worker.keepRunning.Store(false)

	worker.lock.Lock()
	worker.connected.Broadcast()
	worker.lock.Unlock()

	// never launched: nothing to wait for
	worker.launchOnce.Do(worker.stopped.Signal)
	return worker.stopped
}

// Stopped returns an Awaitable which is signaled when the worker ends
func (worker *senderWorker) Stopped() channels.Awaitable {
	return worker.stopped
}

func (worker *senderWorker) run() {
	defer worker.stopped.Signal()
	worker.logger.Info("started")

	var lingering *base.Datagram
	for worker.keepRunning.Load() {
		channel := worker.awaitChannel()
		if channel == nil {
			break
		}
		if lingering == nil {
			if datagram, ok := worker.queue.Poll(defs.SenderPollInterval); ok {
				lingering = &datagram
			}
		}
		// if the channel went down after polling, keep the datagram for the next channel
		if lingering != nil && channel.IsActive() {
			worker.send(channel, *lingering)
			lingering = nil
		}
	}

	if lingering != nil {
		worker.logger.Infof("discard lingering datagram on shutdown: %s", lingering.String())
		worker.metrics.OnDropped(1)
	}
	worker.logger.Info("stopped")
}

// awaitChannel blocks until the attached channel is active or stop is requested, in which case nil is returned
func (worker *senderWorker) awaitChannel() transportChannel {
	worker.lock.Lock()
	defer worker.lock.Unlock()
	for worker.channel == nil || !worker.channel.IsActive() {
		if !worker.keepRunning.Load() {
			return nil
		}
		worker.connected.Wait()
	}
	if !worker.keepRunning.Load() {
		return nil
	}
	return worker.channel
}

func (worker *senderWorker) send(channel transportChannel, datagram base.Datagram) {
	worker.metrics.OnForwarding(datagram)
	channel.Write(datagram.Payload, func(err error) {
		if err != nil {
			worker.logger.Errorf("write failed: %s, %s", datagram.String(), err.Error())
			worker.metrics.OnError(err)
			return
		}
		worker.logger.Debugf("write success: %s", datagram.String())
		worker.metrics.OnForwarded(datagram)
	})
}
