package udpsender

import (
	"sync"
	"time"

	"github.com/relex/gotils/channels"
	"github.com/relex/gotils/logger"
	"github.com/relex/udpsender/defs"
	"github.com/relex/udpsender/util"
)

// eventLoop runs submitted tasks one by one on its own goroutine, in submission order
//
// Channel callbacks, asynchronous writes and delayed reconnect tasks of an output all run here, so state touched only
// by tasks needs no further locking.
type eventLoop struct {
	logger     logger.Logger
	tasks      chan func()
	lock       sync.Mutex
	timers     map[*time.Timer]struct{} // pending delayed tasks, guarded by lock
	shutdown   bool                     // guarded by lock
	quit       *channels.SignalAwaitable
	terminated *channels.SignalAwaitable
}

func newEventLoop(parentLogger logger.Logger) *eventLoop {
	loop := &eventLoop{
		logger:     parentLogger.WithField(defs.LabelPart, "eventloop"),
		tasks:      make(chan func(), defs.EventLoopTaskBacklog),
		lock:       sync.Mutex{},
		timers:     make(map[*time.Timer]struct{}),
		shutdown:   false,
		quit:       channels.NewSignalAwaitable(),
		terminated: channels.NewSignalAwaitable(),
	}
	go loop.run()
	return loop
}

// Execute submits a task to be run as soon as possible
//
// Returns false if the loop is shutting down and the task is rejected
func (loop *eventLoop) Execute(task func()) bool {
	loop.lock.Lock()
	isShutdown := loop.shutdown
	loop.lock.Unlock()
	if isShutdown {
		return false
	}
	select {
	case loop.tasks <- task:
		return true
	case <-loop.quit.Channel():
		return false
	}
}

// Schedule submits a task to be run after the delay
//
// Returns false if the loop is shutting down and the task is rejected. Pending tasks are cancelled by shutdown.
func (loop *eventLoop) Schedule(delay time.Duration, task func()) bool {
	loop.lock.Lock()
	defer loop.lock.Unlock()
	if loop.shutdown {
		return false
	}
	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		loop.lock.Lock()
		_, pending := loop.timers[timer]
		delete(loop.timers, timer)
		loop.lock.Unlock()
		if pending {
			loop.Execute(task)
		}
	})
	loop.timers[timer] = struct{}{}
	return true
}

// ShutdownGracefully cancels delayed tasks, rejects new tasks and lets the loop finish tasks already submitted
//
// The returned Awaitable is signaled when the loop goroutine ends
func (loop *eventLoop) ShutdownGracefully() channels.Awaitable {
	loop.lock.Lock()
	if !loop.shutdown {
		loop.shutdown = true
		cancelled := 0
		for timer := range loop.timers {
			if timer.Stop() {
				cancelled++
			}
			delete(loop.timers, timer)
		}
		loop.logger.Infof("shutting down with cancelled delayed tasks=%d", cancelled)
	}
	loop.lock.Unlock()
	loop.quit.Signal()
	return loop.terminated
}

// Terminated returns an Awaitable which is signaled when the loop goroutine ends
func (loop *eventLoop) Terminated() channels.Awaitable {
	return loop.terminated
}

func (loop *eventLoop) run() {
	defer loop.terminated.Signal()
	for {
		select {
		case task := <-loop.tasks:
			loop.runTask(task)
		case <-loop.quit.Channel():
			loop.drain()
			loop.logger.Info("stopped")
			return
		}
	}
}

func (loop *eventLoop) drain() {
	for {
		select {
		case task := <-loop.tasks:
			loop.runTask(task)
		default:
			return
		}
	}
}

func (loop *eventLoop) runTask(task func()) {
	defer func() {
		if r := recover(); r != nil {
			loop.logger.Errorf("BUG: task panicked: %v\n%s", r, util.Stack())
		}
	}()
	task()
}
