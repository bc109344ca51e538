package udpsender

import (
	"time"

	"github.com/relex/gotils/logger"
	"github.com/relex/udpsender/defs"
)

// reconnector schedules creation of new channels after failures, up to a total number of attempts
//
// All methods must be called on the event loop. The attempt counter covers the whole lifetime of the output and is
// never reset, even after a successful reconnection.
type reconnector struct {
	logger      logger.Logger
	loop        *eventLoop
	delay       time.Duration
	maxAttempts int
	attempts    int
	pending     bool // whether an attempt is already scheduled
	connect     func()
	metrics     *outputMetrics
}

func newReconnector(parentLogger logger.Logger, loop *eventLoop, delay time.Duration, maxAttempts int,
	connect func(), metrics *outputMetrics) *reconnector {

	return &reconnector{
		logger:      parentLogger.WithField(defs.LabelPart, "reconnector"),
		loop:        loop,
		delay:       delay,
		maxAttempts: maxAttempts,
		attempts:    0,
		pending:     false,
		connect:     connect,
		metrics:     metrics,
	}
}

// Schedule arranges a reconnect attempt after the delay, unless attempts are used up
func (rc *reconnector) Schedule() {
	if rc.attempts >= rc.maxAttempts {
		rc.logger.Errorf("reconnect over %d times, stop!", rc.maxAttempts)
		rc.metrics.OnReconnectExhausted()
		return
	}
	if rc.pending {
		rc.logger.Debug("reconnect already scheduled")
		return
	}
	if !rc.loop.Schedule(rc.delay, rc.attempt) {
		rc.logger.Info("reconnect not scheduled: shutting down")
		return
	}
	rc.pending = true
	rc.logger.Infof("reconnect scheduled in %s", rc.delay)
}

// Attempts returns the numbers of attempts made so far
func (rc *reconnector) Attempts() int {
	return rc.attempts
}

func (rc *reconnector) attempt() {
	rc.pending = false
	rc.attempts++
	if rc.attempts > rc.maxAttempts {
		rc.logger.Errorf("reconnect over %d times, stop!", rc.maxAttempts)
		rc.metrics.OnReconnectExhausted()
		return
	}
	rc.metrics.OnReconnecting()
	rc.logger.WithField(defs.LabelAttempt, rc.attempts).Info("starting reconnect")
	rc.connect()
}
