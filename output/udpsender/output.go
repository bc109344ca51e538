// Package udpsender provides an output which projects log records onto configured fields and sends each of them as
// a delimited text line in one UDP datagram
package udpsender

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/relex/gotils/channels"
	"github.com/relex/gotils/logger"
	"github.com/relex/udpsender/base"
	"github.com/relex/udpsender/defs"
	"github.com/relex/udpsender/util"
)

// Output forwards log records to a remote collector via UDP
//
// Write may be called concurrently. The transport is opened on the first write, and records are queued until the
// sender can write them. Transport errors are logged and never returned to writers.
type Output struct {
	logger      logger.Logger
	config      Config
	address     string
	formatter   *Formatter
	metrics     *outputMetrics
	stopRequest *channels.SignalAwaitable
	queue       *datagramQueue
	loop        *eventLoop
	worker      *senderWorker
	reconnector *reconnector // accessed on loop only
	channel     atomic.Pointer[udpChannel] // set on loop only
	dial        DialFunc
	initOnce    sync.Once
	stopOnce    sync.Once
	running     atomic.Bool
}

// NewOutput verifies the configuration and creates an Output
//
// Returns an error wrapping ErrConfigInvalid if the configuration is incomplete
func NewOutput(parentLogger logger.Logger, config Config, metricFactory *base.MetricFactory) (*Output, error) {
	return newOutput(parentLogger, config, metricFactory, defaultDial)
}

func newOutput(parentLogger logger.Logger, config Config, metricFactory *base.MetricFactory, dial DialFunc) (*Output, error) {
	if err := config.VerifyConfig(); err != nil {
		return nil, err
	}

	address := net.JoinHostPort(config.Host, strconv.Itoa(config.Port))
	ologger := parentLogger.WithFields(logger.Fields{
		defs.LabelComponent: "UDPOutput",
		defs.LabelRemote:    address,
	})
	metrics := newOutputMetrics(metricFactory)
	stopRequest := channels.NewSignalAwaitable()
	queue := newDatagramQueue(defs.OutputQueueCapacity, stopRequest, metrics)

	output := &Output{
		logger:      ologger,
		config:      config,
		address:     address,
		formatter:   NewFormatter(config.Params, config.Separator, config.Host, config.Port),
		metrics:     metrics,
		stopRequest: stopRequest,
		queue:       queue,
		loop:        newEventLoop(ologger),
		worker:      newSenderWorker(ologger, queue, metrics),
		dial:        dial,
	}
	output.reconnector = newReconnector(ologger, output.loop, defs.ReconnectDelay, defs.MaxReconnectAttempts,
		output.createChannel, metrics)
	output.running.Store(true)

	ologger.Infof("created with fields [%s]", joinFieldNames(output.formatter.FieldNames()))
	return output, nil
}

// Write formats the record and queues it for sending
//
// Empty records are ignored. The call blocks while the queue is full, and returns ErrOutputStopped if the output is
// stopped before the record can be queued.
func (output *Output) Write(record *base.LogRecord) error {
	if record.IsEmpty() {
		return nil
	}
	output.initOnce.Do(output.initialize)

	datagram := output.formatter.Format(record)
	output.logger.Debugf("queue line: %q", datagram.Payload)
	return output.queue.Offer(datagram)
}

// WriteBatch writes the records in order
//
// A failed record does not prevent the rest from being written. The first error is returned at the end.
func (output *Output) WriteBatch(records []*base.LogRecord) error {
	var firstErr error
	for _, record := range records {
		if err := output.Write(record); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Stop shuts down the sender and transport. Datagrams still queued are discarded.
//
// No datagram is sent after Stop returns.
func (output *Output) Stop() {
	output.stopOnce.Do(func() {
		output.logger.Info("stopping")
		output.running.Store(false)
		output.stopRequest.Signal()

		if !output.worker.Stop().Wait(defs.SenderStopTimeout) {
			output.logger.Error("BUG: timeout waiting for sender to stop")
		}
		if !output.loop.ShutdownGracefully().Wait(defs.EventLoopShutdownTimeout) {
			output.logger.Error("BUG: timeout waiting for event loop to stop")
		}
		if channel := output.channel.Load(); channel != nil {
			channel.Close()
		}

		if discarded := output.queue.Discard(); discarded > 0 {
			output.logger.Warnf("discarded queued datagrams=%d", discarded)
			output.metrics.OnDropped(discarded)
		}
		output.logger.Info("stopped")
	})
}

// IsRunning returns true until Stop is called
func (output *Output) IsRunning() bool {
	return output.running.Load()
}

// DroppedCount returns the numbers of datagrams discarded without sending on Stop, including one taken by the
// sender but not yet written
func (output *Output) DroppedCount() int {
	return int(util.SumMetricValues(output.metrics.droppedCountTotal))
}

// QueuedCount returns the numbers of datagrams waiting to be sent
func (output *Output) QueuedCount() int {
	return output.queue.Len()
}

func (output *Output) String() string {
	return fmt.Sprintf("UDPOutput(%s)", output.config.String())
}

// initialize opens the first channel
func (output *Output) initialize() {
	output.logger.Info("initializing")
	if !output.loop.Execute(output.createChannel) {
		output.logger.Warn("initialization skipped: event loop is shut down")
	}
}

// createChannel opens a new channel to replace the previous one. It runs on the event loop.
func (output *Output) createChannel() {
	channel, err := openUDPChannel(output.logger, output.loop, output.dial, output.address, output.metrics,
		output.onChannelActive, output.onChannelInactive)
	if err != nil {
		output.logger.Errorf("connection failed: %s", err.Error())
		output.metrics.OnError(err)
		output.reconnector.Schedule()
		return
	}
	output.logger.Info("connected")
	output.channel.Store(channel)
}

func (output *Output) onChannelActive(channel *udpChannel) {
	output.worker.Attach(channel)
}

func (output *Output) onChannelInactive() {
	output.logger.Info("channel disconnected")
	output.reconnector.Schedule()
}

func joinFieldNames(names []string) string {
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = strconv.Quote(name)
	}
	return strings.Join(quoted, ", ")
}
