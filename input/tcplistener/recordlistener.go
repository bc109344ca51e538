// Package tcplistener accepts record streams over TCP and feeds them to an output
package tcplistener

import (
	"errors"
	"io"
	"net"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/relex/gotils/channels"
	"github.com/relex/gotils/logger"
	"github.com/relex/udpsender/base"
	"github.com/relex/udpsender/defs"
	"github.com/relex/udpsender/input/recordreader"
	"github.com/relex/udpsender/util"
)

// RecordSink receives decoded records, blocking if the receiver is busy
//
// An error from the sink ends the connection which delivered the record.
type RecordSink func(record *base.LogRecord) error

// TCPRecordListener is a TCP listener for request-only record streams, one goroutine per connection
//
// There is no acknowledgement. Invalid records are logged and skipped if the format allows resuming.
type TCPRecordListener struct {
	logger      logger.Logger
	socket      *net.TCPListener
	format      recordreader.Format
	maxLineSize int
	sink        RecordSink
	stopRequest channels.Awaitable
	taskCounter *sync.WaitGroup    // counter to track connection tasks and the listener task itself
	stopped     channels.Awaitable // signaled when both listener and all child connections have come to stop
	metrics     listenerMetrics
}

type listenerMetrics struct {
	connectionsTotal    prometheus.Counter
	recordsTotal        prometheus.Counter
	invalidRecordsTotal prometheus.Counter
}

// NewTCPRecordListener creates a socket listening on the given TCP address
//
// The given address may use port zero, which would cause the port to be assigned by OS
//
// Returns the listener, actual address including final port, and error if failed
func NewTCPRecordListener(parentLogger logger.Logger, address string, format recordreader.Format, maxLineSize int,
	sink RecordSink, stopRequest channels.Awaitable, metricFactory *base.MetricFactory) (*TCPRecordListener, string, error) {

	socket, err := net.Listen("tcp", address)
	if err != nil {
		return nil, "", err
	}
	boundAddr := socket.Addr().String()

	llogger := parentLogger.WithFields(logger.Fields{
		defs.LabelComponent: "TCPRecordListener",
		defs.LabelAddress:   boundAddr,
	})
	llogger.Infof("start listening for %s", format)

	inputFactory := metricFactory.NewSubFactory("input_", []string{"address"}, []string{address})

	// init taskCounter with 1 for the listener; WaitGroupAwaitable would quit immediately if it's zero
	taskCounter := &sync.WaitGroup{}
	taskCounter.Add(1)

	return &TCPRecordListener{
		logger:      llogger,
		socket:      socket.(*net.TCPListener),
		format:      format,
		maxLineSize: maxLineSize,
		sink:        sink,
		stopRequest: stopRequest,
		taskCounter: taskCounter,
		stopped:     channels.NewWaitGroupAwaitable(taskCounter),
		metrics: listenerMetrics{
			connectionsTotal:    inputFactory.AddOrGetCounter("connections_total", "Numbers of accepted connections", nil, nil),
			recordsTotal:        inputFactory.AddOrGetCounter("records_total", "Numbers of received records", nil, nil),
			invalidRecordsTotal: inputFactory.AddOrGetCounter("invalid_records_total", "Numbers of skipped records", nil, nil),
		},
	}, boundAddr, nil
}

// Start launches the accept loop in background
func (lsnr *TCPRecordListener) Start() {
	go lsnr.run()
}

// Stopped returns an Awaitable which is signaled after the listener and all connections end
func (lsnr *TCPRecordListener) Stopped() channels.Awaitable {
	return lsnr.stopped
}

func (lsnr *TCPRecordListener) run() {
	// background goroutine to wait and close listener on request
	abortListener := channels.NewSignalAwaitable()
	go func() {
		channels.AnyAwaitables(lsnr.stopRequest, abortListener).Next(func() {
			if abortListener.Peek() {
				lsnr.logger.Info("abort listener")
			} else {
				lsnr.logger.Info("close listener on stop request")
			}
		}).WaitForever()
		lsnr.socket.Close()
	}()

	lsnr.logger.Info("start accept loop")
	for {
		conn, err := lsnr.socket.AcceptTCP()
		if err != nil {
			if lsnr.stopRequest.Peek() && util.IsNetworkClosed(err) {
				// closed on stop request
			} else {
				lsnr.logger.Error("accept() error: ", err)
				abortListener.Signal()
			}
			break
		}

		connLogger := lsnr.logger.WithFields(logger.Fields{
			defs.LabelPart:   "connection",
			defs.LabelClient: conn.RemoteAddr().String(),
		})
		connLogger.Info("accepted connection")
		lsnr.metrics.connectionsTotal.Inc()
		lsnr.taskCounter.Add(1)
		go lsnr.runConnection(connLogger, conn)
	}
	lsnr.logger.Info("end accept loop")

	// mark the listener itself as done, note there could still be established connections
	lsnr.taskCounter.Done()
}

func (lsnr *TCPRecordListener) runConnection(connLogger logger.Logger, conn *net.TCPConn) {
	defer lsnr.taskCounter.Done()
	connAborter := lsnr.launchConnectionCloser(connLogger, conn)
	defer connAborter.Signal()

	if err := conn.SetKeepAlive(true); err != nil {
		connLogger.Warnf("error enabling keep-alive: %s", err.Error())
	}
	decoder, err := recordreader.NewDecoder(lsnr.format, conn, lsnr.maxLineSize)
	if err != nil {
		connLogger.Error("failed to create decoder: ", err)
		return
	}

	for {
		record, err := decoder.Decode()
		if err == nil {
			lsnr.metrics.recordsTotal.Inc()
			if serr := lsnr.sink(record); serr != nil {
				connLogger.Warnf("record rejected, end connection: %s", serr.Error())
				break
			}
			continue
		}
		if errors.Is(err, recordreader.ErrInvalidRecord) {
			connLogger.Warnf("skipped: %s", err.Error())
			lsnr.metrics.invalidRecordsTotal.Inc()
			continue
		}
		switch {
		case errors.Is(err, io.EOF):
			connLogger.Info("closed by client")
		case util.IsNetworkClosed(err) && lsnr.stopRequest.Peek():
			connLogger.Info("closed by stop request (delayed)")
		default:
			connLogger.Warn("read() error: ", err)
		}
		break
	}
	connLogger.Info("ended")
}

func (lsnr *TCPRecordListener) launchConnectionCloser(connLogger logger.Logger, conn *net.TCPConn) *channels.SignalAwaitable {
	abortConn := channels.NewSignalAwaitable()
	// background goroutine to wait and close connection on request
	go func() {
		channels.AnyAwaitables(lsnr.stopRequest, abortConn).Next(func() {
			if !abortConn.Peek() {
				connLogger.Info("close connection on stop request")
			}
		}).WaitForever()
		conn.Close()
	}()
	return abortConn
}
