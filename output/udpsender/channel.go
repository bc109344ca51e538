package udpsender

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"

	"github.com/relex/gotils/logger"
	"github.com/relex/udpsender/defs"
	"github.com/relex/udpsender/util"
)

// errChannelRejected is reported to write observers when the event loop no longer accepts tasks
var errChannelRejected = errors.New("channel rejected write: event loop is shut down")

// DialFunc opens a connected socket, as net.Dialer.DialContext does
type DialFunc func(ctx context.Context, network string, address string) (net.Conn, error)

// transportChannel is what the sender needs from a channel
type transportChannel interface {
	// IsActive checks whether the channel can still be written to
	IsActive() bool

	// Write submits the payload for sending. onComplete is called with the result on the event loop.
	Write(payload []byte, onComplete func(err error))
}

// udpChannel is a UDP socket from an ephemeral local port, connected to the collector
//
// Incoming packets are read and discarded. The channel becomes inactive once closed, either explicitly or due to a
// read error, and never becomes active again.
type udpChannel struct {
	logger     logger.Logger
	conn       net.Conn
	loop       *eventLoop
	metrics    *outputMetrics
	active     atomic.Bool
	closeOnce  sync.Once
	onInactive func()
}

// defaultDial binds to an ephemeral local port
func defaultDial(ctx context.Context, network string, address string) (net.Conn, error) {
	dialer := &net.Dialer{}
	dialer.LocalAddr = &net.UDPAddr{Port: 0}
	return dialer.DialContext(ctx, network, address)
}

// openUDPChannel dials the address and activates the new channel
//
// It must be called on the event loop. onActive is called before returning if successful, and onInactive is later
// submitted to the event loop when the channel closes.
func openUDPChannel(parentLogger logger.Logger, loop *eventLoop, dial DialFunc, address string, metrics *outputMetrics,
	onActive func(channel *udpChannel), onInactive func()) (*udpChannel, error) {

	ctx, cancel := context.WithTimeout(context.Background(), defs.ChannelConnectTimeout)
	defer cancel()
	conn, err := dial(ctx, "udp", address)
	if err != nil {
		return nil, err
	}

	channel := &udpChannel{
		logger: parentLogger.WithFields(logger.Fields{
			defs.LabelPart:   "channel",
			defs.LabelLocal:  conn.LocalAddr().String(),
			defs.LabelRemote: conn.RemoteAddr().String(),
		}),
		conn:       conn,
		loop:       loop,
		metrics:    metrics,
		active:     atomic.Bool{},
		closeOnce:  sync.Once{},
		onInactive: onInactive,
	}
	channel.active.Store(true)
	metrics.OnChannelOpened()
	channel.logger.Info("active")

	go channel.runReader()
	onActive(channel)
	return channel, nil
}

// IsActive checks whether the channel is still open
func (channel *udpChannel) IsActive() bool {
	return channel.active.Load()
}

// Write sends the payload as one datagram on the event loop
func (channel *udpChannel) Write(payload []byte, onComplete func(err error)) {
	accepted := channel.loop.Execute(func() {
		_, err := channel.conn.Write(payload)
		onComplete(err)
	})
	if !accepted {
		onComplete(errChannelRejected)
	}
}

// Close closes the socket and reports inactivation, once
func (channel *udpChannel) Close() {
	channel.closeOnce.Do(func() {
		channel.active.Store(false)
		if err := channel.conn.Close(); err != nil {
			channel.logger.Warnf("error closing socket: %s", err.Error())
		}
		channel.metrics.OnChannelClosed()
		channel.logger.Info("inactive")
		if !channel.loop.Execute(channel.onInactive) {
			channel.logger.Debug("skipped inactivation callback: event loop is shut down")
		}
	})
}

// runReader reads and discards incoming packets until the socket fails
func (channel *udpChannel) runReader() {
	buf := make([]byte, defs.ChannelReadBufferSize)
	for {
		n, err := channel.conn.Read(buf)
		if err == nil {
			channel.logger.Debugf("discarded incoming packet len=%d", n)
			continue
		}
		if util.IsConnectionRefused(err) {
			// previous packets were rejected by remote host; the socket is still usable
			channel.logger.Warnf("packets refused by remote: %s", err.Error())
			channel.metrics.OnError(err)
			continue
		}
		if !channel.IsActive() && util.IsNetworkClosed(err) {
			break
		}
		channel.logger.Warnf("read() error: %s", err.Error())
		channel.metrics.OnError(err)
		break
	}
	channel.Close()
}
