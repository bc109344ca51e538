package defs

import (
	"time"
)

var (
	// OutputQueueCapacity is the max numbers of formatted datagrams waiting for the sender
	//
	// Producers are blocked when the queue is full
	OutputQueueCapacity = 512

	// SenderPollInterval is how long the sender waits for a queued datagram before re-checking its channel and
	// the stop request
	SenderPollInterval = 100 * time.Millisecond

	// SenderStopTimeout is how long to wait for the sender to exit on shutdown
	//
	// The sender wakes up at least once per SenderPollInterval, so the timeout isn't supposed to be reached
	SenderStopTimeout = 5 * time.Second

	// EventLoopTaskBacklog is the max numbers of tasks submitted to an event loop before submitters are blocked
	EventLoopTaskBacklog = 1024

	// EventLoopShutdownTimeout is how long to wait for an event loop to finish queued tasks on shutdown
	EventLoopShutdownTimeout = 10 * time.Second
)

var (
	// ChannelConnectTimeout is for resolving and connecting the UDP socket to the collector
	ChannelConnectTimeout = 5000 * time.Millisecond

	// ChannelReadBufferSize is the size of buffer to read and discard incoming datagrams
	ChannelReadBufferSize = 64 * 1024

	// ReconnectDelay is how long to wait after a connect failure or disconnection before creating a new channel
	ReconnectDelay = 1000 * time.Millisecond

	// MaxReconnectAttempts is the total numbers of reconnect attempts allowed over the lifetime of an output
	MaxReconnectAttempts = 5
)

var (
	// InputMaxLineSize is the default maximum length of a line-based input record
	InputMaxLineSize = 1 * 1024 * 1024

	// InputShutdownTimeout is how long to wait for listeners to close all connections on shutdown
	InputShutdownTimeout = 10 * time.Second

	// SendDrainTimeout is how long the one-shot sender waits for the output queue to drain before stopping
	SendDrainTimeout = 30 * time.Second

	// SendDrainCheckInterval is how often the one-shot sender checks the output queue
	SendDrainCheckInterval = 50 * time.Millisecond
)

// For testing and experiments
const (
	TestReadTimeout = 5 * time.Second
)

// EnableTestMode turns on test mode with very short timeout and minimal retry delay
func EnableTestMode() {
	ChannelConnectTimeout = 1 * time.Second
	ReconnectDelay = 50 * time.Millisecond
	SenderStopTimeout = 2 * time.Second
	EventLoopShutdownTimeout = 2 * time.Second
	InputShutdownTimeout = 2 * time.Second
	SendDrainTimeout = 3 * time.Second
}
