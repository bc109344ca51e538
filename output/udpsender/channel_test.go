package udpsender

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/relex/udpsender/defs"
	"github.com/relex/udpsender/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestChannel(t *testing.T, loop *eventLoop, address string, metrics *outputMetrics,
	onInactive func()) *udpChannel {

	result := make(chan *udpChannel, 1)
	activated := make(chan *udpChannel, 1)
	require.True(t, loop.Execute(func() {
		channel, err := openUDPChannel(newTestLogger(t), loop, defaultDial, address, metrics,
			func(channel *udpChannel) { activated <- channel }, onInactive)
		assert.NoError(t, err)
		result <- channel
	}))
	channel := <-result
	require.NotNil(t, channel)
	assert.Same(t, channel, <-activated)
	return channel
}

func TestUDPChannelWrite(t *testing.T) {
	collector := listenCollector(t)
	loop := newEventLoop(newTestLogger(t))
	defer loop.ShutdownGracefully()
	metrics := newTestMetrics()

	inactivated := make(chan struct{}, 1)
	channel := openTestChannel(t, loop, collector.LocalAddr().String(), metrics, func() {
		inactivated <- struct{}{}
	})
	assert.True(t, channel.IsActive())
	assert.Equal(t, 1.0, util.SumMetricValues(metrics.openedChannelsTotal))

	results := make(chan error, 2)
	channel.Write([]byte("hello\r\n"), func(err error) { results <- err })
	channel.Write([]byte("world\r\n"), func(err error) { results <- err })
	assert.NoError(t, <-results)
	assert.NoError(t, <-results)
	assert.Equal(t, "hello\r\n", readPacket(collector, defs.TestReadTimeout))
	assert.Equal(t, "world\r\n", readPacket(collector, defs.TestReadTimeout))

	// replies from collector are read and discarded
	_, err := collector.WriteToUDP([]byte("ack"), channel.conn.LocalAddr().(*net.UDPAddr))
	assert.NoError(t, err)
	time.Sleep(20 * time.Millisecond)
	assert.True(t, channel.IsActive())

	channel.Close()
	assert.False(t, channel.IsActive())
	select {
	case <-inactivated:
	case <-time.After(defs.TestReadTimeout):
		assert.Fail(t, "onInactive not called")
	}
	channel.Close()
	assert.Equal(t, 1.0, util.SumMetricValues(metrics.closedChannelsTotal))
	assert.Len(t, inactivated, 0)
}

func TestUDPChannelRefusedStaysActive(t *testing.T) {
	loop := newEventLoop(newTestLogger(t))
	defer loop.ShutdownGracefully()
	metrics := newTestMetrics()

	inactivated := make(chan struct{}, 1)
	channel := openTestChannel(t, loop, unusedUDPAddress(t), metrics, func() {
		inactivated <- struct{}{}
	})
	defer channel.Close()

	// the collector is down, which may or may not be reported back via ICMP
	for i := 0; i < 3; i++ {
		done := make(chan error, 1)
		channel.Write([]byte("lost\r\n"), func(err error) { done <- err })
		<-done
		time.Sleep(20 * time.Millisecond)
	}
	assert.True(t, channel.IsActive())
	assert.Len(t, inactivated, 0)
}

func TestUDPChannelWriteRejectedAfterShutdown(t *testing.T) {
	collector := listenCollector(t)
	loop := newEventLoop(newTestLogger(t))
	metrics := newTestMetrics()

	channel := openTestChannel(t, loop, collector.LocalAddr().String(), metrics, func() {})
	assert.True(t, loop.ShutdownGracefully().Wait(defs.TestReadTimeout))

	var result error
	channel.Write([]byte("late\r\n"), func(err error) { result = err })
	assert.ErrorIs(t, result, errChannelRejected)

	channel.Close() // onInactive is skipped
	assert.False(t, channel.IsActive())
}

func TestUDPChannelDialFailure(t *testing.T) {
	loop := newEventLoop(newTestLogger(t))
	defer loop.ShutdownGracefully()

	dialErr := errors.New("test dial failure")
	failingDial := func(ctx context.Context, network string, address string) (net.Conn, error) {
		return nil, dialErr
	}
	result := make(chan error, 1)
	require.True(t, loop.Execute(func() {
		channel, err := openUDPChannel(newTestLogger(t), loop, failingDial, "127.0.0.1:1", newTestMetrics(),
			func(channel *udpChannel) { assert.Fail(t, "should not be activated") }, func() {})
		assert.Nil(t, channel)
		result <- err
	}))
	assert.ErrorIs(t, <-result, dialErr)
}
