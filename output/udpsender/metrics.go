package udpsender

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/relex/udpsender/base"
	"github.com/relex/udpsender/util"
)

// outputMetrics defines metrics of a UDP output
type outputMetrics struct {
	queuedDatagrams      prometheus.Gauge // Current numbers of datagrams in the queue
	exhausted            prometheus.Gauge // 1 if no more reconnect attempt will be made
	networkErrorsTotal   prometheus.Counter
	refusedErrorsTotal   prometheus.Counter
	writeErrorsTotal     prometheus.Counter
	openedChannelsTotal  prometheus.Counter
	closedChannelsTotal  prometheus.Counter
	reconnectsTotal      prometheus.Counter
	forwardAttemptsTotal prometheus.Counter
	forwardedCountTotal  prometheus.Counter
	forwardedLengthTotal prometheus.Counter
	droppedCountTotal    prometheus.Counter
}

func newOutputMetrics(metricFactory *base.MetricFactory) *outputMetrics {
	outputFactory := metricFactory.NewSubFactory("output_", []string{"output"}, []string{"udp"})
	errorCounters := outputFactory.AddOrGetCounterVec("errors_total", "Numbers of errors by type", []string{"type"}, nil)

	metrics := &outputMetrics{
		queuedDatagrams:      outputFactory.AddOrGetGauge("queued_datagrams", "Numbers of currently queued datagrams", nil, nil),
		exhausted:            outputFactory.AddOrGetGauge("reconnect_exhausted", "Whether reconnect attempts have been used up", nil, nil),
		networkErrorsTotal:   errorCounters.WithLabelValues("network"),
		refusedErrorsTotal:   errorCounters.WithLabelValues("refused"),
		writeErrorsTotal:     errorCounters.WithLabelValues("write"),
		openedChannelsTotal:  outputFactory.AddOrGetCounter("opened_channels_total", "Numbers of opened channels", nil, nil),
		closedChannelsTotal:  outputFactory.AddOrGetCounter("closed_channels_total", "Numbers of closed channels", nil, nil),
		reconnectsTotal:      outputFactory.AddOrGetCounter("reconnect_attempts_total", "Numbers of reconnect attempts", nil, nil),
		forwardAttemptsTotal: outputFactory.AddOrGetCounter("forward_attempts_total", "Numbers of datagram forwarding attempts", nil, nil),
		forwardedCountTotal:  outputFactory.AddOrGetCounter("forwarded_datagrams_total", "Numbers of forwarded datagrams", nil, nil),
		forwardedLengthTotal: outputFactory.AddOrGetCounter("forwarded_datagram_bytes_total", "Total length in bytes of forwarded datagrams", nil, nil),
		droppedCountTotal:    outputFactory.AddOrGetCounter("dropped_datagrams_total", "Numbers of datagrams discarded without sending", nil, nil),
	}
	// reset gauges in case metricFactory is reused
	metrics.queuedDatagrams.Set(0)
	metrics.exhausted.Set(0)

	return metrics
}

func (metrics *outputMetrics) OnError(err error) {
	switch {
	case err != nil && util.IsConnectionRefused(err):
		metrics.refusedErrorsTotal.Inc()
	case err != nil && util.IsNetworkError(err):
		metrics.networkErrorsTotal.Inc()
	default:
		metrics.writeErrorsTotal.Inc()
	}
}

func (metrics *outputMetrics) OnQueued(datagram base.Datagram) {
	metrics.queuedDatagrams.Inc()
}

func (metrics *outputMetrics) OnDequeued(datagram base.Datagram) {
	metrics.queuedDatagrams.Dec()
}

func (metrics *outputMetrics) OnChannelOpened() {
	metrics.openedChannelsTotal.Inc()
}

func (metrics *outputMetrics) OnChannelClosed() {
	metrics.closedChannelsTotal.Inc()
}

func (metrics *outputMetrics) OnReconnecting() {
	metrics.reconnectsTotal.Inc()
}

func (metrics *outputMetrics) OnReconnectExhausted() {
	metrics.exhausted.Set(1)
}

func (metrics *outputMetrics) OnForwarding(datagram base.Datagram) {
	metrics.forwardAttemptsTotal.Inc()
}

func (metrics *outputMetrics) OnForwarded(datagram base.Datagram) {
	metrics.forwardedCountTotal.Inc()
	metrics.forwardedLengthTotal.Add(float64(len(datagram.Payload)))
}

func (metrics *outputMetrics) OnDropped(count int) {
	metrics.droppedCountTotal.Add(float64(count))
}
