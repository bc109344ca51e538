package run

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/relex/gotils/logger"
	"github.com/relex/udpsender/defs"
	"github.com/relex/udpsender/input/recordreader"
	"github.com/relex/udpsender/output/udpsender"
)

// SendStats summarizes a one-shot sending
type SendStats struct {
	Files          int
	Records        int
	InvalidRecords int
	Unsent         int    // records discarded by the output on stop, queued or held by the sender
	Metrics        string // final metrics in text format
}

// Send forwards all records from files matching the input pattern using the output in config file, then stops
//
// The config file's inputs section is ignored. Invalid records are skipped.
func Send(configFile string, inputPattern string, format recordreader.Format, registerer prometheus.Registerer) (SendStats, error) {
	loader, err := NewLoaderFromConfigFile(configFile, registerer)
	if err != nil {
		return SendStats{}, err
	}
	slogger := logger.WithField(defs.LabelComponent, "Sender")

	files, err := recordreader.ListFiles(inputPattern)
	if err != nil {
		return SendStats{}, fmt.Errorf("input %s: %w", inputPattern, err)
	}
	if len(files) == 0 {
		return SendStats{}, fmt.Errorf("input %s: no matching file", inputPattern)
	}

	output, err := loader.LaunchOutput(slogger)
	if err != nil {
		return SendStats{}, err
	}
	defer output.Stop()

	stats := SendStats{}
	for _, path := range files {
		if err := sendFile(slogger.WithField("file", path), output, path, format, defs.InputMaxLineSize, &stats); err != nil {
			return stats, err
		}
		stats.Files++
	}

	if remaining := waitDrained(output, defs.SendDrainTimeout); remaining > 0 {
		slogger.Warnf("timeout waiting for queue to drain, remaining=%d", remaining)
	}
	output.Stop()
	stats.Unsent = output.DroppedCount()
	if dump, derr := loader.MetricFactory.DumpMetrics(true); derr != nil {
		slogger.Warnf("failed to dump metrics: %s", derr.Error())
	} else {
		stats.Metrics = dump
	}
	slogger.Infof("done: files=%d records=%d invalid=%d", stats.Files, stats.Records, stats.InvalidRecords)
	return stats, nil
}

func sendFile(flogger logger.Logger, output *udpsender.Output, path string, format recordreader.Format,
	maxLineSize int, stats *SendStats) error {

	reader, err := recordreader.OpenFile(path)
	if err != nil {
		return err
	}
	defer reader.Close()

	decoder, err := recordreader.NewDecoder(format, reader, maxLineSize)
	if err != nil {
		return err
	}
	flogger.Info("sending")
	for {
		record, derr := decoder.Decode()
		switch {
		case derr == nil:
			if werr := output.Write(record); werr != nil {
				return werr
			}
			stats.Records++
		case errors.Is(derr, recordreader.ErrInvalidRecord):
			flogger.Warnf("skipped: %s", derr.Error())
			stats.InvalidRecords++
		case errors.Is(derr, io.EOF):
			return nil
		default:
			return fmt.Errorf("%s: %w", path, derr)
		}
	}
}

// waitDrained waits until the output queue is empty or timeout, and returns the remaining count
func waitDrained(output *udpsender.Output, timeout time.Duration) int {
	deadline := time.Now().Add(timeout)
	for output.QueuedCount() > 0 && time.Now().Before(deadline) {
		time.Sleep(defs.SendDrainCheckInterval)
	}
	return output.QueuedCount()
}
