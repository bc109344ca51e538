package cmd

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/relex/gotils/logger"
	"github.com/relex/udpsender/input/recordreader"
	"github.com/relex/udpsender/run"
)

type sendCommandState struct {
	Config      string `help:"Configuration file path, only the output section is used"`
	Input       string `help:"Input file path or wildcard pattern, '-' for stdin. Files ending with .gz or .zst are decompressed."`
	Format      string `help:"Input format: json (one object per line) or msgpack"`
	DumpMetrics bool   `help:"Print metrics at the end"`
}

var sendCmd = sendCommandState{
	Config:      "config.yml",
	Input:       "-",
	Format:      string(recordreader.FormatJSON),
	DumpMetrics: false,
}

func (cmd *sendCommandState) run(_ []string) {
	format, err := recordreader.ParseFormat(cmd.Format)
	if err != nil {
		logger.Fatal(err)
	}

	stats, err := run.Send(cmd.Config, cmd.Input, format, prometheus.NewRegistry())
	if err != nil {
		logger.Fatal(err)
	}
	logger.Infof("sent files=%d records=%d invalid=%d unsent=%d", stats.Files, stats.Records, stats.InvalidRecords, stats.Unsent)

	if cmd.DumpMetrics {
		logger.Info("metrics:\n" + stats.Metrics)
	}
}
