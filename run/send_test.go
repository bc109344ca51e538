package run

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/relex/udpsender/defs"
	"github.com/relex/udpsender/input/recordreader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSend(t *testing.T) {
	collector := listenCollector(t)
	configPath := writeConfigFile(t, collectorOutputConf(collector))

	inputDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(inputDir, "1.json"), []byte(
		`{"host":"h1","level":"info","msg":"first"}`+"\n\n"+`oops`+"\n"), 0o644))

	gzFile, err := os.Create(filepath.Join(inputDir, "2.json.gz"))
	require.NoError(t, err)
	gzWriter := gzip.NewWriter(gzFile)
	_, err = gzWriter.Write([]byte(`{"host":"h2","level":"warn","msg":"second"}` + "\n"))
	require.NoError(t, err)
	require.NoError(t, gzWriter.Close())
	require.NoError(t, gzFile.Close())

	stats, err := Send(configPath, filepath.Join(inputDir, "*"), recordreader.FormatJSON, prometheus.NewRegistry())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Files)
	assert.Equal(t, 2, stats.Records)
	assert.Equal(t, 1, stats.InvalidRecords)
	assert.Equal(t, 0, stats.Unsent)
	assert.Contains(t, stats.Metrics, `udpsender_output_forwarded_datagrams_total{output="udp"} 2`)

	assert.Equal(t, "h1|info|first\r\n", readPacket(collector, defs.TestReadTimeout))
	assert.Equal(t, "h2|warn|second\r\n", readPacket(collector, defs.TestReadTimeout))
}

func TestSendNoInput(t *testing.T) {
	collector := listenCollector(t)
	configPath := writeConfigFile(t, collectorOutputConf(collector))

	_, err := Send(configPath, filepath.Join(t.TempDir(), "*.json"), recordreader.FormatJSON, prometheus.NewRegistry())
	assert.ErrorContains(t, err, "no matching file")
}

func TestSendReportsUnsent(t *testing.T) {
	configPath := writeConfigFile(t, `
output:
  host: collector.invalid
  port: 9
  params: msg
`)
	inputPath := filepath.Join(t.TempDir(), "input.json")
	require.NoError(t, os.WriteFile(inputPath, []byte(`{"msg":"1"}`+"\n"+`{"msg":"2"}`+"\n"), 0o644))

	// the hostname never resolves, so nothing leaves the output
	stats, err := Send(configPath, inputPath, recordreader.FormatJSON, prometheus.NewRegistry())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Records)
	assert.Equal(t, 2, stats.Unsent)
	assert.Contains(t, stats.Metrics, `udpsender_output_dropped_datagrams_total{output="udp"} 2`)
}

func TestSendUnreachableCollector(t *testing.T) {
	configPath := writeConfigFile(t, `
output:
  host: 127.0.0.1
  port: 9
  params: msg
`)
	inputPath := filepath.Join(t.TempDir(), "input.json")
	require.NoError(t, os.WriteFile(inputPath, []byte(`{"msg":"lost"}`+"\n"), 0o644))

	// UDP gives no delivery guarantee: the record leaves the queue even if nobody listens
	stats, err := Send(configPath, inputPath, recordreader.FormatJSON, prometheus.NewRegistry())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Records)
	assert.Equal(t, 0, stats.Unsent)
}
