package run

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/relex/udpsender/defs"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	defs.EnableTestMode()
	os.Exit(m.Run())
}

func writeConfigFile(t *testing.T, contents string) string {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func listenCollector(t *testing.T) *net.UDPConn {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func collectorOutputConf(collector *net.UDPConn) string {
	addr := collector.LocalAddr().(*net.UDPAddr)
	return fmt.Sprintf(`
output:
  host: %s
  port: %d
  params: host,level,msg
  separator: "|"
`, addr.IP.String(), addr.Port)
}

func readPacket(collector *net.UDPConn, timeout time.Duration) string {
	buf := make([]byte, 65536)
	if err := collector.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return ""
	}
	n, _, err := collector.ReadFromUDP(buf)
	if err != nil {
		return ""
	}
	return string(buf[:n])
}
