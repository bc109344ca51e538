package base

import (
	"fmt"
	"net"
	"strconv"
)

// Datagram represents a formatted payload ready to be sent as a single UDP packet
//
// The payload is owned by whoever holds the datagram and must not be modified after creation
type Datagram struct {
	Payload []byte // Complete packet contents, without any header
	Host    string // Destination hostname or IP
	Port    int    // Destination port
}

// Address returns the destination in host:port form
func (datagram Datagram) Address() string {
	return net.JoinHostPort(datagram.Host, strconv.Itoa(datagram.Port))
}

func (datagram Datagram) String() string {
	return fmt.Sprintf("dest=%s len=%d", datagram.Address(), len(datagram.Payload))
}
