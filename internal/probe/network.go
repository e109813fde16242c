package probe

import (
	"context"
	"net"
	"time"
)

// TCPConnect opens and immediately closes a TCP connection to addr.
func TCPConnect(ctx context.Context, addr string, timeout time.Duration) error {
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return connectionFailure(err)
	}
	conn.Close()
	return nil
}
