package probe

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"time"
)

const (
	// maxReplyLine bounds how much of the reply is read while looking for
	// the first line break.
	maxReplyLine = 512

	// RedisPing is the inline-command form of PING.
	RedisPing = "PING\r\n"
	// RedisPong is the simple-string reply a healthy server sends.
	RedisPong = "+PONG"
)

// RedisRoundTrip connects to addr, sends command and returns the first
// reply line with surrounding whitespace removed. The whole exchange,
// connect included, is bounded by timeout and by ctx.
func RedisRoundTrip(ctx context.Context, addr, command string, timeout time.Duration) (string, error) {
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return "", connectionFailure(err)
	}
	defer conn.Close()

	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return "", connectionFailure(err)
	}

	// Unblock reads if ctx is cancelled before the deadline.
	stop := context.AfterFunc(ctx, func() {
		conn.SetDeadline(time.Now())
	})
	defer stop()

	if _, err := conn.Write([]byte(command)); err != nil {
		return "", connectionFailure(fmt.Errorf("write: %w", err))
	}

	line, err := bufio.NewReader(io.LimitReader(conn, maxReplyLine)).ReadString('\n')
	if err != nil && line == "" {
		return "", connectionFailure(fmt.Errorf("read: %w", err))
	}

	return strings.TrimSpace(line), nil
}

// RedisPingPong sends PING and requires the exact PONG reply. The reply is
// returned either way so callers can quote it.
func RedisPingPong(ctx context.Context, addr string, timeout time.Duration) (string, error) {
	reply, err := RedisRoundTrip(ctx, addr, RedisPing, timeout)
	if err != nil {
		return "", err
	}
	if reply != RedisPong {
		return reply, &Failure{
			Kind: ErrProtocolMismatch,
			Msg:  fmt.Sprintf("expected %q, got %q", RedisPong, reply),
		}
	}
	return reply, nil
}
