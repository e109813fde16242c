package probe

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"
)

func TestTCPConnect(t *testing.T) {
	// Start a listener
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := l.Addr().String()

	if err := TCPConnect(context.Background(), addr, time.Second); err != nil {
		t.Errorf("Expected open port to pass, got %v", err)
	}

	l.Close()

	err = TCPConnect(context.Background(), addr, time.Second)
	if err == nil {
		t.Fatal("Expected closed port to fail")
	}
	if !errors.Is(err, ErrConnection) {
		t.Errorf("Expected ErrConnection, got %v", err)
	}
	if err.Error() == "" {
		t.Error("Expected the OS error text in the message")
	}
}
