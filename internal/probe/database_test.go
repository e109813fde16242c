package probe

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/goodparty/infracheck/internal/config"
)

type fakeConn struct {
	closed *bool
}

func (c fakeConn) Close(context.Context) error {
	*c.closed = true
	return nil
}

func TestDatabaseConnect(t *testing.T) {
	closed := false
	var got config.Database
	open := func(ctx context.Context, db config.Database, timeout time.Duration) (Closer, error) {
		got = db
		return fakeConn{closed: &closed}, nil
	}

	db := config.Default().Database
	if err := DatabaseConnect(context.Background(), open, db, time.Second); err != nil {
		t.Fatalf("Expected pass, got %v", err)
	}
	if !closed {
		t.Error("Expected the connection to be closed")
	}
	if got != db {
		t.Errorf("Expected opener to receive %+v, got %+v", db, got)
	}

	open = func(context.Context, config.Database, time.Duration) (Closer, error) {
		return nil, errors.New("Access denied for user 'goodparty'@'%'")
	}
	err := DatabaseConnect(context.Background(), open, db, time.Second)
	if !errors.Is(err, ErrConnection) || !strings.Contains(err.Error(), "Access denied") {
		t.Errorf("Expected driver error to surface, got %v", err)
	}
}

func TestOpenMySQLRefused(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	l.Close()

	db := config.Default().Database
	db.Host = "127.0.0.1"
	db.Port = port

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := DatabaseConnect(ctx, nil, db, time.Second); !errors.Is(err, ErrConnection) {
		t.Errorf("Expected ErrConnection, got %v", err)
	}
}

func TestPostgresURL(t *testing.T) {
	db := config.Database{
		Connection: "pgsql",
		Host:       "pg",
		Port:       5432,
		Name:       "app",
		Username:   "user",
		Password:   "p@ss:word",
	}

	got := PostgresURL(db, 3*time.Second)
	want := "postgres://user:p%40ss%3Aword@pg:5432/app?connect_timeout=3"
	if got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
}

func TestOpenDatabaseUnsupported(t *testing.T) {
	_, err := OpenDatabase(context.Background(), config.Database{Connection: "sqlite"}, time.Second)
	if err == nil {
		t.Error("Expected unsupported connection to fail")
	}
}
