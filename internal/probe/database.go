package probe

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"

	"github.com/goodparty/infracheck/internal/config"
)

// Closer is the part of a database connection the probe needs.
type Closer interface {
	Close(ctx context.Context) error
}

// Opener opens a client connection to the configured database.
type Opener func(ctx context.Context, db config.Database, timeout time.Duration) (Closer, error)

// OpenDatabase dispatches on db.Connection.
func OpenDatabase(ctx context.Context, db config.Database, timeout time.Duration) (Closer, error) {
	switch db.Connection {
	case "pgsql":
		return OpenPostgres(ctx, db, timeout)
	case "mysql":
		return OpenMySQL(ctx, db, timeout)
	default:
		return nil, fmt.Errorf("unsupported database connection %q", db.Connection)
	}
}

type sqlConn struct {
	db *sql.DB
}

func (c sqlConn) Close(context.Context) error {
	return c.db.Close()
}

// OpenMySQL connects and authenticates against a MySQL server. sql.Open is
// lazy, so a ping forces the handshake.
func OpenMySQL(ctx context.Context, db config.Database, timeout time.Duration) (Closer, error) {
	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = db.Address()
	cfg.User = db.Username
	cfg.Passwd = db.Password
	cfg.DBName = db.Name
	cfg.Timeout = timeout

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, err
	}

	conn := sql.OpenDB(connector)
	conn.SetMaxOpenConns(1)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return sqlConn{db: conn}, nil
}

// PostgresURL builds a connection URL with credentials escaped.
func PostgresURL(db config.Database, timeout time.Duration) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(db.Username, db.Password),
		Host:   db.Address(),
		Path:   "/" + db.Name,
	}
	q := url.Values{}
	if secs := int(timeout.Seconds()); secs > 0 {
		q.Set("connect_timeout", strconv.Itoa(secs))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// OpenPostgres connects and authenticates against a PostgreSQL server.
func OpenPostgres(ctx context.Context, db config.Database, timeout time.Duration) (Closer, error) {
	conn, err := pgx.Connect(ctx, PostgresURL(db, timeout))
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// DatabaseConnect opens a connection with open and closes it again.
func DatabaseConnect(ctx context.Context, open Opener, db config.Database, timeout time.Duration) error {
	if open == nil {
		open = OpenDatabase
	}

	conn, err := open(ctx, db, timeout)
	if err != nil {
		return connectionFailure(err)
	}
	conn.Close(ctx)
	return nil
}
