// Package suite declares the fixed list of readiness checks for a
// Laravel/Octane deployment and binds them to the resolved configuration.
package suite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goodparty/infracheck/internal/config"
	"github.com/goodparty/infracheck/internal/probe"
	"github.com/goodparty/infracheck/internal/readiness"
)

const (
	MinPHPVersion    = "8.3.0"
	ExpectedTimezone = "America/Sao_Paulo"
	AsyncExtension   = "swoole"
	BytecodeCache    = "Zend OPcache"
	ComposerMarker   = "Composer"
	SocketTimeout    = 3 * time.Second
	AppServerTimeout = 2 * time.Second
	ProcessTimeout   = 10 * time.Second
	DatabaseTimeout  = 5 * time.Second
)

// RequiredExtensions must all be loaded in the PHP runtime.
var RequiredExtensions = []string{
	"bcmath",
	"ctype",
	"curl",
	"dom",
	"exif",
	"fileinfo",
	"gd",
	"intl",
	"mbstring",
	"openssl",
	"pcntl",
	"pdo",
	"pdo_mysql",
	"sockets",
	"xml",
	"zip",
}

// Deps are the collaborators the checks talk through. Zero fields are
// filled in by Build with the real implementations.
type Deps struct {
	Runtime  probe.Runtime
	Commands probe.CommandRunner
	Database probe.Opener
	HTTP     *probe.HTTPProber
}

// Build returns the checks in their fixed declaration order.
func Build(cfg config.Config, deps Deps) []readiness.Spec {
	if deps.Runtime == nil {
		deps.Runtime = probe.NewPHPRuntime(cfg.PHPBinary, nil)
	}
	if deps.Commands == nil {
		deps.Commands = probe.CombinedCommand
	}
	if deps.Database == nil {
		deps.Database = probe.OpenDatabase
	}
	if deps.HTTP == nil {
		deps.HTTP = probe.NewHTTPProber(SocketTimeout)
	}

	rt := deps.Runtime
	redisAddr := cfg.Redis.Address()
	appAddr := cfg.AppServer.Address()
	appURL := probe.RootURL(cfg.HTTP.URL)
	db := cfg.Database

	return []readiness.Spec{
		{
			Name:        "php-version",
			Description: fmt.Sprintf("PHP version is at least %s", MinPHPVersion),
			Target:      cfg.PHPBinary,
			Timeout:     ProcessTimeout,
			Probe: func(ctx context.Context) error {
				v, err := rt.Version(ctx)
				if err != nil {
					return err
				}
				if err := probe.RequireVersion(v, MinPHPVersion); err != nil {
					return &probe.Failure{
						Kind: probe.ErrValueMismatch,
						Msg:  fmt.Sprintf("PHP version must be >= %s, got: %s", MinPHPVersion, v),
						Err:  err,
					}
				}
				return nil
			},
		},
		{
			Name:        "php-extensions",
			Description: "Required PHP extensions are loaded",
			Target:      strings.Join(RequiredExtensions, ", "),
			Timeout:     ProcessTimeout,
			Probe: func(ctx context.Context) error {
				missing, err := probe.MissingFeatures(ctx, rt, RequiredExtensions)
				if err != nil {
					return err
				}
				if len(missing) > 0 {
					return &probe.Failure{
						Kind: probe.ErrValueMismatch,
						Msg:  fmt.Sprintf("PHP extensions not loaded: %s", strings.Join(missing, ", ")),
					}
				}
				return nil
			},
		},
		featureSpec(rt, "swoole", "Swoole extension is loaded", AsyncExtension, "Swoole extension is not loaded."),
		featureSpec(rt, "opcache", "OPcache is enabled", BytecodeCache, "OPcache is not loaded."),
		{
			Name:        "php-timezone",
			Description: fmt.Sprintf("PHP default timezone is %s", ExpectedTimezone),
			Target:      cfg.PHPBinary,
			Timeout:     ProcessTimeout,
			Probe: func(ctx context.Context) error {
				tz, err := rt.Timezone(ctx)
				if err != nil {
					return err
				}
				if err := probe.ExpectEqual(tz, ExpectedTimezone); err != nil {
					return fmt.Errorf("PHP timezone must be %s, %w", ExpectedTimezone, err)
				}
				return nil
			},
		},
		{
			Name:        "system-timezone",
			Description: fmt.Sprintf("System timezone (%s) is %s", cfg.TimezoneFile, ExpectedTimezone),
			Target:      cfg.TimezoneFile,
			Probe: func(ctx context.Context) error {
				tz, err := probe.ReadTrimmed(cfg.TimezoneFile)
				if err == nil {
					err = probe.ExpectEqual(tz, ExpectedTimezone)
				}
				if err != nil {
					return fmt.Errorf("System timezone (%s) must be %s, %w", cfg.TimezoneFile, ExpectedTimezone, err)
				}
				return nil
			},
		},
		{
			Name:        "database",
			Description: fmt.Sprintf("%s accepts a client connection", db.Label()),
			Target:      fmt.Sprintf("%s://%s@%s/%s", db.Connection, db.Username, db.Address(), db.Name),
			Timeout:     DatabaseTimeout,
			Probe: func(ctx context.Context) error {
				if err := probe.DatabaseConnect(ctx, deps.Database, db, SocketTimeout); err != nil {
					return fmt.Errorf("%s connection failed: %w", db.Label(), err)
				}
				return nil
			},
		},
		{
			Name:        "redis-connection",
			Description: "Redis accepts TCP connections",
			Target:      redisAddr,
			Timeout:     SocketTimeout,
			Probe: func(ctx context.Context) error {
				if err := probe.TCPConnect(ctx, redisAddr, SocketTimeout); err != nil {
					return fmt.Errorf("Redis connection failed on %s: %w", redisAddr, err)
				}
				return nil
			},
		},
		{
			Name:        "redis-ping",
			Description: "Redis answers PING with PONG",
			Target:      redisAddr,
			Timeout:     SocketTimeout,
			Probe: func(ctx context.Context) error {
				reply, err := probe.RedisPingPong(ctx, redisAddr, SocketTimeout)
				switch {
				case err == nil:
					return nil
				case errors.Is(err, probe.ErrConnection):
					return fmt.Errorf("Cannot connect to Redis: %w", err)
				default:
					return &probe.Failure{
						Kind: probe.ErrProtocolMismatch,
						Msg:  fmt.Sprintf("Redis did not respond with PONG, got: %q", reply),
						Err:  err,
					}
				}
			},
		},
		{
			Name:        "octane",
			Description: fmt.Sprintf("Octane/Swoole is listening on port %d", cfg.AppServer.Port),
			Target:      appAddr,
			Timeout:     AppServerTimeout,
			Probe: func(ctx context.Context) error {
				if err := probe.TCPConnect(ctx, appAddr, AppServerTimeout); err != nil {
					return fmt.Errorf("Octane/Swoole is not listening on port %d: %w", cfg.AppServer.Port, err)
				}
				return nil
			},
		},
		{
			Name:        "http",
			Description: fmt.Sprintf("GET / returns %d", cfg.HTTP.ExpectedStatus),
			Target:      appURL,
			Timeout:     SocketTimeout,
			Probe: func(ctx context.Context) error {
				err := deps.HTTP.ExpectStatus(ctx, appURL, cfg.HTTP.ExpectedStatus)
				if errors.Is(err, probe.ErrConnection) {
					return fmt.Errorf("GET %s failed: %w", appURL, err)
				}
				return err
			},
		},
		{
			Name:        "composer",
			Description: "Composer is installed",
			Target:      cfg.ComposerBinary,
			Timeout:     ProcessTimeout,
			Probe: func(ctx context.Context) error {
				out, err := probe.ToolVersion(ctx, deps.Commands, cfg.ComposerBinary, ComposerMarker, "--version")
				if err != nil && out == "" {
					return &probe.Failure{Kind: probe.ErrToolMissing, Msg: "Composer is not installed.", Err: err}
				}
				return err
			},
		},
	}
}

func featureSpec(rt probe.Runtime, name, description, feature, failMsg string) readiness.Spec {
	return readiness.Spec{
		Name:        name,
		Description: description,
		Target:      feature,
		Timeout:     ProcessTimeout,
		Probe: func(ctx context.Context) error {
			ok, err := rt.IsFeatureAvailable(ctx, feature)
			if err != nil {
				return err
			}
			if !ok {
				return &probe.Failure{Kind: probe.ErrValueMismatch, Msg: failMsg}
			}
			return nil
		},
	}
}
