package suite

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goodparty/infracheck/internal/config"
	"github.com/goodparty/infracheck/internal/probe"
	"github.com/goodparty/infracheck/internal/readiness"
)

var declaredOrder = []string{
	"php-version",
	"php-extensions",
	"swoole",
	"opcache",
	"php-timezone",
	"system-timezone",
	"database",
	"redis-connection",
	"redis-ping",
	"octane",
	"http",
	"composer",
}

type fakeRuntime struct {
	version  string
	timezone string
	missing  map[string]bool
	err      error
}

func (f fakeRuntime) Version(context.Context) (string, error) { return f.version, f.err }
func (f fakeRuntime) Timezone(context.Context) (string, error) { return f.timezone, f.err }
func (f fakeRuntime) IsFeatureAvailable(_ context.Context, name string) (bool, error) {
	return !f.missing[name], f.err
}

type nopConn struct{}

func (nopConn) Close(context.Context) error { return nil }

func healthyRuntime() fakeRuntime {
	return fakeRuntime{version: "8.3.12", timezone: "America/Sao_Paulo"}
}

func composerOutput(out string) probe.CommandRunner {
	return func(context.Context, string, ...string) ([]byte, error) {
		return []byte(out), nil
	}
}

// environment starts local stand-ins for redis, the app server and nginx
// and returns a config pointing at them.
func environment(t *testing.T, redisReply string, httpStatus int) config.Config {
	t.Helper()

	redis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { redis.Close() })
	go func() {
		for {
			conn, err := redis.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				if _, err := bufio.NewReader(c).ReadString('\n'); err == nil {
					c.Write([]byte(redisReply + "\r\n"))
				}
			}(conn)
		}
	}()

	app, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { app.Close() })

	web := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(httpStatus)
	}))
	t.Cleanup(web.Close)

	tzFile := filepath.Join(t.TempDir(), "timezone")
	require.NoError(t, os.WriteFile(tzFile, []byte("America/Sao_Paulo\n"), 0644))

	cfg := config.Default()
	cfg.Redis = endpointOf(t, redis.Addr())
	cfg.AppServer = endpointOf(t, app.Addr())
	cfg.HTTP.URL = web.URL
	cfg.TimezoneFile = tzFile
	return cfg
}

func endpointOf(t *testing.T, addr net.Addr) config.Endpoint {
	host, port, err := net.SplitHostPort(addr.String())
	require.NoError(t, err)
	p, err := strconv.Atoi(port)
	require.NoError(t, err)
	return config.Endpoint{Host: host, Port: p}
}

func healthyDeps() Deps {
	return Deps{
		Runtime:  healthyRuntime(),
		Commands: composerOutput("Composer version 2.6.5 2023-10-06 10:11:52"),
		Database: func(context.Context, config.Database, time.Duration) (probe.Closer, error) {
			return nopConn{}, nil
		},
	}
}

func run(t *testing.T, cfg config.Config, deps Deps) readiness.Report {
	t.Helper()
	report, err := readiness.NewRunner().Run(context.Background(), Build(cfg, deps))
	require.NoError(t, err)
	return report
}

func TestBuildDeclarationOrder(t *testing.T) {
	specs := Build(config.Default(), healthyDeps())
	require.NoError(t, readiness.Validate(specs))

	var names []string
	for _, spec := range specs {
		names = append(names, spec.Name)
		assert.NotEmpty(t, spec.Description, spec.Name)
	}
	assert.Equal(t, declaredOrder, names)
}

func TestHealthyEnvironmentPasses(t *testing.T) {
	cfg := environment(t, "+PONG", http.StatusOK)

	report := run(t, cfg, healthyDeps())
	require.Len(t, report.Results, len(declaredOrder))
	for i, res := range report.Results {
		assert.Equal(t, declaredOrder[i], res.Name)
		assert.True(t, res.Passed(), "%s: %s", res.Name, res.Message)
	}
	assert.Equal(t, readiness.StatusPass, report.Status())
}

func TestFailureMessages(t *testing.T) {
	cfg := environment(t, "+PENG", http.StatusInternalServerError)
	require.NoError(t, os.WriteFile(cfg.TimezoneFile, []byte("America/New_York"), 0644))

	deps := healthyDeps()
	deps.Runtime = fakeRuntime{
		version:  "8.2.9",
		timezone: "UTC",
		missing:  map[string]bool{"gd": true, "intl": true, "swoole": true, BytecodeCache: true},
	}
	deps.Commands = composerOutput("")
	deps.Database = func(context.Context, config.Database, time.Duration) (probe.Closer, error) {
		return nil, errors.New("SQLSTATE[HY000] [2002] Connection refused")
	}

	report := run(t, cfg, deps)
	assert.Equal(t, readiness.StatusFail, report.Status())

	want := map[string]string{
		"php-version":     "PHP version must be >= 8.3.0, got: 8.2.9",
		"php-extensions":  "PHP extensions not loaded: gd, intl",
		"swoole":          "Swoole extension is not loaded.",
		"opcache":         "OPcache is not loaded.",
		"php-timezone":    `PHP timezone must be America/Sao_Paulo, got: "UTC"`,
		"system-timezone": `got: "America/New_York"`,
		"database":        "MySQL connection failed: SQLSTATE[HY000] [2002] Connection refused",
		"redis-ping":      `Redis did not respond with PONG, got: "+PENG"`,
		"http":            "received 500",
		"composer":        "Composer is not installed.",
	}
	for name, msg := range want {
		res, ok := report.Get(name)
		require.True(t, ok, name)
		assert.Equal(t, readiness.StatusFail, res.Status, name)
		assert.Contains(t, res.Message, msg, name)
	}

	// Only the plain sockets are still fine.
	for _, name := range []string{"redis-connection", "octane"} {
		res, _ := report.Get(name)
		assert.True(t, res.Passed(), "%s: %s", name, res.Message)
	}
}

func TestUnreachableSockets(t *testing.T) {
	cfg := environment(t, "+PONG", http.StatusOK)

	closed, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	endpoint := endpointOf(t, closed.Addr())
	closed.Close()

	cfg.Redis = endpoint
	cfg.AppServer = endpoint

	report := run(t, cfg, healthyDeps())

	conn, _ := report.Get("redis-connection")
	assert.False(t, conn.Passed())
	assert.True(t, strings.HasPrefix(conn.Message, "Redis connection failed on "+endpoint.Address()), conn.Message)
	assert.ErrorIs(t, conn.Err, probe.ErrConnection)

	ping, _ := report.Get("redis-ping")
	assert.False(t, ping.Passed())
	assert.True(t, strings.HasPrefix(ping.Message, "Cannot connect to Redis: "), ping.Message)

	octane, _ := report.Get("octane")
	assert.False(t, octane.Passed())
	assert.Contains(t, octane.Message, "Octane/Swoole is not listening on port "+strconv.Itoa(endpoint.Port))
}

func TestRuntimeUnavailable(t *testing.T) {
	cfg := environment(t, "+PONG", http.StatusOK)
	deps := healthyDeps()
	deps.Runtime = fakeRuntime{err: &probe.Failure{Kind: probe.ErrToolMissing, Msg: "failed to run php"}}

	report := run(t, cfg, deps)
	for _, name := range []string{"php-version", "php-extensions", "swoole", "opcache", "php-timezone"} {
		res, _ := report.Get(name)
		assert.False(t, res.Passed(), name)
		assert.ErrorIs(t, res.Err, probe.ErrToolMissing, name)
	}
	composer, _ := report.Get("composer")
	assert.True(t, composer.Passed())
}

func TestMonitorReinspectsRuntimeEveryRun(t *testing.T) {
	var invocations atomic.Int32
	var timezone atomic.Value
	timezone.Store("America/New_York")

	rt := probe.NewPHPRuntime("php", func(context.Context, string, ...string) ([]byte, error) {
		invocations.Add(1)
		return []byte(`{"version":"8.3.12","timezone":"` + timezone.Load().(string) + `","extensions":[],"zend_extensions":[]}`), nil
	})

	specs, err := readiness.Select(Build(config.Default(), Deps{Runtime: rt}), []string{"php-timezone"}, nil)
	require.NoError(t, err)

	runner := readiness.NewRunner(readiness.WithBeforeRun(rt.Reset))
	mon, err := readiness.NewMonitor(runner, specs, time.Hour)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go mon.Start(ctx)

	finished := func() readiness.Report {
		t.Helper()
		for {
			select {
			case u := <-mon.Updates():
				if !u.Running {
					require.NoError(t, u.Err)
					return u.Report
				}
			case <-time.After(5 * time.Second):
				t.Fatal("timed out waiting for a run")
			}
		}
	}

	first := finished()
	require.Len(t, first.Results, 1)
	assert.Contains(t, first.Results[0].Message, "America/New_York")

	timezone.Store("America/Sao_Paulo")
	mon.Trigger()

	second := finished()
	require.Len(t, second.Results, 1)
	assert.True(t, second.Results[0].Passed(), second.Results[0].Message)
	assert.Equal(t, int32(2), invocations.Load())
}
