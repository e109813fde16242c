package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/goodparty/infracheck/internal/config"
	"github.com/goodparty/infracheck/internal/logger"
	"github.com/goodparty/infracheck/internal/probe"
	"github.com/goodparty/infracheck/internal/readiness"
	"github.com/goodparty/infracheck/internal/report"
	"github.com/goodparty/infracheck/internal/suite"
)

// errNotReady makes the process exit non-zero without printing an error;
// the report already says what failed.
var errNotReady = errors.New("environment is not ready")

var (
	configPath  string
	envFile     string
	timeout     time.Duration
	concurrency int
	onlyChecks  []string
	skipChecks  []string
	outputFmt   string
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "infracheck",
	Short: "Verify that a host is ready to run the application",
	Long: `Infracheck runs a fixed suite of readiness checks against the current host:
PHP version, extensions and timezone, the database, Redis, the Octane/Swoole
application server, the HTTP entry point and Composer.

Connection settings come from ~/.config/infracheck/config.yml, a .env file in
the working directory and the process environment, in that order of precedence
from lowest to highest. The command exits 0 when every check passes and 1
otherwise, so it can gate a deploy script or a container entrypoint.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := report.ParseFormat(outputFmt)
		if err != nil {
			return err
		}

		log := newLogger()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		checks, err := buildSuite(cfg)
		if err != nil {
			return err
		}
		defer checks.Close()

		ctx, cancel := signalContext()
		defer cancel()

		runner, err := newRunner(cfg, log, checks)
		if err != nil {
			return err
		}

		log.Debug().Int("checks", len(checks.specs)).Msg("running readiness suite")
		rep, err := runner.Run(ctx, checks.specs)
		if err != nil {
			return fmt.Errorf("failed to run checks: %w", err)
		}

		if err := report.Write(cmd.OutOrStdout(), rep, format); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}

		if rep.Status() != readiness.StatusPass {
			return errNotReady
		}
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "config file (default ~/.config/infracheck/config.yml)")
	flags.StringVar(&envFile, "env-file", config.DefaultEnvFile, "dotenv file read when present")
	flags.BoolVarP(&verbose, "verbose", "v", false, "log probe activity to stderr")

	flags.DurationVarP(&timeout, "timeout", "t", 0, "per-check timeout (overrides the config file)")
	flags.IntVar(&concurrency, "concurrency", 0, "maximum checks in flight (0 means unlimited)")
	flags.StringSliceVar(&onlyChecks, "only", nil, "run only these checks")
	flags.StringSliceVar(&skipChecks, "skip", nil, "skip these checks")

	rootCmd.Flags().StringVarP(&outputFmt, "output", "o", string(report.FormatText), "output format (text, yaml)")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errNotReady) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func newLogger() zerolog.Logger {
	return logger.New(os.Stderr, verbose || logger.VerboseFromEnv())
}

// loadConfig resolves the configuration from the --config and --env-file
// flags. An explicit --config must exist; the default location may not.
func loadConfig() (config.Config, error) {
	opts := config.LoadOptions{
		Path:     configPath,
		Required: configPath != "",
		EnvFile:  envFile,
	}
	if opts.Path == "" {
		path, err := config.GetConfigPath()
		if err != nil {
			return config.Config{}, err
		}
		opts.Path = path
	}

	cfg, err := config.Load(opts)
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load config: %w (run 'infracheck init' to create one)", err)
	}
	return cfg, nil
}

// checkSuite is the selected checks plus the shared state they probe with.
type checkSuite struct {
	specs   []readiness.Spec
	runtime *probe.PHPRuntime
	http    *probe.HTTPProber
}

// Close releases the HTTP client's idle connections.
func (s checkSuite) Close() {
	s.http.Close()
}

// buildSuite declares the checks for cfg and applies --only and --skip.
func buildSuite(cfg config.Config) (checkSuite, error) {
	s := checkSuite{
		runtime: probe.NewPHPRuntime(cfg.PHPBinary, nil),
		http:    probe.NewHTTPProber(suite.SocketTimeout),
	}

	specs, err := readiness.Select(suite.Build(cfg, suite.Deps{Runtime: s.runtime, HTTP: s.http}), onlyChecks, skipChecks)
	if err != nil {
		s.Close()
		return checkSuite{}, err
	}
	s.specs = specs
	return s, nil
}

// newRunner applies --timeout and --concurrency. The PHP inspection is
// discarded before every run so each run sees the current interpreter.
func newRunner(cfg config.Config, log zerolog.Logger, checks checkSuite) (*readiness.Runner, error) {
	perCheck := timeout
	if perCheck <= 0 {
		d, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout %q in config: %w", cfg.Timeout, err)
		}
		perCheck = d
	}

	return readiness.NewRunner(
		readiness.WithConcurrency(concurrency),
		readiness.WithDefaultTimeout(perCheck),
		readiness.WithLogger(log),
		readiness.WithBeforeRun(checks.runtime.Reset),
	), nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
