package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConnection     = "mysql"
	DefaultDBHost         = "mysql"
	DefaultDBPort         = 3306
	DefaultDBDatabase     = "goodparty"
	DefaultDBUsername     = "goodparty"
	DefaultDBPassword     = "secret"
	DefaultRedisHost      = "redis"
	DefaultRedisPort      = 6379
	DefaultAppServerHost  = "127.0.0.1"
	DefaultAppServerPort  = 8000
	DefaultAppURL         = "http://localhost"
	DefaultExpectedStatus = 200
	DefaultPHPBinary      = "php"
	DefaultComposerBinary = "composer"
	DefaultTimezoneFile   = "/etc/timezone"
	DefaultTimeout        = "5s"
	DefaultEnvFile        = ".env"

	// memoryDatabase is what the framework's test environment puts in
	// DB_DATABASE; it never names a real server-side schema.
	memoryDatabase = ":memory:"
)

// Config is the resolved set of connection parameters for one run.
type Config struct {
	Timeout        string   `yaml:"timeout"`
	Database       Database `yaml:"database"`
	Redis          Endpoint `yaml:"redis"`
	AppServer      Endpoint `yaml:"app_server"`
	HTTP           HTTP     `yaml:"http"`
	PHPBinary      string   `yaml:"php_binary"`
	ComposerBinary string   `yaml:"composer_binary"`
	TimezoneFile   string   `yaml:"timezone_file"`
}

// Database holds the SQL server the application talks to.
type Database struct {
	Connection string `yaml:"connection"` // "mysql" or "pgsql"
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Name       string `yaml:"database"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password,omitempty"`
}

// Endpoint is a plain host:port pair.
type Endpoint struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// HTTP describes the public entry point of the application.
type HTTP struct {
	URL            string `yaml:"url"`
	ExpectedStatus int    `yaml:"expected_status,omitempty"`
}

// Address returns host:port suitable for net.Dial.
func (e Endpoint) Address() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// Address returns host:port of the database server.
func (d Database) Address() string {
	return net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
}

// Label is the human name of the configured driver.
func (d Database) Label() string {
	if d.Connection == "pgsql" {
		return "PostgreSQL"
	}
	return "MySQL"
}

// LoadOptions selects where configuration is read from.
type LoadOptions struct {
	// Path is an optional YAML file. A missing file is only an error when
	// Required is set.
	Path     string
	Required bool
	// EnvFile is an optional dotenv file consulted after the real environment.
	EnvFile string
	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Timeout: DefaultTimeout,
		Database: Database{
			Connection: DefaultConnection,
			Host:       DefaultDBHost,
			Port:       DefaultDBPort,
			Name:       DefaultDBDatabase,
			Username:   DefaultDBUsername,
			Password:   DefaultDBPassword,
		},
		Redis:          Endpoint{Host: DefaultRedisHost, Port: DefaultRedisPort},
		AppServer:      Endpoint{Host: DefaultAppServerHost, Port: DefaultAppServerPort},
		HTTP:           HTTP{URL: DefaultAppURL, ExpectedStatus: DefaultExpectedStatus},
		PHPBinary:      DefaultPHPBinary,
		ComposerBinary: DefaultComposerBinary,
		TimezoneFile:   DefaultTimezoneFile,
	}
}

// GetConfigPath returns the path to the global config file
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", "infracheck", "config.yml"), nil
}

// Load resolves the configuration: built-in defaults, then the YAML file,
// then the dotenv file and finally the process environment.
func Load(opts LoadOptions) (Config, error) {
	cfg := Default()

	if opts.Path != "" {
		data, err := os.ReadFile(opts.Path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal([]byte(ResolveEnv(string(data))), &cfg); err != nil {
				return Config{}, fmt.Errorf("failed to parse config file: %w", err)
			}
		case errors.Is(err, os.ErrNotExist) && !opts.Required:
		default:
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}

	if opts.EnvFile != "" {
		dotenv, err := godotenv.Read(opts.EnvFile)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to read env file: %w", err)
		}
		lookup = layered(lookup, dotenv)
	}

	cfg.applyEnv(lookup)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// layered consults the real environment first so exported variables win
// over the dotenv file, the same precedence godotenv.Load gives.
func layered(primary func(string) (string, bool), fallback map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		if v, ok := primary(key); ok && v != "" {
			return v, true
		}
		v, ok := fallback[key]
		return v, ok
	}
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	setString(&c.Database.Connection, lookup, "DB_CONNECTION")
	setString(&c.Database.Host, lookup, "DB_HOST")
	setInt(&c.Database.Port, lookup, "DB_PORT")
	setString(&c.Database.Name, lookup, "DB_DATABASE")
	setString(&c.Database.Username, lookup, "DB_USERNAME")
	setString(&c.Database.Password, lookup, "DB_PASSWORD")
	setString(&c.Redis.Host, lookup, "REDIS_HOST")
	setInt(&c.Redis.Port, lookup, "REDIS_PORT")
	setString(&c.HTTP.URL, lookup, "APP_URL")

	if c.Database.Name == memoryDatabase {
		c.Database.Name = DefaultDBDatabase
	}
	if c.HTTP.ExpectedStatus == 0 {
		c.HTTP.ExpectedStatus = DefaultExpectedStatus
	}
}

// Empty values count as unset.
func setString(dst *string, lookup func(string) (string, bool), key string) {
	if v, ok := lookup(key); ok && v != "" {
		*dst = v
	}
}

// Unparseable numbers leave the current value in place.
func setInt(dst *int, lookup func(string) (string, bool), key string) {
	v, ok := lookup(key)
	if !ok || v == "" {
		return
	}
	if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
		*dst = n
	}
}

// Validate rejects values no probe could ever use.
func (c Config) Validate() error {
	switch c.Database.Connection {
	case "mysql", "pgsql":
	default:
		return fmt.Errorf("unsupported database connection %q (expected mysql or pgsql)", c.Database.Connection)
	}

	ports := map[string]int{
		"database.port":   c.Database.Port,
		"redis.port":      c.Redis.Port,
		"app_server.port": c.AppServer.Port,
	}
	for key, port := range ports {
		if port < 1 || port > 65535 {
			return fmt.Errorf("%s out of range: %d", key, port)
		}
	}

	if c.HTTP.URL == "" {
		return fmt.Errorf("http.url must not be empty")
	}
	return nil
}

// InitConfig writes cfg to path as a commented YAML file.
func InitConfig(path string, cfg Config, force bool) error {
	// Check if config already exists
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(render(cfg)), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// render returns cfg as YAML with a short header
func render(cfg Config) string {
	return fmt.Sprintf(`# infracheck configuration
# Environment variables (DB_*, REDIS_*, APP_URL) and the .env file
# take precedence over the values below. ${VAR} placeholders are expanded.
timeout: %s

database:
  connection: %s
  host: %s
  port: %d
  database: %q
  username: %q
  password: %q

redis:
  host: %s
  port: %d

app_server:
  host: %s
  port: %d

http:
  url: %q
  expected_status: %d

php_binary: %s
composer_binary: %s
timezone_file: %s
`,
		cfg.Timeout,
		cfg.Database.Connection, cfg.Database.Host, cfg.Database.Port,
		cfg.Database.Name, cfg.Database.Username, cfg.Database.Password,
		cfg.Redis.Host, cfg.Redis.Port,
		cfg.AppServer.Host, cfg.AppServer.Port,
		cfg.HTTP.URL, cfg.HTTP.ExpectedStatus,
		cfg.PHPBinary, cfg.ComposerBinary, cfg.TimezoneFile,
	)
}

var placeholder = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ResolveEnv replaces environment variable placeholders with actual values
// Supports ${VAR_NAME} syntax only, so a bare $ in a password survives
func ResolveEnv(value string) string {
	return placeholder.ReplaceAllStringFunc(value, func(m string) string {
		return os.Getenv(m[2 : len(m)-1])
	})
}
