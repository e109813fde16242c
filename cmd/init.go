package cmd

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/goodparty/infracheck/internal/config"
)

var (
	forceInit       bool
	interactiveInit bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize infracheck configuration",
	Long: `Create a new infracheck configuration file at ~/.config/infracheck/config.yml
(or the path given with --config) with the default endpoints. Use --interactive
to fill in the database, Redis and application URL from a form.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			p, err := config.GetConfigPath()
			if err != nil {
				return err
			}
			path = p
		}

		cfg := config.Default()
		if interactiveInit {
			if err := runInitForm(&cfg); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
		}

		if err := config.InitConfig(path, cfg, forceInit); err != nil {
			return err
		}

		if forceInit {
			fmt.Printf("✓ Configuration reset at %s\n", path)
		} else {
			fmt.Printf("✓ Configuration initialized at %s\n", path)
		}

		fmt.Println("\nEdit the config file or export DB_*, REDIS_* and APP_URL, then run:")
		fmt.Println("  infracheck")

		return nil
	},
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "overwrite existing configuration")
	initCmd.Flags().BoolVarP(&interactiveInit, "interactive", "i", false, "prompt for connection settings")
	rootCmd.AddCommand(initCmd)
}

// initForm holds the form fields as strings; huh inputs are text-only.
type initForm struct {
	Connection string
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	RedisHost  string
	RedisPort  string
	AppURL     string
}

func runInitForm(cfg *config.Config) error {
	data := initForm{
		Connection: cfg.Database.Connection,
		DBHost:     cfg.Database.Host,
		DBPort:     strconv.Itoa(cfg.Database.Port),
		DBName:     cfg.Database.Name,
		DBUser:     cfg.Database.Username,
		DBPassword: cfg.Database.Password,
		RedisHost:  cfg.Redis.Host,
		RedisPort:  strconv.Itoa(cfg.Redis.Port),
		AppURL:     cfg.HTTP.URL,
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Database Driver").
				Options(
					huh.NewOption("MySQL", "mysql"),
					huh.NewOption("PostgreSQL", "pgsql"),
				).
				Value(&data.Connection),
			huh.NewInput().
				Title("Database Host").
				Value(&data.DBHost),
			huh.NewInput().
				Title("Database Port").
				Validate(validatePort).
				Value(&data.DBPort),
			huh.NewInput().
				Title("Database Name").
				Value(&data.DBName),
			huh.NewInput().
				Title("Database Username").
				Value(&data.DBUser),
			huh.NewInput().
				Title("Database Password").
				EchoMode(huh.EchoModePassword).
				Value(&data.DBPassword),
		).Title("Database"),
		huh.NewGroup(
			huh.NewInput().
				Title("Redis Host").
				Value(&data.RedisHost),
			huh.NewInput().
				Title("Redis Port").
				Validate(validatePort).
				Value(&data.RedisPort),
			huh.NewInput().
				Title("Application URL").
				Description("Requested as <url>/ by the http check").
				Value(&data.AppURL),
		).Title("Redis and HTTP"),
	).WithTheme(huh.ThemeCatppuccin()).WithWidth(80).WithShowHelp(true)

	if err := form.Run(); err != nil {
		return fmt.Errorf("form cancelled: %w", err)
	}

	cfg.Database.Connection = data.Connection
	cfg.Database.Host = data.DBHost
	cfg.Database.Port, _ = strconv.Atoi(data.DBPort)
	cfg.Database.Name = data.DBName
	cfg.Database.Username = data.DBUser
	cfg.Database.Password = data.DBPassword
	cfg.Redis.Host = data.RedisHost
	cfg.Redis.Port, _ = strconv.Atoi(data.RedisPort)
	cfg.HTTP.URL = data.AppURL

	return nil
}

func validatePort(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 65535 {
		return fmt.Errorf("port must be a number between 1 and 65535")
	}
	return nil
}
