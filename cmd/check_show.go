package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goodparty/infracheck/internal/readiness"
	"github.com/goodparty/infracheck/internal/suite"
)

var checkShowCmd = &cobra.Command{
	Use:   "check:show <name>",
	Short: "Show details of a specific check",
	Long: `Display what a check verifies and the endpoint it targets once the
configuration file, .env and environment have been applied.

Example:
  infracheck check:show database`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		spec, ok := readiness.Find(suite.Build(cfg, suite.Deps{}), args[0])
		if !ok {
			return fmt.Errorf("check '%s' not found (run 'infracheck check:list')", args[0])
		}

		checkTimeout := spec.Timeout
		if checkTimeout == 0 {
			checkTimeout = readiness.DefaultTimeout
		}

		fmt.Printf("Check: %s\n", spec.Name)
		fmt.Println("─────────────────────────────────────")
		fmt.Printf("Description:  %s\n", spec.Description)
		if spec.Target != "" {
			fmt.Printf("Target:       %s\n", spec.Target)
		}
		fmt.Printf("Timeout:      %s\n", checkTimeout)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkShowCmd)
}
