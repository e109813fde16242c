package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goodparty/infracheck/internal/suite"
)

var checkListCmd = &cobra.Command{
	Use:   "check:list",
	Short: "List all readiness checks",
	Long:  `Display every check infracheck runs, in the order they are reported.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		specs := suite.Build(cfg, suite.Deps{})

		fmt.Printf("Readiness checks (%d):\n\n", len(specs))
		for _, spec := range specs {
			fmt.Printf("  • %-17s %s\n", spec.Name, spec.Description)
		}
		fmt.Println("\nShow one with:")
		fmt.Println("  infracheck check:show <name>")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkListCmd)
}

