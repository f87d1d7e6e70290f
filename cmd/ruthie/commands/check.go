package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate a policy file",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		schemas := cfg.SchemaMap()
		actions := make([]string, 0, len(schemas))
		for action := range schemas {
			actions = append(actions, action)
		}
		sort.Strings(actions)

		fmt.Println("Policy OK")
		fmt.Println("  listen:", cfg.Listen)
		fmt.Printf("  silence tiers: %s / %s / %s\n",
			cfg.Silence.CheckIn, cfg.Silence.Reassure, cfg.Silence.Transfer)
		fmt.Println("  denylist patterns:", len(cfg.Sanitize.Denylist))
		fmt.Println("  flows:")
		for _, action := range actions {
			fmt.Printf("    %s (%d fields)\n", action, len(schemas[action].Fields))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
