package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var depsCmd = &cobra.Command{
	Use:   "deps",
	Short: "Show the status of the external tools",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		registry, locator := buildRegistry(cfg)

		fmt.Println("External tools:")
		for _, info := range locator.CheckAll() {
			if info.Available {
				fmt.Printf("  %-10s %s", info.Name, info.Path)
				if info.Version != "" {
					fmt.Printf(" (%s)", info.Version)
				}
				fmt.Println()
			} else {
				fmt.Printf("  %-10s MISSING: %s\n", info.Name, info.Err)
			}
		}

		fmt.Println("Converters:")
		for _, c := range registry.Converters() {
			ok, msg := c.ValidateDependencies()
			state := "ready"
			if !ok {
				state = "unavailable"
			}
			fmt.Printf("  %-24s %-11s %s\n", c.Name(), state, msg)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(depsCmd)
}
