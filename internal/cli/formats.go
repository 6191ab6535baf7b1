package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/convsuite/convsuite/internal/converter"
)

var formatsCmd = &cobra.Command{
	Use:   "formats [extension]",
	Short: "List supported conversions",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		registry, _ := buildRegistry(cfg)

		if len(args) == 1 {
			ext := converter.NormalizeFormat(args[0])
			outputs := registry.OutputFormatsFor(ext)
			if len(outputs) == 0 {
				return fmt.Errorf("no conversions available for %q", ext)
			}
			fmt.Printf("%s -> %s\n", ext, strings.Join(outputs, ", "))
			return nil
		}

		graph := registry.Conversions()
		inputs := make([]string, 0, len(graph))
		for in := range graph {
			inputs = append(inputs, in)
		}
		sort.Strings(inputs)
		for _, in := range inputs {
			fmt.Printf("%-6s -> %s\n", in, strings.Join(graph[in], ", "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(formatsCmd)
}
