// Package cli implements the convsuite command line interface.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/convsuite/convsuite/internal/backend"
	"github.com/convsuite/convsuite/internal/config"
	"github.com/convsuite/convsuite/internal/converter"
	"github.com/convsuite/convsuite/internal/deps"
	"github.com/convsuite/convsuite/internal/execx"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "convsuite",
	Short: "Convert files between image, audio, video and document formats",
	Long: `convsuite converts files between formats using local tools
(ffmpeg, pandoc, LibreOffice, pdftoppm) plus built-in image handling.
It can run one-off conversions or serve a watch-and-convert daemon.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to a TOML config file")
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg := config.Load()
	if configFile != "" {
		if err := cfg.ApplyFile(configFile); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// buildRegistry wires the default converters against locally resolved
// tools.
func buildRegistry(cfg *config.Config) (*converter.Registry, *deps.Locator) {
	runner := execx.New()
	locator := deps.NewLocator(cfg.DepsDir, runner)
	ffmpeg := backend.NewFFmpeg(locator, runner)
	pandoc := backend.NewPandoc(locator, runner)
	rasterizer := backend.NewPDFToPPM(locator, runner)
	office := backend.NewSoffice(locator, rasterizer, runner)
	return converter.NewDefaultRegistry(ffmpeg, pandoc, office), locator
}
