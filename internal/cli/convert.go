package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/convsuite/convsuite/internal/converter"
)

var convertOpts = converter.Options{}
var convertTo string

var convertCmd = &cobra.Command{
	Use:   "convert <file>",
	Short: "Convert a single file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if convertTo == "" {
			return fmt.Errorf("--to is required")
		}
		registry, _ := buildRegistry(cfg)

		input := args[0]
		inFormat := converter.FileFormat(input)
		outFormat := converter.NormalizeFormat(convertTo)
		conv := registry.FindConverter(inFormat, outFormat)
		if conv == nil {
			return fmt.Errorf("unsupported conversion: %s -> %s", inFormat, outFormat)
		}
		if ok, msg := conv.ValidateDependencies(); !ok {
			return fmt.Errorf("%s: %s", conv.Name(), msg)
		}

		opts := convertOpts
		if opts.Quality == 0 {
			opts.Quality = cfg.Quality
		}
		opts.OnProgress = func(progress float64, message string) {
			fmt.Printf("\r[%3.0f%%] %-50s", progress*100, message)
		}

		result := conv.Convert(cmd.Context(), input, outFormat, &opts)
		fmt.Println()
		if !result.Success {
			return fmt.Errorf("conversion failed: %s", result.Error)
		}
		fmt.Printf("%s (%s)\n", result.OutputPath, result.Elapsed.Round(10*time.Millisecond))
		return nil
	},
}

func init() {
	f := convertCmd.Flags()
	f.StringVar(&convertTo, "to", "", "output format, e.g. jpg, mp3, pdf")
	f.StringVar(&convertOpts.OutputDir, "out", "", "output directory (default: next to the input)")
	f.BoolVar(&convertOpts.Overwrite, "overwrite", false, "overwrite an existing output file")
	f.IntVar(&convertOpts.Quality, "quality", 0, "quality for lossy image formats (1-100)")
	f.IntVar(&convertOpts.Width, "width", 0, "output width in pixels")
	f.IntVar(&convertOpts.Height, "height", 0, "output height in pixels")
	f.IntVar(&convertOpts.DPI, "dpi", 0, "rasterization DPI for slide images")
	f.StringVar(&convertOpts.VideoCodec, "video-codec", "", "video codec override")
	f.StringVar(&convertOpts.VideoBitrate, "video-bitrate", "", "video bitrate, e.g. 2M")
	f.IntVar(&convertOpts.FPS, "fps", 0, "output frame rate")
	f.StringVar(&convertOpts.AudioCodec, "audio-codec", "", "audio codec override")
	f.StringVar(&convertOpts.AudioBitrate, "audio-bitrate", "", "audio bitrate, e.g. 192k")
	f.IntVar(&convertOpts.SampleRate, "sample-rate", 0, "audio sample rate in Hz")
	f.StringVar(&convertOpts.PageRange, "pages", "", "page range for document conversions, e.g. 1-5")
	rootCmd.AddCommand(convertCmd)
}
