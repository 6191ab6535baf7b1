package converter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/convsuite/convsuite/internal/backend"
)

// VideoBackend is the slice of the ffmpeg wrapper the video converter
// needs.
type VideoBackend interface {
	Available() bool
	ConvertVideo(ctx context.Context, job backend.VideoJob) error
	VideoToGIF(ctx context.Context, job backend.GIFJob) error
}

// VideoConverter converts between video container formats via the
// ffmpeg backend. GIF output is a dedicated filter pipeline, not a
// generic transcode.
type VideoConverter struct {
	ffmpeg VideoBackend
}

// NewVideoConverter creates the video converter.
func NewVideoConverter(ffmpeg VideoBackend) *VideoConverter {
	return &VideoConverter{ffmpeg: ffmpeg}
}

func (c *VideoConverter) Category() Category { return CategoryVideo }

func (c *VideoConverter) Name() string { return "Video Converter (FFmpeg)" }

func (c *VideoConverter) InputFormats() []string {
	return []string{"mp4", "mkv", "avi", "mov", "webm", "flv", "wmv", "m4v", "3gp"}
}

func (c *VideoConverter) OutputFormats() []string {
	return []string{"mp4", "webm", "mkv", "avi", "mov", "gif"}
}

func (c *VideoConverter) ValidateDependencies() (bool, string) {
	if c.ffmpeg.Available() {
		return true, "FFmpeg available"
	}
	return false, "FFmpeg not found. Please install FFmpeg."
}

func (c *VideoConverter) Convert(ctx context.Context, inputPath, outputFormat string, opts *Options) Result {
	start := time.Now()
	if opts == nil {
		opts = &Options{}
	}
	outputFormat = NormalizeFormat(outputFormat)

	if !c.ffmpeg.Available() {
		return failure(inputPath, "FFmpeg not available", start)
	}

	opts.report(0.1, fmt.Sprintf("Preparing %s", filepath.Base(inputPath)))

	outputPath := OutputPath(inputPath, outputFormat, opts)
	if _, err := os.Stat(outputPath); err == nil && !opts.Overwrite {
		return failure(inputPath, fmt.Sprintf("output file already exists: %s", outputPath), start)
	}

	var err error
	if outputFormat == "gif" {
		// GIF ignores codec options entirely.
		opts.report(0.2, "Converting to GIF")
		err = c.ffmpeg.VideoToGIF(ctx, backend.GIFJob{
			Input:  inputPath,
			Output: outputPath,
			FPS:    opts.FPS,
			Width:  opts.Width,
		})
	} else {
		opts.report(0.2, fmt.Sprintf("Converting to %s", outputFormat))

		videoCodec, audioCodec := backend.VideoCodecsFor(outputFormat)
		if opts.VideoCodec != "" {
			videoCodec = opts.VideoCodec
		}
		if opts.AudioCodec != "" {
			audioCodec = opts.AudioCodec
		}

		job := backend.VideoJob{
			Input:        inputPath,
			Output:       outputPath,
			VideoCodec:   videoCodec,
			AudioCodec:   audioCodec,
			VideoBitrate: opts.VideoBitrate,
			AudioBitrate: opts.AudioBitrate,
			FPS:          opts.FPS,
			OnProgress: func(p float64) {
				opts.report(0.2+p*0.75, "Converting...")
			},
		}
		// Scaling needs both dimensions; a single one is left to the
		// tool's default behavior.
		if opts.Width > 0 && opts.Height > 0 {
			job.Width = opts.Width
			job.Height = opts.Height
		}
		err = c.ffmpeg.ConvertVideo(ctx, job)
	}
	if err != nil {
		return failure(inputPath, err.Error(), start)
	}

	opts.report(1.0, "Complete")
	return success(inputPath, outputPath, start)
}
