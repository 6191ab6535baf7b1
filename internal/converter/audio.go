package converter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/convsuite/convsuite/internal/backend"
)

// AudioBackend is the slice of the ffmpeg wrapper the audio converter
// needs.
type AudioBackend interface {
	Available() bool
	ConvertAudio(ctx context.Context, job backend.AudioJob) error
}

// AudioConverter converts between audio formats and extracts audio
// tracks from video files via the ffmpeg backend.
type AudioConverter struct {
	ffmpeg AudioBackend
}

// NewAudioConverter creates the audio converter.
func NewAudioConverter(ffmpeg AudioBackend) *AudioConverter {
	return &AudioConverter{ffmpeg: ffmpeg}
}

func (c *AudioConverter) Category() Category { return CategoryAudio }

func (c *AudioConverter) Name() string { return "Audio Converter (FFmpeg)" }

// InputFormats includes video formats for audio track extraction.
func (c *AudioConverter) InputFormats() []string {
	return []string{
		"mp3", "wav", "flac", "ogg", "m4a", "aac", "wma", "opus",
		"mp4", "mkv", "avi", "mov", "webm", "flv",
	}
}

func (c *AudioConverter) OutputFormats() []string {
	return []string{"mp3", "wav", "flac", "ogg", "m4a", "aac", "opus"}
}

func (c *AudioConverter) ValidateDependencies() (bool, string) {
	if c.ffmpeg.Available() {
		return true, "FFmpeg available"
	}
	return false, "FFmpeg not found. Please install FFmpeg."
}

func (c *AudioConverter) Convert(ctx context.Context, inputPath, outputFormat string, opts *Options) Result {
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

	codec := opts.AudioCodec
	if codec == "" {
		codec = backend.AudioCodecFor(outputFormat)
	}
	bitrate := opts.AudioBitrate
	if bitrate == "" {
		bitrate = backend.AudioBitrateFor(outputFormat)
	}

	opts.report(0.2, fmt.Sprintf("Converting to %s", outputFormat))

	// Backend progress covers the 20-95% band; the edges model request
	// preparation and completion bookkeeping.
	err := c.ffmpeg.ConvertAudio(ctx, backend.AudioJob{
		Input:      inputPath,
		Output:     outputPath,
		Codec:      codec,
		Bitrate:    bitrate,
		SampleRate: opts.SampleRate,
		OnProgress: func(p float64) {
			opts.report(0.2+p*0.75, "Converting...")
		},
	})
	if err != nil {
		return failure(inputPath, err.Error(), start)
	}

	opts.report(1.0, "Complete")
	return success(inputPath, outputPath, start)
}
