// Package converter contains the conversion orchestration core: the
// request/result model, the per-category converters that map abstract
// conversion requests onto backend calls, and the registry that picks
// a converter for a format pair.
package converter

import (
	"context"
	"time"
)

// Category groups converters by the kind of file they handle.
type Category string

const (
	CategoryImage        Category = "image"
	CategoryAudio        Category = "audio"
	CategoryVideo        Category = "video"
	CategoryDocument     Category = "document"
	CategoryPresentation Category = "presentation"
)

// ProgressFunc receives progress updates as a fraction in [0,1] plus a
// short human-readable message.
type ProgressFunc func(progress float64, message string)

// Options configures one conversion. Unset fields mean "use the
// backend's default". Extra carries backend-specific knobs that have
// no first-class field.
type Options struct {
	OutputDir string `json:"output_dir,omitempty"`
	Overwrite bool   `json:"overwrite,omitempty"`

	// Image options
	Quality int `json:"quality,omitempty"` // 1-100 for lossy formats
	Width   int `json:"width,omitempty"`
	Height  int `json:"height,omitempty"`
	DPI     int `json:"dpi,omitempty"`

	// Video options
	VideoCodec   string `json:"video_codec,omitempty"`
	VideoBitrate string `json:"video_bitrate,omitempty"`
	FPS          int    `json:"fps,omitempty"`

	// Audio options
	AudioCodec   string `json:"audio_codec,omitempty"`
	AudioBitrate string `json:"audio_bitrate,omitempty"`
	SampleRate   int    `json:"sample_rate,omitempty"`

	// Document options
	PageRange string `json:"page_range,omitempty"` // e.g. "1-5,7,10"

	Extra map[string]string `json:"extra,omitempty"`

	// OnProgress, when set, receives progress updates during the
	// conversion. It never travels over the wire.
	OnProgress ProgressFunc `json:"-"`
}

// report delivers a clamped progress update when a callback is set.
func (o *Options) report(progress float64, message string) {
	if o == nil || o.OnProgress == nil {
		return
	}
	if progress < 0 {
		progress = 0
	} else if progress > 1 {
		progress = 1
	}
	o.OnProgress(progress, message)
}

// Result is the outcome of one conversion attempt. Exactly one of
// OutputPath and Error is meaningful depending on Success. For
// multi-output conversions OutputPath holds the first artifact.
type Result struct {
	Success    bool          `json:"success"`
	InputPath  string        `json:"input_path"`
	OutputPath string        `json:"output_path,omitempty"`
	Error      string        `json:"error,omitempty"`
	Elapsed    time.Duration `json:"elapsed"`
}

func success(input, output string, start time.Time) Result {
	return Result{
		Success:    true,
		InputPath:  input,
		OutputPath: output,
		Elapsed:    time.Since(start),
	}
}

func failure(input, message string, start time.Time) Result {
	return Result{
		Success:   false,
		InputPath: input,
		Error:     message,
		Elapsed:   time.Since(start),
	}
}

// Converter translates conversion requests for one file category into
// backend calls. Implementations never panic past Convert; every
// failure path degrades to a Result with Success=false.
type Converter interface {
	// Category returns the file category this converter handles.
	Category() Category
	// Name is a human-readable converter name.
	Name() string
	// InputFormats lists accepted input extensions, lower-case, no dot.
	InputFormats() []string
	// OutputFormats lists producible output extensions.
	OutputFormats() []string
	// ValidateDependencies reports whether required external tools are
	// present, with a human-readable message either way.
	ValidateDependencies() (bool, string)
	// Convert converts inputPath to outputFormat.
	Convert(ctx context.Context, inputPath, outputFormat string, opts *Options) Result
}
