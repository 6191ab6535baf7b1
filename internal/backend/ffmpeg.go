package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/convsuite/convsuite/internal/deps"
	"github.com/convsuite/convsuite/internal/execx"
)

const (
	probeTimeout = 30 * time.Second
	gifTimeout   = 300 * time.Second
)

// FFmpeg wraps the ffmpeg and ffprobe executables for audio and video
// transcoding. Streaming conversions have no timeout; their progress
// is observable through elapsed-time markers instead.
type FFmpeg struct {
	path      string
	probePath string
	runner    execx.Runner
}

// NewFFmpeg resolves ffmpeg/ffprobe through the locator. Paths are
// fixed at construction; reconstruct after a locator cache clear.
func NewFFmpeg(loc *deps.Locator, runner execx.Runner) *FFmpeg {
	f := &FFmpeg{runner: runner}
	if info := loc.Resolve(deps.ToolFFmpeg); info.Available {
		f.path = info.Path
	}
	if info := loc.Resolve(deps.ToolFFprobe); info.Available {
		f.probePath = info.Path
	}
	return f
}

// Available reports whether ffmpeg was resolved.
func (f *FFmpeg) Available() bool { return f != nil && f.path != "" }

// MediaInfo is the subset of ffprobe output the converters need.
type MediaInfo struct {
	Format struct {
		FormatName string `json:"format_name"`
		Duration   string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		CodecName string `json:"codec_name"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
}

// Probe queries media metadata via ffprobe.
func (f *FFmpeg) Probe(ctx context.Context, path string) (*MediaInfo, error) {
	if f.probePath == "" {
		return nil, fmt.Errorf("ffprobe: %w", ErrUnavailable)
	}
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	}
	res, err := f.runner.Run(ctx, f.probePath, args, probeTimeout)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("ffprobe: %w", ErrTimeout)
		}
		return nil, fmt.Errorf("ffprobe: %w", err)
	}
	if res.ExitCode != 0 {
		return nil, processError("ffprobe", res)
	}
	var info MediaInfo
	if err := json.Unmarshal(res.Stdout, &info); err != nil {
		return nil, fmt.Errorf("ffprobe output: %w", err)
	}
	return &info, nil
}

// Duration returns the media duration in seconds. The boolean is false
// when the probe fails or reports no duration; callers must then skip
// progress reporting rather than fake it.
func (f *FFmpeg) Duration(ctx context.Context, path string) (float64, bool) {
	info, err := f.Probe(ctx, path)
	if err != nil {
		return 0, false
	}
	d, err := strconv.ParseFloat(info.Format.Duration, 64)
	if err != nil || d <= 0 {
		return 0, false
	}
	return d, true
}

// VideoJob describes one video transcode. Zero-valued fields are
// omitted from the command line so ffmpeg's defaults govern.
type VideoJob struct {
	Input        string
	Output       string
	VideoCodec   string
	AudioCodec   string
	VideoBitrate string
	AudioBitrate string
	Width        int
	Height       int
	FPS          int
	OnProgress   func(float64)
}

func videoArgs(job VideoJob) []string {
	args := []string{"-i", job.Input, "-y"}
	if job.VideoCodec != "" {
		args = append(args, "-c:v", job.VideoCodec)
	}
	if job.AudioCodec != "" {
		args = append(args, "-c:a", job.AudioCodec)
	}
	if job.VideoBitrate != "" {
		args = append(args, "-b:v", job.VideoBitrate)
	}
	if job.AudioBitrate != "" {
		args = append(args, "-b:a", job.AudioBitrate)
	}
	if job.Width > 0 && job.Height > 0 {
		args = append(args, "-vf", fmt.Sprintf("scale=%d:%d", job.Width, job.Height))
	}
	if job.FPS > 0 {
		args = append(args, "-r", strconv.Itoa(job.FPS))
	}
	return append(args, job.Output)
}

// ConvertVideo transcodes a video file, streaming progress through
// job.OnProgress when the source duration is known.
func (f *FFmpeg) ConvertVideo(ctx context.Context, job VideoJob) error {
	return f.stream(ctx, job.Input, job.Output, videoArgs(job), job.OnProgress)
}

// AudioJob describes one audio transcode or extraction.
type AudioJob struct {
	Input      string
	Output     string
	Codec      string
	Bitrate    string
	SampleRate int
	OnProgress func(float64)
}

func audioArgs(job AudioJob) []string {
	// -vn drops any video track (audio extraction from video inputs).
	args := []string{"-i", job.Input, "-y", "-vn"}
	if job.Codec != "" {
		args = append(args, "-c:a", job.Codec)
	}
	if job.Bitrate != "" {
		args = append(args, "-b:a", job.Bitrate)
	}
	if job.SampleRate > 0 {
		args = append(args, "-ar", strconv.Itoa(job.SampleRate))
	}
	return append(args, job.Output)
}

// ConvertAudio transcodes an audio file or extracts the audio track of
// a video file.
func (f *FFmpeg) ConvertAudio(ctx context.Context, job AudioJob) error {
	return f.stream(ctx, job.Input, job.Output, audioArgs(job), job.OnProgress)
}

// stream runs ffmpeg while draining its error stream for progress
// markers. The drain happens regardless of callback presence.
func (f *FFmpeg) stream(ctx context.Context, input, output string, args []string, onProgress func(float64)) error {
	if !f.Available() {
		return fmt.Errorf("ffmpeg: %w", ErrUnavailable)
	}
	if err := ensureDir(filepath.Dir(output)); err != nil {
		return err
	}

	// Duration is used only to turn elapsed-time markers into a
	// fraction; a failed probe simply disables progress.
	var duration float64
	if onProgress != nil {
		duration, _ = f.Duration(ctx, input)
	}

	proc, err := f.runner.Start(ctx, f.path, args)
	if err != nil {
		return fmt.Errorf("ffmpeg: %w", err)
	}
	tail := scanProgress(proc.Stderr(), duration, onProgress)
	if err := proc.Wait(); err != nil {
		msg := strings.Join(tail, "\n")
		if msg == "" {
			msg = err.Error()
		}
		return fmt.Errorf("ffmpeg: %s", msg)
	}
	if !fileExists(output) {
		return fmt.Errorf("ffmpeg: %w", ErrOutputMissing)
	}
	return nil
}

// GIFJob describes a video-to-GIF encoding. GIF output has no codec
// selection; it uses a fixed fps/scale filter pipeline.
type GIFJob struct {
	Input  string
	Output string
	FPS    int
	Width  int
}

func gifArgs(job GIFJob) []string {
	fps := job.FPS
	if fps <= 0 {
		fps = 10
	}
	width := job.Width
	if width <= 0 {
		width = 480
	}
	return []string{
		"-i", job.Input,
		"-y",
		"-vf", fmt.Sprintf("fps=%d,scale=%d:-1:flags=lanczos", fps, width),
		"-loop", "0",
		job.Output,
	}
}

// VideoToGIF encodes an animated GIF from a video file.
func (f *FFmpeg) VideoToGIF(ctx context.Context, job GIFJob) error {
	if !f.Available() {
		return fmt.Errorf("ffmpeg: %w", ErrUnavailable)
	}
	if err := ensureDir(filepath.Dir(job.Output)); err != nil {
		return err
	}
	res, err := f.runner.Run(ctx, f.path, gifArgs(job), gifTimeout)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("ffmpeg: %w", ErrTimeout)
		}
		return fmt.Errorf("ffmpeg: %w", err)
	}
	if res.ExitCode != 0 {
		return processError("ffmpeg", res)
	}
	if !fileExists(job.Output) {
		return fmt.Errorf("ffmpeg: %w", ErrOutputMissing)
	}
	return nil
}

// Recommended audio codecs per output format.
var audioCodecs = map[string]string{
	"mp3":  "libmp3lame",
	"aac":  "aac",
	"m4a":  "aac",
	"ogg":  "libvorbis",
	"flac": "flac",
	"wav":  "pcm_s16le",
	"opus": "libopus",
}

// Recommended audio bitrates per output format. Lossless formats are
// absent on purpose.
var audioBitrates = map[string]string{
	"mp3":  "192k",
	"aac":  "192k",
	"m4a":  "192k",
	"ogg":  "192k",
	"opus": "128k",
}

// AudioCodecFor returns the recommended codec for an audio output
// format, falling back to stream copy for unknown formats.
func AudioCodecFor(format string) string {
	if codec, ok := audioCodecs[strings.ToLower(format)]; ok {
		return codec
	}
	return "copy"
}

// AudioBitrateFor returns the recommended bitrate for an audio output
// format, or empty when the format has no recommendation.
func AudioBitrateFor(format string) string {
	return audioBitrates[strings.ToLower(format)]
}

// Recommended codec pairs per video container.
var videoCodecs = map[string][2]string{
	"mp4":  {"libx264", "aac"},
	"webm": {"libvpx-vp9", "libopus"},
	"mkv":  {"libx264", "aac"},
	"avi":  {"mpeg4", "mp3"},
	"mov":  {"libx264", "aac"},
}

// VideoCodecsFor returns the recommended (video, audio) codec pair for
// a container format. Unknown formats return empty strings, leaving
// codec choice to ffmpeg.
func VideoCodecsFor(format string) (string, string) {
	pair, ok := videoCodecs[strings.ToLower(format)]
	if !ok {
		return "", ""
	}
	return pair[0], pair[1]
}
