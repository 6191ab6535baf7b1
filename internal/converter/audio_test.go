package converter

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convsuite/convsuite/internal/backend"
)

type fakeAudioBackend struct {
	available bool
	err       error
	job       backend.AudioJob
	progress  []float64
}

func (f *fakeAudioBackend) Available() bool { return f.available }

func (f *fakeAudioBackend) ConvertAudio(ctx context.Context, job backend.AudioJob) error {
	f.job = job
	if job.OnProgress != nil {
		for _, p := range []float64{0.0, 0.5, 1.0} {
			job.OnProgress(p)
		}
	}
	return f.err
}

func TestAudioConvertUsesRecommendedDefaults(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "track.wav")
	require.NoError(t, os.WriteFile(input, []byte("RIFF"), 0o644))

	fake := &fakeAudioBackend{available: true}
	c := NewAudioConverter(fake)

	result := c.Convert(context.Background(), input, "mp3", nil)
	require.True(t, result.Success, result.Error)
	assert.Equal(t, filepath.Join(dir, "track.mp3"), result.OutputPath)
	assert.Equal(t, "libmp3lame", fake.job.Codec)
	assert.Equal(t, "192k", fake.job.Bitrate)
}

func TestAudioConvertOptionOverrides(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "track.flac")
	require.NoError(t, os.WriteFile(input, []byte("fLaC"), 0o644))

	fake := &fakeAudioBackend{available: true}
	c := NewAudioConverter(fake)

	result := c.Convert(context.Background(), input, "ogg", &Options{
		AudioCodec:   "custom",
		AudioBitrate: "320k",
		SampleRate:   48000,
	})
	require.True(t, result.Success, result.Error)
	assert.Equal(t, "custom", fake.job.Codec)
	assert.Equal(t, "320k", fake.job.Bitrate)
	assert.Equal(t, 48000, fake.job.SampleRate)
}

func TestAudioConvertProgressBand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "track.wav")
	require.NoError(t, os.WriteFile(input, []byte("RIFF"), 0o644))

	fake := &fakeAudioBackend{available: true}
	c := NewAudioConverter(fake)

	var got []float64
	result := c.Convert(context.Background(), input, "mp3", &Options{
		OnProgress: func(p float64, _ string) { got = append(got, p) },
	})
	require.True(t, result.Success)

	// Backend fractions 0, 0.5, 1 land in the 20-95% band, bracketed by
	// the preparation and completion updates.
	require.Len(t, got, 6)
	assert.InDelta(t, 0.2, got[2], 1e-9)
	assert.InDelta(t, 0.575, got[3], 1e-9)
	assert.InDelta(t, 0.95, got[4], 1e-9)
	assert.Equal(t, 1.0, got[5])
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i], got[i-1])
	}
}

func TestAudioConvertBackendUnavailable(t *testing.T) {
	c := NewAudioConverter(&fakeAudioBackend{available: false})
	result := c.Convert(context.Background(), "track.wav", "mp3", nil)
	require.False(t, result.Success)
	assert.Contains(t, result.Error, "FFmpeg not available")

	ok, _ := c.ValidateDependencies()
	assert.False(t, ok)
}

func TestAudioConvertRefusesToOverwrite(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "track.wav")
	require.NoError(t, os.WriteFile(input, []byte("RIFF"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "track.mp3"), []byte("old"), 0o644))

	c := NewAudioConverter(&fakeAudioBackend{available: true})
	result := c.Convert(context.Background(), input, "mp3", nil)
	require.False(t, result.Success)
	assert.Contains(t, result.Error, "already exists")
}

func TestAudioConvertBackendFailure(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "track.wav")
	require.NoError(t, os.WriteFile(input, []byte("RIFF"), 0o644))

	c := NewAudioConverter(&fakeAudioBackend{available: true, err: errors.New("encoder exploded")})
	result := c.Convert(context.Background(), input, "mp3", nil)
	require.False(t, result.Success)
	assert.Contains(t, result.Error, "encoder exploded")
}

func TestAudioConverterAcceptsVideoInputs(t *testing.T) {
	c := NewAudioConverter(&fakeAudioBackend{available: true})
	assert.Contains(t, c.InputFormats(), "mp4")
	assert.Contains(t, c.InputFormats(), "mkv")
	assert.NotContains(t, c.OutputFormats(), "mp4")
}
