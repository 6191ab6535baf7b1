package converter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePresentationBackend struct {
	available bool
	slides    int
	err       error
	gotDPI    int
	gotFormat string
	converted string
}

func (f *fakePresentationBackend) Available() bool { return f.available }

func (f *fakePresentationBackend) Convert(ctx context.Context, input, outFormat, outDir string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.converted = outFormat
	stem := filepath.Base(input[:len(input)-len(filepath.Ext(input))])
	artifact := filepath.Join(outDir, stem+"."+outFormat)
	if err := os.WriteFile(artifact, []byte("out"), 0o644); err != nil {
		return "", err
	}
	return artifact, nil
}

func (f *fakePresentationBackend) SlidesToImages(ctx context.Context, input, outDir, format string, dpi int) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.gotDPI = dpi
	f.gotFormat = format
	stem := filepath.Base(input[:len(input)-len(filepath.Ext(input))])
	var out []string
	for i := 1; i <= f.slides; i++ {
		p := filepath.Join(outDir, fmt.Sprintf("%s_slide_%d.%s", stem, i, format))
		if err := os.WriteFile(p, []byte("img"), 0o644); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func TestPresentationToImagesReturnsFirstSlide(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "deck.pptx")
	require.NoError(t, os.WriteFile(input, []byte("pk"), 0o644))

	fake := &fakePresentationBackend{available: true, slides: 3}
	c := NewPresentationConverter(fake)

	result := c.Convert(context.Background(), input, "png", &Options{DPI: 96})
	require.True(t, result.Success, result.Error)
	assert.Equal(t, filepath.Join(dir, "deck_slide_1.png"), result.OutputPath)
	assert.Equal(t, 96, fake.gotDPI)
	assert.Equal(t, "png", fake.gotFormat)

	// All three slides exist next to the input.
	for i := 1; i <= 3; i++ {
		assert.FileExists(t, filepath.Join(dir, fmt.Sprintf("deck_slide_%d.png", i)))
	}
}

func TestPresentationJPEGAlias(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "deck.pptx")
	require.NoError(t, os.WriteFile(input, []byte("pk"), 0o644))

	fake := &fakePresentationBackend{available: true, slides: 2}
	c := NewPresentationConverter(fake)

	// Both spellings are advertised and take the per-slide path.
	assert.Contains(t, c.OutputFormats(), "jpg")
	assert.Contains(t, c.OutputFormats(), "jpeg")

	result := c.Convert(context.Background(), input, "jpeg", nil)
	require.True(t, result.Success, result.Error)
	assert.Equal(t, "jpeg", fake.gotFormat)
	assert.Equal(t, filepath.Join(dir, "deck_slide_1.jpeg"), result.OutputPath)
}

func TestPresentationToPDF(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "deck.odp")
	require.NoError(t, os.WriteFile(input, []byte("pk"), 0o644))

	fake := &fakePresentationBackend{available: true}
	c := NewPresentationConverter(fake)

	result := c.Convert(context.Background(), input, "pdf", nil)
	require.True(t, result.Success, result.Error)
	assert.Equal(t, filepath.Join(dir, "deck.pdf"), result.OutputPath)
	assert.Equal(t, "pdf", fake.converted)
}

func TestPresentationUnavailable(t *testing.T) {
	c := NewPresentationConverter(&fakePresentationBackend{available: false})
	result := c.Convert(context.Background(), "deck.pptx", "pdf", nil)
	require.False(t, result.Success)
	assert.Contains(t, result.Error, "LibreOffice not available")
}

func TestPresentationRefusesToOverwrite(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "deck.pptx")
	require.NoError(t, os.WriteFile(input, []byte("pk"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "deck.pdf"), []byte("old"), 0o644))

	c := NewPresentationConverter(&fakePresentationBackend{available: true})
	result := c.Convert(context.Background(), input, "pdf", nil)
	require.False(t, result.Success)
	assert.Contains(t, result.Error, "already exists")
}
