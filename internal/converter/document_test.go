package converter

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMarkupBackend struct {
	available bool
	err       error
	calls     int
	writeOut  bool
}

func (f *fakeMarkupBackend) Available() bool { return f.available }

func (f *fakeMarkupBackend) Convert(ctx context.Context, input, output, inFormat, outFormat string, extraArgs []string) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	if f.writeOut {
		return os.WriteFile(output, []byte("converted"), 0o644)
	}
	return nil
}

type fakeOfficeBackend struct {
	available bool
	err       error
	calls     int
	writeOut  bool
	outFormat string
	altExt    string
}

func (f *fakeOfficeBackend) Available() bool { return f.available }

func (f *fakeOfficeBackend) Convert(ctx context.Context, input, outFormat, outDir string) (string, error) {
	f.calls++
	f.outFormat = outFormat
	if f.err != nil {
		return "", f.err
	}
	ext := outFormat
	if f.altExt != "" {
		ext = f.altExt
	}
	stem := input[:len(input)-len(filepath.Ext(input))]
	artifact := filepath.Join(outDir, filepath.Base(stem)+"."+ext)
	if f.writeOut {
		if err := os.WriteFile(artifact, []byte("converted"), 0o644); err != nil {
			return "", err
		}
	}
	return artifact, nil
}

func TestDocumentMarkupFormatsGoToPandoc(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "notes.md")
	require.NoError(t, os.WriteFile(input, []byte("# hi"), 0o644))

	markup := &fakeMarkupBackend{available: true, writeOut: true}
	office := &fakeOfficeBackend{available: true, writeOut: true}
	c := NewDocumentConverter(markup, office)

	result := c.Convert(context.Background(), input, "html", nil)
	require.True(t, result.Success, result.Error)
	assert.Equal(t, filepath.Join(dir, "notes.html"), result.OutputPath)
	assert.Equal(t, 1, markup.calls)
	assert.Zero(t, office.calls)
}

func TestDocumentOfficeFormatsGoToLibreOffice(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "report.docx")
	require.NoError(t, os.WriteFile(input, []byte("pk"), 0o644))

	markup := &fakeMarkupBackend{available: true, writeOut: true}
	office := &fakeOfficeBackend{available: true, writeOut: true}
	c := NewDocumentConverter(markup, office)

	result := c.Convert(context.Background(), input, "pdf", nil)
	require.True(t, result.Success, result.Error)
	assert.Equal(t, 1, office.calls)
	assert.Zero(t, markup.calls)
	assert.Equal(t, "pdf", office.outFormat)
}

func TestDocumentFallsBackToOfficeWhenPandocMissing(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "report.docx")
	require.NoError(t, os.WriteFile(input, []byte("pk"), 0o644))

	markup := &fakeMarkupBackend{available: false}
	office := &fakeOfficeBackend{available: true, writeOut: true}
	c := NewDocumentConverter(markup, office)

	result := c.Convert(context.Background(), input, "odt", nil)
	require.True(t, result.Success, result.Error)
	assert.Equal(t, 1, office.calls)
}

func TestDocumentUsesOfficeArtifactPath(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "report.docx")
	require.NoError(t, os.WriteFile(input, []byte("pk"), 0o644))

	// LibreOffice sometimes writes the artifact under a different
	// extension than the one asked for.
	office := &fakeOfficeBackend{available: true, writeOut: true, altExt: "ott"}
	c := NewDocumentConverter(&fakeMarkupBackend{}, office)

	result := c.Convert(context.Background(), input, "odt", nil)
	require.True(t, result.Success, result.Error)
	assert.Equal(t, filepath.Join(dir, "report.ott"), result.OutputPath)
	assert.FileExists(t, result.OutputPath)
}

func TestDocumentNoBackendAvailable(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "notes.xyz")
	require.NoError(t, os.WriteFile(input, []byte("?"), 0o644))

	c := NewDocumentConverter(&fakeMarkupBackend{}, &fakeOfficeBackend{})
	result := c.Convert(context.Background(), input, "abc", nil)
	require.False(t, result.Success)
	assert.Contains(t, result.Error, "no suitable backend available")

	ok, msg := c.ValidateDependencies()
	assert.False(t, ok)
	assert.Contains(t, msg, "Neither")
}

func TestDocumentFailsWhenArtifactMissing(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "notes.md")
	require.NoError(t, os.WriteFile(input, []byte("# hi"), 0o644))

	// The backend claims success but writes nothing.
	markup := &fakeMarkupBackend{available: true, writeOut: false}
	c := NewDocumentConverter(markup, &fakeOfficeBackend{})

	result := c.Convert(context.Background(), input, "html", nil)
	require.False(t, result.Success)
	assert.Equal(t, "output file not found after conversion", result.Error)
}

func TestDocumentBackendErrorBecomesResult(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "notes.md")
	require.NoError(t, os.WriteFile(input, []byte("# hi"), 0o644))

	markup := &fakeMarkupBackend{available: true, err: errors.New("pandoc: parse error")}
	c := NewDocumentConverter(markup, &fakeOfficeBackend{})

	result := c.Convert(context.Background(), input, "html", nil)
	require.False(t, result.Success)
	assert.Contains(t, result.Error, "parse error")
}

func TestDocumentValidatePartialBackends(t *testing.T) {
	c := NewDocumentConverter(&fakeMarkupBackend{available: true}, &fakeOfficeBackend{})
	ok, msg := c.ValidateDependencies()
	assert.True(t, ok)
	assert.Contains(t, msg, "Pandoc")

	c = NewDocumentConverter(&fakeMarkupBackend{}, &fakeOfficeBackend{available: true})
	ok, msg = c.ValidateDependencies()
	assert.True(t, ok)
	assert.Contains(t, msg, "LibreOffice")
}
