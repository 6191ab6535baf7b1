package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/convsuite/convsuite/internal/deps"
	"github.com/convsuite/convsuite/internal/execx"
)

const sofficeTimeout = 120 * time.Second

// Rasterizer renders PDF pages to image files. It is consumed only by
// the slides-to-images pipeline.
type Rasterizer interface {
	Available() bool
	// Rasterize renders every page of the PDF into outDir using the
	// given filename prefix, returning the page image paths in page
	// order.
	Rasterize(ctx context.Context, pdfPath, outDir, prefix, format string, dpi int) ([]string, error)
}

// Soffice wraps LibreOffice in headless mode for office-document and
// presentation conversion.
type Soffice struct {
	path       string
	rasterizer Rasterizer
	runner     execx.Runner
}

// NewSoffice resolves the soffice executable through the locator. The
// rasterizer may be nil when slide export is not needed.
func NewSoffice(loc *deps.Locator, rasterizer Rasterizer, runner execx.Runner) *Soffice {
	s := &Soffice{rasterizer: rasterizer, runner: runner}
	if info := loc.Resolve(deps.ToolSoffice); info.Available {
		s.path = info.Path
	}
	return s
}

// Available reports whether soffice was resolved.
func (s *Soffice) Available() bool { return s != nil && s.path != "" }

// Convert converts a document through LibreOffice headless mode and
// returns the produced artifact path. LibreOffice picks the output
// filename itself, so the artifact is located by scanning the output
// directory afterwards; a zero exit without an artifact is an error.
func (s *Soffice) Convert(ctx context.Context, input, outFormat, outDir string) (string, error) {
	if !s.Available() {
		return "", fmt.Errorf("libreoffice: %w", ErrUnavailable)
	}

	outFormat = strings.ToLower(strings.TrimLeft(outFormat, "."))
	if outDir == "" {
		outDir = filepath.Dir(input)
	}
	if err := ensureDir(outDir); err != nil {
		return "", err
	}

	args := []string{
		"--headless",
		"--convert-to", outFormat,
		"--outdir", outDir,
		input,
	}
	res, err := s.runner.Run(ctx, s.path, args, sofficeTimeout)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("libreoffice: %w", ErrTimeout)
		}
		return "", fmt.Errorf("libreoffice: %w", err)
	}
	if res.ExitCode != 0 {
		return "", processError("libreoffice", res)
	}

	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	expected := filepath.Join(outDir, stem+"."+outFormat)
	if fileExists(expected) {
		return expected, nil
	}
	// LibreOffice sometimes writes a different extension than asked.
	for _, ext := range []string{"pdf", "png"} {
		alt := filepath.Join(outDir, stem+"."+ext)
		if fileExists(alt) {
			return alt, nil
		}
	}
	return "", fmt.Errorf("libreoffice: %w", ErrOutputMissing)
}

// SlidesToImages exports each slide of a presentation as an image
// named {stem}_slide_{n}.{format} with n starting at 1. It is a
// two-stage pipeline: headless conversion to an intermediate PDF in a
// scoped temp directory, then rasterization of each PDF page.
func (s *Soffice) SlidesToImages(ctx context.Context, input, outDir, format string, dpi int) ([]string, error) {
	if !s.Available() {
		return nil, fmt.Errorf("libreoffice: %w", ErrUnavailable)
	}
	if s.rasterizer == nil || !s.rasterizer.Available() {
		return nil, fmt.Errorf("pdf rasterizer: %w", ErrUnavailable)
	}

	format = strings.ToLower(strings.TrimLeft(format, "."))
	if dpi <= 0 {
		dpi = 150
	}
	if err := ensureDir(outDir); err != nil {
		return nil, err
	}

	tempDir, err := os.MkdirTemp("", "convsuite-slides-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tempDir)

	pdfPath, err := s.Convert(ctx, input, "pdf", tempDir)
	if err != nil {
		return nil, fmt.Errorf("slides to pdf: %w", err)
	}

	pages, err := s.rasterizer.Rasterize(ctx, pdfPath, tempDir, "page", format, dpi)
	if err != nil {
		return nil, fmt.Errorf("rasterize pdf: %w", err)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("rasterize pdf: %w", ErrOutputMissing)
	}

	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	outputs := make([]string, 0, len(pages))
	for i, page := range pages {
		dst := filepath.Join(outDir, fmt.Sprintf("%s_slide_%d.%s", stem, i+1, format))
		if err := moveFile(page, dst); err != nil {
			return nil, err
		}
		outputs = append(outputs, dst)
	}
	return outputs, nil
}

// moveFile renames src to dst, copying when rename crosses devices.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
