package backend

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/convsuite/convsuite/internal/deps"
	"github.com/convsuite/convsuite/internal/execx"
)

const rasterizeTimeout = 120 * time.Second

// PDFToPPM rasterizes PDF pages through poppler's pdftoppm tool.
type PDFToPPM struct {
	path   string
	runner execx.Runner
}

// NewPDFToPPM resolves pdftoppm through the locator.
func NewPDFToPPM(loc *deps.Locator, runner execx.Runner) *PDFToPPM {
	p := &PDFToPPM{runner: runner}
	if info := loc.Resolve(deps.ToolPdftoppm); info.Available {
		p.path = info.Path
	}
	return p
}

// Available reports whether pdftoppm was resolved.
func (p *PDFToPPM) Available() bool { return p != nil && p.path != "" }

func rasterizeArgs(pdfPath, outPrefix, format string, dpi int) ([]string, string, error) {
	var flag, ext string
	switch format {
	case "png":
		flag, ext = "-png", "png"
	case "jpg", "jpeg":
		flag, ext = "-jpeg", "jpg"
	default:
		return nil, "", fmt.Errorf("pdftoppm: unsupported image format %q", format)
	}
	args := []string{flag, "-r", strconv.Itoa(dpi), pdfPath, outPrefix}
	return args, ext, nil
}

// Rasterize renders each PDF page into outDir as prefix-N.{png,jpg}
// and returns the page files in page order. pdftoppm zero-pads page
// numbers uniformly, so a lexical sort yields page order.
func (p *PDFToPPM) Rasterize(ctx context.Context, pdfPath, outDir, prefix, format string, dpi int) ([]string, error) {
	if !p.Available() {
		return nil, fmt.Errorf("pdftoppm: %w", ErrUnavailable)
	}
	if err := ensureDir(outDir); err != nil {
		return nil, err
	}

	outPrefix := filepath.Join(outDir, prefix)
	args, ext, err := rasterizeArgs(pdfPath, outPrefix, format, dpi)
	if err != nil {
		return nil, err
	}

	res, err := p.runner.Run(ctx, p.path, args, rasterizeTimeout)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("pdftoppm: %w", ErrTimeout)
		}
		return nil, fmt.Errorf("pdftoppm: %w", err)
	}
	if res.ExitCode != 0 {
		return nil, processError("pdftoppm", res)
	}

	pages, err := filepath.Glob(outPrefix + "-*." + ext)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("pdftoppm: %w", ErrOutputMissing)
	}
	sort.Strings(pages)
	return pages, nil
}
