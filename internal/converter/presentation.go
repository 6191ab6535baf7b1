package converter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// PresentationBackend is the slice of the office wrapper the
// presentation converter needs.
type PresentationBackend interface {
	Available() bool
	Convert(ctx context.Context, input, outFormat, outDir string) (string, error)
	SlidesToImages(ctx context.Context, input, outDir, format string, dpi int) ([]string, error)
}

// PresentationConverter converts presentation files through the office
// backend. Image outputs are multi-file: one image per slide.
type PresentationConverter struct {
	office PresentationBackend
}

// NewPresentationConverter creates the presentation converter.
func NewPresentationConverter(office PresentationBackend) *PresentationConverter {
	return &PresentationConverter{office: office}
}

func (c *PresentationConverter) Category() Category { return CategoryPresentation }

func (c *PresentationConverter) Name() string { return "Presentation Converter (LibreOffice)" }

func (c *PresentationConverter) InputFormats() []string {
	return []string{"pptx", "ppt", "odp", "ppsx", "pps"}
}

func (c *PresentationConverter) OutputFormats() []string {
	return []string{"pdf", "png", "jpg", "jpeg", "odp", "pptx"}
}

func (c *PresentationConverter) ValidateDependencies() (bool, string) {
	if c.office.Available() {
		return true, "LibreOffice available"
	}
	return false, "LibreOffice not found. Please install LibreOffice."
}

func (c *PresentationConverter) Convert(ctx context.Context, inputPath, outputFormat string, opts *Options) Result {
	start := time.Now()
	if opts == nil {
		opts = &Options{}
	}
	outputFormat = NormalizeFormat(outputFormat)

	if !c.office.Available() {
		return failure(inputPath, "LibreOffice not available", start)
	}

	opts.report(0.1, fmt.Sprintf("Opening %s", filepath.Base(inputPath)))

	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = filepath.Dir(inputPath)
	}

	// Image output produces one file per slide.
	if outputFormat == "png" || outputFormat == "jpg" || outputFormat == "jpeg" {
		opts.report(0.2, "Converting slides to images")
		images, err := c.office.SlidesToImages(ctx, inputPath, outputDir, outputFormat, opts.DPI)
		if err != nil {
			return failure(inputPath, err.Error(), start)
		}
		opts.report(1.0, "Complete")
		// The first slide image stands in as the result's main output.
		return success(inputPath, images[0], start)
	}

	outputPath := OutputPath(inputPath, outputFormat, opts)
	if _, err := os.Stat(outputPath); err == nil && !opts.Overwrite {
		return failure(inputPath, fmt.Sprintf("output file already exists: %s", outputPath), start)
	}

	opts.report(0.3, fmt.Sprintf("Converting to %s", outputFormat))
	artifact, err := c.office.Convert(ctx, inputPath, outputFormat, outputDir)
	if err != nil {
		return failure(inputPath, err.Error(), start)
	}

	opts.report(1.0, "Complete")
	return success(inputPath, artifact, start)
}
