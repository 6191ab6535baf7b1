package converter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// MarkupBackend converts markup-oriented documents (pandoc).
type MarkupBackend interface {
	Available() bool
	Convert(ctx context.Context, input, output, inFormat, outFormat string, extraArgs []string) error
}

// OfficeBackend converts office documents (LibreOffice headless).
type OfficeBackend interface {
	Available() bool
	Convert(ctx context.Context, input, outFormat, outDir string) (string, error)
}

// Formats the markup backend handles best: it preserves document
// structure for text formats.
var markupFormats = map[string]bool{
	"md": true, "markdown": true, "txt": true, "html": true, "htm": true,
	"rst": true, "org": true, "tex": true, "latex": true, "epub": true,
}

// Formats the office backend is authoritative for.
var officeFormats = map[string]bool{
	"docx": true, "doc": true, "odt": true, "rtf": true,
}

// DocumentConverter converts document files, choosing between the
// markup and office backends per format pair.
type DocumentConverter struct {
	markup MarkupBackend
	office OfficeBackend
}

// NewDocumentConverter creates the document converter.
func NewDocumentConverter(markup MarkupBackend, office OfficeBackend) *DocumentConverter {
	return &DocumentConverter{markup: markup, office: office}
}

func (c *DocumentConverter) Category() Category { return CategoryDocument }

func (c *DocumentConverter) Name() string { return "Document Converter (Pandoc/LibreOffice)" }

func (c *DocumentConverter) InputFormats() []string {
	return []string{"docx", "doc", "odt", "txt", "md", "markdown", "html", "htm", "rtf", "epub", "tex", "rst"}
}

func (c *DocumentConverter) OutputFormats() []string {
	return []string{"docx", "odt", "pdf", "txt", "md", "html", "rtf", "epub", "tex"}
}

func (c *DocumentConverter) ValidateDependencies() (bool, string) {
	markupOK := c.markup.Available()
	officeOK := c.office.Available()
	switch {
	case markupOK && officeOK:
		return true, "Pandoc and LibreOffice available"
	case markupOK:
		return true, "Pandoc available (some formats may be limited)"
	case officeOK:
		return true, "LibreOffice available (some formats may be limited)"
	default:
		return false, "Neither Pandoc nor LibreOffice found"
	}
}

func (c *DocumentConverter) Convert(ctx context.Context, inputPath, outputFormat string, opts *Options) Result {
	start := time.Now()
	if opts == nil {
		opts = &Options{}
	}
	outputFormat = NormalizeFormat(outputFormat)
	inputFormat := FileFormat(inputPath)

	opts.report(0.1, fmt.Sprintf("Opening %s", filepath.Base(inputPath)))

	outputPath := OutputPath(inputPath, outputFormat, opts)
	if _, err := os.Stat(outputPath); err == nil && !opts.Overwrite {
		return failure(inputPath, fmt.Sprintf("output file already exists: %s", outputPath), start)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return failure(inputPath, err.Error(), start)
	}

	opts.report(0.3, fmt.Sprintf("Converting to %s", outputFormat))

	// The office backend may write the artifact under a different
	// extension than requested; trust the path it reports.
	artifact, err := c.convertWithBestBackend(ctx, inputPath, outputPath, inputFormat, outputFormat)
	if err != nil {
		return failure(inputPath, err.Error(), start)
	}
	if artifact != "" {
		outputPath = artifact
	}
	if _, err := os.Stat(outputPath); err != nil {
		return failure(inputPath, "output file not found after conversion", start)
	}

	opts.report(1.0, "Complete")
	return success(inputPath, outputPath, start)
}

// convertWithBestBackend implements the backend selection policy: the
// markup backend for text-oriented formats, the office backend for
// binary office formats and PDF rendering, then markup-first fallback.
// It returns the path of the produced artifact.
func (c *DocumentConverter) convertWithBestBackend(ctx context.Context, input, output, inFormat, outFormat string) (string, error) {
	if (markupFormats[inFormat] || markupFormats[outFormat]) && c.markup.Available() {
		return output, c.markup.Convert(ctx, input, output, inFormat, outFormat, nil)
	}

	if (officeFormats[inFormat] || officeFormats[outFormat] || outFormat == "pdf") && c.office.Available() {
		return c.office.Convert(ctx, input, outFormat, filepath.Dir(output))
	}

	if c.markup.Available() {
		if err := c.markup.Convert(ctx, input, output, inFormat, outFormat, nil); err == nil {
			return output, nil
		}
	}
	if c.office.Available() {
		return c.office.Convert(ctx, input, outFormat, filepath.Dir(output))
	}

	return "", fmt.Errorf("no suitable backend available for this conversion")
}
