package backend

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/convsuite/convsuite/internal/deps"
	"github.com/convsuite/convsuite/internal/execx"
)

const (
	pandocTimeout       = 120 * time.Second
	pandocStringTimeout = 30 * time.Second
)

// File extension to pandoc reader name.
var pandocInputFormats = map[string]string{
	"md":       "markdown",
	"markdown": "markdown",
	"txt":      "plain",
	"html":     "html",
	"htm":      "html",
	"docx":     "docx",
	"odt":      "odt",
	"rtf":      "rtf",
	"epub":     "epub",
	"tex":      "latex",
	"latex":    "latex",
	"rst":      "rst",
	"org":      "org",
	"json":     "json",
}

// File extension to pandoc writer name.
var pandocOutputFormats = map[string]string{
	"md":       "markdown",
	"markdown": "markdown",
	"txt":      "plain",
	"html":     "html",
	"docx":     "docx",
	"odt":      "odt",
	"rtf":      "rtf",
	"epub":     "epub",
	"epub3":    "epub3",
	"pdf":      "pdf",
	"tex":      "latex",
	"latex":    "latex",
	"rst":      "rst",
	"org":      "org",
	"json":     "json",
	"pptx":     "pptx",
}

// Pandoc wraps the pandoc executable for markup-oriented document
// conversion. It preserves document structure better than the office
// backend for text formats.
type Pandoc struct {
	path   string
	runner execx.Runner
}

// NewPandoc resolves pandoc through the locator.
func NewPandoc(loc *deps.Locator, runner execx.Runner) *Pandoc {
	p := &Pandoc{runner: runner}
	if info := loc.Resolve(deps.ToolPandoc); info.Available {
		p.path = info.Path
	}
	return p
}

// Available reports whether pandoc was resolved.
func (p *Pandoc) Available() bool { return p != nil && p.path != "" }

// Version returns pandoc's version line.
func (p *Pandoc) Version(ctx context.Context) (string, error) {
	if !p.Available() {
		return "", fmt.Errorf("pandoc: %w", ErrUnavailable)
	}
	res, err := p.runner.Run(ctx, p.path, []string{"--version"}, 10*time.Second)
	if err != nil {
		return "", fmt.Errorf("pandoc: %w", err)
	}
	if res.ExitCode != 0 {
		return "", processError("pandoc", res)
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(res.Stdout)), "\n")
	return line, nil
}

// Convert converts a document file. Empty inFormat/outFormat are
// derived from the file extensions through the alias tables. Output is
// always standalone; pdf output pulls in a LaTeX engine.
func (p *Pandoc) Convert(ctx context.Context, input, output, inFormat, outFormat string, extraArgs []string) error {
	if !p.Available() {
		return fmt.Errorf("pandoc: %w", ErrUnavailable)
	}

	if inFormat == "" {
		inFormat = extFormat(input, pandocInputFormats)
	} else if alias, ok := pandocInputFormats[inFormat]; ok {
		inFormat = alias
	}
	if outFormat == "" {
		outFormat = extFormat(output, pandocOutputFormats)
	} else if alias, ok := pandocOutputFormats[outFormat]; ok {
		outFormat = alias
	}

	args := []string{
		input,
		"-f", inFormat,
		"-t", outFormat,
		"-o", output,
		"--standalone",
	}
	args = append(args, extraArgs...)
	if outFormat == "pdf" {
		args = append(args, "--pdf-engine=pdflatex")
	}

	if err := ensureDir(filepath.Dir(output)); err != nil {
		return err
	}

	res, err := p.runner.Run(ctx, p.path, args, pandocTimeout)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("pandoc: %w", ErrTimeout)
		}
		return fmt.Errorf("pandoc: %w", err)
	}
	if res.ExitCode != 0 {
		return processError("pandoc", res)
	}
	if !fileExists(output) {
		return fmt.Errorf("pandoc: %w", ErrOutputMissing)
	}
	return nil
}

// ConvertString converts in-memory content by piping it through
// pandoc's standard streams rather than files.
func (p *Pandoc) ConvertString(ctx context.Context, content, inFormat, outFormat string) (string, error) {
	if !p.Available() {
		return "", fmt.Errorf("pandoc: %w", ErrUnavailable)
	}
	if alias, ok := pandocInputFormats[inFormat]; ok {
		inFormat = alias
	}
	if alias, ok := pandocOutputFormats[outFormat]; ok {
		outFormat = alias
	}
	args := []string{"-f", inFormat, "-t", outFormat}
	res, err := p.runner.RunInput(ctx, p.path, args, content, pandocStringTimeout)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("pandoc: %w", ErrTimeout)
		}
		return "", fmt.Errorf("pandoc: %w", err)
	}
	if res.ExitCode != 0 {
		return "", processError("pandoc", res)
	}
	return string(res.Stdout), nil
}

// InputFormats lists the extensions pandoc reads.
func (p *Pandoc) InputFormats() []string {
	return formatKeys(pandocInputFormats)
}

// OutputFormats lists the extensions pandoc writes.
func (p *Pandoc) OutputFormats() []string {
	return formatKeys(pandocOutputFormats)
}

func extFormat(path string, table map[string]string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if alias, ok := table[ext]; ok {
		return alias
	}
	return ext
}

func formatKeys(table map[string]string) []string {
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	return keys
}
