package converter

import (
	"path/filepath"
	"strings"
)

// NormalizeFormat lower-cases a format string and strips any leading
// dots. Every format comparison in this package goes through it.
func NormalizeFormat(format string) string {
	return strings.ToLower(strings.TrimLeft(format, "."))
}

// FileFormat returns the normalized extension of a file path.
func FileFormat(path string) string {
	return NormalizeFormat(filepath.Ext(path))
}

// CanConvert reports whether the converter accepts the (input, output)
// format pair, after normalization.
func CanConvert(c Converter, inputFormat, outputFormat string) bool {
	return containsFormat(c.InputFormats(), inputFormat) &&
		containsFormat(c.OutputFormats(), outputFormat)
}

func containsFormat(formats []string, format string) bool {
	format = NormalizeFormat(format)
	for _, f := range formats {
		if f == format {
			return true
		}
	}
	return false
}

// OutputPath derives the destination path for a conversion:
// {options.OutputDir or input dir}/{input stem}.{normalized format}.
func OutputPath(inputPath, outputFormat string, opts *Options) string {
	dir := filepath.Dir(inputPath)
	if opts != nil && opts.OutputDir != "" {
		dir = opts.OutputDir
	}
	stem := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	return filepath.Join(dir, stem+"."+NormalizeFormat(outputFormat))
}
