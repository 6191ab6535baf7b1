package converter

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"

	// Registers the webp decoder with image.Decode for webp inputs.
	_ "golang.org/x/image/webp"
)

// Formats whose encoders cannot represent an alpha channel.
var noAlphaFormats = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"bmp":  true,
}

// ImageConverter converts between raster image formats in process,
// without an external tool.
type ImageConverter struct{}

// NewImageConverter creates the image converter.
func NewImageConverter() *ImageConverter {
	return &ImageConverter{}
}

func (c *ImageConverter) Category() Category { return CategoryImage }

func (c *ImageConverter) Name() string { return "Image Converter (imaging)" }

func (c *ImageConverter) InputFormats() []string {
	return []string{"png", "jpg", "jpeg", "webp", "bmp", "gif", "tiff", "tif"}
}

func (c *ImageConverter) OutputFormats() []string {
	return []string{"png", "jpg", "jpeg", "bmp", "gif", "tiff", "tif"}
}

// ValidateDependencies always succeeds: the image codecs are compiled
// in.
func (c *ImageConverter) ValidateDependencies() (bool, string) {
	return true, "pure Go image codecs available"
}

// Convert decodes the source image, applies EXIF orientation, resizes
// when requested, flattens the alpha channel for formats without one,
// and encodes to the requested format.
func (c *ImageConverter) Convert(ctx context.Context, inputPath, outputFormat string, opts *Options) Result {
	start := time.Now()
	if opts == nil {
		opts = &Options{}
	}
	outputFormat = NormalizeFormat(outputFormat)

	outputPath := OutputPath(inputPath, outputFormat, opts)
	if _, err := os.Stat(outputPath); err == nil && !opts.Overwrite {
		return failure(inputPath, fmt.Sprintf("output file already exists: %s", outputPath), start)
	}

	opts.report(0.1, fmt.Sprintf("Opening %s", filepath.Base(inputPath)))

	img, err := imaging.Open(inputPath)
	if err != nil {
		return failure(inputPath, fmt.Sprintf("failed to open image: %v", err), start)
	}
	img = applyOrientation(img, readOrientation(inputPath))

	if noAlphaFormats[outputFormat] {
		opts.report(0.3, "Flattening alpha channel")
		img = flattenAlpha(img)
	}

	if opts.Width > 0 || opts.Height > 0 {
		opts.report(0.4, "Resizing image")
		// A zero dimension is computed from the source aspect ratio.
		img = imaging.Resize(img, opts.Width, opts.Height, imaging.Lanczos)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return failure(inputPath, err.Error(), start)
	}

	opts.report(0.6, fmt.Sprintf("Saving as %s", outputFormat))
	if err := imaging.Save(img, outputPath, saveOptions(outputFormat, opts)...); err != nil {
		return failure(inputPath, fmt.Sprintf("failed to save image: %v", err), start)
	}

	opts.report(1.0, "Complete")
	return success(inputPath, outputPath, start)
}

// saveOptions maps format and options to encoder settings: quality for
// lossy formats, best-effort compression for lossless ones.
func saveOptions(format string, opts *Options) []imaging.EncodeOption {
	switch format {
	case "jpg", "jpeg":
		quality := opts.Quality
		if quality <= 0 || quality > 100 {
			quality = 95
		}
		return []imaging.EncodeOption{imaging.JPEGQuality(quality)}
	case "png":
		return []imaging.EncodeOption{imaging.PNGCompressionLevel(png.BestCompression)}
	default:
		return nil
	}
}

// flattenAlpha composites the image over a white background.
func flattenAlpha(img image.Image) image.Image {
	bounds := img.Bounds()
	background := imaging.New(bounds.Dx(), bounds.Dy(), color.White)
	return imaging.Overlay(background, img, image.Pt(0, 0), 1.0)
}

// readOrientation extracts the EXIF orientation tag, defaulting to 1
// (upright) for images without EXIF data.
func readOrientation(path string) int {
	f, err := os.Open(path)
	if err != nil {
		return 1
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	orientation, err := tag.Int(0)
	if err != nil || orientation < 1 || orientation > 8 {
		return 1
	}
	return orientation
}

// applyOrientation normalizes a decoded image according to its EXIF
// orientation value.
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
