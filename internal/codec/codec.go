// Package codec is the image file boundary of the pipeline: it decodes
// supported raster formats into in-memory images and encodes working copies
// back to disk.
//
// Supported formats:
//   - Read: JPEG, PNG, GIF, BMP, TIFF, WebP
//   - Write: JPEG, PNG, BMP, TIFF (WebP and GIF are read-only; outputs for
//     such inputs fall back to PNG)
//
// Decoding goes through the standard image.Decode registry; the BMP, TIFF
// and WebP decoders from golang.org/x/image are registered by this package's
// imports. Encoding is delegated to disintegration/imaging, which picks the
// encoder from the file extension.
package codec

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder (decode only)
)

var readExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

var writeExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

// CanRead reports whether the path has a decodable extension.
func CanRead(path string) bool {
	return readExts[strings.ToLower(filepath.Ext(path))]
}

// CanWrite reports whether the path has an encodable extension.
func CanWrite(path string) bool {
	return writeExts[strings.ToLower(filepath.Ext(path))]
}

// Decode reads and decodes the image at path.
func Decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// Encode writes img to path, choosing the format from the extension.
func Encode(img image.Image, path string) error {
	if !CanWrite(path) {
		return fmt.Errorf("unsupported output format %q", filepath.Ext(path))
	}
	if err := imaging.Save(img, path, imaging.JPEGQuality(95)); err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}
	return nil
}

// OutputName derives the output filename for a processed input file:
// "processed_<stem><ext>". Inputs in a read-only format (WebP, GIF) map to
// a PNG output.
func OutputName(inputPath string) string {
	ext := strings.ToLower(filepath.Ext(inputPath))
	stem := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	if !writeExts[ext] {
		ext = ".png"
	}
	return "processed_" + stem + ext
}
