// Package convert re-encodes generated images between formats and prepares
// source images for the upstream upscaler.
package convert

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"log"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	_ "golang.org/x/image/webp" // Keep for decoding webp
)

// maxUpscaleInput is the largest dimension sent to the upscaler; bigger
// sources are downsized first.
const maxUpscaleInput = 1920

// DecodingError is a client-side conversion failure: the bytes could not be
// decoded as an image. It is surfaced inline and never affects stored history.
type DecodingError struct {
	Cause error
}

func (e *DecodingError) Error() string {
	return fmt.Sprintf("could not decode image: %v", e.Cause)
}

func (e *DecodingError) Unwrap() error {
	return e.Cause
}

// Convert re-encodes image bytes into the requested format ("png", "jpg" or
// "webp") and returns the new bytes with their MIME type. Quality is in
// (0, 1] and only applies to lossy formats.
func Convert(data []byte, format string, quality float64) ([]byte, string, error) {
	img, srcFormat, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", &DecodingError{Cause: err}
	}
	log.Printf("Decoded %s image for conversion to %s", srcFormat, format)

	if quality <= 0 || quality > 1 {
		quality = 0.92
	}

	var buf bytes.Buffer
	switch format {
	case "png":
		if err := png.Encode(&buf, img); err != nil {
			return nil, "", fmt.Errorf("convert: failed to encode png: %w", err)
		}
		return buf.Bytes(), "image/png", nil
	case "jpg", "jpeg":
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: int(quality * 100)}); err != nil {
			return nil, "", fmt.Errorf("convert: failed to encode jpeg: %w", err)
		}
		return buf.Bytes(), "image/jpeg", nil
	case "webp":
		if err := webp.Encode(&buf, img, &webp.Options{Quality: float32(quality * 100)}); err != nil {
			return nil, "", fmt.Errorf("convert: failed to encode webp: %w", err)
		}
		return buf.Bytes(), "image/webp", nil
	default:
		return nil, "", fmt.Errorf("convert: unsupported format %q", format)
	}
}

// Thumbnail shrinks the image so neither side exceeds max, preserving aspect
// ratio, and returns it as JPEG. Used for history previews.
func Thumbnail(data []byte, max int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodingError{Cause: err}
	}

	thumb := imaging.Fit(img, max, max, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("convert: failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// PrepareForUpscale downsizes sources larger than the upstream limit and
// returns them as PNG. Sources already within the limit pass through as-is
// when they are PNG, otherwise they are re-encoded.
func PrepareForUpscale(data []byte) ([]byte, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodingError{Cause: err}
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	if width <= maxUpscaleInput && height <= maxUpscaleInput {
		if format == "png" {
			return data, nil
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("convert: failed to encode png: %w", err)
		}
		return buf.Bytes(), nil
	}

	log.Printf("Source image is %dx%d, downsizing to max %d before upscale", width, height, maxUpscaleInput)
	small := resize.Thumbnail(maxUpscaleInput, maxUpscaleInput, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := png.Encode(&buf, small); err != nil {
		return nil, fmt.Errorf("convert: failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}
