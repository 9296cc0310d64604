// Package imageopt resizes and recompresses item photos before they
// are persisted. Photos travel as self-contained data URLs.
package imageopt

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"math"
	"strings"

	"golang.org/x/image/draw"
)

// maxDimension bounds both photo dimensions; larger images are scaled
// down preserving aspect ratio.
const maxDimension = 800

// Result reports one optimization pass. When the payload could not be
// decoded, Photo is the untouched input and both sizes are equal —
// that signals "no optimization occurred", not an error.
type Result struct {
	Photo          string `json:"photo"`
	OriginalBytes  int    `json:"originalBytes"`
	OptimizedBytes int    `json:"optimizedBytes"`
}

// Optimized reports whether the payload was actually re-encoded.
// Equal sizes signal a passthrough (decode failure or empty payload).
func (r Result) Optimized() bool {
	return r.OriginalBytes != r.OptimizedBytes
}

// Optimize decodes a data-URL photo, downscales it so neither dimension
// exceeds 800, and re-encodes it as JPEG at the given quality in (0, 1].
// A payload that fails to decode is returned unchanged; a decode
// failure is never fatal to the save that carries it.
func Optimize(photo string, quality float64) Result {
	passthrough := Result{Photo: photo, OriginalBytes: len(photo), OptimizedBytes: len(photo)}
	if photo == "" {
		return passthrough
	}

	raw, err := decodeDataURL(photo)
	if err != nil {
		return passthrough
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return passthrough
	}

	img = downscale(img)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality(quality)}); err != nil {
		return passthrough
	}

	encoded := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
	return Result{
		Photo:          encoded,
		OriginalBytes:  len(photo),
		OptimizedBytes: len(encoded),
	}
}

// SavingsPercent is the relative size reduction in [0, 100]. At
// effectively maximal quality (>= 0.99) it is defined as exactly 0 so
// lossless settings never report noisy or negative savings.
func SavingsPercent(originalBytes, optimizedBytes int, quality float64) int {
	if quality >= 0.99 || originalBytes <= 0 {
		return 0
	}
	savings := int(math.Round(100 * (1 - float64(optimizedBytes)/float64(originalBytes))))
	if savings < 0 {
		return 0
	}
	if savings > 100 {
		return 100
	}
	return savings
}

func decodeDataURL(photo string) ([]byte, error) {
	if !strings.HasPrefix(photo, "data:") {
		return nil, fmt.Errorf("not a data URL")
	}
	comma := strings.IndexByte(photo, ',')
	if comma < 0 {
		return nil, fmt.Errorf("malformed data URL")
	}
	meta, payload := photo[5:comma], photo[comma+1:]
	if !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("unsupported data URL encoding")
	}
	return base64.StdEncoding.DecodeString(payload)
}

func downscale(img image.Image) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxDimension && h <= maxDimension {
		return img
	}

	scale := float64(maxDimension) / float64(w)
	if h > w {
		scale = float64(maxDimension) / float64(h)
	}
	dw := int(math.Round(float64(w) * scale))
	dh := int(math.Round(float64(h) * scale))
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

func jpegQuality(quality float64) int {
	q := int(math.Round(quality * 100))
	if q < 1 {
		q = 1
	}
	if q > 100 {
		q = 100
	}
	return q
}
