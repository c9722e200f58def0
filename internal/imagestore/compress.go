package imagestore

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"math"

	// Icon sources are a mix of JPEG and PNG; GIF shows up in old archives.
	_ "image/gif"
	_ "image/png"

	"go.uber.org/zap"
	xdraw "golang.org/x/image/draw"
)

// maxMinSide is the largest allowed short side of a stored icon.
const maxMinSide = 128

// Compress re-encodes an icon as a small JPEG: scaled so its short side is
// exactly maxMinSide (aspect preserved, upscaling included), alpha dropped.
// Icons that are already small JPEGs pass through untouched so their bytes
// stay stable for content addressing. Deterministic for identical input.
func Compress(data []byte) ([]byte, bool, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, false, fmt.Errorf("decode config: %w", err)
	}

	minSide := min(cfg.Width, cfg.Height)
	if format == "jpeg" && minSide <= maxMinSide {
		return data, false, nil
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, false, fmt.Errorf("decode: %w", err)
	}

	// The scale factor applies in both directions: a tiny source is brought
	// up to the threshold so stored icons share one size regardless of what
	// the CDN served.
	scale := float64(minSide) / maxMinSide
	width := int(math.Round(float64(cfg.Width) / scale))
	height := int(math.Round(float64(cfg.Height) / scale))

	// Drawing into an RGBA canvas flattens whatever alpha the source had;
	// the JPEG encoder then discards the channel entirely.
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, nil); err != nil {
		return nil, false, fmt.Errorf("encode: %w", err)
	}
	return buf.Bytes(), true, nil
}

// CompressOrRaw is the ingestion-facing wrapper: a corrupt or unreadable
// payload must not abort the batch, so decode failures fall back to the raw
// bytes with a warning.
func CompressOrRaw(data []byte, imageName string, log *zap.Logger) ([]byte, bool) {
	out, wasCompressed, err := Compress(data)
	if err != nil {
		log.Warn("icon compression failed, storing raw bytes",
			zap.String("image", imageName), zap.Error(err))
		return data, false
	}
	return out, wasCompressed
}
