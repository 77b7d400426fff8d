package utils

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/draw"
)

// DecodeImage decodes PNG or JPEG bytes.
func DecodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Resize scales img to exactly w x h.
func Resize(img image.Image, w, h int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// FitWithin returns the largest size with src's ratio that fits inside a
// maxSide square, never upscaling.
func FitWithin(srcW, srcH, maxSide int) (int, int) {
	if srcW <= 0 || srcH <= 0 {
		return maxSide, maxSide
	}
	if srcW <= maxSide && srcH <= maxSide {
		return srcW, srcH
	}
	if srcW >= srcH {
		return maxSide, max(1, int(math.Round(float64(srcH)*float64(maxSide)/float64(srcW))))
	}
	return max(1, int(math.Round(float64(srcW)*float64(maxSide)/float64(srcH)))), maxSide
}

// ThumbnailJPEG renders data as a JPEG thumbnail fitting in size x size over
// a white background and returns it base64 encoded.
func ThumbnailJPEG(data []byte, size int) (string, error) {
	img, err := DecodeImage(data)
	if err != nil {
		return "", err
	}
	b := img.Bounds()
	w, h := FitWithin(b.Dx(), b.Dy(), size)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 80}); err != nil {
		return "", fmt.Errorf("encode jpeg: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// ParseAspectRatio parses "W:H" into positive integers.
func ParseAspectRatio(s string) (int, int, bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, 0, false
	}
	w, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	h, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil || w <= 0 || h <= 0 {
		return 0, 0, false
	}
	return w, h, true
}

// ScaleToLongEdge keeps the ratio rw:rh and sets the longer side to longEdge.
func ScaleToLongEdge(rw, rh, longEdge int) (int, int) {
	if rw <= 0 || rh <= 0 {
		rw, rh = 1, 1
	}
	if rw >= rh {
		return longEdge, max(1, int(math.Round(float64(longEdge)*float64(rh)/float64(rw))))
	}
	return max(1, int(math.Round(float64(longEdge)*float64(rw)/float64(rh)))), longEdge
}
