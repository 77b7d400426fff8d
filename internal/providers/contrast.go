package providers

import (
	"image"
	"image/draw"
	"math"

	"airender/internal/utils"
)

// adjustContrast scales each color channel around mid-gray by 1+pct/100.
// Alpha is left alone. Any decode or encode failure returns the input.
func adjustContrast(pngData []byte, pct int) []byte {
	if pct == 0 {
		return pngData
	}
	src, err := utils.DecodeImage(pngData)
	if err != nil {
		return pngData
	}

	img := image.NewNRGBA(src.Bounds())
	draw.Draw(img, img.Bounds(), src, src.Bounds().Min, draw.Src)
	applyContrast(img, pct)

	out, err := utils.EncodePNG(img)
	if err != nil {
		return pngData
	}
	return out
}

func applyContrast(img *image.NRGBA, pct int) {
	factor := 1 + float64(pct)/100
	var lut [256]uint8
	for v := range lut {
		lut[v] = clampByte(math.Round((float64(v)-128)*factor + 128))
	}
	for i := 0; i+3 < len(img.Pix); i += 4 {
		img.Pix[i] = lut[img.Pix[i]]
		img.Pix[i+1] = lut[img.Pix[i+1]]
		img.Pix[i+2] = lut[img.Pix[i+2]]
	}
}

func clampByte(v float64) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	}
	return uint8(v)
}
