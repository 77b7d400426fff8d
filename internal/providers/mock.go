package providers

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"airender/internal/apperr"
	"airender/internal/models"
	"airender/internal/utils"
)

const (
	MockProviderName = "Mock"
	MockModel        = "mock-v1"

	defaultMockDelay    = 1500 * time.Millisecond
	defaultMockInterval = 500 * time.Millisecond
	mockPromptChars     = 30
)

var mockTints = []color.NRGBA{
	{R: 255, G: 200, B: 100, A: 30},
	{R: 100, G: 200, B: 255, A: 30},
	{R: 200, G: 100, B: 255, A: 30},
	{R: 100, G: 255, B: 150, A: 30},
}

// MockProvider returns tinted, watermarked copies of the reference image
// after a simulated delay. It needs no credential.
type MockProvider struct {
	Delay    time.Duration
	Interval time.Duration
}

func NewMockProvider() *MockProvider {
	return &MockProvider{Delay: defaultMockDelay, Interval: defaultMockInterval}
}

func (m *MockProvider) Name() string             { return MockProviderName }
func (m *MockProvider) RequiresCredential() bool { return false }

func (m *MockProvider) Generate(ctx context.Context, req Request) (*models.GenerateResult, error) {
	if err := sleep(ctx, m.Delay); err != nil {
		return nil, err
	}

	src, err := utils.DecodeImage(req.Reference)
	if err != nil {
		src = image.NewNRGBA(image.Rect(0, 0, max(req.Width, 1), max(req.Height, 1)))
	}

	count := max(req.Count, 1)
	images := make([][]byte, 0, count)
	for i := range count {
		if i > 0 {
			if err := sleep(ctx, m.Interval); err != nil {
				return nil, err
			}
		}
		img := mockImage(src, req.Prompt, i, count)
		data, err := utils.EncodePNG(img)
		if err != nil {
			return nil, fmt.Errorf("encode mock image: %w", err)
		}
		images = append(images, data)
	}

	return &models.GenerateResult{
		Images:    images,
		Model:     MockModel,
		RequestID: uuid.NewString(),
		Provider:  MockProviderName,
	}, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return apperr.Cancelled(err)
	}
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return apperr.Cancelled(ctx.Err())
	case <-t.C:
		return nil
	}
}

func mockImage(src image.Image, prompt string, i, n int) *image.NRGBA {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	draw.Draw(dst, dst.Bounds(), image.NewUniform(mockTints[i%len(mockTints)]), image.Point{}, draw.Over)

	face := basicfont.Face7x13
	label := fmt.Sprintf("[Mock] AI render - %d/%d", i+1, n)
	drawText(dst, label, dst.Bounds().Dx()-font.MeasureString(face, label).Ceil()-8, dst.Bounds().Dy()-8)

	prompt = truncate(prompt, mockPromptChars)
	drawText(dst, prompt, 8, 8+face.Ascent)
	return dst
}

func drawText(dst *image.NRGBA, s string, x, y int) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.NRGBA{R: 255, G: 255, B: 255, A: 220}),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(max(x, 0), y),
	}
	d.DrawString(s)
}
