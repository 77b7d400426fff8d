package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestGenerateRequest_Normalize_EmptyPrompt(t *testing.T) {
	r := GenerateRequest{Prompt: "  \t"}
	assert.False(t, r.Normalize(8))
}

func TestGenerateRequest_Normalize_ProDefaults(t *testing.T) {
	r := GenerateRequest{
		Prompt:         "  sunset render ",
		Source:         SourceNamed,
		Count:          20,
		Resolution:     "2k",
		AspectRatio:    "7:5",
		ContrastAdjust: intPtr(-50),
	}
	assert.True(t, r.Normalize(8))

	assert.Equal(t, "sunset render", r.Prompt)
	assert.Equal(t, SourceActive, r.Source, "named without a view falls back to active")
	assert.Equal(t, 8, r.Count)
	assert.Equal(t, TierPro, r.Mode)
	assert.Equal(t, "2K", r.Resolution)
	assert.Equal(t, "", r.AspectRatio)
	assert.Nil(t, r.ContrastAdjust)
	assert.Equal(t, CaptureCustom, r.CaptureMode)
}

func TestGenerateRequest_Normalize_FlashContrast(t *testing.T) {
	r := GenerateRequest{Prompt: "p", Mode: TierFlash, Resolution: "4K"}
	assert.True(t, r.Normalize(4))
	assert.Equal(t, 1, r.Count)
	assert.Equal(t, "", r.Resolution)
	assert.Equal(t, DefaultContrastAdjust, r.Contrast())

	r = GenerateRequest{Prompt: "p", Mode: TierFlash, ContrastAdjust: intPtr(-250)}
	r.Normalize(4)
	assert.Equal(t, -100, r.Contrast())

	r = GenerateRequest{Prompt: "p", Mode: TierFlash, ContrastAdjust: intPtr(30)}
	r.Normalize(4)
	assert.Equal(t, 0, r.Contrast())
}

func TestSettings_Normalize(t *testing.T) {
	s := Settings{OutputMode: "weird"}
	s.Normalize()
	assert.Equal(t, OutputAuto, s.OutputMode)
	assert.Equal(t, "mock", s.Provider)

	d := DefaultSettings()
	assert.True(t, d.UseGeminiAPI)
	assert.False(t, d.UseVertexAI)
}
