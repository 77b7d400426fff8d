package providers

import (
	"encoding/json"

	"airender/internal/models"
)

const promptPrefix = "Stylize or render the reference image according to the following prompt: "

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type contentPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type content struct {
	Role  string        `json:"role,omitempty"`
	Parts []contentPart `json:"parts"`
}

type imageConfig struct {
	ImageSize   string `json:"imageSize,omitempty"`
	AspectRatio string `json:"aspectRatio,omitempty"`
}

type generationConfig struct {
	ResponseModalities []string     `json:"responseModalities"`
	Temperature        float64      `json:"temperature"`
	ImageConfig        *imageConfig `json:"imageConfig,omitempty"`
}

type generateBody struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

// tierConfig is the generation config for a tier. Only pro carries image
// size and aspect hints.
func tierConfig(tier models.Tier, resolution, aspect string) generationConfig {
	if tier == models.TierFlash {
		return generationConfig{
			ResponseModalities: []string{"TEXT", "IMAGE"},
			Temperature:        0.8,
		}
	}
	cfg := generationConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
		Temperature:        1.0,
	}
	if resolution != "" || aspect != "" {
		cfg.ImageConfig = &imageConfig{ImageSize: resolution, AspectRatio: aspect}
	}
	return cfg
}

func buildBody(prompt, imageB64 string, cfg generationConfig, includeRole bool) ([]byte, error) {
	c := content{
		Parts: []contentPart{
			{Text: promptPrefix + prompt},
			{InlineData: &inlineData{MimeType: "image/png", Data: imageB64}},
		},
	}
	if includeRole {
		c.Role = "user"
	}
	return json.Marshal(generateBody{
		Contents:         []content{c},
		GenerationConfig: cfg,
	})
}
