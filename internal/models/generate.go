package models

import (
	"slices"
	"strings"
)

type Tier string

const (
	TierPro   Tier = "pro"
	TierFlash Tier = "flash"
)

const (
	SourceActive = "active"
	SourceNamed  = "named"

	CaptureCustom   = "custom"
	CaptureViewport = "viewport"

	DefaultContrastAdjust = -92
	DefaultResolution     = "1K"
	DefaultDimension      = 1024
	// MaxDimension caps either side of a capture.
	MaxDimension          = 8192
)

var (
	Resolutions  = []string{"1K", "2K", "4K"}
	AspectRatios = []string{"1:1", "16:9", "9:16", "4:3", "3:4", "3:2", "2:3", "4:5", "5:4", "21:9"}
)

// GenerateRequest is the data of a `generate` command.
type GenerateRequest struct {
	Prompt         string `json:"prompt"`
	Source         string `json:"source"`
	NamedView      string `json:"namedView,omitempty"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	Count          int    `json:"count"`
	Resolution     string `json:"resolution,omitempty"`
	AspectRatio    string `json:"aspectRatio,omitempty"`
	Mode           Tier   `json:"mode,omitempty"`
	ContrastAdjust *int   `json:"contrastAdjust,omitempty"`
	LongEdge       int    `json:"longEdge,omitempty"`
	CaptureMode    string `json:"captureMode,omitempty"`
}

// Normalize trims and clamps the request in place. Only an empty prompt is
// rejected; every other field falls back to a default.
func (r *GenerateRequest) Normalize(maxCount int) bool {
	r.Prompt = strings.TrimSpace(r.Prompt)
	if r.Prompt == "" {
		return false
	}

	r.NamedView = strings.TrimSpace(r.NamedView)
	if r.Source != SourceNamed || r.NamedView == "" {
		r.Source = SourceActive
		r.NamedView = ""
	}

	if maxCount < 1 {
		maxCount = 1
	}
	r.Count = min(max(r.Count, 1), maxCount)

	if r.Mode != TierFlash {
		r.Mode = TierPro
	}

	if r.Mode == TierPro {
		r.Resolution = strings.ToUpper(strings.TrimSpace(r.Resolution))
		if !slices.Contains(Resolutions, r.Resolution) {
			r.Resolution = DefaultResolution
		}
		r.ContrastAdjust = nil
	} else {
		r.Resolution = ""
		c := DefaultContrastAdjust
		if r.ContrastAdjust != nil {
			c = min(max(*r.ContrastAdjust, -100), 0)
		}
		r.ContrastAdjust = &c
	}

	r.AspectRatio = strings.TrimSpace(r.AspectRatio)
	if !slices.Contains(AspectRatios, r.AspectRatio) {
		r.AspectRatio = ""
	}

	if r.CaptureMode != CaptureViewport {
		r.CaptureMode = CaptureCustom
	}
	if r.LongEdge < 0 {
		r.LongEdge = 0
	}
	return true
}

// Contrast returns the contrast adjustment percentage, 0 when unset.
func (r *GenerateRequest) Contrast() int {
	if r.ContrastAdjust == nil {
		return 0
	}
	return *r.ContrastAdjust
}

// EndpointAttempt records the outcome of one endpoint call for one image.
type EndpointAttempt struct {
	Endpoint   string `json:"endpoint"`
	Index      int    `json:"index"`
	Outcome    string `json:"outcome"`
	Status     int    `json:"status,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"durationMs"`
}

// GenerateResult holds the images in submission order plus provenance.
type GenerateResult struct {
	Images    [][]byte
	Model     string
	RequestID string
	Provider  string
	Attempts  []EndpointAttempt
}
