// Package providers turns a prompt plus a reference capture into generated
// images. All provider-specific request shapes live here.
package providers

import (
	"context"

	"airender/internal/models"
)

// Request is one generate call. Tier options are ignored by providers that
// have no use for them.
type Request struct {
	Prompt    string
	Reference []byte
	Count     int
	Width     int
	Height    int

	Tier           models.Tier
	Resolution     string
	AspectRatio    string
	ContrastAdjust int
}

// RequestFrom builds a provider request from a normalized generate command.
func RequestFrom(g models.GenerateRequest, reference []byte, width, height int) Request {
	return Request{
		Prompt:         g.Prompt,
		Reference:      reference,
		Count:          g.Count,
		Width:          width,
		Height:         height,
		Tier:           g.Mode,
		Resolution:     g.Resolution,
		AspectRatio:    g.AspectRatio,
		ContrastAdjust: g.Contrast(),
	}
}

// Provider generates req.Count images. Implementations return
// apperr.ErrMissingCredential, apperr.ErrAllEndpointsFailed or
// apperr.ErrCancelled (as *apperr.Error) for the matching outcomes, and never
// return a partial result.
type Provider interface {
	Name() string
	RequiresCredential() bool
	Generate(ctx context.Context, req Request) (*models.GenerateResult, error)
}

// AttemptFunc observes every endpoint call.
type AttemptFunc func(models.EndpointAttempt)
