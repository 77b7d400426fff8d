package providers

import (
	"fmt"
	"net/url"
	"strings"

	"airender/internal/apperr"
	"airender/internal/models"
	"airender/internal/services"
)

const (
	EndpointGeminiAPI = "gemini-api"
	EndpointVertex    = "vertex-express"
)

// Endpoint is one cloud service path able to run generateContent.
type Endpoint struct {
	Name string
	// URLTemplate contains one %s for the model id.
	URLTemplate string
	APIKey      string
	// IncludeRole adds role:"user" to the content wrapper.
	IncludeRole bool
}

func (e Endpoint) URL(model string) string {
	return fmt.Sprintf(e.URLTemplate, url.PathEscape(model)) + "?key=" + url.QueryEscape(e.APIKey)
}

// RedactedURL is URL without the credential, safe for logs and errors.
func (e Endpoint) RedactedURL(model string) string {
	return fmt.Sprintf(e.URLTemplate, url.PathEscape(model)) + "?key=***"
}

// EndpointBases are the API roots of both services.
type EndpointBases struct {
	Gemini string
	Vertex string
}

// BuildEndpoints returns the enabled endpoints holding a credential, primary
// service first.
func BuildEndpoints(s models.Settings, creds services.Credentials, bases EndpointBases) ([]Endpoint, error) {
	if !s.UseGeminiAPI && !s.UseVertexAI {
		return nil, apperr.Validation("no endpoint enabled: enable the Gemini API or Vertex AI")
	}

	var eps []Endpoint
	if s.UseGeminiAPI && creds.Primary != "" {
		eps = append(eps, Endpoint{
			Name:        EndpointGeminiAPI,
			URLTemplate: strings.TrimRight(bases.Gemini, "/") + "/models/%s:generateContent",
			APIKey:      creds.Primary,
		})
	}
	if s.UseVertexAI && creds.Secondary != "" {
		eps = append(eps, Endpoint{
			Name:        EndpointVertex,
			URLTemplate: strings.TrimRight(bases.Vertex, "/") + "/publishers/google/models/%s:generateContent",
			APIKey:      creds.Secondary,
			IncludeRole: true,
		})
	}
	if len(eps) == 0 {
		return nil, apperr.MissingCredential("the enabled endpoints")
	}
	return eps, nil
}
