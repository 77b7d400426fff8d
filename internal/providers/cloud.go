package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"airender/internal/apperr"
	"airender/internal/logging"
	"airender/internal/models"
	"airender/internal/services"
)

const (
	CloudProviderName = "Gemini"
	maxResponseBytes  = 64 << 20
)

// Outcomes reported per endpoint attempt.
const (
	OutcomeSuccess   = "success"
	OutcomeTransport = "transport"
	OutcomeStatus    = "status"
	OutcomeNoImage   = "no_image"
	OutcomeCancelled = "cancelled"
)

// CloudEnv is the settings snapshot a generate call runs against.
type CloudEnv struct {
	Settings    models.Settings
	Credentials services.Credentials
}

type CloudConfig struct {
	GeminiBase string
	VertexBase string
	ProModel   string
	FlashModel string
	// RateLimit is requests per second across all endpoints, 0 for none.
	RateLimit float64
	RateBurst int
}

// CloudProvider calls the generateContent API on up to two endpoints, trying
// them in order for every image independently.
type CloudProvider struct {
	cfg       CloudConfig
	env       func() CloudEnv
	transport *Transport
	limiter   *rate.Limiter
	onAttempt AttemptFunc
	log       *zap.Logger
}

func NewCloudProvider(cfg CloudConfig, env func() CloudEnv, transport *Transport, onAttempt AttemptFunc, log *zap.Logger) *CloudProvider {
	p := &CloudProvider{
		cfg:       cfg,
		env:       env,
		transport: transport,
		onAttempt: onAttempt,
		log:       logging.OrNop(log).Named("cloud"),
	}
	if p.transport == nil {
		p.transport = NewTransport(func() string { return env().Settings.ProxyURL }, 0, log)
	}
	if cfg.RateLimit > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), max(cfg.RateBurst, 1))
	}
	return p
}

func (p *CloudProvider) Name() string             { return CloudProviderName }
func (p *CloudProvider) RequiresCredential() bool { return true }

// RefreshTransport rebuilds the HTTP client after proxy settings change.
func (p *CloudProvider) RefreshTransport() { p.transport.Refresh() }

func (p *CloudProvider) model(tier models.Tier) string {
	if tier == models.TierFlash {
		return p.cfg.FlashModel
	}
	return p.cfg.ProModel
}

func (p *CloudProvider) Generate(ctx context.Context, req Request) (*models.GenerateResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.Cancelled(err)
	}

	env := p.env()
	endpoints, err := BuildEndpoints(env.Settings, env.Credentials, EndpointBases{Gemini: p.cfg.GeminiBase, Vertex: p.cfg.VertexBase})
	if err != nil {
		return nil, err
	}

	reference := req.Reference
	if req.Tier == models.TierFlash && req.ContrastAdjust < 0 {
		reference = adjustContrast(reference, req.ContrastAdjust)
	}

	cfg := tierConfig(req.Tier, req.Resolution, req.AspectRatio)
	encoded := base64.StdEncoding.EncodeToString(reference)
	bodies := make(map[bool][]byte, 2)
	for _, ep := range endpoints {
		if _, ok := bodies[ep.IncludeRole]; ok {
			continue
		}
		b, err := buildBody(req.Prompt, encoded, cfg, ep.IncludeRole)
		if err != nil {
			return nil, fmt.Errorf("build request body: %w", err)
		}
		bodies[ep.IncludeRole] = b
	}

	count := max(req.Count, 1)
	model := p.model(req.Tier)
	client := p.transport.Client()

	var (
		attemptsMu sync.Mutex
		attempts   []models.EndpointAttempt
	)
	record := func(a models.EndpointAttempt) {
		attemptsMu.Lock()
		attempts = append(attempts, a)
		attemptsMu.Unlock()
		if p.onAttempt != nil {
			p.onAttempt(a)
		}
	}

	results := make([][]byte, count)
	g, gctx := errgroup.WithContext(ctx)
	for i := range count {
		g.Go(func() error {
			img, err := p.generateOne(gctx, client, endpoints, bodies, model, i, record)
			if err != nil {
				return err
			}
			results[i] = img
			return nil
		})
	}

	err = g.Wait()
	if ctx.Err() != nil {
		return nil, apperr.Cancelled(ctx.Err())
	}
	if err != nil {
		return nil, err
	}

	p.log.Info("generation complete", zap.String("model", model), zap.Int("images", count), zap.Int("attempts", len(attempts)))
	return &models.GenerateResult{
		Images:    results,
		Model:     model,
		RequestID: uuid.NewString(),
		Provider:  CloudProviderName,
		Attempts:  attempts,
	}, nil
}

type imageIndexKey struct{}

// imageIndex returns the batch position of the image a request belongs to,
// -1 outside a batch.
func imageIndex(ctx context.Context) int {
	if i, ok := ctx.Value(imageIndexKey{}).(int); ok {
		return i
	}
	return -1
}

// generateOne runs the endpoint fallback for a single image.
func (p *CloudProvider) generateOne(ctx context.Context, client *http.Client, endpoints []Endpoint, bodies map[bool][]byte, model string, index int, record func(models.EndpointAttempt)) ([]byte, error) {
	ctx = context.WithValue(ctx, imageIndexKey{}, index)
	var lastErr error
	for _, ep := range endpoints {
		if err := ctx.Err(); err != nil {
			return nil, apperr.Cancelled(err)
		}
		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				return nil, apperr.Cancelled(err)
			}
		}

		start := time.Now()
		img, err := p.call(ctx, client, ep, model, bodies[ep.IncludeRole])
		attempt := models.EndpointAttempt{
			Endpoint:   ep.Name,
			Index:      index,
			DurationMs: time.Since(start).Milliseconds(),
		}
		if err == nil {
			attempt.Outcome = OutcomeSuccess
			record(attempt)
			return img, nil
		}

		attempt.Outcome = outcomeOf(err)
		attempt.Error = err.Error()
		var ae *apperr.Error
		if errors.As(err, &ae) {
			attempt.Status = ae.Status
		}
		record(attempt)

		if attempt.Outcome == OutcomeCancelled {
			return nil, apperr.Cancelled(ctx.Err())
		}
		p.log.Warn("endpoint failed, trying next", zap.String("endpoint", ep.Name), zap.Int("image", index), zap.Error(err))
		lastErr = err
	}
	return nil, apperr.AllEndpointsFailed(len(endpoints), lastErr)
}

func outcomeOf(err error) string {
	var ae *apperr.Error
	switch {
	case apperr.IsCancelled(err):
		return OutcomeCancelled
	case errors.As(err, &ae) && ae.Code == apperr.CodeParse:
		return OutcomeNoImage
	case errors.As(err, &ae) && ae.Status != 0:
		return OutcomeStatus
	}
	return OutcomeTransport
}

func (p *CloudProvider) call(ctx context.Context, client *http.Client, ep Endpoint, model string, body []byte) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.URL(model), bytes.NewReader(body))
	if err != nil {
		return nil, apperr.Transport(ep.Name, 0, "build request", redact(err, ep.APIKey))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	p.log.Debug("calling endpoint", zap.String("endpoint", ep.Name), zap.String("url", ep.RedactedURL(model)), zap.Int("image", imageIndex(ctx)))

	resp, err := client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperr.Cancelled(ctx.Err())
		}
		return nil, apperr.Transport(ep.Name, 0, "request failed", redact(err, ep.APIKey))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperr.Cancelled(ctx.Err())
		}
		return nil, apperr.Transport(ep.Name, resp.StatusCode, "read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperr.Transport(ep.Name, resp.StatusCode, errorMessage(data, resp.StatusCode), nil)
	}

	img, _, ok := extractImage(data)
	if !ok {
		msg := "response contained no image"
		if text := responseText(data); text != "" {
			msg += ": " + text
		}
		return nil, apperr.Parse(ep.Name, msg)
	}
	return img, nil
}

// redact strips the API key from URLs embedded in transport errors.
func redact(err error, key string) error {
	if key == "" {
		return err
	}
	var ue *url.Error
	if errors.As(err, &ue) {
		return &url.Error{
			Op:  ue.Op,
			URL: strings.ReplaceAll(ue.URL, url.QueryEscape(key), "***"),
			Err: ue.Err,
		}
	}
	return errors.New(strings.ReplaceAll(err.Error(), key, "***"))
}
