package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"photo-architect/internal/config"
	apperrors "photo-architect/internal/errors"
	"photo-architect/internal/logging"
	mw "photo-architect/internal/middleware"
	"photo-architect/internal/monitoring/tracing"
	"photo-architect/internal/upstream"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	providerREST = "gemini_rest"
	// inline images come back base64 encoded, so allow generous bodies
	maxResponseBytes = 64 << 20
)

// Client talks to the generateContent REST endpoint directly.
type Client struct {
	endpoint string
	apiKey   string
	cli      *http.Client
}

// New builds a REST client from configuration. The API key is injected here
// once; nothing reads it from the environment afterwards.
func New(cfg *config.Config) *Client {
	return &Client{
		endpoint: strings.TrimRight(cfg.Gemini.Endpoint, "/"),
		apiKey:   cfg.Gemini.APIKey,
		cli:      &http.Client{Transport: newTransport(cfg)},
	}
}

// NewWithHTTPClient is used by tests to point the client at a fake server.
func NewWithHTTPClient(endpoint, apiKey string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{endpoint: strings.TrimRight(endpoint, "/"), apiKey: apiKey, cli: hc}
}

func (c *Client) Name() string { return "rest" }

func (c *Client) url(model string) string {
	return c.endpoint + "/v1beta/models/" + url.PathEscape(model) + ":generateContent"
}

// GenerateContent performs exactly one POST. Non-2xx answers are mapped to
// *errors.APIError carrying the upstream message.
func (c *Client) GenerateContent(ctx context.Context, req *Request) (*Response, error) {
	if req == nil || strings.TrimSpace(req.Model) == "" {
		return nil, apperrors.New(http.StatusBadRequest, "invalid_request_error", "invalid_request_error", "model is required")
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	body = fixImageHints(req.Model, body)

	resp, err := c.postJSON(ctx, req.Model, body)
	if err != nil {
		return nil, err
	}
	raw, err := upstream.ReadAll(resp, maxResponseBytes)
	if err != nil {
		mw.RecordUpstreamError(providerREST, classifyErr(err))
		return nil, apperrors.MapNetworkError(err)
	}
	return parseResponse(raw)
}

func (c *Client) postJSON(ctx context.Context, model string, body []byte) (*http.Response, error) {
	target := c.url(model)
	ctx, span := tracing.StartSpan(ctx, "upstream/gemini", "Gemini.PostJSON",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("llm.model", model),
			attribute.Int("http.request_content_length", len(body)),
		))
	defer span.End()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	c.applyDefaultHeaders(ctx, httpReq)

	start := time.Now()
	resp, err := c.cli.Do(httpReq)
	dur := time.Since(start)
	if err != nil {
		reason := classifyErr(err)
		mw.RecordUpstream(providerREST, dur, 0, true)
		mw.RecordUpstreamModel(providerREST, model, 0, true)
		mw.RecordUpstreamError(providerREST, reason)
		span.RecordError(err)
		span.SetStatus(codes.Error, reason)
		log.WithFields(log.Fields{
			"model":      model,
			"reason":     reason,
			"error_kind": logging.ErrorKind(0, true),
			"request_id": upstream.RequestID(ctx),
		}).
			WithError(err).Warn("gemini request failed")
		return nil, apperrors.MapNetworkError(err)
	}
	mw.RecordUpstream(providerREST, dur, resp.StatusCode, false)
	mw.RecordUpstreamModel(providerREST, model, resp.StatusCode, false)
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errBody, _ := upstream.ReadAll(resp, 64<<10)
		apiErr := apperrors.MapHTTPError(resp.StatusCode, errBody)
		span.SetStatus(codes.Error, apiErr.Code)
		log.WithFields(log.Fields{
			"model":      model,
			"status":     resp.StatusCode,
			"error_kind": logging.ErrorKind(resp.StatusCode, true),
			"request_id": upstream.RequestID(ctx),
		}).Warnf("gemini upstream error: %s", apiErr.Message)
		return nil, apiErr
	}
	span.SetStatus(codes.Ok, "")
	return resp, nil
}
