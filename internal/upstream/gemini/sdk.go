package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
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
	"google.golang.org/genai"
)

const providerSDK = "gemini_sdk"

// SDKClient implements Generator on top of google.golang.org/genai.
type SDKClient struct {
	client *genai.Client
}

// NewSDK creates a genai client sharing the REST transport settings.
func NewSDK(ctx context.Context, cfg *config.Config) (*SDKClient, error) {
	cc := &genai.ClientConfig{
		APIKey:     cfg.Gemini.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Transport: newTransport(cfg)},
	}
	if ep := strings.TrimRight(cfg.Gemini.Endpoint, "/"); ep != "" && ep != config.DefaultEndpoint {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: ep + "/"}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &SDKClient{client: client}, nil
}

func (s *SDKClient) Name() string { return "sdk" }

func (s *SDKClient) GenerateContent(ctx context.Context, req *Request) (*Response, error) {
	if req == nil || strings.TrimSpace(req.Model) == "" {
		return nil, apperrors.New(http.StatusBadRequest, "invalid_request_error", "invalid_request_error", "model is required")
	}
	contents, err := toGenaiContents(req.Contents)
	if err != nil {
		return nil, err
	}
	ctx, span := tracing.StartSpan(ctx, "upstream/gemini", "Gemini.SDKGenerate")
	span.SetAttributes(attribute.String("llm.model", req.Model))
	defer span.End()

	start := time.Now()
	resp, err := s.client.Models.GenerateContent(ctx, req.Model, contents, toGenaiConfig(req))
	dur := time.Since(start)
	if err != nil {
		mapped, network := mapSDKError(err)
		mw.RecordUpstream(providerSDK, dur, mapped.HTTPStatus, network)
		mw.RecordUpstreamModel(providerSDK, req.Model, mapped.HTTPStatus, network)
		if network {
			mw.RecordUpstreamError(providerSDK, classifyErr(err))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, mapped.Code)
		status := mapped.HTTPStatus
		if network {
			status = 0
		}
		log.WithFields(log.Fields{
			"model":      req.Model,
			"error_kind": logging.ErrorKind(status, true),
			"request_id": upstream.RequestID(ctx),
		}).WithError(err).Warn("gemini sdk call failed")
		return nil, mapped
	}
	mw.RecordUpstream(providerSDK, dur, http.StatusOK, false)
	mw.RecordUpstreamModel(providerSDK, req.Model, http.StatusOK, false)
	span.SetStatus(codes.Ok, "")
	return fromGenaiResponse(resp), nil
}

func toGenaiContents(in []Content) ([]*genai.Content, error) {
	out := make([]*genai.Content, 0, len(in))
	for _, c := range in {
		parts := make([]*genai.Part, 0, len(c.Parts))
		for _, p := range c.Parts {
			switch {
			case p.InlineData != nil:
				data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
				if err != nil {
					return nil, &apperrors.MalformedImageError{Reason: "payload is not valid base64"}
				}
				parts = append(parts, &genai.Part{InlineData: &genai.Blob{MIMEType: p.InlineData.MimeType, Data: data}})
			case p.Text != "":
				parts = append(parts, genai.NewPartFromText(p.Text))
			}
		}
		role := c.Role
		if role == "" {
			role = genai.RoleUser
		}
		out = append(out, &genai.Content{Role: role, Parts: parts})
	}
	return out, nil
}

func toGenaiConfig(req *Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if req.GenerationConfig != nil {
		cfg.ResponseModalities = append([]string(nil), req.GenerationConfig.ResponseModalities...)
		if t := req.GenerationConfig.Temperature; t != nil {
			v := float32(*t)
			cfg.Temperature = &v
		}
	}
	if len(cfg.ResponseModalities) == 0 && isImageModel(req.Model) {
		cfg.ResponseModalities = []string{"IMAGE", "TEXT"}
	}
	return cfg
}

func fromGenaiResponse(resp *genai.GenerateContentResponse) *Response {
	out := &Response{}
	if resp == nil {
		return out
	}
	out.ModelVersion = resp.ModelVersion
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		out.PromptFeedback = &PromptFeedback{BlockReason: string(resp.PromptFeedback.BlockReason)}
	}
	if um := resp.UsageMetadata; um != nil {
		out.UsageMetadata = &UsageMetadata{
			PromptTokenCount:     int(um.PromptTokenCount),
			CandidatesTokenCount: int(um.CandidatesTokenCount),
			TotalTokenCount:      int(um.TotalTokenCount),
		}
	}
	for _, cand := range resp.Candidates {
		if cand == nil {
			// keep positions aligned with the wire response
			out.Candidates = append(out.Candidates, Candidate{})
			continue
		}
		c := Candidate{FinishReason: string(cand.FinishReason), Index: int(cand.Index)}
		if cand.Content != nil {
			c.Content = &Content{Role: cand.Content.Role}
			for _, p := range cand.Content.Parts {
				if p == nil {
					continue
				}
				part := Part{Text: p.Text}
				if p.InlineData != nil {
					part.InlineData = &InlineData{
						MimeType: p.InlineData.MIMEType,
						Data:     base64.StdEncoding.EncodeToString(p.InlineData.Data),
					}
				}
				c.Content.Parts = append(c.Content.Parts, part)
			}
		}
		out.Candidates = append(out.Candidates, c)
	}
	return out
}

// mapSDKError normalizes genai failures to the same APIError shapes the REST
// client produces. The bool reports a transport failure (no HTTP answer).
func mapSDKError(err error) (*apperrors.APIError, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code > 0 {
		mapped := apperrors.MapHTTPError(apiErr.Code, nil)
		if msg := strings.TrimSpace(apiErr.Message); msg != "" {
			mapped.Message = msg
		}
		return mapped, false
	}
	return apperrors.MapNetworkError(err), true
}
