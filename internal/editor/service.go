// Package editor turns one (image, instruction) pair into one call to the
// generation API and extracts the edited image from the answer.
package editor

import (
	"context"
	"errors"
	"strings"
	"time"

	"photo-architect/internal/common"
	"photo-architect/internal/config"
	apperrors "photo-architect/internal/errors"
	"photo-architect/internal/i18n"
	"photo-architect/internal/imagecodec"
	"photo-architect/internal/monitoring"
	"photo-architect/internal/monitoring/tracing"
	"photo-architect/internal/upstream/gemini"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Editor is what the session controller depends on.
type Editor interface {
	EditImage(ctx context.Context, sourceImage, instruction string) (string, error)
}

type Options struct {
	Model     string
	Timeout   time.Duration
	SlowCalls *monitoring.SlowCallLog
}

// Service is safe for concurrent use; it holds no per-call state.
type Service struct {
	gen     gemini.Generator
	model   string
	timeout time.Duration
	slow    *monitoring.SlowCallLog
}

func New(gen gemini.Generator, opts Options) *Service {
	if opts.Model == "" {
		opts.Model = config.DefaultModel
	}
	if opts.SlowCalls == nil {
		opts.SlowCalls = monitoring.SlowCalls()
	}
	return &Service{gen: gen, model: opts.Model, timeout: opts.Timeout, slow: opts.SlowCalls}
}

// NewFromConfig wires model and timeout from configuration.
func NewFromConfig(gen gemini.Generator, cfg *config.Config) *Service {
	return New(gen, Options{Model: cfg.Gemini.Model, Timeout: cfg.EditTimeout()})
}

func (s *Service) Model() string { return s.model }

// EditImage sends exactly one request. Messages on returned errors use the
// locale attached with i18n.WithLocale.
func (s *Service) EditImage(ctx context.Context, sourceImage, instruction string) (string, error) {
	loc := i18n.FromContext(ctx)
	mime, payload, err := imagecodec.DecodeDataURL(sourceImage)
	if err != nil {
		return "", err
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	ctx, span := tracing.StartSpan(ctx, "editor", "Editor.EditImage")
	span.SetAttributes(
		attribute.String("llm.model", s.model),
		attribute.String("image.mime", mime),
		attribute.Int("prompt.length", len(instruction)),
	)
	defer span.End()

	req := gemini.NewImageEditRequest(s.model, mime, payload, common.BuildEditPrompt(instruction))
	start := time.Now()
	resp, err := s.gen.GenerateContent(ctx, req)
	s.slow.Observe("edit_image", s.model+" via "+s.gen.Name(), start, time.Since(start), err != nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generate failed")
		var malformed *apperrors.MalformedImageError
		if errors.As(err, &malformed) {
			return "", err
		}
		return "", &apperrors.EditServiceError{Message: serviceMessage(err, loc), Cause: err}
	}

	img, ok := resp.FirstInlineImage()
	if !ok {
		reason := resp.Reason()
		span.SetStatus(codes.Error, "no image")
		log.WithFields(log.Fields{
			"model":         s.model,
			"finish_reason": reason,
			"text":          truncate(resp.Text(), 200),
		}).Warn("generation returned no image")
		return "", &apperrors.EditNoImageReturnedError{
			Message:      i18n.T(loc, i18n.MsgNoImageReturned),
			FinishReason: reason,
		}
	}
	span.SetStatus(codes.Ok, "")
	return imagecodec.EncodeDataURL(img.MimeType, img.Data), nil
}

// serviceMessage prefers the upstream message and falls back to the
// localized generic one.
func serviceMessage(err error, loc i18n.Locale) string {
	var apiErr *apperrors.APIError
	msg := ""
	if errors.As(err, &apiErr) {
		msg = apiErr.Message
	} else if err != nil {
		msg = err.Error()
	}
	if msg = strings.TrimSpace(msg); msg == "" {
		return i18n.T(loc, i18n.MsgServiceDown)
	}
	return msg
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
