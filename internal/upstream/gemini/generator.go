package gemini

import (
	"context"

	"photo-architect/internal/config"
)

// Generator performs one generateContent call. Implementations make exactly
// one outbound request and never retry.
type Generator interface {
	GenerateContent(ctx context.Context, req *Request) (*Response, error)
	Name() string
}

// NewGenerator returns the transport selected by gemini.transport.
func NewGenerator(ctx context.Context, cfg *config.Config) (Generator, error) {
	if cfg.UseSDK() {
		return NewSDK(ctx, cfg)
	}
	return New(cfg), nil
}
