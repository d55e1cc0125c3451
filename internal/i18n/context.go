package i18n

import "context"

type ctxKey struct{}

// WithLocale attaches the locale used for messages produced further down the
// call chain.
func WithLocale(ctx context.Context, l Locale) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the attached locale or Default.
func FromContext(ctx context.Context) Locale {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(Locale); ok && l != "" {
			return l
		}
	}
	return Default
}
