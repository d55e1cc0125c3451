package upstream

import (
	"context"
	"io"
	"net/http"
)

type ctxKey int

const (
	ctxRequestID ctxKey = iota
)

// WithRequestID 将浏览器请求的 request id 附着到 context 中，上游调用时透传。
func WithRequestID(ctx context.Context, rid string) context.Context {
	if rid == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxRequestID, rid)
}

// RequestID 从 context 中读取 request id。
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRequestID).(string); ok {
		return v
	}
	return ""
}

// ReadAll 读取并返回响应体，读取完成后自动关闭。limit 大于 0 时限制读取长度。
func ReadAll(resp *http.Response, limit int64) ([]byte, error) {
	if resp == nil || resp.Body == nil {
		return nil, nil
	}
	defer resp.Body.Close()
	if limit > 0 {
		return io.ReadAll(io.LimitReader(resp.Body, limit))
	}
	return io.ReadAll(resp.Body)
}
