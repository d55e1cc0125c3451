package gemini

import (
	"net/http"

	apperrors "photo-architect/internal/errors"

	"github.com/tidwall/gjson"
)

// parseResponse decodes a generateContent body with gjson. Both camelCase
// and snake_case keys are accepted for inline data.
func parseResponse(raw []byte) (*Response, error) {
	if !gjson.ValidBytes(raw) {
		return nil, apperrors.New(http.StatusBadGateway, "malformed_response", "server_error", "generation API returned a malformed response")
	}
	root := gjson.ParseBytes(raw)
	out := &Response{ModelVersion: root.Get("modelVersion").String()}

	if br := root.Get("promptFeedback.blockReason"); br.Exists() {
		out.PromptFeedback = &PromptFeedback{BlockReason: br.String()}
	}
	if um := root.Get("usageMetadata"); um.Exists() {
		out.UsageMetadata = &UsageMetadata{
			PromptTokenCount:     int(um.Get("promptTokenCount").Int()),
			CandidatesTokenCount: int(um.Get("candidatesTokenCount").Int()),
			TotalTokenCount:      int(um.Get("totalTokenCount").Int()),
		}
	}
	root.Get("candidates").ForEach(func(_, cand gjson.Result) bool {
		c := Candidate{
			FinishReason: cand.Get("finishReason").String(),
			Index:        int(cand.Get("index").Int()),
		}
		if content := cand.Get("content"); content.Exists() {
			c.Content = &Content{Role: content.Get("role").String()}
			content.Get("parts").ForEach(func(_, p gjson.Result) bool {
				c.Content.Parts = append(c.Content.Parts, parsePart(p))
				return true
			})
		}
		out.Candidates = append(out.Candidates, c)
		return true
	})
	return out, nil
}

func parsePart(p gjson.Result) Part {
	part := Part{Text: p.Get("text").String()}
	inline := p.Get("inlineData")
	if !inline.Exists() {
		inline = p.Get("inline_data")
	}
	if inline.Exists() {
		mime := inline.Get("mimeType").String()
		if mime == "" {
			mime = inline.Get("mime_type").String()
		}
		part.InlineData = &InlineData{MimeType: mime, Data: inline.Get("data").String()}
	}
	return part
}
