package gemini

// DTOs for the Generative Language generateContent endpoint. Only the fields
// used for image edits are modelled.

// Request is one generateContent call. Model is carried out of band in the URL.
type Request struct {
	Model            string            `json:"-"`
	Contents         []Content         `json:"contents"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
}

// Content represents a content item in the request or a candidate.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts,omitempty"`
}

// Part represents a part of content (text or inline data).
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inlineData,omitempty"`
}

// InlineData represents inline binary data
type InlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"` // base64 encoded
}

type GenerationConfig struct {
	ResponseModalities []string `json:"responseModalities,omitempty"`
	Temperature        *float64 `json:"temperature,omitempty"`
}

// Response is the decoded generateContent answer.
type Response struct {
	Candidates     []Candidate     `json:"candidates,omitempty"`
	PromptFeedback *PromptFeedback `json:"promptFeedback,omitempty"`
	UsageMetadata  *UsageMetadata  `json:"usageMetadata,omitempty"`
	ModelVersion   string          `json:"modelVersion,omitempty"`
}

type Candidate struct {
	Content      *Content `json:"content,omitempty"`
	FinishReason string   `json:"finishReason,omitempty"`
	Index        int      `json:"index,omitempty"`
}

// PromptFeedback is set when the prompt itself was blocked.
type PromptFeedback struct {
	BlockReason string `json:"blockReason,omitempty"`
}

type UsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount,omitempty"`
	CandidatesTokenCount int `json:"candidatesTokenCount,omitempty"`
	TotalTokenCount      int `json:"totalTokenCount,omitempty"`
}

// NewImageEditRequest builds a single user turn with the source image first
// and the instruction text second.
func NewImageEditRequest(model, mimeType, payload, text string) *Request {
	return &Request{
		Model: model,
		Contents: []Content{{
			Role: "user",
			Parts: []Part{
				{InlineData: &InlineData{MimeType: mimeType, Data: payload}},
				{Text: text},
			},
		}},
		GenerationConfig: &GenerationConfig{ResponseModalities: []string{"IMAGE", "TEXT"}},
	}
}

// FirstInlineImage returns the first inline data part of the first
// candidate. Later candidates are never consulted.
func (r *Response) FirstInlineImage() (*InlineData, bool) {
	if r == nil || len(r.Candidates) == 0 {
		return nil, false
	}
	c := r.Candidates[0].Content
	if c == nil {
		return nil, false
	}
	for _, p := range c.Parts {
		if p.InlineData != nil && p.InlineData.Data != "" {
			return p.InlineData, true
		}
	}
	return nil, false
}

// Reason explains why a response carries no image: the prompt block reason
// or the first candidate's finish reason.
func (r *Response) Reason() string {
	if r == nil {
		return ""
	}
	if r.PromptFeedback != nil && r.PromptFeedback.BlockReason != "" {
		return r.PromptFeedback.BlockReason
	}
	if len(r.Candidates) > 0 {
		return r.Candidates[0].FinishReason
	}
	return ""
}

// Text concatenates the text parts of the first candidate.
func (r *Response) Text() string {
	if r == nil || len(r.Candidates) == 0 || r.Candidates[0].Content == nil {
		return ""
	}
	var out string
	for _, p := range r.Candidates[0].Content.Parts {
		out += p.Text
	}
	return out
}
