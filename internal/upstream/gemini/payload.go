package gemini

import (
	"strings"

	"github.com/tidwall/sjson"
)

func isImageModel(model string) bool {
	return strings.Contains(strings.ToLower(model), "image")
}

// fixImageHints makes sure image models are asked for an image back and
// strips thinkingConfig, which those models reject.
func fixImageHints(model string, raw []byte) []byte {
	if !isImageModel(model) {
		return raw
	}
	out, err := sjson.SetBytes(raw, "generationConfig.responseModalities", []string{"IMAGE", "TEXT"})
	if err != nil {
		out = raw
	}
	return deleteJSONField(out, "generationConfig.thinkingConfig")
}

// deleteJSONField removes a JSON path (dot notation) from a payload using sjson.
func deleteJSONField(body []byte, path string) []byte {
	if strings.TrimSpace(path) == "" {
		return body
	}
	out, err := sjson.DeleteBytes(body, path)
	if err != nil {
		return body
	}
	return out
}
