// Package imagecodec converts between self-describing data URLs and raw image
// bytes.
package imagecodec

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"regexp"
	"strings"
	"time"

	apperrors "photo-architect/internal/errors"

	_ "golang.org/x/image/webp"
)

// DefaultMIME is assumed whenever a data URL does not name its media type.
const DefaultMIME = "image/png"

var mimePattern = regexp.MustCompile(`data:([^;]+);`)

// DecodeDataURL splits a data URL into its MIME type and base64 payload.
// Input without a comma is treated as a bare payload of DefaultMIME.
func DecodeDataURL(input string) (mimeType, payload string, err error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", "", &apperrors.MalformedImageError{Reason: "empty input"}
	}
	payload = s
	if idx := strings.IndexByte(s, ','); idx >= 0 {
		payload = s[idx+1:]
	}
	mimeType = DefaultMIME
	if m := mimePattern.FindStringSubmatch(s); m != nil {
		mimeType = m[1]
	}
	return mimeType, payload, nil
}

// EncodeDataURL formats a base64 payload as a data URL.
func EncodeDataURL(mimeType, payload string) string {
	if mimeType == "" {
		mimeType = DefaultMIME
	}
	return "data:" + mimeType + ";base64," + payload
}

// FromUpload validates raw upload bytes and returns them as a data URL. The
// MIME type is taken from the decoded format; declaredMIME is only used when
// the format has no known media type.
func FromUpload(data []byte, declaredMIME string) (string, error) {
	if len(data) == 0 {
		return "", &apperrors.MalformedImageError{Reason: "empty file"}
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", &apperrors.MalformedImageError{Reason: err.Error()}
	}
	mimeType := formatMIME(format)
	if mimeType == "" {
		mimeType = declaredMIME
	}
	return EncodeDataURL(mimeType, base64.StdEncoding.EncodeToString(data)), nil
}

// Bytes decodes the payload of a data URL.
func Bytes(dataURL string) (string, []byte, error) {
	mimeType, payload, err := DecodeDataURL(dataURL)
	if err != nil {
		return "", nil, err
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, &apperrors.MalformedImageError{Reason: fmt.Sprintf("invalid base64: %v", err)}
	}
	return mimeType, raw, nil
}

// DownloadName builds a timestamped file name such as photo-architect-20250102-150405.png.
func DownloadName(prefix, mimeType string, t time.Time) string {
	if prefix == "" {
		prefix = "image"
	}
	return fmt.Sprintf("%s-%s.%s", prefix, t.Format("20060102-150405"), Extension(mimeType))
}

// Extension maps an image MIME type to a file extension, png when unknown.
func Extension(mimeType string) string {
	switch strings.ToLower(mimeType) {
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	default:
		return "png"
	}
}

func formatMIME(format string) string {
	switch format {
	case "png":
		return "image/png"
	case "jpeg":
		return "image/jpeg"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	}
	return ""
}
