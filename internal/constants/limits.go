package constants

const (
	// MaxUploadBytes caps uploaded images (20MB).
	MaxUploadBytes = 20 * 1024 * 1024
	// MaxPromptLength caps an edit instruction in bytes.
	MaxPromptLength = 4 * 1024
	// UpstreamErrorSnippet is how much of an upstream error body is echoed back.
	UpstreamErrorSnippet = 200

	// DefaultEditRPM is the default per-session edit submissions per minute.
	DefaultEditRPM = 6
	// DefaultEditBurst is the default per-session burst.
	DefaultEditBurst = 3
)
