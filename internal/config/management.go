package config

import "golang.org/x/crypto/bcrypt"

// CheckAdminKey validates a supplied admin key against the configured
// credential.
func CheckAdminKey(cfg *Config, candidate string) bool {
	if cfg == nil || candidate == "" {
		return false
	}
	if cfg.Admin.Key != "" && candidate == cfg.Admin.Key {
		return true
	}
	if cfg.Admin.KeyHash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(cfg.Admin.KeyHash), []byte(candidate)); err == nil {
			return true
		}
	}
	return false
}

// AdminKeyValidator returns a closure suitable for middleware validation. The
// current configuration is read on every call so reloaded keys take effect.
func AdminKeyValidator(current func() *Config) func(string) bool {
	return func(candidate string) bool {
		return CheckAdminKey(current(), candidate)
	}
}
