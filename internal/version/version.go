package version

// Version information (injected at build time via -ldflags)
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// Full returns a human readable build string.
func Full() string {
	return Version + " (" + GitCommit + ") built at " + BuildTime
}
