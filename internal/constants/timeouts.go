package constants

import "time"

const (
	// EditTimeout bounds a single edit call to the generation API.
	EditTimeout = 120 * time.Second
	// ServerShutdownTimeout bounds graceful HTTP server shutdown.
	ServerShutdownTimeout = 30 * time.Second
	// ServerReadHeaderTimeout limits slow clients on the public listener.
	ServerReadHeaderTimeout = 15 * time.Second
	// SessionIdleTTL is how long an untouched session survives before it is swept.
	SessionIdleTTL = 30 * time.Minute
	// SessionSweepInterval controls how often idle sessions are swept.
	SessionSweepInterval = 2 * time.Minute
	// SSEKeepAliveInterval is the comment ping cadence on event streams.
	SSEKeepAliveInterval = 20 * time.Second
)
