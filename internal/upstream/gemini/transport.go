package gemini

import (
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"photo-architect/internal/config"
	"photo-architect/internal/constants"

	log "github.com/sirupsen/logrus"
)

func secondsOr(sec int, def time.Duration) time.Duration {
	if sec > 0 {
		return time.Duration(sec) * time.Second
	}
	return def
}

// newTransport builds the shared http.Transport used by both generators.
func newTransport(cfg *config.Config) *http.Transport {
	g := cfg.Gemini
	return &http.Transport{
		Proxy: getProxyFunc(g.ProxyURL),
		DialContext: (&net.Dialer{
			Timeout:   secondsOr(g.DialTimeoutSec, constants.DefaultDialTimeout),
			KeepAlive: constants.DefaultKeepAlive,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          constants.BaseMaxIdleConns,
		MaxIdleConnsPerHost:   constants.BaseMaxIdleConnsPerHost,
		IdleConnTimeout:       constants.BaseIdleConnTimeout,
		TLSHandshakeTimeout:   secondsOr(g.TLSHandshakeTimeoutSec, constants.DefaultTLSHandshakeTimeout),
		ResponseHeaderTimeout: secondsOr(g.ResponseHeaderTimeoutSec, constants.DefaultResponseHeaderTimeout),
		ExpectContinueTimeout: constants.DefaultExpectContinueTimeout,
	}
}

// getProxyFunc prefers the configured proxy and falls back to the environment.
func getProxyFunc(proxyURL string) func(*http.Request) (*url.URL, error) {
	proxyURL = strings.TrimSpace(proxyURL)
	if proxyURL == "" {
		return http.ProxyFromEnvironment
	}
	u, err := url.Parse(proxyURL)
	if err != nil || u.Host == "" {
		log.WithError(err).WithField("proxy_url", proxyURL).Warn("invalid proxy url, using environment proxy")
		return http.ProxyFromEnvironment
	}
	return http.ProxyURL(u)
}
