package spclient

import (
	"context"
	"fmt"
	"regexp"

	"spfiles/infrastructure/config"
	"spfiles/logging"
	"spfiles/spauth"
)

// Router maps external document URLs onto (site, server URL) pairs so a
// caller can bootstrap a session straight from a link. URLs the pattern
// cannot parse fall back to the configured defaults unconditionally:
// callers always get a usable pair and cannot tell a parsed result from a
// defaulted one.
type Router struct {
	pattern          *regexp.Regexp
	siteIdx          int
	urlIdx           int
	defaultSite      string
	defaultServerURL string
	logger           *logging.Logger
}

// NewRouter compiles the configured URL pattern. The pattern must define
// the named capture groups site_name and server_url.
func NewRouter(cfg *config.AppConfig) (*Router, error) {
	pattern, err := regexp.Compile(cfg.URLPattern)
	if err != nil {
		return nil, fmt.Errorf("compile url pattern: %w", err)
	}
	siteIdx := pattern.SubexpIndex("site_name")
	urlIdx := pattern.SubexpIndex("server_url")
	if siteIdx < 0 || urlIdx < 0 {
		return nil, fmt.Errorf("url pattern must define the site_name and server_url groups")
	}
	return &Router{
		pattern:          pattern,
		siteIdx:          siteIdx,
		urlIdx:           urlIdx,
		defaultSite:      cfg.Site,
		defaultServerURL: cfg.ServerURL,
		logger:           logging.Default().WithComponent("urlrouter"),
	}, nil
}

// Resolve extracts (site, serverURL) from rawURL, or returns the configured
// default pair when the pattern does not match.
func (r *Router) Resolve(rawURL string) (site, serverURL string) {
	m := r.pattern.FindStringSubmatch(rawURL)
	if m == nil {
		r.logger.Debug("url does not name a site, using the configured default", "url", rawURL)
		return r.defaultSite, r.defaultServerURL
	}
	return m[r.siteIdx], m[r.urlIdx]
}

// SessionFromURL bootstraps a session from a document or folder URL:
// route the URL, resolve credentials from configuration (secrets file or
// explicit pair), then construct and verify the session.
func SessionFromURL(ctx context.Context, cfg *config.AppConfig, rawURL string) (*Session, error) {
	router, err := NewRouter(cfg)
	if err != nil {
		return nil, err
	}
	site, serverURL := router.Resolve(rawURL)
	creds, err := spauth.ResolveCredentials(site, cfg.CredFilePath, cfg.ClientID, cfg.ClientSecret)
	if err != nil {
		return nil, err
	}
	return NewSession(ctx, site, serverURL, creds)
}
