// Package spclient provides an authenticated SharePoint session with
// resource resolution (document libraries, folders, files) and transfer
// operations. All methods are direct, blocking round trips through the
// gosip SDK; there is no retry or backoff layer.
package spclient

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/koltyakov/gosip"
	"github.com/koltyakov/gosip/api"

	"spfiles/domain/sharepoint"
	"spfiles/logging"
	"spfiles/spauth"
)

// Session is an authenticated context bound to one site. The complete URL
// is derived once at construction and never recomputed; every resource
// lookup is scoped to it for the session's lifetime.
//
// A Session is single-owner: it has no internal locking and must not be
// shared between goroutines. Callers wanting parallelism run one Session
// per worker.
type Session struct {
	site        string
	serverURL   string
	completeURL string

	client *gosip.SPClient
	sp     *api.SP
	web    *sharepoint.Web

	logger *logging.Logger
}

// NewSession authenticates against {serverURL}/sites/{site} with the given
// credentials and verifies the context in two phases. Fetching the web root
// is load-bearing: its failure aborts construction with
// *sharepoint.AuthError. Fetching the site object is best-effort and its
// failure is only logged; the session is returned as usable.
func NewSession(ctx context.Context, site, serverURL string, creds spauth.Credentials) (*Session, error) {
	completeURL := fmt.Sprintf("%s/sites/%s", serverURL, site)
	return NewSessionWithClient(ctx, site, serverURL, spauth.NewClient(completeURL, creds))
}

// NewSessionWithClient builds a Session from a prebuilt gosip client. The
// client's auth configuration must already target {serverURL}/sites/{site}.
// The same two-phase verification as NewSession applies.
func NewSessionWithClient(ctx context.Context, site, serverURL string, client *gosip.SPClient) (*Session, error) {
	s := &Session{
		site:        site,
		serverURL:   serverURL,
		completeURL: fmt.Sprintf("%s/sites/%s", serverURL, site),
		client:      client,
		sp:          api.NewSP(client),
		logger:      logging.Default().WithComponent("spclient"),
	}

	sp := s.sp.Conf(requestConfig(ctx))

	// Phase one: the web root must be reachable.
	webRes, err := sp.Web().Select(webFields).Get()
	if err != nil {
		return nil, &sharepoint.AuthError{SiteURL: s.completeURL, Err: err}
	}
	var wi webInfoJSON
	if err := json.Unmarshal(webRes.Normalized(), &wi); err != nil {
		return nil, &sharepoint.AuthError{SiteURL: s.completeURL, Err: fmt.Errorf("decode web: %w", err)}
	}
	s.web = mapWeb(&wi)

	// Phase two: best-effort. A failure here does not invalidate the session.
	if _, err := sp.Site().Get(); err != nil {
		s.logger.Warn("site verification failed, continuing with web context only",
			"site_url", s.completeURL, "error", err.Error())
	}

	return s, nil
}

// Site returns the short site name the session is bound to.
func (s *Session) Site() string { return s.site }

// ServerURL returns the server URL the session is bound to.
func (s *Session) ServerURL() string { return s.serverURL }

// CompleteURL returns serverURL + "/sites/" + site, derived once at
// construction.
func (s *Session) CompleteURL() string { return s.completeURL }

// Web returns the web root fetched during the primary liveness check.
func (s *Session) Web() *sharepoint.Web { return s.web }

// requestConfig carries the per-call context into the SDK.
func requestConfig(ctx context.Context) *api.RequestConfig {
	return &api.RequestConfig{Context: ctx, Headers: map[string]string{}}
}
