package spclient

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spfiles/infrastructure/config"
)

func routerConfig() *config.AppConfig {
	return &config.AppConfig{
		Site:       "defaultsite",
		ServerURL:  "https://default.example",
		URLPattern: config.DefaultURLPattern,
	}
}

func TestNewRouter_RejectsBadPatterns(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
	}{
		{name: "uncompilable", pattern: "("},
		{name: "missing site_name group", pattern: `^(?P<server_url>https?://[^/]+)/sites/([^/]+)`},
		{name: "missing server_url group", pattern: `^https?://[^/]+/sites/(?P<site_name>[^/]+)`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := routerConfig()
			cfg.URLPattern = tt.pattern
			_, err := NewRouter(cfg)
			assert.Error(t, err)
		})
	}
}

func TestRouter_Resolve(t *testing.T) {
	router, err := NewRouter(routerConfig())
	require.NoError(t, err)

	tests := []struct {
		name       string
		url        string
		wantSite   string
		wantServer string
	}{
		{
			name:       "document url",
			url:        "https://contoso.example/sites/Engineering/Shared%20Documents/report.docx",
			wantSite:   "Engineering",
			wantServer: "https://contoso.example",
		},
		{
			name:       "bare site url",
			url:        "http://intranet.local/sites/hr",
			wantSite:   "hr",
			wantServer: "http://intranet.local",
		},
		{
			name:       "unroutable url falls back to defaults",
			url:        "https://contoso.example/teams/Engineering",
			wantSite:   "defaultsite",
			wantServer: "https://default.example",
		},
		{
			name:       "garbage falls back to defaults",
			url:        "not a url at all",
			wantSite:   "defaultsite",
			wantServer: "https://default.example",
		},
		{
			name:       "empty falls back to defaults",
			url:        "",
			wantSite:   "defaultsite",
			wantServer: "https://default.example",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			site, serverURL := router.Resolve(tt.url)
			assert.Equal(t, tt.wantSite, site)
			assert.Equal(t, tt.wantServer, serverURL)
		})
	}
}

func TestSessionFromURL_CredentialResolutionFailureSurfaces(t *testing.T) {
	cfg := routerConfig()
	cfg.CredFilePath = ""
	cfg.ClientID = ""
	cfg.ClientSecret = ""

	_, err := SessionFromURL(context.Background(), cfg, "https://contoso.example/sites/Engineering/doc.docx")
	assert.Error(t, err)
}
