// Package spauth resolves SharePoint client credentials and builds the
// authenticated gosip client. Credentials come from a local secrets file
// keyed by site, or from an explicit client id/secret pair; resolution
// happens once, at session construction.
package spauth

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/koltyakov/gosip"
	"github.com/koltyakov/gosip/auth/addin"

	"spfiles/domain/sharepoint"
)

const redacted = "[REDACTED]"

// Secret holds a credential value that must not leak into logs, dumps or
// serialized output. Reveal is the only way to read it back.
type Secret string

func (s Secret) String() string { return redacted }

func (s Secret) GoString() string { return "spauth.Secret(" + redacted + ")" }

// LogValue redacts the secret in slog output.
func (s Secret) LogValue() slog.Value { return slog.StringValue(redacted) }

// MarshalJSON redacts the secret in JSON output.
func (s Secret) MarshalJSON() ([]byte, error) { return json.Marshal(redacted) }

// Reveal returns the raw secret value.
func (s Secret) Reveal() string { return string(s) }

// IsZero returns true when no secret is set.
func (s Secret) IsZero() bool { return s == "" }

// Credentials is the client identity used for SharePoint add-in auth.
type Credentials struct {
	ClientID     string
	ClientSecret Secret
}

// secretsFile mirrors the on-disk shape:
// {"sites": {<site>: {"username": "...", "password": "..."}}}
type secretsFile struct {
	Sites map[string]struct {
		Username string `json:"username"`
		Password string `json:"password"`
	} `json:"sites"`
}

// ResolveCredentials produces the credentials for a site. A secrets file,
// when given, wins over the explicit pair; the file's username/password
// entry for the site maps onto client id/secret. With no file, both
// clientID and clientSecret must be non-empty.
func ResolveCredentials(site, credPath, clientID, clientSecret string) (Credentials, error) {
	if credPath != "" {
		data, err := os.ReadFile(credPath)
		if err != nil {
			return Credentials{}, &sharepoint.ConfigError{
				Reason: fmt.Sprintf("read secrets file %s", credPath),
				Err:    err,
			}
		}
		var sf secretsFile
		if err := json.Unmarshal(data, &sf); err != nil {
			return Credentials{}, &sharepoint.ConfigError{
				Reason: fmt.Sprintf("parse secrets file %s", credPath),
				Err:    err,
			}
		}
		entry, ok := sf.Sites[site]
		if !ok {
			return Credentials{}, &sharepoint.ConfigError{
				Reason: fmt.Sprintf("no entry for site %q in %s", site, credPath),
			}
		}
		return Credentials{
			ClientID:     entry.Username,
			ClientSecret: Secret(entry.Password),
		}, nil
	}

	if clientID == "" || clientSecret == "" {
		return Credentials{}, &sharepoint.ConfigError{
			Reason: "missing credentials: provide a secrets file or both client_id and client_secret",
		}
	}
	return Credentials{
		ClientID:     clientID,
		ClientSecret: Secret(clientSecret),
	}, nil
}

// NewClient builds a gosip client for siteURL using the add-in only
// (client credential) strategy.
func NewClient(siteURL string, creds Credentials) *gosip.SPClient {
	ac := &addin.AuthCnfg{
		SiteURL:      siteURL,
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret.Reveal(),
	}
	return &gosip.SPClient{AuthCnfg: ac}
}
