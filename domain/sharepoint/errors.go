package sharepoint

import "fmt"

// ConfigError occurs when credential configuration is missing or malformed.
// Raised at construction time only; never retried.
type ConfigError struct {
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("config: %s", e.Reason)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// AuthError occurs when the primary liveness check fails during session
// construction.
type AuthError struct {
	SiteURL string
	Err     error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authenticate against %s: %v", e.SiteURL, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// InputError occurs when an upload is invoked with neither a readable file
// path nor content bytes.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string { return "input: " + e.Reason }

// NotFoundError occurs when a requested remote file or folder does not exist.
type NotFoundError struct {
	Resource string
	Name     string
	Err      error
}

func (e *NotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %q not found: %v", e.Resource, e.Name, e.Err)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.Name)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// RemoteError is the catch-all for failures surfaced by SharePoint during a
// call.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("sharepoint: %s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }
