package config

import (
	"fmt"
	"net/url"
	"strings"
)

// DeprecatedAPIPath is the placeholder older deployments shipped as the API
// base URL. It is ignored in favour of the same-origin URL.
const DeprecatedAPIPath = "/api"

const defaultOrigin = "http://localhost:8080"

type APIConfig interface {
	GetAPIBaseURL() string
	GetOrigin() string
	ResolveBaseURL() (string, error)
}

type API struct {
	file *FileValues
}

var _ APIConfig = API{}

// GetAPIBaseURL returns the raw override, absolute or relative. It may be empty.
func (a API) GetAPIBaseURL() string {
	return lookup(apiBaseURLEnvVar, a.file.APIBaseURL, "")
}

// GetOrigin returns the scheme://host[:port] the client is considered to be
// served from.
func (a API) GetOrigin() string {
	return lookup(originEnvVar, a.file.Origin, defaultOrigin)
}

func (a API) ResolveBaseURL() (string, error) {
	return ResolveBaseURL(a.GetAPIBaseURL(), a.GetOrigin())
}

// ResolveBaseURL picks the API base URL in order: an absolute override, a
// relative override that is not the deprecated placeholder (resolved against
// origin), then origin itself. The trailing slash is removed.
func ResolveBaseURL(override, origin string) (string, error) {
	override = strings.TrimSpace(override)
	if isAbsoluteHTTP(override) {
		return strings.TrimRight(override, "/"), nil
	}

	originURL, err := parseOrigin(origin)
	if err != nil {
		return "", err
	}

	if override != "" && override != DeprecatedAPIPath {
		ref, err := url.Parse(override)
		if err != nil {
			return "", fmt.Errorf("[ResolveBaseURL] invalid relative base URL %q: %w", override, err)
		}
		return strings.TrimRight(originURL.ResolveReference(ref).String(), "/"), nil
	}

	return strings.TrimRight(originURL.String(), "/"), nil
}

func isAbsoluteHTTP(raw string) bool {
	return strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://")
}

func parseOrigin(origin string) (*url.URL, error) {
	if origin == "" {
		origin = defaultOrigin
	}
	u, err := url.Parse(origin)
	if err != nil {
		return nil, fmt.Errorf("[ResolveBaseURL] invalid origin %q: %w", origin, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("[ResolveBaseURL] origin %q must include scheme and host", origin)
	}
	return &url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}, nil
}
