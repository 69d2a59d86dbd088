// Package urlutil holds the URL helpers shared by the crawler and the server.
package urlutil

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/idna"
)

var (
	ErrEmptyURL    = errors.New("empty url")
	ErrMissingHost = errors.New("missing host")
	ErrNotHTTP     = errors.New("scheme is not http or https")
)

// NormalizePage reduces a page URL to scheme://host/path: scheme and host are
// lower-cased (IDN hosts converted to punycode), default ports dropped, query
// and fragment removed, and trailing slashes trimmed from the path.
//
// Examples:
//
//	https://Example.com/a/b/?x=1#top  → https://example.com/a/b
//	https://example.com:443/          → https://example.com
func NormalizePage(raw string) (string, error) {
	u, err := parseHTTP(raw)
	if err != nil {
		return "", err
	}
	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	return u.String(), nil
}

// Resolve resolves ref against base, returning an absolute URL string.
func Resolve(base, ref string) (string, error) {
	b, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return "", fmt.Errorf("parsing base %q: %w", base, err)
	}
	r, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", fmt.Errorf("parsing reference %q: %w", ref, err)
	}
	return b.ResolveReference(r).String(), nil
}

// HasNoExtension reports whether the last path segment has no file extension.
//
//	https://example.com/data/table   → true
//	https://example.com/data/        → true
//	https://example.com/report.pdf   → false
func HasNoExtension(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	p := strings.TrimSuffix(u.Path, "/")
	return path.Ext(p) == ""
}

// IsHTTP reports whether raw is an absolute http(s) URL.
func IsHTTP(raw string) bool {
	_, err := parseHTTP(raw)
	return err == nil
}

func parseHTTP(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrEmptyURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing url %q: %w", raw, err)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%q: %w", raw, ErrNotHTTP)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return nil, fmt.Errorf("%q: %w", raw, ErrMissingHost)
	}
	if puny, err := idna.Lookup.ToASCII(host); err == nil {
		host = puny
	}

	port := u.Port()
	switch {
	case (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443"), port == "":
		if strings.Contains(host, ":") {
			host = "[" + host + "]"
		}
		u.Host = host
	default:
		u.Host = net.JoinHostPort(host, port)
	}
	u.User = nil
	return u, nil
}
