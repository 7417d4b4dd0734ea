// Package urlutil provides URL inspection and redaction utilities.
package urlutil

import (
	"fmt"
	"maps"
	"net"
	"net/url"
	"path"
	"slices"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// URL scheme constants.
const (
	SchemeHTTP  = "http"
	SchemeHTTPS = "https"
)

// RedactedValue replaces sensitive query values.
const RedactedValue = "[REDACTED]"

// sensitiveParams are query keys whose values are never logged. Matching is
// case-insensitive; keys longer than four characters also match as substrings,
// so "access_token" matches while "author" does not.
var sensitiveParams = []string{
	"password",
	"passwd",
	"secret",
	"token",
	"apikey",
	"api_key",
	"credential",
	"signature",
	"sig",
	"auth",
}

// IsRemoteURL checks if a URL is a remote URL that can be fetched.
// This includes URLs with http:// or https:// scheme and protocol-relative URLs.
func IsRemoteURL(u string) bool {
	lower := strings.ToLower(strings.TrimSpace(u))
	return strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "//")
}

// GetScheme returns the lowercased scheme of a URL or empty string if unknown.
func GetScheme(u string) string {
	parsed, err := url.Parse(strings.TrimSpace(u))
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Scheme)
}

// Host returns the lowercased hostname of u without port.
// Scheme-less input such as "youtu.be/abc" is parsed as if it were https.
func Host(u string) string {
	parsed := parseLoose(u)
	if parsed == nil {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}

// RegistrableDomain returns the eTLD+1 of u's host ("m.youtube.com" -> "youtube.com").
// IP addresses and hosts without a public suffix return the bare host.
func RegistrableDomain(u string) string {
	host := Host(u)
	if host == "" || net.ParseIP(host) != nil {
		return host
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}

// HostMatches reports whether u's host equals domain or is a subdomain of it.
func HostMatches(u, domain string) bool {
	host := Host(u)
	domain = strings.ToLower(domain)
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// Extension returns the lowercased extension of the URL path including the
// leading dot, ignoring query string and fragment. Returns "" when absent.
func Extension(u string) string {
	parsed := parseLoose(u)
	if parsed == nil {
		return ""
	}
	return strings.ToLower(path.Ext(parsed.Path))
}

// PathTokens splits the last path segment of u on dots, dashes, underscores
// and spaces, lowercased. "movie.HEVC.mp4" -> ["movie", "hevc", "mp4"].
func PathTokens(u string) []string {
	parsed := parseLoose(u)
	if parsed == nil {
		return nil
	}
	base := strings.ToLower(path.Base(parsed.Path))
	if base == "/" || base == "." {
		return nil
	}
	return Tokenize(base)
}

// Tokenize splits s on dots, dashes, underscores, spaces and plus signs.
func Tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == '.' || r == '-' || r == '_' || r == ' ' || r == '+'
	})
}

// Segments returns the lowercased text of u that can name its media: the
// last path segment, then the remaining path segments from the right, then
// query values ordered by key. Scheme, host and fragment are excluded.
func Segments(u string) []string {
	parsed := parseLoose(u)
	if parsed == nil {
		return nil
	}

	var segments []string
	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	for i := len(parts) - 1; i >= 0; i-- {
		if parts[i] != "" {
			segments = append(segments, strings.ToLower(parts[i]))
		}
	}

	query := parsed.Query()
	for _, key := range slices.Sorted(maps.Keys(query)) {
		for _, v := range query[key] {
			if v != "" {
				segments = append(segments, strings.ToLower(v))
			}
		}
	}
	return segments
}

// Truncate caps s at maxLen characters, appending "..." when cut.
func Truncate(s string, maxLen int) string {
	runes := []rune(s)
	if maxLen <= 0 || len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

// Redact masks the values of sensitive query parameters and any userinfo
// password. Unparseable input is returned unchanged.
func Redact(u string) string {
	parsed, err := url.Parse(u)
	if err != nil || (parsed.Scheme == "" && parsed.Host == "") {
		return u
	}

	if parsed.User != nil {
		if _, hasPassword := parsed.User.Password(); hasPassword {
			parsed.User = url.UserPassword(parsed.User.Username(), RedactedValue)
		}
	}

	if parsed.RawQuery != "" {
		parts := strings.Split(parsed.RawQuery, "&")
		for i, part := range parts {
			key, _, found := strings.Cut(part, "=")
			if found && IsSensitiveKey(key) {
				parts[i] = key + "=" + RedactedValue
			}
		}
		parsed.RawQuery = strings.Join(parts, "&")
	}

	out := parsed.String()
	// url.URL escapes the brackets in userinfo.
	return strings.ReplaceAll(out, url.QueryEscape(RedactedValue), RedactedValue)
}

// IsSensitiveKey reports whether key names a credential-bearing field.
func IsSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range sensitiveParams {
		if lower == s || (len(s) > 4 && strings.Contains(lower, s)) {
			return true
		}
	}
	return false
}

// ValidateURL checks that u is an absolute http(s) URL with a host.
func ValidateURL(u string) error {
	if strings.TrimSpace(u) == "" {
		return fmt.Errorf("URL is required")
	}

	parsed, err := url.Parse(strings.TrimSpace(u))
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}

	switch strings.ToLower(parsed.Scheme) {
	case SchemeHTTP, SchemeHTTPS:
		if parsed.Host == "" {
			return fmt.Errorf("URL has no host: %s", Redact(u))
		}
		return nil
	case "":
		return fmt.Errorf("URL must include a scheme (http:// or https://)")
	default:
		return fmt.Errorf("unsupported URL scheme: %s (supported: http, https)", parsed.Scheme)
	}
}

func parseLoose(u string) *url.URL {
	u = strings.TrimSpace(u)
	if u == "" {
		return nil
	}
	if strings.HasPrefix(u, "//") {
		u = "https:" + u
	} else if !strings.Contains(u, "://") {
		u = "https://" + u
	}
	parsed, err := url.Parse(u)
	if err != nil {
		return nil
	}
	return parsed
}
