package crawler

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/asaskevich/govalidator"
)

// schemePrefixLen is the fixed number of leading characters dropped from a URL
// before it becomes a filename. It matches "https://".
const schemePrefixLen = len("https://")

var (
	trailingNonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]$`)
	nonAlnumRuns     = regexp.MustCompile(`[^a-zA-Z0-9]+`)
)

// EncodeURLToFilename maps a URL to the base name of its artifact file. Distinct
// URLs may collide; the later write wins.
func EncodeURLToFilename(rawURL string) string {
	name := ""
	if len(rawURL) > schemePrefixLen {
		name = rawURL[schemePrefixLen:]
	}
	name = trailingNonAlnum.ReplaceAllString(name, "")
	return nonAlnumRuns.ReplaceAllString(name, "_")
}

// ForceAbsoluteURL resolves href against baseURL. A href carrying both a scheme
// and a host is returned unchanged.
func ForceAbsoluteURL(baseURL, href string) (string, error) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("parse href %q: %w", href, err)
	}
	if ref.Scheme != "" && ref.Host != "" {
		return href, nil
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url %q: %w", baseURL, err)
	}
	return base.ResolveReference(ref).String(), nil
}

// IsValidURL reports whether raw is an absolute http(s) URL whose host is an IP
// literal or a dotted domain name with an alphabetic TLD. Single-label hosts
// such as localhost are rejected.
func IsValidURL(raw string) bool {
	if !govalidator.IsURL(raw) {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || strings.HasSuffix(u.Host, ":") {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return false
	}
	if port := u.Port(); port != "" && !govalidator.IsPort(port) {
		return false
	}
	host := u.Hostname()
	if govalidator.IsIP(host) {
		return true
	}
	return isDomainName(host)
}

func isDomainName(host string) bool {
	host = strings.TrimSuffix(host, ".")
	if !govalidator.IsDNSName(host) || strings.Contains(host, "_") {
		return false
	}
	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return false
	}
	return !govalidator.IsNumeric(labels[len(labels)-1])
}
