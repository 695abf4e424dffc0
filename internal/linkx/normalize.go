package linkx

import (
	"net/url"
	"regexp"
	"strings"
)

var absoluteURLRe = regexp.MustCompile(`https?://[^\s<>"]+`)

// candidateMarkers mark a URL as a marketplace product link or a shortener
// that may redirect to one. Everything else found in source text is ignored.
var candidateMarkers = []string{
	"aliexpress",
	"s.click",
	"bit.ly",
	"tinyurl",
}

// wrapChars are punctuation that message formatting tends to glue onto links.
const wrapChars = ".,;:!?…*_~'\"`()[]{}<>«»"

// ExtractCandidates returns marketplace-relevant URLs found in text, in
// order of appearance, with wrapping punctuation trimmed.
func ExtractCandidates(text string) []string {
	var out []string
	for _, m := range absoluteURLRe.FindAllString(text, -1) {
		m = strings.TrimRight(m, wrapChars)
		if !isCandidate(m) {
			continue
		}
		out = append(out, m)
	}
	return out
}

func isCandidate(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, marker := range candidateMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// Normalize rebuilds a URL keeping only scheme, host and path. Query
// parameters are dropped entirely: they frequently carry a competing
// affiliate's tracking tag that must not reach the marketplace API.
// Normalize is idempotent and performs no network I/O.
func Normalize(raw string) string {
	raw = strings.Trim(strings.TrimSpace(raw), wrapChars)
	if raw == "" {
		return raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return raw
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = CanonicalHost(u.Host)
	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""
	u.User = nil

	return u.String()
}

// CanonicalHost rewrites known mobile domain variants to the canonical
// desktop domain. Identifier extraction and the marketplace API only
// recognize the canonical form.
func CanonicalHost(host string) string {
	host = strings.ToLower(host)
	switch host {
	case "m.aliexpress.com", "a.aliexpress.com":
		return "www.aliexpress.com"
	}
	return host
}
