// Package assemble merges rewritten caption text with the final affiliate
// link. The output always contains the affiliate link exactly once and no
// other absolute URL, guarding against the caption writer hallucinating an
// extra link or dropping the required one.
package assemble

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	absoluteURLRe = regexp.MustCompile(`https?://[^\s<>"()]+`)
	// Percent-encoded URLs leak out of tracking wrappers and must be
	// stripped like any other foreign link.
	encodedURLRe = regexp.MustCompile(`https?%3A%2F%2F[^\s<>"()]+`)

	markerIDRe = regexp.MustCompile(`relay-id/([A-Za-z0-9]+)`)
)

const linkSentinel = "\x00LINK\x00"

const buyBlock = "\n\n🛒 Buy here:\n"

// Assemble strips every absolute URL in caption that is not affiliateLink,
// collapses repeated occurrences of affiliateLink to one, and appends a
// buy-here block when the link is missing entirely.
func Assemble(caption, affiliateLink string) string {
	out := caption

	if affiliateLink != "" {
		out = strings.ReplaceAll(out, affiliateLink, linkSentinel)
	}

	out = encodedURLRe.ReplaceAllString(out, "")
	out = absoluteURLRe.ReplaceAllString(out, "")

	switch n := strings.Count(out, linkSentinel); {
	case n == 0:
		out = strings.TrimRight(out, " \n\t") + buyBlock + affiliateLink
	case n == 1:
		out = strings.Replace(out, linkSentinel, affiliateLink, 1)
	default:
		out = strings.Replace(out, linkSentinel, affiliateLink, 1)
		out = strings.ReplaceAll(out, linkSentinel, "")
	}

	return tidy(out)
}

// EmbedMarker prepends an invisible link entity carrying the product
// identifier, so the destination feed itself can serve as the dedup ledger.
func EmbedMarker(text, productID string) string {
	if productID == "" {
		return text
	}
	return fmt.Sprintf("[‎](http://relay-id/%s)%s", productID, text)
}

// ExtractMarkerIDs recovers product identifiers embedded by EmbedMarker
// from previously published text or its entity URLs.
func ExtractMarkerIDs(text string) []string {
	var out []string
	for _, m := range markerIDRe.FindAllStringSubmatch(text, -1) {
		out = append(out, m[1])
	}
	return out
}

// tidy collapses the blank-line runs left behind by stripped links.
func tidy(s string) string {
	lines := strings.Split(s, "\n")
	var out []string
	blank := false
	for _, line := range lines {
		trimmed := strings.TrimRight(line, " \t")
		if trimmed == "" {
			if blank {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, trimmed)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
