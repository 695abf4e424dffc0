package linkx

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
)

// Kind says how a product identifier was derived. Hash identifiers are only
// stable within a single run and must never reach a persistent ledger.
type Kind string

const (
	KindItem  Kind = "item"
	KindToken Kind = "token"
	KindHash  Kind = "hash"
)

type ProductID struct {
	Value string
	Kind  Kind
}

// Persistable reports whether the identifier is stable across runs.
func (p ProductID) Persistable() bool { return p.Kind != KindHash }

func (p ProductID) IsZero() bool { return p.Value == "" }

var (
	itemIDRe     = regexp.MustCompile(`/item/(\d+)`)
	shortTokenRe = regexp.MustCompile(`s\.click\.aliexpress\.[a-z.]+/e/_?([A-Za-z0-9]+)`)
	looseDigitRe = regexp.MustCompile(`\d{10,}`)
)

// ExtractID derives a stable product identifier from a URL, trying rules in
// priority order: canonical /item/<digits> path, short-link token, then any
// run of 10+ digits. Extraction is deterministic; dedup correctness depends
// on that.
func ExtractID(rawURL string) (ProductID, bool) {
	if m := itemIDRe.FindStringSubmatch(rawURL); m != nil {
		return ProductID{Value: m[1], Kind: KindItem}, true
	}
	if m := shortTokenRe.FindStringSubmatch(rawURL); m != nil {
		return ProductID{Value: m[1], Kind: KindToken}, true
	}
	if m := looseDigitRe.FindString(rawURL); m != "" {
		return ProductID{Value: m, Kind: KindItem}, true
	}
	return ProductID{}, false
}

// FindItemIDs returns every canonical /item/<digits> identifier in a blob
// of text. Used when the destination feed itself serves as the ledger.
func FindItemIDs(text string) []string {
	var out []string
	for _, m := range itemIDRe.FindAllStringSubmatch(text, -1) {
		out = append(out, m[1])
	}
	return out
}

// HashID is the last-resort identifier for URLs no extraction rule matched.
// It only dedups within the current run.
func HashID(normalizedURL string) ProductID {
	sum := sha256.Sum256([]byte(normalizedURL))
	return ProductID{Value: hex.EncodeToString(sum[:8]), Kind: KindHash}
}
