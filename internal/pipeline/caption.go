package pipeline

import (
	"context"
	"regexp"
	"strings"
)

var priceHintRe = regexp.MustCompile(`(₪|\$|€)\s?\d+(\.\d+)?`)

// PriceHint pulls the first price-looking token out of source text, fed to
// the caption writer as a fact hint.
func PriceHint(text string) string {
	return priceHintRe.FindString(text)
}

// FallbackCaption is the deterministic, information-preserving caption used
// when the caption-writing collaborator fails: first line of the source
// text plus the price hint. The assembler appends the affiliate link.
func FallbackCaption(sourceText, priceHint string) string {
	line := firstLine(sourceText)
	if line == "" {
		line = "New deal spotted!"
	}
	if priceHint != "" {
		return line + "\n💰 " + priceHint
	}
	return line
}

// TemplateCaptionWriter is the built-in caption collaborator: deterministic
// template output, no external calls, never fails. It doubles as the
// implicit fallback behind any external rewriting service.
type TemplateCaptionWriter struct{}

func NewTemplateCaptionWriter() *TemplateCaptionWriter { return &TemplateCaptionWriter{} }

func (*TemplateCaptionWriter) Rewrite(_ context.Context, sourceText, _ string, priceHint string) (string, error) {
	line := firstLine(sourceText)
	if line == "" {
		line = "New deal spotted!"
	}

	var b strings.Builder
	b.WriteString("🔥 ")
	b.WriteString(line)
	if priceHint != "" {
		b.WriteString("\n💰 Price: ")
		b.WriteString(priceHint)
	}
	return b.String(), nil
}

func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
