package affiliate

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"alideal-affiliate-relay/config"
	"alideal-affiliate-relay/internal/aliexpress"
)

// Origin tags which strategy produced a link, for diagnostics.
type Origin string

const (
	OriginAPI      Origin = "api"
	OriginTemplate Origin = "template"
	OriginPrefix   Origin = "prefix"
	OriginFallback Origin = "fallback"
)

// Link is the final commercial link placed in the published post. On total
// strategy failure URL is the cleaned, non-commissioned input.
type Link struct {
	URL    string
	Origin Origin
}

// ErrUnusable marks a strategy that cannot produce links at all with the
// current configuration (e.g. a portal template without a placeholder).
var ErrUnusable = errors.New("affiliate strategy unusable")

// Strategy produces a candidate commercial link for a cleaned product URL.
// Adding, reordering or disabling a strategy is a data change in NewBuilder,
// not a control-flow change.
type Strategy interface {
	Name() Origin
	Attempt(ctx context.Context, cleanURL string) (string, error)
}

// Builder tries strategies in fixed priority order and accepts the first
// candidate that validates as product-specific. It always returns something
// postable.
type Builder struct {
	strategies []Strategy
	logger     *zap.SugaredLogger
}

func NewBuilder(cfg *config.Config, client *aliexpress.Client, logger *zap.SugaredLogger) *Builder {
	var strategies []Strategy
	if strings.TrimSpace(cfg.AliExpress.AppKey) != "" && strings.TrimSpace(cfg.AliExpress.AppSecret) != "" {
		strategies = append(strategies, apiStrategy{client: client})
	}
	strategies = append(strategies,
		templateStrategy{template: cfg.Strategy.PortalTemplate},
		prefixStrategy{prefix: cfg.Strategy.LinkPrefix},
	)

	return &Builder{strategies: strategies, logger: logger}
}

// Build runs the strategy chain for a cleaned URL. An unvalidated candidate
// from a higher-priority strategy never blocks the next strategy.
func (b *Builder) Build(ctx context.Context, cleanURL string) Link {
	for _, s := range b.strategies {
		candidate, err := s.Attempt(ctx, cleanURL)
		if err != nil {
			if !errors.Is(err, ErrUnusable) && !errors.Is(err, aliexpress.ErrNotFound) {
				b.logger.Warnw("affiliate_strategy_failed",
					"strategy", string(s.Name()),
					"url", cleanURL,
					"err", err,
				)
			}
			continue
		}
		if !IsProductSpecific(candidate) {
			b.logger.Warnw("affiliate_strategy_rejected",
				"strategy", string(s.Name()),
				"url", cleanURL,
				"candidate", candidate,
			)
			continue
		}
		return Link{URL: candidate, Origin: s.Name()}
	}

	return Link{URL: cleanURL, Origin: OriginFallback}
}

// productPathMarkers identify a product-specific or share link, as opposed
// to the generic home-page links the provider sometimes returns on partial
// failure.
var productPathMarkers = []string{
	"/item/",
	"/e/",
	"/deeplink",
	"/share",
	"productid=",
	"dl_target_url=",
}

// IsProductSpecific validates that a candidate actually points at a product
// rather than a storefront or home page.
func IsProductSpecific(candidate string) bool {
	u, err := url.Parse(strings.TrimSpace(candidate))
	if err != nil || u.Host == "" {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	lower := strings.ToLower(candidate)
	for _, marker := range productPathMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

type apiStrategy struct {
	client *aliexpress.Client
}

func (apiStrategy) Name() Origin { return OriginAPI }

func (s apiStrategy) Attempt(ctx context.Context, cleanURL string) (string, error) {
	return s.client.GenerateLink(ctx, cleanURL)
}

const templatePlaceholder = "{{url}}"

type templateStrategy struct {
	template string
}

func (templateStrategy) Name() Origin { return OriginTemplate }

func (s templateStrategy) Attempt(_ context.Context, cleanURL string) (string, error) {
	if !strings.Contains(s.template, templatePlaceholder) {
		return "", ErrUnusable
	}
	return strings.ReplaceAll(s.template, templatePlaceholder, url.QueryEscape(cleanURL)), nil
}

type prefixStrategy struct {
	prefix string
}

func (prefixStrategy) Name() Origin { return OriginPrefix }

func (s prefixStrategy) Attempt(_ context.Context, cleanURL string) (string, error) {
	if strings.TrimSpace(s.prefix) == "" {
		return "", ErrUnusable
	}
	return s.prefix + url.QueryEscape(cleanURL), nil
}
