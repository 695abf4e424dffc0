package linkx

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"alideal-affiliate-relay/config"
)

// Resolver follows HTTP redirects for known short-link domains only.
// Resolution is best-effort: any transport error, timeout or non-success
// status returns the input unchanged so a dead shortener never fails the
// whole pipeline.
type Resolver struct {
	enabled bool
	hosts   []string
	client  *http.Client
	logger  *zap.SugaredLogger
}

func NewResolver(cfg *config.Config, logger *zap.SugaredLogger) *Resolver {
	return &Resolver{
		enabled: cfg.Resolver.Enabled,
		hosts:   cfg.Resolver.Hosts,
		client: &http.Client{
			Timeout: cfg.Resolver.Timeout,
		},
		logger: logger,
	}
}

// Resolve returns the final landed URL for redirect-bearing links, with the
// mobile domain rewritten to the canonical one. Already-canonical links are
// returned as-is without any network call.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) string {
	if !r.enabled || !r.needsResolution(rawURL) {
		return rawURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return rawURL
	}

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Debugw("redirect_resolve_failed", "url", rawURL, "err", err)
		return rawURL
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		r.logger.Debugw("redirect_resolve_bad_status", "url", rawURL, "status", resp.StatusCode)
		return rawURL
	}

	landed := resp.Request.URL
	landed.Host = CanonicalHost(landed.Host)
	return landed.String()
}

func (r *Resolver) needsResolution(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return false
	}
	lower := strings.ToLower(rawURL)
	for _, h := range r.hosts {
		if strings.Contains(lower, strings.ToLower(h)) {
			return true
		}
	}
	return false
}
