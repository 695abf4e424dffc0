package convert

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"alideal-affiliate-relay/internal/affiliate"
	"alideal-affiliate-relay/internal/linkx"
	"alideal-affiliate-relay/internal/pkg/render"
	"alideal-affiliate-relay/internal/router"

	"github.com/go-chi/chi/v5"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Handler converts one URL synchronously: resolve redirects, normalize,
// build an affiliate link. It never dedups and never publishes; it exists
// for manual checks and for callers that do their own delivery.
type Handler struct {
	resolver *linkx.Resolver
	builder  *affiliate.Builder
	logger   *zap.SugaredLogger
}

type NewHandlerParams struct {
	fx.In

	Resolver *linkx.Resolver
	Builder  *affiliate.Builder
	Logger   *zap.SugaredLogger
}

func NewHandler(p NewHandlerParams) *Handler {
	return &Handler{
		resolver: p.Resolver,
		builder:  p.Builder,
		logger:   p.Logger,
	}
}

func (h *Handler) RegisterRoute(r *chi.Mux) {
	r.Post("/v1/convert", h.Handle)
}

type convertRequest struct {
	URL string `json:"url"`
}

type convertResponse struct {
	OK           bool   `json:"ok"`
	CleanURL     string `json:"clean_url"`
	AffiliateURL string `json:"affiliate_url"`
	Origin       string `json:"origin"`
	ProductID    string `json:"product_id,omitempty"`
	IDKind       string `json:"id_kind,omitempty"`
}

func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req convertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.ChiErr(w, http.StatusBadRequest, "invalid json")
		return
	}

	rawURL := strings.TrimSpace(req.URL)
	if rawURL == "" {
		render.ChiErr(w, http.StatusBadRequest, "missing url")
		return
	}

	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		render.ChiErr(w, http.StatusBadRequest, "url must be http(s)")
		return
	}

	resolved := h.resolver.Resolve(r.Context(), rawURL)
	clean := linkx.Normalize(resolved)
	link := h.builder.Build(r.Context(), clean)

	resp := convertResponse{
		OK:           true,
		CleanURL:     clean,
		AffiliateURL: link.URL,
		Origin:       string(link.Origin),
	}
	// Extract from the clean URL first: an API-built affiliate link carries
	// a per-call token, not the stable item id.
	if id, ok := linkx.ExtractID(clean); ok {
		resp.ProductID = id.Value
		resp.IDKind = string(id.Kind)
	} else if id, ok := linkx.ExtractID(link.URL); ok {
		resp.ProductID = id.Value
		resp.IDKind = string(id.Kind)
	}

	h.logger.Infow("convert_done", "clean_url", clean, "origin", resp.Origin, "product_id", resp.ProductID)
	render.ChiJSON(w, http.StatusOK, resp)
}

var _ router.Handler = (*Handler)(nil)
