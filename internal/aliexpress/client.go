package aliexpress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"alideal-affiliate-relay/config"
	"alideal-affiliate-relay/internal/pkg/retry"
)

const (
	MethodLinkGenerate  = "aliexpress.affiliate.link.generate"
	MethodProductDetail = "aliexpress.affiliate.productdetail.get"
)

// datetimeLayout is the formatted-UTC variant of the provider-mandated
// timestamp. The epoch-millisecond variant is the default; which one the
// live gateway accepts is pinned by ALIEXPRESS_TIMESTAMP_FORMAT.
const datetimeLayout = "2006-01-02 15:04:05"

const maxResponseBytes = 1 << 20

// Client dispatches signed calls to the marketplace gateway. All transport
// retries go through one shared policy; business and signature errors are
// surfaced immediately without retry.
type Client struct {
	cfg    config.AliExpressConfig
	httpc  *http.Client
	retry  retry.Config
	logger *zap.SugaredLogger

	now func() time.Time
}

func NewClient(cfg *config.Config, logger *zap.SugaredLogger) *Client {
	rc := retry.DefaultConfig()
	rc.IsRetryable = IsRetryable

	return &Client{
		cfg:    cfg.AliExpress,
		httpc:  &http.Client{Timeout: cfg.AliExpress.Timeout},
		retry:  rc,
		logger: logger,
		now:    time.Now,
	}
}

// Call builds the full signed parameter set for method, POSTs it
// form-encoded, and returns the innermost result payload.
func (c *Client) Call(ctx context.Context, method string, params map[string]string) (json.RawMessage, error) {
	all := map[string]string{
		"app_key":     c.cfg.AppKey,
		"timestamp":   c.timestamp(),
		"format":      "json",
		"sign_method": c.cfg.SignMethod,
		"v":           c.cfg.APIVersion,
		"method":      method,
	}
	for k, v := range params {
		all[k] = v
	}
	all["sign"] = Sign(c.cfg.AppSecret, all)

	form := url.Values{}
	for k, v := range all {
		form.Set(k, v)
	}
	encoded := form.Encode()

	var result json.RawMessage
	err := retry.Do(ctx, c.retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Gateway, strings.NewReader(encoded))
		if err != nil {
			return &APIError{Class: ClassMalformed, Message: err.Error()}
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=utf-8")

		resp, err := c.httpc.Do(req)
		if err != nil {
			return fmt.Errorf("gateway call %s: %w", method, err)
		}
		defer func() { _ = resp.Body.Close() }()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return fmt.Errorf("read gateway response: %w", err)
		}

		res, derr := decodeEnvelope(method, body)
		if derr != nil {
			var ae *APIError
			if errors.As(derr, &ae) && ae.Class != ClassTransient {
				c.logger.Warnw("aliexpress_call_rejected",
					"method", method,
					"class", string(ae.Class),
					"code", ae.Code,
					"msg", ae.Message,
					"sub_msg", ae.SubMessage,
					"request_id", ae.RequestID,
				)
			}
			return derr
		}

		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// GenerateLink asks the gateway for a commission-bearing promotion link for
// targetURL. An empty promotion-link list is reported as ErrNotFound so the
// strategy chain can move on.
func (c *Client) GenerateLink(ctx context.Context, targetURL string) (string, error) {
	res, err := c.Call(ctx, MethodLinkGenerate, map[string]string{
		"promotion_link_type": c.cfg.PromotionLinkType,
		"source_values":       targetURL,
		"tracking_id":         c.cfg.TrackingID,
	})
	if err != nil {
		return "", err
	}
	if len(res) == 0 {
		return "", ErrNotFound
	}

	var payload struct {
		PromotionLinks struct {
			PromotionLink []struct {
				PromotionLink string `json:"promotion_link"`
				SourceValue   string `json:"source_value"`
			} `json:"promotion_link"`
		} `json:"promotion_links"`
	}
	if err := json.Unmarshal(res, &payload); err != nil {
		return "", &APIError{Class: ClassMalformed, Message: "unparseable promotion_links payload", Raw: res}
	}

	for _, l := range payload.PromotionLinks.PromotionLink {
		if link := strings.TrimSpace(l.PromotionLink); link != "" {
			return link, nil
		}
	}
	return "", ErrNotFound
}

// Product is the subset of the product-lookup payload used for richer
// captions.
type Product struct {
	ID       string
	Title    string
	Price    string
	Currency string
}

// ProductDetail fetches title and price for a product identifier. Optional
// path: caption enrichment only, never required for publishing.
func (c *Client) ProductDetail(ctx context.Context, productID string) (*Product, error) {
	res, err := c.Call(ctx, MethodProductDetail, map[string]string{
		"product_ids":     productID,
		"target_currency": "USD",
		"target_language": "EN",
		"tracking_id":     c.cfg.TrackingID,
	})
	if err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return nil, ErrNotFound
	}

	var payload struct {
		Products struct {
			Product []struct {
				ProductID    json.Number `json:"product_id"`
				ProductTitle string      `json:"product_title"`
				SalePrice    string      `json:"target_sale_price"`
				Currency     string      `json:"target_sale_price_currency"`
			} `json:"product"`
		} `json:"products"`
	}
	if err := json.Unmarshal(res, &payload); err != nil {
		return nil, &APIError{Class: ClassMalformed, Message: "unparseable products payload", Raw: res}
	}
	if len(payload.Products.Product) == 0 {
		return nil, ErrNotFound
	}

	p := payload.Products.Product[0]
	return &Product{
		ID:       p.ProductID.String(),
		Title:    p.ProductTitle,
		Price:    p.SalePrice,
		Currency: p.Currency,
	}, nil
}

func (c *Client) timestamp() string {
	switch c.cfg.TimestampFormat {
	case "datetime":
		return c.now().UTC().Format(datetimeLayout)
	default:
		return strconv.FormatInt(c.now().UnixMilli(), 10)
	}
}
