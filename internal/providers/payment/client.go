// Package payment talks to the external payment provider's REST API.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

type VariantAttributes struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Sort        int    `json:"sort"`
	ProductID   int64  `json:"product_id"`
}

type Variant struct {
	ID         string            `json:"id"`
	Attributes VariantAttributes `json:"attributes"`
}

type PriceAttributes struct {
	Category                string  `json:"category"`
	UsageAggregation        *string `json:"usage_aggregation"`
	UnitPrice               *int64  `json:"unit_price"`
	UnitPriceDecimal        *string `json:"unit_price_decimal"`
	RenewalIntervalUnit     *string `json:"renewal_interval_unit"`
	RenewalIntervalQuantity *int    `json:"renewal_interval_quantity"`
	TrialIntervalUnit       *string `json:"trial_interval_unit"`
	TrialIntervalQuantity   *int    `json:"trial_interval_quantity"`
}

type Price struct {
	ID         string          `json:"id"`
	Attributes PriceAttributes `json:"attributes"`
}

type SubscriptionAttributes struct {
	Status          string          `json:"status"`
	StatusFormatted string          `json:"status_formatted"`
	EndsAt          *string         `json:"ends_at"`
	Pause           json.RawMessage `json:"pause"`
}

type Subscription struct {
	ID         string                 `json:"id"`
	Attributes SubscriptionAttributes `json:"attributes"`
}

// Paused reports whether the provider returned an active pause block.
func (s *Subscription) Paused() bool {
	raw := strings.TrimSpace(string(s.Attributes.Pause))
	return raw != "" && raw != "null"
}

type Client interface {
	ListVariants(ctx context.Context) ([]Variant, error)
	GetProductName(ctx context.Context, productID int64) (string, error)
	ListPrices(ctx context.Context, variantID string) ([]Price, error)
	GetPrice(ctx context.Context, priceID string) (*Price, error)
	CancelSubscription(ctx context.Context, subscriptionID string) (*Subscription, error)
	// PauseSubscription with pause=false resumes a paused subscription.
	PauseSubscription(ctx context.Context, subscriptionID string, pause bool) (*Subscription, error)
}

type HTTPClient struct {
	baseURL string
	apiKey  string
	storeID string
	http    *http.Client
	log     *zap.Logger
}

func NewHTTPClient(baseURL, apiKey, storeID string, log *zap.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		storeID: storeID,
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     log.Named("providers.payment"),
	}
}

func (c *HTTPClient) ListVariants(ctx context.Context) ([]Variant, error) {
	query := url.Values{"filter[store_id]": {c.storeID}}
	var out struct {
		Data []Variant `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/variants?"+query.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *HTTPClient) GetProductName(ctx context.Context, productID int64) (string, error) {
	var out struct {
		Data struct {
			Attributes struct {
				Name string `json:"name"`
			} `json:"attributes"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/v1/products/%d", productID), nil, &out); err != nil {
		return "", err
	}
	return out.Data.Attributes.Name, nil
}

func (c *HTTPClient) ListPrices(ctx context.Context, variantID string) ([]Price, error) {
	query := url.Values{"filter[variant_id]": {variantID}}
	var out struct {
		Data []Price `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/prices?"+query.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *HTTPClient) GetPrice(ctx context.Context, priceID string) (*Price, error) {
	var out struct {
		Data Price `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/prices/"+priceID, nil, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func (c *HTTPClient) CancelSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	var out struct {
		Data Subscription `json:"data"`
	}
	if err := c.do(ctx, http.MethodDelete, "/v1/subscriptions/"+subscriptionID, nil, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func (c *HTTPClient) PauseSubscription(ctx context.Context, subscriptionID string, pause bool) (*Subscription, error) {
	var attrs map[string]any
	if pause {
		attrs = map[string]any{"pause": map[string]any{"mode": "void"}}
	} else {
		attrs = map[string]any{"pause": nil}
	}
	body := map[string]any{
		"data": map[string]any{
			"type":       "subscriptions",
			"id":         subscriptionID,
			"attributes": attrs,
		},
	}

	var out struct {
		Data Subscription `json:"data"`
	}
	if err := c.do(ctx, http.MethodPatch, "/v1/subscriptions/"+subscriptionID, body, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body any, out any) error {
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.api+json")
	req.Header.Set("Content-Type", "application/vnd.api+json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("payment api %s %s: status %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
