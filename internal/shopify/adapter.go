// Package shopify pulls orders from the Shopify Admin API and normalizes
// them into order events with hour and geography preserved.
package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vironax/adinsights/internal/adapter"
	"github.com/vironax/adinsights/internal/config"
	"github.com/vironax/adinsights/internal/domain"
	"github.com/vironax/adinsights/internal/pkg/httpretry"
)

// SourceName identifies this adapter in sync summaries.
const SourceName = "shopify"

const pageLimit = 250 // Shopify's maximum page size

// Adapter implements adapter.SourceAdapter for Shopify orders.
type Adapter struct {
	cfg        config.ShopifyConfig
	httpClient httpretry.HTTPDoer
	schemaLog  *adapter.SchemaLog
}

// New creates the Shopify adapter.
func New(cfg config.ShopifyConfig) *Adapter {
	return &Adapter{
		cfg:        cfg,
		httpClient: httpretry.NewRetryClient(&http.Client{Timeout: cfg.Timeout()}, 6),
		schemaLog:  adapter.NewSchemaLog(),
	}
}

// Name implements adapter.SourceAdapter.
func (a *Adapter) Name() string { return SourceName }

// Fetch streams normalized order events for the window.
func (a *Adapter) Fetch(ctx context.Context, store domain.Store, w domain.Window) *adapter.Stream {
	stream, emit := adapter.NewStream(2)
	go func() {
		emit.Close(a.fetchWindow(ctx, emit, store, w))
	}()
	return stream
}

// apiOrder is the subset of the Shopify order payload the service consumes.
type apiOrder struct {
	ID              int64  `json:"id"`
	CreatedAt       string `json:"created_at"` // RFC3339 in the shop's timezone
	TotalPrice      string `json:"total_price"`
	Currency        string `json:"currency"`
	ShippingAddress *struct {
		CountryCode string `json:"country_code"`
		Province    string `json:"province"`
		City        string `json:"city"`
	} `json:"shipping_address"`
}

type ordersResponse struct {
	Orders []json.RawMessage `json:"orders"`
}

func (a *Adapter) fetchWindow(ctx context.Context, emit *adapter.Emitter, store domain.Store, w domain.Window) error {
	token := a.cfg.AccessTokens[store.ID]
	shop := a.cfg.ShopDomains[store.ID]
	if token == "" || shop == "" {
		return adapter.Auth(SourceName, fmt.Errorf("store %s has no shopify credentials", store.ID))
	}

	// Shop domains normally come bare ("x.myshopify.com"); a full URL is
	// honored as-is so tests can point at a local server.
	base := shop
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}

	loc := storeLocation(store)
	pageURL := fmt.Sprintf(
		"%s/admin/api/%s/orders.json?status=any&limit=%d&created_at_min=%sT00:00:00%s&created_at_max=%sT23:59:59%s",
		base, a.cfg.APIVersion, pageLimit,
		w.StartDate(), offsetSuffix(loc, w.Start), w.EndDate(), offsetSuffix(loc, w.End),
	)

	for pageURL != "" {
		if err := ctx.Err(); err != nil {
			return err
		}

		raw, next, err := a.getPage(ctx, pageURL, token)
		if err != nil {
			return err
		}

		var batch adapter.Batch
		for _, msg := range raw {
			event, err := a.normalizeOrder(store, loc, msg)
			if err != nil {
				a.schemaLog.Warn(store.ID, SourceName, w.StartDate(), err)
				continue
			}
			batch.Orders = append(batch.Orders, event)
		}
		if err := emit.Emit(ctx, batch); err != nil {
			return err
		}

		pageURL = next
	}
	return nil
}

// getPage fetches one page of orders; the next-page URL comes from the
// Link header's page_info cursor.
func (a *Adapter) getPage(ctx context.Context, pageURL, token string) ([]json.RawMessage, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, "", adapter.Fatal(SourceName, err)
	}
	req.Header.Set("X-Shopify-Access-Token", token)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, "", err
		}
		return nil, "", adapter.Transient(SourceName, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", adapter.Transient(SourceName, fmt.Errorf("read response: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, "", adapter.Auth(SourceName, fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, "", adapter.Transient(SourceName, fmt.Errorf("status %d after retries", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return nil, "", adapter.Fatal(SourceName, fmt.Errorf("status %d", resp.StatusCode))
	}

	var parsed ordersResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, "", adapter.Fatal(SourceName, fmt.Errorf("parse orders response: %w", err))
	}
	return parsed.Orders, nextLink(resp.Header.Get("Link")), nil
}

func (a *Adapter) normalizeOrder(store domain.Store, loc *time.Location, msg json.RawMessage) (domain.OrderEvent, error) {
	var o apiOrder
	if err := json.Unmarshal(msg, &o); err != nil {
		return domain.OrderEvent{}, fmt.Errorf("parse order: %w", err)
	}
	if o.ID == 0 || o.CreatedAt == "" {
		return domain.OrderEvent{}, fmt.Errorf("order missing id or created_at")
	}

	created, err := time.Parse(time.RFC3339, o.CreatedAt)
	if err != nil {
		return domain.OrderEvent{}, fmt.Errorf("created_at %q: %w", o.CreatedAt, err)
	}
	local := created.In(loc)
	hour := local.Hour()

	var revenue float64
	if o.TotalPrice != "" {
		if _, err := fmt.Sscanf(o.TotalPrice, "%f", &revenue); err != nil {
			return domain.OrderEvent{}, fmt.Errorf("total_price %q: %w", o.TotalPrice, err)
		}
	}

	event := domain.OrderEvent{
		StoreID:        store.ID,
		SourcePlatform: domain.PlatformShopify,
		OrderID:        fmt.Sprintf("%d", o.ID),
		Date:           local.Format(domain.DateLayout),
		Hour:           &hour,
		Revenue:        revenue,
		Currency:       o.Currency,
	}
	if o.ShippingAddress != nil {
		event.Country = o.ShippingAddress.CountryCode
		event.Region = o.ShippingAddress.Province
		event.City = o.ShippingAddress.City
	}
	return event, nil
}

func storeLocation(store domain.Store) *time.Location {
	loc, err := time.LoadLocation(store.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// offsetSuffix renders the store's UTC offset for the window bound so the
// created_at filter matches the store's calendar day.
func offsetSuffix(loc *time.Location, day time.Time) string {
	_, offset := day.In(loc).Zone()
	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	return fmt.Sprintf("%s%02d:%02d", sign, offset/3600, (offset%3600)/60)
}
