// Package salla pulls orders from the Salla Merchant API and normalizes
// them into order events. Salla paginates with page numbers rather than
// cursors, and reports order timestamps already in the merchant's timezone.
package salla

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vironax/adinsights/internal/adapter"
	"github.com/vironax/adinsights/internal/config"
	"github.com/vironax/adinsights/internal/domain"
	"github.com/vironax/adinsights/internal/pkg/httpretry"
)

// SourceName identifies this adapter in sync summaries.
const SourceName = "salla"

// Adapter implements adapter.SourceAdapter for Salla orders.
type Adapter struct {
	cfg        config.SallaConfig
	httpClient httpretry.HTTPDoer
	schemaLog  *adapter.SchemaLog
}

// New creates the Salla adapter.
func New(cfg config.SallaConfig) *Adapter {
	return &Adapter{
		cfg:        cfg,
		httpClient: httpretry.NewRetryClient(&http.Client{Timeout: cfg.Timeout()}, 6),
		schemaLog:  adapter.NewSchemaLog(),
	}
}

// Name implements adapter.SourceAdapter.
func (a *Adapter) Name() string { return SourceName }

// apiOrder is the subset of the Salla order payload the service consumes.
type apiOrder struct {
	ID   int64 `json:"id"`
	Date struct {
		Date string `json:"date"` // "2026-08-10 14:22:05.000000"
	} `json:"date"`
	Amounts struct {
		Total struct {
			Amount   float64 `json:"amount"`
			Currency string  `json:"currency"`
		} `json:"total"`
	} `json:"amounts"`
	Shipping struct {
		Address struct {
			Country string `json:"country"`
			City    string `json:"city"`
		} `json:"address"`
	} `json:"shipping"`
}

type ordersResponse struct {
	Status     int               `json:"status"`
	Data       []json.RawMessage `json:"data"`
	Pagination struct {
		CurrentPage int `json:"currentPage"`
		TotalPages  int `json:"totalPages"`
	} `json:"pagination"`
}

// Fetch streams normalized order events for the window.
func (a *Adapter) Fetch(ctx context.Context, store domain.Store, w domain.Window) *adapter.Stream {
	stream, emit := adapter.NewStream(2)
	go func() {
		emit.Close(a.fetchWindow(ctx, emit, store, w))
	}()
	return stream
}

func (a *Adapter) fetchWindow(ctx context.Context, emit *adapter.Emitter, store domain.Store, w domain.Window) error {
	token := a.cfg.AccessTokens[store.ID]
	if token == "" {
		return adapter.Auth(SourceName, fmt.Errorf("store %s has no salla credentials", store.ID))
	}

	page := 1
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		resp, err := a.getPage(ctx, token, w, page)
		if err != nil {
			return err
		}

		var batch adapter.Batch
		for _, msg := range resp.Data {
			event, err := a.normalizeOrder(store, msg)
			if err != nil {
				a.schemaLog.Warn(store.ID, SourceName, w.StartDate(), err)
				continue
			}
			batch.Orders = append(batch.Orders, event)
		}
		if err := emit.Emit(ctx, batch); err != nil {
			return err
		}

		if resp.Pagination.TotalPages == 0 || page >= resp.Pagination.TotalPages {
			return nil
		}
		page++
	}
}

func (a *Adapter) getPage(ctx context.Context, token string, w domain.Window, page int) (*ordersResponse, error) {
	u := fmt.Sprintf("%s/admin/v2/orders?from_date=%s&to_date=%s&page=%d&per_page=100",
		a.cfg.BaseURL, w.StartDate(), w.EndDate(), page)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, adapter.Fatal(SourceName, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, adapter.Transient(SourceName, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, adapter.Transient(SourceName, fmt.Errorf("read response: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, adapter.Auth(SourceName, fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, adapter.Transient(SourceName, fmt.Errorf("status %d after retries", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return nil, adapter.Fatal(SourceName, fmt.Errorf("status %d", resp.StatusCode))
	}

	var parsed ordersResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, adapter.Fatal(SourceName, fmt.Errorf("parse orders response: %w", err))
	}
	return &parsed, nil
}

func (a *Adapter) normalizeOrder(store domain.Store, msg json.RawMessage) (domain.OrderEvent, error) {
	var o apiOrder
	if err := json.Unmarshal(msg, &o); err != nil {
		return domain.OrderEvent{}, fmt.Errorf("parse order: %w", err)
	}
	if o.ID == 0 || o.Date.Date == "" {
		return domain.OrderEvent{}, fmt.Errorf("order missing id or date")
	}

	event := domain.OrderEvent{
		StoreID:        store.ID,
		SourcePlatform: domain.PlatformSalla,
		OrderID:        fmt.Sprintf("%d", o.ID),
		Revenue:        o.Amounts.Total.Amount,
		Currency:       o.Amounts.Total.Currency,
		Country:        o.Shipping.Address.Country,
		City:           o.Shipping.Address.City,
	}

	// "2026-08-10 14:22:05.000000", date and hour are already local.
	created, err := time.Parse("2006-01-02 15:04:05.000000", o.Date.Date)
	if err != nil {
		// Some payloads omit fractional seconds.
		created, err = time.Parse("2006-01-02 15:04:05", o.Date.Date)
	}
	if err != nil {
		// Date-only payloads are still valid facts, just without an hour.
		if _, derr := time.Parse(domain.DateLayout, o.Date.Date); derr != nil {
			return domain.OrderEvent{}, fmt.Errorf("order date %q: %w", o.Date.Date, err)
		}
		event.Date = o.Date.Date
		return event, nil
	}

	hour := created.Hour()
	event.Date = created.Format(domain.DateLayout)
	event.Hour = &hour
	return event, nil
}
