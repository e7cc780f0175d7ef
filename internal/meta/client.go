package meta

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/vironax/adinsights/internal/adapter"
	"github.com/vironax/adinsights/internal/config"
	"github.com/vironax/adinsights/internal/pkg/httpretry"
)

// Client is a Meta Marketing API (Graph Insights) client. One client serves
// all stores; per-store credentials are passed per call.
type Client struct {
	baseURL    string
	apiVersion string
	httpClient httpretry.HTTPDoer
}

// NewClient creates a Meta API client from config.
func NewClient(cfg config.MetaConfig) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		apiVersion: cfg.APIVersion,
		httpClient: httpretry.NewRetryClient(&http.Client{Timeout: cfg.Timeout()}, 6),
	}
}

// insightsURL builds the first-page URL for an insights pull.
func (c *Client) insightsURL(accountID, token string, params url.Values) string {
	params.Set("access_token", token)
	return fmt.Sprintf("%s/%s/act_%s/insights?%s", c.baseURL, c.apiVersion, accountID, params.Encode())
}

// getPage fetches one page (either a freshly built URL or the paging.next
// link, which already carries all parameters) and classifies failures per
// the adapter taxonomy.
func (c *Client) getPage(ctx context.Context, pageURL string) (*insightsResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, adapter.Fatal(SourceName, err)
	}

	resp, err := c.httpClient.Do(req)
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
		return nil, adapter.Auth(SourceName, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(body, 200)))
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		// httpretry already exhausted its budget to get here.
		return nil, adapter.Transient(SourceName, fmt.Errorf("status %d after retries", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return nil, adapter.Fatal(SourceName, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(body, 200)))
	}

	parsed, err := decodeInsights(body)
	if err != nil {
		var ae *apiError
		if errors.As(err, &ae) {
			// Graph reports auth problems inside a 200 body sometimes.
			if ae.Code == 190 || ae.Type == "OAuthException" {
				return nil, adapter.Auth(SourceName, ae)
			}
			return nil, adapter.Fatal(SourceName, ae)
		}
		return nil, adapter.Fatal(SourceName, err)
	}
	return parsed, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
