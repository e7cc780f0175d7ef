package salla

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vironax/adinsights/internal/adapter"
	"github.com/vironax/adinsights/internal/config"
	"github.com/vironax/adinsights/internal/domain"
)

func testStore() domain.Store {
	return domain.Store{ID: "vironax", Currency: "SAR", Timezone: "Asia/Riyadh"}
}

func newTestAdapter(baseURL string) *Adapter {
	a := New(config.SallaConfig{
		BaseURL:        baseURL,
		AccessTokens:   map[string]string{"vironax": "salla-token"},
		TimeoutSeconds: 5,
	})
	return a
}

func collect(t *testing.T, s *adapter.Stream) ([]domain.OrderEvent, error) {
	t.Helper()
	var orders []domain.OrderEvent
	for b := range s.Batches() {
		orders = append(orders, b.Orders...)
	}
	return orders, s.Err()
}

func TestFetchNormalizesOrders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer salla-token", r.Header.Get("Authorization"))
		assert.Equal(t, "2026-08-10", r.URL.Query().Get("from_date"))
		assert.Equal(t, "2026-08-12", r.URL.Query().Get("to_date"))
		fmt.Fprint(w, `{
			"status": 200,
			"data": [
				{
					"id": 9001,
					"date": {"date": "2026-08-10 14:22:05.000000"},
					"amounts": {"total": {"amount": 350.5, "currency": "SAR"}},
					"shipping": {"address": {"country": "SA", "city": "Riyadh"}}
				},
				{
					"id": 9002,
					"date": {"date": "2026-08-11 03:05:00"},
					"amounts": {"total": {"amount": 120, "currency": "SAR"}},
					"shipping": {"address": {"country": "AE", "city": "Dubai"}}
				}
			],
			"pagination": {"currentPage": 1, "totalPages": 1}
		}`)
	}))
	defer srv.Close()

	a := newTestAdapter(srv.URL)
	w, err := domain.NewWindow("2026-08-10", "2026-08-12")
	require.NoError(t, err)

	orders, err := collect(t, a.Fetch(context.Background(), testStore(), w))
	require.NoError(t, err)
	require.Len(t, orders, 2)

	first := orders[0]
	assert.Equal(t, "vironax", first.StoreID)
	assert.Equal(t, domain.PlatformSalla, first.SourcePlatform)
	assert.Equal(t, "9001", first.OrderID)
	assert.Equal(t, "2026-08-10", first.Date)
	require.NotNil(t, first.Hour)
	assert.Equal(t, 14, *first.Hour)
	assert.Equal(t, 350.5, first.Revenue)
	assert.Equal(t, "SAR", first.Currency)
	assert.Equal(t, "SA", first.Country)
	assert.Equal(t, "Riyadh", first.City)

	second := orders[1]
	require.NotNil(t, second.Hour)
	assert.Equal(t, 3, *second.Hour)
}

func TestFetchFollowsPageNumbers(t *testing.T) {
	var pages []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		pages = append(pages, page)
		id := 100
		if page == "2" {
			id = 200
		}
		fmt.Fprintf(w, `{
			"status": 200,
			"data": [{"id": %d, "date": {"date": "2026-08-10 10:00:00.000000"}, "amounts": {"total": {"amount": 50, "currency": "SAR"}}, "shipping": {"address": {"country": "SA", "city": ""}}}],
			"pagination": {"currentPage": %s, "totalPages": 2}
		}`, id, page)
	}))
	defer srv.Close()

	a := newTestAdapter(srv.URL)
	w, err := domain.NewWindow("2026-08-10", "2026-08-10")
	require.NoError(t, err)

	orders, err := collect(t, a.Fetch(context.Background(), testStore(), w))
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, pages)
	require.Len(t, orders, 2)
	assert.Equal(t, "100", orders[0].OrderID)
	assert.Equal(t, "200", orders[1].OrderID)
}

func TestFetchAuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	a := newTestAdapter(srv.URL)
	w, err := domain.NewWindow("2026-08-10", "2026-08-10")
	require.NoError(t, err)

	_, err = collect(t, a.Fetch(context.Background(), testStore(), w))
	require.Error(t, err)
	var aerr *adapter.Error
	require.True(t, errors.As(err, &aerr))
	assert.Equal(t, adapter.KindAuth, aerr.Kind)
}

func TestFetchMissingCredentials(t *testing.T) {
	a := New(config.SallaConfig{BaseURL: "http://unused", TimeoutSeconds: 5})
	w, err := domain.NewWindow("2026-08-10", "2026-08-10")
	require.NoError(t, err)

	_, err = collect(t, a.Fetch(context.Background(), testStore(), w))
	require.Error(t, err)
	assert.Equal(t, adapter.KindAuth, adapter.KindOf(err))
}

func TestFetchSkipsMalformedOrders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"status": 200,
			"data": [
				{"id": 0, "date": {"date": ""}},
				{"id": 42, "date": {"date": "not-a-date"}},
				{"id": 7, "date": {"date": "2026-08-10 09:30:00.000000"}, "amounts": {"total": {"amount": 99, "currency": "SAR"}}, "shipping": {"address": {"country": "SA", "city": "Jeddah"}}}
			],
			"pagination": {"currentPage": 1, "totalPages": 1}
		}`)
	}))
	defer srv.Close()

	a := newTestAdapter(srv.URL)
	w, err := domain.NewWindow("2026-08-10", "2026-08-10")
	require.NoError(t, err)

	orders, err := collect(t, a.Fetch(context.Background(), testStore(), w))
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "7", orders[0].OrderID)
}

func TestFetchDateOnlyPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"status": 200,
			"data": [{"id": 5, "date": {"date": "2026-08-10"}, "amounts": {"total": {"amount": 10, "currency": "SAR"}}, "shipping": {"address": {"country": "SA", "city": ""}}}],
			"pagination": {"currentPage": 1, "totalPages": 1}
		}`)
	}))
	defer srv.Close()

	a := newTestAdapter(srv.URL)
	w, err := domain.NewWindow("2026-08-10", "2026-08-10")
	require.NoError(t, err)

	orders, err := collect(t, a.Fetch(context.Background(), testStore(), w))
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "2026-08-10", orders[0].Date)
	assert.Nil(t, orders[0].Hour)
}
