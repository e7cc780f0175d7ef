package aggregate

import (
	"context"
	"fmt"
	"sort"

	"github.com/vironax/adinsights/internal/domain"
	"github.com/vironax/adinsights/internal/reconcile"
)

// CountryEfficiency compares average against marginal acquisition cost for
// one country. Marginal CAC is the cost of the orders added between the two
// halves of the window; when it runs under the average the country still has
// scaling headroom.
type CountryEfficiency struct {
	Country     string   `json:"country"`
	Spend       *float64 `json:"spend"`
	Orders      int      `json:"orders"`
	AverageCAC  *float64 `json:"average_cac"`
	MarginalCAC *float64 `json:"marginal_cac"`
	// Headroom is the percentage by which marginal sits under average;
	// negative values mean the country is saturating.
	Headroom *float64 `json:"headroom"`
}

// Efficiency is the store-level efficiency view.
type Efficiency struct {
	AverageCAC  *float64            `json:"average_cac"`
	MarginalCAC *float64            `json:"marginal_cac"`
	Countries   []CountryEfficiency `json:"countries"`
}

type halfTotals struct {
	spend  float64
	orders int
}

// Efficiency splits the window in two halves and derives marginal CAC from
// the delta between them, overall and per country.
func (s *Service) Efficiency(ctx context.Context, storeID string, w domain.Window) (*Efficiency, error) {
	v, err := s.engine.View(ctx, storeID, w, reconcile.Filter{})
	if err != nil {
		return nil, fmt.Errorf("efficiency: %w", err)
	}

	mid := w.EachDay()[w.Days()/2]
	var first, second halfTotals
	firstByCountry := map[string]*halfTotals{}
	secondByCountry := map[string]*halfTotals{}

	for date, day := range v.Days {
		half, byCountry := &first, firstByCountry
		if date >= mid {
			half, byCountry = &second, secondByCountry
		}
		if day.TotalSpend != nil {
			half.spend += *day.TotalSpend
		}
		for country, c := range day.Cells {
			ct := byCountry[country]
			if ct == nil {
				ct = &halfTotals{}
				byCountry[country] = ct
			}
			if c.Spend != nil {
				ct.spend += *c.Spend
			}
			if c.Orders != nil {
				half.orders += *c.Orders
				ct.orders += *c.Orders
			}
		}
	}

	out := &Efficiency{
		AverageCAC:  domain.Ratio(first.spend+second.spend, float64(first.orders+second.orders)),
		MarginalCAC: marginalCAC(first, second),
	}

	countries := map[string]bool{}
	for c := range firstByCountry {
		countries[c] = true
	}
	for c := range secondByCountry {
		countries[c] = true
	}
	for country := range countries {
		f, sec := firstByCountry[country], secondByCountry[country]
		if f == nil {
			f = &halfTotals{}
		}
		if sec == nil {
			sec = &halfTotals{}
		}
		row := CountryEfficiency{
			Country:     country,
			Orders:      f.orders + sec.orders,
			AverageCAC:  domain.Ratio(f.spend+sec.spend, float64(f.orders+sec.orders)),
			MarginalCAC: marginalCAC(*f, *sec),
		}
		if f.spend+sec.spend > 0 {
			row.Spend = domain.Float(f.spend + sec.spend)
		}
		if row.AverageCAC != nil && row.MarginalCAC != nil && *row.AverageCAC > 0 {
			row.Headroom = domain.Pct(*row.AverageCAC-*row.MarginalCAC, *row.AverageCAC)
		}
		out.Countries = append(out.Countries, row)
	}
	sort.Slice(out.Countries, func(i, j int) bool {
		si, sj := deref(out.Countries[i].Spend), deref(out.Countries[j].Spend)
		if si != sj {
			return si > sj
		}
		return out.Countries[i].Country < out.Countries[j].Country
	})
	return out, nil
}

// marginalCAC is the added spend over the added orders across the halves.
// Absent when order volume did not grow.
func marginalCAC(first, second halfTotals) *float64 {
	dOrders := second.orders - first.orders
	if dOrders <= 0 {
		return nil
	}
	dSpend := second.spend - first.spend
	if dSpend < 0 {
		dSpend = 0
	}
	return domain.Ratio(dSpend, float64(dOrders))
}

// EfficiencyPoint is one day of the efficiency trend.
type EfficiencyPoint struct {
	Date   string   `json:"date"`
	Spend  *float64 `json:"spend"`
	Orders int      `json:"orders"`
	CAC    *float64 `json:"cac"`
}

// EfficiencyTrends returns the daily CAC series for the window.
func (s *Service) EfficiencyTrends(ctx context.Context, storeID string, w domain.Window) ([]EfficiencyPoint, error) {
	points, err := s.Trends(ctx, storeID, w)
	if err != nil {
		return nil, err
	}
	out := make([]EfficiencyPoint, 0, len(points))
	for _, p := range points {
		out = append(out, EfficiencyPoint{Date: p.Date, Spend: p.Spend, Orders: p.Orders, CAC: p.CAC})
	}
	return out, nil
}
