// Package aggregate materializes the query-facing shapes on demand:
// overview totals with period-over-period change, daily trends, country
// tables, campaign hierarchies and breakdowns, clock histograms, and the
// efficiency view. Nothing is precomputed; every shape is a fresh read.
package aggregate

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/vironax/adinsights/internal/domain"
	"github.com/vironax/adinsights/internal/factstore"
	"github.com/vironax/adinsights/internal/reconcile"
)

// Service builds aggregate views over reconciled facts.
type Service struct {
	reader factstore.Reader
	engine *reconcile.Engine
}

// New creates the aggregation service.
func New(reader factstore.Reader) *Service {
	return &Service{reader: reader, engine: reconcile.New(reader)}
}

// Totals is the overview metric set for one window.
type Totals struct {
	Spend               *float64 `json:"spend"`
	Revenue             *float64 `json:"revenue"`
	Orders              int      `json:"orders"`
	AOV                 *float64 `json:"aov"`
	CAC                 *float64 `json:"cac"`
	ROAS                *float64 `json:"roas"`
	MetaConversions     int64    `json:"meta_conversions"`
	MetaConversionValue *float64 `json:"meta_conversion_value"`
}

// Change is the percent delta of each metric against the preceding window.
// A field is nil when the prior value is absent or zero.
type Change struct {
	Spend   *float64 `json:"spend,omitempty"`
	Revenue *float64 `json:"revenue,omitempty"`
	Orders  *float64 `json:"orders,omitempty"`
	AOV     *float64 `json:"aov,omitempty"`
	CAC     *float64 `json:"cac,omitempty"`
	ROAS    *float64 `json:"roas,omitempty"`
}

// Overview is the headline block of the dashboard.
type Overview struct {
	Totals Totals `json:"totals"`
	Change Change `json:"change"`
}

// Overview computes window totals and the change against the preceding
// equally-sized window. The two reconciliations run in parallel.
func (s *Service) Overview(ctx context.Context, storeID string, w domain.Window) (*Overview, error) {
	var current, prior *reconcile.View
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := s.engine.View(gctx, storeID, w, reconcile.Filter{})
		current = v
		return err
	})
	g.Go(func() error {
		v, err := s.engine.View(gctx, storeID, w.Prior(), reconcile.Filter{})
		prior = v
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("overview: %w", err)
	}

	cur := sumView(current)
	prev := sumView(prior)
	return &Overview{
		Totals: cur,
		Change: Change{
			Spend:   pctChange(cur.Spend, prev.Spend),
			Revenue: pctChange(cur.Revenue, prev.Revenue),
			Orders:  pctChange(domain.Float(float64(cur.Orders)), domain.Float(float64(prev.Orders))),
			AOV:     pctChange(cur.AOV, prev.AOV),
			CAC:     pctChange(cur.CAC, prev.CAC),
			ROAS:    pctChange(cur.ROAS, prev.ROAS),
		},
	}, nil
}

// sumView folds a reconciled view into window totals. The spend total comes
// from the per-day totals, not the country cells, so the unbrokendown
// preference and override arithmetic carry through.
func sumView(v *reconcile.View) Totals {
	var t Totals
	var spend, revenue, convValue float64
	var haveSpend, haveRevenue, haveConvValue bool
	for _, day := range v.Days {
		if day.TotalSpend != nil {
			spend += *day.TotalSpend
			haveSpend = true
		}
		for _, c := range day.Cells {
			if c.Orders != nil {
				t.Orders += *c.Orders
			}
			if c.Revenue != nil {
				revenue += *c.Revenue
				haveRevenue = true
			}
			if c.MetaConversions != nil {
				t.MetaConversions += *c.MetaConversions
			}
			if c.MetaConversionValue != nil {
				convValue += *c.MetaConversionValue
				haveConvValue = true
			}
		}
	}
	if haveSpend {
		t.Spend = domain.Float(spend)
	}
	if haveRevenue {
		t.Revenue = domain.Float(revenue)
	}
	if haveConvValue {
		t.MetaConversionValue = domain.Float(convValue)
	}
	if t.Orders > 0 && haveRevenue {
		t.AOV = domain.Ratio(revenue, float64(t.Orders))
	}
	if t.Orders > 0 && haveSpend {
		t.CAC = domain.Ratio(spend, float64(t.Orders))
	}
	if haveSpend && spend > 0 && haveRevenue {
		t.ROAS = domain.Ratio(revenue, spend)
	}
	return t
}

// pctChange returns 100*(cur-prev)/prev, nil when either side is absent or
// the base is zero.
func pctChange(cur, prev *float64) *float64 {
	if cur == nil || prev == nil || *prev == 0 {
		return nil
	}
	v := (*cur - *prev) / *prev * 100
	return &v
}

// DayPoint is one date of the trend series.
type DayPoint struct {
	Date    string   `json:"date"`
	Spend   *float64 `json:"spend"`
	Revenue *float64 `json:"revenue"`
	Orders  int      `json:"orders"`
	AOV     *float64 `json:"aov"`
	CAC     *float64 `json:"cac"`
	ROAS    *float64 `json:"roas"`
}

// Trends returns one point per calendar day of the window, zero-filled for
// days without facts so chart axes stay continuous.
func (s *Service) Trends(ctx context.Context, storeID string, w domain.Window) ([]DayPoint, error) {
	v, err := s.engine.View(ctx, storeID, w, reconcile.Filter{})
	if err != nil {
		return nil, fmt.Errorf("trends: %w", err)
	}

	points := make([]DayPoint, 0, w.Days())
	for _, date := range w.EachDay() {
		p := DayPoint{Date: date}
		if day, ok := v.Days[date]; ok {
			p.Spend = day.TotalSpend
			var revenue float64
			var haveRevenue bool
			for _, c := range day.Cells {
				if c.Orders != nil {
					p.Orders += *c.Orders
				}
				if c.Revenue != nil {
					revenue += *c.Revenue
					haveRevenue = true
				}
			}
			if haveRevenue {
				p.Revenue = domain.Float(revenue)
			}
			if p.Orders > 0 {
				if haveRevenue {
					p.AOV = domain.Ratio(revenue, float64(p.Orders))
				}
				if p.Spend != nil {
					p.CAC = domain.Ratio(*p.Spend, float64(p.Orders))
				}
			}
			if p.Spend != nil && *p.Spend > 0 && haveRevenue {
				p.ROAS = domain.Ratio(revenue, *p.Spend)
			}
		}
		points = append(points, p)
	}
	return points, nil
}

// CountryRow is one country of the window with its share of the filtered set.
type CountryRow struct {
	Country string   `json:"country"`
	Name    string   `json:"name,omitempty"`
	Flag    string   `json:"flag,omitempty"`
	Spend   *float64 `json:"spend"`
	Orders  int      `json:"orders"`
	Revenue *float64 `json:"revenue"`
	AOV     *float64 `json:"aov"`
	CAC     *float64 `json:"cac"`
	ROAS    *float64 `json:"roas"`
	// Shares are percentages of the filtered set's totals.
	OrderShare   *float64 `json:"order_share"`
	RevenueShare *float64 `json:"revenue_share"`
}

// Countries folds the window per country, decorates rows with the country
// master, and sorts by revenue desc with name asc tie-break.
func (s *Service) Countries(ctx context.Context, storeID string, w domain.Window) ([]CountryRow, error) {
	v, err := s.engine.View(ctx, storeID, w, reconcile.Filter{})
	if err != nil {
		return nil, fmt.Errorf("countries: %w", err)
	}

	type acc struct {
		spend, revenue         float64
		haveSpend, haveRevenue bool
		orders                 int
	}
	byCountry := map[string]*acc{}
	for _, day := range v.Days {
		for country, c := range day.Cells {
			a := byCountry[country]
			if a == nil {
				a = &acc{}
				byCountry[country] = a
			}
			if c.Spend != nil {
				a.spend += *c.Spend
				a.haveSpend = true
			}
			if c.Orders != nil {
				a.orders += *c.Orders
			}
			if c.Revenue != nil {
				a.revenue += *c.Revenue
				a.haveRevenue = true
			}
		}
	}

	var totalOrders int
	var totalRevenue float64
	for _, a := range byCountry {
		totalOrders += a.orders
		totalRevenue += a.revenue
	}

	rows := make([]CountryRow, 0, len(byCountry))
	for country, a := range byCountry {
		row := CountryRow{
			Country:      country,
			Orders:       a.orders,
			OrderShare:   domain.Pct(float64(a.orders), float64(totalOrders)),
			RevenueShare: domain.Pct(a.revenue, totalRevenue),
		}
		if master, ok := CountryMaster(country); ok {
			row.Name = master.Name
			row.Flag = master.Flag
		}
		if a.haveSpend {
			row.Spend = domain.Float(a.spend)
		}
		if a.haveRevenue {
			row.Revenue = domain.Float(a.revenue)
		}
		if a.orders > 0 {
			if a.haveRevenue {
				row.AOV = domain.Ratio(a.revenue, float64(a.orders))
			}
			if a.haveSpend {
				row.CAC = domain.Ratio(a.spend, float64(a.orders))
			}
		}
		if a.haveSpend && a.spend > 0 && a.haveRevenue {
			row.ROAS = domain.Ratio(a.revenue, a.spend)
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		ri, rj := deref(rows[i].Revenue), deref(rows[j].Revenue)
		if ri != rj {
			return ri > rj
		}
		return rows[i].Country < rows[j].Country
	})
	return rows, nil
}

// CountryTrend is the per-day order series of one country.
type CountryTrend struct {
	Country string `json:"country"`
	Series  []struct {
		Date   string `json:"date"`
		Orders int    `json:"orders"`
	} `json:"series"`
}

// CountryTrends returns a zero-filled daily order series per country.
func (s *Service) CountryTrends(ctx context.Context, storeID string, w domain.Window) ([]CountryTrend, error) {
	daily, err := s.reader.OrderDaily(ctx, storeID, w)
	if err != nil {
		return nil, fmt.Errorf("country trends: %w", err)
	}

	counts := map[string]map[string]int{}
	for _, d := range daily {
		if counts[d.Country] == nil {
			counts[d.Country] = map[string]int{}
		}
		counts[d.Country][d.Date] += d.OrderCount
	}

	countries := make([]string, 0, len(counts))
	for c := range counts {
		countries = append(countries, c)
	}
	sort.Strings(countries)

	trends := make([]CountryTrend, 0, len(countries))
	for _, country := range countries {
		t := CountryTrend{Country: country}
		for _, date := range w.EachDay() {
			t.Series = append(t.Series, struct {
				Date   string `json:"date"`
				Orders int    `json:"orders"`
			}{Date: date, Orders: counts[country][date]})
		}
		trends = append(trends, t)
	}
	return trends, nil
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
