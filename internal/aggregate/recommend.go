package aggregate

import (
	"context"
	"fmt"
	"sort"

	"github.com/vironax/adinsights/internal/domain"
)

// Recommendation is one rule-fired insight for the recommendations feed.
type Recommendation struct {
	Type       string  `json:"type"` // urgent | positive | neutral
	Title      string  `json:"title"`
	Finding    string  `json:"finding"`
	Action     string  `json:"action"`
	Confidence float64 `json:"confidence"`
}

var recTypeRank = map[string]int{"urgent": 0, "positive": 1, "neutral": 2}

// Recommendations evaluates the window against a fixed rule set and returns
// the insights that fired, urgent first. targetROAS anchors the good/bad
// thresholds.
func (s *Service) Recommendations(ctx context.Context, storeID string, w domain.Window, targetROAS float64) ([]Recommendation, error) {
	if targetROAS <= 0 {
		targetROAS = 1.4
	}
	countries, err := s.Countries(ctx, storeID, w)
	if err != nil {
		return nil, err
	}
	eff, err := s.Efficiency(ctx, storeID, w)
	if err != nil {
		return nil, err
	}

	var recs []Recommendation
	for _, c := range countries {
		name := c.Country
		if c.Name != "" {
			name = c.Name
		}
		switch {
		case c.Spend != nil && *c.Spend > 0 && c.Orders == 0:
			recs = append(recs, Recommendation{
				Type:       "urgent",
				Title:      fmt.Sprintf("%s is spending without orders", name),
				Finding:    fmt.Sprintf("%.0f spent in %s over the window produced no orders.", *c.Spend, name),
				Action:     fmt.Sprintf("Pause or rework the %s campaigns before the next budget cycle.", name),
				Confidence: 0.9,
			})
		case c.ROAS != nil && *c.ROAS <= 0.75*targetROAS:
			recs = append(recs, Recommendation{
				Type:       "urgent",
				Title:      fmt.Sprintf("%s is running far below target", name),
				Finding:    fmt.Sprintf("ROAS in %s is %.2f against a %.2f target.", name, *c.ROAS, targetROAS),
				Action:     fmt.Sprintf("Cut %s budget or replace the losing ad sets.", name),
				Confidence: 0.8,
			})
		case c.ROAS != nil && *c.ROAS >= targetROAS:
			recs = append(recs, Recommendation{
				Type:       "positive",
				Title:      fmt.Sprintf("%s is beating target", name),
				Finding:    fmt.Sprintf("ROAS in %s is %.2f, above the %.2f target.", name, *c.ROAS, targetROAS),
				Action:     fmt.Sprintf("Increase %s budget gradually while the marginal cost holds.", name),
				Confidence: 0.7,
			})
		}
	}

	// Concentration: one country owning most of the orders is a fragility,
	// not a fault.
	if len(countries) > 1 && countries[0].OrderShare != nil && *countries[0].OrderShare >= 70 {
		top := countries[0]
		name := top.Country
		if top.Name != "" {
			name = top.Name
		}
		recs = append(recs, Recommendation{
			Type:       "neutral",
			Title:      "Order volume is concentrated",
			Finding:    fmt.Sprintf("%s carries %.0f%% of orders in this window.", name, *top.OrderShare),
			Action:     "Consider test budgets in the next-best countries to spread risk.",
			Confidence: 0.6,
		})
	}

	if eff.AverageCAC != nil && eff.MarginalCAC != nil && *eff.MarginalCAC > *eff.AverageCAC {
		recs = append(recs, Recommendation{
			Type:       "neutral",
			Title:      "Marginal acquisition cost is rising",
			Finding:    fmt.Sprintf("The last orders cost %.0f each against a %.0f average.", *eff.MarginalCAC, *eff.AverageCAC),
			Action:     "Hold spend at the current level until the marginal cost settles.",
			Confidence: 0.6,
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		if recTypeRank[recs[i].Type] != recTypeRank[recs[j].Type] {
			return recTypeRank[recs[i].Type] < recTypeRank[recs[j].Type]
		}
		return recs[i].Confidence > recs[j].Confidence
	})
	return recs, nil
}
