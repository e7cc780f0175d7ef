package budget

import (
	"fmt"
	"math"
	"sort"

	"github.com/vironax/adinsights/internal/reconcile"
)

// Learning-map buckets.
const (
	BucketHighPriority = "High priority"
	BucketNoisy        = "Noisy"
	BucketPoorFit      = "Poor fit"
	BucketLowSignal    = "Low signal"
)

// learningSignalOrders is the organic order count that separates a real
// signal from noise in the learning map.
const learningSignalOrders = 3

// learningMap ranks the countries that order organically but receive no ad
// spend. Each gets a posterior score as if it were a zero-spend cell, plus a
// signal-strength bonus that rewards order volume.
func (s *Service) learningMap(view *reconcile.View, p Priors) []LearningEntry {
	type organic struct {
		orders  int
		revenue float64
	}
	countries := map[string]*organic{}
	spending := map[string]bool{}
	for _, day := range view.Days {
		for country, c := range day.Cells {
			if c.Spend != nil && *c.Spend > 0 {
				spending[country] = true
			}
			o := countries[country]
			if o == nil {
				o = &organic{}
				countries[country] = o
			}
			if c.Orders != nil {
				o.orders += *c.Orders
			}
			if c.Revenue != nil {
				o.revenue += *c.Revenue
			}
		}
	}

	var entries []LearningEntry
	for country, o := range countries {
		if spending[country] || o.orders == 0 {
			continue
		}
		cac, roas, effN := posterior(p, int64(o.orders), 0, o.revenue)
		score := roas
		if p.AOV > 0 {
			score = roas - cac/p.AOV
		}
		// Signal-strength bonus: saturating in the share of evidence that is
		// observed rather than prior.
		score += float64(o.orders) / effN
		entries = append(entries, LearningEntry{
			Country:    country,
			Score:      score,
			EffectiveN: effN,
			Orders:     o.orders,
		})
	}
	if len(entries) == 0 {
		return nil
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Country < entries[j].Country
	})

	median := quantile(entries, 0.5)
	for i := range entries {
		strong := entries[i].Orders >= learningSignalOrders
		highScore := entries[i].Score >= median
		switch {
		case strong && highScore:
			entries[i].Bucket = BucketHighPriority
		case !strong && highScore:
			entries[i].Bucket = BucketNoisy
		case strong:
			entries[i].Bucket = BucketPoorFit
		default:
			entries[i].Bucket = BucketLowSignal
		}
	}
	return entries
}

// quantile reads the q-quantile score from entries already sorted descending.
func quantile(entries []LearningEntry, q float64) float64 {
	idx := int(math.Floor(float64(len(entries)-1) * (1 - q)))
	return entries[idx].Score
}

// startPlans recommends a daily test budget for every learning-map country:
// enough prior-cost orders to read a signal inside the test period, clamped
// to the configured bounds and snapped toward a comparable live daily spend
// when one sits within 30%.
func (s *Service) startPlans(view *reconcile.View, guidance []Guidance, learning []LearningEntry, p Priors) []StartPlan {
	if p.CAC <= 0 {
		return nil
	}

	testDays := s.cfg.TestDays
	if testDays <= 0 {
		testDays = 4
	}
	purchases := float64(s.cfg.TargetPurchasesMin)
	if s.cfg.TargetPurchasesMax > s.cfg.TargetPurchasesMin {
		purchases = float64(s.cfg.TargetPurchasesMin+s.cfg.TargetPurchasesMax) / 2
	}
	if purchases <= 0 {
		purchases = float64(testDays)
	}

	days := float64(view.Window.Days())
	var comparables []float64
	for _, g := range guidance {
		if g.Spend > 0 && days > 0 {
			comparables = append(comparables, g.Spend/days)
		}
	}

	var plans []StartPlan
	for _, entry := range learning {
		daily := clamp(p.CAC*purchases/float64(testDays), s.cfg.MinDaily, s.cfg.MaxDaily)
		snapped, fromComparable := snap(daily, comparables)
		rationale := fmt.Sprintf("%.0f orders at the %.0f prior CAC over a %d-day test", purchases, p.CAC, testDays)
		if fromComparable {
			rationale += fmt.Sprintf(", snapped to the comparable daily spend %.0f", snapped)
		}
		plans = append(plans, StartPlan{
			Country:   entry.Country,
			Daily:     snapped,
			Rationale: rationale,
		})
	}
	return plans
}

func clamp(v, lo, hi float64) float64 {
	if lo > 0 && v < lo {
		return lo
	}
	if hi > 0 && v > hi {
		return hi
	}
	return v
}

// snap moves v to the nearest comparable within +/-30%, if any.
func snap(v float64, comparables []float64) (float64, bool) {
	best := v
	bestDist := math.Inf(1)
	snapped := false
	for _, c := range comparables {
		dist := math.Abs(c - v)
		if dist <= 0.3*v && dist < bestDist {
			best = c
			bestDist = dist
			snapped = true
		}
	}
	return best, snapped
}
