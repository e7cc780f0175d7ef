// Package budget produces the Bayesian spend guidance: brand priors from a
// trailing window, shrunken per-cell posteriors, Scale/Cut/Hold actions with
// confidence bands, start plans for untested countries, and the learning map.
package budget

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/vironax/adinsights/internal/config"
	"github.com/vironax/adinsights/internal/domain"
	"github.com/vironax/adinsights/internal/factstore"
	"github.com/vironax/adinsights/internal/reconcile"
)

// Action classifications for a live cell.
const (
	ActionScale        = "Scale"
	ActionCut          = "Cut"
	ActionHold         = "Hold"
	ActionInsufficient = "Insufficient Data"
)

// minEffectiveN is the evidence floor below which no action is taken.
const minEffectiveN = 10

// Priors are the brand-level hyperparameters fitted on the trailing window.
type Priors struct {
	CAC        float64       `json:"cac"`
	ROAS       float64       `json:"roas"`
	AOV        float64       `json:"aov"`
	Orders     int           `json:"orders"`
	SampleSize float64       `json:"sample_size"` // n0
	Window     domain.Window `json:"-"`
	StartDate  string        `json:"start_date"`
	EndDate    string        `json:"end_date"`
}

// Guidance is one campaign x country action row.
type Guidance struct {
	CampaignID    string  `json:"campaign_id"`
	CampaignName  string  `json:"campaign_name"`
	Country       string  `json:"country"`
	Spend         float64 `json:"spend"`
	Revenue       float64 `json:"revenue"`
	Orders        int64   `json:"orders"`
	PosteriorCAC  float64 `json:"posterior_cac"`
	PosteriorROAS float64 `json:"posterior_roas"`
	EffectiveN    float64 `json:"effective_n"`
	BandLow       float64 `json:"band_low"`
	BandHigh      float64 `json:"band_high"`
	Action        string  `json:"action"`
	Rationale     string  `json:"rationale"`
}

// StartPlan is the recommended test budget for a country without spend.
type StartPlan struct {
	Country   string  `json:"country"`
	Name      string  `json:"name,omitempty"`
	Daily     float64 `json:"daily"`
	Rationale string  `json:"rationale"`
}

// LearningEntry is one row of the learning map.
type LearningEntry struct {
	Country    string  `json:"country"`
	Bucket     string  `json:"bucket"`
	Score      float64 `json:"score"`
	EffectiveN float64 `json:"effective_n"`
	Orders     int     `json:"orders"`
}

// Report is the full budget-intelligence payload.
type Report struct {
	Priors       Priors          `json:"priors"`
	LiveGuidance []Guidance      `json:"liveGuidance"`
	StartPlans   []StartPlan     `json:"startPlans"`
	LearningMap  []LearningEntry `json:"learningMap"`
}

// Service computes budget reports over reconciled facts.
type Service struct {
	reader factstore.Reader
	engine *reconcile.Engine
	cfg    config.BudgetConfig
}

// New creates the budget service.
func New(reader factstore.Reader, cfg config.BudgetConfig) *Service {
	return &Service{reader: reader, engine: reconcile.New(reader), cfg: cfg}
}

func (s *Service) n0() float64 {
	if s.cfg.PriorSampleSize > 0 {
		return s.cfg.PriorSampleSize
	}
	return 20
}

func (s *Service) targetROAS() float64 {
	if s.cfg.TargetROAS > 0 {
		return s.cfg.TargetROAS
	}
	return 1.4
}

func (s *Service) targetCAC(priorCAC float64) float64 {
	if s.cfg.TargetCAC > 0 {
		return s.cfg.TargetCAC
	}
	// Without an explicit target, breaking even with the prior is the bar.
	return priorCAC
}

// priorWindow is the trailing window the priors are fitted on, ending the
// day before the current window starts.
func (s *Service) priorWindow(w domain.Window) domain.Window {
	days := s.cfg.PriorWindowDays
	if days <= 0 {
		days = 28
	}
	end := w.Start.AddDate(0, 0, -1)
	return domain.Window{Start: end.AddDate(0, 0, -(days - 1)), End: end}
}

// Report builds the full payload for one store and window.
func (s *Service) Report(ctx context.Context, storeID string, w domain.Window) (*Report, error) {
	priors, err := s.fitPriors(ctx, storeID, w)
	if err != nil {
		return nil, err
	}

	current, err := s.engine.View(ctx, storeID, w, reconcile.Filter{})
	if err != nil {
		return nil, fmt.Errorf("budget current view: %w", err)
	}

	guidance, err := s.liveGuidance(ctx, storeID, w, priors)
	if err != nil {
		return nil, err
	}

	learning := s.learningMap(current, priors)
	plans := s.startPlans(current, guidance, learning, priors)

	return &Report{
		Priors:       priors,
		LiveGuidance: guidance,
		StartPlans:   plans,
		LearningMap:  learning,
	}, nil
}

// fitPriors derives brand priors from the reconciled trailing window.
// prior_cac is the orders-weighted mean cell CAC, which reduces to total
// spend of converting cells over total orders. prior_roas is plain
// revenue over spend.
func (s *Service) fitPriors(ctx context.Context, storeID string, w domain.Window) (Priors, error) {
	pw := s.priorWindow(w)
	view, err := s.engine.View(ctx, storeID, pw, reconcile.Filter{})
	if err != nil {
		return Priors{}, fmt.Errorf("budget prior view: %w", err)
	}

	var spendConverting, spendAll, revenue float64
	var orders int
	for _, day := range view.Days {
		if day.TotalSpend != nil {
			spendAll += *day.TotalSpend
		}
		for _, c := range day.Cells {
			if c.Revenue != nil {
				revenue += *c.Revenue
			}
			if c.Orders != nil && *c.Orders > 0 {
				orders += *c.Orders
				if c.Spend != nil {
					spendConverting += *c.Spend
				}
			}
		}
	}

	p := Priors{
		Orders:     orders,
		SampleSize: s.n0(),
		Window:     pw,
		StartDate:  pw.StartDate(),
		EndDate:    pw.EndDate(),
	}
	if orders > 0 {
		p.CAC = spendConverting / float64(orders)
		p.AOV = revenue / float64(orders)
	}
	if spendAll > 0 {
		p.ROAS = revenue / spendAll
	}
	return p, nil
}

// posterior applies the shrinkage formulas for one cell.
func posterior(p Priors, k int64, spend, revenue float64) (cac, roas, effN float64) {
	n0 := p.SampleSize
	effN = n0 + float64(k)
	cac = (n0*p.CAC + spend) / effN
	denom := n0*p.CAC + spend
	if denom > 0 {
		roas = (n0*p.ROAS*p.CAC + revenue) / denom
	}
	return cac, roas, effN
}

// band is the multiplicative confidence interval around the posterior ROAS.
func band(roas, effN float64) (low, high float64) {
	spread := 1 / math.Sqrt(effN)
	return roas * (1 - spread), roas * (1 + spread)
}

// classify applies the action thresholds in order.
func classify(cac, roas, effN, targetCAC, targetROAS float64) (string, string) {
	if effN < minEffectiveN {
		return ActionInsufficient, fmt.Sprintf("effective n %.0f is below the %d needed to act", effN, minEffectiveN)
	}
	if roas >= targetROAS && cac <= targetCAC {
		return ActionScale, fmt.Sprintf("posterior ROAS %.2f clears the %.2f target and posterior CAC %.0f is within the %.0f target", roas, targetROAS, cac, targetCAC)
	}
	if roas <= 0.75*targetROAS || cac >= 1.5*targetCAC {
		return ActionCut, fmt.Sprintf("posterior ROAS %.2f is under 75%% of target or posterior CAC %.0f is 150%% of target", roas, cac)
	}
	return ActionHold, fmt.Sprintf("posterior ROAS %.2f sits between the cut and scale thresholds", roas)
}

// liveGuidance scores every campaign x country cell of the current window.
// Cell conversions come from the ad network; storefront orders are not
// campaign-attributable.
func (s *Service) liveGuidance(ctx context.Context, storeID string, w domain.Window, p Priors) ([]Guidance, error) {
	rows, err := s.reader.SpendRows(ctx, storeID, w, factstore.SpendFilter{Dimension: "country"})
	if err != nil {
		return nil, fmt.Errorf("budget spend rows: %w", err)
	}
	dims, err := s.reader.Campaigns(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("budget campaigns: %w", err)
	}
	names := map[string]string{}
	for _, d := range dims {
		if d.AdSetID == "" && d.AdID == "" {
			names[d.CampaignID] = d.Name
		}
	}

	type cell struct {
		spend, revenue float64
		orders         int64
	}
	cells := map[string]*cell{}
	var order []string
	for _, r := range rows {
		key := r.CampaignID + "|" + r.Dimensions.Country
		c := cells[key]
		if c == nil {
			c = &cell{}
			cells[key] = c
			order = append(order, key)
		}
		c.spend += r.Spend
		c.revenue += r.ConversionValue
		c.orders += r.Conversions
	}

	targetROAS := s.targetROAS()
	targetCAC := s.targetCAC(p.CAC)

	out := make([]Guidance, 0, len(order))
	for _, key := range order {
		c := cells[key]
		var campaignID, country string
		for i := 0; i < len(key); i++ {
			if key[i] == '|' {
				campaignID, country = key[:i], key[i+1:]
				break
			}
		}
		cac, roas, effN := posterior(p, c.orders, c.spend, c.revenue)
		low, high := band(roas, effN)
		action, rationale := classify(cac, roas, effN, targetCAC, targetROAS)
		name := names[campaignID]
		if name == "" {
			name = campaignID
		}
		out = append(out, Guidance{
			CampaignID:    campaignID,
			CampaignName:  name,
			Country:       country,
			Spend:         c.spend,
			Revenue:       c.revenue,
			Orders:        c.orders,
			PosteriorCAC:  cac,
			PosteriorROAS: roas,
			EffectiveN:    effN,
			BandLow:       low,
			BandHigh:      high,
			Action:        action,
			Rationale:     rationale,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Spend != out[j].Spend {
			return out[i].Spend > out[j].Spend
		}
		if out[i].CampaignName != out[j].CampaignName {
			return out[i].CampaignName < out[j].CampaignName
		}
		return out[i].Country < out[j].Country
	})
	return out, nil
}
