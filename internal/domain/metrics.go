package domain

// Ratio returns num/den, or nil when the denominator is zero. Derived
// metrics are never reported as 0 when their denominator is missing; nil
// marshals to JSON null, which the UI renders as absent.
func Ratio(num, den float64) *float64 {
	if den == 0 {
		return nil
	}
	v := num / den
	return &v
}

// Pct returns 100*num/den, or nil when the denominator is zero.
func Pct(num, den float64) *float64 {
	if den == 0 {
		return nil
	}
	v := num / den * 100
	return &v
}

// Float returns a pointer to v. Used when a metric is known-present.
func Float(v float64) *float64 { return &v }

// FunnelMetrics carries the derived ad metrics for any aggregation level.
// Every field is nil when its denominator was zero or its source absent.
type FunnelMetrics struct {
	CTR             *float64 `json:"ctr,omitempty"`       // clicks / impressions * 100
	CPM             *float64 `json:"cpm,omitempty"`       // spend / impressions * 1000
	CPC             *float64 `json:"cpc,omitempty"`       // spend / clicks
	Frequency       *float64 `json:"frequency,omitempty"` // impressions / reach
	CostPerLPV      *float64 `json:"cost_per_lpv,omitempty"`
	CostPerATC      *float64 `json:"cost_per_atc,omitempty"`
	CostPerCheckout *float64 `json:"cost_per_checkout,omitempty"`
	CostPerPurchase *float64 `json:"cost_per_purchase,omitempty"`
	// Funnel conversion rates between adjacent stages, as percentages.
	UpperRate *float64 `json:"upper_rate,omitempty"` // lpv / clicks
	MidRate   *float64 `json:"mid_rate,omitempty"`   // atc / lpv
	LowerRate *float64 `json:"lower_rate,omitempty"` // conversions / checkout
}

// ComputeFunnel derives the full funnel metric set from raw counters.
func ComputeFunnel(spend float64, impressions, reach, clicks, lpv, atc, checkout, conversions int64) FunnelMetrics {
	m := FunnelMetrics{
		CTR:             Pct(float64(clicks), float64(impressions)),
		CPC:             Ratio(spend, float64(clicks)),
		Frequency:       Ratio(float64(impressions), float64(reach)),
		CostPerLPV:      Ratio(spend, float64(lpv)),
		CostPerATC:      Ratio(spend, float64(atc)),
		CostPerCheckout: Ratio(spend, float64(checkout)),
		CostPerPurchase: Ratio(spend, float64(conversions)),
		UpperRate:       Pct(float64(lpv), float64(clicks)),
		MidRate:         Pct(float64(atc), float64(lpv)),
		LowerRate:       Pct(float64(conversions), float64(checkout)),
	}
	if impressions > 0 {
		v := spend / float64(impressions) * 1000
		m.CPM = &v
	}
	return m
}
