package aggregate

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/vironax/adinsights/internal/domain"
	"github.com/vironax/adinsights/internal/factstore"
)

// counterSet is the raw ad counters shared by every campaign-shaped row.
type counterSet struct {
	Spend           float64 `json:"spend"`
	Impressions     int64   `json:"impressions"`
	Reach           int64   `json:"reach"`
	Clicks          int64   `json:"clicks"`
	LPV             int64   `json:"lpv"`
	ATC             int64   `json:"atc"`
	Checkout        int64   `json:"checkout"`
	Conversions     int64   `json:"conversions"`
	ConversionValue float64 `json:"conversion_value"`
}

func (c *counterSet) add(r domain.AdSpendRow) {
	c.Spend += r.Spend
	c.Impressions += r.Impressions
	c.Reach += r.Reach
	c.Clicks += r.Clicks
	c.LPV += r.LPV
	c.ATC += r.ATC
	c.Checkout += r.Checkout
	c.Conversions += r.Conversions
	c.ConversionValue += r.ConversionValue
}

func (c *counterSet) funnel() domain.FunnelMetrics {
	return domain.ComputeFunnel(c.Spend, c.Impressions, c.Reach, c.Clicks, c.LPV, c.ATC, c.Checkout, c.Conversions)
}

// roas is the ad-network ROAS (conversion value over spend), nil without spend.
func (c *counterSet) roas() *float64 {
	return domain.Ratio(c.ConversionValue, c.Spend)
}

// Node is one level of the campaign tree. Children are ad sets under a
// campaign and ads under an ad set.
type Node struct {
	ID       string               `json:"id"`
	Name     string               `json:"name"`
	Level    string               `json:"level"` // campaign | adset | ad
	Counters counterSet           `json:"counters"`
	Funnel   domain.FunnelMetrics `json:"funnel"`
	ROAS     *float64             `json:"roas"`
	Children []*Node              `json:"children,omitempty"`
}

// Hierarchy builds the campaign → ad set → ad tree from the unbrokendown
// spend rows, with names joined from the campaign dimension.
func (s *Service) Hierarchy(ctx context.Context, storeID string, w domain.Window) ([]*Node, error) {
	rows, err := s.reader.SpendRows(ctx, storeID, w, factstore.SpendFilter{Dimension: "total"})
	if err != nil {
		return nil, fmt.Errorf("hierarchy spend: %w", err)
	}
	dims, err := s.reader.Campaigns(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("hierarchy campaigns: %w", err)
	}

	names := map[string]string{}
	for _, d := range dims {
		switch {
		case d.AdID != "":
			names["ad:"+d.AdID] = d.AdName
		case d.AdSetID != "":
			names["adset:"+d.AdSetID] = d.AdSetName
		default:
			names["campaign:"+d.CampaignID] = d.Name
		}
	}
	nameOr := func(level, id string) string {
		if n := names[level+":"+id]; n != "" {
			return n
		}
		return id
	}

	campaigns := map[string]*Node{}
	adsets := map[string]*Node{}
	ads := map[string]*Node{}
	var order []string

	for _, r := range rows {
		c := campaigns[r.CampaignID]
		if c == nil {
			c = &Node{ID: r.CampaignID, Name: nameOr("campaign", r.CampaignID), Level: "campaign"}
			campaigns[r.CampaignID] = c
			order = append(order, r.CampaignID)
		}
		c.Counters.add(r)

		if r.AdSetID == "" {
			continue
		}
		asKey := r.CampaignID + "|" + r.AdSetID
		as := adsets[asKey]
		if as == nil {
			as = &Node{ID: r.AdSetID, Name: nameOr("adset", r.AdSetID), Level: "adset"}
			adsets[asKey] = as
			c.Children = append(c.Children, as)
		}
		as.Counters.add(r)

		if r.AdID == "" {
			continue
		}
		adKey := asKey + "|" + r.AdID
		ad := ads[adKey]
		if ad == nil {
			ad = &Node{ID: r.AdID, Name: nameOr("ad", r.AdID), Level: "ad"}
			ads[adKey] = ad
			as.Children = append(as.Children, ad)
		}
		ad.Counters.add(r)
	}

	var out []*Node
	for _, id := range order {
		out = append(out, campaigns[id])
	}
	finishNodes(out)
	sortNodes(out)
	return out, nil
}

func finishNodes(nodes []*Node) {
	for _, n := range nodes {
		n.Funnel = n.Counters.funnel()
		n.ROAS = n.Counters.roas()
		finishNodes(n.Children)
	}
}

func sortNodes(nodes []*Node) {
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Counters.Spend != nodes[j].Counters.Spend {
			return nodes[i].Counters.Spend > nodes[j].Counters.Spend
		}
		return nodes[i].Name < nodes[j].Name
	})
	for _, n := range nodes {
		sortNodes(n.Children)
	}
}

// BreakdownRow is one campaign × dimension cell.
type BreakdownRow struct {
	CampaignID   string               `json:"campaign_id"`
	CampaignName string               `json:"campaign_name"`
	Dimension    string               `json:"dimension"` // the cell label, e.g. "SA" or "25-34|female"
	Counters     counterSet           `json:"counters"`
	Funnel       domain.FunnelMetrics `json:"funnel"`
	ROAS         *float64             `json:"roas"`
	SpendShare   *float64             `json:"spend_share"`
}

// breakdown dimensions accepted by Breakdown.
var breakdownLabels = map[string]func(domain.DimensionTuple) string{
	"country":    func(d domain.DimensionTuple) string { return d.Country },
	"age":        func(d domain.DimensionTuple) string { return d.Age },
	"gender":     func(d domain.DimensionTuple) string { return d.Gender },
	"age_gender": func(d domain.DimensionTuple) string { return d.Age + "|" + d.Gender },
	"placement":  func(d domain.DimensionTuple) string { return d.Placement },
}

// Breakdown returns campaign × dimension cells for one breakdown, sorted by
// sortField desc with name ascending tie-break. Shares are of the returned
// set's spend.
func (s *Service) Breakdown(ctx context.Context, storeID string, w domain.Window, dimension, sortField string) ([]BreakdownRow, error) {
	label, ok := breakdownLabels[dimension]
	if !ok {
		return nil, fmt.Errorf("unknown breakdown %q", dimension)
	}

	rows, err := s.reader.SpendRows(ctx, storeID, w, factstore.SpendFilter{Dimension: dimension})
	if err != nil {
		return nil, fmt.Errorf("breakdown spend: %w", err)
	}
	dims, err := s.reader.Campaigns(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("breakdown campaigns: %w", err)
	}
	campaignNames := map[string]string{}
	for _, d := range dims {
		if d.AdSetID == "" && d.AdID == "" {
			campaignNames[d.CampaignID] = d.Name
		}
	}

	cells := map[string]*BreakdownRow{}
	var order []string
	for _, r := range rows {
		key := r.CampaignID + "|" + label(r.Dimensions)
		cell := cells[key]
		if cell == nil {
			name := campaignNames[r.CampaignID]
			if name == "" {
				name = r.CampaignID
			}
			cell = &BreakdownRow{CampaignID: r.CampaignID, CampaignName: name, Dimension: label(r.Dimensions)}
			cells[key] = cell
			order = append(order, key)
		}
		cell.Counters.add(r)
	}

	var totalSpend float64
	for _, c := range cells {
		totalSpend += c.Counters.Spend
	}

	out := make([]BreakdownRow, 0, len(order))
	for _, key := range order {
		c := cells[key]
		c.Funnel = c.Counters.funnel()
		c.ROAS = c.Counters.roas()
		c.SpendShare = domain.Pct(c.Counters.Spend, totalSpend)
		out = append(out, *c)
	}
	sortBreakdown(out, sortField)
	return out, nil
}

// sortBreakdown orders rows by the requested field descending; ties break by
// campaign name then dimension label ascending. Unknown fields fall back to
// spend.
func sortBreakdown(rows []BreakdownRow, field string) {
	value := func(r BreakdownRow) float64 {
		switch strings.ToLower(field) {
		case "impressions":
			return float64(r.Counters.Impressions)
		case "clicks":
			return float64(r.Counters.Clicks)
		case "conversions":
			return float64(r.Counters.Conversions)
		case "conversion_value":
			return r.Counters.ConversionValue
		case "roas":
			return deref(r.ROAS)
		default:
			return r.Counters.Spend
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		vi, vj := value(rows[i]), value(rows[j])
		if vi != vj {
			return vi > vj
		}
		if rows[i].CampaignName != rows[j].CampaignName {
			return rows[i].CampaignName < rows[j].CampaignName
		}
		return rows[i].Dimension < rows[j].Dimension
	})
}
