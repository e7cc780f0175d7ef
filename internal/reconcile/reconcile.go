// Package reconcile merges ad-network spend, storefront orders, and operator
// entries into one truth per (date, country) cell. Precedence for spend:
// country-specific override, then an ALL override split proportionally, then
// raw ad-network spend plus any manual spend. Orders and revenue come from
// the storefront plus manual entries; ad-network conversions stay a separate
// attribute and are never mixed in.
package reconcile

import (
	"context"
	"fmt"
	"sort"

	"github.com/vironax/adinsights/internal/domain"
	"github.com/vironax/adinsights/internal/factstore"
)

// Spend provenance values reported per cell.
const (
	SpendFromRaw         = "raw"
	SpendFromOverride    = "override"
	SpendFromAllOverride = "override_all"
)

// Filter narrows a reconciled view. Zero value means the whole store.
type Filter struct {
	Country    string
	CampaignID string
}

// Cell is the reconciled truth for one (date, country).
// Pointer fields are nil when the backing source is absent; absent and zero
// never collapse into each other.
type Cell struct {
	Date    string `json:"date"`
	Country string `json:"country"`

	Spend       *float64 `json:"spend"`
	SpendSource string   `json:"spend_source,omitempty"`

	Orders  *int     `json:"orders"`
	Revenue *float64 `json:"revenue"`

	MetaConversions     *int64   `json:"meta_conversions"`
	MetaConversionValue *float64 `json:"meta_conversion_value"`

	AOV  *float64 `json:"aov"`
	CAC  *float64 `json:"cac"`
	ROAS *float64 `json:"roas"`

	Funnel *domain.FunnelMetrics `json:"funnel,omitempty"`
}

// Day is one date of the view: its country cells plus the date total.
// TotalSpend prefers the unbrokendown ad-network rows over the sum of the
// country breakdown, because breakdown rows can drop unattributed spend.
type Day struct {
	Date       string           `json:"date"`
	TotalSpend *float64         `json:"total_spend"`
	Cells      map[string]*Cell `json:"cells"`
}

// View is a reconciled window.
type View struct {
	StoreID string          `json:"store_id"`
	Window  domain.Window   `json:"-"`
	Days    map[string]*Day `json:"days"`
}

// Rows flattens the view into cells ordered by date then country.
func (v *View) Rows() []*Cell {
	var rows []*Cell
	for _, d := range v.Days {
		for _, c := range d.Cells {
			rows = append(rows, c)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Date != rows[j].Date {
			return rows[i].Date < rows[j].Date
		}
		return rows[i].Country < rows[j].Country
	})
	return rows
}

// Engine builds reconciled views from committed facts.
type Engine struct {
	reader factstore.Reader
}

// New creates an Engine over the fact store.
func New(reader factstore.Reader) *Engine {
	return &Engine{reader: reader}
}

// rawCell accumulates the per-country ad-network counters before overrides.
type rawCell struct {
	spend       float64
	hasSpend    bool
	impressions int64
	reach       int64
	clicks      int64
	lpv         int64
	atc         int64
	checkout    int64
	conversions int64
	convValue   float64
}

// View reconciles the window. With a campaign filter, storefront orders are
// left out (they carry no campaign attribution); manual orders tagged with
// the campaign still count.
func (e *Engine) View(ctx context.Context, storeID string, w domain.Window, f Filter) (*View, error) {
	countryRows, err := e.reader.SpendRows(ctx, storeID, w, factstore.SpendFilter{
		Dimension:  "country",
		CampaignID: f.CampaignID,
		Country:    f.Country,
	})
	if err != nil {
		return nil, fmt.Errorf("read country spend: %w", err)
	}
	totalRows, err := e.reader.SpendRows(ctx, storeID, w, factstore.SpendFilter{
		Dimension:  "total",
		CampaignID: f.CampaignID,
	})
	if err != nil {
		return nil, fmt.Errorf("read total spend: %w", err)
	}
	overrides, err := e.reader.SpendOverrides(ctx, storeID, w)
	if err != nil {
		return nil, fmt.Errorf("read overrides: %w", err)
	}
	manual, err := e.reader.ManualOrders(ctx, storeID, w)
	if err != nil {
		return nil, fmt.Errorf("read manual orders: %w", err)
	}
	var daily []domain.OrderDaily
	if f.CampaignID == "" {
		daily, err = e.reader.OrderDaily(ctx, storeID, w)
		if err != nil {
			return nil, fmt.Errorf("read order rollup: %w", err)
		}
	}

	v := &View{StoreID: storeID, Window: w, Days: map[string]*Day{}}

	// Raw ad-network counters per (date, country).
	raw := map[string]map[string]*rawCell{}
	for _, r := range countryRows {
		c := rawCellAt(raw, r.Date, r.Dimensions.Country)
		c.spend += r.Spend
		c.hasSpend = true
		c.impressions += r.Impressions
		c.reach += r.Reach
		c.clicks += r.Clicks
		c.lpv += r.LPV
		c.atc += r.ATC
		c.checkout += r.Checkout
		c.conversions += r.Conversions
		c.convValue += r.ConversionValue
	}

	// Date totals, preferring the unbrokendown rows.
	totalSpend := map[string]float64{}
	hasTotal := map[string]bool{}
	for _, r := range totalRows {
		totalSpend[r.Date] += r.Spend
		hasTotal[r.Date] = true
	}
	for date, countries := range raw {
		if hasTotal[date] {
			continue
		}
		for _, c := range countries {
			totalSpend[date] += c.spend
		}
		hasTotal[date] = true
	}

	// Manual spend joins the raw layer; overrides still beat it.
	for _, m := range manual {
		if m.Spend == nil {
			continue
		}
		if f.CampaignID != "" && m.CampaignID != f.CampaignID {
			continue
		}
		if f.Country != "" && m.Country != f.Country {
			continue
		}
		c := rawCellAt(raw, m.Date, m.Country)
		c.spend += *m.Spend
		c.hasSpend = true
		totalSpend[m.Date] += *m.Spend
		hasTotal[m.Date] = true
	}

	// Spend layer with override precedence.
	specific := map[string]map[string]float64{}
	allAmount := map[string]*float64{}
	for _, o := range overrides {
		if o.IsAll() {
			amt := o.Amount
			allAmount[o.Date] = &amt
			continue
		}
		if specific[o.Date] == nil {
			specific[o.Date] = map[string]float64{}
		}
		specific[o.Date][o.Country] = o.Amount
	}

	// Cells from the raw ad-network layer.
	for date, countries := range raw {
		day := v.day(date)
		for country, rc := range countries {
			cell := day.cell(date, country)
			if rc.hasSpend {
				cell.Spend = domain.Float(rc.spend)
				cell.SpendSource = SpendFromRaw
			}
			if rc.conversions > 0 || rc.convValue > 0 || rc.hasSpend {
				conv := rc.conversions
				cell.MetaConversions = &conv
				cell.MetaConversionValue = domain.Float(rc.convValue)
			}
			if rc.impressions > 0 || rc.clicks > 0 {
				fm := domain.ComputeFunnel(rc.spend, rc.impressions, rc.reach, rc.clicks, rc.lpv, rc.atc, rc.checkout, rc.conversions)
				cell.Funnel = &fm
			}
		}
	}

	// Cells from storefront and manual orders, so the override layer sees
	// every country of every date before it runs.
	for _, d := range daily {
		if f.Country != "" && d.Country != f.Country {
			continue
		}
		cell := v.day(d.Date).cell(d.Date, d.Country)
		addOrders(cell, d.OrderCount, d.Revenue)
	}
	for _, m := range manual {
		if f.CampaignID != "" && m.CampaignID != f.CampaignID {
			continue
		}
		if f.Country != "" && m.Country != f.Country {
			continue
		}
		cell := v.day(m.Date).cell(m.Date, m.Country)
		addOrders(cell, m.OrdersCount, m.Revenue)
	}

	// Cells that only exist because of a specific override.
	for date, perCountry := range specific {
		day := v.day(date)
		for country := range perCountry {
			if f.Country != "" && country != f.Country {
				continue
			}
			day.cell(date, country)
		}
	}

	// Override precedence and the day totals.
	for date := range allAmount {
		v.day(date)
	}
	for date, day := range v.Days {
		applyOverrides(day, raw[date], specific[date], allAmount[date])
		day.TotalSpend = dayTotal(date, totalSpend, hasTotal, raw[date], specific[date], allAmount[date])
	}

	// Derived metrics, only where the denominator exists and is nonzero.
	for _, day := range v.Days {
		for _, cell := range day.Cells {
			cell.derive()
		}
	}
	return v, nil
}

func rawCellAt(raw map[string]map[string]*rawCell, date, country string) *rawCell {
	if raw[date] == nil {
		raw[date] = map[string]*rawCell{}
	}
	if raw[date][country] == nil {
		raw[date][country] = &rawCell{}
	}
	return raw[date][country]
}

func (v *View) day(date string) *Day {
	if v.Days[date] == nil {
		v.Days[date] = &Day{Date: date, Cells: map[string]*Cell{}}
	}
	return v.Days[date]
}

func (d *Day) cell(date, country string) *Cell {
	if d.Cells[country] == nil {
		d.Cells[country] = &Cell{Date: date, Country: country}
	}
	return d.Cells[country]
}

// applyOverrides rewrites the spend layer of one day. Country-specific
// entries replace their cell outright. An ALL entry replaces every remaining
// country proportionally to its raw share; a country with no raw spend gets 0.
func applyOverrides(day *Day, raw map[string]*rawCell, perCountry map[string]float64, all *float64) {
	for country, amt := range perCountry {
		if cell, ok := day.Cells[country]; ok {
			cell.Spend = domain.Float(amt)
			cell.SpendSource = SpendFromOverride
		}
	}
	if all == nil {
		return
	}

	var rawSum float64
	for country, rc := range raw {
		if _, overridden := perCountry[country]; overridden {
			continue
		}
		rawSum += rc.spend
	}
	for country, cell := range day.Cells {
		if _, overridden := perCountry[country]; overridden {
			continue
		}
		rc := raw[country]
		if rc == nil || !rc.hasSpend || rawSum == 0 {
			cell.Spend = domain.Float(0)
		} else {
			cell.Spend = domain.Float(*all * rc.spend / rawSum)
		}
		cell.SpendSource = SpendFromAllOverride
	}
}

// dayTotal resolves the date-level spend total under the same precedence:
// specific overrides swap their country's raw contribution out of the total,
// and an ALL override replaces everything that is not specifically overridden.
func dayTotal(date string, totals map[string]float64, has map[string]bool, raw map[string]*rawCell, perCountry map[string]float64, all *float64) *float64 {
	var specifics float64
	for _, amt := range perCountry {
		specifics += amt
	}
	switch {
	case all != nil:
		// The ALL amount lands only on countries without a specific override
		// and with raw share; if none remain it contributes nothing.
		var rawSum float64
		for country, rc := range raw {
			if _, overridden := perCountry[country]; overridden {
				continue
			}
			rawSum += rc.spend
		}
		if rawSum > 0 {
			return domain.Float(specifics + *all)
		}
		return domain.Float(specifics)
	case len(perCountry) > 0:
		var replaced float64
		for country := range perCountry {
			if rc, ok := raw[country]; ok {
				replaced += rc.spend
			}
		}
		if has[date] {
			return domain.Float(totals[date] - replaced + specifics)
		}
		return domain.Float(specifics)
	case has[date]:
		return domain.Float(totals[date])
	default:
		return nil
	}
}

func addOrders(c *Cell, count int, revenue float64) {
	if c.Orders == nil {
		zero := 0
		c.Orders = &zero
	}
	*c.Orders += count
	if c.Revenue == nil {
		c.Revenue = domain.Float(0)
	}
	*c.Revenue += revenue
}

func (c *Cell) derive() {
	if c.Orders != nil && *c.Orders > 0 {
		if c.Revenue != nil {
			c.AOV = domain.Ratio(*c.Revenue, float64(*c.Orders))
		}
		if c.Spend != nil {
			c.CAC = domain.Ratio(*c.Spend, float64(*c.Orders))
		}
	}
	if c.Spend != nil && *c.Spend > 0 && c.Revenue != nil {
		c.ROAS = domain.Ratio(*c.Revenue, *c.Spend)
	}
}
