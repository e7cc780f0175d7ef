// Package meta pulls daily ad performance from the Meta Marketing API and
// normalizes it into spend facts. Each configured breakdown (country, age,
// gender, age+gender, placement) is fetched as its own report so the same
// spend is never stored both broken-down and unbrokendown under one key:
// the plain report lands on the empty dimension tuple, each breakdown on
// its own tuple.
package meta

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/vironax/adinsights/internal/adapter"
	"github.com/vironax/adinsights/internal/config"
	"github.com/vironax/adinsights/internal/domain"
	"github.com/vironax/adinsights/internal/pkg/logger"
)

// SourceName identifies this adapter in sync summaries and error taxonomy.
const SourceName = "meta"

// insightFields is the field list requested on every report.
const insightFields = "campaign_id,campaign_name,adset_id,adset_name,ad_id,ad_name,spend,impressions,reach,clicks,actions,action_values"

// breakdownSets are the report variants fetched per window. The empty set
// is the unbrokendown daily total.
var breakdownSets = [][]string{
	nil,
	{"country"},
	{"age"},
	{"gender"},
	{"age", "gender"},
	{"publisher_platform", "platform_position"},
}

// Adapter implements adapter.SourceAdapter for Meta Insights.
type Adapter struct {
	client *Client
	cfg    config.MetaConfig

	schemaLog *adapter.SchemaLog

	// unknown action types are warned once per type, not per row
	warnedMu sync.Mutex
	warned   map[string]struct{}
}

// New creates the Meta adapter.
func New(cfg config.MetaConfig) *Adapter {
	return &Adapter{
		client:    NewClient(cfg),
		cfg:       cfg,
		schemaLog: adapter.NewSchemaLog(),
		warned:    make(map[string]struct{}),
	}
}

// Name implements adapter.SourceAdapter.
func (a *Adapter) Name() string { return SourceName }

// Fetch pulls every breakdown report for the window and streams normalized
// spend facts plus campaign dimension rows.
func (a *Adapter) Fetch(ctx context.Context, store domain.Store, w domain.Window) *adapter.Stream {
	stream, emit := adapter.NewStream(2)

	go func() {
		emit.Close(a.fetchWindow(ctx, emit, store, w))
	}()

	return stream
}

func (a *Adapter) fetchWindow(ctx context.Context, emit *adapter.Emitter, store domain.Store, w domain.Window) error {
	token := a.cfg.AccessTokens[store.ID]
	accountID := a.cfg.AccountIDs[store.ID]
	if token == "" || accountID == "" {
		return adapter.Auth(SourceName, fmt.Errorf("store %s has no meta credentials", store.ID))
	}

	seenCampaigns := make(map[string]struct{})

	for _, breakdown := range breakdownSets {
		if err := a.fetchReport(ctx, emit, store, w, accountID, token, breakdown, seenCampaigns); err != nil {
			return err
		}
	}
	return nil
}

// fetchReport pulls one breakdown variant across all its pages.
func (a *Adapter) fetchReport(ctx context.Context, emit *adapter.Emitter, store domain.Store, w domain.Window,
	accountID, token string, breakdown []string, seenCampaigns map[string]struct{}) error {

	params := url.Values{}
	params.Set("fields", insightFields)
	params.Set("level", "ad")
	params.Set("time_increment", "1")
	params.Set("limit", "500")
	params.Set("time_range", fmt.Sprintf(`{"since":"%s","until":"%s"}`, w.StartDate(), w.EndDate()))
	if len(breakdown) > 0 {
		params.Set("breakdowns", joinComma(breakdown))
	}

	pageURL := a.client.insightsURL(accountID, token, params)
	for pageURL != "" {
		if err := ctx.Err(); err != nil {
			return err
		}
		resp, err := a.client.getPage(ctx, pageURL)
		if err != nil {
			return err
		}

		var batch adapter.Batch
		for _, row := range resp.Data {
			fact, err := a.normalizeRow(store.ID, row, breakdown)
			if err != nil {
				a.schemaLog.Warn(store.ID, SourceName, row.DateStart, err)
				continue
			}
			batch.Spend = append(batch.Spend, fact)
			batch.Campaigns = appendCampaignDims(batch.Campaigns, seenCampaigns, store.ID, row)
		}
		if err := emit.Emit(ctx, batch); err != nil {
			return err
		}

		pageURL = resp.Paging.Next
	}
	return nil
}

// normalizeRow converts one insights row into a spend fact on the tuple
// implied by the breakdown in effect.
func (a *Adapter) normalizeRow(storeID string, row insightRow, breakdown []string) (domain.AdSpendRow, error) {
	if row.CampaignID == "" || row.DateStart == "" {
		return domain.AdSpendRow{}, fmt.Errorf("row missing campaign_id or date_start")
	}

	spend, err := parseFloat(row.Spend)
	if err != nil {
		return domain.AdSpendRow{}, err
	}
	impressions, err := parseInt(row.Impressions)
	if err != nil {
		return domain.AdSpendRow{}, err
	}
	reach, err := parseInt(row.Reach)
	if err != nil {
		return domain.AdSpendRow{}, err
	}
	clicks, err := parseInt(row.Clicks)
	if err != nil {
		return domain.AdSpendRow{}, err
	}

	fact := domain.AdSpendRow{
		StoreID:     storeID,
		Date:        row.DateStart,
		CampaignID:  row.CampaignID,
		AdSetID:     row.AdsetID,
		AdID:        row.AdID,
		Dimensions:  tupleFor(row, breakdown),
		Spend:       spend,
		Impressions: impressions,
		Reach:       reach,
		Clicks:      clicks,
		SourceTag:   domain.SourceMetaAPI,
	}

	for _, av := range row.Actions {
		n, err := parseInt(av.Value)
		if err != nil {
			return domain.AdSpendRow{}, err
		}
		switch av.ActionType {
		case "landing_page_view":
			fact.LPV = n
		case "add_to_cart":
			fact.ATC = n
		case "initiate_checkout":
			fact.Checkout = n
		case "purchase":
			fact.Conversions = n
		default:
			a.warnUnknownAction(av.ActionType)
		}
	}
	for _, av := range row.ActionValues {
		if av.ActionType != "purchase" {
			continue
		}
		v, err := parseFloat(av.Value)
		if err != nil {
			return domain.AdSpendRow{}, err
		}
		fact.ConversionValue = v
	}

	return fact, nil
}

func (a *Adapter) warnUnknownAction(actionType string) {
	a.warnedMu.Lock()
	_, dup := a.warned[actionType]
	if !dup {
		a.warned[actionType] = struct{}{}
	}
	a.warnedMu.Unlock()
	if !dup {
		logger.Warn("dropping unknown meta action type", "action_type", actionType)
	}
}

// tupleFor maps a row's breakdown columns onto the dimension tuple. The
// placement tuple joins platform and position ("facebook:feed").
func tupleFor(row insightRow, breakdown []string) domain.DimensionTuple {
	var t domain.DimensionTuple
	for _, b := range breakdown {
		switch b {
		case "country":
			t.Country = row.Country
		case "age":
			t.Age = row.Age
		case "gender":
			t.Gender = row.Gender
		case "publisher_platform", "platform_position":
			t.Placement = placementOf(row)
		}
	}
	return t
}

func placementOf(row insightRow) string {
	if row.PlatformPosition == "" {
		return row.PublisherPlatform
	}
	return row.PublisherPlatform + ":" + row.PlatformPosition
}

// appendCampaignDims records the campaign, ad-set, and ad name rows the
// first time each node appears in the pull.
func appendCampaignDims(dims []domain.CampaignDim, seen map[string]struct{}, storeID string, row insightRow) []domain.CampaignDim {
	add := func(key string, dim domain.CampaignDim) {
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		dims = append(dims, dim)
	}

	add(row.CampaignID, domain.CampaignDim{
		StoreID: storeID, CampaignID: row.CampaignID, Name: row.CampaignName, Platform: "meta",
	})
	if row.AdsetID != "" {
		add(row.CampaignID+"/"+row.AdsetID, domain.CampaignDim{
			StoreID: storeID, CampaignID: row.CampaignID, AdSetID: row.AdsetID,
			Name: row.CampaignName, AdSetName: row.AdsetName, Platform: "meta",
		})
	}
	if row.AdID != "" {
		add(row.CampaignID+"/"+row.AdsetID+"/"+row.AdID, domain.CampaignDim{
			StoreID: storeID, CampaignID: row.CampaignID, AdSetID: row.AdsetID, AdID: row.AdID,
			Name: row.CampaignName, AdSetName: row.AdsetName, AdName: row.AdName, Platform: "meta",
		})
	}
	return dims
}

func joinComma(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ","
		}
		out += p
	}
	return out
}
