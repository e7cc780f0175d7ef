package meta

import (
	"fmt"

	"github.com/vironax/adinsights/internal/domain"
)

// ImportRow is one parsed row of a Meta ads CSV export, as posted by the
// import endpoint. Parsing the file itself happens client-side; the server
// receives the rows array.
type ImportRow struct {
	Date         string  `json:"date"`
	CampaignID   string  `json:"campaign_id"`
	CampaignName string  `json:"campaign_name"`
	AdSetID      string  `json:"ad_set_id"`
	AdSetName    string  `json:"ad_set_name"`
	AdID         string  `json:"ad_id"`
	AdName       string  `json:"ad_name"`
	Country      string  `json:"country"`
	Age          string  `json:"age"`
	Gender       string  `json:"gender"`
	Placement    string  `json:"placement"`
	Spend        float64 `json:"spend"`
	Impressions  int64   `json:"impressions"`
	Reach        int64   `json:"reach"`
	Clicks       int64   `json:"clicks"`
	LPV          int64   `json:"lpv"`
	ATC          int64   `json:"atc"`
	Checkout     int64   `json:"checkout"`
	Purchases    int64   `json:"purchases"`
	PurchaseValue float64 `json:"purchase_value"`
}

// NormalizeImport converts posted CSV rows into spend facts tagged meta_csv
// plus the campaign dimension rows they imply. Duplicate natural keys within
// the upload collapse to the last occurrence, so re-uploading an export is
// idempotent.
func NormalizeImport(storeID string, rows []ImportRow) ([]domain.AdSpendRow, []domain.CampaignDim, error) {
	byKey := make(map[string]domain.AdSpendRow)
	var order []string
	seenDims := make(map[string]struct{})
	var dims []domain.CampaignDim

	for i, r := range rows {
		if r.Date == "" || r.CampaignID == "" {
			return nil, nil, fmt.Errorf("row %d: date and campaign_id are required", i)
		}
		if _, err := domain.NewWindow(r.Date, r.Date); err != nil {
			return nil, nil, fmt.Errorf("row %d: %w", i, err)
		}

		fact := domain.AdSpendRow{
			StoreID:    storeID,
			Date:       r.Date,
			CampaignID: r.CampaignID,
			AdSetID:    r.AdSetID,
			AdID:       r.AdID,
			Dimensions: domain.DimensionTuple{
				Country: r.Country, Age: r.Age, Gender: r.Gender, Placement: r.Placement,
			},
			Spend:           r.Spend,
			Impressions:     r.Impressions,
			Reach:           r.Reach,
			Clicks:          r.Clicks,
			LPV:             r.LPV,
			ATC:             r.ATC,
			Checkout:        r.Checkout,
			Conversions:     r.Purchases,
			ConversionValue: r.PurchaseValue,
			SourceTag:       domain.SourceMetaCSV,
		}

		key := fact.Date + "|" + fact.CampaignID + "|" + fact.AdSetID + "|" + fact.AdID + "|" +
			fact.Dimensions.Country + "|" + fact.Dimensions.Age + "|" + fact.Dimensions.Gender + "|" + fact.Dimensions.Placement
		if _, ok := byKey[key]; !ok {
			order = append(order, key)
		}
		byKey[key] = fact

		dims = appendCampaignDims(dims, seenDims, storeID, insightRow{
			CampaignID: r.CampaignID, CampaignName: r.CampaignName,
			AdsetID: r.AdSetID, AdsetName: r.AdSetName,
			AdID: r.AdID, AdName: r.AdName,
		})
	}

	out := make([]domain.AdSpendRow, 0, len(byKey))
	for _, key := range order {
		out = append(out, byKey[key])
	}
	return out, dims, nil
}
