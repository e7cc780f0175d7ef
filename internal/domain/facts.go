package domain

import "time"

// SourceTag identifies where an ad-spend fact was ingested from.
// Tags with the "meta_" prefix are wiped together by the operator reset.
type SourceTag string

const (
	SourceMetaAPI SourceTag = "meta_api"
	SourceMetaCSV SourceTag = "meta_csv"
	SourceManual  SourceTag = "manual"
)

// MetaPrefix is the source-tag prefix shared by all Meta-originated facts.
const MetaPrefix = "meta_"

// DimensionTuple is the breakdown attached to a spend fact. The zero value
// (all fields empty) is the unbrokendown daily total for the campaign.
type DimensionTuple struct {
	Country   string `json:"country,omitempty" db:"country"`
	Age       string `json:"age,omitempty" db:"age"`
	Gender    string `json:"gender,omitempty" db:"gender"`
	Placement string `json:"placement,omitempty" db:"placement"`
}

// IsTotal reports whether the tuple is the unbrokendown (none,none,none,none) row.
func (d DimensionTuple) IsTotal() bool {
	return d.Country == "" && d.Age == "" && d.Gender == "" && d.Placement == ""
}

// AdSpendRow is one normalized daily spend fact. The natural key is
// (store, date, campaign, dimension tuple, source tag); re-ingestion of the
// same key replaces the row.
type AdSpendRow struct {
	StoreID    string         `json:"store_id" db:"store_id"`
	Date       string         `json:"date" db:"date"` // YYYY-MM-DD in the store's calendar
	CampaignID string         `json:"campaign_id" db:"campaign_id"`
	AdSetID    string         `json:"ad_set_id,omitempty" db:"ad_set_id"`
	AdID       string         `json:"ad_id,omitempty" db:"ad_id"`
	Dimensions DimensionTuple `json:"dimensions"`

	Spend           float64 `json:"spend" db:"spend"`
	Impressions     int64   `json:"impressions" db:"impressions"`
	Reach           int64   `json:"reach" db:"reach"`
	Clicks          int64   `json:"clicks" db:"clicks"`
	LPV             int64   `json:"lpv" db:"lpv"`
	ATC             int64   `json:"atc" db:"atc"`
	Checkout        int64   `json:"checkout" db:"checkout"`
	Conversions     int64   `json:"conversions" db:"conversions"`
	ConversionValue float64 `json:"conversion_value" db:"conversion_value"`

	SourceTag  SourceTag `json:"source_tag" db:"source_tag"`
	IngestedAt time.Time `json:"ingested_at" db:"ingested_at"`
}

// CampaignDim is the campaign dimension row. (store, campaign_id) is unique;
// the name may change over time and the latest ingested name wins.
type CampaignDim struct {
	StoreID    string `json:"store_id" db:"store_id"`
	CampaignID string `json:"campaign_id" db:"campaign_id"`
	Name       string `json:"name" db:"name"`
	AdSetID    string `json:"ad_set_id,omitempty" db:"ad_set_id"`
	AdSetName  string `json:"ad_set_name,omitempty" db:"ad_set_name"`
	AdID       string `json:"ad_id,omitempty" db:"ad_id"`
	AdName     string `json:"ad_name,omitempty" db:"ad_name"`
	Platform   string `json:"platform" db:"platform"`
}

// OrderEvent is a single storefront order with its timestamp preserved for
// the hour-of-day and day-of-week views. Hour is nil when the source did not
// report one; such events are excluded from the time-of-day view only.
type OrderEvent struct {
	StoreID        string         `json:"store_id" db:"store_id"`
	SourcePlatform SourcePlatform `json:"source_platform" db:"source_platform"`
	OrderID        string         `json:"order_id" db:"order_id"`
	Date           string         `json:"date" db:"date"`
	Hour           *int           `json:"hour,omitempty" db:"hour"`
	Country        string         `json:"country" db:"country"`
	Region         string         `json:"region,omitempty" db:"region"`
	City           string         `json:"city,omitempty" db:"city"`
	Revenue        float64        `json:"revenue" db:"revenue"`
	Currency       string         `json:"currency" db:"currency"`
	IngestedAt     time.Time      `json:"ingested_at" db:"ingested_at"`
}

// OrderDaily is the per-(store, date, country, platform) rollup of OrderEvent.
type OrderDaily struct {
	StoreID        string         `json:"store_id"`
	Date           string         `json:"date"`
	Country        string         `json:"country"`
	SourcePlatform SourcePlatform `json:"source_platform"`
	OrderCount     int            `json:"order_count"`
	Revenue        float64        `json:"revenue"`
}

// ManualOrder is an operator-entered order fact.
type ManualOrder struct {
	ID          string    `json:"id" db:"id"`
	StoreID     string    `json:"store_id" db:"store_id"`
	Date        string    `json:"date" db:"date"`
	Country     string    `json:"country" db:"country"`
	CampaignID  string    `json:"campaign_id,omitempty" db:"campaign_id"`
	OrdersCount int       `json:"orders_count" db:"orders_count"`
	Revenue     float64   `json:"revenue" db:"revenue"`
	Spend       *float64  `json:"spend,omitempty" db:"spend"`
	SourceLabel string    `json:"source_label" db:"source_label"`
	Notes       string    `json:"notes,omitempty" db:"notes"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// OverrideAllCountries is the Country value of a spend override that
// replaces the whole day's spend rather than a single country's.
const OverrideAllCountries = "ALL"

// SpendOverride is an operator-entered spend replacement for a (date, country)
// cell. Country "ALL" replaces the total for that date; a country-specific
// entry wins over ALL for its country.
type SpendOverride struct {
	ID        string    `json:"id" db:"id"`
	StoreID   string    `json:"store_id" db:"store_id"`
	Date      string    `json:"date" db:"date"`
	Country   string    `json:"country" db:"country"`
	Amount    float64   `json:"amount" db:"amount"`
	Notes     string    `json:"notes,omitempty" db:"notes"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// IsAll reports whether the override applies to every country of its date.
func (o SpendOverride) IsAll() bool { return o.Country == OverrideAllCountries }

// Notification is the lightweight record emitted when new orders cross the
// per-store high-water mark. Delivery is someone else's job.
type Notification struct {
	ID        string         `json:"id"`
	StoreID   string         `json:"store_id"`
	Platform  SourcePlatform `json:"platform"`
	OrderID   string         `json:"order_id"`
	Country   string         `json:"country"`
	Revenue   float64        `json:"revenue"`
	CreatedAt time.Time      `json:"created_at"`
}
