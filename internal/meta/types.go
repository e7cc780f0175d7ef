package meta

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// insightsResponse is the Graph API envelope for /insights.
type insightsResponse struct {
	Data   []insightRow `json:"data"`
	Paging struct {
		Next string `json:"next"`
	} `json:"paging"`
	Error *apiError `json:"error"`
}

// apiError is the Graph API error body.
type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("graph api error %d (%s): %s", e.Code, e.Type, e.Message)
}

// insightRow is one row of the insights report. Numeric fields arrive as
// strings; breakdown columns are present only when requested.
type insightRow struct {
	CampaignID   string `json:"campaign_id"`
	CampaignName string `json:"campaign_name"`
	AdsetID      string `json:"adset_id"`
	AdsetName    string `json:"adset_name"`
	AdID         string `json:"ad_id"`
	AdName       string `json:"ad_name"`
	DateStart    string `json:"date_start"`

	Spend       string `json:"spend"`
	Impressions string `json:"impressions"`
	Reach       string `json:"reach"`
	Clicks      string `json:"clicks"`

	Actions      []actionValue `json:"actions"`
	ActionValues []actionValue `json:"action_values"`

	Country             string `json:"country"`
	Age                 string `json:"age"`
	Gender              string `json:"gender"`
	PublisherPlatform   string `json:"publisher_platform"`
	PlatformPosition    string `json:"platform_position"`
}

// actionValue is one entry of the actions / action_values arrays.
type actionValue struct {
	ActionType string `json:"action_type"`
	Value      string `json:"value"`
}

// parseFloat tolerates the API's string-typed numerics. An empty string is
// zero; anything else malformed is a schema error for the row.
func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("numeric field %q: %w", s, err)
	}
	return v, nil
}

func parseInt(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// Some exports render counters with decimals ("12.0").
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return 0, fmt.Errorf("integer field %q: %w", s, err)
		}
		return int64(f), nil
	}
	return v, nil
}

// decodeInsights parses a response body, surfacing the embedded error if set.
func decodeInsights(body []byte) (*insightsResponse, error) {
	var resp insightsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse insights response: %w", err)
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	return &resp, nil
}
