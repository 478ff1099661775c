package shipping

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/floorworks/commerce/internal/money"
)

// HTTPParcelRater calls an external parcel-rate API over a plain JSON
// HTTP contract. Grounded on the teacher's easypost.go adapter shape
// (config struct + constructor + logger field) but built over stdlib
// net/http rather than a vendor SDK, since the pack carries no parcel-rate
// client for a non-EasyPost carrier.
type HTTPParcelRater struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        zerolog.Logger
	originZIP  string
}

type ParcelRaterConfig struct {
	BaseURL   string
	APIKey    string
	OriginZIP string
	Timeout   time.Duration
	Logger    zerolog.Logger
}

func NewHTTPParcelRater(cfg ParcelRaterConfig) *HTTPParcelRater {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &HTTPParcelRater{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		originZIP:  cfg.OriginZIP,
		httpClient: &http.Client{Timeout: timeout},
		log:        cfg.Logger.With().Str("component", "shipping.parcel").Logger(),
	}
}

type parcelRateRequest struct {
	OriginZIP string  `json:"origin_zip"`
	DestZIP   string  `json:"dest_zip"`
	WeightLbs float64 `json:"weight_lbs"`
}

type parcelRateResponse struct {
	Rates []struct {
		Carrier     string  `json:"carrier"`
		Service     string  `json:"service"`
		TransitDays int     `json:"transit_days"`
		Cost        float64 `json:"cost"`
	} `json:"rates"`
}

// GetParcelRates implements ParcelRater by posting a rate request to the
// configured carrier endpoint and mapping the response into Quotes.
func (r *HTTPParcelRater) GetParcelRates(ctx context.Context, originZIP, destZIP string, weightLbs decimal.Decimal) ([]Quote, error) {
	if originZIP == "" {
		originZIP = r.originZIP
	}
	w, _ := weightLbs.Float64()
	body, err := json.Marshal(parcelRateRequest{OriginZIP: originZIP, DestZIP: destZIP, WeightLbs: w})
	if err != nil {
		return nil, fmt.Errorf("shipping: encode parcel rate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/rates", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("shipping: build parcel rate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		r.log.Error().Err(err).Str("dest_zip", destZIP).Msg("parcel rate request failed")
		return nil, fmt.Errorf("shipping: parcel rate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("shipping: parcel rater returned %d: %s", resp.StatusCode, data)
	}

	var parsed parcelRateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("shipping: decode parcel rate response: %w", err)
	}

	quotes := make([]Quote, 0, len(parsed.Rates))
	for _, rate := range parsed.Rates {
		quotes = append(quotes, Quote{
			Carrier:     rate.Carrier,
			Service:     rate.Service,
			TransitDays: rate.TransitDays,
			Cost:        money.FromFloat(rate.Cost),
		})
	}
	return quotes, nil
}
