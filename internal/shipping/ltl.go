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

	"github.com/floorworks/commerce/internal/money"
)

// HTTPLTLRater calls an external LTL freight broker over a JSON HTTP
// contract, the freight-class analogue of HTTPParcelRater.
type HTTPLTLRater struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        zerolog.Logger
}

type LTLRaterConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Logger  zerolog.Logger
}

func NewHTTPLTLRater(cfg LTLRaterConfig) *HTTPLTLRater {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &HTTPLTLRater{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		log:        cfg.Logger.With().Str("component", "shipping.ltl").Logger(),
	}
}

type ltlRateRequest struct {
	Origin      Address              `json:"origin"`
	Dest        Address              `json:"destination"`
	Classes     []FreightClassWeight `json:"freight_classes"`
	PickupDate  string               `json:"pickup_date"`
	Residential bool                 `json:"residential"`
	Liftgate    bool                 `json:"liftgate"`
}

type ltlRateResponse struct {
	Rates []struct {
		Carrier     string  `json:"carrier"`
		Service     string  `json:"service"`
		TransitDays int     `json:"transit_days"`
		Cost        float64 `json:"cost"`
	} `json:"rates"`
}

// GetLTLRates implements LTLRater by posting the aggregated freight-class
// weights to the configured broker endpoint.
func (r *HTTPLTLRater) GetLTLRates(ctx context.Context, origin, dest Address, classes []FreightClassWeight, pickupDate time.Time, residential, liftgate bool) ([]Quote, error) {
	if len(classes) == 0 {
		return nil, ErrNoPackages
	}

	body, err := json.Marshal(ltlRateRequest{
		Origin:      origin,
		Dest:        dest,
		Classes:     classes,
		PickupDate:  pickupDate.Format("2006-01-02"),
		Residential: residential,
		Liftgate:    liftgate,
	})
	if err != nil {
		return nil, fmt.Errorf("shipping: encode ltl rate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/ltl/rates", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("shipping: build ltl rate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		r.log.Error().Err(err).Msg("ltl rate request failed")
		return nil, fmt.Errorf("shipping: ltl rate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("shipping: ltl rater returned %d: %s", resp.StatusCode, data)
	}

	var parsed ltlRateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("shipping: decode ltl rate response: %w", err)
	}
	if len(parsed.Rates) == 0 {
		return nil, fmt.Errorf("shipping: ltl rater returned no quotes")
	}

	quotes := make([]Quote, 0, len(parsed.Rates))
	for _, rate := range parsed.Rates {
		quotes = append(quotes, Quote{
			Carrier:     rate.Carrier,
			Service:     rate.Service,
			TransitDays: rate.TransitDays,
			Cost:        money.FromFloat(rate.Cost),
			Residential: residential,
			Liftgate:    liftgate,
		})
	}
	return quotes, nil
}
