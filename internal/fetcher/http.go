package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"fx-rate-alerts/internal/domain"
)

const latestRatePath = "/latest"

// HTTPOptions parameterise the JSON rate API source.
type HTTPOptions struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	UserAgent string
}

// HTTPSource fetches spot rates from a frankfurter style JSON API:
// GET /latest?base=USD&symbols=EUR returning {"rates":{"EUR":0.9213}}.
type HTTPSource struct {
	opts    HTTPOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewHTTPSource constructs the API source with sane defaults.
func NewHTTPSource(opts HTTPOptions, logger zerolog.Logger) *HTTPSource {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.frankfurter.app"
	}

	return &HTTPSource{
		opts:    opts,
		logger:  logger.With().Str("component", "http_source").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// Name identifies the provider in rate history entries.
func (s *HTTPSource) Name() string { return "http" }

// FetchRate asks the API for a single pair quote.
func (s *HTTPSource) FetchRate(ctx context.Context, pair domain.CurrencyPair) (decimal.Decimal, error) {
	query := url.Values{}
	query.Set("base", pair.From)
	query.Set("symbols", pair.To)
	if s.opts.APIKey != "" {
		query.Set("apikey", s.opts.APIKey)
	}
	endpoint := s.baseURL + latestRatePath + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Decimal{}, err
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(s.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	} else {
		req.Header.Set("User-Agent", "fxwatcher/1.0")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return decimal.Decimal{}, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return decimal.Decimal{}, err
	}

	if resp.StatusCode != http.StatusOK {
		return decimal.Decimal{}, parseHTTPError(resp.StatusCode, payload)
	}

	var out latestResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return decimal.Decimal{}, err
	}

	raw, ok := out.Rates[pair.To]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("rate for %s missing from response", pair.Key())
	}
	rate, err := decimal.NewFromString(raw.String())
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse rate: %w", err)
	}
	if !rate.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("rate for %s must be positive, got %s", pair.Key(), rate)
	}

	return rate, nil
}

type latestResponse struct {
	Base  string                 `json:"base"`
	Date  string                 `json:"date"`
	Rates map[string]json.Number `json:"rates"`
}

type errorResponse struct {
	Error       string `json:"error"`
	Description string `json:"description"`
	Message     string `json:"message"`
}

func parseHTTPError(status int, payload []byte) error {
	var apiErr errorResponse
	if err := json.Unmarshal(payload, &apiErr); err == nil {
		if apiErr.Message != "" {
			return fmt.Errorf("rate api error (%d): %s", status, apiErr.Message)
		}
		if apiErr.Description != "" {
			return fmt.Errorf("rate api error (%d): %s", status, apiErr.Description)
		}
		if apiErr.Error != "" {
			return fmt.Errorf("rate api error (%d): %s", status, apiErr.Error)
		}
	}
	if len(payload) > 0 {
		return fmt.Errorf("rate api error (%d): %s", status, strings.TrimSpace(string(payload)))
	}
	return fmt.Errorf("rate api error (%d)", status)
}

var _ RateSource = (*HTTPSource)(nil)
