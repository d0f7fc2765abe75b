package fetcher

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"fx-rate-alerts/internal/domain"
)

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func usdEur() domain.CurrencyPair {
	pair, err := domain.NewCurrencyPair("USD", "EUR")
	if err != nil {
		panic(err)
	}
	return pair
}

func TestHTTPSourceFetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("base"); got != "USD" {
			t.Errorf("base query = %q", got)
		}
		if got := r.URL.Query().Get("symbols"); got != "EUR" {
			t.Errorf("symbols query = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"base":  "USD",
			"date":  "2025-03-10",
			"rates": map[string]float64{"EUR": 0.9213},
		})
	}))
	defer srv.Close()

	s := NewHTTPSource(HTTPOptions{BaseURL: srv.URL, Timeout: time.Second, UserAgent: "test"}, noopLogger())
	rate, err := s.FetchRate(context.Background(), usdEur())
	if err != nil {
		t.Fatalf("成功响应不应报错: %v", err)
	}
	if !rate.Equal(decimal.RequireFromString("0.9213")) {
		t.Fatalf("期望汇率 0.9213, 实际 %s", rate)
	}
}

func TestHTTPSourceFetchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "rate limited"})
	}))
	defer srv.Close()

	s := NewHTTPSource(HTTPOptions{BaseURL: srv.URL, Timeout: time.Second}, noopLogger())
	if _, err := s.FetchRate(context.Background(), usdEur()); err == nil {
		t.Fatal("HTTP 429 应返回错误")
	}
}

func TestHTTPSourceRejectsMissingOrBadRate(t *testing.T) {
	payloads := []map[string]any{
		{"base": "USD", "rates": map[string]float64{"JPY": 150.2}},
		{"base": "USD", "rates": map[string]float64{"EUR": 0}},
		{"base": "USD", "rates": map[string]float64{"EUR": -1.2}},
	}
	for _, payload := range payloads {
		payload := payload
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(payload)
		}))

		s := NewHTTPSource(HTTPOptions{BaseURL: srv.URL, Timeout: time.Second}, noopLogger())
		if _, err := s.FetchRate(context.Background(), usdEur()); err == nil {
			t.Fatalf("payload %v 应返回错误", payload)
		}
		srv.Close()
	}
}

func TestChainlinkMissingConfig(t *testing.T) {
	c := NewChainlink(ChainlinkOptions{}, noopLogger())
	if _, err := c.FetchRate(context.Background(), usdEur()); err == nil {
		t.Fatal("未配置 RPC 时应报错")
	}

	c = NewChainlink(ChainlinkOptions{RPCURL: "http://localhost"}, noopLogger())
	if _, err := c.FetchRate(context.Background(), usdEur()); err == nil {
		t.Fatal("缺少 feed 地址应报错")
	}
}
