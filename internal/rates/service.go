package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const msatPerBTC = 100_000_000_000

// Logger defines the logging interface used by the Service.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Converter translates a fiat amount into millisatoshis at the current
// exchange rate.
type Converter interface {
	FiatToMsat(ctx context.Context, amount float64, currency string) (int64, error)
}

// quote is one cached BTC price in a fiat currency.
type quote struct {
	btcPrice float64
	fetched  time.Time
}

// Service fetches BTC spot prices from a coingecko-style HTTP source and
// converts fiat pin amounts to millisatoshis. Quotes are cached per
// currency for a validity window; a stale quote triggers a refetch, and a
// fetch failure falls back to the stale quote rather than failing the
// payment flow outright.
type Service struct {
	url      string
	client   *http.Client
	validity time.Duration
	logger   Logger

	mu     sync.Mutex
	quotes map[string]quote
}

// NewService creates a rate service against the given source URL.
func NewService(sourceURL string, timeout, validity time.Duration) *Service {
	return &Service{
		url:      sourceURL,
		client:   &http.Client{Timeout: timeout},
		validity: validity,
		logger:   noopLogger{},
		quotes:   make(map[string]quote),
	}
}

// SetLogger sets the logger for the service.
func (s *Service) SetLogger(logger Logger) {
	s.logger = logger
}

// FiatToMsat converts a fiat amount into millisatoshis. The currency is a
// lowercase ISO 4217 code such as "eur" or "usd".
func (s *Service) FiatToMsat(ctx context.Context, amount float64, currency string) (int64, error) {
	currency = strings.ToLower(currency)

	price, err := s.btcPrice(ctx, currency)
	if err != nil {
		return 0, err
	}

	msat := int64(amount / price * msatPerBTC)
	if msat < 1 {
		msat = 1
	}
	return msat, nil
}

// btcPrice returns the BTC price in the currency, serving from cache
// while the quote is within its validity window.
func (s *Service) btcPrice(ctx context.Context, currency string) (float64, error) {
	s.mu.Lock()
	cached, ok := s.quotes[currency]
	s.mu.Unlock()

	if ok && time.Since(cached.fetched) < s.validity {
		return cached.btcPrice, nil
	}

	price, err := s.fetch(ctx, currency)
	if err != nil {
		if ok {
			s.logger.Warn("rate fetch failed, serving stale quote",
				"currency", currency, "age", time.Since(cached.fetched).String(), "error", err)
			return cached.btcPrice, nil
		}
		return 0, err
	}

	s.mu.Lock()
	s.quotes[currency] = quote{btcPrice: price, fetched: time.Now()}
	s.mu.Unlock()

	s.logger.Debug("rate quote refreshed", "currency", currency, "btc_price", price)
	return price, nil
}

func (s *Service) fetch(ctx context.Context, currency string) (float64, error) {
	u, err := url.Parse(s.url)
	if err != nil {
		return 0, fmt.Errorf("rates: parse source url: %w", err)
	}
	q := u.Query()
	q.Set("ids", "bitcoin")
	q.Set("vs_currencies", currency)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, fmt.Errorf("rates: build request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: source returned %d", ErrUnavailable, resp.StatusCode)
	}

	// Coingecko simple/price shape: {"bitcoin":{"eur":57123.45}}
	var payload map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}

	price, ok := payload["bitcoin"][currency]
	if !ok || price <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrUnsupported, currency)
	}
	return price, nil
}
