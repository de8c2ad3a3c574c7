// Package exchangerate fetches buy and sell rates from the National Bank of Poland (NBP) table C API.
package exchangerate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"currency-exchange-api/internal/model"
)

// DefaultBaseURL is the public NBP API host
const DefaultBaseURL = "https://api.nbp.pl"

// ErrRateNotFound is returned when NBP publishes no table C rate for the currency
var ErrRateNotFound = errors.New("exchange rate not found")

// tableResponse is the NBP table C payload
type tableResponse struct {
	Table    string      `json:"table"`
	Currency string      `json:"currency"`
	Code     string      `json:"code"`
	Rates    []tableRate `json:"rates"`
}

type tableRate struct {
	No            string          `json:"no"`
	EffectiveDate string          `json:"effectiveDate"`
	Bid           decimal.Decimal `json:"bid"`
	Ask           decimal.Decimal `json:"ask"`
}

// Client for the NBP exchange rates API
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a new NBP client
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		log:     log.With().Str("client", "nbp").Logger(),
	}
}

// AskRate returns the price in PLN of one unit of currency when buying it
func (c *Client) AskRate(ctx context.Context, currency model.Currency) (decimal.Decimal, error) {
	rate, err := c.fetchRate(ctx, currency)
	if err != nil {
		return decimal.Zero, err
	}
	return rate.Ask, nil
}

// BidRate returns the PLN received for one unit of currency when selling it
func (c *Client) BidRate(ctx context.Context, currency model.Currency) (decimal.Decimal, error) {
	rate, err := c.fetchRate(ctx, currency)
	if err != nil {
		return decimal.Zero, err
	}
	return rate.Bid, nil
}

func (c *Client) fetchRate(ctx context.Context, currency model.Currency) (*tableRate, error) {
	url := fmt.Sprintf("%s/api/exchangerates/rates/c/%s/?format=json", c.baseURL, strings.ToLower(currency.String()))
	c.log.Debug().Str("url", url).Msg("Fetching rate")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("currency", currency.String()).Msg("NBP request failed")
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w for %s", ErrRateNotFound, currency)
	}
	if resp.StatusCode != http.StatusOK {
		c.log.Warn().Int("status", resp.StatusCode).Str("currency", currency.String()).Msg("NBP returned error status")
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var table tableResponse
	if err := json.NewDecoder(resp.Body).Decode(&table); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(table.Rates) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrRateNotFound, currency)
	}

	rate := table.Rates[0]
	c.log.Info().
		Str("currency", currency.String()).
		Str("table", rate.No).
		Str("bid", rate.Bid.String()).
		Str("ask", rate.Ask.String()).
		Msg("Fetched rate")

	return &rate, nil
}
