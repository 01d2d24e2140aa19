// Package nbp resolves NBP table A mid rates for foreign currencies. Per
// art. 22 ust. 1 updof the rate of the day preceding the transaction applies;
// when that day has no quotation (weekend, holiday) the most recent earlier
// business day is used, searched up to 14 days back.
package nbp

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/modek4/crypto-tax/internal/cache"
)

const (
	// DefaultBaseURL is the NBP exchange-rates API, table A.
	DefaultBaseURL = "https://api.nbp.pl/api/exchangerates/rates/a"

	maxDaysBack         = 14
	maxTransientRetries = 3
	throttleCooldown    = 3 * time.Second
	transientWait       = 200 * time.Millisecond
)

// UnavailableError means every fallback was exhausted for one currency/date.
// The processor degrades the affected row to a warning; the run continues.
type UnavailableError struct {
	Currency string
	RefDate  time.Time
	Reason   string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("no NBP rate for %s near %s (checked %d days back): %s",
		e.Currency, e.RefDate.Format("2006-01-02"), maxDaysBack, e.Reason)
}

// Client looks up rates over HTTP with caching and retry.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Cache   cache.Store

	// sleep is swapped out in tests so backoff runs without real delays.
	sleep func(time.Duration)
}

// NewClient creates a resolver backed by the given cache store.
func NewClient(baseURL string, store cache.Store) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 8 * time.Second},
		Cache:   store,
		sleep:   time.Sleep,
	}
}

type lookupStatus int

const (
	lookupOK lookupStatus = iota
	lookupNoData
	lookupThrottled
	lookupFailed
)

// GetRate resolves the PLN mid rate for a currency and transaction time.
// PLN itself is always 1.0 with no network call.
func (c *Client) GetRate(currency string, txTime time.Time) (float64, error) {
	cur := strings.ToUpper(strings.TrimSpace(currency))
	if cur == "PLN" {
		return 1.0, nil
	}

	// Day preceding the transaction (art. 22 ust. 1 updof).
	refDate := txTime.UTC().Truncate(24 * time.Hour).AddDate(0, 0, -1)

	for daysBack := 0; daysBack < maxDaysBack; daysBack++ {
		checkDate := refDate.AddDate(0, 0, -daysBack)
		dateStr := checkDate.Format("2006-01-02")

		if rate, ok := c.Cache.Rate(cur, dateStr); ok {
			return rate, nil
		}

		retries := 0
	sameDate:
		for {
			rate, status, err := c.fetch(cur, dateStr)
			switch status {
			case lookupOK:
				c.Cache.PutRate(cur, dateStr, rate)
				return rate, nil
			case lookupNoData:
				// no quotation for this date, walk one day further back
				break sameDate
			case lookupThrottled:
				retries++
				if retries > maxTransientRetries {
					return 0, &UnavailableError{Currency: cur, RefDate: refDate,
						Reason: "rate limit retries exhausted"}
				}
				c.sleep(throttleCooldown)
			case lookupFailed:
				retries++
				if retries > maxTransientRetries {
					return 0, &UnavailableError{Currency: cur, RefDate: refDate,
						Reason: fmt.Sprintf("transient retries exhausted: %v", err)}
				}
				c.sleep(transientWait)
			}
		}
	}

	return 0, &UnavailableError{Currency: cur, RefDate: refDate,
		Reason: "no quotation found, verify the currency is in NBP table A"}
}

type rateResponse struct {
	Rates []struct {
		Mid float64 `json:"mid"`
	} `json:"rates"`
}

func (c *Client) fetch(currency, dateStr string) (float64, lookupStatus, error) {
	u := fmt.Sprintf("%s/%s/%s/?format=json", c.BaseURL, strings.ToLower(currency), dateStr)

	req, err := http.NewRequest("GET", u, nil)
	if err != nil {
		return 0, lookupFailed, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, lookupFailed, fmt.Errorf("nbp fetch: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return 0, lookupNoData, nil
	case http.StatusTooManyRequests:
		return 0, lookupThrottled, nil
	default:
		body, _ := io.ReadAll(resp.Body)
		return 0, lookupFailed, fmt.Errorf("nbp: status %d, body: %s", resp.StatusCode, string(body))
	}

	var data rateResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return 0, lookupFailed, fmt.Errorf("nbp decode: %w", err)
	}
	if len(data.Rates) == 0 {
		return 0, lookupNoData, nil
	}
	return data.Rates[0].Mid, lookupOK, nil
}
