package pricing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// klineClient fetches single 1h candles from the exchange kline endpoint.
type klineClient struct {
	baseURL string
	http    *http.Client
}

func newKlineClient(baseURL string) *klineClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &klineClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 8 * time.Second},
	}
}

// close returns the close price of the 1h candle starting at hourStart for a
// trading pair. Any failure (HTTP error, unknown pair, empty window) is a
// miss, not an error; the resolver then tries the next quote leg.
func (k *klineClient) close(pair string, hourStart time.Time) (float64, bool) {
	u := fmt.Sprintf("%s?symbol=%s&interval=1h&startTime=%d&limit=1",
		k.baseURL, pair, hourStart.UnixMilli())

	resp, err := k.http.Get(u)
	if err != nil {
		return 0, false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, false
	}

	// Kline rows are heterogeneous arrays; index 4 is the close price.
	var candles [][]any
	if err := json.NewDecoder(resp.Body).Decode(&candles); err != nil {
		return 0, false
	}
	if len(candles) == 0 || len(candles[0]) < 5 {
		return 0, false
	}
	return toPrice(candles[0][4])
}

func toPrice(v any) (float64, bool) {
	switch n := v.(type) {
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	case float64:
		return n, true
	default:
		return 0, false
	}
}
