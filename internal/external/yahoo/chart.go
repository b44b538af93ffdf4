package yahoo

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/wonny/vantage/internal/contracts"
)

// FetchDailyBars fetches daily OHLCV bars for symbol in [from, to].
// ⭐ SSOT: 일봉 수집은 이 함수에서만
func (c *Client) FetchDailyBars(ctx context.Context, symbol string, from, to time.Time) ([]contracts.PriceBar, error) {
	result, err := c.fetchChart(ctx, symbol, from, to)
	if err != nil {
		return nil, err
	}

	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("chart response for %s has no quote block", symbol)
	}
	quote := result.Indicators.Quote[0]

	var bars []contracts.PriceBar
	for i, ts := range result.Timestamp {
		// Null entries mark holidays or rows the venue has not settled yet.
		if i >= len(quote.Close) || quote.Close[i] == nil ||
			quote.Open[i] == nil || quote.High[i] == nil || quote.Low[i] == nil {
			continue
		}
		var volume int64
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			volume = *quote.Volume[i]
		}
		bars = append(bars, contracts.PriceBar{
			Symbol: symbol,
			Date:   tradeDate(ts),
			Open:   *quote.Open[i],
			High:   *quote.High[i],
			Low:    *quote.Low[i],
			Close:  *quote.Close[i],
			Volume: volume,
		})
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"count":  len(bars),
	}).Debug("Fetched daily bars")
	return bars, nil
}

// FetchVolatilityIndex fetches daily closing levels of a volatility index.
// Index symbols report no volume; only the close matters here.
func (c *Client) FetchVolatilityIndex(ctx context.Context, symbol string, from, to time.Time) ([]contracts.VolatilityReading, error) {
	result, err := c.fetchChart(ctx, symbol, from, to)
	if err != nil {
		return nil, err
	}

	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("chart response for %s has no quote block", symbol)
	}
	quote := result.Indicators.Quote[0]

	var readings []contracts.VolatilityReading
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == nil {
			continue
		}
		readings = append(readings, contracts.VolatilityReading{
			Date:  tradeDate(ts),
			Level: *quote.Close[i],
		})
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"count":  len(readings),
	}).Debug("Fetched volatility index")
	return readings, nil
}

// FetchQuote fetches the latest regular-market price for symbol.
func (c *Client) FetchQuote(ctx context.Context, symbol string) (*contracts.Quote, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s",
		c.baseURL, url.PathEscape(symbol),
		url.Values{"range": {"1d"}, "interval": {"1d"}}.Encode())

	resp, err := c.fetchJSON(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("chart response for %s has no result", symbol)
	}

	meta := resp.Chart.Result[0].Meta
	if meta.RegularMarketPrice <= 0 {
		return nil, fmt.Errorf("chart response for %s has no market price", symbol)
	}
	return &contracts.Quote{
		Symbol: symbol,
		Price:  meta.RegularMarketPrice,
		AsOf:   time.Unix(meta.RegularMarketTime, 0).UTC(),
		Live:   true,
	}, nil
}

func (c *Client) fetchChart(ctx context.Context, symbol string, from, to time.Time) (*chartResult, error) {
	params := url.Values{
		"period1":  {fmt.Sprintf("%d", from.Unix())},
		"period2":  {fmt.Sprintf("%d", to.Unix())},
		"interval": {"1d"},
		"events":   {"history"},
	}
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(symbol), params.Encode())

	resp, err := c.fetchJSON(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch chart for %s: %w", symbol, err)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("chart response for %s has no result", symbol)
	}
	return &resp.Chart.Result[0], nil
}

// tradeDate truncates an exchange timestamp to its UTC calendar date.
func tradeDate(ts int64) time.Time {
	t := time.Unix(ts, 0).UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
