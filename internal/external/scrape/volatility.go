// Package scrape is the HTML fallback source for the volatility index,
// used when the chart API has not published today's level yet.
package scrape

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/vantage/internal/contracts"
	"github.com/wonny/vantage/pkg/config"
	"github.com/wonny/vantage/pkg/httputil"
	"github.com/wonny/vantage/pkg/logger"
)

// VolatilityScraper scrapes the current volatility-index level from the
// exchange quote page.
// ⭐ SSOT: 변동성 지수 스크레이핑은 이 클라이언트에서만
type VolatilityScraper struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	quoteURL   string
}

// NewVolatilityScraper creates a new scraper.
func NewVolatilityScraper(httpClient *httputil.Client, log *logger.Logger, cfg config.ScrapeConfig) *VolatilityScraper {
	return &VolatilityScraper{
		httpClient: httpClient,
		logger:     log,
		quoteURL:   cfg.QuoteURL,
	}
}

// FetchLevel fetches today's volatility-index level.
func (s *VolatilityScraper) FetchLevel(ctx context.Context) (*contracts.VolatilityReading, error) {
	resp, err := s.httpClient.Get(ctx, s.quoteURL)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse quote page failed: %w", err)
	}

	level, err := parseLevel(doc)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	reading := &contracts.VolatilityReading{
		Date:  time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		Level: level,
	}

	s.logger.WithFields(map[string]interface{}{
		"level": level,
	}).Debug("Scraped volatility level")
	return reading, nil
}

// parseLevel extracts the index level from the quote page. The page marks
// the headline number with the vol-index data attribute; older revisions
// used an id, so both selectors are tried.
func parseLevel(doc *goquery.Document) (float64, error) {
	selectors := []string{
		`[data-field="vol-index"]`,
		"#volIndexLevel",
		".vol-index .value",
	}

	for _, selector := range selectors {
		text := strings.TrimSpace(doc.Find(selector).First().Text())
		if text == "" {
			continue
		}
		level, err := parseNumber(text)
		if err != nil {
			return 0, fmt.Errorf("malformed level %q: %w", text, err)
		}
		if level <= 0 || level > 200 {
			return 0, fmt.Errorf("implausible volatility level: %v", level)
		}
		return level, nil
	}

	return 0, fmt.Errorf("volatility level not found in quote page")
}

func parseNumber(text string) (float64, error) {
	text = strings.ReplaceAll(text, ",", "")
	return strconv.ParseFloat(text, 64)
}
