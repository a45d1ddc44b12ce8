// Package pricefeed pulls current prices from an external quote API and
// writes them into the stocks table, invalidating the quote cache as it
// goes. The feed is the only writer of price columns.
package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

type FeedQuote struct {
	Symbol        string
	Price         decimal.Decimal
	PreviousClose decimal.Decimal
	At            time.Time
}

type Client struct {
	http   *resty.Client
	apiKey string
}

// quoteDTO mirrors the upstream payload. Prices arrive as JSON numbers;
// decoding them through json.Number keeps the exact decimal text.
type quoteDTO struct {
	Symbol        string      `json:"symbol"`
	Price         json.Number `json:"price"`
	PreviousClose json.Number `json:"previous_close"`
	Timestamp     int64       `json:"timestamp"`
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(timeout)
	client.SetRetryCount(2)
	client.SetRetryWaitTime(500 * time.Millisecond)
	return &Client{http: client, apiKey: apiKey}
}

func (c *Client) FetchQuote(ctx context.Context, symbol string) (*FeedQuote, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol": symbol,
			"token":  c.apiKey,
		}).
		Get("/quote")
	if err != nil {
		return nil, fmt.Errorf("fetch quote for %s: %w", symbol, err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("quote API error %d for %s: %s", resp.StatusCode(), symbol, resp.String())
	}

	var dto quoteDTO
	if err := json.Unmarshal(resp.Body(), &dto); err != nil {
		return nil, fmt.Errorf("parse quote for %s: %w", symbol, err)
	}

	price, err := decimal.NewFromString(dto.Price.String())
	if err != nil {
		return nil, fmt.Errorf("bad price for %s: %w", symbol, err)
	}
	prevClose := decimal.Zero
	if dto.PreviousClose != "" {
		prevClose, err = decimal.NewFromString(dto.PreviousClose.String())
		if err != nil {
			return nil, fmt.Errorf("bad previous close for %s: %w", symbol, err)
		}
	}

	at := time.Now().UTC()
	if dto.Timestamp > 0 {
		at = time.Unix(dto.Timestamp, 0).UTC()
	}

	return &FeedQuote{
		Symbol:        symbol,
		Price:         price,
		PreviousClose: prevClose,
		At:            at,
	}, nil
}
